package geotiff

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/lukeroth/gdal"
)

// Projector converts spatial references and projects coordinates back to lon/lat using OSR
type Projector struct {
	wgs84Once sync.Once
	wgs84     gdal.SpatialReference
	wgs84Err  error
}

// NewProjector creates a Projector. The lon/lat reference is created on first use.
func NewProjector() *Projector {
	return &Projector{}
}

// ToProj4 converts a WKT spatial reference to a PROJ.4 string
func (p *Projector) ToProj4(wkt string) (string, error) {
	if wkt == "" {
		return "", fmt.Errorf("ToProj4: empty spatial reference")
	}
	sr := gdal.CreateSpatialReference("")
	defer sr.Destroy()
	if err := sr.FromWKT(wkt); err != nil {
		return "", fmt.Errorf("ToProj4.FromWKT: %w", err)
	}
	proj4, err := sr.ToProj4()
	if err != nil {
		return "", fmt.Errorf("ToProj4: %w", err)
	}
	return strings.TrimSpace(proj4), nil
}

func (p *Projector) lonLat() (gdal.SpatialReference, error) {
	p.wgs84Once.Do(func() {
		p.wgs84 = gdal.CreateSpatialReference("")
		if err := p.wgs84.FromEPSG(4326); err != nil {
			p.wgs84Err = fmt.Errorf("FromEPSG(4326): %w", err)
			return
		}
		// lon, lat whatever the authority says
		p.wgs84.SetAxisMappingStrategy(gdal.OAMS_TraditionalGisOrder)
	})
	return p.wgs84, p.wgs84Err
}

// Inverse projects the (xs, ys) coordinates expressed in proj4 to longitudes and latitudes
func (p *Projector) Inverse(proj4 string, xs, ys []float64) (lons, lats []float64, err error) {
	if len(xs) != len(ys) || len(xs) == 0 {
		return nil, nil, fmt.Errorf("Inverse: %d xs for %d ys", len(xs), len(ys))
	}
	dst, err := p.lonLat()
	if err != nil {
		return nil, nil, fmt.Errorf("Inverse.%w", err)
	}
	src := gdal.CreateSpatialReference("")
	defer src.Destroy()
	if err := src.FromProj4(proj4); err != nil {
		return nil, nil, fmt.Errorf("Inverse.FromProj4: %w", err)
	}
	src.SetAxisMappingStrategy(gdal.OAMS_TraditionalGisOrder)

	ct := gdal.CreateCoordinateTransform(src, dst)
	defer ct.Destroy()

	lons = append([]float64(nil), xs...)
	lats = append([]float64(nil), ys...)
	zs := make([]float64, len(xs))
	if !ct.Transform(len(xs), lons, lats, zs) {
		return nil, nil, fmt.Errorf("Inverse: transformation failed")
	}
	for i := range lons {
		if math.IsNaN(lons[i]) || math.IsInf(lons[i], 0) || math.IsNaN(lats[i]) || math.IsInf(lats[i], 0) {
			return nil, nil, fmt.Errorf("Inverse: point (%f, %f) cannot be projected", xs[i], ys[i])
		}
	}
	return lons, lats, nil
}
