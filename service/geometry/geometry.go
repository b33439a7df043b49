package geometry

import (
	"fmt"
	"math"

	"github.com/go-spatial/geom"
	geomwkt "github.com/go-spatial/geom/encoding/wkt"
)

// ErrInvalidRing is returned when a ring cannot be built from the points
var ErrInvalidRing = fmt.Errorf("invalid ring")

// Ring builds a linear ring from the points (x, y)
// As in geom.Polygon, the closing point is implicit and not repeated.
func Ring(xs, ys []float64) ([][2]float64, error) {
	if len(xs) != len(ys) || len(xs) < 3 {
		return nil, ErrInvalidRing
	}
	ring := make([][2]float64, 0, len(xs))
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsInf(xs[i], 0) || math.IsNaN(ys[i]) || math.IsInf(ys[i], 0) {
			return nil, ErrInvalidRing
		}
		ring = append(ring, [2]float64{xs[i], ys[i]})
	}
	return ring, nil
}

// FootprintWKT returns the WKT polygon whose exterior ring goes through the points (lon, lat)
func FootprintWKT(lons, lats []float64) (string, error) {
	ring, err := Ring(lons, lats)
	if err != nil {
		return "", fmt.Errorf("FootprintWKT: %w", err)
	}
	wkt, err := geomwkt.EncodeString(geom.Polygon{ring})
	if err != nil {
		return "", fmt.Errorf("FootprintWKT.EncodeString: %w", err)
	}
	return wkt, nil
}

// ParseFootprint decodes a footprint produced by FootprintWKT
func ParseFootprint(wkt string) (geom.Polygon, error) {
	g, err := geomwkt.DecodeString(wkt)
	if err != nil {
		return nil, fmt.Errorf("ParseFootprint.DecodeString: %w", err)
	}
	p, ok := g.(geom.Polygon)
	if !ok {
		return nil, fmt.Errorf("ParseFootprint: expected a polygon, got %T", g)
	}
	return p, nil
}
