package guidebook

import (
	"context"

	"github.com/airbusgeo/geocube-importer/common"
	"github.com/airbusgeo/geocube-importer/service/log"
)

// Registry maps the platforms to their guidebook. It is read-only once created.
type Registry struct {
	books    map[common.Platform]Guidebook
	fallback Guidebook
}

// NewRegistry creates a registry. fallback is used for the platforms that are not in books.
func NewRegistry(books map[common.Platform]Guidebook, fallback Guidebook) *Registry {
	r := &Registry{books: make(map[common.Platform]Guidebook, len(books)), fallback: fallback}
	for p, g := range books {
		r.books[p] = g
	}
	if r.fallback == nil {
		r.fallback = Default{}
	}
	return r
}

// DefaultRegistry returns the guidebooks of the supported geostationary platforms
func DefaultRegistry() *Registry {
	return NewRegistry(map[common.Platform]Guidebook{
		common.PlatformGOES16:    ABIAHI{},
		common.PlatformGOES17:    ABIAHI{},
		common.PlatformHimawari8: ABIAHI{},
		common.PlatformHimawari9: ABIAHI{},
	}, Default{})
}

// For returns the guidebook of the platform and whether it is a specific one
func (r *Registry) For(platform common.Platform) (Guidebook, bool) {
	if g, ok := r.books[platform]; ok {
		return g, true
	}
	return r.fallback, false
}

// Enrich returns a copy of the record completed with the defaults of its guidebook.
// Colormap and color limits are always taken from the guidebook; display time and name are only set if empty.
// Enrich(Enrich(r)) == Enrich(r)
func (r *Registry) Enrich(ctx context.Context, rec common.Record) common.Record {
	out := rec.Clone()
	g, ok := r.For(out.Platform)
	if !ok {
		log.Logger(ctx).Sugar().Warnf("no guidebook for platform %q, using default", out.Platform)
	}
	if cmap := g.DefaultColormap(&out); cmap != "" {
		out.Colormap = cmap
	}
	if lo, hi, ok := g.CLimits(&out); ok {
		out.CLim = &[2]float64{lo, hi}
	}
	if out.DisplayTime == "" {
		out.DisplayTime = g.DefaultDisplayTime(&out)
	}
	if out.DisplayName == "" {
		out.DisplayName = g.DefaultDisplayName(&out)
	}
	log.Logger(ctx).Sugar().Debugf("%s enriched with colormap %q", out.DisplayName, out.Colormap)
	return out
}
