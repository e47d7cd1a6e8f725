// Package render composes styled layers into a static image or an
// interactive Leaflet artifact. A Map accumulates layers in draw order;
// later layers draw on top.
package render

import (
	"github.com/paulmach/orb"

	"github.com/cartolab/geopipe/internal/raster"
	"github.com/cartolab/geopipe/internal/style"
)

// Layer is one entry of the composition: either a styled vector layer or
// a georeferenced raster overlay.
type Layer struct {
	Name   string
	Vector *style.Layer
	Raster *raster.Grid
}

// Map is the accumulating composition. Created empty, layers appended in
// draw order, finalized by RenderStatic or RenderWeb.
type Map struct {
	Title       string
	Attribution string

	bound    orb.Bound
	hasBound bool
	layers   []Layer
}

// New returns an empty map composition.
func New(title string) *Map {
	return &Map{Title: title}
}

// SetAttribution sets the attribution line shown on rendered output.
func (m *Map) SetAttribution(s string) *Map {
	m.Attribution = s
	return m
}

// FitBounds pins the view to an explicit WGS84 lon/lat extent instead of
// the union of layer extents.
func (m *Map) FitBounds(b orb.Bound) *Map {
	m.bound = b
	m.hasBound = true
	return m
}

// AddLayer appends a styled vector layer.
func (m *Map) AddLayer(l style.Layer) *Map {
	m.layers = append(m.layers, Layer{Name: l.Name, Vector: &l})
	return m
}

// AddRaster appends a raster overlay.
func (m *Map) AddRaster(name string, g *raster.Grid) *Map {
	m.layers = append(m.layers, Layer{Name: name, Raster: g})
	return m
}

// Layers returns layer names in draw order.
func (m *Map) Layers() []string {
	names := make([]string, len(m.layers))
	for i, l := range m.layers {
		names[i] = l.Name
	}
	return names
}
