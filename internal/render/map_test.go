package render

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"

	"github.com/cartolab/geopipe/internal/geo"
	"github.com/cartolab/geopipe/internal/raster"
	"github.com/cartolab/geopipe/internal/style"
)

func pointLayer(name string, pts ...orb.Point) style.Layer {
	fc := geo.NewFeatureCollection(geo.WGS84)
	for i, p := range pts {
		fc.Append(p, map[string]interface{}{"idx": i})
	}
	return style.Uniform(name, fc, style.Style{Color: "#d62728"})
}

func TestMapPreservesLayerOrder(t *testing.T) {
	m := New("test").
		AddLayer(pointLayer("first", orb.Point{0, 0})).
		AddLayer(pointLayer("second", orb.Point{1, 1})).
		AddRaster("overlay", &raster.Grid{}).
		AddLayer(pointLayer("third", orb.Point{2, 2}))

	assert.Equal(t, []string{"first", "second", "overlay", "third"}, m.Layers())
}

func TestMapFitBounds(t *testing.T) {
	m := New("test").FitBounds(orb.Bound{Min: orb.Point{-10, -5}, Max: orb.Point{10, 5}})

	b, ok := m.viewBounds()
	assert.True(t, ok)
	assert.Equal(t, [2]float64{-10, -5}, b.Min)
	assert.Equal(t, [2]float64{10, 5}, b.Max)
}

func TestMapViewBoundsFromLayers(t *testing.T) {
	m := New("test").
		AddLayer(pointLayer("a", orb.Point{0, 0}, orb.Point{4, 2})).
		AddLayer(pointLayer("b", orb.Point{-2, 6}))

	b, ok := m.viewBounds()
	assert.True(t, ok)
	assert.Equal(t, [2]float64{-2, 0}, b.Min)
	assert.Equal(t, [2]float64{4, 6}, b.Max)
}
