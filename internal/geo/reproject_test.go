package geo

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReprojectSameCRSIsNoOp(t *testing.T) {
	fc := NewFeatureCollection(WGS84)
	fc.Append(orb.Point{13.4, 52.52}, map[string]interface{}{"name": "berlin"})

	out, err := Reproject(fc, WGS84)
	require.NoError(t, err)
	assert.Same(t, fc, out)
}

func TestReprojectKnownValue(t *testing.T) {
	fc := NewFeatureCollection(WGS84)
	fc.Append(orb.Point{0, 0}, nil)

	out, err := Reproject(fc, WebMercator)
	require.NoError(t, err)
	require.NotSame(t, fc, out)

	p := out.Features[0].Geom.(orb.Point)
	assert.InDelta(t, 0, p[0], 1e-6)
	assert.InDelta(t, 0, p[1], 1e-6)
}

func TestReprojectRoundTrip(t *testing.T) {
	fc := NewFeatureCollection(WGS84)
	fc.Append(orb.Point{2.3522, 48.8566}, nil)
	fc.Append(orb.LineString{{-0.1276, 51.5072}, {13.405, 52.52}}, nil)
	fc.Append(orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}}, nil)

	merc, err := Reproject(fc, WebMercator)
	require.NoError(t, err)
	require.Equal(t, fc.Len(), merc.Len())

	back, err := Reproject(merc, WGS84)
	require.NoError(t, err)
	require.Equal(t, fc.Len(), back.Len())

	for i, f := range fc.Features {
		want := f.Geom
		got := back.Features[i].Geom
		assert.Equal(t, want.GeoJSONType(), got.GeoJSONType())
		assertCoordsClose(t, want, got, 1e-6)
	}
}

func TestReprojectUndefinedCRS(t *testing.T) {
	fc := NewFeatureCollection(CRS{})
	fc.Append(orb.Point{1, 2}, nil)

	_, err := Reproject(fc, WebMercator)
	assert.Error(t, err)
}

func TestReprojectPreservesAttributes(t *testing.T) {
	fc := NewFeatureCollection(WGS84)
	fc.Append(orb.Point{10, 20}, map[string]interface{}{"kind": "station", "count": 3.0})

	out, err := Reproject(fc, WebMercator)
	require.NoError(t, err)
	assert.Equal(t, fc.Features[0].Props, out.Features[0].Props)
}

func assertCoordsClose(t *testing.T, want, got orb.Geometry, tol float64) {
	t.Helper()
	switch w := want.(type) {
	case orb.Point:
		g := got.(orb.Point)
		assert.InDelta(t, w[0], g[0], tol)
		assert.InDelta(t, w[1], g[1], tol)
	case orb.LineString:
		g := got.(orb.LineString)
		require.Len(t, g, len(w))
		for i := range w {
			assertCoordsClose(t, w[i], g[i], tol)
		}
	case orb.Polygon:
		g := got.(orb.Polygon)
		require.Len(t, g, len(w))
		for i := range w {
			require.Len(t, g[i], len(w[i]))
			for j := range w[i] {
				assertCoordsClose(t, w[i][j], g[i][j], tol)
			}
		}
	default:
		t.Fatalf("unhandled geometry type %T", want)
	}
}
