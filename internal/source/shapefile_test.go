package source

import (
	"testing"

	"github.com/ctessum/geom"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromGeomPoint(t *testing.T) {
	g, err := fromGeom(geom.Point{X: 13.4, Y: 52.52})
	require.NoError(t, err)
	assert.Equal(t, orb.Point{13.4, 52.52}, g)
}

func TestFromGeomLineString(t *testing.T) {
	g, err := fromGeom(geom.LineString{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 0}})
	require.NoError(t, err)
	assert.Equal(t, orb.LineString{{0, 0}, {1, 1}, {2, 0}}, g)
}

func TestFromGeomPolygonClosesRings(t *testing.T) {
	g, err := fromGeom(geom.Polygon{{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 4}, {X: 0, Y: 4}}})
	require.NoError(t, err)

	poly, ok := g.(orb.Polygon)
	require.True(t, ok)
	require.Len(t, poly, 1)
	require.Len(t, poly[0], 5)
	assert.Equal(t, poly[0][0], poly[0][len(poly[0])-1])
}

func TestFromGeomMultiPolygon(t *testing.T) {
	g, err := fromGeom(geom.MultiPolygon{
		{{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 0}}},
		{{{X: 5, Y: 5}, {X: 6, Y: 5}, {X: 6, Y: 6}, {X: 5, Y: 5}}},
	})
	require.NoError(t, err)

	mp, ok := g.(orb.MultiPolygon)
	require.True(t, ok)
	assert.Len(t, mp, 2)
}

func TestFromGeomUnsupported(t *testing.T) {
	_, err := fromGeom(nil)
	assert.ErrorContains(t, err, "unsupported shapefile geometry")
}
