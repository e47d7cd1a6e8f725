package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartolab/geopipe/internal/geo"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadCSVThreePoints(t *testing.T) {
	path := writeTemp(t, "points.csv",
		"name,lon,lat,kind\n"+
			"alpha,13.4050,52.5200,museum\n"+
			"beta,-0.1276,51.5072,park\n"+
			"gamma,2.3522,48.8566,museum\n")

	fc, err := LoadCSV(path, DefaultCSVOptions())
	require.NoError(t, err)

	require.Equal(t, 3, fc.Len())
	assert.Equal(t, "EPSG:4326", fc.CRS.Code)

	p := fc.Features[0].Geom.(orb.Point)
	assert.InDelta(t, 13.4050, p[0], 1e-9)
	assert.InDelta(t, 52.5200, p[1], 1e-9)
	assert.Equal(t, "alpha", fc.Features[0].Props["name"])
	assert.Equal(t, "museum", fc.Features[0].Props["kind"])

	p = fc.Features[1].Geom.(orb.Point)
	assert.InDelta(t, -0.1276, p[0], 1e-9)
	assert.InDelta(t, 51.5072, p[1], 1e-9)
}

func TestLoadCSVRoundTripToGeoJSON(t *testing.T) {
	path := writeTemp(t, "points.csv",
		"name,lon,lat\na,1.5,2.5\nb,3.5,4.5\nc,5.5,6.5\n")

	fc, err := LoadCSV(path, DefaultCSVOptions())
	require.NoError(t, err)

	data, err := geo.MarshalGeoJSON(fc)
	require.NoError(t, err)

	back, err := geo.UnmarshalGeoJSON(data)
	require.NoError(t, err)
	require.Equal(t, 3, back.Len())

	for i, want := range [][2]float64{{1.5, 2.5}, {3.5, 4.5}, {5.5, 6.5}} {
		p := back.Features[i].Geom.(orb.Point)
		assert.InDelta(t, want[0], p[0], 1e-9)
		assert.InDelta(t, want[1], p[1], 1e-9)
	}
}

func TestLoadCSVNumericAttributes(t *testing.T) {
	path := writeTemp(t, "points.csv", "lon,lat,mag\n10,20,4.7\n")

	fc, err := LoadCSV(path, DefaultCSVOptions())
	require.NoError(t, err)
	assert.Equal(t, 4.7, fc.Features[0].Props["mag"])
}

func TestLoadCSVCustomColumns(t *testing.T) {
	path := writeTemp(t, "points.csv", "x,y\n1,2\n")

	fc, err := LoadCSV(path, CSVOptions{LonColumn: "x", LatColumn: "y"})
	require.NoError(t, err)
	assert.Equal(t, orb.Point{1, 2}, fc.Features[0].Geom)
}

func TestLoadCSVErrors(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "missing.csv"), DefaultCSVOptions())
	assert.Error(t, err)

	path := writeTemp(t, "bad.csv", "a,b\n1,2\n")
	_, err = LoadCSV(path, DefaultCSVOptions())
	assert.ErrorContains(t, err, "missing coordinate columns")

	path = writeTemp(t, "badcoord.csv", "lon,lat\nx,2\n")
	_, err = LoadCSV(path, DefaultCSVOptions())
	assert.ErrorContains(t, err, "invalid longitude")
}
