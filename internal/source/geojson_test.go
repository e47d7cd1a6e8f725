package source

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quakeFeed = `{
	"type": "FeatureCollection",
	"features": [
		{
			"type": "Feature",
			"geometry": {"type": "Point", "coordinates": [-122.5, 38.2]},
			"properties": {"mag": 4.2, "place": "offshore"}
		},
		{
			"type": "Feature",
			"geometry": {"type": "Point", "coordinates": [142.1, 37.4]},
			"properties": {"mag": 5.8, "place": "near coast"}
		}
	]
}`

func TestLoadGeoJSONLocal(t *testing.T) {
	path := writeTemp(t, "quakes.geojson", quakeFeed)

	fc, err := LoadGeoJSON(http.DefaultClient, path)
	require.NoError(t, err)

	require.Equal(t, 2, fc.Len())
	assert.Equal(t, "EPSG:4326", fc.CRS.Code)
	assert.Equal(t, 4.2, fc.Features[0].Props["mag"])
	assert.Equal(t, orb.Point{-122.5, 38.2}, fc.Features[0].Geom)
}

func TestLoadGeoJSONRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/geo+json")
		_, _ = w.Write([]byte(quakeFeed))
	}))
	defer srv.Close()

	fc, err := LoadGeoJSON(srv.Client(), srv.URL+"/feed.geojson")
	require.NoError(t, err)
	assert.Equal(t, 2, fc.Len())
}

func TestLoadGeoJSONRemoteFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := LoadGeoJSON(srv.Client(), srv.URL)
	assert.ErrorContains(t, err, "status 404")
}

func TestLoadGeoJSONMissingFile(t *testing.T) {
	_, err := LoadGeoJSON(http.DefaultClient, t.TempDir()+"/missing.geojson")
	assert.Error(t, err)
}

func TestLoadGeoJSONMalformed(t *testing.T) {
	path := writeTemp(t, "broken.geojson", `{"type": "FeatureCollection"`)
	_, err := LoadGeoJSON(http.DefaultClient, path)
	assert.Error(t, err)
}
