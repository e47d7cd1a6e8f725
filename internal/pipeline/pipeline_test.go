package pipeline

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartolab/geopipe/internal/config"
	"github.com/cartolab/geopipe/internal/geo"
)

func writeCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pois.csv")
	content := "name,lon,lat,kind\nalpha,13.4,52.52,museum\nbeta,13.5,52.51,park\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadLayerCSV(t *testing.T) {
	fc, err := LoadLayer(http.DefaultClient, config.Layer{
		Name:   "pois",
		Format: config.FormatCSV,
		Source: writeCSV(t),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, fc.Len())
}

func TestLoadLayerUnknownFormat(t *testing.T) {
	_, err := LoadLayer(http.DefaultClient, config.Layer{Name: "x", Format: "dwg", Source: "x"})
	assert.ErrorContains(t, err, "unknown format")
}

func TestLoadLayerArcGIS(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"features": [
			{"attributes": {"NAME": "a"}, "geometry": {"x": 1, "y": 2}}
		]}`))
	}))
	defer srv.Close()

	fc, err := LoadLayer(srv.Client(), config.Layer{
		Name:    "remote",
		Format:  config.FormatArcGIS,
		Source:  srv.URL + "/FeatureServer",
		LayerID: "0",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, fc.Len())
}

func TestBuildMapNormalizesAndOrders(t *testing.T) {
	cfg := &config.Config{
		Title: "test",
		CRS:   "EPSG:3857",
		Layers: []config.Layer{
			{Name: "pois", Format: config.FormatCSV, Source: writeCSV(t)},
		},
		Output: config.Output{Image: "out.png"},
	}

	m, err := BuildMap(NewHTTPClient(), cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"pois"}, m.Layers())
	assert.Equal(t, "test", m.Title)
}

func TestBuildMapBadCRS(t *testing.T) {
	cfg := &config.Config{
		CRS:    "EPSG:99999",
		Layers: []config.Layer{{Name: "a", Format: config.FormatCSV, Source: "x"}},
	}
	_, err := BuildMap(NewHTTPClient(), cfg)
	assert.Error(t, err)
}

func TestExportLayers(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		Layers: []config.Layer{
			{Name: "pois", Format: config.FormatCSV, Source: writeCSV(t)},
		},
	}

	require.NoError(t, ExportLayers(NewHTTPClient(), cfg, dir))

	data, err := os.ReadFile(filepath.Join(dir, "pois.geojson"))
	require.NoError(t, err)

	fc, err := geo.UnmarshalGeoJSON(data)
	require.NoError(t, err)
	assert.Equal(t, 2, fc.Len())
	assert.Equal(t, "alpha", fc.Features[0].Props["name"])
}
