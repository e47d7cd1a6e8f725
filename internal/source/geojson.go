package source

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/cartolab/geopipe/internal/geo"
)

// LoadGeoJSON reads a GeoJSON FeatureCollection from a local path or an
// http(s) URL. Remote feeds (e.g. the USGS earthquake feed) are fetched
// with a single GET; any failure is returned to the caller.
func LoadGeoJSON(client *http.Client, source string) (*geo.FeatureCollection, error) {
	var data []byte
	var err error

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		data, err = fetch(client, source)
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, fmt.Errorf("load GeoJSON %s: %w", source, err)
	}

	fc, err := geo.UnmarshalGeoJSON(data)
	if err != nil {
		return nil, fmt.Errorf("load GeoJSON %s: %w", source, err)
	}

	log.Debug().
		Str("source", source).
		Int("features", fc.Len()).
		Msg("GeoJSON loaded")

	return fc, nil
}

func fetch(client *http.Client, url string) ([]byte, error) {
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
