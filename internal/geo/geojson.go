package geo

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
)

// MarshalGeoJSON encodes a collection as a GeoJSON FeatureCollection.
// GeoJSON is defined on WGS84 lon/lat, so the collection is reprojected
// to EPSG:4326 first when needed.
func MarshalGeoJSON(fc *FeatureCollection) ([]byte, error) {
	wgs, err := Reproject(fc, WGS84)
	if err != nil {
		return nil, fmt.Errorf("geojson export: %w", err)
	}

	out := geojson.NewFeatureCollection()
	for _, f := range wgs.Features {
		gf := geojson.NewFeature(f.Geom)
		if f.Props != nil {
			gf.Properties = geojson.Properties(f.Props)
		}
		out.Append(gf)
	}

	return json.Marshal(out)
}

// UnmarshalGeoJSON decodes a GeoJSON FeatureCollection. The result is in
// EPSG:4326, the only CRS valid GeoJSON carries.
func UnmarshalGeoJSON(data []byte) (*FeatureCollection, error) {
	in, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse GeoJSON: %w", err)
	}

	fc := NewFeatureCollection(WGS84)
	fc.Features = make([]Feature, 0, len(in.Features))
	for _, f := range in.Features {
		fc.Append(f.Geometry, map[string]interface{}(f.Properties))
	}

	return fc, nil
}

// WriteGeoJSON exports a collection to a file, creating parent directories.
func WriteGeoJSON(fc *FeatureCollection, path string) error {
	data, err := MarshalGeoJSON(fc)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}

	log.Debug().
		Str("path", path).
		Int("features", fc.Len()).
		Msg("GeoJSON written")

	return nil
}
