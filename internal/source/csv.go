// Package source loads feature collections from local files and remote
// URLs in the formats used during the workshop sessions.
package source

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"

	"github.com/cartolab/geopipe/internal/geo"
)

// CSVOptions selects the coordinate columns of a tabular point file.
// Coordinates are expected as WGS84 lon/lat.
type CSVOptions struct {
	LonColumn string
	LatColumn string
}

// DefaultCSVOptions matches the column names used by the sample datasets.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{LonColumn: "lon", LatColumn: "lat"}
}

// LoadCSV reads a CSV file with longitude/latitude columns into a point
// collection. All remaining columns become feature attributes; numeric
// values are stored as float64.
func LoadCSV(path string, opts CSVOptions) (*geo.FeatureCollection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open CSV: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read CSV %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read CSV %s: empty file", path)
	}

	header := records[0]
	lonIdx, latIdx := -1, -1
	for i, name := range header {
		switch name {
		case opts.LonColumn:
			lonIdx = i
		case opts.LatColumn:
			latIdx = i
		}
	}
	if lonIdx < 0 || latIdx < 0 {
		return nil, fmt.Errorf("CSV %s: missing coordinate columns %q/%q", path, opts.LonColumn, opts.LatColumn)
	}

	fc := geo.NewFeatureCollection(geo.WGS84)
	for rowNum, row := range records[1:] {
		lon, err := strconv.ParseFloat(row[lonIdx], 64)
		if err != nil {
			return nil, fmt.Errorf("CSV %s row %d: invalid longitude %q", path, rowNum+2, row[lonIdx])
		}
		lat, err := strconv.ParseFloat(row[latIdx], 64)
		if err != nil {
			return nil, fmt.Errorf("CSV %s row %d: invalid latitude %q", path, rowNum+2, row[latIdx])
		}

		props := make(map[string]interface{}, len(header)-2)
		for i, name := range header {
			if i == lonIdx || i == latIdx || i >= len(row) {
				continue
			}
			if v, err := strconv.ParseFloat(row[i], 64); err == nil {
				props[name] = v
			} else {
				props[name] = row[i]
			}
		}

		fc.Append(orb.Point{lon, lat}, props)
	}

	log.Debug().
		Str("path", path).
		Int("features", fc.Len()).
		Msg("CSV loaded")

	return fc, nil
}
