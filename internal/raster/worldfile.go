package raster

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ReadWorldFile parses an ESRI world file (.pgw/.tfw/.wld): six lines
// giving pixel size, rotation and the center of the top-left pixel. The
// returned transform is origin-based (top-left corner of the first pixel).
func ReadWorldFile(path string) (GeoTransform, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return GeoTransform{}, fmt.Errorf("open world file: %w", err)
	}

	var vals []float64
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return GeoTransform{}, fmt.Errorf("world file %s: invalid value %q", path, line)
		}
		vals = append(vals, v)
	}
	if len(vals) < 6 {
		return GeoTransform{}, fmt.Errorf("world file %s: expected 6 values, got %d", path, len(vals))
	}

	// World file order: A (x pixel size), D (y rotation), B (x rotation),
	// E (y pixel size, negative for north-up), C, F (center of top-left
	// pixel). Shift by half a pixel to get the corner origin.
	a, d, b, e, c, f := vals[0], vals[1], vals[2], vals[3], vals[4], vals[5]

	return GeoTransform{
		c - a/2 - b/2, // origin X
		a,             // pixel width
		b,             // row rotation
		f - d/2 - e/2, // origin Y
		d,             // column rotation
		e,             // pixel height
	}, nil
}
