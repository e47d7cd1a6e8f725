// Package config loads the YAML session file that declares the data
// sources, styles and outputs of one workshop pipeline.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cartolab/geopipe/internal/style"
)

// Layer formats accepted by the loaders.
const (
	FormatCSV       = "csv"
	FormatGeoJSON   = "geojson"
	FormatShapefile = "shapefile"
	FormatArcGIS    = "arcgis"
)

// Config is the root of a session file.
type Config struct {
	Title       string   `yaml:"title"`
	Attribution string   `yaml:"attribution,omitempty"`
	CRS         string   `yaml:"crs,omitempty"` // working CRS, default EPSG:4326
	Layers      []Layer  `yaml:"layers"`
	Rasters     []Raster `yaml:"rasters,omitempty"`
	Output      Output   `yaml:"output"`

	// Optional explicit view extent: west, south, east, north (WGS84).
	Bounds []float64 `yaml:"bounds,omitempty"`
}

// Layer declares one vector data source and its styling.
type Layer struct {
	Name   string `yaml:"name"`
	Format string `yaml:"format"`
	Source string `yaml:"source"` // path or URL

	// CSV coordinate columns.
	LonColumn string `yaml:"lon_column,omitempty"`
	LatColumn string `yaml:"lat_column,omitempty"`

	// Shapefile attribute columns to carry over.
	Fields []string `yaml:"fields,omitempty"`

	// ArcGIS FeatureServer layer selection.
	LayerID string `yaml:"layer_id,omitempty"`
	Where   string `yaml:"where,omitempty"`

	Style style.Categorical `yaml:"style,omitempty"`
}

// Raster declares one georeferenced raster overlay.
type Raster struct {
	Name      string `yaml:"name"`
	Image     string `yaml:"image"`
	WorldFile string `yaml:"world_file"`
	CRS       string `yaml:"crs"`
	NoData    *uint8 `yaml:"nodata,omitempty"`
}

// Output names the artifacts a session writes. Empty entries are skipped.
type Output struct {
	Image      string `yaml:"image,omitempty"` // .png or .webp
	Width      int    `yaml:"width,omitempty"`
	Height     int    `yaml:"height,omitempty"`
	HTML       string `yaml:"html,omitempty"`
	GeoJSONDir string `yaml:"geojson_dir,omitempty"`
}

// Load reads and validates a session file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Layers) == 0 && len(c.Rasters) == 0 {
		return fmt.Errorf("no layers or rasters declared")
	}
	if len(c.Bounds) != 0 && len(c.Bounds) != 4 {
		return fmt.Errorf("bounds must have 4 values (west, south, east, north)")
	}

	for i, l := range c.Layers {
		if l.Name == "" {
			return fmt.Errorf("layer %d: missing name", i)
		}
		if l.Source == "" {
			return fmt.Errorf("layer %q: missing source", l.Name)
		}
		switch l.Format {
		case FormatCSV, FormatGeoJSON, FormatShapefile:
		case FormatArcGIS:
			if l.LayerID == "" {
				return fmt.Errorf("layer %q: arcgis format requires layer_id", l.Name)
			}
		default:
			return fmt.Errorf("layer %q: unknown format %q", l.Name, l.Format)
		}
	}

	for i, r := range c.Rasters {
		if r.Name == "" {
			return fmt.Errorf("raster %d: missing name", i)
		}
		if r.Image == "" || r.WorldFile == "" {
			return fmt.Errorf("raster %q: image and world_file are required", r.Name)
		}
		if r.CRS == "" {
			return fmt.Errorf("raster %q: missing crs", r.Name)
		}
	}

	return nil
}
