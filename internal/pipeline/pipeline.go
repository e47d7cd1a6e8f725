// Package pipeline wires the session config to the loaders, the CRS
// normalizer, the stylist and the compositor. Each session runs strictly
// forward: acquire, normalize, style, render/export.
package pipeline

import (
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"

	"github.com/cartolab/geopipe/internal/arcgis"
	"github.com/cartolab/geopipe/internal/config"
	"github.com/cartolab/geopipe/internal/geo"
	"github.com/cartolab/geopipe/internal/raster"
	"github.com/cartolab/geopipe/internal/render"
	"github.com/cartolab/geopipe/internal/source"
)

// DefaultTimeout bounds every remote request; there are no retries.
const DefaultTimeout = 30 * time.Second

// NewHTTPClient returns the client used for all remote fetches.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}

// LoadLayer acquires one declared layer in its source CRS.
func LoadLayer(client *http.Client, l config.Layer) (*geo.FeatureCollection, error) {
	switch l.Format {
	case config.FormatCSV:
		opts := source.DefaultCSVOptions()
		if l.LonColumn != "" {
			opts.LonColumn = l.LonColumn
		}
		if l.LatColumn != "" {
			opts.LatColumn = l.LatColumn
		}
		return source.LoadCSV(l.Source, opts)

	case config.FormatGeoJSON:
		return source.LoadGeoJSON(client, l.Source)

	case config.FormatShapefile:
		return source.LoadShapefile(l.Source, l.Fields)

	case config.FormatArcGIS:
		c := arcgis.Client{HTTPClient: client}
		return c.QueryLayer(l.Source, l.LayerID, l.Where)

	default:
		return nil, fmt.Errorf("layer %q: unknown format %q", l.Name, l.Format)
	}
}

// BuildMap runs acquisition, normalization and styling for every declared
// layer and composes them in config order.
func BuildMap(client *http.Client, cfg *config.Config) (*render.Map, error) {
	workingCRS := geo.WGS84
	if cfg.CRS != "" {
		crs, err := geo.ParseCRS(cfg.CRS)
		if err != nil {
			return nil, err
		}
		workingCRS = crs
	}

	m := render.New(cfg.Title).SetAttribution(cfg.Attribution)

	if len(cfg.Bounds) == 4 {
		m.FitBounds(orb.Bound{
			Min: orb.Point{cfg.Bounds[0], cfg.Bounds[1]},
			Max: orb.Point{cfg.Bounds[2], cfg.Bounds[3]},
		})
	}

	for _, rc := range cfg.Rasters {
		crs, err := geo.ParseCRS(rc.CRS)
		if err != nil {
			return nil, fmt.Errorf("raster %q: %w", rc.Name, err)
		}
		grid, err := raster.Load(rc.Image, rc.WorldFile, crs, rc.NoData)
		if err != nil {
			return nil, fmt.Errorf("raster %q: %w", rc.Name, err)
		}
		m.AddRaster(rc.Name, grid)
	}

	for _, lc := range cfg.Layers {
		fc, err := LoadLayer(client, lc)
		if err != nil {
			return nil, fmt.Errorf("layer %q: %w", lc.Name, err)
		}

		// Normalize: every layer enters the composition in one CRS.
		fc, err = geo.Reproject(fc, workingCRS)
		if err != nil {
			return nil, fmt.Errorf("layer %q: %w", lc.Name, err)
		}

		m.AddLayer(lc.Style.Apply(lc.Name, fc))

		log.Info().
			Str("layer", lc.Name).
			Str("format", lc.Format).
			Int("features", fc.Len()).
			Str("crs", workingCRS.String()).
			Msg("Layer ready")
	}

	return m, nil
}

// ExportLayers re-exports every declared layer as GeoJSON into dir, one
// file per layer named after it.
func ExportLayers(client *http.Client, cfg *config.Config, dir string) error {
	for _, lc := range cfg.Layers {
		fc, err := LoadLayer(client, lc)
		if err != nil {
			return fmt.Errorf("layer %q: %w", lc.Name, err)
		}

		path := filepath.Join(dir, lc.Name+".geojson")
		if err := geo.WriteGeoJSON(fc, path); err != nil {
			return fmt.Errorf("layer %q: %w", lc.Name, err)
		}

		log.Info().
			Str("layer", lc.Name).
			Str("path", path).
			Int("features", fc.Len()).
			Msg("Layer exported")
	}
	return nil
}
