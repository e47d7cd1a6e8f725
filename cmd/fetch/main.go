package main

import (
	"os"
	"path/filepath"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"

	"github.com/cartolab/geopipe/internal/arcgis"
	"github.com/cartolab/geopipe/internal/geo"
	"github.com/cartolab/geopipe/internal/logger"
	"github.com/cartolab/geopipe/internal/pipeline"
	"github.com/cartolab/geopipe/internal/source"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	Service string `short:"s" long:"service" env:"ARCGIS_SERVICE" description:"ArcGIS FeatureServer base URL"`
	Layer   string `short:"l" long:"layer"   description:"Layer ID to query (with --service)"`
	Where   string `short:"w" long:"where"   description:"Filter expression for the layer query" default:"1=1"`
	List    bool   `short:"L" long:"list"    description:"List service layers and exit (with --service)"`

	Feed string `short:"u" long:"feed" description:"GeoJSON feed URL to fetch (e.g. USGS earthquake feed)"`

	Output string `short:"o" long:"out" description:"Output GeoJSON path" default:"features.geojson"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	if opts.Service == "" && opts.Feed == "" {
		log.Fatal().Msg("Either --service or --feed is required")
	}

	client := pipeline.NewHTTPClient()

	if opts.List {
		if opts.Service == "" {
			log.Fatal().Msg("--list requires --service")
		}
		c := arcgis.Client{HTTPClient: client}
		layers, err := c.ServiceLayers(opts.Service)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to list service layers")
		}
		for _, l := range layers {
			log.Info().
				Str("id", l.ID.String()).
				Str("name", l.Name).
				Str("geometry", l.GeometryType).
				Msg("Layer")
		}
		return
	}

	var fc *geo.FeatureCollection
	var err error

	switch {
	case opts.Service != "":
		if opts.Layer == "" {
			log.Fatal().Msg("--layer is required to query a service")
		}
		c := arcgis.Client{HTTPClient: client}
		fc, err = c.QueryLayer(opts.Service, opts.Layer, opts.Where)
	default:
		log.Info().Str("url", opts.Feed).Msg("Fetching GeoJSON feed")
		fc, err = source.LoadGeoJSON(client, opts.Feed)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to fetch features")
	}

	if err := geo.WriteGeoJSON(fc, opts.Output); err != nil {
		log.Fatal().Err(err).Str("path", opts.Output).Msg("Failed to write GeoJSON")
	}

	log.Info().
		Str("path", filepath.Clean(opts.Output)).
		Int("features", fc.Len()).
		Msg("Fetch finished successfully")
}
