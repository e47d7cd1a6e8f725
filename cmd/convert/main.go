package main

import (
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"

	"github.com/cartolab/geopipe/internal/config"
	"github.com/cartolab/geopipe/internal/geo"
	"github.com/cartolab/geopipe/internal/logger"
	"github.com/cartolab/geopipe/internal/pipeline"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	Input     string   `short:"i" long:"in"     description:"Input file path"`
	Format    string   `short:"f" long:"format" description:"Input format" choice:"csv" choice:"geojson" choice:"shapefile" default:"csv"`
	LonColumn string   `long:"lon-column" description:"CSV longitude column" default:"lon"`
	LatColumn string   `long:"lat-column" description:"CSV latitude column" default:"lat"`
	Fields    []string `long:"field"      description:"Shapefile attribute column to carry (repeatable)"`
	Output    string   `short:"o" long:"out" description:"Output GeoJSON path" default:"out.geojson"`

	ConfigFile string `short:"c" long:"config" description:"Convert every layer of a session file instead of a single input"`
	OutDir     string `short:"d" long:"dir"    description:"Output directory for session conversion" default:"geojson"`
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

	client := pipeline.NewHTTPClient()

	// Session mode: re-export every declared layer.
	if opts.ConfigFile != "" {
		cfg, err := config.Load(opts.ConfigFile)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}
		if err := pipeline.ExportLayers(client, cfg, opts.OutDir); err != nil {
			log.Fatal().Err(err).Msg("Failed to export layers")
		}
		log.Info().Str("dir", opts.OutDir).Msg("Convert finished successfully")
		return
	}

	if opts.Input == "" {
		log.Fatal().Msg("Either --in or --config is required")
	}

	layer := config.Layer{
		Name:      "input",
		Format:    opts.Format,
		Source:    opts.Input,
		LonColumn: opts.LonColumn,
		LatColumn: opts.LatColumn,
		Fields:    opts.Fields,
	}

	fc, err := pipeline.LoadLayer(client, layer)
	if err != nil {
		log.Fatal().Err(err).Str("path", opts.Input).Msg("Failed to load input")
	}

	if err := geo.WriteGeoJSON(fc, opts.Output); err != nil {
		log.Fatal().Err(err).Str("path", opts.Output).Msg("Failed to write GeoJSON")
	}

	log.Info().
		Str("path", opts.Output).
		Int("features", fc.Len()).
		Msg("Convert finished successfully")
}
