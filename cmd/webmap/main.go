package main

import (
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"

	"github.com/cartolab/geopipe/internal/config"
	"github.com/cartolab/geopipe/internal/logger"
	"github.com/cartolab/geopipe/internal/pipeline"
	"github.com/cartolab/geopipe/internal/render"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config" env:"CONFIG_FILE" description:"Path to session configuration file" default:"session.yaml"`
	Output     string `short:"o" long:"out"    description:"Output HTML path, overrides config"`
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

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	out := cfg.Output.HTML
	if opts.Output != "" {
		out = opts.Output
	}
	if out == "" {
		log.Fatal().Msg("No output HTML configured (output.html or --out)")
	}

	m, err := pipeline.BuildMap(pipeline.NewHTTPClient(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build map")
	}

	if err := render.RenderWeb(m, out); err != nil {
		log.Fatal().Err(err).Str("path", out).Msg("Failed to write web map")
	}

	log.Info().Str("path", out).Msg("Web map finished successfully")
}
