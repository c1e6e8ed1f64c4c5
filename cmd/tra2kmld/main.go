package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pspoerri/tra2kml/internal/config"
	"github.com/pspoerri/tra2kml/internal/convert"
	"github.com/pspoerri/tra2kml/internal/logging"
	"github.com/pspoerri/tra2kml/internal/server"
)

// Set via -ldflags at build time.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	var (
		configPath  string
		port        int
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "", "Config file (default: tra2kml.yaml in . or ./configs)")
	flag.IntVar(&port, "port", 0, "API server port (default from config)")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tra2kmld [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Serve the TRA conversion API over HTTP.\n")
		fmt.Fprintf(os.Stderr, "Settings can also be given as TRA2KML_* environment variables.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("tra2kmld %s (commit %s, built %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Loading config: %v\n", err)
		os.Exit(1)
	}
	if port > 0 {
		cfg.Server.Port = port
	}

	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	logger.Info("tra2kmld starting",
		"version", version,
		"commit", commit,
		"default_system", cfg.Convert.System,
		"export_format", cfg.Export.Format)

	svc := convert.NewService(logger, convert.OptionsFromConfig(cfg))
	srv := server.New(svc, logger, cfg.Convert.System, cfg.Server.MaxBodyBytes())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndServe(ctx, cfg.Server); err != nil {
		logging.LogError(logger, "server stopped", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
