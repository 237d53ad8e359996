package main

import (
	"context"
	"fmt"
	"os"

	"github.com/MKhiriev/snippet-keeper/internal/config"
	"github.com/MKhiriev/snippet-keeper/internal/handler"
	"github.com/MKhiriev/snippet-keeper/internal/logger"
	"github.com/MKhiriev/snippet-keeper/internal/mailer"
	"github.com/MKhiriev/snippet-keeper/internal/metrics"
	"github.com/MKhiriev/snippet-keeper/internal/server"
	"github.com/MKhiriev/snippet-keeper/internal/service"
	"github.com/MKhiriev/snippet-keeper/internal/store"
	"github.com/MKhiriev/snippet-keeper/internal/workers"
	"github.com/MKhiriev/snippet-keeper/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	buildInfo := models.NewAppBuildInfo(buildVersion, buildDate, buildCommit)
	fmt.Println(buildInfo)

	log := logger.NewLogger("snippet-keeper-server")
	if err := run(os.Args[1:], buildInfo, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

// run wires the application and blocks until the server stops. Errors are
// returned instead of exiting so that deferred cleanup always runs.
func run(args []string, buildInfo models.AppBuildInfo, log *logger.Logger) error {
	cfg, err := config.GetStructuredConfig(args)
	if err != nil {
		return fmt.Errorf("error getting configs: %w", err)
	}
	if buildInfo.HasVersion() && cfg.App.Version == "dev" {
		cfg.App.Version = buildInfo.BuildVersion()
	}

	log.Debug().
		Str("driver", cfg.Storage.Driver).
		Str("mailer", cfg.Mailer.Provider).
		Str("address", cfg.Server.HTTPAddress).
		Msg("received configs")

	ctx := context.Background()

	storages, err := store.NewStorages(ctx, cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("error creating storages: %w", err)
	}
	defer func() {
		if err := storages.Close(ctx); err != nil {
			log.Err(err).Msg("error closing storages")
		}
	}()

	mail, err := mailer.New(cfg.Mailer, log)
	if err != nil {
		return fmt.Errorf("error creating mailer: %w", err)
	}

	services, err := service.NewServices(storages, mail, cfg.App, log)
	if err != nil {
		return fmt.Errorf("error creating services: %w", err)
	}

	m, err := metrics.New(metrics.Options{})
	if err != nil {
		return fmt.Errorf("error registering metrics: %w", err)
	}

	handlers, err := handler.NewHandlers(services, storages.RateLimitStore, handler.Observability{
		Metrics:        m,
		MetricsHandler: metrics.Handler(nil),
	}, cfg, log)
	if err != nil {
		return fmt.Errorf("error creating handlers: %w", err)
	}

	srv, err := server.NewServer(handlers, workers.NewWorkers(storages, m, cfg.Workers, log), cfg.Server, log)
	if err != nil {
		return fmt.Errorf("error creating server: %w", err)
	}

	srv.RunServer()
	return nil
}
