package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	conf "github.com/webitel/table-importer/config"
	"github.com/webitel/table-importer/internal/app"
	"github.com/webitel/table-importer/internal/model"
	logging "github.com/webitel/table-importer/internal/otel"

	// ------------ logging ------------ //
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

func main() {

	// Load configuration
	config, appErr := conf.LoadConfig()
	if appErr != nil {
		slog.Error("table_importer.main.configuration_error", slog.String("error", appErr.Error()))
		return
	}

	// slog + OTEL logging
	service := resource.NewSchemaless(
		semconv.ServiceName(model.AppServiceName),
		semconv.ServiceVersion(model.CurrentVersion),
		semconv.ServiceInstanceID(config.Consul.Id),
		semconv.ServiceNamespace(model.NamespaceName),
	)
	shutdown := logging.Setup(service)

	// Initialize the application
	application, appErr := app.New(config, shutdown)
	if appErr != nil {
		slog.Error("table_importer.main.application_initialization_error", slog.String("error", appErr.Error()))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize signal handling for graceful shutdown
	initSignals(application, cancel)

	// Log the configuration
	slog.Debug("table_importer.main.configuration_loaded",
		slog.String("consul", config.Consul.Address),
		slog.String("http_address", config.Consul.PublicAddress),
		slog.String("consul_id", config.Consul.Id),
	)

	// Start the application
	slog.Info("table_importer.main.starting_application")
	startErr := application.Start(ctx)
	if startErr != nil {
		slog.Error("table_importer.main.application_start_error", slog.String("error", startErr.Error()))
	} else {
		slog.Info("table_importer.main.application_started_successfully")
	}

}

func initSignals(application *app.App, cancel context.CancelFunc) {
	slog.Info("table_importer.main.initializing_stop_signals", slog.String("main", "initializing_stop_signals"))
	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch)

	go func() {
		for {
			s := <-sigch
			handleSignals(s, application, cancel)
		}
	}()
}

func handleSignals(signal os.Signal, application *app.App, cancel context.CancelFunc) {
	if signal == syscall.SIGTERM || signal == syscall.SIGINT || signal == syscall.SIGKILL {
		cancel()
		err := application.Stop()
		if err != nil {
			return
		}
		slog.Info(
			"table_importer.main.received_kill_signal",
			slog.String(
				"signal",
				signal.String(),
			),
			slog.String(
				"status",
				"service gracefully stopped",
			),
		)
		os.Exit(0)
	}
}
