package app

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	httphandler "github.com/webitel/table-importer/internal/handler/http"
)

// handlerRegistration holds information for initializing and registering an HTTP handler.
type handlerRegistration struct {
	init func(*App) (routable, error) // Initialization function for *App
	name string                       // Handler name for logging
}

type routable interface {
	RegisterRoutes(e *echo.Echo)
}

// RegisterRoutes initializes and registers all HTTP handlers.
func RegisterRoutes(e *echo.Echo, appInstance *App) {
	handlers := []handlerRegistration{
		{
			init: func(a *App) (routable, error) {
				return httphandler.NewImportHandler(a.importService)
			},
			name: "Import",
		},
	}

	// Initialize and register each handler
	for _, handler := range handlers {
		h, err := handler.init(appInstance)
		if err != nil {
			slog.Error("table_importer.app.handler_init_error",
				slog.String("handler", handler.name),
				slog.String("error", err.Error()),
			)
			continue
		}
		h.RegisterRoutes(e)
		slog.Info("table_importer.app.handler_registered", slog.String("handler", handler.name))
	}
}
