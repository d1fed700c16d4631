package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	conf "github.com/webitel/table-importer/config"
	"github.com/webitel/table-importer/internal/errors"
	httphandler "github.com/webitel/table-importer/internal/handler/http"
	"github.com/webitel/table-importer/registry"
	"github.com/webitel/table-importer/registry/consul"
)

type Server struct {
	Echo     *echo.Echo
	config   *conf.ConsulConfig
	exitChan chan error
	registry registry.ServiceRegistrator
}

// BuildServer constructs and configures the HTTP server with middleware.
func BuildServer(config *conf.ConsulConfig, authToken string, exitChan chan error) (*Server, error) {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.BodyLimit("32M"))
	e.Use(httphandler.AuthMiddleware(authToken))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Initialize Consul service registry
	reg, err := consul.NewConsulRegistry(config)
	if err != nil {
		return nil, errors.Internal(
			err.Error(),
			errors.WithID("server.build.consul_registry.error"),
		)
	}

	return &Server{
		Echo:     e,
		config:   config,
		exitChan: exitChan,
		registry: reg,
	}, nil
}

// Start registers the service and starts serving.
func (s *Server) Start() {
	if err := s.registry.Register(); err != nil {
		s.exitChan <- err
		return
	}
	if err := s.Echo.Start(s.config.PublicAddress); err != nil && err != http.ErrServerClosed {
		s.exitChan <- err
	}
}

// Stop deregisters the service and shuts the listener down gracefully.
func (s *Server) Stop() {
	if err := s.registry.Deregister(); err != nil {
		s.Echo.Logger.Errorf("deregister failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Echo.Shutdown(ctx); err != nil {
		s.Echo.Logger.Errorf("shutdown failed: %v", err)
	}
}
