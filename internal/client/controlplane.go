package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dayflowhq/dayflow-client/internal/client/middleware"
	"github.com/dayflowhq/dayflow-client/internal/client/sync"
)

type ControlPlaneServer struct {
	config *ControlPlaneConfig
	server *http.Server
}

func NewControlPlaneServer(config *ControlPlaneConfig, coordinator *sync.Coordinator) (*ControlPlaneServer, error) {
	routes := SetupRoutes(coordinator, &RouteConfig{
		Auth: middleware.TokenAuthConfig{
			Token: config.AuthToken,
		},
	})

	httpServer := &http.Server{
		Addr:    config.Addr,
		Handler: routes,
		// Timeouts to prevent slow client attacks
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		// Connection control
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	return &ControlPlaneServer{
		config: config,
		server: httpServer,
	}, nil
}

func (s *ControlPlaneServer) Start(ctx context.Context) error {
	slog.Info("control plane start", "addr", fmt.Sprintf("http://%s", s.config.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (s *ControlPlaneServer) Stop(ctx context.Context) error {
	slog.Info("control plane stop")
	return s.server.Shutdown(ctx)
}
