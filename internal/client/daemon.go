package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dayflowhq/dayflow-client/internal/client/config"
)

// ClientDaemon runs the sync client and its local control plane as one unit.
type ClientDaemon struct {
	app *Client
	cps *ControlPlaneServer
}

func NewClientDaemon(cfg *config.Config, cpConfig *ControlPlaneConfig) (*ClientDaemon, error) {
	app, err := New(cfg)
	if err != nil {
		return nil, err
	}

	if cpConfig.Addr == "" {
		cpConfig.Addr = cfg.ClientAddr
	}

	cps, err := NewControlPlaneServer(cpConfig, app.Coordinator())
	if err != nil {
		return nil, err
	}

	return &ClientDaemon{
		app: app,
		cps: cps,
	}, nil
}

func (c *ClientDaemon) Start(ctx context.Context) error {
	slog.Info("client daemon start")

	// Create errgroup with derived context
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		if err := c.app.Start(ctx); err != nil {
			return fmt.Errorf("failed to start sync client: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		if err := c.cps.Start(ctx); err != nil {
			return fmt.Errorf("failed to start control plane: %w", err)
		}
		return nil
	})

	// Launch goroutine to handle shutdown on context cancellation
	eg.Go(func() error {
		<-egCtx.Done()
		slog.Info("received interrupt signal, stopping daemon")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return c.Stop(shutdownCtx)
	})

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("client daemon failure", "error", err)
		return err
	}

	slog.Info("client daemon stopped")
	return nil
}

func (c *ClientDaemon) Stop(ctx context.Context) error {
	c.app.Stop()
	if err := c.cps.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop control plane: %w", err)
	}
	return nil
}
