package client

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dayflowhq/dayflow-client/internal/client/config"
	"github.com/dayflowhq/dayflow-client/internal/client/sync"
	"github.com/dayflowhq/dayflow-client/internal/db"
	"github.com/dayflowhq/dayflow-client/internal/flowsdk"
	"github.com/dayflowhq/dayflow-client/internal/netmon"
)

// Client wires the sync subsystem together: connectivity monitor, durable
// pending-action store, live-update channel and the sync coordinator.
type Client struct {
	config      *config.Config
	sdk         *flowsdk.DayflowSDK
	monitor     *netmon.Monitor
	store       *sync.Store
	coordinator *sync.Coordinator

	unsubNet func()
}

func New(cfg *config.Config) (*Client, error) {
	sdk, err := flowsdk.New(cfg.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create sdk: %w", err)
	}

	database, err := db.NewSqliteDb(db.WithPath(cfg.DatabasePath()))
	if err != nil {
		return nil, fmt.Errorf("failed to open client db: %w", err)
	}

	kv, err := sync.NewSqliteKV(database)
	if err != nil {
		return nil, fmt.Errorf("failed to init kv store: %w", err)
	}

	monitor := netmon.New(cfg.ServerURL)
	store := sync.NewStore(kv)
	coordinator := sync.NewCoordinator(store, newSDKTransport(sdk.Replay), monitor)

	return &Client{
		config:      cfg,
		sdk:         sdk,
		monitor:     monitor,
		store:       store,
		coordinator: coordinator,
	}, nil
}

// Coordinator exposes the sync surface consumed by the control plane.
func (c *Client) Coordinator() *sync.Coordinator {
	return c.coordinator
}

// Events exposes the live-update channel subscription surface.
func (c *Client) Events() *flowsdk.EventsAPI {
	return c.sdk.Events
}

func (c *Client) Start(ctx context.Context) error {
	slog.Info("dayflow client start", "datadir", c.config.DataDir, "email", c.config.Email, "server", c.config.ServerURL)

	if err := c.sdk.Login(c.config.Email, c.config.AuthToken); err != nil {
		return fmt.Errorf("failed to login: %w", err)
	}

	c.monitor.Start(ctx)

	if err := c.coordinator.Start(ctx); err != nil {
		return fmt.Errorf("failed to start sync coordinator: %w", err)
	}

	// live channel: failures here are not fatal, the reconnect loop and the
	// connectivity trigger below keep trying
	if err := c.sdk.Events.Connect(ctx); err != nil {
		slog.Warn("live channel connect failed, will retry on connectivity", "error", err)
	}

	// re-arm the channel when connectivity returns, including after the
	// reconnect ceiling was hit
	c.unsubNet = c.monitor.OnChange(func(online bool) {
		if !online {
			return
		}
		if err := c.sdk.Events.Connect(ctx); err != nil {
			slog.Warn("live channel reconnect failed", "error", err)
		}
	})

	<-ctx.Done()
	return nil
}

func (c *Client) Stop() {
	if c.unsubNet != nil {
		c.unsubNet()
		c.unsubNet = nil
	}
	c.coordinator.Stop()
	c.monitor.Stop()
	c.sdk.Close()
	slog.Info("dayflow client stop")
}
