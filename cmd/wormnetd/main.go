// Command wormnetd runs the WormNET lobby/matchmaking server: it listens
// for TCP connections, authenticates clients by chosen display name, and
// brokers room/game discovery and chat among them.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wormnet/wormnetd/internal/config"
	"github.com/wormnet/wormnetd/internal/lobby"
	"github.com/wormnet/wormnetd/internal/registry"
	"github.com/wormnet/wormnetd/internal/shutdown"
)

// ConfigPath is the default location of the server's YAML configuration.
const ConfigPath = "config/wormnetd.yaml"

// statsLogInterval is how often the background stats reporter logs a
// registry snapshot.
const statsLogInterval = 5 * time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := ConfigPath
	if p := os.Getenv("WORMNETD_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))

	slog.Info("wormnetd starting", "bind", cfg.BindAddress, "port", cfg.Port, "log_level", cfg.LogLevel)

	coord := shutdown.New(ctx)
	reg := registry.New()
	bus := lobby.NewBroadcaster(reg)
	handler := lobby.NewHandler(reg)
	acceptor := lobby.NewAcceptor(reg, handler, bus, cfg)

	g, gctx := errgroup.WithContext(coord.Context())
	g.Go(func() error {
		return acceptor.Run(gctx)
	})
	g.Go(func() error {
		reportStats(gctx, reg)
		return nil
	})

	err = g.Wait()
	reg.Shutdown()
	if err != nil {
		return fmt.Errorf("server loop: %w", err)
	}
	return nil
}

// reportStats periodically logs registry table sizes until ctx is done.
// A lightweight ambient heartbeat, not a liveness mechanism: idle
// per-connection timeouts are enforced entirely within each Conn.
func reportStats(ctx context.Context, reg *registry.Registry) {
	ticker := time.NewTicker(statsLogInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			slog.Info("registry snapshot", "stats", reg.Snapshot())
		}
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
