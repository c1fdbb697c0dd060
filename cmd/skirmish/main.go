package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmksnnk/skirmish/internal/netplay"
	"golang.org/x/time/rate"
)

func main() {
	ctx, close := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer close()

	var cfg commandConfig
	if err := cfg.Parse(os.Args[1:]); err != nil {
		abort(cfg.FS, err)
	}

	envCfg, err := parseEnv()
	if err != nil {
		abort(cfg.FS, err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: envCfg.LogLevel}))
	logger.DebugContext(ctx, "load config", slog.Any("config", envCfg))

	mgr := netplay.Config{
		Logger:       logger.With(slog.String("component", "netplay")),
		JoinTimeout:  envCfg.JoinTimeout,
		WriteTimeout: envCfg.WriteTimeout,
		MaxSendRate:  rate.Limit(envCfg.MaxSendRate),
	}.NewManager()
	defer mgr.Disconnect()

	switch cfg.Command {
	case "host":
		var hostCfg hostConfig
		if err := hostCfg.Parse(cfg.FS.Args()[1:]); err != nil {
			abort(hostCfg.FS, err)
		}
		if !runHost(mgr, hostCfg, logger) {
			os.Exit(1)
		}
	case "join":
		var joinCfg joinConfig
		if err := joinCfg.Parse(cfg.FS.Args()[1:]); err != nil {
			abort(joinCfg.FS, err)
		}
		if !runJoin(ctx, mgr, joinCfg, logger) {
			os.Exit(1)
		}
	default:
		abort(cfg.FS, fmt.Errorf("unknown command: %s", cfg.Command))
	}

	loop := gameLoop{
		Manager:        mgr,
		TickRate:       envCfg.TickRate,
		StatusInterval: envCfg.StatusInterval,
		Logger:         logger.With(slog.String("component", "game")),
		// a joining player has nothing to wait for once the host is gone
		StopOnDisconnect: cfg.Command == "join",
	}
	if err := loop.Run(ctx); err != nil {
		logger.Error("game loop", "error", err)
		mgr.Disconnect()
		os.Exit(1)
	}

	logger.Info("bye")
}

func runHost(mgr *netplay.Manager, hostCfg hostConfig, logger *slog.Logger) bool {
	code := mgr.Host(hostCfg.Port)
	if code.IsZero() {
		logger.Error("host game", "error", mgr.LastError())
		return false
	}

	info, _ := mgr.ConnectionInfo()
	logger.Info("waiting for a friend to join",
		slog.String("ip", info.IP),
		slog.Int("port", info.Port),
		slog.String("code", info.Code.String()),
	)

	return true
}

func runJoin(ctx context.Context, mgr *netplay.Manager, joinCfg joinConfig, logger *slog.Logger) bool {
	if !joinCfg.Code.IsZero() {
		logger.Info("joining game", slog.String("code", joinCfg.Code.String()))
	}

	if !mgr.Join(ctx, joinCfg.Addr) {
		logger.Error("join game", "error", mgr.LastError())
		return false
	}

	return true
}
