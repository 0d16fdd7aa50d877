// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/danielhkuo/quickly-vote/auth"
	"github.com/danielhkuo/quickly-vote/catalog"
	"github.com/danielhkuo/quickly-vote/cliparse"
	"github.com/danielhkuo/quickly-vote/db"
	"github.com/danielhkuo/quickly-vote/events"
	"github.com/danielhkuo/quickly-vote/flags"
	"github.com/danielhkuo/quickly-vote/gate"
	"github.com/danielhkuo/quickly-vote/identity"
	"github.com/danielhkuo/quickly-vote/ledger"
	"github.com/danielhkuo/quickly-vote/middleware"
	"github.com/danielhkuo/quickly-vote/realtime"
	"github.com/danielhkuo/quickly-vote/router"
	"github.com/danielhkuo/quickly-vote/tally"
)

func main() {
	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect and migrate
	dbConn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database setup failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	bus, err := openBus(cfg)
	if err != nil {
		slog.Error("event bus connection failed", "error", err)
		os.Exit(1)
	}
	defer bus.Close()

	store := flags.NewStore(dbConn, bus, cfg.StoreTimeout)
	if err := store.Load(ctx); err != nil {
		slog.Error("loading settings failed", "error", err)
		os.Exit(1)
	}

	cat := catalog.NewSQLReader(dbConn)
	engine := tally.NewEngine(dbConn, cat, cfg.StoreTimeout)
	broadcaster := realtime.NewBroadcaster(engine, cfg.ResyncInterval)
	accessGate := gate.New(store, cfg.GateMaxWait)

	// Background workers stop with ctx
	var wg sync.WaitGroup
	runWorker := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				slog.Error("worker stopped", "worker", name, "error", err)
			}
		}()
	}
	runWorker("settings-watch", func(ctx context.Context) error { return store.Watch(ctx, bus) })
	runWorker("broadcaster", func(ctx context.Context) error { return broadcaster.Run(ctx, bus) })
	runWorker("gate", accessGate.Run)

	handler := router.NewRouter(router.Deps{
		Config:      cfg,
		Identities:  identity.NewResolver(auth.NewSessionVerifier(cfg.SessionSecret, auth.Issuer), store, cfg.FingerprintSalt),
		Ledger:      ledger.New(dbConn, cat, bus, cfg.StoreTimeout),
		Tallies:     engine,
		Catalog:     cat,
		Broadcaster: broadcaster,
		Settings:    store,
		Gate:        accessGate,
	})

	server := http.Server{
		Handler:           middleware.CORS(handler),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("graceful shutdown failed", "error", err)
			server.Close()
		}
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed")
	}

	stop()
	wg.Wait()
}

// openBus connects to NATS when configured; otherwise events stay in
// process, which is enough for a single instance.
func openBus(cfg cliparse.Config) (events.Bus, error) {
	if cfg.NATSURL == "" {
		slog.Info("using in-process event bus")
		return events.NewLocalBus(), nil
	}
	bus, err := events.NewNATSBus(cfg.NATSURL)
	if err != nil {
		return nil, err
	}
	slog.Info("connected to NATS", "url", cfg.NATSURL)
	return bus, nil
}
