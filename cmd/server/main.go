package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/r3xsean/devilsdice/internal/config"
	"github.com/r3xsean/devilsdice/internal/gateway"
	"github.com/r3xsean/devilsdice/internal/registry"
	"github.com/r3xsean/devilsdice/internal/server"
	"github.com/r3xsean/devilsdice/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := newLogger(stdout, cfg)

	// --- State store ---
	var remote store.Store
	if cfg.RedisURL != "" {
		rds, err := store.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, using in-process store")
		} else {
			defer rds.Close()
			remote = rds
			log.Info().Msg("connected to redis")
		}
	}
	fallback := store.NewFallback(remote, log)
	defer fallback.Close()
	games := store.NewGames(fallback)

	// --- Rooms and gateway ---
	hub := gateway.NewHub(log)
	reg := registry.New(games, hub, log)
	gw := gateway.New(reg, hub, log)

	_, router := server.New(gw, fallback, cfg.CORSOrigin, cfg.AppEnv)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		reg.Run(gctx)
		return nil
	})

	g.Go(func() error {
		log.Info().Str("addr", cfg.Addr()).Msg("starting http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newLogger(stdout io.Writer, cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	out := stdout
	if !cfg.Production() {
		out = zerolog.ConsoleWriter{Out: stdout}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
