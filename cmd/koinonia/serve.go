package main

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/germanamz/koinonia/pkg/engine"
	"github.com/germanamz/koinonia/pkg/server"
	"github.com/germanamz/koinonia/pkg/store"
)

const defaultAddr = ":8080"

func newServeCommand(root *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(root.configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return serve(cmd.Context(), cfg, log)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func serve(ctx context.Context, cfg engine.Config, log *slog.Logger) error {
	slog.SetDefault(log)

	resolver, closeDB, err := openResolver(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeDB() }()

	var st server.Store
	if cfg.StoreDB != "" {
		s, err := store.Open(ctx, cfg.StoreDB)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()
		st = s
	} else {
		log.Warn("store_db not configured; presentations, conversations and usage limits are disabled")
	}

	streamer, err := engine.BuildStreamer(cfg.Provider)
	if err != nil {
		return err
	}
	eng := engine.New(streamer, resolver, cfg.Options(), log)

	if cfg.Server.APIKey == "" {
		log.Warn("server api_key not configured; chat and library routes are unauthenticated")
	}
	srv := &http.Server{
		Addr: cmp.Or(cfg.Server.Addr, defaultAddr),
		Handler: server.New(eng, resolver, st, server.Config{
			APIKey:         cfg.Server.APIKey,
			Tiers:          cfg.TierTable(),
			OriginPatterns: cfg.Server.AllowedOrigins,
			KeepAlive:      cfg.Server.KeepAliveInterval(),
		}, log).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(log.Handler(), slog.LevelWarn),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", "addr", srv.Addr, "model", eng.Options().Model)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")

		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownGrace())
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
