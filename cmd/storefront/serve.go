package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MorseWayne/storefront/internal/app"
)

func serveCmd(opts *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, lg, err := opts.load("")
			if err != nil {
				return err
			}
			defer func() { _ = lg.Sync() }()
			if port > 0 {
				cfg.App.Port = port
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg, lg)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					lg.Sugar().Errorw("failed to release resources", "err", err)
				}
			}()

			addr := fmt.Sprintf(":%d", cfg.App.Port)
			srv := &http.Server{Addr: addr, Handler: a.Handler(), ReadHeaderTimeout: 5 * time.Second}
			lg.Sugar().Infow("server starting", "addr", addr, "endpoint", a.Gateway.Endpoint())

			serverErrCh := make(chan error, 1)
			go func() {
				serverErrCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-serverErrCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server error: %w", err)
				}
				return nil
			case <-ctx.Done():
				lg.Sugar().Infow("shutdown signal received")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				lg.Sugar().Errorw("server shutdown error", "err", err)
			}
			lg.Sugar().Infow("server exited")
			return nil
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (overrides APP_PORT)")
	return cmd
}
