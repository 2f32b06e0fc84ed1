package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/soaringjerry/stackit/internal/api"
	"github.com/soaringjerry/stackit/internal/middleware"
	"github.com/soaringjerry/stackit/internal/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, config, logger)
	},
}

func serve(ctx context.Context, cfg Config, logger *slog.Logger) error {
	blob, err := openBlobStore(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := blob.Close(); cerr != nil {
			logger.Warn("close store", slog.Any("err", cerr))
		}
	}()

	if cfg.JWTSecret == "" {
		logger.Warn("STACKIT_JWT_SECRET not set, using development secret")
	}
	middleware.SetSecret(cfg.JWTSecret)

	board := services.NewBoardService(blob, services.WithLogger(logger.With("component", "board")))
	if err := board.Initialize(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: api.NewHandler(api.HandlerConfig{
			Board:       board,
			Blob:        blob,
			Logger:      logger.With("component", "http"),
			PageSize:    cfg.PageSize,
			StaticDir:   cfg.StaticDir,
			CORSOrigins: cfg.CORSOrigins,
			Commit:      cfg.Commit,
			BuildTime:   cfg.BuildTime,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("StackIt server listening", slog.String("addr", cfg.Addr), slog.String("store", cfg.Store))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
