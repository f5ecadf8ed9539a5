package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	api "clearoute/internal/api/http"
	"clearoute/internal/api/telegram"
	"clearoute/internal/container"
	"clearoute/internal/logger"
)

const shutdownTimeout = 10 * time.Second

type healthChecker interface {
	CheckHealth(ctx context.Context) error
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Запустить HTTP API (и Telegram-бота, если задан TELEGRAM_TOKEN)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer logger.Flush(log)

			c, err := container.New(cfg, log)
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if hc, ok := c.Detector.(healthChecker); ok {
				if err := hc.CheckHealth(ctx); err != nil {
					log.Warn("inference service is not reachable yet", zap.Error(err))
				}
			}

			if cfg.TelegramToken != "" {
				bot, err := telegram.NewBot(cfg.TelegramToken, c.UserService, c.InspectionService, c.AuditService, log.Named("telegram"))
				if err != nil {
					return err
				}
				go func() {
					if err := bot.Run(ctx); err != nil {
						log.Error("telegram bot stopped", zap.Error(err))
					}
				}()
			}

			handler := api.NewHandler(c.InspectionService, c.AuditService, log.Named("http"))
			srv := &http.Server{
				Addr:              cfg.HTTPAddr,
				Handler:           api.NewRouter(handler, c.Metrics.Handler(), log.Named("access")),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
