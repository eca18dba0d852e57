// Command mailer delivers the emails the team service queues when it runs
// with TEAM_NOTIFIER=queue.
package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/aussiebroadwan/expo/internal/team/app"
	"github.com/aussiebroadwan/expo/internal/team/notify"
	"github.com/aussiebroadwan/expo/pkg/slogx"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slogx.New(slogx.Config{
		Service: "team-mailer",
		Version: app.BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})

	sender, err := notify.NewSMTPNotifier(cfg.SMTP)
	if err != nil {
		logger.Error("failed to configure smtp", slog.Any("error", err))
		os.Exit(1)
	}

	srv := notify.NewServer(notify.RedisConnOpt(cfg.RedisAddr, cfg.RedisPassword), cfg.MailerConcurrency)

	mux := asynq.NewServeMux()
	notify.NewWorker(sender, logger).RegisterHandlers(mux)

	if err := srv.Start(mux); err != nil {
		logger.Error("failed to start mailer", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("mailer started, waiting for tasks...",
		slog.String("redis", cfg.RedisAddr),
		slog.Int("concurrency", cfg.MailerConcurrency),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down mailer...", slog.String("signal", sig.String()))
	srv.Shutdown()
	logger.Info("mailer stopped")
}
