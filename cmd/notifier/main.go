// cmd/notifier/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"lending-notifier/internal/common/config"
	"lending-notifier/internal/common/database"
	"lending-notifier/internal/common/logger"
	"lending-notifier/internal/common/observability"
	"lending-notifier/internal/mail"
	"lending-notifier/internal/notify"
	"lending-notifier/internal/server"
	"lending-notifier/internal/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting lending notifier...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("Failed to load configuration", zap.Error(err))
	}

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	// Ordered transport list: SMTP primary, SMTP fallback, then SES.
	var transports []mail.Transport
	if cfg.SMTP.Primary.Configured() {
		transports = append(transports, mail.NewSMTPTransport(cfg.SMTP.Primary))
	}
	if cfg.SMTP.Fallback.Configured() {
		transports = append(transports, mail.NewSMTPTransport(cfg.SMTP.Fallback))
	}
	if cfg.SES.Enabled {
		sesTransport, err := mail.NewSESTransport(context.Background(), cfg.SES.Region)
		if err != nil {
			zapLog.Fatal("Failed to initialize SES transport", zap.Error(err))
		}
		transports = append(transports, sesTransport)
	}

	selector := mail.NewSelector(transports, log)

	var redisClient *database.RedisClient
	if cfg.Notifications.VerifyCache.Enabled {
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			zapLog.Fatal("Failed to initialize Redis", zap.Error(err))
		}
		defer redisClient.Close()

		if err := retryWithBackoff(func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return redisClient.Ping(ctx)
		}, 3, time.Second, zapLog, "Redis connection"); err != nil {
			zapLog.Fatal("Redis unreachable", zap.Error(err))
		}

		cacheTTL := config.GetDuration(cfg.Notifications.VerifyCache.TTL)
		selector = selector.WithHealthCache(mail.NewHealthCache(redisClient, cacheTTL))
		zapLog.Info("Transport verify cache enabled", zap.Duration("ttl", cacheTTL))
	}

	composer := notify.NewComposer(cfg.Notifications.DashboardURL, cfg.App.Name)
	dispatcher := notify.NewDispatcher(selector, composer, cfg.Notifications, log)

	var recorder notify.Recorder
	var failures server.FailureLister
	if cfg.Database.Postgres.Configured() {
		pgClient, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			zapLog.Fatal("Failed to initialize PostgreSQL", zap.Error(err))
		}
		defer pgClient.Close()

		if err := retryWithBackoff(func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return pgClient.Ping(ctx)
		}, 3, time.Second, zapLog, "PostgreSQL connection"); err != nil {
			zapLog.Fatal("PostgreSQL unreachable", zap.Error(err))
		}

		deliveryLog := store.NewDeliveryLog(pgClient.DB)
		recorder = deliveryLog
		failures = deliveryLog
		zapLog.Info("Delivery log enabled")
	}

	queue := notify.NewQueue(
		dispatcher,
		recorder,
		cfg.Notifications.Queue.Workers,
		cfg.Notifications.Queue.BufferSize,
		log,
	)

	srv, err := server.New(queue, failures, log, obs)
	if err != nil {
		zapLog.Fatal("Failed to build server", zap.Error(err))
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      srv.Handler(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening",
			zap.String("address", cfg.Server.Address),
			zap.Bool("emailEnabled", cfg.Notifications.Email.Enabled),
			zap.Int("transports", len(transports)),
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLog.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}

	// Drain queued notifications before exiting; anything undeliverable in
	// time is logged by the workers and dropped (at-most-once semantics).
	if err := queue.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Queue drain timed out", zap.Error(err))
	}

	zapLog.Info("Shutdown complete")
}
