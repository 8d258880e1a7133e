package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/nexcartbd/nexcart/internal/app"
	"github.com/nexcartbd/nexcart/internal/catalog"
	"github.com/nexcartbd/nexcart/internal/catalog/supplier"
	"github.com/nexcartbd/nexcart/internal/platform/db"
	"github.com/nexcartbd/nexcart/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	mailer := jobs.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom)

	handlers := []jobs.TaskHandler{
		{Type: jobs.TaskTypeSendEmail, Handler: jobs.NewSendEmailHandler(mailer, logger)},
	}

	var cron []jobs.CronRegistration
	if cfg.SupplierBaseURL != "" {
		pricing := catalog.PricingPolicy{
			Mode:     catalog.PricingMode(cfg.PricingMode),
			Value:    cfg.PricingValue,
			Rounding: catalog.RoundingRule(cfg.PriceRounding),
		}
		syncer := supplier.NewSyncer(
			supplier.NewClient(cfg.SupplierBaseURL, cfg.SupplierAPIKey, cfg.SupplierSecretKey),
			catalog.NewRepository(pool),
			pricing,
			logger,
		)
		handlers = append(handlers, jobs.TaskHandler{
			Type:    jobs.TaskTypeSupplierSync,
			Handler: jobs.NewSupplierSyncHandler(syncer, logger),
		})
		cron = append(cron, jobs.CronRegistration{
			Spec: cfg.SupplierSyncCron,
			Task: jobs.NewSupplierSyncTask(),
		})
	} else {
		logger.Info("supplier sync disabled: no base url configured")
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers:  handlers,
		Cron:      cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker started", slog.String("redis", cfg.RedisAddr))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker stopped")
}
