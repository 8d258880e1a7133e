package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/nexcartbd/nexcart/internal/analytics"
	"github.com/nexcartbd/nexcart/internal/app"
	"github.com/nexcartbd/nexcart/internal/catalog"
	"github.com/nexcartbd/nexcart/internal/orders"
	"github.com/nexcartbd/nexcart/internal/platform/cache"
	"github.com/nexcartbd/nexcart/internal/platform/db"
	"github.com/nexcartbd/nexcart/internal/users"
	"github.com/nexcartbd/nexcart/jobs"
)

func main() {
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

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	usersRepo := users.NewRepository(pool)

	catalogRepo := catalog.NewRepository(pool)
	catalogService := catalog.NewService(catalogRepo, logger)
	catalogHandler := catalog.NewHandler(logger, catalogService)

	analyticsRepo := analytics.NewRepository(pool)
	analyticsCache := analytics.NewCache(redisClient)
	analyticsService := analytics.NewService(analyticsRepo, analyticsCache, logger)
	analyticsHandler := analytics.NewHandler(logger, analyticsService)

	ordersRepo := orders.NewRepository(pool)
	ordersService := orders.NewService(orders.ServiceParams{
		Repo:        ordersRepo,
		Users:       usersRepo,
		Resolver:    orders.NewResolver(catalogRepo),
		Notifier:    jobs.NewOrderNotifier(jobClient, cfg.AdminEmail, logger),
		Invalidator: analyticsCache,
		Logger:      logger,
		ReceiverNumbers: map[orders.PaymentMethod]string{
			orders.MethodBkash:  cfg.ReceiverNumberBkash,
			orders.MethodNagad:  cfg.ReceiverNumberNagad,
			orders.MethodRocket: cfg.ReceiverNumberRocket,
		},
		Bank: orders.BankDetails{
			BankName:      cfg.BankName,
			BranchName:    cfg.BankBranchName,
			AccountName:   cfg.BankAccountName,
			AccountNumber: cfg.BankAccountNumber,
		},
	})
	ordersHandler := orders.NewHandler(logger, ordersService)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		CatalogHandler:   catalogHandler,
		OrdersHandler:    ordersHandler,
		AnalyticsHandler: analyticsHandler,
		JobHandler:       jobs.NewHandler(inspector, jobClient, logger),
	})

	srv := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server started", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown", slog.Any("error", err))
	}
	logger.Info("http server stopped")
}
