package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/Ayushchauha111/jewelpos/internal/app"
	"github.com/Ayushchauha111/jewelpos/internal/bills"
	"github.com/Ayushchauha111/jewelpos/internal/catalog"
	"github.com/Ayushchauha111/jewelpos/internal/observability"
	"github.com/Ayushchauha111/jewelpos/internal/platform/cache"
	"github.com/Ayushchauha111/jewelpos/internal/platform/db"
	"github.com/Ayushchauha111/jewelpos/internal/pricecache"
	"github.com/Ayushchauha111/jewelpos/internal/rates"
	"github.com/Ayushchauha111/jewelpos/jobs"
	"github.com/Ayushchauha111/jewelpos/migrations"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	// A local .env never overrides variables already set in the environment.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if args := os.Args[1:]; len(args) > 0 && args[0] != "serve" {
		code := runCommand(ctx, cfg, logger, args)
		stop()
		os.Exit(code)
	}

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	if cfg.MigrateOnStart {
		if err := db.Migrate(ctx, dbpool, migrations.Files, logger); err != nil {
			logger.Error("migrate", slog.Any("error", err))
			os.Exit(1)
		}
	}

	// Redis only backs the price memo, so billing keeps working without it.
	var memo bills.MemoStore
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, price memo disabled", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		memo = pricecache.NewStore(redisClient, cfg.PriceMemoTTL)
	}

	metrics := observability.NewMetrics()
	billingMetrics := observability.NewBillingMetrics(metrics.Registerer())

	rateService := rates.NewService(rates.NewRepository(dbpool), logger)
	billService := bills.NewService(bills.Deps{
		Repo:  bills.NewRepository(dbpool),
		Rates: rateService,
		Stock: catalog.NewRepository(dbpool),
		Memo:  memo,
		Shop: bills.Shop{
			Name:    cfg.ShopName,
			GSTIN:   cfg.ShopGSTIN,
			Address: cfg.ShopAddress,
		},
		Metrics: billingMetrics,
		Logger:  logger,
	})

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
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

	router := app.NewRouter(app.RouterParams{
		Logger:       logger,
		Config:       cfg,
		BillsHandler: bills.NewHandler(billService, logger),
		RatesHandler: rates.NewHandler(rateService, logger),
		JobHandler:   jobs.NewHandler(inspector, jobClient, logger),
		Metrics:      metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("shop", cfg.ShopName))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
