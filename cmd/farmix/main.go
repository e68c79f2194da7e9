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

	"github.com/farmix-pos/farmix/internal/app"
	"github.com/farmix-pos/farmix/internal/catalog"
	"github.com/farmix-pos/farmix/internal/catalog/importer"
	"github.com/farmix-pos/farmix/internal/observability"
	"github.com/farmix-pos/farmix/internal/platform/cache"
	"github.com/farmix-pos/farmix/internal/platform/db"
	"github.com/farmix-pos/farmix/internal/sales"
)

// catalogRefs adapts the catalog service to the product lookup the sales
// service needs.
type catalogRefs struct {
	service *catalog.Service
}

func (c catalogRefs) ProductRefs(ctx context.Context, ids []int64) (map[int64]sales.ProductRef, error) {
	products, err := c.service.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	refs := make(map[int64]sales.ProductRef, len(products))
	for id, p := range products {
		refs[id] = sales.ProductRef{
			ID:        p.ID,
			Name:      p.Name,
			SalePrice: p.SalePrice,
			TaxRate:   p.TaxRate,
			Stock:     p.Stock,
		}
	}
	return refs, nil
}

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
		logger.Error("connect postgres", slog.Any("error", err))
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

	metrics := observability.NewMetrics()

	catalogRepo := catalog.NewRepository(pool)
	catalogService := catalog.NewService(catalogRepo, logger)
	catalogHandler := catalog.NewHandler(logger, catalogService)

	snapshotCache := catalog.NewSnapshotCache(redisClient, catalogService, cfg.SnapshotTTL, logger)

	salesRepo := sales.NewRepository(pool)
	salesService := sales.NewService(salesRepo, catalogRefs{service: catalogService})
	salesHandler := sales.NewHandler(logger, salesService)

	reconciler := importer.NewReconciler(catalogService, metrics, logger)
	importHandler := importer.NewHandler(logger, snapshotCache, reconciler, cfg.ImportMaxFileSize)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SalesHandler:   salesHandler,
		CatalogHandler: catalogHandler,
		ImportHandler:  importHandler,
		Pool:           pool,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		errCh <- server.ListenAndServe()
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
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
	}
}
