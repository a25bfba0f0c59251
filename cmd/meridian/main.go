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

	"github.com/meridian-erp/meridian-erp/internal/app"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/customers"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/products"
	mdshared "github.com/meridian-erp/meridian-erp/internal/masterdata/shared"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/suppliers"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/warehouses"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/procurement"
	"github.com/meridian-erp/meridian-erp/internal/rbac"
	salesorders "github.com/meridian-erp/meridian-erp/internal/sales/orders"
	"github.com/meridian-erp/meridian-erp/internal/shared"
	"github.com/meridian-erp/meridian-erp/internal/treasury"
	"github.com/meridian-erp/meridian-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)
	guard := mdshared.NewUsageGuard(mdshared.NewReferenceStore(pool))

	resolver := rbac.Resolver{Source: rbac.NewStore(pool), Logger: logger}

	customersService := customers.NewService(customers.NewRepository(pool), guard, auditLogger)
	customersHandler := customers.NewHandler(logger, customersService)

	suppliersService := suppliers.NewService(suppliers.NewRepository(pool), guard, auditLogger)
	suppliersHandler := suppliers.NewHandler(logger, suppliersService)

	productsService := products.NewService(products.NewRepository(pool), guard, auditLogger)
	productsHandler := products.NewHandler(logger, productsService)

	warehousesService := warehouses.NewService(warehouses.NewRepository(pool), guard, auditLogger)
	warehousesHandler := warehouses.NewHandler(logger, warehousesService)

	salesService := salesorders.NewService(salesorders.NewRepository(pool), customersService, auditLogger)
	salesHandler := salesorders.NewHandler(logger, salesService, idempotencyStore)

	procurementService := procurement.NewService(procurement.NewRepository(pool), suppliersService, auditLogger)
	procurementHandler := procurement.NewHandler(logger, procurementService, idempotencyStore)

	treasuryService := treasury.NewService(treasury.NewRepository(pool), auditLogger)
	treasuryHandler := treasury.NewHandler(logger, treasuryService, idempotencyStore)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Actors:             resolver.Middleware,
		SalesHandler:       salesHandler,
		ProcurementHandler: procurementHandler,
		TreasuryHandler:    treasuryHandler,
		CustomersHandler:   customersHandler,
		SuppliersHandler:   suppliersHandler,
		ProductsHandler:    productsHandler,
		WarehousesHandler:  warehousesHandler,
		JobHandler:         jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
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
