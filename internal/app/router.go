package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/meridian-erp/meridian-erp/internal/masterdata/customers"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/products"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/suppliers"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/warehouses"
	"github.com/meridian-erp/meridian-erp/internal/procurement"
	salesorders "github.com/meridian-erp/meridian-erp/internal/sales/orders"
	"github.com/meridian-erp/meridian-erp/internal/treasury"
	"github.com/meridian-erp/meridian-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config
	Actors func(http.Handler) http.Handler

	SalesHandler       *salesorders.Handler
	ProcurementHandler *procurement.Handler
	TreasuryHandler    *treasury.Handler
	CustomersHandler   *customers.Handler
	SuppliersHandler   *suppliers.Handler
	ProductsHandler    *products.Handler
	WarehousesHandler  *warehouses.Handler
	JobHandler         *jobs.Handler
}

// NewRouter constructs the chi.Router with Meridian defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
		Actors: params.Actors,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.SalesHandler != nil {
		r.Route("/sales", func(r chi.Router) {
			params.SalesHandler.MountRoutes(r, params.Logger)
		})
	}
	if params.ProcurementHandler != nil {
		r.Route("/procurement", func(r chi.Router) {
			params.ProcurementHandler.MountRoutes(r, params.Logger)
		})
	}
	if params.TreasuryHandler != nil {
		r.Route("/treasury", func(r chi.Router) {
			params.TreasuryHandler.MountRoutes(r, params.Logger)
		})
	}
	r.Route("/masterdata", func(r chi.Router) {
		if params.CustomersHandler != nil {
			params.CustomersHandler.MountRoutes(r, params.Logger)
		}
		if params.SuppliersHandler != nil {
			params.SuppliersHandler.MountRoutes(r, params.Logger)
		}
		if params.ProductsHandler != nil {
			params.ProductsHandler.MountRoutes(r, params.Logger)
		}
		if params.WarehousesHandler != nil {
			params.WarehousesHandler.MountRoutes(r, params.Logger)
		}
	})
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	return r
}
