package orders

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// MountRoutes attaches sales order endpoints under the given router.
func (h *Handler) MountRoutes(r chi.Router, logger *slog.Logger) {
	r.Group(func(r chi.Router) {
		r.Use(shared.RequirePermission(logger, shared.PermSalesOrderView))
		r.Get("/orders", h.List)
		r.Get("/orders/{id}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(shared.RequirePermission(logger, shared.PermSalesOrderCreate))
		r.Use(httpx.Idempotent(logger, h.idem, "sales"))
		r.Post("/orders", h.Create)
	})
	r.Group(func(r chi.Router) {
		r.Use(shared.RequirePermission(logger, shared.PermSalesOrderEdit))
		r.Put("/orders/{id}", h.Update)
		r.Post("/orders/{id}/status", h.SetStatus)
	})
	r.Group(func(r chi.Router) {
		r.Use(shared.RequirePermission(logger, shared.PermSalesOrderDelete))
		r.Delete("/orders/{id}", h.Delete)
	})
}
