package procurement

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/docstatus"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler exposes purchase order operations over JSON.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	idem     httpx.KeyRecorder
}

// NewHandler constructs the procurement HTTP handler.
func NewHandler(logger *slog.Logger, service *Service, idem httpx.KeyRecorder) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
		idem:     idem,
	}
}

// setStatusRequest carries a status change and an optional reason.
type setStatusRequest struct {
	Status docstatus.Status `json:"status" validate:"required"`
	Reason *string          `json:"reason,omitempty"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePurchaseOrderInput
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, shared.CodeValidation, "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, shared.CodeValidation, err.Error())
		return
	}

	po, err := h.service.Create(r.Context(), req, h.actorID(r))
	if err != nil {
		h.logger.Error("create purchase order", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, po)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := h.idParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, shared.CodeValidation, "invalid id")
		return
	}
	var req UpdatePurchaseOrderInput
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, shared.CodeValidation, "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, shared.CodeValidation, err.Error())
		return
	}

	po, err := h.service.Update(r.Context(), id, req, h.actorID(r))
	if err != nil {
		h.logger.Error("update purchase order", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, po)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := h.idParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, shared.CodeValidation, "invalid id")
		return
	}
	if err := h.service.Delete(r.Context(), id, h.actorID(r)); err != nil {
		h.logger.Error("delete purchase order", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := h.idParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, shared.CodeValidation, "invalid id")
		return
	}
	var req setStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, shared.CodeValidation, "malformed request body")
		return
	}

	po, err := h.service.SetStatus(r.Context(), id, req.Status, h.actorID(r), req.Reason)
	if err != nil {
		h.logger.Error("set purchase order status", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, po)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := h.idParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, shared.CodeValidation, "invalid id")
		return
	}
	po, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, po)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := ListPurchaseOrdersInput{CompanyID: 1, Limit: 50}
	if v := q.Get("company_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.CompanyID = id
		}
	}
	if v := q.Get("supplier_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.SupplierID = &id
		}
	}
	if v := q.Get("status"); v != "" {
		st := docstatus.Status(v)
		req.Status = &st
	}
	if t := parseDate(q.Get("date_from")); t != nil {
		req.DateFrom = t
	}
	if t := parseDate(q.Get("date_to")); t != nil {
		req.DateTo = t
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			req.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			req.Offset = n
		}
	}

	results, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list purchase orders", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	page := req.Offset/maxInt(req.Limit, 1) + 1
	httpx.JSON(w, http.StatusOK, map[string]any{
		"orders":     results,
		"pagination": shared.NewPagination(page, req.Limit, total),
	})
}

// MountRoutes attaches purchase order endpoints under the given router.
func (h *Handler) MountRoutes(r chi.Router, logger *slog.Logger) {
	r.Group(func(r chi.Router) {
		r.Use(shared.RequirePermission(logger, shared.PermPurchaseOrderView))
		r.Get("/purchase-orders", h.List)
		r.Get("/purchase-orders/{id}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(shared.RequirePermission(logger, shared.PermPurchaseOrderCreate))
		r.Use(httpx.Idempotent(logger, h.idem, "procurement"))
		r.Post("/purchase-orders", h.Create)
	})
	r.Group(func(r chi.Router) {
		r.Use(shared.RequirePermission(logger, shared.PermPurchaseOrderEdit))
		r.Put("/purchase-orders/{id}", h.Update)
		r.Post("/purchase-orders/{id}/status", h.SetStatus)
	})
	r.Group(func(r chi.Router) {
		r.Use(shared.RequirePermission(logger, shared.PermPurchaseOrderDelete))
		r.Delete("/purchase-orders/{id}", h.Delete)
	})
}

func (h *Handler) idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (h *Handler) actorID(r *http.Request) int64 {
	if actor := shared.ActorFromContext(r.Context()); actor != nil {
		return actor.ID
	}
	return 0
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
