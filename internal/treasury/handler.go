package treasury

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler exposes treasury accounts and transactions over JSON plus a CSV
// statement export.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	printer  *message.Printer
	idem     httpx.KeyRecorder
}

// NewHandler constructs the treasury HTTP handler.
func NewHandler(logger *slog.Logger, service *Service, idem httpx.KeyRecorder) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
		printer:  message.NewPrinter(language.English),
		idem:     idem,
	}
}

func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountInput
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, shared.CodeValidation, "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, shared.CodeValidation, err.Error())
		return
	}

	account, err := h.service.CreateAccount(r.Context(), req, h.actorID(r))
	if err != nil {
		h.logger.Error("create treasury account", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, account)
}

func (h *Handler) SetAccountStatus(w http.ResponseWriter, r *http.Request) {
	id, err := h.idParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, shared.CodeValidation, "invalid id")
		return
	}
	var req struct {
		Status AccountStatus `json:"status"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, shared.CodeValidation, "malformed request body")
		return
	}

	account, err := h.service.SetAccountStatus(r.Context(), id, req.Status, h.actorID(r))
	if err != nil {
		h.logger.Error("set treasury account status", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, account)
}

func (h *Handler) RecordTransaction(w http.ResponseWriter, r *http.Request) {
	var req RecordTransactionInput
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, shared.CodeValidation, "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, shared.CodeValidation, err.Error())
		return
	}

	txn, err := h.service.RecordTransaction(r.Context(), req, h.actorID(r))
	if err != nil {
		h.logger.Error("record treasury transaction", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, txn)
}

func (h *Handler) ShowAccount(w http.ResponseWriter, r *http.Request) {
	id, err := h.idParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, shared.CodeValidation, "invalid id")
		return
	}
	account, err := h.service.GetAccount(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, account)
}

func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	id, err := h.idParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, shared.CodeValidation, "invalid id")
		return
	}
	balance, err := h.service.Balance(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"account_id": id,
		"balance":    balance,
	})
}

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	companyID, err := strconv.ParseInt(r.URL.Query().Get("company_id"), 10, 64)
	if err != nil || companyID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, shared.CodeValidation, "company_id query parameter is required")
		return
	}
	accounts, err := h.service.ListAccounts(r.Context(), companyID)
	if err != nil {
		h.logger.Error("list treasury accounts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"accounts": accounts})
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := h.idParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, shared.CodeValidation, "invalid id")
		return
	}
	req := h.parseTransactionFilters(r, id)

	results, total, err := h.service.ListTransactions(r.Context(), req)
	if err != nil {
		h.logger.Error("list treasury transactions", slog.Any("error", err), slog.Int64("account_id", id))
		httpx.RespondError(w, err)
		return
	}
	page := req.Offset/maxInt(req.Limit, 1) + 1
	httpx.JSON(w, http.StatusOK, map[string]any{
		"transactions": results,
		"pagination":   shared.NewPagination(page, req.Limit, total),
	})
}

// statementRowCap bounds a single CSV export. Wider windows must be
// narrowed by date rather than silently truncated.
const statementRowCap = 1000

// ExportStatement streams the account ledger as CSV with the running
// balance per row. The walk starts from the ledger balance as of the
// window's upper bound, so rows stay correct when date filters exclude
// newer transactions.
func (h *Handler) ExportStatement(w http.ResponseWriter, r *http.Request) {
	id, err := h.idParam(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, shared.CodeValidation, "invalid id")
		return
	}
	req := h.parseTransactionFilters(r, id)
	req.Limit = statementRowCap
	req.Offset = 0
	txns, total, err := h.service.ListTransactions(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if total > statementRowCap {
		httpx.Problem(w, http.StatusUnprocessableEntity, shared.CodeValidation,
			fmt.Sprintf("statement window covers %d transactions, narrow the date range to %d or fewer", total, statementRowCap))
		return
	}
	running, err := h.service.BalanceAsOf(r.Context(), id, req.DateTo)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	_ = writer.Write([]string{"Date", "Type", "Description", "Reference", "Amount", "Running Balance"})
	for _, t := range txns {
		ref := ""
		if t.Reference != nil {
			ref = *t.Reference
		}
		amount, _ := t.Amount.Float64()
		balance, _ := running.Float64()
		_ = writer.Write([]string{
			t.CreatedAt.Format("2006-01-02"),
			string(t.Type),
			t.Description,
			ref,
			h.printer.Sprintf("%.2f", amount),
			h.printer.Sprintf("%.2f", balance),
		})
		running = running.Sub(t.SignedAmount())
	}
	writer.Flush()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=account_%d_statement.csv", id))
	_, _ = w.Write(buf.Bytes())
}

// MountRoutes attaches treasury endpoints under the given router.
func (h *Handler) MountRoutes(r chi.Router, logger *slog.Logger) {
	r.Group(func(r chi.Router) {
		r.Use(shared.RequirePermission(logger, shared.PermTreasuryAccountView))
		r.Get("/accounts", h.ListAccounts)
		r.Get("/accounts/{id}", h.ShowAccount)
		r.Get("/accounts/{id}/balance", h.Balance)
		r.Get("/accounts/{id}/transactions", h.ListTransactions)
		r.Get("/accounts/{id}/statement.csv", h.ExportStatement)
	})
	r.Group(func(r chi.Router) {
		r.Use(shared.RequirePermission(logger, shared.PermTreasuryAccountManage))
		r.Post("/accounts", h.CreateAccount)
		r.Post("/accounts/{id}/status", h.SetAccountStatus)
	})
	r.Group(func(r chi.Router) {
		r.Use(shared.RequirePermission(logger, shared.PermTreasuryTransactionCreate))
		r.Use(httpx.Idempotent(logger, h.idem, "treasury"))
		r.Post("/transactions", h.RecordTransaction)
	})
}

func (h *Handler) parseTransactionFilters(r *http.Request, accountID int64) ListTransactionsInput {
	q := r.URL.Query()
	req := ListTransactionsInput{AccountID: accountID, Limit: 50}
	if v := q.Get("type"); v != "" {
		tt := TransactionType(v)
		req.Type = &tt
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
	return req
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
