package treasury

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

func newTestHandler(repo *memoryRepo) *Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(logger, NewService(repo, nil), nil)
}

func getWithID(h http.HandlerFunc, target string, id int64) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", strconv.FormatInt(id, 10))
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

// seeds one account with a January credit and a February debit so date
// windows have something to exclude.
func seedStatementRepo() *memoryRepo {
	repo := newMemoryRepo()
	repo.accounts[1] = Account{
		ID:        1,
		CompanyID: 1,
		Name:      "Operating Cash",
		Type:      "cash",
		Status:    AccountActive,
		Balance:   dec("70.00"),
	}
	repo.nextID = 2
	repo.transactions = []Transaction{
		{ID: 1, AccountID: 1, Type: TransactionCredit, Amount: dec("100.00"), Description: "jan deposit",
			CreatedAt: time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)},
		{ID: 2, AccountID: 1, Type: TransactionDebit, Amount: dec("30.00"), Description: "feb payment",
			CreatedAt: time.Date(2025, 2, 10, 14, 0, 0, 0, time.UTC)},
	}
	return repo
}

func TestExportStatementWindowedBalanceMatchesLedger(t *testing.T) {
	h := newTestHandler(seedStatementRepo())

	rec := getWithID(h.ExportStatement, "/accounts/1/statement.csv?date_to=2025-01-31", 1)

	require.Equal(t, http.StatusOK, rec.Code)
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2, "header plus the single row inside the window")
	require.Equal(t, "2025-01-15,credit,jan deposit,,100.00,100.00", lines[1])
}

func TestExportStatementFullHistoryEndsAtCurrentBalance(t *testing.T) {
	h := newTestHandler(seedStatementRepo())

	rec := getWithID(h.ExportStatement, "/accounts/1/statement.csv", 1)

	require.Equal(t, http.StatusOK, rec.Code)
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "2025-02-10,debit,feb payment,,30.00,70.00", lines[1])
	require.Equal(t, "2025-01-15,credit,jan deposit,,100.00,100.00", lines[2])
}

func TestExportStatementRefusesOversizedWindow(t *testing.T) {
	repo := seedStatementRepo()
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < statementRowCap; i++ {
		repo.transactions = append(repo.transactions, Transaction{
			ID:          int64(i + 3),
			AccountID:   1,
			Type:        TransactionCredit,
			Amount:      dec("1.00"),
			Description: "bulk",
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		})
	}
	h := newTestHandler(repo)

	rec := getWithID(h.ExportStatement, "/accounts/1/statement.csv", 1)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), shared.CodeValidation)
}

func TestListAccountsRequiresCompanyID(t *testing.T) {
	h := newTestHandler(seedStatementRepo())

	for _, target := range []string{"/accounts", "/accounts?company_id=abc", "/accounts?company_id=0"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		h.ListAccounts(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code, target)
		require.Contains(t, rec.Body.String(), shared.CodeValidation, target)
	}
}

func TestListAccountsFiltersByCompany(t *testing.T) {
	repo := seedStatementRepo()
	h := newTestHandler(repo)

	req := httptest.NewRequest(http.MethodGet, "/accounts?company_id=1", nil)
	rec := httptest.NewRecorder()
	h.ListAccounts(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Operating Cash")
}
