package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/jbmohler/lmsmono/internal/report"
	"github.com/jbmohler/lmsmono/pkg/db"
)

// ReportsHandler serves the read-only reporting endpoints.
type ReportsHandler struct {
	engine *report.Engine
}

// NewReportsHandler creates a new ReportsHandler.
func NewReportsHandler(conn *db.Connection) *ReportsHandler {
	return &ReportsHandler{engine: report.NewEngine(conn)}
}

var balanceColumns = []Column{
	{Key: "atype_name", Label: "Type", Type: "text"},
	{Key: "journal", Label: "Journal", Type: "ref"},
	{Key: "acc_name", Label: "Account", Type: "text"},
	{Key: "balance", Label: "Balance", Type: "currency"},
}

var profitLossSplitColumns = []Column{
	{Key: "atype_name", Label: "Type", Type: "text"},
	{Key: "acc_name", Label: "Account", Type: "text"},
	{Key: "trandate", Label: "Date", Type: "date"},
	{Key: "payee", Label: "Payee", Type: "text"},
	{Key: "memo", Label: "Memo", Type: "text"},
	{Key: "amount", Label: "Amount", Type: "currency"},
}

var runningBalanceColumns = []Column{
	{Key: "tid", Label: "ID", Type: "integer"},
	{Key: "trandate", Label: "Date", Type: "date"},
	{Key: "tranref", Label: "Reference", Type: "text"},
	{Key: "payee", Label: "Payee", Type: "text"},
	{Key: "memo", Label: "Memo", Type: "text"},
	{Key: "amount", Label: "Amount", Type: "currency"},
	{Key: "balance", Label: "Balance", Type: "currency"},
	{Key: "is_speculative", Label: "Projected", Type: "boolean"},
}

// CurrentBalanceAccounts handles GET /api/reports/current-balance-accounts.
// Optional query d defaults to today.
func (h *ReportsHandler) CurrentBalanceAccounts(w http.ResponseWriter, r *http.Request) {
	d := r.URL.Query().Get("d")
	if d == "" {
		d = h.engine.DefaultReportDate()
	}

	rows, err := h.engine.CurrentBalanceAccounts(d)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, balanceColumns, rows)
}

// BalanceSheet handles GET /api/reports/balance-sheet. Optional query d
// defaults to today.
func (h *ReportsHandler) BalanceSheet(w http.ResponseWriter, r *http.Request) {
	d := r.URL.Query().Get("d")
	if d == "" {
		d = h.engine.DefaultReportDate()
	}

	rows, err := h.engine.BalanceSheet(d)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, balanceColumns, rows)
}

// MultiPeriodBalanceSheet handles GET /api/reports/multi-period-balance-sheet
// with year, month and periods query parameters.
func (h *ReportsHandler) MultiPeriodBalanceSheet(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	year := queryInt(r, "year", now.Year())
	month := queryInt(r, "month", int(now.Month()))
	periods := queryInt(r, "periods", 12)

	rep, err := h.engine.MultiPeriodBalanceSheet(year, time.Month(month), periods)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, balanceColumns, rep)
}

func (h *ReportsHandler) dateRange(r *http.Request) (string, string) {
	d1 := r.URL.Query().Get("d1")
	if d1 == "" {
		d1 = h.engine.DefaultRangeStart()
	}
	d2 := r.URL.Query().Get("d2")
	if d2 == "" {
		d2 = h.engine.DefaultReportDate()
	}
	return d1, d2
}

// ProfitLoss handles GET /api/reports/profit-loss. Queries d1 and d2 default
// to January 1st and today.
func (h *ReportsHandler) ProfitLoss(w http.ResponseWriter, r *http.Request) {
	d1, d2 := h.dateRange(r)

	rows, err := h.engine.ProfitLoss(d1, d2)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, balanceColumns, rows)
}

// ProfitLossTransactions handles GET /api/reports/profit-loss-transactions,
// the split-level drill-down behind the P&L summary.
func (h *ReportsHandler) ProfitLossTransactions(w http.ResponseWriter, r *http.Request) {
	d1, d2 := h.dateRange(r)

	rows, err := h.engine.ProfitLossTransactions(d1, d2)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, profitLossSplitColumns, rows)
}

// AccountRunningBalance handles GET /api/reports/account-running-balance
// with a required account_id and optional start date d.
func (h *ReportsHandler) AccountRunningBalance(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("account_id")
	accountID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid account_id")
		return
	}

	d := r.URL.Query().Get("d")
	if d == "" {
		d = h.engine.DefaultReportDate()
	}

	rows, err := h.engine.AccountRunningBalance(accountID, d)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, runningBalanceColumns, rows)
}
