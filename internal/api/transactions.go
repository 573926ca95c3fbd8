package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/jbmohler/lmsmono/internal/ledger"
	"github.com/jbmohler/lmsmono/internal/store"
	"github.com/jbmohler/lmsmono/internal/template"
	"github.com/jbmohler/lmsmono/pkg/db"
)

// TransactionsHandler serves the transaction engine endpoints, including the
// template search.
type TransactionsHandler struct {
	transactions *store.Transactions
	matcher      *template.Matcher
}

// NewTransactionsHandler creates a new TransactionsHandler.
func NewTransactionsHandler(conn *db.Connection) *TransactionsHandler {
	return &TransactionsHandler{
		transactions: store.NewTransactions(conn),
		matcher:      template.NewMatcher(conn),
	}
}

var transactionColumns = []Column{
	{Key: "id", Label: "ID", Type: "integer"},
	{Key: "trandate", Label: "Date", Type: "date"},
	{Key: "tranref", Label: "Reference", Type: "text"},
	{Key: "payee", Label: "Payee", Type: "text"},
	{Key: "memo", Label: "Memo", Type: "text"},
	{Key: "splits", Label: "Splits", Type: "splits"},
}

type transactionRequest struct {
	Date      *string             `json:"trandate"`
	Reference *string             `json:"tranref"`
	Payee     *string             `json:"payee"`
	Memo      *string             `json:"memo"`
	Splits    []ledger.SplitInput `json:"splits"`
}

// List handles GET /api/transactions with optional q, account_id, from, to,
// limit and offset filters.
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := store.TransactionFilter{
		Query:    q.Get("q"),
		FromDate: q.Get("from"),
		ToDate:   q.Get("to"),
		Limit:    queryInt(r, "limit", store.DefaultListLimit),
		Offset:   queryInt(r, "offset", 0),
	}
	if raw := q.Get("account_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid account_id")
			return
		}
		filter.AccountID = id
	}

	transactions, err := h.transactions.List(filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, transactionColumns, transactions)
}

// Get handles GET /api/transactions/{id}.
func (h *TransactionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid transaction ID")
		return
	}

	transaction, err := h.transactions.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, transactionColumns, transaction)
}

// Create handles POST /api/transactions.
func (h *TransactionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}
	if req.Date == nil || *req.Date == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Missing trandate")
		return
	}

	transaction, err := h.transactions.Create(store.TransactionCreate{
		Date:      *req.Date,
		Reference: req.Reference,
		Payee:     req.Payee,
		Memo:      req.Memo,
		Splits:    req.Splits,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, transactionColumns, transaction)
}

// Update handles PUT /api/transactions/{id}. A splits array in the body
// replaces the whole split set; omitting it leaves the splits unchanged.
func (h *TransactionsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid transaction ID")
		return
	}

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}

	transaction, err := h.transactions.Update(id, store.TransactionPatch{
		Date:      req.Date,
		Reference: req.Reference,
		Payee:     req.Payee,
		Memo:      req.Memo,
		Splits:    req.Splits,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, transactionColumns, transaction)
}

// Delete handles DELETE /api/transactions/{id}.
func (h *TransactionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid transaction ID")
		return
	}

	if err := h.transactions.Delete(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Template handles GET /api/transactions/template?q=... and returns the
// best-matching split template, or null data when nothing matches.
func (h *TransactionsHandler) Template(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Missing q")
		return
	}

	result, err := h.matcher.Search(query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, nil, result)
}
