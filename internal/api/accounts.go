package api

import (
	"encoding/json"
	"net/http"

	"github.com/jbmohler/lmsmono/internal/store"
	"github.com/jbmohler/lmsmono/pkg/db"
)

// AccountTypesHandler serves the static account type reference data.
type AccountTypesHandler struct {
	types *store.AccountTypes
}

// NewAccountTypesHandler creates a new AccountTypesHandler.
func NewAccountTypesHandler(conn *db.Connection) *AccountTypesHandler {
	return &AccountTypesHandler{types: store.NewAccountTypes(conn)}
}

var accountTypeColumns = []Column{
	{Key: "id", Label: "ID", Type: "integer"},
	{Key: "name", Label: "Name", Type: "text"},
	{Key: "balance_sheet", Label: "Balance Sheet", Type: "boolean"},
	{Key: "debit", Label: "Debit Normal", Type: "boolean"},
	{Key: "sort", Label: "Sort", Type: "integer"},
}

// List handles GET /api/account-types.
func (h *AccountTypesHandler) List(w http.ResponseWriter, r *http.Request) {
	types, err := h.types.List()
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, accountTypeColumns, types)
}

// AccountsHandler serves the chart of accounts.
type AccountsHandler struct {
	accounts     *store.Accounts
	transactions *store.Transactions
}

// NewAccountsHandler creates a new AccountsHandler.
func NewAccountsHandler(conn *db.Connection) *AccountsHandler {
	return &AccountsHandler{
		accounts:     store.NewAccounts(conn),
		transactions: store.NewTransactions(conn),
	}
}

var accountColumns = []Column{
	{Key: "id", Label: "ID", Type: "integer"},
	{Key: "name", Label: "Account", Type: "text"},
	{Key: "description", Label: "Description", Type: "text"},
	{Key: "account_type", Label: "Type", Type: "ref"},
	{Key: "journal", Label: "Journal", Type: "ref"},
	{Key: "reconcile_note", Label: "Reconcile Note", Type: "text"},
}

type accountRequest struct {
	Name                      *string `json:"name"`
	Description               *string `json:"description"`
	TypeID                    *int64  `json:"type_id"`
	JournalID                 *int64  `json:"journal_id"`
	RetainedEarningsAccountID *int64  `json:"retained_earnings_account_id"`
	ReconcileNote             *string `json:"reconcile_note"`
}

// List handles GET /api/accounts.
func (h *AccountsHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.List()
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, accountColumns, accounts)
}

// Get handles GET /api/accounts/{id}.
func (h *AccountsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid account ID")
		return
	}

	account, err := h.accounts.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, accountColumns, account)
}

// Create handles POST /api/accounts.
func (h *AccountsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}
	if req.Name == nil || *req.Name == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Missing name")
		return
	}
	if req.TypeID == nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Missing type_id")
		return
	}
	if req.JournalID == nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Missing journal_id")
		return
	}

	account, err := h.accounts.Create(store.AccountCreate{
		Name:                      *req.Name,
		Description:               req.Description,
		TypeID:                    *req.TypeID,
		JournalID:                 *req.JournalID,
		RetainedEarningsAccountID: req.RetainedEarningsAccountID,
		ReconcileNote:             req.ReconcileNote,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, accountColumns, account)
}

// Update handles PUT /api/accounts/{id}.
func (h *AccountsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid account ID")
		return
	}

	var req accountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}

	account, err := h.accounts.Update(id, store.AccountPatch{
		Name:                      req.Name,
		Description:               req.Description,
		RetainedEarningsAccountID: req.RetainedEarningsAccountID,
		ReconcileNote:             req.ReconcileNote,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, accountColumns, account)
}

// Delete handles DELETE /api/accounts/{id}.
func (h *AccountsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid account ID")
		return
	}

	if err := h.accounts.Delete(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

var accountTransactionColumns = []Column{
	{Key: "id", Label: "ID", Type: "integer"},
	{Key: "trandate", Label: "Date", Type: "date"},
	{Key: "tranref", Label: "Reference", Type: "text"},
	{Key: "payee", Label: "Payee", Type: "text"},
	{Key: "memo", Label: "Memo", Type: "text"},
	{Key: "debit", Label: "Debit", Type: "currency"},
	{Key: "credit", Label: "Credit", Type: "currency"},
}

// Transactions handles GET /api/accounts/{id}/transactions.
func (h *AccountsHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid account ID")
		return
	}

	limit := queryInt(r, "limit", store.DefaultListLimit)
	offset := queryInt(r, "offset", 0)

	rows, err := h.transactions.ForAccount(id, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, accountTransactionColumns, rows)
}
