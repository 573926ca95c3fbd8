package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jbmohler/lmsmono/internal/reconcile"
	"github.com/jbmohler/lmsmono/pkg/db"
)

// ReconcileHandler serves the bank reconciliation workflow.
type ReconcileHandler struct {
	engine *reconcile.Engine
}

// NewReconcileHandler creates a new ReconcileHandler.
func NewReconcileHandler(conn *db.Connection) *ReconcileHandler {
	return &ReconcileHandler{engine: reconcile.NewEngine(conn)}
}

var reconcileColumns = []Column{
	{Key: "split_id", Label: "Split", Type: "integer"},
	{Key: "trandate", Label: "Date", Type: "date"},
	{Key: "tranref", Label: "Reference", Type: "text"},
	{Key: "payee", Label: "Payee", Type: "text"},
	{Key: "memo", Label: "Memo", Type: "text"},
	{Key: "debit", Label: "Debit", Type: "currency"},
	{Key: "credit", Label: "Credit", Type: "currency"},
	{Key: "is_pending", Label: "Pending", Type: "boolean"},
}

func reconcileAccountID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "account_id"), 10, 64)
	return id, err == nil
}

// Get handles GET /api/reconcile/{account_id}.
func (h *ReconcileHandler) Get(w http.ResponseWriter, r *http.Request) {
	accountID, ok := reconcileAccountID(r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid account ID")
		return
	}

	data, err := h.engine.Data(accountID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, reconcileColumns, data)
}

// Toggle handles POST /api/reconcile/{account_id}/splits/{split_id}/toggle.
func (h *ReconcileHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	accountID, ok := reconcileAccountID(r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid account ID")
		return
	}
	splitID, err := strconv.ParseInt(chi.URLParam(r, "split_id"), 10, 64)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid split ID")
		return
	}

	result, err := h.engine.TogglePending(accountID, splitID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, nil, result)
}

// Finalize handles POST /api/reconcile/{account_id}/finalize.
func (h *ReconcileHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	accountID, ok := reconcileAccountID(r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid account ID")
		return
	}

	result, err := h.engine.Finalize(accountID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, nil, result)
}
