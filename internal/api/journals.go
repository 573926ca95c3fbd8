package api

import (
	"encoding/json"
	"net/http"

	"github.com/jbmohler/lmsmono/internal/store"
	"github.com/jbmohler/lmsmono/pkg/db"
)

// JournalsHandler serves the journal grouping endpoints.
type JournalsHandler struct {
	journals *store.Journals
}

// NewJournalsHandler creates a new JournalsHandler.
func NewJournalsHandler(conn *db.Connection) *JournalsHandler {
	return &JournalsHandler{journals: store.NewJournals(conn)}
}

var journalColumns = []Column{
	{Key: "id", Label: "ID", Type: "integer"},
	{Key: "name", Label: "Journal", Type: "text"},
	{Key: "description", Label: "Description", Type: "text"},
}

type journalRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// List handles GET /api/journals.
func (h *JournalsHandler) List(w http.ResponseWriter, r *http.Request) {
	journals, err := h.journals.List()
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, journalColumns, journals)
}

// Get handles GET /api/journals/{id}.
func (h *JournalsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid journal ID")
		return
	}

	journal, err := h.journals.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, journalColumns, journal)
}

// Create handles POST /api/journals.
func (h *JournalsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req journalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}
	if req.Name == nil || *req.Name == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Missing name")
		return
	}

	journal, err := h.journals.Create(*req.Name, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, journalColumns, journal)
}

// Update handles PUT /api/journals/{id}.
func (h *JournalsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid journal ID")
		return
	}

	var req journalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}

	journal, err := h.journals.Update(id, store.JournalPatch{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, journalColumns, journal)
}

// Delete handles DELETE /api/journals/{id}.
func (h *JournalsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid journal ID")
		return
	}

	if err := h.journals.Delete(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
