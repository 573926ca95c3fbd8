// Package api exposes the ledger over HTTP: chi-routed JSON endpoints for the
// chart of accounts, journals, transactions, reconciliation, reports and
// template search. Responses carry column metadata alongside the data so
// clients can render tables without hard-coding the shape.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// Column describes one field of a tabular response.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// Envelope is the standard response shape: column metadata plus the rows.
type Envelope struct {
	Columns []Column    `json:"columns,omitempty"`
	Data    interface{} `json:"data"`
}

func writeData(w http.ResponseWriter, status int, columns []Column, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Columns: columns, Data: data})
}

// urlID parses the {id} route parameter.
func urlID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

// queryInt parses an integer query parameter, falling back to def when the
// parameter is absent or malformed.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
