package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jbmohler/lmsmono/internal/ledger"
)

type contextKey string

const contextKeyPrincipal contextKey = "principal"

// Identity headers injected by the gateway in front of this server. The
// server never resolves sessions itself; the gateway authenticates and
// forwards the principal and its capability grants.
const (
	HeaderPrincipal    = "X-Auth-Principal"
	HeaderCapabilities = "X-Auth-Capabilities"
)

// Capability names, one per route group and verb.
const (
	CapAccountsRead      = "accounts:read"
	CapAccountsWrite     = "accounts:write"
	CapJournalsRead      = "journals:read"
	CapJournalsWrite     = "journals:write"
	CapTransactionsRead  = "transactions:read"
	CapTransactionsWrite = "transactions:write"
	CapReconcileRead     = "reconcile:read"
	CapReconcileWrite    = "reconcile:write"
	CapReportsRead       = "reports:read"
)

// RequireCapability gates a route on one capability. Grants arrive as a
// comma-separated list in the capabilities header; "*" grants everything.
func RequireCapability(capability string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			grants := r.Header.Get(HeaderCapabilities)
			if !hasCapability(grants, capability) {
				writeJSONError(w, http.StatusForbidden, "forbidden",
					"Missing capability "+capability)
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyPrincipal,
				r.Header.Get(HeaderPrincipal))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func hasCapability(grants, capability string) bool {
	for _, g := range strings.Split(grants, ",") {
		g = strings.TrimSpace(g)
		if g == "*" || g == capability {
			return true
		}
	}
	return false
}

// Principal returns the gateway-forwarded principal for a request, or empty
// when the route carried no capability gate.
func Principal(r *http.Request) string {
	p, _ := r.Context().Value(contextKeyPrincipal).(string)
	return p
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, error, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:            error,
		ErrorDescription: description,
	})
}

// writeError maps domain errors onto HTTP statuses: validation 400, not found
// 404, conflict 409, everything else 500.
func writeError(w http.ResponseWriter, err error) {
	var validation *ledger.ValidationError
	var notFound *ledger.NotFoundError
	var conflict *ledger.ConflictError

	switch {
	case errors.As(err, &validation):
		writeJSONError(w, http.StatusBadRequest, "invalid_request", validation.Message)
	case errors.As(err, &notFound):
		writeJSONError(w, http.StatusNotFound, "not_found", notFound.Error())
	case errors.As(err, &conflict):
		writeJSONError(w, http.StatusConflict, "conflict", conflict.Message)
	default:
		slog.Error("request failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Internal server error")
	}
}
