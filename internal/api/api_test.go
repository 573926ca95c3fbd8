package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbmohler/lmsmono/internal/seed"
	"github.com/jbmohler/lmsmono/pkg/db"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	conn, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, seed.ReferenceData(conn))

	server := httptest.NewServer(NewRouter(conn, time.Minute))
	t.Cleanup(server.Close)
	return server
}

// doJSON sends a request with full capability grants and decodes the response
// body into out when non-nil.
func doJSON(t *testing.T, server *httptest.Server, method, path string, body interface{}, out interface{}) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderPrincipal, "tester")
	req.Header.Set(HeaderCapabilities, "*")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestHealthNeedsNoCapability(t *testing.T) {
	server := testServer(t)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMissingCapabilityForbidden(t *testing.T) {
	server := testServer(t)

	// No grants at all.
	resp, err := http.Get(server.URL + "/api/accounts")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Read grant does not cover writes.
	req, err := http.NewRequest(http.MethodDelete, server.URL+"/api/accounts/1", nil)
	require.NoError(t, err)
	req.Header.Set(HeaderCapabilities, CapAccountsRead)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// The matching grant does.
	req, err = http.NewRequest(http.MethodGet, server.URL+"/api/accounts", nil)
	require.NoError(t, err)
	req.Header.Set(HeaderCapabilities, CapAccountsRead)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// envelope mirrors the response shape for decoding in tests.
type envelope struct {
	Columns []Column        `json:"columns"`
	Data    json.RawMessage `json:"data"`
}

func TestAccountLifecycle(t *testing.T) {
	server := testServer(t)

	var journalEnv envelope
	resp := doJSON(t, server, http.MethodPost, "/api/journals",
		map[string]interface{}{"name": "Banking"}, &journalEnv)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var journal struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(journalEnv.Data, &journal))
	require.NotZero(t, journal.ID)

	var typesEnv envelope
	resp = doJSON(t, server, http.MethodGet, "/api/account-types", nil, &typesEnv)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, typesEnv.Columns)

	var types []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(typesEnv.Data, &types))
	require.Len(t, types, 5)

	var assetType int64
	for _, at := range types {
		if at.Name == "Asset" {
			assetType = at.ID
		}
	}
	require.NotZero(t, assetType)

	var accountEnv envelope
	resp = doJSON(t, server, http.MethodPost, "/api/accounts", map[string]interface{}{
		"name":       "Checking",
		"type_id":    assetType,
		"journal_id": journal.ID,
	}, &accountEnv)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var account struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(accountEnv.Data, &account))
	assert.Equal(t, "Checking", account.Name)

	resp = doJSON(t, server, http.MethodGet, fmt.Sprintf("/api/accounts/%d", account.ID), nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, server, http.MethodGet, "/api/accounts/99999", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTransactionEndpoints(t *testing.T) {
	server := testServer(t)

	var journalEnv envelope
	doJSON(t, server, http.MethodPost, "/api/journals",
		map[string]interface{}{"name": "Banking"}, &journalEnv)
	var journal struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(journalEnv.Data, &journal))

	var typesEnv envelope
	doJSON(t, server, http.MethodGet, "/api/account-types", nil, &typesEnv)
	var types []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(typesEnv.Data, &types))
	typeID := func(name string) int64 {
		for _, at := range types {
			if at.Name == name {
				return at.ID
			}
		}
		return 0
	}

	mkAccount := func(name string, tid int64) int64 {
		var env envelope
		resp := doJSON(t, server, http.MethodPost, "/api/accounts", map[string]interface{}{
			"name": name, "type_id": tid, "journal_id": journal.ID,
		}, &env)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		var account struct {
			ID int64 `json:"id"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &account))
		return account.ID
	}

	checking := mkAccount("Checking", typeID("Asset"))
	groceries := mkAccount("Groceries", typeID("Expense"))

	// A balanced transaction posts.
	var txnEnv envelope
	resp := doJSON(t, server, http.MethodPost, "/api/transactions", map[string]interface{}{
		"trandate": "2026-08-15",
		"payee":    "Corner Market",
		"splits": []map[string]interface{}{
			{"account_id": groceries, "debit": "42.17"},
			{"account_id": checking, "credit": "42.17"},
		},
	}, &txnEnv)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var txn struct {
		ID     int64 `json:"id"`
		Splits []struct {
			Debit  *string `json:"debit"`
			Credit *string `json:"credit"`
		} `json:"splits"`
	}
	require.NoError(t, json.Unmarshal(txnEnv.Data, &txn))
	require.Len(t, txn.Splits, 2)

	// An unbalanced one is rejected.
	resp = doJSON(t, server, http.MethodPost, "/api/transactions", map[string]interface{}{
		"trandate": "2026-08-15",
		"splits": []map[string]interface{}{
			{"account_id": groceries, "debit": "42.17"},
			{"account_id": checking, "credit": "42.18"},
		},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// List sees the posted transaction.
	var listEnv envelope
	resp = doJSON(t, server, http.MethodGet, "/api/transactions?q=market", nil, &listEnv)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listed []struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(listEnv.Data, &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, txn.ID, listed[0].ID)

	// The account with splits refuses deletion.
	resp = doJSON(t, server, http.MethodDelete, fmt.Sprintf("/api/accounts/%d", checking), nil, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Template search finds the posted transaction.
	var tmplEnv envelope
	resp = doJSON(t, server, http.MethodGet, "/api/transactions/template?q=corner+market", nil, &tmplEnv)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tmpl struct {
		TransactionID int64 `json:"transaction_id"`
	}
	require.NoError(t, json.Unmarshal(tmplEnv.Data, &tmpl))
	assert.Equal(t, txn.ID, tmpl.TransactionID)

	// Deleting the transaction frees the account.
	resp = doJSON(t, server, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", txn.ID), nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = doJSON(t, server, http.MethodDelete, fmt.Sprintf("/api/accounts/%d", checking), nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestReconcileEndpoints(t *testing.T) {
	server := testServer(t)

	var journalEnv envelope
	doJSON(t, server, http.MethodPost, "/api/journals",
		map[string]interface{}{"name": "Banking"}, &journalEnv)
	var journal struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(journalEnv.Data, &journal))

	var typesEnv envelope
	doJSON(t, server, http.MethodGet, "/api/account-types", nil, &typesEnv)
	var types []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(typesEnv.Data, &types))
	var assetType, expenseType int64
	for _, at := range types {
		switch at.Name {
		case "Asset":
			assetType = at.ID
		case "Expense":
			expenseType = at.ID
		}
	}

	mkAccount := func(name string, tid int64) int64 {
		var env envelope
		doJSON(t, server, http.MethodPost, "/api/accounts", map[string]interface{}{
			"name": name, "type_id": tid, "journal_id": journal.ID,
		}, &env)
		var account struct {
			ID int64 `json:"id"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &account))
		return account.ID
	}
	checking := mkAccount("Checking", assetType)
	utilities := mkAccount("Utilities", expenseType)

	doJSON(t, server, http.MethodPost, "/api/transactions", map[string]interface{}{
		"trandate": "2026-08-15",
		"payee":    "Power Co",
		"splits": []map[string]interface{}{
			{"account_id": utilities, "debit": "80.00"},
			{"account_id": checking, "credit": "80.00"},
		},
	}, nil)

	var reconEnv envelope
	resp := doJSON(t, server, http.MethodGet, fmt.Sprintf("/api/reconcile/%d", checking), nil, &reconEnv)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var recon struct {
		Splits []struct {
			SplitID   int64 `json:"split_id"`
			IsPending bool  `json:"is_pending"`
		} `json:"splits"`
	}
	require.NoError(t, json.Unmarshal(reconEnv.Data, &recon))
	require.Len(t, recon.Splits, 1)
	assert.False(t, recon.Splits[0].IsPending)

	togglePath := fmt.Sprintf("/api/reconcile/%d/splits/%d/toggle", checking, recon.Splits[0].SplitID)
	resp = doJSON(t, server, http.MethodPost, togglePath, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var finalEnv envelope
	resp = doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/reconcile/%d/finalize", checking), nil, &finalEnv)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var final struct {
		ReconciledCount int `json:"reconciled_count"`
	}
	require.NoError(t, json.Unmarshal(finalEnv.Data, &final))
	assert.Equal(t, 1, final.ReconciledCount)
}

func TestReportEndpoints(t *testing.T) {
	server := testServer(t)

	for _, path := range []string{
		"/api/reports/current-balance-accounts",
		"/api/reports/balance-sheet",
		"/api/reports/multi-period-balance-sheet?year=2026&month=6&periods=2",
		"/api/reports/profit-loss",
		"/api/reports/profit-loss-transactions",
	} {
		resp := doJSON(t, server, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode, "GET %s", path)
	}

	// Running balance needs a real balance-sheet account.
	resp := doJSON(t, server, http.MethodGet, "/api/reports/account-running-balance?account_id=999", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, server, http.MethodGet, "/api/reports/account-running-balance", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
