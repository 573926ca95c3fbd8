package seed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbmohler/lmsmono/internal/ledger"
	"github.com/jbmohler/lmsmono/pkg/db"
)

func testConn(t *testing.T) *db.Connection {
	t.Helper()
	conn, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func count(t *testing.T, conn *db.Connection, table string) int {
	t.Helper()
	var n int
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestReferenceDataIdempotent(t *testing.T) {
	conn := testConn(t)

	require.NoError(t, ReferenceData(conn))
	assert.Equal(t, 5, count(t, conn, "account_types"))
	assert.Equal(t, 2, count(t, conn, "tags"))

	// Rerunning changes nothing.
	require.NoError(t, ReferenceData(conn))
	assert.Equal(t, 5, count(t, conn, "account_types"))
	assert.Equal(t, 2, count(t, conn, "tags"))

	var name string
	require.NoError(t, conn.QueryRow(
		"SELECT name FROM tags WHERE name = ?", ledger.TagBankPending).Scan(&name))
	assert.Equal(t, ledger.TagBankPending, name)
}

func TestDemo(t *testing.T) {
	conn := testConn(t)
	require.NoError(t, ReferenceData(conn))

	require.NoError(t, Demo(conn))
	assert.Equal(t, len(demoJournals), count(t, conn, "journals"))
	assert.Equal(t, len(demoAccounts), count(t, conn, "accounts"))

	// Expense accounts point at retained earnings.
	var linked int
	require.NoError(t, conn.QueryRow(
		"SELECT COUNT(*) FROM accounts WHERE retained_earnings_account_id IS NOT NULL").Scan(&linked))
	assert.Equal(t, 4, linked)

	// A second run refuses rather than duplicating.
	assert.Error(t, Demo(conn))
}

func TestReset(t *testing.T) {
	conn := testConn(t)
	require.NoError(t, ReferenceData(conn))
	require.NoError(t, Demo(conn))

	require.NoError(t, Reset(conn))
	for _, table := range []string{
		"account_types", "journals", "accounts", "tags",
	} {
		assert.Zero(t, count(t, conn, table), table)
	}
}
