package store

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jbmohler/lmsmono/internal/seed"
	"github.com/jbmohler/lmsmono/pkg/db"
)

// testConn opens a fresh in-memory database with reference data loaded.
func testConn(t *testing.T) *db.Connection {
	t.Helper()
	conn, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, seed.ReferenceData(conn))
	return conn
}

func typeID(t *testing.T, conn *db.Connection, name string) int64 {
	t.Helper()
	var id int64
	require.NoError(t, conn.QueryRow("SELECT id FROM account_types WHERE name = ?", name).Scan(&id))
	return id
}

// fixture builds a minimal chart: one journal with a checking (asset) and a
// groceries (expense) account.
type fixture struct {
	conn        *db.Connection
	journalID   int64
	checkingID  int64
	groceriesID int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := testConn(t)

	journal, err := NewJournals(conn).Create("Banking", nil)
	require.NoError(t, err)

	accounts := NewAccounts(conn)
	checking, err := accounts.Create(AccountCreate{
		Name:      "Checking",
		TypeID:    typeID(t, conn, "Asset"),
		JournalID: journal.ID,
	})
	require.NoError(t, err)
	groceries, err := accounts.Create(AccountCreate{
		Name:      "Groceries",
		TypeID:    typeID(t, conn, "Expense"),
		JournalID: journal.ID,
	})
	require.NoError(t, err)

	return &fixture{
		conn:        conn,
		journalID:   journal.ID,
		checkingID:  checking.ID,
		groceriesID: groceries.ID,
	}
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
