package db

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenCreatesSchema(t *testing.T) {
	conn, err := OpenMemory()
	require.NoError(t, err)
	defer conn.Close()

	// Every ledger table exists and is empty.
	for _, table := range []string{
		"account_types", "journals", "accounts",
		"transactions", "splits", "tags", "tag_splits",
	} {
		var count int
		require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&count), table)
		assert.Zero(t, count, table)
	}
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "ledger.db")
	conn, err := Open(path)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, path, conn.GetPath())
}

func TestTransactionCommit(t *testing.T) {
	conn, err := OpenMemory()
	require.NoError(t, err)
	defer conn.Close()

	err = conn.Transaction(func(tx *sql.Tx) error {
		_, err := tx.Exec("INSERT INTO journals (name) VALUES ('Banking')")
		return err
	})
	require.NoError(t, err)

	var count int
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM journals").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestTransactionRollback(t *testing.T) {
	conn, err := OpenMemory()
	require.NoError(t, err)
	defer conn.Close()

	boom := errors.New("boom")
	err = conn.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO journals (name) VALUES ('Banking')"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM journals").Scan(&count))
	assert.Zero(t, count)
}
