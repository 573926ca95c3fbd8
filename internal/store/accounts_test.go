package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbmohler/lmsmono/internal/ledger"
)

func TestAccountTypesList(t *testing.T) {
	conn := testConn(t)

	types, err := NewAccountTypes(conn).List()
	require.NoError(t, err)
	require.Len(t, types, 5)

	byName := make(map[string]ledger.AccountType)
	for _, at := range types {
		byName[at.Name] = at
	}
	assert.True(t, byName["Asset"].BalanceSheet)
	assert.True(t, byName["Asset"].Debit)
	assert.False(t, byName["Income"].BalanceSheet)
	assert.True(t, byName["Expense"].Debit)
}

func TestAccountCRUD(t *testing.T) {
	f := newFixture(t)
	accounts := NewAccounts(f.conn)

	got, err := accounts.Get(f.checkingID)
	require.NoError(t, err)
	assert.Equal(t, "Checking", got.Name)
	assert.Equal(t, "Asset", got.Type.Name)
	assert.Equal(t, "Banking", got.Journal.Name)
	assert.Nil(t, got.RetainedEarningsAccountID)

	updated, err := accounts.Update(f.checkingID, AccountPatch{
		Name:          strp("Primary Checking"),
		ReconcileNote: strp("statement arrives on the 5th"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Primary Checking", updated.Name)
	assert.Equal(t, "statement arrives on the 5th", updated.ReconcileNote)
	assert.Equal(t, "Asset", updated.Type.Name)

	_, err = accounts.Get(9999)
	var notFound *ledger.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "account", notFound.Entity)
}

func TestAccountRetainedEarningsLink(t *testing.T) {
	f := newFixture(t)
	accounts := NewAccounts(f.conn)

	equity, err := accounts.Create(AccountCreate{
		Name:      "Retained Earnings",
		TypeID:    typeID(t, f.conn, "Equity"),
		JournalID: f.journalID,
	})
	require.NoError(t, err)

	updated, err := accounts.Update(f.groceriesID, AccountPatch{
		RetainedEarningsAccountID: &equity.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.RetainedEarningsAccountID)
	assert.Equal(t, equity.ID, *updated.RetainedEarningsAccountID)
}

func TestAccountDeleteWithSplitsConflicts(t *testing.T) {
	f := newFixture(t)
	accounts := NewAccounts(f.conn)

	_, err := NewTransactions(f.conn).Create(TransactionCreate{
		Date: "2026-08-15",
		Splits: []ledger.SplitInput{
			{AccountID: f.groceriesID, Debit: dec("10.00")},
			{AccountID: f.checkingID, Credit: dec("10.00")},
		},
	})
	require.NoError(t, err)

	var conflict *ledger.ConflictError
	require.ErrorAs(t, accounts.Delete(f.checkingID), &conflict)

	// An untouched account deletes cleanly.
	spare, err := accounts.Create(AccountCreate{
		Name:      "Spare",
		TypeID:    typeID(t, f.conn, "Asset"),
		JournalID: f.journalID,
	})
	require.NoError(t, err)
	require.NoError(t, accounts.Delete(spare.ID))

	var notFound *ledger.NotFoundError
	require.ErrorAs(t, accounts.Delete(spare.ID), &notFound)
}

func TestJournalCRUD(t *testing.T) {
	conn := testConn(t)
	journals := NewJournals(conn)

	created, err := journals.Create("Household", strp("day to day"))
	require.NoError(t, err)

	got, err := journals.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Household", got.Name)
	assert.Equal(t, "day to day", got.Description)

	updated, err := journals.Update(created.ID, JournalPatch{Name: strp("Home")})
	require.NoError(t, err)
	assert.Equal(t, "Home", updated.Name)
	assert.Equal(t, "day to day", updated.Description)

	require.NoError(t, journals.Delete(created.ID))
	var notFound *ledger.NotFoundError
	_, err = journals.Get(created.ID)
	require.ErrorAs(t, err, &notFound)
}

func TestJournalDeleteWithAccountsConflicts(t *testing.T) {
	f := newFixture(t)

	var conflict *ledger.ConflictError
	require.ErrorAs(t, NewJournals(f.conn).Delete(f.journalID), &conflict)
}
