package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbmohler/lmsmono/internal/ledger"
	"github.com/jbmohler/lmsmono/internal/seed"
	"github.com/jbmohler/lmsmono/internal/store"
	"github.com/jbmohler/lmsmono/pkg/db"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func strPtrT(s string) *string { return &s }

type fixture struct {
	conn        *db.Connection
	engine      *Engine
	txns        *store.Transactions
	checkingID  int64
	retainedID  int64
	salaryID    int64
	groceriesID int64
}

// newFixture builds a minimal chart with the P&L accounts rolling into a
// retained earnings account, and pins the engine clock.
func newFixture(t *testing.T, today string) *fixture {
	t.Helper()
	conn, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, seed.ReferenceData(conn))

	journal, err := store.NewJournals(conn).Create("Banking", nil)
	require.NoError(t, err)

	typeByName := func(name string) int64 {
		var id int64
		require.NoError(t, conn.QueryRow("SELECT id FROM account_types WHERE name = ?", name).Scan(&id))
		return id
	}

	accounts := store.NewAccounts(conn)
	mk := func(name, typeName string, retainedInto *int64) int64 {
		a, err := accounts.Create(store.AccountCreate{
			Name:                      name,
			TypeID:                    typeByName(typeName),
			JournalID:                 journal.ID,
			RetainedEarningsAccountID: retainedInto,
		})
		require.NoError(t, err)
		return a.ID
	}

	checking := mk("Checking", "Asset", nil)
	retained := mk("Retained Earnings", "Equity", nil)
	salary := mk("Salary", "Income", &retained)
	groceries := mk("Groceries", "Expense", &retained)

	engine := NewEngine(conn)
	engine.now = func() time.Time {
		d, err := time.Parse(ledger.DateFormat, today)
		require.NoError(t, err)
		return d
	}

	return &fixture{
		conn:        conn,
		engine:      engine,
		txns:        store.NewTransactions(conn),
		checkingID:  checking,
		retainedID:  retained,
		salaryID:    salary,
		groceriesID: groceries,
	}
}

func (f *fixture) post(t *testing.T, date, payee string, splits []ledger.SplitInput) {
	t.Helper()
	_, err := f.txns.Create(store.TransactionCreate{
		Date:   date,
		Payee:  strPtrT(payee),
		Splits: splits,
	})
	require.NoError(t, err)
}

func (f *fixture) paycheck(t *testing.T, date, amount string) {
	f.post(t, date, "Employer", []ledger.SplitInput{
		{AccountID: f.checkingID, Debit: dec(amount)},
		{AccountID: f.salaryID, Credit: dec(amount)},
	})
}

func (f *fixture) purchase(t *testing.T, date, amount string) {
	f.post(t, date, "Corner Market", []ledger.SplitInput{
		{AccountID: f.groceriesID, Debit: dec(amount)},
		{AccountID: f.checkingID, Credit: dec(amount)},
	})
}

func balancesByAccount(rows []AccountBalance) map[int64]decimal.Decimal {
	out := make(map[int64]decimal.Decimal, len(rows))
	for _, r := range rows {
		out[r.AccountID] = r.Balance
	}
	return out
}

func TestBalanceSheetRollsProfitIntoRetainedEarnings(t *testing.T) {
	f := newFixture(t, "2026-08-31")
	f.paycheck(t, "2026-08-01", "500.00")
	f.purchase(t, "2026-08-05", "200.00")

	rows, err := f.engine.BalanceSheet("2026-08-31")
	require.NoError(t, err)

	by := balancesByAccount(rows)
	require.Len(t, by, 2, "P&L accounts must not appear directly")
	assert.True(t, by[f.checkingID].Equal(*dec("300.00")), "checking %s", by[f.checkingID])
	// Income 500 less expense 200, shown from the equity side.
	assert.True(t, by[f.retainedID].Equal(*dec("300.00")), "retained %s", by[f.retainedID])

	_, hasSalary := by[f.salaryID]
	assert.False(t, hasSalary)
}

func TestBalanceSheetNetCreditExpense(t *testing.T) {
	f := newFixture(t, "2026-08-31")
	// A refund with no purchases leaves the expense account net credit.
	f.post(t, "2026-08-10", "Refund", []ledger.SplitInput{
		{AccountID: f.checkingID, Debit: dec("50.00")},
		{AccountID: f.groceriesID, Credit: dec("50.00")},
	})

	rows, err := f.engine.BalanceSheet("2026-08-31")
	require.NoError(t, err)

	by := balancesByAccount(rows)
	assert.True(t, by[f.checkingID].Equal(*dec("50.00")))
	assert.True(t, by[f.retainedID].Equal(*dec("50.00")))
}

func TestBalanceSheetSkipsZeroBalances(t *testing.T) {
	f := newFixture(t, "2026-08-31")
	f.paycheck(t, "2026-08-01", "100.00")
	f.purchase(t, "2026-08-05", "100.00")

	rows, err := f.engine.BalanceSheet("2026-08-31")
	require.NoError(t, err)

	// Income and expense cancel and checking nets to zero, so every rolled
	// balance is zero and the sheet is empty.
	assert.Empty(t, rows)
}

func TestMultiPeriodMatchesSinglePeriod(t *testing.T) {
	f := newFixture(t, "2026-12-31")
	f.paycheck(t, "2025-06-01", "1000.00")
	f.purchase(t, "2025-07-01", "400.00")
	f.paycheck(t, "2026-03-01", "1200.00")
	f.purchase(t, "2026-04-01", "150.00")

	rep, err := f.engine.MultiPeriodBalanceSheet(2026, time.December, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"2026-12-31", "2025-12-31"}, rep.Periods)

	for i, date := range rep.Periods {
		single, err := f.engine.BalanceSheet(date)
		require.NoError(t, err)
		singleBy := balancesByAccount(single)

		for _, row := range rep.Data {
			want, ok := singleBy[row.AccountID]
			if !ok {
				want = decimal.Zero
			}
			assert.True(t, row.Balances[i].Equal(want),
				"account %s period %s: multi %s single %s",
				row.AccountName, date, row.Balances[i], want)
		}
	}
}

func TestMultiPeriodValidation(t *testing.T) {
	f := newFixture(t, "2026-08-31")

	_, err := f.engine.MultiPeriodBalanceSheet(2026, 13, 2)
	assert.IsType(t, &ledger.ValidationError{}, err)

	_, err = f.engine.MultiPeriodBalanceSheet(2026, time.June, 0)
	assert.IsType(t, &ledger.ValidationError{}, err)
}

func TestCurrentBalanceAccountsActivityWindow(t *testing.T) {
	f := newFixture(t, "2026-08-31")

	// Checking nets to zero but was touched within 30 days of the report
	// date, so it must still appear.
	f.paycheck(t, "2026-08-10", "100.00")
	f.purchase(t, "2026-08-20", "100.00")

	rows, err := f.engine.CurrentBalanceAccounts("2026-08-31")
	require.NoError(t, err)

	by := balancesByAccount(rows)
	balance, ok := by[f.checkingID]
	require.True(t, ok, "zero-balance account with recent activity missing")
	assert.True(t, balance.IsZero())

	// Far from the activity the zero balance drops out again.
	rows, err = f.engine.CurrentBalanceAccounts("2027-03-01")
	require.NoError(t, err)
	_, ok = balancesByAccount(rows)[f.checkingID]
	assert.False(t, ok)
}

func TestProfitLoss(t *testing.T) {
	f := newFixture(t, "2026-12-31")
	f.paycheck(t, "2026-02-01", "1000.00")
	f.purchase(t, "2026-03-01", "250.00")
	// Outside the range.
	f.purchase(t, "2025-11-01", "999.00")

	rows, err := f.engine.ProfitLoss("2026-01-01", "2026-12-31")
	require.NoError(t, err)

	by := balancesByAccount(rows)
	require.Len(t, by, 2)
	assert.True(t, by[f.salaryID].Equal(*dec("1000.00")), "salary %s", by[f.salaryID])
	assert.True(t, by[f.groceriesID].Equal(*dec("250.00")), "groceries %s", by[f.groceriesID])

	detail, err := f.engine.ProfitLossTransactions("2026-01-01", "2026-12-31")
	require.NoError(t, err)
	assert.Len(t, detail, 2)
}

func TestAccountRunningBalance(t *testing.T) {
	f := newFixture(t, "2026-09-01")
	f.paycheck(t, "2026-08-01", "500.00")
	f.purchase(t, "2026-09-10", "40.00")

	rows, err := f.engine.AccountRunningBalance(f.checkingID, "2026-09-01")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	initial := rows[0]
	assert.Nil(t, initial.TransactionID)
	assert.Nil(t, initial.Amount)
	require.NotNil(t, initial.Payee)
	assert.Equal(t, "Initial Balance", *initial.Payee)
	assert.True(t, initial.Balance.Equal(*dec("500.00")))

	after := rows[1]
	require.NotNil(t, after.Amount)
	assert.True(t, after.Amount.Equal(*dec("-40.00")))
	assert.True(t, after.Balance.Equal(*dec("460.00")))
	assert.False(t, after.IsSpeculative)
}

func TestAccountRunningBalanceProjectsRecurring(t *testing.T) {
	f := newFixture(t, "2026-09-01")
	// Rent leaves checking on the 15th of every month.
	for _, date := range []string{"2026-06-15", "2026-07-15", "2026-08-15"} {
		f.post(t, date, "Rent", []ledger.SplitInput{
			{AccountID: f.groceriesID, Debit: dec("100.00")},
			{AccountID: f.checkingID, Credit: dec("100.00")},
		})
	}

	rows, err := f.engine.AccountRunningBalance(f.checkingID, "2026-09-01")
	require.NoError(t, err)

	var speculative []RunningRow
	for _, r := range rows {
		if r.IsSpeculative {
			speculative = append(speculative, r)
		}
	}
	require.Len(t, speculative, 1)

	next := speculative[0]
	assert.Nil(t, next.TransactionID)
	require.NotNil(t, next.Payee)
	assert.Equal(t, "Rent", *next.Payee)
	// Mean interval 30.5 days from the last occurrence.
	assert.Equal(t, "2026-09-15", next.Date)
	require.NotNil(t, next.Amount)
	assert.True(t, next.Amount.Equal(*dec("-100.00")))
	assert.True(t, next.Balance.Equal(*dec("-400.00")))
}

func TestAccountRunningBalanceRejectsPLAccount(t *testing.T) {
	f := newFixture(t, "2026-09-01")

	_, err := f.engine.AccountRunningBalance(f.groceriesID, "2026-09-01")
	assert.IsType(t, &ledger.ValidationError{}, err)

	_, err = f.engine.AccountRunningBalance(9999, "2026-09-01")
	var notFound *ledger.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}
