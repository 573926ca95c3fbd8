package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jbmohler/lmsmono/internal/ledger"
)

// rolledBalances computes the balance sheet core: per-account raw sums as of
// d, with every non-balance-sheet account's balance rolled into its
// configured retained-earnings account. This is what lets the sheet balance
// at any historical date without period-closing entries. Accounts with a
// zero rolled balance are dropped, as are P&L accounts with no configured
// retained-earnings target.
func (e *Engine) rolledBalances(metas map[int64]accountMeta, d string) (map[int64]int64, error) {
	sums, err := e.rawSums(d)
	if err != nil {
		return nil, err
	}

	rolled := make(map[int64]int64)
	for accountID, cents := range sums {
		meta, ok := metas[accountID]
		if !ok {
			continue
		}
		target := accountID
		if !meta.TypeBalanceSheet {
			if meta.RetainedEarnings == nil {
				continue
			}
			target = *meta.RetainedEarnings
		}
		rolled[target] += cents
	}
	for id, cents := range rolled {
		if cents == 0 {
			delete(rolled, id)
		}
	}
	return rolled, nil
}

func balanceRow(meta accountMeta, cents int64) AccountBalance {
	return AccountBalance{
		TypeID:       meta.TypeID,
		TypeName:     meta.TypeName,
		TypeSort:     meta.TypeSort,
		DebitAccount: meta.TypeDebit,
		Journal:      ledger.Ref{ID: meta.JournalID, Name: meta.JournalName},
		AccountID:    meta.ID,
		AccountName:  meta.Name,
		Description:  meta.Description,
		Balance:      displayAmount(cents, meta.TypeDebit),
	}
}

func sortBalanceRows(rows []AccountBalance) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TypeSort != rows[j].TypeSort {
			return rows[i].TypeSort < rows[j].TypeSort
		}
		if rows[i].Journal.Name != rows[j].Journal.Name {
			return rows[i].Journal.Name < rows[j].Journal.Name
		}
		return rows[i].AccountName < rows[j].AccountName
	})
}

// BalanceSheet returns the balance sheet as of date d (YYYY-MM-DD): one row
// per account with a non-zero rolled balance.
func (e *Engine) BalanceSheet(d string) ([]AccountBalance, error) {
	metas, err := e.accountMetas()
	if err != nil {
		return nil, err
	}
	rolled, err := e.rolledBalances(metas, d)
	if err != nil {
		return nil, err
	}

	rows := make([]AccountBalance, 0, len(rolled))
	for accountID, cents := range rolled {
		meta, ok := metas[accountID]
		if !ok {
			continue
		}
		rows = append(rows, balanceRow(meta, cents))
	}
	sortBalanceRows(rows)
	return rows, nil
}

// periodEnd returns the last day of month in year as an ISO date.
func periodEnd(year int, month time.Month) string {
	// Day zero of the next month is the last day of this one.
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
	return last.Format(ledger.DateFormat)
}

// MultiPeriodBalanceSheet computes the balance sheet independently for the
// last day of the given month in each of periods consecutive years (year,
// year-1, ...), union-joined by account. Each column is identical to a
// single-period BalanceSheet run for that date; accounts inactive in a
// period are zero-filled.
func (e *Engine) MultiPeriodBalanceSheet(year int, month time.Month, periods int) (*MultiPeriodReport, error) {
	if month < time.January || month > time.December {
		return nil, ledger.Validationf("month must be between 1 and 12")
	}
	if periods < 1 {
		return nil, ledger.Validationf("periods must be at least 1")
	}

	metas, err := e.accountMetas()
	if err != nil {
		return nil, err
	}

	dates := make([]string, periods)
	columns := make([]map[int64]int64, periods)
	for i := 0; i < periods; i++ {
		dates[i] = periodEnd(year-i, month)
		rolled, err := e.rolledBalances(metas, dates[i])
		if err != nil {
			return nil, err
		}
		columns[i] = rolled
	}

	seen := make(map[int64]bool)
	var rows []MultiPeriodBalance
	for _, column := range columns {
		for accountID := range column {
			if seen[accountID] {
				continue
			}
			seen[accountID] = true
			meta, ok := metas[accountID]
			if !ok {
				continue
			}
			balances := make([]decimal.Decimal, periods)
			for i := range columns {
				balances[i] = displayAmount(columns[i][accountID], meta.TypeDebit)
			}
			rows = append(rows, MultiPeriodBalance{
				TypeID:       meta.TypeID,
				TypeName:     meta.TypeName,
				TypeSort:     meta.TypeSort,
				DebitAccount: meta.TypeDebit,
				Journal:      ledger.Ref{ID: meta.JournalID, Name: meta.JournalName},
				AccountID:    meta.ID,
				AccountName:  meta.Name,
				Description:  meta.Description,
				Balances:     balances,
			})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TypeSort != rows[j].TypeSort {
			return rows[i].TypeSort < rows[j].TypeSort
		}
		if rows[i].Journal.Name != rows[j].Journal.Name {
			return rows[i].Journal.Name < rows[j].Journal.Name
		}
		return rows[i].AccountName < rows[j].AccountName
	})

	return &MultiPeriodReport{Periods: dates, Data: rows}, nil
}

// CurrentBalanceAccounts returns balance-sheet accounts that either carry a
// non-zero balance as of d, or saw any transaction activity within 30 days
// either side of d. The activity window surfaces dormant accounts that were
// recently touched even when their balance is zero.
func (e *Engine) CurrentBalanceAccounts(d string) ([]AccountBalance, error) {
	metas, err := e.accountMetas()
	if err != nil {
		return nil, err
	}
	rolled, err := e.rolledBalances(metas, d)
	if err != nil {
		return nil, err
	}

	day, err := time.Parse(ledger.DateFormat, d)
	if err != nil {
		return nil, ledger.Validationf("invalid date %q: %v", d, err)
	}
	from := day.AddDate(0, 0, -30).Format(ledger.DateFormat)
	to := day.AddDate(0, 0, 30).Format(ledger.DateFormat)

	recentRows, err := e.conn.Query(`
		SELECT DISTINCT s.account_id
		FROM splits s
		JOIN transactions t ON t.id = s.transaction_id
		WHERE t.trandate BETWEEN ? AND ?
	`, from, to)
	if err != nil {
		return nil, ledger.Storagef("finding recent activity", err)
	}
	defer recentRows.Close()

	include := make(map[int64]bool)
	for id := range rolled {
		include[id] = true
	}
	for recentRows.Next() {
		var id int64
		if err := recentRows.Scan(&id); err != nil {
			return nil, ledger.Storagef("scanning recent activity", err)
		}
		include[id] = true
	}
	if err := recentRows.Err(); err != nil {
		return nil, ledger.Storagef("finding recent activity", err)
	}

	var rows []AccountBalance
	for accountID := range include {
		meta, ok := metas[accountID]
		if !ok || !meta.TypeBalanceSheet {
			continue
		}
		rows = append(rows, balanceRow(meta, rolled[accountID]))
	}
	sortBalanceRows(rows)
	return rows, nil
}

// DefaultReportDate returns today as an ISO date, the default for reports
// taking an optional as-of date.
func (e *Engine) DefaultReportDate() string {
	return e.today().Format(ledger.DateFormat)
}

// DefaultRangeStart returns January 1 of the current year, the default lower
// bound for P&L style ranges.
func (e *Engine) DefaultRangeStart() string {
	return fmt.Sprintf("%04d-01-01", e.today().Year())
}
