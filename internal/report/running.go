package report

import (
	"database/sql"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jbmohler/lmsmono/internal/ledger"
)

// RunningRow is one row of an account's ledger view: a real transaction, a
// speculative projection, or the leading initial-balance marker (nil amount,
// nil transaction id).
type RunningRow struct {
	TransactionID *int64           `json:"tid"`
	Date          string           `json:"trandate"`
	Reference     *string          `json:"tranref"`
	Payee         *string          `json:"payee"`
	Memo          *string          `json:"memo"`
	Amount        *decimal.Decimal `json:"amount"`
	Balance       decimal.Decimal  `json:"balance"`
	IsSpeculative bool             `json:"is_speculative"`
}

const initialBalancePayee = "Initial Balance"

// runningRow is the pre-display row carrying raw signed cents.
type runningRow struct {
	transactionID *int64
	date          time.Time
	reference     *string
	payee         *string
	memo          *string
	cents         *int64
	speculative   bool
}

// AccountRunningBalance returns the ledger view for one balance-sheet
// account starting at date d: an initial-balance row summing everything on
// or before d, every later real transaction in chronological order, and
// speculative rows projected from recurring (payee, memo) pairs. The
// combined set is ordered by date then raw amount, with the running balance
// accumulated across it.
func (e *Engine) AccountRunningBalance(accountID int64, d string) ([]RunningRow, error) {
	var balanceSheet, debitAccount bool
	err := e.conn.QueryRow(`
		SELECT t.balance_sheet, t.debit
		FROM accounts a
		JOIN account_types t ON t.id = a.type_id
		WHERE a.id = ?
	`, accountID).Scan(&balanceSheet, &debitAccount)
	if err == sql.ErrNoRows {
		return nil, &ledger.NotFoundError{Entity: "account", ID: accountID}
	}
	if err != nil {
		return nil, ledger.Storagef("getting account", err)
	}
	if !balanceSheet {
		return nil, ledger.Validationf("account is not a balance sheet account")
	}

	startDate, err := time.Parse(ledger.DateFormat, d)
	if err != nil {
		return nil, ledger.Validationf("invalid date %q: %v", d, err)
	}

	var initialCents int64
	err = e.conn.QueryRow(`
		SELECT COALESCE(SUM(s.amount_cents), 0)
		FROM splits s
		JOIN transactions t ON t.id = s.transaction_id
		WHERE s.account_id = ? AND t.trandate <= ?
	`, accountID, d).Scan(&initialCents)
	if err != nil {
		return nil, ledger.Storagef("computing initial balance", err)
	}

	rows := []runningRow{{
		date:  startDate,
		payee: strPtr(initialBalancePayee),
	}}

	real, err := e.realRowsAfter(accountID, d)
	if err != nil {
		return nil, err
	}
	rows = append(rows, real...)

	today := e.today()
	occurrences, err := e.recentOccurrences(accountID, today)
	if err != nil {
		return nil, err
	}
	for _, p := range projectRecurring(occurrences, today) {
		cents := p.cents
		rows = append(rows, runningRow{
			date:        p.date,
			payee:       p.payee,
			memo:        p.memo,
			cents:       &cents,
			speculative: true,
		})
	}

	// Order by date, then raw signed amount. The tie-break is not
	// semantically important but must be deterministic; a nil amount
	// (the initial-balance row) sorts after amounts on the same date.
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].date.Equal(rows[j].date) {
			return rows[i].date.Before(rows[j].date)
		}
		if rows[i].cents == nil || rows[j].cents == nil {
			return rows[j].cents == nil && rows[i].cents != nil
		}
		return *rows[i].cents < *rows[j].cents
	})

	sign := int64(1)
	if !debitAccount {
		sign = -1
	}

	result := make([]RunningRow, 0, len(rows))
	running := initialCents
	for _, r := range rows {
		out := RunningRow{
			TransactionID: r.transactionID,
			Date:          r.date.Format(ledger.DateFormat),
			Reference:     r.reference,
			Payee:         r.payee,
			Memo:          r.memo,
			IsSpeculative: r.speculative,
		}
		if r.cents != nil {
			running += *r.cents
			amount := ledger.FromCents(*r.cents * sign)
			out.Amount = &amount
		}
		out.Balance = ledger.FromCents(running * sign)
		result = append(result, out)
	}
	return result, nil
}

func (e *Engine) realRowsAfter(accountID int64, d string) ([]runningRow, error) {
	rows, err := e.conn.Query(`
		SELECT t.id, t.trandate, t.tranref, t.payee, t.memo, s.amount_cents
		FROM splits s
		JOIN transactions t ON t.id = s.transaction_id
		WHERE s.account_id = ? AND t.trandate > ?
	`, accountID, d)
	if err != nil {
		return nil, ledger.Storagef("listing account splits", err)
	}
	defer rows.Close()

	var result []runningRow
	for rows.Next() {
		var id, cents int64
		var trandate string
		var ref, payee, memo sql.NullString
		if err := rows.Scan(&id, &trandate, &ref, &payee, &memo, &cents); err != nil {
			return nil, ledger.Storagef("scanning account split", err)
		}
		date, err := time.Parse(ledger.DateFormat, trandate)
		if err != nil {
			return nil, ledger.Storagef("parsing transaction date", err)
		}
		r := runningRow{transactionID: &id, date: date, cents: &cents}
		if ref.Valid {
			r.reference = &ref.String
		}
		if payee.Valid {
			r.payee = &payee.String
		}
		if memo.Valid {
			r.memo = &memo.String
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, ledger.Storagef("listing account splits", err)
	}
	return result, nil
}

// recentOccurrences loads the account's splits from the recurrence lookback
// window for projection.
func (e *Engine) recentOccurrences(accountID int64, today time.Time) ([]occurrence, error) {
	since := today.AddDate(0, -recurrenceLookbackMonths, 0).Format(ledger.DateFormat)
	rows, err := e.conn.Query(`
		SELECT t.trandate, t.payee, t.memo, s.amount_cents
		FROM splits s
		JOIN transactions t ON t.id = s.transaction_id
		WHERE s.account_id = ? AND t.trandate >= ?
	`, accountID, since)
	if err != nil {
		return nil, ledger.Storagef("listing recent transactions", err)
	}
	defer rows.Close()

	var result []occurrence
	for rows.Next() {
		var trandate string
		var payee, memo sql.NullString
		var cents int64
		if err := rows.Scan(&trandate, &payee, &memo, &cents); err != nil {
			return nil, ledger.Storagef("scanning recent transaction", err)
		}
		date, err := time.Parse(ledger.DateFormat, trandate)
		if err != nil {
			return nil, ledger.Storagef("parsing transaction date", err)
		}
		o := occurrence{date: date, cents: cents}
		if payee.Valid {
			o.payee = &payee.String
		}
		if memo.Valid {
			o.memo = &memo.String
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, ledger.Storagef("listing recent transactions", err)
	}
	return result, nil
}

func strPtr(s string) *string {
	return &s
}
