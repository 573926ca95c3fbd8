// Package report computes read-only aggregations over the ledger: balance
// sheets (single and multi-period), profit & loss, and per-account running
// balances with speculative recurring-transaction projection. Nothing in this
// package mutates state.
package report

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jbmohler/lmsmono/internal/ledger"
	"github.com/jbmohler/lmsmono/pkg/db"
)

// AccountBalance is one row of a balance sheet or P&L report.
type AccountBalance struct {
	TypeID       int64      `json:"atype_id"`
	TypeName     string     `json:"atype_name"`
	TypeSort     int        `json:"atype_sort"`
	DebitAccount bool       `json:"debit_account"`
	Journal      ledger.Ref `json:"journal"`
	AccountID    int64      `json:"id"`
	AccountName  string     `json:"acc_name"`
	Description  string     `json:"description,omitempty"`
	// Balance is sign-adjusted: debit-normal accounts show raw sums,
	// credit-normal accounts show the negated sum, so every account type
	// reads as a natural positive balance.
	Balance decimal.Decimal `json:"balance"`
}

// MultiPeriodBalance is one account row across N period-end dates, with a
// zero-filled balance per period.
type MultiPeriodBalance struct {
	TypeID       int64             `json:"atype_id"`
	TypeName     string            `json:"atype_name"`
	TypeSort     int               `json:"atype_sort"`
	DebitAccount bool              `json:"debit_account"`
	Journal      ledger.Ref        `json:"journal"`
	AccountID    int64             `json:"id"`
	AccountName  string            `json:"acc_name"`
	Description  string            `json:"description,omitempty"`
	Balances     []decimal.Decimal `json:"balances"`
}

// MultiPeriodReport pairs the period-end dates with the account rows.
type MultiPeriodReport struct {
	Periods []string             `json:"periods"`
	Data    []MultiPeriodBalance `json:"data"`
}

// Engine computes the reports. It holds no state beyond the connection; every
// report is recomputed per request.
type Engine struct {
	conn *db.Connection
	now  func() time.Time
}

// NewEngine creates a reporting Engine.
func NewEngine(conn *db.Connection) *Engine {
	return &Engine{conn: conn, now: time.Now}
}

func (e *Engine) today() time.Time {
	t := e.now()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// accountMeta is the joined account row every report needs: type flags,
// journal ref, and the configured retained-earnings target.
type accountMeta struct {
	ID               int64
	Name             string
	Description      string
	TypeID           int64
	TypeName         string
	TypeSort         int
	TypeBalanceSheet bool
	TypeDebit        bool
	JournalID        int64
	JournalName      string
	RetainedEarnings *int64
}

func (e *Engine) accountMetas() (map[int64]accountMeta, error) {
	rows, err := e.conn.Query(`
		SELECT
			a.id, a.name, a.description, a.retained_earnings_account_id,
			t.id, t.name, t.sort, t.balance_sheet, t.debit,
			j.id, j.name
		FROM accounts a
		JOIN account_types t ON a.type_id = t.id
		JOIN journals j ON a.journal_id = j.id
	`)
	if err != nil {
		return nil, ledger.Storagef("loading account metadata", err)
	}
	defer rows.Close()

	metas := make(map[int64]accountMeta)
	for rows.Next() {
		var m accountMeta
		var desc sql.NullString
		var retearn sql.NullInt64
		if err := rows.Scan(
			&m.ID, &m.Name, &desc, &retearn,
			&m.TypeID, &m.TypeName, &m.TypeSort, &m.TypeBalanceSheet, &m.TypeDebit,
			&m.JournalID, &m.JournalName,
		); err != nil {
			return nil, ledger.Storagef("scanning account metadata", err)
		}
		if desc.Valid {
			m.Description = desc.String
		}
		if retearn.Valid {
			v := retearn.Int64
			m.RetainedEarnings = &v
		}
		metas[m.ID] = m
	}
	if err := rows.Err(); err != nil {
		return nil, ledger.Storagef("loading account metadata", err)
	}
	return metas, nil
}

// rawSums returns each account's signed split total for transactions dated
// on or before d.
func (e *Engine) rawSums(d string) (map[int64]int64, error) {
	rows, err := e.conn.Query(`
		SELECT s.account_id, SUM(s.amount_cents)
		FROM splits s
		JOIN transactions t ON t.id = s.transaction_id
		WHERE t.trandate <= ?
		GROUP BY s.account_id
	`, d)
	if err != nil {
		return nil, ledger.Storagef("summing splits", err)
	}
	defer rows.Close()

	sums := make(map[int64]int64)
	for rows.Next() {
		var accountID, cents int64
		if err := rows.Scan(&accountID, &cents); err != nil {
			return nil, ledger.Storagef("scanning split sum", err)
		}
		sums[accountID] = cents
	}
	if err := rows.Err(); err != nil {
		return nil, ledger.Storagef("summing splits", err)
	}
	return sums, nil
}

// displayAmount applies the sign convention: raw sums for debit-normal
// accounts, negated for credit-normal ones.
func displayAmount(cents int64, debitAccount bool) decimal.Decimal {
	if debitAccount {
		return ledger.FromCents(cents)
	}
	return ledger.FromCents(-cents)
}
