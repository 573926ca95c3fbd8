package report

import (
	"database/sql"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jbmohler/lmsmono/internal/ledger"
)

// ProfitLossSplit is one split underlying a P&L report, for drill-down.
type ProfitLossSplit struct {
	TypeID        int64           `json:"atype_id"`
	TypeName      string          `json:"atype_name"`
	TypeSort      int             `json:"atype_sort"`
	DebitAccount  bool            `json:"debit_account"`
	AccountID     int64           `json:"account_id"`
	AccountName   string          `json:"acc_name"`
	Journal       ledger.Ref      `json:"journal"`
	TransactionID int64           `json:"id"`
	Date          string          `json:"trandate"`
	Payee         *string         `json:"payee"`
	Memo          *string         `json:"memo"`
	Amount        decimal.Decimal `json:"amount"`
}

// ProfitLoss sums splits on non-balance-sheet accounts within [d1, d2],
// excluding accounts with zero net movement, sign-adjusted per the account
// type's normal balance.
func (e *Engine) ProfitLoss(d1, d2 string) ([]AccountBalance, error) {
	metas, err := e.accountMetas()
	if err != nil {
		return nil, err
	}

	rows, err := e.conn.Query(`
		SELECT s.account_id, SUM(s.amount_cents)
		FROM splits s
		JOIN transactions t ON t.id = s.transaction_id
		WHERE t.trandate BETWEEN ? AND ?
		GROUP BY s.account_id
		HAVING SUM(s.amount_cents) <> 0
	`, d1, d2)
	if err != nil {
		return nil, ledger.Storagef("summing profit and loss", err)
	}
	defer rows.Close()

	var result []AccountBalance
	for rows.Next() {
		var accountID, cents int64
		if err := rows.Scan(&accountID, &cents); err != nil {
			return nil, ledger.Storagef("scanning profit and loss row", err)
		}
		meta, ok := metas[accountID]
		if !ok || meta.TypeBalanceSheet {
			continue
		}
		result = append(result, balanceRow(meta, cents))
	}
	if err := rows.Err(); err != nil {
		return nil, ledger.Storagef("summing profit and loss", err)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].TypeSort != result[j].TypeSort {
			return result[i].TypeSort < result[j].TypeSort
		}
		return result[i].Journal.Name < result[j].Journal.Name
	})
	return result, nil
}

// ProfitLossTransactions returns the individual splits behind a P&L report
// for [d1, d2], ordered by type sort, date, account name.
func (e *Engine) ProfitLossTransactions(d1, d2 string) ([]ProfitLossSplit, error) {
	rows, err := e.conn.Query(`
		SELECT
			at.id, at.name, at.sort, at.debit,
			a.id, a.name,
			j.id, j.name,
			t.id, t.trandate, t.payee, t.memo,
			s.amount_cents
		FROM transactions t
		JOIN splits s ON t.id = s.transaction_id
		JOIN accounts a ON s.account_id = a.id
		JOIN account_types at ON at.id = a.type_id
		JOIN journals j ON j.id = a.journal_id
		WHERE t.trandate BETWEEN ? AND ?
		  AND NOT at.balance_sheet
		ORDER BY at.sort, t.trandate, a.name
	`, d1, d2)
	if err != nil {
		return nil, ledger.Storagef("listing profit and loss transactions", err)
	}
	defer rows.Close()

	var result []ProfitLossSplit
	for rows.Next() {
		var r ProfitLossSplit
		var payee, memo sql.NullString
		var cents int64
		if err := rows.Scan(
			&r.TypeID, &r.TypeName, &r.TypeSort, &r.DebitAccount,
			&r.AccountID, &r.AccountName,
			&r.Journal.ID, &r.Journal.Name,
			&r.TransactionID, &r.Date, &payee, &memo,
			&cents,
		); err != nil {
			return nil, ledger.Storagef("scanning profit and loss transaction", err)
		}
		if payee.Valid {
			r.Payee = &payee.String
		}
		if memo.Valid {
			r.Memo = &memo.String
		}
		r.Amount = displayAmount(cents, r.DebitAccount)
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, ledger.Storagef("listing profit and loss transactions", err)
	}
	return result, nil
}
