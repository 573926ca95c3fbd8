// Package ledger holds the double-entry domain model shared by the storage,
// reconciliation, reporting and template packages: accounts, journals,
// transactions and splits, plus the debit/credit conversion rules and the
// balance invariant enforced on every write.
package ledger

import "github.com/shopspring/decimal"

// DateFormat is the ISO-8601 calendar date layout used everywhere a date is
// stored or exchanged.
const DateFormat = "2006-01-02"

// Well-known reconciliation tags. Both must be seeded before the
// reconciliation engine can operate.
const (
	TagBankPending    = "Bank Pending"
	TagBankReconciled = "Bank Reconciled"
)

// Ref is an (id, name) reference to another entity, the shape the API layer
// returns for joined rows.
type Ref struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// AccountType classifies accounts: whether they appear on the balance sheet
// and which side their normal balance falls on.
type AccountType struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description,omitempty"`
	BalanceSheet     bool   `json:"balance_sheet"`
	Debit            bool   `json:"debit"`
	Sort             int    `json:"sort"`
	RetainedEarnings bool   `json:"retained_earnings"`
}

// Journal is a logical grouping of accounts.
type Journal struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Account is one entry in the chart of accounts.
type Account struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Type          Ref    `json:"account_type"`
	Journal       Ref    `json:"journal"`
	ReconcileNote string `json:"reconcile_note,omitempty"`
	// RetainedEarningsAccountID names the balance-sheet account absorbing
	// this account's balance on balance sheets; nil for balance-sheet
	// accounts themselves.
	RetainedEarningsAccountID *int64 `json:"retained_earnings_account_id,omitempty"`
}

// Transaction is a single economic event composed of at least two splits.
type Transaction struct {
	ID        int64   `json:"id"`
	Date      string  `json:"trandate"`
	Reference *string `json:"tranref"`
	Payee     *string `json:"payee"`
	Memo      *string `json:"memo"`
	Splits    []Split `json:"splits,omitempty"`
}

// Split is one leg of a transaction. Exactly one of Debit/Credit is set,
// both non-negative; storage keeps the signed sum (debit positive).
type Split struct {
	ID      int64            `json:"id"`
	Account Ref              `json:"account"`
	Debit   *decimal.Decimal `json:"debit"`
	Credit  *decimal.Decimal `json:"credit"`
}

// SplitInput is the caller-supplied shape for creating or replacing splits.
type SplitInput struct {
	AccountID int64            `json:"account_id"`
	Debit     *decimal.Decimal `json:"debit"`
	Credit    *decimal.Decimal `json:"credit"`
}
