package store

import (
	"database/sql"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jbmohler/lmsmono/internal/ledger"
	"github.com/jbmohler/lmsmono/pkg/db"
)

// List pagination bounds.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// TransactionCreate holds the fields for a new transaction.
type TransactionCreate struct {
	Date      string
	Reference *string
	Payee     *string
	Memo      *string
	Splits    []ledger.SplitInput
}

// TransactionPatch holds optional scalar updates plus an optional full
// split-set replacement. Partial split edits are not supported: replacing the
// whole set keeps the balance invariant trivially checkable.
type TransactionPatch struct {
	Date      *string
	Reference *string
	Payee     *string
	Memo      *string
	Splits    []ledger.SplitInput // nil = leave splits unchanged
}

// TransactionFilter selects transactions for List.
type TransactionFilter struct {
	Query     string // substring over payee, memo, reference
	AccountID int64  // 0 = any account
	FromDate  string // inclusive, YYYY-MM-DD
	ToDate    string // inclusive
	Limit     int
	Offset    int
}

// AccountTransaction is one row of an account's transaction page: the
// transaction scalars plus that account's split as debit/credit.
type AccountTransaction struct {
	ID        int64            `json:"id"`
	Date      string           `json:"trandate"`
	Reference *string          `json:"tranref"`
	Payee     *string          `json:"payee"`
	Memo      *string          `json:"memo"`
	Debit     *decimal.Decimal `json:"debit"`
	Credit    *decimal.Decimal `json:"credit"`
}

// Transactions is the double-entry transaction engine: it validates and
// persists balanced transactions and their splits.
type Transactions struct {
	conn *db.Connection
}

// NewTransactions creates a Transactions repository.
func NewTransactions(conn *db.Connection) *Transactions {
	return &Transactions{conn: conn}
}

// Create validates the splits and persists the transaction atomically.
func (r *Transactions) Create(params TransactionCreate) (*ledger.Transaction, error) {
	if err := ledger.ValidateSplits(params.Splits); err != nil {
		return nil, err
	}

	var id int64
	err := r.conn.Transaction(func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			INSERT INTO transactions (trandate, tranref, payee, memo)
			VALUES (?, ?, ?, ?)
		`,
			params.Date,
			nullString(params.Reference),
			nullString(params.Payee),
			nullString(params.Memo),
		)
		if err != nil {
			return ledger.Storagef("creating transaction", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return ledger.Storagef("creating transaction", err)
		}
		return insertSplits(tx, id, params.Splits)
	})
	if err != nil {
		return nil, err
	}
	return r.Get(id)
}

// Update applies scalar field updates and, when Splits is non-nil, atomically
// replaces the full split set. Fails with NotFoundError if the transaction
// does not exist.
func (r *Transactions) Update(id int64, patch TransactionPatch) (*ledger.Transaction, error) {
	if patch.Splits != nil {
		if err := ledger.ValidateSplits(patch.Splits); err != nil {
			return nil, err
		}
	}

	err := r.conn.Transaction(func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRow("SELECT 1 FROM transactions WHERE id = ?", id).Scan(&exists)
		if err == sql.ErrNoRows {
			return &ledger.NotFoundError{Entity: "transaction", ID: id}
		}
		if err != nil {
			return ledger.Storagef("checking transaction", err)
		}

		assignments := []string{}
		args := []interface{}{}
		if patch.Date != nil {
			assignments = append(assignments, "trandate = ?")
			args = append(args, *patch.Date)
		}
		if patch.Reference != nil {
			assignments = append(assignments, "tranref = ?")
			args = append(args, *patch.Reference)
		}
		if patch.Payee != nil {
			assignments = append(assignments, "payee = ?")
			args = append(args, *patch.Payee)
		}
		if patch.Memo != nil {
			assignments = append(assignments, "memo = ?")
			args = append(args, *patch.Memo)
		}
		if len(assignments) > 0 {
			args = append(args, id)
			query := "UPDATE transactions SET " + strings.Join(assignments, ", ") + " WHERE id = ?"
			if _, err := tx.Exec(query, args...); err != nil {
				return ledger.Storagef("updating transaction", err)
			}
		}

		if patch.Splits != nil {
			if _, err := tx.Exec("DELETE FROM tag_splits WHERE split_id IN (SELECT id FROM splits WHERE transaction_id = ?)", id); err != nil {
				return ledger.Storagef("clearing split tags", err)
			}
			if _, err := tx.Exec("DELETE FROM splits WHERE transaction_id = ?", id); err != nil {
				return ledger.Storagef("deleting splits", err)
			}
			return insertSplits(tx, id, patch.Splits)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.Get(id)
}

// Delete removes a transaction and its splits. Fails with NotFoundError if
// the transaction does not exist.
func (r *Transactions) Delete(id int64) error {
	return r.conn.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM tag_splits WHERE split_id IN (SELECT id FROM splits WHERE transaction_id = ?)", id); err != nil {
			return ledger.Storagef("clearing split tags", err)
		}
		if _, err := tx.Exec("DELETE FROM splits WHERE transaction_id = ?", id); err != nil {
			return ledger.Storagef("deleting splits", err)
		}
		res, err := tx.Exec("DELETE FROM transactions WHERE id = ?", id)
		if err != nil {
			return ledger.Storagef("deleting transaction", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return ledger.Storagef("deleting transaction", err)
		}
		if n == 0 {
			return &ledger.NotFoundError{Entity: "transaction", ID: id}
		}
		return nil
	})
}

// Get returns a transaction with its splits and account refs.
func (r *Transactions) Get(id int64) (*ledger.Transaction, error) {
	var t ledger.Transaction
	var ref, payee, memo sql.NullString
	err := r.conn.QueryRow(`
		SELECT id, trandate, tranref, payee, memo
		FROM transactions
		WHERE id = ?
	`, id).Scan(&t.ID, &t.Date, &ref, &payee, &memo)
	if err == sql.ErrNoRows {
		return nil, &ledger.NotFoundError{Entity: "transaction", ID: id}
	}
	if err != nil {
		return nil, ledger.Storagef("getting transaction", err)
	}
	t.Reference = stringPtr(ref)
	t.Payee = stringPtr(payee)
	t.Memo = stringPtr(memo)

	splits, err := r.splitsFor(id)
	if err != nil {
		return nil, err
	}
	t.Splits = splits
	return &t, nil
}

// List returns transactions matching the filter, ordered by date descending
// then id descending.
func (r *Transactions) List(filter TransactionFilter) ([]ledger.Transaction, error) {
	where := []string{"1=1"}
	args := []interface{}{}

	if filter.Query != "" {
		where = append(where, "(t.payee LIKE ? OR t.memo LIKE ? OR t.tranref LIKE ?)")
		pattern := "%" + filter.Query + "%"
		args = append(args, pattern, pattern, pattern)
	}
	if filter.AccountID != 0 {
		where = append(where, "EXISTS (SELECT 1 FROM splits s WHERE s.transaction_id = t.id AND s.account_id = ?)")
		args = append(args, filter.AccountID)
	}
	if filter.FromDate != "" {
		where = append(where, "t.trandate >= ?")
		args = append(args, filter.FromDate)
	}
	if filter.ToDate != "" {
		where = append(where, "t.trandate <= ?")
		args = append(args, filter.ToDate)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	rows, err := r.conn.Query(`
		SELECT t.id, t.trandate, t.tranref, t.payee, t.memo
		FROM transactions t
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY t.trandate DESC, t.id DESC
		LIMIT ? OFFSET ?
	`, args...)
	if err != nil {
		return nil, ledger.Storagef("listing transactions", err)
	}
	defer rows.Close()

	var txns []ledger.Transaction
	for rows.Next() {
		var t ledger.Transaction
		var ref, payee, memo sql.NullString
		if err := rows.Scan(&t.ID, &t.Date, &ref, &payee, &memo); err != nil {
			return nil, ledger.Storagef("scanning transaction", err)
		}
		t.Reference = stringPtr(ref)
		t.Payee = stringPtr(payee)
		t.Memo = stringPtr(memo)
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, ledger.Storagef("listing transactions", err)
	}
	return txns, nil
}

// ForAccount returns a page of transactions touching the account, newest
// first, each row carrying that account's split as debit/credit.
func (r *Transactions) ForAccount(accountID int64, limit, offset int) ([]AccountTransaction, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.conn.Query(`
		SELECT t.id, t.trandate, t.tranref, t.payee, t.memo, s.amount_cents
		FROM transactions t
		JOIN splits s ON s.transaction_id = t.id
		WHERE s.account_id = ?
		ORDER BY t.trandate DESC, t.id DESC
		LIMIT ? OFFSET ?
	`, accountID, limit, offset)
	if err != nil {
		return nil, ledger.Storagef("listing account transactions", err)
	}
	defer rows.Close()

	var txns []AccountTransaction
	for rows.Next() {
		var at AccountTransaction
		var ref, payee, memo sql.NullString
		var cents int64
		if err := rows.Scan(&at.ID, &at.Date, &ref, &payee, &memo, &cents); err != nil {
			return nil, ledger.Storagef("scanning account transaction", err)
		}
		at.Reference = stringPtr(ref)
		at.Payee = stringPtr(payee)
		at.Memo = stringPtr(memo)
		at.Debit, at.Credit = ledger.DebitCredit(cents)
		txns = append(txns, at)
	}
	if err := rows.Err(); err != nil {
		return nil, ledger.Storagef("listing account transactions", err)
	}
	return txns, nil
}

func (r *Transactions) splitsFor(transactionID int64) ([]ledger.Split, error) {
	rows, err := r.conn.Query(`
		SELECT s.id, a.id, a.name, s.amount_cents
		FROM splits s
		JOIN accounts a ON s.account_id = a.id
		WHERE s.transaction_id = ?
		ORDER BY s.id
	`, transactionID)
	if err != nil {
		return nil, ledger.Storagef("listing splits", err)
	}
	defer rows.Close()

	var splits []ledger.Split
	for rows.Next() {
		var s ledger.Split
		var cents int64
		if err := rows.Scan(&s.ID, &s.Account.ID, &s.Account.Name, &cents); err != nil {
			return nil, ledger.Storagef("scanning split", err)
		}
		s.Debit, s.Credit = ledger.DebitCredit(cents)
		splits = append(splits, s)
	}
	if err := rows.Err(); err != nil {
		return nil, ledger.Storagef("listing splits", err)
	}
	return splits, nil
}

// insertSplits persists a validated split set within an open transaction.
// Referenced accounts are verified first so a dangling account id surfaces as
// NotFoundError rather than a raw foreign key failure.
func insertSplits(tx *sql.Tx, transactionID int64, splits []ledger.SplitInput) error {
	for _, split := range splits {
		var exists int
		err := tx.QueryRow("SELECT 1 FROM accounts WHERE id = ?", split.AccountID).Scan(&exists)
		if err == sql.ErrNoRows {
			return &ledger.NotFoundError{Entity: "account", ID: split.AccountID}
		}
		if err != nil {
			return ledger.Storagef("checking account", err)
		}

		_, err = tx.Exec(`
			INSERT INTO splits (transaction_id, account_id, amount_cents)
			VALUES (?, ?, ?)
		`, transactionID, split.AccountID, ledger.SignedCents(split.Debit, split.Credit))
		if err != nil {
			return ledger.Storagef("inserting split", err)
		}
	}
	return nil
}
