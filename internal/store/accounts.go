package store

import (
	"database/sql"
	"strings"

	"github.com/jbmohler/lmsmono/internal/ledger"
	"github.com/jbmohler/lmsmono/pkg/db"
)

// AccountTypes reads the static account type reference data.
type AccountTypes struct {
	conn *db.Connection
}

// NewAccountTypes creates an AccountTypes repository.
func NewAccountTypes(conn *db.Connection) *AccountTypes {
	return &AccountTypes{conn: conn}
}

// List returns all account types ordered by sort.
func (r *AccountTypes) List() ([]ledger.AccountType, error) {
	rows, err := r.conn.Query(`
		SELECT id, name, description, balance_sheet, debit, sort, retained_earnings
		FROM account_types
		ORDER BY sort
	`)
	if err != nil {
		return nil, ledger.Storagef("listing account types", err)
	}
	defer rows.Close()

	var types []ledger.AccountType
	for rows.Next() {
		var at ledger.AccountType
		var desc sql.NullString
		if err := rows.Scan(&at.ID, &at.Name, &desc, &at.BalanceSheet, &at.Debit, &at.Sort, &at.RetainedEarnings); err != nil {
			return nil, ledger.Storagef("scanning account type", err)
		}
		at.Description = orEmpty(desc)
		types = append(types, at)
	}
	if err := rows.Err(); err != nil {
		return nil, ledger.Storagef("listing account types", err)
	}
	return types, nil
}

// AccountCreate holds the fields for a new account.
type AccountCreate struct {
	Name                      string
	Description               *string
	TypeID                    int64
	JournalID                 int64
	RetainedEarningsAccountID *int64
	ReconcileNote             *string
}

// AccountPatch holds optional field updates for an account. Nil fields are
// left unchanged; the assignable column set is fixed.
type AccountPatch struct {
	Name                      *string
	Description               *string
	RetainedEarningsAccountID *int64
	ReconcileNote             *string
}

// Accounts manages the chart of accounts.
type Accounts struct {
	conn *db.Connection
}

// NewAccounts creates an Accounts repository.
func NewAccounts(conn *db.Connection) *Accounts {
	return &Accounts{conn: conn}
}

const accountSelect = `
	SELECT
		a.id, a.name, a.description, a.reconcile_note, a.retained_earnings_account_id,
		t.id, t.name,
		j.id, j.name
	FROM accounts a
	JOIN account_types t ON a.type_id = t.id
	JOIN journals j ON a.journal_id = j.id
`

func scanAccount(scan func(dest ...interface{}) error) (ledger.Account, error) {
	var a ledger.Account
	var desc, note sql.NullString
	var retearn sql.NullInt64
	err := scan(
		&a.ID, &a.Name, &desc, &note, &retearn,
		&a.Type.ID, &a.Type.Name,
		&a.Journal.ID, &a.Journal.Name,
	)
	if err != nil {
		return a, err
	}
	a.Description = orEmpty(desc)
	a.ReconcileNote = orEmpty(note)
	a.RetainedEarningsAccountID = int64Ptr(retearn)
	return a, nil
}

// List returns all accounts with type and journal refs, ordered by type sort
// then account name.
func (r *Accounts) List() ([]ledger.Account, error) {
	rows, err := r.conn.Query(accountSelect + " ORDER BY t.sort, a.name")
	if err != nil {
		return nil, ledger.Storagef("listing accounts", err)
	}
	defer rows.Close()

	var accounts []ledger.Account
	for rows.Next() {
		a, err := scanAccount(rows.Scan)
		if err != nil {
			return nil, ledger.Storagef("scanning account", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, ledger.Storagef("listing accounts", err)
	}
	return accounts, nil
}

// Get returns a single account by ID.
func (r *Accounts) Get(id int64) (*ledger.Account, error) {
	row := r.conn.QueryRow(accountSelect+" WHERE a.id = ?", id)
	a, err := scanAccount(row.Scan)
	if err == sql.ErrNoRows {
		return nil, &ledger.NotFoundError{Entity: "account", ID: id}
	}
	if err != nil {
		return nil, ledger.Storagef("getting account", err)
	}
	return &a, nil
}

// Create inserts a new account and returns it with refs resolved.
func (r *Accounts) Create(params AccountCreate) (*ledger.Account, error) {
	res, err := r.conn.Exec(`
		INSERT INTO accounts (name, description, type_id, journal_id, retained_earnings_account_id, reconcile_note)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		params.Name,
		nullString(params.Description),
		params.TypeID,
		params.JournalID,
		nullInt64(params.RetainedEarningsAccountID),
		nullString(params.ReconcileNote),
	)
	if err != nil {
		return nil, ledger.Storagef("creating account", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, ledger.Storagef("creating account", err)
	}
	return r.Get(id)
}

// Update applies the patch to an account. Fails with NotFoundError if the
// account does not exist.
func (r *Accounts) Update(id int64, patch AccountPatch) (*ledger.Account, error) {
	assignments := []string{}
	args := []interface{}{}
	if patch.Name != nil {
		assignments = append(assignments, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Description != nil {
		assignments = append(assignments, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.RetainedEarningsAccountID != nil {
		assignments = append(assignments, "retained_earnings_account_id = ?")
		args = append(args, *patch.RetainedEarningsAccountID)
	}
	if patch.ReconcileNote != nil {
		assignments = append(assignments, "reconcile_note = ?")
		args = append(args, *patch.ReconcileNote)
	}
	if len(assignments) == 0 {
		return r.Get(id)
	}

	query := "UPDATE accounts SET " + strings.Join(assignments, ", ") + " WHERE id = ?"
	args = append(args, id)
	res, err := r.conn.Exec(query, args...)
	if err != nil {
		return nil, ledger.Storagef("updating account", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, ledger.Storagef("updating account", err)
	}
	if n == 0 {
		return nil, &ledger.NotFoundError{Entity: "account", ID: id}
	}
	return r.Get(id)
}

// Delete removes an account. Fails with ConflictError if splits reference it.
func (r *Accounts) Delete(id int64) error {
	var count int
	err := r.conn.QueryRow("SELECT COUNT(*) FROM splits WHERE account_id = ?", id).Scan(&count)
	if err != nil {
		return ledger.Storagef("checking account usage", err)
	}
	if count > 0 {
		return &ledger.ConflictError{Message: "cannot delete account: transactions are using it"}
	}

	res, err := r.conn.Exec("DELETE FROM accounts WHERE id = ?", id)
	if err != nil {
		return ledger.Storagef("deleting account", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return ledger.Storagef("deleting account", err)
	}
	if n == 0 {
		return &ledger.NotFoundError{Entity: "account", ID: id}
	}
	return nil
}
