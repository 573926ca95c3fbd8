package store

import (
	"database/sql"
	"strings"

	"github.com/jbmohler/lmsmono/internal/ledger"
	"github.com/jbmohler/lmsmono/pkg/db"
)

// JournalPatch holds optional field updates for a journal.
type JournalPatch struct {
	Name        *string
	Description *string
}

// Journals manages the journal grouping table.
type Journals struct {
	conn *db.Connection
}

// NewJournals creates a Journals repository.
func NewJournals(conn *db.Connection) *Journals {
	return &Journals{conn: conn}
}

// List returns all journals ordered by name.
func (r *Journals) List() ([]ledger.Journal, error) {
	rows, err := r.conn.Query("SELECT id, name, description FROM journals ORDER BY name")
	if err != nil {
		return nil, ledger.Storagef("listing journals", err)
	}
	defer rows.Close()

	var journals []ledger.Journal
	for rows.Next() {
		var j ledger.Journal
		var desc sql.NullString
		if err := rows.Scan(&j.ID, &j.Name, &desc); err != nil {
			return nil, ledger.Storagef("scanning journal", err)
		}
		j.Description = orEmpty(desc)
		journals = append(journals, j)
	}
	if err := rows.Err(); err != nil {
		return nil, ledger.Storagef("listing journals", err)
	}
	return journals, nil
}

// Get returns a single journal by ID.
func (r *Journals) Get(id int64) (*ledger.Journal, error) {
	var j ledger.Journal
	var desc sql.NullString
	err := r.conn.QueryRow("SELECT id, name, description FROM journals WHERE id = ?", id).
		Scan(&j.ID, &j.Name, &desc)
	if err == sql.ErrNoRows {
		return nil, &ledger.NotFoundError{Entity: "journal", ID: id}
	}
	if err != nil {
		return nil, ledger.Storagef("getting journal", err)
	}
	j.Description = orEmpty(desc)
	return &j, nil
}

// Create inserts a new journal.
func (r *Journals) Create(name string, description *string) (*ledger.Journal, error) {
	res, err := r.conn.Exec(
		"INSERT INTO journals (name, description) VALUES (?, ?)",
		name, nullString(description),
	)
	if err != nil {
		return nil, ledger.Storagef("creating journal", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, ledger.Storagef("creating journal", err)
	}
	return r.Get(id)
}

// Update applies the patch to a journal.
func (r *Journals) Update(id int64, patch JournalPatch) (*ledger.Journal, error) {
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
	if len(assignments) == 0 {
		return r.Get(id)
	}

	args = append(args, id)
	res, err := r.conn.Exec("UPDATE journals SET "+strings.Join(assignments, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, ledger.Storagef("updating journal", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, ledger.Storagef("updating journal", err)
	}
	if n == 0 {
		return nil, &ledger.NotFoundError{Entity: "journal", ID: id}
	}
	return r.Get(id)
}

// Delete removes a journal. Fails with ConflictError if accounts reference it.
func (r *Journals) Delete(id int64) error {
	var count int
	err := r.conn.QueryRow("SELECT COUNT(*) FROM accounts WHERE journal_id = ?", id).Scan(&count)
	if err != nil {
		return ledger.Storagef("checking journal usage", err)
	}
	if count > 0 {
		return &ledger.ConflictError{Message: "cannot delete journal: accounts are using it"}
	}

	res, err := r.conn.Exec("DELETE FROM journals WHERE id = ?", id)
	if err != nil {
		return ledger.Storagef("deleting journal", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return ledger.Storagef("deleting journal", err)
	}
	if n == 0 {
		return &ledger.NotFoundError{Entity: "journal", ID: id}
	}
	return nil
}
