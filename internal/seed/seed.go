// Package seed loads the reference data every ledger database needs (account
// types and reconciliation tags) and, on request, a small demo chart of
// accounts for trying the server out.
package seed

import (
	"database/sql"
	"fmt"

	"github.com/jbmohler/lmsmono/internal/ledger"
	"github.com/jbmohler/lmsmono/pkg/db"
)

type accountTypeRow struct {
	name         string
	description  string
	balanceSheet bool
	debit        bool
	sort         int
	retained     bool
}

// The five standard account types. Sort order drives report grouping.
var accountTypes = []accountTypeRow{
	{"Asset", "Resources owned", true, true, 10, false},
	{"Liability", "Obligations owed", true, false, 20, false},
	{"Equity", "Owner's residual interest", true, false, 30, false},
	{"Income", "Revenue earned", false, false, 40, true},
	{"Expense", "Costs incurred", false, true, 50, true},
}

// ReferenceData inserts the account types and reconciliation tags. It is
// idempotent and safe to run against a database that already has them.
func ReferenceData(conn *db.Connection) error {
	return conn.Transaction(func(tx *sql.Tx) error {
		for _, at := range accountTypes {
			_, err := tx.Exec(`
				INSERT OR IGNORE INTO account_types
					(name, description, balance_sheet, debit, sort, retained_earnings)
				VALUES (?, ?, ?, ?, ?, ?)
			`, at.name, at.description, at.balanceSheet, at.debit, at.sort, at.retained)
			if err != nil {
				return fmt.Errorf("seeding account type %s: %w", at.name, err)
			}
		}
		for _, tag := range []string{ledger.TagBankPending, ledger.TagBankReconciled} {
			if _, err := tx.Exec(`INSERT OR IGNORE INTO tags (name) VALUES (?)`, tag); err != nil {
				return fmt.Errorf("seeding tag %s: %w", tag, err)
			}
		}
		return nil
	})
}

type demoAccount struct {
	name     string
	typeName string
	journal  string
	// rolls this account's balance into the named equity account on the
	// balance sheet; only meaningful for Income and Expense accounts
	retainedInto string
}

var demoJournals = []string{"Banking", "Household"}

var demoAccounts = []demoAccount{
	{name: "Checking", typeName: "Asset", journal: "Banking"},
	{name: "Savings", typeName: "Asset", journal: "Banking"},
	{name: "Credit Card", typeName: "Liability", journal: "Banking"},
	{name: "Retained Earnings", typeName: "Equity", journal: "Banking"},
	{name: "Salary", typeName: "Income", journal: "Household", retainedInto: "Retained Earnings"},
	{name: "Groceries", typeName: "Expense", journal: "Household", retainedInto: "Retained Earnings"},
	{name: "Rent", typeName: "Expense", journal: "Household", retainedInto: "Retained Earnings"},
	{name: "Utilities", typeName: "Expense", journal: "Household", retainedInto: "Retained Earnings"},
}

// Demo loads a small chart of accounts. It refuses to run against a database
// that already has accounts so it never mixes demo data into real books.
func Demo(conn *db.Connection) error {
	var count int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM accounts`).Scan(&count); err != nil {
		return fmt.Errorf("checking for existing accounts: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("database already has %d accounts, not seeding demo data", count)
	}

	return conn.Transaction(func(tx *sql.Tx) error {
		journalIDs := make(map[string]int64)
		for _, name := range demoJournals {
			res, err := tx.Exec(`INSERT INTO journals (name) VALUES (?)`, name)
			if err != nil {
				return fmt.Errorf("seeding journal %s: %w", name, err)
			}
			journalIDs[name], _ = res.LastInsertId()
		}

		accountIDs := make(map[string]int64)
		for _, a := range demoAccounts {
			var retained interface{}
			if a.retainedInto != "" {
				retained = accountIDs[a.retainedInto]
			}
			res, err := tx.Exec(`
				INSERT INTO accounts (name, type_id, journal_id, retained_earnings_account_id)
				VALUES (?, (SELECT id FROM account_types WHERE name = ?), ?, ?)
			`, a.name, a.typeName, journalIDs[a.journal], retained)
			if err != nil {
				return fmt.Errorf("seeding account %s: %w", a.name, err)
			}
			accountIDs[a.name], _ = res.LastInsertId()
		}
		return nil
	})
}

// Reset deletes every row in every ledger table. Reference data must be
// reloaded with ReferenceData afterwards.
func Reset(conn *db.Connection) error {
	return conn.Transaction(func(tx *sql.Tx) error {
		for _, table := range []string{
			"tag_splits", "tags", "splits", "transactions",
			"accounts", "journals", "account_types",
		} {
			if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
				return fmt.Errorf("clearing %s: %w", table, err)
			}
		}
		return nil
	})
}
