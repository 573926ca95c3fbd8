// Package db provides SQLite database management for the ledger tables.
package db

// Schema defines the SQL statements to create the ledger tables.
//
// Monetary amounts are stored as signed integer cents: positive = debit,
// negative = credit. Reconciliation state is derived from tag membership
// (tag_splits), never stored on the split row itself.
const Schema = `
-- Account types: static reference data defining sign convention and
-- balance-sheet membership.
CREATE TABLE IF NOT EXISTS account_types (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE,
    description TEXT,
    balance_sheet BOOLEAN NOT NULL DEFAULT 0,  -- appears on balance sheet vs P&L
    debit BOOLEAN NOT NULL DEFAULT 0,          -- normal balance is a debit
    sort INTEGER NOT NULL DEFAULT 0,
    retained_earnings BOOLEAN NOT NULL DEFAULT 0
);

-- Journals: logical grouping of accounts ("Checking", "Credit Cards").
CREATE TABLE IF NOT EXISTS journals (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    description TEXT
);

CREATE TABLE IF NOT EXISTS accounts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    description TEXT,
    type_id INTEGER NOT NULL REFERENCES account_types(id),
    journal_id INTEGER NOT NULL REFERENCES journals(id),
    -- balance-sheet account absorbing this P&L account's net balance
    retained_earnings_account_id INTEGER REFERENCES accounts(id),
    reconcile_note TEXT
);

CREATE INDEX IF NOT EXISTS idx_accounts_type ON accounts(type_id);
CREATE INDEX IF NOT EXISTS idx_accounts_journal ON accounts(journal_id);

CREATE TABLE IF NOT EXISTS transactions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    trandate TEXT NOT NULL,            -- YYYY-MM-DD
    tranref TEXT,
    payee TEXT,
    memo TEXT
);

CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(trandate);

-- One leg of a double-entry transaction. For every transaction the signed
-- amounts must sum to zero; the engine enforces this before insert.
CREATE TABLE IF NOT EXISTS splits (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    transaction_id INTEGER NOT NULL REFERENCES transactions(id),
    account_id INTEGER NOT NULL REFERENCES accounts(id),
    amount_cents INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_splits_transaction ON splits(transaction_id);
CREATE INDEX IF NOT EXISTS idx_splits_account ON splits(account_id);

CREATE TABLE IF NOT EXISTS tags (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS tag_splits (
    tag_id INTEGER NOT NULL REFERENCES tags(id),
    split_id INTEGER NOT NULL REFERENCES splits(id),
    PRIMARY KEY (tag_id, split_id)
);

CREATE INDEX IF NOT EXISTS idx_tag_splits_split ON tag_splits(split_id);
`

// InitializeSchema initializes the database schema.
// It creates all tables if they don't exist.
func InitializeSchema(conn *Connection) error {
	if _, err := conn.Exec(Schema); err != nil {
		return err
	}
	return nil
}
