// Package reconcile implements the bank reconciliation workflow. A split's
// reconciliation state is derived from tag membership, never stored directly:
// no tags = unreconciled, "Bank Pending" = staged, "Bank Reconciled" =
// finalized. Reconciled is terminal.
package reconcile

import (
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/jbmohler/lmsmono/internal/ledger"
	"github.com/jbmohler/lmsmono/pkg/db"
)

// Split is one unreconciled split in the reconciliation view.
type Split struct {
	SplitID   int64            `json:"split_id"`
	Date      string           `json:"trandate"`
	Reference *string          `json:"tranref"`
	Payee     *string          `json:"payee"`
	Memo      *string          `json:"memo"`
	Debit     *decimal.Decimal `json:"debit"`
	Credit    *decimal.Decimal `json:"credit"`
	IsPending bool             `json:"is_pending"`
}

// Data is the reconciliation view for one account: the prior reconciled
// balance plus every split not yet finalized.
type Data struct {
	AccountID              int64           `json:"account_id"`
	AccountName            string          `json:"account_name"`
	ReconcileNote          string          `json:"reconcile_note,omitempty"`
	PriorReconciledBalance decimal.Decimal `json:"prior_reconciled_balance"`
	Splits                 []Split         `json:"splits"`
}

// ToggleResult reports the new pending state after a toggle.
type ToggleResult struct {
	SplitID   int64 `json:"split_id"`
	IsPending bool  `json:"is_pending"`
}

// FinalizeResult reports how many splits were promoted to reconciled.
type FinalizeResult struct {
	ReconciledCount int `json:"reconciled_count"`
}

// Engine drives the tag-based reconciliation state machine.
type Engine struct {
	conn *db.Connection
}

// NewEngine creates a reconciliation Engine.
func NewEngine(conn *db.Connection) *Engine {
	return &Engine{conn: conn}
}

// tagID resolves a well-known reconciliation tag. A missing tag is a setup
// failure, not a per-request error.
func (e *Engine) tagID(name string) (int64, error) {
	var id int64
	err := e.conn.QueryRow("SELECT id FROM tags WHERE name = ?", name).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, &ledger.ConfigurationError{
			Message: "tag '" + name + "' not found; run seed to create reconciliation tags",
		}
	}
	if err != nil {
		return 0, ledger.Storagef("resolving tag", err)
	}
	return id, nil
}

// Data returns the reconciliation view for an account: name and note, the
// sum of all finalized splits, and every not-yet-reconciled split flagged
// with its pending state, ordered by date then transaction id.
func (e *Engine) Data(accountID int64) (*Data, error) {
	var name string
	var note sql.NullString
	err := e.conn.QueryRow("SELECT name, reconcile_note FROM accounts WHERE id = ?", accountID).
		Scan(&name, &note)
	if err == sql.ErrNoRows {
		return nil, &ledger.NotFoundError{Entity: "account", ID: accountID}
	}
	if err != nil {
		return nil, ledger.Storagef("getting account", err)
	}

	var priorCents int64
	err = e.conn.QueryRow(`
		SELECT COALESCE(SUM(s.amount_cents), 0)
		FROM splits s
		JOIN tag_splits ts ON ts.split_id = s.id
		JOIN tags tg ON tg.id = ts.tag_id
		WHERE s.account_id = ? AND tg.name = ?
	`, accountID, ledger.TagBankReconciled).Scan(&priorCents)
	if err != nil {
		return nil, ledger.Storagef("computing prior reconciled balance", err)
	}

	rows, err := e.conn.Query(`
		SELECT
			s.id, t.trandate, t.tranref, t.payee, t.memo, s.amount_cents,
			EXISTS (
				SELECT 1 FROM tag_splits ts2
				JOIN tags tg2 ON tg2.id = ts2.tag_id
				WHERE ts2.split_id = s.id AND tg2.name = ?
			) AS is_pending
		FROM splits s
		JOIN transactions t ON t.id = s.transaction_id
		WHERE s.account_id = ?
		  AND NOT EXISTS (
			SELECT 1 FROM tag_splits ts
			JOIN tags tg ON tg.id = ts.tag_id
			WHERE ts.split_id = s.id AND tg.name = ?
		  )
		ORDER BY t.trandate ASC, t.id ASC
	`, ledger.TagBankPending, accountID, ledger.TagBankReconciled)
	if err != nil {
		return nil, ledger.Storagef("listing unreconciled splits", err)
	}
	defer rows.Close()

	var splits []Split
	for rows.Next() {
		var s Split
		var ref, payee, memo sql.NullString
		var cents int64
		if err := rows.Scan(&s.SplitID, &s.Date, &ref, &payee, &memo, &cents, &s.IsPending); err != nil {
			return nil, ledger.Storagef("scanning unreconciled split", err)
		}
		if ref.Valid {
			s.Reference = &ref.String
		}
		if payee.Valid {
			s.Payee = &payee.String
		}
		if memo.Valid {
			s.Memo = &memo.String
		}
		s.Debit, s.Credit = ledger.DebitCredit(cents)
		splits = append(splits, s)
	}
	if err := rows.Err(); err != nil {
		return nil, ledger.Storagef("listing unreconciled splits", err)
	}

	data := &Data{
		AccountID:              accountID,
		AccountName:            name,
		PriorReconciledBalance: ledger.FromCents(priorCents),
		Splits:                 splits,
	}
	if note.Valid {
		data.ReconcileNote = note.String
	}
	return data, nil
}

// TogglePending flips a split's membership in "Bank Pending". The split must
// belong to the account and must not be finalized: reconciled splits are
// immutable with respect to pending state.
func (e *Engine) TogglePending(accountID, splitID int64) (*ToggleResult, error) {
	pendingID, err := e.tagID(ledger.TagBankPending)
	if err != nil {
		return nil, err
	}

	var eligible int
	err = e.conn.QueryRow(`
		SELECT s.id
		FROM splits s
		WHERE s.id = ? AND s.account_id = ?
		  AND NOT EXISTS (
			SELECT 1 FROM tag_splits ts
			JOIN tags tg ON tg.id = ts.tag_id
			WHERE ts.split_id = s.id AND tg.name = ?
		  )
	`, splitID, accountID, ledger.TagBankReconciled).Scan(&eligible)
	if err == sql.ErrNoRows {
		return nil, &ledger.NotFoundError{Entity: "unreconciled split", ID: splitID}
	}
	if err != nil {
		return nil, ledger.Storagef("checking split eligibility", err)
	}

	var pending int
	err = e.conn.QueryRow(
		"SELECT 1 FROM tag_splits WHERE tag_id = ? AND split_id = ?",
		pendingID, splitID,
	).Scan(&pending)
	currentlyPending := err == nil
	if err != nil && err != sql.ErrNoRows {
		return nil, ledger.Storagef("checking pending state", err)
	}

	if currentlyPending {
		if _, err := e.conn.Exec("DELETE FROM tag_splits WHERE tag_id = ? AND split_id = ?", pendingID, splitID); err != nil {
			return nil, ledger.Storagef("removing pending tag", err)
		}
		return &ToggleResult{SplitID: splitID, IsPending: false}, nil
	}
	if _, err := e.conn.Exec("INSERT OR IGNORE INTO tag_splits (tag_id, split_id) VALUES (?, ?)", pendingID, splitID); err != nil {
		return nil, ledger.Storagef("adding pending tag", err)
	}
	return &ToggleResult{SplitID: splitID, IsPending: true}, nil
}

// Finalize promotes every pending split in the account to reconciled and
// clears all pending tags for the account, as a single atomic unit. Calling
// it again with nothing pending returns a zero count and changes nothing.
func (e *Engine) Finalize(accountID int64) (*FinalizeResult, error) {
	pendingID, err := e.tagID(ledger.TagBankPending)
	if err != nil {
		return nil, err
	}
	reconciledID, err := e.tagID(ledger.TagBankReconciled)
	if err != nil {
		return nil, err
	}

	var count int
	err = e.conn.Transaction(func(tx *sql.Tx) error {
		rows, err := tx.Query(`
			SELECT s.id
			FROM splits s
			JOIN tag_splits ts ON ts.split_id = s.id
			WHERE s.account_id = ? AND ts.tag_id = ?
		`, accountID, pendingID)
		if err != nil {
			return ledger.Storagef("listing pending splits", err)
		}
		var splitIDs []int64
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return ledger.Storagef("scanning pending split", err)
			}
			splitIDs = append(splitIDs, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return ledger.Storagef("listing pending splits", err)
		}

		if len(splitIDs) == 0 {
			return nil
		}

		for _, id := range splitIDs {
			if _, err := tx.Exec("INSERT OR IGNORE INTO tag_splits (tag_id, split_id) VALUES (?, ?)", reconciledID, id); err != nil {
				return ledger.Storagef("adding reconciled tag", err)
			}
		}

		// Clear every pending tag in the account, not just the ones
		// promoted above.
		if _, err := tx.Exec(`
			DELETE FROM tag_splits
			WHERE tag_id = ?
			  AND split_id IN (SELECT id FROM splits WHERE account_id = ?)
		`, pendingID, accountID); err != nil {
			return ledger.Storagef("clearing pending tags", err)
		}

		count = len(splitIDs)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &FinalizeResult{ReconciledCount: count}, nil
}
