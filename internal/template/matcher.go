// Package template suggests split templates from transaction history: a free
// text query is matched against the last two years of payees and memos, the
// repeating (payee, memo) groups are ranked by match quality, frequency and
// recency, and the winning group's most recent splits are returned, optionally
// scaled to a requested total.
package template

import (
	"database/sql"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jbmohler/lmsmono/internal/ledger"
	"github.com/jbmohler/lmsmono/pkg/db"
)

// Match scores: exact payee beats prefix beats contains; a memo hit is a
// flat bonus on top.
const (
	scorePayeeExact    = 100
	scorePayeePrefix   = 60
	scorePayeeContains = 30
	scoreMemoContains  = 20
	frequencyWeight    = 15
)

const searchLookbackYears = 2

// amountPattern matches a trailing monetary amount: optional $, digits with
// optional thousands separators, optional 2-decimal fraction.
var amountPattern = regexp.MustCompile(`\$?(\d{1,3}(?:,\d{3})+|\d+)(\.\d{2})?$`)

// Result is the suggested template: the winning group's most recent
// transaction and its splits, scaled when a target amount was requested.
type Result struct {
	TransactionID int64          `json:"transaction_id"`
	Date          string         `json:"trandate"`
	Payee         *string        `json:"payee"`
	Memo          *string        `json:"memo"`
	Splits        []ledger.Split `json:"splits"`
}

// Matcher runs template searches over the transaction history.
type Matcher struct {
	conn *db.Connection
	now  func() time.Time
}

// NewMatcher creates a template Matcher.
func NewMatcher(conn *db.Connection) *Matcher {
	return &Matcher{conn: conn, now: time.Now}
}

// ParseQuery splits a free-text query into a search phrase and an optional
// trailing target amount.
func ParseQuery(query string) (phrase string, amount *decimal.Decimal) {
	trimmed := strings.TrimSpace(query)
	loc := amountPattern.FindStringIndex(trimmed)
	if loc == nil {
		return trimmed, nil
	}
	raw := strings.TrimPrefix(trimmed[loc[0]:], "$")
	raw = strings.ReplaceAll(raw, ",", "")
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return trimmed, nil
	}
	return strings.TrimSpace(trimmed[:loc[0]]), &d
}

// candidate is one historical transaction considered for the template.
type candidate struct {
	transactionID int64
	date          time.Time
	payee         *string
	memo          *string
	score         int
}

type group struct {
	best       candidate // highest score, most recent on ties
	matchScore int
	frequency  int
	lastDate   time.Time
}

// Search runs the template search and returns the top-ranked suggestion, or
// nil when nothing in the last two years matches.
func (m *Matcher) Search(query string) (*Result, error) {
	phrase, target := ParseQuery(query)

	candidates, err := m.candidates(phrase)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	today := m.now()
	groups := make(map[string]*group)
	var order []string
	for _, c := range candidates {
		key := groupKey(c.payee, c.memo)
		g, ok := groups[key]
		if !ok {
			g = &group{best: c, matchScore: c.score, lastDate: c.date}
			groups[key] = g
			order = append(order, key)
		}
		g.frequency++
		if c.score > g.matchScore {
			g.matchScore = c.score
		}
		if c.date.After(g.lastDate) {
			g.lastDate = c.date
			g.best = c
		}
	}

	var winner *group
	var winnerRank float64
	for _, key := range order {
		g := groups[key]
		rank := float64(g.matchScore) +
			math.Log(float64(g.frequency)+1)*frequencyWeight +
			float64(recencyBonus(today, g.lastDate))
		if winner == nil || rank > winnerRank {
			winner = g
			winnerRank = rank
		}
	}

	splits, err := m.splitsFor(winner.best.transactionID)
	if err != nil {
		return nil, err
	}
	if target != nil {
		splits = ScaleSplits(splits, *target)
	}

	return &Result{
		TransactionID: winner.best.transactionID,
		Date:          winner.best.date.Format(ledger.DateFormat),
		Payee:         winner.best.payee,
		Memo:          winner.best.memo,
		Splits:        splits,
	}, nil
}

// recencyBonus tiers: 20/10/5/0 for activity within the last 30/90/180 days.
func recencyBonus(today, last time.Time) int {
	age := today.Sub(last).Hours() / 24
	switch {
	case age <= 30:
		return 20
	case age <= 90:
		return 10
	case age <= 180:
		return 5
	default:
		return 0
	}
}

func (m *Matcher) candidates(phrase string) ([]candidate, error) {
	since := m.now().AddDate(-searchLookbackYears, 0, 0).Format(ledger.DateFormat)
	pattern := "%" + phrase + "%"

	rows, err := m.conn.Query(`
		SELECT id, trandate, payee, memo
		FROM transactions
		WHERE trandate >= ?
		  AND (payee LIKE ? OR memo LIKE ?)
	`, since, pattern, pattern)
	if err != nil {
		return nil, ledger.Storagef("searching transactions", err)
	}
	defer rows.Close()

	needle := strings.ToLower(phrase)
	var candidates []candidate
	for rows.Next() {
		var c candidate
		var trandate string
		var payee, memo sql.NullString
		if err := rows.Scan(&c.transactionID, &trandate, &payee, &memo); err != nil {
			return nil, ledger.Storagef("scanning search candidate", err)
		}
		c.date, err = time.Parse(ledger.DateFormat, trandate)
		if err != nil {
			return nil, ledger.Storagef("parsing transaction date", err)
		}
		if payee.Valid {
			c.payee = &payee.String
		}
		if memo.Valid {
			c.memo = &memo.String
		}
		c.score = matchScore(needle, c.payee, c.memo)
		if c.score > 0 {
			candidates = append(candidates, c)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, ledger.Storagef("searching transactions", err)
	}
	return candidates, nil
}

func matchScore(needle string, payee, memo *string) int {
	score := 0
	if payee != nil {
		p := strings.ToLower(*payee)
		switch {
		case p == needle:
			score += scorePayeeExact
		case strings.HasPrefix(p, needle):
			score += scorePayeePrefix
		case strings.Contains(p, needle):
			score += scorePayeeContains
		}
	}
	if memo != nil && strings.Contains(strings.ToLower(*memo), needle) {
		score += scoreMemoContains
	}
	return score
}

func (m *Matcher) splitsFor(transactionID int64) ([]ledger.Split, error) {
	rows, err := m.conn.Query(`
		SELECT s.id, a.id, a.name, s.amount_cents
		FROM splits s
		JOIN accounts a ON s.account_id = a.id
		WHERE s.transaction_id = ?
		ORDER BY s.id
	`, transactionID)
	if err != nil {
		return nil, ledger.Storagef("listing template splits", err)
	}
	defer rows.Close()

	var splits []ledger.Split
	for rows.Next() {
		var s ledger.Split
		var cents int64
		if err := rows.Scan(&s.ID, &s.Account.ID, &s.Account.Name, &cents); err != nil {
			return nil, ledger.Storagef("scanning template split", err)
		}
		s.Debit, s.Credit = ledger.DebitCredit(cents)
		splits = append(splits, s)
	}
	if err := rows.Err(); err != nil {
		return nil, ledger.Storagef("listing template splits", err)
	}
	return splits, nil
}

// ScaleSplits scales every split proportionally so the template's total (the
// debit side, which equals the credit side by the balance invariant) matches
// the target amount, rounded to cents.
func ScaleSplits(splits []ledger.Split, target decimal.Decimal) []ledger.Split {
	total := decimal.Zero
	for _, s := range splits {
		if s.Debit != nil {
			total = total.Add(*s.Debit)
		}
	}
	if total.IsZero() {
		return splits
	}
	factor := target.Div(total)

	scaled := make([]ledger.Split, len(splits))
	for i, s := range splits {
		scaled[i] = s
		if s.Debit != nil {
			d := s.Debit.Mul(factor).Round(2)
			scaled[i].Debit = &d
		}
		if s.Credit != nil {
			c := s.Credit.Mul(factor).Round(2)
			scaled[i].Credit = &c
		}
	}
	return scaled
}

func groupKey(payee, memo *string) string {
	key := ""
	if payee != nil {
		key = "p:" + *payee
	}
	key += "\x00"
	if memo != nil {
		key += "m:" + *memo
	}
	return key
}
