package report

import (
	"math"
	"time"
)

// Recurrence projection parameters: transactions from the last 12 months
// that repeat a (payee, memo) pair at least twice are projected forward at
// their mean interval, up to 30 occurrences, kept only within a 3-week
// forecast window.
const (
	recurrenceLookbackMonths = 12
	recurrenceMinOccurrences = 2
	maxProjections           = 30
	projectionWindowDays     = 21
)

// occurrence is one historical split used for recurrence detection.
type occurrence struct {
	payee *string
	memo  *string
	date  time.Time
	cents int64
}

// projection is one speculative future transaction.
type projection struct {
	payee *string
	memo  *string
	date  time.Time
	cents int64
}

type recurrenceGroup struct {
	payee      *string
	memo       *string
	count      int
	first      time.Time
	last       time.Time
	totalCents int64
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

// projectRecurring detects recurring (payee, memo) pairs among the given
// occurrences and projects their future dates. The mean inter-occurrence
// interval is (last - first) / (n - 1) in fractional days; projected dates
// are last + round(interval * k) for k = 1..30, filtered to
// [today, today + 21 days]. The projected amount is the mean of the
// historical amounts, rounded to the nearest cent.
func projectRecurring(occurrences []occurrence, today time.Time) []projection {
	groups := make(map[string]*recurrenceGroup)
	var order []string
	for _, o := range occurrences {
		key := groupKey(o.payee, o.memo)
		g, ok := groups[key]
		if !ok {
			g = &recurrenceGroup{payee: o.payee, memo: o.memo, first: o.date, last: o.date}
			groups[key] = g
			order = append(order, key)
		}
		g.count++
		g.totalCents += o.cents
		if o.date.Before(g.first) {
			g.first = o.date
		}
		if o.date.After(g.last) {
			g.last = o.date
		}
	}

	windowEnd := today.AddDate(0, 0, projectionWindowDays)

	var projections []projection
	for _, key := range order {
		g := groups[key]
		if g.count < recurrenceMinOccurrences {
			continue
		}
		intervalDays := g.last.Sub(g.first).Hours() / 24 / float64(g.count-1)
		if intervalDays <= 0 {
			continue
		}
		meanCents := int64(math.Round(float64(g.totalCents) / float64(g.count)))

		for k := 1; k <= maxProjections; k++ {
			offset := int(math.Round(intervalDays * float64(k)))
			date := g.last.AddDate(0, 0, offset)
			if date.Before(today) || date.After(windowEnd) {
				continue
			}
			projections = append(projections, projection{
				payee: g.payee,
				memo:  g.memo,
				date:  date,
				cents: meanCents,
			})
		}
	}
	return projections
}
