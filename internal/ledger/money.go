package ledger

import "github.com/shopspring/decimal"

var centFactor = decimal.NewFromInt(100)

// FromCents converts stored integer cents to a decimal currency amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// ToCents converts a decimal currency amount to integer cents. The amount
// must already be validated to at most two decimal places.
func ToCents(d decimal.Decimal) int64 {
	return d.Mul(centFactor).IntPart()
}

// SignedCents converts an API debit/credit pair to the stored signed amount:
// debit positive, credit negative.
func SignedCents(debit, credit *decimal.Decimal) int64 {
	if debit != nil {
		return ToCents(*debit)
	}
	if credit != nil {
		return -ToCents(*credit)
	}
	return 0
}

// DebitCredit converts a stored signed amount to the API debit/credit pair.
// Exactly one of the results is non-nil for a non-zero amount.
func DebitCredit(cents int64) (debit, credit *decimal.Decimal) {
	switch {
	case cents > 0:
		d := FromCents(cents)
		return &d, nil
	case cents < 0:
		c := FromCents(-cents)
		return nil, &c
	default:
		return nil, nil
	}
}

// hasSubCents reports whether d has a fractional part finer than one cent.
func hasSubCents(d decimal.Decimal) bool {
	scaled := d.Mul(centFactor)
	return !scaled.Equal(scaled.Floor())
}
