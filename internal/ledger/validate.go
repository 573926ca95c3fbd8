package ledger

// ValidateSplits enforces the double-entry invariants on a split set before
// it is persisted:
//
//  1. at least 2 splits
//  2. each split carries exactly one of debit/credit, positive, at most
//     two decimal places
//  3. signed amounts (debit positive, credit negative) sum to exactly zero
//
// Amounts are exact decimals, so the balance check has no tolerance.
func ValidateSplits(splits []SplitInput) error {
	if len(splits) < 2 {
		return Validationf("transaction must have at least 2 splits")
	}

	var total int64
	for i, split := range splits {
		if split.Debit != nil && split.Credit != nil {
			return Validationf("split %d cannot have both debit and credit", i+1)
		}
		if split.Debit == nil && split.Credit == nil {
			return Validationf("split %d must have either debit or credit", i+1)
		}

		amount := split.Debit
		if amount == nil {
			amount = split.Credit
		}
		if !amount.IsPositive() {
			return Validationf("split %d amount must be positive", i+1)
		}
		if hasSubCents(*amount) {
			return Validationf("split %d amount %s has more than 2 decimal places", i+1, amount)
		}

		total += SignedCents(split.Debit, split.Credit)
	}

	if total != 0 {
		return Validationf("transaction does not balance: debits must equal credits")
	}
	return nil
}
