package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestValidateSplits(t *testing.T) {
	tests := []struct {
		name    string
		splits  []SplitInput
		wantErr string
	}{
		{
			name: "balanced pair",
			splits: []SplitInput{
				{AccountID: 1, Debit: dec("100.00")},
				{AccountID: 2, Credit: dec("100.00")},
			},
		},
		{
			name: "balanced three way",
			splits: []SplitInput{
				{AccountID: 1, Debit: dec("75.25")},
				{AccountID: 2, Debit: dec("24.75")},
				{AccountID: 3, Credit: dec("100.00")},
			},
		},
		{
			name:    "single split",
			splits:  []SplitInput{{AccountID: 1, Debit: dec("100")}},
			wantErr: "at least 2 splits",
		},
		{
			name: "both sides set",
			splits: []SplitInput{
				{AccountID: 1, Debit: dec("100"), Credit: dec("100")},
				{AccountID: 2, Credit: dec("100")},
			},
			wantErr: "cannot have both debit and credit",
		},
		{
			name: "neither side set",
			splits: []SplitInput{
				{AccountID: 1},
				{AccountID: 2, Credit: dec("100")},
			},
			wantErr: "must have either debit or credit",
		},
		{
			name: "negative amount",
			splits: []SplitInput{
				{AccountID: 1, Debit: dec("-100")},
				{AccountID: 2, Credit: dec("-100")},
			},
			wantErr: "must be positive",
		},
		{
			name: "zero amount",
			splits: []SplitInput{
				{AccountID: 1, Debit: dec("0")},
				{AccountID: 2, Credit: dec("0")},
			},
			wantErr: "must be positive",
		},
		{
			name: "sub cent amount",
			splits: []SplitInput{
				{AccountID: 1, Debit: dec("10.005")},
				{AccountID: 2, Credit: dec("10.005")},
			},
			wantErr: "more than 2 decimal places",
		},
		{
			name: "unbalanced",
			splits: []SplitInput{
				{AccountID: 1, Debit: dec("100.00")},
				{AccountID: 2, Credit: dec("99.99")},
			},
			wantErr: "does not balance",
		},
		{
			name: "one cent off",
			splits: []SplitInput{
				{AccountID: 1, Debit: dec("0.01")},
				{AccountID: 2, Credit: dec("0.02")},
			},
			wantErr: "does not balance",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSplits(tt.splits)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.IsType(t, &ValidationError{}, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
