package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestBalance_ValidateDebit(t *testing.T) {
	tests := []struct {
		name        string
		balance     decimal.Decimal
		debitAmount decimal.Decimal
		expectError bool
	}{
		{
			name:        "debit more than balance",
			balance:     decimal.NewFromInt(100),
			debitAmount: decimal.NewFromInt(150),
			expectError: true,
		},
		{
			name:        "debit exact balance",
			balance:     decimal.NewFromInt(100),
			debitAmount: decimal.NewFromInt(100),
			expectError: false,
		},
		{
			name:        "debit less than balance",
			balance:     decimal.NewFromInt(100),
			debitAmount: decimal.NewFromInt(50),
			expectError: false,
		},
		{
			name:        "debit from empty balance",
			balance:     decimal.Zero,
			debitAmount: decimal.RequireFromString("0.000001"),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Balance{Amount: tt.balance}

			err := b.ValidateDebit(tt.debitAmount)

			if tt.expectError && err != ErrInsufficientFunds {
				t.Errorf("expected ErrInsufficientFunds, got %v", err)
			}

			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestBalance_ApplyDebit(t *testing.T) {
	b := &Balance{Amount: decimal.NewFromInt(100)}
	newBalance := b.ApplyDebit(decimal.NewFromInt(30))

	expected := decimal.NewFromInt(70)
	if !newBalance.Equal(expected) {
		t.Errorf("expected balance %s, got %s", expected, newBalance)
	}
}

func TestBalance_ApplyCredit(t *testing.T) {
	b := &Balance{Amount: decimal.NewFromInt(100)}
	newBalance := b.ApplyCredit(decimal.NewFromInt(30))

	expected := decimal.NewFromInt(130)
	if !newBalance.Equal(expected) {
		t.Errorf("expected balance %s, got %s", expected, newBalance)
	}
}

func TestAccount_HasSponsor(t *testing.T) {
	empty := ""
	sponsor := "acc-2"

	if (&Account{}).HasSponsor() {
		t.Error("expected no sponsor for nil SponsorID")
	}
	if (&Account{SponsorID: &empty}).HasSponsor() {
		t.Error("expected no sponsor for empty SponsorID")
	}
	if !(&Account{SponsorID: &sponsor}).HasSponsor() {
		t.Error("expected sponsor to be set")
	}
}
