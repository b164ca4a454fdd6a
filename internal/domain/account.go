package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account represents a platform user's ledger account.
type Account struct {
	ID        string
	SponsorID *string
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasSponsor reports whether the account was referred by another account.
func (a *Account) HasSponsor() bool {
	return a.SponsorID != nil && *a.SponsorID != ""
}

// Balance is the cached per-currency balance of an account.
type Balance struct {
	AccountID string
	Currency  Currency
	Amount    decimal.Decimal
	UpdatedAt time.Time
}

// ValidateDebit checks if balance can be debited by amount.
func (b *Balance) ValidateDebit(amount decimal.Decimal) error {
	if b.Amount.Sub(amount).IsNegative() {
		return ErrInsufficientFunds
	}
	return nil
}

// ApplyDebit returns new balance after debit.
func (b *Balance) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return b.Amount.Sub(amount)
}

// ApplyCredit returns new balance after credit.
func (b *Balance) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return b.Amount.Add(amount)
}
