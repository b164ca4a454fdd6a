package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidCurrency    = errors.New("invalid currency code")
	ErrAmountTooLarge     = errors.New("amount exceeds maximum allowed")
	ErrAmountTooPrecise   = errors.New("amount has more decimal places than allowed")
	ErrMetadataTooLarge   = errors.New("metadata size exceeds limit")
	ErrInvalidDestination = errors.New("invalid withdrawal destination")
	ErrInvalidReference   = errors.New("invalid external reference")
)

// Validation constants
const (
	// AmountScale is the number of decimal places kept for every stored amount.
	AmountScale          = 18
	MaxAmount            = "1000000000000" // 1 trillion
	MaxMetadataSize      = 10240           // 10KB
	MaxReferenceLength   = 256
	MaxDestinationLength = 128
)

// Currency is a balance currency code.
type Currency string

const (
	CurrencyPoints Currency = "POINTS"
	CurrencyTON    Currency = "TON"
	CurrencyUSDT   Currency = "USDT"
)

var validCurrencies = map[Currency]bool{
	CurrencyPoints: true,
	CurrencyTON:    true,
	CurrencyUSDT:   true,
}

// ParseCurrency normalizes and validates a currency code.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	if err := ValidateCurrency(c); err != nil {
		return "", err
	}
	return c, nil
}

// ValidateCurrency validates currency code
func ValidateCurrency(c Currency) error {
	if !validCurrencies[c] {
		return fmt.Errorf("%w: %q", ErrInvalidCurrency, string(c))
	}
	return nil
}

// ValidateAmount validates a credit/debit amount
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if !amount.Equal(amount.Truncate(AmountScale)) {
		return fmt.Errorf("%w: at most %d decimal places", ErrAmountTooPrecise, AmountScale)
	}

	maxAmount, _ := decimal.NewFromString(MaxAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxAmount)
	}

	return nil
}

// ValidateMetadata validates metadata size
func ValidateMetadata(metadata map[string]any) error {
	if metadata == nil {
		return nil
	}

	// Estimate size (rough approximation)
	size := 0
	for k, v := range metadata {
		size += len(k)
		size += len(fmt.Sprintf("%v", v))
	}

	if size > MaxMetadataSize {
		return fmt.Errorf("%w: metadata size %d bytes exceeds limit of %d bytes", ErrMetadataTooLarge, size, MaxMetadataSize)
	}

	return nil
}

// ValidateReference validates an external reference such as a transaction hash
func ValidateReference(ref string) error {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return fmt.Errorf("%w: reference cannot be empty", ErrInvalidReference)
	}
	if len(ref) > MaxReferenceLength {
		return fmt.Errorf("%w: reference exceeds %d characters", ErrInvalidReference, MaxReferenceLength)
	}
	return nil
}

// ValidateDestination validates a withdrawal destination address
func ValidateDestination(dest string) error {
	dest = strings.TrimSpace(dest)
	if dest == "" {
		return fmt.Errorf("%w: destination cannot be empty", ErrInvalidDestination)
	}
	if len(dest) > MaxDestinationLength {
		return fmt.Errorf("%w: destination exceeds %d characters", ErrInvalidDestination, MaxDestinationLength)
	}
	if strings.ContainsAny(dest, " \t\r\n") {
		return fmt.Errorf("%w: destination contains whitespace", ErrInvalidDestination)
	}
	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int, error) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset, nil
}
