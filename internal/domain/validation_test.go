package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseCurrency(t *testing.T) {
	t.Parallel()

	c, err := ParseCurrency(" points ")
	if err != nil {
		t.Fatalf("expected uppercase conversion to succeed, got %v", err)
	}
	if c != CurrencyPoints {
		t.Fatalf("expected POINTS, got %s", c)
	}

	if _, err := ParseCurrency("XYZ"); !errors.Is(err, ErrInvalidCurrency) {
		t.Fatalf("expected ErrInvalidCurrency, got %v", err)
	}
}

func TestValidateAmount(t *testing.T) {
	t.Parallel()

	if err := ValidateAmount(decimal.RequireFromString("100.25")); err != nil {
		t.Fatalf("expected valid amount, got %v", err)
	}

	if err := ValidateAmount(decimal.RequireFromString("0.000000000000000001")); err != nil {
		t.Fatalf("expected smallest representable amount to be valid, got %v", err)
	}

	if err := ValidateAmount(decimal.Zero); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero, got %v", err)
	}

	if err := ValidateAmount(decimal.NewFromInt(-5)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for negative, got %v", err)
	}

	tooPrecise := decimal.RequireFromString("0.0000000000000000001")
	if err := ValidateAmount(tooPrecise); !errors.Is(err, ErrAmountTooPrecise) {
		t.Fatalf("expected ErrAmountTooPrecise, got %v", err)
	}

	huge := decimal.RequireFromString(MaxAmount).Add(decimal.NewFromInt(1))
	if err := ValidateAmount(huge); !errors.Is(err, ErrAmountTooLarge) {
		t.Fatalf("expected ErrAmountTooLarge, got %v", err)
	}
}

func TestValidateMetadata(t *testing.T) {
	t.Parallel()

	if err := ValidateMetadata(nil); err != nil {
		t.Fatalf("expected nil metadata to be allowed, got %v", err)
	}

	valid := map[string]any{"key": "value", "count": 10}
	if err := ValidateMetadata(valid); err != nil {
		t.Fatalf("expected valid metadata, got %v", err)
	}

	oversized := map[string]any{
		"payload": strings.Repeat("x", MaxMetadataSize),
	}
	if err := ValidateMetadata(oversized); !errors.Is(err, ErrMetadataTooLarge) {
		t.Fatalf("expected ErrMetadataTooLarge, got %v", err)
	}
}

func TestValidateReference(t *testing.T) {
	t.Parallel()

	if err := ValidateReference("0xabc123"); err != nil {
		t.Fatalf("expected valid reference, got %v", err)
	}
	if err := ValidateReference("  "); !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference for blank, got %v", err)
	}
	if err := ValidateReference(strings.Repeat("f", MaxReferenceLength+1)); !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference for long reference, got %v", err)
	}
}

func TestValidateDestination(t *testing.T) {
	t.Parallel()

	if err := ValidateDestination("UQBvW8Z5huBkMJYdnfAEM5JqTNkuWX3diqYENkWsIL0XggGG"); err != nil {
		t.Fatalf("expected valid destination, got %v", err)
	}
	if err := ValidateDestination(""); !errors.Is(err, ErrInvalidDestination) {
		t.Fatalf("expected ErrInvalidDestination for empty, got %v", err)
	}
	if err := ValidateDestination("two words"); !errors.Is(err, ErrInvalidDestination) {
		t.Fatalf("expected ErrInvalidDestination for whitespace, got %v", err)
	}
}

func TestValidatePagination(t *testing.T) {
	t.Parallel()

	limit, offset, _ := ValidatePagination(0, -3)
	if limit != 50 || offset != 0 {
		t.Fatalf("expected defaults 50/0, got %d/%d", limit, offset)
	}

	limit, _, _ = ValidatePagination(5000, 0)
	if limit != 1000 {
		t.Fatalf("expected limit capped at 1000, got %d", limit)
	}
}
