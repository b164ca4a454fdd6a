package domain

import (
	"errors"
	"testing"
)

func TestDistributionError(t *testing.T) {
	cause := errors.New("boom")
	err := error(&DistributionError{Level: 7, AccountID: "acc-7", Err: cause})

	if !errors.Is(err, ErrPartialDistribution) {
		t.Fatal("expected DistributionError to match ErrPartialDistribution")
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected DistributionError to unwrap to its cause")
	}

	var de *DistributionError
	if !errors.As(err, &de) || de.Level != 7 {
		t.Fatalf("expected level 7, got %+v", de)
	}
}
