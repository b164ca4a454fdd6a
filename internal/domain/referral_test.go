package domain

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCommissionRate(t *testing.T) {
	tests := []struct {
		level int
		want  string
	}{
		{0, "0"},
		{1, "1"},
		{2, "0.02"},
		{3, "0.03"},
		{10, "0.1"},
		{20, "0.2"},
		{21, "0"},
		{-1, "0"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("level_%d", tt.level), func(t *testing.T) {
			got := CommissionRate(tt.level)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("CommissionRate(%d) = %s, want %s", tt.level, got, tt.want)
			}
		})
	}
}

func TestSplitCommissions_FullChainTotals3Point1(t *testing.T) {
	reward := decimal.RequireFromString("7.5")

	chain := make([]string, 25)
	for i := range chain {
		chain[i] = fmt.Sprintf("acc-%02d", i+1)
	}

	shares := SplitCommissions(reward, chain)
	if len(shares) != MaxReferralDepth {
		t.Fatalf("expected %d shares, got %d", MaxReferralDepth, len(shares))
	}

	total := decimal.Zero
	for i, s := range shares {
		level := i + 1
		if s.Level != level {
			t.Errorf("share %d: expected level %d, got %d", i, level, s.Level)
		}
		if s.AccountID != chain[i] {
			t.Errorf("share %d: expected account %s, got %s", i, chain[i], s.AccountID)
		}

		want := reward
		if level > 1 {
			want = reward.Mul(decimal.NewFromInt(int64(level))).Div(decimal.NewFromInt(100))
		}
		if !s.Amount.Equal(want) {
			t.Errorf("level %d: expected %s, got %s", level, want, s.Amount)
		}
		total = total.Add(s.Amount)
	}

	// 1 + (2+3+...+20)/100
	expected := reward.Mul(decimal.RequireFromString("3.09"))
	if !total.Equal(expected) {
		t.Fatalf("expected total %s, got %s", expected, total)
	}
}

func TestSplitCommissions_ShortChain(t *testing.T) {
	shares := SplitCommissions(decimal.NewFromInt(1), []string{"b", "c"})

	if len(shares) != 2 {
		t.Fatalf("expected 2 shares, got %d", len(shares))
	}
	if !shares[0].Amount.Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected level 1 share 1, got %s", shares[0].Amount)
	}
	if !shares[1].Amount.Equal(decimal.RequireFromString("0.02")) {
		t.Errorf("expected level 2 share 0.02, got %s", shares[1].Amount)
	}
}

func TestSplitCommissions_EmptyChain(t *testing.T) {
	if shares := SplitCommissions(decimal.NewFromInt(1), nil); len(shares) != 0 {
		t.Fatalf("expected no shares, got %d", len(shares))
	}
}

func TestSplitCommissions_DropsSubScaleShares(t *testing.T) {
	// 2% of 1e-18 truncates to zero; only the direct sponsor is paid.
	reward := decimal.New(1, -AmountScale)

	shares := SplitCommissions(reward, []string{"b", "c", "d"})
	if len(shares) != 1 {
		t.Fatalf("expected 1 share, got %d", len(shares))
	}
	if shares[0].Level != 1 {
		t.Errorf("expected level 1, got %d", shares[0].Level)
	}
}
