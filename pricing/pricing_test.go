package pricing

import (
	"errors"
	"testing"

	"github.com/xraph/sto/types"
)

func usdc(u int64) types.Amount { return types.NewAmount(u, "usdc") }

func TestNewFixedRate(t *testing.T) {
	if _, err := NewFixedRate(usdc(0), "acme-st", usdc(0)); !errors.Is(err, ErrZeroRate) {
		t.Fatalf("got %v, want ErrZeroRate", err)
	}
	if _, err := NewFixedRate(usdc(10), "acme-st", usdc(0)); err != nil {
		t.Fatalf("valid rate rejected: %v", err)
	}
}

func TestQuote(t *testing.T) {
	f, err := NewFixedRate(usdc(10), "acme-st", usdc(100))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		invested  int64
		tokens    int64
		remainder int64
	}{
		{"exact", 2_000_000, 200_000, 0},
		{"with remainder", 1_005, 100, 5},
		{"below one token", 9, 0, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, remainder, err := f.Quote(usdc(tt.invested))
			if err != nil {
				t.Fatalf("quote: %v", err)
			}
			if tokens.Units != tt.tokens || tokens.Asset != "acme-st" {
				t.Errorf("tokens: got %v, want %d acme-st", tokens, tt.tokens)
			}
			if remainder.Units != tt.remainder || remainder.Asset != "usdc" {
				t.Errorf("remainder: got %v, want %d usdc", remainder, tt.remainder)
			}
		})
	}
}

func TestQuoteErrors(t *testing.T) {
	f, _ := NewFixedRate(usdc(10), "acme-st", usdc(0))

	if _, _, err := f.Quote(types.NewAmount(100, "eurc")); !errors.Is(err, ErrWrongAsset) {
		t.Fatalf("got %v, want ErrWrongAsset", err)
	}
	if _, _, err := f.Quote(usdc(0)); !errors.Is(err, ErrNotPositive) {
		t.Fatalf("got %v, want ErrNotPositive", err)
	}
}

func TestMinInvestment(t *testing.T) {
	f, _ := NewFixedRate(usdc(10), "acme-st", usdc(250))
	if got := f.MinInvestment(); !got.Equal(usdc(250)) {
		t.Errorf("got %v, want 250 usdc", got)
	}
}
