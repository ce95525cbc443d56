package fees

import (
	"errors"
	"testing"

	"github.com/xraph/sto/types"
)

func usdc(u int64) types.Amount { return types.NewAmount(u, "usdc") }

func TestNewFlatRate(t *testing.T) {
	wallet := types.Addr("fee-wallet")

	if _, err := NewFlatRate(-1, wallet); !errors.Is(err, ErrInvalidRate) {
		t.Fatalf("got %v, want ErrInvalidRate", err)
	}
	if _, err := NewFlatRate(10_001, wallet); !errors.Is(err, ErrInvalidRate) {
		t.Fatalf("got %v, want ErrInvalidRate", err)
	}
	if _, err := NewFlatRate(100, types.ZeroAddress); !errors.Is(err, ErrMissingWallet) {
		t.Fatalf("got %v, want ErrMissingWallet", err)
	}
	if _, err := NewFlatRate(0, types.ZeroAddress); err != nil {
		t.Fatalf("zero rate needs no wallet: %v", err)
	}
}

func TestSplit(t *testing.T) {
	wallet := types.Addr("fee-wallet")

	tests := []struct {
		name  string
		bps   int64
		gross int64
		fee   int64
	}{
		{"one percent", 100, 10_000, 100},
		{"zero", 0, 10_000, 0},
		{"full", 10_000, 10_000, 10_000},
		{"rounds down", 250, 999, 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFlatRate(tt.bps, wallet)
			if err != nil {
				t.Fatal(err)
			}
			fee, net := f.Split(usdc(tt.gross))
			if fee.Units != tt.fee {
				t.Errorf("fee: got %d, want %d", fee.Units, tt.fee)
			}
			// Conservation: fee + net == gross.
			if fee.Units+net.Units != tt.gross {
				t.Errorf("fee %d + net %d != gross %d", fee.Units, net.Units, tt.gross)
			}
		})
	}
}
