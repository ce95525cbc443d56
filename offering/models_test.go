package offering

import (
	"errors"
	"testing"
	"time"

	"github.com/xraph/sto/types"
)

func validTerms() Terms {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return Terms{
		StartTime:         start,
		EndTime:           start.AddDate(0, 3, 0),
		HardCap:           types.NewAmount(100_000, "acme-st"),
		SoftCap:           types.NewAmount(10_000, "acme-st"),
		PricePerToken:     types.NewAmount(10, "usdc"),
		MinInvestment:     types.NewAmount(100, "usdc"),
		InvestmentAsset:   "usdc",
		SecurityAsset:     "acme-st",
		FundsReceiver:     types.Addr("treasury"),
		ControllerAccount: types.Addr("sto-controller"),
		EscrowAccount:     types.Addr("sto-escrow"),
	}
}

func TestTermsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Terms)
		wantErr error
	}{
		{"valid", func(*Terms) {}, nil},
		{"unset window", func(tr *Terms) { tr.EndTime = time.Time{} }, ErrUnsetWindow},
		{"inverted window", func(tr *Terms) { tr.EndTime = tr.StartTime.Add(-time.Hour) }, ErrInvalidWindow},
		{"zero hard cap", func(tr *Terms) { tr.HardCap = types.Zero("acme-st") }, ErrInvalidCaps},
		{"soft above hard", func(tr *Terms) { tr.SoftCap = types.NewAmount(200_000, "acme-st") }, ErrInvalidCaps},
		{"zero rate", func(tr *Terms) { tr.PricePerToken = types.Zero("usdc") }, ErrInvalidRate},
		{"negative minimum", func(tr *Terms) { tr.MinInvestment = types.NewAmount(-1, "usdc") }, ErrNegativeMinimum},
		{"missing receiver", func(tr *Terms) { tr.FundsReceiver = types.ZeroAddress }, ErrMissingReceiver},
		{"missing escrow account", func(tr *Terms) { tr.EscrowAccount = types.ZeroAddress }, ErrMissingAccounts},
		{"cap asset mismatch", func(tr *Terms) { tr.HardCap = types.NewAmount(100_000, "usdc") }, ErrAssetMismatch},
		{"rate asset mismatch", func(tr *Terms) { tr.PricePerToken = types.NewAmount(10, "acme-st") }, ErrAssetMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			terms := validTerms()
			tt.mutate(&terms)
			err := terms.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTermsWindow(t *testing.T) {
	terms := validTerms()

	if terms.Open(terms.StartTime.Add(-time.Second)) {
		t.Error("offering open before start")
	}
	if !terms.Open(terms.StartTime) {
		t.Error("offering not open at start")
	}
	if !terms.Open(terms.EndTime) {
		t.Error("offering not open at end")
	}
	if terms.Open(terms.EndTime.Add(time.Second)) {
		t.Error("offering open past end")
	}
	if !terms.Ended(terms.EndTime.Add(time.Second)) {
		t.Error("offering not ended past end")
	}
	if terms.Ended(terms.EndTime) {
		t.Error("offering ended at end time")
	}
}

func TestTermsConfigured(t *testing.T) {
	var unset Terms
	if unset.Configured() {
		t.Error("zero terms reported configured")
	}
	if !validTerms().Configured() {
		t.Error("valid terms reported unconfigured")
	}
}

func TestSnapshotStatus(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
		want Status
	}{
		{"open", Snapshot{}, StatusOpen},
		{"closed", Snapshot{Closed: true}, StatusClosed},
		{"refunding", Snapshot{Closed: true, Finalized: true}, StatusRefunding},
		{"minting", Snapshot{Closed: true, Finalized: true, SoftCapAtFinalize: true}, StatusMinting},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.snap.Status(); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}
