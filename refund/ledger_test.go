package refund

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/sto/types"
)

var (
	vaultAccount = types.Addr("sto-escrow")
	alice        = types.Addr("alice")
)

func usdc(u int64) types.Amount { return types.NewAmount(u, "usdc") }

// stubCustody is a minimal vault stand-in.
type stubCustody struct {
	investments map[types.Address]types.Amount
	claimed     map[types.Address]bool
	disbursed   map[types.Address]int64
	disburseErr error
}

func newStubCustody() *stubCustody {
	return &stubCustody{
		investments: make(map[types.Address]types.Amount),
		claimed:     make(map[types.Address]bool),
		disbursed:   make(map[types.Address]int64),
	}
}

func (s *stubCustody) Investment(addr types.Address) types.Amount {
	if a, ok := s.investments[addr]; ok {
		return a
	}
	return usdc(0)
}

func (s *stubCustody) RefundClaimed(addr types.Address) bool { return s.claimed[addr] }

func (s *stubCustody) SetRefundClaimed(addr types.Address, claimed bool) {
	s.claimed[addr] = claimed
}

func (s *stubCustody) Disburse(_ context.Context, to types.Address, amount types.Amount) error {
	if s.disburseErr != nil {
		return s.disburseErr
	}
	s.disbursed[to] += amount.Units
	return nil
}

func activated(t *testing.T, custody *stubCustody) *Ledger {
	t.Helper()
	l := NewLedger()
	l.Bind(custody, vaultAccount)
	if err := l.Activate(context.Background(), vaultAccount); err != nil {
		t.Fatalf("activate: %v", err)
	}
	return l
}

func TestActivate(t *testing.T) {
	l := NewLedger()

	if err := l.Activate(context.Background(), vaultAccount); !errors.Is(err, ErrNotBound) {
		t.Fatalf("unbound activate: got %v, want ErrNotBound", err)
	}

	l.Bind(newStubCustody(), vaultAccount)
	if err := l.Activate(context.Background(), alice); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("got %v, want ErrUnauthorized", err)
	}
	if err := l.Activate(context.Background(), vaultAccount); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if err := l.Activate(context.Background(), vaultAccount); !errors.Is(err, ErrAlreadyActivated) {
		t.Fatalf("got %v, want ErrAlreadyActivated", err)
	}
}

func TestClaim(t *testing.T) {
	custody := newStubCustody()
	custody.investments[alice] = usdc(500)
	l := activated(t, custody)

	got, err := l.Claim(context.Background(), alice)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if !got.Equal(usdc(500)) {
		t.Errorf("claimed: got %v, want 500 usdc", got)
	}
	if custody.disbursed[alice] != 500 {
		t.Errorf("disbursed: got %d, want 500", custody.disbursed[alice])
	}
	if !custody.claimed[alice] {
		t.Error("claim flag not set")
	}

	// Second claim pays nothing.
	if _, err := l.Claim(context.Background(), alice); !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("second claim: got %v, want ErrAlreadyClaimed", err)
	}
	if custody.disbursed[alice] != 500 {
		t.Errorf("double payment: %d", custody.disbursed[alice])
	}
}

func TestClaimNotActivated(t *testing.T) {
	l := NewLedger()
	l.Bind(newStubCustody(), vaultAccount)
	if _, err := l.Claim(context.Background(), alice); !errors.Is(err, ErrNotActivated) {
		t.Fatalf("got %v, want ErrNotActivated", err)
	}
}

func TestClaimNothingToRefund(t *testing.T) {
	l := activated(t, newStubCustody())
	if _, err := l.Claim(context.Background(), alice); !errors.Is(err, ErrNothingToRefund) {
		t.Fatalf("got %v, want ErrNothingToRefund", err)
	}
}

func TestClaimTransferFailureRollsBackFlag(t *testing.T) {
	custody := newStubCustody()
	custody.investments[alice] = usdc(500)
	custody.disburseErr = errors.New("simulated outage")
	l := activated(t, custody)

	if _, err := l.Claim(context.Background(), alice); err == nil {
		t.Fatal("expected claim failure")
	}
	if custody.claimed[alice] {
		t.Error("claim flag stuck after failed transfer")
	}

	// Retry succeeds once the transfer works again.
	custody.disburseErr = nil
	if _, err := l.Claim(context.Background(), alice); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if custody.disbursed[alice] != 500 {
		t.Errorf("disbursed: got %d, want 500", custody.disbursed[alice])
	}
}

// reentrantCustody calls back into the ledger from Disburse.
type reentrantCustody struct {
	*stubCustody
	ledger *Ledger
	nested error
}

func (c *reentrantCustody) Disburse(ctx context.Context, to types.Address, amount types.Amount) error {
	_, c.nested = c.ledger.Claim(ctx, to)
	return c.stubCustody.Disburse(ctx, to, amount)
}

func TestClaimReentrancyRejected(t *testing.T) {
	inner := newStubCustody()
	inner.investments[alice] = usdc(500)
	custody := &reentrantCustody{stubCustody: inner}

	l := NewLedger()
	l.Bind(custody, vaultAccount)
	if err := l.Activate(context.Background(), vaultAccount); err != nil {
		t.Fatal(err)
	}
	custody.ledger = l

	if _, err := l.Claim(context.Background(), alice); err != nil {
		t.Fatalf("outer claim: %v", err)
	}
	if !errors.Is(custody.nested, ErrReentrantCall) {
		t.Fatalf("nested claim: got %v, want ErrReentrantCall", custody.nested)
	}
	if inner.disbursed[alice] != 500 {
		t.Errorf("disbursed: got %d, want exactly 500", inner.disbursed[alice])
	}
}
