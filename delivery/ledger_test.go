package delivery

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/sto/types"
)

var (
	vaultAccount = types.Addr("sto-escrow")
	alice        = types.Addr("alice")
	bob          = types.Addr("bob")
	carol        = types.Addr("carol")
)

func st(u int64) types.Amount { return types.NewAmount(u, "acme-st") }

type stubAllocations struct {
	allocations map[types.Address]types.Amount
	claimed     map[types.Address]bool
}

func newStubAllocations() *stubAllocations {
	return &stubAllocations{
		allocations: make(map[types.Address]types.Amount),
		claimed:     make(map[types.Address]bool),
	}
}

func (s *stubAllocations) Allocation(addr types.Address) types.Amount {
	if a, ok := s.allocations[addr]; ok {
		return a
	}
	return st(0)
}

func (s *stubAllocations) TokensClaimed(addr types.Address) bool { return s.claimed[addr] }

func (s *stubAllocations) SetTokensClaimed(addr types.Address, claimed bool) {
	s.claimed[addr] = claimed
}

type stubIssuer struct {
	issued  map[types.Address]int64
	failFor types.Address
}

func newStubIssuer() *stubIssuer { return &stubIssuer{issued: make(map[types.Address]int64)} }

func (s *stubIssuer) Issue(_ context.Context, to types.Address, amount types.Amount) error {
	if to == s.failFor {
		return errors.New("simulated issuance outage")
	}
	s.issued[to] += amount.Units
	return nil
}

func activated(t *testing.T, allocs *stubAllocations, issuer *stubIssuer) *Ledger {
	t.Helper()
	l := NewLedger(issuer, nil)
	l.Bind(allocs, vaultAccount)
	if err := l.Activate(context.Background(), vaultAccount); err != nil {
		t.Fatalf("activate: %v", err)
	}
	return l
}

func TestActivate(t *testing.T) {
	l := NewLedger(newStubIssuer(), nil)

	if err := l.Activate(context.Background(), vaultAccount); !errors.Is(err, ErrNotBound) {
		t.Fatalf("got %v, want ErrNotBound", err)
	}

	l.Bind(newStubAllocations(), vaultAccount)
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

func TestDeliver(t *testing.T) {
	allocs := newStubAllocations()
	allocs.allocations[alice] = st(10_000)
	issuer := newStubIssuer()
	l := activated(t, allocs, issuer)

	got, err := l.Deliver(context.Background(), alice)
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if !got.Equal(st(10_000)) {
		t.Errorf("delivered: got %v, want 10000 acme-st", got)
	}
	if issuer.issued[alice] != 10_000 {
		t.Errorf("issued: got %d, want 10000", issuer.issued[alice])
	}

	// One-shot: a second delivery fails and issues nothing.
	if _, err := l.Deliver(context.Background(), alice); !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("second deliver: got %v, want ErrAlreadyClaimed", err)
	}
	if issuer.issued[alice] != 10_000 {
		t.Errorf("double issuance: %d", issuer.issued[alice])
	}
}

func TestDeliverNotActivated(t *testing.T) {
	l := NewLedger(newStubIssuer(), nil)
	l.Bind(newStubAllocations(), vaultAccount)
	if _, err := l.Deliver(context.Background(), alice); !errors.Is(err, ErrNotActivated) {
		t.Fatalf("got %v, want ErrNotActivated", err)
	}
}

func TestDeliverNothingAllocated(t *testing.T) {
	l := activated(t, newStubAllocations(), newStubIssuer())
	if _, err := l.Deliver(context.Background(), alice); !errors.Is(err, ErrNothingAllocated) {
		t.Fatalf("got %v, want ErrNothingAllocated", err)
	}
}

func TestDeliverIssuanceFailureRetryable(t *testing.T) {
	allocs := newStubAllocations()
	allocs.allocations[alice] = st(100)
	issuer := newStubIssuer()
	issuer.failFor = alice
	l := activated(t, allocs, issuer)

	if _, err := l.Deliver(context.Background(), alice); !errors.Is(err, ErrIssuanceFailed) {
		t.Fatalf("got %v, want ErrIssuanceFailed", err)
	}
	if allocs.claimed[alice] {
		t.Error("claim flag stuck after failed issuance")
	}

	issuer.failFor = types.ZeroAddress
	if _, err := l.Deliver(context.Background(), alice); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if issuer.issued[alice] != 100 {
		t.Errorf("issued: got %d, want 100", issuer.issued[alice])
	}
}

func TestBatchDeliverSkipAndContinue(t *testing.T) {
	allocs := newStubAllocations()
	allocs.allocations[alice] = st(100)
	allocs.allocations[bob] = st(200)
	allocs.allocations[carol] = st(300)
	allocs.claimed[alice] = true // already delivered earlier
	issuer := newStubIssuer()
	issuer.failFor = bob
	l := activated(t, allocs, issuer)

	res, err := l.BatchDeliver(context.Background(), []types.Address{alice, bob, carol, types.Addr("nobody")})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}

	if len(res.Delivered) != 1 || res.Delivered[0] != carol {
		t.Errorf("delivered: got %v, want [carol]", res.Delivered)
	}
	if res.Skipped != 2 { // alice already claimed, nobody has no allocation
		t.Errorf("skipped: got %d, want 2", res.Skipped)
	}
	if _, ok := res.Failed[bob]; !ok {
		t.Error("bob's issuance failure not recorded")
	}
	if issuer.issued[carol] != 300 {
		t.Errorf("carol issued: got %d, want 300", issuer.issued[carol])
	}

	// Bob stays retryable individually after the batch.
	issuer.failFor = types.ZeroAddress
	if _, err := l.Deliver(context.Background(), bob); err != nil {
		t.Fatalf("bob retry: %v", err)
	}
}

func TestBatchDeliverNotActivated(t *testing.T) {
	l := NewLedger(newStubIssuer(), nil)
	l.Bind(newStubAllocations(), vaultAccount)
	if _, err := l.BatchDeliver(context.Background(), nil); !errors.Is(err, ErrNotActivated) {
		t.Fatalf("got %v, want ErrNotActivated", err)
	}
}
