package escrow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/sto/asset"
	assetmem "github.com/xraph/sto/asset/memory"
	"github.com/xraph/sto/escrow"
	"github.com/xraph/sto/types"
)

var (
	controller = types.Addr("sto-controller")
	custody    = types.Addr("sto-escrow")
	treasury   = types.Addr("treasury")
	alice      = types.Addr("alice")
	bob        = types.Addr("bob")
)

func usdc(u int64) types.Amount { return types.NewAmount(u, "usdc") }
func st(u int64) types.Amount   { return types.NewAmount(u, "acme-st") }

// stubLedger records activations.
type stubLedger struct {
	activated int
	by        types.Address
	err       error
}

func (s *stubLedger) Activate(_ context.Context, caller types.Address) error {
	if s.err != nil {
		return s.err
	}
	s.activated++
	s.by = caller
	return nil
}

type fixture struct {
	vault   *escrow.Vault
	book    *assetmem.Book
	refunds *stubLedger
	minting *stubLedger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	book := assetmem.NewBook("usdc")
	refunds := &stubLedger{}
	minting := &stubLedger{}
	v := escrow.NewVault(escrow.Config{
		Account:         custody,
		Controller:      controller,
		Receiver:        treasury,
		InvestmentAsset: "usdc",
		SecurityAsset:   "acme-st",
		Mover:           book,
		Refunds:         refunds,
		Minting:         minting,
	})
	return &fixture{vault: v, book: book, refunds: refunds, minting: minting}
}

func (f *fixture) deposit(t *testing.T, investor types.Address, net, alloc int64) {
	t.Helper()
	f.book.Mint(controller, net)
	if err := f.vault.Deposit(context.Background(), controller, investor, usdc(net), st(alloc)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
}

func TestDeposit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.deposit(t, alice, 500, 50)
	f.deposit(t, bob, 1_000, 100)
	f.deposit(t, alice, 300, 30)

	if got := f.vault.Investment(alice); !got.Equal(usdc(800)) {
		t.Errorf("alice investment: got %v", got)
	}
	if got := f.vault.Allocation(alice); !got.Equal(st(80)) {
		t.Errorf("alice allocation: got %v", got)
	}
	if got := f.vault.TotalInvested(); !got.Equal(usdc(1_800)) {
		t.Errorf("total invested: got %v", got)
	}
	if got := f.vault.TotalAllocated(); !got.Equal(st(180)) {
		t.Errorf("total allocated: got %v", got)
	}

	// Registry preserves first-seen order without duplicates.
	investors := f.vault.Investors()
	if len(investors) != 2 || investors[0] != alice || investors[1] != bob {
		t.Errorf("registry: got %v", investors)
	}

	// Conservation: custody balance equals recorded total.
	bal, _ := f.book.Balance(ctx, custody)
	if bal.Units != f.vault.TotalInvested().Units {
		t.Errorf("custody %d != recorded %d", bal.Units, f.vault.TotalInvested().Units)
	}
}

func TestDepositUnauthorized(t *testing.T) {
	f := newFixture(t)
	err := f.vault.Deposit(context.Background(), alice, alice, usdc(100), st(10))
	if !errors.Is(err, escrow.ErrUnauthorized) {
		t.Fatalf("got %v, want ErrUnauthorized", err)
	}
}

func TestDepositAfterClose(t *testing.T) {
	f := newFixture(t)
	if err := f.vault.Close(false, true); err != nil {
		t.Fatal(err)
	}
	err := f.vault.Deposit(context.Background(), controller, alice, usdc(100), st(10))
	if !errors.Is(err, escrow.ErrOfferingClosed) {
		t.Fatalf("got %v, want ErrOfferingClosed", err)
	}
}

func TestDepositTransferFailure(t *testing.T) {
	f := newFixture(t)
	// Controller holds nothing, so the move fails.
	err := f.vault.Deposit(context.Background(), controller, alice, usdc(100), st(10))
	if !errors.Is(err, escrow.ErrTransferFailed) {
		t.Fatalf("got %v, want ErrTransferFailed", err)
	}
	if !errors.Is(err, asset.ErrInsufficientBalance) && err == nil {
		t.Fatal("expected a failure cause")
	}
	// No phantom credit.
	if !f.vault.Investment(alice).IsZero() {
		t.Error("bookkeeping mutated after failed transfer")
	}
	if len(f.vault.Investors()) != 0 {
		t.Error("registry mutated after failed transfer")
	}
}

func TestClose(t *testing.T) {
	f := newFixture(t)

	if err := f.vault.Close(false, false); !errors.Is(err, escrow.ErrInvalidClose) {
		t.Fatalf("got %v, want ErrInvalidClose", err)
	}
	if err := f.vault.Close(true, false); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !f.vault.IsClosed() {
		t.Error("vault not closed")
	}
	if err := f.vault.Close(true, true); !errors.Is(err, escrow.ErrAlreadyClosed) {
		t.Fatalf("got %v, want ErrAlreadyClosed", err)
	}
}

func TestFinalizeBeforeClose(t *testing.T) {
	f := newFixture(t)
	if err := f.vault.Finalize(context.Background(), true); !errors.Is(err, escrow.ErrNotClosed) {
		t.Fatalf("got %v, want ErrNotClosed", err)
	}
}

func TestFinalizeSoftCapReached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.deposit(t, alice, 100_000, 10_000)

	if err := f.vault.Close(false, true); err != nil {
		t.Fatal(err)
	}
	if err := f.vault.Finalize(ctx, true); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	if !f.vault.IsFinalized() || !f.vault.IsSoftCapReached() {
		t.Error("finalize latches not set")
	}
	if f.minting.activated != 1 || f.refunds.activated != 0 {
		t.Errorf("activation: minting=%d refunds=%d", f.minting.activated, f.refunds.activated)
	}
	if f.minting.by != custody {
		t.Errorf("activated by %s, want custody account", f.minting.by)
	}

	// Entire custody balance released to the receiver.
	bal, _ := f.book.Balance(ctx, treasury)
	if bal.Units != 100_000 {
		t.Errorf("treasury: got %d, want 100000", bal.Units)
	}
	if !f.vault.FundsReleased() {
		t.Error("funds not marked released")
	}

	if err := f.vault.Finalize(ctx, true); !errors.Is(err, escrow.ErrAlreadyFinalized) {
		t.Fatalf("got %v, want ErrAlreadyFinalized", err)
	}
}

func TestFinalizeSoftCapMissed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.deposit(t, alice, 500, 50)

	if err := f.vault.Close(false, true); err != nil {
		t.Fatal(err)
	}
	if err := f.vault.Finalize(ctx, false); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	// Mutual exclusivity: refunds only, funds stay in custody.
	if f.refunds.activated != 1 || f.minting.activated != 0 {
		t.Errorf("activation: refunds=%d minting=%d", f.refunds.activated, f.minting.activated)
	}
	if f.vault.MintingInitialized() {
		t.Error("minting latch set on failed raise")
	}
	if !f.vault.RefundsInitialized() {
		t.Error("refunds latch not set")
	}
	bal, _ := f.book.Balance(ctx, custody)
	if bal.Units != 500 {
		t.Errorf("custody drained on failed raise: %d", bal.Units)
	}
}

// failingMover wraps a Book and fails Move for a specific destination.
type failingMover struct {
	*assetmem.Book
	failTo types.Address
}

func (m *failingMover) Move(ctx context.Context, from, to types.Address, amount types.Amount) error {
	if to == m.failTo {
		return errors.New("simulated outage")
	}
	return m.Book.Move(ctx, from, to, amount)
}

func TestFinalizeReleaseFailureIsRecoverable(t *testing.T) {
	ctx := context.Background()
	book := assetmem.NewBook("usdc")
	mover := &failingMover{Book: book, failTo: treasury}
	minting := &stubLedger{}
	v := escrow.NewVault(escrow.Config{
		Account:         custody,
		Controller:      controller,
		Receiver:        treasury,
		InvestmentAsset: "usdc",
		SecurityAsset:   "acme-st",
		Mover:           mover,
		Refunds:         &stubLedger{},
		Minting:         minting,
	})

	book.Mint(controller, 100_000)
	if err := v.Deposit(ctx, controller, alice, usdc(100_000), st(10_000)); err != nil {
		t.Fatal(err)
	}
	if err := v.Close(true, false); err != nil {
		t.Fatal(err)
	}

	err := v.Finalize(ctx, true)
	if !errors.Is(err, escrow.ErrReleaseFailed) {
		t.Fatalf("got %v, want ErrReleaseFailed", err)
	}
	// The finalize latch must survive the failed release.
	if !v.IsFinalized() || !v.MintingInitialized() {
		t.Error("finalize state rolled back on release failure")
	}
	if v.FundsReleased() {
		t.Error("funds marked released after failed transfer")
	}

	// Recovery: fix the outage, retry the release.
	mover.failTo = types.ZeroAddress
	if err := v.ReleaseFunds(ctx); err != nil {
		t.Fatalf("release retry: %v", err)
	}
	bal, _ := book.Balance(ctx, treasury)
	if bal.Units != 100_000 {
		t.Errorf("treasury: got %d, want 100000", bal.Units)
	}
	// Second retry is a no-op.
	if err := v.ReleaseFunds(ctx); err != nil {
		t.Fatalf("idempotent release: %v", err)
	}
}

func TestReleaseFundsBeforeFinalize(t *testing.T) {
	f := newFixture(t)
	if err := f.vault.ReleaseFunds(context.Background()); !errors.Is(err, escrow.ErrNotFinalized) {
		t.Fatalf("got %v, want ErrNotFinalized", err)
	}
}

// reentrantMover calls back into the vault mid-move.
type reentrantMover struct {
	*assetmem.Book
	vault  *escrow.Vault
	rptErr error
}

func (m *reentrantMover) Move(ctx context.Context, from, to types.Address, amount types.Amount) error {
	m.rptErr = m.vault.Deposit(ctx, controller, bob, usdc(1), st(1))
	return m.Book.Move(ctx, from, to, amount)
}

func TestDepositReentrancyRejected(t *testing.T) {
	ctx := context.Background()
	book := assetmem.NewBook("usdc")
	mover := &reentrantMover{Book: book}
	v := escrow.NewVault(escrow.Config{
		Account:         custody,
		Controller:      controller,
		Receiver:        treasury,
		InvestmentAsset: "usdc",
		SecurityAsset:   "acme-st",
		Mover:           mover,
		Refunds:         &stubLedger{},
		Minting:         &stubLedger{},
	})
	mover.vault = v

	book.Mint(controller, 1_000)
	if err := v.Deposit(ctx, controller, alice, usdc(500), st(50)); err != nil {
		t.Fatalf("outer deposit: %v", err)
	}
	if !errors.Is(mover.rptErr, escrow.ErrReentrantCall) {
		t.Fatalf("nested deposit: got %v, want ErrReentrantCall", mover.rptErr)
	}
	// Only the outer deposit is recorded.
	if got := v.TotalInvested(); !got.Equal(usdc(500)) {
		t.Errorf("total invested: got %v", got)
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.deposit(t, alice, 800, 80)
	f.deposit(t, bob, 200, 20)
	if err := f.vault.Close(false, true); err != nil {
		t.Fatal(err)
	}

	st1 := f.vault.State()

	restored := escrow.NewVault(escrow.Config{
		Account:         custody,
		Controller:      controller,
		Receiver:        treasury,
		InvestmentAsset: "usdc",
		SecurityAsset:   "acme-st",
		Mover:           f.book,
		Refunds:         &stubLedger{},
		Minting:         &stubLedger{},
	})
	restored.Restore(st1)

	if !restored.IsClosed() {
		t.Error("closed latch lost")
	}
	if got := restored.TotalInvested(); !got.Equal(usdc(1_000)) {
		t.Errorf("total invested: got %v", got)
	}
	investors := restored.Investors()
	if len(investors) != 2 || investors[0] != alice {
		t.Errorf("registry order lost: %v", investors)
	}
}
