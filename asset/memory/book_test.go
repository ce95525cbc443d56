package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/sto/asset"
	"github.com/xraph/sto/types"
)

func TestMove(t *testing.T) {
	ctx := context.Background()
	b := NewBook("usdc")
	b.Mint(types.Addr("alice"), 1000)

	if err := b.Move(ctx, types.Addr("alice"), types.Addr("bob"), types.NewAmount(400, "usdc")); err != nil {
		t.Fatalf("move: %v", err)
	}

	got, _ := b.Balance(ctx, types.Addr("alice"))
	if got.Units != 600 {
		t.Errorf("alice: got %d, want 600", got.Units)
	}
	got, _ = b.Balance(ctx, types.Addr("bob"))
	if got.Units != 400 {
		t.Errorf("bob: got %d, want 400", got.Units)
	}
}

func TestMoveInsufficient(t *testing.T) {
	ctx := context.Background()
	b := NewBook("usdc")
	b.Mint(types.Addr("alice"), 100)

	err := b.Move(ctx, types.Addr("alice"), types.Addr("bob"), types.NewAmount(101, "usdc"))
	if !errors.Is(err, asset.ErrInsufficientBalance) {
		t.Fatalf("got %v, want ErrInsufficientBalance", err)
	}

	// Failed move leaves both balances unchanged.
	got, _ := b.Balance(ctx, types.Addr("alice"))
	if got.Units != 100 {
		t.Errorf("alice mutated on failed move: %d", got.Units)
	}
	got, _ = b.Balance(ctx, types.Addr("bob"))
	if got.Units != 0 {
		t.Errorf("bob credited on failed move: %d", got.Units)
	}
}

func TestMoveWrongAsset(t *testing.T) {
	b := NewBook("usdc")
	err := b.Move(context.Background(), types.Addr("a"), types.Addr("b"), types.NewAmount(1, "acme-st"))
	if err == nil {
		t.Fatal("expected error for wrong asset")
	}
}

func TestIssue(t *testing.T) {
	ctx := context.Background()
	b := NewBook("acme-st")

	if err := b.Issue(ctx, types.Addr("carol"), types.NewAmount(10_000, "acme-st")); err != nil {
		t.Fatalf("issue: %v", err)
	}
	got, _ := b.Balance(ctx, types.Addr("carol"))
	if got.Units != 10_000 {
		t.Errorf("carol: got %d, want 10000", got.Units)
	}
}
