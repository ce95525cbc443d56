// Package memory provides an in-memory asset book for development and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/xraph/sto/asset"
	"github.com/xraph/sto/types"
)

// Book is a mutex-guarded balance map implementing asset.Mover and
// asset.Issuer for one asset code.
type Book struct {
	mu       sync.RWMutex
	asset    string
	balances map[types.Address]int64
}

var (
	_ asset.Mover  = (*Book)(nil)
	_ asset.Issuer = (*Book)(nil)
)

// NewBook creates an empty book for the given asset code.
func NewBook(assetCode string) *Book {
	return &Book{
		asset:    assetCode,
		balances: make(map[types.Address]int64),
	}
}

// Mint credits an account out of thin air. Test setup helper.
func (b *Book) Mint(holder types.Address, units int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[holder] += units
}

// Move transfers amount from one account to another atomically.
func (b *Book) Move(_ context.Context, from, to types.Address, amount types.Amount) error {
	if amount.Asset != b.asset {
		return fmt.Errorf("asset/memory: wrong asset %q for %q book", amount.Asset, b.asset)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("asset/memory: non-positive move of %v", amount)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.balances[from] < amount.Units {
		return fmt.Errorf("asset/memory: move %v from %s: %w", amount, from, asset.ErrInsufficientBalance)
	}
	b.balances[from] -= amount.Units
	b.balances[to] += amount.Units
	return nil
}

// Balance returns the holder's current balance.
func (b *Book) Balance(_ context.Context, holder types.Address) (types.Amount, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return types.NewAmount(b.balances[holder], b.asset), nil
}

// Issue credits newly created units to the recipient.
func (b *Book) Issue(_ context.Context, to types.Address, amount types.Amount) error {
	if amount.Asset != b.asset {
		return fmt.Errorf("asset/memory: wrong asset %q for %q book", amount.Asset, b.asset)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("asset/memory: non-positive issuance of %v", amount)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[to] += amount.Units
	return nil
}
