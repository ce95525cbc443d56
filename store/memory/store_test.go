package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/sto"
	"github.com/xraph/sto/escrow"
	"github.com/xraph/sto/id"
	"github.com/xraph/sto/journal"
	"github.com/xraph/sto/offering"
	"github.com/xraph/sto/types"
)

func usdc(u int64) types.Amount { return types.NewAmount(u, "usdc") }
func st(u int64) types.Amount   { return types.NewAmount(u, "acme-st") }

func TestOfferingRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()
	offID := id.NewOfferingID()

	if _, err := s.GetOffering(ctx, offID); !errors.Is(err, sto.ErrOfferingNotFound) {
		t.Fatalf("got %v, want ErrOfferingNotFound", err)
	}

	snap := &offering.Snapshot{
		Entity:     types.NewEntity(),
		ID:         offID,
		TokensSold: st(500),
		Closed:     true,
	}
	if err := s.SaveOffering(ctx, snap); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetOffering(ctx, offID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.TokensSold.Equal(st(500)) || !got.Closed {
		t.Errorf("snapshot not preserved: %+v", got)
	}

	// Mutating the returned copy must not touch the stored value.
	got.Closed = false
	again, _ := s.GetOffering(ctx, offID)
	if !again.Closed {
		t.Error("stored snapshot mutated through returned copy")
	}
}

func TestInvestorUpsertAndList(t *testing.T) {
	ctx := context.Background()
	s := New()
	offID := id.NewOfferingID()

	if _, err := s.GetInvestor(ctx, offID, types.Addr("alice")); !errors.Is(err, sto.ErrInvestorNotFound) {
		t.Fatalf("got %v, want ErrInvestorNotFound", err)
	}

	// Insert out of position order; List must return position order.
	for _, rec := range []*escrow.InvestorRecord{
		{Entity: types.NewEntity(), Address: types.Addr("carol"), Invested: usdc(300), Allocation: st(30), Position: 2},
		{Entity: types.NewEntity(), Address: types.Addr("alice"), Invested: usdc(100), Allocation: st(10), Position: 0},
		{Entity: types.NewEntity(), Address: types.Addr("bob"), Invested: usdc(200), Allocation: st(20), Position: 1},
	} {
		if err := s.UpsertInvestor(ctx, offID, rec); err != nil {
			t.Fatal(err)
		}
	}

	recs, err := s.ListInvestors(ctx, offID)
	if err != nil {
		t.Fatal(err)
	}
	want := []types.Address{"alice", "bob", "carol"}
	if len(recs) != len(want) {
		t.Fatalf("got %d investors, want %d", len(recs), len(want))
	}
	for i, addr := range want {
		if recs[i].Address != addr {
			t.Errorf("position %d: got %s, want %s", i, recs[i].Address, addr)
		}
	}

	// Upsert overwrites in place.
	if err := s.UpsertInvestor(ctx, offID, &escrow.InvestorRecord{
		Address: types.Addr("alice"), Invested: usdc(150), Allocation: st(15), Position: 0,
	}); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetInvestor(ctx, offID, types.Addr("alice"))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Invested.Equal(usdc(150)) {
		t.Errorf("upsert did not overwrite: %v", got.Invested)
	}
}

func TestJournalFilters(t *testing.T) {
	ctx := context.Background()
	s := New()
	offID := id.NewOfferingID()
	other := id.NewOfferingID()
	now := time.Now()

	deposit := journal.New(offID, journal.KindDeposit, now)
	deposit.Investor = types.Addr("alice")
	closed := journal.New(offID, journal.KindClosed, now)
	foreign := journal.New(other, journal.KindDeposit, now)

	for _, e := range []*journal.Entry{deposit, closed, foreign} {
		if err := s.AppendEvent(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	all, err := s.ListEvents(ctx, offID, journal.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d events, want 2", len(all))
	}

	deposits, _ := s.ListEvents(ctx, offID, journal.ListOpts{Kind: journal.KindDeposit})
	if len(deposits) != 1 || deposits[0].Investor != types.Addr("alice") {
		t.Errorf("kind filter failed: %+v", deposits)
	}

	byInvestor, _ := s.ListEvents(ctx, offID, journal.ListOpts{Investor: types.Addr("alice")})
	if len(byInvestor) != 1 {
		t.Errorf("investor filter failed: %+v", byInvestor)
	}

	limited, _ := s.ListEvents(ctx, offID, journal.ListOpts{Limit: 1})
	if len(limited) != 1 || limited[0].Kind != journal.KindDeposit {
		t.Errorf("limit failed: %+v", limited)
	}

	offset, _ := s.ListEvents(ctx, offID, journal.ListOpts{Offset: 1})
	if len(offset) != 1 || offset[0].Kind != journal.KindClosed {
		t.Errorf("offset failed: %+v", offset)
	}

	past, _ := s.ListEvents(ctx, offID, journal.ListOpts{Offset: 10})
	if len(past) != 0 {
		t.Errorf("offset past end should be empty: %+v", past)
	}
}

func TestLifecycleNoOps(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.Migrate(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Ping(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
}
