package plugin

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

// recorder implements the deposit and finalize hooks only.
type recorder struct {
	name      string
	deposits  atomic.Int64
	finalized atomic.Bool
	fail      bool
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) OnDepositRecorded(_ context.Context, _ string, invested, _ int64) error {
	if r.fail {
		return errors.New("boom")
	}
	r.deposits.Add(invested)
	return nil
}

func (r *recorder) OnOfferingFinalized(_ context.Context, softCapReached bool) error {
	r.finalized.Store(softCapReached)
	return nil
}

func TestRegisterAndDispatch(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry()

	rec := &recorder{name: "recorder"}
	if err := reg.Register(rec); err != nil {
		t.Fatal(err)
	}
	if reg.Count() != 1 {
		t.Fatalf("count: got %d, want 1", reg.Count())
	}
	if reg.Get("recorder") != rec {
		t.Error("Get did not return the registered plugin")
	}
	if reg.Get("missing") != nil {
		t.Error("Get returned a plugin for an unknown name")
	}

	reg.EmitDepositRecorded(ctx, "alice", 1_000, 100)
	reg.EmitDepositRecorded(ctx, "bob", 500, 50)
	if got := rec.deposits.Load(); got != 1_500 {
		t.Errorf("deposits: got %d, want 1500", got)
	}

	reg.EmitOfferingFinalized(ctx, true)
	if !rec.finalized.Load() {
		t.Error("finalized hook not dispatched")
	}

	// Hooks the plugin does not implement are no-ops.
	reg.EmitRefundClaimed(ctx, "alice", 1_000)
	reg.EmitShutdown(ctx)
}

func TestRegisterDuplicate(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(&recorder{name: "dup"}); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(&recorder{name: "dup"}); err == nil {
		t.Fatal("duplicate registration accepted")
	}
}

func TestEmitSurvivesFailingPlugin(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry()

	bad := &recorder{name: "bad", fail: true}
	good := &recorder{name: "good"}
	if err := reg.Register(bad); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(good); err != nil {
		t.Fatal(err)
	}

	// The failing plugin is logged and skipped; later plugins still run.
	reg.EmitDepositRecorded(ctx, "alice", 700, 70)
	if got := good.deposits.Load(); got != 700 {
		t.Errorf("good plugin not dispatched after failure: got %d", got)
	}
}
