package corpus

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "corpus.db"))
	if err != nil {
		t.Fatalf("opening store: %s", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPutGetRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	in := Sample{
		Assembly:  "000 literal u32:1\n001 literal u32:0\n002 div",
		SlotCount: 2,
		Outcome:   "internal error",
		Detail:    "division by zero: u32:1 / u32:0",
	}
	id, err := store.Put(ctx, in)
	if err != nil {
		t.Fatalf("put: %s", err)
	}
	if id == "" {
		t.Fatalf("put must assign an ID")
	}

	out, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %s", err)
	}
	if out.Assembly != in.Assembly || out.SlotCount != in.SlotCount ||
		out.Outcome != in.Outcome || out.Detail != in.Detail {
		t.Errorf("sample did not round-trip: %+v", out)
	}
	if out.CreatedAt.IsZero() {
		t.Errorf("created_at not persisted")
	}
}

func TestPutKeepsExplicitID(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	id, err := store.Put(ctx, Sample{ID: "fixed-id", Assembly: "000 literal u1:1", Outcome: OutcomeOK})
	if err != nil {
		t.Fatalf("put: %s", err)
	}
	if id != "fixed-id" {
		t.Errorf("put rewrote the ID: %q", id)
	}
	if _, err := store.Put(ctx, Sample{ID: "fixed-id", Assembly: "dup", Outcome: OutcomeOK}); err == nil {
		t.Errorf("duplicate ID must be rejected")
	}
}

func TestGetMissing(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.Get(context.Background(), "no-such-id"); err == nil {
		t.Fatalf("expected an error for a missing sample")
	}
}

func TestListFiltersByOutcome(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	samples := []Sample{
		{Assembly: "a", Outcome: OutcomeOK, CreatedAt: base},
		{Assembly: "b", Outcome: "assertion failure", CreatedAt: base.Add(time.Second)},
		{Assembly: "c", Outcome: "assertion failure", CreatedAt: base.Add(2 * time.Second)},
		{Assembly: "d", Outcome: "internal error", CreatedAt: base.Add(3 * time.Second)},
	}
	for _, sample := range samples {
		if _, err := store.Put(ctx, sample); err != nil {
			t.Fatalf("put: %s", err)
		}
	}

	failures, err := store.List(ctx, "assertion failure", 10)
	if err != nil {
		t.Fatalf("list: %s", err)
	}
	if len(failures) != 2 {
		t.Fatalf("listed %d samples, want 2", len(failures))
	}
	// Newest first.
	if failures[0].Assembly != "c" || failures[1].Assembly != "b" {
		t.Errorf("wrong order: %q, %q", failures[0].Assembly, failures[1].Assembly)
	}

	all, err := store.List(ctx, "", 10)
	if err != nil {
		t.Fatalf("list all: %s", err)
	}
	if len(all) != 4 {
		t.Errorf("listed %d samples, want 4", len(all))
	}

	limited, err := store.List(ctx, "", 2)
	if err != nil {
		t.Fatalf("list limited: %s", err)
	}
	if len(limited) != 2 {
		t.Errorf("limit ignored: got %d samples", len(limited))
	}
}

func TestCountByOutcome(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, outcome := range []string{OutcomeOK, OutcomeOK, "internal error"} {
		if _, err := store.Put(ctx, Sample{Assembly: "x", Outcome: outcome}); err != nil {
			t.Fatalf("put: %s", err)
		}
	}
	counts, err := store.CountByOutcome(ctx)
	if err != nil {
		t.Fatalf("count: %s", err)
	}
	if counts[OutcomeOK] != 2 || counts["internal error"] != 1 {
		t.Errorf("counts = %v", counts)
	}
}
