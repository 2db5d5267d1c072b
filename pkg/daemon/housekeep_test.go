package daemon

import (
	"context"
	"testing"
	"time"

	"github.com/vfscore/vfscore/pkg/blob"
)

type fakeSweeper struct {
	removed int
	calls   int
}

func (f *fakeSweeper) SweepSessions() int {
	f.calls++
	return f.removed
}

func TestHousekeepReclaimsOrphansAndSweepsSessions(t *testing.T) {
	store := blob.New(nil)
	id, err := store.Put([]byte("orphan"), nil)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.ReleaseRef(id); err != nil {
		t.Fatalf("release: %v", err)
	}

	sweeper := &fakeSweeper{removed: 3}
	Housekeep(nil, store, sweeper)

	if sweeper.calls != 1 {
		t.Fatalf("expected SweepSessions to be called once, got %d", sweeper.calls)
	}
	if count, err := store.RefCount(id); err == nil {
		t.Fatalf("expected orphaned blob to be reclaimed, still found with ref count %d", count)
	}
}

func TestHousekeepRegularlyStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		HousekeepRegularly(ctx, nil, blob.New(nil), &fakeSweeper{})
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected HousekeepRegularly to return after cancellation")
	}
}
