package session

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)}
	store := NewStore(MultiCompanyProfile(), ttl, zaptest.NewLogger(t))
	store.now = clock.Now
	t.Cleanup(store.Stop)
	return store, clock
}

func TestStoreGetOrCreate(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)

	sess, created := store.GetOrCreate("")
	if !created || sess.ID() == "" {
		t.Fatalf("GetOrCreate(\"\") = %q, %v; want new session", sess.ID(), created)
	}

	again, created := store.GetOrCreate(sess.ID())
	if created || again != sess {
		t.Errorf("GetOrCreate(existing) created a new session")
	}

	other, created := store.GetOrCreate("unknown")
	if !created || other.ID() == "unknown" {
		t.Errorf("GetOrCreate(unknown) should mint a fresh id, got %q", other.ID())
	}
	if store.Len() != 2 {
		t.Errorf("Len() = %d, want 2", store.Len())
	}
}

func TestStoreSessionsAreIndependent(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	a := store.Create()
	b := store.Create()

	a.UpdateDraft(fullDraft("U1"))
	if err := a.AddDraft(); err != nil {
		t.Fatalf("AddDraft() error = %v", err)
	}
	if b.Len() != 0 {
		t.Errorf("b.Len() = %d, want 0", b.Len())
	}
}

func TestStoreExpiry(t *testing.T) {
	store, clock := newTestStore(t, 10*time.Minute)
	sess := store.Create()

	clock.Advance(9 * time.Minute)
	if _, ok := store.Get(sess.ID()); !ok {
		t.Fatal("session expired before its TTL")
	}

	// Get refreshed the idle timer.
	clock.Advance(9 * time.Minute)
	if _, ok := store.Get(sess.ID()); !ok {
		t.Fatal("session expired although it was used")
	}

	clock.Advance(11 * time.Minute)
	if _, ok := store.Get(sess.ID()); ok {
		t.Fatal("Get() returned an expired session")
	}

	store.cleanup()
	if store.Len() != 0 {
		t.Errorf("Len() after cleanup = %d, want 0", store.Len())
	}
}

func TestStoreZeroTTLNeverExpires(t *testing.T) {
	store, clock := newTestStore(t, 0)
	sess := store.Create()

	clock.Advance(1000 * time.Hour)
	store.cleanup()
	if _, ok := store.Get(sess.ID()); !ok {
		t.Error("session expired with expiry disabled")
	}
}

func TestStoreStopIsIdempotent(t *testing.T) {
	store := NewStore(SingleCompanyProfile(), time.Minute, zaptest.NewLogger(t))
	store.Stop()
	store.Stop()
}
