package session

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/marketd/marketd/internal/id"
	"github.com/marketd/marketd/pkg/market"
	"github.com/marketd/marketd/pkg/seed"
)

func newTestManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	return NewManager(seed.NewRunner(nil), opts...)
}

func TestManager_Create_GeneratedID(t *testing.T) {
	m := newTestManager(t)

	info, report, err := m.Create("")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !id.IsSessionID(info.ID) {
		t.Errorf("generated id %q is not well-formed", info.ID)
	}
	if report == nil || !report.Success {
		t.Fatal("new session has no successful seed report")
	}
	if report.Counts[market.TableListings] != 52 {
		t.Errorf("seeded listings = %d, want 52", report.Counts[market.TableListings])
	}
	if info.CreatedAt.IsZero() || info.LastUsed.IsZero() {
		t.Error("timestamps not set")
	}
}

func TestManager_Create_SameIDSharesStore(t *testing.T) {
	m := newTestManager(t)

	first, report1, err := m.Create("shared-suite")
	if err != nil {
		t.Fatal(err)
	}
	if report1 == nil {
		t.Fatal("first create did not provision")
	}

	second, report2, err := m.Create("shared-suite")
	if err != nil {
		t.Fatal(err)
	}
	if report2 != nil {
		t.Error("second create re-provisioned an existing session")
	}
	if first.ID != second.ID {
		t.Errorf("ids differ: %s vs %s", first.ID, second.ID)
	}
	if m.Count() != 1 {
		t.Errorf("count = %d, want 1", m.Count())
	}

	// A write through one handle is visible through the other.
	store1, err := m.Resolve("shared-suite")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store1.DeactivateListing("SELLER001", "LAPTOP-001"); err != nil {
		t.Fatal(err)
	}
	store2, err := m.Resolve("shared-suite")
	if err != nil {
		t.Fatal(err)
	}
	l, err := store2.GetListing("SELLER001", "LAPTOP-001")
	if err != nil {
		t.Fatal(err)
	}
	if l.Status != market.StatusInactive {
		t.Error("write through the first handle is invisible through the second")
	}
}

func TestManager_SessionsAreIsolated(t *testing.T) {
	m := newTestManager(t)

	if _, _, err := m.Create("side-a"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := m.Create("side-b"); err != nil {
		t.Fatal(err)
	}

	storeA, err := m.Resolve("side-a")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := storeA.PatchListing("SELLER001", "LAPTOP-001", []market.PatchOp{
		{Op: market.OpReplace, Path: "price", Value: 1.00},
	}); err != nil {
		t.Fatal(err)
	}

	storeB, err := m.Resolve("side-b")
	if err != nil {
		t.Fatal(err)
	}
	l, err := storeB.GetListing("SELLER001", "LAPTOP-001")
	if err != nil {
		t.Fatal(err)
	}
	if p, _ := l.AttrNumber(market.AttrPrice); p != 1299.99 {
		t.Errorf("write in session a leaked into session b: price = %v", p)
	}
}

func TestManager_Resolve_Unknown(t *testing.T) {
	m := newTestManager(t)

	_, err := m.Resolve("session_0000000000000000")
	var snf *market.SessionNotFoundError
	if !errors.As(err, &snf) {
		t.Fatalf("expected SessionNotFoundError, got %v", err)
	}
	if snf.ID != "session_0000000000000000" {
		t.Errorf("error id = %q", snf.ID)
	}
}

func TestManager_Destroy(t *testing.T) {
	m := newTestManager(t)

	info, _, err := m.Create("")
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Destroy(info.ID); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if _, err := m.Resolve(info.ID); err == nil {
		t.Error("resolved a destroyed session")
	}

	var snf *market.SessionNotFoundError
	if err := m.Destroy(info.ID); !errors.As(err, &snf) {
		t.Errorf("second destroy: expected SessionNotFoundError, got %v", err)
	}
}

func TestManager_Create_RejectsOversizedID(t *testing.T) {
	m := newTestManager(t)

	long := make([]byte, maxIDLength+1)
	for i := range long {
		long[i] = 'a'
	}
	_, _, err := m.Create(string(long))
	var ve *market.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestManager_List(t *testing.T) {
	m := newTestManager(t)

	for _, sid := range []string{"run-1", "run-2", "run-3"} {
		if _, _, err := m.Create(sid); err != nil {
			t.Fatal(err)
		}
	}

	infos := m.List()
	if len(infos) != 3 {
		t.Fatalf("list has %d sessions, want 3", len(infos))
	}
	for i := 1; i < len(infos); i++ {
		if infos[i].CreatedAt.Before(infos[i-1].CreatedAt) {
			t.Error("list not ordered oldest first")
		}
	}
}

func TestManager_Cleanup(t *testing.T) {
	m := newTestManager(t, WithTTL(10*time.Millisecond))

	if _, _, err := m.Create("stale"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(25 * time.Millisecond)
	if _, _, err := m.Create("fresh"); err != nil {
		t.Fatal(err)
	}

	if removed := m.Cleanup(); removed != 1 {
		t.Errorf("cleanup removed %d sessions, want 1", removed)
	}
	if _, err := m.Resolve("stale"); err == nil {
		t.Error("stale session survived cleanup")
	}
	if _, err := m.Resolve("fresh"); err != nil {
		t.Errorf("fresh session was collected: %v", err)
	}
}

func TestManager_Cleanup_DisabledTTL(t *testing.T) {
	m := newTestManager(t, WithTTL(0))

	if _, _, err := m.Create("immortal"); err != nil {
		t.Fatal(err)
	}
	if removed := m.Cleanup(); removed != 0 {
		t.Errorf("cleanup with ttl 0 removed %d sessions", removed)
	}
}

func TestManager_ResolveExtendsLifetime(t *testing.T) {
	m := newTestManager(t, WithTTL(40*time.Millisecond))

	if _, _, err := m.Create("busy"); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		time.Sleep(20 * time.Millisecond)
		if _, err := m.Resolve("busy"); err != nil {
			t.Fatalf("resolve round %d: %v", i, err)
		}
	}
	if removed := m.Cleanup(); removed != 0 {
		t.Errorf("active session was collected (removed %d)", removed)
	}
}

func TestManager_ConcurrentCreateSameID(t *testing.T) {
	m := newTestManager(t)

	var wg sync.WaitGroup
	stores := make([]*market.Store, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if _, _, err := m.Create("contended"); err != nil {
				t.Errorf("create %d: %v", n, err)
				return
			}
			s, err := m.Resolve("contended")
			if err != nil {
				t.Errorf("resolve %d: %v", n, err)
				return
			}
			stores[n] = s
		}(i)
	}
	wg.Wait()

	if m.Count() != 1 {
		t.Fatalf("count = %d, want 1", m.Count())
	}
	for i := 1; i < len(stores); i++ {
		if stores[i] != stores[0] {
			t.Fatal("concurrent creates produced different stores for one id")
		}
	}
}

func TestManager_ConcurrentDistinctSessions(t *testing.T) {
	m := newTestManager(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			sid := fmt.Sprintf("worker-%d", n)
			if _, _, err := m.Create(sid); err != nil {
				t.Errorf("create %s: %v", sid, err)
				return
			}
			store, err := m.Resolve(sid)
			if err != nil {
				t.Errorf("resolve %s: %v", sid, err)
				return
			}
			if _, err := store.GetListing("SELLER001", "LAPTOP-001"); err != nil {
				t.Errorf("get in %s: %v", sid, err)
			}
		}(i)
	}
	wg.Wait()

	if m.Count() != 10 {
		t.Errorf("count = %d, want 10", m.Count())
	}
}
