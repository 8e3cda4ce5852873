package cache

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time { return f.t }

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("a should be present")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("a = %v, %v", v, ok)
	}
	if c.Size() != 2 {
		t.Fatalf("size = %d", c.Size())
	}
}

func TestLRUExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](10, time.Minute).WithClock(clock.Now)
	c.Set("plan-2025", "overview")
	c.Set("plan-2024", "overview")

	clock.t = clock.t.Add(30 * time.Second)
	c.Set("plan-2024", "refreshed")

	clock.t = clock.t.Add(45 * time.Second)
	if _, ok := c.Get("plan-2025"); ok {
		t.Fatalf("plan-2025 should have expired")
	}
	if n := c.CleanExpired(); n != 0 {
		t.Fatalf("cleaned %d, want 0", n)
	}
	if v, ok := c.Get("plan-2024"); !ok || v != "refreshed" {
		t.Fatalf("plan-2024 = %q, %v", v, ok)
	}

	clock.t = clock.t.Add(time.Minute)
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("cleaned %d, want 1", n)
	}
}

func TestLRUDeletePrefix(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	c.Set("overview:plan-2025", 1)
	c.Set("overview:plan-2024", 2)
	c.Set("session:abc", 3)

	if n := c.DeletePrefix("overview:"); n != 2 {
		t.Fatalf("removed %d, want 2", n)
	}
	if _, ok := c.Get("session:abc"); !ok {
		t.Fatalf("unrelated key removed")
	}
}

func TestManagerCleanAll(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	a := NewLRUCache[int](10, time.Second).WithClock(clock.Now)
	b := NewLRUCache[int](10, time.Second).WithClock(clock.Now)
	a.Set("x", 1)
	b.Set("y", 2)
	b.Set("z", 3)

	m := NewManager(nil)
	m.Register(a)
	m.Register(b)
	clock.t = clock.t.Add(2 * time.Second)

	if n := m.CleanAll(); n != 3 {
		t.Fatalf("cleaned %d, want 3", n)
	}
	m.Stop()
}
