package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryFixedWindowBudget(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemoryFixedWindow(time.Minute, 3)
	m.now = func() time.Time { return fixed }

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		ok, err := m.Admit(ctx, "1.2.3.4")
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Fatalf("request %d should be admitted", i+1)
		}
	}

	// Every request past the budget is rejected within the same window.
	for i := 0; i < 5; i++ {
		ok, _ := m.Admit(ctx, "1.2.3.4")
		if ok {
			t.Fatalf("request over budget admitted (attempt %d)", i+1)
		}
	}

	// A different identity has its own budget.
	if ok, _ := m.Admit(ctx, "5.6.7.8"); !ok {
		t.Error("separate identity should not share the budget")
	}
}

func TestMemoryFixedWindowRollover(t *testing.T) {
	current := time.Date(2025, 3, 1, 12, 0, 59, 0, time.UTC)
	m := NewMemoryFixedWindow(time.Minute, 1)
	m.now = func() time.Time { return current }

	ctx := context.Background()
	if ok, _ := m.Admit(ctx, "ip"); !ok {
		t.Fatal("first request should pass")
	}
	if ok, _ := m.Admit(ctx, "ip"); ok {
		t.Fatal("second request in the window should be rejected")
	}

	// Advance past the window boundary: the counter resets and the request
	// counts against the new window only.
	current = current.Add(2 * time.Second)
	if ok, _ := m.Admit(ctx, "ip"); !ok {
		t.Fatal("request after rollover should be admitted")
	}
	if ok, _ := m.Admit(ctx, "ip"); ok {
		t.Fatal("new window budget should already be spent")
	}
}

func TestMemoryFixedWindowConcurrentNoLostCounts(t *testing.T) {
	m := NewMemoryFixedWindow(time.Hour, 100)

	var wg sync.WaitGroup
	admitted := make(chan bool, 200)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _ := m.Admit(context.Background(), "shared")
			admitted <- ok
		}()
	}
	wg.Wait()
	close(admitted)

	count := 0
	for ok := range admitted {
		if ok {
			count++
		}
	}
	if count != 100 {
		t.Errorf("admitted %d of 200 concurrent requests, want exactly the budget of 100", count)
	}
}
