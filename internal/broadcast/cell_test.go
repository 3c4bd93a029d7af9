package broadcast

import (
	"sync"
	"testing"
)

func TestCell_SubscribeReplaysLatest(t *testing.T) {
	t.Parallel()

	c := NewCell[int]()
	c.Set(42)

	var got []int
	cancel := c.Subscribe(func(v int) { got = append(got, v) })
	defer cancel()

	if len(got) != 1 || got[0] != 42 {
		t.Fatalf("expected immediate replay of 42, got %v", got)
	}
}

func TestCell_SubscribeBeforeAnySetReplaysZero(t *testing.T) {
	t.Parallel()

	c := NewCell[string]()
	var got []string
	cancel := c.Subscribe(func(v string) { got = append(got, v) })
	defer cancel()

	if len(got) != 1 || got[0] != "" {
		t.Fatalf("expected zero-value replay, got %v", got)
	}
}

func TestCell_NotifiesAllSubscribersInOrder(t *testing.T) {
	t.Parallel()

	c := NewCell[int]()
	var a, b []int
	defer c.Subscribe(func(v int) { a = append(a, v) })()
	defer c.Subscribe(func(v int) { b = append(b, v) })()

	for i := 1; i <= 3; i++ {
		c.Set(i)
	}

	want := []int{0, 1, 2, 3} // zero replay plus three updates
	for name, got := range map[string][]int{"a": a, "b": b} {
		if len(got) != len(want) {
			t.Fatalf("%s: expected %v, got %v", name, want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("%s: expected %v, got %v", name, want, got)
			}
		}
	}
}

func TestCell_CancelStopsDelivery(t *testing.T) {
	t.Parallel()

	c := NewCell[int]()
	var got []int
	cancel := c.Subscribe(func(v int) { got = append(got, v) })

	c.Set(1)
	cancel()
	cancel() // idempotent
	c.Set(2)

	if len(got) != 2 || got[1] != 1 {
		t.Fatalf("expected [0 1], got %v", got)
	}
}

func TestCell_ResetDeliversZero(t *testing.T) {
	t.Parallel()

	c := NewCell[int]()
	c.Set(7)
	var got []int
	defer c.Subscribe(func(v int) { got = append(got, v) })()

	c.Reset()
	if c.Get() != 0 {
		t.Fatalf("expected Get to return 0 after Reset, got %d", c.Get())
	}
	if len(got) != 2 || got[1] != 0 {
		t.Fatalf("expected reset notification, got %v", got)
	}
}

func TestCell_ConcurrentSetAndGet(t *testing.T) {
	t.Parallel()

	c := NewCell[int]()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Set(n)
				_ = c.Get()
			}
		}(i)
	}
	wg.Wait()
}
