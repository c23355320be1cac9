package vm

import (
	"errors"
	"sync"
	"testing"
)

// ---------------------------------------------------------------------------
// Pending-call queue tests
// ---------------------------------------------------------------------------

// TestPending_CapacityExceeded verifies that the 33rd submit before any
// drain fails with ErrPendingFull, and that one drain frees exactly one
// slot (wrap-around correctness).
func TestPending_CapacityExceeded(t *testing.T) {
	interp := testInterp(t)
	noop := func(any) error { return nil }

	for i := 0; i < npendingcalls; i++ {
		if err := interp.AddPendingCall(noop, nil); err != nil {
			t.Fatalf("submit %d: %v", i+1, err)
		}
	}
	if err := interp.AddPendingCall(noop, nil); !errors.Is(err, ErrPendingFull) {
		t.Fatalf("33rd submit = %v, want ErrPendingFull", err)
	}
	if got := interp.PendingCallCount(); got != npendingcalls {
		t.Fatalf("pending count = %d, want %d", got, npendingcalls)
	}

	if ran, err := interp.RunPendingCall(); !ran || err != nil {
		t.Fatalf("drain: ran=%v err=%v", ran, err)
	}
	if err := interp.AddPendingCall(noop, nil); err != nil {
		t.Fatalf("submit after drain: %v", err)
	}

	// Drain everything so teardown stays legal.
	if ran, err := interp.RunPendingCalls(0); ran != npendingcalls || err != nil {
		t.Fatalf("final drain: ran=%d err=%v", ran, err)
	}
}

// TestPending_FIFOOrder submits A, B, C and drains all three, checking
// invocation order and the pending count after each drain.
func TestPending_FIFOOrder(t *testing.T) {
	interp := testInterp(t)

	var order []string
	record := func(arg any) error {
		order = append(order, arg.(string))
		return nil
	}

	for i, name := range []string{"A", "B", "C"} {
		if err := interp.AddPendingCall(record, name); err != nil {
			t.Fatalf("submit %s: %v", name, err)
		}
		if got := interp.PendingCallCount(); got != i+1 {
			t.Fatalf("count after submit %s = %d, want %d", name, got, i+1)
		}
	}

	for want := 2; want >= 0; want-- {
		if ran, err := interp.RunPendingCall(); !ran || err != nil {
			t.Fatalf("drain: ran=%v err=%v", ran, err)
		}
		if got := interp.PendingCallCount(); got != want {
			t.Fatalf("count after drain = %d, want %d", got, want)
		}
	}

	if len(order) != 3 || order[0] != "A" || order[1] != "B" || order[2] != "C" {
		t.Fatalf("invocation order = %v, want [A B C]", order)
	}
	if ran, _ := interp.RunPendingCall(); ran {
		t.Fatal("drain on empty queue should report nothing ran")
	}
}

// TestPending_WrapAround cycles the ring far past its capacity to verify
// the first/last indices wrap modulo capacity without losing FIFO order.
func TestPending_WrapAround(t *testing.T) {
	interp := testInterp(t)

	var got []int
	record := func(arg any) error {
		got = append(got, arg.(int))
		return nil
	}

	next := 0
	// Keep the ring about half full while pushing 200 entries through.
	for next < 200 {
		for i := 0; i < 16 && next < 200; i++ {
			if err := interp.AddPendingCall(record, next); err != nil {
				t.Fatalf("submit %d: %v", next, err)
			}
			next++
		}
		for i := 0; i < 12; i++ {
			if ran, err := interp.RunPendingCall(); err != nil {
				t.Fatalf("drain: %v", err)
			} else if !ran {
				break
			}
		}
	}
	if _, err := interp.RunPendingCalls(0); err != nil {
		t.Fatalf("final drain: %v", err)
	}

	if len(got) != 200 {
		t.Fatalf("drained %d entries, want 200", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("entry %d = %d, want %d (FIFO violated)", i, v, i)
		}
	}
}

// TestPending_ErrorPropagates verifies that an invocation failure reaches
// the caller of the drain without corrupting queue state.
func TestPending_ErrorPropagates(t *testing.T) {
	interp := testInterp(t)
	boom := errors.New("callback failed")

	interp.AddPendingCall(func(any) error { return boom }, nil)
	interp.AddPendingCall(func(any) error { return nil }, nil)

	ran, err := interp.RunPendingCall()
	if !ran || !errors.Is(err, boom) {
		t.Fatalf("drain: ran=%v err=%v, want the callback error", ran, err)
	}
	if got := interp.PendingCallCount(); got != 1 {
		t.Fatalf("count after failed invocation = %d, want 1", got)
	}
	if ran, err := interp.RunPendingCall(); !ran || err != nil {
		t.Fatalf("queue corrupted after error: ran=%v err=%v", ran, err)
	}
}

// TestPending_DrainAllStopsAtError verifies RunPendingCalls stops at the
// first invocation error and reports how many entries ran.
func TestPending_DrainAllStopsAtError(t *testing.T) {
	interp := testInterp(t)
	boom := errors.New("second callback failed")

	interp.AddPendingCall(func(any) error { return nil }, nil)
	interp.AddPendingCall(func(any) error { return boom }, nil)
	interp.AddPendingCall(func(any) error { return nil }, nil)

	ran, err := interp.RunPendingCalls(0)
	if ran != 2 || !errors.Is(err, boom) {
		t.Fatalf("RunPendingCalls = (%d, %v), want (2, boom)", ran, err)
	}
	if got := interp.PendingCallCount(); got != 1 {
		t.Fatalf("count = %d, want 1", got)
	}
	interp.RunPendingCalls(0)
}

// TestPending_ConcurrentSubmit verifies that submits from many goroutines
// are all accepted or cleanly rejected, the count matches the occupancy,
// and serialized drains see every accepted entry exactly once.
func TestPending_ConcurrentSubmit(t *testing.T) {
	interp := testInterp(t)

	var mu sync.Mutex
	seen := make(map[int]int)
	record := func(arg any) error {
		mu.Lock()
		seen[arg.(int)]++
		mu.Unlock()
		return nil
	}

	var accepted sync.Map
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < 4; i++ {
				key := base*4 + i
				if err := interp.AddPendingCall(record, key); err == nil {
					accepted.Store(key, true)
				}
			}
		}(g)
	}
	wg.Wait()

	drained, err := interp.RunPendingCalls(0)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}

	want := 0
	accepted.Range(func(key, _ any) bool {
		want++
		if seen[key.(int)] != 1 {
			t.Errorf("entry %v ran %d times, want exactly once", key, seen[key.(int)])
		}
		return true
	})
	if drained != want {
		t.Fatalf("drained %d entries, want %d", drained, want)
	}
	if got := interp.PendingCallCount(); got != 0 {
		t.Fatalf("count = %d, want 0", got)
	}
}
