package prompt

import "testing"

func TestAsyncPrintPushDrain(t *testing.T) {
	var a asyncPrint
	a.init()

	if got := a.drain(); got != nil {
		t.Fatalf("drain() on empty queue = %v, want nil", got)
	}

	a.push("one")
	a.push("two")

	select {
	case <-a.wake:
	default:
		t.Error("expected wake to be signaled after push")
	}

	got := a.drain()
	want := []string{"one", "two"}
	if len(got) != len(want) {
		t.Fatalf("drain() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("drain()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if got := a.drain(); got != nil {
		t.Errorf("drain() after drain = %v, want nil", got)
	}
}

func TestAsyncPrintWakeCoalesces(t *testing.T) {
	var a asyncPrint
	a.init()

	a.push("one")
	a.push("two") // wake channel already has a pending signal, so this is a no-op send.

	select {
	case <-a.wake:
	default:
		t.Fatal("expected wake to be signaled")
	}
	select {
	case <-a.wake:
		t.Error("expected only one pending wake signal")
	default:
	}
}

func TestAsyncPrintQueueBound(t *testing.T) {
	var a asyncPrint
	a.init()

	for i := 0; i < asyncPrintQueueSize+10; i++ {
		a.push("msg")
	}

	got := a.drain()
	if len(got) != asyncPrintQueueSize {
		t.Errorf("len(drain()) = %d, want %d", len(got), asyncPrintQueueSize)
	}
}
