package state

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestStateString(t *testing.T) {
	for _, c := range []struct {
		in  State
		out string
	}{
		{Idle, "Idle"},
		{Syncing, "Syncing"},
		{Shutdown, "Shutdown"},
		{State(99), "Unknown"},
	} {
		if got := c.in.String(); got != c.out {
			t.Errorf("State(%d).String() = %q, want %q", c.in, got, c.out)
		}
	}
}

func TestManagerGetSetState(t *testing.T) {
	var m Manager

	if m.GetState() != Idle {
		t.Fatalf("zero-value Manager should start Idle, got %v", m.GetState())
	}

	m.SetState(Syncing)
	if m.GetState() != Syncing {
		t.Fatalf("GetState() = %v, want %v", m.GetState(), Syncing)
	}
}

func TestManagerGoFuncWaitRoutines(t *testing.T) {
	var m Manager
	var ran int32

	for i := 0; i < 5; i++ {
		m.GoFunc(func() {
			atomic.AddInt32(&ran, 1)
		})
	}

	m.WaitRoutines()

	if got := atomic.LoadInt32(&ran); got != 5 {
		t.Fatalf("ran = %d, want 5", got)
	}
}

func TestManagerGoFuncRespectsLimit(t *testing.T) {
	var m Manager
	block := make(chan struct{})
	started := make(chan struct{}, WGLIMIT+5)

	for i := 0; i < WGLIMIT+5; i++ {
		m.GoFunc(func() {
			started <- struct{}{}
			<-block
		})
	}

	time.Sleep(10 * time.Millisecond)

	if len(started) > WGLIMIT {
		t.Fatalf("more than WGLIMIT goroutines started: %d", len(started))
	}

	close(block)
	m.WaitRoutines()
}
