// Package state tracks the run state of a dagsync Engine, generalized
// from babble's node/state package. Babble's State enumerates
// consensus-participation modes (Babbling, CatchingUp, Joining,
// Leaving, Suspended); an Engine has no consensus to participate in,
// only a heartbeat loop to run or not, so the enum collapses to the
// three phases that loop actually goes through.
package state

import (
	"sync"
	"sync/atomic"
)

// State captures the run state of an Engine: Idle, Syncing, or
// Shutdown.
type State uint32

const (
	// Idle is the state before the heartbeat loop has been started, or
	// between ticks once it has nothing queued to send.
	Idle State = iota

	// Syncing is the state while a generate/receive exchange with at
	// least one peer is in flight.
	Syncing

	// Shutdown is the state after Engine.Shutdown has been called: the Engine
	// stops responding to heartbeats and ticks, and its transport is
	// closed.
	Shutdown
)

// WGLIMIT is the maximum number of goroutines GoFunc will launch
// concurrently, bounding how many peers an Engine syncs with at once.
const WGLIMIT = 20

// String returns the string representation of a State.
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Syncing:
		return "Syncing"
	case Shutdown:
		return "Shutdown"
	default:
		return "Unknown"
	}
}

// Manager wraps a State with get and set methods, and also limits the
// number of goroutines launched by the Engine's per-peer sync fan-out,
// waiting for them to complete on shutdown.
type Manager struct {
	state   State
	wg      sync.WaitGroup
	wgCount int32
}

// GetState returns the current state.
func (m *Manager) GetState() State {
	stateAddr := (*uint32)(&m.state)
	return State(atomic.LoadUint32(stateAddr))
}

// SetState sets the state.
func (m *Manager) SetState(s State) {
	stateAddr := (*uint32)(&m.state)
	atomic.StoreUint32(stateAddr, uint32(s))
}

// GoFunc launches a goroutine for f, if fewer than WGLIMIT are
// currently running, and tracks it in the wait group.
func (m *Manager) GoFunc(f func()) {
	tempWgCount := atomic.LoadInt32(&m.wgCount)
	if tempWgCount < WGLIMIT {
		m.wg.Add(1)
		atomic.AddInt32(&m.wgCount, 1)
		go func() {
			defer m.wg.Done()
			atomic.AddInt32(&m.wgCount, -1)
			f()
		}()
	}
}

// WaitRoutines blocks until every goroutine launched by GoFunc has
// returned.
func (m *Manager) WaitRoutines() {
	m.wg.Wait()
}
