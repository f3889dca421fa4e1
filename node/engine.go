// Package node hosts the sync state machine of package syncstate: the
// long-lived process a real application runs, generalized from
// babble's node.Node gossip loop and node.PeerSelector. Engine is the
// "host application" the sync state machine needs but does not define: it owns a
// Backend, a peer directory, one syncstate.PeerState per known peer,
// and a heartbeat ticker that drives GenerateSyncMessage/Send and folds
// inbound bytes through ReceiveSyncMessage.
package node

import (
	"context"
	"encoding/hex"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mosaicnetworks/dagsync/backend"
	"github.com/mosaicnetworks/dagsync/node/state"
	"github.com/mosaicnetworks/dagsync/peers"
	"github.com/mosaicnetworks/dagsync/syncstate"
	"github.com/mosaicnetworks/dagsync/transport"
	"github.com/mosaicnetworks/dagsync/wire"
)

// PeerStats summarizes one peer's sync progress, for the status
// service's /stats endpoint.
type PeerStats struct {
	Addr        string `json:"addr"`
	SharedHeads int    `json:"shared_heads"`
	OurNeed     int    `json:"our_need"`
	Unapplied   int    `json:"unapplied_changes"`
	SentChanges int    `json:"sent_changes"`
}

// Engine runs the sync protocol against a bounded number of peers
// each heartbeat tick, generalized from babble's node.Node: babble
// gossips with exactly one random peer per tick, since hashgraph
// gossip has its own convergence pressure; this module's reconciling
// protocol makes contacting an already-converged peer a cheap no-op
// (the generate step sends nothing once our heads equal both the
// heads we last sent and the peer's heads, with no changes to send
// and nothing needed), so Engine fans out to SyncFanout peers per tick via
// its PeerSelector instead of just one.
type Engine struct {
	conf      EngineConfig
	backend   backend.Backend
	identity  *peers.Identity
	directory *peers.Directory
	selector  PeerSelector
	trans     transport.Transport
	logger    *logrus.Entry

	stateManager state.Manager
	timer        *ControlTimer
	shutdownCh   chan struct{}

	mu         sync.Mutex
	peerStates map[string]*syncstate.PeerState

	stateDir string
}

// EngineConfig is the subset of config.Config Engine needs, kept
// separate from the config package to avoid an import cycle (config
// depends on log, not on node).
type EngineConfig struct {
	HeartbeatTimeout time.Duration
	DataDir          string

	// SyncFanout is how many peers one heartbeat tick contacts,
	// selected via PeerSelector. Zero or negative means "all of them".
	SyncFanout int

	// MaxChangesPerMessage is a soft limit: Engine does not chunk
	// outgoing messages (no chunking strategy is specified), but it
	// logs when a generated message's change count exceeds this, so
	// an oversized message is visible rather than silently sent.
	// Zero disables the check.
	MaxChangesPerMessage int
}

func (e *Engine) warnIfOversized(addr string, msg []byte) {
	if e.conf.MaxChangesPerMessage <= 0 {
		return
	}
	decoded, err := wire.DecodeMessage(msg)
	if err != nil {
		return
	}
	if len(decoded.Changes) > e.conf.MaxChangesPerMessage {
		e.logger.WithField("peer", addr).
			WithField("changes", len(decoded.Changes)).
			WithField("limit", e.conf.MaxChangesPerMessage).
			Warn("outgoing sync message exceeds configured change limit")
	}
}

// NewEngine constructs an Engine around directory, using
// selfAddr to exclude the node's own address from its PeerSelector's
// candidate set. Peer state is persisted under conf.DataDir/peerstate
// across restarts when conf.DataDir is non-empty.
func NewEngine(
	conf EngineConfig,
	b backend.Backend,
	identity *peers.Identity,
	directory *peers.Directory,
	selfAddr string,
	trans transport.Transport,
	logger *logrus.Entry,
) *Engine {
	e := &Engine{
		conf:       conf,
		backend:    b,
		identity:   identity,
		directory:  directory,
		selector:   NewRandomPeerSelector(directory, selfAddr),
		trans:      trans,
		logger:     logger,
		peerStates: make(map[string]*syncstate.PeerState),
		timer:      NewRandomControlTimer(),
		shutdownCh: make(chan struct{}),
	}
	if conf.DataDir != "" {
		e.stateDir = filepath.Join(conf.DataDir, "peerstate")
	}
	return e
}

// Backend returns the Engine's document store.
func (e *Engine) Backend() backend.Backend { return e.backend }

// Transport returns the Engine's transport.
func (e *Engine) Transport() transport.Transport { return e.trans }

// Directory returns the Engine's peer directory.
func (e *Engine) Directory() *peers.Directory { return e.directory }

// Identity returns this node's own keypair and public-key identifier.
func (e *Engine) Identity() *peers.Identity { return e.identity }

// State returns the Engine's current run state.
func (e *Engine) State() state.State { return e.stateManager.GetState() }

// PeerStats reports sync progress for every known peer.
func (e *Engine) PeerStats() []PeerStats {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]PeerStats, 0, len(e.peerStates))
	for _, p := range e.directory.ToSlice() {
		s := e.peerStates[p.Addr]
		if s == nil {
			out = append(out, PeerStats{Addr: p.Addr})
			continue
		}
		out = append(out, PeerStats{
			Addr:        p.Addr,
			SharedHeads: len(s.SharedHeads),
			OurNeed:     len(s.OurNeed),
			Unapplied:   len(s.UnappliedChanges),
			SentChanges: len(s.SentChanges),
		})
	}
	return out
}

// Run starts the transport listener, the heartbeat loop, and the
// inbound-message loop. It returns immediately; call Shutdown to stop.
func (e *Engine) Run() {
	e.trans.Listen()
	e.stateManager.SetState(state.Idle)

	go e.timer.Run(e.conf.HeartbeatTimeout)
	go e.heartbeatLoop()
	go e.receiveLoop()
}

// Shutdown stops the heartbeat and receive loops, waits for any
// in-flight per-peer syncs to finish, and closes the transport.
func (e *Engine) Shutdown() {
	e.stateManager.SetState(state.Shutdown)
	close(e.shutdownCh)
	e.timer.Shutdown()
	e.stateManager.WaitRoutines()
	e.trans.Close()
}

func (e *Engine) heartbeatLoop() {
	for {
		select {
		case <-e.timer.tickCh:
			e.tick()
			select {
			case e.timer.resetCh <- e.conf.HeartbeatTimeout:
			case <-e.shutdownCh:
				return
			}
		case <-e.shutdownCh:
			return
		}
	}
}

// tick picks up to SyncFanout peers via the PeerSelector and fans out
// Generate/Send to each concurrently (bounded by state.WGLIMIT), since
// each peer's sync state is independent. A fanout of zero or less
// means "contact every known peer".
func (e *Engine) tick() {
	e.stateManager.SetState(state.Syncing)

	targets := e.pickTargets()
	for _, p := range targets {
		p := p
		e.selector.UpdateLast(p.Addr)
		e.stateManager.GoFunc(func() {
			if err := e.syncWithPeer(context.Background(), p); err != nil {
				e.logger.WithError(err).WithField("peer", p.Addr).Error("sync with peer")
			}
		})
	}

	e.stateManager.SetState(state.Idle)
}

func (e *Engine) pickTargets() []*peers.Peer {
	if e.conf.SyncFanout <= 0 {
		return e.directory.ToSlice()
	}

	seen := make(map[string]bool, e.conf.SyncFanout)
	var targets []*peers.Peer
	for i := 0; i < e.conf.SyncFanout; i++ {
		p := e.selector.Next()
		if p == nil {
			break
		}
		if seen[p.Addr] {
			continue
		}
		seen[p.Addr] = true
		targets = append(targets, p)
	}
	return targets
}

func (e *Engine) syncWithPeer(ctx context.Context, p *peers.Peer) error {
	e.mu.Lock()
	s := e.peerStates[p.Addr]
	e.mu.Unlock()

	newState, msg, err := syncstate.Generate(ctx, s, e.backend)
	if err != nil {
		return fmt.Errorf("generate sync message for %s: %w", p.Addr, err)
	}

	e.mu.Lock()
	e.peerStates[p.Addr] = newState
	e.mu.Unlock()

	if msg == nil {
		return nil
	}

	e.warnIfOversized(p.Addr, msg)

	if err := e.trans.Send(p.Addr, msg); err != nil {
		return fmt.Errorf("send to %s: %w", p.Addr, err)
	}

	return e.persistPeerState(p.Addr, newState)
}

func (e *Engine) receiveLoop() {
	for {
		select {
		case env, ok := <-e.trans.Consumer():
			if !ok {
				return
			}
			e.stateManager.GoFunc(func() {
				if err := e.handleEnvelope(context.Background(), env); err != nil {
					e.logger.WithError(err).WithField("from", env.From).Error("receive sync message")
				}
			})
		case <-e.shutdownCh:
			return
		}
	}
}

func (e *Engine) handleEnvelope(ctx context.Context, env transport.Envelope) error {
	e.mu.Lock()
	s := e.peerStates[env.From]
	e.mu.Unlock()

	newState, patch, err := syncstate.Receive(ctx, s, e.backend, env.Payload)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.peerStates[env.From] = newState
	e.mu.Unlock()

	if patch != nil {
		e.logger.WithField("from", env.From).Debug("applied changes from peer")
	}

	if _, known := e.directory.ByAddr(env.From); !known {
		e.logger.WithField("from", env.From).Debug("received message from unlisted peer")
	}

	return e.persistPeerState(env.From, newState)
}

func (e *Engine) persistPeerState(addr string, s *syncstate.PeerState) error {
	if e.stateDir == "" {
		return nil
	}
	if err := os.MkdirAll(e.stateDir, 0700); err != nil {
		return err
	}

	persisted := syncstate.ToPersisted(s)
	encoded, err := wire.EncodeState(persisted)
	if err != nil {
		return err
	}

	return ioutil.WriteFile(e.peerStateFile(addr), encoded, 0600)
}

// LoadPeerState restores addr's persisted sharedHeads from disk, if
// any, into an otherwise-fresh PeerState, and registers it as addr's
// current sync state.
func (e *Engine) LoadPeerState(addr string) error {
	if e.stateDir == "" {
		return nil
	}

	buf, err := ioutil.ReadFile(e.peerStateFile(addr))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	persisted, err := wire.DecodeState(buf)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.peerStates[addr] = syncstate.FromPersisted(persisted)
	e.mu.Unlock()
	return nil
}

func (e *Engine) peerStateFile(addr string) string {
	return filepath.Join(e.stateDir, hex.EncodeToString([]byte(addr))+".state")
}
