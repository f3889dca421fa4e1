package backend

import (
	"context"
	"fmt"
	"sync"

	"github.com/mosaicnetworks/dagsync/change"
	"github.com/mosaicnetworks/dagsync/hash"
)

// entry is a flat indexed-store record: a hash keying directly to the
// blob and its precomputed dependency list, rather than a persistent
// list walked via backend accessors.
type entry struct {
	blob change.Blob
	meta change.Meta
}

// ApplyPatch is the Patch MemoryBackend and BadgerBackend return: the
// hashes actually applied by this call, sorted by hash.
type ApplyPatch struct {
	Applied []hash.Hash
}

// MemoryBackend is a reference, in-memory implementation of Backend. It
// is used by the sync-core tests and is not durable.
type MemoryBackend struct {
	mu sync.RWMutex

	changes map[hash.Hash]entry
	// dependents[h] lists every change that names h as a dependency,
	// an adjacency list kept instead of a persistent-list traversal.
	dependents map[hash.Hash][]hash.Hash
	heads      map[hash.Hash]struct{}
}

// NewMemoryBackend returns an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		changes:    make(map[hash.Hash]entry),
		dependents: make(map[hash.Hash][]hash.Hash),
		heads:      make(map[hash.Hash]struct{}),
	}
}

// AddChange inserts a change, computing its hash from its contents.
// It is idempotent: re-adding the same content is a no-op.
func (m *MemoryBackend) AddChange(blob change.Blob) (hash.Hash, error) {
	meta, err := change.DecodeMeta(blob)
	if err != nil {
		return hash.Hash{}, fmt.Errorf("backend: decode change: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.addLocked(meta.Hash, blob, meta)
	return meta.Hash, nil
}

func (m *MemoryBackend) addLocked(h hash.Hash, blob change.Blob, meta change.Meta) {
	if _, ok := m.changes[h]; ok {
		return
	}
	m.changes[h] = entry{blob: blob, meta: meta}

	for _, d := range meta.Deps {
		m.dependents[d] = append(m.dependents[d], h)
		delete(m.heads, d)
	}
	if _, hasDependents := m.dependents[h]; !hasDependents {
		m.heads[h] = struct{}{}
	}
}

// Heads implements Backend.
func (m *MemoryBackend) Heads(ctx context.Context) ([]hash.Hash, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]hash.Hash, 0, len(m.heads))
	for h := range m.heads {
		out = append(out, h)
	}
	hash.Sort(out)
	return out, nil
}

// GetChangeByHash implements Backend.
func (m *MemoryBackend) GetChangeByHash(ctx context.Context, h hash.Hash) (change.Blob, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.changes[h]
	if !ok {
		return nil, false, nil
	}
	return e.blob, true, nil
}

// reachableFrom computes the set of hashes reachable by following
// dependency edges backward (toward ancestors) starting at frontier,
// inclusive of frontier itself. Frontier hashes unknown to the backend
// are silently skipped — detecting that condition is the sync state
// machine's job, not the backend's.
func (m *MemoryBackend) reachableFrom(frontier []hash.Hash) map[hash.Hash]struct{} {
	seen := make(map[hash.Hash]struct{})
	stack := make([]hash.Hash, 0, len(frontier))
	for _, h := range frontier {
		if _, ok := m.changes[h]; ok {
			stack = append(stack, h)
			seen[h] = struct{}{}
		}
	}

	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		e, ok := m.changes[h]
		if !ok {
			continue
		}
		for _, d := range e.meta.Deps {
			if _, visited := seen[d]; visited {
				continue
			}
			seen[d] = struct{}{}
			stack = append(stack, d)
		}
	}
	return seen
}

// GetMissingChanges implements Backend: every locally known change not
// reachable from frontier, topologically ordered (deps before
// dependents).
func (m *MemoryBackend) GetMissingChanges(ctx context.Context, frontier []hash.Hash) ([]change.Blob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	reachable := m.reachableFrom(frontier)

	// Kahn's algorithm restricted to the complement of reachable.
	indegree := make(map[hash.Hash]int)
	var complement []hash.Hash
	for h, e := range m.changes {
		if _, ok := reachable[h]; ok {
			continue
		}
		complement = append(complement, h)
		deg := 0
		for _, d := range e.meta.Deps {
			if _, ok := reachable[d]; !ok {
				if _, isChange := m.changes[d]; isChange {
					deg++
				}
			}
		}
		indegree[h] = deg
	}
	hash.Sort(complement)

	ready := make([]hash.Hash, 0)
	for _, h := range complement {
		if indegree[h] == 0 {
			ready = append(ready, h)
		}
	}

	blockedBy := make(map[hash.Hash][]hash.Hash) // dep -> changes waiting on it
	for h := range indegree {
		for _, d := range m.changes[h].meta.Deps {
			if _, ok := reachable[d]; ok {
				continue
			}
			if _, isChange := m.changes[d]; !isChange {
				continue
			}
			blockedBy[d] = append(blockedBy[d], h)
		}
	}

	out := make([]change.Blob, 0, len(complement))
	emitted := make(map[hash.Hash]struct{})
	for len(ready) > 0 {
		// Deterministic order among ready nodes.
		hash.Sort(ready)
		h := ready[0]
		ready = ready[1:]
		if _, done := emitted[h]; done {
			continue
		}
		emitted[h] = struct{}{}
		out = append(out, m.changes[h].blob)

		for _, waiting := range blockedBy[h] {
			indegree[waiting]--
			if indegree[waiting] == 0 {
				ready = append(ready, waiting)
			}
		}
	}

	return out, nil
}

// GetMissingDeps implements Backend.
func (m *MemoryBackend) GetMissingDeps(ctx context.Context, changes []change.Blob, heads []hash.Hash) ([]hash.Hash, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	known := make(map[hash.Hash]struct{}, len(m.changes))
	for h := range m.changes {
		known[h] = struct{}{}
	}

	var referencedDeps []hash.Hash
	for _, blob := range changes {
		meta, err := change.DecodeMeta(blob)
		if err != nil {
			return nil, fmt.Errorf("backend: decode change: %w", err)
		}
		known[meta.Hash] = struct{}{}
		referencedDeps = append(referencedDeps, meta.Deps...)
	}

	missingSet := make(map[hash.Hash]struct{})
	for _, d := range referencedDeps {
		if _, ok := known[d]; !ok {
			missingSet[d] = struct{}{}
		}
	}
	for _, h := range heads {
		if _, ok := known[h]; !ok {
			missingSet[h] = struct{}{}
		}
	}

	out := make([]hash.Hash, 0, len(missingSet))
	for h := range missingSet {
		out = append(out, h)
	}
	hash.Sort(out)
	return out, nil
}

// ApplyChanges implements Backend. It is idempotent and tolerant of
// changes whose dependencies are not yet present — those are simply
// not applied this round, keeping ApplyChanges idempotent and tolerant
// of duplicates while still respecting DAG order.
func (m *MemoryBackend) ApplyChanges(ctx context.Context, changes []change.Blob) (Patch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	metas := make([]change.Meta, 0, len(changes))
	byHash := make(map[hash.Hash]change.Blob, len(changes))
	for _, blob := range changes {
		meta, err := change.DecodeMeta(blob)
		if err != nil {
			return nil, fmt.Errorf("backend: decode change: %w", err)
		}
		metas = append(metas, meta)
		byHash[meta.Hash] = blob
	}

	var applied []hash.Hash
	progress := true
	for progress {
		progress = false
		for _, meta := range metas {
			if _, already := m.changes[meta.Hash]; already {
				continue
			}
			if _, pending := byHash[meta.Hash]; !pending {
				continue
			}
			ready := true
			for _, d := range meta.Deps {
				if _, ok := m.changes[d]; !ok {
					ready = false
					break
				}
			}
			if !ready {
				continue
			}
			m.addLocked(meta.Hash, byHash[meta.Hash], meta)
			delete(byHash, meta.Hash)
			applied = append(applied, meta.Hash)
			progress = true
		}
	}

	hash.Sort(applied)
	return ApplyPatch{Applied: applied}, nil
}
