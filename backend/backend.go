// Package backend specifies the contract a document store must satisfy
// to participate in dagsync, and provides two reference implementations:
// an in-memory store for tests, and a Badger-backed durable store.
//
// Decoding change metadata and computing a change's checksum are pure
// functions over a change blob with no backend state involved; they
// live in package change (change.DecodeMeta, change.Checksum) rather
// than on this interface.
package backend

import (
	"context"

	"github.com/mosaicnetworks/dagsync/change"
	"github.com/mosaicnetworks/dagsync/hash"
)

// Patch is the opaque description of the effect applying changes had on
// the document, as returned by ApplyChanges. The sync core never looks
// inside it.
type Patch interface{}

// Backend is the external collaborator the sync core requires.
// Implementations must be safe for the sync core's concurrency model:
// the sync core serializes its own calls per peer, but a Backend shared
// across peers must serialize ApplyChanges itself if it isn't already
// safe for concurrent use.
type Backend interface {
	// Heads returns the current heads. Order is not required to be
	// sorted; the sync layer sorts where it needs to.
	Heads(ctx context.Context) ([]hash.Hash, error)

	// GetChangeByHash returns the change blob for h, or ok=false if the
	// backend does not have it.
	GetChangeByHash(ctx context.Context, h hash.Hash) (change.Blob, bool, error)

	// GetMissingChanges returns every locally-known change not
	// reachable from frontier, in DAG-topological order (dependencies
	// before dependents).
	GetMissingChanges(ctx context.Context, frontier []hash.Hash) ([]change.Blob, error)

	// GetMissingDeps returns the hashes referenced as dependencies (or
	// requested as target heads) that the backend still lacks, even
	// after hypothetically applying changes.
	GetMissingDeps(ctx context.Context, changes []change.Blob, heads []hash.Hash) ([]hash.Hash, error)

	// ApplyChanges applies changes to the backend and returns the
	// resulting patch. Must be idempotent, tolerant of duplicates, and
	// respect DAG order.
	ApplyChanges(ctx context.Context, changes []change.Blob) (Patch, error)
}
