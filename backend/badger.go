package backend

import (
	"context"
	"fmt"
	"os"

	"github.com/dgraph-io/badger"

	"github.com/mosaicnetworks/dagsync/change"
	"github.com/mosaicnetworks/dagsync/hash"
)

// changeKeyPrefix namespaces change blobs in the Badger keyspace, the
// way hashgraph/badger_store.go namespaces events, rounds and blocks
// with their own prefixes.
const changeKeyPrefix = "change_"

// BadgerBackend is a durable Backend. Like babble's BadgerStore wraps an
// InmemStore as a read cache, BadgerBackend wraps a MemoryBackend:
// every write goes to both, and NewBadgerBackend replays the database
// into the cache on startup.
type BadgerBackend struct {
	cache *MemoryBackend
	db    *badger.DB
	path  string
}

// NewBadgerBackend opens (creating if absent) a Badger database at path
// and rebuilds the in-memory cache from it.
func NewBadgerBackend(path string) (*BadgerBackend, error) {
	opts := badger.DefaultOptions(path)
	opts.Dir = path
	opts.ValueDir = path
	opts.SyncWrites = false

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("backend: open badger: %w", err)
	}

	b := &BadgerBackend{
		cache: NewMemoryBackend(),
		db:    db,
		path:  path,
	}

	if err := b.replay(); err != nil {
		db.Close()
		return nil, err
	}

	return b, nil
}

// replay loads every persisted change blob into the in-memory cache, in
// arbitrary order — MemoryBackend.addLocked is insertion-order
// independent because it only updates the heads/dependents index
// incrementally per change, and a change's own dependency edges are
// self-contained in its blob.
func (b *BadgerBackend) replay() error {
	return b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(changeKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := it.Item().Value(func(val []byte) error {
				blob := make(change.Blob, len(val))
				copy(blob, val)
				if _, err := b.cache.AddChange(blob); err != nil {
					return fmt.Errorf("backend: replay change: %w", err)
				}
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

func changeKey(h hash.Hash) []byte {
	return []byte(changeKeyPrefix + h.String())
}

func (b *BadgerBackend) persist(blobs []change.Blob, hashes []hash.Hash) error {
	tx := b.db.NewTransaction(true)
	defer tx.Discard()

	for i, blob := range blobs {
		if err := tx.Set(changeKey(hashes[i]), blob); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Heads implements Backend.
func (b *BadgerBackend) Heads(ctx context.Context) ([]hash.Hash, error) {
	return b.cache.Heads(ctx)
}

// GetChangeByHash implements Backend.
func (b *BadgerBackend) GetChangeByHash(ctx context.Context, h hash.Hash) (change.Blob, bool, error) {
	return b.cache.GetChangeByHash(ctx, h)
}

// GetMissingChanges implements Backend.
func (b *BadgerBackend) GetMissingChanges(ctx context.Context, frontier []hash.Hash) ([]change.Blob, error) {
	return b.cache.GetMissingChanges(ctx, frontier)
}

// GetMissingDeps implements Backend.
func (b *BadgerBackend) GetMissingDeps(ctx context.Context, changes []change.Blob, heads []hash.Hash) ([]hash.Hash, error) {
	return b.cache.GetMissingDeps(ctx, changes, heads)
}

// ApplyChanges implements Backend: changes applied to the in-memory
// cache are also durably persisted before the call returns.
func (b *BadgerBackend) ApplyChanges(ctx context.Context, changes []change.Blob) (Patch, error) {
	patch, err := b.cache.ApplyChanges(ctx, changes)
	if err != nil {
		return nil, err
	}

	applied := patch.(ApplyPatch).Applied
	if len(applied) == 0 {
		return patch, nil
	}

	blobs := make([]change.Blob, len(applied))
	for i, h := range applied {
		blob, ok, err := b.cache.GetChangeByHash(ctx, h)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("backend: applied change %s vanished from cache", h)
		}
		blobs[i] = blob
	}

	if err := b.persist(blobs, applied); err != nil {
		return nil, fmt.Errorf("backend: persist applied changes: %w", err)
	}

	return patch, nil
}

// Close releases the underlying database handle.
func (b *BadgerBackend) Close() error {
	return b.db.Close()
}

// RemoveAll deletes the database directory. Intended for tests.
func (b *BadgerBackend) RemoveAll() error {
	if err := b.db.Close(); err != nil {
		return err
	}
	return os.RemoveAll(b.path)
}
