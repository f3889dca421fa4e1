package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mosaicnetworks/dagsync/change"
	"github.com/mosaicnetworks/dagsync/hash"
)

func newTestBadgerBackend(t *testing.T) *BadgerBackend {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "badger")
	b, err := NewBadgerBackend(dir)
	if err != nil {
		t.Fatalf("open badger backend: %v", err)
	}
	return b
}

func TestBadgerBackendApplyAndPersist(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "badger")

	b, err := NewBadgerBackend(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	r1 := change.Record{Payload: []byte("c1")}
	r2 := change.Record{Deps: []hash.Hash{r1.Hash()}, Payload: []byte("c2")}

	if _, err := b.ApplyChanges(ctx, []change.Blob{r1.Encode(), r2.Encode()}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	heads, err := b.Heads(ctx)
	if err != nil || len(heads) != 1 || heads[0] != r2.Hash() {
		t.Fatalf("expected single head c2, got %v err %v", heads, err)
	}

	if err := b.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Reopen: the change set must survive a restart via replay.
	reopened, err := NewBadgerBackend(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.RemoveAll()

	heads, err = reopened.Heads(ctx)
	if err != nil || len(heads) != 1 || heads[0] != r2.Hash() {
		t.Fatalf("expected head to survive reopen, got %v err %v", heads, err)
	}

	blob, ok, err := reopened.GetChangeByHash(ctx, r1.Hash())
	if err != nil || !ok {
		t.Fatalf("expected c1 to survive reopen, ok=%v err=%v", ok, err)
	}
	got, err := change.DecodeRecord(blob)
	if err != nil || string(got.Payload) != "c1" {
		t.Fatalf("unexpected payload after reopen: %q err %v", got.Payload, err)
	}
}

func TestBadgerBackendSnapshotDigestMatchesMemory(t *testing.T) {
	ctx := context.Background()
	bb := newTestBadgerBackend(t)
	defer bb.RemoveAll()

	mb := NewMemoryBackend()

	r1 := change.Record{Payload: []byte("a")}
	r2 := change.Record{Deps: []hash.Hash{r1.Hash()}, Payload: []byte("b")}
	changes := []change.Blob{r1.Encode(), r2.Encode()}

	if _, err := bb.ApplyChanges(ctx, changes); err != nil {
		t.Fatalf("apply to badger: %v", err)
	}
	if _, err := mb.ApplyChanges(ctx, changes); err != nil {
		t.Fatalf("apply to memory: %v", err)
	}

	snapA, err := BuildSnapshot(ctx, bb)
	if err != nil {
		t.Fatalf("snapshot badger: %v", err)
	}
	snapB, err := BuildSnapshot(ctx, mb)
	if err != nil {
		t.Fatalf("snapshot memory: %v", err)
	}

	digestA, err := snapA.Digest()
	if err != nil {
		t.Fatalf("digest a: %v", err)
	}
	digestB, err := snapB.Digest()
	if err != nil {
		t.Fatalf("digest b: %v", err)
	}
	if digestA != digestB {
		t.Fatalf("expected identical digests for converged backends, got %s vs %s", digestA, digestB)
	}
}

func TestBadgerBackendApplyChangesToleratesMissingDeps(t *testing.T) {
	ctx := context.Background()
	b := newTestBadgerBackend(t)
	defer b.RemoveAll()

	var unknown hash.Hash
	unknown[0] = 0xEE
	r := change.Record{Deps: []hash.Hash{unknown}, Payload: []byte("orphan")}

	patch, err := b.ApplyChanges(ctx, []change.Blob{r.Encode()})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(patch.(ApplyPatch).Applied) != 0 {
		t.Fatalf("change with missing dep should not be applied yet")
	}
}
