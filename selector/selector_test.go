package selector

import (
	"context"
	"testing"

	"github.com/mosaicnetworks/dagsync/backend"
	"github.com/mosaicnetworks/dagsync/bloom"
	"github.com/mosaicnetworks/dagsync/change"
	"github.com/mosaicnetworks/dagsync/hash"
)

func decodeHashes(t *testing.T, blobs []change.Blob) []hash.Hash {
	t.Helper()
	out := make([]hash.Hash, len(blobs))
	for i, b := range blobs {
		meta, err := change.DecodeMeta(b)
		if err != nil {
			t.Fatalf("decode meta: %v", err)
		}
		out[i] = meta.Hash
	}
	return out
}

func TestSelectFastPathReturnsNeedInOrder(t *testing.T) {
	ctx := context.Background()
	b := backend.NewMemoryBackend()

	r1 := change.Record{Payload: []byte("c1")}
	r2 := change.Record{Payload: []byte("c2")}
	b.AddChange(r1.Encode())
	b.AddChange(r2.Encode())

	out, err := Select(ctx, b, nil, []hash.Hash{r2.Hash(), r1.Hash()})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	got := decodeHashes(t, out)
	if len(got) != 2 || got[0] != r2.Hash() || got[1] != r1.Hash() {
		t.Fatalf("expected need order [c2,c1], got %v", got)
	}
}

func TestSelectFastPathDropsUnknown(t *testing.T) {
	ctx := context.Background()
	b := backend.NewMemoryBackend()

	var unknown hash.Hash
	unknown[0] = 0xFF

	out, err := Select(ctx, b, nil, []hash.Hash{unknown})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected unknown need to be dropped, got %d", len(out))
	}
}

func TestSelectDependencyClosure(t *testing.T) {
	ctx := context.Background()
	b := backend.NewMemoryBackend()

	r1 := change.Record{Payload: []byte("c1")}
	r2 := change.Record{Deps: []hash.Hash{r1.Hash()}, Payload: []byte("c2")}
	r3 := change.Record{Deps: []hash.Hash{r2.Hash()}, Payload: []byte("c3")}
	b.AddChange(r1.Encode())
	b.AddChange(r2.Encode())
	b.AddChange(r3.Encode())

	// Bloom reports c2 present but not c1 or c3.
	f := bloom.New([]hash.Hash{r2.Hash()})
	have := []Have{{LastSync: nil, Bloom: f}}

	out, err := Select(ctx, b, have, nil)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	got := decodeHashes(t, out)
	set := hash.Set(got)
	if _, ok := set[r1.Hash()]; !ok {
		t.Fatalf("expected c1 (bloom-negative) to be sent")
	}
	if _, ok := set[r2.Hash()]; !ok {
		t.Fatalf("expected c2 to be sent via dependency closure")
	}
	if _, ok := set[r3.Hash()]; !ok {
		t.Fatalf("expected c3 to be sent via dependency closure")
	}
}

func TestSelectExplicitNeedOutsideFrontier(t *testing.T) {
	ctx := context.Background()
	b := backend.NewMemoryBackend()

	r1 := change.Record{Payload: []byte("c1")}
	r2 := change.Record{Deps: []hash.Hash{r1.Hash()}, Payload: []byte("c2")}
	b.AddChange(r1.Encode())
	b.AddChange(r2.Encode())

	// lastSync covers everything (full bloom reporting everything present),
	// so C is empty, but need explicitly asks for c2 anyway.
	full := bloom.New([]hash.Hash{r1.Hash(), r2.Hash()})
	have := []Have{{LastSync: []hash.Hash{r1.Hash(), r2.Hash()}, Bloom: full}}

	out, err := Select(ctx, b, have, []hash.Hash{r2.Hash()})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	got := decodeHashes(t, out)
	if len(got) != 1 || got[0] != r2.Hash() {
		t.Fatalf("expected explicit need c2 to be sent, got %v", got)
	}
}

func TestSelectBloomPositiveExcluded(t *testing.T) {
	ctx := context.Background()
	b := backend.NewMemoryBackend()

	r1 := change.Record{Payload: []byte("c1")}
	b.AddChange(r1.Encode())

	f := bloom.New([]hash.Hash{r1.Hash()})
	have := []Have{{LastSync: nil, Bloom: f}}

	out, err := Select(ctx, b, have, nil)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected bloom-positive change to be withheld, got %d", len(out))
	}
}
