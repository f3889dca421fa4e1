package dedup

import (
	"testing"

	"github.com/mosaicnetworks/dagsync/change"
)

func TestFilterRemovesExactDuplicates(t *testing.T) {
	r1 := change.Record{Payload: []byte("c1")}
	r2 := change.Record{Payload: []byte("c2")}
	r3 := change.Record{Payload: []byte("c3")}

	sent := []change.Blob{r1.Encode(), r2.Encode()}
	candidates := []change.Blob{r1.Encode(), r2.Encode(), r3.Encode()}

	out, err := Filter(candidates, sent)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected only c3 to survive, got %d entries", len(out))
	}
	got, err := change.DecodeRecord(out[0])
	if err != nil || string(got.Payload) != "c3" {
		t.Fatalf("expected c3 to survive dedup, got %q err %v", got.Payload, err)
	}
}

func TestFilterEmptyInputsPassThrough(t *testing.T) {
	r1 := change.Record{Payload: []byte("c1")}
	candidates := []change.Blob{r1.Encode()}

	out, err := Filter(candidates, nil)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected candidates to pass through unchanged when sent is empty")
	}

	out2, err := Filter(nil, candidates)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(out2) != 0 {
		t.Fatalf("expected empty candidates to stay empty")
	}
}

func TestIndexDistinguishesChecksumCollisionsByFullBytes(t *testing.T) {
	r1 := change.Record{Payload: []byte("alpha")}
	// collide keeps r1's checksum bytes (4-7) but is a different blob,
	// so only the full-byte comparison can tell the two apart.
	collide := append(append(change.Blob(nil), r1.Encode()...), 0xFF)

	idx, err := NewIndex([]change.Blob{r1.Encode()})
	if err != nil {
		t.Fatalf("new index: %v", err)
	}

	dup, err := idx.Contains(collide)
	if err != nil {
		t.Fatalf("contains: %v", err)
	}
	if dup {
		t.Fatalf("a different blob with the same checksum must not be reported as a duplicate")
	}

	dup, err = idx.Contains(r1.Encode())
	if err != nil {
		t.Fatalf("contains: %v", err)
	}
	if !dup {
		t.Fatalf("identical payload must be reported as duplicate")
	}
}
