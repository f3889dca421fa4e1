package peers

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"path/filepath"
	"strings"
	"sync"
)

const jsonDirectoryPath = "peers.json"

// JSONDirectory persists a Directory to disk as a JSON array of Peer,
// generalized from babble's JSONPeerSet.
type JSONDirectory struct {
	l    sync.Mutex
	path string
}

// NewJSONDirectory creates a JSONDirectory rooted at a data directory.
func NewJSONDirectory(base string) *JSONDirectory {
	return &JSONDirectory{path: filepath.Join(base, jsonDirectoryPath)}
}

// Load parses the underlying JSON file into a Directory. It returns
// (nil, nil) if the file is empty or absent.
func (j *JSONDirectory) Load() (*Directory, error) {
	j.l.Lock()
	defer j.l.Unlock()

	buf, err := ioutil.ReadFile(j.path)
	if err != nil {
		return nil, err
	}
	if len(buf) == 0 {
		return nil, nil
	}

	var ps []*Peer
	dec := json.NewDecoder(bytes.NewReader(buf))
	if err := dec.Decode(&ps); err != nil {
		return nil, err
	}

	normalizeHex(ps)

	return NewDirectoryFromSlice(ps), nil
}

// normalizeHex standardizes public key strings to a "0x"+uppercase
// form regardless of how they were typed into peers.json by hand;
// hex.DecodeString accepts either case, so this only guarantees a
// single canonical PubKeyHex per key for ID computation and
// comparisons, not a match with keys.PublicKeyHex's own (lowercase)
// output.
func normalizeHex(ps []*Peer) {
	for _, p := range ps {
		p.PubKeyHex = "0x" + strings.TrimPrefix(strings.ToUpper(p.PubKeyHex), "0X")
	}
}

// Save persists peers to the JSON file.
func (j *JSONDirectory) Save(peers []*Peer) error {
	j.l.Lock()
	defer j.l.Unlock()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if err := enc.Encode(peers); err != nil {
		return err
	}

	return ioutil.WriteFile(j.path, buf.Bytes(), 0644)
}
