package wire

import (
	"fmt"

	"github.com/mosaicnetworks/dagsync/common"
	"github.com/mosaicnetworks/dagsync/hash"
)

// stateTag is the first byte of persisted peer state.
const stateTag = 0x43

// PersistedState is the subset of peer sync state that survives a
// restart.
type PersistedState struct {
	SharedHeads []hash.Hash
}

// EncodeState renders p as: tag byte, then sharedHeads as a hash vector.
func EncodeState(p *PersistedState) ([]byte, error) {
	hv, err := hash.EncodeVector(p.SharedHeads)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 0, 1+len(hv))
	buf = append(buf, stateTag)
	buf = append(buf, hv...)
	return buf, nil
}

// DecodeState reverses EncodeState. Trailing bytes are ignored.
func DecodeState(b []byte) (*PersistedState, error) {
	if len(b) < 1 || b[0] != stateTag {
		return nil, common.NewSyncErr(common.FormatError, fmt.Sprintf("state tag byte, want 0x%x", stateTag))
	}
	sharedHeads, _, err := hash.DecodeVector(b[1:])
	if err != nil {
		return nil, err
	}
	return &PersistedState{SharedHeads: sharedHeads}, nil
}
