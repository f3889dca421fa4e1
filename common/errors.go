package common

import "fmt"

// SyncErrType categorizes the failures the sync core can raise, as
// opposed to errors the Backend raises itself and that propagate
// unchanged.
type SyncErrType uint32

const (
	// FormatError ...
	FormatError SyncErrType = iota
	// Truncation ...
	Truncation
	// UnknownPeerHistory ...
	UnknownPeerHistory
	// BackendError ...
	BackendError
)

// SyncErr ...
type SyncErr struct {
	errType SyncErrType
	context string
}

// NewSyncErr ...
func NewSyncErr(errType SyncErrType, context string) SyncErr {
	return SyncErr{
		errType: errType,
		context: context,
	}
}

// Error ...
func (e SyncErr) Error() string {
	m := ""
	switch e.errType {
	case FormatError:
		m = "Format Error"
	case Truncation:
		m = "Truncation"
	case UnknownPeerHistory:
		m = "Unknown Peer History"
	case BackendError:
		m = "Backend Error"
	}

	if e.context == "" {
		return m
	}
	return fmt.Sprintf("%s: %s", m, e.context)
}

// Is checks that an error is a SyncErr of the given kind.
func Is(err error, t SyncErrType) bool {
	syncErr, ok := err.(SyncErr)
	return ok && syncErr.errType == t
}
