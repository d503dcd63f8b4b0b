package link

// SessionState indicates the state of one side of the link.
type SessionState int

const (
	// StateUnsynchronized is the state at boot, before the handshake.
	StateUnsynchronized SessionState = iota
	// StateAwaitingReady means the side waits for ready-for-data.
	StateAwaitingReady
	// StateSynchronized means the side holds the right to send one frame.
	StateSynchronized
	// StatePanicked is terminal until reset, see Monitor for the code.
	StatePanicked
)

// String implements fmt.Stringer.
func (s SessionState) String() string {
	switch s {
	case StateUnsynchronized:
		return "unsynchronized"
	case StateAwaitingReady:
		return "awaiting-ready"
	case StateSynchronized:
		return "synchronized"
	case StatePanicked:
		return "panicked"
	}
	return "unknown"
}

// SyncResult is the outcome of the startup handshake.
type SyncResult int

const (
	// FreshConnect means the USB interface just booted and sent InitSync.
	FreshConnect SyncResult = iota + 1
	// Resynced means the link was recovered with the resync handshake,
	// typically because only the main controller was reset.
	Resynced
)

// String implements fmt.Stringer.
func (r SyncResult) String() string {
	switch r {
	case FreshConnect:
		return "fresh-connect"
	case Resynced:
		return "resynced"
	}
	return "none"
}
