// internal/engine/seq.go
package engine

// sequenceTracker keeps the latest applied sequence number. The transport
// guarantees in-order, exactly-once delivery within one connection, so there
// is no buffering or gap-filling here: observing a sequence number is pure
// bookkeeping, and the acknowledgment the engine emits for it is a
// liveness/flow-control signal to the server, not a reordering mechanism.
type sequenceTracker struct {
	current uint64
	seen    bool
}

// observe records a server-assigned sequence number from an inbound frame.
func (t *sequenceTracker) observe(n uint64) {
	t.current = n
	t.seen = true
}

// adopt takes the server's view of the current sequence directly, as carried
// by a ready control message once the client is fully synchronized.
func (t *sequenceTracker) adopt(n uint64) {
	t.current = n
	t.seen = true
}

// Current returns the tracked sequence number and whether one has been seen.
func (t *sequenceTracker) Current() (uint64, bool) {
	return t.current, t.seen
}
