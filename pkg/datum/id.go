package datum

import "sync/atomic"

// idCounter is the source of unique IDs for containers, scopes and
// subscriptions. Using atomic operations ensures thread-safe ID generation
// without locks.
var idCounter uint64

// nextID returns the next unique ID.
// IDs are monotonically increasing and never reused.
func nextID() uint64 {
	return atomic.AddUint64(&idCounter, 1)
}
