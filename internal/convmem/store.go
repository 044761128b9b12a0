package convmem

// Store is the session backing. The in-memory implementation below is the
// default; a persistent one (see modules/memory/sqlite) can be swapped in.
// Implementations must be safe for concurrent use; read-modify-write
// serialization for a single session is the Memory layer's job.
type Store interface {
	// Get returns a copy of the session, if present.
	Get(sessionID string) (Session, bool)

	// Put stores the session, replacing any previous state.
	Put(session Session)

	// Evict removes the session and reports whether it existed.
	Evict(sessionID string) bool

	// List returns copies of all sessions, in no particular order.
	List() []Session
}
