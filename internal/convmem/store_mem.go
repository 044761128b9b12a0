package convmem

import "sync"

// shardCount spreads sessions over independently locked shards so busy
// sessions do not contend on one mutex.
const shardCount = 16

type storeShard struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// MemoryStore is a sharded in-memory Store. Session data lives only within
// this process; under horizontal scaling each instance sees only the
// sessions it handled, unless a shared backing is swapped in.
type MemoryStore struct {
	shards [shardCount]*storeShard
}

// Compile-time interface check.
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	for i := range s.shards {
		s.shards[i] = &storeShard{sessions: make(map[string]Session)}
	}
	return s
}

func (s *MemoryStore) shard(sessionID string) *storeShard {
	var h uint32 = 2166136261
	for i := 0; i < len(sessionID); i++ {
		h ^= uint32(sessionID[i])
		h *= 16777619
	}
	return s.shards[h%shardCount]
}

// Get implements Store.
func (s *MemoryStore) Get(sessionID string) (Session, bool) {
	sh := s.shard(sessionID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	sess, ok := sh.sessions[sessionID]
	if !ok {
		return Session{}, false
	}
	return sess.Clone(), true
}

// Put implements Store.
func (s *MemoryStore) Put(session Session) {
	sh := s.shard(session.ID)
	sh.mu.Lock()
	sh.sessions[session.ID] = session.Clone()
	sh.mu.Unlock()
}

// Evict implements Store.
func (s *MemoryStore) Evict(sessionID string) bool {
	sh := s.shard(sessionID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	_, ok := sh.sessions[sessionID]
	delete(sh.sessions, sessionID)
	return ok
}

// List implements Store.
func (s *MemoryStore) List() []Session {
	var out []Session
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, sess := range sh.sessions {
			out = append(out, sess.Clone())
		}
		sh.mu.RUnlock()
	}
	return out
}
