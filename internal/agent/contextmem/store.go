package contextmem

import "sync"

// Store hands out one Memory per conversation ID. Memories live for the
// process lifetime; the per-memory MRU caps keep each one small, so eviction
// is left to process restarts.
type Store struct {
	mu   sync.Mutex
	cfg  Config
	mems map[string]*Memory
}

// NewStore creates an empty store.
func NewStore(cfg Config) *Store {
	return &Store{cfg: cfg, mems: map[string]*Memory{}}
}

// Get returns the memory for a conversation, creating it on first use.
func (s *Store) Get(conversationID string) *Memory {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.mems[conversationID]
	if !ok {
		m = NewMemory(s.cfg)
		s.mems[conversationID] = m
	}
	return m
}

// Drop discards the memory of one conversation.
func (s *Store) Drop(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.mems, conversationID)
}
