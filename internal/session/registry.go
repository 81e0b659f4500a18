package session

import "sync"

// Registry holds the in-memory sessions, one per chat. Sessions are not
// persisted: on restart they are rebuilt from the durable token store.
type Registry struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[int64]*Session)}
}

// Get returns the session for a chat, or nil when none exists yet.
func (r *Registry) Get(chatID int64) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[chatID]
}

// GetOrCreate returns the existing session for a chat, creating a fresh
// login-view session on first contact. The second return reports whether
// the session was just created.
func (r *Registry) GetOrCreate(chatID int64) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[chatID]; ok {
		return s, false
	}
	s := New(chatID)
	r.sessions[chatID] = s
	return s, true
}
