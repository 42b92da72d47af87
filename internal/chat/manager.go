package chat

import (
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hyperengineering/bidtrack/internal/types"
)

// Finalizer persists a completed draft. Implemented by the bid service.
type Finalizer interface {
	Finalize(b types.Bid) (string, error)
}

// Manager keeps one session per conversation in a keyed table. A session is
// created on the first message of a conversation and expired by the sweeper
// after the idle TTL. There is deliberately no process-wide draft.
type Manager struct {
	finalizer Finalizer
	ttl       time.Duration
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a session manager with the given idle TTL.
func NewManager(finalizer Finalizer, ttl time.Duration) *Manager {
	return &Manager{
		finalizer: finalizer,
		ttl:       ttl,
		now:       time.Now,
		sessions:  make(map[string]*Session),
	}
}

// Handle advances one conversation by one message. An empty session id
// starts a fresh conversation under a newly minted id, which the caller
// must echo back on subsequent turns.
func (m *Manager) Handle(sessionID, message string) types.ChatResponse {
	session := m.get(sessionID)

	session.mu.Lock()
	session.lastActive = m.now()
	reply, suggestions := session.step(message, m.finalizer)
	session.mu.Unlock()

	return types.ChatResponse{
		SessionID:   session.ID,
		Response:    reply,
		Suggestions: suggestions,
	}
}

// get returns the session for the id, creating one when the id is empty or
// unknown (an expired session restarts transparently under the same id).
func (m *Manager) get(sessionID string) *Session {
	if sessionID != "" {
		m.mu.RLock()
		session, ok := m.sessions[sessionID]
		m.mu.RUnlock()
		if ok {
			return session
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if sessionID == "" {
		sessionID = ulid.Make().String()
	}
	if session, ok := m.sessions[sessionID]; ok {
		return session
	}

	session := newSession(sessionID, m.now())
	m.sessions[sessionID] = session
	slog.Info("chat session created", "sessionId", sessionID)
	return session
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// SweepExpired drops every session idle past the TTL and returns how many
// were removed.
func (m *Manager) SweepExpired(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, session := range m.sessions {
		session.mu.Lock()
		idle := now.Sub(session.lastActive)
		session.mu.Unlock()
		if idle > m.ttl {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		slog.Info("chat sessions expired", "removed", removed)
	}
	return removed
}
