package mentoring

import (
	"context"
	"sync"
)

// DefaultNextStep is the next-step pointer before any block in a
// workflow has been completed.
const DefaultNextStep = "mentoring_first"

// SessionStore persists per-learner-per-block session state. Load
// returns a zero-valued SessionState for learners who have not touched
// the block yet; sessions are never explicitly destroyed by the core.
type SessionStore interface {
	Load(ctx context.Context, userID, blockID string) (SessionState, error)
	Save(ctx context.Context, userID, blockID string, st SessionState) error
}

// PreferenceStore persists the per-learner next-step pointer shared by
// all blocks of a workflow.
type PreferenceStore interface {
	NextStep(ctx context.Context, userID string) (string, error)
	SetNextStep(ctx context.Context, userID, value string) error
}

// Publisher delivers events to the host. Fire and forget: the core
// never waits on, or fails because of, event delivery.
type Publisher interface {
	Publish(ctx context.Context, eventType, key string, payload any)
}

type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]SessionState
	prefs    map[string]string
}

// NewMemoryStore returns an in-process store implementing both
// SessionStore and PreferenceStore, for tests and the workbench.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: map[string]SessionState{},
		prefs:    map[string]string{},
	}
}

func sessionKey(userID, blockID string) string { return userID + "|" + blockID }

func (m *MemoryStore) Load(_ context.Context, userID, blockID string) (SessionState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[sessionKey(userID, blockID)], nil
}

func (m *MemoryStore) Save(_ context.Context, userID, blockID string, st SessionState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionKey(userID, blockID)] = st
	return nil
}

func (m *MemoryStore) NextStep(_ context.Context, userID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.prefs[userID]; ok {
		return v, nil
	}
	return DefaultNextStep, nil
}

func (m *MemoryStore) SetNextStep(_ context.Context, userID, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefs[userID] = value
	return nil
}
