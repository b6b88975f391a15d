// Package repo stores the single pending conversation state per user.
package repo

import (
	"context"
	"sync"

	"github.com/bu-online/assistant/internal/assistant/model"
)

// MemoryStateStore keeps states in process memory. State is lost on restart.
type MemoryStateStore struct {
	mu     sync.RWMutex
	states map[string]model.Conversation
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: make(map[string]model.Conversation)}
}

func (m *MemoryStateStore) Load(_ context.Context, conversationID string) (model.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if conv, ok := m.states[conversationID]; ok {
		return conv, nil
	}
	return model.IdleConversation(), nil
}

func (m *MemoryStateStore) Save(_ context.Context, conversationID string, conv model.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if conv.State == model.Idle {
		delete(m.states, conversationID)
		return nil
	}
	m.states[conversationID] = conv
	return nil
}

func (m *MemoryStateStore) Reset(_ context.Context, conversationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, conversationID)
	return nil
}

var _ model.StateStore = (*MemoryStateStore)(nil)
