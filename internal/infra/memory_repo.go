package infra

import (
	"context"
	"sort"
	"sync"

	"github.com/Vovarama1992/lingobuddy/internal/ports"
)

// MemoryStore — хранилище в памяти (STORE_DRIVER=memory и тесты)
type MemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]ports.Conversation
	interactions  map[string]ports.Interaction
	// порядок вставки по беседе
	byConversation map[string][]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations:  make(map[string]ports.Conversation),
		interactions:   make(map[string]ports.Interaction),
		byConversation: make(map[string][]string),
	}
}

func (s *MemoryStore) Conversations() ports.ConversationStore { return memConversations{s} }
func (s *MemoryStore) Interactions() ports.InteractionStore   { return memInteractions{s} }

type memConversations struct{ s *MemoryStore }

func (m memConversations) Create(ctx context.Context, c ports.Conversation) (*ports.Conversation, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	m.s.conversations[c.ID] = c
	return &c, nil
}

func (m memConversations) Get(ctx context.Context, id string) (*ports.Conversation, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	c, ok := m.s.conversations[id]
	if !ok {
		return nil, ports.ErrNoRows
	}
	return &c, nil
}

func (m memConversations) ListByOwner(ctx context.Context, ownerID string) ([]ports.Conversation, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var out []ports.Conversation
	for _, c := range m.s.conversations {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m memConversations) Delete(ctx context.Context, id, ownerID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	c, ok := m.s.conversations[id]
	if !ok || c.OwnerID != ownerID {
		return ports.ErrNoRows
	}
	for _, iid := range m.s.byConversation[id] {
		delete(m.s.interactions, iid)
	}
	delete(m.s.byConversation, id)
	delete(m.s.conversations, id)
	return nil
}

type memInteractions struct{ s *MemoryStore }

func (m memInteractions) Create(ctx context.Context, i ports.Interaction) (*ports.Interaction, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.conversations[i.ConversationID]; !ok {
		return nil, ports.ErrNoRows
	}
	m.s.interactions[i.ID] = i
	m.s.byConversation[i.ConversationID] = append(m.s.byConversation[i.ConversationID], i.ID)
	return &i, nil
}

func (m memInteractions) Get(ctx context.Context, id string) (*ports.Interaction, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	i, ok := m.s.interactions[id]
	if !ok {
		return nil, ports.ErrNoRows
	}
	return &i, nil
}

func (m memInteractions) UpdateMessage(ctx context.Context, id, message string) (*ports.Interaction, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	i, ok := m.s.interactions[id]
	if !ok {
		return nil, ports.ErrNoRows
	}
	i.Message = message
	m.s.interactions[id] = i
	return &i, nil
}

func (m memInteractions) ListByConversation(ctx context.Context, conversationID string) ([]ports.Interaction, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	ids := m.s.byConversation[conversationID]
	out := make([]ports.Interaction, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.s.interactions[id])
	}
	// равные created_at остаются в порядке вставки
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
