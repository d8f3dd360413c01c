package infra

import (
	"context"
	"fmt"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"

	"github.com/Vovarama1992/lingobuddy/internal/ports"
)

const (
	tableConversations = "conversations"
	tableInteractions  = "interactions"
)

// SupabaseStore — те же таблицы через PostgREST
type SupabaseStore struct {
	client *supabase.Client
}

func NewSupabaseStore(url, key string) (*SupabaseStore, error) {
	if url == "" {
		return nil, fmt.Errorf("supabase URL is required")
	}
	if key == "" {
		return nil, fmt.Errorf("supabase API key is required")
	}

	client, err := supabase.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	return &SupabaseStore{client: client}, nil
}

func (s *SupabaseStore) Conversations() ports.ConversationStore {
	return &supabaseConversations{client: s.client}
}

func (s *SupabaseStore) Interactions() ports.InteractionStore {
	return &supabaseInteractions{client: s.client}
}

type supabaseConversations struct {
	client *supabase.Client
}

func (r *supabaseConversations) Create(ctx context.Context, c ports.Conversation) (*ports.Conversation, error) {
	var rows []ports.Conversation
	_, err := r.client.From(tableConversations).
		Insert(c, false, "", "representation", "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("supabase insert conversation: %w", err)
	}
	if len(rows) == 0 {
		return &c, nil
	}
	return &rows[0], nil
}

func (r *supabaseConversations) Get(ctx context.Context, id string) (*ports.Conversation, error) {
	var rows []ports.Conversation
	_, err := r.client.From(tableConversations).
		Select("*", "", false).
		Eq("id", id).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("supabase get conversation: %w", err)
	}
	if len(rows) == 0 {
		return nil, ports.ErrNoRows
	}
	return &rows[0], nil
}

func (r *supabaseConversations) ListByOwner(ctx context.Context, ownerID string) ([]ports.Conversation, error) {
	var rows []ports.Conversation
	_, err := r.client.From(tableConversations).
		Select("*", "", false).
		Eq("user_id", ownerID).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("supabase list conversations: %w", err)
	}
	return rows, nil
}

func (r *supabaseConversations) Delete(ctx context.Context, id, ownerID string) error {
	var deleted []ports.Conversation
	_, err := r.client.From(tableConversations).
		Delete("representation", "").
		Eq("id", id).
		Eq("user_id", ownerID).
		ExecuteTo(&deleted)
	if err != nil {
		return fmt.Errorf("supabase delete conversation: %w", err)
	}
	if len(deleted) == 0 {
		return ports.ErrNoRows
	}

	// каскад на стороне схемы (ON DELETE CASCADE), здесь — на случай его отсутствия
	var dropped []ports.Interaction
	_, err = r.client.From(tableInteractions).
		Delete("representation", "").
		Eq("conversation_id", id).
		ExecuteTo(&dropped)
	if err != nil {
		return fmt.Errorf("supabase delete interactions: %w", err)
	}
	return nil
}

type supabaseInteractions struct {
	client *supabase.Client
}

func (r *supabaseInteractions) Create(ctx context.Context, i ports.Interaction) (*ports.Interaction, error) {
	var rows []ports.Interaction
	_, err := r.client.From(tableInteractions).
		Insert(i, false, "", "representation", "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("supabase insert interaction: %w", err)
	}
	if len(rows) == 0 {
		return &i, nil
	}
	return &rows[0], nil
}

func (r *supabaseInteractions) Get(ctx context.Context, id string) (*ports.Interaction, error) {
	var rows []ports.Interaction
	_, err := r.client.From(tableInteractions).
		Select("*", "", false).
		Eq("id", id).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("supabase get interaction: %w", err)
	}
	if len(rows) == 0 {
		return nil, ports.ErrNoRows
	}
	return &rows[0], nil
}

func (r *supabaseInteractions) UpdateMessage(ctx context.Context, id, message string) (*ports.Interaction, error) {
	var rows []ports.Interaction
	_, err := r.client.From(tableInteractions).
		Update(map[string]string{"message": message}, "representation", "").
		Eq("id", id).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("supabase update interaction: %w", err)
	}
	if len(rows) == 0 {
		return nil, ports.ErrNoRows
	}
	return &rows[0], nil
}

func (r *supabaseInteractions) ListByConversation(ctx context.Context, conversationID string) ([]ports.Interaction, error) {
	var rows []ports.Interaction
	_, err := r.client.From(tableInteractions).
		Select("*", "", false).
		Eq("conversation_id", conversationID).
		Order("created_at", &postgrest.OrderOpts{Ascending: true}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("supabase list interactions: %w", err)
	}
	return rows, nil
}
