package ports

import (
	"context"
	"errors"
	"time"
)

// ErrNoRows — запись не найдена в хранилище
var ErrNoRows = errors.New("no rows")

type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderAI
}

// DTO беседы
type Conversation struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"user_id"`
	Language  string    `json:"language"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// DTO одной реплики (turn)
type Interaction struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Message        string    `json:"message"`
	Sender         Sender    `json:"sender"`
	CreatedAt      time.Time `json:"created_at"`
}

type ConversationStore interface {
	Create(ctx context.Context, c Conversation) (*Conversation, error)
	Get(ctx context.Context, id string) (*Conversation, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Conversation, error)
	// Delete удаляет беседу вместе со всеми её репликами
	Delete(ctx context.Context, id, ownerID string) error
}

type InteractionStore interface {
	Create(ctx context.Context, i Interaction) (*Interaction, error)
	Get(ctx context.Context, id string) (*Interaction, error)
	UpdateMessage(ctx context.Context, id, message string) (*Interaction, error)
	// ListByConversation — строго по created_at ASC
	ListByConversation(ctx context.Context, conversationID string) ([]Interaction, error)
}
