package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Vovarama1992/lingobuddy/internal/ports"
	"github.com/google/uuid"
)

type ConversationDetails struct {
	ports.Conversation
	Interactions []ports.Interaction `json:"interactions"`
}

type ConversationService struct {
	conversations ports.ConversationStore
	interactions  ports.InteractionStore
	now           func() time.Time
}

func NewConversationService(c ports.ConversationStore, i ports.InteractionStore) *ConversationService {
	return &ConversationService{conversations: c, interactions: i, now: time.Now}
}

func (s *ConversationService) Create(ctx context.Context, ownerID, lang, title string) (*ports.Conversation, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, validationErr("user id is required")
	}
	l, err := ParseLanguage(lang)
	if err != nil {
		return nil, err
	}
	info, _ := l.Info()

	title = strings.TrimSpace(title)
	if title == "" {
		title = "Conversation in " + info.Name
	}

	c, err := s.conversations.Create(ctx, ports.Conversation{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Language:  l.String(),
		Title:     title,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return c, nil
}

func (s *ConversationService) List(ctx context.Context, ownerID string) ([]ports.Conversation, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, validationErr("user id is required")
	}
	list, err := s.conversations.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	if list == nil {
		list = []ports.Conversation{}
	}
	return list, nil
}

// Load возвращает беседу; ownerID пустой → проверка владельца пропускается
func (s *ConversationService) Load(ctx context.Context, id, ownerID string) (*ports.Conversation, error) {
	if strings.TrimSpace(id) == "" {
		return nil, validationErr("conversationId is required")
	}
	c, err := s.conversations.Get(ctx, id)
	if errors.Is(err, ports.ErrNoRows) {
		return nil, fmt.Errorf("%w: conversation %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	// чужая беседа выглядит как отсутствующая
	if ownerID != "" && c.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: conversation %s", ErrNotFound, id)
	}
	return c, nil
}

func (s *ConversationService) Get(ctx context.Context, id, ownerID string) (*ConversationDetails, error) {
	c, err := s.Load(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	items, err := s.interactions.ListByConversation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	if items == nil {
		items = []ports.Interaction{}
	}
	return &ConversationDetails{Conversation: *c, Interactions: items}, nil
}

func (s *ConversationService) Delete(ctx context.Context, id, ownerID string) error {
	if _, err := s.Load(ctx, id, ownerID); err != nil {
		return err
	}
	err := s.conversations.Delete(ctx, id, ownerID)
	if errors.Is(err, ports.ErrNoRows) {
		return fmt.Errorf("%w: conversation %s", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}

// Interaction возвращает реплику, если её беседа принадлежит ownerID
func (s *ConversationService) Interaction(ctx context.Context, interactionID, ownerID string) (*ports.Interaction, error) {
	if strings.TrimSpace(interactionID) == "" {
		return nil, validationErr("interactionId is required")
	}
	it, err := s.interactions.Get(ctx, interactionID)
	if errors.Is(err, ports.ErrNoRows) {
		return nil, fmt.Errorf("%w: interaction %s", ErrNotFound, interactionID)
	}
	if err != nil {
		return nil, fmt.Errorf("get interaction: %w", err)
	}
	if _, err := s.Load(ctx, it.ConversationID, ownerID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: interaction %s", ErrNotFound, interactionID)
		}
		return nil, err
	}
	return it, nil
}
