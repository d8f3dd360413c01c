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

type interactionService struct {
	repo ports.InteractionStore
	now  func() time.Time
}

func NewInteractionService(repo ports.InteractionStore) ports.InteractionRecorder {
	return &interactionService{repo: repo, now: time.Now}
}

// Create — id назначает сервис, не вызывающий
func (s *interactionService) Create(ctx context.Context, conversationID, message string, sender ports.Sender) (*ports.Interaction, error) {
	if strings.TrimSpace(conversationID) == "" {
		return nil, validationErr("conversationId is required")
	}
	if !sender.Valid() {
		return nil, validationErr("unknown sender %q", sender)
	}

	it, err := s.repo.Create(ctx, ports.Interaction{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Message:        message,
		Sender:         sender,
		CreatedAt:      s.now().UTC(),
	})
	if errors.Is(err, ports.ErrNoRows) {
		return nil, fmt.Errorf("%w: conversation %s", ErrNotFound, conversationID)
	}
	if err != nil {
		return nil, fmt.Errorf("create interaction: %w", err)
	}
	return it, nil
}

func (s *interactionService) Update(ctx context.Context, interactionID, message string) (*ports.Interaction, error) {
	if strings.TrimSpace(interactionID) == "" {
		return nil, validationErr("interactionId is required")
	}
	if strings.TrimSpace(message) == "" {
		return nil, validationErr("message is required")
	}

	cur, err := s.repo.Get(ctx, interactionID)
	if errors.Is(err, ports.ErrNoRows) {
		return nil, fmt.Errorf("%w: interaction %s", ErrNotFound, interactionID)
	}
	if err != nil {
		return nil, fmt.Errorf("get interaction: %w", err)
	}
	// реплики пользователя неизменяемы
	if cur.Sender != ports.SenderAI {
		return nil, validationErr("only ai interactions can be updated")
	}

	it, err := s.repo.UpdateMessage(ctx, interactionID, message)
	if errors.Is(err, ports.ErrNoRows) {
		return nil, fmt.Errorf("%w: interaction %s", ErrNotFound, interactionID)
	}
	if err != nil {
		return nil, fmt.Errorf("update interaction: %w", err)
	}
	return it, nil
}
