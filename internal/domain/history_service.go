package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/Vovarama1992/lingobuddy/internal/ports"
)

// HistoryOptions — окно контекста. Ноль = без ограничения.
type HistoryOptions struct {
	// MaxTurns — сколько последних ходов (фраза пользователя + ответ) оставить
	MaxTurns int
	// TokenBudget — суммарный лимит токенов по содержимому
	TokenBudget int
}

type TokenCounter interface {
	Count(text string) int
}

type historyService struct {
	repo    ports.InteractionStore
	opts    HistoryOptions
	counter TokenCounter
}

func NewHistoryService(repo ports.InteractionStore, opts HistoryOptions, counter TokenCounter) ports.HistoryAssembler {
	if counter == nil {
		counter = EstimateCounter{}
	}
	return &historyService{repo: repo, opts: opts, counter: counter}
}

func (s *historyService) Assemble(ctx context.Context, conversationID string) ([]ports.ChatMessage, error) {
	return s.AssembleExcluding(ctx, conversationID, "")
}

func (s *historyService) AssembleExcluding(ctx context.Context, conversationID, excludeID string) ([]ports.ChatMessage, error) {
	// порядок гарантирует хранилище (created_at ASC), здесь не пересортировываем
	items, err := s.repo.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}

	msgs := make([]ports.ChatMessage, 0, len(items))
	for _, it := range items {
		if excludeID != "" && it.ID == excludeID {
			continue
		}
		txt := strings.TrimSpace(it.Message)
		if txt == "" {
			continue
		}
		role := ports.RoleUser
		if it.Sender == ports.SenderAI {
			role = ports.RoleAssistant
		}
		msgs = append(msgs, ports.ChatMessage{Role: role, Content: txt})
	}

	return s.window(msgs), nil
}

// window режет историю с самых старых, свежие сообщения сохраняются
func (s *historyService) window(msgs []ports.ChatMessage) []ports.ChatMessage {
	start := 0

	if s.opts.MaxTurns > 0 {
		// окно начинается с фразы пользователя: ответ на отброшенный ход не остаётся сиротой
		turns, firstKept := 0, 0
		for i := len(msgs) - 1; i >= 0; i-- {
			if msgs[i].Role != ports.RoleUser {
				continue
			}
			turns++
			if turns > s.opts.MaxTurns {
				start = firstKept
				break
			}
			firstKept = i
		}
	}

	if s.opts.TokenBudget > 0 {
		total := 0
		for i := len(msgs) - 1; i >= start; i-- {
			total += s.counter.Count(msgs[i].Content)
			if total > s.opts.TokenBudget {
				start = i + 1
				break
			}
		}
	}

	return msgs[start:]
}
