package domain

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Vovarama1992/lingobuddy/internal/infra"
	"github.com/Vovarama1992/lingobuddy/internal/ports"
)

func seedHistory(t *testing.T, store *infra.MemoryStore, convID string, msgs ...string) []ports.Interaction {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	if _, err := store.Conversations().Create(ctx, ports.Conversation{ID: convID, OwnerID: "u1", Language: "es", CreatedAt: base}); err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	var out []ports.Interaction
	for i, m := range msgs {
		sender := ports.SenderUser
		if i%2 == 1 {
			sender = ports.SenderAI
		}
		it, err := store.Interactions().Create(ctx, ports.Interaction{
			ID:             fmt.Sprintf("%s-i%d", convID, i),
			ConversationID: convID,
			Message:        m,
			Sender:         sender,
			CreatedAt:      base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("create interaction: %v", err)
		}
		out = append(out, *it)
	}
	return out
}

func TestHistory_OrderAndRoles(t *testing.T) {
	store := infra.NewMemoryStore()
	seedHistory(t, store, "c1", "hola", "¡Hola! ¿Qué tal?", "  ", "bien")

	h := NewHistoryService(store.Interactions(), HistoryOptions{}, nil)
	msgs, err := h.Assemble(context.Background(), "c1")
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	// пустая реплика ai пропускается
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %+v", msgs)
	}
	if msgs[0].Role != ports.RoleUser || msgs[0].Content != "hola" {
		t.Fatalf("unexpected first message %+v", msgs[0])
	}
	if msgs[1].Role != ports.RoleAssistant {
		t.Fatalf("ai interaction must map to assistant: %+v", msgs[1])
	}
	if msgs[2].Content != "bien" {
		t.Fatalf("unexpected last message %+v", msgs[2])
	}
}

func TestHistory_Excluding(t *testing.T) {
	store := infra.NewMemoryStore()
	items := seedHistory(t, store, "c1", "uno", "one", "dos")

	h := NewHistoryService(store.Interactions(), HistoryOptions{}, nil)
	msgs, err := h.AssembleExcluding(context.Background(), "c1", items[2].ID)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(msgs) != 2 || msgs[1].Content != "one" {
		t.Fatalf("unexpected history %+v", msgs)
	}
}

func TestHistory_MaxTurnsKeepsMostRecent(t *testing.T) {
	store := infra.NewMemoryStore()
	seedHistory(t, store, "c1", "u0", "a0", "u1", "a1", "u2", "a2")

	h := NewHistoryService(store.Interactions(), HistoryOptions{MaxTurns: 2}, nil)
	msgs, err := h.Assemble(context.Background(), "c1")
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(msgs) != 4 || msgs[0].Content != "u1" || msgs[3].Content != "a2" {
		t.Fatalf("unexpected window %+v", msgs)
	}
}

func TestHistory_MaxTurnsStartsWithUser(t *testing.T) {
	store := infra.NewMemoryStore()
	seedHistory(t, store, "c1", "u0", "a0", "u1", "a1")

	h := NewHistoryService(store.Interactions(), HistoryOptions{MaxTurns: 1}, nil)
	msgs, err := h.Assemble(context.Background(), "c1")
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Role != ports.RoleUser || msgs[0].Content != "u1" || msgs[1].Content != "a1" {
		t.Fatalf("window must start at the kept user turn, got %+v", msgs)
	}
}

func TestHistory_MaxTurnsNotExceeded(t *testing.T) {
	store := infra.NewMemoryStore()
	seedHistory(t, store, "c1", "u0", "a0", "u1")

	h := NewHistoryService(store.Interactions(), HistoryOptions{MaxTurns: 2}, nil)
	msgs, err := h.Assemble(context.Background(), "c1")
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected full history, got %+v", msgs)
	}
}

type fixedCounter int

func (c fixedCounter) Count(string) int { return int(c) }

func TestHistory_TokenBudget(t *testing.T) {
	store := infra.NewMemoryStore()
	seedHistory(t, store, "c1", "u0", "a0", "u1", "a1", "u2")

	// 10 токенов на сообщение, бюджет 25 → два последних
	h := NewHistoryService(store.Interactions(), HistoryOptions{TokenBudget: 25}, fixedCounter(10))
	msgs, err := h.Assemble(context.Background(), "c1")
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Content != "a1" || msgs[1].Content != "u2" {
		t.Fatalf("unexpected window %+v", msgs)
	}
}

func TestHistory_Empty(t *testing.T) {
	store := infra.NewMemoryStore()
	seedHistory(t, store, "c1")

	h := NewHistoryService(store.Interactions(), HistoryOptions{MaxTurns: 3}, nil)
	msgs, err := h.Assemble(context.Background(), "c1")
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected empty history, got %+v", msgs)
	}
}

func TestEstimateCounter(t *testing.T) {
	var c EstimateCounter
	if c.Count("") != 0 || c.Count("abcd") != 1 || c.Count("abcde") != 2 {
		t.Fatalf("unexpected estimates")
	}
}
