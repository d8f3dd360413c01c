package ports

import "context"

// ChatMessage — элемент контекстного окна для генерации
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type InteractionRecorder interface {
	Create(ctx context.Context, conversationID, message string, sender Sender) (*Interaction, error)
	// Update — только для позднего текста ответа ai
	Update(ctx context.Context, interactionID, message string) (*Interaction, error)
}

type HistoryAssembler interface {
	Assemble(ctx context.Context, conversationID string) ([]ChatMessage, error)
	// AssembleExcluding — то же, без реплики excludeID (текущая фраза пользователя)
	AssembleExcluding(ctx context.Context, conversationID, excludeID string) ([]ChatMessage, error)
}
