package ai

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Vovarama1992/lingobuddy/internal/domain"
	"github.com/Vovarama1992/lingobuddy/internal/ports"
)

type completer interface {
	GetCompletion(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error)
}

// AiService — собеседник: история + роль + реплика пользователя → ответ
type AiService struct {
	client completer
}

func NewAiService(client completer) *AiService {
	return &AiService{client: client}
}

var _ ports.Generator = (*AiService)(nil)

func (s *AiService) Reply(
	ctx context.Context,
	userText string,
	language string,
	history []ports.ChatMessage,
	voiceGender string,
	voiceName string,
) (string, error) {
	start := time.Now()

	messages := BuildMessages(userText, language, history, voiceGender, voiceName)
	reply, err := s.client.GetCompletion(ctx, messages)
	log.Printf("[ai][%.1fs] reply done history=%d err=%v", time.Since(start).Seconds(), len(history), err)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

// BuildMessages: system-роль, затем история как есть, затем текущая фраза
func BuildMessages(userText, language string, history []ports.ChatMessage, voiceGender, voiceName string) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: partnerPrompt(language, voiceGender, voiceName),
	})

	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Role == ports.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userText,
	})
	return messages
}

func partnerPrompt(language, gender, name string) string {
	langName := language
	if l, err := domain.ParseLanguage(language); err == nil {
		if info, err := l.Info(); err == nil {
			langName = info.Name
		}
	}

	return fmt.Sprintf(`You are %s, a friendly %s native speaker of %s and a patient conversation partner for someone practicing the language.
Always answer only in %s, whatever language the learner uses.
Your answer is read aloud: keep it to one to three short spoken sentences, no markdown, lists or emojis.
If the learner makes a mistake, use the correct form naturally in your answer instead of lecturing.
End with a short question that keeps the conversation going.`, name, gender, langName, langName)
}
