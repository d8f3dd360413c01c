package translation

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	openai "github.com/sashabaranov/go-openai"

	"github.com/Vovarama1992/lingobuddy/internal/domain"
	"github.com/Vovarama1992/lingobuddy/internal/ports"
)

type jsonCompleter interface {
	GetJSONCompletion(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error)
}

// OpenAITranslator — сегменты и слова через chat completion в JSON-режиме
type OpenAITranslator struct {
	client jsonCompleter
}

func NewOpenAITranslator(client jsonCompleter) *OpenAITranslator {
	return &OpenAITranslator{client: client}
}

func (t *OpenAITranslator) TranslateSegments(ctx context.Context, text, sourceLang, targetLang string) (*ports.TranslatedText, error) {
	system := fmt.Sprintf(`You split %s text into words and short fixed expressions and translate each into %s.
Return a JSON object: {"segments":[{"text":"...","translation":"...","partOfSpeech":"..."}],"textTranslation":"..."}.
Rules:
- segments follow the order of the source text;
- every "text" is copied character for character from the source, never normalised or corrected;
- do not return whitespace-only segments; punctuation may be omitted;
- "textTranslation" is a natural translation of the whole text.`, languageName(sourceLang), languageName(targetLang))

	raw, err := t.client.GetJSONCompletion(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: system},
		{Role: openai.ChatMessageRoleUser, Content: text},
	})
	if err != nil {
		return nil, err
	}

	var out ports.TranslatedText
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode segments: %w", err)
	}
	return &out, nil
}

func (t *OpenAITranslator) TranslateWord(ctx context.Context, word, sourceLang, targetLang string) (*ports.WordTranslation, error) {
	system := fmt.Sprintf(`Translate the %s word given by the user into %s.
Return a JSON object: {"translatedWord":"...","partOfSpeech":"...","confidence":0.0}.
"confidence" is between 0 and 1.`, languageName(sourceLang), languageName(targetLang))

	raw, err := t.client.GetJSONCompletion(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: system},
		{Role: openai.ChatMessageRoleUser, Content: word},
	})
	if err != nil {
		return nil, err
	}

	var out ports.WordTranslation
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode word translation: %w", err)
	}
	if strings.TrimSpace(out.TranslatedWord) == "" {
		return nil, fmt.Errorf("empty word translation")
	}
	return &out, nil
}

// languageName: "es" → "Spanish"; всё прочее как пришло ("English", "Korean")
func languageName(raw string) string {
	l, err := domain.ParseLanguage(raw)
	if err != nil {
		return raw
	}
	info, err := l.Info()
	if err != nil {
		return raw
	}
	return info.Name
}
