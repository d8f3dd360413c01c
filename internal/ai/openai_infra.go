package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient — из OPENAI_API_KEY / OPENAI_BASE_URL / OPENAI_MODEL.
// BaseURL позволяет ходить в любой OpenAI-совместимый API.
func NewOpenAIClient() (*OpenAIClient, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY not set")
	}

	cfg := openai.DefaultConfig(apiKey)
	if base := os.Getenv("OPENAI_BASE_URL"); base != "" {
		cfg.BaseURL = base
	}
	return NewOpenAIClientWithConfig(cfg, os.Getenv("OPENAI_MODEL")), nil
}

func NewOpenAIClientWithConfig(cfg openai.ClientConfig, model string) *OpenAIClient {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (c *OpenAIClient) Model() string { return c.model }

func (c *OpenAIClient) GetCompletion(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return "", explainOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// GetJSONCompletion — ответ строго JSON-объектом (response_format=json_object)
func (c *OpenAIClient) GetJSONCompletion(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0.1,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", explainOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Transcribe — Whisper, голос → текст
func (c *OpenAIClient) Transcribe(ctx context.Context, audio []byte, language string) (string, error) {
	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		Reader:   bytes.NewReader(audio),
		FilePath: "utterance.webm",
		Language: language,
	})
	if err != nil {
		return "", explainOpenAIError(err)
	}
	return resp.Text, nil
}

// диагностика ошибок OpenAI
func explainOpenAIError(err error) error {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("openai: %w", err)
	}

	var diag string
	switch apiErr.HTTPStatusCode {
	case 401:
		diag = "invalid API key"
	case 404:
		diag = "model not found"
	case 429:
		diag = "rate limit exceeded"
	case 400:
		if strings.Contains(strings.ToLower(apiErr.Message), "model") {
			diag = "invalid model"
		} else {
			diag = "bad request"
		}
	case 500, 502, 503:
		diag = "provider internal error"
	default:
		diag = "unexpected error"
	}
	return fmt.Errorf("openai %s (status %d): %w", diag, apiErr.HTTPStatusCode, err)
}
