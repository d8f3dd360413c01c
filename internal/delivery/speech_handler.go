package delivery

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/Vovarama1992/go-utils/logger"

	"github.com/Vovarama1992/lingobuddy/internal/domain"
)

type TurnRunner interface {
	SubmitUtterance(ctx context.Context, in domain.UtteranceInput) (*domain.UtteranceResult, error)
	GenerateReply(ctx context.Context, in domain.ReplyInput) (*domain.ReplyResult, error)
}

type SpeechHandler struct {
	turns TurnRunner
	log   *logger.ZapLogger
}

func NewSpeechHandler(turns TurnRunner, log *logger.ZapLogger) *SpeechHandler {
	return &SpeechHandler{turns: turns, log: log}
}

func (h *SpeechHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AudioFile      string `json:"audioFile"`
		ConversationID string `json:"conversationId"`
		Language       string `json:"language"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.log, "speech", err)
		return
	}

	if req.AudioFile == "" || req.ConversationID == "" || req.Language == "" {
		writeError(w, h.log, "speech", fmt.Errorf("%w: audioFile, conversationId, and language are required", domain.ErrValidation))
		return
	}

	audio, err := decodeAudio(req.AudioFile)
	if err != nil {
		writeError(w, h.log, "speech", err)
		return
	}

	res, err := h.turns.SubmitUtterance(r.Context(), domain.UtteranceInput{
		ConversationID: req.ConversationID,
		Audio:          audio,
		Language:       req.Language,
		OwnerID:        UserID(r.Context()),
	})
	if err != nil {
		writeError(w, h.log, "speech", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"text":          res.Transcript,
		"interactionId": res.InteractionID,
	})
}

func (h *SpeechHandler) GenerateResponse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text           string `json:"text"`
		ConversationID string `json:"conversationId"`
		Language       string `json:"language"`
		InteractionID  string `json:"interactionId"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.log, "speech", err)
		return
	}

	res, err := h.turns.GenerateReply(r.Context(), domain.ReplyInput{
		ConversationID: req.ConversationID,
		Text:           req.Text,
		Language:       req.Language,
		ReplyTo:        req.InteractionID,
		OwnerID:        UserID(r.Context()),
	})
	if err != nil {
		writeError(w, h.log, "speech", err)
		return
	}

	out := map[string]any{
		"aiResponse":    res.ReplyText,
		"audioFile":     base64.StdEncoding.EncodeToString(res.Audio),
		"interactionId": res.InteractionID,
	}
	if res.AudioURL != "" {
		out["audioUrl"] = res.AudioURL
	}
	writeJSON(w, http.StatusOK, out)
}

// decodeAudio принимает чистый base64 и data URL ("data:audio/webm;base64,...")
func decodeAudio(raw string) ([]byte, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}

	audio, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		audio, err = base64.RawStdEncoding.DecodeString(s)
	}
	if err != nil || len(audio) == 0 {
		return nil, fmt.Errorf("%w: audioFile must be non-empty base64", domain.ErrValidation)
	}
	return audio, nil
}
