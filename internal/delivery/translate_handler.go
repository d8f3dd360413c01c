package delivery

import (
	"context"
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"

	"github.com/Vovarama1992/lingobuddy/internal/translation"
)

type Segmenter interface {
	Segment(ctx context.Context, text, sourceLang, targetLang string) (*translation.Result, error)
	TranslateWord(ctx context.Context, word, sourceLang, targetLang string) (*translation.WordResult, error)
}

type TranslateHandler struct {
	svc Segmenter
	log *logger.ZapLogger
}

func NewTranslateHandler(svc Segmenter, log *logger.ZapLogger) *TranslateHandler {
	return &TranslateHandler{svc: svc, log: log}
}

func (h *TranslateHandler) SplitText(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text           string `json:"text"`
		SourceLanguage string `json:"sourceLanguage"`
		TargetLanguage string `json:"targetLanguage"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.log, "translate", err)
		return
	}

	res, err := h.svc.Segment(r.Context(), req.Text, req.SourceLanguage, req.TargetLanguage)
	if err != nil {
		writeError(w, h.log, "translate", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *TranslateHandler) Word(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Word           string `json:"word"`
		SourceLanguage string `json:"sourceLanguage"`
		TargetLanguage string `json:"targetLanguage"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.log, "translate", err)
		return
	}

	res, err := h.svc.TranslateWord(r.Context(), req.Word, req.SourceLanguage, req.TargetLanguage)
	if err != nil {
		writeError(w, h.log, "translate", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
