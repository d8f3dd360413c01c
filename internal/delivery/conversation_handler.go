package delivery

import (
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/go-chi/chi/v5"

	"github.com/Vovarama1992/lingobuddy/internal/domain"
	"github.com/Vovarama1992/lingobuddy/internal/ports"
)

type ConversationHandler struct {
	conversations *domain.ConversationService
	recorder      ports.InteractionRecorder
	log           *logger.ZapLogger
}

func NewConversationHandler(conversations *domain.ConversationService, recorder ports.InteractionRecorder, log *logger.ZapLogger) *ConversationHandler {
	return &ConversationHandler{conversations: conversations, recorder: recorder, log: log}
}

func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Language string `json:"language"`
		Title    string `json:"title"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.log, "conversations", err)
		return
	}

	c, err := h.conversations.Create(r.Context(), UserID(r.Context()), req.Language, req.Title)
	if err != nil {
		writeError(w, h.log, "conversations", err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.conversations.List(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, h.log, "conversations", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.conversations.Get(r.Context(), chi.URLParam(r, "id"), UserID(r.Context()))
	if err != nil {
		writeError(w, h.log, "conversations", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.conversations.Delete(r.Context(), id, UserID(r.Context())); err != nil {
		writeError(w, h.log, "conversations", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

// UpdateInteraction правит текст ответа ai (реплики пользователя неизменяемы)
func (h *ConversationHandler) UpdateInteraction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.log, "interactions", err)
		return
	}

	id := chi.URLParam(r, "id")
	if _, err := h.conversations.Interaction(r.Context(), id, UserID(r.Context())); err != nil {
		writeError(w, h.log, "interactions", err)
		return
	}

	it, err := h.recorder.Update(r.Context(), id, req.Message)
	if err != nil {
		writeError(w, h.log, "interactions", err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}
