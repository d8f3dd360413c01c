package delivery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/goccy/go-json"

	"github.com/Vovarama1992/lingobuddy/internal/domain"
)

const maxJSONBody = 32 << 20

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func writeFail(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Error: msg})
}

// statusFor: пустой транскрипт проверяется раньше ErrService, он тоже StageError
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptyTranscript):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrUnsupportedLanguage):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrTurnInProgress):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrService):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// клиенту — короткое сообщение, в лог — полная ошибка
func publicMessage(status int, err error) string {
	switch status {
	case http.StatusUnprocessableEntity:
		return "could not understand the audio, please try again"
	case http.StatusBadRequest, http.StatusNotFound, http.StatusConflict:
		return err.Error()
	case http.StatusGatewayTimeout:
		return "request timed out"
	case http.StatusBadGateway:
		return "upstream service failed"
	default:
		return "internal error"
	}
}

func writeError(w http.ResponseWriter, log *logger.ZapLogger, service string, err error) {
	status := statusFor(err)

	level := "warn"
	if status >= 500 {
		level = "error"
	}
	log.Log(logger.LogEntry{
		Level:   level,
		Message: fmt.Sprintf("request failed with %d", status),
		Service: service,
		Error:   err,
	})

	writeFail(w, status, publicMessage(status, err))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		return fmt.Errorf("%w: failed to read body", domain.ErrValidation)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: invalid json", domain.ErrValidation)
	}
	return nil
}
