package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation          = errors.New("validation error")
	ErrNotFound            = errors.New("not found")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrEmptyTranscript     = errors.New("empty transcript")
	ErrService             = errors.New("service error")
	ErrTurnInProgress      = errors.New("reply generation already in progress")
)

// Stage — шаг конвейера реплики
type Stage string

const (
	StageTranscribe Stage = "transcribe"
	StageContext    Stage = "context"
	StageGenerate   Stage = "generate"
	StageSynthesize Stage = "synthesize"
	StagePersist    Stage = "persist"
	StageTranslate  Stage = "translate"
)

// StageError оборачивает ошибку внешнего вызова именем шага.
// errors.Is(err, ErrService) истинно всегда, причина доступна через errors.Is/As.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() []error {
	return []error{ErrService, e.Err}
}

func stageErr(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
