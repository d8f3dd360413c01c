package speech

import (
	"context"

	"github.com/Vovarama1992/lingobuddy/internal/ports"
)

// === Единый сервис (и для стт и для ттс) ===

type Service struct {
	stt ports.Transcriber
	tts ports.Synthesizer
}

func NewService(stt ports.Transcriber, tts ports.Synthesizer) *Service {
	return &Service{
		stt: stt,
		tts: tts,
	}
}

var (
	_ ports.Transcriber = (*Service)(nil)
	_ ports.Synthesizer = (*Service)(nil)
)

func (s *Service) Transcribe(ctx context.Context, audio []byte, language string) (string, error) {
	return s.stt.Transcribe(ctx, audio, language)
}

func (s *Service) Speak(ctx context.Context, text, voiceID string) ([]byte, error) {
	return s.tts.Speak(ctx, text, voiceID)
}
