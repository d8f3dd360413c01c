package error_notificator

import (
	"context"
	"sync"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
)

const dedupWindow = time.Minute

// Service пишет ошибку в лог и, если есть infra, шлёт её админу.
// Одинаковые (source, err) чаще раза в минуту не пересылаются.
type Service struct {
	infra Notificator
	log   *logger.ZapLogger

	mu   sync.Mutex
	sent map[string]time.Time
}

func NewService(infra Notificator, log *logger.ZapLogger) *Service {
	return &Service{infra: infra, log: log, sent: make(map[string]time.Time)}
}

func (s *Service) Notify(ctx context.Context, source string, err error, details string) error {
	s.log.Log(logger.LogEntry{
		Level:   "error",
		Message: "[" + source + "] " + details,
		Service: "error_notificator",
		Error:   err,
	})

	if s.infra == nil || !s.shouldSend(source, err) {
		return nil
	}
	return s.infra.Notify(ctx, source, err, details)
}

func (s *Service) shouldSend(source string, err error) bool {
	key := source
	if err != nil {
		key += ":" + err.Error()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if last, ok := s.sent[key]; ok && now.Sub(last) < dedupWindow {
		return false
	}
	s.sent[key] = now
	return true
}
