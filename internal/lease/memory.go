package lease

import (
	"context"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/Vovarama1992/lingobuddy/internal/ports"
)

type entry struct {
	token     string
	expiresAt time.Time
}

// MemoryLease — для одного инстанса и тестов
type MemoryLease struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

func NewMemoryLease() *MemoryLease {
	return &MemoryLease{entries: make(map[string]entry), now: time.Now}
}

var _ ports.TurnLease = (*MemoryLease)(nil)

func (l *MemoryLease) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, ok := l.entries[key]; ok && now.Before(e.expiresAt) {
		return "", ports.ErrLeaseHeld
	}

	token := xid.New().String()
	l.entries[key] = entry{token: token, expiresAt: now.Add(ttl)}
	return token, nil
}

func (l *MemoryLease) Release(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.entries[key]; ok && e.token == token {
		delete(l.entries, key)
	}
	return nil
}
