package ports

import (
	"context"
	"errors"
	"time"
)

var ErrLeaseHeld = errors.New("lease is held")

// TurnLease — эксклюзивный токен на генерацию ответа в одной беседе
type TurnLease interface {
	// Acquire не блокирует: занято → ErrLeaseHeld
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Release(ctx context.Context, key, token string) error
}
