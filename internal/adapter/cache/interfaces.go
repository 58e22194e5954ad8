package cache

import (
	"context"
	"errors"
	"time"
)

//go:generate mockgen -source=interfaces.go -destination=../../mocks/cache_mocks.go -package=mocks

var ErrNotFound = errors.New("cache: key not found")

// HandshakeStore keeps short-lived protocol state. Take returns the value and
// removes it in one step, so a value is handed out at most once.
type HandshakeStore interface {
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Take(ctx context.Context, key string) ([]byte, error)
}
