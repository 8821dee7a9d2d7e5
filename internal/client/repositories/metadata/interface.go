// Package metadata is the client's key/value table: the session id, the
// refresh token and the last login email.
package metadata

import (
	"context"
)

const (
	KeySessionID    = "session_id"
	KeyRefreshToken = "refresh_token"
	KeyEmail        = "email"
)

// Repository reads and writes single keys. Get returns common.ErrorNotFound
// for a missing key.
type Repository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error

	// GetOrInit returns the value of key, storing newValue() first when the
	// key is missing. Concurrent callers all see the first stored value.
	GetOrInit(ctx context.Context, key string, newValue func() string) (string, error)
}
