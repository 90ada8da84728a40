// Package storage is the device-local key/value store that holds the
// persisted session (tokens, login flag, cached user blob).
package storage

import (
	"context"
	"errors"
)

// Session keys. Values are opaque strings.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyIsLogin      = "is_login"
	KeyUser         = "user"
)

// SessionKeys lists every key the session owns.
var SessionKeys = []string{KeyAccessToken, KeyRefreshToken, KeyUser, KeyIsLogin}

var ErrClosed = errors.New("storage closed")

type Pair struct {
	Key   string
	Value string
}

// Store is implemented by every backend. MultiSet is all-or-nothing.
// MultiGet omits absent keys from the result.
type Store interface {
	MultiGet(ctx context.Context, keys ...string) (map[string]string, error)
	MultiSet(ctx context.Context, pairs ...Pair) error
	MultiRemove(ctx context.Context, keys ...string) error
	Close() error
}
