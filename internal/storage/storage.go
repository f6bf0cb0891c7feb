// Package storage provides durable client-side key-value storage, the
// equivalent of a browser's localStorage.  The session keeps exactly one
// entry in it: the bearer token under TokenKey.
package storage

import (
	"context"
	"errors"
)

// TokenKey is the fixed key the session persists its bearer token under.
const TokenKey = "token"

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("storage closed")

// Storage is a string-to-string durable map.  Get reports ok=false for a
// missing key; Remove of a missing key is not an error.
type Storage interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
