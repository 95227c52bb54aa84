// Package storage holds the key/value backends the ball state is persisted in.
package storage

import (
	"errors"
)

var (
	ErrNotFound = errors.New("not found")
	ErrClosed   = errors.New("storage closed")
)

// KV is a minimal byte-oriented key/value store. Writes are durable once Put returns.
type KV interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Close() error
}
