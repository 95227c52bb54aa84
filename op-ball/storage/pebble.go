package storage

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

// Pebble is a KV backed by a pebble database. Every write is synced.
type Pebble struct {
	db *pebble.DB
}

var _ KV = (*Pebble)(nil)

// OpenPebble opens (or creates) a database in dir.
func OpenPebble(dir string) (*Pebble, error) {
	return openPebble(dir, &pebble.Options{})
}

// OpenPebbleInMemory opens a database on an in-memory filesystem.
func OpenPebbleInMemory() (*Pebble, error) {
	return openPebble("", &pebble.Options{FS: vfs.NewMem()})
}

func openPebble(dir string, opts *pebble.Options) (*Pebble, error) {
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble db at %q: %w", dir, err)
	}
	return &Pebble{db: db}, nil
}

func (p *Pebble) Get(key []byte) ([]byte, error) {
	v, closer, err := p.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	defer closer.Close()
	return append([]byte(nil), v...), nil
}

func (p *Pebble) Put(key, value []byte) error {
	return p.db.Set(key, value, pebble.Sync)
}

func (p *Pebble) Close() error {
	return p.db.Close()
}
