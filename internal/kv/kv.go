// Package kv is the whole-value persistence layer. Each collection is stored
// as one opaque value under one key; callers read, modify, and write the whole
// value back (last writer wins).
package kv

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("kv: key not found")

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Ping(ctx context.Context) error
	Close() error
}
