// Package cache persists extended instances so that their derived tables
// are computed once per base instance file.
package cache

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/kilianp07/tecsched/core/instance"
)

// Options configures the store. An empty Path keeps everything in memory.
type Options struct {
	Path string        `json:"path"`
	TTL  time.Duration `json:"ttl"`
}

// BadgerCache stores extended instances in Badger, keyed by the digest of
// the base instance file.
type BadgerCache struct {
	db  *badger.DB
	ttl time.Duration
}

// NewBadgerCache opens the store.
func NewBadgerCache(o Options) (*BadgerCache, error) {
	opts := badger.DefaultOptions(filepath.Clean(o.Path))
	if o.Path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil
	opts = opts.WithValueLogFileSize(1 << 24)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerCache{db: db, ttl: o.TTL}, nil
}

func instanceKey(digest string) []byte {
	return []byte("instance:" + digest)
}

// Get returns the instance cached under digest, named filename.
func (c *BadgerCache) Get(ctx context.Context, digest, filename string) (*instance.Instance, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	var out *instance.Instance
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(instanceKey(digest))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			in, err := instance.Decode(bytes.NewReader(v), filename)
			out = in
			return err
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if !out.Extended() {
		return nil, false, nil
	}
	return out, true, nil
}

// Put stores in under digest.
func (c *BadgerCache) Put(ctx context.Context, digest string, in *instance.Instance) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := in.Encode(&buf); err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(instanceKey(digest), buf.Bytes())
		if c.ttl > 0 {
			e = e.WithTTL(c.ttl)
		}
		return txn.SetEntry(e)
	})
}

// Delete drops the entry under digest.
func (c *BadgerCache) Delete(digest string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(instanceKey(digest))
	})
}

func (c *BadgerCache) Close() error { return c.db.Close() }
