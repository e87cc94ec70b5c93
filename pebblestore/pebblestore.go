// Package pebblestore adapts Pebble to subspace.Store.
package pebblestore

import (
	"context"
	"errors"
	"slices"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/andreyvit/subspace"
)

type Store struct {
	db       *pebble.DB
	writeOpt *pebble.WriteOptions
}

var _ subspace.Store = (*Store)(nil)

// Open opens or creates a Pebble database at path.
func Open(path string, sync bool) (*Store, error) {
	db, err := pebble.Open(path, (&pebble.Options{}).EnsureDefaults())
	if err != nil {
		return nil, err
	}
	return New(db, sync), nil
}

// OpenMem returns a store backed by an in-memory filesystem.
func OpenMem() (*Store, error) {
	opts := &pebble.Options{FS: vfs.NewMem()}
	db, err := pebble.Open("", opts.EnsureDefaults())
	if err != nil {
		return nil, err
	}
	return New(db, false), nil
}

// New wraps db. Closing the store closes db.
func New(db *pebble.DB, sync bool) *Store {
	wo := pebble.NoSync
	if sync {
		wo = pebble.Sync
	}
	return &Store{db: db, writeOpt: wo}
}

func (s *Store) DB() *pebble.DB { return s.db }

func (s *Store) Get(ctx context.Context, key []byte) ([]byte, error) {
	v, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, subspace.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	defer closer.Close()
	return slices.Clone(v), nil
}

func (s *Store) Put(ctx context.Context, key, value []byte) error {
	return s.db.Set(key, value, s.writeOpt)
}

func (s *Store) Delete(ctx context.Context, key []byte) error {
	return s.db.Delete(key, s.writeOpt)
}

func (s *Store) Batch(ctx context.Context, ops []subspace.RawOp) error {
	b := s.db.NewBatch()
	defer b.Close()
	err := subspace.ApplyOps(ops, func(k, v []byte) error {
		return b.Set(k, v, nil)
	}, func(k []byte) error {
		return b.Delete(k, nil)
	})
	if err != nil {
		return err
	}
	return b.Commit(s.writeOpt)
}

func (s *Store) Iterator(ctx context.Context, r subspace.RawRange) (subspace.Iterator, error) {
	if r.Empty() {
		return subspace.EmptyIterator(), nil
	}
	start, limit := r.Bounds()
	it, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: start,
		UpperBound: limit,
	})
	if err != nil {
		return nil, err
	}
	return subspace.IterateBounded(it, r, it.Error, it.Close), nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
