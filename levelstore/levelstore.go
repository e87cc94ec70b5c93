// Package levelstore adapts goleveldb to subspace.Store.
package levelstore

import (
	"context"
	"errors"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/andreyvit/subspace"
)

var (
	readOpt = opt.ReadOptions{}
	scanOpt = opt.ReadOptions{DontFillCache: true}
)

type Store struct {
	db       *leveldb.DB
	writeOpt opt.WriteOptions
}

var _ subspace.Store = (*Store)(nil)

// Open opens or creates a LevelDB database at path.
func Open(path string, sync bool) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return New(db, sync), nil
}

// OpenMem returns a store backed by an in-memory LevelDB.
func OpenMem() (*Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return New(db, false), nil
}

// New wraps db. Closing the store closes db.
func New(db *leveldb.DB, sync bool) *Store {
	return &Store{db: db, writeOpt: opt.WriteOptions{Sync: sync}}
}

func (s *Store) DB() *leveldb.DB { return s.db }

func (s *Store) Get(ctx context.Context, key []byte) ([]byte, error) {
	v, err := s.db.Get(key, &readOpt)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, subspace.ErrNotFound
	}
	return v, err
}

func (s *Store) Put(ctx context.Context, key, value []byte) error {
	return s.db.Put(key, value, &s.writeOpt)
}

func (s *Store) Delete(ctx context.Context, key []byte) error {
	return s.db.Delete(key, &s.writeOpt)
}

func (s *Store) Batch(ctx context.Context, ops []subspace.RawOp) error {
	batch := &leveldb.Batch{}
	err := subspace.ApplyOps(ops, func(k, v []byte) error {
		batch.Put(k, v)
		return nil
	}, func(k []byte) error {
		batch.Delete(k)
		return nil
	})
	if err != nil {
		return err
	}
	return s.db.Write(batch, &s.writeOpt)
}

func (s *Store) Iterator(ctx context.Context, r subspace.RawRange) (subspace.Iterator, error) {
	if r.Empty() {
		return subspace.EmptyIterator(), nil
	}
	start, limit := r.Bounds()
	it := s.db.NewIterator(&util.Range{Start: start, Limit: limit}, &scanOpt)
	return subspace.IterateBounded(it, r, it.Error, func() error {
		it.Release()
		return nil
	}), nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
