// Package badgerstore adapts Badger to subspace.Store.
package badgerstore

import (
	"bytes"
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"

	"github.com/andreyvit/subspace"
)

type Store struct {
	db *badger.DB
}

var _ subspace.Store = (*Store)(nil)

// Open opens or creates a Badger database in dir.
func Open(dir string, sync bool) (*Store, error) {
	opts := badger.DefaultOptions(dir).
		WithSyncWrites(sync).
		WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

// OpenMem returns a store backed by an in-memory Badger instance.
func OpenMem() (*Store, error) {
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

// New wraps db. Closing the store closes db.
func New(db *badger.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *badger.DB { return s.db }

func (s *Store) Get(ctx context.Context, key []byte) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, subspace.ErrNotFound
	}
	return out, err
}

func (s *Store) Put(ctx context.Context, key, value []byte) error {
	return s.Batch(ctx, []subspace.RawOp{{Type: subspace.OpPut, Key: key, Value: value}})
}

func (s *Store) Delete(ctx context.Context, key []byte) error {
	return s.Batch(ctx, []subspace.RawOp{{Type: subspace.OpDel, Key: key}})
}

// Batch commits ops in one transaction. A batch too large for a single
// Badger transaction fails with badger.ErrTxnTooBig.
func (s *Store) Batch(ctx context.Context, ops []subspace.RawOp) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return subspace.ApplyOps(ops, txn.Set, txn.Delete)
	})
}

// Iterator holds a read-only transaction open until the iterator is closed.
func (s *Store) Iterator(ctx context.Context, r subspace.RawRange) (subspace.Iterator, error) {
	if r.Empty() {
		return subspace.EmptyIterator(), nil
	}
	start, limit := r.Bounds()
	txn := s.db.NewTransaction(false)
	it := txn.NewIterator(badger.IteratorOptions{
		PrefetchValues: true,
		PrefetchSize:   100,
		Reverse:        r.Reverse,
	})
	bi := &iterator{
		txn:       txn,
		it:        it,
		start:     start,
		limit:     limit,
		reverse:   r.Reverse,
		remaining: -1,
	}
	if r.Limit > 0 {
		bi.remaining = r.Limit
	}
	return bi, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type iterator struct {
	txn       *badger.Txn
	it        *badger.Iterator
	start     []byte
	limit     []byte
	reverse   bool
	remaining int

	init   bool
	closed bool
	key    []byte
	value  []byte
	err    error
}

func (bi *iterator) Next() bool {
	if bi.closed || bi.remaining == 0 || bi.err != nil {
		return false
	}
	it := bi.it
	if !bi.init {
		bi.init = true
		if bi.reverse {
			if bi.limit == nil {
				it.Rewind()
			} else {
				// reverse Seek lands on the largest key <= limit
				it.Seek(bi.limit)
				if it.Valid() && bytes.Equal(it.Item().Key(), bi.limit) {
					it.Next()
				}
			}
		} else if bi.start == nil {
			it.Rewind()
		} else {
			it.Seek(bi.start)
		}
	} else {
		it.Next()
	}
	if !it.Valid() || !bi.inRange(it.Item().Key()) {
		bi.key, bi.value = nil, nil
		bi.remaining = 0
		return false
	}
	item := it.Item()
	bi.key = item.KeyCopy(bi.key[:0])
	bi.value, bi.err = item.ValueCopy(bi.value[:0])
	if bi.err != nil {
		return false
	}
	if bi.remaining > 0 {
		bi.remaining--
	}
	return true
}

func (bi *iterator) inRange(k []byte) bool {
	if bi.reverse {
		return bi.start == nil || bytes.Compare(k, bi.start) >= 0
	}
	return bi.limit == nil || bytes.Compare(k, bi.limit) < 0
}

func (bi *iterator) Key() []byte   { return bi.key }
func (bi *iterator) Value() []byte { return bi.value }
func (bi *iterator) Err() error    { return bi.err }

func (bi *iterator) Close() error {
	if bi.closed {
		return nil
	}
	bi.closed = true
	bi.it.Close()
	bi.txn.Discard()
	return nil
}
