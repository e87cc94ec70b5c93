package subspace

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"go.etcd.io/bbolt"
)

// DefaultBoltBucket holds every key of a Bolt-backed store.
const DefaultBoltBucket = "subspace"

type BoltOptions struct {
	Bucket    string
	IsTesting bool
	MmapSize  int
	Logger    *slog.Logger
}

type boltStore struct {
	bdb    *bbolt.DB
	bucket []byte
	owned  bool
	logger *slog.Logger
}

// OpenBolt opens (creating if needed) a Bolt file as a Store. Closing the
// store closes the file.
func OpenBolt(path string, opt BoltOptions) (Store, error) {
	bopt := &bbolt.Options{}
	*bopt = *bbolt.DefaultOptions
	bopt.Timeout = 10 * time.Second
	if opt.IsTesting {
		bopt.NoSync = true
		bopt.NoFreelistSync = true
		bopt.InitialMmapSize = 1024 * 1024 * 5
	} else {
		bopt.InitialMmapSize = 1024 * 1024 * 1024
		bopt.FreelistType = bbolt.FreelistMapType
	}
	if opt.MmapSize != 0 {
		bopt.InitialMmapSize = opt.MmapSize
	}

	bdb, err := bbolt.Open(path, 0666, bopt)
	if err != nil {
		return nil, fmt.Errorf("subspace: %w", err)
	}
	s, err := NewBoltStore(bdb, opt.Bucket, opt.Logger)
	if err != nil {
		bdb.Close()
		return nil, err
	}
	s.(*boltStore).owned = true
	return s, nil
}

// NewBoltStore wraps an already open Bolt database, keeping all keys in
// the given bucket. Closing the store leaves bdb open.
func NewBoltStore(bdb *bbolt.DB, bucket string, logger *slog.Logger) (Store, error) {
	if bucket == "" {
		bucket = DefaultBoltBucket
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &boltStore{bdb: bdb, bucket: []byte(bucket), logger: logger}
	err := bdb.Update(func(btx *bbolt.Tx) error {
		_, err := btx.CreateBucketIfNotExists(s.bucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("subspace: create bucket %q: %w", bucket, err)
	}
	return s, nil
}

func (s *boltStore) Get(ctx context.Context, key []byte) ([]byte, error) {
	var out []byte
	err := s.bdb.View(func(btx *bbolt.Tx) error {
		v := btx.Bucket(s.bucket).Get(key)
		if v == nil {
			return ErrNotFound
		}
		out = slices.Clone(v)
		return nil
	})
	return out, err
}

func (s *boltStore) Put(ctx context.Context, key, value []byte) error {
	return s.Batch(ctx, []RawOp{{Type: OpPut, Key: key, Value: value}})
}

func (s *boltStore) Delete(ctx context.Context, key []byte) error {
	return s.Batch(ctx, []RawOp{{Type: OpDel, Key: key}})
}

func (s *boltStore) Batch(ctx context.Context, ops []RawOp) error {
	return s.bdb.Update(func(btx *bbolt.Tx) error {
		b := btx.Bucket(s.bucket)
		return ApplyOps(ops, func(k, v []byte) error {
			if v == nil {
				v = []byte{}
			}
			return b.Put(k, v)
		}, b.Delete)
	})
}

// Iterator holds a read transaction open until the iterator is closed.
func (s *boltStore) Iterator(ctx context.Context, r RawRange) (Iterator, error) {
	btx, err := s.bdb.Begin(false)
	if err != nil {
		return nil, err
	}
	cur := btx.Bucket(s.bucket).Cursor()
	return newRangeCursor(boltCursor{c: cur}, r, s.logger, func() error {
		err := btx.Rollback()
		if err == bbolt.ErrTxClosed {
			return nil
		}
		return err
	}), nil
}

func (s *boltStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.bdb.Close()
}

// Bolt returns the underlying database.
func (s *boltStore) Bolt() *bbolt.DB {
	return s.bdb
}

type boltCursor struct {
	c *bbolt.Cursor
}

func (c boltCursor) First() ([]byte, []byte) { return c.c.First() }

func (c boltCursor) Last() ([]byte, []byte) { return c.c.Last() }

func (c boltCursor) Seek(seek []byte) ([]byte, []byte) { return c.c.Seek(seek) }

func (c boltCursor) Next() ([]byte, []byte) { return c.c.Next() }

func (c boltCursor) Prev() ([]byte, []byte) { return c.c.Prev() }
