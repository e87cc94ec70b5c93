package subspace

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
)

type memStore struct {
	mu     sync.RWMutex
	items  []memKV // sorted by key; replaced, never mutated, on write
	closed bool
	logger *slog.Logger
}

type memKV struct {
	key   []byte
	value []byte
}

// NewMemStore returns a transient in-memory Store intended for tests and
// tooling. Iterators see a snapshot taken when they are opened.
func NewMemStore() Store {
	return &memStore{}
}

func (s *memStore) snapshot() ([]memKV, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("storage closed")
	}
	return s.items, nil
}

func (s *memStore) Get(ctx context.Context, key []byte) ([]byte, error) {
	items, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	i, ok := memFind(items, key)
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(items[i].value), nil
}

func (s *memStore) Put(ctx context.Context, key, value []byte) error {
	return s.Batch(ctx, []RawOp{{Type: OpPut, Key: key, Value: value}})
}

func (s *memStore) Delete(ctx context.Context, key []byte) error {
	return s.Batch(ctx, []RawOp{{Type: OpDel, Key: key}})
}

func (s *memStore) Batch(ctx context.Context, ops []RawOp) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("storage closed")
	}

	// Apply to a private copy so a failing op leaves the store untouched.
	items := slices.Clone(s.items)
	err := ApplyOps(ops, func(k, v []byte) error {
		k, v = slices.Clone(k), slices.Clone(v)
		if v == nil {
			v = []byte{}
		}
		i, ok := memFind(items, k)
		if ok {
			items[i].value = v
			return nil
		}
		items = slices.Insert(items, i, memKV{key: k, value: v})
		return nil
	}, func(k []byte) error {
		if i, ok := memFind(items, k); ok {
			items = slices.Delete(items, i, i+1)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.items = items
	return nil
}

func (s *memStore) Iterator(ctx context.Context, r RawRange) (Iterator, error) {
	items, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return newRangeCursor(&memCursor{items: items, pos: -1}, r, s.logger, nil), nil
}

func (s *memStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.items = nil
	return nil
}

func memFind(items []memKV, key []byte) (idx int, ok bool) {
	i := sort.Search(len(items), func(i int) bool {
		return bytes.Compare(items[i].key, key) >= 0
	})
	if i < len(items) && bytes.Equal(items[i].key, key) {
		return i, true
	}
	return i, false
}

type memCursor struct {
	items []memKV
	pos   int
}

func (c *memCursor) First() ([]byte, []byte) {
	c.pos = 0
	if len(c.items) == 0 {
		return nil, nil
	}
	kv := c.items[c.pos]
	return kv.key, kv.value
}

func (c *memCursor) Last() ([]byte, []byte) {
	if len(c.items) == 0 {
		c.pos = 0
		return nil, nil
	}
	c.pos = len(c.items) - 1
	kv := c.items[c.pos]
	return kv.key, kv.value
}

func (c *memCursor) Seek(seek []byte) ([]byte, []byte) {
	i, _ := memFind(c.items, seek)
	c.pos = i
	if i >= len(c.items) {
		return nil, nil
	}
	kv := c.items[i]
	return kv.key, kv.value
}

func (c *memCursor) Next() ([]byte, []byte) {
	if c.pos < 0 {
		return c.First()
	}
	c.pos++
	if c.pos >= len(c.items) {
		return nil, nil
	}
	kv := c.items[c.pos]
	return kv.key, kv.value
}

func (c *memCursor) Prev() ([]byte, []byte) {
	if c.pos < 0 {
		return nil, nil
	}
	c.pos--
	if c.pos < 0 || c.pos >= len(c.items) {
		return nil, nil
	}
	kv := c.items[c.pos]
	return kv.key, kv.value
}
