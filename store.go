package subspace

import "context"

// Store is the ordered byte-keyed store a Subspace is layered on. An
// implementation provides the whole contract or it is not a Store.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key []byte) ([]byte, error)

	// Put stores a key-value pair.
	Put(ctx context.Context, key, value []byte) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key []byte) error

	// Batch applies all ops atomically, in order; later ops on the same key
	// override earlier ones.
	Batch(ctx context.Context, ops []RawOp) error

	// Iterator returns the pairs within r, ascending unless r.Reverse,
	// stopping after r.Limit pairs if r.Limit > 0. The iterator must be closed.
	Iterator(ctx context.Context, r RawRange) (Iterator, error)

	// Close releases the store.
	Close() error
}

// Iterator is a finite, non-restartable sequence of key-value pairs.
// Key and Value are only valid until the next call to Next.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Err() error
	Close() error
}

// RawOp is a physical write: the key is already prefixed and the value
// already encoded.
type RawOp struct {
	Type  OpType
	Key   []byte
	Value []byte
}

// ApplyOps replays ops through put/del, for stores whose batches are built
// one call at a time.
func ApplyOps(ops []RawOp, put func(k, v []byte) error, del func(k []byte) error) error {
	for _, op := range ops {
		var err error
		switch op.Type {
		case OpPut:
			err = put(op.Key, op.Value)
		case OpDel:
			err = del(op.Key)
		default:
			err = &UnknownOpError{op.Type}
		}
		if err != nil {
			return err
		}
	}
	return nil
}
