package subspace

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"sync"
)

// Options configure a subspace. Children inherit their parent's options by
// value; non-zero fields of the options passed to Sublevel override them.
type Options struct {
	KeyEncoding   Encoding
	ValueEncoding Encoding

	// HexKeys stores every physical key as lower-case hex text. It is fixed
	// for the whole tree when the root is created; children always follow
	// their parent.
	HexKeys bool

	Logger  *slog.Logger
	Verbose bool

	// MaxPendingOps caps the size a batch can grow to in precommit hooks.
	MaxPendingOps int
}

func (o Options) withDefaults() Options {
	if o.KeyEncoding == nil {
		o.KeyEncoding = defaultKeyEncoding
	}
	if o.ValueEncoding == nil {
		o.ValueEncoding = defaultValueEncoding
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.MaxPendingOps <= 0 {
		o.MaxPendingOps = DefaultMaxPendingOps
	}
	return o
}

// inherit returns the parent's options overridden by the non-zero fields
// of child.
func (o Options) inherit(child Options) Options {
	if child.KeyEncoding != nil {
		o.KeyEncoding = child.KeyEncoding
	}
	if child.ValueEncoding != nil {
		o.ValueEncoding = child.ValueEncoding
	}
	if child.Logger != nil {
		o.Logger = child.Logger
	}
	if child.Verbose {
		o.Verbose = true
	}
	if child.MaxPendingOps > 0 {
		o.MaxPendingOps = child.MaxPendingOps
	}
	return o
}

// Subspace is a view of a Store confined to one namespace. Keys passed to
// and returned from a Subspace never include the namespace prefix.
type Subspace struct {
	store Store
	ns    *Namespace
	opts  Options

	mu       sync.Mutex
	children map[string]*Subspace
}

// Root returns the subspace covering the whole store.
func Root(store Store, opts Options) *Subspace {
	return Mount(store, NewNamespace(nil, opts.HexKeys), opts)
}

// New returns a fresh top-level subspace named name. Calling New twice with
// the same name yields two subspaces over the same keys that do not share
// hooks; use Sublevel on a common root to share them.
func New(store Store, name string, opts Options) *Subspace {
	return Mount(store, NewNamespace([]string{name}, opts.HexKeys), opts)
}

// Mount returns a subspace for an existing namespace, sharing its hooks.
func Mount(store Store, ns *Namespace, opts Options) *Subspace {
	if store == nil {
		panic("subspace: nil store")
	}
	if ns == nil {
		panic("subspace: nil namespace")
	}
	opts = opts.withDefaults()
	opts.HexKeys = ns.hex
	return &Subspace{
		store: store,
		ns:    ns,
		opts:  opts,
	}
}

// Create mounts name under parent. parent is a *Subspace or a Store; name
// is a segment string or a *Namespace to mount as is.
func Create(parent any, name any, opts Options) (*Subspace, error) {
	switch name := name.(type) {
	case *Namespace:
		if name == nil {
			return nil, errors.New("subspace: nil namespace")
		}
		switch parent := parent.(type) {
		case *Subspace:
			return Mount(parent.store, name, parent.opts.inherit(opts)), nil
		case Store:
			return Mount(parent, name, opts), nil
		}
	case string:
		switch parent := parent.(type) {
		case *Subspace:
			return parent.Sublevel(name, opts), nil
		case Store:
			return New(parent, name, opts), nil
		}
	default:
		return nil, fmt.Errorf("subspace: invalid name type %T", name)
	}
	return nil, fmt.Errorf("subspace: invalid parent type %T", parent)
}

// Sublevel returns the child subspace named name, creating it on first use.
// Later calls with the same name return the same instance and ignore opts.
func (sp *Subspace) Sublevel(name string, opts Options) *Subspace {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if child := sp.children[name]; child != nil {
		return child
	}
	child := &Subspace{
		store: sp.store,
		ns:    sp.ns.Append(name),
		opts:  sp.opts.inherit(opts),
	}
	if sp.children == nil {
		sp.children = make(map[string]*Subspace)
	}
	sp.children[name] = child
	return child
}

// Clone returns a subspace sharing the namespace and hooks of sp, but with
// its own child map and a copy of the options.
func (sp *Subspace) Clone() *Subspace {
	return &Subspace{
		store: sp.store,
		ns:    sp.ns,
		opts:  sp.opts,
	}
}

// WithValueEncoding returns a clone of sp that encodes values with enc.
func (sp *Subspace) WithValueEncoding(enc Encoding) *Subspace {
	c := sp.Clone()
	c.opts.ValueEncoding = enc
	return c
}

func (sp *Subspace) Namespace() *Namespace { return sp.ns }
func (sp *Subspace) Store() Store          { return sp.store }
func (sp *Subspace) Options() Options      { return sp.opts }

func (sp *Subspace) String() string {
	return sp.ns.String()
}

// Pre registers a precommit hook on the namespace and returns a function
// that removes it.
func (sp *Subspace) Pre(hook PreHook) (remove func()) {
	return sp.ns.prehooks.add(hook)
}

// Post registers a postcommit hook on the namespace and returns a function
// that removes it.
func (sp *Subspace) Post(hook PostHook) (remove func()) {
	return sp.ns.posthooks.add(hook)
}

func (sp *Subspace) physKey(key any) ([]byte, error) {
	if key == nil {
		return nil, keyErrf(nil, nil, "missing key")
	}
	raw, err := sp.opts.KeyEncoding.Encode(key)
	if err != nil {
		return nil, keyErrf(nil, err, "cannot encode key %v", key)
	}
	return sp.ns.EncodeKey(raw)
}

func (sp *Subspace) getRaw(ctx context.Context, key any) ([]byte, error) {
	pk, err := sp.physKey(key)
	if err != nil {
		return nil, err
	}
	data, err := sp.store.Get(ctx, pk)
	if errors.Is(err, ErrNotFound) {
		return nil, &NotFoundError{Key: key}
	} else if err != nil {
		return nil, err
	}
	return data, nil
}

// Get returns the decoded value stored under key, or a *NotFoundError.
func (sp *Subspace) Get(ctx context.Context, key any) (any, error) {
	data, err := sp.getRaw(ctx, key)
	if err != nil {
		return nil, err
	}
	return sp.opts.ValueEncoding.Decode(data)
}

// GetInto decodes the value stored under key into dst.
func (sp *Subspace) GetInto(ctx context.Context, key any, dst any) error {
	data, err := sp.getRaw(ctx, key)
	if err != nil {
		return err
	}
	return sp.opts.ValueEncoding.DecodeInto(data, dst)
}

// Has reports whether key exists.
func (sp *Subspace) Has(ctx context.Context, key any) (bool, error) {
	_, err := sp.getRaw(ctx, key)
	if IsNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

// Entry is a decoded key-value pair.
type Entry struct {
	Key   any
	Value any
}

// Cursor iterates over the decoded keys of a range. It must be closed.
type Cursor struct {
	space  *Subspace
	it     Iterator
	keys   bool
	values bool

	rawKey []byte
	key    any
	value  any
	err    error
	done   bool
}

// Iterator opens a cursor over r.
func (sp *Subspace) Iterator(ctx context.Context, r RangeOptions) (*Cursor, error) {
	return sp.iterator(ctx, r, true, true)
}

func (sp *Subspace) iterator(ctx context.Context, r RangeOptions, keys, values bool) (*Cursor, error) {
	rr, err := sp.ns.EncodeRange(r, sp.opts.KeyEncoding)
	if err != nil {
		return nil, err
	}
	if debugLogRawScans {
		sp.opts.Logger.LogAttrs(ctx, slog.LevelDebug, "subspace: range",
			slog.String("ns", sp.ns.String()),
			hexAttr("lower", rr.Lower), slog.Bool("lower_inc", rr.LowerInc),
			hexAttr("upper", rr.Upper), slog.Bool("upper_inc", rr.UpperInc),
			slog.Bool("reverse", rr.Reverse), slog.Int("limit", rr.Limit))
	}
	it, err := sp.store.Iterator(ctx, rr)
	if err != nil {
		return nil, err
	}
	return &Cursor{space: sp, it: it, keys: keys, values: values}, nil
}

// Next advances to the next entry. A key outside the namespace ends the
// iteration.
func (c *Cursor) Next() bool {
	if c.done {
		return false
	}
	if !c.it.Next() {
		c.done = true
		c.err = c.it.Err()
		return false
	}
	ns := c.space.ns
	k := c.it.Key()
	if !ns.Contains(k) {
		c.done = true
		return false
	}
	raw, err := ns.DecodeKey(k)
	if err != nil {
		c.done, c.err = true, err
		return false
	}
	c.rawKey = raw
	c.key, c.value = nil, nil
	if c.keys {
		c.key, err = c.space.opts.KeyEncoding.Decode(raw)
		if err != nil {
			c.done, c.err = true, err
			return false
		}
	}
	if c.values {
		c.value, err = c.space.opts.ValueEncoding.Decode(c.it.Value())
		if err != nil {
			c.done, c.err = true, fmt.Errorf("cannot decode value of key %v: %w", c.key, err)
			return false
		}
	}
	return true
}

func (c *Cursor) Key() any   { return c.key }
func (c *Cursor) Value() any { return c.value }

// RawKey returns the serialized key without the namespace prefix.
func (c *Cursor) RawKey() []byte { return c.rawKey }

func (c *Cursor) Entry() Entry {
	return Entry{Key: c.key, Value: c.value}
}

func (c *Cursor) Err() error {
	return c.err
}

func (c *Cursor) Close() error {
	c.done = true
	return c.it.Close()
}

// ReadStream yields the entries of r. An error is yielded at most once, as
// the last element.
func (sp *Subspace) ReadStream(ctx context.Context, r RangeOptions) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		stream(ctx, sp, r, true, true, func(c *Cursor) Entry { return c.Entry() }, yield)
	}
}

// KeyStream yields the keys of r.
func (sp *Subspace) KeyStream(ctx context.Context, r RangeOptions) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		stream(ctx, sp, r, true, false, (*Cursor).Key, yield)
	}
}

// ValueStream yields the values of r.
func (sp *Subspace) ValueStream(ctx context.Context, r RangeOptions) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		stream(ctx, sp, r, false, true, (*Cursor).Value, yield)
	}
}

func stream[T any](ctx context.Context, sp *Subspace, r RangeOptions, keys, values bool, get func(*Cursor) T, yield func(T, error) bool) {
	var zero T
	c, err := sp.iterator(ctx, r, keys, values)
	if err != nil {
		yield(zero, err)
		return
	}
	defer c.Close()
	for c.Next() {
		if err := ctx.Err(); err != nil {
			yield(zero, err)
			return
		}
		if !yield(get(c), nil) {
			return
		}
	}
	if err := c.Err(); err != nil {
		yield(zero, err)
	}
}

// Entries collects the entries of r.
func (sp *Subspace) Entries(ctx context.Context, r RangeOptions) ([]Entry, error) {
	var out []Entry
	for e, err := range sp.ReadStream(ctx, r) {
		if err != nil {
			return out, err
		}
		out = append(out, e)
	}
	return out, nil
}
