package subspace

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DefaultMaxPendingOps caps how many operations precommit hooks may grow a
// single batch to.
const DefaultMaxPendingOps = 100_000

type pendingOp struct {
	op      Op
	space   *Subspace
	origKey any
	addedBy *Namespace
	removed bool
}

// PreBatch is the in-flight batch handed to precommit hooks.
type PreBatch struct {
	owner  *Subspace
	ops    []*pendingOp
	cur    int
	maxOps int
	err    error
}

// Owner returns the subspace the batch was issued on.
func (b *PreBatch) Owner() *Subspace {
	return b.owner
}

// Len returns the number of operations in the batch, including suppressed
// ones and ones not yet visited.
func (b *PreBatch) Len() int {
	return len(b.ops)
}

// Add appends op to the batch. A nil op.Prefix means the subspace of the
// operation currently being processed. The added op is visited later in
// the same precommit pass; hooks of the namespace that added it are not
// run on it again.
func (b *PreBatch) Add(op Op) error {
	if len(b.ops) >= b.maxOps {
		if b.err == nil {
			b.err = fmt.Errorf("batch grew past %d operations in precommit hooks", b.maxOps)
		}
		return b.err
	}
	cur := b.ops[b.cur]
	if op.Prefix == nil {
		op.Prefix = cur.space
	}
	b.ops = append(b.ops, &pendingOp{
		op:      op,
		origKey: op.Key,
		addedBy: cur.space.ns,
	})
	return nil
}

// Remove suppresses the operation currently being processed. Remaining
// hooks still see it, but it is neither written nor passed to postcommit
// hooks.
func (b *PreBatch) Remove() {
	b.ops[b.cur].removed = true
}

// Ops returns a copy of the operations that are currently not suppressed.
func (b *PreBatch) Ops() []Op {
	out := make([]Op, 0, len(b.ops))
	for _, p := range b.ops {
		if !p.removed {
			out = append(out, p.op)
		}
	}
	return out
}

// Batch writes ops atomically. Each op goes through the precommit hooks of
// the namespace it targets, then the whole batch is committed with a single
// store call, then postcommit hooks run in order.
//
// Errors from precommit hooks, key encoding and the store leave the store
// untouched. A *HookError with Committed set means the batch was written
// and a postcommit hook failed.
func (sp *Subspace) Batch(ctx context.Context, ops ...Op) error {
	if len(ops) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()

	pb := &PreBatch{
		owner:  sp,
		ops:    make([]*pendingOp, 0, len(ops)),
		maxOps: sp.opts.MaxPendingOps,
	}
	for _, op := range ops {
		pb.ops = append(pb.ops, &pendingOp{op: op, origKey: op.Key})
	}

	// precommit; hooks may append to pb.ops while we walk it
	for i := 0; i < len(pb.ops); i++ {
		p := pb.ops[i]
		space, err := sp.resolve(i, p.op.Prefix)
		if err != nil {
			return err
		}
		p.space = space
		p.op.Prefix = space
		if p.addedBy == space.ns {
			continue
		}
		pb.cur = i
		if err := space.ns.triggerPre(sp, &p.op, pb); err != nil {
			return err
		}
		if pb.err != nil {
			return pb.err
		}
		p.op.Prefix = space
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	raw := make([]RawOp, 0, len(pb.ops))
	for i, p := range pb.ops {
		if p.removed {
			continue
		}
		rop, err := p.space.encodeOp(&p.op)
		if err != nil {
			return fmt.Errorf("batch op %d: %w", i, err)
		}
		raw = append(raw, rop)
	}
	if len(raw) == 0 {
		return nil
	}

	if err := sp.store.Batch(ctx, raw); err != nil {
		return err
	}
	if sp.opts.Verbose {
		sp.opts.Logger.LogAttrs(ctx, slog.LevelDebug, "subspace: batch committed",
			slog.String("ns", sp.ns.String()),
			slog.Int("ops", len(raw)),
			slog.Int("added", len(pb.ops)-len(ops)),
			slog.Duration("elapsed", time.Since(start)))
	}

	for _, p := range pb.ops {
		if p.removed || p.space.ns.posthooks.len() == 0 {
			continue
		}
		op := p.op
		op.Key = p.origKey
		if err := p.space.ns.triggerPost(sp, &op); err != nil {
			return err
		}
	}
	return nil
}

// Put writes a single key as a one-op batch, hooks included.
func (sp *Subspace) Put(ctx context.Context, key, value any) error {
	return sp.Batch(ctx, Op{Type: OpPut, Key: key, Value: value})
}

// Del deletes a single key as a one-op batch, hooks included. Deleting an
// absent key succeeds.
func (sp *Subspace) Del(ctx context.Context, key any) error {
	return sp.Batch(ctx, Op{Type: OpDel, Key: key})
}

func (sp *Subspace) resolve(i int, prefix *Subspace) (*Subspace, error) {
	if prefix == nil {
		return sp, nil
	}
	if prefix.ns == nil || prefix.store != sp.store {
		return nil, &UnknownPrefixError{Index: i, Prefix: prefix}
	}
	return prefix, nil
}

func (sp *Subspace) encodeOp(op *Op) (RawOp, error) {
	if op.Key == nil {
		return RawOp{}, keyErrf(nil, nil, "missing key")
	}
	rawKey, err := sp.opts.KeyEncoding.Encode(op.Key)
	if err != nil {
		return RawOp{}, keyErrf(nil, err, "cannot encode key %v", op.Key)
	}
	key, err := sp.ns.EncodeKey(rawKey)
	if err != nil {
		return RawOp{}, err
	}
	switch op.Type {
	case OpPut:
		venc := sp.opts.ValueEncoding
		if op.ValueEncoding != nil {
			venc = op.ValueEncoding
		}
		value, err := venc.Encode(op.Value)
		if err != nil {
			return RawOp{}, fmt.Errorf("cannot encode value for key %v: %w", op.Key, err)
		}
		return RawOp{Type: OpPut, Key: key, Value: value}, nil
	case OpDel:
		return RawOp{Type: OpDel, Key: key}, nil
	default:
		return RawOp{}, &UnknownOpError{op.Type}
	}
}

// WriteBatch accumulates operations until Write is called.
type WriteBatch struct {
	space *Subspace
	ops   []Op
}

// NewBatch returns an empty chainable batch on sp.
func (sp *Subspace) NewBatch() *WriteBatch {
	return &WriteBatch{space: sp}
}

func (b *WriteBatch) Put(key, value any) *WriteBatch {
	b.ops = append(b.ops, Op{Type: OpPut, Key: key, Value: value})
	return b
}

func (b *WriteBatch) Del(key any) *WriteBatch {
	b.ops = append(b.ops, Op{Type: OpDel, Key: key})
	return b
}

// Add appends an arbitrary op, e.g. one targeting another subspace.
func (b *WriteBatch) Add(op Op) *WriteBatch {
	b.ops = append(b.ops, op)
	return b
}

func (b *WriteBatch) Clear() *WriteBatch {
	b.ops = nil
	return b
}

func (b *WriteBatch) Len() int {
	return len(b.ops)
}

// Write commits the accumulated operations exactly like Subspace.Batch.
// The builder is reset on success.
func (b *WriteBatch) Write(ctx context.Context) error {
	err := b.space.Batch(ctx, b.ops...)
	if err == nil {
		b.ops = nil
	}
	return err
}
