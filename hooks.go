package subspace

import (
	"fmt"
	"runtime/debug"
	"slices"
	"sync"
)

// PreHook runs before a batch is encoded. It may rewrite op in place, add
// operations with batch.Add, or drop op with batch.Remove. space is the
// subspace the batch was issued on, which is not necessarily the one the
// hook is registered with. Returning an error aborts the batch before
// anything is written.
type PreHook func(space *Subspace, op *Op, batch *PreBatch) error

// PostHook runs after the batch has been committed, once per operation of
// its namespace, in batch order. op.Key is the key the operation carried
// when it entered the batch.
type PostHook func(space *Subspace, op *Op) error

// hookList is an ordered list of hooks. Triggering walks a snapshot, so
// hooks may register or remove hooks without affecting the current pass.
type hookList[H any] struct {
	mu    sync.Mutex
	hooks []*H
}

func (l *hookList[H]) add(h H) (remove func()) {
	p := &h
	l.mu.Lock()
	l.hooks = append(l.hooks, p)
	l.mu.Unlock()
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if i := slices.Index(l.hooks, p); i >= 0 {
			l.hooks = slices.Delete(l.hooks, i, i+1)
		}
	}
}

func (l *hookList[H]) snapshot() []*H {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.hooks) == 0 {
		return nil
	}
	return slices.Clone(l.hooks)
}

func (l *hookList[H]) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.hooks)
}

func (ns *Namespace) triggerPre(space *Subspace, op *Op, batch *PreBatch) error {
	for _, h := range ns.prehooks.snapshot() {
		hook := *h
		err := safelyCall(func() error { return hook(space, op, batch) })
		if err != nil {
			return hookErr(PreCommit, ns, op, err)
		}
	}
	return nil
}

func (ns *Namespace) triggerPost(space *Subspace, op *Op) error {
	for _, h := range ns.posthooks.snapshot() {
		hook := *h
		err := safelyCall(func() error { return hook(space, op) })
		if err != nil {
			return hookErr(PostCommit, ns, op, err)
		}
	}
	return nil
}

type panicked struct {
	reason interface{}
	stack  string
}

func (p panicked) Error() string {
	return fmt.Sprintf("panic: %v\n\n%s", p.reason, p.stack)
}

func safelyCall(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = panicked{p, string(debug.Stack())}
		}
	}()
	return fn()
}
