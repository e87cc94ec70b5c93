package subspace

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Store.Get when the key does not exist.
// Subspace.Get wraps it into a *NotFoundError carrying the caller's key.
var ErrNotFound = errors.New("not found")

// KeyTypeError reports a key that cannot be encoded or decoded: empty,
// reserved first byte, or malformed physical bytes.
type KeyTypeError struct {
	Data []byte
	Err  error
	Msg  string
}

func keyErrf(data []byte, err error, format string, args ...any) error {
	return &KeyTypeError{data, err, fmt.Sprintf(format, args...)}
}

func (e *KeyTypeError) Unwrap() error {
	return e.Err
}

func (e *KeyTypeError) Error() string {
	const prefixLen = 64
	const suffixLen = 32
	n := len(e.Data)
	if e.Data == nil {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v: <nil>", e.Msg, e.Err)
		}
		return e.Msg + ": <nil>"
	}
	if n <= prefixLen+suffixLen {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v: (%d) %x", e.Msg, e.Err, n, e.Data)
		} else {
			return fmt.Sprintf("%s: (%d) %x", e.Msg, n, e.Data)
		}
	} else {
		p, s := e.Data[:prefixLen], e.Data[n-suffixLen:]
		if e.Err != nil {
			return fmt.Sprintf("%s: %v: (%d) %x...%x", e.Msg, e.Err, n, p, s)
		} else {
			return fmt.Sprintf("%s: (%d) %x...%x", e.Msg, n, p, s)
		}
	}
}

// UnknownPrefixError is returned when an operation's Prefix does not
// resolve to a subspace of the store the batch is committed to. The whole
// batch fails before any I/O.
type UnknownPrefixError struct {
	Index  int
	Prefix *Subspace
}

func (e *UnknownPrefixError) Error() string {
	if e.Prefix == nil || e.Prefix.ns == nil {
		return fmt.Sprintf("unknown prefix in batch commit: op %d", e.Index)
	}
	return fmt.Sprintf("unknown prefix in batch commit: op %d targets %s on a different store", e.Index, e.Prefix.ns)
}

// HookPhase tells whether a hook failed before or after the commit.
type HookPhase int

const (
	PreCommit HookPhase = iota
	PostCommit
)

func (p HookPhase) String() string {
	switch p {
	case PreCommit:
		return "precommit"
	case PostCommit:
		return "postcommit"
	default:
		return fmt.Sprintf("invalid phase %d", int(p))
	}
}

// HookError reports a failing (or panicking) hook. When Committed is true,
// the batch has already been durably written; only the hook failed.
type HookError struct {
	Phase     HookPhase
	Namespace []string
	Op        Op
	Committed bool
	Err       error
}

func hookErr(phase HookPhase, ns *Namespace, op *Op, err error) error {
	return &HookError{
		Phase:     phase,
		Namespace: ns.Path(),
		Op:        *op,
		Committed: phase == PostCommit,
		Err:       err,
	}
}

func (e *HookError) Unwrap() error {
	return e.Err
}

func (e *HookError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Phase.String())
	buf.WriteString(" hook failed in ")
	buf.WriteString(formatPath(e.Namespace))
	fmt.Fprintf(&buf, " on %v %v", e.Op.Type, e.Op.Key)
	if e.Committed {
		buf.WriteString(" (batch committed)")
	}
	if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}

// NotFoundError is returned by Subspace.Get. Key is the caller-visible key,
// never the physical one.
type NotFoundError struct {
	Key any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("key not found in database [%v]", e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// IsNotFound reports whether err means an absent key.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// UnknownOpError is returned for an operation that is neither a put nor
// a delete.
type UnknownOpError struct {
	Type OpType
}

func (e *UnknownOpError) Error() string {
	return fmt.Sprintf("unknown operation type %v", e.Type)
}
