package subspace

import "fmt"

type OpType int

const (
	OpPut OpType = 1
	OpDel OpType = 2
)

func (v OpType) String() string {
	switch v {
	case OpPut:
		return "put"
	case OpDel:
		return "del"
	default:
		return fmt.Sprintf("invalid op %d", int(v))
	}
}

// Op is a single write within a batch.
type Op struct {
	Type  OpType
	Key   any
	Value any

	// Prefix is the subspace the key belongs to; nil means the subspace the
	// batch is issued on.
	Prefix *Subspace

	// ValueEncoding overrides the target subspace's value encoding.
	ValueEncoding Encoding
}

func PutOp(key, value any) Op {
	return Op{Type: OpPut, Key: key, Value: value}
}

func DelOp(key any) Op {
	return Op{Type: OpDel, Key: key}
}

// In returns a copy of op targeting space.
func (op Op) In(space *Subspace) Op {
	op.Prefix = space
	return op
}

func (op Op) String() string {
	if op.Type == OpPut {
		return fmt.Sprintf("put %v=%v", op.Key, op.Value)
	}
	return fmt.Sprintf("%v %v", op.Type, op.Key)
}
