package subspace

import (
	"bytes"
	"encoding/hex"
	"slices"
	"strconv"
	"strings"
)

const (
	// segmentTag introduces a nested namespace segment. Keys never start
	// with it, so a namespace's own keys sort before its children.
	segmentTag byte = 0xFF
	segmentEnd byte = 0x00
	escapeByte byte = 0x01
)

// Namespace identifies a subspace by its path. It is immutable except for
// its hook lists, so one value can be shared by any number of Subspaces.
type Namespace struct {
	path   []string
	prefix []byte // encoded path
	phys   []byte // physical prefix: prefix, or hex(prefix)
	upper  []byte // physical prefix+0xFF, above every key of the namespace
	hex    bool

	prehooks  hookList[PreHook]
	posthooks hookList[PostHook]
}

func NewNamespace(path []string, hexKeys bool) *Namespace {
	path = slices.Clone(path)
	prefix := EncodePath(path)
	ns := &Namespace{
		path:   path,
		prefix: prefix,
		hex:    hexKeys,
	}
	ns.phys = ns.physical(prefix)
	ns.upper = ns.physical(append(cloneBytes(prefix), segmentTag))
	return ns
}

// EncodePath encodes a path so that byte order of the results matches
// segment-by-segment order of the paths, and no two distinct paths produce
// encodings where one is a prefix of the other unless the paths are.
func EncodePath(path []string) []byte {
	var buf []byte
	for _, seg := range path {
		buf = append(buf, segmentTag)
		buf = appendEscaped(buf, []byte(seg))
		buf = append(buf, segmentEnd)
	}
	return buf
}

// SplitKey splits a raw (non-hex) physical key into the namespace path it
// belongs to and the remaining key bytes.
func SplitKey(raw []byte) (path []string, key []byte, err error) {
	rest := raw
	for len(rest) > 0 && rest[0] == segmentTag {
		content, tail, ok := readEscaped(rest[1:])
		if !ok {
			return nil, nil, keyErrf(raw, nil, "malformed namespace segment at offset %d", len(raw)-len(rest))
		}
		path = append(path, string(content))
		rest = tail
	}
	return path, rest, nil
}

// Append returns a new namespace one level deeper. The receiver is not
// modified and hook lists are not shared.
func (ns *Namespace) Append(seg string) *Namespace {
	return NewNamespace(append(slices.Clip(ns.path), seg), ns.hex)
}

func (ns *Namespace) Path() []string {
	return slices.Clone(ns.path)
}

// Depth is the number of path segments; the root has depth 0.
func (ns *Namespace) Depth() int {
	return len(ns.path)
}

// Prefix returns the physical prefix shared by every key of this namespace
// and of all its descendants.
func (ns *Namespace) Prefix() []byte {
	return cloneBytes(ns.phys)
}

func (ns *Namespace) Hex() bool {
	return ns.hex
}

// LowerBound is the physical form of the empty key: nothing in the
// namespace sorts before it.
func (ns *Namespace) LowerBound() []byte {
	return cloneBytes(ns.phys)
}

// UpperBound sorts after every key of the namespace and before every key
// of its descendants.
func (ns *Namespace) UpperBound() []byte {
	return cloneBytes(ns.upper)
}

func (ns *Namespace) String() string {
	return formatPath(ns.path)
}

// Contains reports whether key starts with the namespace prefix, byte for byte.
func (ns *Namespace) Contains(key []byte) bool {
	return len(key) >= len(ns.phys) && bytes.Equal(key[:len(ns.phys)], ns.phys)
}

// EncodeKey prepends the namespace prefix to an already serialized key.
func (ns *Namespace) EncodeKey(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, keyErrf(key, nil, "empty key")
	}
	if key[0] == segmentTag {
		return nil, keyErrf(key, nil, "key starts with reserved byte 0xff")
	}
	return ns.appendKey(key), nil
}

func (ns *Namespace) appendKey(key []byte) []byte {
	if ns.hex {
		out := make([]byte, len(ns.phys)+hex.EncodedLen(len(key)))
		copy(out, ns.phys)
		hex.Encode(out[len(ns.phys):], key)
		return out
	}
	out := make([]byte, 0, len(ns.phys)+len(key))
	out = append(out, ns.phys...)
	return append(out, key...)
}

// DecodeKey strips the namespace prefix. A key outside the namespace is
// returned unchanged; callers use that to detect the end of a range.
func (ns *Namespace) DecodeKey(key []byte) ([]byte, error) {
	if key == nil {
		return nil, keyErrf(nil, nil, "cannot decode key")
	}
	if !ns.Contains(key) {
		return key, nil
	}
	rest := key[len(ns.phys):]
	if !ns.hex {
		return rest, nil
	}
	out := make([]byte, hex.DecodedLen(len(rest)))
	if _, err := hex.Decode(out, rest); err != nil {
		return nil, keyErrf(key, err, "malformed hex key")
	}
	return out, nil
}

// encodeBound encodes a serialized range bound. Bounds that would fall into
// the child segment area are clamped to the upper sentinel.
func (ns *Namespace) encodeBound(key []byte) (phys []byte, clamped bool) {
	if len(key) > 0 && key[0] == segmentTag {
		return ns.upper, true
	}
	return ns.appendKey(key), false
}

func (ns *Namespace) physical(raw []byte) []byte {
	if !ns.hex {
		return raw
	}
	return []byte(hex.EncodeToString(raw))
}

func formatPath(path []string) string {
	if len(path) == 0 {
		return "<root>"
	}
	var buf strings.Builder
	for _, seg := range path {
		buf.WriteByte('/')
		if strconv.CanBackquote(seg) && !strings.Contains(seg, "/") {
			buf.WriteString(seg)
		} else {
			buf.WriteString(strconv.Quote(seg))
		}
	}
	return buf.String()
}
