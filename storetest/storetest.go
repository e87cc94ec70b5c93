// Package storetest checks that a subspace.Store implementation honors the
// store contract, and provides helpers for tests that write through
// subspaces.
package storetest

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/andreyvit/subspace"
)

// Factory returns a fresh, empty store. The suite closes it.
type Factory func(t *testing.T) subspace.Store

// Run runs the whole conformance suite against stores made by newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s subspace.Store)
	}{
		{"get_missing", testGetMissing},
		{"put_get", testPutGet},
		{"delete_absent", testDeleteAbsent},
		{"batch_later_wins", testBatchLaterWins},
		{"batch_atomic_on_bad_op", testBatchAtomic},
		{"binary_keys", testBinaryKeys},
		{"ranges", testRanges},
		{"iterator_empty_store", testIteratorEmpty},
		{"subspaces", testSubspaces},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() {
				require.NoError(t, s.Close())
			})
			tt.fn(t, s)
		})
	}
}

func testGetMissing(t *testing.T, s subspace.Store) {
	ctx := context.Background()
	_, err := s.Get(ctx, []byte("nope"))
	require.ErrorIs(t, err, subspace.ErrNotFound)
}

func testPutGet(t *testing.T, s subspace.Store) {
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, []byte("k"), []byte("v1")))
	v, err := s.Get(ctx, []byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), v)

	require.NoError(t, s.Put(ctx, []byte("k"), []byte("v2")))
	v, err = s.Get(ctx, []byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), v)

	require.NoError(t, s.Delete(ctx, []byte("k")))
	_, err = s.Get(ctx, []byte("k"))
	require.ErrorIs(t, err, subspace.ErrNotFound)
}

func testDeleteAbsent(t *testing.T, s subspace.Store) {
	ctx := context.Background()
	require.NoError(t, s.Delete(ctx, []byte("absent")))
	require.NoError(t, s.Batch(ctx, []subspace.RawOp{{Type: subspace.OpDel, Key: []byte("absent")}}))
}

func testBatchLaterWins(t *testing.T, s subspace.Store) {
	ctx := context.Background()
	require.NoError(t, s.Batch(ctx, []subspace.RawOp{
		{Type: subspace.OpPut, Key: []byte("a"), Value: []byte("1")},
		{Type: subspace.OpDel, Key: []byte("a")},
		{Type: subspace.OpPut, Key: []byte("a"), Value: []byte("2")},
		{Type: subspace.OpPut, Key: []byte("b"), Value: []byte("x")},
		{Type: subspace.OpDel, Key: []byte("b")},
	}))
	v, err := s.Get(ctx, []byte("a"))
	require.NoError(t, err)
	require.Equal(t, "2", string(v))
	_, err = s.Get(ctx, []byte("b"))
	require.ErrorIs(t, err, subspace.ErrNotFound)
}

func testBatchAtomic(t *testing.T, s subspace.Store) {
	ctx := context.Background()
	err := s.Batch(ctx, []subspace.RawOp{
		{Type: subspace.OpPut, Key: []byte("a"), Value: []byte("1")},
		{Type: subspace.OpType(99), Key: []byte("b")},
	})
	require.Error(t, err)
	_, err = s.Get(ctx, []byte("a"))
	require.ErrorIs(t, err, subspace.ErrNotFound)
}

func testBinaryKeys(t *testing.T, s subspace.Store) {
	ctx := context.Background()
	keys := [][]byte{
		Expand("00"),
		Expand("00 00"),
		Expand("01"),
		Expand("7f ff"),
		Expand("ff"),
		Expand("ff 00"),
		Expand("ff ff ff"),
	}
	for i, k := range keys {
		require.NoError(t, s.Put(ctx, k, []byte{byte(i)}))
	}
	require.Equal(t, keys, CollectKeys(t, s, subspace.RawOO()))
	require.Equal(t, reversed(keys), CollectKeys(t, s, subspace.RawOO().Reversed()))
}

func testRanges(t *testing.T, s subspace.Store) {
	ctx := context.Background()
	var all [][]byte
	for i := range 50 {
		k := []byte(fmt.Sprintf("k%02d", i))
		all = append(all, k)
	}
	var ops []subspace.RawOp
	for _, k := range all {
		ops = append(ops, subspace.RawOp{Type: subspace.OpPut, Key: k, Value: bytes.ToUpper(k)})
	}
	require.NoError(t, s.Batch(ctx, ops))

	k := func(s string) []byte { return []byte(s) }
	ranges := []subspace.RawRange{
		subspace.RawOO(),
		subspace.RawIO(k("k10")),
		subspace.RawEO(k("k10")),
		subspace.RawOI(k("k20")),
		subspace.RawOE(k("k20")),
		subspace.RawII(k("k10"), k("k20")),
		subspace.RawIE(k("k10"), k("k20")),
		subspace.RawEI(k("k10"), k("k20")),
		subspace.RawEE(k("k10"), k("k20")),
		subspace.RawIO(k("k105")),
		subspace.RawOE(k("k")),
		subspace.RawIO(k("l")),
		subspace.RawII(k("k20"), k("k10")),
		subspace.RawEE(k("k10"), k("k10")),
		subspace.RawII(k("k10"), k("k10")),
	}
	for _, r := range ranges {
		for _, rev := range []bool{false, true} {
			for _, limit := range []int{0, 1, 7, 100} {
				rr := r
				rr.Reverse = rev
				rr.Limit = limit
				t.Run(describe(rr), func(t *testing.T) {
					expected := Filter(all, rr)
					require.Equal(t, expected, CollectKeys(t, s, rr))
				})
			}
		}
	}

	it, err := s.Iterator(ctx, subspace.RawII(k("k05"), k("k05")))
	require.NoError(t, err)
	require.True(t, it.Next())
	require.Equal(t, "K05", string(it.Value()))
	require.False(t, it.Next())
	require.NoError(t, it.Err())
	require.NoError(t, it.Close())
}

func testIteratorEmpty(t *testing.T, s subspace.Store) {
	require.Empty(t, CollectKeys(t, s, subspace.RawOO()))
	require.Empty(t, CollectKeys(t, s, subspace.RawOO().Reversed()))
	require.Empty(t, CollectKeys(t, s, subspace.RawIO([]byte("x")).Reversed()))
}

func testSubspaces(t *testing.T, s subspace.Store) {
	ctx := context.Background()
	root := subspace.Root(s, subspace.Options{Logger: TestLogger(t)})
	a := root.Sublevel("A", subspace.Options{})
	b := root.Sublevel("B", subspace.Options{})
	ab := a.Sublevel("B", subspace.Options{})

	require.NoError(t, a.Put(ctx, "x", "1"))
	require.NoError(t, b.Put(ctx, "x", "2"))
	require.NoError(t, ab.Put(ctx, "x", "3"))
	require.NoError(t, root.Put(ctx, "x", "0"))

	for _, c := range []struct {
		space *subspace.Subspace
		val   string
	}{{root, "0"}, {a, "1"}, {b, "2"}, {ab, "3"}} {
		v, err := c.space.Get(ctx, "x")
		require.NoError(t, err)
		require.Equal(t, c.val, v, "in %v", c.space)

		entries, err := c.space.Entries(ctx, subspace.RangeOptions{})
		require.NoError(t, err)
		require.Equal(t, []subspace.Entry{{Key: "x", Value: c.val}}, entries, "in %v", c.space)
	}
}

// CollectKeys reads every key of r.
func CollectKeys(t testing.TB, s subspace.Store, r subspace.RawRange) [][]byte {
	t.Helper()
	it, err := s.Iterator(context.Background(), r)
	require.NoError(t, err)
	defer it.Close()
	var keys [][]byte
	for it.Next() {
		keys = append(keys, slices.Clone(it.Key()))
	}
	require.NoError(t, it.Err())
	return keys
}

// Filter returns the keys of sorted that r selects, in r's order.
func Filter(sorted [][]byte, r subspace.RawRange) [][]byte {
	var out [][]byte
	for _, k := range sorted {
		if r.Contains(k) {
			out = append(out, k)
		}
	}
	if r.Reverse {
		out = reversed(out)
	}
	if r.Limit > 0 && len(out) > r.Limit {
		out = out[:r.Limit]
	}
	return out
}

func reversed(keys [][]byte) [][]byte {
	out := slices.Clone(keys)
	slices.Reverse(out)
	return out
}

func describe(r subspace.RawRange) string {
	var buf strings.Builder
	if r.Lower == nil {
		buf.WriteString("(-inf")
	} else if r.LowerInc {
		fmt.Fprintf(&buf, "[%s", r.Lower)
	} else {
		fmt.Fprintf(&buf, "(%s", r.Lower)
	}
	buf.WriteString(",")
	if r.Upper == nil {
		buf.WriteString("+inf)")
	} else if r.UpperInc {
		fmt.Fprintf(&buf, "%s]", r.Upper)
	} else {
		fmt.Fprintf(&buf, "%s)", r.Upper)
	}
	if r.Reverse {
		buf.WriteString("_rev")
	}
	if r.Limit > 0 {
		fmt.Fprintf(&buf, "_lim%d", r.Limit)
	}
	return buf.String()
}

// Expand turns space-separated hex bytes into a byte slice. Elements
// starting with ' are taken literally.
func Expand(specs ...string) []byte {
	var b []byte
	for _, spec := range specs {
		for _, elem := range strings.Fields(spec) {
			if alpha, ok := strings.CutPrefix(elem, "'"); ok {
				b = append(b, alpha...)
				continue
			}
			raw, err := hex.DecodeString(elem)
			if err != nil {
				panic(fmt.Errorf("%w in element %q", err, elem))
			}
			b = append(b, raw...)
		}
	}
	return b
}

// TestLogger returns a debug-level logger writing to t.Log.
func TestLogger(t testing.TB) *slog.Logger {
	return slog.New(slog.NewTextHandler(&logWriter{t}, &slog.HandlerOptions{
		AddSource: false,
		Level:     slog.LevelDebug,
	}))
}

type logWriter struct{ t testing.TB }

func (c *logWriter) Write(buf []byte) (int, error) {
	msg := string(buf)
	origLen := len(msg)
	msg = strings.TrimSuffix(msg, "\n")
	c.t.Log(msg)
	return origLen, nil
}
