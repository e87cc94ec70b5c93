package subspace

import (
	"context"
	"encoding/hex"
	"log/slog"
	"reflect"
	"strings"
	"testing"
)

func setup(t testing.TB, opts Options) *Subspace {
	t.Helper()
	store := NewMemStore()
	t.Cleanup(func() { store.Close() })
	if opts.Logger == nil {
		opts.Logger = testLogger(t)
	}
	opts.Verbose = true
	return Root(store, opts)
}

func deepEqual[T any](t testing.TB, a, e T) {
	if !reflect.DeepEqual(a, e) {
		t.Helper()
		t.Errorf("** got %v, wanted %v", a, e)
	}
}

func x(data string) []byte {
	return must(hex.DecodeString(strings.ReplaceAll(data, " ", "")))
}

// rawDump returns every physical key-value pair of the store as strings.
func rawDump(t testing.TB, store Store) [][2]string {
	t.Helper()
	it := must(store.Iterator(context.Background(), RawOO()))
	defer it.Close()
	var out [][2]string
	for it.Next() {
		out = append(out, [2]string{string(it.Key()), string(it.Value())})
	}
	ensure(it.Err())
	return out
}

func phys(path []string, key string) string {
	return string(EncodePath(path)) + key
}

func keysOf(t testing.TB, sp *Subspace, r RangeOptions) []any {
	t.Helper()
	var keys []any
	for k, err := range sp.KeyStream(context.Background(), r) {
		if err != nil {
			t.Fatalf("KeyStream(%+v) failed: %v", r, err)
		}
		keys = append(keys, k)
	}
	return keys
}

func testLogger(t testing.TB) *slog.Logger {
	return slog.New(slog.NewTextHandler(&logWriter{t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type logWriter struct{ t testing.TB }

func (c *logWriter) Write(buf []byte) (int, error) {
	c.t.Log(strings.TrimSuffix(string(buf), "\n"))
	return len(buf), nil
}
