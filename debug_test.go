package subspace

import (
	"context"
	"strings"
	"testing"
)

func TestDump(t *testing.T) {
	ctx := context.Background()
	for _, hexKeys := range []bool{false, true} {
		root := setup(t, Options{HexKeys: hexKeys})
		ensure(root.Put(ctx, "r", "0"))
		a := root.Sublevel("a", Options{})
		ensure(a.Put(ctx, "k1", "v1"))
		ensure(a.Put(ctx, "k2", []byte{0xff, 0x00}))
		ensure(a.Sublevel("b", Options{}).Put(ctx, "k", "v"))

		var buf strings.Builder
		ensure(Dump(ctx, &buf, root.Store(), hexKeys, DumpNamespaceHeaders|DumpRows))
		sep := strings.Repeat("=", 80)
		expected := strings.Join([]string{
			sep,
			"<root> (depth 0)",
			`<root>.1: "r" = "0"`,
			sep,
			"/a (depth 1)",
			`/a.1: "k1" = "v1"`,
			`/a.2: "k2" = 0xff00`,
			sep,
			"/a/b (depth 2)",
			`/a/b.1: "k" = "v"`,
			"",
		}, "\n")
		if actual := buf.String(); actual != expected {
			t.Errorf("hex=%v: Dump =\n%s\nwanted:\n%s", hexKeys, actual, expected)
		}
	}
}

func TestDump_flags(t *testing.T) {
	ctx := context.Background()
	root := setup(t, Options{})
	ensure(root.Sublevel("a", Options{}).Put(ctx, "k", "v"))

	var buf strings.Builder
	ensure(Dump(ctx, &buf, root.Store(), false, DumpNamespaceHeaders))
	deepEqual(t, strings.Count(buf.String(), "\n"), 2)

	buf.Reset()
	ensure(Dump(ctx, &buf, root.Store(), false, DumpRows|DumpRawKeys))
	deepEqual(t, buf.String(), "/a.1: ff61006b = \"v\"\n")

	if !DumpAll.Contains(DumpRawKeys) || DumpRows.Contains(DumpAll) {
		t.Errorf("DumpFlags.Contains is broken")
	}
}
