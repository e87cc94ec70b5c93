package subspace

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

type DumpFlags uint64

const (
	DumpNamespaceHeaders = DumpFlags(1 << iota)
	DumpRows
	DumpRawKeys

	DumpAll = DumpFlags(0xFFFFFFFFFFFFFFFF)
)

var (
	dumpSep1 = strings.Repeat("=", 80)
)

func (f DumpFlags) Contains(v DumpFlags) bool {
	return (f & v) == v
}

// Dump writes the physical layout of store grouped by namespace. hexKeys
// must match the HexKeys setting the data was written with.
func Dump(ctx context.Context, w io.Writer, store Store, hexKeys bool, f DumpFlags) error {
	it, err := store.Iterator(ctx, RawOO())
	if err != nil {
		return err
	}
	defer it.Close()

	var curPath string
	var first = true
	var rowPos int
	for it.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		phys := it.Key()
		raw := phys
		if hexKeys {
			raw, err = hex.DecodeString(string(phys))
			if err != nil {
				fmt.Fprintf(w, "** ERROR: %x: %v\n", phys, err)
				continue
			}
		}
		path, key, err := SplitKey(raw)
		if err != nil {
			fmt.Fprintf(w, "** ERROR: %v\n", err)
			continue
		}
		p := formatPath(path)
		if first || p != curPath {
			first, curPath, rowPos = false, p, 0
			if f.Contains(DumpNamespaceHeaders) {
				fmt.Fprintln(w, dumpSep1)
				fmt.Fprintf(w, "%s (depth %d)\n", p, NewNamespace(path, false).Depth())
			}
		}
		rowPos++
		if !f.Contains(DumpRows) {
			continue
		}
		if f.Contains(DumpRawKeys) {
			fmt.Fprintf(w, "%s.%d: %x = %s\n", p, rowPos, phys, dumpValue(it.Value()))
		} else {
			fmt.Fprintf(w, "%s.%d: %s = %s\n", p, rowPos, dumpValue(key), dumpValue(it.Value()))
		}
	}
	return it.Err()
}

func dumpValue(b []byte) string {
	if utf8.Valid(b) {
		return strconv.Quote(string(b))
	}
	return "0x" + hex.EncodeToString(b)
}
