package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/andreyvit/subspace"
)

func runGet(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	key, err := a.parseKey(args[0])
	if err != nil {
		return err
	}
	v, err := a.space.Get(cmd.Context(), key)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), formatValue(v))
	return nil
}

func runPut(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	b := a.space.NewBatch()
	for i := 0; i < len(args); i += 2 {
		key, err := a.parseKey(args[i])
		if err != nil {
			return err
		}
		b.Put(key, a.parseValue(args[i+1]))
	}
	return b.Write(cmd.Context())
}

func runDel(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	b := a.space.NewBatch()
	for _, arg := range args {
		key, err := a.parseKey(arg)
		if err != nil {
			return err
		}
		b.Del(key)
	}
	return b.Write(cmd.Context())
}

func runLs(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	flags := cmd.Flags()
	var r subspace.RangeOptions
	for name, dst := range map[string]*any{
		"start": &r.Start, "end": &r.End,
		"gt": &r.Gt, "gte": &r.Gte,
		"lt": &r.Lt, "lte": &r.Lte,
		"min": &r.Min, "max": &r.Max,
	} {
		if !flags.Changed(name) {
			continue
		}
		s, _ := flags.GetString(name)
		*dst, err = a.parseKey(s)
		if err != nil {
			return fmt.Errorf("--%s: %w", name, err)
		}
	}
	r.Reverse, _ = flags.GetBool("reverse")
	r.Limit, _ = flags.GetInt("limit")
	keysOnly, _ := flags.GetBool("keys")
	valuesOnly, _ := flags.GetBool("values")

	w := cmd.OutOrStdout()
	for e, err := range a.space.ReadStream(cmd.Context(), r) {
		if err != nil {
			return err
		}
		switch {
		case keysOnly:
			fmt.Fprintln(w, formatValue(e.Key))
		case valuesOnly:
			fmt.Fprintln(w, formatValue(e.Value))
		default:
			fmt.Fprintf(w, "%s\t%s\n", formatValue(e.Key), formatValue(e.Value))
		}
	}
	return nil
}

func runDump(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	f := subspace.DumpNamespaceHeaders | subspace.DumpRows
	if raw, _ := cmd.Flags().GetBool("raw-keys"); raw {
		f |= subspace.DumpRawKeys
	}
	return subspace.Dump(cmd.Context(), cmd.OutOrStdout(), a.store, a.cfg.Keys.Hex, f)
}

// parseKey turns a command-line key into what the key encoding accepts.
// Binary keys are given in hex; tuple keys as a JSON array.
func (a *app) parseKey(s string) (any, error) {
	switch a.space.Options().KeyEncoding {
	case subspace.Binary:
		b, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("binary key %q: %w", s, err)
		}
		return b, nil
	case subspace.Tuple:
		return parseTuple(s)
	default:
		return s, nil
	}
}

func parseTuple(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var els []any
	if err := dec.Decode(&els); err != nil {
		return nil, fmt.Errorf("tuple key must be a JSON array: %w", err)
	}
	for i, el := range els {
		switch el := el.(type) {
		case json.Number:
			n, err := el.Int64()
			if err != nil {
				return nil, fmt.Errorf("tuple element %d: %v is not an integer", i, el)
			}
			els[i] = n
		case nil, bool, string:
		default:
			return nil, fmt.Errorf("tuple element %d: unsupported %T", i, el)
		}
	}
	return els, nil
}

// parseValue reads structured encodings' values as JSON, falling back to
// the literal string.
func (a *app) parseValue(s string) any {
	switch a.space.Options().ValueEncoding {
	case subspace.JSON, subspace.MsgPack:
		var v any
		if err := json.Unmarshal([]byte(s), &v); err == nil {
			return v
		}
	case subspace.Binary:
		if b, err := hex.DecodeString(s); err == nil {
			return b
		}
	}
	return s
}

func formatValue(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case []byte:
		if utf8.Valid(v) && !bytes.ContainsFunc(v, isControl) {
			return string(v)
		}
		return "0x" + hex.EncodeToString(v)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(raw)
	}
}

func isControl(r rune) bool {
	return r < 0x20 || r == 0x7f
}
