package subspace

import (
	"errors"
	"testing"
)

func TestEncodeRange(t *testing.T) {
	ns := NewNamespace([]string{"a"}, false)
	p := func(k string) []byte { return append(x("ff 61 00"), k...) }
	lower, upper := x("ff 61 00"), x("ff 61 00 ff")

	tests := []struct {
		name     string
		r        RangeOptions
		expected RawRange
	}{
		{"whole", RangeOptions{},
			RawRange{Lower: lower, Upper: upper}},
		{"start_end", RangeOptions{Start: "b", End: "d"},
			RawRange{Lower: p("b"), LowerInc: true, Upper: p("d"), UpperInc: true}},
		{"start_end_reverse", RangeOptions{Start: "d", End: "b", Reverse: true},
			RawRange{Lower: p("b"), LowerInc: true, Upper: p("d"), UpperInc: true, Reverse: true}},
		{"start_only", RangeOptions{Start: "b"},
			RawRange{Lower: p("b"), LowerInc: true, Upper: upper, UpperInc: true}},
		{"start_only_reverse", RangeOptions{Start: "b", Reverse: true},
			RawRange{Lower: lower, LowerInc: true, Upper: p("b"), UpperInc: true, Reverse: true}},
		{"end_only_reverse", RangeOptions{End: "b", Reverse: true},
			RawRange{Lower: p("b"), LowerInc: true, Upper: upper, UpperInc: true, Reverse: true}},
		{"operators_beat_start_end", RangeOptions{Start: "b", End: "d", Gt: "c"},
			RawRange{Lower: p("c"), Upper: upper}},
		{"operators_beat_min_max", RangeOptions{Min: "b", Max: "d", Lt: "c"},
			RawRange{Lower: lower, Upper: p("c")}},
		{"min_max_beat_start_end", RangeOptions{Start: "a", End: "z", Min: "b", Max: "d"},
			RawRange{Lower: p("b"), LowerInc: true, Upper: p("d"), UpperInc: true}},
		{"gt_beats_gte", RangeOptions{Gt: "a", Gte: "b"},
			RawRange{Lower: p("a"), Upper: upper}},
		{"lt_beats_lte", RangeOptions{Lt: "y", Lte: "z"},
			RawRange{Lower: lower, Upper: p("y")}},
		{"gte_lte", RangeOptions{Gte: "b", Lte: "d", Limit: 3},
			RawRange{Lower: p("b"), LowerInc: true, Upper: p("d"), UpperInc: true, Limit: 3}},
		{"negative_limit", RangeOptions{Limit: -5},
			RawRange{Lower: lower, Upper: upper}},
		{"clamped_lower", RangeOptions{Gte: "\xff"},
			RawRange{Lower: upper, Upper: upper}},
		{"clamped_upper", RangeOptions{Lte: "\xffzz"},
			RawRange{Lower: lower, Upper: upper, UpperInc: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual, err := ns.EncodeRange(tt.r, UTF8)
			if err != nil {
				t.Fatal(err)
			}
			deepEqual(t, actual, tt.expected)
		})
	}
}

func TestEncodeRange_clampedLowerIsEmpty(t *testing.T) {
	ns := NewNamespace([]string{"a"}, false)
	rr := must(ns.EncodeRange(RangeOptions{Gt: "\xff\xff"}, UTF8))
	if !rr.Empty() {
		t.Errorf("EncodeRange(gt ff ff) = %+v, wanted an empty range", rr)
	}
}

func TestEncodeRange_encodingError(t *testing.T) {
	ns := NewNamespace([]string{"a"}, false)
	_, err := ns.EncodeRange(RangeOptions{Gt: 42}, Binary)
	var kte *KeyTypeError
	if !errors.As(err, &kte) {
		t.Errorf("err = %v, wanted *KeyTypeError", err)
	}
}

func TestRawRange_Bounds(t *testing.T) {
	k := func(s string) []byte { return []byte(s) }
	tests := []struct {
		r            RawRange
		start, limit []byte
		empty        bool
	}{
		{RawOO(), nil, nil, false},
		{RawIO(k("a")), k("a"), nil, false},
		{RawEO(k("a")), k("a\x00"), nil, false},
		{RawOI(k("b")), nil, k("b\x00"), false},
		{RawOE(k("b")), nil, k("b"), false},
		{RawEE(k("a"), k("a")), k("a\x00"), k("a"), true},
		{RawII(k("a"), k("a")), k("a"), k("a\x00"), false},
		{RawIE(k("b"), k("a")), k("b"), k("a"), true},
		{RawOE([]byte{}), nil, []byte{}, true},
	}
	for _, tt := range tests {
		start, limit := tt.r.Bounds()
		deepEqual(t, start, tt.start)
		deepEqual(t, limit, tt.limit)
		if tt.r.Empty() != tt.empty {
			t.Errorf("%+v.Empty() = %v, wanted %v", tt.r, tt.r.Empty(), tt.empty)
		}
	}
}
