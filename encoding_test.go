package subspace

import (
	"bytes"
	"testing"
)

type stringer struct{}

func (stringer) String() string { return "str" }

func TestEncoding_UTF8(t *testing.T) {
	tests := []struct {
		input    any
		expected string
	}{
		{"abc", "abc"},
		{[]byte("raw"), "raw"},
		{42, "42"},
		{stringer{}, "str"},
		{true, "true"},
	}
	for _, tt := range tests {
		actual := must(UTF8.Encode(tt.input))
		if string(actual) != tt.expected {
			t.Errorf("UTF8.Encode(%v) = %q, wanted %q", tt.input, actual, tt.expected)
		}
	}
	if _, err := UTF8.Encode(nil); err == nil {
		t.Errorf("UTF8.Encode(nil) succeeded, wanted error")
	}
	deepEqual(t, must(UTF8.Decode([]byte("x"))), any("x"))
}

func TestEncoding_Binary(t *testing.T) {
	data := []byte{0x00, 0xff}
	deepEqual(t, must(Binary.Encode(data)), data)
	deepEqual(t, must(Binary.Encode("ab")), []byte("ab"))
	if _, err := Binary.Encode(12); err == nil {
		t.Errorf("Binary.Encode(12) succeeded, wanted error")
	}

	dec := must(Binary.Decode(data)).([]byte)
	deepEqual(t, dec, data)
	dec[0] = 0x42
	if data[0] != 0x00 {
		t.Errorf("Binary.Decode result aliases its input")
	}
}

func TestEncoding_JSON(t *testing.T) {
	type rec struct {
		Name string `json:"name"`
		N    int    `json:"n"`
	}
	enc := must(JSON.Encode(rec{"a", 2}))
	deepEqual(t, string(enc), `{"name":"a","n":2}`)
	deepEqual(t, must(JSON.Decode(enc)), any(map[string]any{"name": "a", "n": 2.0}))

	var r rec
	ensure(JSON.DecodeInto(enc, &r))
	deepEqual(t, r, rec{"a", 2})

	if _, err := JSON.Encode(make(chan int)); err == nil {
		t.Errorf("JSON.Encode(chan) succeeded, wanted error")
	}
	if _, err := JSON.Decode([]byte("{")); err == nil {
		t.Errorf("JSON.Decode(truncated) succeeded, wanted error")
	}
}

func TestEncoding_MsgPack(t *testing.T) {
	type rec struct {
		Name string
		Tags []string
	}
	in := rec{"a", []string{"x", "y"}}
	enc := must(MsgPack.Encode(in))
	var out rec
	ensure(MsgPack.DecodeInto(enc, &out))
	deepEqual(t, out, in)

	for i := range 20 {
		m1 := must(MsgPack.Encode(map[string]any{"b": 1, "a": "x", "c": true, "d": nil}))
		m2 := must(MsgPack.Encode(map[string]any{"d": nil, "c": true, "a": "x", "b": 1}))
		if !bytes.Equal(m1, m2) {
			t.Fatalf("MsgPack map[string]any encoding #%d = %x, wanted %x", i, m2, m1)
		}
		s1 := must(MsgPack.Encode(map[string]string{"b": "1", "a": "2", "c": "3"}))
		s2 := must(MsgPack.Encode(map[string]string{"c": "3", "a": "2", "b": "1"}))
		if !bytes.Equal(s1, s2) {
			t.Fatalf("MsgPack map[string]string encoding #%d = %x, wanted %x", i, s2, s1)
		}
	}

	v := must(MsgPack.Decode(must(MsgPack.Encode("hi"))))
	deepEqual(t, v, any("hi"))
}

func TestEncoding_DecodeIntoText(t *testing.T) {
	var s string
	ensure(UTF8.DecodeInto([]byte("a"), &s))
	deepEqual(t, s, "a")

	var b []byte
	ensure(Binary.DecodeInto([]byte("b"), &b))
	deepEqual(t, b, []byte("b"))

	var v any
	ensure(UTF8.DecodeInto([]byte("c"), &v))
	deepEqual(t, v, any("c"))

	var n int
	if err := UTF8.DecodeInto([]byte("1"), &n); err == nil {
		t.Errorf("UTF8.DecodeInto(*int) succeeded, wanted error")
	}
}

func TestEncodingByName(t *testing.T) {
	tests := map[string]Encoding{
		"utf8":    UTF8,
		"UTF-8":   UTF8,
		"string":  UTF8,
		"binary":  Binary,
		"buffer":  Binary,
		"json":    JSON,
		"msgpack": MsgPack,
		"tuple":   Tuple,
	}
	for name, expected := range tests {
		actual, err := EncodingByName(name)
		if err != nil {
			t.Errorf("EncodingByName(%q) failed: %v", name, err)
			continue
		}
		if actual != expected {
			t.Errorf("EncodingByName(%q) = %v, wanted %v", name, actual, expected)
		}
	}
	if _, err := EncodingByName("yaml"); err == nil {
		t.Errorf("EncodingByName(yaml) succeeded, wanted error")
	}
}
