package subspace

import (
	"testing"
)

func TestEscaped(t *testing.T) {
	tests := []struct {
		input, expected []byte
	}{
		{nil, nil},
		{[]byte("ab"), []byte("ab")},
		{[]byte{0x00}, []byte{0x01, 0x01}},
		{[]byte{0x01}, []byte{0x01, 0x02}},
		{[]byte{0x02, 0x00, 0x01, 0xff}, []byte{0x02, 0x01, 0x01, 0x01, 0x02, 0xff}},
	}
	for _, tt := range tests {
		actual := appendEscaped(nil, tt.input)
		if string(actual) != string(tt.expected) {
			t.Errorf("appendEscaped(%x) = %x, wanted %x", tt.input, actual, tt.expected)
		}

		content, rest, ok := readEscaped(append(actual, 0x00, 0x42))
		if !ok || string(content) != string(tt.input) || string(rest) != "\x42" {
			t.Errorf("readEscaped(%x) = %x, %x, %v", actual, content, rest, ok)
		}
	}

	for _, bad := range [][]byte{{0x61}, {0x01}, {0x01, 0x03, 0x00}} {
		if _, _, ok := readEscaped(bad); ok {
			t.Errorf("readEscaped(%x) = ok, wanted failure", bad)
		}
	}
}

func TestGrow(t *testing.T) {
	buf := []byte{1, 2}
	off, buf := grow(buf, 3)
	deepEqual(t, off, 2)
	deepEqual(t, len(buf), 5)
	if cap(buf) < 16 {
		t.Errorf("cap = %d, wanted >= 16", cap(buf))
	}
	deepEqual(t, buf[:2], []byte{1, 2})

	var bb bytesBuilder
	bb.Write([]byte("ab"))
	bb.WriteByte('c')
	deepEqual(t, string(bb.Buf), "abc")
}

func TestSucc(t *testing.T) {
	deepEqual(t, succ(nil), []byte{0x00})
	in := []byte("a")
	out := succ(in)
	deepEqual(t, out, []byte("a\x00"))
	out[0] = 'z'
	deepEqual(t, in, []byte("a"))
}

func TestHexstr(t *testing.T) {
	deepEqual(t, hexstr(nil), "<nil>")
	deepEqual(t, hexstr([]byte{}), "<empty>")
	deepEqual(t, hexstr([]byte{0xab}), "ab")
	deepEqual(t, cloneBytes(nil) == nil, true)
}
