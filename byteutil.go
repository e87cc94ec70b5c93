package subspace

import (
	"io"
)

func ensureCapacity(buf []byte, minCap int) []byte {
	c := cap(buf)
	if minCap > c {
		if c < 16 {
			c = 16
		}
		for minCap > c {
			c <<= 1
		}
		old := buf
		buf = make([]byte, len(old), c)
		copy(buf, old)
	}
	return buf
}

func grow(buf []byte, n int) (int, []byte) {
	off := len(buf)
	newLen := off + n
	buf = ensureCapacity(buf, newLen)
	return off, buf[:newLen]
}

func appendRaw(buf []byte, chunk []byte) []byte {
	n := len(chunk)
	off, buf := grow(buf, n)
	copy(buf[off:], chunk)
	return buf
}

// appendEscaped appends chunk with 0x00 and 0x01 byte-stuffed, so that
// a following 0x00 terminator sorts before any continuation.
func appendEscaped(buf []byte, chunk []byte) []byte {
	buf = ensureCapacity(buf, len(buf)+len(chunk))
	for _, b := range chunk {
		switch b {
		case 0x00:
			buf = append(buf, escapeByte, 0x01)
		case escapeByte:
			buf = append(buf, escapeByte, 0x02)
		default:
			buf = append(buf, b)
		}
	}
	return buf
}

// readEscaped reads byte-stuffed content up to the 0x00 terminator and
// returns the unescaped content and the rest after the terminator.
func readEscaped(raw []byte) (content, rest []byte, ok bool) {
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case 0x00:
			return content, raw[i+1:], true
		case escapeByte:
			if i+1 >= len(raw) {
				return nil, nil, false
			}
			i++
			switch raw[i] {
			case 0x01:
				content = append(content, 0x00)
			case 0x02:
				content = append(content, escapeByte)
			default:
				return nil, nil, false
			}
		default:
			content = append(content, raw[i])
		}
	}
	return nil, nil, false
}

type bytesBuilder struct {
	Buf []byte
}

var _ io.Writer = (*bytesBuilder)(nil)

func (bb *bytesBuilder) Write(b []byte) (int, error) {
	bb.Buf = appendRaw(bb.Buf, b)
	return len(b), nil
}

func (bb *bytesBuilder) WriteByte(v byte) error {
	bb.Buf = append(bb.Buf, v)
	return nil
}
