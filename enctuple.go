package subspace

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Tuple is an order-preserving encoding of composite keys. Encode accepts
// a []any (or a single scalar, treated as a 1-tuple) of nil, bool, signed
// and unsigned integers, strings and byte slices. Decode returns []any with
// int64, uint64, string, []byte, bool and nil elements.
//
// Tuples compare element by element; a shorter tuple sorts before any
// longer tuple it is a prefix of. Elements of different types sort by type:
// nil < bool < int < big uint < bytes < string.
var Tuple Encoding = tupleEncoding{}

const (
	tagNil    byte = 0x10
	tagFalse  byte = 0x20
	tagTrue   byte = 0x21
	tagInt    byte = 0x30
	tagBigU   byte = 0x31
	tagBytes  byte = 0x40
	tagString byte = 0x50
)

type tupleEncoding struct{}

func (tupleEncoding) Name() string { return "tuple" }

func (tupleEncoding) Encode(v any) ([]byte, error) {
	els, ok := v.([]any)
	if !ok {
		els = []any{v}
	}
	var buf []byte
	for i, el := range els {
		var err error
		buf, err = appendTupleElem(buf, el)
		if err != nil {
			return nil, fmt.Errorf("tuple element %d: %w", i, err)
		}
	}
	return buf, nil
}

func appendTupleElem(buf []byte, el any) ([]byte, error) {
	switch el := el.(type) {
	case nil:
		return append(buf, tagNil), nil
	case bool:
		if el {
			return append(buf, tagTrue), nil
		}
		return append(buf, tagFalse), nil
	case int:
		return appendTupleInt(buf, int64(el)), nil
	case int8:
		return appendTupleInt(buf, int64(el)), nil
	case int16:
		return appendTupleInt(buf, int64(el)), nil
	case int32:
		return appendTupleInt(buf, int64(el)), nil
	case int64:
		return appendTupleInt(buf, el), nil
	case uint:
		return appendTupleUint(buf, uint64(el)), nil
	case uint8:
		return appendTupleInt(buf, int64(el)), nil
	case uint16:
		return appendTupleInt(buf, int64(el)), nil
	case uint32:
		return appendTupleInt(buf, int64(el)), nil
	case uint64:
		return appendTupleUint(buf, el), nil
	case []byte:
		buf = append(buf, tagBytes)
		buf = appendEscaped(buf, el)
		return append(buf, segmentEnd), nil
	case string:
		buf = append(buf, tagString)
		buf = appendEscaped(buf, []byte(el))
		return append(buf, segmentEnd), nil
	default:
		return nil, fmt.Errorf("unsupported type %T", el)
	}
}

func appendTupleInt(buf []byte, v int64) []byte {
	off, buf := grow(buf, 9)
	buf[off] = tagInt
	binary.BigEndian.PutUint64(buf[off+1:], uint64(v)^(1<<63))
	return buf
}

func appendTupleUint(buf []byte, v uint64) []byte {
	if v <= math.MaxInt64 {
		return appendTupleInt(buf, int64(v))
	}
	off, buf := grow(buf, 9)
	buf[off] = tagBigU
	binary.BigEndian.PutUint64(buf[off+1:], v)
	return buf
}

func (tupleEncoding) Decode(data []byte) (any, error) {
	els := []any{}
	raw := data
	for len(raw) > 0 {
		tag := raw[0]
		raw = raw[1:]
		switch tag {
		case tagNil:
			els = append(els, nil)
		case tagFalse:
			els = append(els, false)
		case tagTrue:
			els = append(els, true)
		case tagInt, tagBigU:
			if len(raw) < 8 {
				return nil, keyErrf(data, nil, "truncated tuple integer at offset %d", len(data)-len(raw))
			}
			u := binary.BigEndian.Uint64(raw)
			if tag == tagInt {
				els = append(els, int64(u^(1<<63)))
			} else {
				els = append(els, u)
			}
			raw = raw[8:]
		case tagBytes, tagString:
			content, rest, ok := readEscaped(raw)
			if !ok {
				return nil, keyErrf(data, nil, "unterminated tuple element at offset %d", len(data)-len(raw))
			}
			if tag == tagString {
				els = append(els, string(content))
			} else {
				if content == nil {
					content = []byte{}
				}
				els = append(els, content)
			}
			raw = rest
		default:
			return nil, keyErrf(data, nil, "invalid tuple tag 0x%02x at offset %d", tag, len(data)-len(raw)-1)
		}
	}
	return els, nil
}

func (enc tupleEncoding) DecodeInto(data []byte, dst any) error {
	v, err := enc.Decode(data)
	if err != nil {
		return err
	}
	switch dst := dst.(type) {
	case *[]any:
		*dst = v.([]any)
	case *any:
		*dst = v
	default:
		return fmt.Errorf("cannot decode tuple into %T", dst)
	}
	return nil
}
