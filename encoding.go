package subspace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Encoding serializes keys or values. Key encodings must be order-preserving
// for range reads to make sense; UTF8, Binary and Tuple are.
type Encoding interface {
	Name() string
	Encode(v any) ([]byte, error)
	Decode(data []byte) (any, error)
	DecodeInto(data []byte, dst any) error
}

type encodingMethod int

const (
	UTF8 encodingMethod = iota
	Binary
	JSON
	MsgPack

	defaultKeyEncoding   = UTF8
	defaultValueEncoding = UTF8
)

// EncodingByName resolves the names used in configuration files.
func EncodingByName(name string) (Encoding, error) {
	switch strings.ToLower(name) {
	case "utf8", "utf-8", "string":
		return UTF8, nil
	case "binary", "bytes", "buffer":
		return Binary, nil
	case "json":
		return JSON, nil
	case "msgpack":
		return MsgPack, nil
	case "tuple":
		return Tuple, nil
	default:
		return nil, fmt.Errorf("unknown encoding %q", name)
	}
}

func (enc encodingMethod) Name() string {
	switch enc {
	case UTF8:
		return "utf8"
	case Binary:
		return "binary"
	case JSON:
		return "json"
	case MsgPack:
		return "msgpack"
	default:
		return fmt.Sprintf("invalid encoding %d", int(enc))
	}
}

func (enc encodingMethod) String() string {
	return enc.Name()
}

func (enc encodingMethod) Encode(v any) ([]byte, error) {
	switch enc {
	case UTF8:
		switch v := v.(type) {
		case nil:
			return nil, fmt.Errorf("cannot encode nil as utf8")
		case string:
			return []byte(v), nil
		case []byte:
			return v, nil
		case fmt.Stringer:
			return []byte(v.String()), nil
		default:
			return []byte(fmt.Sprint(v)), nil
		}
	case Binary:
		switch v := v.(type) {
		case []byte:
			return v, nil
		case string:
			return []byte(v), nil
		default:
			return nil, fmt.Errorf("cannot encode %T as binary", v)
		}
	case JSON:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %T to JSON: %w", v, err)
		}
		return raw, nil
	case MsgPack:
		var bb bytesBuilder
		enc := msgpack.GetEncoder()
		enc.ResetDict(&bb, nil)
		// sorts map[string]string and map[string]any only
		enc.SetSortMapKeys(true)
		err := enc.Encode(v)
		msgpack.PutEncoder(enc)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %T using MsgPack: %w", v, err)
		}
		return bb.Buf, nil
	default:
		panic("unsupported encoding")
	}
}

func (enc encodingMethod) Decode(data []byte) (any, error) {
	switch enc {
	case UTF8:
		return string(data), nil
	case Binary:
		return cloneBytes(data), nil
	case JSON:
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("failed to decode JSON: %w", err)
		}
		return v, nil
	case MsgPack:
		var r bytes.Reader
		r.Reset(data)
		dec := msgpack.GetDecoder()
		dec.ResetDict(&r, nil)
		v, err := dec.DecodeInterface()
		msgpack.PutDecoder(dec)
		if err != nil {
			return nil, fmt.Errorf("failed to decode msgpack: %w", err)
		}
		return v, nil
	default:
		panic("unsupported encoding")
	}
}

func (enc encodingMethod) DecodeInto(data []byte, dst any) error {
	switch enc {
	case UTF8, Binary:
		switch dst := dst.(type) {
		case *string:
			*dst = string(data)
		case *[]byte:
			*dst = cloneBytes(data)
		case *any:
			v, err := enc.Decode(data)
			if err != nil {
				return err
			}
			*dst = v
		default:
			return fmt.Errorf("cannot decode %s into %T", enc.Name(), dst)
		}
		return nil
	case JSON:
		if err := json.Unmarshal(data, dst); err != nil {
			return fmt.Errorf("failed to decode JSON into %T: %w", dst, err)
		}
		return nil
	case MsgPack:
		var r bytes.Reader
		r.Reset(data)
		dec := msgpack.GetDecoder()
		dec.ResetDict(&r, nil)
		err := dec.Decode(dst)
		msgpack.PutDecoder(dec)
		if err != nil {
			return fmt.Errorf("failed to decode msgpack into %T: %w", dst, err)
		}
		return nil
	default:
		panic("unsupported encoding")
	}
}
