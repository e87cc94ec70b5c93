package subspace

import (
	"bytes"
	"context"
	"log/slog"
)

const (
	debugLogRawScans = false
)

// RawRange defines a range of byte strings. The constructors use mnemonics:
// O means open, I means inclusive, E means exclusive; the first letter is for
// the lower bound, the second for the upper bound.
type RawRange struct {
	Lower    []byte
	Upper    []byte
	LowerInc bool
	UpperInc bool
	Reverse  bool
	Limit    int // <= 0 means no limit
}

func RawOO() RawRange            { return RawRange{} }
func RawIO(l []byte) RawRange    { return RawRange{Lower: l, LowerInc: true} }
func RawEO(l []byte) RawRange    { return RawRange{Lower: l, LowerInc: false} }
func RawOI(u []byte) RawRange    { return RawRange{Upper: u, UpperInc: true} }
func RawOE(u []byte) RawRange    { return RawRange{Upper: u, UpperInc: false} }
func RawII(l, u []byte) RawRange { return RawRange{Lower: l, Upper: u, LowerInc: true, UpperInc: true} }
func RawIE(l, u []byte) RawRange {
	return RawRange{Lower: l, Upper: u, LowerInc: true, UpperInc: false}
}
func RawEI(l, u []byte) RawRange {
	return RawRange{Lower: l, Upper: u, LowerInc: false, UpperInc: true}
}
func RawEE(l, u []byte) RawRange {
	return RawRange{Lower: l, Upper: u, LowerInc: false, UpperInc: false}
}
func (rang RawRange) Reversed() RawRange     { rang.Reverse = true; return rang }
func (rang RawRange) Limited(n int) RawRange { rang.Limit = n; return rang }

// Bounds returns the equivalent half-open range [start, limit). A nil
// result means unbounded on that side. The smallest key above x is x+0x00,
// which turns exclusive lower and inclusive upper bounds into the other kind.
func (rang RawRange) Bounds() (start, limit []byte) {
	if rang.Lower != nil {
		if rang.LowerInc {
			start = rang.Lower
		} else {
			start = succ(rang.Lower)
		}
	}
	if rang.Upper != nil {
		if rang.UpperInc {
			limit = succ(rang.Upper)
		} else {
			limit = rang.Upper
		}
	}
	return
}

// Empty reports whether no key can fall within the range.
func (rang RawRange) Empty() bool {
	start, limit := rang.Bounds()
	if limit == nil {
		return false
	}
	return len(limit) == 0 || (start != nil && bytes.Compare(start, limit) >= 0)
}

// Contains reports whether key falls within the range, ignoring Limit.
func (rang RawRange) Contains(key []byte) bool {
	start, limit := rang.Bounds()
	if start != nil && bytes.Compare(key, start) < 0 {
		return false
	}
	if limit != nil && bytes.Compare(key, limit) >= 0 {
		return false
	}
	return true
}

// storageCursor iterates over a sorted key space.
type storageCursor interface {
	// First moves to the first key-value pair.
	First() (key, value []byte)

	// Last moves to the last key-value pair.
	Last() (key, value []byte)

	// Seek moves to the first key >= seek.
	Seek(seek []byte) (key, value []byte)

	// Next moves to the next key-value pair.
	Next() (key, value []byte)

	// Prev moves to the previous key-value pair.
	Prev() (key, value []byte)
}

// rangeCursor walks a storageCursor within a RawRange and implements Iterator.
type rangeCursor struct {
	bcur      storageCursor
	start     []byte
	limit     []byte
	reverse   bool
	remaining int
	logger    *slog.Logger
	release   func() error

	k, v []byte
	init bool
	done bool
}

func newRangeCursor(bcur storageCursor, rang RawRange, logger *slog.Logger, release func() error) *rangeCursor {
	start, limit := rang.Bounds()
	remaining := -1
	if rang.Limit > 0 {
		remaining = rang.Limit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &rangeCursor{
		bcur:      bcur,
		start:     start,
		limit:     limit,
		reverse:   rang.Reverse,
		remaining: remaining,
		logger:    logger,
		release:   release,
		done:      rang.Empty(),
	}
}

func (c *rangeCursor) first() ([]byte, []byte) {
	if c.reverse {
		if c.limit == nil {
			k, v := c.bcur.Last()
			if debugLogRawScans {
				c.logger.LogAttrs(context.Background(), slog.LevelDebug, "LAST", hexAttr("key", k), hexAttr("val", v))
			}
			return k, v
		}
		k, _ := c.bcur.Seek(c.limit)
		if debugLogRawScans {
			c.logger.LogAttrs(context.Background(), slog.LevelDebug, "SEEK to limit", hexAttr("limit", c.limit), hexAttr("key", k))
		}
		if k == nil {
			return c.bcur.Last()
		}
		return c.bcur.Prev()
	}
	if c.start == nil {
		return c.bcur.First()
	}
	k, v := c.bcur.Seek(c.start)
	if debugLogRawScans {
		c.logger.LogAttrs(context.Background(), slog.LevelDebug, "SEEK to start", hexAttr("start", c.start), hexAttr("key", k), hexAttr("val", v))
	}
	return k, v
}

func (c *rangeCursor) match(k []byte) bool {
	if c.reverse {
		if c.start != nil && bytes.Compare(k, c.start) < 0 {
			if debugLogRawScans {
				c.logger.LogAttrs(context.Background(), slog.LevelDebug, "BAIL on start", hexAttr("start", c.start), hexAttr("key", k))
			}
			return false
		}
	} else {
		if c.limit != nil && bytes.Compare(k, c.limit) >= 0 {
			if debugLogRawScans {
				c.logger.LogAttrs(context.Background(), slog.LevelDebug, "BAIL on limit", hexAttr("limit", c.limit), hexAttr("key", k))
			}
			return false
		}
	}
	return true
}

func (c *rangeCursor) Next() bool {
	if c.done {
		return false
	}
	if c.remaining == 0 {
		c.done = true
		return false
	}
	var k, v []byte
	if !c.init {
		c.init = true
		k, v = c.first()
	} else if c.reverse {
		k, v = c.bcur.Prev()
	} else {
		k, v = c.bcur.Next()
	}
	if k == nil || !c.match(k) {
		c.k, c.v = nil, nil
		c.done = true
		return false
	}
	c.k, c.v = k, v
	if c.remaining > 0 {
		c.remaining--
	}
	return true
}

func (c *rangeCursor) Key() []byte   { return c.k }
func (c *rangeCursor) Value() []byte { return c.v }
func (c *rangeCursor) Err() error    { return nil }

func (c *rangeCursor) Close() error {
	c.done = true
	if c.release == nil {
		return nil
	}
	release := c.release
	c.release = nil
	return release()
}
