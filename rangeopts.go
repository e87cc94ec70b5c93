package subspace

// RangeOptions selects a range of keys within one namespace. Nil fields are
// absent. Explicit operators (Gt, Gte, Lt, Lte) take precedence over Min
// and Max, which take precedence over Start and End. Start and End name the
// first and last key in iteration order, so they swap roles when Reverse.
type RangeOptions struct {
	Start, End any
	Gt, Gte    any
	Lt, Lte    any
	Min, Max   any

	Reverse bool
	Limit   int // <= 0 means no limit
}

func (r RangeOptions) hasOperators() bool {
	return r.Gt != nil || r.Gte != nil || r.Lt != nil || r.Lte != nil
}

type boundKind int

const (
	boundKey boundKind = iota
	boundLower
	boundUpper
)

type bound struct {
	kind boundKind
	val  any
}

var (
	lowerSentinel = &bound{kind: boundLower}
	upperSentinel = &bound{kind: boundUpper}
)

func keyBound(v any) *bound {
	if v == nil {
		return nil
	}
	return &bound{kind: boundKey, val: v}
}

func orBound(b, fallback *bound) *bound {
	if b != nil {
		return b
	}
	return fallback
}

// EncodeRange translates r into a physical range confined to the namespace:
// nothing below the namespace prefix, nothing at or above its upper bound.
// Keys are serialized with keyEnc before prefixing.
func (ns *Namespace) EncodeRange(r RangeOptions, keyEnc Encoding) (RawRange, error) {
	var gt, gte, lt, lte *bound
	switch {
	case r.hasOperators():
		gt, gte = keyBound(r.Gt), keyBound(r.Gte)
		lt, lte = keyBound(r.Lt), keyBound(r.Lte)
	case r.Min != nil || r.Max != nil:
		gte, lte = keyBound(r.Min), keyBound(r.Max)
	case r.Start != nil || r.End != nil:
		if r.Reverse {
			gte = orBound(keyBound(r.End), lowerSentinel)
			lte = orBound(keyBound(r.Start), upperSentinel)
		} else {
			gte = orBound(keyBound(r.Start), lowerSentinel)
			lte = orBound(keyBound(r.End), upperSentinel)
		}
	}

	out := RawRange{Reverse: r.Reverse, Limit: r.Limit}
	if out.Limit < 0 {
		out.Limit = 0
	}

	var err error
	switch {
	case gt != nil:
		out.Lower, out.LowerInc, err = ns.physBound(gt, false, true, keyEnc)
	case gte != nil:
		out.Lower, out.LowerInc, err = ns.physBound(gte, true, true, keyEnc)
	default:
		out.Lower, out.LowerInc, err = ns.physBound(lowerSentinel, false, true, keyEnc)
	}
	if err != nil {
		return RawRange{}, err
	}

	switch {
	case lt != nil:
		out.Upper, out.UpperInc, err = ns.physBound(lt, false, false, keyEnc)
	case lte != nil:
		out.Upper, out.UpperInc, err = ns.physBound(lte, true, false, keyEnc)
	default:
		out.Upper, out.UpperInc, err = ns.physBound(upperSentinel, false, false, keyEnc)
	}
	if err != nil {
		return RawRange{}, err
	}
	return out, nil
}

// physBound returns the physical form of b. A key bound that would land in
// the child segment area becomes the upper sentinel; as a lower bound it is
// made exclusive so the range comes out empty instead of reaching children.
func (ns *Namespace) physBound(b *bound, inclusive, lower bool, keyEnc Encoding) ([]byte, bool, error) {
	switch b.kind {
	case boundLower:
		return cloneBytes(ns.phys), inclusive, nil
	case boundUpper:
		return cloneBytes(ns.upper), inclusive, nil
	}
	raw, err := keyEnc.Encode(b.val)
	if err != nil {
		return nil, false, keyErrf(nil, err, "cannot encode range bound %v", b.val)
	}
	phys, clamped := ns.encodeBound(raw)
	if clamped {
		return cloneBytes(phys), inclusive && !lower, nil
	}
	return phys, inclusive, nil
}
