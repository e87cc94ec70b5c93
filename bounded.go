package subspace

// BoundedCursor is an engine iterator that already honors the half-open
// bounds from RawRange.Bounds, like those of goleveldb and pebble.
type BoundedCursor interface {
	First() bool
	Last() bool
	Next() bool
	Prev() bool
	Key() []byte
	Value() []byte
}

// IterateBounded adapts c to Iterator, walking it in the direction and up
// to the limit of r. errf and closef report the engine iterator's error and
// release it; closef is called once.
func IterateBounded(c BoundedCursor, r RawRange, errf func() error, closef func() error) Iterator {
	it := &boundedIterator{
		c:         c,
		reverse:   r.Reverse,
		remaining: -1,
		errf:      errf,
		closef:    closef,
	}
	if r.Limit > 0 {
		it.remaining = r.Limit
	}
	return it
}

type boundedIterator struct {
	c         BoundedCursor
	reverse   bool
	remaining int
	errf      func() error
	closef    func() error

	init  bool
	valid bool
}

func (it *boundedIterator) Next() bool {
	if it.remaining == 0 {
		it.valid = false
		return false
	}
	switch {
	case !it.init:
		it.init = true
		if it.reverse {
			it.valid = it.c.Last()
		} else {
			it.valid = it.c.First()
		}
	case !it.valid:
		return false
	case it.reverse:
		it.valid = it.c.Prev()
	default:
		it.valid = it.c.Next()
	}
	if it.valid && it.remaining > 0 {
		it.remaining--
	}
	return it.valid
}

func (it *boundedIterator) Key() []byte {
	if !it.valid {
		return nil
	}
	return it.c.Key()
}

func (it *boundedIterator) Value() []byte {
	if !it.valid {
		return nil
	}
	return it.c.Value()
}

func (it *boundedIterator) Err() error {
	if it.errf == nil {
		return nil
	}
	return it.errf()
}

func (it *boundedIterator) Close() error {
	it.valid = false
	it.remaining = 0
	if it.closef == nil {
		return nil
	}
	closef := it.closef
	it.closef = nil
	return closef()
}

// EmptyIterator returns an iterator that yields nothing.
func EmptyIterator() Iterator {
	return &boundedIterator{c: emptyCursor{}, remaining: 0}
}

type emptyCursor struct{}

func (emptyCursor) First() bool   { return false }
func (emptyCursor) Last() bool    { return false }
func (emptyCursor) Next() bool    { return false }
func (emptyCursor) Prev() bool    { return false }
func (emptyCursor) Key() []byte   { return nil }
func (emptyCursor) Value() []byte { return nil }
