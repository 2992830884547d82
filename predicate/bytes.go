package predicate

import (
	"bytes"

	"github.com/linkspace/linkspace/lserr"
)

// ByteRange is the variable-length analogue of TestSet, used for fields
// whose width isn't fixed: path and comp0..comp7. Ordering is
// lexicographic over the raw bytes (length-prefixed for path, per §4.1's
// Compare), matching the "bounded byte ordering" half of §4.3's operator
// set. Mask operators are not defined for variable-length fields.
type ByteRange struct {
	low, high    []byte
	hasLow, hasHigh bool
}

// NewByteRange returns the unconstrained range.
func NewByteRange() *ByteRange { return &ByteRange{} }

func (b *ByteRange) Clone() *ByteRange {
	return &ByteRange{low: append([]byte(nil), b.low...), high: append([]byte(nil), b.high...), hasLow: b.hasLow, hasHigh: b.hasHigh}
}

func (b *ByteRange) Eq(v []byte) error {
	b.low, b.hasLow = v, true
	b.high, b.hasHigh = v, true
	return b.checkNonEmpty()
}

func (b *ByteRange) Lt(v []byte) error {
	if !b.hasHigh || bytes.Compare(v, b.high) <= 0 {
		b.high, b.hasHigh = decrementBytes(v), true
	}
	return b.checkNonEmpty()
}

func (b *ByteRange) Gt(v []byte) error {
	if !b.hasLow || bytes.Compare(v, b.low) >= 0 {
		b.low, b.hasLow = incrementBytes(v), true
	}
	return b.checkNonEmpty()
}

func (b *ByteRange) checkNonEmpty() error {
	if b.IsEmpty() {
		return lserr.Newf(lserr.KindConstraint, "predicate.ByteRange", "predicate empties the byte range")
	}
	return nil
}

func (b *ByteRange) IsEmpty() bool {
	if b.hasLow && b.hasHigh {
		return bytes.Compare(b.low, b.high) > 0
	}
	return false
}

func (b *ByteRange) Test(v []byte) bool {
	if b.hasLow && bytes.Compare(v, b.low) < 0 {
		return false
	}
	if b.hasHigh && bytes.Compare(v, b.high) > 0 {
		return false
	}
	return true
}

// decrementBytes/incrementBytes treat v as a big-endian unsigned integer of
// its own length for `<`/`>` purposes; an all-zero decrement or all-0xFF
// increment yields an out-of-range sentinel that always compares as empty.
func decrementBytes(v []byte) []byte {
	out := append([]byte(nil), v...)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i] > 0 {
			out[i]--
			return out
		}
		out[i] = 0xFF
	}
	// underflowed: no value below v exists; return a high < low sentinel by
	// shrinking length so it always compares less than any same/greater
	// length low bound of zero.
	return []byte{}
}

func incrementBytes(v []byte) []byte {
	out := append([]byte(nil), v...)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i] < 0xFF {
			out[i]++
			return out
		}
		out[i] = 0
	}
	// overflowed: append a byte so it compares greater than any same-length
	// max value.
	return append(out, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01)
}
