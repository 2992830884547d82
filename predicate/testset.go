// Package predicate implements linkspace's compiled predicate algebra:
// fixed-width field TestSets (Bound+Mask), variable-length byte-field
// bounds, path/prefix chains, and the four counter predicates that gate
// query and matcher yield decisions. The bound+mask intersection algebra
// follows spec.md §4.3 exactly; the feasibility check for "does some value
// satisfy both the range and the bit mask" is a bit-DP over big.Int, since
// fields range from 8 bits (type) to 512 bits (signature).
package predicate

import (
	"math/big"

	"github.com/linkspace/linkspace/lserr"
)

// TestSet is the per-field Bound{low,high} + Mask{ones,zeros} constraint set
// for a fixed-width field (every field except path, prefix, and comp0..7;
// path and comp0..7 use ByteRange instead, see bytes.go).
type TestSet struct {
	bits  int
	low   *big.Int
	high  *big.Int
	ones  *big.Int
	zeros *big.Int
}

// NewTestSet returns the unconstrained (full-range) TestSet for a field of
// the given bit width.
func NewTestSet(bits int) *TestSet {
	max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(bits)), big.NewInt(1))
	return &TestSet{
		bits:  bits,
		low:   big.NewInt(0),
		high:  max,
		ones:  big.NewInt(0),
		zeros: big.NewInt(0),
	}
}

// Clone returns an independent copy.
func (t *TestSet) Clone() *TestSet {
	return &TestSet{
		bits:  t.bits,
		low:   new(big.Int).Set(t.low),
		high:  new(big.Int).Set(t.high),
		ones:  new(big.Int).Set(t.ones),
		zeros: new(big.Int).Set(t.zeros),
	}
}

func (t *TestSet) maxVal() *big.Int {
	return new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(t.bits)), big.NewInt(1))
}

// Eq intersects the set with {v}.
func (t *TestSet) Eq(v *big.Int) error {
	if t.low.Cmp(v) < 0 {
		t.low.Set(v)
	}
	if t.high.Cmp(v) > 0 {
		t.high.Set(v)
	}
	return t.checkNonEmpty("=")
}

// Lt lowers high to v-1 (saturating to empty on underflow).
func (t *TestSet) Lt(v *big.Int) error {
	nv := new(big.Int).Sub(v, big.NewInt(1))
	if nv.Sign() < 0 {
		nv = big.NewInt(-1) // forces low > high below: empty set
	}
	if t.high.Cmp(nv) > 0 {
		t.high.Set(nv)
	}
	return t.checkNonEmpty("<")
}

// Gt raises low to v+1.
func (t *TestSet) Gt(v *big.Int) error {
	nv := new(big.Int).Add(v, big.NewInt(1))
	if t.low.Cmp(nv) < 0 {
		t.low.Set(nv)
	}
	return t.checkNonEmpty(">")
}

// Mask0 requires bits in m to be clear (zeros |= m).
func (t *TestSet) Mask0(m *big.Int) error {
	t.zeros.Or(t.zeros, m)
	return t.checkNonEmpty("0")
}

// Mask1 requires bits in m to be set (ones |= m).
func (t *TestSet) Mask1(m *big.Int) error {
	t.ones.Or(t.ones, m)
	return t.checkNonEmpty("1")
}

// Ge, Le, HeadMask (=*), TailMask (*=) are desugared into the five
// primitives per §4.3.
func (t *TestSet) Ge(v *big.Int) error { return t.rangeOp(v, true) }
func (t *TestSet) Le(v *big.Int) error { return t.rangeOp(v, false) }

func (t *TestSet) rangeOp(v *big.Int, ge bool) error {
	if ge {
		if t.low.Cmp(v) < 0 {
			t.low.Set(v)
		}
	} else {
		if t.high.Cmp(v) > 0 {
			t.high.Set(v)
		}
	}
	op := "<="
	if ge {
		op = ">="
	}
	return t.checkNonEmpty(op)
}

// HeadMask (`=*`): the top n bits of the field must equal the top n bits of
// v (a head-mask/prefix-of-bits test), desugared to a Mask1/Mask0 pair over
// the bits v actually sets/clears within the top n bits.
func (t *TestSet) HeadMask(v *big.Int, n int) error {
	if n > t.bits {
		n = t.bits
	}
	shift := uint(t.bits - n)
	mask := new(big.Int).Lsh(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(n)), big.NewInt(1)), shift)
	ones := new(big.Int).And(v, mask)
	zeros := new(big.Int).And(new(big.Int).Not(v), mask)
	zeros.And(zeros, t.maxVal())
	if err := t.Mask1(ones); err != nil {
		return err
	}
	return t.Mask0(zeros)
}

// TailMask (`*=`): the bottom n bits of the field must equal the bottom n
// bits of v.
func (t *TestSet) TailMask(v *big.Int, n int) error {
	if n > t.bits {
		n = t.bits
	}
	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(n)), big.NewInt(1))
	ones := new(big.Int).And(v, mask)
	zeros := new(big.Int).And(new(big.Int).Not(v), mask)
	zeros.And(zeros, t.maxVal())
	if err := t.Mask1(ones); err != nil {
		return err
	}
	return t.Mask0(zeros)
}

func (t *TestSet) checkNonEmpty(op string) error {
	if !t.nonEmpty() {
		return lserr.Newf(lserr.KindConstraint, "predicate.TestSet", "adding %q predicate empties the set", op)
	}
	return nil
}

// nonEmpty reports whether the set is non-empty per §4.3: low <= high,
// (ones & ~zeros) == ones, and some v in [low,high] satisfies the mask.
func (t *TestSet) nonEmpty() bool {
	if t.low.Cmp(t.high) > 0 {
		return false
	}
	notZeros := new(big.Int).Not(t.zeros)
	notZeros.And(notZeros, t.maxVal())
	onesOK := new(big.Int).And(t.ones, notZeros)
	if onesOK.Cmp(t.ones) != 0 {
		return false
	}
	return existsFeasible(t.low, t.high, t.ones, t.zeros, t.bits)
}

// IsEmpty reports whether this TestSet can never match.
func (t *TestSet) IsEmpty() bool { return !t.nonEmpty() }

// Low returns the set's inclusive lower range bound (ignoring mask bits),
// for callers that compile a byte-range scan bracket from the range half of
// the predicate (e.g. query's recv/hash table bounds).
func (t *TestSet) Low() *big.Int { return new(big.Int).Set(t.low) }

// High returns the set's inclusive upper range bound (ignoring mask bits).
func (t *TestSet) High() *big.Int { return new(big.Int).Set(t.high) }

// Test reports whether v satisfies the set: low <= v <= high, v&zeros==0,
// v&ones==ones.
func (t *TestSet) Test(v *big.Int) bool {
	if t.low.Cmp(v) > 0 || t.high.Cmp(v) < 0 {
		return false
	}
	if new(big.Int).And(v, t.zeros).Sign() != 0 {
		return false
	}
	onesMatch := new(big.Int).And(v, t.ones)
	return onesMatch.Cmp(t.ones) == 0
}

// TestUint64 is a convenience wrapper for counters and small integer fields.
func (t *TestSet) TestUint64(v uint64) bool {
	return t.Test(new(big.Int).SetUint64(v))
}

// Intersect merges other into t (commutative/associative per §8).
func (t *TestSet) Intersect(other *TestSet) error {
	if t.low.Cmp(other.low) < 0 {
		t.low.Set(other.low)
	}
	if t.high.Cmp(other.high) > 0 {
		t.high.Set(other.high)
	}
	t.ones.Or(t.ones, other.ones)
	t.zeros.Or(t.zeros, other.zeros)
	return t.checkNonEmpty("intersect")
}

// existsFeasible decides, via a small bit-DP (MSB to LSB, tracking
// tightness to the low and high bounds), whether any bits bits-wide value
// satisfies low <= v <= high, v&zeros==0, v&ones==ones.
func existsFeasible(low, high, ones, zeros *big.Int, bits int) bool {
	type state struct{ i int; tl, th bool }
	memo := make(map[state]bool)
	var rec func(s state) bool
	rec = func(s state) bool {
		if s.i == bits {
			return true
		}
		if v, ok := memo[s]; ok {
			return v
		}
		pos := bits - 1 - s.i
		bl := low.Bit(pos)
		bh := high.Bit(pos)
		isOne := ones.Bit(pos) == 1
		isZero := zeros.Bit(pos) == 1

		try := func(b uint) bool {
			if isOne && b != 1 {
				return false
			}
			if isZero && b != 0 {
				return false
			}
			ntl, nth := s.tl, s.th
			if s.tl {
				if b < bl {
					return false
				}
				if b > bl {
					ntl = false
				}
			}
			if s.th {
				if b > bh {
					return false
				}
				if b < bh {
					nth = false
				}
			}
			return rec(state{s.i + 1, ntl, nth})
		}
		res := try(0) || try(1)
		memo[s] = res
		return res
	}
	return rec(state{0, true, true})
}
