package predicate

import (
	"math/big"

	"github.com/linkspace/linkspace/lserr"
	"github.com/linkspace/linkspace/path"
)

// PktPredicates is a compiled, intersected predicate set over the
// addressable packet/context fields (§4.3). Fixed-width fields are backed by
// a TestSet; path/comp0..7 are backed by a ByteRange. Constructing an empty
// intersection at any point returns a KindConstraint error; the field's set
// keeps the narrowed (now empty) bounds, it is not rolled back.
type PktPredicates struct {
	fixed map[Field]*TestSet
	bytes map[Field]*ByteRange

	// prefixChain holds the composed path-prefix predicates: a sequence of
	// RootedPath prefixes each component must extend, per the "path
	// predicates compose specially" rule — a prefix predicate at depth n
	// only constrains components 0..n-1, leaving deeper components free.
	prefixChain []*path.Path
}

// New returns an unconstrained predicate set.
func New() *PktPredicates {
	return &PktPredicates{
		fixed: make(map[Field]*TestSet),
		bytes: make(map[Field]*ByteRange),
	}
}

func (p *PktPredicates) testSet(f Field) *TestSet {
	ts, ok := p.fixed[f]
	if !ok {
		ts = NewTestSet(f.Bits())
		p.fixed[f] = ts
	}
	return ts
}

func (p *PktPredicates) byteRange(f Field) *ByteRange {
	br, ok := p.bytes[f]
	if !ok {
		br = NewByteRange()
		p.bytes[f] = br
	}
	return br
}

// Eq adds an equality predicate on a fixed-width field.
func (p *PktPredicates) Eq(f Field, v uint64) error {
	if f.FieldKind() != KindFixed {
		return lserr.New(lserr.KindConstraint, "predicate.Eq", ErrFieldKindMismatch)
	}
	return p.testSet(f).Eq(new(big.Int).SetUint64(v))
}

// Lt adds a less-than predicate on a fixed-width field.
func (p *PktPredicates) Lt(f Field, v uint64) error {
	if f.FieldKind() != KindFixed {
		return lserr.New(lserr.KindConstraint, "predicate.Lt", ErrFieldKindMismatch)
	}
	return p.testSet(f).Lt(new(big.Int).SetUint64(v))
}

// Gt adds a greater-than predicate on a fixed-width field.
func (p *PktPredicates) Gt(f Field, v uint64) error {
	if f.FieldKind() != KindFixed {
		return lserr.New(lserr.KindConstraint, "predicate.Gt", ErrFieldKindMismatch)
	}
	return p.testSet(f).Gt(new(big.Int).SetUint64(v))
}

// Ge adds a greater-or-equal predicate on a fixed-width field.
func (p *PktPredicates) Ge(f Field, v uint64) error {
	if f.FieldKind() != KindFixed {
		return lserr.New(lserr.KindConstraint, "predicate.Ge", ErrFieldKindMismatch)
	}
	return p.testSet(f).Ge(new(big.Int).SetUint64(v))
}

// Le adds a less-or-equal predicate on a fixed-width field.
func (p *PktPredicates) Le(f Field, v uint64) error {
	if f.FieldKind() != KindFixed {
		return lserr.New(lserr.KindConstraint, "predicate.Le", ErrFieldKindMismatch)
	}
	return p.testSet(f).Le(new(big.Int).SetUint64(v))
}

// Mask1 adds a "these bits must be set" predicate.
func (p *PktPredicates) Mask1(f Field, m *big.Int) error {
	if f.FieldKind() != KindFixed {
		return lserr.New(lserr.KindConstraint, "predicate.Mask1", ErrFieldKindMismatch)
	}
	return p.testSet(f).Mask1(m)
}

// Mask0 adds a "these bits must be clear" predicate.
func (p *PktPredicates) Mask0(f Field, m *big.Int) error {
	if f.FieldKind() != KindFixed {
		return lserr.New(lserr.KindConstraint, "predicate.Mask0", ErrFieldKindMismatch)
	}
	return p.testSet(f).Mask0(m)
}

// EqBytes adds an equality predicate on a variable-length field.
func (p *PktPredicates) EqBytes(f Field, v []byte) error {
	if f.FieldKind() != KindBytes {
		return lserr.New(lserr.KindConstraint, "predicate.EqBytes", ErrFieldKindMismatch)
	}
	return p.byteRange(f).Eq(v)
}

// LtBytes adds a less-than predicate on a variable-length field.
func (p *PktPredicates) LtBytes(f Field, v []byte) error {
	if f.FieldKind() != KindBytes {
		return lserr.New(lserr.KindConstraint, "predicate.LtBytes", ErrFieldKindMismatch)
	}
	return p.byteRange(f).Lt(v)
}

// GtBytes adds a greater-than predicate on a variable-length field.
func (p *PktPredicates) GtBytes(f Field, v []byte) error {
	if f.FieldKind() != KindBytes {
		return lserr.New(lserr.KindConstraint, "predicate.GtBytes", ErrFieldKindMismatch)
	}
	return p.byteRange(f).Gt(v)
}

// PrefixOf adds a path-prefix predicate: the packet's path must extend pfx.
// Per §4.3, prefix predicates compose as a chain — adding a second, deeper
// prefix that itself extends every existing entry narrows the match further;
// adding one that conflicts with an existing entry (neither is a prefix of
// the other) returns ErrPrefixConflict and leaves the chain unchanged.
func (p *PktPredicates) PrefixOf(pfx *path.Path) error {
	for _, existing := range p.prefixChain {
		if !existing.IsPrefixOf(pfx) && !pfx.IsPrefixOf(existing) {
			return lserr.New(lserr.KindConstraint, "predicate.PrefixOf", ErrPrefixConflict)
		}
	}
	p.prefixChain = append(p.prefixChain, pfx)
	return nil
}

// TestSet returns the field's compiled TestSet for read-only inspection by
// the treekey/query compiler, or nil if no predicate has been added on f.
func (p *PktPredicates) TestSet(f Field) *TestSet { return p.fixed[f] }

// ByteRange returns the field's compiled ByteRange, or nil if unconstrained.
func (p *PktPredicates) ByteRange(f Field) *ByteRange { return p.bytes[f] }

// PrefixChain returns the composed path-prefix predicates, deepest last.
func (p *PktPredicates) PrefixChain() []*path.Path { return p.prefixChain }

// deepestPrefix returns the longest (most specific) path-prefix constraint,
// or nil if none was set.
func (p *PktPredicates) deepestPrefix() *path.Path {
	var best *path.Path
	for _, pp := range p.prefixChain {
		if best == nil || pp.Len() > best.Len() {
			best = pp
		}
	}
	return best
}

// MatchesCounters reports whether the four scope counters (i, i_new, i_db,
// i_branch) on a candidate satisfy this predicate set's counter gates. Used
// by the query/matcher runtime to decide yield eligibility without
// re-evaluating the full field set.
func (p *PktPredicates) MatchesCounters(i, iNew, iDb, iBranch uint64) bool {
	vals := map[Field]uint64{FieldI: i, FieldINew: iNew, FieldIDb: iDb, FieldIBranch: iBranch}
	for _, f := range counterFields {
		ts, ok := p.fixed[f]
		if !ok {
			continue
		}
		if !ts.TestUint64(vals[f]) {
			return false
		}
	}
	return true
}
