package predicate

import (
	"math/big"
	"testing"

	"github.com/linkspace/linkspace/lserr"
	"github.com/linkspace/linkspace/path"
	"github.com/stretchr/testify/require"
)

func TestTestSetIntersectionScenario(t *testing.T) {
	// Build two predicate sets S1 = {create:<:100}, S2 = {create:>:50};
	// intersect -> accepts 51..=99; parse predicate create:=:42 against
	// S1 intersect S2 fails with KindConstraint.
	s1 := New()
	require.NoError(t, s1.Lt(FieldCreate, 100))
	s2 := New()
	require.NoError(t, s2.Gt(FieldCreate, 50))

	merged := s1.TestSet(FieldCreate).Clone()
	require.NoError(t, merged.Intersect(s2.TestSet(FieldCreate)))

	require.True(t, merged.TestUint64(51))
	require.True(t, merged.TestUint64(99))
	require.False(t, merged.TestUint64(50))
	require.False(t, merged.TestUint64(100))

	err := merged.Eq(big.NewInt(42))
	require.Error(t, err)
	require.True(t, lserr.Is(err, lserr.KindConstraint))
}

func TestTestSetMaskAndRange(t *testing.T) {
	ts := NewTestSet(8)
	require.NoError(t, ts.Ge(big.NewInt(16)))
	require.NoError(t, ts.Le(big.NewInt(64)))
	require.NoError(t, ts.Mask0(big.NewInt(0x01))) // low bit clear

	require.True(t, ts.TestUint64(16))
	require.True(t, ts.TestUint64(64))
	require.False(t, ts.TestUint64(17)) // violates mask0
	require.False(t, ts.TestUint64(8))  // below range
	require.False(t, ts.TestUint64(65)) // above range
}

func TestTestSetMaskMakesRangeInfeasible(t *testing.T) {
	ts := NewTestSet(8)
	require.NoError(t, ts.Eq(big.NewInt(5))) // forces value == 5 (0b101)
	err := ts.Mask0(big.NewInt(0x01))        // require bit0 clear, but 5 has bit0 set
	require.Error(t, err)
	require.True(t, lserr.Is(err, lserr.KindConstraint))
	require.True(t, ts.IsEmpty())
}

func TestTestSetHeadTailMask(t *testing.T) {
	ts := NewTestSet(8)
	require.NoError(t, ts.HeadMask(big.NewInt(0xF0), 4)) // top nibble must equal 0xF
	require.True(t, ts.TestUint64(0xF3))
	require.False(t, ts.TestUint64(0x03))

	ts2 := NewTestSet(8)
	require.NoError(t, ts2.TailMask(big.NewInt(0x0A), 4)) // bottom nibble must equal 0xA
	require.True(t, ts2.TestUint64(0x3A))
	require.False(t, ts2.TestUint64(0x3B))
}

func TestByteRangeBounds(t *testing.T) {
	br := NewByteRange()
	require.NoError(t, br.Gt([]byte("bbb")))
	require.NoError(t, br.Lt([]byte("ddd")))

	require.True(t, br.Test([]byte("ccc")))
	require.False(t, br.Test([]byte("aaa")))
	require.False(t, br.Test([]byte("bbb")))
	require.False(t, br.Test([]byte("ddd")))
}

func TestByteRangeEqAndEmpty(t *testing.T) {
	br := NewByteRange()
	require.NoError(t, br.Eq([]byte("exact")))
	require.True(t, br.Test([]byte("exact")))
	require.False(t, br.Test([]byte("other")))

	br2 := NewByteRange()
	require.NoError(t, br2.Lt([]byte("m")))
	err := br2.Gt([]byte("z"))
	require.Error(t, err)
	require.True(t, lserr.Is(err, lserr.KindConstraint))
}

func TestPktPredicatesFieldKindMismatch(t *testing.T) {
	p := New()
	err := p.Eq(FieldPath, 5)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrFieldKindMismatch)

	err = p.EqBytes(FieldCreate, []byte("x"))
	require.Error(t, err)
	require.ErrorIs(t, err, ErrFieldKindMismatch)
}

func TestPktPredicatesCounterGate(t *testing.T) {
	p := New()
	require.NoError(t, p.Ge(FieldI, 10))
	require.NoError(t, p.Lt(FieldINew, 5))

	require.True(t, p.MatchesCounters(10, 4, 0, 0))
	require.False(t, p.MatchesCounters(9, 4, 0, 0))
	require.False(t, p.MatchesCounters(10, 5, 0, 0))
}

func TestPktPredicatesPrefixChain(t *testing.T) {
	p := New()

	base := path.New()
	require.NoError(t, base.Push([]byte("org")))

	deeper := path.New()
	require.NoError(t, deeper.Push([]byte("org")))
	require.NoError(t, deeper.Push([]byte("team")))

	require.NoError(t, p.PrefixOf(base))
	require.NoError(t, p.PrefixOf(deeper))
	require.Len(t, p.PrefixChain(), 2)

	conflicting := path.New()
	require.NoError(t, conflicting.Push([]byte("other")))
	err := p.PrefixOf(conflicting)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrPrefixConflict)
}

func TestFieldTableNames(t *testing.T) {
	names := FieldNames()
	require.Contains(t, names, "create")
	require.Contains(t, names, "i_branch")
	require.True(t, FieldIBranch.IsCounter())
	require.False(t, FieldCreate.IsCounter())
}
