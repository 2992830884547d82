// Package query implements the query executor (§4.6): a lazy, mode-driven
// scan over one of the storage engine's three tables, filtering by a
// compiled predicate set and gating yield with the scope counters. The
// pull-based, one-entry-at-a-time shape follows the teacher storage
// engine's own iterator (formerly store/iterator.go, now superseded by
// store.ReadTxn's cursor-based Iterate methods, which this package calls
// into directly).
package query

import (
	"bytes"

	"github.com/linkspace/linkspace/lserr"
	"github.com/linkspace/linkspace/packet"
	"github.com/linkspace/linkspace/predicate"
	"github.com/linkspace/linkspace/store"
	"github.com/linkspace/linkspace/treekey"
)

// TableKind selects the backing index to scan.
type TableKind int

const (
	TableLog TableKind = iota
	TableHash
	TableTree
)

// OrderKind selects scan direction.
type OrderKind int

const (
	OrderAsc OrderKind = iota
	OrderDesc
)

// Mode is (table, order), per §4.6. Group/Domain are only consulted for
// TableTree, where every scan is necessarily scoped to one group/domain
// pair (that pairing is what makes a path addressable in the first place).
type Mode struct {
	Table  TableKind
	Order  OrderKind
	Group  [packet.GroupSize]byte
	Domain [packet.DomainSize]byte
}

// Yield is called once per packet that passes both the field predicates and
// the counter gates. Returning false stops the scan early.
type Yield func(recv uint64, np *packet.NetPacket) bool

// Run executes mode over snapshot r, applying preds' field predicates to
// every candidate and gating acceptance with counters (which the caller
// owns and may reuse across calls, e.g. to resume a paginated scan).
func Run(r *store.ReadTxn, mode Mode, preds *predicate.PktPredicates, counters *Counters, yield Yield) error {
	switch mode.Table {
	case TableLog:
		return runLog(r, mode.Order, preds, counters, yield)
	case TableHash:
		return runHash(r, mode.Order, preds, counters, yield)
	case TableTree:
		return runTree(r, mode.Order, mode.Group, mode.Domain, preds, counters, yield)
	default:
		return lserr.New(lserr.KindConstraint, "query.Run", ErrUnknownTable)
	}
}

func runLog(r *store.ReadTxn, order OrderKind, preds *predicate.PktPredicates, counters *Counters, yield Yield) error {
	forward := order == OrderAsc
	from := uint64(0)
	if ts := preds.TestSet(predicate.FieldRecv); ts != nil {
		if forward {
			from = ts.Low().Uint64()
		} else {
			from = ts.High().Uint64()
		}
	} else if !forward {
		from = r.LogHead()
	}

	return r.IterateLog(from, forward, func(recv uint64, wireBytes []byte) bool {
		np, _, perr := packet.Parse(wireBytes, true)
		if perr != nil {
			return true // skip unparseable entries, keep scanning
		}
		if !MatchPacket(preds, np, recv) {
			return true
		}
		if !counters.admits(preds) {
			return true
		}
		return yield(recv, np)
	})
}

func runHash(r *store.ReadTxn, order OrderKind, preds *predicate.PktPredicates, counters *Counters, yield Yield) error {
	var low, high []byte
	if ts := preds.TestSet(predicate.FieldHash); ts != nil {
		low = ts.Low().FillBytes(make([]byte, packet.HashSize))
		high = ts.High().FillBytes(make([]byte, packet.HashSize))
	}

	return r.IterateHash(low, high, order == OrderAsc, func(h packet.Hash, recv uint64) bool {
		wireBytes, found := r.GetByRecv(recv)
		if !found {
			return true
		}
		np, _, perr := packet.Parse(wireBytes, true)
		if perr != nil {
			return true
		}
		if !MatchPacket(preds, np, recv) {
			return true
		}
		if !counters.admits(preds) {
			return true
		}
		return yield(recv, np)
	})
}

func runTree(r *store.ReadTxn, order OrderKind, group [packet.GroupSize]byte, domain [packet.DomainSize]byte, preds *predicate.PktPredicates, counters *Counters, yield Yield) error {
	rng := treekey.Compile(preds, group, domain)

	var prevBranch []byte
	forward := order == OrderAsc
	return r.IterateTree(rng, forward, func(key []byte, recv uint64) bool {
		branch := key[:len(key)-8]
		if prevBranch != nil && !bytes.Equal(branch, prevBranch) {
			counters.resetBranch()
		}
		prevBranch = append([]byte(nil), branch...)

		wireBytes, found := r.GetByRecv(recv)
		if !found {
			return true
		}
		np, _, perr := packet.Parse(wireBytes, true)
		if perr != nil {
			return true
		}
		if !MatchPacket(preds, np, recv) {
			return true
		}
		if !counters.admits(preds) {
			return true
		}
		return yield(recv, np)
	})
}
