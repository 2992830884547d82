package treekey

import (
	"github.com/linkspace/linkspace/path"
	"github.com/linkspace/linkspace/predicate"
)

// ScanRange is a [Low, High] byte-range over TreeIndex composite keys,
// compiled from a predicate set's group/domain and path-prefix constraints.
// A query executor walks a bbolt cursor seeked to Low and stops once it
// passes High, applying the remaining (non-range-compilable) predicates
// per key.
type ScanRange struct {
	Low, High []byte
}

// Compile derives a [Low, High] composite-key range that brackets every key
// which could satisfy p's group/domain/path-prefix predicates. Predicate
// fields outside that set (create, pubkey, counters, ...) are not
// range-compilable here and must be re-tested by the caller per candidate.
func Compile(p *predicate.PktPredicates, group [32]byte, domain [16]byte) ScanRange {
	prefix := GroupDomainPrefix(group, domain)

	low := append([]byte{}, prefix...)
	high := append([]byte{}, prefix...)

	if deepest := deepestPrefixPath(p); deepest != nil {
		// The rooted-path header (depth byte first) precedes the path bytes,
		// so the range narrows only on depth >= the prefix's depth; the
		// caller re-tests the prefix chain itself per candidate.
		low = append(low, byte(deepest.Len()))
		high = append(high, 0xFF)
	} else {
		high = append(high, 0xFF) // unconstrained path: widest possible tail
	}

	return ScanRange{Low: low, High: high}
}

func deepestPrefixPath(p *predicate.PktPredicates) *path.Path {
	chain := p.PrefixChain()
	if len(chain) == 0 {
		return nil
	}
	best := chain[0]
	for _, pp := range chain[1:] {
		if pp.Len() > best.Len() {
			best = pp
		}
	}
	return best
}
