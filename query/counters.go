package query

import "github.com/linkspace/linkspace/predicate"

// Counters tracks the four scan-position counters (§4.3/§4.6): i (overall),
// i_db (in-database scan phase), i_branch (position within the current
// TreeIndex branch). i_new belongs to the matcher's live-packet phase and is
// not touched by a plain query scan (see matcher.Watch).
type Counters struct {
	I       uint32
	IDb     uint32
	IBranch uint32
}

// admits reports whether the current counter values satisfy preds' counter
// predicates, then increments them regardless of match (§4.6: "evaluate
// set.test(counter) before yielding each match, incrementing counters on
// match" — position advances for every candidate that reaches the counter
// gate, not just accepted ones, since each table/order has already filtered
// to content-matching candidates by this point).
func (c *Counters) admits(preds *predicate.PktPredicates) bool {
	ok := preds.MatchesCounters(uint64(c.I), 0, uint64(c.IDb), uint64(c.IBranch))
	c.I++
	c.IDb++
	c.IBranch++
	return ok
}

// resetBranch zeroes i_branch on branch exhaustion (§4.6 Tree mode).
func (c *Counters) resetBranch() { c.IBranch = 0 }
