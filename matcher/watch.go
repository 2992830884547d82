package matcher

import (
	"github.com/google/uuid"

	"github.com/linkspace/linkspace/packet"
	"github.com/linkspace/linkspace/predicate"
	"github.com/linkspace/linkspace/query"
)

// Action is a callback's instruction to the matcher after a dispatched
// packet (§4.7 "Processing a new packet" step 6).
type Action int

const (
	Continue Action = iota
	Break
)

// StopReason explains why a watch was dropped from the table.
type StopReason int

const (
	StopFinish StopReason = iota
	StopBreak
	StopReplaced
	StopClosed
)

func (r StopReason) String() string {
	switch r {
	case StopFinish:
		return "finish"
	case StopBreak:
		return "break"
	case StopReplaced:
		return "replaced"
	case StopClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// RecvBounds is the inclusive recv_stamp window a watch is scoped to.
type RecvBounds struct {
	Low, High uint64
}

// Callback is invoked for each packet a watch accepts, both during the
// initial historical scan and during live dispatch.
type Callback func(recv uint64, np *packet.NetPacket) Action

// StoppedFunc, if set, is invoked exactly once when a watch is dropped.
type StoppedFunc func(reason StopReason)

// PostTxnHook runs once per commit pass, after dispatch and before the
// matcher releases its snapshot. Returning Break self-removes the hook.
type PostTxnHook func() Action

// Watch is a registered, possibly long-lived query (§4.7). Construct one
// directly and pass it to Matcher.Register; QueryID is generated if left
// as the zero uuid.
type Watch struct {
	QueryID    uuid.UUID
	Preds      *predicate.PktPredicates
	RecvBounds RecvBounds
	Mode       query.Mode
	// Retain selects whether the watch survives its initial historical scan
	// (the query's "watch" option); false behaves as a one-shot get.
	Retain bool
	Span   string

	Callback Callback
	Stopped  StoppedFunc

	// nthQuery/nthNew back the `i`/`i_new` counter predicates (§4.3): nthQuery
	// runs across both the initial scan and live dispatch, nthNew only
	// across live dispatch.
	nthQuery uint64
	nthNew   uint64
}

func testCounterOrTrue(preds *predicate.PktPredicates, f predicate.Field, v uint64) bool {
	ts := preds.TestSet(f)
	if ts == nil {
		return true
	}
	return ts.TestUint64(v)
}
