// Package matcher implements the reactive runtime (§4.7): a table of
// long-lived Watches, each fired against new packets in recv_stamp order as
// they commit, plus a one-shot historical scan on registration. The
// reentrancy-safe dispatch-then-drain-pending shape follows the teacher's
// own `flushNow`/`closing`-channel lifecycle in store/store.go, generalized
// from "wake a flusher" to "wake process_while on the next commit".
package matcher

import (
	"bytes"
	"sort"
	"time"

	"github.com/google/uuid"

	logging "github.com/ipfs/go-log/v2"

	"github.com/linkspace/linkspace/lserr"
	"github.com/linkspace/linkspace/packet"
	"github.com/linkspace/linkspace/predicate"
	"github.com/linkspace/linkspace/query"
	"github.com/linkspace/linkspace/store"
)

var log = logging.Logger("linkspace/matcher")

// Matcher is the single-threaded, cooperative reactive runtime bound to one
// Store (§5: "a Linkspace handle is not sent across threads"). It is not
// safe for concurrent use.
type Matcher struct {
	s *store.Store

	watches map[uuid.UUID]*Watch
	order   []uuid.UUID // query_id-sorted, mirrors the spec's "ordered table"

	lastProcessed uint64
	dispatching   bool
	pending       []func()

	hooks   map[uuid.UUID]PostTxnHook
	hookIDs []uuid.UUID
}

// New returns a Matcher with an empty watch table, positioned at s's
// current log head (so Process only dispatches packets committed from here
// on; call Register, which performs its own historical scan, to pick up
// anything already in the log).
func New(s *store.Store) *Matcher {
	var head uint64
	_ = s.View(func(r *store.ReadTxn) error { head = r.LogHead(); return nil })
	return &Matcher{
		s:             s,
		watches:       make(map[uuid.UUID]*Watch),
		lastProcessed: head,
		hooks:         make(map[uuid.UUID]PostTxnHook),
	}
}

// Register installs w (§4.7 "Registration"): if w.QueryID collides with an
// existing watch, the old entry is stopped with StopReplaced before the new
// one is scanned in. w.RecvBounds.High is checked against wall-clock time,
// not the log head (the recv_stamp namespace is itself wall-clock derived,
// see store.WriteMany) — a bound already at or before now is discarded
// without ever running the historical scan. Otherwise the watch's query
// runs once against the current snapshot; each historical match increments
// its `i` counter, and that counter is folded into `i_new`'s remaining
// budget so a single check during live dispatch reflects both (if the fold
// leaves no budget at all, the watch is stopped with StopFinish instead of
// being kept; Register still returns nil). If w.Retain is true the watch is
// then kept in the live table, receiving only packets committed after the
// snapshot its historical scan read; otherwise this behaves as a one-shot get.
func (m *Matcher) Register(w *Watch) error {
	if w.QueryID == uuid.Nil {
		w.QueryID = uuid.New()
	}
	if err := validateCounterBudget(w.Preds); err != nil {
		return err
	}

	apply := func() { m.registerNow(w) }
	if m.dispatching {
		m.pending = append(m.pending, apply)
		return nil
	}
	apply()
	return nil
}

func (m *Matcher) registerNow(w *Watch) {
	if old, ok := m.watches[w.QueryID]; ok {
		m.terminate(old, StopReplaced)
	}

	if w.RecvBounds.High <= uint64(time.Now().UnixMicro()) {
		m.stoppedCallback(w, StopFinish)
		return
	}

	counters := &query.Counters{}
	var broke bool
	var scannedHead uint64
	_ = m.s.View(func(r *store.ReadTxn) error {
		scannedHead = r.LogHead()
		return query.Run(r, w.Mode, w.Preds, counters, func(recv uint64, np *packet.NetPacket) bool {
			if w.Callback(recv, np) == Break {
				broke = true
				return false
			}
			return true
		})
	})
	w.nthQuery = uint64(counters.I)

	if broke {
		m.stoppedCallback(w, StopBreak)
		return
	}
	if !w.Retain {
		return
	}

	if err := tightenLiveBudget(w.Preds, w.nthQuery); err != nil {
		m.stoppedCallback(w, StopFinish)
		return
	}

	// Packets up to scannedHead were already offered by the historical scan;
	// live dispatch starts strictly after it.
	if w.RecvBounds.Low <= scannedHead {
		w.RecvBounds.Low = scannedHead + 1
	}

	m.watches[w.QueryID] = w
	m.insertSorted(w.QueryID)
}

// tightenLiveBudget folds the remaining `i` budget, after nthQuery historical
// matches, into `i_new`'s upper bound: a watch that already exhausted its
// total match budget during the historical scan is refused outright (it
// would otherwise sit in the live table forever, never dispatching and
// never getting cleaned up, since dispatchPacket only self-terminates on
// i_new's bound). An unconstrained `i` leaves i_new untouched.
func tightenLiveBudget(preds *predicate.PktPredicates, nthQuery uint64) error {
	iTS := preds.TestSet(predicate.FieldI)
	if iTS == nil {
		return nil
	}
	high := iTS.High().Uint64()
	if nthQuery > high {
		return lserr.New(lserr.KindConstraint, "matcher.Register", ErrCounterExhausted)
	}
	return preds.Lt(predicate.FieldINew, high-nthQuery+1)
}

func (m *Matcher) insertSorted(id uuid.UUID) {
	i := sort.Search(len(m.order), func(i int) bool {
		return lessUUID(id, m.order[i]) || id == m.order[i]
	})
	m.order = append(m.order, uuid.Nil)
	copy(m.order[i+1:], m.order[i:])
	m.order[i] = id
}

func lessUUID(a, b uuid.UUID) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// Close cancels a watch (§5 "Cancellation"). qid must already be registered:
// a query_id with no exact match returns ErrNoSuchWatch regardless of rng,
// and closes nothing. When rng is true, every other live watch whose QueryID
// has qid as a byte-prefix is closed alongside it — since QueryID here is a
// fixed-width uuid rather than the original's variable-length id, a prefix
// match and an exact match coincide, so rng has no effect beyond the
// unconditional exact-match close in this implementation.
func (m *Matcher) Close(qid uuid.UUID, rng bool) error {
	if _, ok := m.watches[qid]; !ok {
		return lserr.New(lserr.KindRuntime, "matcher.Close", ErrNoSuchWatch)
	}
	apply := func() { m.closeNow(qid, rng) }
	if m.dispatching {
		m.pending = append(m.pending, apply)
		return nil
	}
	apply()
	return nil
}

func (m *Matcher) closeNow(qid uuid.UUID, rng bool) {
	w, ok := m.watches[qid]
	if !ok {
		return
	}
	m.terminate(w, StopClosed)
	if !rng {
		return
	}
	prefix := qid[:]
	for _, id := range append([]uuid.UUID(nil), m.order...) {
		if other, ok := m.watches[id]; ok && bytes.HasPrefix(id[:], prefix) {
			m.terminate(other, StopClosed)
		}
	}
}

func (m *Matcher) terminate(w *Watch, reason StopReason) {
	delete(m.watches, w.QueryID)
	for i, id := range m.order {
		if id == w.QueryID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.stoppedCallback(w, reason)
}

func (m *Matcher) stoppedCallback(w *Watch, reason StopReason) {
	if w.Stopped != nil {
		w.Stopped(reason)
	}
}

// AddPostTxn registers hook to run once per commit pass (§4.7 "Post-txn
// hooks"), returning an id usable to remove it early. Returning Break from
// the hook self-removes it.
func (m *Matcher) AddPostTxn(hook PostTxnHook) uuid.UUID {
	id := uuid.New()
	m.hooks[id] = hook
	m.hookIDs = append(m.hookIDs, id)
	return id
}

// RemovePostTxn removes a previously registered hook.
func (m *Matcher) RemovePostTxn(id uuid.UUID) {
	delete(m.hooks, id)
	for i, hid := range m.hookIDs {
		if hid == id {
			m.hookIDs = append(m.hookIDs[:i], m.hookIDs[i+1:]...)
			break
		}
	}
}

// Process advances the matcher's snapshot to the store's current log head,
// dispatching every packet strictly after the previously processed
// recv_stamp to every live watch in query_id order, then runs post-txn
// hooks, GCs expired watches, and drains any register/close calls a
// callback made during dispatch. It returns the set of query_ids that
// fired at least once during this pass.
func (m *Matcher) Process() (map[uuid.UUID]bool, error) {
	fired := make(map[uuid.UUID]bool)

	var head uint64
	if err := m.s.View(func(r *store.ReadTxn) error { head = r.LogHead(); return nil }); err != nil {
		return nil, lserr.New(lserr.KindStorage, "matcher.Process", err)
	}

	if head > m.lastProcessed {
		from := m.lastProcessed + 1
		m.dispatching = true
		err := m.s.View(func(r *store.ReadTxn) error {
			return r.IterateLog(from, true, func(recv uint64, wireBytes []byte) bool {
				if recv > head {
					return false
				}
				np, _, perr := packet.Parse(wireBytes, true)
				if perr != nil {
					return true
				}
				m.dispatchPacket(recv, np, fired)
				return true
			})
		})
		m.dispatching = false
		if err != nil {
			return fired, lserr.New(lserr.KindStorage, "matcher.Process", err)
		}
		m.lastProcessed = head
	}

	m.runPostTxnHooks()
	m.gc(m.lastProcessed)
	m.drainPending()
	return fired, nil
}

func (m *Matcher) dispatchPacket(recv uint64, np *packet.NetPacket, fired map[uuid.UUID]bool) {
	ids := append([]uuid.UUID(nil), m.order...)
	for _, id := range ids {
		w, ok := m.watches[id]
		if !ok {
			continue // removed earlier in this same pass
		}

		if w.RecvBounds.High < recv {
			m.terminate(w, StopBreak)
			continue
		}
		if w.RecvBounds.Low > recv {
			continue
		}
		if !query.MatchPacket(w.Preds, np, recv) {
			continue
		}

		accepted := testCounterOrTrue(w.Preds, predicate.FieldINew, w.nthNew) &&
			testCounterOrTrue(w.Preds, predicate.FieldI, w.nthQuery)
		w.nthNew++
		w.nthQuery++

		if accepted {
			fired[id] = true
			if w.Callback(recv, np) == Break {
				m.terminate(w, StopBreak)
				continue
			}
		}

		if ts := w.Preds.TestSet(predicate.FieldINew); ts != nil && ts.High().Uint64() < w.nthNew {
			m.terminate(w, StopFinish)
		}
	}
}

func (m *Matcher) runPostTxnHooks() {
	ids := append([]uuid.UUID(nil), m.hookIDs...)
	for _, id := range ids {
		hook, ok := m.hooks[id]
		if !ok {
			continue
		}
		if hook() == Break {
			m.RemovePostTxn(id)
		}
	}
}

// gc drops every live watch whose recv_bounds.high is at or before
// upToRecv (§4.7 "GC").
func (m *Matcher) gc(upToRecv uint64) {
	for _, id := range append([]uuid.UUID(nil), m.order...) {
		w := m.watches[id]
		if w != nil && w.RecvBounds.High <= upToRecv {
			m.terminate(w, StopFinish)
		}
	}
}

func (m *Matcher) drainPending() {
	for len(m.pending) > 0 {
		batch := m.pending
		m.pending = nil
		for _, fn := range batch {
			fn()
		}
	}
}

// ProcessWhile loops Process until one of: deadline passes, qid fires at
// least once, the watch table becomes empty, or qid is no longer present
// (it finished, was broken, replaced, or closed) — §4.7. A zero deadline
// means no wall-clock limit.
func (m *Matcher) ProcessWhile(qid uuid.UUID, deadline time.Time) error {
	for {
		// Captured before Process so a commit landing between here and the
		// select below is never missed: either Process already observes it
		// (new head), or it closes this exact channel.
		notice := m.s.CommitNotice()

		fired, err := m.Process()
		if err != nil {
			return err
		}
		if fired[qid] {
			return nil
		}
		if _, ok := m.watches[qid]; !ok {
			return nil
		}
		if len(m.watches) == 0 {
			return nil
		}

		var timeout <-chan time.Time
		if !deadline.IsZero() {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return nil
			}
			timeout = time.After(remaining)
		}

		select {
		case <-notice:
		case <-timeout:
			return nil
		}
	}
}

func validateCounterBudget(preds *predicate.PktPredicates) error {
	if ts := preds.TestSet(predicate.FieldI); ts != nil && ts.IsEmpty() {
		return lserr.New(lserr.KindConstraint, "matcher.Register", ErrCounterExhausted)
	}
	if ts := preds.TestSet(predicate.FieldINew); ts != nil && ts.IsEmpty() {
		return lserr.New(lserr.KindConstraint, "matcher.Register", ErrCounterExhausted)
	}
	return nil
}
