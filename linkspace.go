// Package linkspace is the public entry point (component H): it wires the
// storage engine (store), the query executor (query), and the reactive
// runtime (matcher) behind one handle, the way the teacher's own root
// package wires its index/primary/freelist trio behind a Store plus a
// urfave/cli frontend. Every public method here takes the handle
// explicitly rather than reaching for hidden global state (§9 "Global
// state").
package linkspace

import (
	"time"

	"github.com/google/uuid"

	"github.com/linkspace/linkspace/matcher"
	"github.com/linkspace/linkspace/packet"
	"github.com/linkspace/linkspace/predicate"
	"github.com/linkspace/linkspace/query"
	"github.com/linkspace/linkspace/store"
)

// Linkspace is a single-process handle onto one database directory: a
// Store plus the Matcher bound to it. Per §5, the matcher/query-
// registration surface is single-threaded and cooperative — a *Linkspace
// must not be shared across goroutines without external synchronization —
// while the Store beneath it remains safe for concurrent readers plus one
// concurrent writer.
type Linkspace struct {
	store   *store.Store
	matcher *matcher.Matcher
	cfg     config
}

// Open opens (or initializes) the database directory at dir and returns a
// ready-to-use handle with its matcher positioned at the store's current
// log head.
func Open(dir string, opts ...Option) (*Linkspace, error) {
	c := defaultConfig()
	c.apply(opts)

	s, err := store.Open(dir, c.storeOpts...)
	if err != nil {
		return nil, err
	}
	return &Linkspace{store: s, matcher: matcher.New(s), cfg: c}, nil
}

// Close releases the underlying store. Outstanding watches are not
// notified; callers that want an orderly shutdown should Close every watch
// first.
func (ls *Linkspace) Close() error {
	return ls.store.Close()
}

// Store exposes the underlying storage engine handle for callers that need
// direct index access (e.g. a bulk-import tool); most callers should use
// Save/SaveMany/Query/Watch instead.
func (ls *Linkspace) Store() *store.Store { return ls.store }

// PublicGroup returns the deployment's designated broadcastable group
// (§6.2), configured via the PublicGroup Option or defaulting to
// packet.DefaultPublicGroup.
func (ls *Linkspace) PublicGroup() [packet.GroupSize]byte { return ls.cfg.publicGroup }

// Wrap attaches a zero-value NetHeader to pkt, producing the NetPacket form
// Save/SaveMany and the query/matcher layers operate on. Use packet.Wrap
// directly to set NetHeader fields (hop, stamp, ubits) for a transiting
// packet.
func Wrap(pkt packet.Packet) *packet.NetPacket {
	return packet.Wrap(pkt, packet.NetHeader{})
}

// Save stores one packet, returning its assigned recv_stamp and whether it
// was new content (§4.5 write transaction contract, scenario 3 of §8).
func (ls *Linkspace) Save(np *packet.NetPacket) (recv uint64, isNew bool, err error) {
	return ls.store.Put(np)
}

// SaveMany stores a batch of packets in one ACID transaction, calling
// onEach per candidate exactly as store.WriteMany documents.
func (ls *Linkspace) SaveMany(pkts []*packet.NetPacket, onEach store.OnEach) error {
	return ls.store.WriteMany(pkts, onEach)
}

// Get looks up a packet by its canonical hash in the current snapshot.
func (ls *Linkspace) Get(h packet.Hash) (recv uint64, np *packet.NetPacket, found bool, err error) {
	verr := ls.store.View(func(r *store.ReadTxn) error {
		rc, wireBytes, ok := r.GetByHash(h)
		if !ok {
			return nil
		}
		parsed, _, perr := packet.Parse(wireBytes, true)
		if perr != nil {
			return perr
		}
		recv, np, found = rc, parsed, true
		return nil
	})
	if verr != nil {
		return 0, nil, false, verr
	}
	return recv, np, found, nil
}

// Query runs a one-shot scan over the current snapshot (§4.6), honoring
// every counter predicate in preds with a fresh Counters (i_new is never
// consulted by a plain query — that counter belongs to the matcher's live
// phase, see query.Counters). Returning false from yield stops the scan
// early.
func (ls *Linkspace) Query(mode query.Mode, preds *predicate.PktPredicates, yield query.Yield) error {
	return ls.store.View(func(r *store.ReadTxn) error {
		return query.Run(r, mode, preds, &query.Counters{}, yield)
	})
}

// Watch registers w with the matcher (§4.7 "Registration"): it runs once
// against the current snapshot, then — if w.Retain is set — stays live,
// receiving every subsequently committed packet until it finishes, breaks,
// is replaced, or is closed. Call Process or ProcessWhile to advance live
// dispatch.
func (ls *Linkspace) Watch(w *matcher.Watch) error {
	return ls.matcher.Register(w)
}

// CloseWatch cancels a live watch (§5 "Cancellation").
func (ls *Linkspace) CloseWatch(qid uuid.UUID, rng bool) error {
	return ls.matcher.Close(qid, rng)
}

// AddPostTxn registers a hook to run once per commit pass (§4.7
// "Post-txn hooks").
func (ls *Linkspace) AddPostTxn(hook matcher.PostTxnHook) uuid.UUID {
	return ls.matcher.AddPostTxn(hook)
}

// RemovePostTxn removes a previously registered post-txn hook.
func (ls *Linkspace) RemovePostTxn(id uuid.UUID) {
	ls.matcher.RemovePostTxn(id)
}

// Process advances the matcher to the store's current log head, dispatching
// every newly committed packet to every live watch (§4.7 "process").
func (ls *Linkspace) Process() (fired map[uuid.UUID]bool, err error) {
	return ls.matcher.Process()
}

// ProcessWhile loops Process until qid fires, the deadline passes, the
// watch table empties, or qid is no longer registered (§4.7
// "process_while"). A zero deadline means no wall-clock limit.
func (ls *Linkspace) ProcessWhile(qid uuid.UUID, deadline time.Time) error {
	return ls.matcher.ProcessWhile(qid, deadline)
}

// Run blocks processing qid until it fires or timeout elapses, a
// convenience wrapper over ProcessWhile for callers working in relative
// durations instead of absolute deadlines. A zero timeout means no limit.
func (ls *Linkspace) Run(qid uuid.UUID, timeout time.Duration) error {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	return ls.ProcessWhile(qid, deadline)
}
