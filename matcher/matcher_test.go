package matcher_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/linkspace/linkspace/matcher"
	"github.com/linkspace/linkspace/packet"
	"github.com/linkspace/linkspace/predicate"
	"github.com/linkspace/linkspace/query"
	"github.com/linkspace/linkspace/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "db")
	s, err := store.Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func wrapData(t *testing.T, content string) *packet.NetPacket {
	t.Helper()
	dp, err := packet.BuildDataPoint([]byte(content))
	require.NoError(t, err)
	return packet.Wrap(dp, packet.NetHeader{})
}

func unboundedRecv() matcher.RecvBounds {
	return matcher.RecvBounds{Low: 0, High: ^uint64(0)}
}

func TestRegisterOneShotRunsHistoricalScanOnly(t *testing.T) {
	s := openTestStore(t)
	for _, c := range []string{"a", "b"} {
		_, _, err := s.Put(wrapData(t, c))
		require.NoError(t, err)
	}

	m := matcher.New(s)
	var seen int
	w := &matcher.Watch{
		Preds:      predicate.New(),
		Mode:       query.Mode{Table: query.TableLog, Order: query.OrderAsc},
		RecvBounds: unboundedRecv(),
		Retain:     false,
		Callback: func(recv uint64, np *packet.NetPacket) matcher.Action {
			seen++
			return matcher.Continue
		},
	}
	require.NoError(t, m.Register(w))
	require.Equal(t, 2, seen)

	_, _, err := s.Put(wrapData(t, "c"))
	require.NoError(t, err)
	_, err = m.Process()
	require.NoError(t, err)
	require.Equal(t, 2, seen, "one-shot watch must not receive live dispatch")
}

func TestRegisterRetainDispatchesNewPackets(t *testing.T) {
	s := openTestStore(t)
	_, _, err := s.Put(wrapData(t, "a"))
	require.NoError(t, err)

	m := matcher.New(s)
	var recvs []uint64
	w := &matcher.Watch{
		Preds:      predicate.New(),
		Mode:       query.Mode{Table: query.TableLog, Order: query.OrderAsc},
		RecvBounds: unboundedRecv(),
		Retain:     true,
		Callback: func(recv uint64, np *packet.NetPacket) matcher.Action {
			recvs = append(recvs, recv)
			return matcher.Continue
		},
	}
	require.NoError(t, m.Register(w))
	require.Len(t, recvs, 1, "historical scan sees the pre-existing packet")

	_, _, err = s.Put(wrapData(t, "b"))
	require.NoError(t, err)
	_, _, err = s.Put(wrapData(t, "c"))
	require.NoError(t, err)

	_, err = m.Process()
	require.NoError(t, err)
	require.Len(t, recvs, 3, "live dispatch delivers packets committed after registration")
}

func TestRegisterDiscardsAlreadyExpiredBounds(t *testing.T) {
	s := openTestStore(t)
	recv1, _, err := s.Put(wrapData(t, "a"))
	require.NoError(t, err)

	m := matcher.New(s)
	var stopped matcher.StopReason
	var stoppedCalled bool
	w := &matcher.Watch{
		Preds:      predicate.New(),
		Mode:       query.Mode{Table: query.TableLog, Order: query.OrderAsc},
		RecvBounds: matcher.RecvBounds{Low: 0, High: recv1},
		Retain:     true,
		Callback:   func(uint64, *packet.NetPacket) matcher.Action { return matcher.Continue },
		Stopped: func(reason matcher.StopReason) {
			stopped = reason
			stoppedCalled = true
		},
	}
	// recv_stamps are wall-clock derived (store.WriteMany), so a bound equal
	// to one already assigned is necessarily at or before "now" by the time
	// Register runs: the watch is discarded before the historical scan.
	require.NoError(t, m.Register(w))

	require.True(t, stoppedCalled)
	require.Equal(t, matcher.StopFinish, stopped)
}

func TestRecvBoundsExpiryGCsWatch(t *testing.T) {
	s := openTestStore(t)
	m := matcher.New(s)

	var stopped matcher.StopReason
	var stoppedCalled bool
	w := &matcher.Watch{
		Preds:      predicate.New(),
		Mode:       query.Mode{Table: query.TableLog, Order: query.OrderAsc},
		RecvBounds: matcher.RecvBounds{Low: 0, High: uint64(time.Now().Add(time.Hour).UnixMicro())},
		Retain:     true,
		Callback:   func(uint64, *packet.NetPacket) matcher.Action { return matcher.Continue },
		Stopped: func(reason matcher.StopReason) {
			stopped = reason
			stoppedCalled = true
		},
	}
	require.NoError(t, m.Register(w))
	require.False(t, stoppedCalled, "a bound an hour out must survive registration")

	// Pin the watch's own bound to land exactly on the next packet's
	// recv_stamp: dispatchPacket's strict "high < recv" check never trips
	// (the bound is met, not exceeded), so only the inclusive post-pass GC
	// sweep ("high <= upToRecv") removes it.
	recv, _, err := s.Put(wrapData(t, "a"))
	require.NoError(t, err)
	w.RecvBounds.High = recv

	_, err = m.Process()
	require.NoError(t, err)

	require.True(t, stoppedCalled)
	require.Equal(t, matcher.StopFinish, stopped)
}

func TestRecvBoundsExceededByNewPacketBreaksWatch(t *testing.T) {
	s := openTestStore(t)
	recv1, _, err := s.Put(wrapData(t, "a"))
	require.NoError(t, err)

	m := matcher.New(s)
	var stopped matcher.StopReason
	w := &matcher.Watch{
		Preds:      predicate.New(),
		Mode:       query.Mode{Table: query.TableLog, Order: query.OrderAsc},
		RecvBounds: matcher.RecvBounds{Low: 0, High: uint64(time.Now().Add(time.Hour).UnixMicro())},
		Retain:     true,
		Callback:   func(uint64, *packet.NetPacket) matcher.Action { return matcher.Continue },
		Stopped:    func(reason matcher.StopReason) { stopped = reason },
	}
	require.NoError(t, m.Register(w))

	// A bound already in the past would be discarded by Register, so pin it
	// to recv1 only after registration; the next packet then exceeds it.
	w.RecvBounds.High = recv1

	_, _, err = s.Put(wrapData(t, "b"))
	require.NoError(t, err)
	_, err = m.Process()
	require.NoError(t, err)

	require.Equal(t, matcher.StopBreak, stopped)
}

func TestCounterINewLimitsLiveMatches(t *testing.T) {
	s := openTestStore(t)

	m := matcher.New(s)
	preds := predicate.New()
	require.NoError(t, preds.Lt(predicate.FieldINew, 2))

	var matched int
	var stopped matcher.StopReason
	w := &matcher.Watch{
		Preds:      preds,
		Mode:       query.Mode{Table: query.TableLog, Order: query.OrderAsc},
		RecvBounds: unboundedRecv(),
		Retain:     true,
		Callback: func(uint64, *packet.NetPacket) matcher.Action {
			matched++
			return matcher.Continue
		},
		Stopped: func(reason matcher.StopReason) { stopped = reason },
	}
	require.NoError(t, m.Register(w))

	for _, c := range []string{"a", "b", "c"} {
		_, _, err := s.Put(wrapData(t, c))
		require.NoError(t, err)
		_, err = m.Process()
		require.NoError(t, err)
	}

	require.Equal(t, 2, matched)
	require.Equal(t, matcher.StopFinish, stopped)
}

func TestRegisterFoldsExhaustedIBudgetIntoINew(t *testing.T) {
	s := openTestStore(t)
	for _, c := range []string{"a", "b"} {
		_, _, err := s.Put(wrapData(t, c))
		require.NoError(t, err)
	}

	m := matcher.New(s)
	preds := predicate.New()
	require.NoError(t, preds.Lt(predicate.FieldI, 2))

	var stopped matcher.StopReason
	var stoppedCalled bool
	var seen int
	w := &matcher.Watch{
		Preds:      preds,
		Mode:       query.Mode{Table: query.TableLog, Order: query.OrderAsc},
		RecvBounds: unboundedRecv(),
		Retain:     true,
		Callback: func(uint64, *packet.NetPacket) matcher.Action {
			seen++
			return matcher.Continue
		},
		Stopped: func(reason matcher.StopReason) {
			stopped = reason
			stoppedCalled = true
		},
	}
	require.NoError(t, m.Register(w))
	require.Equal(t, 2, seen, "the historical scan still runs to completion")
	require.True(t, stoppedCalled, "i's budget is already exhausted by the historical scan")
	require.Equal(t, matcher.StopFinish, stopped)

	_, _, err := s.Put(wrapData(t, "c"))
	require.NoError(t, err)
	_, err = m.Process()
	require.NoError(t, err)
	require.Equal(t, 2, seen, "a watch whose i budget is already exhausted must not be retained for live dispatch")
}

func TestCloseRangeClosesSameQueryID(t *testing.T) {
	s := openTestStore(t)
	m := matcher.New(s)

	var stopped matcher.StopReason
	w := &matcher.Watch{
		Preds:      predicate.New(),
		Mode:       query.Mode{Table: query.TableLog, Order: query.OrderAsc},
		RecvBounds: unboundedRecv(),
		Retain:     true,
		Callback:   func(uint64, *packet.NetPacket) matcher.Action { return matcher.Continue },
		Stopped:    func(reason matcher.StopReason) { stopped = reason },
	}
	require.NoError(t, m.Register(w))
	require.NoError(t, m.Close(w.QueryID, true))
	require.Equal(t, matcher.StopClosed, stopped)

	// No exact match: an error regardless of range.
	require.Error(t, m.Close(uuid.New(), true))
}

func TestCloseTerminatesWatch(t *testing.T) {
	s := openTestStore(t)
	m := matcher.New(s)

	var stopped matcher.StopReason
	w := &matcher.Watch{
		Preds:      predicate.New(),
		Mode:       query.Mode{Table: query.TableLog, Order: query.OrderAsc},
		RecvBounds: unboundedRecv(),
		Retain:     true,
		Callback:   func(uint64, *packet.NetPacket) matcher.Action { return matcher.Continue },
		Stopped:    func(reason matcher.StopReason) { stopped = reason },
	}
	require.NoError(t, m.Register(w))
	require.NoError(t, m.Close(w.QueryID, false))
	require.Equal(t, matcher.StopClosed, stopped)

	_, _, err := s.Put(wrapData(t, "a"))
	require.NoError(t, err)
	_, err = m.Process()
	require.NoError(t, err)
}

func TestRegisterReplacesExistingID(t *testing.T) {
	s := openTestStore(t)
	m := matcher.New(s)

	id := uuid.New()
	var oldStopped matcher.StopReason
	w1 := &matcher.Watch{
		QueryID:    id,
		Preds:      predicate.New(),
		Mode:       query.Mode{Table: query.TableLog, Order: query.OrderAsc},
		RecvBounds: unboundedRecv(),
		Retain:     true,
		Callback:   func(uint64, *packet.NetPacket) matcher.Action { return matcher.Continue },
		Stopped:    func(reason matcher.StopReason) { oldStopped = reason },
	}
	require.NoError(t, m.Register(w1))

	w2 := &matcher.Watch{
		QueryID:    id,
		Preds:      predicate.New(),
		Mode:       query.Mode{Table: query.TableLog, Order: query.OrderAsc},
		RecvBounds: unboundedRecv(),
		Retain:     true,
		Callback:   func(uint64, *packet.NetPacket) matcher.Action { return matcher.Continue },
	}
	require.NoError(t, m.Register(w2))
	require.Equal(t, matcher.StopReplaced, oldStopped)
}

func TestPostTxnHookRunsPerPassAndSelfRemoves(t *testing.T) {
	s := openTestStore(t)
	m := matcher.New(s)

	var runs int
	m.AddPostTxn(func() matcher.Action {
		runs++
		if runs == 2 {
			return matcher.Break
		}
		return matcher.Continue
	})

	for i := 0; i < 3; i++ {
		_, err := m.Process()
		require.NoError(t, err)
	}
	require.Equal(t, 2, runs, "hook self-removes after returning Break")
}

func TestProcessWhileWakesOnCommit(t *testing.T) {
	s := openTestStore(t)
	m := matcher.New(s)

	var recv uint64
	w := &matcher.Watch{
		Preds:      predicate.New(),
		Mode:       query.Mode{Table: query.TableLog, Order: query.OrderAsc},
		RecvBounds: unboundedRecv(),
		Retain:     true,
		Callback: func(r uint64, np *packet.NetPacket) matcher.Action {
			recv = r
			return matcher.Continue
		},
	}
	require.NoError(t, m.Register(w))

	go func() {
		time.Sleep(10 * time.Millisecond)
		dp, err := packet.BuildDataPoint([]byte("woke-me-up"))
		if err != nil {
			return
		}
		_, _, _ = s.Put(packet.Wrap(dp, packet.NetHeader{}))
	}()

	err := m.ProcessWhile(w.QueryID, time.Now().Add(2*time.Second))
	require.NoError(t, err)
	require.NotZero(t, recv)
}
