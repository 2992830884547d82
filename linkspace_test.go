package linkspace_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/linkspace/linkspace"
	"github.com/linkspace/linkspace/matcher"
	"github.com/linkspace/linkspace/packet"
	"github.com/linkspace/linkspace/path"
	"github.com/linkspace/linkspace/predicate"
	"github.com/linkspace/linkspace/query"
)

func openTest(t *testing.T) *linkspace.Linkspace {
	t.Helper()
	ls, err := linkspace.Open(filepath.Join(t.TempDir(), "db"))
	require.NoError(t, err)
	t.Cleanup(func() { ls.Close() })
	return ls
}

func wrapData(t *testing.T, content string) *packet.NetPacket {
	t.Helper()
	dp, err := packet.BuildDataPoint([]byte(content))
	require.NoError(t, err)
	return linkspace.Wrap(dp)
}

func TestSaveDedupAndGet(t *testing.T) {
	ls := openTest(t)
	np := wrapData(t, "Some data")

	recv1, isNew1, err := ls.Save(np)
	require.NoError(t, err)
	require.True(t, isNew1)

	recv2, isNew2, err := ls.Save(np)
	require.NoError(t, err)
	require.False(t, isNew2)
	require.Equal(t, recv1, recv2)

	recv, got, found, err := ls.Get(np.Hash())
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, recv1, recv)
	require.Equal(t, []byte("Some data"), packet.DataOf(got.Point))
}

func TestQueryLogAscending(t *testing.T) {
	ls := openTest(t)
	for _, c := range []string{"a", "b", "c"} {
		_, _, err := ls.Save(wrapData(t, c))
		require.NoError(t, err)
	}

	var seen []uint64
	mode := query.Mode{Table: query.TableLog, Order: query.OrderAsc}
	err := ls.Query(mode, predicate.New(), func(recv uint64, np *packet.NetPacket) bool {
		seen = append(seen, recv)
		return true
	})
	require.NoError(t, err)
	require.Len(t, seen, 3)
	require.True(t, seen[0] < seen[1] && seen[1] < seen[2])
}

func TestWatchFiresForLiveAndHistoricalPackets(t *testing.T) {
	ls := openTest(t)

	p := path.New()
	require.NoError(t, p.Push([]byte("hello")))
	link, err := packet.BuildLinkPoint(ls.PublicGroup(), [packet.DomainSize]byte{}, p, nil, nil, 0)
	require.NoError(t, err)
	_, _, err = ls.Save(linkspace.Wrap(link))
	require.NoError(t, err)

	var fired int
	preds := predicate.New()
	require.NoError(t, preds.PrefixOf(p))
	w := &matcher.Watch{
		Preds:      preds,
		Mode:       query.Mode{Table: query.TableTree, Order: query.OrderAsc, Group: ls.PublicGroup()},
		RecvBounds: matcher.RecvBounds{Low: 0, High: ^uint64(0)},
		Retain:     true,
		Callback: func(recv uint64, np *packet.NetPacket) matcher.Action {
			fired++
			return matcher.Continue
		},
	}
	require.NoError(t, ls.Watch(w))
	require.Equal(t, 1, fired, "historical match must fire during Register")

	link2, err := packet.BuildLinkPoint(ls.PublicGroup(), [packet.DomainSize]byte{}, p, nil, []byte("second"), 1)
	require.NoError(t, err)
	_, _, err = ls.Save(linkspace.Wrap(link2))
	require.NoError(t, err)

	require.NoError(t, ls.Run(w.QueryID, 10*time.Millisecond))
	require.Equal(t, 2, fired, "live dispatch must fire for the newly saved packet")
}

func TestCurrentHandle(t *testing.T) {
	require.Nil(t, linkspace.Current())
	ls := openTest(t)
	linkspace.SetCurrent(ls)
	t.Cleanup(func() { linkspace.SetCurrent(nil) })
	require.Same(t, ls, linkspace.Current())
}
