package abescope_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/linkspace/linkspace/abescope"
	"github.com/linkspace/linkspace/packet"
)

func TestPacketScopeFieldLookup(t *testing.T) {
	dp, err := packet.BuildDataPoint([]byte("Some data"))
	require.NoError(t, err)
	np := packet.Wrap(dp, packet.NetHeader{})

	s := abescope.NewPacketScope(np)

	b, ok := s.Field("type")
	require.True(t, ok)
	require.Equal(t, []byte{byte(packet.TypeData)}, b)

	_, ok = s.Field("i")
	require.False(t, ok, "scope counters have no meaning against a single packet")

	_, ok = s.Field("nonsense")
	require.False(t, ok)
}

func TestPacketScopeTryEncode(t *testing.T) {
	s := abescope.NewPacketScope(nil)

	encoded, ok, err := s.TryEncode("b64url", nil, []byte("hi"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "aGk", encoded)

	_, ok, err = s.TryEncode("unknown", nil, []byte("hi"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFieldNamesMatchesPredicate(t *testing.T) {
	require.NotEmpty(t, abescope.FieldNames())
}
