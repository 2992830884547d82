package packet_test

import (
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/require"

	"github.com/linkspace/linkspace/packet"
	"github.com/linkspace/linkspace/path"
)

// Scenario 1 (spec.md §8): a DataPoint's canonical hash is a pure function
// of its content.
func TestDataPointHashVector(t *testing.T) {
	d, err := packet.BuildDataPoint([]byte("Some data"))
	require.NoError(t, err)
	require.Equal(t, "ay01_aEzVcp0scyCgKqfugoQSXGW4iefLgAZRxRp9sY", d.Hash().B64URL())
	require.Equal(t, []byte("Some data"), d.Data())
}

// Scenario 2 (spec.md §8): a LinkPoint's canonical hash over its full
// declared content (group, domain, path, links, data, create).
func TestLinkPointHashVector(t *testing.T) {
	d, err := packet.BuildDataPoint([]byte("Some data"))
	require.NoError(t, err)

	p := path.New()
	require.NoError(t, p.Push([]byte("hello")))
	require.NoError(t, p.Push([]byte("world")))

	var domain [packet.DomainSize]byte
	copy(domain[:], "mydomain")

	dHash := d.Hash()
	links := []packet.Link{
		{Tag: tag16("a datapoint"), Ptr: dHash},
		{Tag: tag16("another tag"), Ptr: packet.DefaultPublicGroup},
	}

	l, err := packet.BuildLinkPoint(packet.DefaultPublicGroup, domain, p, links, []byte("extra data for the linkpoint"), 0)
	require.NoError(t, err)
	require.Equal(t, "zvyWklJrmEHBQfYBLxYh7Gh-3YOTCFRgyuXaGl6-xt8", l.Hash().B64URL())
}

func tag16(s string) [16]byte {
	var out [16]byte
	copy(out[:], s)
	return out
}

func TestRoundTripParseSerialize(t *testing.T) {
	p := path.New()
	require.NoError(t, p.Push([]byte("a")))

	l, err := packet.BuildLinkPoint(packet.DefaultPublicGroup, [packet.DomainSize]byte{}, p, nil, []byte("payload"), 42)
	require.NoError(t, err)

	np := packet.Wrap(l, packet.NetHeader{Hop: 3, Stamp: 99})
	wire := np.Bytes()

	parsed, rest, err := packet.Parse(wire, true)
	require.NoError(t, err)
	require.Empty(t, rest)
	require.Equal(t, np.Hash(), parsed.Hash())
	require.Equal(t, np.Header, parsed.Header)
	require.Equal(t, []byte("payload"), packet.DataOf(parsed.Point))

	// serialize(parse(serialize(P))) reproduces the identical byte image.
	require.Equal(t, wire, parsed.Bytes())
}

func TestParseRejectsPrivateGroupUnlessAllowed(t *testing.T) {
	l, err := packet.BuildLinkPoint(packet.PrivateGroup, [packet.DomainSize]byte{}, nil, nil, nil, 0)
	require.NoError(t, err)
	np := packet.Wrap(l, packet.NetHeader{})
	wire := np.Bytes()

	_, _, err = packet.Parse(wire, false)
	require.Error(t, err)

	parsed, _, err := packet.Parse(wire, true)
	require.NoError(t, err)
	require.Equal(t, packet.PrivateGroup, packet.Group(parsed.Point))
}

// Scenario 5 (spec.md §8): flipping one signature byte must invalidate a
// KeyPoint; flipping it back must restore validity.
func TestKeyPointSignatureTamperDetection(t *testing.T) {
	sk, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)

	p := path.New()
	require.NoError(t, p.Push([]byte("signed")))

	kp, err := packet.BuildKeyPoint(sk, packet.DefaultPublicGroup, [packet.DomainSize]byte{}, p, nil, []byte("data"), 7)
	require.NoError(t, err)
	require.True(t, kp.Verify())

	np := packet.Wrap(kp, packet.NetHeader{})
	wire := np.Bytes()
	_, _, err = packet.Parse(wire, true)
	require.NoError(t, err)

	tampered := append([]byte(nil), wire...)
	// The signature block sits at the tail of the point bytes, just before
	// any alignment padding; corrupt its last byte.
	padding := tampered[packet.NetHeaderSize+packet.HashSize+1]
	sigEnd := len(tampered) - int(padding)
	tampered[sigEnd-1] ^= 0xFF

	_, _, err = packet.Parse(tampered, true)
	require.Error(t, err)

	tampered[sigEnd-1] ^= 0xFF // flip back
	restored, _, err := packet.Parse(tampered, true)
	require.NoError(t, err)
	require.Equal(t, kp.Hash(), restored.Hash())
}

func TestParseRejectsHashMismatch(t *testing.T) {
	d, err := packet.BuildDataPoint([]byte("x"))
	require.NoError(t, err)
	np := packet.Wrap(d, packet.NetHeader{})
	wire := np.Bytes()

	corrupt := append([]byte(nil), wire...)
	corrupt[packet.NetHeaderSize] ^= 0xFF // flip a byte inside the declared hash

	_, _, err = packet.Parse(corrupt, true)
	require.Error(t, err)
}

func TestBuildDataPointRejectsOversize(t *testing.T) {
	_, err := packet.BuildDataPoint(make([]byte, packet.MaxPointSize+1))
	require.Error(t, err)
}
