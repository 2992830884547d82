// Package packet implements linkspace's self-describing binary packet
// layout (DataPoint, LinkPoint, KeyPoint), their canonical BLAKE3 content
// hash, and the mutable NetHeader wrapper used in transit. The tagged-
// variant design (three concrete types dispatched on a type byte) mirrors
// the teacher storage engine's own preference for small typed records over
// a single struct with a grab-bag of optional fields; field framing
// (fixed header, size-prefixed variable tail) follows the record layout
// style of store/index/index.go.
package packet

import (
	"github.com/linkspace/linkspace/path"
)

// Hash is the 32-byte BLAKE3 canonical packet hash.
type Hash [32]byte

// Link is a (tag, ptr) pair; ptr is usually another packet's Hash.
type Link struct {
	Tag [16]byte
	Ptr [32]byte
}

const LinkWireSize = 16 + 32

// Sizes of the fixed wire structures (§6.1).
const (
	NetHeaderSize     = 1 + 1 + 4 + 8 + 4*4 // flags,_pad,hop,stamp,ubits[4]
	HashSize          = 32
	PointHeaderSize   = 1 + 1 + 2 // point_type, padding, point_size
	GroupSize         = 32
	DomainSize        = 16
	CreateStampSize   = 8
	LinkPointHdrExtra = GroupSize + DomainSize + CreateStampSize + path.RootedHeaderLen + 2 + 2
	LinkPointHeaderEnd = PointHeaderSize + LinkPointHdrExtra // 72
	SignedBlockSize   = 32 + 64                              // pubkey + schnorr signature

	// MaxPointSize is the hard cap on a point (PointHeader + body,
	// excluding padding and NetHeader/Hash), per §3.2.
	MaxPointSize = 65279
)

// PointType is the type byte's bitflags.
type PointType uint8

const (
	TypeData PointType = 0x01
	TypeLink PointType = 0x02
	TypeSig  PointType = 0x04

	TypeKeyPoint = TypeLink | TypeSig
)

func (t PointType) String() string {
	switch t {
	case TypeData:
		return "DataPoint"
	case TypeLink:
		return "LinkPoint"
	case TypeKeyPoint:
		return "KeyPoint"
	default:
		return "Unknown"
	}
}

// Packet is implemented by DataPoint, LinkPoint, and KeyPoint.
type Packet interface {
	Kind() PointType
	Hash() Hash
	// PointBytes returns the canonical point image: PointHeader + body,
	// excluding any trailing alignment padding and excluding NetHeader/Hash.
	PointBytes() []byte
}

// NetHeader is the mutable in-transit wrapper; it is never part of the
// canonical hash.
type NetHeader struct {
	Flags uint8
	Hop   uint32
	Stamp uint64
	Ubits [4]uint32
}

// NetFlagPrivate is the one reserved bit this implementation names in
// Flags; all other bits must be zero (see Parse). Privacy itself is not
// decided by this bit: a packet is private because its group field equals
// PrivateGroup (see Group/PrivateGroup below), the same group-identity test
// the upstream implementation uses. This bit is kept as a reserved-bits gate
// only, not consulted for that decision.
const NetFlagPrivate uint8 = 0x01

// NetPacket wraps a Packet with an in-transit NetHeader.
type NetPacket struct {
	Header NetHeader
	Point  Packet
}

// DataPoint is raw, group-less content.
type DataPoint struct {
	data []byte
}

func (d *DataPoint) Kind() PointType { return TypeData }
func (d *DataPoint) Data() []byte    { return d.data }

// LinkPoint carries group/domain/path/links/data plus a creation stamp.
type LinkPoint struct {
	group       [GroupSize]byte
	domain      [DomainSize]byte
	createStamp uint64
	rootedPath  *path.RootedPath
	links       []Link
	data        []byte
}

func (l *LinkPoint) Kind() PointType         { return TypeLink }
func (l *LinkPoint) Group() [GroupSize]byte  { return l.group }
func (l *LinkPoint) Domain() [DomainSize]byte { return l.domain }
func (l *LinkPoint) CreateStamp() uint64     { return l.createStamp }
func (l *LinkPoint) Path() *path.Path        { return l.rootedPath.Inner() }
func (l *LinkPoint) RootedPath() *path.RootedPath { return l.rootedPath }
func (l *LinkPoint) Links() []Link           { return l.links }
func (l *LinkPoint) Data() []byte            { return l.data }

// KeyPoint is a LinkPoint with an attached Schnorr signature.
type KeyPoint struct {
	LinkPoint
	pubkey    [32]byte
	signature [64]byte
}

func (k *KeyPoint) Kind() PointType      { return TypeKeyPoint }
func (k *KeyPoint) Pubkey() [32]byte     { return k.pubkey }
func (k *KeyPoint) Signature() [64]byte  { return k.signature }

// Group returns pkt's group, or the zero value for DataPoint.
func Group(pkt Packet) [GroupSize]byte {
	switch p := pkt.(type) {
	case *LinkPoint:
		return p.group
	case *KeyPoint:
		return p.group
	default:
		return [GroupSize]byte{}
	}
}

// Domain returns pkt's domain, or the zero value for DataPoint.
func Domain(pkt Packet) [DomainSize]byte {
	switch p := pkt.(type) {
	case *LinkPoint:
		return p.domain
	case *KeyPoint:
		return p.domain
	default:
		return [DomainSize]byte{}
	}
}

// PathOf returns pkt's path, or an empty Path for DataPoint.
func PathOf(pkt Packet) *path.Path {
	switch p := pkt.(type) {
	case *LinkPoint:
		return p.Path()
	case *KeyPoint:
		return p.Path()
	default:
		return path.New()
	}
}

// RootedPathOf returns pkt's RootedPath, or nil for DataPoint.
func RootedPathOf(pkt Packet) *path.RootedPath {
	switch p := pkt.(type) {
	case *LinkPoint:
		return p.RootedPath()
	case *KeyPoint:
		return p.RootedPath()
	default:
		return nil
	}
}

// LinksOf returns pkt's links, or nil for DataPoint.
func LinksOf(pkt Packet) []Link {
	switch p := pkt.(type) {
	case *LinkPoint:
		return p.links
	case *KeyPoint:
		return p.links
	default:
		return nil
	}
}

// DataOf returns pkt's free-form data.
func DataOf(pkt Packet) []byte {
	switch p := pkt.(type) {
	case *DataPoint:
		return p.data
	case *LinkPoint:
		return p.data
	case *KeyPoint:
		return p.data
	default:
		return nil
	}
}

// CreateStampOf returns pkt's create stamp, or 0 for DataPoint.
func CreateStampOf(pkt Packet) uint64 {
	switch p := pkt.(type) {
	case *LinkPoint:
		return p.createStamp
	case *KeyPoint:
		return p.createStamp
	default:
		return 0
	}
}

// PubkeyOf returns pkt's signer pubkey, or the zero value if not a KeyPoint.
func PubkeyOf(pkt Packet) [32]byte {
	if k, ok := pkt.(*KeyPoint); ok {
		return k.pubkey
	}
	return [32]byte{}
}

// SignatureOf returns pkt's signature, or the zero value if not a KeyPoint.
func SignatureOf(pkt Packet) [64]byte {
	if k, ok := pkt.(*KeyPoint); ok {
		return k.signature
	}
	return [64]byte{}
}
