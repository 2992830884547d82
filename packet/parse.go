package packet

import (
	"encoding/binary"
	"fmt"

	"github.com/linkspace/linkspace/lserr"
	"github.com/linkspace/linkspace/path"
)

// Parse decodes one NetPacket from the front of b, returning the remaining
// bytes (rest) so callers can parse a concatenated stream. When allowPrivate
// is false, packets whose group is PrivateGroup are rejected.
func Parse(b []byte, allowPrivate bool) (*NetPacket, []byte, error) {
	const op = "packet.Parse"
	if len(b) < NetHeaderSize+HashSize+PointHeaderSize {
		return nil, nil, lserr.New(lserr.KindFormat, op, ErrTruncated)
	}

	nh := NetHeader{
		Flags: b[0],
		Hop:   binary.BigEndian.Uint32(b[2:6]),
		Stamp: binary.BigEndian.Uint64(b[6:14]),
	}
	if b[1] != 0 {
		return nil, nil, lserr.New(lserr.KindFormat, op, ErrHeaderReservedSet)
	}
	if nh.Flags&^NetFlagPrivate != 0 {
		return nil, nil, lserr.New(lserr.KindFormat, op, ErrHeaderReservedSet)
	}
	for i := 0; i < 4; i++ {
		nh.Ubits[i] = binary.BigEndian.Uint32(b[14+4*i : 18+4*i])
	}

	declaredHash := b[NetHeaderSize : NetHeaderSize+HashSize]
	pointStart := NetHeaderSize + HashSize

	if len(b) < pointStart+PointHeaderSize {
		return nil, nil, lserr.New(lserr.KindFormat, op, ErrTruncated)
	}
	typ := PointType(b[pointStart])
	padding := b[pointStart+1]
	pointSize := int(binary.BigEndian.Uint16(b[pointStart+2 : pointStart+4]))
	if padding > 7 {
		return nil, nil, lserr.New(lserr.KindFormat, op, ErrHeaderReservedSet)
	}
	if pointSize < PointHeaderSize || pointSize > MaxPointSize {
		return nil, nil, lserr.New(lserr.KindFormat, op, ErrOffsetsIncoherent)
	}
	if len(b) < pointStart+pointSize+int(padding) {
		return nil, nil, lserr.New(lserr.KindFormat, op, ErrTruncated)
	}

	pointBytes := b[pointStart : pointStart+pointSize]
	padStart := pointStart + pointSize
	for i := 0; i < int(padding); i++ {
		if b[padStart+i] != 0xFF {
			return nil, nil, lserr.New(lserr.KindFormat, op, ErrPaddingMustBe0xFF)
		}
	}
	rest := b[padStart+int(padding):]

	var pkt Packet
	var err error
	switch typ {
	case TypeData:
		pkt, err = parseDataBody(pointBytes)
	case TypeLink:
		pkt, err = parseLinkBody(pointBytes, false)
	case TypeKeyPoint:
		pkt, err = parseLinkBody(pointBytes, true)
	default:
		return nil, nil, lserr.New(lserr.KindFormat, op, ErrUnknownPointType)
	}
	if err != nil {
		return nil, nil, err
	}

	gotHash := CanonicalHash(pointBytes)
	if Hash(gotHash) != byteHash(declaredHash) {
		return nil, nil, lserr.New(lserr.KindFormat, op, ErrHashMismatch)
	}

	if !allowPrivate && Group(pkt) == PrivateGroup {
		return nil, nil, lserr.New(lserr.KindFormat, op, ErrPrivateGroup)
	}

	if kp, ok := pkt.(*KeyPoint); ok {
		if !kp.Verify() {
			return nil, nil, lserr.New(lserr.KindFormat, op, ErrSignatureInvalid)
		}
	}

	return &NetPacket{Header: nh, Point: pkt}, rest, nil
}

func byteHash(b []byte) Hash {
	var h Hash
	copy(h[:], b)
	return h
}

func parseDataBody(pointBytes []byte) (*DataPoint, error) {
	data := pointBytes[PointHeaderSize:]
	return &DataPoint{data: append([]byte(nil), data...)}, nil
}

func parseLinkBody(pointBytes []byte, signed bool) (Packet, error) {
	const op = "packet.parseLinkBody"
	if len(pointBytes) < LinkPointHeaderEnd {
		return nil, lserr.New(lserr.KindFormat, op, ErrTruncated)
	}
	body := pointBytes[PointHeaderSize:]
	var group [GroupSize]byte
	copy(group[:], body[0:32])
	var domain [DomainSize]byte
	copy(domain[:], body[32:48])
	create := binary.BigEndian.Uint64(body[48:56])
	rootedHeader := body[56:64]
	offsetISP := int(binary.BigEndian.Uint16(body[64:66]))
	offsetData := int(binary.BigEndian.Uint16(body[66:68]))

	pointSize := len(pointBytes)
	sigBlockLen := 0
	if signed {
		sigBlockLen = SignedBlockSize
	}
	dataEnd := pointSize - sigBlockLen

	if !(LinkPointHeaderEnd <= offsetISP && offsetISP <= offsetData && offsetData <= dataEnd) {
		return nil, lserr.New(lserr.KindFormat, op, ErrOffsetsIncoherent)
	}
	if (offsetISP-LinkPointHeaderEnd)%LinkWireSize != 0 {
		return nil, lserr.New(lserr.KindFormat, op, ErrLinkBytesMisaligned)
	}

	n := (offsetISP - LinkPointHeaderEnd) / LinkWireSize
	links := make([]Link, n)
	off := LinkPointHeaderEnd
	for i := 0; i < n; i++ {
		var lk Link
		copy(lk.Tag[:], pointBytes[off:off+16])
		copy(lk.Ptr[:], pointBytes[off+16:off+48])
		links[i] = lk
		off += LinkWireSize
	}

	pathBytes := pointBytes[offsetISP:offsetData]
	innerPath, err := path.FromBytes(pathBytes)
	if err != nil {
		return nil, lserr.New(lserr.KindFormat, op, fmt.Errorf("%w: %v", ErrPathInvalid, err))
	}
	rooted, err := path.RootedFromHeaderAndInner(rootedHeader, innerPath)
	if err != nil {
		return nil, lserr.New(lserr.KindFormat, op, fmt.Errorf("%w: %v", ErrPathInvalid, err))
	}

	data := append([]byte(nil), pointBytes[offsetData:dataEnd]...)

	lp := LinkPoint{
		group:       group,
		domain:      domain,
		createStamp: create,
		rootedPath:  rooted,
		links:       links,
		data:        data,
	}
	if !signed {
		return &lp, nil
	}

	var pubkey [32]byte
	copy(pubkey[:], pointBytes[dataEnd:dataEnd+32])
	var signature [64]byte
	copy(signature[:], pointBytes[dataEnd+32:dataEnd+96])

	return &KeyPoint{LinkPoint: lp, pubkey: pubkey, signature: signature}, nil
}
