package packet

import "encoding/binary"

// encodePointHeader writes the 4-byte PointHeader.
func encodePointHeader(typ PointType, padding uint8, pointSize uint16) []byte {
	out := make([]byte, PointHeaderSize)
	out[0] = byte(typ)
	out[1] = padding
	binary.BigEndian.PutUint16(out[2:4], pointSize)
	return out
}

// alignPadding returns the 0..3 padding byte count needed so that
// pointSize+padding is a multiple of 4 (a valid subset of the 0..7 range the
// wire format's padding field allows).
func alignPadding(pointSize int) uint8 {
	rem := pointSize % 4
	if rem == 0 {
		return 0
	}
	return uint8(4 - rem)
}

func paddingBytes(n uint8) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = 0xFF
	}
	return out
}

// encodeLinkPointHeader writes the 68-byte LinkPointHeader body segment.
func encodeLinkPointHeader(group [GroupSize]byte, domain [DomainSize]byte, create uint64, rootedHeader []byte, offsetISP, offsetData uint16) []byte {
	out := make([]byte, LinkPointHdrExtra)
	i := 0
	copy(out[i:], group[:])
	i += GroupSize
	copy(out[i:], domain[:])
	i += DomainSize
	binary.BigEndian.PutUint64(out[i:], create)
	i += CreateStampSize
	copy(out[i:], rootedHeader)
	i += len(rootedHeader)
	binary.BigEndian.PutUint16(out[i:], offsetISP)
	i += 2
	binary.BigEndian.PutUint16(out[i:], offsetData)
	i += 2
	return out
}

// PointBytes for DataPoint: PointHeader + raw data. The header's padding
// field carries the deterministic 0..3 alignment count derived from the
// point size, so the canonical hash (which covers PointHeader+body) stays a
// pure function of content, not of a separately-chosen value.
func (d *DataPoint) PointBytes() []byte {
	pointSize := PointHeaderSize + len(d.data)
	padding := alignPadding(pointSize)
	out := make([]byte, 0, pointSize)
	out = append(out, encodePointHeader(TypeData, padding, uint16(pointSize))...)
	out = append(out, d.data...)
	return out
}

// PointBytes for LinkPoint: PointHeader + LinkPointHeader + links + path + data.
func (l *LinkPoint) PointBytes() []byte {
	return l.pointBytes(TypeLink, nil)
}

// pointBytes builds the shared LinkPoint/KeyPoint body. sig, if non-nil, is
// the 96-byte Signed block appended after Data, and adds TypeSig to the
// point type.
func (l *LinkPoint) pointBytes(base PointType, sig []byte) []byte {
	rootedHeader := l.rootedPath.HeaderBytes()
	pathBytes := l.rootedPath.Inner().Bytes()
	linksLen := len(l.links) * LinkWireSize
	offsetISP := uint16(LinkPointHeaderEnd + linksLen)
	offsetData := offsetISP + uint16(len(pathBytes))
	bodyLen := LinkPointHdrExtra + linksLen + len(pathBytes) + len(l.data)
	pointSize := PointHeaderSize + bodyLen + len(sig)

	padding := alignPadding(pointSize)
	out := make([]byte, 0, pointSize)
	typ := base
	if sig != nil {
		typ |= TypeSig
	}
	out = append(out, encodePointHeader(typ, padding, uint16(pointSize))...)
	out = append(out, encodeLinkPointHeader(l.group, l.domain, l.createStamp, rootedHeader, offsetISP, offsetData)...)
	for _, lk := range l.links {
		out = append(out, lk.Tag[:]...)
		out = append(out, lk.Ptr[:]...)
	}
	out = append(out, pathBytes...)
	out = append(out, l.data...)
	if sig != nil {
		out = append(out, sig...)
	}
	return out
}

// PointBytes for KeyPoint: LinkPoint body plus the Signed block.
func (k *KeyPoint) PointBytes() []byte {
	sig := make([]byte, 0, SignedBlockSize)
	sig = append(sig, k.pubkey[:]...)
	sig = append(sig, k.signature[:]...)
	return k.LinkPoint.pointBytes(TypeLink, sig)
}
