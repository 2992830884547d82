package packet

import "encoding/binary"

// Wrap builds a NetPacket around pkt with the given NetHeader.
func Wrap(pkt Packet, nh NetHeader) *NetPacket {
	return &NetPacket{Header: nh, Point: pkt}
}

// Bytes serializes the full on-wire NetPacket image: NetHeader, Hash,
// PointHeader+body, and trailing 0xFF alignment padding (the padding count
// is read back out of the point bytes' own header field).
func (np *NetPacket) Bytes() []byte {
	pointBytes := np.Point.PointBytes()
	hash := CanonicalHash(pointBytes)
	padding := pointBytes[1]

	out := make([]byte, 0, NetHeaderSize+HashSize+len(pointBytes)+int(padding))
	nh := make([]byte, NetHeaderSize)
	nh[0] = np.Header.Flags
	nh[1] = 0
	binary.BigEndian.PutUint32(nh[2:6], np.Header.Hop)
	binary.BigEndian.PutUint64(nh[6:14], np.Header.Stamp)
	for i, u := range np.Header.Ubits {
		binary.BigEndian.PutUint32(nh[14+4*i:18+4*i], u)
	}
	out = append(out, nh...)
	out = append(out, hash[:]...)
	out = append(out, pointBytes...)
	out = append(out, paddingBytes(padding)...)
	return out
}

// Hash returns the wrapped packet's canonical hash.
func (np *NetPacket) Hash() Hash { return np.Point.Hash() }
