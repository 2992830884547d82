package packet

import "encoding/binary"

// FieldBytes returns the big-endian (or raw, for variable-length fields)
// byte encoding of np's field named name, for an external ABE template
// evaluator (§6.3) to consume without this package depending on the
// predicate field table. name strings mirror predicate.FieldNames().
func FieldBytes(np *NetPacket, name string) ([]byte, bool) {
	pkt := np.Point

	u64 := func(v uint64) ([]byte, bool) {
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, v)
		return b, true
	}
	u32 := func(v uint32) ([]byte, bool) {
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, v)
		return b, true
	}

	switch name {
	case "type":
		return []byte{byte(pkt.Kind())}, true
	case "hash":
		h := pkt.Hash()
		return h[:], true
	case "group":
		g := Group(pkt)
		return g[:], true
	case "domain":
		d := Domain(pkt)
		return d[:], true
	case "create":
		return u64(CreateStampOf(pkt))
	case "path":
		return PathOf(pkt).Bytes(), true
	case "path_len":
		return []byte{byte(PathOf(pkt).Len())}, true
	case "pubkey":
		pk := PubkeyOf(pkt)
		return pk[:], true
	case "signature":
		sig := SignatureOf(pkt)
		return sig[:], true
	case "point_size":
		b := make([]byte, 2)
		binary.BigEndian.PutUint16(b, uint16(len(pkt.PointBytes())))
		return b, true
	case "data_size":
		return u32(uint32(len(DataOf(pkt))))
	case "links_len":
		return u32(uint32(len(LinksOf(pkt))))
	case "netflags":
		return []byte{np.Header.Flags}, true
	case "hop":
		return u32(np.Header.Hop)
	case "stamp":
		return u64(np.Header.Stamp)
	case "ubits0":
		return u32(np.Header.Ubits[0])
	case "ubits1":
		return u32(np.Header.Ubits[1])
	case "ubits2":
		return u32(np.Header.Ubits[2])
	case "ubits3":
		return u32(np.Header.Ubits[3])
	case "comp0", "comp1", "comp2", "comp3", "comp4", "comp5", "comp6", "comp7":
		idx := int(name[4] - '0')
		p := PathOf(pkt)
		if idx >= p.Len() {
			return nil, false
		}
		return p.Component(idx), true
	default:
		return nil, false
	}
}
