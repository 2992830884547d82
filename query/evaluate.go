package query

import (
	"math/big"

	"github.com/linkspace/linkspace/packet"
	"github.com/linkspace/linkspace/predicate"
)

// MatchPacket reports whether np (with assigned recv_stamp recv) satisfies
// every non-counter field predicate in preds. Counter predicates (i, i_new,
// i_db, i_branch) are evaluated separately by the scan loop via
// predicate.PktPredicates.MatchesCounters, since they depend on scan
// position rather than packet content.
func MatchPacket(preds *predicate.PktPredicates, np *packet.NetPacket, recv uint64) bool {
	pkt := np.Point

	fixedChecks := []struct {
		f predicate.Field
		v uint64
	}{
		{predicate.FieldType, uint64(pkt.Kind())},
		{predicate.FieldCreate, packet.CreateStampOf(pkt)},
		{predicate.FieldPathLen, uint64(packet.PathOf(pkt).Len())},
		{predicate.FieldPointSize, uint64(len(pkt.PointBytes()))},
		{predicate.FieldDataSize, uint64(len(packet.DataOf(pkt)))},
		{predicate.FieldLinksLen, uint64(len(packet.LinksOf(pkt)))},
		{predicate.FieldNetFlags, uint64(np.Header.Flags)},
		{predicate.FieldHop, uint64(np.Header.Hop)},
		{predicate.FieldStamp, np.Header.Stamp},
		{predicate.FieldUbits0, uint64(np.Header.Ubits[0])},
		{predicate.FieldUbits1, uint64(np.Header.Ubits[1])},
		{predicate.FieldUbits2, uint64(np.Header.Ubits[2])},
		{predicate.FieldUbits3, uint64(np.Header.Ubits[3])},
		{predicate.FieldRecv, recv},
	}
	for _, c := range fixedChecks {
		if ts := preds.TestSet(c.f); ts != nil && !ts.TestUint64(c.v) {
			return false
		}
	}

	if ts := preds.TestSet(predicate.FieldGroup); ts != nil {
		g := packet.Group(pkt)
		if !ts.Test(new(big.Int).SetBytes(g[:])) {
			return false
		}
	}
	if ts := preds.TestSet(predicate.FieldDomain); ts != nil {
		d := packet.Domain(pkt)
		if !ts.Test(new(big.Int).SetBytes(d[:])) {
			return false
		}
	}
	if ts := preds.TestSet(predicate.FieldHash); ts != nil {
		h := pkt.Hash()
		if !ts.Test(new(big.Int).SetBytes(h[:])) {
			return false
		}
	}
	if ts := preds.TestSet(predicate.FieldPubkey); ts != nil {
		pk := packet.PubkeyOf(pkt)
		if !ts.Test(new(big.Int).SetBytes(pk[:])) {
			return false
		}
	}
	if ts := preds.TestSet(predicate.FieldSignature); ts != nil {
		sig := packet.SignatureOf(pkt)
		if !ts.Test(new(big.Int).SetBytes(sig[:])) {
			return false
		}
	}

	if br := preds.ByteRange(predicate.FieldPath); br != nil {
		if !br.Test(packet.PathOf(pkt).Bytes()) {
			return false
		}
	}
	for i, f := range compFields {
		br := preds.ByteRange(f)
		if br == nil {
			continue
		}
		if !br.Test(packet.PathOf(pkt).Component(i)) {
			return false
		}
	}

	for _, pfx := range preds.PrefixChain() {
		if !pfx.IsPrefixOf(packet.PathOf(pkt)) {
			return false
		}
	}

	return true
}

var compFields = []predicate.Field{
	predicate.FieldComp0, predicate.FieldComp1, predicate.FieldComp2, predicate.FieldComp3,
	predicate.FieldComp4, predicate.FieldComp5, predicate.FieldComp6, predicate.FieldComp7,
}
