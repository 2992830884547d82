package packet

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/schnorr"

	"github.com/linkspace/linkspace/lserr"
	"github.com/linkspace/linkspace/path"
)

// BuildDataPoint constructs a DataPoint, upper-bounding data at the maximum
// point size.
func BuildDataPoint(data []byte) (*DataPoint, error) {
	if PointHeaderSize+len(data) > MaxPointSize {
		return nil, lserr.New(lserr.KindConstraint, "packet.BuildDataPoint", ErrDataTooLarge)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return &DataPoint{data: cp}, nil
}

// BuildLinkPoint constructs a LinkPoint from its parts.
func BuildLinkPoint(group [GroupSize]byte, domain [DomainSize]byte, p *path.Path, links []Link, data []byte, createStamp uint64) (*LinkPoint, error) {
	if p == nil {
		p = path.New()
	}
	rooted := p.ToRooted()
	bodyLen := LinkPointHdrExtra + len(links)*LinkWireSize + len(p.Bytes()) + len(data)
	if PointHeaderSize+bodyLen > MaxPointSize {
		return nil, lserr.New(lserr.KindConstraint, "packet.BuildLinkPoint", ErrDataTooLarge)
	}
	linksCopy := make([]Link, len(links))
	copy(linksCopy, links)
	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)
	return &LinkPoint{
		group:       group,
		domain:      domain,
		createStamp: createStamp,
		rootedPath:  rooted,
		links:       linksCopy,
		data:        dataCopy,
	}, nil
}

// BuildKeyPoint constructs a LinkPoint body identical to BuildLinkPoint, then
// signs the unsigned content hash with decred's secp256k1 Schnorr scheme
// (EC-Schnorr-DCRv0, which is not BIP340) and appends (x-only pubkey,
// signature). The packet's final canonical hash covers the full signed byte
// image, per §4.2.
func BuildKeyPoint(signingKey *secp256k1.PrivateKey, group [GroupSize]byte, domain [DomainSize]byte, p *path.Path, links []Link, data []byte, createStamp uint64) (*KeyPoint, error) {
	lp, err := BuildLinkPoint(group, domain, p, links, data, createStamp)
	if err != nil {
		return nil, err
	}
	unsignedBody := lp.pointBytes(TypeLink, nil)
	if len(unsignedBody)+SignedBlockSize > MaxPointSize {
		return nil, lserr.New(lserr.KindConstraint, "packet.BuildKeyPoint", ErrDataTooLarge)
	}
	unsignedHash := CanonicalHash(unsignedBody)

	// Verify rebuilds the pubkey from its x coordinate with an even Y, so
	// sign with the key whose public point has even Y.
	if signingKey.PubKey().SerializeCompressed()[0] == secp256k1.PubKeyFormatCompressedOdd {
		var negated secp256k1.ModNScalar
		negated.NegateVal(&signingKey.Key)
		signingKey = secp256k1.NewPrivateKey(&negated)
	}

	sig, err := schnorr.Sign(signingKey, unsignedHash[:])
	if err != nil {
		return nil, lserr.New(lserr.KindFormat, "packet.BuildKeyPoint", fmt.Errorf("schnorr sign: %w", err))
	}

	var pubkey [32]byte
	compressed := signingKey.PubKey().SerializeCompressed()
	copy(pubkey[:], compressed[1:33])

	var signature [64]byte
	copy(signature[:], sig.Serialize())

	return &KeyPoint{
		LinkPoint: *lp,
		pubkey:    pubkey,
		signature: signature,
	}, nil
}

// Verify reports whether k's signature verifies over k's unsigned content
// hash under k's declared pubkey.
func (k *KeyPoint) Verify() bool {
	unsignedBody := k.LinkPoint.pointBytes(TypeLink, nil)
	unsignedHash := CanonicalHash(unsignedBody)

	sig, err := schnorr.ParseSignature(k.signature[:])
	if err != nil {
		return false
	}
	// The stored pubkey is x-only and BuildKeyPoint signs with the even-Y key;
	// reconstruct a full point by assuming the compressed 0x02 (even) prefix.
	compressed := append([]byte{0x02}, k.pubkey[:]...)
	pk, err := secp256k1.ParsePubKey(compressed)
	if err != nil {
		return false
	}
	return sig.Verify(unsignedHash[:], pk)
}
