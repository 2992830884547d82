package packet

import "lukechampine.com/blake3"

// CanonicalHash returns the 32-byte BLAKE3 hash over pointBytes (PointHeader
// + variant body, excluding padding and excluding any NetHeader), per the
// hashing contract in §4.2.
func CanonicalHash(pointBytes []byte) Hash {
	sum := blake3.Sum256(pointBytes)
	return Hash(sum)
}

func (d *DataPoint) Hash() Hash { return CanonicalHash(d.PointBytes()) }
func (l *LinkPoint) Hash() Hash { return CanonicalHash(l.PointBytes()) }
func (k *KeyPoint) Hash() Hash  { return CanonicalHash(k.PointBytes()) }

// B64URL returns the unpadded base64url encoding of h, as used in the
// literal test vectors of §8.
func (h Hash) B64URL() string { return b64url(h[:]) }
