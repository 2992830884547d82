// Package treekey derives and range-compiles the composite TreeIndex key:
// group || domain || rooted-path-header || path-bytes || create || pubkey.
// The fixed-prefix/variable-tail/fixed-suffix layout, and stripping a known
// prefix off a composite key to recover just the variable middle, follows
// the teacher storage engine's own stripBucketPrefix idiom for its bucketed
// index keys (store/index/index.go).
package treekey

import (
	"bytes"
	"encoding/binary"

	"github.com/linkspace/linkspace/packet"
	"github.com/linkspace/linkspace/path"
)

const (
	groupOff      = 0
	domainOff     = groupOff + packet.GroupSize
	pathHeaderOff = domainOff + packet.DomainSize
	pathHeaderLen = path.RootedHeaderLen
	pathTailOff   = pathHeaderOff + pathHeaderLen
)

// Key is a fully-derived TreeIndex composite key for one LinkPoint.
type Key []byte

// Derive builds the composite key for lp: group || domain ||
// rooted-path-header || path-bytes || create || pubkey. pubkey is empty for
// an unsigned LinkPoint (KeyPoint-only fields are appended when present).
func Derive(group [packet.GroupSize]byte, domain [packet.DomainSize]byte, rp *path.RootedPath, create uint64, pubkey []byte) Key {
	header := rp.HeaderBytes()
	inner := rp.Inner().Bytes()

	out := make(Key, 0, pathTailOff+len(inner)+8+len(pubkey))
	out = append(out, group[:]...)
	out = append(out, domain[:]...)
	out = append(out, header...)
	out = append(out, inner...)
	createBuf := make([]byte, 8)
	binary.BigEndian.PutUint64(createBuf, create)
	out = append(out, createBuf...)
	out = append(out, pubkey...)
	return out
}

// GroupDomainPrefix returns the fixed group||domain prefix shared by every
// key rooted in that group/domain pair.
func GroupDomainPrefix(group [packet.GroupSize]byte, domain [packet.DomainSize]byte) []byte {
	out := make([]byte, 0, pathHeaderOff)
	out = append(out, group[:]...)
	out = append(out, domain[:]...)
	return out
}

// StripPrefix removes a known group||domain prefix from a composite key,
// returning the rooted-path-header-onward tail, mirroring the teacher's
// stripBucketPrefix: callers that already know the fixed prefix (because
// they're iterating a single group/domain's range) don't need to re-parse it
// out of every key.
func StripPrefix(key Key, prefixLen int) []byte {
	if prefixLen > len(key) {
		return nil
	}
	return key[prefixLen:]
}

// PathBytes extracts the variable path tail (header + inner bytes) from a
// composite key, walking the header's depth count of length-prefixed
// components. It returns nil if the key is too short to hold them.
func PathBytes(key Key) []byte {
	if len(key) < pathTailOff {
		return nil
	}
	end := pathTailOff
	for i := 0; i < int(key[pathHeaderOff]); i++ {
		if end >= len(key) {
			return nil
		}
		end += 1 + int(key[end])
	}
	if end > len(key) {
		return nil
	}
	return key[pathHeaderOff:end]
}

// Compare orders two composite keys by raw byte comparison, which is exactly
// the order bbolt's cursor iterates a bucket in (see store package) — no
// separate in-memory sort is ever needed for a TreeIndex range scan.
func Compare(a, b Key) int {
	return bytes.Compare(a, b)
}
