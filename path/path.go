// Package path implements linkspace's bounded, length-delimited path
// component sequences (Path) and their precomputed-offset wire variant
// (RootedPath). The encoding style — a small fixed header in front of a
// variable tail, read and written with encoding/binary — follows the framing
// used throughout the teacher storage engine's own record lists.
package path

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/linkspace/linkspace/lserr"
)

const (
	// MaxComponents is the maximum number of components in a Path.
	MaxComponents = 8
	// MaxComponentLen is the maximum byte length of a single component.
	MaxComponentLen = 200
	// MaxWireLen is the maximum total wire size of a Path: sum over all
	// components of (1 length byte + component bytes).
	MaxWireLen = 242
	// RootedHeaderLen is the size of the fixed RootedPath header: one depth
	// byte followed by seven saturating component offsets.
	RootedHeaderLen = 8
)

// Path is an ordered sequence of at most MaxComponents components, each
// 1..=MaxComponentLen bytes of arbitrary binary.
type Path struct {
	components [][]byte
}

// New returns an empty Path.
func New() *Path { return &Path{} }

// Push appends a component, validating its length and the path's bounds.
func (p *Path) Push(component []byte) error {
	if len(component) == 0 {
		return lserr.New(lserr.KindConstraint, "path.Push", fmt.Errorf("%w", ErrZeroComponent))
	}
	if len(component) > MaxComponentLen {
		return lserr.New(lserr.KindConstraint, "path.Push", fmt.Errorf("%w: %d bytes", ErrComponentTooLarge, len(component)))
	}
	if len(p.components) >= MaxComponents {
		return lserr.New(lserr.KindConstraint, "path.Push", fmt.Errorf("%w", ErrDepthExceeded))
	}
	cand := p.wireLen() + 1 + len(component)
	if cand > MaxWireLen {
		return lserr.New(lserr.KindConstraint, "path.Push", fmt.Errorf("%w", ErrPathTooLong))
	}
	cp := make([]byte, len(component))
	copy(cp, component)
	p.components = append(p.components, cp)
	return nil
}

// Len returns the number of components.
func (p *Path) Len() int { return len(p.components) }

// Component returns the i-th component, or nil if out of range.
func (p *Path) Component(i int) []byte {
	if i < 0 || i >= len(p.components) {
		return nil
	}
	return p.components[i]
}

// Components returns the components in order. The returned slices must not
// be mutated.
func (p *Path) Components() [][]byte { return p.components }

func (p *Path) wireLen() int {
	n := 0
	for _, c := range p.components {
		n += 1 + len(c)
	}
	return n
}

// Bytes serializes the path to its wire form: concatenated (len_u8, bytes)
// tuples.
func (p *Path) Bytes() []byte {
	out := make([]byte, 0, p.wireLen())
	for _, c := range p.components {
		out = append(out, byte(len(c)))
		out = append(out, c...)
	}
	return out
}

// FromBytes validates and parses a Path wire form in one pass.
func FromBytes(b []byte) (*Path, error) {
	if len(b) > MaxWireLen {
		return nil, lserr.New(lserr.KindFormat, "path.FromBytes", ErrPathTooLong)
	}
	p := New()
	i := 0
	for i < len(b) {
		l := int(b[i])
		i++
		if l == 0 {
			return nil, lserr.New(lserr.KindFormat, "path.FromBytes", ErrZeroComponent)
		}
		if i+l > len(b) {
			return nil, lserr.New(lserr.KindFormat, "path.FromBytes", fmt.Errorf("component runs past end of buffer"))
		}
		if len(p.components) >= MaxComponents {
			return nil, lserr.New(lserr.KindFormat, "path.FromBytes", ErrDepthExceeded)
		}
		if err := p.Push(b[i : i+l]); err != nil {
			return nil, err
		}
		i += l
	}
	return p, nil
}

// Prefix returns a new Path holding the first n components.
func (p *Path) Prefix(n int) *Path {
	if n > len(p.components) {
		n = len(p.components)
	}
	out := New()
	for i := 0; i < n; i++ {
		_ = out.Push(p.components[i])
	}
	return out
}

// Suffix returns a new Path holding components from n onward.
func (p *Path) Suffix(n int) *Path {
	out := New()
	for i := n; i < len(p.components); i++ {
		_ = out.Push(p.components[i])
	}
	return out
}

// IsPrefixOf reports whether p's components are a prefix of other's.
func (p *Path) IsPrefixOf(other *Path) bool {
	if p.Len() > other.Len() {
		return false
	}
	for i := 0; i < p.Len(); i++ {
		if !bytes.Equal(p.components[i], other.components[i]) {
			return false
		}
	}
	return true
}

// Compare orders two paths lexicographically over their length-prefixed
// component bytes (i.e. over their wire form), so Compare agrees with
// byte-ordering a stored TreeKey.
func Compare(a, b *Path) int {
	return bytes.Compare(a.Bytes(), b.Bytes())
}

// RootedPath prefixes a Path's wire bytes with an 8-byte offset header.
type RootedPath struct {
	depth   uint8
	offsets [MaxComponents - 1]uint8
	inner   *Path
}

// ToRooted computes the deterministic offset header for p.
func (p *Path) ToRooted() *RootedPath {
	rp := &RootedPath{depth: uint8(p.Len()), inner: p}
	innerLen := p.wireLen()
	off := 0
	for i := 0; i < MaxComponents-1; i++ {
		compIdx := i + 1
		if compIdx < p.Len() {
			off += 1 + len(p.components[compIdx-1])
			// off now points at the length byte of component compIdx;
			// the stored offset is the start of its data, past that byte.
			rp.offsets[i] = uint8(off + 1)
		} else {
			rp.offsets[i] = uint8(innerLen)
		}
	}
	return rp
}

// HeaderBytes returns just the 8-byte offset header, without the inner path
// bytes (used when a caller, e.g. a LinkPoint body, stores the inner path
// bytes in a separate wire segment).
func (rp *RootedPath) HeaderBytes() []byte {
	out := make([]byte, RootedHeaderLen)
	out[0] = rp.depth
	for i, o := range rp.offsets {
		out[1+i] = o
	}
	return out
}

// Bytes serializes the RootedPath: 8-byte header followed by inner path bytes.
func (rp *RootedPath) Bytes() []byte {
	return append(rp.HeaderBytes(), rp.inner.Bytes()...)
}

// Inner returns the underlying Path.
func (rp *RootedPath) Inner() *Path { return rp.inner }

// Depth returns the component count recorded in the header.
func (rp *RootedPath) Depth() uint8 { return rp.depth }

// RootedFromBytes validates the 8-byte header against the inner path and
// returns the combined value, or an error if any invariant is violated:
// depth must match the inner component count, offsets must be
// non-decreasing, and the header's trailing entries must be saturated to
// the inner length.
func RootedFromBytes(b []byte) (*RootedPath, error) {
	if len(b) < RootedHeaderLen {
		return nil, lserr.New(lserr.KindFormat, "path.RootedFromBytes", fmt.Errorf("buffer shorter than header"))
	}
	depth := b[0]
	var offsets [MaxComponents - 1]uint8
	copy(offsets[:], b[1:RootedHeaderLen])
	inner, err := FromBytes(b[RootedHeaderLen:])
	if err != nil {
		return nil, err
	}
	if int(depth) != inner.Len() {
		return nil, lserr.New(lserr.KindFormat, "path.RootedFromBytes", fmt.Errorf("depth %d != component count %d", depth, inner.Len()))
	}
	want := inner.ToRooted()
	if offsets != want.offsets {
		return nil, lserr.New(lserr.KindFormat, "path.RootedFromBytes", fmt.Errorf("offset header does not match deterministic layout"))
	}
	return &RootedPath{depth: depth, offsets: offsets, inner: inner}, nil
}

// RootedFromHeaderAndInner rebuilds a RootedPath from a separately-stored
// 8-byte header and inner Path, validating the header against the
// deterministic layout for inner.
func RootedFromHeaderAndInner(header []byte, inner *Path) (*RootedPath, error) {
	if len(header) != RootedHeaderLen {
		return nil, lserr.New(lserr.KindFormat, "path.RootedFromHeaderAndInner", fmt.Errorf("header must be %d bytes", RootedHeaderLen))
	}
	depth := header[0]
	var offsets [MaxComponents - 1]uint8
	copy(offsets[:], header[1:RootedHeaderLen])
	if int(depth) != inner.Len() {
		return nil, lserr.New(lserr.KindFormat, "path.RootedFromHeaderAndInner", fmt.Errorf("depth %d != component count %d", depth, inner.Len()))
	}
	want := inner.ToRooted()
	if offsets != want.offsets {
		return nil, lserr.New(lserr.KindFormat, "path.RootedFromHeaderAndInner", fmt.Errorf("offset header does not match deterministic layout"))
	}
	return &RootedPath{depth: depth, offsets: offsets, inner: inner}, nil
}
