// Package abescope is the contract this core exposes to an external ABE
// template evaluator (§6.3), a collaborator explicitly out of scope here:
// field enumeration, per-field byte extraction, and a bytes-to-string
// encode step. It defines the Scope interface an ABE evaluator consults —
// try_apply_func/try_encode in spec.md's naming — and a PacketScope
// implementation backed by one packet.NetPacket, but carries no template
// parser or escape-language logic of its own.
package abescope

import (
	"encoding/base64"

	"github.com/linkspace/linkspace/packet"
	"github.com/linkspace/linkspace/predicate"
)

// Scope is what an ABE template evaluator consults while rendering an
// expression against a packet. TryApplyFunc and TryEncode report false
// (with a nil error) when id names a function this scope doesn't provide,
// letting the evaluator fall through to its own builtins.
type Scope interface {
	// Field returns the byte encoding of the named field (one of
	// predicate.FieldNames()), or false if unknown/not applicable to the
	// underlying packet variant.
	Field(name string) ([]byte, bool)
	TryApplyFunc(id string, args [][]byte) (result []byte, ok bool, err error)
	TryEncode(id string, args [][]byte, data []byte) (encoded string, ok bool, err error)
}

// PacketScope implements Scope over one NetPacket, using packet.FieldBytes
// for field lookups and supporting the "b64"/"b64url" encode ids named in
// §6.3 ("base64 encodings").
type PacketScope struct {
	Packet *packet.NetPacket
}

// NewPacketScope returns a Scope backed by np.
func NewPacketScope(np *packet.NetPacket) *PacketScope {
	return &PacketScope{Packet: np}
}

// Field looks up name in the packet/predicate field table (§4.3); it knows
// every name predicate.FieldNames() enumerates except the four scope
// counters, which have no meaning against a single packet in isolation.
func (s *PacketScope) Field(name string) ([]byte, bool) {
	for _, f := range counterFieldNames {
		if name == f {
			return nil, false
		}
	}
	return packet.FieldBytes(s.Packet, name)
}

var counterFieldNames = []string{"i", "i_new", "i_db", "i_branch"}

// TryApplyFunc has no builtins of its own; a PacketScope only answers field
// lookups and encode requests, per §6.3's statement that the core exposes
// field enumeration/extraction and an encode step (not a function library).
func (s *PacketScope) TryApplyFunc(string, [][]byte) ([]byte, bool, error) {
	return nil, false, nil
}

// TryEncode implements the "bytes -> ABE string" encode step for the two
// base64 variants an ABE template commonly names.
func (s *PacketScope) TryEncode(id string, _ [][]byte, data []byte) (string, bool, error) {
	switch id {
	case "b64", "base64":
		return base64.StdEncoding.EncodeToString(data), true, nil
	case "b64url":
		return base64.RawURLEncoding.EncodeToString(data), true, nil
	default:
		return "", false, nil
	}
}

// FieldNames re-exports predicate.FieldNames() for an evaluator that only
// imports abescope.
func FieldNames() []string { return predicate.FieldNames() }
