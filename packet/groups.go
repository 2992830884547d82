package packet

// DefaultPublicGroup is the conventional broadcastable group: all-zero
// except a deployment-designated trailing byte (§6.2). The designated byte
// is a per-Linkspace-instance Option in the root package; this is just the
// zero-configuration default.
var DefaultPublicGroup = [GroupSize]byte{31: 0x01}

// PrivateGroup is the sentinel "never leave this node" group: all bits set,
// a value no deployment's designated-byte PublicGroup can produce by
// accident. Parsers reject it unless allowPrivate is set, and it is always
// excluded from any exchange.
var PrivateGroup = [GroupSize]byte{
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
}
