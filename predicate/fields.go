package predicate

// Field identifies an addressable packet/context field (§4.3).
type Field int

const (
	FieldType Field = iota
	FieldHash
	FieldGroup
	FieldDomain
	FieldCreate
	FieldPath
	FieldPathLen
	FieldPrefix
	FieldPubkey
	FieldSignature
	FieldPointSize
	FieldDataSize
	FieldLinksLen
	FieldComp0
	FieldComp1
	FieldComp2
	FieldComp3
	FieldComp4
	FieldComp5
	FieldComp6
	FieldComp7
	FieldNetFlags
	FieldHop
	FieldStamp
	FieldUbits0
	FieldUbits1
	FieldUbits2
	FieldUbits3
	FieldRecv
	FieldI
	FieldINew
	FieldIDb
	FieldIBranch
)

// Kind distinguishes fixed-width integer/byte fields (TestSet) from
// variable-length byte fields (ByteRange) and the special path-prefix chain.
type Kind int

const (
	KindFixed Kind = iota
	KindBytes
	KindPrefixChain
)

type fieldInfo struct {
	name string
	kind Kind
	bits int // meaningful only for KindFixed
}

var fieldTable = map[Field]fieldInfo{
	FieldType:      {"type", KindFixed, 8},
	FieldHash:      {"hash", KindFixed, 256},
	FieldGroup:     {"group", KindFixed, 256},
	FieldDomain:    {"domain", KindFixed, 128},
	FieldCreate:    {"create", KindFixed, 64},
	FieldPath:      {"path", KindBytes, 0},
	FieldPathLen:   {"path_len", KindFixed, 8},
	FieldPrefix:    {"prefix", KindPrefixChain, 0},
	FieldPubkey:    {"pubkey", KindFixed, 256},
	FieldSignature: {"signature", KindFixed, 512},
	FieldPointSize: {"point_size", KindFixed, 16},
	FieldDataSize:  {"data_size", KindFixed, 32},
	FieldLinksLen:  {"links_len", KindFixed, 32},
	FieldComp0:     {"comp0", KindBytes, 0},
	FieldComp1:     {"comp1", KindBytes, 0},
	FieldComp2:     {"comp2", KindBytes, 0},
	FieldComp3:     {"comp3", KindBytes, 0},
	FieldComp4:     {"comp4", KindBytes, 0},
	FieldComp5:     {"comp5", KindBytes, 0},
	FieldComp6:     {"comp6", KindBytes, 0},
	FieldComp7:     {"comp7", KindBytes, 0},
	FieldNetFlags:  {"netflags", KindFixed, 8},
	FieldHop:       {"hop", KindFixed, 32},
	FieldStamp:     {"stamp", KindFixed, 64},
	FieldUbits0:    {"ubits0", KindFixed, 32},
	FieldUbits1:    {"ubits1", KindFixed, 32},
	FieldUbits2:    {"ubits2", KindFixed, 32},
	FieldUbits3:    {"ubits3", KindFixed, 32},
	FieldRecv:      {"recv", KindFixed, 64},
	FieldI:         {"i", KindFixed, 32},
	FieldINew:      {"i_new", KindFixed, 32},
	FieldIDb:       {"i_db", KindFixed, 32},
	FieldIBranch:   {"i_branch", KindFixed, 32},
}

// Name returns the canonical field name.
func (f Field) Name() string { return fieldTable[f].name }

// Bits returns the bit width for a KindFixed field.
func (f Field) Bits() int { return fieldTable[f].bits }

// FieldKind reports how the field's TestSet is represented.
func (f Field) FieldKind() Kind { return fieldTable[f].kind }

// FieldNames returns every addressable field name, for an external ABE
// evaluator's field enumeration (§6.3).
func FieldNames() []string {
	names := make([]string, 0, len(fieldTable))
	for f := range fieldTable {
		names = append(names, fieldTable[f].name)
	}
	return names
}

// counterFields lists the four scope counters (§4.3).
var counterFields = []Field{FieldI, FieldINew, FieldIDb, FieldIBranch}

// IsCounter reports whether f is one of i, i_new, i_db, i_branch.
func (f Field) IsCounter() bool {
	for _, c := range counterFields {
		if c == f {
			return true
		}
	}
	return false
}
