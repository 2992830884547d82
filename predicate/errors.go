package predicate

// errorType mirrors the path package's cheap comparable sentinel-error idiom.
type errorType string

func (e errorType) Error() string { return string(e) }

const (
	ErrFieldKindMismatch = errorType("predicate: operator does not apply to this field's kind")
	ErrPrefixConflict    = errorType("predicate: path prefix conflicts with an existing prefix predicate")
	ErrSetEmpty          = errorType("predicate: predicate intersection is empty")
)
