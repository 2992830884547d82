package path

// errorType follows the teacher's store/types/errors.go idiom of a string
// type satisfying error for cheap, comparable sentinel values.
type errorType string

func (e errorType) Error() string { return string(e) }

const (
	ErrComponentTooLarge = errorType("path: component exceeds 200 bytes")
	ErrZeroComponent     = errorType("path: zero-length component")
	ErrPathTooLong       = errorType("path: wire form exceeds 242 bytes")
	ErrDepthExceeded     = errorType("path: more than 8 components")
)
