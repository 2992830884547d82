package matcher

// errorType mirrors the path/predicate/query packages' sentinel-error idiom.
type errorType string

func (e errorType) Error() string { return string(e) }

const (
	ErrNoSuchWatch      = errorType("matcher: no such watch")
	ErrCounterExhausted = errorType("matcher: i/i_new predicate admits no future match")
)
