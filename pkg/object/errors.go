package object

import "fmt"

// ErrorKind is the closed set of failure classes the store reports.
type ErrorKind int

const (
	// ErrNotFound means no object with the requested hash exists.
	ErrNotFound ErrorKind = iota
	// ErrCorrupt means the object exists but its envelope, checksum, or
	// compressed payload could not be decoded.
	ErrCorrupt
)

func (k ErrorKind) String() string {
	switch k {
	case ErrNotFound:
		return "not found"
	case ErrCorrupt:
		return "corrupt"
	default:
		return "unknown"
	}
}

// Error is a store failure carrying the object hash it concerns. Both
// kinds are fatal to any operation that needed the object.
type Error struct {
	Kind ErrorKind
	Hash Hash
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("object %s: %s: %v", e.Hash.Short(), e.Kind, e.Err)
	}
	return fmt.Sprintf("object %s: %s", e.Hash.Short(), e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match against a bare *Error with only Kind set.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Hash == "" || t.Hash == e.Hash)
}

func notFound(h Hash, err error) *Error { return &Error{Kind: ErrNotFound, Hash: h, Err: err} }
func corrupt(h Hash, err error) *Error  { return &Error{Kind: ErrCorrupt, Hash: h, Err: err} }
