package cms

import "fmt"

// LinkErrorKind classifies a LinkError.
type LinkErrorKind int

const (
	// EmptyChain means fewer than two profiles were given.
	EmptyChain LinkErrorKind = iota
	// ArityMismatch means the per-link options do not match the profile count.
	ArityMismatch
	// IncompatiblePCS means two adjacent profiles use different connection spaces.
	IncompatiblePCS
	// ProfileFailure wraps a *color.ProfileError raised by one of the profiles.
	ProfileFailure
)

func (k LinkErrorKind) String() string {
	switch k {
	case EmptyChain:
		return "empty chain"
	case ArityMismatch:
		return "arity mismatch"
	case IncompatiblePCS:
		return "incompatible PCS"
	case ProfileFailure:
		return "profile"
	default:
		return fmt.Sprintf("LinkErrorKind(%d)", int(k))
	}
}

// LinkError reports why a LinkSpec could not be compiled. Link is the index
// of the adjacent pair involved, or -1 when the error concerns the whole spec.
type LinkError struct {
	Kind   LinkErrorKind
	Link   int
	Detail string
	Err    error
}

func (e *LinkError) Error() string {
	msg := "link: " + e.Kind.String()
	if e.Link >= 0 {
		msg = fmt.Sprintf("link %d: %s", e.Link, e.Kind)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LinkError) Unwrap() error { return e.Err }

// Is matches another *LinkError of the same kind.
func (e *LinkError) Is(target error) bool {
	t, ok := target.(*LinkError)
	return ok && t.Kind == e.Kind
}
