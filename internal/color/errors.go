package color

import "fmt"

// ProfileErrorKind classifies a ProfileError.
type ProfileErrorKind int

const (
	// Malformed means the description is internally inconsistent.
	Malformed ProfileErrorKind = iota
	// UnsupportedTag means the description uses a feature this CMM does not implement.
	UnsupportedTag
	// MissingIntentData means no stage data exists for the intent, even after
	// falling back to relative colorimetric.
	MissingIntentData
)

func (k ProfileErrorKind) String() string {
	switch k {
	case Malformed:
		return "malformed"
	case UnsupportedTag:
		return "unsupported tag"
	case MissingIntentData:
		return "missing intent data"
	default:
		return fmt.Sprintf("ProfileErrorKind(%d)", int(k))
	}
}

// ProfileError reports a failure to build or query a color profile.
type ProfileError struct {
	Kind    ProfileErrorKind
	Profile string
	Detail  string
}

func (e *ProfileError) Error() string {
	name := e.Profile
	if name == "" {
		name = "profile"
	}
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", name, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %s", name, e.Kind, e.Detail)
}

// Is matches another *ProfileError of the same kind, so callers can test
// errors.Is(err, &color.ProfileError{Kind: color.MissingIntentData}).
func (e *ProfileError) Is(target error) bool {
	t, ok := target.(*ProfileError)
	return ok && t.Kind == e.Kind
}
