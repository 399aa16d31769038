package color

import "fmt"

// Intent is an ICC rendering intent.
type Intent int

// Rendering intents, numbered as in the ICC header.
const (
	IntentPerceptual           Intent = 0
	IntentRelativeColorimetric Intent = 1
	IntentSaturation           Intent = 2
	IntentAbsoluteColorimetric Intent = 3
)

// Intents lists every rendering intent in ICC order.
var Intents = []Intent{
	IntentPerceptual,
	IntentRelativeColorimetric,
	IntentSaturation,
	IntentAbsoluteColorimetric,
}

// ParseIntent converts a string intent name to an Intent.
func ParseIntent(s string) (Intent, error) {
	switch s {
	case "perceptual":
		return IntentPerceptual, nil
	case "relative":
		return IntentRelativeColorimetric, nil
	case "saturation":
		return IntentSaturation, nil
	case "absolute":
		return IntentAbsoluteColorimetric, nil
	default:
		return 0, fmt.Errorf("unknown rendering intent: %q", s)
	}
}

func (i Intent) String() string {
	switch i {
	case IntentPerceptual:
		return "perceptual"
	case IntentRelativeColorimetric:
		return "relative"
	case IntentSaturation:
		return "saturation"
	case IntentAbsoluteColorimetric:
		return "absolute"
	default:
		return fmt.Sprintf("Intent(%d)", int(i))
	}
}

// Valid reports whether i is one of the four ICC intents.
func (i Intent) Valid() bool {
	return i >= IntentPerceptual && i <= IntentAbsoluteColorimetric
}
