package color

import (
	"fmt"
	"sort"
	"sync"
)

// sRGB tone curve as an ICC parametric type 3 function.
var srgbCurve = Curve{
	Type:   CurveSRGB,
	Params: []float64{2.4, 1 / 1.055, 0.055 / 1.055, 1 / 12.92, 0.04045},
}

var (
	whiteD65 = Chromaticity{X: 0.3127, Y: 0.3290}
	whiteD50 = Chromaticity{X: 0.3457, Y: 0.3585}
)

// SRGBDescription describes IEC 61966-2-1 sRGB.
var SRGBDescription = Description{
	Name:       "sRGB",
	ColorSpace: "RGB ",
	PCS:        PCSXYZ,
	White:      whiteD65,
	Curve:      srgbCurve,
	Intents: map[Intent]Primaries{
		IntentRelativeColorimetric: {
			Red:   Chromaticity{X: 0.64, Y: 0.33},
			Green: Chromaticity{X: 0.30, Y: 0.60},
			Blue:  Chromaticity{X: 0.15, Y: 0.06},
		},
	},
}

// DisplayP3Description describes Display P3: DCI-P3 primaries with the D65
// white point and the sRGB tone curve.
var DisplayP3Description = Description{
	Name:       "Display P3",
	ColorSpace: "RGB ",
	PCS:        PCSXYZ,
	White:      whiteD65,
	Curve:      srgbCurve,
	Intents: map[Intent]Primaries{
		IntentRelativeColorimetric: {
			Red:   Chromaticity{X: 0.680, Y: 0.320},
			Green: Chromaticity{X: 0.265, Y: 0.690},
			Blue:  Chromaticity{X: 0.150, Y: 0.060},
		},
	},
}

// ProPhotoDescription describes ROMM RGB (ProPhoto) with a pure 1.8 gamma.
var ProPhotoDescription = Description{
	Name:       "ProPhoto RGB",
	ColorSpace: "RGB ",
	PCS:        PCSXYZ,
	White:      whiteD50,
	Curve:      Gamma(1.8),
	Intents: map[Intent]Primaries{
		IntentRelativeColorimetric: {
			Red:   Chromaticity{X: 0.7347, Y: 0.2653},
			Green: Chromaticity{X: 0.1596, Y: 0.8404},
			Blue:  Chromaticity{X: 0.0366, Y: 0.0001},
		},
	},
}

var builtins = map[string]*Description{
	"srgb":       &SRGBDescription,
	"display-p3": &DisplayP3Description,
	"prophoto":   &ProPhotoDescription,
}

var (
	builtinOnce     sync.Once
	builtinProfiles map[string]*RGBProfile
	builtinErr      error
)

func loadBuiltins() {
	builtinProfiles = make(map[string]*RGBProfile, len(builtins))
	for key, desc := range builtins {
		p, err := NewProfile(*desc)
		if err != nil {
			builtinErr = fmt.Errorf("built-in profile %s: %w", key, err)
			return
		}
		builtinProfiles[key] = p
	}
}

// Builtin returns the built-in profile registered under name
// ("srgb", "display-p3" or "prophoto").
func Builtin(name string) (*RGBProfile, error) {
	builtinOnce.Do(loadBuiltins)
	if builtinErr != nil {
		return nil, builtinErr
	}
	p, ok := builtinProfiles[name]
	if !ok {
		return nil, fmt.Errorf("unknown built-in profile %q (available: %v)", name, BuiltinNames())
	}
	return p, nil
}

// BuiltinNames lists the registered built-in profile names.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SRGB returns the built-in sRGB profile.
func SRGB() *RGBProfile { return mustBuiltin("srgb") }

// DisplayP3 returns the built-in Display P3 profile.
func DisplayP3() *RGBProfile { return mustBuiltin("display-p3") }

// ProPhotoRGB returns the built-in ProPhoto RGB profile.
func ProPhotoRGB() *RGBProfile { return mustBuiltin("prophoto") }

func mustBuiltin(name string) *RGBProfile {
	p, err := Builtin(name)
	if err != nil {
		panic(err)
	}
	return p
}
