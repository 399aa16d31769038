package color

import (
	"errors"
	"fmt"
	"math"
)

// PCSKind identifies a Profile Connection Space.
type PCSKind int

const (
	PCSXYZ PCSKind = iota
	PCSLab
)

// Signature returns the four-byte ICC signature of the PCS.
func (k PCSKind) Signature() string {
	switch k {
	case PCSXYZ:
		return "XYZ "
	case PCSLab:
		return "Lab "
	default:
		return "????"
	}
}

func (k PCSKind) String() string {
	return ColorSpaceName(k.Signature())
}

// Chromaticity is a CIE 1931 xy coordinate.
type Chromaticity struct {
	X, Y float64
}

// XYZ returns the tristimulus value of c normalized to Y = 1.
func (c Chromaticity) XYZ() Vec3 {
	return Vec3{c.X / c.Y, 1, (1 - c.X - c.Y) / c.Y}
}

func (c Chromaticity) valid() bool {
	if math.IsNaN(c.X) || math.IsNaN(c.Y) || math.IsInf(c.X, 0) || math.IsInf(c.Y, 0) {
		return false
	}
	return c.Y > 0 && c.X >= 0 && c.X+c.Y <= 1
}

// Primaries holds the chromaticities of an RGB device's colorants.
type Primaries struct {
	Red, Green, Blue Chromaticity
}

// Description is the standard, data-only description of an RGB display
// profile from which an RGBProfile is derived.
type Description struct {
	Name       string
	ColorSpace string // ICC signature, e.g. "RGB "
	PCS        PCSKind
	White      Chromaticity
	Curve      Curve
	// Intents holds colorant data per rendering intent. Matrix/TRC display
	// profiles normally carry only relative colorimetric data.
	Intents map[Intent]Primaries
}

// StageData is the device<->PCS transform data of one profile for one intent.
//
// For DeviceToPCS, Curves are applied with Curve.Eval and then Matrix maps
// linear device RGB to D50 XYZ. For PCSToDevice, Matrix maps D50 XYZ to
// linear device RGB and Curves are applied with Curve.Inverse.
type StageData struct {
	Curves [3]Curve
	Matrix Mat3
	PCS    PCSKind
}

// Profile is the capability the linker needs from a device profile.
type Profile interface {
	Name() string
	ColorSpace() string
	PCS() PCSKind
	// WhitePoint returns the media white point in XYZ (Y = 1).
	WhitePoint() Vec3
	Supports(intent Intent) bool
	DeviceToPCS(intent Intent) (StageData, error)
	PCSToDevice(intent Intent) (StageData, error)
}

// RGBProfile is an immutable matrix/TRC RGB profile.
type RGBProfile struct {
	name    string
	space   string
	pcs     PCSKind
	white   Vec3
	forward map[Intent]StageData
	inverse map[Intent]StageData
}

var _ Profile = (*RGBProfile)(nil)

// NewProfile builds an RGBProfile from a standard description.
func NewProfile(desc Description) (*RGBProfile, error) {
	fail := func(kind ProfileErrorKind, format string, args ...any) error {
		return &ProfileError{Kind: kind, Profile: desc.Name, Detail: fmt.Sprintf(format, args...)}
	}

	if desc.Name == "" {
		return nil, fail(Malformed, "missing profile name")
	}
	if desc.ColorSpace != "RGB " {
		return nil, fail(UnsupportedTag, "color space %q", desc.ColorSpace)
	}
	if desc.PCS != PCSXYZ && desc.PCS != PCSLab {
		return nil, fail(UnsupportedTag, "PCS %d", int(desc.PCS))
	}
	if err := desc.Curve.Validate(); err != nil {
		var perr *ProfileError
		if errors.As(err, &perr) {
			perr.Profile = desc.Name
		}
		return nil, err
	}
	if !desc.White.valid() {
		return nil, fail(Malformed, "white point chromaticity %v", desc.White)
	}
	if len(desc.Intents) == 0 {
		return nil, fail(Malformed, "no colorant data")
	}

	white := desc.White.XYZ()
	cat, err := Adaptation(white, D50)
	if err != nil {
		return nil, fail(Malformed, "white point: %v", err)
	}

	p := &RGBProfile{
		name:    desc.Name,
		space:   desc.ColorSpace,
		pcs:     desc.PCS,
		white:   white,
		forward: make(map[Intent]StageData, len(desc.Intents)),
		inverse: make(map[Intent]StageData, len(desc.Intents)),
	}
	curves := [3]Curve{desc.Curve, desc.Curve, desc.Curve}

	for intent, prim := range desc.Intents {
		if !intent.Valid() {
			return nil, fail(Malformed, "colorants for unknown intent %d", int(intent))
		}
		m, err := primariesMatrix(prim, white)
		if err != nil {
			return nil, fail(Malformed, "%s colorants: %v", intent, err)
		}
		m = cat.Mul(m)
		inv, err := m.Invert()
		if err != nil {
			return nil, fail(Malformed, "%s colorants: %v", intent, err)
		}
		p.forward[intent] = StageData{Curves: curves, Matrix: m, PCS: desc.PCS}
		p.inverse[intent] = StageData{Curves: curves, Matrix: inv, PCS: desc.PCS}
	}
	return p, nil
}

// primariesMatrix derives the linear RGB -> XYZ matrix whose white (1,1,1)
// maps to white.
func primariesMatrix(prim Primaries, white Vec3) (Mat3, error) {
	for _, c := range []Chromaticity{prim.Red, prim.Green, prim.Blue} {
		if !c.valid() {
			return Mat3{}, fmt.Errorf("invalid chromaticity %v", c)
		}
	}
	r, g, b := prim.Red.XYZ(), prim.Green.XYZ(), prim.Blue.XYZ()
	p := Mat3{
		{r[0], g[0], b[0]},
		{r[1], g[1], b[1]},
		{r[2], g[2], b[2]},
	}
	inv, err := p.Invert()
	if err != nil {
		return Mat3{}, err
	}
	s := inv.MulVec(white)
	m := p.Mul(Diag(s))
	if !m.IsFinite() {
		return Mat3{}, errSingular
	}
	return m, nil
}

func (p *RGBProfile) Name() string       { return p.name }
func (p *RGBProfile) ColorSpace() string { return p.space }
func (p *RGBProfile) PCS() PCSKind       { return p.pcs }
func (p *RGBProfile) WhitePoint() Vec3   { return p.white }

// Supports reports whether the profile carries its own data for intent.
func (p *RGBProfile) Supports(intent Intent) bool {
	_, ok := p.forward[intent]
	return ok
}

// DeviceToPCS returns the device -> PCS stage data for intent.
func (p *RGBProfile) DeviceToPCS(intent Intent) (StageData, error) {
	return p.lookup(p.forward, intent)
}

// PCSToDevice returns the PCS -> device stage data for intent.
func (p *RGBProfile) PCSToDevice(intent Intent) (StageData, error) {
	return p.lookup(p.inverse, intent)
}

// lookup falls back to relative colorimetric, the ICC default, and never to
// any other intent.
func (p *RGBProfile) lookup(table map[Intent]StageData, intent Intent) (StageData, error) {
	if !intent.Valid() {
		return StageData{}, &ProfileError{Kind: MissingIntentData, Profile: p.name, Detail: intent.String()}
	}
	if sd, ok := table[intent]; ok {
		return sd, nil
	}
	if sd, ok := table[IntentRelativeColorimetric]; ok {
		return sd, nil
	}
	return StageData{}, &ProfileError{
		Kind:    MissingIntentData,
		Profile: p.name,
		Detail:  fmt.Sprintf("no %s or relative colorimetric data", intent),
	}
}
