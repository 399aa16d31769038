package cms

import (
	"errors"
	"fmt"

	"github.com/oovm/ScreenshotSimulator/internal/color"
)

// WhitePointEpsilon is the per-component XYZ tolerance under which two media
// white points are treated as equal.
const WhitePointEpsilon = 1e-4

// LinkOptions is the policy for one adjacent pair of profiles.
type LinkOptions struct {
	Intent                 color.Intent
	BlackPointCompensation bool
	// AdaptationState blends absolute-colorimetric white scaling toward full
	// adaptation: 0 keeps the media whites apart, 1 adapts them completely.
	AdaptationState float64
}

// LinkSpec is an ordered chain of profiles. Links is indexed per adjacent
// pair: Links[i] governs Profiles[i] -> Profiles[i+1], so
// len(Links) == len(Profiles)-1.
type LinkSpec struct {
	Profiles []color.Profile
	Links    []LinkOptions
}

// Uniform returns a LinkSpec that applies opts to every pair in profiles.
func Uniform(opts LinkOptions, profiles ...color.Profile) LinkSpec {
	links := make([]LinkOptions, max(len(profiles)-1, 0))
	for i := range links {
		links[i] = opts
	}
	return LinkSpec{Profiles: profiles, Links: links}
}

// Link compiles spec into a Pipeline.
func Link(spec LinkSpec) (*Pipeline, error) {
	n := len(spec.Profiles)
	if n < 2 {
		return nil, &LinkError{Kind: EmptyChain, Link: -1, Detail: fmt.Sprintf("%d profile(s), need at least 2", n)}
	}
	if len(spec.Links) != n-1 {
		return nil, &LinkError{
			Kind:   ArityMismatch,
			Link:   -1,
			Detail: fmt.Sprintf("%d profiles need %d link options, got %d", n, n-1, len(spec.Links)),
		}
	}
	for i, p := range spec.Profiles {
		if p == nil {
			return nil, &LinkError{Kind: ProfileFailure, Link: max(i-1, 0), Detail: fmt.Sprintf("profile %d is nil", i)}
		}
	}

	p := &Pipeline{names: make([]string, 0, n)}
	for _, prof := range spec.Profiles {
		p.names = append(p.names, prof.Name())
	}
	for i, opts := range spec.Links {
		stages, err := linkPair(spec.Profiles[i], spec.Profiles[i+1], opts)
		if err != nil {
			var lerr *LinkError
			if errors.As(err, &lerr) {
				lerr.Link = i
				return nil, lerr
			}
			return nil, &LinkError{Kind: ProfileFailure, Link: i, Err: err}
		}
		p.stages = append(p.stages, stages...)
	}

	p.intent = spec.Links[n-2].Intent
	last := spec.Profiles[n-1]
	fwd, err := last.DeviceToPCS(p.intent)
	if err != nil {
		return nil, &LinkError{Kind: ProfileFailure, Link: n - 2, Err: err}
	}
	p.stages = append(p.stages, clipStage{
		compress: p.intent == color.IntentPerceptual,
		curves:   fwd.Curves,
		luma:     color.Vec3(fwd.Matrix[1]),
	})
	return p, nil
}

func linkPair(src, dst color.Profile, opts LinkOptions) ([]Stage, error) {
	if src.PCS() != dst.PCS() {
		return nil, &LinkError{
			Kind:   IncompatiblePCS,
			Detail: fmt.Sprintf("%s uses %s, %s uses %s", src.Name(), src.PCS(), dst.Name(), dst.PCS()),
		}
	}
	in, err := src.DeviceToPCS(opts.Intent)
	if err != nil {
		return nil, err
	}
	out, err := dst.PCSToDevice(opts.Intent)
	if err != nil {
		return nil, err
	}

	var pcs []Stage
	if opts.Intent == color.IntentAbsoluteColorimetric {
		if s, ok := absoluteStage(src.WhitePoint(), dst.WhitePoint(), opts.AdaptationState); ok {
			pcs = append(pcs, s)
		}
	}
	if opts.BlackPointCompensation && opts.Intent != color.IntentAbsoluteColorimetric {
		dstFwd, err := dst.DeviceToPCS(opts.Intent)
		if err != nil {
			return nil, err
		}
		s, ok, err := blackPointStage(blackPoint(in), blackPoint(dstFwd))
		if err != nil {
			return nil, &color.ProfileError{Kind: color.Malformed, Profile: src.Name(), Detail: err.Error()}
		}
		if ok {
			pcs = append(pcs, s)
		}
	}

	lab := src.PCS() == color.PCSLab
	stages := []Stage{
		curveStage{kind: StageDeviceCurve, curves: in.Curves},
		matrixStage{kind: StageDeviceMatrix, m: in.Matrix},
	}
	if lab {
		stages = append(stages, pcsStage{toLab: true})
	}
	if len(pcs) > 0 {
		if lab {
			stages = append(stages, pcsStage{})
		}
		stages = append(stages, pcs...)
		if lab {
			stages = append(stages, pcsStage{toLab: true})
		}
	}
	if lab {
		stages = append(stages, pcsStage{})
	}
	stages = append(stages,
		matrixStage{kind: StagePCSMatrix, m: out.Matrix},
		curveStage{kind: StageOutputCurve, curves: out.Curves, inverse: true},
	)
	return stages, nil
}

// absoluteStage rescales PCS values by the ratio of media whites so the
// source white lands on the destination's media white instead of on D50.
func absoluteStage(srcWhite, dstWhite color.Vec3, state float64) (Stage, bool) {
	if srcWhite.Close(dstWhite, WhitePointEpsilon) {
		return nil, false
	}
	var scale color.Vec3
	for i := range scale {
		if dstWhite[i] == 0 {
			return nil, false
		}
		scale[i] = srcWhite[i] / dstWhite[i]
	}
	state = max(0, min(state, 1))
	m := color.Diag(scale).Lerp(color.Identity, state)
	return matrixStage{kind: StageAdaptation, m: m}, true
}

// blackPoint is the PCS value (XYZ) of device black.
func blackPoint(sd color.StageData) color.Vec3 {
	var lin color.Vec3
	for i, c := range sd.Curves {
		lin[i] = c.Eval(0)
	}
	return sd.Matrix.MulVec(lin)
}

// blackPointStage maps src black to dst black while keeping the D50 white
// fixed, independently per XYZ component.
func blackPointStage(src, dst color.Vec3) (Stage, bool, error) {
	if src.Close(dst, WhitePointEpsilon) {
		return nil, false, nil
	}
	var scale, offset color.Vec3
	for i := range scale {
		w := color.D50[i]
		if src[i] >= w {
			return nil, false, fmt.Errorf("black point %v is not below the PCS white", src)
		}
		scale[i] = (w - dst[i]) / (w - src[i])
		offset[i] = w * (dst[i] - src[i]) / (w - src[i])
	}
	return matrixStage{kind: StageBlackPoint, m: color.Diag(scale), offset: offset}, true, nil
}
