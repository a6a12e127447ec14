// Package quant implements the nonlinear quantizer that maps MDCT
// coefficients to integer magnitudes under a global gain.
package quant

import (
	"math"

	"github.com/mp3enc/lame/internal/granule"
	"github.com/mp3enc/lame/internal/tables"
)

// Kind selects the per-coefficient rounding rule.
type Kind int

const (
	KindISO    Kind = iota // truncating cast, ROUNDFAC=0.4054
	KindXR34               // xr^3/4-refined bias correction via adj43
)

// NoiseCache lets the quantizer skip bands whose effective step hasn't
// changed since the previous probe: Step[sfb] holds the step used last
// time that band was
// quantized, and Ix holds the resulting magnitudes.
type NoiseCache struct {
	Step [granule.SFBMax]float64
	Ix   [granule.CoeffCount]int
	Hit  [granule.SFBMax]bool
}

// Reset clears the cache for a fresh granule.
func (c *NoiseCache) Reset() {
	*c = NoiseCache{}
}

// ErrOverflow is returned when xrpow_max exceeds what the requested global
// gain can encode — the caller must
// retry with a larger gain rather than trust the returned ix.
var ErrOverflow = quantOverflow{}

type quantOverflow struct{}

func (quantOverflow) Error() string { return "quant: xrpow_max exceeds encodable range for this global gain" }

// Quantize fills ix[0:maxNonzero+1] from |xr|^(3/4) using the per-band step
// implied by globalGain, the granule's scalefac/preflag/scalefac_scale and
// subblock_gain, reusing cache entries whose step is unchanged. It returns
// ErrOverflow, leaving ix unmodified, if the precondition xrpow_max <= IXMAX_VAL/IPOW20(globalGain) is violated.
func Quantize(fc *granule.FrameContext, g *granule.GranuleInfo, kind Kind, globalGain int, cache *NoiseCache) error {
	p := tables.Tables()

	if g.XrPowMax > 0 {
		limit := float64(tables.IXMaxVal) / p.IPow20At(globalGain)
		if g.XrPowMax > limit {
			return ErrOverflow
		}
	}

	maxNonzero := g.MaxNonzeroCoeff
	for i := maxNonzero + 1; i < granule.CoeffCount; i++ {
		g.L3Enc[i] = 0
	}

	sfbEnd := g.SfbMax
	if sfbEnd == 0 || sfbEnd > granule.SFBMax {
		sfbEnd = tables.SBMaxLong
	}

	for sfb := 0; sfb < sfbEnd; sfb++ {
		lo, hi := bandRange(fc, g, sfb)
		if lo > maxNonzero {
			continue
		}
		if hi > maxNonzero+1 {
			hi = maxNonzero + 1
		}

		sf, _ := g.Scalefac[sfb].Value()
		amp := sf + g.Preflag*pretabAt(sfb)
		idx := globalGain - (amp << uint(g.ScalefacScale+1)) - 8*g.SubblockGain[windowOf(g, sfb)]
		step := p.Pow20At(idx + tables.QMax2)

		if cache != nil && cache.Hit[sfb] && cache.Step[sfb] == step {
			copy(g.L3Enc[lo:hi], cache.Ix[lo:hi])
			continue
		}

		istep := p.IPow20At(idx)
		for i := lo; i < hi; i++ {
			g.L3Enc[i] = quantizeOne(kind, math.Pow(math.Abs(g.Xr[i]), 0.75), istep, p)
		}

		if cache != nil {
			cache.Step[sfb] = step
			cache.Hit[sfb] = true
			copy(cache.Ix[lo:hi], g.L3Enc[lo:hi])
		}
	}

	return nil
}

func quantizeOne(kind Kind, absXr, istep float64, p *tables.Pow) int {
	scaled := istep * absXr
	switch kind {
	case KindXR34:
		k := int(scaled)
		if k < 0 {
			k = 0
		}
		if k >= len(p.Adj43) {
			k = len(p.Adj43) - 1
		}
		return int(scaled + p.Adj43[k])
	default:
		return int(scaled + tables.RoundFacTrunc)
	}
}

func bandRange(fc *granule.FrameContext, g *granule.GranuleInfo, sfb int) (int, int) {
	return g.BandRange(fc, sfb)
}

func windowOf(g *granule.GranuleInfo, sfb int) int {
	if sfb < len(g.Window) {
		return g.Window[sfb]
	}
	return 0
}

func pretabAt(sfb int) int {
	if sfb < len(tables.Pretab) {
		return tables.Pretab[sfb]
	}
	return 0
}
