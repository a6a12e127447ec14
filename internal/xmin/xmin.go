// Package xmin computes per-band distortion allowances from the ATH floor
// and a psychoacoustic model's masking ratios.
package xmin

import (
	"math"

	"github.com/mp3enc/lame/internal/granule"
	"github.com/mp3enc/lame/internal/psy"
	"github.com/mp3enc/lame/internal/tables"
)

// Options bundles the per-session flags calc_xmin reads but doesn't own:
// the VBR adaptive-floor behavior, the masking-lower trim, and temporal
// masking for short blocks.
type Options struct {
	AdaptiveATH   bool    // VBR-rh/mtrh: adjust the floor via athAdjust
	MaskingLower  float64 // multiplicative trim applied to the psy threshold
	UseTemporal   bool    // short blocks only: forward temporal masking
	TemporalDecay float64
}

// Result is calc_xmin's return value: the filled xmin vector plus the
// over-threshold band count, which the encoder reports in its debug log.
type Result struct {
	XminLong  [granule.SFBMax]float64
	XminShort [3][granule.SFBMax]float64
	AthOver   int
}

// athAdjust scales the ATH floor for quiet bands: when the band's level
// (10·log10(x) dB, or floor if x is 0) is below -30 dB it returns
// ath·10^((dB+30)/10·adjust), otherwise ath unchanged. It never raises the
// floor and does not interpolate toward the signal level. adjust is
// ATH.Adjust, floor is ATH.Floor (dB), x is the band's linear signal energy.
func athAdjust(adjust, ath, x, floor float64) float64 {
	const athLowerThresh = -30.0
	db := floor
	if x > 0 {
		db = 10 * math.Log10(x)
	}
	if db < athLowerThresh {
		return ath * math.Pow(10, (db-athLowerThresh)/10*adjust)
	}
	return ath
}

// CalcXmin fills Result from one granule's MDCT energy, optional psy-model
// ratios, and the band tilt factors. ratios and nsPsy may be nil/zero
// (e.g. psymodel disabled per quality profile) — CalcXmin then falls back
// to the bare ATH floor.
func CalcXmin(fc *granule.FrameContext, g *granule.GranuleInfo, ratios *psy.Ratio, nsPsy *psy.NsPsy, opt Options) Result {
	var res Result

	for sfb := 0; sfb <= g.PsyLMax && sfb < granule.SFBMax; sfb++ {
		lo, hi := fc.Bands.L[sfb], fc.Bands.L[sfb+1]
		if hi > granule.CoeffCount {
			hi = granule.CoeffCount
		}
		en0 := bandEnergy(g.Xr[:], lo, hi)

		x := fc.ATH.L[sfb]
		if sfb >= tables.SBMaxLong-1 {
			x = fc.ATH.L[tables.SBMaxLong-1]
		}
		xminVal := fc.ATH.Adjust * x
		if opt.AdaptiveATH {
			xminVal = athAdjust(fc.ATH.Adjust, x, en0, fc.ATH.Floor)
		}

		if ratios != nil && sfb < len(ratios.ThreshLong) && ratios.ThreshLong[sfb] > 0 && ratios.EnergyLong[sfb] > 0 {
			psyXmin := en0 * ratios.ThreshLong[sfb] / ratios.EnergyLong[sfb] * opt.MaskingLower
			if psyXmin > xminVal {
				xminVal = psyXmin
			}
		}
		if nsPsy != nil {
			xminVal *= nsPsy.LongFact[sfb]
		}

		res.XminLong[sfb] = xminVal
		if en0 > xminVal {
			res.AthOver++
		}
	}

	for win := 0; win < 3; win++ {
		for sfb := g.SfbSMin; sfb < tables.SBMaxShort && sfb < granule.SFBMax; sfb++ {
			lo, hi := g.ShortWindowRange(fc, sfb, win)
			if hi > granule.CoeffCount {
				hi = granule.CoeffCount
			}
			en0 := bandEnergy(g.Xr[:], lo, hi)

			x := fc.ATH.S[sfb]
			xminVal := fc.ATH.Adjust * x
			if opt.AdaptiveATH {
				xminVal = athAdjust(fc.ATH.Adjust, x, en0, fc.ATH.Floor)
			}
			if ratios != nil && ratios.ThreshShort[win][sfb] > 0 && ratios.EnergyShort[win][sfb] > 0 {
				psyXmin := en0 * ratios.ThreshShort[win][sfb] / ratios.EnergyShort[win][sfb] * opt.MaskingLower
				if psyXmin > xminVal {
					xminVal = psyXmin
				}
			}
			if nsPsy != nil {
				xminVal *= nsPsy.ShortFact[sfb]
			}

			if opt.UseTemporal && sfb > g.SfbSMin {
				prev := res.XminShort[win][sfb-1]
				if xminVal < prev {
					ceiling := xminVal + opt.TemporalDecay*(prev-xminVal)
					if xminVal < ceiling {
						xminVal = ceiling
					}
				}
			}

			res.XminShort[win][sfb] = xminVal
			if en0 > xminVal {
				res.AthOver++
			}
		}
	}

	return res
}

func bandEnergy(xr []float64, lo, hi int) float64 {
	var sum float64
	for j := lo; j < hi; j++ {
		sum += xr[j] * xr[j]
	}
	return sum
}

// MaxNonzeroCoeff returns the largest index k with xr[k] != 0, or -1 if the
// granule is all zero, bounded to 575.
func MaxNonzeroCoeff(xr *[granule.CoeffCount]float64) int {
	for k := granule.CoeffCount - 1; k >= 0; k-- {
		if xr[k] != 0 {
			return k
		}
	}
	return -1
}
