// Package noise computes per-band quantization distortion against the
// xmin allowance, and the aggregate statistics the outer loop's quality
// comparator reads.
package noise

import (
	"math"

	"github.com/mp3enc/lame/internal/granule"
	"github.com/mp3enc/lame/internal/tables"
)

// Result holds calc_noise's per-band distortion and the aggregate stats
// that feed quant_compare in the rate-control outer loop.
type Result struct {
	Distort  [granule.SFBMax]float64
	OverCount int
	TotNoise  float64
	OverNoise float64
	MaxNoise  float64
	VarNoise  float64
}

// CalcNoise computes the per-band squared error between the original
// coefficients and their quantized-then-dequantized approximation, scores
// it against xmin, and aggregates the result.
func CalcNoise(fc *granule.FrameContext, g *granule.GranuleInfo, globalGain int, xminLong *[granule.SFBMax]float64) Result {
	var res Result
	p := tables.Tables()

	var logSum float64
	var logs []float64
	sfbEnd := g.SfbMax
	if sfbEnd == 0 || sfbEnd > granule.SFBMax {
		sfbEnd = tables.SBMaxLong
	}

	for sfb := 0; sfb < sfbEnd; sfb++ {
		lo, hi := g.BandRange(fc, sfb)
		sf, _ := g.Scalefac[sfb].Value()
		amp := sf + g.Preflag*pretabAt(sfb)
		idx := globalGain - (amp << uint(g.ScalefacScale+1)) - 8*g.SubblockGain[windowOf(g, sfb)]
		step := p.Pow20At(idx + tables.QMax2)

		var bandNoise float64
		for j := lo; j < hi && j < granule.CoeffCount; j++ {
			ix := g.L3Enc[j]
			approx := pow43At(p, ix) * step
			d := math.Abs(g.Xr[j]) - approx
			bandNoise += d * d
		}

		xmin := 1e-20
		if xminLong != nil && sfb < len(xminLong) && xminLong[sfb] > 0 {
			xmin = xminLong[sfb]
		}
		distort := bandNoise / xmin
		res.Distort[sfb] = distort

		logDistort := math.Log10(distort + 1e-20)
		logSum += logDistort
		logs = append(logs, logDistort)
		res.TotNoise += logDistort
		if distort > 1 {
			res.OverCount++
			res.OverNoise += logDistort
		}
		if logDistort > res.MaxNoise {
			res.MaxNoise = logDistort
		}
	}

	if len(logs) > 0 {
		mean := logSum / float64(len(logs))
		var variance float64
		for _, v := range logs {
			d := v - mean
			variance += d * d
		}
		res.VarNoise = variance / float64(len(logs))
	}

	return res
}

func pow43At(p *tables.Pow, ix int) float64 {
	if ix < 0 {
		ix = 0
	}
	if ix >= len(p.Pow43) {
		ix = len(p.Pow43) - 1
	}
	return p.Pow43[ix]
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

// QuantCompare reports whether candidate b is preferable to the
// best-so-far candidate a: fewer overflowing bands wins; on a tie, lower
// over_noise wins when bands overflow, otherwise lower total noise.
func QuantCompare(a, b Result) bool {
	if b.OverCount != a.OverCount {
		return b.OverCount < a.OverCount
	}
	if b.OverCount > 0 {
		return b.OverNoise < a.OverNoise
	}
	return b.TotNoise < a.TotNoise
}
