// Package ratecontrol implements the inner bit-rate binary search and the
// outer noise-shaping loop that together pick a global gain and scale
// factors meeting a per-granule bit budget.
package ratecontrol

import (
	"math"

	"github.com/mp3enc/lame/internal/granule"
	"github.com/mp3enc/lame/internal/huffman"
	"github.com/mp3enc/lame/internal/noise"
	"github.com/mp3enc/lame/internal/quant"
	"github.com/mp3enc/lame/internal/tables"
	"github.com/mp3enc/lame/types"
	"github.com/mp3enc/lame/util"
)

// LargeBits is returned by count_bits-style probes whose gain cannot
// represent the granule.
const LargeBits = 1 << 30

// ChannelState carries the inner loop's temporal-coherence seed across
// granules for one channel.
type ChannelState struct {
	OldValue    int
	CurrentStep int
	initialized bool
}

// CountBits quantizes xr under globalGain and returns the resulting
// part2_3_length, or LargeBits if the gain cannot represent xrpow_max
// against the current quantization and region split.
func CountBits(fc *granule.FrameContext, g *granule.GranuleInfo, globalGain int, kind quant.Kind, cache *quant.NoiseCache) int {
	if err := quant.Quantize(fc, g, kind, globalGain, cache); err != nil {
		return LargeBits
	}
	return huffman.NoquantCountBits(fc, g)
}

// InnerLoop binary-searches global_gain in [0,255] for the smallest value
// whose part2_3_length fits within budget (part2_length is not subtracted
// from budget here), seeding the search
// from the channel's previous answer for faster convergence.
func InnerLoop(fc *granule.FrameContext, g *granule.GranuleInfo, st *ChannelState, kind quant.Kind, budget int) int {
	lo, hi := 0, 255
	if st.initialized {
		lo = st.CurrentStep
		if lo < 0 {
			lo = 0
		}
		if lo > 255 {
			lo = 255
		}
	}

	cache := &quant.NoiseCache{}
	bits := CountBits(fc, g, lo, kind, cache)
	if bits > budget {
		hi = 255
	} else {
		hi = lo
		lo = 0
	}

	best := 255
	for lo <= hi {
		mid := (lo + hi) / 2
		cache.Reset()
		b := CountBits(fc, g, mid, kind, cache)
		if b <= budget {
			best = mid
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}

	cache.Reset()
	CountBits(fc, g, best, kind, cache)
	st.OldValue = g.GlobalGain
	st.CurrentStep = best
	st.initialized = true
	g.GlobalGain = best
	return g.Part2_3Length
}

// AmplifyPolicy selects which overflowing bands get amplified each outer
// loop pass.
type AmplifyPolicy int

const (
	AmplifyAll AmplifyPolicy = iota // every band with distort>1
	AmplifyMax                      // only the single worst band
	AmplifyNearMax                  // bands within a threshold of the worst
)

// OuterLoopOptions bundles the per-session noise-shaping knobs the outer
// loop reads.
type OuterLoopOptions struct {
	Policy      AmplifyPolicy
	StopOnScale bool // noise_shaping_stop: always stop if scalefac_scale flips and still overflowing
	MaxIters    int
	NearMaxFrac float64
}

// OuterLoop repeatedly runs the inner loop, scores the result against
// xmin, and amplifies offending bands until no band overflows, a stop
// condition fires, or MaxIters is exhausted; it keeps and returns the
// best-scoring candidate by QuantCompare.
func OuterLoop(fc *granule.FrameContext, g *granule.GranuleInfo, st *ChannelState, kind quant.Kind, budget int, xminLong *[granule.SFBMax]float64, opt OuterLoopOptions) noise.Result {
	if opt.MaxIters <= 0 {
		opt.MaxIters = 20
	}
	if opt.NearMaxFrac <= 0 {
		opt.NearMaxFrac = 0.1
	}

	var best noise.Result
	bestScalefac := g.Scalefac
	bestGain := g.GlobalGain
	haveBest := false

	for iter := 0; iter < opt.MaxIters; iter++ {
		InnerLoop(fc, g, st, kind, budget)
		res := noise.CalcNoise(fc, g, g.GlobalGain, xminLong)

		if !haveBest || noise.QuantCompare(best, res) {
			best = res
			bestScalefac = g.Scalefac
			bestGain = g.GlobalGain
			haveBest = true
		}

		if res.OverCount == 0 {
			break
		}
		if saturated(g) {
			break
		}
		if opt.StopOnScale && g.ScalefacScale == 1 {
			break
		}

		amplify(g, res, opt)
	}

	g.Scalefac = bestScalefac
	g.GlobalGain = bestGain
	// Re-quantize so L3Enc and the side-info fields match the restored candidate.
	CountBits(fc, g, g.GlobalGain, kind, nil)
	return best
}

func saturated(g *granule.GranuleInfo) bool {
	for sfb := 0; sfb < tables.SBMaxLong; sfb++ {
		v, ok := g.Scalefac[sfb].Value()
		if !ok {
			continue
		}
		amp := v + g.Preflag*pretabAt(sfb)
		if amp >= scalefacMax {
			return true
		}
	}
	return false
}

const scalefacMax = 31

func amplify(g *granule.GranuleInfo, res noise.Result, opt OuterLoopOptions) {
	switch opt.Policy {
	case AmplifyMax:
		worst := -1
		worstVal := 0.0
		for sfb, d := range res.Distort {
			if d > 1 && d > worstVal {
				worst, worstVal = sfb, d
			}
		}
		if worst >= 0 {
			bumpBand(g, worst)
		}
	case AmplifyNearMax:
		max := 0.0
		for _, d := range res.Distort {
			if d > max {
				max = d
			}
		}
		threshold := max * (1 - opt.NearMaxFrac)
		for sfb, d := range res.Distort {
			if d > 1 && d >= threshold {
				bumpBand(g, sfb)
			}
		}
	default:
		for sfb, d := range res.Distort {
			if d > 1 {
				bumpBand(g, sfb)
			}
		}
	}
}

func bumpBand(g *granule.GranuleInfo, sfb int) {
	v, ok := g.Scalefac[sfb].Value()
	if !ok {
		v = 0
	}
	g.Scalefac[sfb] = tables.NewScaleFac(v + 1)
}

func pretabAt(sfb int) int {
	if sfb < len(tables.Pretab) {
		return tables.Pretab[sfb]
	}
	return 0
}

// SubblockGainSearch tries subblock_gain in [0,7] per short window and
// keeps a candidate only if it lowers that window's count of bands whose
// raw energy exceeds xminShort. That count does not depend on
// subblock_gain, so every candidate scores the same and each window keeps
// its current gain.
func SubblockGainSearch(fc *granule.FrameContext, g *granule.GranuleInfo, xminShort *[3][granule.SFBMax]float64) {
	if g.BlockType != types.BlockShort {
		return
	}
	for win := 0; win < 3; win++ {
		bestGain := g.SubblockGain[win]
		bestOver := countOverShort(fc, g, xminShort, win)
		for cand := 0; cand <= 7; cand++ {
			g.SubblockGain[win] = cand
			over := countOverShort(fc, g, xminShort, win)
			if over < bestOver {
				bestOver, bestGain = over, cand
			}
		}
		g.SubblockGain[win] = bestGain
	}
}

func countOverShort(fc *granule.FrameContext, g *granule.GranuleInfo, xminShort *[3][granule.SFBMax]float64, win int) int {
	over := 0
	for sfb := 0; sfb < tables.SBMaxShort; sfb++ {
		lo, hi := g.ShortWindowRange(fc, sfb, win)
		if hi > granule.CoeffCount {
			hi = granule.CoeffCount
		}
		var en float64
		for j := lo; j < hi; j++ {
			en += g.Xr[j] * g.Xr[j]
		}
		if xminShort != nil && en > xminShort[win][sfb] {
			over++
		}
	}
	return over
}

// ReduceSide biases target bits from the side channel toward the mid
// channel under joint-stereo M/S coding. targMid and targSide are updated
// in place.
func ReduceSide(targMid, targSide *int, msEnerRatio float64, maxBits int) {
	fac := util.Clamp(0.33*(0.5-msEnerRatio)/0.5, 0, 0.5)
	avg := float64(*targMid+*targSide) / 2
	move := int(fac * avg)

	newSide := *targSide - move
	if newSide < 125 {
		move = *targSide - 125
		newSide = 125
	}
	newMid := *targMid + move

	if newMid+newSide > maxBits {
		overflow := newMid + newSide - maxBits
		newMid -= overflow
	}

	*targMid, *targSide = newMid, newSide
}

// PEBudget splits a per-channel granule bit target from the frame's mean
// bit allowance and a perceptual-entropy boost.
type PEBudget struct {
	MeanBits  int
	ExtraBits int
	Channels  int
	NSPsytune bool
	IsShort   bool
}

// TargetBits returns the bit target for one channel given its perceptual
// entropy value. The boost is never negative, never pushes the channel
// past 4095 bits or past the frame's spare-bit allowance, and is floored
// at a quarter of mean_bits for short blocks (which need headroom for
// their three-window noise shaping).
func (b PEBudget) TargetBits(pe float64) int {
	tbits := b.MeanBits / b.Channels

	var add float64
	if b.NSPsytune {
		add = float64(tbits)*(pe/700) - float64(tbits)
	} else {
		add = (pe - 750) / 1.4
	}
	if add < 0 {
		add = 0
	}
	if b.IsShort {
		add = math.Max(add, float64(b.MeanBits)/4)
	}
	add = math.Min(add, 4095-float64(tbits))
	add = math.Min(add, float64(b.ExtraBits))
	return tbits + int(add)
}
