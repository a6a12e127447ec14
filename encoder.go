// encoder.go implements the public Encoder API for the rate/distortion
// core: parameter negotiation, per-granule orchestration of xmin,
// quantization, Huffman bit counting, rate control and best-scalefactor
// storage, and the bit-reservoir bookkeeping that threads bit budgets
// across granules.

package lame

import (
	"github.com/charmbracelet/log"
	"github.com/mp3enc/lame/internal/granule"
	"github.com/mp3enc/lame/internal/huffman"
	"github.com/mp3enc/lame/internal/params"
	"github.com/mp3enc/lame/internal/psy"
	"github.com/mp3enc/lame/internal/quant"
	"github.com/mp3enc/lame/internal/ratecontrol"
	"github.com/mp3enc/lame/internal/reservoir"
	"github.com/mp3enc/lame/internal/scalefac"
	"github.com/mp3enc/lame/internal/tables"
	"github.com/mp3enc/lame/internal/xmin"
	"github.com/mp3enc/lame/types"
)

// PsyModel supplies per-granule energy/masking ratios; the FFT-driven
// analysis that produces them is out of scope for this package.
type PsyModel = psy.Model

// MDCTSource supplies one granule/channel's already-transformed MDCT
// coefficients plus its block-type decision; the MDCT/windowing itself is
// out of scope for this package.
type MDCTSource interface {
	Coefficients(gr, ch int) (xr [granule.CoeffCount]float64, blockType types.BlockType, mixed bool, window [granule.SFBMax]int)
}

// BitPacker receives finalized granules and frame-level side info; the
// actual bitstream serialization is out of scope for this package.
type BitPacker interface {
	WriteGranule(gr, ch int, info granule.GranuleInfo)
	WriteSideInfo(si granule.SideInfo)
}

// Encoder runs the rate/distortion engine for one encoding session: a
// fixed (version, sample rate, channel mode) configuration, a quality
// profile, and the external collaborators that supply MDCT coefficients,
// psychoacoustic ratios, and consume finished granules.
//
// An Encoder instance is not safe for concurrent use; distinct instances
// are fully independent.
type Encoder struct {
	fc       *granule.FrameContext
	resolved *params.Resolved
	channels int

	psyModel   PsyModel
	mdctSource MDCTSource
	bitPacker  BitPacker

	chState  [2]ratecontrol.ChannelState
	reservoir *reservoir.State

	logger *log.Logger

	// scratch granule state, reused across frames (mirrors the teacher
	// encoder's pre-allocated scratch-buffer discipline).
	granules [2][2]granule.GranuleInfo // [gr][ch]
}

// NewEncoder negotiates req into a ready-to-run Encoder. channels must be
// 1 (mono) or 2 (stereo/joint-stereo depending on req.ChannelMode).
func NewEncoder(req params.Request, channels int) (*Encoder, error) {
	if channels < 1 || channels > 2 {
		return nil, ErrInvalidChannels
	}
	if !validSampleRate(req.SampleRate) {
		return nil, ErrInvalidSampleRate
	}
	if req.Quality < 0 || req.Quality > 9 {
		return nil, ErrInvalidQuality
	}
	if req.Strategy == types.StrategyCBR && req.BitrateKbps <= 0 {
		return nil, ErrInvalidBitrate
	}
	resolved, err := params.Resolve(req)
	if err != nil {
		return nil, err
	}

	fc, err := granule.NewFrameContext(req.Version, req.SampleRate, req.ChannelMode, req.Strategy, resolved.Profile, tables.ModelGPSYCHO, 0, false)
	if err != nil {
		return nil, err
	}

	frameBits := frameBitsFor(req)
	return &Encoder{
		fc:        fc,
		resolved:  resolved,
		channels:  channels,
		reservoir: reservoir.NewState(req.Version, frameBits),
	}, nil
}

func frameBitsFor(req params.Request) float64 {
	samplesPerFrame := 1152.0
	if req.Version != types.MPEG1 {
		samplesPerFrame = 576.0
	}
	if (req.Strategy == types.StrategyCBR || req.Strategy == types.StrategyABR) && req.BitrateKbps > 0 {
		return samplesPerFrame * float64(req.BitrateKbps) * 1000 / float64(req.SampleRate) / 8 * 8
	}
	return samplesPerFrame * 128000 / float64(req.SampleRate)
}

// SetPsyModel installs the psychoacoustic ratio source. Without one, xmin
// falls back to the bare ATH floor (quality 9 behavior).
func (e *Encoder) SetPsyModel(m PsyModel) { e.psyModel = m }

// SetMDCTSource installs the MDCT coefficient source. Required before
// EncodeFrame.
func (e *Encoder) SetMDCTSource(s MDCTSource) { e.mdctSource = s }

// SetBitPacker installs the bitstream sink. Required before EncodeFrame.
func (e *Encoder) SetBitPacker(p BitPacker) { e.bitPacker = p }

// SetLogger installs a diagnostic logger. Without one, EncodeFrame logs
// nothing. Intended for the same kind of per-frame tracing a quality
// engineer would otherwise reach for ad hoc prints to get.
func (e *Encoder) SetLogger(l *log.Logger) { e.logger = l }

// EncodeFrame runs the full rate/distortion pipeline for one frame's worth
// of granules (2 for MPEG-1, 1 for MPEG-2/2.5), in granule order so
// granule 1's SCFSI can read granule 0's finalized scale factors, and
// returns the total bits spent across the frame.
func (e *Encoder) EncodeFrame() (int, error) {
	if e.mdctSource == nil || e.bitPacker == nil {
		return 0, ErrMissingCollaborator
	}

	frameMeanBits := int(e.reservoir.FrameBits) / e.fc.GranulesPerFrame
	meanBits, extraBits := e.reservoir.ResvMaxBits(frameMeanBits)
	budget := ratecontrol.PEBudget{
		MeanBits:  meanBits,
		ExtraBits: extraBits,
		Channels:  e.channels,
	}

	var sideInfo granule.SideInfo
	totalBits := 0

	for gr := 0; gr < e.fc.GranulesPerFrame; gr++ {
		var xrs [2][granule.CoeffCount]float64
		var blockTypes [2]types.BlockType
		var mixeds [2]bool
		var windows [2][granule.SFBMax]int
		var ratios [2]*psy.Ratio
		var targBits [2]int

		for ch := 0; ch < e.channels; ch++ {
			xrs[ch], blockTypes[ch], mixeds[ch], windows[ch] = e.mdctSource.Coefficients(gr, ch)
			if e.psyModel != nil && e.resolved.Profile.PsyModel {
				r := e.psyModel.Ratios(gr, ch)
				ratios[ch] = &r
			}
			pe := 0.0
			if ratios[ch] != nil {
				pe = ratios[ch].PE
			}
			targBits[ch] = budget.TargetBits(pe)
		}

		// Joint-stereo mid/side bit reallocation: a near-silent side
		// channel gets fewer bits, freeing headroom for the mid channel.
		if e.channels == 2 && e.fc.ChannelMode == types.ModeJointStereo {
			midEnergy := sumSquares(xrs[0][:])
			sideEnergy := sumSquares(xrs[1][:])
			msEnerRatio := 0.5
			if total := midEnergy + sideEnergy; total > 0 {
				msEnerRatio = sideEnergy / total
			}
			ratecontrol.ReduceSide(&targBits[0], &targBits[1], msEnerRatio, meanBits+extraBits)
		}

		for ch := 0; ch < e.channels; ch++ {
			g := &e.granules[gr][ch]
			g.Reset()

			g.Xr = xrs[ch]
			g.BlockType = blockTypes[ch]
			g.MixedBlockFlag = mixeds[ch]
			g.Window = windows[ch]
			g.FillWidths(e.fc)
			if g.BlockType == types.BlockShort {
				g.SfbMax = tables.SBMaxShort
				g.PsyMax = tables.SBMaxShort - 1
				g.PsyLMax = -1
				g.SfbLMax = -1
				g.SfbSMin = 0
			} else {
				g.SfbMax = tables.SBMaxLong
				g.PsyMax = tables.SBMaxLong - 1
				g.PsyLMax = tables.SBMaxLong - 1
				g.SfbLMax = tables.SBMaxLong - 1
			}
			g.MaxNonzeroCoeff = xmin.MaxNonzeroCoeff(&g.Xr)
			for i := range g.Scalefac {
				g.Scalefac[i] = tables.NewScaleFac(0)
			}

			ratio := ratios[ch]
			var nsPsy *psy.NsPsy

			xminRes := xmin.CalcXmin(e.fc, g, ratio, nsPsy, xmin.Options{MaskingLower: 1.0})

			xminArg := &xminRes.XminLong
			if g.BlockType == types.BlockShort {
				ratecontrol.SubblockGainSearch(e.fc, g, &xminRes.XminShort)
				combined := combineShortXmin(&xminRes.XminShort)
				xminArg = &combined
			}

			res := ratecontrol.OuterLoop(e.fc, g, &e.chState[ch], e.quantKind(), targBits[ch], xminArg, ratecontrol.OuterLoopOptions{
				Policy:      ratecontrol.AmplifyPolicy(e.resolved.Profile.NoiseShapingAmp),
				StopOnScale: e.resolved.Profile.NoiseShapingStop != 0,
			})
			if e.logger != nil && res.OverCount > 0 {
				e.logger.Debug("granule still overflowing after outer loop",
					"gr", gr, "ch", ch, "over_count", res.OverCount, "ath_over", xminRes.AthOver, "global_gain", g.GlobalGain)
			}

			scalefac.BestScalefacStore(e.fc, g)
			if e.fc.Version == types.MPEG1 {
				g.ScalefacCompress, g.Part2Length = scalefac.ScaleBitcount(g)
			} else {
				_, compress, part2Length := scalefac.ScaleBitcountLSF(g)
				g.ScalefacCompress = compress
				g.Part2Length = part2Length
			}
			huffman.NoquantCountBits(e.fc, g)
			if e.resolved.Profile.UseBestHuffman == 2 {
				huffman.BestHuffmanDivide(e.fc, g)
			}

			totalBits += g.Part2_3Length + g.Part2Length
			e.bitPacker.WriteGranule(gr, ch, *g)
		}

		if gr == 1 && e.fc.Version == types.MPEG1 && e.channels == 2 {
			scfsiCh0 := scalefac.ApplySCFSI(e.fc.Version, &e.granules[0][0], &e.granules[1][0])
			scfsiCh1 := scalefac.ApplySCFSI(e.fc.Version, &e.granules[0][1], &e.granules[1][1])
			sideInfo.SCFSI[0] = scfsiCh0
			sideInfo.SCFSI[1] = scfsiCh1
		}
	}

	pad := e.reservoir.ResvFrameEnd(e.fc.Strategy, meanBits, totalBits)
	sideInfo.MainDataBegin = e.reservoir.MainDataBegin()
	if pad {
		totalBits += 8
	}
	if e.logger != nil {
		e.logger.Debug("frame encoded", "total_bits", totalBits, "main_data_begin", sideInfo.MainDataBegin, "padded", pad)
	}

	e.bitPacker.WriteSideInfo(sideInfo)
	return totalBits, nil
}

func sumSquares(xr []float64) float64 {
	var sum float64
	for _, v := range xr {
		sum += v * v
	}
	return sum
}

// combineShortXmin folds a short block's 3 per-window xmin vectors into the
// single per-sfb vector noise.CalcNoise and ratecontrol.OuterLoop expect,
// matching quant.Quantize's and granule.GranuleInfo.BandRange's treatment
// of a short sfb's 3 windows as one combined coefficient range.
func combineShortXmin(xminShort *[3][granule.SFBMax]float64) [granule.SFBMax]float64 {
	var combined [granule.SFBMax]float64
	for sfb := 0; sfb < tables.SBMaxShort; sfb++ {
		combined[sfb] = xminShort[0][sfb] + xminShort[1][sfb] + xminShort[2][sfb]
	}
	return combined
}

func (e *Encoder) quantKind() quant.Kind {
	if e.resolved.Profile.QuantizeISO {
		return quant.KindISO
	}
	return quant.KindXR34
}
