// Package granule holds the per-granule working state the rate/distortion
// engine reads and mutates across the xmin, quantize, noise, huffman,
// ratecontrol and scalefac stages, plus the process-wide context those
// stages are parameterized by.
package granule

import (
	"github.com/mp3enc/lame/internal/tables"
	"github.com/mp3enc/lame/types"
)

const (
	// SFBMax bounds the scalefac slice: 22 long bands or up to 3*13 short
	// sub-band slots, whichever block type is active.
	SFBMax = 39

	// CoeffCount is the number of MDCT coefficients per granule.
	CoeffCount = 576

	// SCFSIBands is the number of SCFSI reuse groups.
	SCFSIBands = 4
)

// QualityProfile is the fixed, per-quality-level (0..9) bundle of feature
// flags the parameter-negotiation stage resolves once per session and
// the inner loop reads every granule.
type QualityProfile struct {
	FilterType        int
	PsyModel          bool
	QuantizeISO       bool // true: ISO truncating quantizer (ROUNDFAC 0.4054); false: xr^3/4 variant
	NoiseShaping      int  // 0..2
	NoiseShapingAmp   int  // 0: amplify all overflowing bands, 1: max only, 2: near-max
	NoiseShapingStop  int
	UseBestHuffman    int // 0, 1, or 2 (2 enables best_huffman_divide)
	SubstepShaping    bool
	SubblockGainScan  bool
}

// FrameContext is rebuilt whenever encoding parameters are (re)negotiated
// and held fixed for the lifetime of an encoding session.
type FrameContext struct {
	SampleRate     int
	Version        types.Version
	ChannelMode    types.ChannelMode
	Strategy       types.BitrateStrategy
	GranulesPerFrame int

	Bands       tables.ScalefacBand
	PseudoBands tables.PseudoBands
	ATH         tables.ATH

	SideInfoBits int
	Profile      QualityProfile
}

// NewFrameContext derives the per-session constants for one
// (version, sampleRate) pair, building the scalefactor-band and ATH tables
// exactly once.
func NewFrameContext(version types.Version, sampleRate int, mode types.ChannelMode, strategy types.BitrateStrategy, profile QualityProfile, athModel tables.ATHModel, athLower float64, noATH bool) (*FrameContext, error) {
	band, ok := tables.SFBandIndex(version, sampleRate)
	if !ok {
		return nil, ErrUnsupportedRate
	}
	pb := tables.DerivePseudoBands(band)
	ath := tables.ComputeATH(band, pb, float64(sampleRate), athModel, athLower, noATH)

	fc := &FrameContext{
		SampleRate:       sampleRate,
		Version:          version,
		ChannelMode:      mode,
		Strategy:         strategy,
		GranulesPerFrame: version.GranulesPerFrame(),
		Bands:            band,
		PseudoBands:      pb,
		ATH:              ath,
		Profile:          profile,
	}
	return fc, nil
}

// GranuleInfo is the full per-granule, per-channel state — everything
// the rate/distortion engine reads, mutates in place across the
// inner/outer loops, and
// eventually hands to the bit packer.
type GranuleInfo struct {
	BlockType      types.BlockType
	MixedBlockFlag bool
	Window         [SFBMax]int // which of the 3 short windows each short sfb belongs to

	Xr        [CoeffCount]float64 // signed MDCT coefficients
	XrPowMax  float64             // max(|xr[i]|^(3/4)) over the granule
	L3Enc     [CoeffCount]int     // quantized coefficient magnitudes

	GlobalGain     int // [0,255]
	ScalefacScale  int // {0,1}
	Preflag        int // {0,1}
	SubblockGain   [3]int // [0,7], short blocks only
	Scalefac       [SFBMax]tables.ScaleFac

	SfbMax     int
	PsyMax     int
	PsyLMax    int
	SfbLMax    int
	SfbSMin    int

	ScalefacCompress   int // side-info field sized by scale_bitcount(_lsf)
	BigValues          int
	Count1             int
	Region0Count       int
	Region1Count       int
	TableSelect        [3]int
	Count1TableSelect  int
	Part2Length        int
	Part2_3Length      int

	MaxNonzeroCoeff int

	Width [SFBMax]int // per-sfb coefficient count: long blocks the whole band, short blocks one window's share
}

// Reset clears a GranuleInfo for reuse across granules, keeping the
// backing arrays so the caller pays no allocation per granule (mirrors the
// teacher package's scratch-buffer reuse discipline).
func (g *GranuleInfo) Reset() {
	*g = GranuleInfo{}
}

// IsLongBlock reports whether bt is coded against the long-block
// scalefactor-band table. LONG, START and STOP all are; only SHORT uses
// the short-block table.
func IsLongBlock(bt types.BlockType) bool {
	return bt == types.BlockLong || bt == types.BlockStart || bt == types.BlockStop
}

// FillWidths caches each active sfb's per-window coefficient count so
// xmin/noise/quant/ratecontrol read Width instead of re-deriving it from
// FrameContext.Bands on every call. Call after BlockType is set, before
// any of those stages run.
func (g *GranuleInfo) FillWidths(fc *FrameContext) {
	if IsLongBlock(g.BlockType) {
		for sfb := 0; sfb < tables.SBMaxLong; sfb++ {
			g.Width[sfb] = fc.Bands.L[sfb+1] - fc.Bands.L[sfb]
		}
		return
	}
	for sfb := 0; sfb < tables.SBMaxShort; sfb++ {
		g.Width[sfb] = fc.Bands.S[sfb+1] - fc.Bands.S[sfb]
	}
}

// BandRange returns the coefficient range sfb occupies in Xr/L3Enc: for
// long-family blocks (LONG, START, STOP) the single long band; for SHORT
// blocks, all 3 windows' coefficients for that band concatenated as three
// consecutive blocks (window 0's, then window 1's, then window 2's) — not
// sample-interleaved.
func (g *GranuleInfo) BandRange(fc *FrameContext, sfb int) (lo, hi int) {
	if IsLongBlock(g.BlockType) {
		if sfb+1 <= tables.SBMaxLong {
			return fc.Bands.L[sfb], fc.Bands.L[sfb+1]
		}
		return CoeffCount, CoeffCount
	}
	if sfb+1 <= tables.SBMaxShort {
		return fc.Bands.S[sfb] * 3, fc.Bands.S[sfb+1] * 3
	}
	return CoeffCount, CoeffCount
}

// ShortWindowRange returns the coefficient range for a single short window
// (0, 1 or 2) of band sfb. Windows are laid out as three consecutive
// blocks within BandRange's combined span, so window w's range starts
// Width[sfb] coefficients after window w-1's — never sample-interleaved.
// Requires FillWidths to have been called first.
func (g *GranuleInfo) ShortWindowRange(fc *FrameContext, sfb, win int) (lo, hi int) {
	if sfb+1 > tables.SBMaxShort {
		return CoeffCount, CoeffCount
	}
	width := g.Width[sfb]
	lo = fc.Bands.S[sfb]*3 + win*width
	hi = lo + width
	return lo, hi
}

// SideInfo is the frame-level state threaded alongside each channel's
// GranuleInfo slice: SCFSI reuse flags and the bit-reservoir pointer
// handed to the bit packer.
type SideInfo struct {
	SCFSI         [2][SCFSIBands]bool // [channel][band group]
	MainDataBegin int
}
