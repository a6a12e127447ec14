// Package tables holds the read-only, precomputed data the rate/distortion
// engine runs on: scalefactor-band partitions, the ATH curve, the power
// tables that drive quantization, and the Huffman code-length tables used
// for bit counting. The power tables are built once (lazily, guarded by
// sync.Once, mirroring the teacher package's static-table construction
// pattern) and the Huffman length tables in package init(); none of it is
// mutated afterward — see SPEC_FULL.md §5.
package tables

import "github.com/mp3enc/lame/types"

// SBMaxLong and SBMaxShort bound the number of scalefactor bands per block
// type (ISO/IEC 11172-3 Table B.8/B.2): 22 long bands, 13 short bands (one
// of three windows each).
const (
	SBMaxLong  = 22
	SBMaxShort = 13
	PSFB21     = 12 // pseudo-bands subdividing the broad long sfb21
	PSFB12     = 6  // pseudo-bands subdividing the broad short sfb12
)

// ScalefacBand is one row of sfBandIndex: the long- and short-block
// coefficient-index partitions for a single (version, sample rate) pair.
// L has SBMaxLong+1 entries (L[0]=0, L[22]=576); S has SBMaxShort+1
// entries (S[0]=0, S[13]=192).
type ScalefacBand struct {
	L [SBMaxLong + 1]int
	S [SBMaxShort + 1]int
}

// sfBandIndex is ISO/IEC 11172-3 Table B.8 (MPEG-1) and 13818-3 Table B.1
// (MPEG-2/2.5), reproduced verbatim from libmp3lame's quantize_pvt.c. Row
// order: MPEG-2 {22050,24000,16000}, MPEG-1 {44100,48000,32000}, MPEG-2.5
// {11025,12000,8000} — indexed via sfBandIndexRow below.
var sfBandIndex = [9]ScalefacBand{
	{ // MPEG-2, 22.05 kHz
		L: [23]int{0, 6, 12, 18, 24, 30, 36, 44, 54, 66, 80, 96, 116, 140, 168, 200, 238, 284, 336, 396, 464, 522, 576},
		S: [14]int{0, 4, 8, 12, 18, 24, 32, 42, 56, 74, 100, 132, 174, 192},
	},
	{ // MPEG-2, 24 kHz
		L: [23]int{0, 6, 12, 18, 24, 30, 36, 44, 54, 66, 80, 96, 114, 136, 162, 194, 232, 278, 332, 394, 464, 540, 576},
		S: [14]int{0, 4, 8, 12, 18, 26, 36, 48, 62, 80, 104, 136, 180, 192},
	},
	{ // MPEG-2, 16 kHz
		L: [23]int{0, 6, 12, 18, 24, 30, 36, 44, 54, 66, 80, 96, 116, 140, 168, 200, 238, 284, 336, 396, 464, 522, 576},
		S: [14]int{0, 4, 8, 12, 18, 26, 36, 48, 62, 80, 104, 134, 174, 192},
	},
	{ // MPEG-1, 44.1 kHz
		L: [23]int{0, 4, 8, 12, 16, 20, 24, 30, 36, 44, 52, 62, 74, 90, 110, 134, 162, 196, 238, 288, 342, 418, 576},
		S: [14]int{0, 4, 8, 12, 16, 22, 30, 40, 52, 66, 84, 106, 136, 192},
	},
	{ // MPEG-1, 48 kHz
		L: [23]int{0, 4, 8, 12, 16, 20, 24, 30, 36, 42, 50, 60, 72, 88, 106, 128, 156, 190, 230, 276, 330, 384, 576},
		S: [14]int{0, 4, 8, 12, 16, 22, 28, 38, 50, 64, 80, 100, 126, 192},
	},
	{ // MPEG-1, 32 kHz
		L: [23]int{0, 4, 8, 12, 16, 20, 24, 30, 36, 44, 54, 66, 82, 102, 126, 156, 194, 240, 296, 364, 448, 550, 576},
		S: [14]int{0, 4, 8, 12, 16, 22, 30, 42, 58, 78, 104, 138, 180, 192},
	},
	{ // MPEG-2.5, 11.025 kHz
		L: [23]int{0, 6, 12, 18, 24, 30, 36, 44, 54, 66, 80, 96, 116, 140, 168, 200, 238, 284, 336, 396, 464, 522, 576},
		S: [14]int{0, 4, 8, 12, 18, 26, 36, 48, 62, 80, 104, 134, 174, 192},
	},
	{ // MPEG-2.5, 12 kHz
		L: [23]int{0, 6, 12, 18, 24, 30, 36, 44, 54, 66, 80, 96, 116, 140, 168, 200, 238, 284, 336, 396, 464, 522, 576},
		S: [14]int{0, 4, 8, 12, 18, 26, 36, 48, 62, 80, 104, 134, 174, 192},
	},
	{ // MPEG-2.5, 8 kHz
		L: [23]int{0, 12, 24, 36, 48, 60, 72, 88, 108, 132, 160, 192, 232, 280, 336, 400, 476, 566, 568, 570, 572, 574, 576},
		S: [14]int{0, 8, 16, 24, 36, 52, 72, 96, 124, 160, 162, 164, 166, 192},
	},
}

// sampleRatesByVersion lists the three sample rates each version covers, in
// the same order as their rows in sfBandIndex.
var sampleRatesByVersion = map[types.Version][3]int{
	types.MPEG2:   {22050, 24000, 16000},
	types.MPEG1:   {44100, 48000, 32000},
	types.MPEG2_5: {11025, 12000, 8000},
}

var versionRowBase = map[types.Version]int{
	types.MPEG2:   0,
	types.MPEG1:   3,
	types.MPEG2_5: 6,
}

// SampleRateIndex returns the 0..2 index of rate within its version's
// triplet, or -1 if unsupported.
func SampleRateIndex(version types.Version, sampleRate int) int {
	rates, ok := sampleRatesByVersion[version]
	if !ok {
		return -1
	}
	for i, r := range rates {
		if r == sampleRate {
			return i
		}
	}
	return -1
}

// SFBandIndex returns the scalefactor-band table for (version, sampleRate),
// along with ok=false if the combination is not representable.
func SFBandIndex(version types.Version, sampleRate int) (ScalefacBand, bool) {
	idx := SampleRateIndex(version, sampleRate)
	if idx < 0 {
		return ScalefacBand{}, false
	}
	return sfBandIndex[versionRowBase[version]+idx], true
}

// PseudoBands holds the finer partitioning of the broad top long/short
// bands (sfb21 long, sfb12 short) used only by the ATH/xmin engine so it
// can resolve masking at finer granularity without changing the bitstream
// format.
type PseudoBands struct {
	L21 [PSFB21 + 1]int // subdivisions of [L[21], L[22])
	S12 [PSFB12 + 1]int // subdivisions of [S[12], S[13])
}

// DerivePseudoBands subdivides the last long band into PSFB21 equal-width
// slices and the last short band into PSFB12 equal-width slices.
func DerivePseudoBands(b ScalefacBand) PseudoBands {
	var p PseudoBands
	subdivide(b.L[SBMaxLong-1], b.L[SBMaxLong], PSFB21, p.L21[:])
	subdivide(b.S[SBMaxShort-1], b.S[SBMaxShort], PSFB12, p.S12[:])
	return p
}

func subdivide(start, end, n int, out []int) {
	width := end - start
	for i := 0; i <= n; i++ {
		out[i] = start + (width*i)/n
	}
}
