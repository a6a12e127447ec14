package ratecontrol

import (
	"testing"

	"github.com/mp3enc/lame/internal/granule"
	"github.com/mp3enc/lame/internal/quant"
	"github.com/mp3enc/lame/internal/tables"
	"github.com/mp3enc/lame/types"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) *granule.FrameContext {
	t.Helper()
	fc, err := granule.NewFrameContext(types.MPEG1, 44100, types.ModeStereo, types.StrategyCBR, granule.QualityProfile{}, tables.ModelGPSYCHO, 0, false)
	require.NoError(t, err)
	return fc
}

func newGranule() *granule.GranuleInfo {
	g := &granule.GranuleInfo{SfbMax: tables.SBMaxLong, MaxNonzeroCoeff: granule.CoeffCount - 1}
	for i := range g.Scalefac {
		g.Scalefac[i] = tables.NewScaleFac(0)
	}
	for i := range g.Xr {
		g.Xr[i] = 0.01 * float64(i%17)
	}
	g.XrPowMax = 50
	return g
}

func TestInnerLoopMeetsBudget(t *testing.T) {
	fc := testContext(t)
	g := newGranule()
	var st ChannelState
	bits := InnerLoop(fc, g, &st, quant.KindISO, 400)
	require.LessOrEqual(t, bits, 400)
}

func TestInnerLoopSeedsFromPreviousGranule(t *testing.T) {
	fc := testContext(t)
	g := newGranule()
	var st ChannelState
	InnerLoop(fc, g, &st, quant.KindISO, 400)
	require.True(t, st.initialized)
	require.Equal(t, g.GlobalGain, st.CurrentStep)
}

func TestCountOverShortReadsConsecutiveNotInterleavedRange(t *testing.T) {
	fc := testContext(t)
	g := &granule.GranuleInfo{BlockType: types.BlockShort}
	g.FillWidths(fc)

	// Put real energy only in window 1's slice of sfb 4; windows 0 and 2
	// stay silent. An interleaved reader (old lo+win, step 3) would instead
	// sample a stride of unrelated coefficients and could easily report the
	// same (wrong) overflow count for every window.
	lo, hi := g.ShortWindowRange(fc, 4, 1)
	for j := lo; j < hi; j++ {
		g.Xr[j] = 30.0
	}

	var xminShort [3][granule.SFBMax]float64
	xminShort[0][4] = 1e6
	xminShort[1][4] = 1e-9
	xminShort[2][4] = 1e6

	require.Zero(t, countOverShort(fc, g, &xminShort, 0))
	require.Equal(t, 1, countOverShort(fc, g, &xminShort, 1))
	require.Zero(t, countOverShort(fc, g, &xminShort, 2))
}

func TestSubblockGainSearchKeepsGainInRange(t *testing.T) {
	fc := testContext(t)
	g := &granule.GranuleInfo{BlockType: types.BlockShort}
	g.FillWidths(fc)
	for i := range g.Xr {
		g.Xr[i] = 0.01 * float64(i%23)
	}

	var xminShort [3][granule.SFBMax]float64
	for win := range xminShort {
		for sfb := range xminShort[win] {
			xminShort[win][sfb] = 1.0
		}
	}

	SubblockGainSearch(fc, g, &xminShort)
	for _, gain := range g.SubblockGain {
		require.GreaterOrEqual(t, gain, 0)
		require.LessOrEqual(t, gain, 7)
	}
}

func TestReduceSideNeverBelowFloor(t *testing.T) {
	mid, side := 1000, 130
	ReduceSide(&mid, &side, 0.0, 4095)
	require.GreaterOrEqual(t, side, 125)
}

func TestReduceSideRespectsMaxBits(t *testing.T) {
	mid, side := 3000, 2000
	ReduceSide(&mid, &side, 0.0, 4095)
	require.LessOrEqual(t, mid+side, 4095)
}

func TestPEBudgetAddNonNegative(t *testing.T) {
	b := PEBudget{MeanBits: 1000, ExtraBits: 500, Channels: 2}
	require.GreaterOrEqual(t, b.TargetBits(0), 1000/2)
}

func TestPEBudgetCappedByExtraBits(t *testing.T) {
	b := PEBudget{MeanBits: 1000, ExtraBits: 10, Channels: 2}
	got := b.TargetBits(10000)
	require.LessOrEqual(t, got, 1000/2+10)
}
