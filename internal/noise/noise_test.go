package noise

import (
	"testing"

	"github.com/mp3enc/lame/internal/granule"
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

func TestCalcNoisePerfectQuantizationIsLowDistortion(t *testing.T) {
	fc := testContext(t)
	g := &granule.GranuleInfo{SfbMax: tables.SBMaxLong}
	for i := range g.Scalefac {
		g.Scalefac[i] = tables.NewScaleFac(0)
	}
	var xmin [granule.SFBMax]float64
	for i := range xmin {
		xmin[i] = 1e6 // generous allowance
	}
	res := CalcNoise(fc, g, 100, &xmin)
	require.Zero(t, res.OverCount)
}

func TestCalcNoiseShortBlockUsesShortBandRanges(t *testing.T) {
	fc := testContext(t)
	g := &granule.GranuleInfo{BlockType: types.BlockShort, SfbMax: tables.SBMaxShort}
	g.FillWidths(fc)
	for i := range g.Scalefac {
		g.Scalefac[i] = tables.NewScaleFac(0)
	}

	// A short sfb's combined 3-window range ends at fc.Bands.S[sfb+1]*3; a
	// coefficient just beyond it belongs to the next band. If CalcNoise fell
	// back to the long-block table it would read the wrong coefficients
	// entirely (or index past the granule for high sfbs).
	lo, hi := g.BandRange(fc, 5)
	require.Less(t, hi, granule.CoeffCount)
	g.Xr[hi-1] = 40.0
	g.L3Enc[hi-1] = 0 // fully unquantized: forces nonzero banded distortion

	var xmin [granule.SFBMax]float64
	for i := range xmin {
		xmin[i] = 1e-9 // tiny allowance: any real energy in range overflows
	}
	res := CalcNoise(fc, g, 100, &xmin)
	require.Greater(t, res.Distort[5], 0.0)
	require.Equal(t, lo, fc.Bands.S[5]*3)
}

func TestQuantCompareFewerOverflowsWins(t *testing.T) {
	a := Result{OverCount: 2, TotNoise: 5}
	b := Result{OverCount: 1, TotNoise: 10}
	require.True(t, QuantCompare(a, b))
}

func TestQuantCompareTieBreaksOnNoise(t *testing.T) {
	a := Result{OverCount: 0, TotNoise: 5}
	b := Result{OverCount: 0, TotNoise: 3}
	require.True(t, QuantCompare(a, b))
	require.False(t, QuantCompare(b, a))
}
