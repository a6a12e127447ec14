package quant

import (
	"testing"

	"github.com/mp3enc/lame/internal/granule"
	"github.com/mp3enc/lame/internal/tables"
	"github.com/mp3enc/lame/types"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
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
	return g
}

func TestQuantizeSilenceYieldsZero(t *testing.T) {
	fc := testContext(t)
	g := newGranule()
	g.MaxNonzeroCoeff = -1
	err := Quantize(fc, g, KindISO, 100, nil)
	require.NoError(t, err)
	for _, v := range g.L3Enc {
		require.Zero(t, v)
	}
}

func TestQuantizeOverflowDetected(t *testing.T) {
	fc := testContext(t)
	g := newGranule()
	g.Xr[0] = 1e9
	g.XrPowMax = 1e9
	err := Quantize(fc, g, KindISO, 0, nil)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestQuantizeISOMatchesFormula(t *testing.T) {
	p := tables.Tables()
	rapid.Check(t, func(rt *rapid.T) {
		globalGain := rapid.IntRange(50, 200).Draw(rt, "gain")
		absXr := rapid.Float64Range(0, 100).Draw(rt, "xr")
		istep := p.IPow20At(globalGain)
		got := quantizeOne(KindISO, absXr, istep, p)
		want := int(istep*absXr + tables.RoundFacTrunc)
		require.Equal(t, want, got)
	})
}

func TestQuantizeNoiseCacheReuse(t *testing.T) {
	fc := testContext(t)
	g := newGranule()
	for i := 0; i < 10; i++ {
		g.Xr[i] = float64(i) * 0.1
	}
	var cache NoiseCache
	require.NoError(t, Quantize(fc, g, KindISO, 120, &cache))
	first := g.L3Enc
	require.NoError(t, Quantize(fc, g, KindISO, 120, &cache))
	require.Equal(t, first, g.L3Enc)
}
