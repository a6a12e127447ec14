package scalefac

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

func newGranule() *granule.GranuleInfo {
	g := &granule.GranuleInfo{SfbMax: tables.SBMaxLong}
	for i := range g.Scalefac {
		g.Scalefac[i] = tables.NewScaleFac(4)
	}
	return g
}

func TestZeroBandWipe(t *testing.T) {
	fc := testContext(t)
	g := newGranule()
	// sfb 0 spans fc.Bands.L[0]..L[1], leave all zero in L3Enc (default).
	BestScalefacStore(fc, g)
	require.True(t, g.Scalefac[0].IsZeroBand())
}

func TestScalefacScaleHalving(t *testing.T) {
	fc := testContext(t)
	g := newGranule()
	for i := range g.L3Enc {
		g.L3Enc[i] = 1 // nothing is all-zero, so no band gets wiped
	}
	for i := range g.Scalefac {
		g.Scalefac[i] = tables.NewScaleFac(6) // even
	}
	BestScalefacStore(fc, g)
	require.Equal(t, 1, g.ScalefacScale)
	v, ok := g.Scalefac[0].Value()
	require.True(t, ok)
	require.Equal(t, 3, v)
}

func TestScalefacScaleHalvingSkippedOnOddValue(t *testing.T) {
	fc := testContext(t)
	g := newGranule()
	for i := range g.L3Enc {
		g.L3Enc[i] = 1
	}
	g.Scalefac[5] = tables.NewScaleFac(3) // odd, blocks halving
	BestScalefacStore(fc, g)
	require.Equal(t, 0, g.ScalefacScale)
}

func TestPreflagPromotion(t *testing.T) {
	fc := testContext(t)
	g := newGranule()
	for i := range g.L3Enc {
		g.L3Enc[i] = 1
	}
	for sfb := 11; sfb <= 20; sfb++ {
		g.Scalefac[sfb] = tables.NewScaleFac(tables.Pretab[sfb] + 2)
	}
	BestScalefacStore(fc, g)
	require.Equal(t, 1, g.Preflag)
}

func TestApplySCFSIMarksMatchingGroups(t *testing.T) {
	gr0 := newGranule()
	gr1 := newGranule()
	for sfb := range gr0.Scalefac {
		gr0.Scalefac[sfb] = tables.NewScaleFac(3)
		gr1.Scalefac[sfb] = tables.NewScaleFac(3)
	}
	scfsi := ApplySCFSI(types.MPEG1, gr0, gr1)
	for _, v := range scfsi {
		require.True(t, v)
	}
	for sfb := 0; sfb < tables.ScfsiBand[len(tables.ScfsiBand)-1]; sfb++ {
		require.True(t, gr1.Scalefac[sfb].IsReused())
	}
}

func TestApplySCFSINotAppliedOutsideMPEG1(t *testing.T) {
	gr0, gr1 := newGranule(), newGranule()
	scfsi := ApplySCFSI(types.MPEG2, gr0, gr1)
	for _, v := range scfsi {
		require.False(t, v)
	}
}

func TestScaleBitcountFitsMax(t *testing.T) {
	g := newGranule()
	for sfb := 0; sfb < 11; sfb++ {
		g.Scalefac[sfb] = tables.NewScaleFac(3)
	}
	for sfb := 11; sfb < 21; sfb++ {
		g.Scalefac[sfb] = tables.NewScaleFac(7)
	}
	code, length := ScaleBitcount(g)
	require.GreaterOrEqual(t, code, 0)
	require.Greater(t, length, 0)
}

func TestScaleBitcountLSFFindsPartition(t *testing.T) {
	g := newGranule()
	g.SfbMax = tables.SBMaxLong
	part, compress, length := ScaleBitcountLSF(g)
	require.GreaterOrEqual(t, part.TableNumber, 0)
	require.GreaterOrEqual(t, compress, 0)
	require.GreaterOrEqual(t, length, 0)
}
