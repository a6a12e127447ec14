package huffman

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

func TestChooseTableAllZeroIsFree(t *testing.T) {
	ix := make([]int, 20)
	table, bits := ChooseTable(ix, 0, 20)
	require.Equal(t, 0, table)
	require.Zero(t, bits)
}

func TestChooseTableEscapeForLargeValues(t *testing.T) {
	ix := make([]int, 4)
	ix[0], ix[1] = 5000, 3000
	table, bits := ChooseTable(ix, 0, 4)
	require.GreaterOrEqual(t, table, 16)
	require.Greater(t, bits, 0)
}

func TestCount1RegionAllOnes(t *testing.T) {
	ix := []int{1, -1, 1, 0, 1, 1, -1, 1}
	count1, table, bits := Count1Region(ix, len(ix))
	require.Equal(t, 8, count1)
	require.Contains(t, []int{32, 33}, table)
	require.Greater(t, bits, 0)
}

func TestCount1RegionStopsAtLargerValue(t *testing.T) {
	ix := []int{5, 0, 0, 0, 1, 1, -1, 1}
	count1, _, _ := Count1Region(ix, len(ix))
	require.Equal(t, 4, count1)
}

func TestBigValuesEndTrimsZeroTail(t *testing.T) {
	ix := make([]int, granule.CoeffCount)
	ix[100] = 3
	require.Equal(t, 102, BigValuesEnd(ix))
}

func TestNoquantCountBitsIdempotent(t *testing.T) {
	fc := testContext(t)
	g := &granule.GranuleInfo{SfbMax: tables.SBMaxLong}
	g.L3Enc[10] = 4
	g.L3Enc[11] = 2
	g.L3Enc[200] = 1
	g.L3Enc[201] = 1

	first := NoquantCountBits(fc, g)
	firstBV, firstC1, firstTS := g.BigValues, g.Count1, g.TableSelect

	second := NoquantCountBits(fc, g)
	require.Equal(t, first, second)
	require.Equal(t, firstBV, g.BigValues)
	require.Equal(t, firstC1, g.Count1)
	require.Equal(t, firstTS, g.TableSelect)
}

func TestRegionSplitShortBlockUsesShortBandTable(t *testing.T) {
	fc := testContext(t)
	g := &granule.GranuleInfo{BlockType: types.BlockShort}
	r0, r1 := regionSplit(fc, g, 0)
	require.Equal(t, fc.Bands.S[3]*3, r0)
	require.Equal(t, tables.SBMaxShort-4, r1)
}

func TestNoquantCountBitsShortBlockRegion0MatchesShortTable(t *testing.T) {
	fc := testContext(t)
	g := &granule.GranuleInfo{BlockType: types.BlockShort, SfbMax: tables.SBMaxShort}
	g.L3Enc[10] = 4
	g.L3Enc[11] = 2
	g.L3Enc[200] = 1
	g.L3Enc[201] = 1

	NoquantCountBits(fc, g)
	require.Equal(t, fc.Bands.S[3]*3, g.Region0Count)
	require.Equal(t, tables.SBMaxShort-4, g.Region1Count)
}

func TestBestHuffmanDivideNeverWorse(t *testing.T) {
	fc := testContext(t)
	g := &granule.GranuleInfo{SfbMax: tables.SBMaxLong}
	for i := 0; i < 300; i += 7 {
		g.L3Enc[i] = (i % 5) + 1
	}
	baseline := NoquantCountBits(fc, g)
	best := BestHuffmanDivide(fc, g)
	require.LessOrEqual(t, best, baseline)
}
