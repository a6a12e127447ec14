// Package huffman selects Huffman tables for the big-values and count1
// regions of a granule's quantized coefficients and counts the resulting
// bits.
package huffman

import (
	"github.com/mp3enc/lame/internal/granule"
	"github.com/mp3enc/lame/internal/tables"
)

// maxPair returns the largest |x| or |y| value in ix[begin:end], treated
// as consecutive (x,y) pairs.
func maxPair(ix []int, begin, end int) int {
	max := 0
	for i := begin; i < end; i++ {
		v := ix[i]
		if v < 0 {
			v = -v
		}
		if v > max {
			max = v
		}
	}
	return max
}

// countBitsNoESC sums HLen[x*XLen+y] over the region, for a table with no
// escape mechanism (every pair value fits in XLen).
func countBitsNoESC(ix []int, begin, end, table int) int {
	ht := tables.Ht[table]
	sum := 0
	for i := begin; i+1 < end; i += 2 {
		x, y := absClamp(ix[i], ht.XLen-1), absClamp(ix[i+1], ht.XLen-1)
		sum += ht.HLen[x*ht.XLen+y]
	}
	return sum
}

// countBitsESC sums bits for an escape-capable table: values above 14 cost
// a fixed 15-symbol length plus LinBits extra bits.
func countBitsESC(ix []int, begin, end, table int) int {
	ht := tables.Ht[table]
	sum := 0
	for i := begin; i+1 < end; i += 2 {
		x, y := ix[i], ix[i+1]
		sum += pairBitsESC(ht, x, y)
	}
	return sum
}

func pairBitsESC(ht tables.HuffTable, x, y int) int {
	if x < 0 {
		x = -x
	}
	if y < 0 {
		y = -y
	}
	bits := 0
	xc, yc := x, y
	if xc > 14 {
		bits += ht.LinBits
		xc = 15
	}
	if yc > 14 {
		bits += ht.LinBits
		yc = 15
	}
	bits += ht.HLen[xc*ht.XLen+yc]
	if x != 0 {
		bits++ // sign bit
	}
	if y != 0 {
		bits++
	}
	return bits
}

func absClamp(v, max int) int {
	if v < 0 {
		v = -v
	}
	if v > max {
		v = max
	}
	return v
}

// ChooseTable picks the cheapest Huffman table covering ix[begin:end],
// returning the table index and its bit cost, including sign bits for the
// no-escape tables' nonzero entries.
func ChooseTable(ix []int, begin, end int) (table, bits int) {
	max := maxPair(ix, begin, end)
	if max == 0 {
		return 0, 0
	}
	if max > 15 {
		return chooseEscTable(ix, begin, end, max)
	}

	idx := max - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(tables.HufTblNoESC) {
		idx = len(tables.HufTblNoESC) - 1
	}
	start := tables.HufTblNoESC[idx]

	best := start
	bestBits := countBitsNoESCWithSign(ix, begin, end, start)

	candidates := siblingTables(start)
	for _, t := range candidates {
		b := countBitsNoESCWithSign(ix, begin, end, t)
		if b < bestBits {
			best, bestBits = t, b
		}
	}
	return best, bestBits
}

func countBitsNoESCWithSign(ix []int, begin, end, table int) int {
	ht := tables.Ht[table]
	sum := 0
	for i := begin; i+1 < end; i += 2 {
		x, y := ix[i], ix[i+1]
		sum += ht.HLen[absClamp(x, ht.XLen-1)*ht.XLen+absClamp(y, ht.XLen-1)]
		if x != 0 {
			sum++
		}
		if y != 0 {
			sum++
		}
	}
	return sum
}

// siblingTables returns the other tables sharing start's XLen, so
// ChooseTable can compare the 2/3-way candidates the ISO table groups
// offer.
func siblingTables(start int) []int {
	switch start {
	case 1:
		return nil
	case 2:
		return []int{3}
	case 5:
		return []int{6}
	case 7:
		return []int{8, 9}
	case 10:
		return []int{11, 12}
	case 13:
		return []int{15}
	default:
		return nil
	}
}

func chooseEscTable(ix []int, begin, end, max int) (table, bits int) {
	best := -1
	bestBits := 0
	for t := 16; t < 32; t++ {
		ht := tables.Ht[t]
		if max-15 > ht.LinMax {
			continue
		}
		b := countBitsESC(ix, begin, end, t)
		if best == -1 || b < bestBits {
			best, bestBits = t, b
		}
	}
	if best == -1 {
		best = 31
		bestBits = countBitsESC(ix, begin, end, best)
	}
	return best, bestBits
}

// Count1Region scans ix downward from begin for runs of quadruples whose
// entries are all in {-1,0,1}, accumulating both candidate count1 tables
// and returning the cheaper.
func Count1Region(ix []int, begin int) (count1 int, table int, bits int) {
	i := begin
	var a1, a2 int
	for i >= 4 {
		v, w, x, y := ix[i-4], ix[i-3], ix[i-2], ix[i-1]
		if absAny1(v, w, x, y) {
			break
		}
		p := pattern(v, w, x, y)
		a1 += tables.T32L[p]
		a2 += tables.T33L[p]
		i -= 4
	}
	count1 = begin - i
	if a1 <= a2 {
		return count1, 32, a1
	}
	return count1, 33, a2
}

func absAny1(v, w, x, y int) bool {
	return absGT1(v) || absGT1(w) || absGT1(x) || absGT1(y)
}

func absGT1(v int) bool {
	if v < 0 {
		v = -v
	}
	return v > 1
}

func pattern(v, w, x, y int) int {
	bit := func(z int) int {
		if z != 0 {
			return 1
		}
		return 0
	}
	return bit(v)<<3 | bit(w)<<2 | bit(x)<<1 | bit(y)
}

// BigValuesEnd scans ix downward from 576 over pairs of zeros and returns
// the (even) index where the all-zero tail starts. NoquantCountBits uses it
// as the end of the count1 region.
func BigValuesEnd(ix []int) int {
	i := granule.CoeffCount
	for i > 1 && ix[i-1] == 0 && ix[i-2] == 0 {
		i -= 2
	}
	return i
}

// NoquantCountBits fills the granule's BigValues, Count1,
// Region0Count/Region1Count, TableSelect, Count1TableSelect and
// Part2_3Length from its already-quantized L3Enc, recomputing the default
// region split for the block type on every call. It is idempotent: calling it twice on
// the same L3Enc yields identical results.
func NoquantCountBits(fc *granule.FrameContext, g *granule.GranuleInfo) int {
	ix := g.L3Enc[:]

	count1End := BigValuesEnd(ix)
	count1, c1Table, c1Bits := Count1Region(ix, count1End)
	g.Count1 = count1
	g.Count1TableSelect = c1Table

	bigValuesEnd := count1End - count1
	if bigValuesEnd%2 != 0 {
		bigValuesEnd--
	}
	g.BigValues = bigValuesEnd / 2

	r0, r1 := regionSplit(fc, g, bigValuesEnd)
	g.Region0Count = r0
	g.Region1Count = r1

	bound0 := regionBound(fc, g, r0)
	bound1 := regionBound(fc, g, r0+r1+1)
	if bound0 > bigValuesEnd {
		bound0 = bigValuesEnd
	}
	if bound1 > bigValuesEnd {
		bound1 = bigValuesEnd
	}

	t0, b0 := ChooseTable(ix, 0, bound0)
	t1, b1 := ChooseTable(ix, bound0, bound1)
	t2, b2 := ChooseTable(ix, bound1, bigValuesEnd)

	g.TableSelect[0], g.TableSelect[1], g.TableSelect[2] = t0, t1, t2

	total := b0 + b1 + b2 + c1Bits
	g.Part2_3Length = total
	return total
}

// regionSplit returns (region0Count, region1Count) for one granule's block
// type. START/STOP and LONG blocks get band counts; for SHORT blocks the
// first value is the coefficient index 3*S[3], not a band count.
func regionSplit(fc *granule.FrameContext, g *granule.GranuleInfo, bigValuesEnd int) (int, int) {
	if g.BlockType == 2 { // SHORT, not mixed
		return sfbBand(fc, 3, true), tables.SBMaxShort - 4
	}
	if g.BlockType == 1 || g.BlockType == 3 { // START/STOP
		return 7, tables.SBMaxLong - 9
	}
	// NORM_TYPE / LONG: default split from subdv_table, indexed by the
	// number of active long sfbs.
	nsfb := activeSfbCount(fc, bigValuesEnd)
	if nsfb <= 0 {
		return 0, 0
	}
	if nsfb >= len(tables.SubdvTable) {
		nsfb = len(tables.SubdvTable) - 1
	}
	entry := tables.SubdvTable[nsfb]
	return entry.Region0Count, entry.Region1Count
}

func sfbBand(fc *granule.FrameContext, sfb int, short bool) int {
	if short {
		if sfb <= tables.SBMaxShort {
			return fc.Bands.S[sfb] * 3
		}
		return granule.CoeffCount
	}
	if sfb <= tables.SBMaxLong {
		return fc.Bands.L[sfb]
	}
	return granule.CoeffCount
}

func activeSfbCount(fc *granule.FrameContext, bigValuesEnd int) int {
	for sfb := 0; sfb < tables.SBMaxLong; sfb++ {
		if fc.Bands.L[sfb] >= bigValuesEnd {
			return sfb
		}
	}
	return tables.SBMaxLong
}

func regionBound(fc *granule.FrameContext, g *granule.GranuleInfo, sfbCount int) int {
	if sfbCount <= 0 {
		return 0
	}
	if sfbCount >= tables.SBMaxLong {
		return granule.CoeffCount
	}
	return fc.Bands.L[sfbCount]
}

// CountBits totals the bits of the granule's L3Enc for the given region
// bounds without re-deriving the split or updating any side-info field.
func CountBits(g *granule.GranuleInfo, bound0, bound1, bigValuesEnd int) int {
	ix := g.L3Enc[:]
	_, b0 := ChooseTable(ix, 0, bound0)
	_, b1 := ChooseTable(ix, bound0, bound1)
	_, b2 := ChooseTable(ix, bound1, bigValuesEnd)
	_, _, c1Bits := Count1Region(ix, bigValuesEnd)
	return b0 + b1 + b2 + c1Bits
}

// BestHuffmanDivide enumerates candidate (region0Count, region1Count)
// splits around the default and keeps the cheapest.
func BestHuffmanDivide(fc *granule.FrameContext, g *granule.GranuleInfo) int {
	base := NoquantCountBits(fc, g)
	bestBits := base
	bestR0, bestR1 := g.Region0Count, g.Region1Count
	bestTables := g.TableSelect

	bigValuesEnd := g.BigValues * 2
	for dr0 := -2; dr0 <= 2; dr0++ {
		for dr1 := -2; dr1 <= 2; dr1++ {
			r0 := bestR0 + dr0
			r1 := bestR1 + dr1
			if r0 < 0 || r1 < 0 || r0+r1+2 > tables.SBMaxLong {
				continue
			}
			bound0 := regionBound(fc, g, r0)
			bound1 := regionBound(fc, g, r0+r1+1)
			if bound0 > bigValuesEnd {
				bound0 = bigValuesEnd
			}
			if bound1 > bigValuesEnd {
				bound1 = bigValuesEnd
			}
			t0, b0 := ChooseTable(g.L3Enc[:], 0, bound0)
			t1, b1 := ChooseTable(g.L3Enc[:], bound0, bound1)
			t2, b2 := ChooseTable(g.L3Enc[:], bound1, bigValuesEnd)
			_, _, c1Bits := Count1Region(g.L3Enc[:], bigValuesEnd)
			total := b0 + b1 + b2 + c1Bits
			if total < bestBits {
				bestBits = total
				bestR0, bestR1 = r0, r1
				bestTables = [3]int{t0, t1, t2}
			}
		}
	}

	g.Region0Count, g.Region1Count = bestR0, bestR1
	g.TableSelect = bestTables
	g.Part2_3Length = bestBits
	return bestBits
}
