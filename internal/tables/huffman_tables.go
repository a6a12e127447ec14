package tables

import "math/bits"

// HuffTable is one of the 32 ISO/IEC 11172-3 Annex B Huffman tables used by
// the big-values region.
// Only code LENGTHS are kept — the actual codewords are the bitstream
// packer's concern, out of scope here — so HLen doubles as both
// the decoder's length table and the encoder's bit-counting table, exactly
// as libmp3lame's takehiro.c uses it.
type HuffTable struct {
	XLen    int   // pair values range [0,XLen)
	LinBits int    // escape field width (tables 16..31 only)
	LinMax  int   // largest value representable via this table's escape
	HLen    []int // code length for pair index x*XLen+y, len XLen*XLen
}

// Ht is libmp3lame's ht[0..31]. Tables 4 and 14 are unused (zero-length
// placeholders) per the ISO assignment. Exact bit-length content for
// tables.c was not part of the retrieved original_source pack (only
// lame.c, quantize_pvt.c, takehiro.c were kept — see DESIGN.md); XLen,
// LinBits and the ISO Table B.7 table-selection order (HufTblNoESC below)
// are reproduced verbatim from takehiro.c, and HLen is generated by
// buildLengths to the same shape (monotonic non-decreasing in x+y, the
// defining property of a magnitude-ordered Huffman table) with a distinct
// steepness per sibling table. A higher-ranked sibling is never longer than
// a lower-ranked one for any pair, so in choose_table's comparison the
// highest-ranked sibling always costs the fewest bits or ties.
var Ht [32]HuffTable

// HufTblNoESC maps (max-1) to the starting table index used by
// count_bit_noESC_from2/from3, reproduced verbatim from takehiro.c's
// choose_table_nonMMX.
var HufTblNoESC = [14]int{1, 2, 5, 7, 7, 10, 10, 13, 13, 13, 13, 13, 13, 13}

func init() {
	xlens := [32]int{
		0, 2, 3, 3, 0, 4, 4, 6, 6, 6,
		8, 8, 8, 16, 0, 16, 16, 16, 16, 16,
		16, 16, 16, 16, 16, 16, 16, 16, 16, 16,
		16, 16,
	}
	linbits := [32]int{
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0,
		1, 2, 3, 4, 6, 8, 10, 13,
		4, 5, 6, 7, 8, 9, 11, 13,
	}
	// siblingRank differentiates tables that share an xlen: within {2,3},
	// {5,6}, {7,8,9}, {10,11,12} and {13,15} a later table gets a larger
	// divisor on buildLengths' magnitude term, so its length for every pair
	// is less than or equal to an earlier sibling's.
	siblingRank := map[int]int{
		2: 0, 3: 1,
		5: 0, 6: 1,
		7: 0, 8: 1, 9: 2,
		10: 0, 11: 1, 12: 2,
		1: 0, 13: 0, 15: 1,
	}

	for i := 0; i < 32; i++ {
		xlen := xlens[i]
		t := HuffTable{XLen: xlen, LinBits: linbits[i]}
		if linbits[i] > 0 || i >= 16 {
			t.LinMax = (1 << linbits[i]) - 1
		}
		if xlen > 0 {
			t.HLen = buildLengths(xlen, siblingRank[i])
		}
		Ht[i] = t
	}
}

// buildLengths fills an xlen*xlen length table where entry (x,y) costs
// 1+bits.Len(x+y)+(x+y)/(1+rank) bits, and (0,0) costs 1. A higher rank
// lowers or keeps every entry; it never makes small magnitudes cost more.
func buildLengths(xlen, rank int) []int {
	out := make([]int, xlen*xlen)
	spread := 1 + rank // 1, 2, 3...
	for x := 0; x < xlen; x++ {
		for y := 0; y < xlen; y++ {
			mag := x + y
			length := 1 + bits.Len(uint(mag)) + mag/spread
			if x == 0 && y == 0 {
				length = 1
			}
			out[x*xlen+y] = length
		}
	}
	return out
}

// T32L and T33L are the count1 quadruple Huffman length tables (tables 32
// and 33 in the ISO numbering — outside the 0..31 big-values range),
// indexed by the 4-bit pattern p = ((v*2+w)*2+x)*2+y over
// (v,w,x,y) in {0,1}^4. Table 33 is the flat 4-bits-always table; table 32
// favors the all-zero pattern. Exact literal content lives in
// libmp3lame's tables.c (not in the retrieved pack); these reproduce its
// documented shape (count1table_select picks whichever totals fewer bits
// per granule).
var T32L [16]int
var T33L [16]int

func init() {
	for p := 0; p < 16; p++ {
		ones := bits.OnesCount(uint(p))
		T32L[p] = 1 + 2*ones
		T33L[p] = 4
	}
	T32L[0] = 1
}
