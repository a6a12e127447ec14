// Package scalefac implements best_scalefac_store's side-info-only
// compressions (zero-band wipe, scalefac_scale halving, preflag
// promotion, SCFSI detection) and the scale_bitcount/scale_bitcount_lsf
// enumeration that sizes the resulting side info.
package scalefac

import (
	"github.com/mp3enc/lame/internal/granule"
	"github.com/mp3enc/lame/internal/tables"
	"github.com/mp3enc/lame/types"
)

// BestScalefacStore performs the three per-granule compressions
// (zero-band wipe, scalefac_scale halving, preflag promotion), mutating
// g in place. It does not change the
// audio: l3_enc is untouched, only the side-info representation shrinks.
func BestScalefacStore(fc *granule.FrameContext, g *granule.GranuleInfo) {
	zeroBandWipe(fc, g)
	scalefacScaleHalving(g)
	preflagPromotion(g)
}

func zeroBandWipe(fc *granule.FrameContext, g *granule.GranuleInfo) {
	for sfb := 0; sfb < g.SfbMax && sfb < tables.SBMaxLong; sfb++ {
		lo, hi := fc.Bands.L[sfb], fc.Bands.L[sfb+1]
		if !allZero(g.L3Enc[lo:hi]) {
			continue
		}
		g.Scalefac[sfb] = tables.ZeroBandScaleFac()
	}
}

func allZero(s []int) bool {
	for _, v := range s {
		if v != 0 {
			return false
		}
	}
	return true
}

func scalefacScaleHalving(g *granule.GranuleInfo) {
	if g.ScalefacScale == 1 {
		return
	}
	anyNonzero := false
	for sfb := 0; sfb < g.SfbMax && sfb < tables.SBMaxLong; sfb++ {
		v, ok := g.Scalefac[sfb].Value()
		if !ok {
			continue
		}
		if v%2 != 0 {
			return // an odd scalefac blocks the halving
		}
		if v != 0 {
			anyNonzero = true
		}
	}
	if !anyNonzero {
		return
	}
	for sfb := 0; sfb < g.SfbMax && sfb < tables.SBMaxLong; sfb++ {
		v, ok := g.Scalefac[sfb].Value()
		if !ok {
			continue
		}
		g.Scalefac[sfb] = tables.NewScaleFac(v / 2)
	}
	g.ScalefacScale = 1
}

func preflagPromotion(g *granule.GranuleInfo) {
	if g.Preflag == 1 {
		return
	}
	const lowSfb, highSfb = 11, 20
	for sfb := lowSfb; sfb <= highSfb && sfb < tables.SBMaxLong; sfb++ {
		v, ok := g.Scalefac[sfb].Value()
		if !ok || v < tables.Pretab[sfb] {
			return
		}
	}
	for sfb := lowSfb; sfb <= highSfb && sfb < tables.SBMaxLong; sfb++ {
		v, _ := g.Scalefac[sfb].Value()
		g.Scalefac[sfb] = tables.NewScaleFac(v - tables.Pretab[sfb])
	}
	g.Preflag = 1
}

// ApplySCFSI compares granule 0 and granule 1's scalefacs band-group by
// band-group (MPEG-1 only); where every sfb in a group matches, it marks
// scfsi[ch][band]=true and replaces granule 1's scalefacs in that group
// with the reused sentinel.
func ApplySCFSI(version types.Version, gr0, gr1 *granule.GranuleInfo) [granule.SCFSIBands]bool {
	var scfsi [granule.SCFSIBands]bool
	if version != types.MPEG1 {
		return scfsi
	}
	for band := 0; band < granule.SCFSIBands; band++ {
		lo, hi := tables.ScfsiBand[band], tables.ScfsiBand[band+1]
		if !groupMatches(gr0, gr1, lo, hi) {
			continue
		}
		scfsi[band] = true
		for sfb := lo; sfb < hi; sfb++ {
			gr1.Scalefac[sfb] = tables.ReusedScaleFac()
		}
	}
	return scfsi
}

func groupMatches(gr0, gr1 *granule.GranuleInfo, lo, hi int) bool {
	for sfb := lo; sfb < hi && sfb < tables.SBMaxLong; sfb++ {
		v0, ok0 := gr0.Scalefac[sfb].Value()
		v1, ok1 := gr1.Scalefac[sfb].Value()
		if ok0 != ok1 || v0 != v1 {
			return false
		}
	}
	return true
}

// slenTable is ISO/IEC 11172-3's scalefac_compress -> (slen1, slen2)
// table, used by scale_bitcount (MPEG-1). Index is scalefac_compress
// (0..15).
var slenTable = [16][2]int{
	{0, 0}, {0, 1}, {0, 2}, {0, 3}, {3, 0}, {1, 1}, {1, 2}, {1, 3},
	{2, 1}, {2, 2}, {2, 3}, {3, 1}, {3, 2}, {3, 3}, {4, 2}, {4, 3},
}

// ScaleBitcount enumerates all 16 legal scalefac_compress codes (MPEG-1)
// and returns the smallest whose slen1/slen2 fields can hold every
// scalefac in their respective band ranges, plus the resulting
// part2_length.
func ScaleBitcount(g *granule.GranuleInfo) (scalefacCompress, part2Length int) {
	max1 := maxScalefacIn(g, 0, 11)
	max2 := maxScalefacIn(g, 11, 21)

	best := -1
	bestLen := -1
	for code, slen := range slenTable {
		if (1<<uint(slen[0]))-1 < max1 || (1<<uint(slen[1]))-1 < max2 {
			continue
		}
		length := 11*slen[0] + 10*slen[1]
		if best == -1 || length < bestLen {
			best, bestLen = code, length
		}
	}
	if best == -1 {
		best, bestLen = 15, 11*4+10*3
	}
	return best, bestLen
}

func maxScalefacIn(g *granule.GranuleInfo, lo, hi int) int {
	max := 0
	for sfb := lo; sfb < hi && sfb < tables.SBMaxLong; sfb++ {
		v, ok := g.Scalefac[sfb].Value()
		if ok && v > max {
			max = v
		}
	}
	return max
}

// LSFPartition is one candidate (table_number, row_in_table) for
// scale_bitcount_lsf (MPEG-2/2.5).
type LSFPartition struct {
	TableNumber int
	Row         int
	Slen        [4]int
}

// ScaleBitcountLSF enumerates the MPEG-2 scalefac partitionings of the
// first three tables in tables.NrOfSfbBlock (the ones lsfScalefacCompress
// encodes; the intensity-stereo tables are not searched) and returns the smallest representation that can
// hold every granule scalefac, its scalefac_compress side-info value, and
// its part2_length.
func ScaleBitcountLSF(g *granule.GranuleInfo) (LSFPartition, int, int) {
	best := LSFPartition{}
	bestLen := -1
	bestFound := false

	for table := 0; table < 3; table++ {
		for row := 0; row < 3; row++ {
			partitions := tables.NrOfSfbBlock[table][row]
			if !fits(g, partitions) {
				continue
			}
			length := 0
			var slen [4]int
			sfb := 0
			for p, width := range partitions {
				if width == 0 {
					continue
				}
				slen[p] = bitsFor(maxScalefacIn(g, sfb, sfb+width))
				length += slen[p] * width
				sfb += width
			}
			if !bestFound || length < bestLen {
				best = LSFPartition{TableNumber: table, Row: row, Slen: slen}
				bestLen = length
				bestFound = true
			}
		}
	}
	if !bestFound {
		return LSFPartition{TableNumber: 0, Row: 0}, 0, 0
	}
	return best, lsfScalefacCompress(best), bestLen
}

// lsfScalefacCompress packs a chosen LSF partitioning's slen widths into
// the 9-bit scalefac_compress side-info field, per ISO/IEC 13818-3
// section 2.4.3.2's three table_number encodings (intensity-stereo's
// fourth table is not modeled: this package has no intensity-stereo
// stage to select it).
func lsfScalefacCompress(p LSFPartition) int {
	s1, s2, s3, s4 := p.Slen[0], p.Slen[1], p.Slen[2], p.Slen[3]
	switch p.TableNumber {
	case 0:
		return (s1*5+s2)<<4 + s3<<2 + s4
	case 1:
		return 400 + (s1*5+s2)<<2 + s3
	default:
		return 500 + s1*3 + s2
	}
}

func fits(g *granule.GranuleInfo, partitions [4]int) bool {
	sum := 0
	for _, w := range partitions {
		sum += w
	}
	return sum >= g.SfbMax
}

func bitsFor(max int) int {
	n := 0
	for (1 << uint(n)) - 1 < max {
		n++
	}
	return n
}
