package tables

// Pretab is ISO/IEC 11172-3 Table B.6, the fixed preemphasis pattern added
// to high long-block scalefacs when preflag=1. Reproduced verbatim from
// libmp3lame's quantize_pvt.c.
var Pretab = [SBMaxLong]int{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	1, 1, 1, 1, 2, 2, 3, 3, 3, 2, 0,
}

// ScfsiBand partitions the 21 long scalefactor bands into the 4 SCFSI
// groups: group i covers sfb in
// [ScfsiBand[i], ScfsiBand[i+1]).
var ScfsiBand = [5]int{0, 6, 11, 16, 21}

// SubdvEntry is one row of the region0/region1 default-split table,
// indexed by the number of active long scalefactor bands ("NORM_TYPE"
// region split via bv_scf).
type SubdvEntry struct {
	Region0Count int
	Region1Count int
}

// SubdvTable is libmp3lame's takehiro.c subdv_table, used by huffman_init
// to precompute bv_scf (the default big-values region split for
// NORM_TYPE/long blocks).
var SubdvTable = [23]SubdvEntry{
	{0, 0}, {0, 0}, {0, 0}, {0, 0}, {0, 0},
	{0, 1}, {1, 1}, {1, 1}, {1, 2}, {2, 2},
	{2, 3}, {2, 3}, {3, 4}, {3, 4}, {3, 4},
	{4, 5}, {4, 5}, {4, 6}, {5, 6}, {5, 6},
	{5, 7}, {6, 7}, {6, 7},
}

// NrOfSfbBlock is ISO/IEC 13818-3 section 2.4.3.2's MPEG-2 scalefactor
// partitioning table: [table_number][row_in_table][partition] -> band
// count. Reproduced verbatim from libmp3lame's quantize_pvt.c.
var NrOfSfbBlock = [6][3][4]int{
	{{6, 5, 5, 5}, {9, 9, 9, 9}, {6, 9, 9, 9}},
	{{6, 5, 7, 3}, {9, 9, 12, 6}, {6, 9, 12, 6}},
	{{11, 10, 0, 0}, {18, 18, 0, 0}, {15, 18, 0, 0}},
	{{7, 7, 7, 0}, {12, 12, 12, 0}, {6, 15, 12, 0}},
	{{6, 6, 6, 3}, {12, 9, 9, 6}, {6, 12, 9, 6}},
	{{8, 8, 5, 0}, {15, 12, 9, 0}, {6, 18, 9, 0}},
}

// ScaleFac is a granule's per-band amplification, modeled as a sum type to
// retire the -1 (SCFSI-reused)/-2 (zero-band sentinel) magic-int encoding
// the reference encoder uses. Value carries a
// concrete amplification; Reused means "read from granule 0's scalefac in
// this band" (MPEG-1 SCFSI only); ZeroBand means "this band quantized to
// all zero, the stored value doesn't matter".
type ScaleFac struct {
	kind  scaleFacKind
	value int
}

type scaleFacKind uint8

const (
	scaleFacValue scaleFacKind = iota
	scaleFacReused
	scaleFacZeroBand
)

// NewScaleFac wraps a concrete amplification value.
func NewScaleFac(v int) ScaleFac { return ScaleFac{kind: scaleFacValue, value: v} }

// ReusedScaleFac is the SCFSI-reused sentinel.
func ReusedScaleFac() ScaleFac { return ScaleFac{kind: scaleFacReused} }

// ZeroBandScaleFac is the all-zero-band sentinel.
func ZeroBandScaleFac() ScaleFac { return ScaleFac{kind: scaleFacZeroBand} }

// Value returns the amplification and true, or (0, false) if this is a
// sentinel (Reused or ZeroBand).
func (s ScaleFac) Value() (int, bool) {
	if s.kind != scaleFacValue {
		return 0, false
	}
	return s.value, true
}

// IsReused reports whether this band is read from granule 0 via SCFSI.
func (s ScaleFac) IsReused() bool { return s.kind == scaleFacReused }

// IsZeroBand reports whether this band quantized to all zero.
func (s ScaleFac) IsZeroBand() bool { return s.kind == scaleFacZeroBand }

// Stored returns the value written to the bitstream: 0 for either
// sentinel, the raw amplification otherwise.
func (s ScaleFac) Stored() int {
	if s.kind != scaleFacValue {
		return 0
	}
	return s.value
}
