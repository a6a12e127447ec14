package tables

import (
	"math"
	"sync"
)

// Constants governing the quantizer's gain range and escape handling,
// reproduced from libmp3lame's quantize_pvt.c/.h.
const (
	PrecalcSize = 10000 // pow43/adj43 table size, larger than any legal ix
	QMax        = 256   // ipow20 domain
	QMax2       = 144   // iipow20 domain
	IXMaxVal    = 8206  // largest encodable quantized magnitude (8191 + escape headroom)

	// RoundFacTrunc/RoundFacNearest are the ROUNDFAC constants for the two
	// interchangeable quantizer rounding kernels: truncating cast uses
	// +0.4054, round-to-nearest
	// uses -0.0946.
	RoundFacTrunc   = 0.4054
	RoundFacNearest = -0.0946
)

// Pow holds every precomputed power table the quantizer and noise
// calculator read. Built once via sync.Once and treated as immutable
// afterward.
type Pow struct {
	Pow43   []float64 // Pow43[i] = i^(4/3)
	Adj43   []float64 // bias correction for the xr^3/4 quantizer variant
	Pow20   []float64 // Pow20[i] = 2^((i-210-QMax2)/4)
	IPow20  []float64 // IPow20[i] = 2^((i-210)*-0.1875)  (== 2^(-(i-210)*3/16))
	IIPow20 []float64 // IIPow20[i] = 2^(i*0.1875)
}

var (
	powOnce  sync.Once
	powTable Pow
)

// Tables returns the shared, lazily-built power tables.
func Tables() *Pow {
	powOnce.Do(buildPow)
	return &powTable
}

func buildPow() {
	p := &powTable
	p.Pow43 = make([]float64, PrecalcSize)
	p.Adj43 = make([]float64, PrecalcSize)
	p.Pow20 = make([]float64, QMax+QMax2)
	p.IPow20 = make([]float64, QMax)
	p.IIPow20 = make([]float64, QMax2)

	p.Pow43[0] = 0
	for i := 1; i < PrecalcSize; i++ {
		p.Pow43[i] = math.Pow(float64(i), 4.0/3.0)
	}
	for i := 0; i < PrecalcSize-1; i++ {
		p.Adj43[i] = float64(i+1) - math.Pow(0.5*(p.Pow43[i]+p.Pow43[i+1]), 0.75)
	}
	p.Adj43[PrecalcSize-1] = 0.5

	for i := 0; i < QMax; i++ {
		p.IPow20[i] = math.Pow(2.0, float64(i-210)*-0.1875)
	}
	for i := 0; i < QMax+QMax2; i++ {
		p.Pow20[i] = math.Pow(2.0, float64(i-210-QMax2)*0.25)
	}
	for i := 0; i < QMax2; i++ {
		p.IIPow20[i] = math.Pow(2.0, float64(i)*0.1875)
	}
}

// IPow20At returns IPow20[clamp(gain,0,QMax-1)]; global gains are defined
// over [0,255] but the table only needs to cover QMax entries
// since higher gains saturate the quantizer (count_bits rejects them via
// IXMAX_VAL before they'd be looked up).
func (p *Pow) IPow20At(gain int) float64 {
	if gain < 0 {
		gain = 0
	}
	if gain >= len(p.IPow20) {
		gain = len(p.IPow20) - 1
	}
	return p.IPow20[gain]
}

// Pow20At returns Pow20[idx] with idx clamped into range; callers compute
// idx as global_gain - scale_term + offset, the per-band quantizer step
// formula.
func (p *Pow) Pow20At(idx int) float64 {
	if idx < 0 {
		idx = 0
	}
	if idx >= len(p.Pow20) {
		idx = len(p.Pow20) - 1
	}
	return p.Pow20[idx]
}
