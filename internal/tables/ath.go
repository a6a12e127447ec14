package tables

import "math"

// ATH holds the precomputed per-band absolute-threshold-of-hearing floor.
// Filled once per sample-rate change; treated as read-only afterward.
type ATH struct {
	L      [SBMaxLong]float64
	S      [SBMaxShort]float64
	Psfb21 [PSFB21]float64
	Psfb12 [PSFB12]float64
	Floor  float64 // dB, informational
	Adjust float64 // scalar the xmin engine may adapt per granule
}

// ATHModel selects the dB-offset constant subtracted before converting the
// ATH curve to linear energy.
type ATHModel int

const (
	ModelGPSYCHO    ATHModel = iota // classical psymodel, -114dB offset
	ModelNSPsytune                  // -100dB offset (NSATHSCALE)
)

func athModelOffset(m ATHModel) float64 {
	if m == ModelNSPsytune {
		return 100
	}
	return 114
}

// athFormula implements the Painter/Spanias ATH approximation used by the
// reference encoder's ATHformula_GB, in dB SPL, f in Hz.
func athFormula(f float64) float64 {
	if f < 10 {
		f = 10
	}
	fk := f / 1000.0
	return 3.64*math.Pow(fk, -0.8) -
		6.5*math.Exp(-0.6*(fk-3.3)*(fk-3.3)) +
		0.001*fk*fk*fk*fk
}

// athEnergy evaluates the ATH at frequency f (Hz), converts dB to a linear
// energy term relative to the encoder's MDCT scaling.
func athEnergy(f float64, model ATHModel, athLower float64) float64 {
	db := athFormula(f) - athModelOffset(model)
	return math.Pow(10.0, db/10.0+athLower)
}

// ComputeATH precomputes the per-band ATH floor for one sample rate. noATH
// forces every entry to 1e-37 (effectively -infinity dB).
func ComputeATH(band ScalefacBand, pb PseudoBands, sampleRate float64, model ATHModel, athLower float64, noATH bool) ATH {
	var a ATH
	if noATH {
		for i := range a.L {
			a.L[i] = 1e-37
		}
		for i := range a.S {
			a.S[i] = 1e-37
		}
		for i := range a.Psfb21 {
			a.Psfb21[i] = 1e-37
		}
		for i := range a.Psfb12 {
			a.Psfb12[i] = 1e-37
		}
		a.Floor = -370
		return a
	}

	bandMin := func(lo, hi int, scale float64) float64 {
		min := math.MaxFloat64
		for i := lo; i < hi; i++ {
			freq := float64(i) * sampleRate / (2 * scale)
			v := athEnergy(freq, model, athLower)
			if v < min {
				min = v
			}
		}
		return min
	}

	for sfb := 0; sfb < SBMaxLong; sfb++ {
		lo, hi := band.L[sfb], band.L[sfb+1]
		v := bandMin(lo, hi, 576)
		if model == ModelGPSYCHO {
			v *= float64(hi - lo)
		}
		a.L[sfb] = v
	}
	for sfb := 0; sfb < PSFB21; sfb++ {
		lo, hi := pb.L21[sfb], pb.L21[sfb+1]
		a.Psfb21[sfb] = bandMin(lo, hi, 576)
	}
	for sfb := 0; sfb < SBMaxShort; sfb++ {
		lo, hi := band.S[sfb], band.S[sfb+1]
		v := bandMin(lo, hi, 192)
		a.S[sfb] = v * float64(hi-lo)
	}
	for sfb := 0; sfb < PSFB12; sfb++ {
		lo, hi := pb.S12[sfb], pb.S12[sfb+1]
		v := bandMin(lo, hi, 192)
		a.Psfb12[sfb] = v * float64(band.S[SBMaxShort]-band.S[SBMaxShort-1])
	}

	a.Floor = 10 * math.Log10(athEnergy(-1, model, athLower))
	a.Adjust = 1.0
	return a
}
