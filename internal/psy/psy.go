// Package psy defines the narrow data contract between the rate/distortion
// engine and an external psychoacoustic model: per-band energy and masking
// threshold ratios. The model that produces them (FFT-based or otherwise)
// is out of scope here — this package only shapes the numbers the engine
// consumes.
package psy

import "github.com/mp3enc/lame/internal/granule"

// Ratio carries one granule/channel's energy and masking-threshold
// estimates, split into the long-block and short-block (3-window) views
// corresponding to a psychoacoustic model's thm.l[sfb]/en.l[sfb] arrays.
type Ratio struct {
	EnergyLong  [granule.SFBMax]float64
	ThreshLong  [granule.SFBMax]float64
	EnergyShort [3][granule.SFBMax]float64
	ThreshShort [3][granule.SFBMax]float64
	PE          float64 // perceptual entropy, drives on_pe bit allocation
}

// NsPsy holds the per-band tilt factors ("bass/alto/treble/sfb21 tilt")
// applied to xmin after masking combination.
type NsPsy struct {
	LongFact  [granule.SFBMax]float64
	ShortFact [granule.SFBMax]float64
}

// Model is the interface the rate/distortion engine calls into; any
// concrete FFT-driven psychoacoustic analyzer can implement it.
type Model interface {
	Ratios(gr, ch int) Ratio
}
