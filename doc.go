// Package lame implements the rate/distortion core of an MPEG-1/2/2.5
// Layer III (MP3) audio encoder.
//
// This package covers the hard inner engine: psychoacoustic distortion
// allowances (xmin), nonlinear quantization of MDCT coefficients under a
// global gain, Huffman table selection and bit counting, and the
// bit-reservoir/rate-control loop that ties them together to hit a target
// bitrate. It does not perform the MDCT itself, run a psychoacoustic
// model, or pack bits onto the wire — callers supply those through the
// MDCTSource, PsyModel and BitPacker interfaces so the core stays testable
// without a full codec stack.
//
// # Granules and channels
//
// A frame carries 2 granules (MPEG-1) or 1 granule (MPEG-2/2.5) and 1 or 2
// channels. EncodeFrame finalizes granule 0 before granule 1 since SCFSI
// in granule 1 reads granule 0's scale factors, and the bit reservoir is a
// strict sequence across granules.
//
// # Quality levels
//
// NewEncoder takes a quality level 0-9 mapping onto a fixed feature-flag
// profile (psy-model on/off, quantizer variant, noise-shaping
// aggressiveness, Huffman search depth). Quality 9 disables the
// psy-model; quality 0 enables the most exhaustive Huffman search.
package lame
