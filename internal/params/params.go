// Package params negotiates user-facing intent (CBR/ABR/VBR strategy,
// quality level 0-9) into the concrete feature-flag bundle the inner
// engine runs with, and validates the sample rate / bitrate combination
// — see DESIGN.md for how this is kept distinct from the
// best-scalefactor-storage package, which covers an unrelated concern
// that shares the same originating section heading.
package params

import (
	"github.com/mp3enc/lame/internal/granule"
	"github.com/mp3enc/lame/types"
)

// InitError reports a parameter-negotiation failure with the exit-code
// parity the reference encoder's C API exposes (-1/-2/-3/-6), surfaced
// as a typed error rather than a bare int.
type InitError struct {
	code int
	msg  string
}

func (e *InitError) Error() string { return e.msg }

// Code returns the C-API-compatible exit code.
func (e *InitError) Code() int { return e.code }

var (
	// ErrRateOrBitrate: sample rate / bitrate not representable.
	ErrRateOrBitrate = &InitError{code: -1, msg: "params: sample rate/bitrate combination not representable"}
	// ErrAlloc: allocation failure standing in for C's malloc failure path,
	// kept for exit-code parity; nothing in this module returns it.
	ErrAlloc = &InitError{code: -2, msg: "params: allocation failure"}
	// ErrContext: invalid context / already initialized.
	ErrContext = &InitError{code: -3, msg: "params: invalid or already-initialized context"}
	// ErrReplayGain: ReplayGain analysis init failed.
	ErrReplayGain = &InitError{code: -6, msg: "params: replaygain initialization failed"}
)

// QualityTable is the fixed quality-level (0-9) -> feature-flag mapping
// Level 9 disables the psy-model; level 0 enables the most exhaustive
// Huffman search and the most aggressive amplification.
var QualityTable = [10]granule.QualityProfile{
	9: {FilterType: 0, PsyModel: false, QuantizeISO: true, NoiseShaping: 0, NoiseShapingAmp: 0, UseBestHuffman: 0, SubblockGainScan: false},
	8: {FilterType: 0, PsyModel: true, QuantizeISO: true, NoiseShaping: 0, NoiseShapingAmp: 0, UseBestHuffman: 0, SubblockGainScan: false},
	7: {FilterType: 0, PsyModel: true, QuantizeISO: true, NoiseShaping: 1, NoiseShapingAmp: 0, UseBestHuffman: 1, SubblockGainScan: false},
	6: {FilterType: 1, PsyModel: true, QuantizeISO: true, NoiseShaping: 1, NoiseShapingAmp: 1, UseBestHuffman: 1, SubblockGainScan: true},
	5: {FilterType: 1, PsyModel: true, QuantizeISO: false, NoiseShaping: 1, NoiseShapingAmp: 1, UseBestHuffman: 1, SubblockGainScan: true},
	4: {FilterType: 1, PsyModel: true, QuantizeISO: false, NoiseShaping: 2, NoiseShapingAmp: 1, UseBestHuffman: 1, SubblockGainScan: true},
	3: {FilterType: 1, PsyModel: true, QuantizeISO: false, NoiseShaping: 2, NoiseShapingAmp: 2, UseBestHuffman: 2, SubblockGainScan: true, SubstepShaping: true},
	2: {FilterType: 1, PsyModel: true, QuantizeISO: false, NoiseShaping: 2, NoiseShapingAmp: 2, UseBestHuffman: 2, SubblockGainScan: true, SubstepShaping: true},
	1: {FilterType: 1, PsyModel: true, QuantizeISO: false, NoiseShaping: 2, NoiseShapingAmp: 2, UseBestHuffman: 2, SubblockGainScan: true, SubstepShaping: true},
	0: {FilterType: 1, PsyModel: true, QuantizeISO: false, NoiseShaping: 2, NoiseShapingAmp: 2, UseBestHuffman: 2, SubblockGainScan: true, SubstepShaping: true},
}

// validSampleRates lists every (version, rate) combination the engine
// supports, mirroring internal/tables.sfBandIndex's coverage.
var validSampleRates = map[types.Version][3]int{
	types.MPEG1:   {44100, 48000, 32000},
	types.MPEG2:   {22050, 24000, 16000},
	types.MPEG2_5: {11025, 12000, 8000},
}

// Request is the user-facing intent negotiated by Resolve.
type Request struct {
	SampleRate  int
	Version     types.Version
	ChannelMode types.ChannelMode
	Strategy    types.BitrateStrategy
	Quality     int // 0-9
	BitrateKbps int // meaning depends on Strategy: CBR rate in kbps, ABR mean rate in kbps, ignored for VBR
}

// Resolved is what Resolve produces: a validated, fully-specified profile
// ready to build a FrameContext from.
type Resolved struct {
	Request
	Profile granule.QualityProfile
}

// Resolve validates req and maps its quality level onto a QualityProfile,
// returning *InitError (unwrap-compatible with the Err* sentinels above)
// on failure.
func Resolve(req Request) (*Resolved, error) {
	rates, ok := validSampleRates[req.Version]
	if !ok {
		return nil, ErrRateOrBitrate
	}
	found := false
	for _, r := range rates {
		if r == req.SampleRate {
			found = true
			break
		}
	}
	if !found {
		return nil, ErrRateOrBitrate
	}

	if req.Quality < 0 || req.Quality > 9 {
		return nil, ErrRateOrBitrate
	}

	if req.Strategy == types.StrategyCBR && req.BitrateKbps <= 0 {
		return nil, ErrRateOrBitrate
	}

	return &Resolved{Request: req, Profile: QualityTable[req.Quality]}, nil
}
