// Package reservoir implements the bit-reservoir accounting that lets
// granules borrow unused bits from earlier ones while respecting the
// main_data_begin field width.
package reservoir

import "github.com/mp3enc/lame/types"

// MaxMainDataBegin is the largest value main_data_begin can carry: a 9-bit
// field in MPEG-1, 8 bits in MPEG-2/2.5.
func MaxMainDataBegin(version types.Version) int {
	if version == types.MPEG1 {
		return (1 << 9) - 1
	}
	return (1 << 8) - 1
}

// State tracks the reservoir's fill level and, for CBR, the fractional
// slot_lag accumulator that schedules padding bits.
type State struct {
	Version    types.Version
	Fill       int // bits currently available to borrow
	SlotLag    float64
	FrameBits  float64 // average bits/frame implied by the declared bitrate, fractional
}

// NewState seeds a reservoir for one encoding session. frameBits is the
// (possibly fractional) average bits-per-frame implied by the declared
// bitrate and sample rate.
func NewState(version types.Version, frameBits float64) *State {
	return &State{Version: version, FrameBits: frameBits}
}

// ResvMaxBits splits a frame's mean_bits budget into a base target and
// extra bits the reservoir can additionally afford, never exceeding
// main_data_begin's field width nor letting the reservoir go negative.
func (s *State) ResvMaxBits(meanBits int) (tbits, extraBits int) {
	maxFill := MaxMainDataBegin(s.Version) * 8
	tbits = meanBits
	extraBits = s.Fill
	if extraBits > maxFill-tbits {
		extraBits = maxFill - tbits
	}
	if extraBits < 0 {
		extraBits = 0
	}
	return tbits, extraBits
}

// ResvFrameEnd updates the reservoir after a frame actually spends
// usedBits out of its meanBits-centered budget, and for CBR, advances the
// slot_lag accumulator to decide whether this frame needs a padding slot.
// It returns true when CBR padding should be added.
func (s *State) ResvFrameEnd(strategy types.BitrateStrategy, meanBits, usedBits int) (pad bool) {
	s.Fill += meanBits - usedBits
	maxFill := MaxMainDataBegin(s.Version) * 8
	if s.Fill > maxFill {
		s.Fill = maxFill
	}
	if s.Fill < 0 {
		s.Fill = 0
	}

	if strategy != types.StrategyCBR {
		return false
	}
	s.SlotLag += s.FrameBits - float64(meanBits)
	if s.SlotLag >= 1 {
		s.SlotLag -= 1
		return true
	}
	return false
}

// MainDataBegin returns the current reservoir fill expressed in bytes, the
// value written to the frame's main_data_begin field.
func (s *State) MainDataBegin() int {
	return s.Fill / 8
}
