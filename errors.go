// errors.go defines public error types for the lame package.

package lame

import (
	"errors"

	"github.com/mp3enc/lame/internal/params"
)

// Public error types for encoding operations.
var (
	// ErrInvalidSampleRate indicates a sample rate that is none of the nine
	// MPEG-1/2/2.5 rates. A valid rate that does not match the requested
	// version is reported by parameter negotiation as an *InitError.
	ErrInvalidSampleRate = errors.New("lame: invalid sample rate for this mpeg version")

	// ErrInvalidChannels indicates an unsupported channel count.
	// Valid channel counts are 1 (mono) or 2 (stereo).
	ErrInvalidChannels = errors.New("lame: invalid channels (must be 1 or 2)")

	// ErrInvalidBitrate indicates the bitrate is out of valid range.
	ErrInvalidBitrate = errors.New("lame: invalid bitrate")

	// ErrInvalidQuality indicates the quality level is out of [0,9].
	ErrInvalidQuality = errors.New("lame: invalid quality level (must be 0-9)")

	// ErrMissingCollaborator indicates EncodeFrame was called before an
	// MDCTSource and BitPacker were installed via SetMDCTSource/SetBitPacker.
	ErrMissingCollaborator = errors.New("lame: MDCTSource and BitPacker must be set before EncodeFrame")
)

// InitError is returned by NewEncoder on parameter-negotiation
// failure; it carries the same exit-code parity the reference encoder's C
// API exposes (-1/-2/-3/-6).
type InitError = params.InitError

// validSampleRate reports whether rate is one of the nine ISO-defined
// MPEG-1/2/2.5 sample rates, independent of version.
func validSampleRate(rate int) bool {
	switch rate {
	case 44100, 48000, 32000, 22050, 24000, 16000, 11025, 12000, 8000:
		return true
	default:
		return false
	}
}
