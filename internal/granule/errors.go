package granule

import "errors"

// ErrUnsupportedRate is returned by NewFrameContext when the
// (version, sampleRate) pair has no scalefactor-band table.
var ErrUnsupportedRate = errors.New("granule: unsupported mpeg version/sample rate combination")
