// Package media defines the video metadata model, per-request processing
// options, and the shorts eligibility rules.
package media

// Metadata holds the authoritative stream and container properties of a
// staged video, produced once per request by the prober.
type Metadata struct {
	// Width is the video stream width in pixels.
	Width int
	// Height is the video stream height in pixels.
	Height int
	// DurationSec is the playback duration in seconds.
	DurationSec float64
	// AspectRatio is Width/Height, or 0 when Height is 0.
	AspectRatio float64
	// HasAudio reports whether the container carries at least one audio stream.
	HasAudio bool
}

// NewMetadata builds a Metadata with the aspect ratio derived from the
// given dimensions.
func NewMetadata(width, height int, durationSec float64, hasAudio bool) Metadata {
	m := Metadata{
		Width:       width,
		Height:      height,
		DurationSec: durationSec,
		HasAudio:    hasAudio,
	}
	if height > 0 {
		m.AspectRatio = float64(width) / float64(height)
	}
	return m
}

// WithGeometry returns a copy of m with width, height and aspect ratio
// replaced by the given target dimensions. Used after a conversion to
// declare the output geometry without re-probing.
func (m Metadata) WithGeometry(width, height int) Metadata {
	out := m
	out.Width = width
	out.Height = height
	out.AspectRatio = 0
	if height > 0 {
		out.AspectRatio = float64(width) / float64(height)
	}
	return out
}
