package media

// Mode selects the rendering strategy used when a video is converted.
type Mode string

const (
	// ModePad scales the source to fit the target box and letterboxes or
	// pillarboxes the remainder with a neutral fill.
	ModePad Mode = "pad"
	// ModeBlur composites the source centered over a blurred, cover-scaled
	// copy of itself.
	ModeBlur Mode = "blur"
)

// Option bounds. Requests outside these ranges fall back to defaults.
const (
	MaxDimension       = 4096
	MaxDurationCeilSec = 3600.0
	MaxTolerance       = 0.5
)

// Defaults applied when a request omits or mis-specifies an option.
const (
	DefaultTargetWidth    = 1080
	DefaultTargetHeight   = 1920
	DefaultMaxDurationSec = 60.0
	DefaultTolerance      = 0.02
)

// ShortsAspect is the target aspect ratio for short-form video (9:16).
const ShortsAspect = 9.0 / 16.0

// Options are the per-request processing parameters. They are immutable
// for the lifetime of a request and never persisted.
type Options struct {
	// Mode is the conversion strategy, pad or blur.
	Mode Mode
	// TargetWidth is the output width in pixels.
	TargetWidth int
	// TargetHeight is the output height in pixels.
	TargetHeight int
	// MaxDurationSec is the maximum duration considered eligible.
	MaxDurationSec float64
	// Tolerance is the allowed deviation from ShortsAspect.
	Tolerance float64
	// ForceConvert converts even when the input is already eligible.
	ForceConvert bool
}

// DefaultOptions returns the options applied when a request supplies none.
func DefaultOptions() Options {
	return Options{
		Mode:           ModePad,
		TargetWidth:    DefaultTargetWidth,
		TargetHeight:   DefaultTargetHeight,
		MaxDurationSec: DefaultMaxDurationSec,
		Tolerance:      DefaultTolerance,
	}
}

// Normalize returns a copy of o with every absent or out-of-range field
// replaced by its default. Invalid values never reject a request.
func (o Options) Normalize() Options {
	out := o
	if out.Mode != ModePad && out.Mode != ModeBlur {
		out.Mode = ModePad
	}
	if out.TargetWidth <= 0 || out.TargetWidth > MaxDimension {
		out.TargetWidth = DefaultTargetWidth
	}
	if out.TargetHeight <= 0 || out.TargetHeight > MaxDimension {
		out.TargetHeight = DefaultTargetHeight
	}
	if out.MaxDurationSec <= 0 || out.MaxDurationSec > MaxDurationCeilSec {
		out.MaxDurationSec = DefaultMaxDurationSec
	}
	if out.Tolerance <= 0 || out.Tolerance > MaxTolerance {
		out.Tolerance = DefaultTolerance
	}
	return out
}
