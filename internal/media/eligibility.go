package media

import "math"

// Violation names a failed eligibility criterion.
type Violation string

// Violations are reported in this fixed order when applicable.
const (
	ViolationNotVertical      Violation = "not-vertical"
	ViolationAspectMismatch   Violation = "aspect-mismatch"
	ViolationDurationExceeded Violation = "duration-exceeded"
)

// Eligibility is the outcome of evaluating a video against the shorts
// profile. Derived deterministically from Metadata and Options.
type Eligibility struct {
	IsVertical bool
	AspectOK   bool
	DurationOK bool
	Eligible   bool
	Violations []Violation
}

// Evaluate applies the shorts eligibility rules to probed metadata.
// It is a pure function: no I/O, no side effects. Dimensions are assumed
// positive; inputs with zero width or height fail at the probe stage.
func Evaluate(meta Metadata, opts Options) Eligibility {
	e := Eligibility{
		// Equal dimensions are not vertical.
		IsVertical: meta.Height > meta.Width,
		AspectOK:   math.Abs(meta.AspectRatio-ShortsAspect) <= opts.Tolerance,
		DurationOK: meta.DurationSec <= opts.MaxDurationSec,
	}
	e.Eligible = e.IsVertical && e.AspectOK && e.DurationOK

	if !e.IsVertical {
		e.Violations = append(e.Violations, ViolationNotVertical)
	}
	if !e.AspectOK {
		e.Violations = append(e.Violations, ViolationAspectMismatch)
	}
	if !e.DurationOK {
		e.Violations = append(e.Violations, ViolationDurationExceeded)
	}
	return e
}
