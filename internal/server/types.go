// Package server provides the HTTP surface of the shorts-fit API.
// It includes handlers, middleware, routes, and DTOs separated from domain
// types.
package server

// InspectResponse is the JSON verdict returned by POST /inspect.
type InspectResponse struct {
	// Width is the probed video width in pixels.
	Width int `json:"width"`
	// Height is the probed video height in pixels.
	Height int `json:"height"`
	// DurationSec is the probed duration, rounded to 3 decimals.
	DurationSec float64 `json:"durationSec"`
	// AspectRatio is width/height, rounded to 3 decimals.
	AspectRatio float64 `json:"aspectRatio"`
	// ShortsEligible reports whether the input already fits the profile.
	ShortsEligible bool `json:"shortsEligible"`
	// Reason lists the violated criteria in evaluation order.
	Reason []string `json:"reason"`
}

// optionsForm carries the caller-supplied processing options before
// validation. Fields that fail validation fall back to defaults; invalid
// options never reject a request.
type optionsForm struct {
	Mode           string  `validate:"omitempty,oneof=pad blur"`
	TargetWidth    int     `validate:"omitempty,min=1,max=4096"`
	TargetHeight   int     `validate:"omitempty,min=1,max=4096"`
	MaxDurationSec float64 `validate:"omitempty,gt=0,lte=3600"`
	Tolerance      float64 `validate:"omitempty,gte=0,lte=0.5"`
	ForceConvert   bool
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the stable classification code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}

// Response headers carrying the final metadata of a processed video.
const (
	headerFinalWidth     = "X-Final-Width"
	headerFinalHeight    = "X-Final-Height"
	headerFinalDuration  = "X-Final-Duration"
	headerFinalAspect    = "X-Final-Aspect-Ratio"
	headerShortsEligible = "X-Shorts-Eligible"
	headerConverted      = "X-Converted"
	headerConversionMode = "X-Conversion-Mode"
)
