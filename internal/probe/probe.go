// Package probe extracts authoritative media metadata from a staged file
// by driving ffprobe as an argument-vector process.
package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"strconv"
	"strings"

	"github.com/shortsfit/shortsfit-api/internal/apperr"
	"github.com/shortsfit/shortsfit-api/internal/media"
)

// Prober extracts metadata for a staged file. Implementations must be
// safe for concurrent use.
type Prober interface {
	Probe(ctx context.Context, path string) (media.Metadata, error)
}

// FFprobe implements Prober using the ffprobe CLI.
type FFprobe struct {
	binPath string
}

// NewFFprobe creates an FFprobe prober. If binPath is empty, it defaults
// to "ffprobe" (found via PATH).
func NewFFprobe(binPath string) *FFprobe {
	if binPath == "" {
		binPath = "ffprobe"
	}
	return &FFprobe{binPath: binPath}
}

// Probe runs a single ffprobe JSON call against path and returns the
// parsed metadata. A probe failure is terminal for the request: the source
// is presumed unreadable, not transiently broken, so there are no retries.
func (p *FFprobe) Probe(ctx context.Context, path string) (media.Metadata, error) {
	// #nosec G204 - binPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, p.binPath,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return media.Metadata{}, apperr.Wrap(apperr.CodeProbeFailed,
				"ffprobe exited abnormally: "+apperr.TruncateToolOutput(stderr.String()), err)
		}
		return media.Metadata{}, apperr.Wrap(apperr.CodeProbeUnavailable,
			"ffprobe could not be started", err)
	}

	return ParseJSON(stdout.Bytes())
}

// ParseJSON converts raw ffprobe JSON output into metadata. Exported for
// testing without a real ffprobe binary.
func ParseJSON(data []byte) (media.Metadata, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return media.Metadata{}, apperr.Wrap(apperr.CodeProbeFailed, "unparseable ffprobe output", err)
	}

	var video *ffprobeStream
	hasAudio := false
	for i := range raw.Streams {
		s := &raw.Streams[i]
		switch s.CodecType {
		case "video":
			if video == nil && s.Width > 0 && s.Height > 0 {
				video = s
			}
		case "audio":
			hasAudio = true
		}
	}
	if video == nil {
		msg := "no usable video stream"
		if codecs := videoCodecs(raw.Streams); codecs != "" {
			msg += " (saw " + codecs + ")"
		}
		return media.Metadata{}, apperr.New(apperr.CodeProbeFailed, msg)
	}

	// Prefer the stream's own duration; fall back to the container value
	// when it is absent or non-positive.
	duration := parseFloat(video.Duration)
	if duration <= 0 {
		duration = parseFloat(raw.Format.Duration)
	}
	if duration <= 0 {
		return media.Metadata{}, apperr.New(apperr.CodeProbeFailed, "no usable duration")
	}

	return media.NewMetadata(video.Width, video.Height, duration, hasAudio), nil
}

// --- ffprobe JSON wire types ---

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
}

type ffprobeStream struct {
	CodecType string `json:"codec_type"`
	CodecName string `json:"codec_name"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Duration  string `json:"duration"`
}

// videoCodecs names the video streams that were present but rejected for
// missing geometry, for the probe-failure diagnostic.
func videoCodecs(streams []ffprobeStream) string {
	var names []string
	for _, s := range streams {
		if s.CodecType == "video" && s.CodecName != "" {
			names = append(names, s.CodecName)
		}
	}
	return strings.Join(names, ", ")
}

// ffprobe reports numbers as strings.
func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}
