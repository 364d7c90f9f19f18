// Package transcode rewrites staged videos into the target geometry by
// driving ffmpeg as an argument-vector process under a hard wall-clock
// budget.
package transcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/shortsfit/shortsfit-api/internal/apperr"
	"github.com/shortsfit/shortsfit-api/internal/media"
)

// Timeout bounds for a single conversion. Configured values outside this
// window are clamped.
const (
	DefaultTimeout = 120 * time.Second
	MinTimeout     = 10 * time.Second
	MaxTimeout     = 600 * time.Second
)

// Transcoder rewrites an input into the target geometry, producing exactly
// one output file on success. Implementations must be safe for concurrent
// use; one external process runs per concurrent conversion.
type Transcoder interface {
	Convert(ctx context.Context, input, output string, opts media.Options) error
}

// FFmpeg implements Transcoder using the ffmpeg CLI.
type FFmpeg struct {
	binPath string
	timeout time.Duration
}

// NewFFmpeg creates an FFmpeg transcoder. If binPath is empty, it defaults
// to "ffmpeg". The timeout is clamped to [MinTimeout, MaxTimeout]; zero
// selects DefaultTimeout.
func NewFFmpeg(binPath string, timeout time.Duration) *FFmpeg {
	if binPath == "" {
		binPath = "ffmpeg"
	}
	return &FFmpeg{binPath: binPath, timeout: ClampTimeout(timeout)}
}

// ClampTimeout maps an arbitrary duration into the supported window.
func ClampTimeout(d time.Duration) time.Duration {
	switch {
	case d == 0:
		return DefaultTimeout
	case d < MinTimeout:
		return MinTimeout
	case d > MaxTimeout:
		return MaxTimeout
	}
	return d
}

// Timeout returns the effective wall-clock budget per conversion.
func (t *FFmpeg) Timeout() time.Duration {
	return t.timeout
}

// Convert runs ffmpeg with the filter strategy selected by opts.Mode.
// On budget breach the process is killed (not signalled cooperatively) and
// the call fails with CONVERSION_TIMEOUT. A successful exit that races the
// deadline still counts as success: the error value from Run is the single
// resolution point, so the two paths cannot both fire.
func (t *FFmpeg) Convert(ctx context.Context, input, output string, opts media.Options) error {
	tctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	args := buildArgs(input, output, opts)
	// #nosec G204 - binPath is set by the application, args are built internally
	cmd := exec.CommandContext(tctx, t.binPath, args...)
	cmd.Cancel = func() error {
		return cmd.Process.Kill()
	}
	cmd.WaitDelay = 5 * time.Second

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(tctx.Err(), context.DeadlineExceeded) {
			return apperr.Wrap(apperr.CodeConversionTimeout,
				fmt.Sprintf("conversion exceeded %s budget", t.timeout), err)
		}
		// The caller's context was cancelled (client gone), not the budget.
		if errors.Is(tctx.Err(), context.Canceled) {
			return apperr.Wrap(apperr.CodeConversionFailed,
				"conversion cancelled by caller", err)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return apperr.Wrap(apperr.CodeConversionFailed,
				"ffmpeg exited abnormally: "+apperr.TruncateToolOutput(stderr.String()), err)
		}
		return apperr.Wrap(apperr.CodeConversionFailed, "ffmpeg could not be started", err)
	}

	if fi, err := os.Stat(output); err != nil || fi.Size() == 0 {
		return apperr.New(apperr.CodeConversionFailed, "output missing despite success exit")
	}
	return nil
}

// buildArgs assembles the full ffmpeg argument vector. Audio is mapped
// best-effort ("0:a?") so audio-less inputs do not fail the job, and
// -shortest truncates the output to the shorter track when audio and video
// diverge.
func buildArgs(input, output string, opts media.Options) []string {
	var filter string
	switch opts.Mode {
	case media.ModeBlur:
		filter = blurFilter(opts.TargetWidth, opts.TargetHeight)
	default:
		filter = padFilter(opts.TargetWidth, opts.TargetHeight)
	}

	return []string{
		"-y",
		"-i", input,
		"-filter_complex", filter,
		"-map", "[outv]",
		"-map", "0:a?",
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "128k",
		"-movflags", "+faststart",
		"-shortest",
		output,
	}
}

// padFilter scales to fit within the target box preserving aspect ratio,
// then letterboxes or pillarboxes with black to exact dimensions.
func padFilter(w, h int) string {
	return fmt.Sprintf(
		"[0:v]scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:black[outv]",
		w, h, w, h)
}

// blurFilter builds a blurred background by cover-scaling and
// center-cropping the source to the target box, then overlays a
// width-fitted sharp copy centered on top.
func blurFilter(w, h int) string {
	return fmt.Sprintf(
		"[0:v]scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,boxblur=20:5[bg];"+
			"[0:v]scale=%d:-2[fg];"+
			"[bg][fg]overlay=(W-w)/2:(H-h)/2[outv]",
		w, h, w, h, w)
}
