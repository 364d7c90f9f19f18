package transcode

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shortsfit/shortsfit-api/internal/apperr"
	"github.com/shortsfit/shortsfit-api/internal/media"
)

// writeFakeTool creates an executable shell script standing in for ffmpeg.
func writeFakeTool(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixtures are not portable to windows")
	}
	path := filepath.Join(t.TempDir(), "fake-ffmpeg")
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestClampTimeout(t *testing.T) {
	tests := []struct {
		name string
		in   time.Duration
		want time.Duration
	}{
		{"zero selects default", 0, DefaultTimeout},
		{"below minimum clamps up", time.Second, MinTimeout},
		{"above maximum clamps down", time.Hour, MaxTimeout},
		{"in range unchanged", 90 * time.Second, 90 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampTimeout(tt.in))
		})
	}
}

func TestBuildArgs_Pad(t *testing.T) {
	opts := media.Options{Mode: media.ModePad, TargetWidth: 1080, TargetHeight: 1920}
	args := buildArgs("in.mp4", "out.mp4", opts)

	joined := strings.Join(args, " ")
	assert.Equal(t, "-y", args[0])
	assert.Contains(t, joined, "-i in.mp4")
	assert.Contains(t, joined, "scale=1080:1920:force_original_aspect_ratio=decrease")
	assert.Contains(t, joined, "pad=1080:1920:(ow-iw)/2:(oh-ih)/2:black")
	assert.NotContains(t, joined, "boxblur")
	assert.Contains(t, joined, "-map [outv]")
	assert.Contains(t, joined, "-map 0:a?")
	assert.Contains(t, joined, "-movflags +faststart")
	assert.Contains(t, joined, "-shortest")
	assert.Equal(t, "out.mp4", args[len(args)-1])
}

func TestBuildArgs_Blur(t *testing.T) {
	opts := media.Options{Mode: media.ModeBlur, TargetWidth: 720, TargetHeight: 1280}
	args := buildArgs("in.mp4", "out.mp4", opts)

	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "scale=720:1280:force_original_aspect_ratio=increase")
	assert.Contains(t, joined, "crop=720:1280")
	assert.Contains(t, joined, "boxblur")
	assert.Contains(t, joined, "overlay=(W-w)/2:(H-h)/2")
	assert.Contains(t, joined, "scale=720:-2[fg]")
}

func TestConvert_MissingBinary(t *testing.T) {
	tr := NewFFmpeg("/nonexistent/ffmpeg-bin", MinTimeout)
	err := tr.Convert(context.Background(), "in.mp4", "out.mp4", media.DefaultOptions())
	require.Error(t, err)
	assert.Equal(t, apperr.CodeConversionFailed, apperr.CodeOf(err))
}

func TestConvert_AbnormalExit(t *testing.T) {
	tool := writeFakeTool(t, `echo "Unknown encoder 'libx264'" >&2; exit 1`)
	tr := NewFFmpeg(tool, MinTimeout)

	err := tr.Convert(context.Background(), "in.mp4", "out.mp4", media.DefaultOptions())
	require.Error(t, err)
	assert.Equal(t, apperr.CodeConversionFailed, apperr.CodeOf(err))
	assert.Contains(t, err.Error(), "Unknown encoder")
}

func TestConvert_MissingOutput(t *testing.T) {
	// Exits cleanly without writing the output file.
	tool := writeFakeTool(t, "exit 0")
	tr := NewFFmpeg(tool, MinTimeout)

	out := filepath.Join(t.TempDir(), "out.mp4")
	err := tr.Convert(context.Background(), "in.mp4", out, media.DefaultOptions())
	require.Error(t, err)
	assert.Equal(t, apperr.CodeConversionFailed, apperr.CodeOf(err))
	assert.Contains(t, err.Error(), "output missing")
}

func TestConvert_Success(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.mp4")
	// Writes the last argument, which Convert passes as the output path.
	tool := writeFakeTool(t, `for last; do :; done; echo data > "$last"`)
	tr := NewFFmpeg(tool, MinTimeout)

	err := tr.Convert(context.Background(), "in.mp4", out, media.DefaultOptions())
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestConvert_Timeout(t *testing.T) {
	tool := writeFakeTool(t, "sleep 60")
	tr := &FFmpeg{binPath: tool, timeout: 200 * time.Millisecond}

	start := time.Now()
	err := tr.Convert(context.Background(), "in.mp4", filepath.Join(t.TempDir(), "out.mp4"), media.DefaultOptions())
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Equal(t, apperr.CodeConversionTimeout, apperr.CodeOf(err))
	// The process must be killed, not waited out.
	assert.Less(t, elapsed, 10*time.Second)
}

func TestConvert_CallerCancelled(t *testing.T) {
	tool := writeFakeTool(t, "sleep 60")
	tr := NewFFmpeg(tool, MinTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	start := time.Now()
	err := tr.Convert(ctx, "in.mp4", filepath.Join(t.TempDir(), "out.mp4"), media.DefaultOptions())
	elapsed := time.Since(start)

	require.Error(t, err)
	// A disconnecting caller is not a budget breach.
	assert.Equal(t, apperr.CodeConversionFailed, apperr.CodeOf(err))
	assert.Contains(t, err.Error(), "cancelled by caller")
	assert.Less(t, elapsed, 10*time.Second)
}

func TestNewFFmpeg_Defaults(t *testing.T) {
	tr := NewFFmpeg("", 0)
	assert.Equal(t, "ffmpeg", tr.binPath)
	assert.Equal(t, DefaultTimeout, tr.Timeout())

	clamped := NewFFmpeg("ffmpeg", time.Second)
	assert.Equal(t, MinTimeout, clamped.Timeout())
}
