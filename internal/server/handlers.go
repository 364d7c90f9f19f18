package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"

	"github.com/shortsfit/shortsfit-api/internal/apperr"
	"github.com/shortsfit/shortsfit-api/internal/media"
	"github.com/shortsfit/shortsfit-api/internal/metrics"
	"github.com/shortsfit/shortsfit-api/internal/naming"
	"github.com/shortsfit/shortsfit-api/internal/pipeline"
	"github.com/shortsfit/shortsfit-api/internal/workspace"
)

// uploadField is the multipart field carrying the video payload.
const uploadField = "video"

// multipartMemLimit bounds how much of a parsed upload is held in memory
// before spilling to disk.
const multipartMemLimit = 32 << 20

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	pipeline       *pipeline.Pipeline
	workspaces     *workspace.Manager
	validator      *validator.Validate
	logger         *slog.Logger
	maxUploadBytes int64
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(p *pipeline.Pipeline, workspaces *workspace.Manager, maxUploadBytes int64, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		pipeline:       p,
		workspaces:     workspaces,
		validator:      validator.New(),
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Inspect handles POST /inspect requests: stage, probe, evaluate, report.
// No file output is produced.
func (h *Handlers) Inspect(w http.ResponseWriter, r *http.Request) {
	up, err := h.stageUpload(w, r)
	if err != nil {
		h.writeAppError(w, "inspect", err)
		return
	}
	defer up.ws.Destroy()

	meta, elig, err := h.pipeline.Inspect(r.Context(), up.path, up.opts)
	if err != nil {
		h.writeAppError(w, "inspect", err)
		return
	}

	reason := make([]string, 0, len(elig.Violations))
	for _, v := range elig.Violations {
		reason = append(reason, string(v))
	}

	metrics.RecordRequest("inspect", "ok")
	writeJSON(w, http.StatusOK, InspectResponse{
		Width:          meta.Width,
		Height:         meta.Height,
		DurationSec:    round3(meta.DurationSec),
		AspectRatio:    round3(meta.AspectRatio),
		ShortsEligible: elig.Eligible,
		Reason:         reason,
	})
}

// Process handles POST /process requests: stage, probe, evaluate,
// conditionally convert, and stream the chosen output back. The workspace
// is destroyed by defer once streaming has completed or failed, so cleanup
// fires exactly once on every path including mid-stream transport errors.
func (h *Handlers) Process(w http.ResponseWriter, r *http.Request) {
	up, err := h.stageUpload(w, r)
	if err != nil {
		h.writeAppError(w, "process", err)
		return
	}
	defer up.ws.Destroy()

	outcome, err := h.pipeline.Run(r.Context(), up.ws, up.path, up.opts)
	if err != nil {
		h.writeAppError(w, "process", err)
		return
	}

	f, err := os.Open(outcome.OutputPath) // #nosec G304 - path is confined to the workspace
	if err != nil {
		h.writeAppError(w, "process", fmt.Errorf("open output: %w", err))
		return
	}
	defer func() { _ = f.Close() }()

	fi, err := f.Stat()
	if err != nil {
		h.writeAppError(w, "process", fmt.Errorf("stat output: %w", err))
		return
	}

	contentType := up.contentType
	if outcome.Converted {
		contentType = "video/mp4"
	}
	meta := outcome.Metadata

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(fi.Size(), 10))
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", naming.Disposition(up.baseName, outcome.Converted)))
	w.Header().Set(headerFinalWidth, strconv.Itoa(meta.Width))
	w.Header().Set(headerFinalHeight, strconv.Itoa(meta.Height))
	w.Header().Set(headerFinalDuration, strconv.FormatFloat(round3(meta.DurationSec), 'f', -1, 64))
	w.Header().Set(headerFinalAspect, strconv.FormatFloat(round3(meta.AspectRatio), 'f', -1, 64))
	w.Header().Set(headerShortsEligible, strconv.FormatBool(outcome.Eligibility.Eligible))
	w.Header().Set(headerConverted, strconv.FormatBool(outcome.Converted))
	if outcome.Converted {
		w.Header().Set(headerConversionMode, string(outcome.Mode))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, f); err != nil {
		// The response has begun; nothing can be sent to the caller.
		h.logger.Warn("response stream interrupted",
			slog.String("error", err.Error()),
		)
		metrics.RecordRequest("process", "stream_interrupted")
		return
	}
	metrics.RecordRequest("process", "ok")
}

// stagedUpload is a fully staged request payload plus its normalized
// options.
type stagedUpload struct {
	ws          *workspace.Workspace
	path        string
	baseName    string
	contentType string
	opts        media.Options
}

// stageUpload parses the multipart request, classifies payload problems,
// and writes the video part into a fresh workspace. On error no workspace
// is left behind.
func (h *Handlers) stageUpload(w http.ResponseWriter, r *http.Request) (*stagedUpload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(multipartMemLimit); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, apperr.Wrap(apperr.CodeInputTooLarge,
				fmt.Sprintf("payload exceeds %d bytes", h.maxUploadBytes), err)
		}
		return nil, apperr.Wrap(apperr.CodeNoInput, "request carries no readable payload", err)
	}

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeNoInput, "missing video payload", err)
	}
	defer func() { _ = file.Close() }()

	if header.Size == 0 {
		return nil, apperr.New(apperr.CodeNoInput, "empty video payload")
	}

	contentType, err := sniffVideoType(file, header)
	if err != nil {
		return nil, err
	}

	opts := h.parseOptions(r)

	ws, err := h.workspaces.Create(r.Context())
	if err != nil {
		return nil, fmt.Errorf("allocate workspace: %w", err)
	}

	staged, err := ws.Stage(r.Context(), "input"+extOf(header.Filename), file)
	if err != nil {
		ws.Destroy()
		return nil, fmt.Errorf("stage upload: %w", err)
	}

	return &stagedUpload{
		ws:          ws,
		path:        staged,
		baseName:    header.Filename,
		contentType: contentType,
		opts:        opts,
	}, nil
}

// sniffVideoType checks the declared Content-Type and the sniffed content
// of the upload. The part is rewound afterwards. Either signal saying
// "video" is accepted.
func sniffVideoType(file multipart.File, header *multipart.FileHeader) (string, error) {
	declared := header.Header.Get("Content-Type")

	mtype, sniffErr := mimetype.DetectReader(file)
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}

	if strings.HasPrefix(declared, "video/") {
		return declared, nil
	}
	if sniffErr == nil && strings.HasPrefix(mtype.String(), "video/") {
		return mtype.String(), nil
	}
	return "", apperr.New(apperr.CodeUnsupportedMedia,
		fmt.Sprintf("payload type %q is not video", declared))
}

// parseOptions reads the option form fields. Malformed or out-of-range
// values are logged and replaced by defaults; they never reject a request.
func (h *Handlers) parseOptions(r *http.Request) media.Options {
	form := optionsForm{
		Mode:           r.FormValue("mode"),
		TargetWidth:    atoiOrZero(r.FormValue("target_width")),
		TargetHeight:   atoiOrZero(r.FormValue("target_height")),
		MaxDurationSec: atofOrZero(r.FormValue("max_duration_sec")),
		Tolerance:      atofOrZero(r.FormValue("tolerance")),
		ForceConvert:   r.FormValue("force_convert") == "true",
	}

	if err := h.validator.Struct(form); err != nil {
		h.logger.Warn("option validation failed, using defaults for invalid fields",
			slog.String("error", err.Error()),
		)
	}

	opts := media.Options{
		Mode:           media.Mode(form.Mode),
		TargetWidth:    form.TargetWidth,
		TargetHeight:   form.TargetHeight,
		MaxDurationSec: form.MaxDurationSec,
		Tolerance:      form.Tolerance,
		ForceConvert:   form.ForceConvert,
	}
	return opts.Normalize()
}

// writeAppError logs err, records the request outcome, and writes the
// classified error response.
func (h *Handlers) writeAppError(w http.ResponseWriter, endpoint string, err error) {
	code := apperr.CodeOf(err)
	h.logger.Error("request failed",
		slog.String("endpoint", endpoint),
		slog.String("code", string(code)),
		slog.String("error", err.Error()),
	)
	metrics.RecordRequest(endpoint, string(code))
	writeError(w, code.HTTPStatus(), apperr.MessageOf(err), string(code))
}

func extOf(filename string) string {
	sanitized := naming.Sanitize(filename)
	if i := strings.LastIndex(sanitized, "."); i >= 0 {
		return sanitized[i:]
	}
	return naming.DefaultExt
}

func atoiOrZero(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

func atofOrZero(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
