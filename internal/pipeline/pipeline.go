// Package pipeline orchestrates the per-request media flow: probe the
// staged input, evaluate eligibility, and conditionally convert. The
// pipeline depends only on the Prober and Transcoder interfaces so the
// state machine can be tested without external tools.
//
// Workspace destruction is owned by the caller (the HTTP handler), which
// defers it past response streaming so cleanup happens exactly once on
// every path, including mid-stream transport failures.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/shortsfit/shortsfit-api/internal/media"
	"github.com/shortsfit/shortsfit-api/internal/metrics"
	"github.com/shortsfit/shortsfit-api/internal/probe"
	"github.com/shortsfit/shortsfit-api/internal/transcode"
	"github.com/shortsfit/shortsfit-api/internal/workspace"
)

// outputName is the fixed file name for produced outputs inside a workspace.
const outputName = "output.mp4"

// Outcome is the result of one pipeline run, consumed by the response
// emission boundary.
type Outcome struct {
	// OutputPath is the staged input when no conversion ran, or the
	// produced file when one did.
	OutputPath string
	// Converted reports whether a conversion ran.
	Converted bool
	// Mode is the strategy used when Converted is true.
	Mode media.Mode
	// Metadata is the final declared metadata: probed values, with
	// geometry overridden to the requested targets after a conversion.
	Metadata media.Metadata
	// Eligibility is the evaluation of the original input.
	Eligibility media.Eligibility
}

// Pipeline sequences probe, evaluation and conversion for one request at a
// time. It holds no cross-request mutable state and is safe for concurrent
// use.
type Pipeline struct {
	prober     probe.Prober
	transcoder transcode.Transcoder
	logger     *slog.Logger
}

// New creates a Pipeline.
func New(prober probe.Prober, transcoder transcode.Transcoder, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		prober:     prober,
		transcoder: transcoder,
		logger:     logger,
	}
}

// Inspect probes the staged input and evaluates eligibility without
// producing any output file.
func (p *Pipeline) Inspect(ctx context.Context, stagedPath string, opts media.Options) (media.Metadata, media.Eligibility, error) {
	meta, err := p.probeStaged(ctx, stagedPath)
	if err != nil {
		return media.Metadata{}, media.Eligibility{}, err
	}
	return meta, media.Evaluate(meta, opts), nil
}

// Run executes the full flow for one staged input. The decision rule:
// convert iff opts.ForceConvert is set or the input is not eligible.
// After a conversion the declared metadata carries the requested target
// geometry; the output is never re-probed.
func (p *Pipeline) Run(ctx context.Context, ws *workspace.Workspace, stagedPath string, opts media.Options) (*Outcome, error) {
	meta, err := p.probeStaged(ctx, stagedPath)
	if err != nil {
		return nil, err
	}

	elig := media.Evaluate(meta, opts)
	p.logger.Info("input evaluated",
		slog.Int("width", meta.Width),
		slog.Int("height", meta.Height),
		slog.Float64("duration_sec", meta.DurationSec),
		slog.Bool("eligible", elig.Eligible),
		slog.Bool("force_convert", opts.ForceConvert),
	)

	if elig.Eligible && !opts.ForceConvert {
		return &Outcome{
			OutputPath:  stagedPath,
			Metadata:    meta,
			Eligibility: elig,
		}, nil
	}

	outPath, err := ws.ResolveWithin(outputName)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	if err := p.transcoder.Convert(ctx, stagedPath, outPath, opts); err != nil {
		p.logger.Error("conversion failed",
			slog.String("mode", string(opts.Mode)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	metrics.ObserveConvert(time.Since(start))
	metrics.RecordConversion(string(opts.Mode))

	p.logger.Info("conversion completed",
		slog.String("mode", string(opts.Mode)),
		slog.Int("target_width", opts.TargetWidth),
		slog.Int("target_height", opts.TargetHeight),
		slog.Duration("elapsed", time.Since(start)),
	)

	return &Outcome{
		OutputPath:  outPath,
		Converted:   true,
		Mode:        opts.Mode,
		Metadata:    meta.WithGeometry(opts.TargetWidth, opts.TargetHeight),
		Eligibility: elig,
	}, nil
}

func (p *Pipeline) probeStaged(ctx context.Context, stagedPath string) (media.Metadata, error) {
	start := time.Now()
	meta, err := p.prober.Probe(ctx, stagedPath)
	if err != nil {
		p.logger.Warn("probe failed",
			slog.String("error", err.Error()),
		)
		return media.Metadata{}, err
	}
	metrics.ObserveProbe(time.Since(start))
	return meta, nil
}
