// Package bootstrap provides dependency initialization for the shorts-fit
// API.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/shortsfit/shortsfit-api/internal/config"
	"github.com/shortsfit/shortsfit-api/internal/pipeline"
	"github.com/shortsfit/shortsfit-api/internal/probe"
	"github.com/shortsfit/shortsfit-api/internal/transcode"
	"github.com/shortsfit/shortsfit-api/internal/workspace"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	Pipeline   *pipeline.Pipeline
	Workspaces *workspace.Manager
}

// NewDependencies creates and initializes all dependencies for the
// application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	workspaces, err := workspace.NewManager(cfg.TempDir)
	if err != nil {
		return nil, fmt.Errorf("create workspace manager: %w", err)
	}

	prober := probe.NewFFprobe(cfg.FFprobePath)
	transcoder := transcode.NewFFmpeg(cfg.FFmpegPath, cfg.ConvertTimeout())

	logger.Info("media tools configured",
		slog.String("ffmpeg", cfg.FFmpegPath),
		slog.String("ffprobe", cfg.FFprobePath),
		slog.Duration("convert_timeout", cfg.ConvertTimeout()),
	)

	return &Dependencies{
		Pipeline:   pipeline.New(prober, transcoder, logger),
		Workspaces: workspaces,
	}, nil
}
