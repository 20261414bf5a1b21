package batch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/cuongbtq/media-batch/internal/batch/domain"
	"github.com/cuongbtq/media-batch/internal/fetcher"
)

// JobRunner executes the full lifecycle of one job
type JobRunner interface {
	Run(ctx context.Context, job domain.Job) domain.Outcome
}

// RunnerConfig holds job runner configuration
type RunnerConfig struct {
	Logger     *slog.Logger
	Fetcher    fetcher.Fetcher
	OutputDir  string
	JobTimeout time.Duration
	AudioExt   string
	VideoExt   string
}

// Runner fetches the best audio and video streams of an item and combines
// them into a single file in the output directory.
type Runner struct {
	logger     *slog.Logger
	fetcher    fetcher.Fetcher
	outputDir  string
	jobTimeout time.Duration
	exts       extensions
}

// NewRunner creates a new job runner
func NewRunner(cfg *RunnerConfig) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		logger:     logger,
		fetcher:    cfg.Fetcher,
		outputDir:  cfg.OutputDir,
		jobTimeout: cfg.JobTimeout,
		exts:       extensions{Audio: cfg.AudioExt, Video: cfg.VideoExt}.withDefaults(),
	}
}

// Run executes one job and converts any error into a failed outcome
func (r *Runner) Run(ctx context.Context, job domain.Job) domain.Outcome {
	if err := r.process(ctx, job); err != nil {
		return domain.FailureFromError(err)
	}
	return domain.Success()
}

func (r *Runner) process(ctx context.Context, job domain.Job) error {
	if r.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.jobTimeout)
		defer cancel()
	}

	// Step 1: Resolve metadata
	meta, err := r.fetcher.ResolveMetadata(ctx, job.Item.URL)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrMetadata, err)
	}

	var audio, video *fetcher.Format
	if f, ok := meta.BestAudio(); ok {
		audio = &f
	}
	if f, ok := meta.BestVideo(); ok {
		video = &f
	}

	files := newArtifactSet(r.outputDir, job, meta, audio, video, r.exts)
	defer r.cleanup(job, files)

	r.logger.Debug("Resolved metadata",
		slog.Int("position", job.Item.Position),
		slog.String("id", meta.ID),
		slog.String("title", meta.Title),
		slog.Bool("has_audio", audio != nil),
		slog.Bool("has_video", video != nil),
	)

	// Step 2: Fetch audio
	if audio != nil {
		if err := r.fetcher.FetchSubResource(ctx, meta, *audio, files.Audio); err != nil {
			return fmt.Errorf("%w: audio %s: %w", domain.ErrSubResource, audio.FormatID, err)
		}
	}

	// Step 3: Fetch video
	if video != nil {
		if err := r.fetcher.FetchSubResource(ctx, meta, *video, files.Video); err != nil {
			return fmt.Errorf("%w: video %s: %w", domain.ErrSubResource, video.FormatID, err)
		}
	}

	if audio == nil && video == nil {
		return domain.ErrNoSubResources
	}

	// Step 4: Combine
	if err := r.fetcher.Combine(ctx, files.Audio, files.Video, files.Final); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrCombine, err)
	}

	r.logger.Info("Job output written",
		slog.Int("position", job.Item.Position),
		slog.String("file", files.Final),
	)

	return nil
}

// cleanup removes intermediate files. Failures are only logged.
func (r *Runner) cleanup(job domain.Job, files artifactSet) {
	for _, path := range files.Temporary() {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			r.logger.Warn("Could not delete temporary file",
				slog.Int("position", job.Item.Position),
				slog.String("file", path),
				slog.String("error", err.Error()),
			)
		}
	}
}
