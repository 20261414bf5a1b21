package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const (
	ytdlpBinary  = "yt-dlp"
	ffmpegBinary = "ffmpeg"

	// maxStderrKeep bounds the stderr tail kept for error messages
	maxStderrKeep = 8192
)

// YTDLPConfig holds yt-dlp fetcher configuration
type YTDLPConfig struct {
	LibrariesDir string
	YTDLPPath    string
	FFmpegPath   string
	ExtraArgs    []string
	Logger       *slog.Logger
}

// YTDLP implements Fetcher by driving the yt-dlp and ffmpeg executables
type YTDLP struct {
	ytdlp     string
	ffmpeg    string
	extraArgs []string
	logger    *slog.Logger
}

// DependencyReport describes which external binaries were found
type DependencyReport struct {
	YTDLPFound  bool   `json:"yt_dlp_found"`
	YTDLPPath   string `json:"yt_dlp_path,omitempty"`
	FFmpegFound bool   `json:"ffmpeg_found"`
	FFmpegPath  string `json:"ffmpeg_path,omitempty"`
}

// NewYTDLP creates a new yt-dlp backed fetcher
func NewYTDLP(cfg *YTDLPConfig) *YTDLP {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &YTDLP{
		ytdlp:     resolveBinary(cfg.YTDLPPath, cfg.LibrariesDir, ytdlpBinary),
		ffmpeg:    resolveBinary(cfg.FFmpegPath, cfg.LibrariesDir, ffmpegBinary),
		extraArgs: cfg.ExtraArgs,
		logger:    logger,
	}
}

// resolveBinary prefers an explicit path, then the libraries dir, then PATH
func resolveBinary(explicit, librariesDir, name string) string {
	if explicit != "" {
		return explicit
	}
	if librariesDir != "" {
		candidate := filepath.Join(librariesDir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return name
}

// Dependencies reports whether the configured binaries can be executed
func (y *YTDLP) Dependencies() DependencyReport {
	report := DependencyReport{}
	if path, err := exec.LookPath(y.ytdlp); err == nil {
		report.YTDLPFound = true
		report.YTDLPPath = path
	}
	if path, err := exec.LookPath(y.ffmpeg); err == nil {
		report.FFmpegFound = true
		report.FFmpegPath = path
	}
	return report
}

// CheckDependencies returns an error naming the first missing binary
func (y *YTDLP) CheckDependencies() error {
	report := y.Dependencies()
	if !report.YTDLPFound {
		return fmt.Errorf("missing dependency: %s is not installed or not on PATH", y.ytdlp)
	}
	if !report.FFmpegFound {
		return fmt.Errorf("missing dependency: %s is not installed or not on PATH", y.ffmpeg)
	}
	return nil
}

// ResolveMetadata runs yt-dlp -J and parses the result
func (y *YTDLP) ResolveMetadata(ctx context.Context, url string) (*Metadata, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("url is required")
	}

	args := append([]string{"-J", "--no-playlist", "--no-warnings"}, y.extraArgs...)
	args = append(args, url)

	stdout, err := y.run(ctx, y.ytdlp, args)
	if err != nil {
		return nil, err
	}
	if len(stdout) == 0 {
		return nil, fmt.Errorf("%s returned empty output", ytdlpBinary)
	}

	meta, err := ParseMetadata(stdout)
	if err != nil {
		return nil, err
	}
	if meta.WebpageURL == "" {
		meta.WebpageURL = url
	}
	return meta, nil
}

// FetchSubResource downloads a single format to dest
func (y *YTDLP) FetchSubResource(ctx context.Context, meta *Metadata, format Format, dest string) error {
	if format.FormatID == "" {
		return fmt.Errorf("format id is required")
	}

	args := []string{
		"--no-playlist",
		"--no-part",
		"--force-overwrites",
		"-f", format.FormatID,
		"-o", dest,
	}
	args = append(args, y.extraArgs...)
	args = append(args, meta.WebpageURL)

	y.logger.Debug("Fetching format",
		slog.String("id", meta.ID),
		slog.String("format_id", format.FormatID),
		slog.String("dest", dest),
	)

	_, err := y.run(ctx, y.ytdlp, args)
	return err
}

// Combine muxes the given streams into out without re-encoding
func (y *YTDLP) Combine(ctx context.Context, audio, video, out string) error {
	args := combineArgs(audio, video, out)
	if args == nil {
		return fmt.Errorf("nothing to combine for %s", out)
	}
	_, err := y.run(ctx, y.ffmpeg, args)
	return err
}

func combineArgs(audio, video, out string) []string {
	args := []string{"-y", "-loglevel", "error"}
	switch {
	case audio != "" && video != "":
		args = append(args, "-i", video, "-i", audio, "-map", "0:v:0", "-map", "1:a:0")
	case video != "":
		args = append(args, "-i", video)
	case audio != "":
		args = append(args, "-i", audio)
	default:
		return nil
	}
	return append(args, "-c", "copy", out)
}

func (y *YTDLP) run(ctx context.Context, bin string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout bytes.Buffer
	stderr := &limitedBuffer{max: maxStderrKeep}
	cmd.Stdout = &stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s canceled: %w", filepath.Base(bin), ctxErr)
		}
		return nil, fmt.Errorf("%s failed: %w: %s", filepath.Base(bin), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// limitedBuffer keeps the last max bytes written to it
type limitedBuffer struct {
	buf []byte
	max int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if len(p) >= b.max {
		b.buf = append(b.buf[:0], p[len(p)-b.max:]...)
		return len(p), nil
	}
	if over := len(b.buf) + len(p) - b.max; over > 0 {
		b.buf = append(b.buf[:0], b.buf[over:]...)
	}
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	return string(b.buf)
}
