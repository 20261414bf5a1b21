package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/cuongbtq/media-batch/internal/config"
	"github.com/cuongbtq/media-batch/internal/fetcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	missing   bool
	onResolve func(url string)
}

func (s *stubFetcher) ResolveMetadata(ctx context.Context, url string) (*fetcher.Metadata, error) {
	if s.onResolve != nil {
		s.onResolve(url)
	}
	if strings.HasSuffix(url, "bad") {
		return nil, errors.New("video unavailable")
	}
	id := url[strings.LastIndex(url, "/")+1:]
	return &fetcher.Metadata{
		ID:    id,
		Title: "Clip " + id,
		Formats: []fetcher.Format{
			{FormatID: "140", Ext: "m4a", ACodec: "mp4a", VCodec: "none", ABR: 128},
			{FormatID: "137", Ext: "mp4", ACodec: "none", VCodec: "avc1", Height: 1080},
		},
	}, nil
}

func (s *stubFetcher) FetchSubResource(ctx context.Context, meta *fetcher.Metadata, format fetcher.Format, dest string) error {
	return os.WriteFile(dest, []byte(format.FormatID), 0o644)
}

func (s *stubFetcher) Combine(ctx context.Context, audio, video, out string) error {
	return os.WriteFile(out, []byte("combined"), 0o644)
}

func (s *stubFetcher) Dependencies() fetcher.DependencyReport {
	if s.missing {
		return fetcher.DependencyReport{}
	}
	return fetcher.DependencyReport{
		YTDLPFound: true, YTDLPPath: "/usr/bin/yt-dlp",
		FFmpegFound: true, FFmpegPath: "/usr/bin/ffmpeg",
	}
}

func (s *stubFetcher) CheckDependencies() error {
	if s.missing {
		return errors.New("missing dependency: yt-dlp is not installed or not on PATH")
	}
	return nil
}

func writeTestConfig(t *testing.T, base string) string {
	t.Helper()
	content := "logging:\n  level: error\n  output: " + filepath.Join(base, "batchctl.log") + "\n" +
		"batch:\n  concurrency: 2\n" +
		"paths:\n" +
		"  input_dir: " + filepath.Join(base, "input") + "\n" +
		"  output_dir: " + filepath.Join(base, "output") + "\n" +
		"  libraries_dir: " + filepath.Join(base, "libs") + "\n"
	path := filepath.Join(base, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func executeCommand(t *testing.T, fake *stubFetcher, args ...string) (string, error) {
	t.Helper()
	return executeCommandContext(t, context.Background(), fake, args...)
}

func executeCommandContext(t *testing.T, ctx context.Context, fake *stubFetcher, args ...string) (string, error) {
	t.Helper()
	cc := newCommandContext()
	cc.newFetcher = func(cfg *config.Config, logger *slog.Logger) mediaFetcher {
		return fake
	}

	cmd := newRootCommand(cc)
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestRunCommand(t *testing.T) {
	base := t.TempDir()
	configPath := writeTestConfig(t, base)

	require.NoError(t, os.MkdirAll(filepath.Join(base, "input"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "input", "list.txt"),
		[]byte("https://example.com/watch/one\n\nhttps://example.com/watch/bad\n"), 0o644))

	out, err := executeCommand(t, &stubFetcher{}, "run", "--config", configPath, "--no-sheet")
	require.NoError(t, err)

	assert.Contains(t, out, "list.txt")
	assert.Contains(t, out, "Download Summary")
	assert.Contains(t, out, "video unavailable")

	entries, err := os.ReadDir(filepath.Join(base, "output"))
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"1_one_Clip one.mp4", "failed.txt"}, names)

	report, err := os.ReadFile(filepath.Join(base, "output", "failed.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(report), "URL: https://example.com/watch/bad")
	assert.Contains(t, string(report), "Position: 2")
}

func TestRunCommand_FileFlag(t *testing.T) {
	base := t.TempDir()
	configPath := writeTestConfig(t, base)

	list := filepath.Join(base, "custom.txt")
	require.NoError(t, os.WriteFile(list, []byte("https://example.com/watch/a\nhttps://example.com/watch/b\n"), 0o644))

	out, err := executeCommand(t, &stubFetcher{}, "run", "-c", configPath, "--no-sheet", "-f", list, "-n", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "custom.txt")

	_, err = os.Stat(filepath.Join(base, "output", "failed.txt"))
	assert.True(t, os.IsNotExist(err), "no failures means no report")
}

func TestRunCommand_Interrupted(t *testing.T) {
	base := t.TempDir()
	configPath := writeTestConfig(t, base)

	list := filepath.Join(base, "list.txt")
	require.NoError(t, os.WriteFile(list,
		[]byte("https://example.com/watch/a\nhttps://example.com/watch/b\nhttps://example.com/watch/c\n"), 0o644))

	// The first job to start plays the role of Ctrl-C.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var once sync.Once
	fake := &stubFetcher{onResolve: func(string) { once.Do(cancel) }}

	out, err := executeCommandContext(t, ctx, fake, "run", "-c", configPath, "--no-sheet", "-f", list, "-n", "1")
	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, out, "Download Summary")

	report, err := os.ReadFile(filepath.Join(base, "output", "failed.txt"))
	require.NoError(t, err, "failures of the interrupted batch are still exported")
	assert.Contains(t, string(report), "batch canceled before job started")

	entries, err := os.ReadDir(filepath.Join(base, "output"))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), "audio_") || strings.HasPrefix(e.Name(), "video_"),
			"temporary file %s left behind", e.Name())
	}
}

func TestRunCommand_MissingDependencies(t *testing.T) {
	base := t.TempDir()
	configPath := writeTestConfig(t, base)

	_, err := executeCommand(t, &stubFetcher{missing: true}, "run", "--config", configPath, "--no-sheet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing dependency")
}

func TestRunCommand_ExplicitConfigMissing(t *testing.T) {
	_, err := executeCommand(t, &stubFetcher{}, "run", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestCheckCommand(t *testing.T) {
	base := t.TempDir()
	configPath := writeTestConfig(t, base)

	out, err := executeCommand(t, &stubFetcher{}, "check", "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "/usr/bin/yt-dlp")
	assert.Contains(t, out, "ok")

	out, err = executeCommand(t, &stubFetcher{missing: true}, "check", "--config", configPath)
	require.Error(t, err)
	assert.Contains(t, out, "missing")
}
