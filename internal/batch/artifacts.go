package batch

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/cuongbtq/media-batch/internal/batch/domain"
	"github.com/cuongbtq/media-batch/internal/fetcher"
)

const (
	defaultAudioExt = "m4a"
	defaultVideoExt = "mp4"
	finalExt        = "mp4"
	maxTitleRunes   = 120
)

// extensions are the fallback file extensions used when a format reports none
type extensions struct {
	Audio string
	Video string
}

func (e extensions) withDefaults() extensions {
	if e.Audio == "" {
		e.Audio = defaultAudioExt
	}
	if e.Video == "" {
		e.Video = defaultVideoExt
	}
	return e
}

// artifactSet holds the file paths of one job. Audio and Video are empty when
// the resource has no matching format.
type artifactSet struct {
	Audio string
	Video string
	Final string
}

// newArtifactSet names every file of a job. Intermediate files carry the run
// token and batch position so two items resolving to the same resource never
// share a temporary file.
func newArtifactSet(dir string, job domain.Job, meta *fetcher.Metadata, audio, video *fetcher.Format, exts extensions) artifactSet {
	id := sanitizeName(meta.ID)
	set := artifactSet{
		Final: filepath.Join(dir, fmt.Sprintf("%d_%s_%s.%s", job.Item.Position, id, sanitizeName(meta.Title), finalExt)),
	}
	if audio != nil {
		set.Audio = filepath.Join(dir, tempName("audio", id, job, extOrDefault(audio.Ext, exts.Audio)))
	}
	if video != nil {
		set.Video = filepath.Join(dir, tempName("video", id, job, extOrDefault(video.Ext, exts.Video)))
	}
	return set
}

// Temporary returns the intermediate paths that must be removed after the job
func (s artifactSet) Temporary() []string {
	var paths []string
	if s.Audio != "" {
		paths = append(paths, s.Audio)
	}
	if s.Video != "" {
		paths = append(paths, s.Video)
	}
	return paths
}

func tempName(kind, id string, job domain.Job, ext string) string {
	return fmt.Sprintf("%s_%s_%s_%d.%s", kind, id, job.RunToken(), job.Item.Position, ext)
}

func extOrDefault(ext, fallback string) string {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		return fallback
	}
	return sanitizeName(ext)
}

// sanitizeName makes s safe to use as a single path element
func sanitizeName(s string) string {
	var b strings.Builder
	n := 0
	for _, r := range strings.TrimSpace(s) {
		if n >= maxTitleRunes {
			break
		}
		switch {
		case unicode.IsControl(r):
			continue
		case strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
		n++
	}

	out := strings.Trim(b.String(), " .")
	if out == "" {
		return "untitled"
	}
	return out
}
