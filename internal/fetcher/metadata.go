package fetcher

import (
	"encoding/json"
	"fmt"
	"sort"
)

const codecNone = "none"

// Metadata describes one resolved remote resource
type Metadata struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	WebpageURL string   `json:"webpage_url"`
	Formats    []Format `json:"formats"`
}

// Format is one downloadable stream of a resource
type Format struct {
	FormatID string  `json:"format_id"`
	Ext      string  `json:"ext"`
	ACodec   string  `json:"acodec"`
	VCodec   string  `json:"vcodec"`
	ABR      float64 `json:"abr"`
	TBR      float64 `json:"tbr"`
	Height   int     `json:"height"`
	FPS      float64 `json:"fps"`
	Filesize int64   `json:"filesize"`
}

// IsAudioOnly reports whether the format carries audio without video
func (f Format) IsAudioOnly() bool {
	return hasCodec(f.ACodec) && !hasCodec(f.VCodec)
}

// IsVideoOnly reports whether the format carries video without audio
func (f Format) IsVideoOnly() bool {
	return hasCodec(f.VCodec) && !hasCodec(f.ACodec)
}

func hasCodec(codec string) bool {
	return codec != "" && codec != codecNone
}

// BestAudio returns the highest quality audio-only format
func (m *Metadata) BestAudio() (Format, bool) {
	candidates := m.filter(Format.IsAudioOnly)
	if len(candidates) == 0 {
		return Format{}, false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.ABR != b.ABR {
			return a.ABR > b.ABR
		}
		return a.Filesize > b.Filesize
	})
	return candidates[0], true
}

// BestVideo returns the highest quality video-only format
func (m *Metadata) BestVideo() (Format, bool) {
	candidates := m.filter(Format.IsVideoOnly)
	if len(candidates) == 0 {
		return Format{}, false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Height != b.Height {
			return a.Height > b.Height
		}
		if a.FPS != b.FPS {
			return a.FPS > b.FPS
		}
		return a.TBR > b.TBR
	})
	return candidates[0], true
}

func (m *Metadata) filter(keep func(Format) bool) []Format {
	var out []Format
	for _, f := range m.Formats {
		if keep(f) {
			out = append(out, f)
		}
	}
	return out
}

// ParseMetadata decodes the JSON document printed by yt-dlp -J
func ParseMetadata(data []byte) (*Metadata, error) {
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	if meta.ID == "" {
		return nil, fmt.Errorf("metadata has no id")
	}
	return &meta, nil
}
