// Package fetcher defines the capability the batch runner uses to resolve and
// download remote media, plus a yt-dlp/ffmpeg backed implementation.
package fetcher

import "context"

// Fetcher resolves metadata, downloads individual streams and muxes them.
type Fetcher interface {
	// ResolveMetadata fetches metadata for url
	ResolveMetadata(ctx context.Context, url string) (*Metadata, error)

	// FetchSubResource downloads one format of the resource described by meta to dest
	FetchSubResource(ctx context.Context, meta *Metadata, format Format, dest string) error

	// Combine muxes audio and video into out. Either input may be empty.
	Combine(ctx context.Context, audio, video, out string) error
}
