package domain

import "context"

// Extractor resolves URLs into media items and turns an item into a local
// audio file. Implementations delegate the actual fetching and transcoding
// to external tools.
type Extractor interface {
	// Resolve fetches metadata only; no media bytes are transferred
	Resolve(ctx context.Context, url string) (*PlaylistResolution, error)

	// Download fetches and transcodes one item into destinationDir and
	// returns the path of the produced file. onProgress may be called many
	// times, always before Download returns. Cancelling ctx stops the work
	// and yields ErrCancelled.
	Download(ctx context.Context, item MediaItem, quality Quality, destinationDir string, onProgress RawProgressFunc) (string, error)
}
