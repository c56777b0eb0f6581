package source

import "context"

// Source fetches the raw bytes of a role document from a backing store.
// Decoding and error containment live in the LiveMap; a Source only moves
// bytes.
type Source interface {
	// Fetch returns the current document bytes. A document that does not
	// exist on the backing store is reported as an error wrapping
	// fs.ErrNotExist so callers can treat it as "nothing to load yet".
	Fetch(ctx context.Context) ([]byte, error)

	// Path is the document path on the backing store. Its suffix selects
	// the decoder.
	Path() string

	// Name identifies the source type in logs and metrics.
	Name() string
}
