package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sync"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSSource fetches the role document from an object in a Google Cloud
// Storage bucket.
type GCSSource struct {
	bucket string
	object string

	// Client may be set before the first fetch, e.g. to point at an
	// emulator. Left nil, a default client is built lazily.
	Client *storage.Client

	clientOnce    sync.Once
	clientOpts    []option.ClientOption
	clientInitErr error
}

// NewGCSSource creates a GCSSource for the given bucket and object. Any
// client options are applied when the storage client is built on first
// fetch.
func NewGCSSource(bucket, object string, opts ...option.ClientOption) *GCSSource {
	return &GCSSource{bucket: bucket, object: object, clientOpts: opts}
}

// Fetch reads the object. A missing object is reported as fs.ErrNotExist.
func (g *GCSSource) Fetch(ctx context.Context) ([]byte, error) {
	if g.Client == nil {
		g.clientOnce.Do(func() {
			client, err := storage.NewClient(ctx, g.clientOpts...)
			if err != nil {
				g.clientInitErr = fmt.Errorf("create storage client: %w", err)
				return
			}
			g.Client = client
		})
		if g.clientInitErr != nil {
			return nil, g.clientInitErr
		}
	}

	reader, err := g.Client.Bucket(g.bucket).Object(g.object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return nil, fmt.Errorf("gs://%s/%s: %w", g.bucket, g.object, fs.ErrNotExist)
		}
		return nil, err
	}
	defer reader.Close()

	return io.ReadAll(reader)
}

func (g *GCSSource) Path() string {
	return g.object
}

func (g *GCSSource) Name() string {
	return "gcs"
}
