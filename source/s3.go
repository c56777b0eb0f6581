package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Source fetches the role document from an object in an S3 bucket.
type S3Source struct {
	bucket string
	key    string

	// Client may be set before the first fetch, e.g. with static
	// credentials or a custom endpoint. Left nil, a client is built
	// lazily from the default AWS config.
	Client *s3.Client

	clientOnce    sync.Once
	clientInitErr error
}

// NewS3Source creates an S3Source for the given bucket and object key.
func NewS3Source(bucket, key string) *S3Source {
	return &S3Source{bucket: bucket, key: key}
}

// Fetch reads the object. A missing key or bucket is reported as
// fs.ErrNotExist.
func (s *S3Source) Fetch(ctx context.Context) ([]byte, error) {
	if s.Client == nil {
		s.clientOnce.Do(func() {
			cfg, err := awsconfig.LoadDefaultConfig(ctx)
			if err != nil {
				s.clientInitErr = fmt.Errorf("failed to load AWS config: %w", err)
				return
			}
			s.Client = s3.NewFromConfig(cfg)
		})
		if s.clientInitErr != nil {
			return nil, s.clientInitErr
		}
	}

	result, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		var noBucket *types.NoSuchBucket
		if errors.As(err, &noKey) || errors.As(err, &noBucket) {
			return nil, fmt.Errorf("s3://%s/%s: %w", s.bucket, s.key, fs.ErrNotExist)
		}
		return nil, err
	}
	defer result.Body.Close()

	return io.ReadAll(result.Body)
}

func (s *S3Source) Path() string {
	return s.key
}

func (s *S3Source) Name() string {
	return "s3"
}
