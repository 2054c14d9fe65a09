package media

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	perrors "github.com/tessro/prelisten/internal/errors"
)

// bucketReader reads uploaded tracks from Google Cloud Storage.
type bucketReader struct {
	client *storage.Client
}

func newBucketReader(ctx context.Context, credentialsFile string) (*bucketReader, error) {
	var client *storage.Client
	var err error

	if credentialsFile != "" {
		client, err = storage.NewClient(ctx, option.WithCredentialsFile(credentialsFile))
	} else {
		// Use application default credentials
		client, err = storage.NewClient(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &bucketReader{client: client}, nil
}

func (b *bucketReader) open(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	r, err := b.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("gs://%s/%s: %w", bucket, object, err)
	}
	return r, nil
}

func (b *bucketReader) close() error {
	return b.client.Close()
}

// ParseBucketURL splits gs://bucket/object into its parts.
func ParseBucketURL(locator string) (bucket, object string, err error) {
	rest, ok := strings.CutPrefix(locator, "gs://")
	if !ok {
		return "", "", fmt.Errorf("%w: %s", perrors.ErrUnsupportedLocator, locator)
	}
	bucket, object, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("%w: %s needs a bucket and an object", perrors.ErrUnsupportedLocator, locator)
	}
	return bucket, object, nil
}
