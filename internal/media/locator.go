package media

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/tessro/prelisten/internal/core"
	perrors "github.com/tessro/prelisten/internal/errors"
)

// DefaultHTTPTimeout bounds a single HTTP fetch of a track.
const DefaultHTTPTimeout = 15 * time.Second

// Opener resolves track locators to readable streams. Plain paths and
// file:// URLs are read from disk, http(s) URLs are fetched and gs:// URLs
// are read from Cloud Storage.
type Opener struct {
	client          *http.Client
	credentialsFile string
	logger          *slog.Logger

	mu     sync.Mutex
	bucket *bucketReader
}

// OpenerOption configures an Opener.
type OpenerOption func(*Opener)

// WithHTTPClient sets the client used for http(s) locators.
func WithHTTPClient(c *http.Client) OpenerOption {
	return func(o *Opener) {
		o.client = c
	}
}

// WithHTTPTimeout sets the timeout of the default HTTP client.
func WithHTTPTimeout(d time.Duration) OpenerOption {
	return func(o *Opener) {
		if d > 0 {
			o.client = &http.Client{Timeout: d}
		}
	}
}

// WithCredentialsFile sets the service account file used for gs:// locators.
// Application default credentials are used when empty.
func WithCredentialsFile(path string) OpenerOption {
	return func(o *Opener) {
		o.credentialsFile = path
	}
}

// WithOpenerLogger sets the logger.
func WithOpenerLogger(l *slog.Logger) OpenerOption {
	return func(o *Opener) {
		o.logger = l
	}
}

// NewOpener creates an Opener.
func NewOpener(opts ...OpenerOption) *Opener {
	o := &Opener{
		client: &http.Client{Timeout: DefaultHTTPTimeout},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Classify reports where a locator points.
func Classify(locator string) (core.Source, error) {
	if locator == "" {
		return "", fmt.Errorf("%w: empty locator", perrors.ErrUnsupportedLocator)
	}
	scheme, _, ok := strings.Cut(locator, "://")
	if !ok {
		return core.SourceLocal, nil
	}
	switch strings.ToLower(scheme) {
	case "file":
		return core.SourceLocal, nil
	case "http", "https":
		return core.SourceHTTP, nil
	case "gs":
		return core.SourceBucket, nil
	default:
		return "", fmt.Errorf("%w: %s", perrors.ErrUnsupportedLocator, locator)
	}
}

// FormatOf returns the audio container named by the locator's extension.
// Locators without a recognized extension are assumed to be MP3.
func FormatOf(locator string) (string, error) {
	p := locator
	if u, err := url.Parse(locator); err == nil && u.Scheme != "" {
		p = u.Path
	}
	switch ext := strings.ToLower(path.Ext(p)); ext {
	case ".mp3", "":
		return "mp3", nil
	case ".wav", ".wave":
		return "wav", nil
	default:
		return "", fmt.Errorf("%w: %s", perrors.ErrUnsupportedFormat, ext)
	}
}

// Open returns a stream for locator. The caller closes it.
func (o *Opener) Open(ctx context.Context, locator string) (io.ReadCloser, error) {
	kind, err := Classify(locator)
	if err != nil {
		return nil, err
	}

	switch kind {
	case core.SourceHTTP:
		return o.openHTTP(ctx, locator)
	case core.SourceBucket:
		return o.openBucket(ctx, locator)
	default:
		p := strings.TrimPrefix(locator, "file://")
		f, err := os.Open(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", perrors.ErrLoadFailure, err)
		}
		return f, nil
	}
}

// ReadAll opens locator and reads it fully.
func (o *Opener) ReadAll(ctx context.Context, locator string) ([]byte, error) {
	rc, err := o.Open(ctx, locator)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", perrors.ErrLoadFailure, locator, err)
	}
	o.logger.Debug("track fetched", "locator", locator, "bytes", len(data))
	return data, nil
}

func (o *Opener) openHTTP(ctx context.Context, locator string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", perrors.ErrLoadFailure, err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", perrors.ErrLoadFailure, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s returned status %d", perrors.ErrLoadFailure, locator, resp.StatusCode)
	}
	return resp.Body, nil
}

func (o *Opener) openBucket(ctx context.Context, locator string) (io.ReadCloser, error) {
	bucket, object, err := ParseBucketURL(locator)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	if o.bucket == nil {
		o.bucket, err = newBucketReader(ctx, o.credentialsFile)
	}
	br := o.bucket
	o.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", perrors.ErrLoadFailure, err)
	}

	rc, err := br.open(ctx, bucket, object)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", perrors.ErrLoadFailure, err)
	}
	return rc, nil
}

// Close releases the Cloud Storage client if one was created.
func (o *Opener) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.bucket == nil {
		return nil
	}
	err := o.bucket.close()
	o.bucket = nil
	return err
}
