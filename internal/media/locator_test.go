package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessro/prelisten/internal/core"
	perrors "github.com/tessro/prelisten/internal/errors"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		locator string
		want    core.Source
		wantErr bool
	}{
		{"tracks/set.mp3", core.SourceLocal, false},
		{"file:///tmp/set.mp3", core.SourceLocal, false},
		{"https://cdn.example.com/set.mp3", core.SourceHTTP, false},
		{"HTTP://cdn.example.com/set.mp3", core.SourceHTTP, false},
		{"gs://uploads/set.mp3", core.SourceBucket, false},
		{"ftp://example.com/set.mp3", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := Classify(tt.locator)
		if tt.wantErr {
			assert.ErrorIs(t, err, perrors.ErrUnsupportedLocator, tt.locator)
			continue
		}
		require.NoError(t, err, tt.locator)
		assert.Equal(t, tt.want, got, tt.locator)
	}
}

func TestFormatOf(t *testing.T) {
	for locator, want := range map[string]string{
		"set.mp3":                             "mp3",
		"SET.WAV":                             "wav",
		"https://cdn.example.com/a.wav?sig=1": "wav",
		"https://cdn.example.com/stream":      "mp3",
	} {
		got, err := FormatOf(locator)
		require.NoError(t, err, locator)
		assert.Equal(t, want, got, locator)
	}

	_, err := FormatOf("set.flac")
	assert.ErrorIs(t, err, perrors.ErrUnsupportedFormat)
}

func TestParseBucketURL(t *testing.T) {
	bucket, object, err := ParseBucketURL("gs://uploads/2026/set.mp3")
	require.NoError(t, err)
	assert.Equal(t, "uploads", bucket)
	assert.Equal(t, "2026/set.mp3", object)

	for _, bad := range []string{"gs://uploads", "gs:///set.mp3", "https://uploads/set.mp3"} {
		_, _, err := ParseBucketURL(bad)
		assert.ErrorIs(t, err, perrors.ErrUnsupportedLocator, bad)
	}
}

func TestOpenerReadsFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "set.mp3")
	require.NoError(t, os.WriteFile(path, []byte("ID3"), 0o644))

	o := NewOpener()
	data, err := o.ReadAll(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "ID3", string(data))

	data, err = o.ReadAll(context.Background(), "file://"+path)
	require.NoError(t, err)
	assert.Equal(t, "ID3", string(data))

	_, err = o.ReadAll(context.Background(), filepath.Join(t.TempDir(), "missing.mp3"))
	assert.ErrorIs(t, err, perrors.ErrLoadFailure)
}

func TestOpenerFetchesHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/set.mp3" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("audio-bytes"))
	}))
	defer srv.Close()

	o := NewOpener(WithHTTPTimeout(time.Second))
	data, err := o.ReadAll(context.Background(), srv.URL+"/set.mp3")
	require.NoError(t, err)
	assert.Equal(t, "audio-bytes", string(data))

	_, err = o.ReadAll(context.Background(), srv.URL+"/gone.mp3")
	require.Error(t, err)
	assert.ErrorIs(t, err, perrors.ErrLoadFailure)
	assert.Contains(t, err.Error(), "404")
}

func TestOpenerHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewOpener().Open(ctx, srv.URL+"/set.mp3")
	assert.ErrorIs(t, err, perrors.ErrLoadFailure)
}

func TestObserversCancel(t *testing.T) {
	var obs observers[int]
	var got []int
	cancel := obs.add(func(v int) { got = append(got, v) })
	obs.add(func(v int) { got = append(got, v*10) })
	assert.Equal(t, 2, obs.len())

	cancel()
	obs.notify(3)
	assert.Equal(t, []int{30}, got)
	assert.Equal(t, 1, obs.len())
}
