package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessro/prelisten/internal/core"
	perrors "github.com/tessro/prelisten/internal/errors"
)

func TestLoadMissingFile(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "catalog.yaml"))
	require.NoError(t, err)
	assert.Empty(t, c.List())
}

func TestLoadParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `tracks:
  - id: a1
    title: Night Drive
    artist: Kora
    bpm: 124
    duration: 200s
    locator: gs://uploads/night-drive.mp3
    preview_start: 45s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	tracks := c.List()
	require.Len(t, tracks, 1)
	assert.Equal(t, "Night Drive", tracks[0].Title)
	assert.Equal(t, 124, tracks[0].BPM)
	assert.Equal(t, 200*time.Second, tracks[0].Duration)
	assert.Equal(t, 45*time.Second, tracks[0].PreviewStart)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tracks: [::"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestAddSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "catalog.yaml")
	c, err := Load(path)
	require.NoError(t, err)
	c.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	added, err := c.Add(core.Track{Artist: "Kora", Locator: "tracks/sunrise.mp3"})
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID)
	assert.Equal(t, "sunrise", added.Title)
	assert.Equal(t, c.now(), added.UploadedAt)

	require.NoError(t, c.Save())

	reloaded, err := Load(path)
	require.NoError(t, err)
	got, err := reloaded.Find(added.ID)
	require.NoError(t, err)
	assert.Equal(t, added, got)
}

func TestAddRequiresLocator(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "catalog.yaml"))
	require.NoError(t, err)
	_, err = c.Add(core.Track{Title: "Nothing"})
	assert.Error(t, err)
}

func TestFind(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "catalog.yaml"))
	require.NoError(t, err)
	_, err = c.Add(core.Track{ID: "abc123", Title: "Night Drive", Locator: "a.mp3"})
	require.NoError(t, err)
	_, err = c.Add(core.Track{ID: "abd456", Title: "Sunrise", Locator: "b.mp3"})
	require.NoError(t, err)

	got, err := c.Find("night drive")
	require.NoError(t, err)
	assert.Equal(t, "abc123", got.ID)

	got, err = c.Find("abd")
	require.NoError(t, err)
	assert.Equal(t, "Sunrise", got.Title)

	_, err = c.Find("ab")
	assert.ErrorIs(t, err, perrors.ErrTrackNotFound, "ambiguous prefix")

	_, err = c.Find("zzz")
	assert.ErrorIs(t, err, perrors.ErrTrackNotFound)
}

func TestSetPreviewStartClamps(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "catalog.yaml"))
	require.NoError(t, err)
	_, err = c.Add(core.Track{ID: "a", Locator: "a.mp3", Duration: 200 * time.Second})
	require.NoError(t, err)
	_, err = c.Add(core.Track{ID: "b", Locator: "b.mp3"})
	require.NoError(t, err)

	got, err := c.SetPreviewStart("a", core.NewPreviewWindow(185*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 170*time.Second, got.PreviewStart)

	got, err = c.SetPreviewStart("b", core.NewPreviewWindow(185*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 185*time.Second, got.PreviewStart, "unknown duration is not clamped")

	_, err = c.SetPreviewStart("missing", core.NewPreviewWindow(0))
	assert.ErrorIs(t, err, perrors.ErrTrackNotFound)
}

func TestRemoveAndSort(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "catalog.yaml"))
	require.NoError(t, err)
	for _, tr := range []core.Track{
		{ID: "1", Artist: "b", Title: "x", Locator: "1.mp3"},
		{ID: "2", Artist: "A", Title: "z", Locator: "2.mp3"},
		{ID: "3", Artist: "a", Title: "y", Locator: "3.mp3"},
	} {
		_, err := c.Add(tr)
		require.NoError(t, err)
	}

	var ids []string
	for _, tr := range c.List() {
		ids = append(ids, tr.ID)
	}
	assert.Equal(t, []string{"3", "2", "1"}, ids)

	removed, err := c.Remove("2")
	require.NoError(t, err)
	assert.Equal(t, "z", removed.Title)
	assert.Len(t, c.List(), 2)
}
