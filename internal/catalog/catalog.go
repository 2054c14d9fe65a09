// Package catalog stores the tracks available for preview in a YAML file.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/tessro/prelisten/internal/core"
	perrors "github.com/tessro/prelisten/internal/errors"
)

// file is the on-disk layout.
type file struct {
	Tracks []core.Track `yaml:"tracks"`
}

// Catalog is a set of tracks backed by a YAML file.
type Catalog struct {
	path string
	now  func() time.Time

	mu     sync.RWMutex
	tracks []core.Track
}

// Load reads the catalog at path. A missing file yields an empty catalog.
func Load(path string) (*Catalog, error) {
	c := &Catalog{path: path, now: time.Now}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	c.tracks = f.Tracks
	return c, nil
}

// Path returns the file backing the catalog.
func (c *Catalog) Path() string {
	return c.path
}

// Save writes the catalog atomically.
func (c *Catalog) Save() error {
	c.mu.RLock()
	data, err := yaml.Marshal(file{Tracks: c.tracks})
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), ".catalog-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("failed to replace catalog: %w", err)
	}
	return nil
}

// List returns the tracks sorted by artist then title.
func (c *Catalog) List() []core.Track {
	c.mu.RLock()
	out := make([]core.Track, len(c.tracks))
	copy(out, c.tracks)
	c.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !strings.EqualFold(a.Artist, b.Artist) {
			return strings.ToLower(a.Artist) < strings.ToLower(b.Artist)
		}
		return strings.ToLower(a.Title) < strings.ToLower(b.Title)
	})
	return out
}

// Find looks a track up by id, id prefix or case-insensitive title.
func (c *Catalog) Find(ref string) (core.Track, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, err := c.indexLocked(ref)
	if err != nil {
		return core.Track{}, err
	}
	return c.tracks[i], nil
}

func (c *Catalog) indexLocked(ref string) (int, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return -1, fmt.Errorf("%w: empty reference", perrors.ErrTrackNotFound)
	}

	for i, t := range c.tracks {
		if t.ID == ref {
			return i, nil
		}
	}

	var matches []int
	for i, t := range c.tracks {
		if strings.HasPrefix(t.ID, ref) || strings.EqualFold(t.Title, ref) {
			matches = append(matches, i)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return -1, fmt.Errorf("%w: %s", perrors.ErrTrackNotFound, ref)
	default:
		return -1, fmt.Errorf("%w: %q matches %d tracks", perrors.ErrTrackNotFound, ref, len(matches))
	}
}

// Add appends a track, assigning an id and upload time when missing.
func (c *Catalog) Add(t core.Track) (core.Track, error) {
	if t.Locator == "" {
		return core.Track{}, fmt.Errorf("track %q has no locator", t.Title)
	}
	if t.Title == "" {
		base := filepath.Base(t.Locator)
		t.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.UploadedAt.IsZero() {
		t.UploadedAt = c.now().UTC().Truncate(time.Second)
	}
	t.PreviewStart = max(0, t.PreviewStart)

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.tracks {
		if existing.ID == t.ID {
			return core.Track{}, fmt.Errorf("track id %s already exists", t.ID)
		}
	}
	c.tracks = append(c.tracks, t)
	return t, nil
}

// Remove deletes the track matching ref.
func (c *Catalog) Remove(ref string) (core.Track, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, err := c.indexLocked(ref)
	if err != nil {
		return core.Track{}, err
	}
	t := c.tracks[i]
	c.tracks = append(c.tracks[:i], c.tracks[i+1:]...)
	return t, nil
}

// SetPreviewStart stores a committed preview start for the track. When the
// duration is known the start is clamped so the window fits in the track.
func (c *Catalog) SetPreviewStart(ref string, w core.PreviewWindow) (core.Track, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, err := c.indexLocked(ref)
	if err != nil {
		return core.Track{}, err
	}
	t := &c.tracks[i]
	start := max(0, w.Start)
	if t.Duration > 0 {
		start = w.ClampStart(start, t.Duration)
	}
	t.PreviewStart = start
	return *t, nil
}

// SetDuration records a probed duration for the track.
func (c *Catalog) SetDuration(ref string, d time.Duration) (core.Track, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, err := c.indexLocked(ref)
	if err != nil {
		return core.Track{}, err
	}
	c.tracks[i].Duration = d
	return c.tracks[i], nil
}
