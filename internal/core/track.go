package core

import "time"

// Source indicates where a track's audio lives.
type Source string

const (
	SourceLocal  Source = "local"
	SourceHTTP   Source = "http"
	SourceBucket Source = "gcs"
)

// Track represents a catalog entry that can be previewed.
type Track struct {
	ID           string        `json:"id" yaml:"id"`
	Title        string        `json:"title" yaml:"title"`
	Artist       string        `json:"artist" yaml:"artist"`
	BPM          int           `json:"bpm,omitempty" yaml:"bpm,omitempty"`
	Duration     time.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
	Locator      string        `json:"locator" yaml:"locator"`
	PreviewStart time.Duration `json:"preview_start" yaml:"preview_start"`
	UploadedAt   time.Time     `json:"uploaded_at,omitempty" yaml:"uploaded_at,omitempty"`
}

// Window returns the preview window stored for the track.
func (t *Track) Window(length time.Duration) PreviewWindow {
	if t == nil {
		return PreviewWindow{Length: length}
	}
	return PreviewWindow{Start: t.PreviewStart, Length: length}
}
