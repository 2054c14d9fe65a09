package core

import "time"

// ReadyState tracks how far a bound audio source has loaded.
type ReadyState int

const (
	Unloaded ReadyState = iota
	MetadataPending
	Ready
	LoadError
)

func (r ReadyState) String() string {
	switch r {
	case Unloaded:
		return "unloaded"
	case MetadataPending:
		return "metadata_pending"
	case Ready:
		return "ready"
	case LoadError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r ReadyState) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// AudioSource describes the media resource currently bound for preview.
type AudioSource struct {
	Locator    string        `json:"locator"`
	Duration   time.Duration `json:"duration"`
	ReadyState ReadyState    `json:"ready_state"`
}

// DurationKnown returns true once metadata has resolved.
func (s *AudioSource) DurationKnown() bool {
	return s != nil && s.ReadyState == Ready
}
