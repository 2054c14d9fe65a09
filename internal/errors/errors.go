package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error types for common failure scenarios.
var (
	ErrLoadFailure        = errors.New("audio could not be loaded")
	ErrPlaybackRejected   = errors.New("playback rejected")
	ErrInvalidWindow      = errors.New("invalid preview window")
	ErrUnsupportedLocator = errors.New("unsupported locator")
	ErrTrackNotFound      = errors.New("track not found")
	ErrClosed             = errors.New("preview controller closed")
	ErrNoAudioDevice      = errors.New("no audio device")
	ErrUnsupportedFormat  = errors.New("unsupported audio format")
	ErrConfigNotFound     = errors.New("config file not found")
	ErrInvalidConfig      = errors.New("invalid configuration")
)

// PreviewError wraps an error with a user-friendly suggestion.
type PreviewError struct {
	Err        error
	Suggestion string
}

func (e *PreviewError) Error() string {
	return e.Err.Error()
}

func (e *PreviewError) Unwrap() error {
	return e.Err
}

// WithSuggestion wraps an error with a helpful suggestion.
func WithSuggestion(err error, suggestion string) error {
	return &PreviewError{
		Err:        err,
		Suggestion: suggestion,
	}
}

// GetSuggestion returns a suggestion for the given error.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	var previewErr *PreviewError
	if errors.As(err, &previewErr) && previewErr.Suggestion != "" {
		return previewErr.Suggestion
	}

	errStr := strings.ToLower(err.Error())

	if errors.Is(err, ErrUnsupportedLocator) {
		return "Use a file path, an http(s):// URL or a gs://bucket/object locator"
	}

	if errors.Is(err, ErrInvalidWindow) {
		return "Give the start in seconds (90) or as m:ss (1:30)"
	}

	if errors.Is(err, ErrUnsupportedFormat) {
		return "Only MP3 and WAV previews are supported"
	}

	if errors.Is(err, ErrLoadFailure) || strings.Contains(errStr, "no such file") {
		return "Check that the track file exists and is readable, then bind it again"
	}

	if errors.Is(err, ErrPlaybackRejected) {
		return "Toggle play again to retry"
	}

	if errors.Is(err, ErrNoAudioDevice) || strings.Contains(errStr, "audio device") {
		return "Set audio.backend = \"headless\" in your config to preview without sound"
	}

	if errors.Is(err, ErrTrackNotFound) {
		return "Run 'prelisten catalog list' to see available tracks"
	}

	// Network errors
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return "Check your internet connection and try again"
	}

	if strings.Contains(errStr, "403") || strings.Contains(errStr, "credentials") {
		return "Check storage.gcs_credentials_file or your application default credentials"
	}

	if errors.Is(err, ErrConfigNotFound) || errors.Is(err, ErrInvalidConfig) ||
		strings.Contains(errStr, "config") {
		return "Run 'prelisten config init' to create a configuration file"
	}

	return ""
}

// Format returns a formatted error message with suggestion if available.
func Format(err error) string {
	if err == nil {
		return ""
	}

	suggestion := GetSuggestion(err)
	if suggestion != "" {
		return fmt.Sprintf("Error: %s\n\nSuggestion: %s", err.Error(), suggestion)
	}

	return fmt.Sprintf("Error: %s", err.Error())
}

// PartialResult collects the items that succeeded in a batch alongside the
// failures of the ones that did not.
type PartialResult[T any] struct {
	Data   []T
	Errors []error
}

// Add records a successful item.
func (p *PartialResult[T]) Add(item T) {
	p.Data = append(p.Data, item)
}

// AddError records a failure. Nil errors are ignored.
func (p *PartialResult[T]) AddError(err error) {
	if err != nil {
		p.Errors = append(p.Errors, err)
	}
}

// HasErrors returns true if there were any errors.
func (p *PartialResult[T]) HasErrors() bool {
	return len(p.Errors) > 0
}

// Err joins all recorded failures, or returns nil.
func (p *PartialResult[T]) Err() error {
	return errors.Join(p.Errors...)
}

// ErrorSummary returns a numbered, human-readable list of failures.
func (p *PartialResult[T]) ErrorSummary() string {
	switch len(p.Errors) {
	case 0:
		return ""
	case 1:
		return p.Errors[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d of %d failed:\n", len(p.Errors), len(p.Errors)+len(p.Data))
	for i, err := range p.Errors {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err)
	}
	return sb.String()
}
