package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tessro/prelisten/internal/catalog"
	"github.com/tessro/prelisten/internal/core"
	perrors "github.com/tessro/prelisten/internal/errors"
	"github.com/tessro/prelisten/internal/media"
	"github.com/tessro/prelisten/internal/preview"
)

// session is a running controller with the media stack behind it.
type session struct {
	ctrl   *preview.Controller
	media  core.MediaPlayable
	opener *media.Opener
	done   chan error
}

func newOpener() *media.Opener {
	return media.NewOpener(
		media.WithHTTPTimeout(time.Duration(cfg.Storage.HTTPTimeout)*time.Second),
		media.WithCredentialsFile(cfg.Storage.GCSCredentialsFile),
		media.WithOpenerLogger(slog.Default()),
	)
}

func mediaConfig(backend string) media.Config {
	if backend == "" {
		backend = cfg.Audio.Backend
	}
	return media.Config{
		Backend:    backend,
		SampleRate: cfg.Audio.SampleRate,
		Buffer:     time.Duration(cfg.Audio.BufferMS) * time.Millisecond,
		Tick:       time.Duration(cfg.Audio.TickMS) * time.Millisecond,
	}
}

// startSession builds the media backend and runs a controller holding
// window until close is called.
func startSession(backend string, window core.PreviewWindow) (*session, error) {
	logger := slog.Default()
	opener := newOpener()

	m, err := media.New(mediaConfig(backend), opener, logger)
	if err != nil {
		_ = opener.Close()
		return nil, err
	}

	s := &session{
		ctrl:   preview.NewController(m, preview.WithLogger(logger), preview.WithWindow(window)),
		media:  m,
		opener: opener,
		done:   make(chan error, 1),
	}
	go func() {
		s.done <- s.ctrl.Run(context.Background())
	}()
	return s, nil
}

func (s *session) close() error {
	_ = s.ctrl.Close()
	<-s.done
	return errors.Join(s.media.Close(), s.opener.Close())
}

func openCatalog() (*catalog.Catalog, error) {
	return catalog.Load(cfg.Catalog.Path)
}

// resolveTrack finds ref in the catalog, or treats it as a locator when no
// track matches. The bool reports whether the track came from the catalog.
func resolveTrack(cat *catalog.Catalog, ref string) (core.Track, bool, error) {
	track, err := cat.Find(ref)
	if err == nil {
		return track, true, nil
	}
	if !errors.Is(err, perrors.ErrTrackNotFound) {
		return core.Track{}, false, err
	}

	src, cerr := media.Classify(ref)
	if cerr != nil {
		return core.Track{}, false, err
	}
	if src == core.SourceLocal {
		if _, serr := os.Stat(strings.TrimPrefix(ref, "file://")); serr != nil {
			return core.Track{}, false, err
		}
	}

	base := filepath.Base(ref)
	return core.Track{
		Title:        strings.TrimSuffix(base, filepath.Ext(base)),
		Locator:      ref,
		PreviewStart: cfg.Preview.DefaultStartDuration(),
	}, false, nil
}

// previewWindow returns the window for track, applying --start and
// --length overrides when given.
func previewWindow(track core.Track, start string, length time.Duration) (core.PreviewWindow, error) {
	if length <= 0 {
		length = cfg.Preview.LengthDuration()
	}
	w := track.Window(length)
	if start != "" {
		d, err := preview.ParseStart(start)
		if err != nil {
			return core.PreviewWindow{}, fmt.Errorf("invalid --start: %w", err)
		}
		w.Start = d
	}
	return w, nil
}
