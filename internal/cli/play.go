package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/tessro/prelisten/internal/core"
	perrors "github.com/tessro/prelisten/internal/errors"
	"github.com/tessro/prelisten/internal/preview"
	"github.com/tessro/prelisten/internal/tail"
)

var (
	playStart   string
	playLength  time.Duration
	playFollow  bool
	playFormat  string
	playBackend string
)

var playCmd = &cobra.Command{
	Use:   "play <track|locator>",
	Short: "Play the preview of a track",
	Long: `Play the preview window of a catalog track or of any locator.

The preview starts at the track's stored start (or --start) and stops on its
own once the preview length has played.

Examples:
  prelisten play "Night Drive"            # Catalog track by title
  prelisten play 3f2a --start 1:30        # By id prefix, custom start
  prelisten play ./demo.mp3 --length 15s  # Any file
  prelisten play gs://bucket/demo.mp3 --follow`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVarP(&playStart, "start", "s", "", "preview start (seconds or m:ss)")
	playCmd.Flags().DurationVarP(&playLength, "length", "l", 0, "preview length (default from config)")
	playCmd.Flags().BoolVarP(&playFollow, "follow", "f", false, "print every controller event")
	playCmd.Flags().StringVar(&playFormat, "format", "", "custom event template for --follow")
	playCmd.Flags().StringVar(&playBackend, "backend", "", "audio backend: speaker or headless")
	rootCmd.AddCommand(playCmd)
}

// playResult is the --json output of play.
type playResult struct {
	Track       core.Track       `json:"track"`
	Snapshot    preview.Snapshot `json:"snapshot"`
	Progress    preview.Progress `json:"progress"`
	Interrupted bool             `json:"interrupted"`
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, err := openCatalog()
	if err != nil {
		return err
	}
	track, _, err := resolveTrack(cat, args[0])
	if err != nil {
		return err
	}
	window, err := previewWindow(track, playStart, playLength)
	if err != nil {
		return err
	}

	s, err := startSession(playBackend, window)
	if err != nil {
		return err
	}
	defer func() { _ = s.close() }()

	sel := preview.NewSelector(window)
	unlink := preview.Link(s.ctrl, sel)
	defer unlink()

	watcher := tail.NewWatcher(s.ctrl,
		tail.WithPositions(true),
		tail.WithStale(Verbose()),
		tail.WithBuffer(256),
	)
	go func() { _ = watcher.Start(ctx) }()
	defer watcher.Stop()

	out := cmd.OutOrStdout()
	var r renderer
	switch {
	case playFollow:
		r = &lineRenderer{out: out, format: newFormatter(playFormat), positions: cfg.Tail.Positions}
	case JSONOutput():
		r = nopRenderer{}
	default:
		r = newBarRenderer(ansi.NewAnsiStdout(), track.Title, window.Length)
	}

	if _, err := s.ctrl.Bind(ctx, track.Locator); err != nil {
		return err
	}
	if _, err := s.ctrl.Toggle(ctx); err != nil {
		return err
	}

	runErr := awaitEnd(ctx, watcher.Events(), r)
	r.Finish()

	interrupted := errors.Is(runErr, context.Canceled)
	if interrupted {
		runErr = nil
	}

	snapCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	snap, err := s.ctrl.Snapshot(snapCtx)
	if err != nil {
		return errors.Join(runErr, err)
	}

	if JSONOutput() {
		if err := printJSON(out, playResult{
			Track:       track,
			Snapshot:    snap,
			Progress:    snap.Progress(),
			Interrupted: interrupted,
		}); err != nil {
			return err
		}
	} else if !playFollow && runErr == nil {
		p := snap.Progress()
		fmt.Fprintf(out, "%s  %s / %s  (%s)\n", track.Title, p.ElapsedLabel, preview.FormatClock(p.Length), snap.State.Status)
	}

	return runErr
}

func newFormatter(template string) *tail.Formatter {
	return tail.NewFormatter(
		tail.WithEmoji(cfg.Tail.Emoji),
		tail.WithTimestamp(cfg.Tail.Timestamps),
		tail.WithTemplate(template),
	)
}

// awaitEnd renders events until the preview ends, fails or ctx is done.
func awaitEnd(ctx context.Context, events <-chan preview.Event, r renderer) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case e, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return perrors.ErrClosed
			}
			r.Render(e)

			switch {
			case e.Type == preview.EventError && e.Err != nil:
				return previewFailure(e.Err)
			case e.Type == preview.EventStateChange && e.Status == core.StatusEnded:
				return nil
			}
		}
	}
}

// previewFailure maps an ErrorState onto the matching sentinel.
func previewFailure(e *core.ErrorState) error {
	switch e.Kind {
	case core.LoadFailure:
		return fmt.Errorf("%w: %s", perrors.ErrLoadFailure, e.Message)
	case core.PlaybackRejected:
		return fmt.Errorf("%w: %s", perrors.ErrPlaybackRejected, e.Message)
	default:
		return e
	}
}

// renderer shows preview events while play waits for the end.
type renderer interface {
	Render(e preview.Event)
	Finish()
}

type nopRenderer struct{}

func (nopRenderer) Render(preview.Event) {}
func (nopRenderer) Finish()              {}

type lineRenderer struct {
	out       io.Writer
	format    *tail.Formatter
	positions bool
}

func (l *lineRenderer) Render(e preview.Event) {
	if e.Type == preview.EventPosition && !l.positions {
		return
	}
	fmt.Fprintln(l.out, l.format.Format(e))
}

func (l *lineRenderer) Finish() {}

type barRenderer struct {
	out   io.Writer
	title string
	bar   *progressbar.ProgressBar
}

func newBarRenderer(out io.Writer, title string, length time.Duration) *barRenderer {
	bar := progressbar.NewOptions64(
		length.Milliseconds(),
		progressbar.OptionSetWriter(out),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan]%s[reset] loading", title)),
	)
	return &barRenderer{out: out, title: title, bar: bar}
}

func (b *barRenderer) Render(e preview.Event) {
	p := e.Progress()
	b.bar.Describe(fmt.Sprintf("[cyan]%s[reset] %s %s", b.title, p.ElapsedLabel, p.RemainingLabel))
	_ = b.bar.Set64(p.Elapsed.Milliseconds())
}

func (b *barRenderer) Finish() {
	_, _ = fmt.Fprintln(b.out)
}
