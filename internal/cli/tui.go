package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tessro/prelisten/internal/core"
	"github.com/tessro/prelisten/internal/preview"
	"github.com/tessro/prelisten/internal/tui"
	"github.com/tessro/prelisten/internal/wizard"
)

var (
	tuiRefresh int
	tuiBackend string
)

var tuiCmd = &cobra.Command{
	Use:     "ui [track]",
	Aliases: []string{"tui"},
	Short:   "Launch the interactive preview editor",
	Long: `Launch the interactive terminal preview editor.

The editor shows:
  • Preview - bound track, status and progress inside the preview
  • Preview window - the whole track with the excerpt highlighted
  • Tracks - the catalog
  • Activity - recent playback events

Moving the window commits on mouse release, on [ ] { } and when the start
field is submitted or left. Committed starts are saved to the catalog.

Keyboard shortcuts:
  q, Ctrl+C    Quit
  ?            Help
  Enter        Load selected track
  Space        Play/Pause
  0-9          Seek inside the preview
  [ ] { }      Move the window by 1s / 10s
  e            Type a start
  Tab          Switch panel`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().IntVar(&tuiRefresh, "refresh", 0, "Refresh interval in milliseconds (default from config)")
	tuiCmd.Flags().StringVar(&tuiBackend, "backend", "", "audio backend: speaker or headless")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cat, err := openCatalog()
	if err != nil {
		return err
	}

	initial := ""
	if !wizard.NeedsTrack(args) {
		initial = args[0]
	} else {
		interactive := wizard.NewInteractive()
		interactive.SetTracks(cat.List())
		track, err := interactive.PromptTrack()
		if err != nil {
			return fmt.Errorf("track selection failed: %w", err)
		}
		if track != nil {
			initial = track.ID
		}
	}

	refresh := tuiRefresh
	if refresh <= 0 {
		refresh = cfg.TUI.RefreshInterval
	}

	length := cfg.Preview.LengthDuration()
	window := core.PreviewWindow{Length: length}
	s, err := startSession(tuiBackend, window)
	if err != nil {
		return err
	}
	defer func() { _ = s.close() }()

	sel := preview.NewSelector(window)
	unlink := preview.Link(s.ctrl, sel)
	defer unlink()

	return tui.Run(ctx, tui.Options{
		Player:    s.ctrl,
		Selector:  sel,
		Catalog:   cat,
		Length:    length,
		Refresh:   time.Duration(refresh) * time.Millisecond,
		Theme:     cfg.TUI.Theme,
		Initial:   initial,
		Formatter: newFormatter(""),
	})
}
