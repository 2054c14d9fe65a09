package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/tessro/prelisten/internal/core"
	"github.com/tessro/prelisten/internal/media"
	"github.com/tessro/prelisten/internal/preview"
)

var (
	windowStart  string
	windowLength time.Duration
	windowSave   bool
)

var windowCmd = &cobra.Command{
	Use:   "window <track|locator>",
	Short: "Show or choose where a track's preview starts",
	Long: `Probe a track's duration and print its preview window.

With --start the start is clamped the same way the timeline clamps it, so
the whole preview always fits inside the track. --save stores the result in
the catalog.

Examples:
  prelisten window "Night Drive"
  prelisten window "Night Drive" --start 2:45 --save
  prelisten window ./demo.wav --start 500`,
	Args: cobra.ExactArgs(1),
	RunE: runWindow,
}

func init() {
	windowCmd.Flags().StringVarP(&windowStart, "start", "s", "", "candidate start (seconds or m:ss)")
	windowCmd.Flags().DurationVarP(&windowLength, "length", "l", 0, "preview length (default from config)")
	windowCmd.Flags().BoolVar(&windowSave, "save", false, "store the start in the catalog")
	rootCmd.AddCommand(windowCmd)
}

// windowResult is the outcome of placing a window inside a track.
type windowResult struct {
	Track      core.Track         `json:"track"`
	Window     core.PreviewWindow `json:"window"`
	End        time.Duration      `json:"end"`
	Total      time.Duration      `json:"total"`
	Adjustable bool               `json:"adjustable"`
	Clamped    bool               `json:"clamped"`
	Saved      bool               `json:"saved"`
}

func runWindow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cat, err := openCatalog()
	if err != nil {
		return err
	}
	track, inCatalog, err := resolveTrack(cat, args[0])
	if err != nil {
		return err
	}
	if windowSave && !inCatalog {
		return fmt.Errorf("%s is not in the catalog; add it with 'prelisten catalog add' first", args[0])
	}

	window, err := previewWindow(track, "", windowLength)
	if err != nil {
		return err
	}
	var candidate *time.Duration
	if windowStart != "" {
		d, err := preview.ParseStart(windowStart)
		if err != nil {
			return fmt.Errorf("invalid --start: %w", err)
		}
		candidate = &d
	}

	opener := newOpener()
	defer func() { _ = opener.Close() }()
	probe := media.NewHeadless(opener, nil, 0, slog.Default())
	defer func() { _ = probe.Close() }()

	total, err := probeTotal(ctx, probe, track)
	if err != nil {
		return err
	}

	res := placeWindow(window, total, candidate)
	res.Track = track

	if windowSave {
		if _, err := cat.SetDuration(track.ID, total); err != nil {
			return err
		}
		saved, err := cat.SetPreviewStart(track.ID, res.Window)
		if err != nil {
			return err
		}
		if err := cat.Save(); err != nil {
			return err
		}
		res.Track = saved
		res.Saved = true
	}

	out := cmd.OutOrStdout()
	if JSONOutput() {
		return printJSON(out, res)
	}

	fmt.Fprintf(out, "%s\n", track.Title)
	fmt.Fprintf(out, "  track:   %s\n", FormatDuration(res.Total))
	fmt.Fprintf(out, "  preview: %s → %s (%s)\n",
		preview.FormatClock(res.Window.Start),
		preview.FormatClock(res.End),
		preview.FormatClock(res.Window.Length))
	switch {
	case !res.Adjustable:
		fmt.Fprintln(out, "  track is shorter than the preview; the start is fixed at 0:00")
	case res.Clamped:
		fmt.Fprintf(out, "  start clamped from %s\n", windowStart)
	}
	if res.Saved {
		fmt.Fprintln(out, "  saved to catalog")
	}
	return nil
}

func probeTotal(ctx context.Context, probe core.MediaPlayable, track core.Track) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Storage.HTTPTimeout)*time.Second)
	defer cancel()

	total, err := probe.Load(ctx, track.Locator)
	if err != nil {
		return 0, err
	}
	return total, nil
}

// placeWindow runs a candidate start through a selector holding window on
// a track of the given total duration.
func placeWindow(window core.PreviewWindow, total time.Duration, candidate *time.Duration) windowResult {
	sel := preview.NewSelector(window)
	sel.SetTotal(total)

	res := windowResult{Total: total, Adjustable: sel.Enabled()}
	if candidate != nil {
		start, _ := sel.SetStart(*candidate)
		res.Clamped = start != *candidate
	}
	res.Window = sel.Window()
	res.End = res.Window.End()
	return res
}
