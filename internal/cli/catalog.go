package cli

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tessro/prelisten/internal/core"
	perrors "github.com/tessro/prelisten/internal/errors"
	"github.com/tessro/prelisten/internal/media"
	"github.com/tessro/prelisten/internal/preview"
)

var (
	addTitle  string
	addArtist string
	addBPM    int
	addStart  string
	addProbe  bool
)

var catalogCmd = &cobra.Command{
	Use:     "catalog",
	Aliases: []string{"tracks"},
	Short:   "Manage the track catalog",
	Long:    `Commands for listing, adding and editing catalog tracks.`,
}

var catalogListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List catalog tracks",
	Args:    cobra.NoArgs,
	RunE:    runCatalogList,
}

var catalogAddCmd = &cobra.Command{
	Use:   "add <locator>...",
	Short: "Add tracks to the catalog",
	Long: `Add one or more tracks by locator: a file path, an http(s) URL or a
gs://bucket/object reference. Durations are probed unless --probe=false.

Examples:
  prelisten catalog add ./set/*.mp3
  prelisten catalog add gs://uploads/night-drive.mp3 --title "Night Drive" --bpm 124`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCatalogAdd,
}

var catalogShowCmd = &cobra.Command{
	Use:   "show <track>",
	Short: "Show a catalog track",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogShow,
}

var catalogSetStartCmd = &cobra.Command{
	Use:   "set-start <track> <start>",
	Short: "Set where a track's preview starts",
	Args:  cobra.ExactArgs(2),
	RunE:  runCatalogSetStart,
}

var catalogRemoveCmd = &cobra.Command{
	Use:     "remove <track>",
	Aliases: []string{"rm"},
	Short:   "Remove a track from the catalog",
	Args:    cobra.ExactArgs(1),
	RunE:    runCatalogRemove,
}

func init() {
	catalogAddCmd.Flags().StringVar(&addTitle, "title", "", "track title (default: file name)")
	catalogAddCmd.Flags().StringVar(&addArtist, "artist", "", "artist name")
	catalogAddCmd.Flags().IntVar(&addBPM, "bpm", 0, "tempo in beats per minute")
	catalogAddCmd.Flags().StringVar(&addStart, "start", "", "preview start (seconds or m:ss)")
	catalogAddCmd.Flags().BoolVar(&addProbe, "probe", true, "probe the track duration")

	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogAddCmd)
	catalogCmd.AddCommand(catalogShowCmd)
	catalogCmd.AddCommand(catalogSetStartCmd)
	catalogCmd.AddCommand(catalogRemoveCmd)
	rootCmd.AddCommand(catalogCmd)
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	cat, err := openCatalog()
	if err != nil {
		return err
	}
	tracks := cat.List()

	out := cmd.OutOrStdout()
	if JSONOutput() {
		if tracks == nil {
			tracks = []core.Track{}
		}
		return printJSON(out, tracks)
	}

	if len(tracks) == 0 {
		fmt.Fprintln(out, "Catalog is empty. Add tracks with 'prelisten catalog add <locator>'.")
		return nil
	}

	table := NewTableWriter(out, "ID", "TITLE", "ARTIST", "BPM", "LENGTH", "PREVIEW", "UPLOADED")
	for _, t := range tracks {
		bpm := "-"
		if t.BPM > 0 {
			bpm = strconv.Itoa(t.BPM)
		}
		table.Row(
			shortID(t.ID),
			TruncateString(t.Title, 40),
			TruncateString(t.Artist, 24),
			bpm,
			FormatDuration(t.Duration),
			preview.FormatClock(t.PreviewStart),
			FormatUploaded(t.UploadedAt),
		)
	}
	table.Flush()
	return nil
}

func runCatalogAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cat, err := openCatalog()
	if err != nil {
		return err
	}

	start := cfg.Preview.DefaultStartDuration()
	if addStart != "" {
		start, err = preview.ParseStart(addStart)
		if err != nil {
			return fmt.Errorf("invalid --start: %w", err)
		}
	}
	if len(args) > 1 && addTitle != "" {
		return fmt.Errorf("--title can only be used when adding a single track")
	}

	opener := newOpener()
	defer func() { _ = opener.Close() }()
	probe := media.NewHeadless(opener, nil, 0, slog.Default())
	defer func() { _ = probe.Close() }()

	var result perrors.PartialResult[core.Track]
	for _, locator := range args {
		if _, err := media.Classify(locator); err != nil {
			result.AddError(err)
			continue
		}

		track := core.Track{
			Title:        addTitle,
			Artist:       addArtist,
			BPM:          addBPM,
			Locator:      locator,
			PreviewStart: start,
		}

		if addProbe {
			total, err := probeTotal(ctx, probe, track)
			if err != nil {
				result.AddError(fmt.Errorf("%s: %w", locator, err))
				continue
			}
			track.Duration = total
			track.PreviewStart = track.Window(cfg.Preview.LengthDuration()).ClampStart(track.PreviewStart, total)
		}

		added, err := cat.Add(track)
		if err != nil {
			result.AddError(fmt.Errorf("%s: %w", locator, err))
			continue
		}
		result.Add(added)
	}

	if len(result.Data) > 0 {
		if err := cat.Save(); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if JSONOutput() {
		errs := make([]string, 0, len(result.Errors))
		for _, e := range result.Errors {
			errs = append(errs, e.Error())
		}
		if err := printJSON(out, map[string]any{"added": result.Data, "errors": errs}); err != nil {
			return err
		}
	} else {
		for _, t := range result.Data {
			fmt.Fprintf(out, "Added %s  %s (%s, preview @ %s)\n",
				shortID(t.ID), t.Title, FormatDuration(t.Duration), preview.FormatClock(t.PreviewStart))
		}
		if result.HasErrors() {
			fmt.Fprint(cmd.ErrOrStderr(), result.ErrorSummary())
			if len(result.Errors) == 1 {
				fmt.Fprintln(cmd.ErrOrStderr())
			}
		}
	}

	if result.HasErrors() && len(result.Data) == 0 {
		return result.Err()
	}
	return nil
}

func runCatalogShow(cmd *cobra.Command, args []string) error {
	cat, err := openCatalog()
	if err != nil {
		return err
	}
	t, err := cat.Find(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if JSONOutput() {
		return printJSON(out, t)
	}

	w := t.Window(cfg.Preview.LengthDuration())
	fmt.Fprintf(out, "%s\n", t.Title)
	fmt.Fprintf(out, "  id:       %s\n", t.ID)
	if t.Artist != "" {
		fmt.Fprintf(out, "  artist:   %s\n", t.Artist)
	}
	if t.BPM > 0 {
		fmt.Fprintf(out, "  bpm:      %d\n", t.BPM)
	}
	fmt.Fprintf(out, "  length:   %s\n", FormatDuration(t.Duration))
	fmt.Fprintf(out, "  preview:  %s → %s\n", preview.FormatClock(w.Start), preview.FormatClock(w.End()))
	fmt.Fprintf(out, "  locator:  %s\n", t.Locator)
	fmt.Fprintf(out, "  uploaded: %s\n", FormatUploaded(t.UploadedAt))
	return nil
}

func runCatalogSetStart(cmd *cobra.Command, args []string) error {
	cat, err := openCatalog()
	if err != nil {
		return err
	}
	t, err := cat.Find(args[0])
	if err != nil {
		return err
	}
	d, err := preview.ParseStart(args[1])
	if err != nil {
		return fmt.Errorf("invalid start: %w", err)
	}

	w := t.Window(cfg.Preview.LengthDuration())
	if t.Duration > 0 {
		w = placeWindow(w, t.Duration, &d).Window
	} else {
		w.Start = d
	}

	updated, err := cat.SetPreviewStart(t.ID, w)
	if err != nil {
		return err
	}
	if err := cat.Save(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if JSONOutput() {
		return printJSON(out, updated)
	}
	fmt.Fprintf(out, "Preview of %s now starts at %s\n", updated.Title, preview.FormatClock(updated.PreviewStart))
	return nil
}

func runCatalogRemove(cmd *cobra.Command, args []string) error {
	cat, err := openCatalog()
	if err != nil {
		return err
	}
	t, err := cat.Remove(args[0])
	if err != nil {
		return err
	}
	if err := cat.Save(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if JSONOutput() {
		return printJSON(out, map[string]string{"status": "removed", "id": t.ID})
	}
	fmt.Fprintf(out, "Removed %s\n", t.Title)
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
