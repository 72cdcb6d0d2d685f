package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fakeyudi/kpimarks/internal/annotation"
	"github.com/fakeyudi/kpimarks/internal/export"
	"github.com/fakeyudi/kpimarks/internal/feed"
	"github.com/fakeyudi/kpimarks/internal/interact"
	"github.com/fakeyudi/kpimarks/internal/suggest"
	"github.com/fakeyudi/kpimarks/internal/timeline"
	"github.com/fakeyudi/kpimarks/internal/tui"
)

var plainOutput bool

var viewCmd = &cobra.Command{
	Use:   "view [file]",
	Short: "Open the interactive chart for the session, or view an exported file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			return viewFile(cmd, args[0])
		}
		return viewSession(cmd)
	},
}

// viewSession runs the editable TUI over the active session. Every change is
// saved as it happens, and edits to the events file are picked up live.
func viewSession(cmd *cobra.Command) error {
	w, err := openWorkspace(tui.Layout(), 0)
	if err != nil {
		return err
	}
	if plainOutput {
		printBundle(cmd.OutOrStdout(), export.New(w.sess, w.board, author(), w.sess.StartTime))
		return nil
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var reloads chan tui.EventsReloadedMsg
	if path := w.sess.EventsPath; path != "" {
		reloads = make(chan tui.EventsReloadedMsg)
		go func() {
			defer close(reloads)
			err := feed.WatchEvents(ctx, path, appLog, func(events []suggest.Event, err error) {
				select {
				case reloads <- tui.EventsReloadedMsg{Events: events, Err: err}:
				case <-ctx.Done():
				}
			})
			if err != nil {
				appLog.Warn("events watcher stopped", zap.String("path", path), zap.Error(err))
			}
		}()
	}

	return tui.Run(w.board, tui.Options{
		Title: w.sess.Title,
		Template: interact.Template{
			Name:  "New annotation",
			Color: GetConfig().DefaultColor,
			Owner: author(),
		},
		Persist: func(*timeline.Board) error { return w.save() },
		Logger:  appLog,
	}, reloads)
}

// viewFile opens an exported Markdown, SVG or JSON file read-only.
func viewFile(cmd *cobra.Command, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", path)
		}
		return err
	}
	b, err := export.ParserFor(path).Parse(data)
	if err != nil {
		return err
	}
	if plainOutput {
		printBundle(cmd.OutOrStdout(), b)
		return nil
	}

	board, err := bundleBoard(b)
	if err != nil {
		return err
	}
	return tui.Run(board, tui.Options{Title: b.Title(), ReadOnly: true, Logger: appLog}, nil)
}

// bundleBoard rebuilds a board from an export. The suggestions that were
// visible at export time become the raw event list.
func bundleBoard(b *export.Bundle) (*timeline.Board, error) {
	store, err := annotation.NewStore(b.Annotations...)
	if err != nil {
		return nil, fmt.Errorf("export annotations: %w", err)
	}
	events := make([]suggest.Event, len(b.Suggestions))
	for i, ev := range b.Suggestions {
		events[i] = ev.Event
	}
	return timeline.NewBoard(b.Series, events, store, suggest.NewDismissalSet(b.Dismissed...), timeline.Options{
		Layout: tui.Layout(),
		Mode:   b.Chart.Mode,
		Logger: appLog,
	}), nil
}

// printBundle writes a plain-text summary.
func printBundle(out io.Writer, b *export.Bundle) {
	fmt.Fprintf(out, "## %s\n", b.Title())
	fmt.Fprintf(out, "  Series:    %s (%d samples)\n", b.Chart.SeriesPath, len(b.Series))
	if b.Chart.StartDate != nil && b.Chart.EndDate != nil {
		fmt.Fprintf(out, "  Range:     %s to %s\n", b.Chart.StartDate, b.Chart.EndDate)
	}
	if values, ok := b.ValuesLine(); ok {
		fmt.Fprintf(out, "  Values:    %s\n", values)
	}
	fmt.Fprintf(out, "  Mode:      %s\n", b.Chart.Mode)
	if b.Chart.Author != "" {
		fmt.Fprintf(out, "  Author:    %s\n", b.Chart.Author)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "## Annotations")
	if len(b.Annotations) == 0 {
		fmt.Fprintln(out, "  (none)")
	}
	store, err := annotation.NewStore(b.Annotations...)
	if err == nil {
		for _, a := range sortedAnnotations(store) {
			fmt.Fprintf(out, "  %s\n", annotationLine(a))
		}
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "## Suggested Events")
	if len(b.Suggestions) == 0 {
		fmt.Fprintln(out, "  (none)")
	}
	for _, ev := range sortedSuggestions(b.Suggestions) {
		fmt.Fprintf(out, "  %s  %s  %s  %s\n", ev.ID, ev.YearLabel, ev.AdjustedStart, ev.Label)
	}
	if len(b.Dismissed) > 0 {
		fmt.Fprintf(out, "\n  %d dismissed\n", len(b.Dismissed))
	}
}

func init() {
	viewCmd.Flags().BoolVar(&plainOutput, "plain", false, "plain text output instead of TUI")
	rootCmd.AddCommand(viewCmd)
}
