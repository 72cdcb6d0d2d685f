package cmd

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/kpimarks/internal/session"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current annotation session and its annotations",
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := openWorkspace(chartLayout(), GetConfig().ChartWidth)
		if err != nil {
			if errors.Is(err, session.ErrNoSession) {
				cmd.Println("no active session")
				return nil
			}
			return err
		}
		s := w.sess

		cmd.Printf("Started: %s\n", s.StartTime.Format(time.RFC3339))
		cmd.Printf("Duration: %s\n", time.Since(s.StartTime).Round(time.Second).String())
		if s.Title != "" {
			cmd.Printf("Title: %s\n", s.Title)
		}
		cmd.Printf("Series: %s (%d samples)\n", s.SeriesPath, w.board.Mapper.Len())
		if s.EventsPath != "" {
			cmd.Printf("Events: %s\n", s.EventsPath)
		}
		cmd.Printf("Mode: %s\n", w.board.Mode())
		cmd.Printf("Annotations: %d\n", w.board.Store.Len())
		cmd.Printf("Suggestions: %d\n", len(w.board.Suggestions()))
		cmd.Printf("Dismissed: %d\n", w.board.Dismissed.Len())

		for _, a := range sortedAnnotations(w.board.Store) {
			cmd.Println("  " + annotationLine(a))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
