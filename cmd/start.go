package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/kpimarks/internal/annotation"
	"github.com/fakeyudi/kpimarks/internal/feed"
	"github.com/fakeyudi/kpimarks/internal/session"
	"github.com/fakeyudi/kpimarks/internal/suggest"
)

var (
	startSeries string
	startEvents string
	startMode   string
	startTitle  string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Begin an annotation session on a KPI series",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := session.NewSessionStore()
		if err != nil {
			return err
		}

		s, err := store.Load()
		if err != nil && !errors.Is(err, session.ErrNoSession) {
			return err
		}
		if s != nil {
			return fmt.Errorf("session already in progress (started at %s)", s.StartTime.Format(time.RFC3339))
		}

		mode := startMode
		if mode == "" {
			mode = GetConfig().DisplayMode
		}
		displayMode, err := suggest.ParseDisplayMode(mode)
		if err != nil {
			return err
		}

		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		seriesPath, err := filepath.Abs(startSeries)
		if err != nil {
			return err
		}
		// Fail now rather than on the first command that needs the data.
		points, err := feed.LoadSeries(seriesPath)
		if err != nil {
			return err
		}
		var eventsPath string
		if startEvents != "" {
			if eventsPath, err = filepath.Abs(startEvents); err != nil {
				return err
			}
			if _, err := feed.LoadEvents(eventsPath); err != nil {
				return err
			}
		}

		newSession := &session.Session{
			ID:          uuid.New().String(),
			StartTime:   time.Now(),
			WorkDir:     cwd,
			Title:       startTitle,
			SeriesPath:  seriesPath,
			EventsPath:  eventsPath,
			Mode:        displayMode,
			Annotations: []annotation.Annotation{},
		}
		if err := store.Save(newSession); err != nil {
			return err
		}

		cmd.Printf("Session started on %s (%d samples).\n", filepath.Base(seriesPath), len(points))
		return nil
	},
}

func init() {
	startCmd.Flags().StringVar(&startSeries, "series", "", "KPI series file (.csv or .json)")
	startCmd.Flags().StringVar(&startEvents, "events", "", "suggested events file (.json, .yaml or .yml)")
	startCmd.Flags().StringVar(&startMode, "mode", "", "display mode: bothYears, thisYearOnly or lastYearOnly (ty/ly/both)")
	startCmd.Flags().StringVar(&startTitle, "title", "", "chart title used in exports")
	_ = startCmd.MarkFlagRequired("series")
	rootCmd.AddCommand(startCmd)
}
