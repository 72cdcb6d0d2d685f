package cmd

import (
	"time"

	"github.com/spf13/cobra"
)

var stopFormat string

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "End the annotation session and write the final export",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := exportFormat(stopFormat)
		if err != nil {
			return err
		}
		w, err := openWorkspace(chartLayout(), GetConfig().ChartWidth)
		if err != nil {
			return err
		}

		now := time.Now()
		w.sess.StopTime = &now
		path, err := w.writeExport(format, "", now)
		if err != nil {
			return err
		}

		// Deleting the session also ends the dismissal scope.
		if err := w.store.Delete(); err != nil {
			return err
		}
		cmd.Printf("Session stopped. Output: %s\n", path)
		return nil
	},
}

func init() {
	stopCmd.Flags().StringVar(&stopFormat, "format", "", "output format: markdown, json or svg (overrides config)")
	rootCmd.AddCommand(stopCmd)
}
