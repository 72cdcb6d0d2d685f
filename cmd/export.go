package cmd

import (
	"time"

	"github.com/spf13/cobra"
)

var (
	exportFormatFlag string
	exportOutput     string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the annotated chart as Markdown, JSON or SVG",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := exportFormat(exportFormatFlag)
		if err != nil {
			return err
		}
		w, err := openWorkspace(chartLayout(), GetConfig().ChartWidth)
		if err != nil {
			return err
		}
		path, err := w.writeExport(format, exportOutput, time.Now())
		if err != nil {
			return err
		}
		cmd.Printf("Exported: %s\n", path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormatFlag, "format", "", "output format: markdown, json or svg (overrides config)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: timestamped file in the output directory)")
	rootCmd.AddCommand(exportCmd)
}
