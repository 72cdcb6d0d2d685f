package cmd

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/kpimarks/internal/session"
	"github.com/fakeyudi/kpimarks/internal/suggest"
)

var (
	suggestMode  string
	dismissReset bool
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	tierMark    = lipgloss.NewStyle().Bold(true).Render("★")
)

func sortedSuggestions(visible []suggest.VisibleEvent) []suggest.VisibleEvent {
	sort.SliceStable(visible, func(i, j int) bool {
		if c := visible[i].AdjustedStart.Compare(visible[j].AdjustedStart); c != 0 {
			return c < 0
		}
		return visible[i].ID < visible[j].ID
	})
	return visible
}

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "List the suggested events visible on the chart",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := openWorkspace(chartLayout(), GetConfig().ChartWidth)
		if err != nil {
			return err
		}
		if suggestMode != "" {
			mode, err := suggest.ParseDisplayMode(suggestMode)
			if err != nil {
				return err
			}
			w.board.SetMode(mode)
			if err := w.save(); err != nil {
				return err
			}
		}

		visible := sortedSuggestions(w.board.Suggestions())
		cmd.Println(headerStyle.Render(fmt.Sprintf("Suggested events (%s)", w.board.Mode())))
		if len(visible) == 0 {
			cmd.Println("  (none)")
		}
		for _, ev := range visible {
			dates := ev.AdjustedStart.String()
			if !ev.AdjustedEnd.Equal(ev.AdjustedStart) {
				dates += " → " + ev.AdjustedEnd.String()
			}
			line := fmt.Sprintf("  %s  %s  %s  %s", ev.ID, ev.YearLabel, dates, ev.Label)
			if ev.Tier {
				line += "  " + tierMark
			}
			cmd.Println(line)
		}
		if n := w.board.Dismissed.Len(); n > 0 {
			cmd.Printf("%d dismissed (kpimarks dismiss --reset to restore)\n", n)
		}
		return nil
	},
}

var pinCmd = &cobra.Command{
	Use:   "pin <event-id>",
	Short: "Pin a suggested event as an annotation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := openWorkspace(chartLayout(), GetConfig().ChartWidth)
		if err != nil {
			return err
		}
		a, err := w.board.Pin(args[0])
		if err != nil {
			return err
		}
		if err := w.save(); err != nil {
			return err
		}
		cmd.Println("Pinned " + annotationLine(a))
		return nil
	},
}

var dismissCmd = &cobra.Command{
	Use:   "dismiss [event-id...]",
	Short: "Hide suggested events for the rest of the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !dismissReset && len(args) == 0 {
			return fmt.Errorf("give at least one event id, or --reset")
		}
		if len(args) == 0 {
			// A bare reset only touches the saved ids, so the inputs are not loaded.
			store, err := session.NewSessionStore()
			if err != nil {
				return err
			}
			if _, err := session.Update(store, func(s *session.Session) error {
				s.Dismissed = nil
				return nil
			}); err != nil {
				return err
			}
			cmd.Println("All dismissed events restored.")
			return nil
		}
		w, err := openWorkspace(chartLayout(), GetConfig().ChartWidth)
		if err != nil {
			return err
		}
		if dismissReset {
			w.board.ResetDismissals()
			cmd.Println("All dismissed events restored.")
		}
		for _, id := range args {
			if !w.board.Dismiss(id) {
				cmd.PrintErrf("warning: %s was already dismissed\n", id)
				continue
			}
			cmd.Printf("Dismissed %s.\n", id)
		}
		return w.save()
	},
}

func init() {
	suggestCmd.Flags().StringVar(&suggestMode, "mode", "", "switch the display mode first (bothYears, thisYearOnly, lastYearOnly)")
	dismissCmd.Flags().BoolVar(&dismissReset, "reset", false, "restore every dismissed event")
	rootCmd.AddCommand(suggestCmd, pinCmd, dismissCmd)
}
