package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/kpimarks/internal/annotation"
	"github.com/fakeyudi/kpimarks/internal/chart"
)

var (
	annName  string
	annDate  string
	annEnd   string
	annOwner string
	annDesc  string
	annColor string
)

var validate = validator.New()

func checkColor(color string) error {
	if err := validate.Var(color, "omitempty,hexcolor"); err != nil {
		return fmt.Errorf("--color %q is not a hex color", color)
	}
	return nil
}

// checkName rejects the names Controller.Save would reject.
func checkName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("--name must not be empty: %w", annotation.ErrInvalidOperation)
	}
	return nil
}

func sortedAnnotations(store *annotation.Store) []annotation.Annotation {
	list := store.List()
	sort.SliceStable(list, func(i, j int) bool {
		if c := list[i].StartDate.Compare(list[j].StartDate); c != 0 {
			return c < 0
		}
		return list[i].ID < list[j].ID
	})
	return list
}

func annotationLine(a annotation.Annotation) string {
	dates := a.StartDate.String()
	if a.IsSpan() {
		dates += " → " + a.EndDate.String()
	}
	line := fmt.Sprintf("%s  %s  %s", a.ID, dates, a.Name)
	if a.Owner != "" {
		line += "  (" + a.Owner + ")"
	}
	if a.Provenance == annotation.PinnedSuggestion {
		line += "  [pinned " + a.SourceEventID + "]"
	}
	return line
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a point or span annotation to the chart",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkName(annName); err != nil {
			return err
		}
		if err := checkColor(annColor); err != nil {
			return err
		}
		w, err := openWorkspace(chartLayout(), GetConfig().ChartWidth)
		if err != nil {
			return err
		}
		start, err := parseSnapped(w, annDate)
		if err != nil {
			return err
		}
		end := start
		if annEnd != "" {
			if end, err = parseSnapped(w, annEnd); err != nil {
				return err
			}
		}

		owner := annOwner
		if owner == "" {
			owner = author()
		}
		color := annColor
		if color == "" {
			color = GetConfig().DefaultColor
		}
		a := annotation.Annotation{
			ID:          uuid.New().String(),
			Name:        annName,
			Color:       color,
			Owner:       owner,
			Description: annDesc,
			StartDate:   start,
			EndDate:     end,
			Provenance:  annotation.Manual,
		}
		if err := w.board.Store.Add(a); err != nil {
			return err
		}
		if err := w.save(); err != nil {
			return err
		}
		cmd.Println("Added " + annotationLine(a))
		return nil
	},
}

func parseSnapped(w *workspace, s string) (chart.Date, error) {
	d, err := chart.ParseDate(s)
	if err != nil {
		return chart.Date{}, err
	}
	return w.snapDate(d)
}

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change an annotation's name, owner, description, color or dates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if flags.Changed("name") {
			if err := checkName(annName); err != nil {
				return err
			}
		}
		if err := checkColor(annColor); err != nil {
			return err
		}
		w, err := openWorkspace(chartLayout(), GetConfig().ChartWidth)
		if err != nil {
			return err
		}

		var patch annotation.Patch
		if flags.Changed("name") {
			patch.Name = &annName
		}
		if flags.Changed("owner") {
			patch.Owner = &annOwner
		}
		if flags.Changed("desc") {
			patch.Description = &annDesc
		}
		if flags.Changed("color") {
			patch.Color = &annColor
		}
		if flags.Changed("date") {
			d, err := parseSnapped(w, annDate)
			if err != nil {
				return err
			}
			patch.StartDate = &d
		}
		if flags.Changed("end") {
			d, err := parseSnapped(w, annEnd)
			if err != nil {
				return err
			}
			patch.EndDate = &d
		}

		a, err := w.board.Store.Update(args[0], patch)
		if err != nil {
			return err
		}
		if err := w.save(); err != nil {
			return err
		}
		cmd.Println("Updated " + annotationLine(a))
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"remove"},
	Short:   "Remove an annotation",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := openWorkspace(chartLayout(), GetConfig().ChartWidth)
		if err != nil {
			return err
		}
		a, ok := w.board.Store.Get(args[0])
		if !ok {
			return fmt.Errorf("annotation %q: %w", args[0], annotation.ErrNotFound)
		}
		w.board.Store.Remove(a.ID)
		if err := w.save(); err != nil {
			return err
		}
		cmd.Printf("Removed %s (%s).\n", a.Name, a.ID)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{addCmd, editCmd} {
		c.Flags().StringVar(&annName, "name", "", "annotation name")
		c.Flags().StringVar(&annDate, "date", "", "start date (YYYY-MM-DD), snapped to the nearest sample")
		c.Flags().StringVar(&annEnd, "end", "", "end date for a span (YYYY-MM-DD)")
		c.Flags().StringVar(&annOwner, "owner", "", "owner (defaults to the profile name)")
		c.Flags().StringVar(&annDesc, "desc", "", "description")
		c.Flags().StringVar(&annColor, "color", "", "marker color, e.g. #ff9500")
	}
	_ = addCmd.MarkFlagRequired("name")
	_ = addCmd.MarkFlagRequired("date")
	rootCmd.AddCommand(addCmd, editCmd, rmCmd)
}
