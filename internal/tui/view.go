package tui

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/kpimarks/internal/annotation"
	"github.com/fakeyudi/kpimarks/internal/chart"
	"github.com/fakeyudi/kpimarks/internal/interact"
	"github.com/fakeyudi/kpimarks/internal/suggest"
)

const defaultMarkerColor = "#6e6e73"

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	title := m.opts.Title
	if title == "" {
		title = "KPI chart"
	}
	bar := titleStyle.Width(m.width).Render("  kpimarks  " + title)

	rows := []string{bar}
	rows = append(rows, m.renderChart()...)
	rows = append(rows,
		m.renderMarkers(),
		m.renderSuggestionRow(),
		m.renderPointer(),
		m.renderAxis(),
		m.panel.View(),
		m.renderStatus(),
	)
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// ── Cell rows ─────────────────────────────────────────────────────────────────

// cells is one terminal row addressed by column. An entry may hold a styled
// string; entries emptied by a wider neighbour render as nothing.
type cells []string

func newCells(width int) cells {
	c := make(cells, width)
	for i := range c {
		c[i] = " "
	}
	return c
}

func (c cells) set(col int, s string) {
	if col >= 0 && col < len(c) {
		c[col] = s
	}
}

// text writes s starting at col. It is dropped if it does not fit.
func (c cells) text(col int, s string, style lipgloss.Style) {
	n := len([]rune(s))
	if col < 0 || col+n > len(c) {
		return
	}
	c[col] = style.Render(s)
	for i := 1; i < n; i++ {
		c[col+i] = ""
	}
}

func (c cells) String() string { return strings.Join(c, "") }

func (m Model) col(x float64) int { return int(math.Round(x)) }

func (m Model) colForIndex(i int) int { return m.col(m.board.Mapper.PixelForIndex(i)) }

// ── Chart ─────────────────────────────────────────────────────────────────────

func (m Model) renderChart() []string {
	grid := make([]cells, chartRows)
	for i := range grid {
		grid[i] = newCells(m.width)
	}
	points := m.board.Mapper.Points()

	lo, hi, ok := valueBounds(points)
	if !ok {
		grid[chartRows/2].text(m.col(m.board.Mapper.Left()), "No data", dimStyle)
	} else {
		style := seriesStyle
		if m.board.Mode() == suggest.LastYearOnly {
			style = lastYearStyle
		}
		for i, p := range points {
			if p.Value == nil {
				continue
			}
			row := chartRows - 1
			if hi > lo {
				row -= int(math.Round((*p.Value - lo) / (hi - lo) * float64(chartRows-1)))
			} else {
				row = chartRows / 2
			}
			grid[row].set(m.colForIndex(i), style.Render("•"))
		}
		axisLabel(grid[0], compact(hi))
		axisLabel(grid[chartRows-1], compact(lo))
	}

	out := make([]string, chartRows)
	for i, r := range grid {
		out[i] = r.String()
	}
	return out
}

// axisLabel right-aligns s in the gutter left of the plot.
func axisLabel(c cells, s string) {
	const w = 8
	if len(s) > w-1 {
		s = s[:w-1]
	}
	s = fmt.Sprintf("%*s ", w-1, s)
	if len(c) < w {
		return
	}
	c[0] = dimStyle.Render(s)
	for i := 1; i < w; i++ {
		c[i] = ""
	}
}

func valueBounds(points []chart.Point) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, p := range points {
		if p.Value == nil {
			continue
		}
		lo = math.Min(lo, *p.Value)
		hi = math.Max(hi, *p.Value)
		ok = true
	}
	return lo, hi, ok
}

func compact(v float64) string {
	switch a := math.Abs(v); {
	case a >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case a >= 1e3:
		return fmt.Sprintf("%.1fK", v/1e3)
	}
	return fmt.Sprintf("%.0f", v)
}

// ── Markers ───────────────────────────────────────────────────────────────────

func (m Model) renderMarkers() string {
	row := newCells(m.width)
	mp := m.board.Mapper
	if mp.Len() == 0 {
		return row.String()
	}
	editing, isEditing := m.board.Controller.Session()

	for _, a := range m.sortedAnnotations() {
		if isEditing && a.ID == editing.TargetID {
			continue
		}
		style := colorStyle(a.Color, defaultMarkerColor)
		m.drawRange(row, mp.IndexForDate(a.StartDate), mp.IndexForDate(a.EndDate), "▲", "━", style)
	}

	if isEditing {
		m.drawRange(row, editing.DraftStartIndex, editing.DraftEndIndex, "▲", "═", pointerStyle)
	}
	if _, idx, ok := m.board.Controller.Preview(); ok {
		row.set(m.colForIndex(idx), pointerStyle.Render("▼"))
	}
	return row.String()
}

func (m Model) drawRange(row cells, start, end int, point, span string, style lipgloss.Style) {
	from, to := m.colForIndex(start), m.colForIndex(end)
	for c := from + 1; c <= to; c++ {
		row.set(c, style.Render(span))
	}
	row.set(from, style.Render(point))
}

func (m Model) sortedAnnotations() []annotation.Annotation {
	list := m.board.Store.List()
	sort.SliceStable(list, func(i, j int) bool { return list[i].StartDate.Before(list[j].StartDate) })
	return list
}

func (m Model) renderSuggestionRow() string {
	row := newCells(m.width)
	mp := m.board.Mapper
	for _, ev := range m.sortedSuggestions() {
		style := suggestionStyle
		glyph := "◇"
		if ev.Tier {
			style, glyph = tierStyle, "◆"
		}
		m.drawRange(row, mp.IndexForDate(ev.AdjustedStart), mp.IndexForDate(ev.AdjustedEnd), glyph, "─", style)
	}
	return row.String()
}

// sortedSuggestions orders the visible suggestions by shifted start date so
// the panel cursor is stable across renders.
func (m Model) sortedSuggestions() []suggest.VisibleEvent {
	visible := m.board.Suggestions()
	sort.SliceStable(visible, func(i, j int) bool {
		if c := visible[i].AdjustedStart.Compare(visible[j].AdjustedStart); c != 0 {
			return c < 0
		}
		return visible[i].ID < visible[j].ID
	})
	return visible
}

func (m Model) renderPointer() string {
	row := newCells(m.width)
	if m.board.Mapper.Len() == 0 {
		return row.String()
	}
	idx := m.pointerIndex()
	col := m.colForIndex(idx)
	row.set(col, pointerStyle.Render("^"))
	if d, ok := m.board.Mapper.DateForIndex(idx); ok {
		label := " " + d.String()
		if col+1+len(label) > m.width {
			row.text(col-len(label), label, dateStyle)
		} else {
			row.text(col+1, label, dateStyle)
		}
	}
	return row.String()
}

func (m Model) renderAxis() string {
	row := newCells(m.width)
	start, end, ok := m.board.Mapper.DateRange()
	if !ok {
		return row.String()
	}
	row.text(m.colForIndex(0), start.String(), dimStyle)
	last := end.String()
	if col := m.colForIndex(m.board.Mapper.Len()-1) - len(last) + 1; col > m.colForIndex(0)+len(last) {
		row.text(col, last, dimStyle)
	}
	return row.String()
}

// ── Panel ─────────────────────────────────────────────────────────────────────

func (m *Model) refreshPanel() {
	if !m.ready {
		return
	}
	if m.board.Controller.State() == interact.Editing {
		m.panel.SetContent(m.renderEditor())
		m.panel.GotoTop()
		return
	}
	m.panel.SetContent(m.renderLists())
}

func heading(s string) string {
	return sectionHeader.Render("  "+s) + "\n"
}

func (m Model) renderLists() string {
	var sb strings.Builder
	sb.WriteString(heading("Annotations"))
	list := m.sortedAnnotations()
	if len(list) == 0 {
		sb.WriteString(dimStyle.Render("  none yet, press a to place one") + "\n")
	}
	for _, a := range list {
		glyph := "▲"
		dates := a.StartDate.String()
		if a.IsSpan() {
			glyph = "━"
			dates += " → " + a.EndDate.String()
		}
		line := "  " + colorStyle(a.Color, defaultMarkerColor).Render(glyph) + "  " +
			dateStyle.Render(dates) + "  " + a.Name
		if a.Owner != "" {
			line += dimStyle.Render("  (" + a.Owner + ")")
		}
		if a.Provenance == annotation.PinnedSuggestion {
			line += dimStyle.Render("  pinned")
		}
		sb.WriteString(line + "\n")
	}

	sb.WriteString("\n" + heading(fmt.Sprintf("Suggested events (%s)", m.board.Mode())))
	visible := m.sortedSuggestions()
	if len(visible) == 0 {
		sb.WriteString(dimStyle.Render("  none in range") + "\n")
	}
	for i, ev := range visible {
		dates := ev.AdjustedStart.String()
		if !ev.AdjustedEnd.Equal(ev.AdjustedStart) {
			dates += " → " + ev.AdjustedEnd.String()
		}
		line := fmt.Sprintf("  %s  %s  %s", ev.YearLabel, dates, ev.Label)
		if ev.Tier {
			line += "  ★"
		}
		if m.focus == focusSuggestions && i == m.suggestion {
			line = selectedRowStyle.Render(line)
		}
		sb.WriteString(line + "\n")
	}
	if n := len(m.board.Dismissed.Set()); n > 0 {
		sb.WriteString("\n" + dimStyle.Render(fmt.Sprintf("  %d dismissed, R to restore", n)) + "\n")
	}
	return sb.String()
}

func (m Model) renderEditor() string {
	s, ok := m.board.Controller.Session()
	if !ok {
		return ""
	}
	labels := [fieldCount]string{"Name", "Owner", "Description"}
	var sb strings.Builder
	for i, f := range m.fields {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("%-12s", labels[i])) + " " + f.View() + "\n")
	}
	start, _ := m.board.Mapper.DateForIndex(s.DraftStartIndex)
	dates := start.String()
	if !s.IsPoint() {
		end, _ := m.board.Mapper.DateForIndex(s.DraftEndIndex)
		dates += " → " + end.String()
	}
	sb.WriteString(labelStyle.Render(fmt.Sprintf("%-12s", "Dates")) + " " + dateStyle.Render(dates))
	return editorBoxStyle.Render(sb.String())
}

func (m Model) renderStatus() string {
	var hint string
	switch m.board.Controller.State() {
	case interact.Dragging:
		hint = "←/→ move  enter drop  esc cancel"
	case interact.Editing:
		hint = "tab field  shift+←/→ start  ctrl+←/→ end  ctrl+s span  ctrl+p point  ctrl+d delete  enter save  esc cancel"
	default:
		hint = "←/→ pointer  a add  e edit  tab suggestions  p pin  x dismiss  m mode  q quit"
		if m.opts.ReadOnly {
			hint = "←/→ pointer  m mode  ↑/↓ scroll  q quit"
		}
	}
	text := hint
	if m.status != "" {
		if m.statusErr {
			text = errorStyle.Render(m.status)
		} else {
			text = m.status
		}
	}
	mode := string(m.board.Mode())
	pad := max(1, m.width-lipgloss.Width(text)-len(mode)-2)
	return statusBarStyle.Width(m.width).Render(text + strings.Repeat(" ", pad) + mode)
}
