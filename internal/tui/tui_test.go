package tui

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fakeyudi/kpimarks/internal/annotation"
	"github.com/fakeyudi/kpimarks/internal/chart"
	"github.com/fakeyudi/kpimarks/internal/interact"
	"github.com/fakeyudi/kpimarks/internal/suggest"
	"github.com/fakeyudi/kpimarks/internal/timeline"
)

// ── Helpers ───────────────────────────────────────────────────────────────────

func testBoard(events []suggest.Event) *timeline.Board {
	points := make([]chart.Point, 10)
	for i := range points {
		v := float64(100 + i*10)
		points[i] = chart.Point{Date: chart.NewDate(2025, 1, 1).AddDays(i), Value: &v}
	}
	next := 0
	return timeline.NewBoard(points, events, nil, nil, timeline.Options{
		Layout: Layout(),
		NewID: func() string {
			next++
			return fmt.Sprintf("ann-%d", next)
		},
	})
}

func promo() []suggest.Event {
	return []suggest.Event{{
		ID:        "e1",
		Label:     "Promo",
		StartDate: chart.NewDate(2025, 1, 5),
		EndDate:   chart.NewDate(2025, 1, 6),
	}}
}

func sized(t *testing.T, m Model) Model {
	t.Helper()
	return update(m, tea.WindowSizeMsg{Width: 100, Height: 40})
}

func update(m Model, msgs ...tea.Msg) Model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func key(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func only(t *testing.T, b *timeline.Board) annotation.Annotation {
	t.Helper()
	list := b.Store.List()
	if len(list) != 1 {
		t.Fatalf("store holds %d annotations, want 1", len(list))
	}
	return list[0]
}

// ── Placement ─────────────────────────────────────────────────────────────────

func TestKeyboardPlaceEditAndSave(t *testing.T) {
	b := testBoard(nil)
	m := sized(t, New(b, Options{}))

	m = update(m, key(tea.KeyRight), key(tea.KeyRight), key(tea.KeyRight), runes("a"))
	if got := b.Controller.State(); got != interact.Dragging {
		t.Fatalf("state = %s, want dragging", got)
	}
	m = update(m, key(tea.KeyEnter))
	a := only(t, b)
	if want := chart.NewDate(2025, 1, 4); !a.StartDate.Equal(want) {
		t.Errorf("dropped on %s, want %s", a.StartDate, want)
	}
	if a.Provenance != annotation.Manual {
		t.Errorf("provenance = %q", a.Provenance)
	}
	if got := b.Controller.State(); got != interact.Editing {
		t.Fatalf("state after drop = %s, want editing", got)
	}

	m = update(m, runes("X"), key(tea.KeyCtrlS), key(tea.KeyEnter))
	if got := b.Controller.State(); got != interact.Idle {
		t.Fatalf("state after save = %s, want idle", got)
	}
	a = only(t, b)
	if a.Name != "New annotationX" {
		t.Errorf("name = %q", a.Name)
	}
	if want := chart.NewDate(2025, 1, 7); !a.EndDate.Equal(want) {
		t.Errorf("span end = %s, want %s", a.EndDate, want)
	}
	if !strings.Contains(m.View(), "New annotationX") {
		t.Error("saved annotation missing from the panel")
	}
}

func TestEscapeCancelsDrag(t *testing.T) {
	b := testBoard(nil)
	m := sized(t, New(b, Options{}))
	update(m, runes("a"), key(tea.KeyRight), key(tea.KeyEsc))
	if b.Store.Len() != 0 {
		t.Errorf("cancelled drag stored %d annotations", b.Store.Len())
	}
	if got := b.Controller.State(); got != interact.Idle {
		t.Errorf("state = %s, want idle", got)
	}
}

func TestEditorAdjustsRange(t *testing.T) {
	b := testBoard(nil)
	m := sized(t, New(b, Options{}))
	m = update(m, key(tea.KeyRight), key(tea.KeyRight), runes("a"), key(tea.KeyEnter))

	m = update(m, key(tea.KeyCtrlRight), key(tea.KeyCtrlRight), key(tea.KeyShiftLeft))
	s, ok := b.Controller.Session()
	if !ok {
		t.Fatal("editor closed")
	}
	if s.DraftStartIndex != 1 || s.DraftEndIndex != 4 {
		t.Errorf("draft = [%d, %d], want [1, 4]", s.DraftStartIndex, s.DraftEndIndex)
	}

	m = update(m, key(tea.KeyCtrlP))
	if s, _ := b.Controller.Session(); !s.IsPoint() {
		t.Error("ctrl+p should collapse the draft to a point")
	}
	update(m, key(tea.KeyEsc))
	a := only(t, b)
	if want := chart.NewDate(2025, 1, 3); !a.StartDate.Equal(want) || !a.EndDate.Equal(want) {
		t.Errorf("cancelled edit changed the stored range to %s..%s", a.StartDate, a.EndDate)
	}
}

func TestSaveWithoutNameKeepsEditorOpen(t *testing.T) {
	b := testBoard(nil)
	m := sized(t, New(b, Options{}))
	m = update(m, runes("a"), key(tea.KeyEnter))
	b.Controller.SetName("  ")

	m = update(m, key(tea.KeyEnter))
	if got := b.Controller.State(); got != interact.Editing {
		t.Fatalf("state = %s, want editing", got)
	}
	if !m.statusErr || !strings.Contains(m.status, "name is required") {
		t.Errorf("status = %q (err=%v)", m.status, m.statusErr)
	}
}

func TestDeleteFromEditor(t *testing.T) {
	b := testBoard(nil)
	m := sized(t, New(b, Options{}))
	m = update(m, runes("a"), key(tea.KeyEnter), key(tea.KeyCtrlD))
	if b.Store.Len() != 0 {
		t.Errorf("store holds %d annotations after delete", b.Store.Len())
	}
	if got := b.Controller.State(); got != interact.Idle {
		t.Errorf("state = %s, want idle", got)
	}
}

// ── Mouse ─────────────────────────────────────────────────────────────────────

func TestMouseDragAndClickMarker(t *testing.T) {
	b := testBoard(nil)
	m := sized(t, New(b, Options{}))
	mp := b.Mapper
	x5, x2 := int(mp.PixelForIndex(5)), int(mp.PixelForIndex(2))

	m = update(m,
		tea.MouseMsg{X: x5, Y: chartTop + 2, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft},
		tea.MouseMsg{X: x2, Y: chartTop + 2, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft},
	)
	if _, idx, ok := b.Controller.Preview(); !ok || idx != 2 {
		t.Fatalf("preview = %d (ok=%v), want 2", idx, ok)
	}
	m = update(m, tea.MouseMsg{X: x2, Y: chartTop + 2, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	a := only(t, b)
	if want := chart.NewDate(2025, 1, 3); !a.StartDate.Equal(want) {
		t.Errorf("dropped on %s, want %s", a.StartDate, want)
	}
	m = update(m, key(tea.KeyEnter))

	update(m, tea.MouseMsg{X: x2, Y: markerRow, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	s, ok := b.Controller.Session()
	if !ok || s.TargetID != a.ID {
		t.Errorf("clicking the marker opened %+v (ok=%v)", s, ok)
	}
	if b.Store.Len() != 1 {
		t.Errorf("clicking a marker created an annotation")
	}
}

func TestClickOutsideEditorOnlyCloses(t *testing.T) {
	b := testBoard(nil)
	m := sized(t, New(b, Options{}))
	m = update(m, runes("a"), key(tea.KeyEnter))
	if got := b.Controller.State(); got != interact.Editing {
		t.Fatalf("state = %s, want editing", got)
	}
	placed := only(t, b)

	x7 := int(b.Mapper.PixelForIndex(7))
	m = update(m,
		tea.MouseMsg{X: x7, Y: chartTop + 2, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft},
		tea.MouseMsg{X: x7, Y: chartTop + 2, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft},
	)
	if got := b.Controller.State(); got != interact.Idle {
		t.Errorf("state = %s, want idle", got)
	}
	if b.Store.Len() != 1 {
		t.Fatalf("store holds %d annotations after closing the editor, want 1", b.Store.Len())
	}
	if a := only(t, b); a != placed {
		t.Errorf("closing the editor changed %+v to %+v", placed, a)
	}
	if m.status != "edit closed" {
		t.Errorf("status = %q", m.status)
	}
}

func TestMouseIgnoredOutsideChart(t *testing.T) {
	b := testBoard(nil)
	m := sized(t, New(b, Options{}))
	update(m, tea.MouseMsg{X: 20, Y: 30, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if got := b.Controller.State(); got != interact.Idle {
		t.Errorf("state = %s, want idle", got)
	}
}

// ── Suggestions ───────────────────────────────────────────────────────────────

func TestPinDismissAndReset(t *testing.T) {
	b := testBoard(promo())
	m := sized(t, New(b, Options{}))

	m = update(m, key(tea.KeyTab), runes("p"))
	a := only(t, b)
	if a.SourceEventID != "e1" || a.Provenance != annotation.PinnedSuggestion {
		t.Errorf("pinned = %+v", a)
	}
	if len(b.Suggestions()) != 0 {
		t.Error("pinned event is still suggested")
	}

	b.Store.Remove(a.ID)
	m = update(m, runes("x"))
	if !b.Dismissed.Has("e1") || len(b.Suggestions()) != 0 {
		t.Error("x should dismiss the selected suggestion")
	}
	update(m, runes("R"))
	if len(b.Suggestions()) != 1 {
		t.Error("R should restore dismissed suggestions")
	}
}

func TestModeCycle(t *testing.T) {
	b := testBoard(promo())
	m := sized(t, New(b, Options{}))
	update(m, runes("m"))
	if b.Mode() != suggest.BothYears.Next() {
		t.Errorf("mode = %s", b.Mode())
	}
}

func TestEventsReloaded(t *testing.T) {
	b := testBoard(nil)
	m := sized(t, New(b, Options{}))
	m = update(m, EventsReloadedMsg{Events: promo()})
	if len(b.Suggestions()) != 1 {
		t.Errorf("suggestions = %d, want 1", len(b.Suggestions()))
	}
	if !strings.Contains(m.View(), "Promo") {
		t.Error("reloaded event missing from the view")
	}

	m = update(m, EventsReloadedMsg{Err: errors.New("feed gone")})
	if !m.statusErr || len(b.Events()) != 1 {
		t.Errorf("a failed reload should keep the events and report: %q", m.status)
	}
}

// ── Host concerns ─────────────────────────────────────────────────────────────

func TestPersistCalledAfterChanges(t *testing.T) {
	b := testBoard(promo())
	calls := 0
	m := sized(t, New(b, Options{Persist: func(*timeline.Board) error {
		calls++
		return nil
	}}))
	m = update(m, runes("a"), key(tea.KeyEnter)) // drop
	m = update(m, key(tea.KeyEnter))             // save
	update(m, key(tea.KeyTab), runes("x"))       // dismiss
	if calls != 3 {
		t.Errorf("persist called %d times, want 3", calls)
	}
}

func TestPersistFailureReported(t *testing.T) {
	b := testBoard(nil)
	m := sized(t, New(b, Options{Persist: func(*timeline.Board) error {
		return errors.New("disk full")
	}}))
	m = update(m, runes("a"), key(tea.KeyEnter))
	if b.Store.Len() != 1 {
		t.Error("a failed save must not roll back the drop")
	}
	if !m.statusErr || !strings.Contains(m.status, "disk full") {
		t.Errorf("status = %q", m.status)
	}
}

func TestReadOnlyIgnoresEdits(t *testing.T) {
	b := testBoard(promo())
	m := sized(t, New(b, Options{ReadOnly: true}))
	update(m, runes("a"), key(tea.KeyTab), runes("p"), runes("x"))
	if b.Store.Len() != 0 || b.Dismissed.Len() != 0 {
		t.Error("read-only view changed the board")
	}
	if got := b.Controller.State(); got != interact.Idle {
		t.Errorf("state = %s, want idle", got)
	}
}

func TestResizeRecomputesMapper(t *testing.T) {
	b := testBoard(nil)
	m := sized(t, New(b, Options{}))
	m = update(m, key(tea.KeyEnd))
	update(m, tea.WindowSizeMsg{Width: 160, Height: 40})
	if b.Mapper.Width() != 160 {
		t.Errorf("mapper width = %v, want 160", b.Mapper.Width())
	}
	if got, want := b.Mapper.PixelForIndex(9), 160.0-Layout().MarginRight; got != want {
		t.Errorf("last sample at %v, want %v", got, want)
	}
}

func TestViewBeforeSize(t *testing.T) {
	m := New(testBoard(nil), Options{})
	if got := m.View(); got != "Loading…" {
		t.Errorf("View() = %q", got)
	}
}

func TestViewEmptySeries(t *testing.T) {
	b := timeline.NewBoard(nil, promo(), nil, nil, timeline.Options{Layout: Layout()})
	m := sized(t, New(b, Options{Title: "Sales"}))
	v := m.View()
	for _, want := range []string{"Sales", "No data", "none in range"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q", want)
		}
	}
	update(m, runes("a"), key(tea.KeyEnter))
	if b.Store.Len() != 0 {
		t.Error("dropping on an empty chart created an annotation")
	}
}
