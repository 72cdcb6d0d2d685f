package session

import (
	"time"

	"github.com/fakeyudi/kpimarks/internal/annotation"
	"github.com/fakeyudi/kpimarks/internal/suggest"
)

// Session is an active annotation session on one KPI chart. It holds the
// caller-owned state the engine works on: the annotation set and the ids
// dismissed since `kpimarks start`.
type Session struct {
	ID         string              `json:"id"`
	StartTime  time.Time           `json:"start_time"`
	StopTime   *time.Time          `json:"stop_time,omitempty"`
	WorkDir    string              `json:"work_dir"`
	Title      string              `json:"title,omitempty"`
	SeriesPath string              `json:"series_path"`
	EventsPath string              `json:"events_path,omitempty"`
	Mode       suggest.DisplayMode `json:"display_mode"`

	Annotations []annotation.Annotation `json:"annotations"`
	// Dismissed lists suggested-event ids hidden for the rest of the session.
	Dismissed []string `json:"dismissed,omitempty"`
}

// Store builds an annotation store from the saved annotations.
func (s *Session) Store() (*annotation.Store, error) {
	return annotation.NewStore(s.Annotations...)
}

// Dismissals builds the dismissal set from the saved ids.
func (s *Session) Dismissals() *suggest.DismissalSet {
	return suggest.NewDismissalSet(s.Dismissed...)
}

// Capture copies the live store and dismissal set back into s so the next
// Save persists them.
func (s *Session) Capture(store *annotation.Store, dismissed *suggest.DismissalSet) {
	s.Annotations = store.List()
	s.Dismissed = dismissed.IDs()
}
