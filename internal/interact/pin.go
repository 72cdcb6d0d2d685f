package interact

import (
	"go.uber.org/zap"

	"github.com/fakeyudi/kpimarks/internal/annotation"
	"github.com/fakeyudi/kpimarks/internal/suggest"
)

// Pin promotes a visible suggestion into a persistent annotation covering
// the suggestion's shifted range. The reconciler stops offering the event as
// soon as the annotation is in the store; removing the annotation makes the
// event eligible again.
func (c *Controller) Pin(ev suggest.VisibleEvent) (annotation.Annotation, error) {
	a := annotation.Annotation{
		ID:            c.newID(),
		Name:          ev.Label,
		Color:         c.pinnedColor,
		StartDate:     ev.AdjustedStart,
		EndDate:       ev.AdjustedEnd,
		SourceEventID: ev.ID,
		Provenance:    annotation.PinnedSuggestion,
	}
	if err := c.store.Add(a); err != nil {
		return annotation.Annotation{}, err
	}
	c.log.Debug("suggestion pinned", zap.String("event", ev.ID), zap.String("id", a.ID))
	return a, nil
}
