package suggest

// DismissalSet holds the suggested-event ids the user has dismissed in the
// current session. It only grows, except through Reset. The caller owns it
// and decides how long it lives.
type DismissalSet struct {
	ids IDSet
}

// NewDismissalSet returns a set seeded with ids.
func NewDismissalSet(ids ...string) *DismissalSet {
	d := &DismissalSet{ids: make(IDSet, len(ids))}
	for _, id := range ids {
		d.ids[id] = struct{}{}
	}
	return d
}

// Dismiss adds id. It reports whether id was newly added.
func (d *DismissalSet) Dismiss(id string) bool {
	if d.ids == nil {
		d.ids = make(IDSet)
	}
	if d.ids.Has(id) {
		return false
	}
	d.ids[id] = struct{}{}
	return true
}

// Has reports whether id has been dismissed.
func (d *DismissalSet) Has(id string) bool {
	return d != nil && d.ids.Has(id)
}

// Reset clears every dismissal.
func (d *DismissalSet) Reset() {
	d.ids = make(IDSet)
}

// Len returns the number of dismissed ids.
func (d *DismissalSet) Len() int {
	if d == nil {
		return 0
	}
	return len(d.ids)
}

// IDs returns the dismissed ids sorted, for persistence and display.
func (d *DismissalSet) IDs() []string {
	if d == nil {
		return nil
	}
	return d.ids.Sorted()
}

// Set returns the dismissals as an IDSet for VisibleEvents. The result must
// not be modified.
func (d *DismissalSet) Set() IDSet {
	if d == nil {
		return nil
	}
	return d.ids
}
