package track

import (
	"sort"

	"github.com/pspoerri/tra2kml/internal/coord"
)

// Track is an ordered, normalized record sequence with a selection set.
// Records are read-only after construction; the selection is mutated by the
// caller between load and export and is not safe for concurrent use.
type Track struct {
	Name    string
	System  *coord.System
	Records []Record

	selected map[int]struct{}
}

// Stats summarises a track's normalization outcome.
type Stats struct {
	Records     int `json:"records"`
	Resolved    int `json:"resolved"`
	Unresolved  int `json:"unresolved"`
	OutOfBounds int `json:"outOfBounds"`
}

func New(name string, sys *coord.System, records []Record) *Track {
	return &Track{Name: name, System: sys, Records: records, selected: make(map[int]struct{})}
}

func (t *Track) Len() int { return len(t.Records) }

func (t *Track) checkIndices(indices []int) error {
	for _, i := range indices {
		if i < 0 || i >= len(t.Records) {
			return &IndexError{Index: i, Len: len(t.Records)}
		}
	}
	return nil
}

// Select adds indices to the selection. Nothing changes if any index is invalid.
func (t *Track) Select(indices ...int) error {
	if err := t.checkIndices(indices); err != nil {
		return err
	}
	if t.selected == nil {
		t.selected = make(map[int]struct{}, len(indices))
	}
	for _, i := range indices {
		t.selected[i] = struct{}{}
	}
	return nil
}

// Deselect removes indices from the selection. Nothing changes if any index is invalid.
func (t *Track) Deselect(indices ...int) error {
	if err := t.checkIndices(indices); err != nil {
		return err
	}
	for _, i := range indices {
		delete(t.selected, i)
	}
	return nil
}

func (t *Track) SelectAll() {
	t.selected = make(map[int]struct{}, len(t.Records))
	for i := range t.Records {
		t.selected[i] = struct{}{}
	}
}

func (t *Track) ClearSelection() {
	t.selected = make(map[int]struct{})
}

func (t *Track) IsSelected(i int) bool {
	_, ok := t.selected[i]
	return ok
}

// Selection returns the selected indices in ascending order.
func (t *Track) Selection() []int {
	out := make([]int, 0, len(t.selected))
	for i := range t.selected {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Points returns the positions of all resolved records in track order.
func (t *Track) Points() []coord.GeographicPoint {
	out := make([]coord.GeographicPoint, 0, len(t.Records))
	for i := range t.Records {
		if g := t.Records[i].Geo; g != nil {
			out = append(out, *g)
		}
	}
	return out
}

// SelectedPoints returns the resolved positions of the given indices in
// track order, whatever order the indices come in. Duplicates count once.
func (t *Track) SelectedPoints(indices []int) ([]coord.GeographicPoint, error) {
	if err := t.checkIndices(indices); err != nil {
		return nil, err
	}
	want := make([]bool, len(t.Records))
	for _, i := range indices {
		want[i] = true
	}
	out := make([]coord.GeographicPoint, 0, len(indices))
	for i, ok := range want {
		if ok && t.Records[i].Geo != nil {
			out = append(out, *t.Records[i].Geo)
		}
	}
	return out, nil
}

func (t *Track) Stats() Stats {
	s := Stats{Records: len(t.Records)}
	for i := range t.Records {
		r := &t.Records[i]
		if r.Geo == nil {
			s.Unresolved++
			continue
		}
		s.Resolved++
		if r.OutOfBounds {
			s.OutOfBounds++
		}
	}
	return s
}

// Bounds returns the envelope of the resolved points.
func (t *Track) Bounds() (coord.Envelope, bool) {
	return coord.BoundsOf(t.Points())
}
