package track

import (
	"errors"
	"fmt"
)

// ErrUnknownEntry is returned for an EntryID not present in the batch.
var ErrUnknownEntry = errors.New("unknown batch entry")

// EntryID identifies a batch entry. IDs are assigned in insertion order and
// never reused within a batch, even after Remove or Clear.
type EntryID int

// Entry is a named, colored track in a batch.
type Entry struct {
	ID    EntryID
	Name  string
	Color Color
	Track *Track
}

// Batch is an ordered set of entries for multi-track export.
type Batch struct {
	entries []Entry
	nextID  EntryID
}

func NewBatch() *Batch { return &Batch{nextID: 1} }

// Add appends t under its own name with color c. A nil track is not added
// and Add returns 0, which is never a valid EntryID.
func (b *Batch) Add(t *Track, c Color) EntryID {
	if t == nil {
		return 0
	}
	if b.nextID == 0 {
		b.nextID = 1
	}
	id := b.nextID
	b.nextID++
	b.entries = append(b.entries, Entry{ID: id, Name: t.Name, Color: c, Track: t})
	return id
}

// Ingest appends tracks in order, coloring each from cursor. Nil tracks are
// skipped and do not consume a color.
func (b *Batch) Ingest(tracks []*Track, cursor *PaletteCursor) []EntryID {
	ids := make([]EntryID, 0, len(tracks))
	for _, t := range tracks {
		if t == nil {
			continue
		}
		ids = append(ids, b.Add(t, cursor.Next()))
	}
	return ids
}

func (b *Batch) find(id EntryID) int {
	for i := range b.entries {
		if b.entries[i].ID == id {
			return i
		}
	}
	return -1
}

// Remove deletes an entry; the others keep their order and colors.
func (b *Batch) Remove(id EntryID) error {
	i := b.find(id)
	if i < 0 {
		return fmt.Errorf("removing entry %d: %w", id, ErrUnknownEntry)
	}
	b.entries = append(b.entries[:i], b.entries[i+1:]...)
	return nil
}

func (b *Batch) Recolor(id EntryID, c Color) error {
	i := b.find(id)
	if i < 0 {
		return fmt.Errorf("recoloring entry %d: %w", id, ErrUnknownEntry)
	}
	b.entries[i].Color = c
	return nil
}

func (b *Batch) Rename(id EntryID, name string) error {
	i := b.find(id)
	if i < 0 {
		return fmt.Errorf("renaming entry %d: %w", id, ErrUnknownEntry)
	}
	b.entries[i].Name = name
	return nil
}

func (b *Batch) Get(id EntryID) (Entry, bool) {
	if i := b.find(id); i >= 0 {
		return b.entries[i], true
	}
	return Entry{}, false
}

// Entries returns a copy of the entries in insertion order.
func (b *Batch) Entries() []Entry {
	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

func (b *Batch) Len() int { return len(b.entries) }

// Clear removes all entries. IDs keep counting up.
func (b *Batch) Clear() { b.entries = nil }
