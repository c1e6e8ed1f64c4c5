package track

import (
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/pspoerri/tra2kml/internal/coord"
)

// FailurePolicy decides what happens when a single point fails to transform.
type FailurePolicy int

const (
	// FailTrack aborts the whole track on the first failing record.
	FailTrack FailurePolicy = iota
	// KeepUnresolved keeps failing records with Geo == nil and Err set.
	// A track where every record fails is still rejected with ErrEmptyInput.
	KeepUnresolved
)

func (p FailurePolicy) String() string {
	switch p {
	case FailTrack:
		return "fail"
	case KeepUnresolved:
		return "keep"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParseFailurePolicy accepts "fail" or "keep".
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fail", "":
		return FailTrack, nil
	case "keep":
		return KeepUnresolved, nil
	}
	return FailTrack, fmt.Errorf("unknown failure policy %q (want fail or keep)", s)
}

// Progress receives one Increment per processed record.
type Progress interface {
	Increment()
}

// chunkSize is the number of records a worker takes per job.
const chunkSize = 256

// Normalizer transforms raw records to WGS84. The zero value uses one worker
// per CPU and the FailTrack policy.
type Normalizer struct {
	Concurrency int
	Policy      FailurePolicy
	Progress    Progress
}

type span struct {
	lo, hi int
}

// Normalize transforms every record of raw in sys. The output is
// index-aligned with raw regardless of how work was scheduled.
func (n Normalizer) Normalize(raw []RawRecord, sys *coord.System) ([]Record, error) {
	if len(raw) == 0 {
		key := "<nil>"
		if sys != nil {
			key = sys.Key
		}
		return nil, fmt.Errorf("normalizing in %s: %w", key, ErrEmptyInput)
	}
	if sys == nil {
		return nil, &coord.UnsupportedSystemError{}
	}

	out := make([]Record, len(raw))

	workers := n.Concurrency
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if chunks := (len(raw) + chunkSize - 1) / chunkSize; workers > chunks {
		workers = chunks
	}

	jobs := make(chan span, workers*2)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				for i := job.lo; i < job.hi; i++ {
					out[i] = normalizeOne(i, raw[i], sys)
					if n.Progress != nil {
						n.Progress.Increment()
					}
				}
			}
		}()
	}

	for lo := 0; lo < len(raw); lo += chunkSize {
		jobs <- span{lo: lo, hi: min(lo+chunkSize, len(raw))}
	}
	close(jobs)
	wg.Wait()

	if n.Policy == FailTrack {
		for i := range out {
			if out[i].Err != nil {
				return nil, fmt.Errorf("record %d: %w", i, out[i].Err)
			}
		}
	}
	if !anyResolved(out) {
		return nil, fmt.Errorf("normalizing in %s: %w", sys.Key, ErrEmptyInput)
	}
	return out, nil
}

func anyResolved(records []Record) bool {
	for i := range records {
		if records[i].Geo != nil {
			return true
		}
	}
	return false
}

func normalizeOne(i int, r RawRecord, sys *coord.System) Record {
	rec := Record{Index: i, Point: r.Point, Attributes: r.Attributes}
	g, err := coord.Transform(r.Point, sys)
	if err != nil {
		rec.Err = err
		return rec
	}
	rec.Geo = &g
	rec.OutOfBounds = !coord.IsPlausible(g)
	return rec
}

// NormalizeTrack resolves key in the catalog and builds a named track.
func (n Normalizer) NormalizeTrack(name string, raw []RawRecord, key string) (*Track, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("normalizing %q in %s: %w", name, key, ErrEmptyInput)
	}
	sys, err := coord.Lookup(key)
	if err != nil {
		return nil, err
	}
	records, err := n.Normalize(raw, sys)
	if err != nil {
		return nil, fmt.Errorf("normalizing %q: %w", name, err)
	}
	return New(name, sys, records), nil
}

// NormalizeTrack is Normalizer{}.NormalizeTrack.
func NormalizeTrack(name string, raw []RawRecord, key string) (*Track, error) {
	return Normalizer{}.NormalizeTrack(name, raw, key)
}
