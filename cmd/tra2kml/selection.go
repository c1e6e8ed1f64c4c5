package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pspoerri/tra2kml/internal/track"
)

// applySelection parses expr against t, replaces the track's selection with
// the result and returns it in track order.
func applySelection(t *track.Track, expr string) ([]int, error) {
	indices, err := parseSelection(expr, t.Len())
	if err != nil {
		return nil, err
	}
	t.ClearSelection()
	if err := t.Select(indices...); err != nil {
		return nil, err
	}
	return t.Selection(), nil
}

// parseSelection parses a comma-separated list of indices and inclusive
// ranges ("0-10,15") against a track of n records. "all" selects every
// record. Duplicates are kept once, order follows first mention.
func parseSelection(expr string, n int) ([]int, error) {
	expr = strings.TrimSpace(expr)
	if strings.EqualFold(expr, "all") {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out, nil
	}

	seen := make(map[int]bool)
	var out []int
	add := func(i int) error {
		if i < 0 || i >= n {
			return fmt.Errorf("index %d out of range [0, %d)", i, n)
		}
		if !seen[i] {
			seen[i] = true
			out = append(out, i)
		}
		return nil
	}

	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		a, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("invalid selection %q: %w", part, err)
		}
		b := a
		if isRange {
			if b, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil {
				return nil, fmt.Errorf("invalid selection %q: %w", part, err)
			}
			if b < a {
				return nil, fmt.Errorf("invalid selection %q: range end before start", part)
			}
		}
		for i := a; i <= b; i++ {
			if err := add(i); err != nil {
				return nil, err
			}
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("selection %q selects no records", expr)
	}
	return out, nil
}
