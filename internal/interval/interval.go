// Package interval turns a file's labeled line intervals into a per-line
// classification and keeps interval sets minimal.
package interval

import (
	"sort"

	"github.com/sprite-ai/auditor/internal/model"
)

// Classification maps each line of a file, by index, to its label.
type Classification []model.Label

// Count returns how many lines carry the given label.
func (c Classification) Count(label model.Label) int {
	n := 0
	for _, l := range c {
		if l == label {
			n++
		}
	}
	return n
}

// Equal reports whether two classifications are identical line for line.
func (c Classification) Equal(other Classification) bool {
	if len(c) != len(other) {
		return false
	}
	for i := range c {
		if c[i] != other[i] {
			return false
		}
	}
	return true
}

// Classify labels every line in [0, totalLines). The service does not promise
// disjoint intervals, so a line covered by several labels resolves in
// model.Labels order: Reviewed, then Modified, then Ignored. Uncovered lines
// are Unset, and parts of intervals outside the file are ignored.
func Classify(intervals []model.LabeledInterval, totalLines int) Classification {
	if totalLines <= 0 {
		return Classification{}
	}
	out := make(Classification, totalLines)

	// Paint lowest precedence first so higher labels overwrite it.
	for i := len(model.Labels) - 1; i >= 0; i-- {
		label := model.Labels[i]
		for _, iv := range intervals {
			if iv.Label != label {
				continue
			}
			start, end := iv.Range.Start, iv.Range.End
			if start < 0 {
				start = 0
			}
			if end >= totalLines {
				end = totalLines - 1
			}
			for line := start; line <= end; line++ {
				out[line] = label
			}
		}
	}
	return out
}

// Normalize merges overlapping or adjacent intervals that share a label and
// drops empty ones. The result is sorted by start line, then label.
// Normalize(Normalize(x)) equals Normalize(x).
func Normalize(intervals []model.LabeledInterval) []model.LabeledInterval {
	byLabel := make(map[model.Label][]model.LineRange)
	for _, iv := range intervals {
		if iv.Range.End < iv.Range.Start || iv.Label == model.LabelUnset {
			continue
		}
		byLabel[iv.Label] = append(byLabel[iv.Label], iv.Range)
	}

	var out []model.LabeledInterval
	for _, label := range model.Labels {
		for _, r := range mergeRanges(byLabel[label]) {
			out = append(out, model.LabeledInterval{Range: r, Label: label})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Range.Start != out[j].Range.Start {
			return out[i].Range.Start < out[j].Range.Start
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func mergeRanges(ranges []model.LineRange) []model.LineRange {
	if len(ranges) == 0 {
		return nil
	}
	sorted := append([]model.LineRange(nil), ranges...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	merged := []model.LineRange{sorted[0]}
	for _, r := range sorted[1:] {
		last := &merged[len(merged)-1]
		if r.Start <= last.End+1 {
			if r.End > last.End {
				last.End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// FromRanges builds intervals from the service's wire triple of inclusive
// [start, end] pairs. Reversed pairs are swapped.
func FromRanges(reviewed, modified, ignored [][2]int) []model.LabeledInterval {
	var out []model.LabeledInterval
	add := func(pairs [][2]int, label model.Label) {
		for _, p := range pairs {
			r := model.LineRange{Start: p[0], End: p[1]}.Ordered()
			out = append(out, model.LabeledInterval{Range: r, Label: label})
		}
	}
	add(reviewed, model.LabelReviewed)
	add(modified, model.LabelModified)
	add(ignored, model.LabelIgnored)
	return out
}
