// Package projector converts a line classification into the decoration
// batches an editor surface renders.
package projector

import (
	"github.com/sprite-ai/auditor/internal/interval"
	"github.com/sprite-ai/auditor/internal/model"
)

// Batches holds one list of contiguous line ranges per decorated label.
type Batches struct {
	Reviewed []model.LineRange
	Modified []model.LineRange
	Ignored  []model.LineRange
}

// For returns the ranges of a single label. Unset has no batch.
func (b Batches) For(label model.Label) []model.LineRange {
	switch label {
	case model.LabelReviewed:
		return b.Reviewed
	case model.LabelModified:
		return b.Modified
	case model.LabelIgnored:
		return b.Ignored
	default:
		return nil
	}
}

// Len is the total number of ranges across all labels.
func (b Batches) Len() int {
	return len(b.Reviewed) + len(b.Modified) + len(b.Ignored)
}

// Intervals flattens the batches back into labeled intervals.
func (b Batches) Intervals() []model.LabeledInterval {
	out := make([]model.LabeledInterval, 0, b.Len())
	for _, label := range model.Labels {
		for _, r := range b.For(label) {
			out = append(out, model.LabeledInterval{Range: r, Label: label})
		}
	}
	return out
}

// Project collapses runs of identically labeled lines into single ranges.
// Unset lines produce nothing.
func Project(c interval.Classification) Batches {
	var b Batches
	start := 0
	for line := 1; line <= len(c); line++ {
		if line < len(c) && c[line] == c[start] {
			continue
		}
		b.add(c[start], model.LineRange{Start: start, End: line - 1})
		start = line
	}
	return b
}

func (b *Batches) add(label model.Label, r model.LineRange) {
	switch label {
	case model.LabelReviewed:
		b.Reviewed = append(b.Reviewed, r)
	case model.LabelModified:
		b.Modified = append(b.Modified, r)
	case model.LabelIgnored:
		b.Ignored = append(b.Ignored, r)
	}
}
