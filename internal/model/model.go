// Package model defines the core data types shared across auditor.
package model

import "fmt"

// Label is the read-side classification of a single line.
type Label int

const (
	LabelUnset Label = iota
	LabelReviewed
	LabelModified
	LabelIgnored
)

func (l Label) String() string {
	switch l {
	case LabelUnset:
		return "Unset"
	case LabelReviewed:
		return "Reviewed"
	case LabelModified:
		return "Modified"
	case LabelIgnored:
		return "Ignored"
	default:
		return "unknown"
	}
}

// Labels lists the decorated labels in precedence order: when intervals of
// different labels cover the same line, the earlier label wins.
var Labels = []Label{LabelReviewed, LabelModified, LabelIgnored}

// ReviewState is the write-side label sent to the Audit State Service.
// Cleared removes any classification and never comes back on reads.
type ReviewState string

const (
	StateReviewed ReviewState = "Reviewed"
	StateModified ReviewState = "Modified"
	StateCleared  ReviewState = "Cleared"
	StateIgnored  ReviewState = "Ignored"
)

// ParseReviewState accepts the four wire names.
func ParseReviewState(s string) (ReviewState, error) {
	switch ReviewState(s) {
	case StateReviewed, StateModified, StateCleared, StateIgnored:
		return ReviewState(s), nil
	}
	return "", fmt.Errorf("unknown review state %q", s)
}

// Label returns the read-side label a state produces. Cleared maps to Unset.
func (s ReviewState) Label() Label {
	switch s {
	case StateReviewed:
		return LabelReviewed
	case StateModified:
		return LabelModified
	case StateIgnored:
		return LabelIgnored
	default:
		return LabelUnset
	}
}

// LineRange identifies an inclusive range of zero-based lines in a file.
type LineRange struct {
	Start int
	End   int
}

// Ordered returns the range with Start <= End, swapping reversed bounds.
func (r LineRange) Ordered() LineRange {
	if r.End < r.Start {
		return LineRange{Start: r.End, End: r.Start}
	}
	return r
}

// Len is the number of lines covered; zero for an inverted range.
func (r LineRange) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

// Contains reports whether line falls inside the range.
func (r LineRange) Contains(line int) bool {
	return line >= r.Start && line <= r.End
}

// LabeledInterval is a contiguous inclusive line range with one label.
type LabeledInterval struct {
	Range LineRange
	Label Label
}

// AuditedFile is the client-side cache entry for one file. Intervals are
// replaced wholesale whenever the service answers a fetch.
type AuditedFile struct {
	Name       string
	TotalLines int
	Intervals  []LabeledInterval
}

// CommentMode is the display mode of a single comment.
type CommentMode int

const (
	ModePreview CommentMode = iota
	ModeEditing
)

func (m CommentMode) String() string {
	if m == ModeEditing {
		return "editing"
	}
	return "preview"
}

// Author identifies who wrote a comment.
type Author struct {
	Name string
}

// Comment is one entry of a line's thread. ID is assigned by the service.
type Comment struct {
	ID        int64
	Body      string
	SavedBody string
	Author    Author
	Mode      CommentMode
}

// Priority is per-file review metadata.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
	PriorityIgnore Priority = "Ignore"
)

// ParsePriority accepts the four wire names.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case PriorityHigh, PriorityMedium, PriorityLow, PriorityIgnore:
		return Priority(s), nil
	}
	return "", fmt.Errorf("unknown priority %q", s)
}

// FileSummary is the per-file overview returned by the service's info view.
type FileSummary struct {
	FileName   string
	TotalLines int
	Reviewed   int
	Modified   int
	Ignored    int
	Comments   int
	Priority   Priority // empty when unset
}

// Progress is the fraction of lines that are either reviewed or ignored.
func (s FileSummary) Progress() float64 {
	if s.TotalLines <= 0 {
		return 0
	}
	return float64(s.Reviewed+s.Ignored) / float64(s.TotalLines)
}
