// Package thread holds the per-line comment threads of a file and the
// edit/save/cancel lifecycle of each comment. Nothing here does I/O.
package thread

import (
	"sort"

	"github.com/sprite-ai/auditor/internal/model"
)

// Thread is the ordered list of comments anchored to one line. Order is
// arrival order and is the display order.
type Thread struct {
	Line     int
	Comments []*model.Comment
}

// Append adds c at the end of the thread. Ids are unique within a thread:
// a comment whose id is already present is not added again.
func (t *Thread) Append(c model.Comment) (added bool) {
	if t.Find(c.ID) != nil {
		return false
	}
	if c.SavedBody == "" {
		c.SavedBody = c.Body
	}
	t.Comments = append(t.Comments, &c)
	return true
}

// Remove drops the comment with id and reports whether the thread is now empty.
func (t *Thread) Remove(id int64) (empty bool) {
	kept := t.Comments[:0]
	for _, c := range t.Comments {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	for i := len(kept); i < len(t.Comments); i++ {
		t.Comments[i] = nil
	}
	t.Comments = kept
	return len(t.Comments) == 0
}

// Find returns the comment with id, or nil.
func (t *Thread) Find(id int64) *model.Comment {
	for _, c := range t.Comments {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// SetMode moves a single comment between preview and editing.
func (t *Thread) SetMode(id int64, mode model.CommentMode) bool {
	c := t.Find(id)
	if c == nil {
		return false
	}
	c.Mode = mode
	return true
}

// Edit puts a comment into editing mode.
func (t *Thread) Edit(id int64) bool {
	return t.SetMode(id, model.ModeEditing)
}

// SetBody replaces the working body of a comment being edited.
func (t *Thread) SetBody(id int64, body string) bool {
	c := t.Find(id)
	if c == nil {
		return false
	}
	c.Body = body
	return true
}

// Save commits the working body and returns to preview.
func (t *Thread) Save(id int64) bool {
	c := t.Find(id)
	if c == nil {
		return false
	}
	c.SavedBody = c.Body
	c.Mode = model.ModePreview
	return true
}

// Cancel discards the working body and returns to preview.
func (t *Thread) Cancel(id int64) bool {
	c := t.Find(id)
	if c == nil {
		return false
	}
	c.Body = c.SavedBody
	c.Mode = model.ModePreview
	return true
}

// Snapshot copies the comments so callers can render them without sharing.
func (t *Thread) Snapshot() []model.Comment {
	out := make([]model.Comment, len(t.Comments))
	for i, c := range t.Comments {
		out[i] = *c
	}
	return out
}

// Set is the collection of a file's threads keyed by line number.
type Set struct {
	threads map[int]*Thread
}

// NewSet returns an empty thread set.
func NewSet() *Set {
	return &Set{threads: make(map[int]*Thread)}
}

// Get returns the thread at line, or nil.
func (s *Set) Get(line int) *Thread {
	return s.threads[line]
}

// Ensure returns the thread at line, creating it when missing.
func (s *Set) Ensure(line int) *Thread {
	t, ok := s.threads[line]
	if !ok {
		t = &Thread{Line: line}
		s.threads[line] = t
	}
	return t
}

// Append adds a comment to the thread at line, creating the thread if needed.
func (s *Set) Append(line int, c model.Comment) *Thread {
	t := s.Ensure(line)
	t.Append(c)
	return t
}

// Remove deletes a comment and disposes its thread when it becomes empty.
// It reports whether the thread was disposed.
func (s *Set) Remove(line int, id int64) (disposed bool) {
	t, ok := s.threads[line]
	if !ok {
		return false
	}
	if t.Remove(id) {
		delete(s.threads, line)
		return true
	}
	return false
}

// Dispose drops the whole thread at line.
func (s *Set) Dispose(line int) {
	delete(s.threads, line)
}

// Lines returns the anchored line numbers in ascending order.
func (s *Set) Lines() []int {
	lines := make([]int, 0, len(s.threads))
	for line := range s.threads {
		lines = append(lines, line)
	}
	sort.Ints(lines)
	return lines
}

// Len is the number of live threads.
func (s *Set) Len() int {
	return len(s.threads)
}
