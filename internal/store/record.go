package store

import "github.com/sprite-ai/auditor/internal/model"

// Comment is a stored comment. IDs are unique across the whole store.
type Comment struct {
	ID     int64  `json:"id"`
	Body   string `json:"body"`
	Author string `json:"author"`
}

// FileRecord is everything the service keeps about one file.
type FileRecord struct {
	FileName   string            `json:"file_name"`
	Reviewed   [][2]int          `json:"reviewed"`
	Modified   [][2]int          `json:"modified"`
	Ignored    [][2]int          `json:"ignored"`
	TotalLines int               `json:"total_lines"`
	Commit     string            `json:"commit,omitempty"`
	Comments   map[int][]Comment `json:"comments"`
	Priority   *model.Priority   `json:"priority,omitempty"`
}

// NewFileRecord returns an empty record for fileName.
func NewFileRecord(fileName string) *FileRecord {
	return &FileRecord{
		FileName: fileName,
		Reviewed: [][2]int{},
		Modified: [][2]int{},
		Ignored:  [][2]int{},
		Comments: make(map[int][]Comment),
	}
}

// Clone returns a deep copy of r.
func (r *FileRecord) Clone() *FileRecord {
	out := *r
	out.Reviewed = append([][2]int{}, r.Reviewed...)
	out.Modified = append([][2]int{}, r.Modified...)
	out.Ignored = append([][2]int{}, r.Ignored...)
	out.Comments = make(map[int][]Comment, len(r.Comments))
	for line, cs := range r.Comments {
		out.Comments[line] = append([]Comment(nil), cs...)
	}
	if r.Priority != nil {
		p := *r.Priority
		out.Priority = &p
	}
	return &out
}

func (r *FileRecord) ranges(label model.Label) *[][2]int {
	switch label {
	case model.LabelReviewed:
		return &r.Reviewed
	case model.LabelModified:
		return &r.Modified
	case model.LabelIgnored:
		return &r.Ignored
	}
	return nil
}

// Mark applies a review state to the inclusive range [start, end]. The range
// is merged into its own label, joining touching neighbours, and cut out of
// every other label. Cleared only cuts.
func (r *FileRecord) Mark(state model.ReviewState, start, end int) {
	if start > end {
		start, end = end, start
	}
	if start < 0 {
		start = 0
	}
	if end < start {
		return
	}
	target := state.Label()
	for _, label := range model.Labels {
		list := r.ranges(label)
		if label == target {
			*list = addRange(*list, start, end)
		} else {
			*list = removeRange(*list, start, end)
		}
	}
}

// MarkLines applies state to each listed line.
func (r *FileRecord) MarkLines(state model.ReviewState, lines []int) {
	for _, line := range lines {
		r.Mark(state, line, line)
	}
}

// AddComment appends a comment to the thread at line.
func (r *FileRecord) AddComment(line int, c Comment) {
	if r.Comments == nil {
		r.Comments = make(map[int][]Comment)
	}
	r.Comments[line] = append(r.Comments[line], c)
}

// DeleteComment removes comment id from line and reports whether it existed.
func (r *FileRecord) DeleteComment(line int, id int64) bool {
	thread := r.Comments[line]
	for i, c := range thread {
		if c.ID != id {
			continue
		}
		thread = append(thread[:i:i], thread[i+1:]...)
		if len(thread) == 0 {
			delete(r.Comments, line)
		} else {
			r.Comments[line] = thread
		}
		return true
	}
	return false
}

// CommentCount is the total number of comments in the file.
func (r *FileRecord) CommentCount() int {
	n := 0
	for _, thread := range r.Comments {
		n += len(thread)
	}
	return n
}

// addRange inserts [start, end] into sorted disjoint ranges, merging
// overlapping and adjacent ones.
func addRange(ranges [][2]int, start, end int) [][2]int {
	out := make([][2]int, 0, len(ranges)+1)
	placed := false
	for _, rg := range ranges {
		switch {
		case placed || rg[1]+1 < start:
			out = append(out, rg)
		case end+1 < rg[0]:
			out = append(out, [2]int{start, end}, rg)
			placed = true
		default:
			start = min(start, rg[0])
			end = max(end, rg[1])
		}
	}
	if !placed {
		out = append(out, [2]int{start, end})
	}
	return out
}

// removeRange cuts [start, end] out of sorted disjoint ranges.
func removeRange(ranges [][2]int, start, end int) [][2]int {
	out := make([][2]int, 0, len(ranges)+1)
	for _, rg := range ranges {
		if rg[1] < start || rg[0] > end {
			out = append(out, rg)
			continue
		}
		if rg[0] < start {
			out = append(out, [2]int{rg[0], start - 1})
		}
		if end < rg[1] {
			out = append(out, [2]int{end + 1, rg[1]})
		}
	}
	return out
}
