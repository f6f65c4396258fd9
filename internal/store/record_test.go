package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sprite-ai/auditor/internal/model"
)

func TestAddRange(t *testing.T) {
	tests := []struct {
		name       string
		start, end int
		ranges     [][2]int
		want       [][2]int
	}{
		{"empty", 4, 6, nil, [][2]int{{4, 6}}},
		{"before", 4, 6, [][2]int{{8, 9}, {11, 12}}, [][2]int{{4, 6}, {8, 9}, {11, 12}}},
		{"after", 9, 13, [][2]int{{1, 2}, {4, 5}}, [][2]int{{1, 2}, {4, 5}, {9, 13}}},
		{"between", 4, 6, [][2]int{{1, 2}, {8, 9}}, [][2]int{{1, 2}, {4, 6}, {8, 9}}},
		{"adjacent below", 1, 2, [][2]int{{3, 4}}, [][2]int{{1, 4}}},
		{"adjacent above", 5, 6, [][2]int{{3, 4}}, [][2]int{{3, 6}}},
		{"overlap first", 4, 9, [][2]int{{8, 10}, {20, 22}}, [][2]int{{4, 10}, {20, 22}}},
		{"overlap last", 21, 30, [][2]int{{8, 10}, {20, 22}}, [][2]int{{8, 10}, {20, 30}}},
		{"spans both", 9, 21, [][2]int{{8, 10}, {20, 22}}, [][2]int{{8, 22}}},
		{"shared start", 9, 21, [][2]int{{7, 9}}, [][2]int{{7, 21}}},
		{"shared end", 9, 21, [][2]int{{21, 22}}, [][2]int{{9, 22}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, addRange(tt.ranges, tt.start, tt.end))
		})
	}
}

func TestRemoveRange(t *testing.T) {
	base := [][2]int{{3, 5}, {7, 9}}
	tests := []struct {
		name       string
		start, end int
		want       [][2]int
	}{
		{"disjoint", 1, 2, [][2]int{{3, 5}, {7, 9}}},
		{"head", 1, 4, [][2]int{{5, 5}, {7, 9}}},
		{"head edge", 1, 3, [][2]int{{4, 5}, {7, 9}}},
		{"tail", 8, 10, [][2]int{{3, 5}, {7, 7}}},
		{"tail edge", 9, 10, [][2]int{{3, 5}, {7, 8}}},
		{"middle", 4, 7, [][2]int{{3, 3}, {8, 9}}},
		{"swallow", 5, 9, [][2]int{{3, 4}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, removeRange(base, tt.start, tt.end))
		})
	}
}

func TestMarkSequence(t *testing.T) {
	r := NewFileRecord("file1")
	r.Reviewed = [][2]int{{0, 0}}
	r.Modified = [][2]int{{1, 1}}
	r.Ignored = [][2]int{{2, 2}}

	r.Mark(model.StateReviewed, 3, 5)
	assert.Equal(t, [][2]int{{0, 0}, {3, 5}}, r.Reviewed)
	assert.Equal(t, [][2]int{{1, 1}}, r.Modified)
	assert.Equal(t, [][2]int{{2, 2}}, r.Ignored)

	r.Mark(model.StateModified, 2, 4)
	assert.Equal(t, [][2]int{{0, 0}, {5, 5}}, r.Reviewed)
	assert.Equal(t, [][2]int{{1, 4}}, r.Modified)
	assert.Empty(t, r.Ignored)

	r.Mark(model.StateReviewed, 3, 2)
	assert.Equal(t, [][2]int{{0, 0}, {2, 3}, {5, 5}}, r.Reviewed)
	assert.Equal(t, [][2]int{{1, 1}, {4, 4}}, r.Modified)

	r.Mark(model.StateCleared, 1, 5)
	assert.Equal(t, [][2]int{{0, 0}}, r.Reviewed)
	assert.Empty(t, r.Modified)
	assert.Empty(t, r.Ignored)
}

func TestMarkLinesAsModified(t *testing.T) {
	r := NewFileRecord("file1")
	r.Reviewed = [][2]int{{0, 0}}
	r.Modified = [][2]int{{1, 1}}

	r.MarkLines(model.StateModified, []int{0})
	assert.Empty(t, r.Reviewed)
	assert.Equal(t, [][2]int{{0, 1}}, r.Modified)
}

func TestComments(t *testing.T) {
	r := NewFileRecord("a.go")
	r.AddComment(3, Comment{ID: 1, Body: "one"})
	r.AddComment(3, Comment{ID: 2, Body: "two"})
	assert.Equal(t, 2, r.CommentCount())

	c := r.Clone()
	assert.True(t, r.DeleteComment(3, 1))
	assert.False(t, r.DeleteComment(3, 1))
	assert.Equal(t, []Comment{{ID: 2, Body: "two"}}, r.Comments[3])
	assert.Len(t, c.Comments[3], 2)

	assert.True(t, r.DeleteComment(3, 2))
	_, ok := r.Comments[3]
	assert.False(t, ok)
}
