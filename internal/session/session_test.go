package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprite-ai/auditor/internal/client"
	"github.com/sprite-ai/auditor/internal/interval"
	"github.com/sprite-ai/auditor/internal/model"
	"github.com/sprite-ai/auditor/internal/projector"
)

type recordingSurface struct {
	mu          sync.Mutex
	decorations map[string][]projector.Batches
	threads     map[int][]model.Comment
	disposed    []int
}

func newRecordingSurface() *recordingSurface {
	return &recordingSurface{
		decorations: make(map[string][]projector.Batches),
		threads:     make(map[int][]model.Comment),
	}
}

func (s *recordingSurface) RenderDecorations(fileName string, b projector.Batches) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decorations[fileName] = append(s.decorations[fileName], b)
}

func (s *recordingSurface) RenderThread(fileName string, line int, comments []model.Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threads[line] = comments
}

func (s *recordingSurface) DisposeThread(fileName string, line int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.threads, line)
	s.disposed = append(s.disposed, line)
}

func (s *recordingSurface) renders(fileName string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.decorations[fileName])
}

// stubState answers FetchState from a per-file table. A file listed in
// block waits on its channel before answering.
type stubState struct {
	mu      sync.Mutex
	states  map[string]*client.ReviewState
	block   map[string]chan struct{}
	fetches int
	marks   []client.MarkRequest
	markErr error
	// marked is what a file reads as once a mark has been written.
	marked map[string]*client.ReviewState
}

func (s *stubState) FetchState(ctx context.Context, fileName string) (*client.ReviewState, error) {
	s.mu.Lock()
	s.fetches++
	ch := s.block[fileName]
	st := s.states[fileName]
	s.mu.Unlock()
	if ch != nil {
		<-ch
	}
	if st == nil {
		st = &client.ReviewState{}
	}
	return st, nil
}

func (s *stubState) MarkRange(ctx context.Context, req client.MarkRequest) (*client.ReviewState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markErr != nil {
		return nil, s.markErr
	}
	s.marks = append(s.marks, req)
	s.fetches++
	if st, ok := s.marked[req.FileName]; ok {
		s.states[req.FileName] = st
	}
	st := s.states[req.FileName]
	if st == nil {
		st = &client.ReviewState{}
	}
	return st, nil
}

func (s *stubState) Transform(ctx context.Context, fileName string) (*client.ReviewState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	return &client.ReviewState{Modified: [][2]int{{0, 0}}}, nil
}

type stubComments struct {
	mu        sync.Mutex
	fetches   map[string]int
	threads   map[int][]client.RemoteComment
	nextID    int64
	createErr error
	deleteErr error
	deleted   []int64
	// block holds FetchComments until closed.
	block chan struct{}
	// keep makes created comments visible to later fetches.
	keep bool
}

func (s *stubComments) FetchComments(ctx context.Context, fileName string) (map[int][]client.RemoteComment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetches == nil {
		s.fetches = make(map[string]int)
	}
	s.fetches[fileName]++
	ch := s.block
	s.mu.Unlock()
	if ch != nil {
		<-ch
	}
	s.mu.Lock()

	out := make(map[int][]client.RemoteComment, len(s.threads))
	for line, cs := range s.threads {
		out[line] = append([]client.RemoteComment(nil), cs...)
	}
	return out, nil
}

func (s *stubComments) CreateComment(ctx context.Context, fileName string, line int, body, author string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return 0, &client.BackendError{Op: "CreateComment", Err: s.createErr}
	}
	s.nextID++
	if s.keep {
		if s.threads == nil {
			s.threads = make(map[int][]client.RemoteComment)
		}
		s.threads[line] = append(s.threads[line], client.RemoteComment{ID: client.CommentID(s.nextID), Body: body, Author: author})
	}
	return s.nextID, nil
}

func (s *stubComments) DeleteComment(ctx context.Context, fileName string, line int, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, id)
	return s.deleteErr
}

func newController(state *stubState, comments *stubComments) (*Controller, *recordingSurface) {
	surface := newRecordingSurface()
	return New(state, comments, surface), surface
}

func TestActivateRendersClassification(t *testing.T) {
	state := &stubState{states: map[string]*client.ReviewState{
		"a.cpp": {Reviewed: [][2]int{{0, 1}}, Modified: [][2]int{{2, 2}}},
	}}
	c, surface := newController(state, &stubComments{})

	require.NoError(t, c.Activate(context.Background(), "a.cpp", 4))

	want := interval.Classification{model.LabelReviewed, model.LabelReviewed, model.LabelModified, model.LabelUnset}
	assert.Equal(t, want, c.Classification("a.cpp"))
	require.Equal(t, 1, surface.renders("a.cpp"))
	b := surface.decorations["a.cpp"][0]
	assert.Equal(t, []model.LineRange{{Start: 0, End: 1}}, b.Reviewed)
	assert.Equal(t, []model.LineRange{{Start: 2, End: 2}}, b.Modified)
	assert.Empty(t, b.Ignored)
}

func TestActivateIgnoresUntrackedExtension(t *testing.T) {
	state := &stubState{}
	comments := &stubComments{}
	c, surface := newController(state, comments)

	require.NoError(t, c.Activate(context.Background(), "notes.txt", 10))
	assert.Zero(t, state.fetches)
	assert.Empty(t, comments.fetches)
	assert.Zero(t, surface.renders("notes.txt"))
	assert.Empty(t, c.Active())
}

func TestWithExtensions(t *testing.T) {
	c := New(&stubState{}, &stubComments{}, newRecordingSurface(), WithExtensions([]string{".py", "rs"}))
	assert.True(t, c.Tracks("main.py"))
	assert.True(t, c.Tracks("lib.rs"))
	assert.False(t, c.Tracks("main.go"))
}

func TestStaleFetchIsDropped(t *testing.T) {
	release := make(chan struct{})
	state := &stubState{
		states: map[string]*client.ReviewState{
			"a.go": {Reviewed: [][2]int{{0, 0}}},
			"b.go": {Ignored: [][2]int{{0, 0}}},
		},
		block: map[string]chan struct{}{"a.go": release},
	}
	c, surface := newController(state, &stubComments{})

	done := make(chan error, 1)
	go func() { done <- c.Activate(context.Background(), "a.go", 2) }()

	// Wait for the fetch of a.go to be in flight before switching.
	require.Eventually(t, func() bool {
		state.mu.Lock()
		defer state.mu.Unlock()
		return state.fetches == 1
	}, time.Second, time.Millisecond)

	require.NoError(t, c.Activate(context.Background(), "b.go", 2))
	close(release)

	err := <-done
	var stale *StaleFileError
	require.ErrorAs(t, err, &stale)
	assert.Equal(t, "a.go", stale.FileName)
	assert.Equal(t, "b.go", stale.Active)

	assert.Zero(t, surface.renders("a.go"))
	assert.Equal(t, 1, surface.renders("b.go"))
	assert.Nil(t, c.Classification("a.go"))
}

func TestMarkAppliesServiceState(t *testing.T) {
	state := &stubState{states: map[string]*client.ReviewState{"a.go": {Ignored: [][2]int{{3, 5}}}}}
	c, surface := newController(state, &stubComments{})
	require.NoError(t, c.Activate(context.Background(), "a.go", 10))
	fetches := state.fetches

	err := c.Mark(context.Background(), Selection{FileName: "a.go", LineCount: 10, StartLine: 5, EndLine: 3}, model.StateIgnored)
	require.NoError(t, err)

	require.Len(t, state.marks, 1)
	assert.Equal(t, 3, state.marks[0].StartLine)
	assert.Equal(t, 5, state.marks[0].EndLine)
	assert.Equal(t, fetches+1, state.fetches)
	assert.Equal(t, 2, surface.renders("a.go"))
	assert.Equal(t, 3, c.Classification("a.go").Count(model.LabelIgnored))
}

func TestMarkFailureKeepsDisplay(t *testing.T) {
	state := &stubState{markErr: errors.New("offline")}
	c, surface := newController(state, &stubComments{})
	require.NoError(t, c.Activate(context.Background(), "a.go", 3))

	err := c.Mark(context.Background(), Selection{FileName: "a.go", LineCount: 3, EndLine: 2}, model.StateReviewed)
	require.Error(t, err)
	assert.Equal(t, 1, surface.renders("a.go"))
}

func TestMarkOnInactiveFileIsStale(t *testing.T) {
	state := &stubState{}
	c, surface := newController(state, &stubComments{})
	require.NoError(t, c.Activate(context.Background(), "b.go", 3))

	err := c.Mark(context.Background(), Selection{FileName: "a.go", LineCount: 3}, model.StateReviewed)
	var stale *StaleFileError
	require.ErrorAs(t, err, &stale)
	assert.Zero(t, surface.renders("a.go"))
}

func TestTransform(t *testing.T) {
	c, surface := newController(&stubState{}, &stubComments{})
	require.NoError(t, c.Activate(context.Background(), "a.go", 2))
	require.NoError(t, c.Transform(context.Background(), "a.go", 2))

	assert.Equal(t, interval.Classification{model.LabelModified, model.LabelUnset}, c.Classification("a.go"))
	assert.Equal(t, 2, surface.renders("a.go"))
}

func TestCommentsLoadOncePerSession(t *testing.T) {
	comments := &stubComments{threads: map[int][]client.RemoteComment{
		4: {{ID: 1, Body: "first", Author: "ann"}},
	}}
	c, surface := newController(&stubState{}, comments)

	require.NoError(t, c.Activate(context.Background(), "a.go", 10))
	require.NoError(t, c.Activate(context.Background(), "b.go", 10))
	require.NoError(t, c.Activate(context.Background(), "a.go", 10))

	assert.Equal(t, 1, comments.fetches["a.go"])
	assert.Equal(t, 1, comments.fetches["b.go"])
	require.Len(t, c.Threads("a.go")[4], 1)
	assert.Equal(t, "first", surface.threads[4][0].Body)

	c.Reset()
	require.NoError(t, c.Activate(context.Background(), "a.go", 10))
	assert.Equal(t, 2, comments.fetches["a.go"])
	assert.Len(t, c.Threads("a.go")[4], 1)
}

func TestCreateCommentFailureAppendsNothing(t *testing.T) {
	comments := &stubComments{createErr: errors.New("offline")}
	c, surface := newController(&stubState{}, comments)

	_, err := c.CreateComment(context.Background(), "a.go", 3, "hm")
	var backendErr *client.BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Empty(t, c.Threads("a.go"))
	assert.Empty(t, surface.threads)
}

func TestCreateThenDeleteDisposesThread(t *testing.T) {
	comments := &stubComments{nextID: 6}
	c, surface := newController(&stubState{}, comments)

	cm, err := c.CreateComment(context.Background(), "a.go", 3, "hm")
	require.NoError(t, err)
	assert.Equal(t, int64(7), cm.ID)
	assert.Equal(t, "auditor", cm.Author.Name)
	require.Len(t, surface.threads[3], 1)

	require.NoError(t, c.DeleteComment(context.Background(), "a.go", 3, cm.ID))
	assert.Equal(t, []int64{7}, comments.deleted)
	assert.Empty(t, c.Threads("a.go"))
	assert.Equal(t, []int{3}, surface.disposed)
}

func TestDeleteFirstKeepsSecond(t *testing.T) {
	c, surface := newController(&stubState{}, &stubComments{})
	first, err := c.CreateComment(context.Background(), "a.go", 1, "one")
	require.NoError(t, err)
	second, err := c.CreateComment(context.Background(), "a.go", 1, "two")
	require.NoError(t, err)

	require.NoError(t, c.DeleteComment(context.Background(), "a.go", 1, first.ID))
	threads := c.Threads("a.go")
	require.Len(t, threads[1], 1)
	assert.Equal(t, second.ID, threads[1][0].ID)
	assert.Empty(t, surface.disposed)
}

func TestDeleteIsOptimistic(t *testing.T) {
	comments := &stubComments{deleteErr: errors.New("gone")}
	c, _ := newController(&stubState{}, comments)
	cm, err := c.CreateComment(context.Background(), "a.go", 1, "one")
	require.NoError(t, err)

	require.Error(t, c.DeleteComment(context.Background(), "a.go", 1, cm.ID))
	assert.Empty(t, c.Threads("a.go"))
}

func TestDeleteThread(t *testing.T) {
	comments := &stubComments{}
	c, surface := newController(&stubState{}, comments)
	for _, body := range []string{"one", "two"} {
		_, err := c.CreateComment(context.Background(), "a.go", 2, body)
		require.NoError(t, err)
	}

	require.NoError(t, c.DeleteThread(context.Background(), "a.go", 2))
	assert.Equal(t, []int64{1, 2}, comments.deleted)
	assert.Empty(t, c.Threads("a.go"))
	assert.Equal(t, []int{2}, surface.disposed)
}

func TestEditSaveCancel(t *testing.T) {
	c, surface := newController(&stubState{}, &stubComments{})
	cm, err := c.CreateComment(context.Background(), "a.go", 0, "draft")
	require.NoError(t, err)

	require.True(t, c.EditComment("a.go", 0, cm.ID))
	assert.Equal(t, model.ModeEditing, surface.threads[0][0].Mode)

	require.True(t, c.SetCommentBody("a.go", 0, cm.ID, "final"))
	require.True(t, c.SaveComment("a.go", 0, cm.ID))
	got := c.Threads("a.go")[0][0]
	assert.Equal(t, "final", got.Body)
	assert.Equal(t, model.ModePreview, got.Mode)

	require.True(t, c.EditComment("a.go", 0, cm.ID))
	require.True(t, c.SetCommentBody("a.go", 0, cm.ID, "oops"))
	require.True(t, c.CancelComment("a.go", 0, cm.ID))
	assert.Equal(t, "final", c.Threads("a.go")[0][0].Body)

	assert.False(t, c.EditComment("a.go", 0, 99))
	assert.False(t, c.EditComment("missing.go", 0, cm.ID))
}

func TestLateActivationFetchDoesNotUndoMark(t *testing.T) {
	release := make(chan struct{})
	state := &stubState{
		states: map[string]*client.ReviewState{},
		marked: map[string]*client.ReviewState{"a.go": {Reviewed: [][2]int{{0, 2}}}},
		block:  map[string]chan struct{}{"a.go": release},
	}
	c, surface := newController(state, &stubComments{})

	done := make(chan error, 1)
	go func() { done <- c.Activate(context.Background(), "a.go", 3) }()

	// The activation fetch has read the unmarked state and is held.
	require.Eventually(t, func() bool {
		state.mu.Lock()
		defer state.mu.Unlock()
		return state.fetches == 1
	}, time.Second, time.Millisecond)

	err := c.Mark(context.Background(), Selection{FileName: "a.go", LineCount: 3, StartLine: 0, EndLine: 2}, model.StateReviewed)
	require.NoError(t, err)
	want := interval.Classification{model.LabelReviewed, model.LabelReviewed, model.LabelReviewed}
	assert.Equal(t, want, c.Classification("a.go"))

	close(release)
	err = <-done
	var stale *StaleFileError
	require.ErrorAs(t, err, &stale)
	assert.True(t, stale.Superseded)

	assert.Equal(t, want, c.Classification("a.go"))
	assert.Equal(t, 1, surface.renders("a.go"))
}

func TestCommentCreatedDuringLoadAppearsOnce(t *testing.T) {
	release := make(chan struct{})
	comments := &stubComments{block: release, keep: true}
	c, surface := newController(&stubState{}, comments)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- c.Activate(ctx, "a.go", 5) }()

	require.Eventually(t, func() bool {
		comments.mu.Lock()
		defer comments.mu.Unlock()
		return comments.fetches["a.go"] == 1
	}, time.Second, time.Millisecond)

	created, err := c.CreateComment(ctx, "a.go", 1, "hi")
	require.NoError(t, err)
	close(release)
	require.NoError(t, <-done)

	th := c.Threads("a.go")[1]
	require.Len(t, th, 1)
	assert.Equal(t, created.ID, th[0].ID)

	require.NoError(t, c.DeleteComment(ctx, "a.go", 1, created.ID))
	assert.Empty(t, c.Threads("a.go"))
	assert.Contains(t, surface.disposed, 1)
}
