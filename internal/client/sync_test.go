package client

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprite-ai/auditor/internal/model"
)

type stubComments struct {
	fetches   int
	fetchErr  error
	threads   map[int][]RemoteComment
	nextID    int64
	createErr error
	deleted   []int64
}

func (s *stubComments) FetchComments(ctx context.Context, fileName string) (map[int][]RemoteComment, error) {
	s.fetches++
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return s.threads, nil
}

func (s *stubComments) CreateComment(ctx context.Context, fileName string, line int, body, author string) (int64, error) {
	if s.createErr != nil {
		return 0, &BackendError{Op: "CreateComment", Err: s.createErr}
	}
	s.nextID++
	return s.nextID, nil
}

func (s *stubComments) DeleteComment(ctx context.Context, fileName string, line int, id int64) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func TestLoadIsMemoized(t *testing.T) {
	api := &stubComments{threads: map[int][]RemoteComment{2: {{ID: 5, Body: "hi", Author: "ann"}}}}
	cs := NewCommentSync(api, NewMemo())

	threads, loaded, err := cs.Load(context.Background(), "a.go")
	require.NoError(t, err)
	require.True(t, loaded)
	require.Len(t, threads[2], 1)
	assert.Equal(t, model.Comment{ID: 5, Body: "hi", SavedBody: "hi", Author: model.Author{Name: "ann"}}, threads[2][0])
	assert.Equal(t, Loaded, cs.Memo().State("a.go"))

	_, loaded, err = cs.Load(context.Background(), "a.go")
	require.NoError(t, err)
	assert.False(t, loaded)
	assert.Equal(t, 1, api.fetches)
}

func TestLoadFailureAllowsRetry(t *testing.T) {
	api := &stubComments{fetchErr: errors.New("down")}
	cs := NewCommentSync(api, nil)

	_, loaded, err := cs.Load(context.Background(), "a.go")
	require.Error(t, err)
	assert.False(t, loaded)
	assert.Equal(t, Unloaded, cs.Memo().State("a.go"))

	api.fetchErr = nil
	_, loaded, err = cs.Load(context.Background(), "a.go")
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, 2, api.fetches)
}

func TestMemoResetForgetsFiles(t *testing.T) {
	m := NewMemo()
	require.True(t, m.Begin("a.go"))
	assert.False(t, m.Begin("a.go"))
	m.Done("a.go")
	m.Reset()
	assert.Equal(t, Unloaded, m.State("a.go"))
	assert.True(t, m.Begin("a.go"))
}

func TestCreateReturnsServiceID(t *testing.T) {
	cs := NewCommentSync(&stubComments{nextID: 40}, nil)
	c, err := cs.Create(context.Background(), "a.go", 1, "body", model.Author{Name: "ann"})
	require.NoError(t, err)
	assert.Equal(t, int64(41), c.ID)
	assert.Equal(t, model.ModePreview, c.Mode)
}

func TestCreateFailureReturnsNoComment(t *testing.T) {
	cs := NewCommentSync(&stubComments{createErr: errors.New("offline")}, nil)
	c, err := cs.Create(context.Background(), "a.go", 1, "body", model.Author{Name: "ann"})
	var backendErr *BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Zero(t, c)
}
