package client

import (
	"context"
	"sync"

	"github.com/sprite-ai/auditor/internal/model"
)

// LoadState tracks whether a file's comment threads have been read this
// session.
type LoadState int

const (
	Unloaded LoadState = iota
	Loading
	Loaded
)

func (s LoadState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	default:
		return "unloaded"
	}
}

// Memo is the per-session record of which files already have their comments
// loaded. A loaded file is never re-read until Reset, so comments written by
// other clients during the session stay invisible until then.
type Memo struct {
	mu     sync.Mutex
	states map[string]LoadState
}

// NewMemo returns an empty memo.
func NewMemo() *Memo {
	return &Memo{states: make(map[string]LoadState)}
}

// State reports the load state of fileName.
func (m *Memo) State(fileName string) LoadState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[fileName]
}

// Begin moves fileName from Unloaded to Loading. It returns false when the
// file is already loading or loaded.
func (m *Memo) Begin(fileName string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.states[fileName] != Unloaded {
		return false
	}
	m.states[fileName] = Loading
	return true
}

// Done marks fileName as loaded.
func (m *Memo) Done(fileName string) {
	m.mu.Lock()
	m.states[fileName] = Loaded
	m.mu.Unlock()
}

// Fail returns fileName to Unloaded so the next activation retries.
func (m *Memo) Fail(fileName string) {
	m.mu.Lock()
	delete(m.states, fileName)
	m.mu.Unlock()
}

// Reset forgets every file.
func (m *Memo) Reset() {
	m.mu.Lock()
	m.states = make(map[string]LoadState)
	m.mu.Unlock()
}

// CommentAPI is the subset of the service used for comment threads.
type CommentAPI interface {
	FetchComments(ctx context.Context, fileName string) (map[int][]RemoteComment, error)
	CreateComment(ctx context.Context, fileName string, line int, body, author string) (int64, error)
	DeleteComment(ctx context.Context, fileName string, line int, id int64) error
}

// CommentSync keeps comment threads in step with the service for one
// session.
type CommentSync struct {
	api  CommentAPI
	memo *Memo
}

// NewCommentSync binds a comment API to a session memo.
func NewCommentSync(api CommentAPI, memo *Memo) *CommentSync {
	if memo == nil {
		memo = NewMemo()
	}
	return &CommentSync{api: api, memo: memo}
}

// Memo returns the session memo.
func (s *CommentSync) Memo() *Memo {
	return s.memo
}

// Load reads fileName's threads the first time it is asked for in a
// session. loaded is false when the memo says the work is already done or
// in flight; threads is then nil.
func (s *CommentSync) Load(ctx context.Context, fileName string) (threads map[int][]model.Comment, loaded bool, err error) {
	if !s.memo.Begin(fileName) {
		return nil, false, nil
	}
	remote, err := s.api.FetchComments(ctx, fileName)
	if err != nil {
		s.memo.Fail(fileName)
		return nil, false, err
	}
	s.memo.Done(fileName)

	threads = make(map[int][]model.Comment, len(remote))
	for line, comments := range remote {
		for _, rc := range comments {
			threads[line] = append(threads[line], rc.Comment())
		}
	}
	return threads, true, nil
}

// Create stores a comment remotely and only then returns it. On error the
// returned comment is the zero value and must not be displayed.
func (s *CommentSync) Create(ctx context.Context, fileName string, line int, body string, author model.Author) (model.Comment, error) {
	id, err := s.api.CreateComment(ctx, fileName, line, body, author.Name)
	if err != nil {
		return model.Comment{}, err
	}
	return model.Comment{ID: id, Body: body, SavedBody: body, Author: author, Mode: model.ModePreview}, nil
}

// Delete removes a comment remotely.
func (s *CommentSync) Delete(ctx context.Context, fileName string, line int, id int64) error {
	return s.api.DeleteComment(ctx, fileName, line, id)
}

// Comment converts the wire form into a displayable comment.
func (rc RemoteComment) Comment() model.Comment {
	return model.Comment{
		ID:        int64(rc.ID),
		Body:      rc.Body,
		SavedBody: rc.Body,
		Author:    model.Author{Name: rc.Author},
		Mode:      model.ModePreview,
	}
}
