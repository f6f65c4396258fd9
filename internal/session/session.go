// Package session wires the interval model, the service clients, the comment
// threads and the projector together for one editing session.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sprite-ai/auditor/internal/client"
	"github.com/sprite-ai/auditor/internal/interval"
	"github.com/sprite-ai/auditor/internal/model"
	"github.com/sprite-ai/auditor/internal/projector"
	"github.com/sprite-ai/auditor/internal/thread"
)

// Surface is the editor that displays files. The controller calls it with
// its own lock held, so implementations must not call back into the
// Controller synchronously.
type Surface interface {
	RenderDecorations(fileName string, batches projector.Batches)
	RenderThread(fileName string, line int, comments []model.Comment)
	DisposeThread(fileName string, line int)
}

// StateBackend reads and writes line classifications.
type StateBackend interface {
	FetchState(ctx context.Context, fileName string) (*client.ReviewState, error)
	MarkRange(ctx context.Context, req client.MarkRequest) (*client.ReviewState, error)
	Transform(ctx context.Context, fileName string) (*client.ReviewState, error)
}

// StaleFileError reports a fetch that resolved after the user had moved on
// to another file, or had re-opened the same one, or after a newer result
// for the same file was already shown. Its result is discarded.
type StaleFileError struct {
	FileName string
	Active   string
	// Superseded is set when a request started later was applied first.
	Superseded bool
}

func (e *StaleFileError) Error() string {
	if e.Superseded {
		return fmt.Sprintf("state for %q was superseded by a newer result", e.FileName)
	}
	return fmt.Sprintf("state for %q arrived after active file changed to %q", e.FileName, e.Active)
}

// DefaultExtensions are the file suffixes audited when none are configured.
var DefaultExtensions = []string{"cpp", "h", "go"}

// Selection is the user's line selection in a file. Start may be after End.
type Selection struct {
	FileName  string
	LineCount int
	StartLine int
	EndLine   int
}

// Controller owns the per-file cache and reacts to editor events.
//
// Controller is safe for concurrent use; network calls run without holding
// its lock.
type Controller struct {
	state      StateBackend
	comments   *client.CommentSync
	memo       *client.Memo
	surface    Surface
	author     model.Author
	extensions []string
	logger     *slog.Logger

	mu         sync.Mutex
	active     string
	generation uint64
	seq        uint64 // start order of state requests
	files      map[string]*fileEntry
}

type fileEntry struct {
	file           model.AuditedFile
	classification interval.Classification
	threads        *thread.Set
	applied        uint64 // seq of the state currently shown
}

// Option configures a Controller.
type Option func(*Controller)

// WithAuthor sets the name attached to new comments.
func WithAuthor(name string) Option {
	return func(c *Controller) { c.author = model.Author{Name: name} }
}

// WithExtensions limits activation to files with these suffixes. An empty
// list audits every file.
func WithExtensions(exts []string) Option {
	return func(c *Controller) { c.extensions = exts }
}

// WithLogger sets the controller's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithMemo hands the controller an existing comment memo.
func WithMemo(m *client.Memo) Option {
	return func(c *Controller) { c.memo = m }
}

// New creates a controller for one session.
func New(state StateBackend, comments client.CommentAPI, surface Surface, opts ...Option) *Controller {
	c := &Controller{
		state:      state,
		surface:    surface,
		author:     model.Author{Name: "auditor"},
		extensions: DefaultExtensions,
		logger:     slog.Default(),
		files:      make(map[string]*fileEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.memo == nil {
		c.memo = client.NewMemo()
	}
	c.comments = client.NewCommentSync(comments, c.memo)
	return c
}

// Tracks reports whether fileName has one of the audited extensions.
func (c *Controller) Tracks(fileName string) bool {
	if len(c.extensions) == 0 {
		return true
	}
	for _, ext := range c.extensions {
		ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
		if ext != "" && strings.HasSuffix(fileName, "."+ext) {
			return true
		}
	}
	return false
}

// Active returns the file most recently activated.
func (c *Controller) Active() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Reset forgets every cached file and the comment memo.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.files = make(map[string]*fileEntry)
	c.active = ""
	c.generation++
	c.mu.Unlock()
	c.memo.Reset()
}

// entry returns the cache entry for fileName, creating it on first use.
// Callers hold c.mu.
func (c *Controller) entry(fileName string) *fileEntry {
	e, ok := c.files[fileName]
	if !ok {
		e = &fileEntry{file: model.AuditedFile{Name: fileName}, threads: thread.NewSet()}
		c.files[fileName] = e
	}
	return e
}

// Activate handles the editor switching to fileName. Intervals are fetched
// on every activation; comments only the first time in a session. Both
// loads run concurrently and a failure of one does not stop the other.
func (c *Controller) Activate(ctx context.Context, fileName string, lineCount int) error {
	if !c.Tracks(fileName) {
		c.logger.Debug("ignoring untracked file", "file", fileName)
		return nil
	}

	c.mu.Lock()
	c.active = fileName
	c.generation++
	gen := c.generation
	seq := c.nextSeqLocked()
	c.entry(fileName)
	c.mu.Unlock()

	var g errgroup.Group
	g.Go(func() error {
		state, err := c.state.FetchState(ctx, fileName)
		if err != nil {
			c.logger.Warn("fetch review state failed", "file", fileName, "error", err)
			return err
		}
		return c.apply(fileName, lineCount, state, gen, seq)
	})
	g.Go(func() error {
		return c.loadComments(ctx, fileName)
	})
	return g.Wait()
}

func (c *Controller) nextSeqLocked() uint64 {
	c.seq++
	return c.seq
}

func (c *Controller) nextSeq() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nextSeqLocked()
}

// apply caches and renders fresh state for fileName. With gen non-zero the
// state is only used if no activation happened since gen was taken;
// otherwise fileName only has to still be the active file. A result whose
// request started before the one already shown is dropped as well, so a
// slow read never hides a confirmed write.
func (c *Controller) apply(fileName string, lineCount int, state *client.ReviewState, gen, seq uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != fileName || (gen != 0 && c.generation != gen) {
		err := &StaleFileError{FileName: fileName, Active: c.active}
		c.logger.Info("dropping stale review state", "file", fileName, "active", c.active)
		return err
	}

	e := c.entry(fileName)
	if seq < e.applied {
		c.logger.Info("dropping superseded review state", "file", fileName, "seq", seq, "applied", e.applied)
		return &StaleFileError{FileName: fileName, Active: c.active, Superseded: true}
	}
	e.applied = seq
	e.file.TotalLines = lineCount
	e.file.Intervals = interval.Normalize(state.Intervals())
	e.classification = interval.Classify(e.file.Intervals, lineCount)
	c.surface.RenderDecorations(fileName, projector.Project(e.classification))
	return nil
}

func (c *Controller) loadComments(ctx context.Context, fileName string) error {
	threads, loaded, err := c.comments.Load(ctx, fileName)
	if err != nil {
		c.logger.Warn("fetch comments failed", "file", fileName, "error", err)
		return err
	}
	if !loaded {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entry(fileName)
	// Comments created while the load was in flight are already here.
	for line, comments := range threads {
		for _, cm := range comments {
			e.threads.Append(line, cm)
		}
	}
	for _, line := range e.threads.Lines() {
		c.surface.RenderThread(fileName, line, e.threads.Get(line).Snapshot())
	}
	c.logger.Debug("comments loaded", "file", fileName, "threads", e.threads.Len())
	return nil
}

// Mark labels the selected lines. The selection is normalized so a reversed
// drag behaves like a forward one. On success the service's canonical state
// is rendered if the file is still active; on failure the display is left
// untouched.
func (c *Controller) Mark(ctx context.Context, sel Selection, state model.ReviewState) error {
	r := model.LineRange{Start: sel.StartLine, End: sel.EndLine}.Ordered()
	seq := c.nextSeq()
	fresh, err := c.state.MarkRange(ctx, client.MarkRequest{
		FileName:   sel.FileName,
		StartLine:  r.Start,
		EndLine:    r.End,
		State:      state,
		TotalLines: sel.LineCount,
	})
	if err != nil {
		c.logger.Warn("update review state failed", "file", sel.FileName, "state", state, "error", err)
		return err
	}
	return c.apply(sel.FileName, sel.LineCount, fresh, 0, seq)
}

// Transform asks the service to recompute the file and renders the result.
func (c *Controller) Transform(ctx context.Context, fileName string, lineCount int) error {
	seq := c.nextSeq()
	fresh, err := c.state.Transform(ctx, fileName)
	if err != nil {
		c.logger.Warn("transform review state failed", "file", fileName, "error", err)
		return err
	}
	return c.apply(fileName, lineCount, fresh, 0, seq)
}

// CreateComment stores a comment and appends it to the line's thread once
// the service has assigned its id. Nothing is appended on failure.
func (c *Controller) CreateComment(ctx context.Context, fileName string, line int, body string) (model.Comment, error) {
	cm, err := c.comments.Create(ctx, fileName, line, body, c.author)
	if err != nil {
		c.logger.Warn("create comment failed", "file", fileName, "line", line, "error", err)
		return model.Comment{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	th := c.entry(fileName).threads.Append(line, cm)
	c.surface.RenderThread(fileName, line, th.Snapshot())
	return cm, nil
}

// DeleteComment removes a comment. The local removal happens whatever the
// service answers; the error is still returned for reporting.
func (c *Controller) DeleteComment(ctx context.Context, fileName string, line int, id int64) error {
	err := c.comments.Delete(ctx, fileName, line, id)
	if err != nil {
		c.logger.Warn("delete comment failed", "file", fileName, "line", line, "id", id, "error", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(fileName, line, id)
	return err
}

func (c *Controller) removeLocked(fileName string, line int, id int64) {
	threads := c.entry(fileName).threads
	if threads.Get(line) == nil {
		return
	}
	if threads.Remove(line, id) {
		c.surface.DisposeThread(fileName, line)
		return
	}
	c.surface.RenderThread(fileName, line, threads.Get(line).Snapshot())
}

// DeleteThread deletes every comment of a line's thread and disposes it.
func (c *Controller) DeleteThread(ctx context.Context, fileName string, line int) error {
	c.mu.Lock()
	var ids []int64
	if th := c.entry(fileName).threads.Get(line); th != nil {
		for _, cm := range th.Comments {
			ids = append(ids, cm.ID)
		}
	}
	c.mu.Unlock()

	var errs []error
	for _, id := range ids {
		if err := c.comments.Delete(ctx, fileName, line, id); err != nil {
			c.logger.Warn("delete comment failed", "file", fileName, "line", line, "id", id, "error", err)
			errs = append(errs, err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry(fileName).threads.Dispose(line)
	c.surface.DisposeThread(fileName, line)
	return errors.Join(errs...)
}

// EditComment switches a comment to editing mode.
func (c *Controller) EditComment(fileName string, line int, id int64) bool {
	return c.updateThread(fileName, line, func(th *thread.Thread) bool { return th.Edit(id) })
}

// SetCommentBody replaces the working text of a comment being edited.
func (c *Controller) SetCommentBody(fileName string, line int, id int64, body string) bool {
	return c.updateThread(fileName, line, func(th *thread.Thread) bool { return th.SetBody(id, body) })
}

// SaveComment keeps the edited text and returns the comment to preview.
func (c *Controller) SaveComment(fileName string, line int, id int64) bool {
	return c.updateThread(fileName, line, func(th *thread.Thread) bool { return th.Save(id) })
}

// CancelComment restores the last saved text and returns to preview.
func (c *Controller) CancelComment(fileName string, line int, id int64) bool {
	return c.updateThread(fileName, line, func(th *thread.Thread) bool { return th.Cancel(id) })
}

func (c *Controller) updateThread(fileName string, line int, fn func(*thread.Thread) bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.files[fileName]
	if !ok {
		return false
	}
	th := e.threads.Get(line)
	if th == nil || !fn(th) {
		return false
	}
	c.surface.RenderThread(fileName, line, th.Snapshot())
	return true
}

// File returns a copy of the cached state of fileName.
func (c *Controller) File(fileName string) (model.AuditedFile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.files[fileName]
	if !ok {
		return model.AuditedFile{}, false
	}
	f := e.file
	f.Intervals = append([]model.LabeledInterval(nil), e.file.Intervals...)
	return f, true
}

// Classification returns the last rendered classification of fileName.
func (c *Controller) Classification(fileName string) interval.Classification {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.files[fileName]
	if !ok {
		return nil
	}
	return append(interval.Classification(nil), e.classification...)
}

// Threads returns a copy of fileName's threads keyed by line.
func (c *Controller) Threads(fileName string) map[int][]model.Comment {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[int][]model.Comment)
	e, ok := c.files[fileName]
	if !ok {
		return out
	}
	for _, line := range e.threads.Lines() {
		out[line] = e.threads.Get(line).Snapshot()
	}
	return out
}
