package tui

import (
	"sync"

	"github.com/sprite-ai/auditor/internal/model"
	"github.com/sprite-ai/auditor/internal/projector"
)

// Surface collects what the session controller wants displayed. The model
// reads it on every View, so controller callbacks never touch the Bubble Tea
// loop directly.
type Surface struct {
	mu          sync.Mutex
	decorations map[string]projector.Batches
	threads     map[string]map[int][]model.Comment
}

// NewSurface returns an empty surface.
func NewSurface() *Surface {
	return &Surface{
		decorations: make(map[string]projector.Batches),
		threads:     make(map[string]map[int][]model.Comment),
	}
}

func (s *Surface) RenderDecorations(fileName string, b projector.Batches) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decorations[fileName] = b
}

func (s *Surface) RenderThread(fileName string, line int, comments []model.Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.threads[fileName] == nil {
		s.threads[fileName] = make(map[int][]model.Comment)
	}
	s.threads[fileName][line] = comments
}

func (s *Surface) DisposeThread(fileName string, line int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.threads[fileName], line)
}

// labels expands the decorations of fileName into one label per line.
func (s *Surface) labels(fileName string, lineCount int) []model.Label {
	s.mu.Lock()
	b := s.decorations[fileName]
	s.mu.Unlock()

	out := make([]model.Label, lineCount)
	for _, label := range model.Labels {
		for _, r := range b.For(label) {
			for line := max(r.Start, 0); line <= r.End && line < lineCount; line++ {
				out[line] = label
			}
		}
	}
	return out
}

// thread returns the comments shown at line, or nil.
func (s *Surface) thread(fileName string, line int) []model.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.threads[fileName][line]
}

// threadCount is the number of threads shown for fileName.
func (s *Surface) threadCount(fileName string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.threads[fileName])
}
