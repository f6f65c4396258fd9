package session

import (
	"context"
	"fmt"

	"github.com/sprite-ai/auditor/internal/model"
)

// EventKind names an editor event.
type EventKind int

const (
	// EventActivate is the editor switching to a file.
	EventActivate EventKind = iota
	EventMark
	EventTransform
	EventCreateComment
	EventDeleteComment
	EventDeleteThread
	EventReset
)

func (k EventKind) String() string {
	switch k {
	case EventActivate:
		return "activate"
	case EventMark:
		return "mark"
	case EventTransform:
		return "transform"
	case EventCreateComment:
		return "create_comment"
	case EventDeleteComment:
		return "delete_comment"
	case EventDeleteThread:
		return "delete_thread"
	case EventReset:
		return "reset"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is one editor notification or user action. Only the fields the
// kind needs are read.
type Event struct {
	Kind      EventKind
	FileName  string
	LineCount int

	// Mark
	StartLine int
	EndLine   int
	State     model.ReviewState

	// Comments
	Line      int
	Body      string
	CommentID int64
}

// Dispatch routes an event to the matching controller operation.
func (c *Controller) Dispatch(ctx context.Context, ev Event) error {
	switch ev.Kind {
	case EventActivate:
		return c.Activate(ctx, ev.FileName, ev.LineCount)
	case EventMark:
		return c.Mark(ctx, Selection{
			FileName:  ev.FileName,
			LineCount: ev.LineCount,
			StartLine: ev.StartLine,
			EndLine:   ev.EndLine,
		}, ev.State)
	case EventTransform:
		return c.Transform(ctx, ev.FileName, ev.LineCount)
	case EventCreateComment:
		_, err := c.CreateComment(ctx, ev.FileName, ev.Line, ev.Body)
		return err
	case EventDeleteComment:
		return c.DeleteComment(ctx, ev.FileName, ev.Line, ev.CommentID)
	case EventDeleteThread:
		return c.DeleteThread(ctx, ev.FileName, ev.Line)
	case EventReset:
		c.Reset()
		return nil
	}
	return fmt.Errorf("unknown event %v", ev.Kind)
}
