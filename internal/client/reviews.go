package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sprite-ai/auditor/internal/interval"
	"github.com/sprite-ai/auditor/internal/model"
)

// ReviewState is the service's classification of one file: inclusive
// [start, end] line pairs per label.
type ReviewState struct {
	Reviewed [][2]int `json:"reviewed"`
	Modified [][2]int `json:"modified"`
	Ignored  [][2]int `json:"ignored"`
}

// Intervals converts the wire triple into labeled intervals.
func (s *ReviewState) Intervals() []model.LabeledInterval {
	if s == nil {
		return nil
	}
	return interval.FromRanges(s.Reviewed, s.Modified, s.Ignored)
}

// MarkRequest asks the service to label a range of lines.
type MarkRequest struct {
	FileName   string
	StartLine  int
	EndLine    int
	State      model.ReviewState
	TotalLines int
}

type markBody struct {
	FileName    string            `json:"file_name"`
	StartLine   int               `json:"start_line"`
	EndLine     int               `json:"end_line"`
	ReviewState model.ReviewState `json:"review_state"`
	TotalLines  int               `json:"total_lines"`
}

type transformBody struct {
	FileName string `json:"file_name"`
}

// FetchState reads the current classification of fileName. Concurrent reads
// of the same file share one request.
func (c *Client) FetchState(ctx context.Context, fileName string) (*ReviewState, error) {
	ch := c.fetches.DoChan(fileName, func() (any, error) {
		return c.fetchState(context.WithoutCancel(ctx), fileName)
	})
	select {
	case <-ctx.Done():
		return nil, &NetworkError{Op: "FetchState", Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*ReviewState), nil
	}
}

func (c *Client) fetchState(ctx context.Context, fileName string) (*ReviewState, error) {
	var state ReviewState
	q := url.Values{"file_name": {fileName}}
	if err := c.do(ctx, "FetchState", http.MethodGet, "reviews", q, nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// MarkRange labels a range of lines, then re-reads the file's canonical
// state. Reversed bounds are swapped first. The write's own response is not
// trusted; only the follow-up read is returned.
func (c *Client) MarkRange(ctx context.Context, req MarkRequest) (*ReviewState, error) {
	if _, err := model.ParseReviewState(string(req.State)); err != nil {
		return nil, fmt.Errorf("MarkRange: %w", err)
	}
	r := model.LineRange{Start: req.StartLine, End: req.EndLine}.Ordered()
	body := markBody{
		FileName:    req.FileName,
		StartLine:   r.Start,
		EndLine:     r.End,
		ReviewState: req.State,
		TotalLines:  req.TotalLines,
	}
	if err := c.do(ctx, "MarkRange", http.MethodPost, "reviews", nil, body, nil); err != nil {
		return nil, err
	}
	return c.refetch(ctx, req.FileName)
}

// Transform asks the service to recompute the file's classification, then
// re-reads it.
func (c *Client) Transform(ctx context.Context, fileName string) (*ReviewState, error) {
	if err := c.do(ctx, "Transform", http.MethodPost, "transform", nil, transformBody{FileName: fileName}, nil); err != nil {
		return nil, err
	}
	return c.refetch(ctx, fileName)
}

// refetch reads state after a write. It never joins a read that may have
// started before the write landed.
func (c *Client) refetch(ctx context.Context, fileName string) (*ReviewState, error) {
	c.fetches.Forget(fileName)
	return c.fetchState(ctx, fileName)
}
