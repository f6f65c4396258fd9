package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// CommentID is a service-assigned comment identity. The service may encode
// it as a JSON number or as a numeric string.
type CommentID int64

// UnmarshalJSON accepts 7 and "7".
func (id *CommentID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("comment id %s: %w", data, err)
	}
	*id = CommentID(n)
	return nil
}

// RemoteComment is a comment as stored by the service.
type RemoteComment struct {
	ID     CommentID `json:"id"`
	Body   string    `json:"body"`
	Author string    `json:"author"`
}

type createCommentBody struct {
	FileName   string `json:"file_name"`
	LineNumber int    `json:"line_number"`
	Body       string `json:"body"`
	Author     string `json:"author"`
}

type deleteCommentBody struct {
	FileName   string `json:"file_name"`
	LineNumber int    `json:"line_number"`
	CommentID  string `json:"comment_id"`
}

// ErrInvalidCommentID is returned when the service answers a create with an
// id that is not a positive integer.
var ErrInvalidCommentID = errors.New("service returned an invalid comment id")

// FetchComments reads every thread of fileName keyed by line number.
func (c *Client) FetchComments(ctx context.Context, fileName string) (map[int][]RemoteComment, error) {
	threads := make(map[int][]RemoteComment)
	q := url.Values{"file_name": {fileName}}
	if err := c.do(ctx, "FetchComments", http.MethodGet, "comments", q, nil, &threads); err != nil {
		return nil, err
	}
	return threads, nil
}

// CreateComment stores a new comment and returns the id the service
// assigned. Every failure, including a missing or non-positive id, comes
// back as a *BackendError.
func (c *Client) CreateComment(ctx context.Context, fileName string, line int, body, author string) (int64, error) {
	req := createCommentBody{FileName: fileName, LineNumber: line, Body: body, Author: author}
	var id CommentID
	if err := c.do(ctx, "CreateComment", http.MethodPost, "comments", nil, req, &id); err != nil {
		return 0, &BackendError{Op: "CreateComment", Err: err}
	}
	if id <= 0 {
		return 0, &BackendError{Op: "CreateComment", Err: fmt.Errorf("%w: %d", ErrInvalidCommentID, id)}
	}
	return int64(id), nil
}

// DeleteComment removes a comment from its line's thread.
func (c *Client) DeleteComment(ctx context.Context, fileName string, line int, id int64) error {
	req := deleteCommentBody{FileName: fileName, LineNumber: line, CommentID: strconv.FormatInt(id, 10)}
	return c.do(ctx, "DeleteComment", http.MethodDelete, "comments", nil, req, nil)
}
