package client

import (
	"context"
	"net/http"

	"github.com/sprite-ai/auditor/internal/model"
)

type metadataBody struct {
	FileName string       `json:"file_name"`
	Metadata metadataJSON `json:"metadata"`
}

type metadataJSON struct {
	Priority model.Priority `json:"priority"`
}

// FileInfo is one entry of the service's all-files overview.
type FileInfo struct {
	FileName    string                  `json:"file_name"`
	LineReviews LineReviews             `json:"line_reviews"`
	Comments    map[int][]RemoteComment `json:"comments"`
	Priority    *model.Priority         `json:"priority"`
}

// LineReviews is the stored classification plus the line count recorded
// at the last write.
type LineReviews struct {
	ReviewState
	TotalLines int `json:"total_lines"`
}

// Summary reduces the entry to line and comment counts.
func (fi FileInfo) Summary() model.FileSummary {
	s := model.FileSummary{FileName: fi.FileName, TotalLines: fi.LineReviews.TotalLines}
	count := func(pairs [][2]int) int {
		n := 0
		for _, p := range pairs {
			if p[1] >= p[0] {
				n += p[1] - p[0] + 1
			}
		}
		return n
	}
	s.Reviewed = count(fi.LineReviews.Reviewed)
	s.Modified = count(fi.LineReviews.Modified)
	s.Ignored = count(fi.LineReviews.Ignored)
	for _, thread := range fi.Comments {
		s.Comments += len(thread)
	}
	if fi.Priority != nil {
		s.Priority = *fi.Priority
	}
	return s
}

// UpdateMetadata sets the review priority of a file.
func (c *Client) UpdateMetadata(ctx context.Context, fileName string, priority model.Priority) error {
	body := metadataBody{FileName: fileName, Metadata: metadataJSON{Priority: priority}}
	return c.do(ctx, "UpdateMetadata", http.MethodPost, "metadata", nil, body, nil)
}

// FetchInfo reads the overview of every file the service knows about.
func (c *Client) FetchInfo(ctx context.Context) ([]FileInfo, error) {
	var infos []FileInfo
	if err := c.do(ctx, "FetchInfo", http.MethodGet, "info", nil, nil, &infos); err != nil {
		return nil, err
	}
	return infos, nil
}
