package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/sprite-ai/auditor/internal/model"
	"github.com/sprite-ai/auditor/internal/store"
)

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Reviews ---

type reviewStateJSON struct {
	Reviewed [][2]int `json:"reviewed"`
	Modified [][2]int `json:"modified"`
	Ignored  [][2]int `json:"ignored"`
}

func stateOf(rec *store.FileRecord) reviewStateJSON {
	return reviewStateJSON{Reviewed: rec.Reviewed, Modified: rec.Modified, Ignored: rec.Ignored}
}

type markRequest struct {
	FileName    string `json:"file_name"`
	StartLine   int    `json:"start_line"`
	EndLine     int    `json:"end_line"`
	ReviewState string `json:"review_state"`
	TotalLines  int    `json:"total_lines"`
}

func (s *Server) handleGetReviews(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("file_name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "file_name is required")
		return
	}

	rec, err := s.store.Get(r.Context(), s.fileName(name))
	if err != nil {
		s.internalError(w, "get review state", err)
		return
	}
	writeJSON(w, http.StatusOK, stateOf(rec))
}

func (s *Server) handleMarkReviews(w http.ResponseWriter, r *http.Request) {
	var req markRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if req.FileName == "" {
		writeError(w, http.StatusBadRequest, "file_name is required")
		return
	}
	state, err := model.ParseReviewState(req.ReviewState)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.StartLine < 0 || req.EndLine < 0 {
		writeError(w, http.StatusBadRequest, "line numbers must not be negative")
		return
	}

	head := s.head(r)
	err = s.store.Update(r.Context(), s.fileName(req.FileName), func(rec *store.FileRecord) error {
		rec.Mark(state, req.StartLine, req.EndLine)
		rec.TotalLines = req.TotalLines
		if rec.Commit == "" {
			rec.Commit = head
		}
		return nil
	})
	if err != nil {
		s.internalError(w, "update review state", err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// head returns the working tree's commit, or "" without a repository.
func (s *Server) head(r *http.Request) string {
	if s.repo == nil {
		return ""
	}
	head, err := s.repo.Head(r.Context())
	if err != nil {
		s.logger.Warn("reading head commit", "error", err)
		return ""
	}
	return head
}

// --- Transform ---

type transformRequest struct {
	FileName string `json:"file_name"`
}

// handleTransform marks the lines added since the file's recorded commit as
// Modified and moves the record to the current commit.
func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	var req transformRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if req.FileName == "" {
		writeError(w, http.StatusBadRequest, "file_name is required")
		return
	}
	name := s.fileName(req.FileName)

	var result *store.FileRecord
	err := s.store.Update(r.Context(), name, func(rec *store.FileRecord) error {
		if s.repo != nil {
			head, err := s.repo.Head(r.Context())
			if err != nil {
				return err
			}
			added, err := s.repo.AddedLines(r.Context(), rec.Commit, name)
			if err != nil {
				return err
			}
			rec.MarkLines(model.StateModified, added)
			rec.Commit = head
		}
		result = rec
		return nil
	})
	if err != nil {
		s.internalError(w, "transform review state", err)
		return
	}
	writeJSON(w, http.StatusCreated, stateOf(result))
}

// --- Comments ---

type commentJSON struct {
	ID     int64  `json:"id,string"`
	Body   string `json:"body"`
	Author string `json:"author"`
}

func commentsOf(rec *store.FileRecord) map[int][]commentJSON {
	out := make(map[int][]commentJSON, len(rec.Comments))
	for line, thread := range rec.Comments {
		for _, c := range thread {
			out[line] = append(out[line], commentJSON{ID: c.ID, Body: c.Body, Author: c.Author})
		}
	}
	return out
}

type createCommentRequest struct {
	FileName   string `json:"file_name"`
	LineNumber int    `json:"line_number"`
	Body       string `json:"body"`
	Author     string `json:"author"`
}

type deleteCommentRequest struct {
	FileName   string `json:"file_name"`
	LineNumber int    `json:"line_number"`
	CommentID  string `json:"comment_id"`
}

func (s *Server) handleGetComments(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("file_name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "file_name is required")
		return
	}
	rec, err := s.store.Get(r.Context(), s.fileName(name))
	if err != nil {
		s.internalError(w, "get comments", err)
		return
	}
	writeJSON(w, http.StatusOK, commentsOf(rec))
}

// handleCreateComment answers with the new comment's id as a JSON string.
func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	var req createCommentRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if req.FileName == "" || req.LineNumber < 0 {
		writeError(w, http.StatusBadRequest, "file_name and a non-negative line_number are required")
		return
	}

	id, err := s.store.NextCommentID(r.Context())
	if err != nil {
		s.internalError(w, "allocate comment id", err)
		return
	}
	err = s.store.Update(r.Context(), s.fileName(req.FileName), func(rec *store.FileRecord) error {
		rec.AddComment(req.LineNumber, store.Comment{ID: id, Body: req.Body, Author: req.Author})
		return nil
	})
	if err != nil {
		s.internalError(w, "create comment", err)
		return
	}
	writeJSON(w, http.StatusCreated, strconv.FormatInt(id, 10))
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	var req deleteCommentRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	id, err := strconv.ParseInt(req.CommentID, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid comment_id")
		return
	}

	err = s.store.Update(r.Context(), s.fileName(req.FileName), func(rec *store.FileRecord) error {
		if !rec.DeleteComment(req.LineNumber, id) {
			return fmt.Errorf("comment %d on line %d: %w", id, req.LineNumber, store.ErrNotFound)
		}
		return nil
	})
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		s.internalError(w, "delete comment", err)
	default:
		w.WriteHeader(http.StatusCreated)
	}
}

// --- Metadata ---

type metadataRequest struct {
	FileName string `json:"file_name"`
	Metadata struct {
		Priority string `json:"priority"`
	} `json:"metadata"`
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	var req metadataRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	priority, err := model.ParsePriority(req.Metadata.Priority)
	if err != nil || req.FileName == "" {
		writeError(w, http.StatusBadRequest, "file_name and a known priority are required")
		return
	}

	err = s.store.Update(r.Context(), s.fileName(req.FileName), func(rec *store.FileRecord) error {
		rec.Priority = &priority
		return nil
	})
	if err != nil {
		s.internalError(w, "update metadata", err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// --- Info ---

type lineReviewsJSON struct {
	reviewStateJSON
	TotalLines int `json:"total_lines"`
}

type fileInfoJSON struct {
	FileName    string                `json:"file_name"`
	LineReviews lineReviewsJSON       `json:"line_reviews"`
	Comments    map[int][]commentJSON `json:"comments"`
	Priority    *model.Priority       `json:"priority"`
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.List(r.Context())
	if err != nil {
		s.internalError(w, "list files", err)
		return
	}

	infos := make([]fileInfoJSON, 0, len(records))
	for _, rec := range records {
		if !s.listed(rec.FileName) {
			continue
		}
		infos = append(infos, fileInfoJSON{
			FileName:    rec.FileName,
			LineReviews: lineReviewsJSON{reviewStateJSON: stateOf(rec), TotalLines: rec.TotalLines},
			Comments:    commentsOf(rec),
			Priority:    rec.Priority,
		})
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	s.logger.Error(op, "error", err)
	writeError(w, http.StatusInternalServerError, op+": "+err.Error())
}
