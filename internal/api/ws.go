package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/sprite-ai/auditor/internal/model"
	"github.com/sprite-ai/auditor/internal/projector"
	"github.com/sprite-ai/auditor/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024 * 64,
	WriteBufferSize: 1024 * 64,
	CheckOrigin: func(r *http.Request) bool {
		return true // local development only
	},
}

// WebSocket message types from the editor.
const (
	wsMsgActivate      = "activate"
	wsMsgMark          = "mark"
	wsMsgTransform     = "transform"
	wsMsgCreateComment = "create_comment"
	wsMsgDeleteComment = "delete_comment"
	wsMsgDeleteThread  = "delete_thread"
	wsMsgReset         = "reset"
)

// WebSocket message types to the editor.
const (
	wsMsgDecorations    = "decorations"
	wsMsgThread         = "thread"
	wsMsgThreadDisposed = "thread_disposed"
	wsMsgError          = "error"
)

// wsMessage is the envelope for WebSocket messages in both directions.
type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type wsDecorations struct {
	FileName string   `json:"file_name"`
	Reviewed [][2]int `json:"reviewed"`
	Modified [][2]int `json:"modified"`
	Ignored  [][2]int `json:"ignored"`
}

type wsThreadComment struct {
	ID     int64  `json:"id"`
	Body   string `json:"body"`
	Author string `json:"author"`
	Mode   string `json:"mode"`
}

type wsThread struct {
	FileName   string            `json:"file_name"`
	LineNumber int               `json:"line_number"`
	Comments   []wsThreadComment `json:"comments,omitempty"`
}

// wsSurface renders controller output as messages on one connection.
type wsSurface struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	logger *slog.Logger
}

func pairs(ranges []model.LineRange) [][2]int {
	out := make([][2]int, len(ranges))
	for i, r := range ranges {
		out[i] = [2]int{r.Start, r.End}
	}
	return out
}

func (ws *wsSurface) RenderDecorations(fileName string, b projector.Batches) {
	ws.send(wsMsgDecorations, wsDecorations{
		FileName: fileName,
		Reviewed: pairs(b.Reviewed),
		Modified: pairs(b.Modified),
		Ignored:  pairs(b.Ignored),
	})
}

func (ws *wsSurface) RenderThread(fileName string, line int, comments []model.Comment) {
	msg := wsThread{FileName: fileName, LineNumber: line}
	for _, c := range comments {
		msg.Comments = append(msg.Comments, wsThreadComment{
			ID:     c.ID,
			Body:   c.Body,
			Author: c.Author.Name,
			Mode:   c.Mode.String(),
		})
	}
	ws.send(wsMsgThread, msg)
}

func (ws *wsSurface) DisposeThread(fileName string, line int) {
	ws.send(wsMsgThreadDisposed, wsThread{FileName: fileName, LineNumber: line})
}

func (ws *wsSurface) sendError(msg string) {
	ws.send(wsMsgError, map[string]string{"message": msg})
}

func (ws *wsSurface) send(msgType string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		ws.logger.Warn("ws marshal", "error", err)
		return
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if err := ws.conn.WriteJSON(wsMessage{Type: msgType, Data: raw}); err != nil {
		ws.logger.Debug("ws write", "error", err)
	}
}

// handleWebSocket runs one session controller per connection. Messages are
// handled in arrival order on a worker goroutine so reading never blocks on
// the audit service.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.bridge == nil {
		writeError(w, http.StatusServiceUnavailable, "editor bridge is disabled")
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade", "error", err)
		return
	}
	defer conn.Close()

	logger := s.logger.With("conn", uuid.NewString())
	surface := &wsSurface{conn: conn, logger: logger}
	ctrl := session.New(s.bridge, s.bridge, surface,
		session.WithLogger(logger),
		session.WithExtensions(s.extensions),
	)

	ctx, cancel := context.WithCancel(r.Context())
	msgs := make(chan wsMessage, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range msgs {
			err := dispatch(ctx, ctrl, msg)
			var stale *session.StaleFileError
			if err != nil && !errors.As(err, &stale) {
				surface.sendError(err.Error())
			}
		}
	}()
	defer func() {
		cancel()
		close(msgs)
		<-done
	}()

	wsSessions.Inc()
	defer wsSessions.Dec()
	logger.Info("editor connected")

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket read", "error", err)
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			surface.sendError("invalid message format")
			continue
		}
		msgs <- msg
	}
}

var errUnknownMessage = errors.New("unknown message type")

var wsEventKinds = map[string]session.EventKind{
	wsMsgActivate:      session.EventActivate,
	wsMsgMark:          session.EventMark,
	wsMsgTransform:     session.EventTransform,
	wsMsgCreateComment: session.EventCreateComment,
	wsMsgDeleteComment: session.EventDeleteComment,
	wsMsgDeleteThread:  session.EventDeleteThread,
	wsMsgReset:         session.EventReset,
}

// wsEvent is the union of all incoming message payloads.
type wsEvent struct {
	FileName    string `json:"file_name"`
	LineCount   int    `json:"line_count"`
	StartLine   int    `json:"start_line"`
	EndLine     int    `json:"end_line"`
	ReviewState string `json:"review_state"`
	LineNumber  int    `json:"line_number"`
	Body        string `json:"body"`
	CommentID   int64  `json:"comment_id"`
}

// decodeEvent turns an incoming message into a controller event.
func decodeEvent(msg wsMessage) (session.Event, error) {
	kind, ok := wsEventKinds[msg.Type]
	if !ok {
		return session.Event{}, fmt.Errorf("%w: %s", errUnknownMessage, msg.Type)
	}
	var data wsEvent
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return session.Event{}, fmt.Errorf("invalid %s data", msg.Type)
		}
	}
	ev := session.Event{
		Kind:      kind,
		FileName:  data.FileName,
		LineCount: data.LineCount,
		StartLine: data.StartLine,
		EndLine:   data.EndLine,
		Line:      data.LineNumber,
		Body:      data.Body,
		CommentID: data.CommentID,
	}
	if kind == session.EventMark {
		state, err := model.ParseReviewState(data.ReviewState)
		if err != nil {
			return session.Event{}, err
		}
		ev.State = state
	}
	return ev, nil
}

func dispatch(ctx context.Context, ctrl *session.Controller, msg wsMessage) error {
	ev, err := decodeEvent(msg)
	if err != nil {
		return err
	}
	return ctrl.Dispatch(ctx, ev)
}
