// Package tui implements the Bubble Tea terminal editor for auditing files:
// it shows each file's classification as line backgrounds and its comment
// threads inline, and turns key presses into session controller calls.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sprite-ai/auditor/internal/model"
	"github.com/sprite-ai/auditor/internal/session"
)

// Controller is what the model drives.
type Controller interface {
	Activate(ctx context.Context, fileName string, lineCount int) error
	Mark(ctx context.Context, sel session.Selection, state model.ReviewState) error
	Transform(ctx context.Context, fileName string, lineCount int) error
	CreateComment(ctx context.Context, fileName string, line int, body string) (model.Comment, error)
	DeleteComment(ctx context.Context, fileName string, line int, id int64) error
	DeleteThread(ctx context.Context, fileName string, line int) error
	EditComment(fileName string, line int, id int64) bool
	SetCommentBody(fileName string, line int, id int64, body string) bool
	SaveComment(fileName string, line int, id int64) bool
	CancelComment(fileName string, line int, id int64) bool
	Reset()
}

// doneMsg reports the end of a controller call.
type doneMsg struct {
	action string
	err    error
}

type inputMode int

const (
	inputNone inputMode = iota
	inputComment
	inputEdit
)

// Model is the top-level Bubble Tea model.
type Model struct {
	ctx     context.Context
	ctrl    Controller
	surface *Surface

	files     []SourceFile
	spans     [][]span
	fileIndex int

	// UI state
	width      int
	height     int
	viewHeight int

	cursor       int
	anchor       int // selection start, -1 when not selecting
	scrollOffset int

	input     textinput.Model
	mode      inputMode
	editingID int64

	status   string
	statusOK bool
	showHelp bool
}

// New creates a model over files. Activation of the first file happens in
// Init.
func New(ctx context.Context, files []SourceFile, ctrl Controller, surface *Surface) Model {
	ti := textinput.New()
	ti.Placeholder = "comment"
	ti.CharLimit = 2000
	m := Model{
		ctx:     ctx,
		ctrl:    ctrl,
		surface: surface,
		files:   files,
		anchor:  -1,
		input:   ti,
	}
	m.loadFile()
	return m
}

func (m *Model) loadFile() {
	m.cursor, m.scrollOffset, m.anchor = 0, 0, -1
	if len(m.files) == 0 {
		m.spans = nil
		return
	}
	m.spans = highlight(m.files[m.fileIndex])
}

func (m Model) current() (SourceFile, bool) {
	if len(m.files) == 0 {
		return SourceFile{}, false
	}
	return m.files[m.fileIndex], true
}

// run executes fn off the UI goroutine and reports back with a doneMsg.
func (m Model) run(action string, fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return doneMsg{action: action, err: fn(ctx)}
	}
}

func (m Model) activate() tea.Cmd {
	f, ok := m.current()
	if !ok {
		return nil
	}
	return m.run("open "+f.Name, func(ctx context.Context) error {
		return m.ctrl.Activate(ctx, f.Name, len(f.Lines))
	})
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.activate()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewHeight = m.height - 7 // borders, header, status bar
		if m.viewHeight < 1 {
			m.viewHeight = 1
		}
		m.input.Width = m.width - 20
		return m, nil

	case doneMsg:
		var stale *session.StaleFileError
		switch {
		case msg.err == nil:
			m.status, m.statusOK = msg.action, true
		case errors.As(msg.err, &stale):
		default:
			m.status, m.statusOK = msg.action+": "+msg.err.Error(), false
		}
		return m, nil

	case tea.KeyMsg:
		if m.mode != inputNone {
			return m.updateInput(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f, ok := m.current()
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Help):
		m.showHelp = !m.showHelp

	case !ok:

	case key.Matches(msg, keys.Down):
		m.moveCursor(1)

	case key.Matches(msg, keys.Up):
		m.moveCursor(-1)

	case key.Matches(msg, keys.PageDown):
		m.moveCursor(m.viewHeight)

	case key.Matches(msg, keys.PageUp):
		m.moveCursor(-m.viewHeight)

	case key.Matches(msg, keys.NextFile):
		if m.fileIndex < len(m.files)-1 {
			m.fileIndex++
			m.loadFile()
			return m, m.activate()
		}

	case key.Matches(msg, keys.PrevFile):
		if m.fileIndex > 0 {
			m.fileIndex--
			m.loadFile()
			return m, m.activate()
		}

	case key.Matches(msg, keys.Select):
		if m.anchor < 0 {
			m.anchor = m.cursor
		} else {
			m.anchor = -1
		}

	case key.Matches(msg, keys.Reviewed):
		return m.mark(f, model.StateReviewed)
	case key.Matches(msg, keys.Modified):
		return m.mark(f, model.StateModified)
	case key.Matches(msg, keys.Ignored):
		return m.mark(f, model.StateIgnored)
	case key.Matches(msg, keys.Clear):
		return m.mark(f, model.StateCleared)

	case key.Matches(msg, keys.Transform):
		return m, m.run("transform", func(ctx context.Context) error {
			return m.ctrl.Transform(ctx, f.Name, len(f.Lines))
		})

	case key.Matches(msg, keys.Comment):
		m.mode = inputComment
		m.input.SetValue("")
		m.input.Focus()
		return m, textinput.Blink

	case key.Matches(msg, keys.Edit):
		c, ok := m.lastComment()
		if !ok || !m.ctrl.EditComment(f.Name, m.cursor, c.ID) {
			return m, nil
		}
		m.mode = inputEdit
		m.editingID = c.ID
		m.input.SetValue(c.Body)
		m.input.Focus()
		return m, textinput.Blink

	case key.Matches(msg, keys.Delete):
		c, ok := m.lastComment()
		if !ok {
			return m, nil
		}
		line := m.cursor
		return m, m.run("delete comment", func(ctx context.Context) error {
			return m.ctrl.DeleteComment(ctx, f.Name, line, c.ID)
		})

	case key.Matches(msg, keys.DeleteAll):
		line := m.cursor
		if m.surface.thread(f.Name, line) == nil {
			return m, nil
		}
		return m, m.run("delete thread", func(ctx context.Context) error {
			return m.ctrl.DeleteThread(ctx, f.Name, line)
		})

	case key.Matches(msg, keys.Reload):
		m.ctrl.Reset()
		return m, m.activate()
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f, _ := m.current()
	line := m.cursor
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit

	case tea.KeyEsc:
		if m.mode == inputEdit {
			m.ctrl.CancelComment(f.Name, line, m.editingID)
		}
		m.mode = inputNone
		m.input.Blur()
		return m, nil

	case tea.KeyEnter:
		body := strings.TrimSpace(m.input.Value())
		mode, id := m.mode, m.editingID
		m.mode = inputNone
		m.input.Blur()
		if mode == inputEdit {
			m.ctrl.SetCommentBody(f.Name, line, id, body)
			m.ctrl.SaveComment(f.Name, line, id)
			return m, nil
		}
		if body == "" {
			return m, nil
		}
		return m, m.run("comment", func(ctx context.Context) error {
			_, err := m.ctrl.CreateComment(ctx, f.Name, line, body)
			return err
		})
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.mode == inputEdit {
		m.ctrl.SetCommentBody(f.Name, line, m.editingID, m.input.Value())
	}
	return m, cmd
}

func (m Model) mark(f SourceFile, state model.ReviewState) (tea.Model, tea.Cmd) {
	sel := m.selection(f)
	m.anchor = -1
	return m, m.run(strings.ToLower(string(state)), func(ctx context.Context) error {
		return m.ctrl.Mark(ctx, sel, state)
	})
}

// selection is the active selection, or the cursor line alone. Start is
// where the selection began, so it may lie after End.
func (m Model) selection(f SourceFile) session.Selection {
	start := m.cursor
	if m.anchor >= 0 {
		start = m.anchor
	}
	return session.Selection{FileName: f.Name, LineCount: len(f.Lines), StartLine: start, EndLine: m.cursor}
}

func (m Model) lastComment() (model.Comment, bool) {
	f, ok := m.current()
	if !ok {
		return model.Comment{}, false
	}
	thread := m.surface.thread(f.Name, m.cursor)
	if len(thread) == 0 {
		return model.Comment{}, false
	}
	return thread[len(thread)-1], true
}

func (m *Model) moveCursor(delta int) {
	f, _ := m.current()
	m.cursor += delta
	if m.cursor >= len(f.Lines) {
		m.cursor = len(f.Lines) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor < m.scrollOffset {
		m.scrollOffset = m.cursor
	}
	if m.viewHeight > 0 && m.cursor >= m.scrollOffset+m.viewHeight {
		m.scrollOffset = m.cursor - m.viewHeight + 1
	}
}

func (m Model) selected(line int) bool {
	if m.anchor < 0 {
		return false
	}
	r := model.LineRange{Start: m.anchor, End: m.cursor}.Ordered()
	return r.Contains(line)
}

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	listWidth := m.fileListWidth()
	sourceWidth := m.width - listWidth - 1

	list := m.renderFileList(listWidth, m.height-2)
	source := m.renderSource(sourceWidth, m.height-2)
	main := lipgloss.JoinHorizontal(lipgloss.Top, list, " ", source)

	return lipgloss.JoinVertical(lipgloss.Left, main, m.renderStatusBar())
}

func (m Model) fileListWidth() int {
	w := 20
	for _, f := range m.files {
		w = max(w, len(f.Name)+6)
	}
	return min(max(w, 20), max(m.width/3, 20))
}

func (m Model) renderFileList(width, height int) string {
	var b strings.Builder
	maxName := width - 4
	for i, f := range m.files {
		name := f.Name
		if maxName > 1 && len(name) > maxName {
			name = "…" + name[len(name)-maxName+1:]
		}

		style := fileItemStyle
		if i == m.fileIndex {
			style = fileItemSelectedStyle
		} else if m.done(f) {
			style = fileItemDoneStyle
		}
		b.WriteString(style.Width(width - 4).Render(name))
		if i < len(m.files)-1 {
			b.WriteByte('\n')
		}
	}
	return fileListStyle.Width(width).Height(height - 2).Render(b.String())
}

// done reports whether every line of f is reviewed or ignored.
func (m Model) done(f SourceFile) bool {
	if len(f.Lines) == 0 {
		return false
	}
	for _, l := range m.surface.labels(f.Name, len(f.Lines)) {
		if l != model.LabelReviewed && l != model.LabelIgnored {
			return false
		}
	}
	return true
}

func (m Model) renderSource(width, height int) string {
	f, ok := m.current()
	if !ok {
		return sourceViewStyle.Width(width).Height(height - 2).Render("No files")
	}
	inner := width - 4

	var b strings.Builder
	b.WriteString(fileHeaderStyle.Render(f.Name))
	b.WriteByte('\n')

	labels := m.surface.labels(f.Name, len(f.Lines))
	rows := 0
	for i := m.scrollOffset; i < len(f.Lines) && rows < m.viewHeight; i++ {
		if rows > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(renderLine(i, m.spans[i], labels[i], i == m.cursor, m.selected(i), inner))
		rows++
		if thread := m.surface.thread(f.Name, i); len(thread) > 0 {
			b.WriteByte('\n')
			b.WriteString(renderThread(thread, inner))
			rows += len(thread)
		}
	}
	if m.mode != inputNone {
		b.WriteString("\n\n")
		b.WriteString(m.input.View())
	}
	return sourceViewStyle.Width(width).Height(height - 2).Render(b.String())
}

func (m Model) renderStatusBar() string {
	f, _ := m.current()
	left := fmt.Sprintf(" File %d/%d", m.fileIndex+1, len(m.files))
	if len(f.Lines) > 0 {
		left += fmt.Sprintf("  Line %d/%d", m.cursor+1, len(f.Lines))
	}
	if m.anchor >= 0 {
		r := model.LineRange{Start: m.anchor, End: m.cursor}.Ordered()
		left += fmt.Sprintf("  Sel %d-%d", r.Start+1, r.End+1)
	}
	if n := m.surface.threadCount(f.Name); n > 0 {
		left += fmt.Sprintf("  %d threads", n)
	}

	right := m.status + "  ? help "
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	style := statusBarStyle
	if !m.statusOK && m.status != "" {
		style = statusErrorStyle
	}
	return style.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(fileHeaderStyle.Render("auditor: keyboard shortcuts"))
	b.WriteString("\n\n")

	for _, k := range []key.Binding{
		keys.Up, keys.Down, keys.PageUp, keys.PageDown, keys.NextFile, keys.PrevFile,
		keys.Select, keys.Reviewed, keys.Modified, keys.Ignored, keys.Clear, keys.Transform,
		keys.Comment, keys.Edit, keys.Delete, keys.DeleteAll, keys.Reload, keys.Help, keys.Quit,
	} {
		h := k.Help()
		fmt.Fprintf(&b, "  %s  %s\n", helpKeyStyle.Width(12).Render(h.Key), h.Desc)
	}
	b.WriteString("\n")
	b.WriteString(helpBarStyle.Render("Press ? to close help"))
	return b.String()
}

// Run starts the terminal editor.
func Run(ctx context.Context, files []SourceFile, ctrl Controller, surface *Surface) error {
	p := tea.NewProgram(New(ctx, files, ctrl, surface), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
