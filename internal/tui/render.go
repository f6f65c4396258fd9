package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/sprite-ai/auditor/internal/model"
)

// SourceFile is a file opened for auditing.
type SourceFile struct {
	Name  string
	Lines []string
}

// NewSourceFile splits content into lines. A trailing newline does not add
// an empty last line.
func NewSourceFile(name, content string) SourceFile {
	content = strings.TrimSuffix(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	if content == "" {
		return SourceFile{Name: name}
	}
	return SourceFile{Name: name, Lines: strings.Split(content, "\n")}
}

// span is a run of text sharing one foreground color.
type span struct {
	text  string
	color string
}

// highlight tokenises the file once and returns the colored spans of each
// line. Unknown languages come back as plain text.
func highlight(f SourceFile) [][]span {
	out := make([][]span, len(f.Lines))
	lexer := lexerFor(f.Name)
	if lexer == nil {
		return plain(f.Lines)
	}
	it, err := lexer.Tokenise(nil, strings.Join(f.Lines, "\n"))
	if err != nil {
		return plain(f.Lines)
	}
	style := styles.Get("dracula")
	if style == nil {
		style = styles.Fallback
	}

	line := 0
	for _, tok := range it.Tokens() {
		color := ""
		if entry := style.Get(tok.Type); entry.Colour.IsSet() {
			color = entry.Colour.String()
		}
		for i, part := range strings.Split(tok.Value, "\n") {
			if i > 0 {
				line++
			}
			if part != "" && line < len(out) {
				out[line] = append(out[line], span{text: part, color: color})
			}
		}
	}
	return out
}

func plain(lines []string) [][]span {
	out := make([][]span, len(lines))
	for i, l := range lines {
		out[i] = []span{{text: l}}
	}
	return out
}

func lexerFor(name string) chroma.Lexer {
	lexer := lexers.Match(filepath.Base(name))
	if lexer == nil {
		if ext := filepath.Ext(name); ext != "" {
			lexer = lexers.Match("file" + ext)
		}
	}
	if lexer == nil {
		return nil
	}
	return chroma.Coalesce(lexer)
}

// renderLine draws one source line: number, label marker, highlighted text
// on the label's background.
func renderLine(num int, spans []span, label model.Label, cursor, selected bool, width int) string {
	bg := labelStyle(label)
	if selected {
		bg = bg.Background(colorSelectBg)
	}

	var b strings.Builder
	for _, sp := range spans {
		st := bg
		if sp.color != "" {
			st = st.Foreground(lipgloss.Color(sp.color))
		}
		b.WriteString(st.Render(expandTabs(sp.text)))
	}

	gutter := lineNumberStyle.Render(fmt.Sprintf("%d", num+1))
	if cursor {
		gutter = lineNumberStyle.Foreground(colorYellow).Bold(true).Render(fmt.Sprintf("%d", num+1))
	}
	body := b.String()
	if pad := width - 8 - lipgloss.Width(body); pad > 0 {
		body += bg.Render(strings.Repeat(" ", pad))
	}
	return gutter + " " + labelMarker(label) + " " + body
}

// renderThread draws a comment thread below its line.
func renderThread(comments []model.Comment, width int) string {
	var lines []string
	for _, c := range comments {
		body := c.Body
		if c.Mode == model.ModeEditing {
			body = threadEditingStyle.Render(body + " (editing)")
		}
		text := threadAuthorStyle.Render(c.Author.Name+":") + " " + body
		lines = append(lines, threadStyle.Width(max(width, 20)).Render("┃ "+text))
	}
	return strings.Join(lines, "\n")
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}
