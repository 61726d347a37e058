package details

import (
	"strings"

	"github.com/alecthomas/chroma"
	"github.com/alecthomas/chroma/formatters"
	"github.com/alecthomas/chroma/lexers"
	"github.com/alecthomas/chroma/styles"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/unkn0wn-root/netlens/internal/theme"
)

const defaultHighlightStyle = "monokai"

// largeText shows a possibly huge body inside a fixed-height viewport.
// Lines are wrapped, never boxed, so the text stays selectable.
type largeText struct {
	vp   viewport.Model
	text string

	cache   wrapKey
	lines   int
	renders int
}

// wrapKey identifies a rendered body. Highlighting and wrapping a large body
// is expensive, so it only happens when one of these changes.
type wrapKey struct {
	text  string
	width int
	hl    highlighter
}

func newLargeText() largeText {
	return largeText{vp: viewport.New(0, 0)}
}

// SetText reflows text into the viewport. The scroll offset survives as long
// as the text itself does not change.
func (lt *largeText) SetText(text string, width, maxHeight int, hl highlighter) {
	changed := text != lt.text
	lt.text = text
	if text == "" {
		lt.vp.SetContent("")
		lt.vp.Width, lt.vp.Height = 0, 0
		lt.cache, lt.lines = wrapKey{}, 0
		return
	}
	if width < 1 {
		width = 1
	}
	key := wrapKey{text: text, width: width, hl: hl}
	if key != lt.cache {
		wrapped := ansi.Wrap(hl.apply(text), width, "")
		lt.lines = strings.Count(wrapped, "\n") + 1
		lt.vp.SetContent(wrapped)
		lt.cache = key
		lt.renders++
	}

	height := maxHeight
	if height < 1 || lt.lines < height {
		height = lt.lines
	}
	lt.vp.Width = width
	lt.vp.Height = height
	if changed {
		lt.vp.GotoTop()
	} else {
		lt.vp.SetYOffset(lt.vp.YOffset)
	}
}

func (lt *largeText) Scroll(delta int) {
	if lt.text == "" || delta == 0 {
		return
	}
	if delta > 0 {
		lt.vp.LineDown(delta)
		return
	}
	lt.vp.LineUp(-delta)
}

func (lt largeText) PageSize() int {
	if lt.vp.Height < 1 {
		return 1
	}
	return lt.vp.Height
}

func (lt largeText) View(th theme.Theme, width int) string {
	if lt.text == "" {
		return ""
	}
	return contentStyle(th, width).Render(lt.vp.View())
}

func contentStyle(th theme.Theme, width int) lipgloss.Style {
	if width <= 0 {
		return th.Content
	}
	return th.Content.Width(width)
}

// highlighter colours bodies with chroma. The zero value leaves text as is.
type highlighter struct {
	enabled bool
	style   string
	lexer   string
}

func (h highlighter) apply(text string) string {
	if !h.enabled || text == "" {
		return text
	}
	var lexer chroma.Lexer
	if h.lexer != "" {
		lexer = lexers.Get(h.lexer)
	}
	if lexer == nil {
		lexer = lexers.Analyse(text)
	}
	if lexer == nil {
		return text
	}
	it, err := chroma.Coalesce(lexer).Tokenise(nil, text)
	if err != nil {
		return text
	}
	name := h.style
	if name == "" {
		name = defaultHighlightStyle
	}
	var b strings.Builder
	if err := formatters.Get("terminal256").Format(&b, styles.Get(name), it); err != nil {
		return text
	}
	return strings.TrimRight(b.String(), "\n")
}

// lexerFor maps a content type onto a chroma lexer name. Without a usable
// content type the text itself decides between JSON and letting chroma guess.
func lexerFor(contentType, text string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "json"):
		return "json"
	case strings.Contains(ct, "xml"):
		return "xml"
	case strings.Contains(ct, "html"):
		return "html"
	case strings.Contains(ct, "javascript"):
		return "javascript"
	case strings.Contains(ct, "yaml"):
		return "yaml"
	}
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return "json"
	}
	return ""
}
