package details

import (
	"encoding/json"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/unkn0wn-root/netlens/internal/capture"
	"github.com/unkn0wn-root/netlens/internal/share"
	"github.com/unkn0wn-root/netlens/internal/theme"
	"github.com/unkn0wn-root/netlens/internal/ui/header"
)

// headersView is a header row followed by one line per header entry. Nil
// headers mean the section is collapsed: no rows and nothing to share.
type headersView struct {
	header header.Header
	rows   []string
}

func newHeadersView(
	title string,
	hs capture.Headers,
	toggle func() tea.Cmd,
	expanded bool,
	sharer share.Sharer,
) headersView {
	props := header.Props{Title: title, OnExpandToggle: toggle, Expanded: expanded}
	v := headersView{}
	if hs != nil {
		props.ShareContent = headersShareContent(hs)
		v.rows = headerRows(hs)
	}
	v.header = header.New(props, sharer)
	return v
}

func headerRows(hs capture.Headers) []string {
	rows := make([]string, 0, len(hs))
	for _, h := range hs {
		rows = append(rows, h.Name+": "+h.Value)
	}
	return rows
}

func headersShareContent(hs capture.Headers) string {
	data, err := json.MarshalIndent(hs, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}

func (v headersView) View(th theme.Theme, width int, focused bool) string {
	head := v.header.View(th, width, focused)
	if len(v.rows) == 0 {
		return head
	}
	lines := make([]string, 0, len(v.rows))
	for _, row := range v.rows {
		name, value, _ := strings.Cut(row, ": ")
		lines = append(lines, th.HeaderKey.Render(name+":")+" "+th.HeaderValue.Render(value))
	}
	body := contentStyle(th, width).Render(strings.Join(lines, "\n"))
	return head + "\n" + body
}
