package details

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rivo/uniseg"

	"github.com/unkn0wn-root/netlens/internal/capture"
	"github.com/unkn0wn-root/netlens/internal/theme"
)

func renderSummary(th theme.Theme, rec *capture.Record, width int) string {
	if rec == nil {
		return th.SummaryDim.Render("no request")
	}
	method := strings.ToUpper(strings.TrimSpace(rec.Method))
	if method == "" {
		method = "GET"
	}
	parts := []string{
		th.Summary.Foreground(th.MethodColor(method)).Render(method),
		th.Summary.Foreground(th.StatusColor(rec.Status)).Render(statusText(rec)),
	}
	if d := formatDuration(rec.Duration()); d != "" {
		parts = append(parts, th.SummaryDim.Render(d))
	}
	if rec.ResponseSize > 0 {
		parts = append(parts, th.SummaryDim.Render(formatSize(rec.ResponseSize)))
	}
	left := strings.Join(parts, " ")

	url := rec.URL
	if width > 0 {
		url = clipGraphemes(url, width-lipgloss.Width(left)-1)
	}
	if url == "" {
		return left
	}
	return left + " " + th.HeaderValue.Render(url)
}

func statusText(rec *capture.Record) string {
	switch {
	case rec.Status > 0:
		return strconv.Itoa(rec.Status)
	case rec.Error != "":
		return "ERR"
	default:
		return "..."
	}
}

func formatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return ""
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}

func formatSize(n int) string {
	const (
		unit     = 1024
		prefixes = "KMGTPE"
	)
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := unit, 0
	for v := n / unit; v >= unit && exp < len(prefixes)-1; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%cB", float64(n)/float64(div), prefixes[exp])
}

// clipGraphemes cuts s to w cells on grapheme boundaries.
func clipGraphemes(s string, w int) string {
	if w <= 0 {
		return ""
	}
	if uniseg.StringWidth(s) <= w {
		return s
	}
	if w == 1 {
		return "…"
	}
	var b strings.Builder
	used := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		cw := g.Width()
		if used+cw > w-1 {
			break
		}
		b.WriteString(g.Str())
		used += cw
	}
	return b.String() + "…"
}
