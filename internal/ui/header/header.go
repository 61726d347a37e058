// Package header renders a titled row with optional share and expand
// controls. It holds no state of its own; every interaction is forwarded to
// the callbacks its parent supplies.
package header

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/unkn0wn-root/netlens/internal/share"
	"github.com/unkn0wn-root/netlens/internal/theme"
)

const (
	ShareIcon    = "⇪"
	ExpandIcon   = "▸"
	CollapseIcon = "▾"
	ellipsis     = "…"
)

type Props struct {
	Title        string
	ShareContent string
	// OnExpandToggle is called when the expand control is invoked. Nil hides
	// the control.
	OnExpandToggle func() tea.Cmd
	// Expanded only picks the icon; the parent owns the actual state.
	Expanded bool
}

type Header struct {
	Props
	Sharer share.Sharer
}

func New(p Props, s share.Sharer) Header {
	return Header{Props: p, Sharer: s}
}

func (h Header) HasShare() bool {
	return h.ShareContent != ""
}

func (h Header) HasExpand() bool {
	return h.OnExpandToggle != nil
}

// Share hands ShareContent to the sharer verbatim.
func (h Header) Share() tea.Cmd {
	if !h.HasShare() {
		return nil
	}
	return share.Cmd(h.Sharer, share.Message{Message: h.ShareContent})
}

func (h Header) Toggle() tea.Cmd {
	if !h.HasExpand() {
		return nil
	}
	return h.OnExpandToggle()
}

func (h Header) View(th theme.Theme, width int, focused bool) string {
	titleStyle, iconStyle := th.Header, th.Icon
	if focused {
		titleStyle, iconStyle = th.HeaderFocused, th.IconFocused
	}

	var icons []string
	if h.HasShare() {
		icons = append(icons, iconStyle.Render(ShareIcon))
	}
	if h.HasExpand() {
		icon := ExpandIcon
		if h.Expanded {
			icon = CollapseIcon
		}
		icons = append(icons, iconStyle.Render(icon))
	}
	right := strings.Join(icons, "")
	rightW := lipgloss.Width(right)

	avail := width - rightW - titleStyle.GetHorizontalFrameSize()
	if width <= 0 {
		avail = runewidth.StringWidth(h.Title)
	}
	title := titleStyle.Render(truncate(h.Title, avail))
	if width <= 0 {
		return title + right
	}

	gap := width - lipgloss.Width(title) - rightW
	if gap < 0 {
		gap = 0
	}
	return title + strings.Repeat(" ", gap) + right
}

func truncate(s string, w int) string {
	if w <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= w {
		return s
	}
	if w <= runewidth.StringWidth(ellipsis) {
		return ellipsis
	}
	return runewidth.Truncate(s, w, ellipsis)
}
