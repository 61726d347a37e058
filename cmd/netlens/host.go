package main

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/unkn0wn-root/netlens/internal/backkey"
	"github.com/unkn0wn-root/netlens/internal/config"
	"github.com/unkn0wn-root/netlens/internal/share"
	"github.com/unkn0wn-root/netlens/internal/theme"
	"github.com/unkn0wn-root/netlens/internal/ui/details"
)

type hostConfig struct {
	Details   details.Config
	Back      *backkey.Registry
	ShareKind string
}

// hostModel embeds the details panel and owns the status line and the
// program lifecycle.
type hostModel struct {
	details   details.Model
	theme     theme.Theme
	back      *backkey.Registry
	shareKind string
	status    string
	statusErr bool
	closed    bool
}

func newHost(cfg hostConfig) hostModel {
	back := cfg.Back
	if back == nil {
		back = &backkey.Registry{}
	}
	dc := cfg.Details
	dc.BackOwned = back.IsSet
	dc.OnClose = func() tea.Cmd { return tea.Quit }
	return hostModel{
		details:   details.New(dc),
		theme:     dc.Theme,
		back:      back,
		shareKind: cfg.ShareKind,
	}
}

func (m hostModel) Init() tea.Cmd {
	return m.details.Init()
}

func (m hostModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		// last row belongs to the status line
		m.details.SetSize(typed.Width, typed.Height-1)
		return m, nil
	case tea.KeyMsg:
		switch typed.String() {
		case "ctrl+c":
			m.closed = true
			return m, tea.Quit
		case "esc":
			if m.back.Handle() {
				m.closed = true
				return m, tea.Quit
			}
		}
	case share.ResultMsg:
		m.status, m.statusErr = shareStatus(typed, m.shareKind)
		return m, nil
	}
	var cmd tea.Cmd
	m.details, cmd = m.details.Update(msg)
	return m, cmd
}

func (m hostModel) View() string {
	if m.closed {
		return ""
	}
	status := m.theme.Status.Render(m.status)
	if m.statusErr {
		status = m.theme.StatusError.Render(m.status)
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.details.View(), status)
}

func shareStatus(res share.ResultMsg, kind string) (string, bool) {
	switch {
	case errors.Is(res.Err, share.ErrUnavailable):
		return "share failed: no clipboard available, try -share stdout", true
	case res.Err != nil:
		return fmt.Sprintf("share failed: %v", res.Err), true
	case kind == config.ShareStdout:
		return fmt.Sprintf("%d bytes will be printed on exit", res.Size), false
	default:
		return fmt.Sprintf("copied %d bytes to clipboard", res.Size), false
	}
}
