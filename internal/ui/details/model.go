// Package details renders one captured request as a scrollable panel with
// collapsible sections and share actions.
package details

import (
	"context"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/unkn0wn-root/netlens/internal/bindings"
	"github.com/unkn0wn-root/netlens/internal/capture"
	"github.com/unkn0wn-root/netlens/internal/share"
	"github.com/unkn0wn-root/netlens/internal/theme"
	"github.com/unkn0wn-root/netlens/internal/ui/header"
	"github.com/unkn0wn-root/netlens/internal/ui/scroll"
)

const (
	closeLabel     = "✕ Close"
	moreTitle      = "More"
	shareFullLabel = "Share full request"
	shareCurlLabel = "Share cURL"

	defaultBodyHeight = 15
)

type Config struct {
	Request *capture.Record
	OnClose func() tea.Cmd
	Sharer  share.Sharer
	Theme   theme.Theme
	// BackOwned reports whether the host has claimed the back key. While it
	// does, the panel renders no close control of its own.
	BackOwned      func() bool
	BodyHeight     int
	Highlight      bool
	HighlightStyle string
	Width          int
	Height         int

	// Bindings overrides the default keys. Nil uses the builtin map.
	Bindings *bindings.Map
}

type focusTarget int

const (
	focusRequestHeaders focusTarget = iota
	focusRequestBody
	focusResponseHeaders
	focusResponseBody
	focusMore
	focusShareFull
	focusShareCurl
	focusClose
)

// toggleSectionMsg is emitted by section header callbacks. The token ties it
// to the request that was on screen when the control was invoked.
type toggleSectionMsg struct {
	section Section
	token   string
}

type Model struct {
	request      *capture.Record
	visible      Visibility
	requestBody  string
	responseBody string
	bodyLoaded   bool
	bodyToken    string
	cancelFetch  context.CancelFunc
	initFetch    tea.Cmd

	onClose        func() tea.Cmd
	sharer         share.Sharer
	theme          theme.Theme
	backOwned      func() bool
	bodyHeight     int
	highlight      bool
	highlightStyle string

	width  int
	height int
	focus  focusTarget
	lines  map[focusTarget]int

	panel        viewport.Model
	requestText  largeText
	responseText largeText
	keys         keyMap
	help         help.Model
}

func New(cfg Config) Model {
	height := cfg.BodyHeight
	if height <= 0 {
		height = defaultBodyHeight
	}
	m := Model{
		onClose:        cfg.OnClose,
		sharer:         cfg.Sharer,
		theme:          cfg.Theme,
		backOwned:      cfg.BackOwned,
		bodyHeight:     height,
		highlight:      cfg.Highlight,
		highlightStyle: cfg.HighlightStyle,
		width:          cfg.Width,
		height:         cfg.Height,
		panel:          viewport.New(cfg.Width, 0),
		requestText:    newLargeText(),
		responseText:   newLargeText(),
		keys:           keysFrom(cfg.Bindings),
		help:           help.New(),
	}
	m.initFetch = m.SetRequest(cfg.Request)
	return m
}

func (m Model) Init() tea.Cmd {
	return m.initFetch
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(typed.Width, typed.Height)
	case bodyLoadedMsg:
		m.handleBodyLoaded(typed)
	case toggleSectionMsg:
		if typed.token == m.bodyToken {
			m.toggle(typed.section)
		}
	case tea.MouseMsg:
		if typed.Action == tea.MouseActionPress {
			switch typed.Button {
			case tea.MouseButtonWheelUp:
				m.panel.LineUp(3)
			case tea.MouseButtonWheelDown:
				m.panel.LineDown(3)
			}
		}
	case tea.KeyMsg:
		cmd = m.handleKey(typed)
	}
	return m, cmd
}

// SetRequest swaps the inspected record. Section flags go back to their
// defaults and any body fetch still running for the previous record is
// cancelled; its result will be ignored if it arrives anyway.
func (m *Model) SetRequest(rec *capture.Record) tea.Cmd {
	if m.cancelFetch != nil {
		m.cancelFetch()
		m.cancelFetch = nil
	}
	m.request = rec
	m.visible = DefaultVisibility()
	m.focus = focusRequestHeaders
	m.bodyToken = nextBodyToken()
	m.panel.GotoTop()

	// formatted once per request; refresh runs on every key
	m.requestBody = ""
	if rec != nil {
		m.requestBody = rec.RequestBody(rec.IsQuery())
	}

	var cmd tea.Cmd
	if rec == nil {
		m.responseBody = ""
		m.bodyLoaded = true
	} else {
		m.responseBody = loadingPlaceholder
		m.bodyLoaded = false
		ctx, cancel := context.WithCancel(context.Background())
		m.cancelFetch = cancel
		cmd = fetchBodyCmd(ctx, m.bodyToken, rec)
	}
	m.refresh()
	return cmd
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width
	m.refresh()
}

func (m *Model) handleBodyLoaded(msg bodyLoadedMsg) {
	if msg.token == "" || msg.token != m.bodyToken {
		return
	}
	if m.cancelFetch != nil {
		m.cancelFetch()
		m.cancelFetch = nil
	}
	if msg.err != nil {
		return
	}
	m.responseBody = msg.body
	m.bodyLoaded = true
	m.refresh()
}

func (m Model) Request() *capture.Record {
	return m.request
}

func (m Model) Visibility() Visibility {
	return m.visible
}

func (m Model) ResponseBody() string {
	return m.responseBody
}

func (m Model) BodyLoaded() bool {
	return m.bodyLoaded
}

// RequestBody is the request payload as shown, decoded for query requests.
func (m Model) RequestBody() string {
	return m.requestBody
}

func (m *Model) ToggleRequestHeaders() {
	m.toggle(SectionRequestHeaders)
}

func (m *Model) ToggleRequestBody() {
	m.toggle(SectionRequestBody)
}

func (m *Model) ToggleResponseHeaders() {
	m.toggle(SectionResponseHeaders)
}

func (m *Model) ToggleResponseBody() {
	m.toggle(SectionResponseBody)
}

func (m *Model) toggle(s Section) {
	m.visible.Toggle(s)
	m.refresh()
}

// FullRequest merges the record with the body currently on screen into one
// indented JSON document.
func (m Model) FullRequest() string {
	out, err := capture.FullRequest(m.request, m.responseBody)
	if err != nil {
		return ""
	}
	return out
}

func (m Model) CurlRequest() string {
	return m.request.CurlRequest()
}

func (m Model) ShareFullRequest() tea.Cmd {
	return share.Cmd(m.sharer, share.Message{Message: m.FullRequest()})
}

func (m Model) ShareCurl() tea.Cmd {
	return share.Cmd(m.sharer, share.Message{Message: m.CurlRequest()})
}

func (m Model) CloseVisible() bool {
	return m.backOwned == nil || !m.backOwned()
}

// Close stops any pending body fetch and runs the close callback.
func (m *Model) Close() tea.Cmd {
	if m.cancelFetch != nil {
		m.cancelFetch()
		m.cancelFetch = nil
	}
	if m.onClose == nil {
		return nil
	}
	return m.onClose()
}

func (m Model) toggleCmd(s Section) func() tea.Cmd {
	token := m.bodyToken
	return func() tea.Cmd {
		return func() tea.Msg {
			return toggleSectionMsg{section: s, token: token}
		}
	}
}

func (m Model) sectionHeader(s Section) header.Header {
	switch s {
	case SectionRequestHeaders:
		return m.headersView(s, m.request.RequestHeaders).header
	case SectionResponseHeaders:
		return m.headersView(s, m.request.ResponseHeaders).header
	case SectionRequestBody:
		return header.New(header.Props{
			Title:          s.String(),
			ShareContent:   m.RequestBody(),
			OnExpandToggle: m.toggleCmd(s),
			Expanded:       m.visible.Shown(s),
		}, m.sharer)
	default:
		return header.New(header.Props{
			Title:          s.String(),
			ShareContent:   m.responseBody,
			OnExpandToggle: m.toggleCmd(s),
			Expanded:       m.visible.Shown(s),
		}, m.sharer)
	}
}

func (m Model) headersView(s Section, hs capture.Headers) headersView {
	var shown capture.Headers
	if m.visible.Shown(s) {
		shown = hs
		if shown == nil {
			shown = capture.Headers{}
		}
	}
	return newHeadersView(s.String(), shown, m.toggleCmd(s), m.visible.Shown(s), m.sharer)
}

func (m Model) focusTargets() []focusTarget {
	targets := []focusTarget{
		focusRequestHeaders,
		focusRequestBody,
		focusResponseHeaders,
		focusResponseBody,
		focusMore,
		focusShareFull,
		focusShareCurl,
	}
	if m.CloseVisible() {
		targets = append(targets, focusClose)
	}
	return targets
}

func (m *Model) moveFocus(delta int) {
	targets := m.focusTargets()
	// A target that just disappeared (close, once the host owns back) was
	// last in the order, so moving continues from just past the end.
	idx := slices.Index(targets, m.focus)
	if idx < 0 {
		idx = len(targets)
	}
	idx = (idx + delta + len(targets)) % len(targets)
	m.focus = targets[idx]
	m.refresh()
	m.revealFocus()
}

func (m *Model) revealFocus() {
	line, ok := m.lines[m.focus]
	if !ok {
		return
	}
	off := scroll.Reveal(line, line, m.panel.YOffset, m.panel.Height, m.panel.TotalLineCount())
	m.panel.SetYOffset(off)
}

func (m *Model) activate() tea.Cmd {
	switch m.focus {
	case focusRequestHeaders, focusRequestBody, focusResponseHeaders, focusResponseBody:
		if m.request == nil {
			return nil
		}
		return m.sectionHeader(Section(m.focus)).Toggle()
	case focusShareFull:
		return m.ShareFullRequest()
	case focusShareCurl:
		return m.ShareCurl()
	case focusClose:
		if m.CloseVisible() {
			return m.Close()
		}
	}
	return nil
}

func (m *Model) focusedText() *largeText {
	switch m.focus {
	case focusRequestBody:
		return &m.requestText
	case focusResponseBody:
		return &m.responseText
	default:
		return nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Next):
		m.moveFocus(1)
	case key.Matches(msg, m.keys.Prev):
		m.moveFocus(-1)
	case key.Matches(msg, m.keys.Activate):
		return m.activate()
	case key.Matches(msg, m.keys.Share):
		if m.request == nil || m.focus > focusResponseBody {
			return nil
		}
		return m.sectionHeader(Section(m.focus)).Share()
	case key.Matches(msg, m.keys.ShareFull):
		return m.ShareFullRequest()
	case key.Matches(msg, m.keys.ShareCurl):
		return m.ShareCurl()
	case key.Matches(msg, m.keys.PageUp):
		if lt := m.focusedText(); lt != nil {
			lt.Scroll(-lt.PageSize())
			m.refresh()
		}
	case key.Matches(msg, m.keys.PageDown):
		if lt := m.focusedText(); lt != nil {
			lt.Scroll(lt.PageSize())
			m.refresh()
		}
	case key.Matches(msg, m.keys.Up):
		m.panel.LineUp(1)
	case key.Matches(msg, m.keys.Down):
		m.panel.LineDown(1)
	case key.Matches(msg, m.keys.Close):
		if m.CloseVisible() {
			return m.Close()
		}
	}
	return nil
}

// refresh rebuilds the scrollable panel from the current state and records
// the line each focusable row starts on.
func (m *Model) refresh() {
	if m.focus == focusClose && !m.CloseVisible() {
		m.focus = focusShareCurl
	}
	th := m.theme
	width := m.width
	inner := width - th.Content.GetHorizontalFrameSize()
	if width <= 0 {
		inner = 0
	}
	m.lines = make(map[focusTarget]int, 8)

	var blocks []string
	line := 0
	push := func(target focusTarget, block string) {
		if block == "" {
			return
		}
		if target >= 0 {
			m.lines[target] = line
		}
		blocks = append(blocks, block)
		line += lipgloss.Height(block)
	}
	const noTarget focusTarget = -1

	if m.request != nil {
		reqHeaders := m.headersView(SectionRequestHeaders, m.request.RequestHeaders)
		push(focusRequestHeaders, reqHeaders.View(th, width, m.focus == focusRequestHeaders))

		push(focusRequestBody, m.sectionHeader(SectionRequestBody).View(th, width, m.focus == focusRequestBody))
		reqText := ""
		if m.visible.RequestBody {
			reqText = m.RequestBody()
		}
		m.requestText.SetText(reqText, textWidth(inner, reqText), m.bodyHeight, highlighter{
			enabled: m.highlight,
			style:   m.highlightStyle,
			lexer:   lexerFor("", reqText),
		})
		push(noTarget, m.requestText.View(th, width))

		respHeaders := m.headersView(SectionResponseHeaders, m.request.ResponseHeaders)
		push(focusResponseHeaders, respHeaders.View(th, width, m.focus == focusResponseHeaders))

		push(focusResponseBody, m.sectionHeader(SectionResponseBody).View(th, width, m.focus == focusResponseBody))
		respText := ""
		if m.visible.ResponseBody {
			respText = m.responseBody
		}
		hl := highlighter{
			enabled: m.highlight && m.bodyLoaded,
			style:   m.highlightStyle,
			lexer:   lexerFor(m.request.ResponseContentType, respText),
		}
		m.responseText.SetText(respText, textWidth(inner, respText), m.bodyHeight, hl)
		push(noTarget, m.responseText.View(th, width))
	}

	push(focusMore, header.New(header.Props{Title: moreTitle}, nil).View(th, width, m.focus == focusMore))
	footer := m.renderFooter(width)
	m.lines[focusShareFull] = line
	m.lines[focusShareCurl] = line
	push(noTarget, footer)

	content := strings.Join(blocks, "\n")
	m.panel.Width = width
	m.panel.Height = m.panelHeight(lipgloss.Height(content))
	m.panel.SetContent(content)
}

func (m Model) panelHeight(total int) int {
	if m.height <= 0 {
		return total
	}
	// summary row and help line
	h := m.height - 2
	if h < 1 {
		h = 1
	}
	return h
}

func textWidth(inner int, text string) int {
	if inner > 0 {
		return inner
	}
	w := 0
	for _, ln := range strings.Split(text, "\n") {
		if lw := lipgloss.Width(ln); lw > w {
			w = lw
		}
	}
	return w
}

func (m Model) renderFooter(width int) string {
	btn := func(label string, focused bool) string {
		if focused {
			return m.theme.ButtonFocused.Render(label)
		}
		return m.theme.Button.Render(label)
	}
	row := lipgloss.JoinHorizontal(
		lipgloss.Top,
		btn(shareFullLabel, m.focus == focusShareFull),
		"  ",
		btn(shareCurlLabel, m.focus == focusShareCurl),
	)
	if width <= 0 {
		return row
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, row)
}

func (m Model) renderTop() string {
	if !m.CloseVisible() {
		return renderSummary(m.theme, m.request, m.width)
	}
	st := m.theme.Header
	if m.focus == focusClose {
		st = m.theme.HeaderFocused
	}
	closeBtn := st.Render(closeLabel)
	summaryWidth := m.width
	if summaryWidth > 0 {
		summaryWidth -= lipgloss.Width(closeBtn) + 1
	}
	summary := renderSummary(m.theme, m.request, summaryWidth)
	gap := 1
	if m.width > 0 {
		gap = m.width - lipgloss.Width(summary) - lipgloss.Width(closeBtn)
		if gap < 1 {
			gap = 1
		}
	}
	return summary + strings.Repeat(" ", gap) + closeBtn
}

func (m Model) View() string {
	keys := m.keys
	keys.Close.SetEnabled(m.CloseVisible())
	out := lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderTop(),
		m.panel.View(),
		m.theme.Help.Render(m.help.View(keys)),
	)
	if m.width > 0 {
		return m.theme.Container.Width(m.width).Render(out)
	}
	return m.theme.Container.Render(out)
}
