package details

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/unkn0wn-root/netlens/internal/bindings"
	"github.com/unkn0wn-root/netlens/internal/capture"
	"github.com/unkn0wn-root/netlens/internal/share"
	"github.com/unkn0wn-root/netlens/internal/theme"
)

type recordingSharer struct {
	messages []string
}

func (s *recordingSharer) Share(msg share.Message) error {
	s.messages = append(s.messages, msg.Message)
	return nil
}

func sampleRecord() *capture.Record {
	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return &capture.Record{
		ID:        "rec-1",
		Method:    "POST",
		URL:       "https://api.example.com/items",
		Status:    201,
		StartTime: start,
		EndTime:   start.Add(42 * time.Millisecond),
		DataSent:  `{"q":1}`,
		RequestHeaders: capture.Headers{
			{Name: "X-Req", Value: "one"},
			{Name: "Accept", Value: "*/*"},
		},
		ResponseHeaders: capture.Headers{
			{Name: "X-Resp", Value: "two"},
		},
		ResponseContentType: "text/plain",
		Response:            "resp-body",
	}
}

func newTestModel(t *testing.T, rec *capture.Record, cfg Config) Model {
	t.Helper()
	cfg.Request = rec
	cfg.Theme = theme.DefaultTheme()
	if cfg.Width == 0 {
		cfg.Width = 100
	}
	return New(cfg)
}

// collect runs cmd and every command batched inside it.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func feed(m Model, cmd tea.Cmd) Model {
	for _, msg := range collect(cmd) {
		var next tea.Cmd
		m, next = m.Update(msg)
		if next != nil {
			m = feed(m, next)
		}
	}
	return m
}

func loaded(t *testing.T, rec *capture.Record, cfg Config) Model {
	t.Helper()
	m := newTestModel(t, rec, cfg)
	return feed(m, m.Init())
}

func view(m Model) string {
	return ansi.Strip(m.View())
}

func press(m Model, k tea.KeyMsg) (Model, tea.Cmd) {
	return m.Update(k)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestResponseBodyLoadsOnce(t *testing.T) {
	m := newTestModel(t, sampleRecord(), Config{})
	if got := m.ResponseBody(); got != loadingPlaceholder {
		t.Fatalf("expected placeholder before fetch, got %q", got)
	}
	if !strings.Contains(view(m), loadingPlaceholder) {
		t.Fatalf("expected placeholder to render")
	}

	m = feed(m, m.Init())
	if got := m.ResponseBody(); got != "resp-body" {
		t.Fatalf("expected loaded body, got %q", got)
	}
	out := view(m)
	if !strings.Contains(out, "resp-body") || strings.Contains(out, loadingPlaceholder) {
		t.Fatalf("expected body to replace placeholder, got %q", out)
	}
}

func TestDefaultVisibility(t *testing.T) {
	m := loaded(t, sampleRecord(), Config{})
	if got := m.Visibility(); got != DefaultVisibility() {
		t.Fatalf("unexpected initial visibility %+v", got)
	}
	if !DefaultVisibility().ResponseBody {
		t.Fatalf("response body must be shown by default")
	}
}

func TestToggleChangesOnlyItsSection(t *testing.T) {
	markers := map[Section]string{
		SectionRequestHeaders:  "X-Req: one",
		SectionRequestBody:     `"q": 1`,
		SectionResponseHeaders: "X-Resp: two",
		SectionResponseBody:    "resp-body",
	}
	toggles := map[Section]func(*Model){
		SectionRequestHeaders:  (*Model).ToggleRequestHeaders,
		SectionRequestBody:     (*Model).ToggleRequestBody,
		SectionResponseHeaders: (*Model).ToggleResponseHeaders,
		SectionResponseBody:    (*Model).ToggleResponseBody,
	}

	for section, toggle := range toggles {
		t.Run(section.String(), func(t *testing.T) {
			m := loaded(t, sampleRecord(), Config{})
			before := view(m)
			beforeVis := m.Visibility()

			toggle(&m)
			after := view(m)
			afterVis := m.Visibility()

			for other, marker := range markers {
				was := strings.Contains(before, marker)
				now := strings.Contains(after, marker)
				if other == section {
					if was == now {
						t.Fatalf("expected %s to flip, stayed %v", other, now)
					}
					if beforeVis.Shown(other) == afterVis.Shown(other) {
						t.Fatalf("expected %s flag to flip", other)
					}
					continue
				}
				if was != now {
					t.Fatalf("toggling %s changed %s (%v -> %v)", section, other, was, now)
				}
				if beforeVis.Shown(other) != afterVis.Shown(other) {
					t.Fatalf("toggling %s changed the %s flag", section, other)
				}
			}
		})
	}
}

func TestHeaderRowsMatchEntries(t *testing.T) {
	hs := capture.Headers{
		{Name: "Content-Type", Value: "application/json"},
		{Name: "X-Count", Value: "3"},
		{Name: "Accept", Value: "*/*"},
	}
	rows := headerRows(hs)
	if len(rows) != len(hs) {
		t.Fatalf("expected %d rows, got %d", len(hs), len(rows))
	}
	for i, h := range hs {
		if want := h.Name + ": " + h.Value; rows[i] != want {
			t.Fatalf("row %d: expected %q, got %q", i, want, rows[i])
		}
	}

	out := ansi.Strip(newHeadersView("Request Headers", hs, nil, true, nil).View(theme.DefaultTheme(), 80, false))
	var rendered []string
	for _, ln := range strings.Split(out, "\n") {
		if strings.Contains(ln, ": ") {
			rendered = append(rendered, strings.TrimSpace(ln))
		}
	}
	if len(rendered) != len(hs) {
		t.Fatalf("expected %d rendered rows, got %d: %q", len(hs), len(rendered), out)
	}
	for i, h := range hs {
		if want := h.Name + ": " + h.Value; rendered[i] != want {
			t.Fatalf("rendered row %d: expected %q, got %q", i, want, rendered[i])
		}
	}
}

func TestCollapsedHeadersHaveNoRowsOrShare(t *testing.T) {
	v := newHeadersView("Response Headers", nil, func() tea.Cmd { return nil }, false, nil)
	if len(v.rows) != 0 {
		t.Fatalf("expected no rows, got %v", v.rows)
	}
	if v.header.HasShare() {
		t.Fatalf("expected share control to be suppressed")
	}
	if !v.header.HasExpand() {
		t.Fatalf("expected expand control")
	}
}

func TestExpandedEmptyHeadersShareEmptyObject(t *testing.T) {
	v := newHeadersView("Response Headers", capture.Headers{}, nil, true, nil)
	if got := v.header.ShareContent; got != "{}" {
		t.Fatalf("expected empty object share content, got %q", got)
	}
}

func TestHeadersShareContentKeepsOrder(t *testing.T) {
	got := headersShareContent(capture.Headers{
		{Name: "Zeta", Value: "1"},
		{Name: "Alpha", Value: "2"},
	})
	want := "{\n  \"Zeta\": \"1\",\n  \"Alpha\": \"2\"\n}"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestStaleFetchNeverOverwritesNewerRequest(t *testing.T) {
	a := sampleRecord()
	a.Response = "body-a"
	b := sampleRecord()
	b.ID = "rec-2"
	b.Response = "body-b"

	m := newTestModel(t, a, Config{})
	fetchA := m.Init()
	tokenA := m.bodyToken

	fetchB := m.SetRequest(b)
	if got := m.ResponseBody(); got != loadingPlaceholder {
		t.Fatalf("expected loading state for B, got %q", got)
	}

	// A's fetch was cancelled; even a successful late result must be dropped.
	if msgs := collect(fetchA); len(msgs) != 1 {
		t.Fatalf("expected one message from A's fetch, got %d", len(msgs))
	} else if res, ok := msgs[0].(bodyLoadedMsg); !ok || !errors.Is(res.err, context.Canceled) {
		t.Fatalf("expected A's fetch to observe cancellation, got %#v", msgs[0])
	}
	m, _ = m.Update(bodyLoadedMsg{token: tokenA, body: "body-a"})
	if got := m.ResponseBody(); got != loadingPlaceholder {
		t.Fatalf("stale body applied: %q", got)
	}
	if strings.Contains(view(m), "body-a") {
		t.Fatalf("stale body rendered")
	}

	m = feed(m, fetchB)
	if got := m.ResponseBody(); got != "body-b" {
		t.Fatalf("expected B's body, got %q", got)
	}

	m, _ = m.Update(bodyLoadedMsg{token: tokenA, body: "body-a"})
	if got := m.ResponseBody(); got != "body-b" {
		t.Fatalf("late stale body replaced B: %q", got)
	}
}

func TestFailedFetchKeepsPlaceholder(t *testing.T) {
	rec := sampleRecord()
	rec.SetBodyLoader(func(context.Context) (string, error) {
		return "", errors.New("gone")
	})
	m := loaded(t, rec, Config{})
	if got := m.ResponseBody(); got != loadingPlaceholder {
		t.Fatalf("expected placeholder to persist, got %q", got)
	}
	if m.BodyLoaded() {
		t.Fatalf("expected body to stay unloaded")
	}
}

func TestSetRequestResetsVisibility(t *testing.T) {
	m := loaded(t, sampleRecord(), Config{})
	m.ToggleRequestHeaders()
	m.ToggleResponseBody()

	next := sampleRecord()
	next.ID = "rec-2"
	m = feed(m, m.SetRequest(next))
	if got := m.Visibility(); got != DefaultVisibility() {
		t.Fatalf("expected defaults after request change, got %+v", got)
	}
}

func TestFullRequestParsesJSONBody(t *testing.T) {
	rec := sampleRecord()
	rec.ResponseContentType = "application/json"
	rec.Response = `{"a":1}`
	m := loaded(t, rec, Config{})

	var doc map[string]any
	if err := json.Unmarshal([]byte(m.FullRequest()), &doc); err != nil {
		t.Fatalf("full request is not JSON: %v", err)
	}
	resp, ok := doc["response"].(map[string]any)
	if !ok {
		t.Fatalf("expected response object, got %#v", doc["response"])
	}
	if resp["a"] != float64(1) {
		t.Fatalf("expected response.a == 1, got %#v", resp["a"])
	}
	if doc["duration"] != float64(42) {
		t.Fatalf("expected duration 42, got %#v", doc["duration"])
	}
	if doc["url"] != rec.URL || doc["method"] != rec.Method {
		t.Fatalf("expected record fields to be merged, got %#v", doc)
	}
	if !strings.Contains(m.FullRequest(), "\n  \"") {
		t.Fatalf("expected pretty printed output")
	}
}

func TestFullRequestFallsBackToRawText(t *testing.T) {
	rec := sampleRecord()
	rec.Response = "plain text"
	m := loaded(t, rec, Config{})

	var doc map[string]any
	if err := json.Unmarshal([]byte(m.FullRequest()), &doc); err != nil {
		t.Fatalf("full request is not JSON: %v", err)
	}
	if doc["response"] != "plain text" {
		t.Fatalf("expected raw response string, got %#v", doc["response"])
	}
}

func TestCloseControlFollowsBackOwnership(t *testing.T) {
	owned := false
	closed := 0
	m := loaded(t, sampleRecord(), Config{
		BackOwned: func() bool { return owned },
		OnClose: func() tea.Cmd {
			closed++
			return nil
		},
	})

	if !strings.Contains(view(m), closeLabel) {
		t.Fatalf("expected close control while back key is free")
	}
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEsc})
	if closed != 1 {
		t.Fatalf("expected esc to close, closed=%d", closed)
	}

	owned = true
	if strings.Contains(view(m), closeLabel) {
		t.Fatalf("expected close control hidden once the host owns back")
	}
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEsc})
	if closed != 1 {
		t.Fatalf("esc must not close while the host owns back, closed=%d", closed)
	}
	for i := 0; i < 10; i++ {
		m, _ = press(m, tea.KeyMsg{Type: tea.KeyTab})
		if m.focus == focusClose {
			t.Fatalf("focus reached hidden close control")
		}
	}
}

func TestFocusLeavesCloseWhenHostTakesBack(t *testing.T) {
	for _, tc := range []struct {
		name string
		key  tea.KeyMsg
		want focusTarget
	}{
		{"forward wraps to first row", tea.KeyMsg{Type: tea.KeyTab}, focusRequestHeaders},
		{"backward lands on last button", tea.KeyMsg{Type: tea.KeyShiftTab}, focusShareCurl},
	} {
		t.Run(tc.name, func(t *testing.T) {
			owned := false
			m := loaded(t, sampleRecord(), Config{BackOwned: func() bool { return owned }})
			m, _ = press(m, tea.KeyMsg{Type: tea.KeyShiftTab})
			if m.focus != focusClose {
				t.Fatalf("expected focus on close, got %v", m.focus)
			}

			owned = true
			m, _ = press(m, tc.key)
			if m.focus != tc.want {
				t.Fatalf("expected focus %v, got %v", tc.want, m.focus)
			}
		})
	}

	owned := false
	m := loaded(t, sampleRecord(), Config{BackOwned: func() bool { return owned }})
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyShiftTab})
	owned = true
	m.refresh()
	if m.focus != focusShareCurl {
		t.Fatalf("expected hidden close focus to settle on the last button, got %v", m.focus)
	}
}

func TestEnterOnHeaderTogglesThroughCallback(t *testing.T) {
	m := loaded(t, sampleRecord(), Config{})
	if m.focus != focusRequestHeaders {
		t.Fatalf("expected focus on request headers, got %v", m.focus)
	}
	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.Visibility().RequestHeaders {
		t.Fatalf("flag must change only when the callback message arrives")
	}
	m = feed(m, cmd)
	if !m.Visibility().RequestHeaders {
		t.Fatalf("expected request headers to expand")
	}
	if !strings.Contains(view(m), "X-Req: one") {
		t.Fatalf("expected header rows after expand")
	}
}

func TestToggleFromPreviousRequestIsIgnored(t *testing.T) {
	m := loaded(t, sampleRecord(), Config{})
	_, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})

	next := sampleRecord()
	next.ID = "rec-2"
	m = feed(m, m.SetRequest(next))
	m = feed(m, cmd)
	if m.Visibility() != DefaultVisibility() {
		t.Fatalf("toggle for the previous request leaked: %+v", m.Visibility())
	}
}

func TestShareKeys(t *testing.T) {
	sharer := &recordingSharer{}
	m := loaded(t, sampleRecord(), Config{Sharer: sharer})

	m, cmd := press(m, runes("s"))
	if cmd != nil {
		t.Fatalf("collapsed headers must not offer a share")
	}

	m.ToggleRequestHeaders()
	m, cmd = press(m, runes("s"))
	collect(cmd)
	m, cmd = press(m, runes("f"))
	collect(cmd)
	_, cmd = press(m, runes("c"))
	collect(cmd)

	if len(sharer.messages) != 3 {
		t.Fatalf("expected 3 shares, got %d", len(sharer.messages))
	}
	if want := "{\n  \"X-Req\": \"one\",\n  \"Accept\": \"*/*\"\n}"; sharer.messages[0] != want {
		t.Fatalf("expected headers JSON %q, got %q", want, sharer.messages[0])
	}
	if sharer.messages[1] != m.FullRequest() {
		t.Fatalf("expected full request share, got %q", sharer.messages[1])
	}
	if sharer.messages[2] != m.CurlRequest() {
		t.Fatalf("expected cURL share, got %q", sharer.messages[2])
	}
	if !strings.HasPrefix(sharer.messages[2], "curl -XPOST") {
		t.Fatalf("unexpected cURL %q", sharer.messages[2])
	}
}

func TestActivateFooterButtons(t *testing.T) {
	sharer := &recordingSharer{}
	m := loaded(t, sampleRecord(), Config{Sharer: sharer})
	for m.focus != focusShareCurl {
		m, _ = press(m, tea.KeyMsg{Type: tea.KeyTab})
	}
	_, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	msgs := collect(cmd)
	if len(msgs) != 1 {
		t.Fatalf("expected one share result, got %d", len(msgs))
	}
	if res, ok := msgs[0].(share.ResultMsg); !ok || res.Err != nil {
		t.Fatalf("unexpected result %#v", msgs[0])
	}
	if len(sharer.messages) != 1 || sharer.messages[0] != m.CurlRequest() {
		t.Fatalf("expected cURL share, got %q", sharer.messages)
	}
}

func TestRenderOrder(t *testing.T) {
	m := loaded(t, sampleRecord(), Config{})
	out := view(m)
	order := []string{
		"POST",
		"Request Headers",
		"Request Body",
		"Response Headers",
		"Response Body",
		"resp-body",
		moreTitle,
		shareFullLabel,
		shareCurlLabel,
	}
	last := -1
	for _, s := range order {
		idx := strings.Index(out, s)
		if idx < 0 {
			t.Fatalf("missing %q in %q", s, out)
		}
		if idx <= last {
			t.Fatalf("%q rendered out of order", s)
		}
		last = idx
	}
}

func TestSummaryShowsStatusAndDuration(t *testing.T) {
	m := loaded(t, sampleRecord(), Config{})
	top := strings.Split(view(m), "\n")[0]
	for _, want := range []string{"POST", "201", "42ms", "https://api.example.com/items"} {
		if !strings.Contains(top, want) {
			t.Fatalf("expected %q in summary %q", want, top)
		}
	}
}

func TestQueryRequestBodyIsUnescaped(t *testing.T) {
	rec := sampleRecord()
	rec.DataSent = `{"query":"query Me {\n  me { id }\n}"}`
	rec.GQLOperation = capture.DetectGQL(rec.DataSent)
	m := loaded(t, rec, Config{})
	if !strings.Contains(m.RequestBody(), "query Me {\n  me { id }\n}") {
		t.Fatalf("expected readable query document, got %q", m.RequestBody())
	}
}

func TestBodyViewportIsBounded(t *testing.T) {
	rec := sampleRecord()
	lines := make([]string, 100)
	for i := range lines {
		lines[i] = "line"
	}
	rec.Response = strings.Join(lines, "\n")
	m := loaded(t, rec, Config{BodyHeight: 5})

	if got := strings.Count(view(m), "line"); got != 5 {
		t.Fatalf("expected 5 visible body lines, got %d", got)
	}

	for m.focus != focusResponseBody {
		m, _ = press(m, tea.KeyMsg{Type: tea.KeyTab})
	}
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyPgDown})
	if off := m.responseText.vp.YOffset; off != 5 {
		t.Fatalf("expected body to scroll one page, offset %d", off)
	}
}

func TestFocusMovesReuseRenderedBodies(t *testing.T) {
	rec := sampleRecord()
	rec.Response = strings.Repeat(`{"id": 1, "name": "widget"}`+"\n", 500)
	m := loaded(t, rec, Config{BodyHeight: 5})
	before := m.responseText.renders
	if before == 0 {
		t.Fatalf("expected the loaded body to be rendered")
	}
	for i := 0; i < 6; i++ {
		m, _ = press(m, tea.KeyMsg{Type: tea.KeyTab})
	}
	if m.responseText.renders != before {
		t.Fatalf("expected focus moves to reuse the body render, got %d renders after %d", m.responseText.renders, before)
	}
}

func TestNilRequestRendersWithoutPanic(t *testing.T) {
	m := newTestModel(t, nil, Config{})
	if cmd := m.Init(); cmd != nil {
		t.Fatalf("expected no fetch without a request")
	}
	out := view(m)
	if !strings.Contains(out, "no request") {
		t.Fatalf("expected empty summary, got %q", out)
	}
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = press(m, runes("s"))
	_ = m.View()
}

func TestCustomBindings(t *testing.T) {
	dir := t.TempDir()
	payload := "[bindings]\nshare_curl = [\"x\"]\n"
	if err := os.WriteFile(filepath.Join(dir, "bindings.toml"), []byte(payload), 0o644); err != nil {
		t.Fatalf("write bindings: %v", err)
	}
	keys, _, err := bindings.Load(dir)
	if err != nil {
		t.Fatalf("load bindings: %v", err)
	}

	sharer := &recordingSharer{}
	m := loaded(t, sampleRecord(), Config{Sharer: sharer, Bindings: keys})
	_, cmd := press(m, runes("c"))
	if cmd != nil {
		t.Fatalf("expected c to be unbound")
	}
	_, cmd = press(m, runes("x"))
	collect(cmd)
	if len(sharer.messages) != 1 || sharer.messages[0] != m.CurlRequest() {
		t.Fatalf("expected x to share cURL, got %q", sharer.messages)
	}
}
