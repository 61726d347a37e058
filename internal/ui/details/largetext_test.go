package details

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"github.com/unkn0wn-root/netlens/internal/theme"
)

func TestLargeTextEmptyRendersNothing(t *testing.T) {
	lt := newLargeText()
	lt.SetText("", 40, 10, highlighter{})
	if out := lt.View(theme.DefaultTheme(), 40); out != "" {
		t.Fatalf("expected empty view, got %q", out)
	}
}

func TestLargeTextShrinksToShortContent(t *testing.T) {
	lt := newLargeText()
	lt.SetText("one\ntwo", 40, 10, highlighter{})
	if lt.vp.Height != 2 {
		t.Fatalf("expected height 2, got %d", lt.vp.Height)
	}
	out := ansi.Strip(lt.View(theme.DefaultTheme(), 44))
	if !strings.Contains(out, "one") || !strings.Contains(out, "two") {
		t.Fatalf("expected both lines, got %q", out)
	}
}

func TestLargeTextWrapsLongLines(t *testing.T) {
	lt := newLargeText()
	lt.SetText(strings.Repeat("x", 25), 10, 10, highlighter{})
	if lt.vp.Height != 3 {
		t.Fatalf("expected wrapped text over 3 lines, got %d", lt.vp.Height)
	}
}

func TestLargeTextKeepsOffsetForSameText(t *testing.T) {
	text := strings.Repeat("row\n", 30) + "end"
	lt := newLargeText()
	lt.SetText(text, 20, 5, highlighter{})
	lt.Scroll(4)
	lt.SetText(text, 20, 5, highlighter{})
	if lt.vp.YOffset != 4 {
		t.Fatalf("expected offset to survive reflow, got %d", lt.vp.YOffset)
	}
	lt.SetText(text+"\nmore", 20, 5, highlighter{})
	if lt.vp.YOffset != 0 {
		t.Fatalf("expected new text to start at the top, got %d", lt.vp.YOffset)
	}
}

func TestHighlighterKeepsText(t *testing.T) {
	src := `{"a": 1}`
	out := highlighter{enabled: true, lexer: "json"}.apply(src)
	if !strings.Contains(out, "\x1b[") {
		t.Fatalf("expected escape sequences in highlighted output, got %q", out)
	}
	if got := ansi.Strip(out); got != src {
		t.Fatalf("expected stripped output %q, got %q", src, got)
	}
	if got := (highlighter{}).apply(src); got != src {
		t.Fatalf("disabled highlighter changed text: %q", got)
	}
}

func TestLexerFor(t *testing.T) {
	cases := []struct {
		ct, text, want string
	}{
		{"application/json; charset=utf-8", "", "json"},
		{"application/problem+json", "", "json"},
		{"text/xml", "", "xml"},
		{"text/html", "", "html"},
		{"", `[1,2]`, "json"},
		{"text/plain", "hello", ""},
	}
	for _, tc := range cases {
		if got := lexerFor(tc.ct, tc.text); got != tc.want {
			t.Fatalf("lexerFor(%q, %q) = %q, want %q", tc.ct, tc.text, got, tc.want)
		}
	}
}

func TestLargeTextReusesRenderForSameInputs(t *testing.T) {
	text := strings.Repeat(`{"k": "value"}`+"\n", 200)
	hl := highlighter{enabled: true, lexer: "json"}
	lt := newLargeText()

	lt.SetText(text, 30, 5, hl)
	lt.SetText(text, 30, 8, hl)
	if lt.renders != 1 {
		t.Fatalf("expected a single render for unchanged inputs, got %d", lt.renders)
	}
	if lt.vp.Height != 8 {
		t.Fatalf("expected height to follow maxHeight without a render, got %d", lt.vp.Height)
	}

	lt.SetText(text, 40, 8, hl)
	if lt.renders != 2 {
		t.Fatalf("expected a width change to render again, got %d renders", lt.renders)
	}
	lt.SetText(text, 40, 8, highlighter{})
	if lt.renders != 3 {
		t.Fatalf("expected a highlighter change to render again, got %d renders", lt.renders)
	}
}

func TestLargeTextClampsOffsetWhenTaller(t *testing.T) {
	text := strings.Repeat("row\n", 9) + "end"
	lt := newLargeText()
	lt.SetText(text, 20, 3, highlighter{})
	lt.Scroll(7)
	lt.SetText(text, 20, 8, highlighter{})
	if lt.vp.YOffset > 2 {
		t.Fatalf("expected offset clamped to the last page, got %d", lt.vp.YOffset)
	}
}
