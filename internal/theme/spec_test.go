package theme

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func strPtr(value string) *string {
	return &value
}

func boolPtr(value bool) *bool {
	return &value
}

func TestApplySpecRebuildsFromPalette(t *testing.T) {
	base := DefaultTheme()
	spec := ThemeSpec{
		Colors: ColorsSpec{
			Card: strPtr("#101010"),
			Text: strPtr("#fefefe"),
		},
		Styles: StylesSpec{
			Header: &StyleSpec{Italic: boolPtr(true)},
			Button: &StyleSpec{BorderStyle: strPtr("double")},
		},
	}

	got, err := ApplySpec(base, spec)
	if err != nil {
		t.Fatalf("ApplySpec: %v", err)
	}
	if got.Palette.Card != "#101010" || got.Palette.Text != "#fefefe" {
		t.Fatalf("unexpected palette %+v", got.Palette)
	}
	if got.Palette.Accent != base.Palette.Accent {
		t.Fatalf("expected untouched colours to be kept")
	}
	if got.Content.GetBackground() != lipgloss.Color("#101010") {
		t.Fatalf("expected content style to follow card colour, got %v", got.Content.GetBackground())
	}
	if got.HeaderValue.GetForeground() != lipgloss.Color("#fefefe") {
		t.Fatalf("expected header value to follow text colour")
	}
	if !got.Header.GetItalic() {
		t.Fatalf("expected header style override")
	}
	if got.Button.GetBorderStyle() != lipgloss.DoubleBorder() {
		t.Fatalf("expected double border on button")
	}
}

func TestApplySpecRejectsInvalidValues(t *testing.T) {
	cases := []ThemeSpec{
		{Colors: ColorsSpec{Text: strPtr("  ")}},
		{Styles: StylesSpec{Content: &StyleSpec{BorderStyle: strPtr("zigzag")}}},
		{Styles: StylesSpec{Help: &StyleSpec{Foreground: strPtr("")}}},
	}
	for i, spec := range cases {
		if _, err := ApplySpec(DefaultTheme(), spec); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestStatusAndMethodColors(t *testing.T) {
	th := DefaultTheme()
	if th.StatusColor(204) != th.Palette.Success {
		t.Fatalf("expected success colour for 2xx")
	}
	if th.StatusColor(302) != th.Palette.Warning {
		t.Fatalf("expected warning colour for 3xx")
	}
	if th.StatusColor(404) != th.Palette.Error || th.StatusColor(503) != th.Palette.Error {
		t.Fatalf("expected error colour for 4xx/5xx")
	}
	if th.StatusColor(0) != th.Palette.Muted {
		t.Fatalf("expected muted colour for pending requests")
	}
	if th.MethodColor("post") != th.MethodColors.POST {
		t.Fatalf("expected case-insensitive method lookup")
	}
	if th.MethodColor("BREW") != th.MethodColors.Default {
		t.Fatalf("expected default colour for unknown methods")
	}
}
