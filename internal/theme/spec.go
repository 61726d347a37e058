package theme

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type Metadata struct {
	Name        string   `json:"name"        toml:"name"        yaml:"name"`
	Description string   `json:"description" toml:"description" yaml:"description"`
	Author      string   `json:"author"      toml:"author"      yaml:"author"`
	Version     string   `json:"version"     toml:"version"     yaml:"version"`
	Tags        []string `json:"tags"        toml:"tags"        yaml:"tags"`
}

// ThemeSpec is the on-disk form of a user theme. Colours rebuild every style
// from the palette, then Styles tweaks individual styles on top.
type ThemeSpec struct {
	Metadata *Metadata  `json:"metadata" toml:"metadata" yaml:"metadata"`
	Colors   ColorsSpec `json:"colors"   toml:"colors"   yaml:"colors"`
	Styles   StylesSpec `json:"styles"   toml:"styles"   yaml:"styles"`
}

type ColorsSpec struct {
	Background *string `json:"background" toml:"background" yaml:"background"`
	Card       *string `json:"card"       toml:"card"       yaml:"card"`
	Text       *string `json:"text"       toml:"text"       yaml:"text"`
	Muted      *string `json:"muted"      toml:"muted"      yaml:"muted"`
	Accent     *string `json:"accent"     toml:"accent"     yaml:"accent"`
	Success    *string `json:"success"    toml:"success"    yaml:"success"`
	Warning    *string `json:"warning"    toml:"warning"    yaml:"warning"`
	Error      *string `json:"error"      toml:"error"      yaml:"error"`
}

type StylesSpec struct {
	Header        *StyleSpec `json:"header"         toml:"header"         yaml:"header"`
	HeaderFocused *StyleSpec `json:"header_focused" toml:"header_focused" yaml:"header_focused"`
	HeaderKey     *StyleSpec `json:"header_key"     toml:"header_key"     yaml:"header_key"`
	HeaderValue   *StyleSpec `json:"header_value"   toml:"header_value"   yaml:"header_value"`
	Content       *StyleSpec `json:"content"        toml:"content"        yaml:"content"`
	Button        *StyleSpec `json:"button"         toml:"button"         yaml:"button"`
	ButtonFocused *StyleSpec `json:"button_focused" toml:"button_focused" yaml:"button_focused"`
	Help          *StyleSpec `json:"help"           toml:"help"           yaml:"help"`
}

type StyleSpec struct {
	Foreground  *string `json:"foreground"   toml:"foreground"   yaml:"foreground"`
	Background  *string `json:"background"   toml:"background"   yaml:"background"`
	BorderColor *string `json:"border_color" toml:"border_color" yaml:"border_color"`
	BorderStyle *string `json:"border_style" toml:"border_style" yaml:"border_style"`
	Bold        *bool   `json:"bold"         toml:"bold"         yaml:"bold"`
	Italic      *bool   `json:"italic"       toml:"italic"       yaml:"italic"`
	Underline   *bool   `json:"underline"    toml:"underline"    yaml:"underline"`
	Faint       *bool   `json:"faint"        toml:"faint"        yaml:"faint"`
}

func ApplySpec(base Theme, spec ThemeSpec) (Theme, error) {
	palette, err := applyColors(base.Palette, spec.Colors)
	if err != nil {
		return Theme{}, err
	}
	out := FromPalette(palette)

	targets := []struct {
		name string
		spec *StyleSpec
		dst  *lipgloss.Style
	}{
		{"header", spec.Styles.Header, &out.Header},
		{"header_focused", spec.Styles.HeaderFocused, &out.HeaderFocused},
		{"header_key", spec.Styles.HeaderKey, &out.HeaderKey},
		{"header_value", spec.Styles.HeaderValue, &out.HeaderValue},
		{"content", spec.Styles.Content, &out.Content},
		{"button", spec.Styles.Button, &out.Button},
		{"button_focused", spec.Styles.ButtonFocused, &out.ButtonFocused},
		{"help", spec.Styles.Help, &out.Help},
	}
	for _, tgt := range targets {
		styled, err := tgt.spec.apply(*tgt.dst)
		if err != nil {
			return Theme{}, fmt.Errorf("styles.%s: %w", tgt.name, err)
		}
		*tgt.dst = styled
	}
	return out, nil
}

func applyColors(base Palette, spec ColorsSpec) (Palette, error) {
	out := base
	fields := []struct {
		name  string
		value *string
		dst   *lipgloss.Color
	}{
		{"background", spec.Background, &out.Background},
		{"card", spec.Card, &out.Card},
		{"text", spec.Text, &out.Text},
		{"muted", spec.Muted, &out.Muted},
		{"accent", spec.Accent, &out.Accent},
		{"success", spec.Success, &out.Success},
		{"warning", spec.Warning, &out.Warning},
		{"error", spec.Error, &out.Error},
	}
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		c, err := toColor("colors."+f.name, *f.value)
		if err != nil {
			return Palette{}, err
		}
		*f.dst = c
	}
	return out, nil
}

// apply layers the set fields of s over base. A nil spec returns base.
func (s *StyleSpec) apply(base lipgloss.Style) (lipgloss.Style, error) {
	if s == nil {
		return base, nil
	}
	st := base
	colors := []struct {
		name  string
		value *string
		set   func(lipgloss.TerminalColor) lipgloss.Style
	}{
		{"foreground", s.Foreground, func(c lipgloss.TerminalColor) lipgloss.Style { return st.Foreground(c) }},
		{"background", s.Background, func(c lipgloss.TerminalColor) lipgloss.Style { return st.Background(c) }},
		{"border_color", s.BorderColor, func(c lipgloss.TerminalColor) lipgloss.Style { return st.BorderForeground(c) }},
	}
	for _, c := range colors {
		if c.value == nil {
			continue
		}
		col, err := toColor(c.name, *c.value)
		if err != nil {
			return lipgloss.Style{}, err
		}
		st = c.set(col)
	}

	if s.BorderStyle != nil {
		name := strings.ToLower(strings.TrimSpace(*s.BorderStyle))
		if name != "inherit" {
			b, ok := borderStyles[name]
			if !ok {
				return lipgloss.Style{}, fmt.Errorf("border_style: unknown border style %q", name)
			}
			st = st.BorderStyle(b)
		}
	}

	flags := []struct {
		value *bool
		set   func(bool) lipgloss.Style
	}{
		{s.Bold, func(v bool) lipgloss.Style { return st.Bold(v) }},
		{s.Italic, func(v bool) lipgloss.Style { return st.Italic(v) }},
		{s.Underline, func(v bool) lipgloss.Style { return st.Underline(v) }},
		{s.Faint, func(v bool) lipgloss.Style { return st.Faint(v) }},
	}
	for _, f := range flags {
		if f.value != nil {
			st = f.set(*f.value)
		}
	}
	return st, nil
}

func toColor(field, value string) (lipgloss.Color, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", fmt.Errorf("%s: colour value may not be empty", field)
	}
	return lipgloss.Color(v), nil
}

var asciiBorder = lipgloss.Border{
	Top: "-", Bottom: "-", Left: "|", Right: "|",
	TopLeft: "+", TopRight: "+", BottomLeft: "+", BottomRight: "+",
}

var borderStyles = map[string]lipgloss.Border{
	"none":    {},
	"hidden":  {},
	"off":     {},
	"normal":  lipgloss.NormalBorder(),
	"single":  lipgloss.NormalBorder(),
	"rounded": lipgloss.RoundedBorder(),
	"thick":   lipgloss.ThickBorder(),
	"heavy":   lipgloss.ThickBorder(),
	"double":  lipgloss.DoubleBorder(),
	"ascii":   asciiBorder,
}
