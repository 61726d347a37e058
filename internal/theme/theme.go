package theme

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette is the closed set of semantic colours themes provide. Background,
// Card and Text carry the layout; the rest tint status and method badges.
type Palette struct {
	Background lipgloss.Color
	Card       lipgloss.Color
	Text       lipgloss.Color
	Muted      lipgloss.Color
	Accent     lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
}

type MethodColors struct {
	GET     lipgloss.Color
	POST    lipgloss.Color
	PUT     lipgloss.Color
	PATCH   lipgloss.Color
	DELETE  lipgloss.Color
	HEAD    lipgloss.Color
	OPTIONS lipgloss.Color
	Default lipgloss.Color
}

type Theme struct {
	Palette       Palette
	Container     lipgloss.Style
	Header        lipgloss.Style
	HeaderFocused lipgloss.Style
	Icon          lipgloss.Style
	IconFocused   lipgloss.Style
	HeaderKey     lipgloss.Style
	HeaderValue   lipgloss.Style
	Content       lipgloss.Style
	Summary       lipgloss.Style
	SummaryDim    lipgloss.Style
	Button        lipgloss.Style
	ButtonFocused lipgloss.Style
	Help          lipgloss.Style
	Status        lipgloss.Style
	StatusError   lipgloss.Style
	MethodColors  MethodColors
}

func DefaultTheme() Theme {
	return FromPalette(Palette{
		Background: lipgloss.Color("#1A1B26"),
		Card:       lipgloss.Color("#24283B"),
		Text:       lipgloss.Color("#DCD7FF"),
		Muted:      lipgloss.Color("#6E6A86"),
		Accent:     lipgloss.Color("#7D56F4"),
		Success:    lipgloss.Color("#6EF2A0"),
		Warning:    lipgloss.Color("#FFD46A"),
		Error:      lipgloss.Color("#FF6E6E"),
	})
}

func LightTheme() Theme {
	return FromPalette(Palette{
		Background: lipgloss.Color("#FAFAFA"),
		Card:       lipgloss.Color("#ECEFF4"),
		Text:       lipgloss.Color("#1F2330"),
		Muted:      lipgloss.Color("#7A7F8C"),
		Accent:     lipgloss.Color("#5A3FD1"),
		Success:    lipgloss.Color("#1E8E3E"),
		Warning:    lipgloss.Color("#B7791F"),
		Error:      lipgloss.Color("#C62828"),
	})
}

func FromPalette(p Palette) Theme {
	text := lipgloss.NewStyle().Foreground(p.Text)
	return Theme{
		Palette:   p,
		Container: lipgloss.NewStyle().Background(p.Background).Foreground(p.Text),
		Header:    text.Bold(true).Padding(0, 1),
		HeaderFocused: text.Bold(true).
			Padding(0, 1).
			Foreground(p.Background).
			Background(p.Accent),
		Icon:        text.Padding(0, 1),
		IconFocused: text.Bold(true).Padding(0, 1).Foreground(p.Accent),
		HeaderKey:   text.Bold(true),
		HeaderValue: text,
		Content:     text.Background(p.Card).Padding(0, 1),
		Summary:     text.Bold(true),
		SummaryDim:  lipgloss.NewStyle().Foreground(p.Muted),
		Button: text.
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.Muted).
			Padding(0, 2),
		ButtonFocused: text.Bold(true).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.Accent).
			Padding(0, 2),
		Help:        lipgloss.NewStyle().Foreground(p.Muted),
		Status:      lipgloss.NewStyle().Foreground(p.Success),
		StatusError: lipgloss.NewStyle().Foreground(p.Error),
		MethodColors: MethodColors{
			GET:     lipgloss.Color("#34d399"),
			POST:    lipgloss.Color("#60a5fa"),
			PUT:     lipgloss.Color("#f59e0b"),
			PATCH:   lipgloss.Color("#14b8a6"),
			DELETE:  lipgloss.Color("#f87171"),
			HEAD:    lipgloss.Color("#a1a1aa"),
			OPTIONS: lipgloss.Color("#c084fc"),
			Default: p.Muted,
		},
	}
}

func (t Theme) MethodColor(method string) lipgloss.Color {
	mc := t.MethodColors
	switch strings.ToUpper(strings.TrimSpace(method)) {
	case "GET":
		return mc.GET
	case "POST":
		return mc.POST
	case "PUT":
		return mc.PUT
	case "PATCH":
		return mc.PATCH
	case "DELETE":
		return mc.DELETE
	case "HEAD":
		return mc.HEAD
	case "OPTIONS":
		return mc.OPTIONS
	default:
		return mc.Default
	}
}

func (t Theme) StatusColor(code int) lipgloss.Color {
	switch {
	case code <= 0:
		return t.Palette.Muted
	case code >= 400:
		return t.Palette.Error
	case code >= 300:
		return t.Palette.Warning
	default:
		return t.Palette.Success
	}
}
