package config

import "strings"

const (
	ShareClipboard = "clipboard"
	ShareStdout    = "stdout"
)

type DetailsSettings struct {
	BodyHeight int    `json:"body_height" toml:"body_height" yaml:"body_height"`
	Highlight  *bool  `json:"highlight"   toml:"highlight"   yaml:"highlight"`
	Share      string `json:"share"       toml:"share"       yaml:"share"`
}

const (
	DetailsBodyHeightDefault = 15
	DetailsBodyHeightMin     = 3
	DetailsBodyHeightMax     = 200
)

func DefaultDetailsSettings() DetailsSettings {
	on := true
	return DetailsSettings{
		BodyHeight: DetailsBodyHeightDefault,
		Highlight:  &on,
		Share:      ShareClipboard,
	}
}

func NormaliseDetailsSettings(s DetailsSettings) DetailsSettings {
	def := DefaultDetailsSettings()
	switch {
	case s.BodyHeight <= 0:
		s.BodyHeight = def.BodyHeight
	case s.BodyHeight < DetailsBodyHeightMin:
		s.BodyHeight = DetailsBodyHeightMin
	case s.BodyHeight > DetailsBodyHeightMax:
		s.BodyHeight = DetailsBodyHeightMax
	}
	if s.Highlight == nil {
		s.Highlight = def.Highlight
	}
	switch strings.ToLower(strings.TrimSpace(s.Share)) {
	case ShareStdout:
		s.Share = ShareStdout
	default:
		s.Share = ShareClipboard
	}
	return s
}

func (s DetailsSettings) HighlightEnabled() bool {
	return s.Highlight == nil || *s.Highlight
}
