package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

type SettingsFormat string

const (
	SettingsFormatTOML SettingsFormat = "toml"
	SettingsFormatJSON SettingsFormat = "json"
	SettingsFormatYAML SettingsFormat = "yaml"
)

// Settings is the persisted user configuration. Flags override it per run.
type Settings struct {
	DefaultTheme string          `json:"default_theme" toml:"default_theme" yaml:"default_theme"`
	Details      DetailsSettings `json:"details"       toml:"details"       yaml:"details"`
}

// SettingsHandle remembers which file the settings came from so a save goes
// back to the same place in the same format.
type SettingsHandle struct {
	Path   string
	Format SettingsFormat
}

type settingsCodec struct {
	decode func([]byte, *Settings) error
	encode func(Settings) ([]byte, error)
}

var settingsCodecs = map[SettingsFormat]settingsCodec{
	SettingsFormatTOML: {
		decode: func(data []byte, s *Settings) error { return toml.Unmarshal(data, s) },
		encode: func(s Settings) ([]byte, error) { return toml.Marshal(s) },
	},
	SettingsFormatJSON: {
		decode: func(data []byte, s *Settings) error {
			dec := json.NewDecoder(bytes.NewReader(data))
			dec.DisallowUnknownFields()
			return dec.Decode(s)
		},
		encode: func(s Settings) ([]byte, error) {
			data, err := json.MarshalIndent(s, "", "  ")
			if err != nil {
				return nil, err
			}
			return append(data, '\n'), nil
		},
	},
	SettingsFormatYAML: {
		decode: func(data []byte, s *Settings) error {
			dec := yaml.NewDecoder(bytes.NewReader(data))
			dec.KnownFields(true)
			return dec.Decode(s)
		},
		encode: func(s Settings) ([]byte, error) { return yaml.Marshal(s) },
	},
}

func settingsFiles(dir string) []SettingsHandle {
	return []SettingsHandle{
		{Path: filepath.Join(dir, "settings.toml"), Format: SettingsFormatTOML},
		{Path: filepath.Join(dir, "settings.json"), Format: SettingsFormatJSON},
		{Path: filepath.Join(dir, "settings.yaml"), Format: SettingsFormatYAML},
	}
}

// LoadSettings reads settings from Dir().
func LoadSettings() (Settings, SettingsHandle, error) {
	return LoadSettingsFrom(Dir())
}

// LoadSettingsFrom tries settings.toml, settings.json and settings.yaml in
// dir. The first file present wins and a parse error there is returned as is.
// With no file at all the defaults come back with a TOML handle.
func LoadSettingsFrom(dir string) (Settings, SettingsHandle, error) {
	files := settingsFiles(dir)

	var readErrs error
	for _, h := range files {
		data, err := os.ReadFile(h.Path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			continue
		case err != nil:
			readErrs = errors.Join(readErrs, fmt.Errorf("read settings %q: %w", h.Path, err))
			continue
		}

		var s Settings
		if len(bytes.TrimSpace(data)) > 0 {
			if err := settingsCodecs[h.Format].decode(data, &s); err != nil {
				return Settings{}, SettingsHandle{}, fmt.Errorf("parse settings %q: %w", h.Path, err)
			}
		}
		s.Details = NormaliseDetailsSettings(s.Details)
		return s, h, nil
	}
	if readErrs != nil {
		return Settings{}, SettingsHandle{}, readErrs
	}
	return Settings{Details: DefaultDetailsSettings()}, files[0], nil
}

// SaveSettings writes s to the file named by h. An empty handle means
// settings.toml under Dir().
func SaveSettings(s Settings, h SettingsHandle) error {
	if h.Path == "" {
		h.Path = filepath.Join(Dir(), "settings.toml")
	}
	if h.Format == "" {
		h.Format = SettingsFormatTOML
	}
	codec, ok := settingsCodecs[h.Format]
	if !ok {
		return fmt.Errorf("unsupported settings format %q", h.Format)
	}

	s.Details = NormaliseDetailsSettings(s.Details)
	data, err := codec.encode(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(h.Path), 0o755); err != nil {
		return fmt.Errorf("ensure settings directory: %w", err)
	}
	if err := replaceFile(h.Path, data, 0o644); err != nil {
		return fmt.Errorf("write settings %q: %w", h.Path, err)
	}
	return nil
}

// replaceFile swaps data in through a sibling temp file so a concurrent
// reader sees either the old or the new contents.
func replaceFile(path string, data []byte, perm fs.FileMode) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".netlens-settings-*.tmp")
	if err != nil {
		return err
	}
	name := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(name)
		}
	}()

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Chmod(perm)
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	return os.Rename(name, path)
}
