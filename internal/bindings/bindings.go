// Package bindings maps detail-panel actions to keys. Users can override the
// defaults with a bindings file in the config directory.
package bindings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Source is the file a Map was loaded from.
type Source struct {
	Path   string
	Format Format
}

type ActionID string

const (
	ActionFocusNext    ActionID = "focus_next"
	ActionFocusPrev    ActionID = "focus_prev"
	ActionActivate     ActionID = "activate"
	ActionShare        ActionID = "share"
	ActionShareFull    ActionID = "share_full"
	ActionShareCurl    ActionID = "share_curl"
	ActionBodyPageUp   ActionID = "body_page_up"
	ActionBodyPageDown ActionID = "body_page_down"
	ActionScrollUp     ActionID = "scroll_up"
	ActionScrollDown   ActionID = "scroll_down"
	ActionClose        ActionID = "close"
)

// definitions lists every action with its default keys, in help order.
var definitions = []struct {
	id       ActionID
	defaults []string
}{
	{ActionFocusNext, []string{"tab", "j"}},
	{ActionFocusPrev, []string{"shift+tab", "k"}},
	{ActionActivate, []string{"enter", "space"}},
	{ActionShare, []string{"s"}},
	{ActionShareFull, []string{"f"}},
	{ActionShareCurl, []string{"c"}},
	{ActionBodyPageUp, []string{"pgup"}},
	{ActionBodyPageDown, []string{"pgdown"}},
	{ActionScrollUp, []string{"up"}},
	{ActionScrollDown, []string{"down"}},
	{ActionClose, []string{"esc", "q"}},
}

func known(id ActionID) bool {
	for _, def := range definitions {
		if def.id == id {
			return true
		}
	}
	return false
}

// Map resolves actions to keys and keys back to actions.
type Map struct {
	keys  map[ActionID][]string
	owner map[string]ActionID
}

type file struct {
	Bindings map[string][]string `json:"bindings" toml:"bindings" yaml:"bindings"`
}

var decoders = map[Format]func([]byte, *file) error{
	FormatTOML: func(b []byte, f *file) error { return toml.Unmarshal(b, f) },
	FormatJSON: func(b []byte, f *file) error { return json.Unmarshal(b, f) },
	FormatYAML: func(b []byte, f *file) error { return yaml.Unmarshal(b, f) },
}

// Load reads bindings.toml, bindings.json or bindings.yaml from dir, in that
// order. Without any of them the defaults are returned.
func Load(dir string) (*Map, Source, error) {
	sources := []Source{
		{Path: filepath.Join(dir, "bindings.toml"), Format: FormatTOML},
		{Path: filepath.Join(dir, "bindings.json"), Format: FormatJSON},
		{Path: filepath.Join(dir, "bindings.yaml"), Format: FormatYAML},
	}

	var readErrs error
	for _, src := range sources {
		data, err := os.ReadFile(src.Path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			readErrs = errors.Join(readErrs, fmt.Errorf("read bindings %q: %w", src.Path, err))
			continue
		}
		overrides, err := decode(data, src.Format)
		if err != nil {
			return nil, Source{}, fmt.Errorf("parse bindings %q: %w", src.Path, err)
		}
		m, err := build(overrides)
		if err != nil {
			return nil, Source{}, fmt.Errorf("apply bindings %q: %w", src.Path, err)
		}
		return m, src, nil
	}
	if readErrs != nil {
		return nil, Source{}, readErrs
	}
	m, err := build(nil)
	return m, sources[0], err
}

// DefaultMap builds the built-in bindings without consulting disk.
func DefaultMap() *Map {
	m, err := build(nil)
	if err != nil {
		panic(err)
	}
	return m
}

// Keys returns the keys bound to action in bubbletea's notation.
func (m *Map) Keys(action ActionID) []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.keys[action])
}

func (m *Map) Match(key string) (ActionID, bool) {
	if m == nil {
		return "", false
	}
	id, ok := m.owner[key]
	return id, ok
}

func decode(data []byte, format Format) (map[ActionID][]string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	dec, ok := decoders[format]
	if !ok {
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	var f file
	if err := dec(data, &f); err != nil {
		return nil, err
	}

	out := make(map[ActionID][]string, len(f.Bindings))
	for name, keys := range f.Bindings {
		id := ActionID(name)
		if !known(id) {
			return nil, fmt.Errorf("unknown action %q", name)
		}
		out[id] = keys
	}
	return out, nil
}

// build applies overrides on top of the defaults. An override replaces the
// whole key list of its action. A key may belong to one action only.
func build(overrides map[ActionID][]string) (*Map, error) {
	m := &Map{
		keys:  make(map[ActionID][]string, len(definitions)),
		owner: make(map[string]ActionID),
	}
	for _, def := range definitions {
		raw, ok := overrides[def.id]
		if !ok {
			raw = def.defaults
		}
		keys := make([]string, 0, len(raw))
		for _, r := range raw {
			k, err := normalizeStep(r)
			if err != nil {
				return nil, fmt.Errorf("action %s: %w", def.id, err)
			}
			if prev, taken := m.owner[k]; taken {
				if prev == def.id {
					return nil, fmt.Errorf("action %s: duplicate binding %q", def.id, k)
				}
				return nil, fmt.Errorf("binding %q assigned to both %s and %s", k, prev, def.id)
			}
			m.owner[k] = def.id
			keys = append(keys, k)
		}
		m.keys[def.id] = keys
	}
	return m, nil
}

var modifierAliases = map[string]string{
	"ctrl":    "ctrl",
	"control": "ctrl",
	"alt":     "alt",
	"option":  "alt",
	"meta":    "alt",
	"shift":   "shift",
}

// normalizeStep converts a configured key into the string bubbletea reports
// for it, so bindings can be matched with key.Matches.
func normalizeStep(raw string) (string, error) {
	if raw == " " {
		return " ", nil
	}
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return "", errors.New("empty key step")
	case strings.ContainsAny(raw, " \t"):
		return "", fmt.Errorf("binding %q: key sequences are not supported", raw)
	case strings.EqualFold(raw, "space"):
		return " ", nil
	case len([]rune(raw)) == 1:
		return raw, nil
	case !strings.Contains(raw, "+"):
		return strings.ToLower(raw), nil
	}

	var (
		keyParts []string
		alt      bool
		ctrl     bool
		shift    bool
	)
	for _, part := range strings.Split(raw, "+") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		switch modifierAliases[part] {
		case "alt":
			alt = true
		case "ctrl":
			ctrl = true
		case "shift":
			shift = true
		default:
			keyParts = append(keyParts, part)
		}
	}
	if len(keyParts) == 0 {
		return "", fmt.Errorf("binding %q missing key", raw)
	}
	k := strings.Join(keyParts, "+")

	// shift+letter arrives as the upper case rune
	if shift && !alt && !ctrl {
		if r := []rune(k); len(r) == 1 && unicode.IsLetter(r[0]) {
			return strings.ToUpper(k), nil
		}
	}

	var out []string
	if alt {
		out = append(out, "alt")
	}
	if ctrl {
		out = append(out, "ctrl")
	}
	if shift {
		out = append(out, "shift")
	}
	return strings.Join(append(out, k), "+"), nil
}

// NormalizeKeyString returns the canonical form of raw, or "" when raw is
// not a valid single key.
func NormalizeKeyString(raw string) string {
	k, err := normalizeStep(raw)
	if err != nil {
		return ""
	}
	return k
}

// KnownActions returns the action identifiers in sorted order.
func KnownActions() []ActionID {
	ids := make([]ActionID, 0, len(definitions))
	for _, def := range definitions {
		ids = append(ids, def.id)
	}
	slices.Sort(ids)
	return ids
}
