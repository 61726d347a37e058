package theme

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

type Source string

const (
	SourceBuiltin Source = "builtin"
	SourceUser    Source = "user"
)

type Format string

const (
	FormatBuiltin Format = "builtin"
	FormatJSON    Format = "json"
	FormatTOML    Format = "toml"
	FormatYAML    Format = "yaml"
)

var formatByExt = map[string]Format{
	".toml": FormatTOML,
	".json": FormatJSON,
	".yaml": FormatYAML,
	".yml":  FormatYAML,
}

// Definition is a named theme plus where it came from.
type Definition struct {
	Key         string
	DisplayName string
	Metadata    Metadata
	Theme       Theme
	Source      Source
	Format      Format
	Path        string
}

// Catalog keeps definitions in display order and indexes them by key.
type Catalog struct {
	defs  []Definition
	byKey map[string]int
}

func (c Catalog) All() []Definition {
	return append([]Definition(nil), c.defs...)
}

func (c Catalog) Keys() []string {
	keys := make([]string, 0, len(c.defs))
	for _, def := range c.defs {
		keys = append(keys, def.Key)
	}
	return keys
}

func (c Catalog) Get(key string) (Definition, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return Definition{}, false
	}
	return c.defs[i], true
}

func builtins() []Definition {
	mk := func(key, name string, th Theme) Definition {
		return Definition{
			Key:         key,
			DisplayName: name,
			Metadata:    Metadata{Name: name},
			Theme:       th,
			Source:      SourceBuiltin,
			Format:      FormatBuiltin,
		}
	}
	return []Definition{
		mk("default", "Default", DefaultTheme()),
		mk("light", "Light", LightTheme()),
	}
}

// LoadCatalog returns the builtin themes followed by user themes found in
// dirs, sorted by display name. Broken user themes are skipped and reported
// through the joined error; the catalog is still usable.
func LoadCatalog(dirs []string) (Catalog, error) {
	defs := builtins()
	keys := newKeySet()
	for _, def := range defs {
		keys.claim(def.Key)
	}

	var user []Definition
	var errs error
	for _, dir := range dirs {
		found, err := loadDir(dir, DefaultTheme())
		errs = errors.Join(errs, err)
		user = append(user, found...)
	}
	for i := range user {
		user[i].Key = keys.claim(user[i].Key)
		if strings.TrimSpace(user[i].DisplayName) == "" {
			user[i].DisplayName = humaniseSlug(user[i].Key)
		}
	}
	sort.SliceStable(user, func(i, j int) bool {
		a, b := strings.ToLower(user[i].DisplayName), strings.ToLower(user[j].DisplayName)
		if a != b {
			return a < b
		}
		return user[i].Key < user[j].Key
	})

	c := Catalog{byKey: make(map[string]int, len(defs)+len(user))}
	for _, def := range append(defs, user...) {
		c.byKey[def.Key] = len(c.defs)
		c.defs = append(c.defs, def)
	}
	return c, errs
}

func loadDir(dir string, base Theme) ([]Definition, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("themes: read directory %q: %w", dir, err)
	}

	var (
		out  []Definition
		errs error
	)
	for _, entry := range entries {
		format, ok := formatByExt[strings.ToLower(filepath.Ext(entry.Name()))]
		if entry.IsDir() || !ok {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		def, err := loadFile(path, format, base)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("themes: load %q: %w", path, err))
			continue
		}
		out = append(out, def)
	}
	return out, errs
}

func loadFile(path string, format Format, base Theme) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, err
	}
	spec, err := decodeSpec(data, format)
	if err != nil {
		return Definition{}, err
	}
	th, err := ApplySpec(base, spec)
	if err != nil {
		return Definition{}, err
	}

	var meta Metadata
	if spec.Metadata != nil {
		meta = *spec.Metadata
	}
	key := slugify(meta.Name)
	if key == "" {
		key = slugify(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	}
	return Definition{
		Key:         key,
		DisplayName: strings.TrimSpace(meta.Name),
		Metadata:    meta,
		Theme:       th,
		Source:      SourceUser,
		Format:      format,
		Path:        path,
	}, nil
}

// decodeSpec rejects unknown fields in JSON and YAML so a typo in a colour
// name is reported instead of silently ignored.
func decodeSpec(data []byte, format Format) (ThemeSpec, error) {
	var spec ThemeSpec
	var err error
	switch format {
	case FormatTOML:
		err = toml.Unmarshal(data, &spec)
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&spec)
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&spec)
	default:
		err = fmt.Errorf("decode: unsupported format %q", format)
	}
	return spec, err
}

// keySet hands out unique keys, suffixing repeats with -1, -2, ...
type keySet map[string]struct{}

func newKeySet() keySet { return keySet{} }

func (s keySet) claim(key string) string {
	if strings.TrimSpace(key) == "" {
		key = "theme"
	}
	out := key
	for n := 1; ; n++ {
		if _, taken := s[out]; !taken {
			s[out] = struct{}{}
			return out
		}
		out = fmt.Sprintf("%s-%d", key, n)
	}
}

func slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case r == '-' || r == '_' || unicode.IsSpace(r):
			if !dash {
				b.WriteRune('-')
				dash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func humaniseSlug(slug string) string {
	if slug == "" {
		return "Theme"
	}
	words := strings.Split(slug, "-")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
