package main

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"

	"github.com/unkn0wn-root/netlens/internal/backkey"
	"github.com/unkn0wn-root/netlens/internal/bindings"
	"github.com/unkn0wn-root/netlens/internal/capture"
	"github.com/unkn0wn-root/netlens/internal/config"
	"github.com/unkn0wn-root/netlens/internal/share"
	"github.com/unkn0wn-root/netlens/internal/telemetry"
	"github.com/unkn0wn-root/netlens/internal/theme"
	"github.com/unkn0wn-root/netlens/internal/ui/details"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const envLogFile = "NETLENS_LOG"

func main() {
	var (
		harPath     string
		harEntry    int
		storePath   string
		recordID    string
		targetURL   string
		method      string
		data        string
		headers     headerFlags
		timeout     time.Duration
		themeKey    string
		shareKind   string
		bodyHeight  int
		noHighlight bool
		claimBack   bool
		listThemes  bool
		saveConfig  bool
		diffID      string
		showVersion bool
	)

	telemetryCfg := telemetry.ConfigFromEnv(os.Getenv)

	flag.StringVar(&harPath, "har", "", "HAR file to inspect")
	flag.IntVar(&harEntry, "entry", 0, "Entry index (0-based) within the HAR file")
	flag.StringVar(&storePath, "store", "", "Capture store path (defaults to the config dir)")
	flag.StringVar(&recordID, "id", "", "Capture id to inspect from the store (defaults to newest)")
	flag.StringVar(&targetURL, "url", "", "Send a request to URL, capture it and inspect it")
	flag.StringVar(&method, "method", "GET", "Request method used with -url")
	flag.StringVar(&data, "data", "", "Request body used with -url")
	flag.Var(&headers, "H", "Request header used with -url (repeatable, \"Name: value\")")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout used with -url")
	flag.StringVar(&diffID, "diff", "", "Print a unified diff from this stored capture to the inspected one and exit")
	flag.StringVar(&themeKey, "theme", "", "Theme key (see -list-themes)")
	flag.StringVar(&shareKind, "share", "", "Share target: clipboard or stdout")
	flag.IntVar(&bodyHeight, "body-height", 0, "Visible lines per body viewer")
	flag.BoolVar(&noHighlight, "no-highlight", false, "Disable body syntax highlighting")
	flag.BoolVar(&claimBack, "back-key", false, "Let the host own esc instead of drawing a close control")
	flag.BoolVar(&listThemes, "list-themes", false, "List available themes and exit")
	flag.BoolVar(&saveConfig, "save-settings", false, "Persist the display flags to the settings file and exit")
	flag.BoolVar(&showVersion, "version", false, "Show netlens version")
	flag.Parse()

	telemetryCfg.Version = version

	if showVersion {
		fmt.Printf("netlens %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
		if sum, err := executableChecksum(); err == nil {
			fmt.Printf("  sha256: %s\n", sum)
		} else {
			fmt.Printf("  sha256: unavailable (%v)\n", err)
		}
		os.Exit(0)
	}

	settings, settingsHandle, err := config.LoadSettings()
	if err != nil {
		log.Printf("settings load error: %v", err)
		settings = config.Settings{Details: config.DefaultDetailsSettings()}
		settingsHandle = config.SettingsHandle{
			Path:   filepath.Join(config.Dir(), "settings.toml"),
			Format: config.SettingsFormatTOML,
		}
	}
	detailSettings := applyDetailFlags(settings.Details, shareKind, bodyHeight, noHighlight)
	if saveConfig {
		settings.Details = detailSettings
		if key := strings.TrimSpace(themeKey); key != "" {
			settings.DefaultTheme = key
		}
		if err := config.SaveSettings(settings, settingsHandle); err != nil {
			log.Fatalf("save settings: %v", err)
		}
		fmt.Printf("settings saved to %s\n", settingsHandle.Path)
		os.Exit(0)
	}

	themeCatalog, themeErr := theme.LoadCatalog(config.ThemeDirs())
	if themeErr != nil {
		log.Printf("theme load error: %v", themeErr)
	}
	if listThemes {
		for _, def := range themeCatalog.All() {
			fmt.Printf("%-16s %s (%s)\n", def.Key, def.DisplayName, def.Source)
		}
		os.Exit(0)
	}
	requested := strings.TrimSpace(themeKey)
	if requested == "" {
		requested = settings.DefaultTheme
	}
	def := resolveTheme(themeCatalog, requested, termenv.HasDarkBackground())

	provider, err := telemetry.New(telemetryCfg)
	if err != nil {
		if telemetryCfg.Enabled() {
			log.Printf("telemetry init error: %v", err)
		}
		provider = telemetry.Noop()
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := provider.Shutdown(ctx); shutdownErr != nil {
			log.Printf("telemetry shutdown: %v", shutdownErr)
		}
	}()

	if storePath == "" {
		storePath = config.CaptureStorePath()
	}
	store := capture.NewStore(storePath, 0)
	if err := store.Load(); err != nil {
		log.Printf("capture store load error: %v", err)
	}

	rec, err := loadRecord(context.Background(), sourceOptions{
		harPath:  harPath,
		harEntry: harEntry,
		recordID: recordID,
		url:      targetURL,
		method:   method,
		data:     data,
		headers:  headers,
		timeout:  timeout,
	}, store, provider)
	if err != nil {
		log.Fatalf("load capture: %v", err)
	}

	if strings.TrimSpace(diffID) != "" {
		if err := printDiff(os.Stdout, store, diffID, rec); err != nil {
			log.Fatalf("diff: %v", err)
		}
		return
	}

	keyMap, _, err := bindings.Load(config.Dir())
	if err != nil {
		log.Printf("bindings load error: %v", err)
		keyMap = bindings.DefaultMap()
	}

	var stdoutShares bytes.Buffer
	sharer, err := share.New(detailSettings.Share, &stdoutShares)
	if err != nil {
		log.Fatalf("share: %v", err)
	}

	if claimBack {
		backkey.Set(func() bool { return true })
		defer backkey.Clear()
	}

	closeLog := setupLogging(os.Getenv(envLogFile))
	defer closeLog()

	model := newHost(hostConfig{
		Details: details.Config{
			Request:        rec,
			Sharer:         sharer,
			Theme:          def.Theme,
			BodyHeight:     detailSettings.BodyHeight,
			Highlight:      detailSettings.HighlightEnabled(),
			HighlightStyle: highlightStyleFor(def),
			Bindings:       keyMap,
		},
		Back:      backkey.Default,
		ShareKind: detailSettings.Share,
	})

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, runErr := program.Run()
	closeLog()
	if stdoutShares.Len() > 0 {
		_, _ = io.Copy(os.Stdout, &stdoutShares)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		os.Exit(1)
	}
}

// setupLogging keeps log output off the terminal while the TUI owns it.
func setupLogging(path string) func() {
	path = strings.TrimSpace(path)
	if path == "" {
		log.SetOutput(io.Discard)
		return func() { log.SetOutput(os.Stderr) }
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		log.Printf("open log file: %v", err)
		log.SetOutput(io.Discard)
		return func() { log.SetOutput(os.Stderr) }
	}
	log.SetOutput(f)
	return func() {
		log.SetOutput(os.Stderr)
		_ = f.Close()
	}
}

func applyDetailFlags(
	s config.DetailsSettings,
	shareKind string,
	bodyHeight int,
	noHighlight bool,
) config.DetailsSettings {
	if strings.TrimSpace(shareKind) != "" {
		s.Share = shareKind
	}
	if bodyHeight > 0 {
		s.BodyHeight = bodyHeight
	}
	if noHighlight {
		off := false
		s.Highlight = &off
	}
	return config.NormaliseDetailsSettings(s)
}

// resolveTheme picks the requested theme, falling back to the builtin that
// matches the terminal background.
func resolveTheme(catalog theme.Catalog, requested string, dark bool) theme.Definition {
	key := strings.ToLower(strings.TrimSpace(requested))
	if key != "" {
		if def, ok := catalog.Get(key); ok {
			return def
		}
		log.Printf("theme %q not found; using built-in default", requested)
	}
	fallback := "default"
	if !dark {
		fallback = "light"
	}
	if def, ok := catalog.Get(fallback); ok {
		return def
	}
	th := theme.DefaultTheme()
	if !dark {
		th = theme.LightTheme()
	}
	return theme.Definition{
		Key:         fallback,
		DisplayName: fallback,
		Theme:       th,
		Source:      theme.SourceBuiltin,
		Format:      theme.FormatBuiltin,
	}
}

func highlightStyleFor(def theme.Definition) string {
	if def.Key == "light" {
		return "github"
	}
	for _, tag := range def.Metadata.Tags {
		if strings.EqualFold(tag, "light") {
			return "github"
		}
	}
	return "monokai"
}

func executableChecksum() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", err
	}
	f, err := os.Open(exe)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = f.Close()
	}()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
