package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"

	"customtex/internal/events"
	"customtex/internal/logging"
	"customtex/internal/variant"
)

// Config holds the plugin settings.
type Config struct {
	// Editor
	SaveCustomFiles       bool
	UpgradeOldMixtapes    bool
	DisplayEventTemplates events.Display
	EventTemplatesIndex   int

	// Logging
	Levels map[logging.Category]logging.Level

	// Paths
	TempRoot string

	// Variants
	UnresolvedPolicy variant.Policy

	// Migrated lists legacy keys moved into their current section by Load.
	Migrated []string

	file *ini.File
}

type levelKey struct {
	section string
	key     string
	cat     logging.Category
}

var levelKeys = []levelKey{
	{"Logging", "LogOutdatedPlugin", logging.OutdatedPlugin},
	{"Logging", "LogUpgradeMixtape", logging.UpgradeMixtape},
	{"Logging.Debugging", "LogFileLoading", logging.FileLoading},
	{"Logging.Debugging", "LogUnloading", logging.Unloading},
	{"Logging.Debugging", "LogSeparateTextureSprites", logging.SeparateTextureSprites},
	{"Logging.Debugging", "LogAtlasTextureSprites", logging.AtlasTextureSprites},
	{"Logging.Modding", "LogSceneIndices", logging.SceneIndices},
}

// legacyKeys maps keys of the old flat [Logging] section to their
// current home.
var legacyKeys = []struct {
	old     string
	section string
	key     string
}{
	{"LogFileLoading", "Logging.Debugging", "LogFileLoading"},
	{"LogUnloading", "Logging.Debugging", "LogUnloading"},
	{"LogSeperateTextureSprites", "Logging.Debugging", "LogSeparateTextureSprites"},
	{"LogSeparateTextureSprites", "Logging.Debugging", "LogSeparateTextureSprites"},
	{"LogAtlasTextureSprites", "Logging.Debugging", "LogAtlasTextureSprites"},
	{"LogSceneIndices", "Logging.Modding", "LogSceneIndices"},
}

// Default returns the settings used when no file sets them.
func Default() Config {
	return Config{
		SaveCustomFiles:       true,
		UpgradeOldMixtapes:    true,
		DisplayEventTemplates: events.DisplayWhenActive,
		EventTemplatesIndex:   4,
		Levels:                logging.DefaultLevels(),
		UnresolvedPolicy:      variant.PolicyError,
		file:                  ini.Empty(),
	}
}

var loadOptions = ini.LoadOptions{
	SkipUnrecognizableLines: true,
	IgnoreInlineComment:     false,
}

// Load reads an INI config file. A missing file yields the defaults.
// Keys with unusable values keep their default and are reported in the
// returned error; the Config is usable either way.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	f, err := ini.LoadSources(loadOptions, path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg.file = f
	cfg.Migrated = migrate(f)
	return cfg, cfg.read()
}

// Parse reads config from INI text.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	f, err := ini.LoadSources(loadOptions, data)
	if err != nil {
		return cfg, fmt.Errorf("config: parse: %w", err)
	}
	cfg.file = f
	cfg.Migrated = migrate(f)
	return cfg, cfg.read()
}

func migrate(f *ini.File) []string {
	old, err := f.GetSection("Logging")
	if err != nil {
		return nil
	}
	var moved []string
	for _, lk := range legacyKeys {
		if !old.HasKey(lk.old) {
			continue
		}
		val := old.Key(lk.old).Value()
		old.DeleteKey(lk.old)
		sec := f.Section(lk.section)
		if sec.HasKey(lk.key) {
			continue
		}
		sec.Key(lk.key).SetValue(val)
		moved = append(moved, "Logging."+lk.old)
	}
	return moved
}

func (c *Config) read() error {
	var errs []error
	bad := func(sec, key string, err error) {
		errs = append(errs, fmt.Errorf("config: [%s] %s: %w", sec, key, err))
	}
	value := func(sec, key string) (string, bool) {
		s, err := c.file.GetSection(sec)
		if err != nil || !s.HasKey(key) {
			return "", false
		}
		return strings.TrimSpace(s.Key(key).String()), true
	}

	for _, b := range []struct {
		key string
		dst *bool
	}{
		{"SaveCustomFiles", &c.SaveCustomFiles},
		{"UpgradeOldMixtapes", &c.UpgradeOldMixtapes},
	} {
		if v, ok := value("Editor", b.key); ok {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				bad("Editor", b.key, err)
				continue
			}
			*b.dst = parsed
		}
	}
	if v, ok := value("Editor", "DisplayEventTemplates"); ok {
		d, err := events.ParseDisplay(v)
		if err != nil {
			bad("Editor", "DisplayEventTemplates", err)
		} else {
			c.DisplayEventTemplates = d
		}
	}
	if v, ok := value("Editor", "EventTemplatesIndex"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			bad("Editor", "EventTemplatesIndex", err)
		} else {
			c.EventTemplatesIndex = n
		}
	}

	for _, lk := range levelKeys {
		v, ok := value(lk.section, lk.key)
		if !ok {
			continue
		}
		lv, err := logging.ParseLevel(v)
		if err != nil {
			bad(lk.section, lk.key, err)
			continue
		}
		c.Levels[lk.cat] = lv
	}

	if v, ok := value("Paths", "TempRoot"); ok {
		c.TempRoot = v
	}
	if v, ok := value("Variants", "UnresolvedPolicy"); ok {
		p, err := variant.ParsePolicy(v)
		if err != nil {
			bad("Variants", "UnresolvedPolicy", err)
		} else {
			c.UnresolvedPolicy = p
		}
	}
	return errors.Join(errs...)
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	TempRoot string
	Policy   string
	Display  string
	Verbose  bool
}

// Resolve applies flags over the file values and fills what is still
// empty with defaults.
func (c *Config) Resolve(flags Flags) error {
	var errs []error
	if flags.TempRoot != "" {
		c.TempRoot = flags.TempRoot
	}
	if flags.Policy != "" {
		p, err := variant.ParsePolicy(flags.Policy)
		if err != nil {
			errs = append(errs, err)
		} else {
			c.UnresolvedPolicy = p
		}
	}
	if flags.Display != "" {
		d, err := events.ParseDisplay(flags.Display)
		if err != nil {
			errs = append(errs, err)
		} else {
			c.DisplayEventTemplates = d
		}
	}
	if flags.Verbose {
		for _, lk := range levelKeys {
			if lk.section == "Logging.Debugging" {
				c.Levels[lk.cat] = logging.LevelInfo
			}
		}
	}

	if c.TempRoot == "" {
		c.TempRoot = DefaultTempRoot()
	} else if !filepath.IsAbs(c.TempRoot) {
		if abs, err := filepath.Abs(c.TempRoot); err == nil {
			c.TempRoot = abs
		}
	}
	if c.Levels == nil {
		c.Levels = logging.DefaultLevels()
	}
	return errors.Join(errs...)
}

// DefaultTempRoot is the shared parent of every process's temp directory.
func DefaultTempRoot() string {
	return filepath.Join(os.TempDir(), "customtex")
}

// Save writes the current values back, keeping comments and unknown keys
// of the loaded file.
func (c *Config) Save(path string) error {
	f := c.file
	if f == nil {
		f = ini.Empty()
		c.file = f
	}
	set := func(sec, key, val string) {
		f.Section(sec).Key(key).SetValue(val)
	}
	set("Editor", "SaveCustomFiles", strconv.FormatBool(c.SaveCustomFiles))
	set("Editor", "UpgradeOldMixtapes", strconv.FormatBool(c.UpgradeOldMixtapes))
	set("Editor", "DisplayEventTemplates", c.DisplayEventTemplates.String())
	set("Editor", "EventTemplatesIndex", strconv.Itoa(c.EventTemplatesIndex))
	for _, lk := range levelKeys {
		set(lk.section, lk.key, c.Levels[lk.cat].String())
	}
	if c.TempRoot != "" {
		set("Paths", "TempRoot", c.TempRoot)
	}
	set("Variants", "UnresolvedPolicy", c.UnresolvedPolicy.String())

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create dir for %s: %w", path, err)
	}
	if err := f.SaveTo(path); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
