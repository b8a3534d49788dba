package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"customtex/internal/events"
	"customtex/internal/logging"
	"customtex/internal/variant"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "none.cfg"))
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.SaveCustomFiles || cfg.DisplayEventTemplates != events.DisplayWhenActive || cfg.EventTemplatesIndex != 4 {
		t.Fatalf("got %+v", cfg)
	}
	if cfg.Levels[logging.OutdatedPlugin] != logging.LevelError|logging.LevelEditor {
		t.Fatalf("outdated level = %v", cfg.Levels[logging.OutdatedPlugin])
	}
}

func TestParseSections(t *testing.T) {
	cfg, err := Parse([]byte(`
[Editor]
SaveCustomFiles = false
DisplayEventTemplates = always
EventTemplatesIndex = 2

[Logging]
LogUpgradeMixtape = Info

[Logging.Debugging]
LogFileLoading = Warning|Editor

[Paths]
TempRoot = /var/tmp/ct

[Variants]
UnresolvedPolicy = lowpriority
`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SaveCustomFiles || cfg.DisplayEventTemplates != events.DisplayAlways || cfg.EventTemplatesIndex != 2 {
		t.Fatalf("editor = %+v", cfg)
	}
	if cfg.Levels[logging.UpgradeMixtape] != logging.LevelInfo {
		t.Fatalf("upgrade level = %v", cfg.Levels[logging.UpgradeMixtape])
	}
	if cfg.Levels[logging.FileLoading] != logging.LevelWarning|logging.LevelEditor {
		t.Fatalf("file loading level = %v", cfg.Levels[logging.FileLoading])
	}
	if cfg.TempRoot != "/var/tmp/ct" || cfg.UnresolvedPolicy != variant.PolicyLowPriority {
		t.Fatalf("got %+v", cfg)
	}
}

func TestBadValuesKeepDefaults(t *testing.T) {
	cfg, err := Parse([]byte("[Editor]\nSaveCustomFiles = maybe\n[Logging.Modding]\nLogSceneIndices = Loud\n"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "SaveCustomFiles") || !strings.Contains(err.Error(), "LogSceneIndices") {
		t.Fatalf("err = %v", err)
	}
	if !cfg.SaveCustomFiles || cfg.Levels[logging.SceneIndices] != logging.LevelNone {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLegacyKeysMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "customtex.cfg")
	legacy := "[Logging]\nLogFileLoading = Info\nLogSeperateTextureSprites = Error\n"
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Migrated) != 2 {
		t.Fatalf("migrated = %v", cfg.Migrated)
	}
	if cfg.Levels[logging.FileLoading] != logging.LevelInfo || cfg.Levels[logging.SeparateTextureSprites] != logging.LevelError {
		t.Fatalf("levels = %v", cfg.Levels)
	}

	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "LogSeperateTextureSprites") {
		t.Fatalf("legacy key kept:\n%s", data)
	}
	again, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(again.Migrated) != 0 || again.Levels[logging.FileLoading] != logging.LevelInfo {
		t.Fatalf("reload = %+v", again)
	}
}

func TestResolveFlags(t *testing.T) {
	cfg := Default()
	if err := cfg.Resolve(Flags{Policy: "lowpriority", Verbose: true}); err != nil {
		t.Fatal(err)
	}
	if cfg.TempRoot != DefaultTempRoot() {
		t.Fatalf("temp root = %q", cfg.TempRoot)
	}
	if cfg.UnresolvedPolicy != variant.PolicyLowPriority || cfg.Levels[logging.Unloading] != logging.LevelInfo {
		t.Fatalf("got %+v", cfg)
	}
	if err := cfg.Resolve(Flags{Display: "sometimes"}); err == nil {
		t.Fatal("bad display accepted")
	}
}
