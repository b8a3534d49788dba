package cli

import (
	"os"
	"path/filepath"
	"testing"

	"customtex/internal/pack"
	"customtex/internal/variant"
)

func TestCatalogFromFlagOrPack(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "textures", "FlowWorms Dusk"), 0o755); err != nil {
		t.Fatal(err)
	}

	c := Common{Scenes: "BoxShow, ,FlowWorms"}
	cat, err := c.Catalog(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cat.Len() != 2 {
		t.Fatalf("flag catalog = %v", cat.Keys())
	}

	c.Scenes = ""
	cat, err = c.Catalog(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cat.Len() != 1 || !cat.ToKeyOrInvalid("flowworms").Valid() {
		t.Fatalf("guessed catalog = %v", cat.Keys())
	}
}

func TestLoadAppliesFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "customtex.cfg")
	if err := os.WriteFile(path, []byte("[Variants]\nUnresolvedPolicy = error\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	temp := t.TempDir()
	c := Common{ConfigFile: path, TempRoot: temp, Policy: "lowpriority"}
	cfg, log, err := c.Load()
	if err != nil {
		t.Fatal(err)
	}
	if log == nil || cfg.TempRoot != temp || cfg.UnresolvedPolicy != variant.PolicyLowPriority {
		t.Fatalf("cfg = %+v", cfg)
	}

	c.Policy = "sometimes"
	if _, _, err := c.Load(); err == nil {
		t.Fatal("bad policy accepted")
	}
}

func TestOpenArchive(t *testing.T) {
	src := t.TempDir()
	if err := os.MkdirAll(filepath.Join(src, "levels"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "levels", "BoxShow.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	archive := filepath.Join(t.TempDir(), "mix.zip")
	if err := pack.PackDirectory(src, archive); err != nil {
		t.Fatal(err)
	}

	c := Common{TempRoot: t.TempDir()}
	cfg, log, err := c.Load()
	if err != nil {
		t.Fatal(err)
	}

	mt, err := Open(src, cfg, log)
	if err != nil || mt.Dir != src || mt.Archive != "" {
		t.Fatalf("dir open = %+v, %v", mt, err)
	}

	mt, err = Open(archive, cfg, log)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(mt.Dir, "levels", "BoxShow.json")); err != nil {
		t.Fatalf("archive not extracted: %v", err)
	}
	if err := mt.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(mt.Dir); !os.IsNotExist(err) {
		t.Fatalf("extracted copy kept: %v", err)
	}
}
