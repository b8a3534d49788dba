package batch

import (
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/webp"

	"customtex/internal/pathclass"
	"customtex/internal/texture"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestThumbnail(t *testing.T) {
	tests := []struct {
		w, h, max int
		wantW     int
		wantH     int
	}{
		{10, 5, 4, 4, 2},
		{5, 10, 4, 2, 4},
		{3, 3, 4, 3, 3},
		{100, 1, 10, 10, 1},
		{8, 8, 0, 8, 8},
	}
	for _, tt := range tests {
		got := Thumbnail(image.NewNRGBA(image.Rect(0, 0, tt.w, tt.h)), tt.max)
		if got.Bounds().Dx() != tt.wantW || got.Bounds().Dy() != tt.wantH {
			t.Errorf("%dx%d max %d = %v", tt.w, tt.h, tt.max, got.Bounds())
		}
	}
}

func TestTrim(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	img.Set(2, 3, color.NRGBA{255, 0, 0, 255})
	img.Set(5, 4, color.NRGBA{0, 255, 0, 10})
	got := Trim(img)
	if got.Bounds() != image.Rect(0, 0, 4, 2) {
		t.Fatalf("bounds = %v", got.Bounds())
	}
	if got.NRGBAAt(0, 0).R != 255 {
		t.Fatal("pixels not copied")
	}

	empty := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	if Trim(empty) != empty {
		t.Fatal("transparent image should be returned as is")
	}
}

func TestRunWritesPreviews(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	good := filepath.Join(src, "textures", "BoxShow", "Cube.png")
	writePNG(t, good, 16, 8)
	bad := filepath.Join(src, "textures", "BoxShow", "Lamp.png")
	if err := os.WriteFile(bad, []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}

	jobs := []Job{
		{File: texture.File{Path: good, Local: "textures/BoxShow/Cube.png", Scene: "BoxShow", Slot: pathclass.Slot{Kind: pathclass.SlotNamed, Name: "Cube"}}},
		{File: texture.File{Path: bad, Local: "textures/BoxShow/Lamp.png", Scene: "BoxShow", Slot: pathclass.Slot{Kind: pathclass.SlotNamed, Name: "Lamp"}}, Variant: "Night"},
	}
	results := Run(Config{OutputDir: out, MaxSize: 4, Workers: 2}, jobs)
	if !results[0].Success || results[1].Success {
		t.Fatalf("results = %+v", results)
	}
	if results[0].Width != 4 || results[0].Height != 2 {
		t.Fatalf("preview size = %dx%d", results[0].Width, results[0].Height)
	}

	f, err := os.Open(filepath.Join(out, "textures", "BoxShow", "Cube.webp"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := webp.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 4 || cfg.Height != 2 {
		t.Fatalf("webp = %dx%d", cfg.Width, cfg.Height)
	}

	path := filepath.Join(out, "manifest.json")
	if err := WriteManifest(path, results); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var entries []ManifestEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Image != "textures/BoxShow/Cube.webp" || entries[0].Slot != "Cube" {
		t.Fatalf("manifest = %+v", entries)
	}
}
