package pathclass

import "testing"

func TestDirectoryShapes(t *testing.T) {
	cases := []struct {
		path           string
		res, tex, scen bool
	}{
		{"/mix/textures", false, true, false},
		{"/mix/tex", false, true, false},
		{`C:\mix\Texture`, false, true, false},
		{"/mix/levels", false, false, true},
		{"/mix/Scene", false, false, true},
		{"/mix/res", true, false, false},
		{"/mix/Resources", true, false, false},
		{"/mix/customtex", true, false, false},
		{"/mix/context", false, false, false},
		{"/mix/textures2", false, false, false},
	}
	for _, tc := range cases {
		if got := IsResourceDir(tc.path); got != tc.res {
			t.Errorf("IsResourceDir(%q) = %v", tc.path, got)
		}
		if got := IsTextureDir(tc.path); got != tc.tex {
			t.Errorf("IsTextureDir(%q) = %v", tc.path, got)
		}
		if got := IsSceneDir(tc.path); got != tc.scen {
			t.Errorf("IsSceneDir(%q) = %v", tc.path, got)
		}
	}
}

func TestMatchTextureFile(t *testing.T) {
	cases := []struct {
		in   string
		ok   bool
		want TextureFile
	}{
		{"textures/BoxShow/sactx-0-2048x2048.png", true, TextureFile{"BoxShow", "", "sactx-0-2048x2048.png"}},
		{"textures/BoxShow Night/deep/dir/Cube.JPG", true, TextureFile{"BoxShow", "Night", "Cube.JPG"}},
		{`tex\FlowWorms-Alt\worm.webp`, true, TextureFile{"FlowWorms", "Alt", "worm.webp"}},
		{"textures/BoxShow/readme.txt", false, TextureFile{}},
		{"textures/loose.png", false, TextureFile{}},
		{"levels/BoxShow/a.png", false, TextureFile{}},
	}
	for _, tc := range cases {
		got, ok := MatchTextureFile(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("MatchTextureFile(%q) = %+v, %v", tc.in, got, ok)
		}
	}
}

func TestClassifyTexture(t *testing.T) {
	if s := ClassifyTexture("SACTX-3-1024x1024.png"); s.Kind != SlotAtlas || s.Index != 3 {
		t.Fatalf("atlas slot = %+v", s)
	}
	if s := ClassifyTexture("Player_Idle (1).png"); s.Kind != SlotNamed || s.Name != "Player_Idle" {
		t.Fatalf("named slot = %+v", s)
	}
	if s := ClassifyTexture("-.png"); s.Kind != SlotNone {
		t.Fatalf("no slot = %+v", s)
	}
}

func TestMatchSceneFile(t *testing.T) {
	if stem, ok := MatchSceneFile("levels/BoxShow.jsonc"); !ok || stem != "BoxShow" {
		t.Fatalf("stem = %q, %v", stem, ok)
	}
	if _, ok := MatchSceneFile("BoxShow.txt"); ok {
		t.Fatal("txt matched")
	}
	if !IsJSONC("a.JSONC") || IsJSONC("a.json") {
		t.Fatal("IsJSONC")
	}
}

func TestMatchAtlasTexture(t *testing.T) {
	ref, ok := MatchAtlasTexture("sactx-2-2048x1024-DXT5|BC3-_FlowWormsAtlas-9f3c")
	if !ok || ref.Index != 2 || ref.SceneToken != "FlowWorms" {
		t.Fatalf("ref = %+v, %v", ref, ok)
	}
	if _, ok := MatchAtlasTexture("UI_Font"); ok {
		t.Fatal("unrelated texture matched")
	}
}
