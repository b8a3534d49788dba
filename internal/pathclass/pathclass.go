// Package pathclass holds the path-shape heuristics used to recognise pack
// directories and files. Everything here is a pure function over strings.
package pathclass

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	resourceDirRe = regexp.MustCompile(`(?i)[\\/](?:res(?:ource)?s?|customtex)$`)
	textureDirRe  = regexp.MustCompile(`(?i)[\\/]text?u?r?e?s?$`)
	sceneDirRe    = regexp.MustCompile(`(?i)[\\/](?:level|scene)s?$`)

	textureFileRe = regexp.MustCompile(`(?i)^text?u?r?e?s?[\\/](\w+)[^\w\\/]*(\w+)?[\\/](?:.*[\\/])?([^\\/]*\.(?:png|jpe?g|jpe|jfif|jfi|jif|webp|bmp|tga))$`)
	sceneFileRe   = regexp.MustCompile(`(?i)^(\w+)\.jsonc?$`)

	atlasFileRe    = regexp.MustCompile(`(?i)^sactx-(\d+)`)
	namedFileRe    = regexp.MustCompile(`^(\w+)`)
	atlasTextureRe = regexp.MustCompile(`^sactx-(\d+)-\d+x\d+-DXT5\|BC3-_(\w+)Atlas`)
)

// IsResourceDir reports whether dir is a nested resource directory
// (res, resources, customtex).
func IsResourceDir(dir string) bool { return resourceDirRe.MatchString(dir) }

// IsTextureDir matches "textures" and its abbreviations (tex, text, textu...).
func IsTextureDir(dir string) bool { return textureDirRe.MatchString(dir) }

// IsSceneDir matches level, levels, scene and scenes.
func IsSceneDir(dir string) bool { return sceneDirRe.MatchString(dir) }

// TextureFile is a texture path split into its tokens.
type TextureFile struct {
	SceneToken   string
	VariantToken string
	Filename     string
}

// MatchTextureFile classifies a path relative to the pack root, such as
// "textures/BoxShow Night/props/sactx-0.png".
func MatchTextureFile(local string) (TextureFile, bool) {
	m := textureFileRe.FindStringSubmatch(local)
	if m == nil {
		return TextureFile{}, false
	}
	return TextureFile{SceneToken: m[1], VariantToken: m[2], Filename: m[3]}, true
}

// SlotKind says how a replacement texture maps onto host sprites.
type SlotKind int

const (
	SlotNone SlotKind = iota
	SlotAtlas
	SlotNamed
)

func (k SlotKind) String() string {
	switch k {
	case SlotAtlas:
		return "atlas"
	case SlotNamed:
		return "named"
	}
	return "none"
}

// Slot is either an atlas index or a sprite name.
type Slot struct {
	Kind  SlotKind
	Index int
	Name  string
}

func (s Slot) String() string {
	switch s.Kind {
	case SlotAtlas:
		return "sactx-" + strconv.Itoa(s.Index)
	case SlotNamed:
		return s.Name
	}
	return "?"
}

// ClassifyTexture maps a file name to its slot: a leading "sactx-N" is
// atlas slot N, otherwise the leading word is a sprite name.
func ClassifyTexture(filename string) Slot {
	base := filepath.Base(filename)
	if m := atlasFileRe.FindStringSubmatch(base); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return Slot{Kind: SlotAtlas, Index: n}
		}
	}
	if m := namedFileRe.FindStringSubmatch(base); m != nil {
		return Slot{Kind: SlotNamed, Name: m[1]}
	}
	return Slot{}
}

// MatchSceneFile returns the stem of a scene mod file name.
func MatchSceneFile(filename string) (string, bool) {
	m := sceneFileRe.FindStringSubmatch(filepath.Base(filename))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// IsJSONC reports whether a scene mod file may contain comments.
func IsJSONC(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".jsonc")
}

// AtlasRef is the scene token and index parsed from a packed host texture.
type AtlasRef struct {
	SceneToken string
	Index      int
}

// MatchAtlasTexture parses host atlas texture names of the form
// "sactx-<N>-<W>x<H>-DXT5|BC3-_<Scene>Atlas-...".
func MatchAtlasTexture(name string) (AtlasRef, bool) {
	m := atlasTextureRe.FindStringSubmatch(name)
	if m == nil {
		return AtlasRef{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return AtlasRef{}, false
	}
	return AtlasRef{SceneToken: m[2], Index: n}, true
}
