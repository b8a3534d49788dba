package customs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"customtex/internal/pathclass"
)

// Dirs are the pack directories found under a mixtape root.
type Dirs struct {
	Textures []string
	Scenes   []string
}

// Len counts the directories found.
func (d Dirs) Len() int { return len(d.Textures) + len(d.Scenes) }

// Discover finds the texture and scene directories of the mixtape at
// root. When root holds resource directories (res, resources, customtex)
// only their contents count.
func Discover(root string) (Dirs, error) {
	var d Dirs
	entries, err := os.ReadDir(root)
	if err != nil {
		return d, fmt.Errorf("customs: read %s: %w", root, err)
	}
	var nested []string
	for _, ent := range entries {
		sub := filepath.Join(root, ent.Name())
		if ent.IsDir() && pathclass.IsResourceDir(sub) {
			nested = append(nested, sub)
		}
	}
	if len(nested) == 0 {
		return d, d.collect(root)
	}
	var errs []error
	for _, dir := range nested {
		if err := d.collect(dir); err != nil {
			errs = append(errs, err)
		}
	}
	return d, errors.Join(errs...)
}

func (d *Dirs) collect(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("customs: read %s: %w", dir, err)
	}
	for _, ent := range entries {
		if !ent.IsDir() {
			continue
		}
		sub := filepath.Join(dir, ent.Name())
		switch {
		case pathclass.IsTextureDir(sub):
			d.Textures = append(d.Textures, sub)
		case pathclass.IsSceneDir(sub):
			d.Scenes = append(d.Scenes, sub)
		}
	}
	return nil
}

// SceneNames guesses scene keys from the directory and file names of a
// pack, for tools that run without a host to ask.
func (d Dirs) SceneNames() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(name string) {
		if name == "" || seen[strings.ToLower(name)] {
			return
		}
		seen[strings.ToLower(name)] = true
		out = append(out, name)
	}
	for _, dir := range d.Textures {
		entries, _ := os.ReadDir(dir)
		for _, ent := range entries {
			if ent.IsDir() {
				tok, _, _ := strings.Cut(ent.Name(), " ")
				add(leadingWord(tok))
			}
		}
	}
	for _, dir := range d.Scenes {
		entries, _ := os.ReadDir(dir)
		for _, ent := range entries {
			if stem, ok := pathclass.MatchSceneFile(ent.Name()); ok && !ent.IsDir() {
				add(stem)
			}
		}
	}
	return out
}

func leadingWord(s string) string {
	for i, r := range s {
		if !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return s[:i]
		}
	}
	return s
}
