package texture

import (
	"io/fs"
	"path/filepath"

	"customtex/internal/pathclass"
	"customtex/internal/scene"
	"customtex/internal/variant"
)

// File is one pack image matched to a scene, variant and slot.
type File struct {
	Path    string
	Local   string
	Scene   scene.Key
	Variant variant.ID
	Slot    pathclass.Slot
}

// Skipped is a pack image that did not map onto a scene.
type Skipped struct {
	Local  string
	Reason string
	// Hint is the closest scene name when the scene token was unknown.
	Hint string
}

// Index lists the textures found under one texture directory.
type Index struct {
	Dir     string
	Files   []File
	Skipped []Skipped
}

// BuildIndex walks texDir. Paths are matched relative to texDir's parent so
// the texture directory name itself is part of the pattern. A pack
// directory with any other name (selected by path at runtime) is matched
// as if it were named "textures". Variant names are registered as they are
// found.
func BuildIndex(texDir string, catalog *scene.Catalog, variants *variant.Registry) *Index {
	idx := &Index{Dir: texDir}
	base := filepath.Dir(texDir)
	renamed := !pathclass.IsTextureDir(texDir)

	filepath.WalkDir(texDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		local, err := filepath.Rel(base, path)
		if err != nil {
			return nil
		}
		match := local
		if renamed {
			rel, _ := filepath.Rel(texDir, path)
			match = filepath.Join("textures", rel)
		}
		m, ok := pathclass.MatchTextureFile(match)
		if !ok {
			return nil
		}
		sc := catalog.ToKeyOrInvalid(m.SceneToken)
		if !sc.Valid() {
			sk := Skipped{Local: local, Reason: "unknown scene " + m.SceneToken}
			sk.Hint, _ = catalog.Suggest(m.SceneToken)
			idx.Skipped = append(idx.Skipped, sk)
			return nil
		}
		slot := pathclass.ClassifyTexture(m.Filename)
		if slot.Kind == pathclass.SlotNone {
			idx.Skipped = append(idx.Skipped, Skipped{Local: local, Reason: "unclassified file name"})
			return nil
		}
		idx.Files = append(idx.Files, File{
			Path:    path,
			Local:   local,
			Scene:   sc,
			Variant: variants.GetOrAdd(sc, m.VariantToken),
			Slot:    slot,
		})
		return nil
	})

	return idx
}

// Len returns the number of matched textures.
func (idx *Index) Len() int {
	return len(idx.Files)
}
