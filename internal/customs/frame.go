package customs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"

	"customtex/internal/events"
)

// MixtapeFile is the host's mixtape document inside a mixtape root.
const MixtapeFile = "mixtape.json"

// Frame is every pack and override path the mixtape's events refer to,
// collected once per read.
type Frame struct {
	TexturePacks     []string
	ScenePacks       []string
	TextureOverrides []string
	SceneOverrides   []string
}

// Paths returns all referenced paths.
func (f *Frame) Paths() []string {
	if f == nil {
		return nil
	}
	var out []string
	for _, list := range [][]string{f.TexturePacks, f.ScenePacks, f.TextureOverrides, f.SceneOverrides} {
		out = append(out, list...)
	}
	return out
}

// Len counts referenced paths.
func (f *Frame) Len() int { return len(f.Paths()) }

func addPath(list []string, p string) []string {
	p = strings.TrimSpace(p)
	if p == "" {
		return list
	}
	for _, have := range list {
		if strings.EqualFold(have, p) {
			return list
		}
	}
	return append(list, p)
}

// BuildFrame scans root's mixtape document. A missing document gives an
// empty frame and no error.
func BuildFrame(root string) (*Frame, error) {
	f := &Frame{}
	data, err := os.ReadFile(filepath.Join(root, MixtapeFile))
	if errors.Is(err, fs.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return f, fmt.Errorf("customs: read %s: %w", MixtapeFile, err)
	}
	if !gjson.ValidBytes(data) {
		return f, fmt.Errorf("customs: %s is not valid JSON", MixtapeFile)
	}

	gjson.GetBytes(data, "entities").ForEach(func(_, ent gjson.Result) bool {
		if !ent.IsObject() {
			return true
		}
		k, ok := events.Parse(ent.Get("type").String())
		if !ok {
			return true
		}
		props := ent.Get("properties")
		if !props.IsObject() {
			return true
		}
		path := props.Get("path").String()
		switch k {
		case events.SetTexturePack:
			f.TexturePacks = addPath(f.TexturePacks, path)
		case events.SetSceneModPack:
			f.ScenePacks = addPath(f.ScenePacks, path)
		case events.SetTextureOverride:
			f.TextureOverrides = addPath(f.TextureOverrides, path)
		case events.SetSceneModOverride:
			f.SceneOverrides = addPath(f.SceneOverrides, path)
		}
		return true
	})
	return f, nil
}
