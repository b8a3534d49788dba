package batch

import (
	"encoding/json"
	"os"
)

// ManifestEntry represents one preview in the output manifest.
type ManifestEntry struct {
	Scene   string `json:"scene"`
	Variant string `json:"variant,omitempty"`
	Slot    string `json:"slot"`
	Source  string `json:"source"`
	Image   string `json:"image"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

// WriteManifest writes the successful results as a JSON array.
func WriteManifest(path string, results []Result) error {
	entries := make([]ManifestEntry, 0, len(results))
	for _, r := range results {
		if !r.Success {
			continue
		}
		entries = append(entries, ManifestEntry{
			Scene:   r.Scene,
			Variant: r.Variant,
			Slot:    r.Slot,
			Source:  r.Local,
			Image:   r.Image,
			Width:   r.Width,
			Height:  r.Height,
		})
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
