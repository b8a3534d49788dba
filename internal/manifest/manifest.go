// Package manifest reads and stamps the small version sidecar that marks a
// mixtape as carrying custom assets.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// FileName is the sidecar name inside a mixtape root.
const FileName = "customtex.json"

// Releases this build understands. Files without a sidecar are treated as
// the lowest release.
const (
	CurrentVersion = "0.2.0"
	CurrentRelease = 2
	LowestVersion  = "0.1.0"
	LowestRelease  = 1
)

// ErrParse marks a sidecar that exists but could not be read as intended.
var ErrParse = errors.New("manifest: malformed")

type Manifest struct {
	Version string
	Release uint32
	// Exists is false when the mixtape had no sidecar.
	Exists bool
}

// Current is the manifest this build writes.
func Current() Manifest {
	return Manifest{Version: CurrentVersion, Release: CurrentRelease, Exists: true}
}

func lowest() Manifest {
	return Manifest{Version: LowestVersion, Release: LowestRelease}
}

// Status compares a manifest with this build.
type Status int

const (
	StatusCurrent Status = iota
	// StatusUpgrade: written by an older build; saving upgrades it.
	StatusUpgrade
	// StatusTooNew: written by a newer build than this one.
	StatusTooNew
)

func (s Status) String() string {
	switch s {
	case StatusUpgrade:
		return "upgrade"
	case StatusTooNew:
		return "too new"
	}
	return "current"
}

func (m Manifest) Status() Status {
	switch {
	case m.Release > CurrentRelease:
		return StatusTooNew
	case m.Release < CurrentRelease:
		return StatusUpgrade
	}
	return StatusCurrent
}

// Read loads the sidecar from dir. A missing file is not an error. Fields
// that are absent or mistyped fall back to the lowest release and are
// reported in the returned error, which wraps ErrParse; the manifest is
// usable either way.
func Read(dir string) (Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return lowest(), nil
	}
	if err != nil {
		return lowest(), fmt.Errorf("manifest: read %s: %w", path, err)
	}

	m := lowest()
	m.Exists = true
	if !gjson.ValidBytes(data) {
		return m, fmt.Errorf("%w: %s is not valid JSON", ErrParse, path)
	}
	doc := gjson.ParseBytes(data)
	var errs []error

	switch rel := doc.Get("release"); {
	case !rel.Exists():
		errs = append(errs, fmt.Errorf("%w: release missing", ErrParse))
	case rel.Type != gjson.Number || rel.Num < 0 || rel.Num != float64(uint32(rel.Num)):
		errs = append(errs, fmt.Errorf("%w: release is %s, want an unsigned integer", ErrParse, rel.Raw))
	default:
		m.Release = uint32(rel.Uint())
	}

	switch ver := doc.Get("version"); {
	case !ver.Exists():
		errs = append(errs, fmt.Errorf("%w: version missing", ErrParse))
	case ver.Type != gjson.String:
		errs = append(errs, fmt.Errorf("%w: version is %s, want a string", ErrParse, ver.Raw))
	default:
		m.Version = ver.String()
	}
	return m, errors.Join(errs...)
}

// Write stores m in dir. Keys already in the sidecar that this package
// does not own are kept.
func Write(dir string, m Manifest) error {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil || !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		data = []byte("{}")
	}
	if data, err = sjson.SetBytes(data, "version", m.Version); err != nil {
		return fmt.Errorf("manifest: set version: %w", err)
	}
	if data, err = sjson.SetBytes(data, "release", m.Release); err != nil {
		return fmt.Errorf("manifest: set release: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("manifest: write %s: %w", path, err)
	}
	return nil
}

// Stamp writes the current manifest into dir.
func Stamp(dir string) error { return Write(dir, Current()) }
