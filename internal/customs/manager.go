// Package customs ties the texture and scene mod engines, the pack
// backup and the version sidecar together into the lifecycle of one open
// mixtape: read, initialise scenes, schedule events, save and reset.
package customs

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"customtex/internal/config"
	"customtex/internal/events"
	"customtex/internal/host"
	"customtex/internal/logging"
	"customtex/internal/manifest"
	"customtex/internal/pack"
	"customtex/internal/scene"
	"customtex/internal/scenemod"
	"customtex/internal/schedule"
	"customtex/internal/texture"
	"customtex/internal/variant"
)

// Manager owns every per-mixtape table.
type Manager struct {
	log       *logging.Logger
	cfg       config.Config
	catalog   *scene.Catalog
	variants  *variant.Registry
	textures  *texture.Engine
	scenes    *scenemod.Engine
	files     *pack.Manager
	templates *events.Registry

	manifest  manifest.Manifest
	hasAssets bool
	root      string
	dirs      Dirs
	frame     *Frame

	lastPath      string
	lastModified  time.Time
	readNecessary bool
	scans         int

	rt      runtimeState
	session *schedule.Session
}

// New builds a manager. categories is the host's editor category list that
// the event templates are inserted into.
func New(log *logging.Logger, cfg config.Config, gfx host.Graphics, catalog *scene.Catalog, categories []events.Category) *Manager {
	if log == nil {
		log = logging.Discard()
	}
	if cfg.TempRoot == "" {
		cfg.TempRoot = config.DefaultTempRoot()
	}
	variants := variant.NewRegistry(catalog)
	variants.Policy = cfg.UnresolvedPolicy

	m := &Manager{
		log:           log,
		cfg:           cfg,
		catalog:       catalog,
		variants:      variants,
		textures:      texture.NewEngine(log, gfx, catalog, variants),
		scenes:        scenemod.NewEngine(log, gfx, catalog, variants),
		files:         pack.NewManager(log, cfg.TempRoot),
		templates:     events.NewRegistry(categories, cfg.EventTemplatesIndex),
		readNecessary: true,
		rt:            newRuntimeState(),
	}
	m.scenes.Swappers = func(sc scene.Key, obj host.Object) (scenemod.Swapper, bool) {
		sw, ok := m.textures.SwapperFor(sc, obj)
		if !ok {
			return nil, false
		}
		return sw, true
	}
	m.UpdateEventTemplates()
	return m
}

func (m *Manager) Textures() *texture.Engine   { return m.textures }
func (m *Manager) SceneMods() *scenemod.Engine { return m.scenes }
func (m *Manager) Variants() *variant.Registry { return m.variants }
func (m *Manager) Files() *pack.Manager        { return m.files }
func (m *Manager) Templates() *events.Registry { return m.templates }
func (m *Manager) Manifest() manifest.Manifest { return m.manifest }
func (m *Manager) Frame() *Frame               { return m.frame }
func (m *Manager) Root() string                { return m.root }
func (m *Manager) Dirs() Dirs                  { return m.dirs }
func (m *Manager) HasCustomAssets() bool       { return m.hasAssets }

// Scans counts directory reads that actually touched the filesystem.
func (m *Manager) Scans() int { return m.scans }

// CleanStaleTemp removes temp directories of processes that are gone.
func (m *Manager) CleanStaleTemp() (int, error) { return m.files.CleanStale() }

// ReadDirectory indexes the mixtape rooted at path. In the editor the
// asset directories are also backed up so they can be written back on
// save. Nothing happens when the same mixtape was read and not reset.
func (m *Manager) ReadDirectory(path string, editor bool) {
	if !m.readNecessary {
		return
	}
	m.readNecessary = false
	m.scans++
	m.root = path
	backup := editor && m.cfg.SaveCustomFiles

	mf, err := manifest.Read(path)
	if err != nil {
		m.log.Warn("version data is damaged, treating it as the lowest release", "err", err)
	}
	m.manifest = mf
	m.hasAssets = mf.Exists
	m.scenes.Release = mf.Release
	switch mf.Status() {
	case manifest.StatusTooNew:
		m.log.InEditor(editor).Log(logging.OutdatedPlugin,
			"mixtape requires a newer plugin, you may have to update to play it properly",
			"mixtape_version", mf.Version, "plugin_version", manifest.CurrentVersion)
	case manifest.StatusUpgrade:
		if mf.Exists && backup && m.cfg.UpgradeOldMixtapes {
			m.log.Log(logging.UpgradeMixtape,
				"mixtape was made for an older plugin, save it in the editor to update its version",
				"mixtape_version", mf.Version, "plugin_version", manifest.CurrentVersion)
		}
	}

	dirs, err := Discover(path)
	if err != nil {
		m.log.Error("failed to read mixtape directory", "dir", path, "err", err)
	}
	m.dirs = dirs

	frame, err := BuildFrame(path)
	if err != nil {
		m.log.Warn("failed to scan mixtape events for referenced paths", "err", err)
	}
	m.frame = frame

	if backup {
		m.backup(path)
	}

	loaded := m.loadTextures() + m.loadSceneMods()
	if loaded > 0 {
		m.log.Info("loaded custom assets", "count", loaded)
		if !m.hasAssets {
			if backup {
				m.log.Log(logging.UpgradeMixtape,
					"mixtape with custom assets is missing its version file, save it in the editor to add one",
					"file", manifest.FileName)
			}
			m.hasAssets = true
		}
	} else {
		m.log.Info("no custom assets found")
	}
	m.UpdateEventTemplates()
}

// backup copies every discovered directory and every top-level directory
// named by the mixtape's pack events into the temp area.
func (m *Manager) backup(root string) {
	done := make(map[string]bool)
	save := func(src string) {
		rel, err := filepath.Rel(root, src)
		if err != nil || done[strings.ToLower(rel)] {
			return
		}
		done[strings.ToLower(rel)] = true
		if err := m.files.BackupDirectory(src, rel); err != nil {
			m.log.Error("failed to back up directory", "dir", rel, "err", err)
		}
	}
	for _, dir := range m.dirs.Textures {
		save(dir)
	}
	for _, dir := range m.dirs.Scenes {
		save(dir)
	}
	for _, p := range m.frame.Paths() {
		m.files.Reference(p)
		top, _, _ := strings.Cut(filepath.ToSlash(p), "/")
		if top == "" || !filepath.IsLocal(top) {
			continue
		}
		if fi, err := os.Stat(filepath.Join(root, top)); err == nil && fi.IsDir() {
			save(filepath.Join(root, top))
		}
	}
}

// WriteDirectory writes the backed up directories and the version file
// into path.
func (m *Manager) WriteDirectory(path string) error {
	if !m.hasAssets {
		return nil
	}
	m.log.Info("saving with custom files", "dir", path)
	ok, err := m.files.WriteDirectory(path)
	if err != nil {
		m.log.Error("failed to write custom files", "dir", path, "err", err)
		return err
	}
	if !ok {
		return nil
	}
	return m.writeManifest(path)
}

func (m *Manager) writeManifest(dir string) error {
	var err error
	if m.cfg.UpgradeOldMixtapes {
		err = manifest.Stamp(dir)
	} else {
		err = manifest.Write(dir, m.manifest)
	}
	if err != nil {
		m.log.Error("failed to write version data", "dir", dir, "err", err)
	}
	return err
}

// LoadArchive extracts a zipped mixtape into the temp area and reads it.
func (m *Manager) LoadArchive(archive string, editor bool) error {
	if !m.readNecessary {
		return nil
	}
	dir, err := m.files.ExtractArchive(archive)
	if err != nil {
		m.log.Error("failed to load custom assets from archive", "archive", archive, "err", err)
		return err
	}
	m.ReadDirectory(dir, editor)
	return nil
}

// SaveArchive adds the custom files to an archive the host just saved.
func (m *Manager) SaveArchive(archive string) error {
	if !m.hasAssets {
		return nil
	}
	dir, err := m.files.ExtractArchive(archive)
	if err != nil {
		m.log.Error("failed to save custom assets into archive", "archive", archive, "err", err)
		return err
	}
	defer os.RemoveAll(dir)
	ok, err := m.files.WriteDirectory(dir)
	if err != nil {
		m.log.Error("failed to save custom assets into archive", "archive", archive, "err", err)
		return err
	}
	if !ok {
		return nil
	}
	m.log.Info("saving archive with custom files", "archive", archive)
	if err := m.writeManifest(dir); err != nil {
		return err
	}
	if err := pack.PackDirectory(dir, archive); err != nil {
		m.log.Error("failed to repack archive", "archive", archive, "err", err)
		return err
	}
	return nil
}

// ResetAll drops every table, the temp directory and pending events.
func (m *Manager) ResetAll() {
	m.session.Cancel()
	m.session = nil
	m.scenes.Unload()
	m.textures.Unload()
	m.variants.Reset()
	if err := m.files.DeleteTempDirectory(); err != nil {
		m.log.Warn("failed to delete temp directory", "err", err)
	}
	m.manifest = manifest.Manifest{}
	m.hasAssets = false
	m.root = ""
	m.dirs = Dirs{}
	m.frame = nil
	m.lastPath = ""
	m.lastModified = time.Time{}
	m.readNecessary = true
	m.rt = newRuntimeState()
	m.UpdateEventTemplates()
}

// ResetIfNecessary resets unless path is the mixtape that was last read
// and has not been modified since.
func (m *Manager) ResetIfNecessary(path string) {
	var modified time.Time
	if fi, err := os.Stat(path); err == nil {
		modified = fi.ModTime()
	}
	if m.lastPath != path || !m.lastModified.Equal(modified) {
		m.ResetAll()
	} else {
		m.log.Info("avoided customs reload for reopened mixtape", "path", path)
	}
	m.lastPath = path
	m.lastModified = modified
}

// DeleteTempDirectory releases the temp area; call it on process exit.
func (m *Manager) DeleteTempDirectory() error { return m.files.DeleteTempDirectory() }

// InitScene applies scene mods and then textures to a freshly loaded
// scene. A cancelled load is left alone.
func (m *Manager) InitScene(access host.SceneAccess, sc scene.Key) {
	if access.LoadCancelled() {
		return
	}
	root, ok := access.RootObject(sc)
	if !ok {
		return
	}
	m.log.Log(logging.SceneIndices, "scene loaded", "scene", sc, "name", scene.FromKeyOrInvalid(sc))
	m.scenes.InitScene(sc, root)
	m.textures.InitScene(sc, root)
	// Watchers created by scene mods resolved before the sprites existed.
	m.textures.Refresh(sc)
}

// UnloadScene forgets the live objects of sc.
func (m *Manager) UnloadScene(sc scene.Key) {
	m.textures.ForgetScene(sc)
	m.scenes.ForgetScene(sc)
}

// LateUpdate reconciles every watched renderer once per frame.
func (m *Manager) LateUpdate() int { return m.textures.ReconcileAll() }

// UpdateEventTemplates refreshes the scene choices of the templates and
// shows or hides the category.
func (m *Manager) UpdateEventTemplates() {
	sceneMods := scene.DisplayNames(m.scenes.Scenes())
	textures := scene.DisplayNames(m.textures.Scenes())
	m.templates.SetSceneChoices(sceneMods, textures)
	m.templates.Sync(m.cfg.DisplayEventTemplates, len(sceneMods)+len(textures) > 0)
}
