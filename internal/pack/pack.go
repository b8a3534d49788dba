// Package pack keeps a per-process scratch copy of a mixtape's custom asset
// directories while it is open, and writes them back (optionally as a zip
// archive) when the mixtape is saved.
package pack

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"customtex/internal/logging"
)

// ErrLocked means another live process owns the lock file.
var ErrLocked = errors.New("pack: locked by another process")

// LockName is the sentinel file that marks a temp directory as owned.
const LockName = ".tmp"

// maxEntryBytes bounds a single extracted archive entry.
const maxEntryBytes = 1 << 30

// Manager owns the temp directory of this process under a shared parent.
type Manager struct {
	log    *logging.Logger
	parent string
	dir    string
	lock   *os.File

	referenced map[string]string
}

// NewManager returns a manager whose temp directory is parent/<pid>.
func NewManager(log *logging.Logger, parent string) *Manager {
	if log == nil {
		log = logging.Discard()
	}
	return &Manager{
		log:        log,
		parent:     parent,
		dir:        filepath.Join(parent, strconv.Itoa(os.Getpid())),
		referenced: make(map[string]string),
	}
}

func (m *Manager) Parent() string  { return m.parent }
func (m *Manager) TempDir() string { return m.dir }

// Active reports whether a backup is held.
func (m *Manager) Active() bool { return m.lock != nil }

func acquire(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("pack: open lock %s: %w", path, err)
	}
	if err := lockFile(f); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func (m *Manager) ensureLocked() error {
	if m.lock != nil {
		return nil
	}
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("pack: create temp dir: %w", err)
	}
	f, err := acquire(filepath.Join(m.dir, LockName))
	if err != nil {
		return err
	}
	m.lock = f
	return nil
}

// Reference marks the top-level directory of a mixtape-relative path as
// one to write back on save. Absolute paths and bare file names are
// ignored.
func (m *Manager) Reference(path string) {
	path = strings.TrimSpace(strings.ReplaceAll(path, `\`, "/"))
	if path == "" || filepath.IsAbs(path) || strings.HasPrefix(path, "/") {
		return
	}
	top, _, nested := strings.Cut(path, "/")
	if top == "" || top == "." || top == ".." {
		return
	}
	if !nested && strings.Contains(top, ".") {
		return
	}
	m.referenced[strings.ToLower(top)] = top
}

// Referenced lists referenced top-level directories.
func (m *Manager) Referenced() []string {
	out := make([]string, 0, len(m.referenced))
	for _, v := range m.referenced {
		out = append(out, v)
	}
	return out
}

// BackupDirectory copies src into the temp directory under rel, taking
// the process lock on first use. rel's top-level directory is referenced.
func (m *Manager) BackupDirectory(src, rel string) error {
	if err := m.ensureLocked(); err != nil {
		return err
	}
	m.Reference(filepath.ToSlash(rel))
	if err := CopyDirectory(src, filepath.Join(m.dir, rel)); err != nil {
		return fmt.Errorf("pack: backup %s: %w", rel, err)
	}
	m.log.Log(logging.FileLoading, "backed up directory", "dir", rel)
	return nil
}

// WriteDirectory copies every referenced top-level directory from the
// backup into dest. It reports false when no backup is held.
func (m *Manager) WriteDirectory(dest string) (bool, error) {
	if m.lock == nil {
		return false, nil
	}
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return false, fmt.Errorf("pack: read temp dir: %w", err)
	}
	for _, ent := range entries {
		if !ent.IsDir() {
			continue
		}
		if _, ok := m.referenced[strings.ToLower(ent.Name())]; !ok {
			continue
		}
		if err := CopyDirectory(filepath.Join(m.dir, ent.Name()), filepath.Join(dest, ent.Name())); err != nil {
			return true, fmt.Errorf("pack: write %s: %w", ent.Name(), err)
		}
	}
	return true, nil
}

// DeleteTempDirectory releases the lock and removes the temp directory.
func (m *Manager) DeleteTempDirectory() error {
	clear(m.referenced)
	if m.lock == nil {
		return nil
	}
	unlockFile(m.lock)
	m.lock.Close()
	m.lock = nil
	if err := os.RemoveAll(m.dir); err != nil {
		return fmt.Errorf("pack: remove temp dir: %w", err)
	}
	m.log.Log(logging.Unloading, "deleted temp directory", "dir", m.dir)
	return nil
}

// CleanStale removes sibling temp directories left by processes that are
// gone, i.e. whose lock file can be taken. It returns how many it removed.
func (m *Manager) CleanStale() (int, error) {
	entries, err := os.ReadDir(m.parent)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, os.MkdirAll(m.parent, 0o755)
	}
	if err != nil {
		return 0, fmt.Errorf("pack: read %s: %w", m.parent, err)
	}
	removed := 0
	for _, ent := range entries {
		dir := filepath.Join(m.parent, ent.Name())
		if !ent.IsDir() || dir == m.dir {
			continue
		}
		f, err := acquire(filepath.Join(dir, LockName))
		if err != nil {
			if !errors.Is(err, ErrLocked) {
				m.log.Debug("could not inspect temp directory", "dir", dir, "err", err)
			}
			continue
		}
		unlockFile(f)
		f.Close()
		if err := os.RemoveAll(dir); err != nil {
			m.log.Warn("could not remove stale temp directory", "dir", dir, "err", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		m.log.Info("removed stale temp directories", "count", removed)
	}
	return removed, nil
}

// ExtractArchive unpacks a zip archive into a fresh directory inside the
// temp directory and returns it. The directory goes away with
// DeleteTempDirectory.
func (m *Manager) ExtractArchive(archive string) (string, error) {
	if err := m.ensureLocked(); err != nil {
		return "", err
	}
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return "", fmt.Errorf("pack: open %s: %w", archive, err)
	}
	defer zr.Close()

	dest := filepath.Join(m.dir, "extract-"+uuid.NewString())
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", fmt.Errorf("pack: create %s: %w", dest, err)
	}
	for _, f := range zr.File {
		if err := extractEntry(dest, f); err != nil {
			os.RemoveAll(dest)
			return "", fmt.Errorf("pack: extract %s: %w", archive, err)
		}
	}
	return dest, nil
}

func extractEntry(dest string, f *zip.File) error {
	name := filepath.FromSlash(f.Name)
	target := filepath.Join(dest, name)
	if !filepath.IsLocal(name) {
		return fmt.Errorf("entry %q escapes the archive root", f.Name)
	}
	if f.FileInfo().IsDir() {
		return os.MkdirAll(target, 0o755)
	}
	if f.UncompressedSize64 > maxEntryBytes {
		return fmt.Errorf("entry %q too large: %d bytes", f.Name, f.UncompressedSize64)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	written, err := io.Copy(out, io.LimitReader(rc, maxEntryBytes+1))
	if err != nil {
		out.Close()
		return err
	}
	if written > maxEntryBytes {
		out.Close()
		return fmt.Errorf("entry %q exceeded %d bytes", f.Name, maxEntryBytes)
	}
	return out.Close()
}

// PackDirectory zips src into archive. The archive is written to a .tmp
// sibling first; an existing archive is moved to .bak and restored if the
// swap fails.
func PackDirectory(src, archive string) error {
	tmp := archive + ".tmp"
	if err := writeZip(src, tmp); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("pack: write %s: %w", tmp, err)
	}

	bak := archive + ".bak"
	hadOld := false
	if _, err := os.Stat(archive); err == nil {
		os.Remove(bak)
		if err := os.Rename(archive, bak); err != nil {
			os.Remove(tmp)
			return fmt.Errorf("pack: back up %s: %w", archive, err)
		}
		hadOld = true
	}
	if err := os.Rename(tmp, archive); err != nil {
		if hadOld {
			if rerr := os.Rename(bak, archive); rerr != nil {
				return fmt.Errorf("pack: swap %s: %w (restore failed: %v)", archive, err, rerr)
			}
		}
		os.Remove(tmp)
		return fmt.Errorf("pack: swap %s: %w", archive, err)
	}
	if hadOld {
		os.Remove(bak)
	}
	return nil
}

func writeZip(src, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	zw := zip.NewWriter(out)
	walkErr := filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil || rel == "." {
			return err
		}
		name := filepath.ToSlash(rel)
		if d.IsDir() {
			_, err := zw.Create(name + "/")
			return err
		}
		w, err := zw.Create(name)
		if err != nil {
			return err
		}
		in, err := os.Open(p)
		if err != nil {
			return err
		}
		defer in.Close()
		_, err = io.Copy(w, in)
		return err
	})
	if err := zw.Close(); walkErr == nil {
		walkErr = err
	}
	if err := out.Close(); walkErr == nil {
		walkErr = err
	}
	return walkErr
}

// CopyDirectory copies the tree at src into dest, creating directories as
// needed and overwriting files.
func CopyDirectory(src, dest string) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(p, target)
	})
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
