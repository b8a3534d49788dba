// Package cli holds the setup shared by the command-line tools: flags,
// config loading, logging and opening a mixtape directory or archive.
package cli

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"customtex/internal/config"
	"customtex/internal/customs"
	"customtex/internal/logging"
	"customtex/internal/pack"
	"customtex/internal/scene"
)

// Common are the flags every tool accepts.
type Common struct {
	ConfigFile string
	TempRoot   string
	Policy     string
	Scenes     string
	Verbose    bool
}

// Register adds the common flags to fs.
func (c *Common) Register(fs *flag.FlagSet) {
	fs.StringVar(&c.ConfigFile, "config", "", "Path to customtex.cfg (INI)")
	fs.StringVar(&c.TempRoot, "temp", "", "Parent of the temp directories (default: $TMPDIR/customtex)")
	fs.StringVar(&c.Policy, "policy", "", "Unresolved variant policy: error or lowpriority")
	fs.StringVar(&c.Scenes, "scenes", "", "Comma-separated scene keys (default: guessed from the pack)")
	fs.BoolVar(&c.Verbose, "v", false, "Log file loading and unloading")
}

// Load reads the config file, applies the flags and builds a logger
// writing to stderr. Config value errors are logged, not returned.
func (c *Common) Load() (config.Config, *logging.Logger, error) {
	cfg := config.Default()
	var loadErr error
	if c.ConfigFile != "" {
		cfg, loadErr = config.Load(c.ConfigFile)
	}
	if err := cfg.Resolve(config.Flags{TempRoot: c.TempRoot, Policy: c.Policy, Verbose: c.Verbose}); err != nil {
		return cfg, nil, err
	}

	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	base := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	log := logging.New(base, logging.WithLevels(cfg.Levels))
	if loadErr != nil {
		log.Warn("config has unusable values, defaults kept", "file", c.ConfigFile, "err", loadErr)
	}
	for _, key := range cfg.Migrated {
		log.Info("migrated legacy config key", "key", key)
	}
	return cfg, log, nil
}

// Catalog builds the scene catalog from -scenes, or guesses it from the
// pack directories when the flag is empty.
func (c *Common) Catalog(root string) (*scene.Catalog, error) {
	if c.Scenes != "" {
		var names []string
		for _, s := range strings.Split(c.Scenes, ",") {
			if s = strings.TrimSpace(s); s != "" {
				names = append(names, s)
			}
		}
		return scene.NewCatalog(names...), nil
	}
	dirs, err := customs.Discover(root)
	if err != nil {
		return nil, err
	}
	return scene.NewCatalog(dirs.SceneNames()...), nil
}

// Mixtape is an opened mixtape directory. Archives are extracted into a
// temp directory that Close removes.
type Mixtape struct {
	Dir     string
	Archive string
	files   *pack.Manager
}

// Open prepares path for reading. A regular file is treated as a zipped
// mixtape.
func Open(path string, cfg config.Config, log *logging.Logger) (*Mixtape, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cli: open %s: %w", path, err)
	}
	if fi.IsDir() {
		return &Mixtape{Dir: path}, nil
	}
	files := pack.NewManager(log, cfg.TempRoot)
	dir, err := files.ExtractArchive(path)
	if err != nil {
		files.DeleteTempDirectory()
		return nil, err
	}
	return &Mixtape{Dir: dir, Archive: path, files: files}, nil
}

// Close removes any extracted copy.
func (m *Mixtape) Close() error {
	if m.files == nil {
		return nil
	}
	return m.files.DeleteTempDirectory()
}

// Fatal prints the message and exits with status 1.
func Fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
