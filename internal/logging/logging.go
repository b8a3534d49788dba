// Package logging wraps slog with per-category levels and on-screen
// editor notices.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Level is a bit set of sinks a categorised message is routed to.
// It mirrors the host's log levels plus an Editor bit for on-screen notices.
type Level uint8

const (
	LevelNone    Level = 0
	LevelFatal   Level = 1 << 0
	LevelError   Level = 1 << 1
	LevelWarning Level = 1 << 2
	LevelMessage Level = 1 << 3
	LevelInfo    Level = 1 << 4
	LevelDebug   Level = 1 << 5
	LevelEditor  Level = 1 << 6
	LevelAll     Level = 0x7F
)

var levelNames = []struct {
	level Level
	name  string
}{
	{LevelFatal, "Fatal"},
	{LevelError, "Error"},
	{LevelWarning, "Warning"},
	{LevelMessage, "Message"},
	{LevelInfo, "Info"},
	{LevelDebug, "Debug"},
	{LevelEditor, "Editor"},
}

// ParseLevel accepts "None", "All" or a list of level names joined by
// '|' or ',' (e.g. "Warning|Editor"). Names are case-insensitive.
func ParseLevel(s string) (Level, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "none":
		return LevelNone, nil
	case "all":
		return LevelAll, nil
	}
	var out Level
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' }) {
		part = strings.TrimSpace(part)
		found := false
		for _, ln := range levelNames {
			if strings.EqualFold(part, ln.name) || (strings.EqualFold(part, "MixtapeEditor") && ln.level == LevelEditor) {
				out |= ln.level
				found = true
				break
			}
		}
		if !found {
			return LevelNone, fmt.Errorf("logging: unknown level %q", part)
		}
	}
	return out, nil
}

func (l Level) String() string {
	switch l {
	case LevelNone:
		return "None"
	case LevelAll:
		return "All"
	}
	var parts []string
	for _, ln := range levelNames {
		if l&ln.level != 0 {
			parts = append(parts, ln.name)
		}
	}
	return strings.Join(parts, "|")
}

// slogLevel picks the most severe host level in l.
func (l Level) slogLevel() (slog.Level, bool) {
	switch {
	case l&LevelFatal != 0:
		return slog.LevelError + 4, true
	case l&LevelError != 0:
		return slog.LevelError, true
	case l&LevelWarning != 0:
		return slog.LevelWarn, true
	case l&LevelMessage != 0:
		return slog.LevelInfo + 2, true
	case l&LevelInfo != 0:
		return slog.LevelInfo, true
	case l&LevelDebug != 0:
		return slog.LevelDebug, true
	}
	return 0, false
}

// Category names a group of messages whose level is configurable.
type Category int

const (
	FileLoading Category = iota
	Unloading
	SeparateTextureSprites
	AtlasTextureSprites
	OutdatedPlugin
	UpgradeMixtape
	SceneIndices
)

func (c Category) String() string {
	switch c {
	case FileLoading:
		return "file_loading"
	case Unloading:
		return "unloading"
	case SeparateTextureSprites:
		return "separate_texture_sprites"
	case AtlasTextureSprites:
		return "atlas_texture_sprites"
	case OutdatedPlugin:
		return "outdated_plugin"
	case UpgradeMixtape:
		return "upgrade_mixtape"
	case SceneIndices:
		return "scene_indices"
	}
	return "unknown"
}

// DefaultLevels are the category levels used when no config overrides them.
func DefaultLevels() map[Category]Level {
	return map[Category]Level{
		FileLoading:            LevelDebug,
		Unloading:              LevelDebug,
		SeparateTextureSprites: LevelDebug,
		AtlasTextureSprites:    LevelDebug,
		OutdatedPlugin:         LevelError | LevelEditor,
		UpgradeMixtape:         LevelWarning | LevelEditor,
		SceneIndices:           LevelNone,
	}
}

// Notifier shows a short message to the user inside the host's editor.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(string)

// Notify implements Notifier.
func (f NotifierFunc) Notify(message string) {
	if f != nil {
		f(message)
	}
}

// Logger wraps slog with category levels and an editor notice sink.
type Logger struct {
	base     *slog.Logger
	levels   map[Category]Level
	notifier Notifier
	name     string
}

// Option configures a Logger.
type Option func(*Logger)

// WithLevels overrides the level of the given categories.
func WithLevels(levels map[Category]Level) Option {
	return func(l *Logger) {
		for c, lv := range levels {
			l.levels[c] = lv
		}
	}
}

// WithNotifier attaches the editor notice sink.
func WithNotifier(n Notifier) Option {
	return func(l *Logger) {
		l.notifier = n
	}
}

// WithName sets the plugin name prefixed to editor notices.
func WithName(name string) Option {
	return func(l *Logger) {
		l.name = name
	}
}

// New builds a Logger over base. A nil base discards output.
func New(base *slog.Logger, opts ...Option) *Logger {
	if base == nil {
		base = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	l := &Logger{
		base:   base,
		levels: DefaultLevels(),
		name:   "CustomTex",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	return New(nil)
}

// With returns a Logger whose records carry args.
func (l *Logger) With(args ...any) *Logger {
	cp := *l
	cp.base = l.base.With(args...)
	return &cp
}

// InEditor returns l unchanged when editor is true. Otherwise it returns a
// copy that drops editor notices and keeps the slog output.
func (l *Logger) InEditor(editor bool) *Logger {
	if editor {
		return l
	}
	cp := *l
	cp.notifier = nil
	return &cp
}

// Slog exposes the underlying slog.Logger.
func (l *Logger) Slog() *slog.Logger { return l.base }

// Enabled reports whether cat currently routes anywhere.
func (l *Logger) Enabled(cat Category) bool {
	return l.levels[cat] != LevelNone
}

// Log emits msg for a configurable category.
func (l *Logger) Log(cat Category, msg string, args ...any) {
	lv := l.levels[cat]
	if lv&LevelEditor != 0 && l.notifier != nil {
		l.notifier.Notify(fmt.Sprintf("[%s] %s", l.name, msg))
	}
	if sl, ok := lv.slogLevel(); ok {
		l.base.Log(context.Background(), sl, msg, append(args, "category", cat.String())...)
	}
}

func (l *Logger) Error(msg string, args ...any) { l.base.Error(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.base.Warn(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.base.Info(msg, args...) }
func (l *Logger) Debug(msg string, args ...any) { l.base.Debug(msg, args...) }
