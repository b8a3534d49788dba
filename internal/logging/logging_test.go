package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want Level
	}{
		{"", LevelNone},
		{"None", LevelNone},
		{"all", LevelAll},
		{"Warning|Editor", LevelWarning | LevelEditor},
		{"Error, MixtapeEditor", LevelError | LevelEditor},
		{"debug", LevelDebug},
	}
	for _, tc := range cases {
		got, err := ParseLevel(tc.in)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
	if _, err := ParseLevel("Loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestLevelStringRoundTrip(t *testing.T) {
	lv := LevelWarning | LevelEditor
	back, err := ParseLevel(lv.String())
	if err != nil || back != lv {
		t.Fatalf("round trip of %v gave %v (%v)", lv, back, err)
	}
}

func TestLogRoutesEditorNotices(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	var notices []string
	l := New(base,
		WithName("Test"),
		WithNotifier(NotifierFunc(func(m string) { notices = append(notices, m) })),
		WithLevels(map[Category]Level{FileLoading: LevelNone}),
	)

	l.Log(UpgradeMixtape, "save to upgrade")
	l.Log(FileLoading, "found file")

	if len(notices) != 1 || notices[0] != "[Test] save to upgrade" {
		t.Fatalf("unexpected notices: %v", notices)
	}
	out := buf.String()
	if !strings.Contains(out, "save to upgrade") || !strings.Contains(out, "level=WARN") {
		t.Fatalf("warning not logged: %s", out)
	}
	if strings.Contains(out, "found file") {
		t.Fatalf("disabled category was logged: %s", out)
	}
}

func TestInEditorGatesNotices(t *testing.T) {
	var buf bytes.Buffer
	var notices []string
	l := New(slog.New(slog.NewTextHandler(&buf, nil)),
		WithNotifier(NotifierFunc(func(m string) { notices = append(notices, m) })))

	l.InEditor(false).Log(OutdatedPlugin, "update the plugin")
	if len(notices) != 0 {
		t.Fatalf("notice outside the editor: %v", notices)
	}
	if !strings.Contains(buf.String(), "update the plugin") {
		t.Fatalf("message not logged: %s", buf.String())
	}
	l.InEditor(true).Log(OutdatedPlugin, "update the plugin")
	if len(notices) != 1 {
		t.Fatalf("notices = %v", notices)
	}
}
