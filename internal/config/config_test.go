package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"ROADNOISE_TIMELINE", "ROADNOISE_FILES_FOLDER", "ROADNOISE_MPV", "ROADNOISE_LOG", "ROADNOISE_WATCH"} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roadnoise.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("cfg = %+v, want defaults %+v", cfg, Default())
	}
	if cfg.Timeline != "./out/timeline_data.json" || cfg.FilesFolder != "./out/" {
		t.Errorf("unexpected default paths: %+v", cfg)
	}
	if !cfg.Watch {
		t.Error("watch should default to true")
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "timeline: day.db\nwatch: false\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Timeline != "day.db" {
		t.Errorf("timeline = %q, want %q", cfg.Timeline, "day.db")
	}
	if cfg.Watch {
		t.Error("watch = true, want false from file")
	}
	if cfg.MPVPath != "mpv" {
		t.Errorf("mpv = %q, keys missing from the file should keep defaults", cfg.MPVPath)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("empty file should load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing config file should be an error")
	}
	if _, err := Load(writeConfig(t, "timeline: [unterminated\n")); err == nil {
		t.Error("malformed config file should be an error")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "timeline: day.db\nfiles_folder: /srv/a\n")
	t.Setenv("ROADNOISE_TIMELINE", "https://example.com/t.json")
	t.Setenv("ROADNOISE_LOG", "/tmp/rn.log")
	t.Setenv("ROADNOISE_WATCH", "no")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Timeline != "https://example.com/t.json" {
		t.Errorf("timeline = %q, env should win over file", cfg.Timeline)
	}
	if cfg.FilesFolder != "/srv/a" {
		t.Errorf("files_folder = %q, want file value", cfg.FilesFolder)
	}
	if cfg.LogFile != "/tmp/rn.log" {
		t.Errorf("log = %q", cfg.LogFile)
	}
	if !cfg.Watch {
		t.Error("unparseable ROADNOISE_WATCH should keep the previous value")
	}

	t.Setenv("ROADNOISE_WATCH", "false")
	cfg, _ = Load(path)
	if cfg.Watch {
		t.Error("ROADNOISE_WATCH=false should disable watching")
	}
}

func TestApplyFlagsOnlyChanged(t *testing.T) {
	clearEnv(t)
	t.Setenv("ROADNOISE_MPV", "/opt/mpv")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	fs := pflag.NewFlagSet("roadnoise", pflag.ContinueOnError)
	fs.String("timeline", "", "")
	fs.String("mpv", "", "")
	fs.Bool("watch", true, "")
	if err := fs.Parse([]string{"--timeline", "sqlite:day.db#2024-01-01", "--watch=false"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	if err := cfg.ApplyFlags(fs); err != nil {
		t.Fatalf("apply flags: %v", err)
	}
	if cfg.Timeline != "sqlite:day.db#2024-01-01" {
		t.Errorf("timeline = %q, flag should win", cfg.Timeline)
	}
	if cfg.MPVPath != "/opt/mpv" {
		t.Errorf("mpv = %q, unset flag must not clobber env", cfg.MPVPath)
	}
	if cfg.Watch {
		t.Error("watch = true, want false from flag")
	}
}
