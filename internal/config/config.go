// Package config resolves runtime settings from defaults, an optional YAML
// file, ROADNOISE_* environment variables and command-line flags, in that
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config holds all runtime configuration.
type Config struct {
	// Timeline is the document source: a JSON file, an http(s) URL, or a
	// SQLite database ("sqlite:<path>[#<date>]" or *.sqlite / *.db).
	Timeline string `yaml:"timeline"`

	// FilesFolder is the base that segment output files resolve against.
	FilesFolder string `yaml:"files_folder"`

	// MPVPath names the mpv binary used for playback.
	MPVPath string `yaml:"mpv"`

	// LogFile receives debug logs. Empty disables logging.
	LogFile string `yaml:"log_file"`

	// Watch reloads the timeline when a local source changes.
	Watch bool `yaml:"watch"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Timeline:    "./out/timeline_data.json",
		FilesFolder: "./out/",
		MPVPath:     "mpv",
		Watch:       true,
	}
}

// Load applies the YAML file at path (skipped when path is empty) and then
// the environment on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return cfg, err
		}
	}
	cfg.mergeEnv()
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	// Keys missing from the file keep their current values.
	if err := yaml.NewDecoder(f).Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeEnv() {
	c.Timeline = envStr("ROADNOISE_TIMELINE", c.Timeline)
	c.FilesFolder = envStr("ROADNOISE_FILES_FOLDER", c.FilesFolder)
	c.MPVPath = envStr("ROADNOISE_MPV", c.MPVPath)
	c.LogFile = envStr("ROADNOISE_LOG", c.LogFile)
	c.Watch = envBool("ROADNOISE_WATCH", c.Watch)
}

// ApplyFlags overrides settings with flags the user set explicitly.
// Unknown flag names are ignored so binaries can register a subset.
func (c *Config) ApplyFlags(fs *pflag.FlagSet) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "timeline":
			c.Timeline = f.Value.String()
		case "files":
			c.FilesFolder = f.Value.String()
		case "mpv":
			c.MPVPath = f.Value.String()
		case "log":
			c.LogFile = f.Value.String()
		case "watch":
			c.Watch, err = strconv.ParseBool(f.Value.String())
		}
	})
	return err
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
