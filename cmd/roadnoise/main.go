package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jwulff/roadnoise/internal/app"
	"github.com/jwulff/roadnoise/internal/config"
	"github.com/jwulff/roadnoise/internal/mpv"
	"github.com/jwulff/roadnoise/internal/playback"
	"github.com/jwulff/roadnoise/internal/timeline"
)

var (
	Version = "dev"

	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "roadnoise",
	Short: "Browse a day of road noise and listen to it",
	Long: `roadnoise draws a 24-hour timeline of road-noise recordings as a bar
chart in the terminal. Bar length follows the peak loudness of a segment and
its color the average intensity. Click a bar, or press Enter on it, to play
the recording through mpv.

Settings are read from an optional YAML file, then ROADNOISE_* environment
variables, then flags.`,
	Version:      Version,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&configPath, "config", "c", "", "YAML config file")
	f.StringP("timeline", "t", "", "timeline source: JSON file, http(s) URL or SQLite database")
	f.StringP("files", "f", "", "folder or URL the audio files resolve against")
	f.String("mpv", "", "mpv binary used for playback")
	f.StringP("log", "l", "", "write debug logs to file (empty disables)")
	f.Bool("watch", true, "reload the timeline when its file changes")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.ApplyFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	// The terminal belongs to the TUI; logs only go to a file.
	if cfg.LogFile != "" {
		f, err := tea.LogToFile(cfg.LogFile, "[roadnoise]")
		if err != nil {
			return fmt.Errorf("open log: %w", err)
		}
		defer f.Close()
		log.SetFlags(log.LstdFlags | log.Lmsgprefix)
	} else {
		log.SetOutput(io.Discard)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var player playback.Player
	mp, err := mpv.Launch(ctx, cfg.MPVPath)
	if err != nil {
		log.Printf("mpv unavailable, playback disabled: %v", err)
	} else {
		defer mp.Close()
		player = mp
	}

	var changes <-chan struct{}
	if cfg.Watch {
		ch, err := timeline.Watch(ctx, cfg.Timeline)
		switch {
		case errors.Is(err, timeline.ErrNotWatchable):
		case err != nil:
			log.Printf("timeline: not watching %s: %v", cfg.Timeline, err)
		default:
			changes = ch
		}
	}

	m := app.New(app.Options{
		Source:    cfg.Timeline,
		AssetBase: cfg.FilesFolder,
		Player:    player,
		Changes:   changes,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
