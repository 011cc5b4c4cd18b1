package main

import (
	"fmt"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/jwulff/roadnoise/internal/config"
	"github.com/jwulff/roadnoise/internal/mcpserver"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "roadnoise-mcp",
	Short: "Serve the road-noise timeline to MCP clients over stdio",
	Long: `roadnoise-mcp answers MCP tool calls about the day's road-noise
timeline: a summary, the segment list and per-segment detail. It reads the
same configuration as roadnoise.`,
	Version:      mcpserver.Version,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&configPath, "config", "c", "", "YAML config file")
	f.StringP("timeline", "t", "", "timeline source: JSON file, http(s) URL or SQLite database")
	f.StringP("files", "f", "", "folder or URL the audio files resolve against")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	// stdout carries the MCP stream.
	log.SetOutput(os.Stderr)
	log.SetPrefix("[roadnoise-mcp] ")
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.ApplyFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	log.Printf("serving %s", cfg.Timeline)
	if err := server.ServeStdio(mcpserver.New(cfg.Timeline, cfg.FilesFolder)); err != nil {
		return fmt.Errorf("serve stdio: %w", err)
	}
	return nil
}
