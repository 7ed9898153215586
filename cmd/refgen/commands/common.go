package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/refgen/internal/config"
)

// Global carries state shared by every command.
type Global struct {
	Out io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// CLI definition & global flags.
type CLI struct {
	Config   string           `short:"c" help:"Configuration file path" default:"refgen.yaml" type:"path"`
	Verbose  bool             `short:"v" help:"Enable verbose logging"`
	LogLevel string           `name:"log-level" env:"REFGEN_LOG_LEVEL" help:"Log level (debug, info, warn, error); overrides --verbose"`
	Version  kong.VersionFlag `name:"version" help:"Show version and exit"`

	Generate GenerateCmd `cmd:"" default:"withargs" help:"Fetch configured repositories and generate reference pages"`
	Init     InitCmd     `cmd:"" help:"Write the built-in configuration file"`
	Validate ValidateCmd `cmd:"" help:"Validate the configuration and list the pages it produces"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	level, err := c.level()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

func (c *CLI) level() (slog.Level, error) {
	if c.LogLevel != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
			return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
		}
		return level, nil
	}
	if c.Verbose {
		return slog.LevelDebug, nil
	}
	return slog.LevelInfo, nil
}

func loadConfig(path string) (*config.Config, error) {
	return config.LoadOrDefault(path)
}
