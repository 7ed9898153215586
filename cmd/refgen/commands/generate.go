package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	prom "github.com/prometheus/client_golang/prometheus"

	ferrors "git.home.luguber.info/inful/refgen/internal/foundation/errors"
	"git.home.luguber.info/inful/refgen/internal/git"
	"git.home.luguber.info/inful/refgen/internal/logfields"
	"git.home.luguber.info/inful/refgen/internal/metrics"
	"git.home.luguber.info/inful/refgen/internal/orchestrator"
	"git.home.luguber.info/inful/refgen/internal/workspace"
)

// GenerateCmd implements the 'generate' command.
type GenerateCmd struct {
	Repository  []string `short:"r" help:"Only process the named repository (repeatable)"`
	Workspace   string   `help:"Override the checkout workspace directory" type:"path"`
	Depth       int      `help:"Clone depth; 0 fetches full history" default:"1"`
	KeepGoing   bool     `name:"keep-going" help:"Continue with the next repository after a fetch failure"`
	Report      string   `help:"Write a JSON run report to this file" type:"path"`
	MetricsFile string   `name:"metrics-file" help:"Write Prometheus metrics in text format to this file" type:"path"`
}

func (c *GenerateCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	if c.Workspace != "" {
		cfg.Workspace.Dir = c.Workspace
	}

	ws := workspace.FromConfig(cfg.Workspace)
	if err := ws.Create(); err != nil {
		return ferrors.FileSystemError("create workspace").WithCause(err).WithContext("path", cfg.Workspace.Dir).Build()
	}
	defer func() {
		if err := ws.Cleanup(); err != nil {
			slog.Warn("Failed to cleanup workspace", logfields.Error(err))
		}
	}()

	var (
		registry *prom.Registry
		recorder metrics.Recorder = metrics.NoopRecorder{}
	)
	if c.MetricsFile != "" {
		registry = prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(registry)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fetchOpts := []git.Option{git.WithDepth(c.Depth)}
	if root.Verbose {
		fetchOpts = append(fetchOpts, git.WithProgress(os.Stderr))
	}
	orch := orchestrator.New(
		git.NewFetcher(ws.GetPath(), fetchOpts...),
		orchestrator.WithKeepGoing(c.KeepGoing),
		orchestrator.WithRepositories(c.Repository...),
		orchestrator.WithRecorder(recorder),
	)
	report, runErr := orch.Run(ctx, cfg)

	if c.Report != "" {
		if err := report.Persist(c.Report); err != nil {
			slog.Warn("Failed to write run report", logfields.Path(c.Report), logfields.Error(err))
		} else {
			slog.Info("Wrote run report", logfields.Path(c.Report))
		}
	}
	if registry != nil {
		if err := metrics.WriteTextfile(c.MetricsFile, registry); err != nil {
			slog.Warn("Failed to write metrics file", logfields.Path(c.MetricsFile), logfields.Error(err))
		}
	}

	slog.Info("Run summary", slog.String("summary", report.Summary()))
	return runErr
}
