package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"portfolio-runner/src/helpers"
	"portfolio-runner/src/interfaces"
	"portfolio-runner/src/logger"
	"portfolio-runner/src/models"
)

// -----------------------------------------------------------------------------
// Bootstrapper - idempotent Python environment preparation
// -----------------------------------------------------------------------------

type Bootstrapper struct {
	Config  *models.MConfig
	Logger  *logger.Logger
	Runner  interfaces.ICommandRunner
	Journal interfaces.IJournal
	Errors  *helpers.ErrorHandler
}

// -----------------------------------------------------------------------------

func NewBootstrapper(cfg *models.MConfig, log *logger.Logger, runner interfaces.ICommandRunner, journal interfaces.IJournal) *Bootstrapper {
	return &Bootstrapper{
		Config:  cfg,
		Logger:  log,
		Runner:  runner,
		Journal: journal,
		Errors:  helpers.NewErrorHandler(cfg.LogLevel),
	}
}

// -----------------------------------------------------------------------------

// Prepare ensures the virtualenv exists and dependencies are installed.
// Both steps are idempotent: an existing venv is reused, and installation
// is skipped when the marker package is already present.
func (b *Bootstrapper) Prepare(ctx context.Context) error {
	created, err := b.EnsureVenv(ctx)
	if err != nil {
		return err
	}

	// A fresh venv always needs an install pass. An existing one is probed
	// for the marker package first.
	if !created {
		if b.MarkerInstalled(ctx) {
			b.Logger.Info("Marker package '%s' already installed, skipping dependency install", b.Config.Bootstrap.MarkerPackage)
			return nil
		}
		b.Logger.Info("Marker package '%s' missing from venv, installing dependencies", b.Config.Bootstrap.MarkerPackage)
	}

	return b.InstallDependencies(ctx)
}

// -----------------------------------------------------------------------------

// ResolvePath anchors a relative path at the app work directory so the
// runner and the commands it spawns (whose cwd is the work directory)
// agree on locations.
func ResolvePath(workDir, path string) string {
	if path == "" || filepath.IsAbs(path) || workDir == "" {
		return path
	}
	return filepath.Join(workDir, path)
}

// -----------------------------------------------------------------------------

// EnsureVenv creates the virtualenv if absent. Returns whether it was created.
func (b *Bootstrapper) EnsureVenv(ctx context.Context) (bool, error) {
	venvDir := ResolvePath(b.Config.App.WorkDir, b.Config.Bootstrap.VenvDir)

	// pyvenv.cfg is written by `python -m venv` and marks a usable env
	if _, err := os.Stat(filepath.Join(venvDir, "pyvenv.cfg")); err == nil {
		b.Logger.Info("Virtual environment found at %s", venvDir)
		return false, nil
	}

	b.Logger.Info("Creating virtual environment at %s...", venvDir)
	out, err := b.Runner.Run(ctx, b.Config.App.WorkDir, b.Config.App.Python, "-m", "venv", venvDir)
	if err != nil {
		return false, &helpers.BootstrapError{RunnerError: helpers.RunnerError{
			Message: fmt.Sprintf("venv creation failed: %s", string(out)),
			Cause:   err,
		}}
	}

	b.recordEvent(models.EventBootstrap, fmt.Sprintf("created venv at %s", venvDir))
	return true, nil
}

// -----------------------------------------------------------------------------

// MarkerInstalled probes the venv for the marker package via `pip show`
func (b *Bootstrapper) MarkerInstalled(ctx context.Context) bool {
	pip := VenvPip(ResolvePath(b.Config.App.WorkDir, b.Config.Bootstrap.VenvDir))
	_, err := b.Runner.Run(ctx, b.Config.App.WorkDir, pip, "show", b.Config.Bootstrap.MarkerPackage)
	return err == nil
}

// -----------------------------------------------------------------------------

// InstallDependencies installs from the requirements file when configured,
// otherwise from the explicit package list. Retries with backoff because
// pip failures are usually transient network errors.
func (b *Bootstrapper) InstallDependencies(ctx context.Context) error {
	pip := VenvPip(ResolvePath(b.Config.App.WorkDir, b.Config.Bootstrap.VenvDir))

	args := []string{"install"}
	if b.Config.Bootstrap.Requirements != "" {
		args = append(args, "-r", b.Config.Bootstrap.Requirements)
	} else {
		args = append(args, b.Config.Bootstrap.Packages...)
	}

	b.Logger.Info("Installing dependencies (pip %v)...", args)

	_, err := b.Errors.ExecuteWithRetry("pip install", func() (interface{}, error) {
		out, runErr := b.Runner.Run(ctx, b.Config.App.WorkDir, pip, args...)
		if runErr != nil {
			return nil, fmt.Errorf("%w: %s", runErr, string(out))
		}
		return out, nil
	}, b.Config.Bootstrap.PipRetries)
	if err != nil {
		return err
	}

	b.recordEvent(models.EventBootstrap, "installed dependencies")
	b.Logger.Info("Dependencies installed")
	return nil
}

// -----------------------------------------------------------------------------

func (b *Bootstrapper) recordEvent(kind, detail string) {
	if b.Journal == nil {
		return
	}
	if err := b.Journal.RecordEvent(kind, detail); err != nil {
		b.Logger.Warning("Failed to record journal event: %v", err)
	}
}
