package scaffold

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"portfolio-runner/src/logger"
	"portfolio-runner/src/models"
)

// -----------------------------------------------------------------------------
// Scaffold - one-time materialization of the app's files
// -----------------------------------------------------------------------------

type Scaffold struct {
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewScaffold(log *logger.Logger) *Scaffold {
	return &Scaffold{Logger: log}
}

// -----------------------------------------------------------------------------

// EnsureAppConfig writes the default configuration document iff no file
// exists at path. An existing file is never touched. Returns whether the
// file was created.
func (s *Scaffold) EnsureAppConfig(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		s.Logger.Info("Config file %s already exists, leaving it as-is", path)
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to stat config file '%s': %w", path, err)
	}

	data, err := RenderDefaultAppConfig()
	if err != nil {
		return false, err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return false, fmt.Errorf("failed to create config directory '%s': %w", dir, err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return false, fmt.Errorf("failed to write default config '%s': %w", path, err)
	}

	s.Logger.Info("Created default config file at %s", path)
	return true, nil
}

// -----------------------------------------------------------------------------

// RenderDefaultAppConfig serializes the default document with 4-space
// indentation, matching what the application writes itself.
func RenderDefaultAppConfig() ([]byte, error) {
	data, err := json.MarshalIndent(models.DefaultAppConfig(), "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal default config: %w", err)
	}
	return data, nil
}

// -----------------------------------------------------------------------------

// EnsureTemplatesDir creates the templates directory if absent. Calling it
// on an existing directory is a no-op.
func (s *Scaffold) EnsureTemplatesDir(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create templates directory '%s': %w", path, err)
	}
	s.Logger.Debug("Templates directory ready at %s", path)
	return nil
}
