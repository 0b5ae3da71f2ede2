package launcher

import (
	"fmt"
	"os"

	"portfolio-runner/src/models"

	"github.com/joho/godotenv"
)

// -----------------------------------------------------------------------------

// Environment variables set for the launched web framework
const (
	EnvFlaskApp   = "FLASK_APP"
	EnvFlaskEnv   = "FLASK_ENV"
	EnvConfigPath = "CONFIG_PATH"
)

// -----------------------------------------------------------------------------

// BuildChildEnv assembles the child process environment: the runner's own
// environment, then entries from the optional .env file, then the framework
// variables. Later entries win, so the framework variables always apply.
func BuildChildEnv(cfg *models.MConfig) ([]string, error) {
	env := os.Environ()

	if cfg.App.EnvFile != "" {
		fileVars, err := godotenv.Read(cfg.App.EnvFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read env file '%s': %w", cfg.App.EnvFile, err)
		}
		for k, v := range fileVars {
			env = append(env, fmt.Sprintf("%s=%s", k, v))
		}
	}

	env = append(env,
		fmt.Sprintf("%s=%s", EnvFlaskApp, cfg.App.Entrypoint),
		fmt.Sprintf("%s=%s", EnvFlaskEnv, cfg.App.FlaskEnv),
		fmt.Sprintf("%s=%s", EnvConfigPath, cfg.App.ConfigPath),
	)

	return env, nil
}
