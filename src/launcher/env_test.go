package launcher_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"portfolio-runner/src/launcher"
	"portfolio-runner/src/logger"
	"portfolio-runner/src/models"
)

func testLogger() *logger.Logger {
	return logger.NewLogger("ERROR", "test")
}

func envValue(env []string, key string) (string, bool) {
	// Last entry wins, scan backwards
	prefix := key + "="
	for i := len(env) - 1; i >= 0; i-- {
		if strings.HasPrefix(env[i], prefix) {
			return strings.TrimPrefix(env[i], prefix), true
		}
	}
	return "", false
}

func TestBuildChildEnv_SetsFrameworkVars(t *testing.T) {
	cfg := &models.MConfig{
		App: models.MAppLaunchConfig{
			Entrypoint: "portfolio_web_app.py",
			FlaskEnv:   "development",
			ConfigPath: "config.json",
		},
	}

	env, err := launcher.BuildChildEnv(cfg)
	if err != nil {
		t.Fatalf("BuildChildEnv failed: %v", err)
	}

	if v, ok := envValue(env, launcher.EnvFlaskApp); !ok || v != "portfolio_web_app.py" {
		t.Errorf("FLASK_APP = %q, want portfolio_web_app.py", v)
	}
	if v, ok := envValue(env, launcher.EnvFlaskEnv); !ok || v != "development" {
		t.Errorf("FLASK_ENV = %q, want development", v)
	}
	if v, ok := envValue(env, launcher.EnvConfigPath); !ok || v != "config.json" {
		t.Errorf("CONFIG_PATH = %q, want config.json", v)
	}
}

func TestBuildChildEnv_MergesEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := "PORTFOLIO_SECRET=hunter2\nFLASK_ENV=production\n"
	if err := os.WriteFile(envFile, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}

	cfg := &models.MConfig{
		App: models.MAppLaunchConfig{
			Entrypoint: "portfolio_web_app.py",
			FlaskEnv:   "development",
			ConfigPath: "config.json",
			EnvFile:    envFile,
		},
	}

	env, err := launcher.BuildChildEnv(cfg)
	if err != nil {
		t.Fatalf("BuildChildEnv failed: %v", err)
	}

	if v, ok := envValue(env, "PORTFOLIO_SECRET"); !ok || v != "hunter2" {
		t.Errorf("PORTFOLIO_SECRET = %q, want hunter2", v)
	}

	// The configured framework mode overrides the env file entry
	if v, _ := envValue(env, launcher.EnvFlaskEnv); v != "development" {
		t.Errorf("FLASK_ENV = %q, framework vars must win", v)
	}
}

func TestBuildChildEnv_MissingEnvFile(t *testing.T) {
	cfg := &models.MConfig{
		App: models.MAppLaunchConfig{
			Entrypoint: "portfolio_web_app.py",
			EnvFile:    filepath.Join(t.TempDir(), "nope.env"),
		},
	}

	if _, err := launcher.BuildChildEnv(cfg); err == nil {
		t.Fatal("Expected error for missing env file")
	}
}

func TestLauncher_RestartPending(t *testing.T) {
	cfg := &models.MConfig{App: models.MAppLaunchConfig{Entrypoint: "app.py"}}
	l := launcher.NewLauncher(cfg, testLogger(), nil, nil, nil)

	if err := l.Restart("first"); err != nil {
		t.Fatalf("First restart request failed: %v", err)
	}

	// Nothing consumes the request; a second one must be rejected
	if err := l.Restart("second"); err == nil {
		t.Error("Expected second restart request to be rejected while one is pending")
	}
}

func TestLauncher_InitialStatus(t *testing.T) {
	cfg := &models.MConfig{App: models.MAppLaunchConfig{Entrypoint: "app.py"}}
	l := launcher.NewLauncher(cfg, testLogger(), nil, nil, nil)

	status := l.Status()
	if status.State != models.StateStopped {
		t.Errorf("Expected initial state %s, got %s", models.StateStopped, status.State)
	}
	if status.Restarts != 0 {
		t.Errorf("Expected zero restarts, got %d", status.Restarts)
	}
}
