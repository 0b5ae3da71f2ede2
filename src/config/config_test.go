package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"portfolio-runner/src/config"
)

const validYAML = `
name: portfolio-runner
host: 127.0.0.1
port: 5050
log_level: INFO

app:
  entrypoint: portfolio_web_app.py

bootstrap:
  packages:
    - flask

journal:
  db_path: runner.db
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestNewConfig_AppliesDefaults(t *testing.T) {
	conf, err := config.NewConfig(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("NewConfig failed: %v", err)
	}

	if conf.App.Python != "python3" {
		t.Errorf("Expected default python3, got %s", conf.App.Python)
	}
	if conf.App.FlaskEnv != "development" {
		t.Errorf("Expected default flask_env development, got %s", conf.App.FlaskEnv)
	}
	if conf.App.ConfigPath != "config.json" {
		t.Errorf("Expected default config path, got %s", conf.App.ConfigPath)
	}
	if conf.Bootstrap.VenvDir != "venv" {
		t.Errorf("Expected default venv dir, got %s", conf.Bootstrap.VenvDir)
	}
	if conf.Bootstrap.MarkerPackage != "flask" {
		t.Errorf("Expected default marker package, got %s", conf.Bootstrap.MarkerPackage)
	}
	if conf.Watch.DebounceMs != 500 {
		t.Errorf("Expected default debounce, got %d", conf.Watch.DebounceMs)
	}
	if conf.Journal.RetentionDays != 30 {
		t.Errorf("Expected default retention, got %d", conf.Journal.RetentionDays)
	}
}

func TestNewConfig_MissingFile(t *testing.T) {
	_, err := config.NewConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
}

func TestNewConfig_ValidationErrors(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(string) string
		wantErr string
	}{
		{
			name:    "bad port",
			mutate:  func(s string) string { return strings.Replace(s, "port: 5050", "port: 80", 1) },
			wantErr: "port",
		},
		{
			name:    "missing entrypoint",
			mutate:  func(s string) string { return strings.Replace(s, "entrypoint: portfolio_web_app.py", "", 1) },
			wantErr: "entrypoint",
		},
		{
			name:    "no dependencies",
			mutate:  func(s string) string { return strings.Replace(s, "packages:\n    - flask", "packages: []", 1) },
			wantErr: "requirements",
		},
		{
			name:    "missing journal path",
			mutate:  func(s string) string { return strings.Replace(s, "db_path: runner.db", "", 1) },
			wantErr: "journal",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.NewConfig(writeConfig(t, tc.mutate(validYAML)))
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Expected error mentioning %q, got: %v", tc.wantErr, err)
			}
		})
	}
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	conf, err := config.NewConfig(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("NewConfig failed: %v", err)
	}

	out := filepath.Join(t.TempDir(), "saved.yaml")
	if err := conf.Save(out); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded, err := config.NewConfig(out)
	if err != nil {
		t.Fatalf("Failed to reload saved config: %v", err)
	}
	if reloaded.Name != conf.Name || reloaded.Port != conf.Port {
		t.Errorf("Round trip mismatch: %+v vs %+v", reloaded.MConfig, conf.MConfig)
	}
}
