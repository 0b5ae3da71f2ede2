package models

// MConfig Structure
type MConfig struct {
	Name      string           `yaml:"name"`
	Host      string           `yaml:"host"`
	Port      int              `yaml:"port"`
	LogLevel  string           `yaml:"log_level"`
	App       MAppLaunchConfig `yaml:"app"`
	Bootstrap MBootstrapConfig `yaml:"bootstrap"`
	Watch     MWatchConfig     `yaml:"watch"`
	Journal   MJournalConfig   `yaml:"journal"`
}

// MAppLaunchConfig describes the web application process the runner launches.
type MAppLaunchConfig struct {
	Python        string   `yaml:"python"`
	Entrypoint    string   `yaml:"entrypoint"`
	WorkDir       string   `yaml:"work_dir"`
	ConfigPath    string   `yaml:"config_path"`
	TemplatesDir  string   `yaml:"templates_dir"`
	EnvFile       string   `yaml:"env_file"` // Optional
	FlaskEnv      string   `yaml:"flask_env"`
	MaxRestarts   int      `yaml:"max_restarts"`
	RestartDelay  int      `yaml:"restart_delay_seconds"`
	ExtraArgs     []string `yaml:"extra_args"`
	LogBufferSize int      `yaml:"log_buffer_size"`
}

type MBootstrapConfig struct {
	VenvDir       string   `yaml:"venv_dir"`
	Requirements  string   `yaml:"requirements"` // Path to requirements.txt, optional
	Packages      []string `yaml:"packages"`     // Explicit list used when no requirements file
	MarkerPackage string   `yaml:"marker_package"`
	PipRetries    int      `yaml:"pip_retries"`
}

type MWatchConfig struct {
	Enabled    bool     `yaml:"enabled"`
	Paths      []string `yaml:"paths"`
	DebounceMs int      `yaml:"debounce_ms"`
}

type MJournalConfig struct {
	DBPath        string `yaml:"db_path"`
	RetentionDays int    `yaml:"retention_days"`
}
