package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Training.TargetState != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigEmptyPath(t *testing.T) {
	if _, err := LoadConfig(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestLoadConfigSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[training]
user = "ada"
target-state = "calm"
duration = "10m"

[estimator]
seed = 7
workers = 2

[log]
level = "debug"

[server]
addr = ":9000"

[storage]
db = "/tmp/bb.db"
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Training.User == nil || *cfg.Training.User != "ada" {
		t.Fatalf("unexpected user: %v", cfg.Training.User)
	}
	if cfg.Training.TargetState == nil || *cfg.Training.TargetState != "calm" {
		t.Fatalf("unexpected target state: %v", cfg.Training.TargetState)
	}
	if cfg.Training.Tick != nil {
		t.Fatalf("expected tick unset, got %v", *cfg.Training.Tick)
	}
	if cfg.Estimator.Seed == nil || *cfg.Estimator.Seed != 7 {
		t.Fatalf("unexpected seed: %v", cfg.Estimator.Seed)
	}

	s := Resolve(cfg, EnvConfig{})
	if s.DBPath != "/tmp/bb.db" || s.LogLevel != "debug" || s.Addr != ":9000" || s.Workers != 2 {
		t.Fatalf("unexpected settings: %+v", s)
	}
	if s.Seed == nil || *s.Seed != 7 {
		t.Fatalf("unexpected seed: %v", s.Seed)
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[training]\nwords = 10\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("BRAINBUDDY_DB_PATH", "/env/bb.db")
	t.Setenv("BRAINBUDDY_LOG_LEVEL", "warn")
	t.Setenv("BRAINBUDDY_SEED", "3")
	env, err := LoadEnv()
	if err != nil {
		t.Fatalf("load env: %v", err)
	}
	fileDB := "/file/bb.db"
	s := Resolve(FileConfig{Storage: StorageConfig{DBPath: &fileDB}}, env)
	if s.DBPath != "/env/bb.db" {
		t.Fatalf("expected env db path, got %s", s.DBPath)
	}
	if s.LogLevel != "warn" {
		t.Fatalf("expected env log level, got %s", s.LogLevel)
	}
	if s.Seed == nil || *s.Seed != 3 {
		t.Fatalf("expected env seed, got %v", s.Seed)
	}
	if s.Addr != DefaultAddr {
		t.Fatalf("expected default addr, got %s", s.Addr)
	}
}

func TestEnvBadValue(t *testing.T) {
	t.Setenv("BRAINBUDDY_SEED", "abc")
	if _, err := LoadEnv(); err == nil {
		t.Fatal("expected error for non-numeric seed")
	}
}

func TestDefaultPathsUseXDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	t.Setenv("XDG_STATE_HOME", "/state")
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	if got := DefaultDBPath(); got != filepath.Join("/data", "brainbuddy", "brainbuddy.db") {
		t.Fatalf("unexpected db path: %s", got)
	}
	if got := DefaultLogPath(); got != filepath.Join("/state", "brainbuddy", "brainbuddy.log") {
		t.Fatalf("unexpected log path: %s", got)
	}
	if got := DefaultConfigPath(); got != filepath.Join("/cfg", "brainbuddy", "config.toml") {
		t.Fatalf("unexpected config path: %s", got)
	}
}
