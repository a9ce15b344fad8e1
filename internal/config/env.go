package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix for environment overrides, e.g. BRAINBUDDY_DB_PATH.
const EnvPrefix = "brainbuddy"

// EnvConfig holds settings read from the environment. Empty means unset.
type EnvConfig struct {
	DBPath   string `envconfig:"DB_PATH"`
	LogLevel string `envconfig:"LOG_LEVEL"`
	LogFile  string `envconfig:"LOG_FILE"`
	Addr     string `envconfig:"ADDR"`
	Seed     *int64 `envconfig:"SEED"`
}

// LoadEnv reads BRAINBUDDY_* variables.
func LoadEnv() (EnvConfig, error) {
	var env EnvConfig
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return EnvConfig{}, fmt.Errorf("failed to read environment: %w", err)
	}
	return env, nil
}

// Settings are the resolved non-flag settings shared by every command.
type Settings struct {
	DBPath   string
	LogLevel string
	LogFile  string
	Addr     string
	Workers  int
	Seed     *int64
}

// Defaults for settings not given anywhere.
const (
	DefaultLogLevel = "info"
	DefaultAddr     = "127.0.0.1:8080"
	DefaultWorkers  = 4
)

// Resolve merges file and environment config over defaults. Environment
// wins over the file; flags are applied later by the caller.
func Resolve(file FileConfig, env EnvConfig) Settings {
	s := Settings{
		DBPath:   DefaultDBPath(),
		LogLevel: DefaultLogLevel,
		LogFile:  DefaultLogPath(),
		Addr:     DefaultAddr,
		Workers:  DefaultWorkers,
	}
	if file.Storage.DBPath != nil {
		s.DBPath = *file.Storage.DBPath
	}
	if file.Log.Level != nil {
		s.LogLevel = *file.Log.Level
	}
	if file.Log.File != nil {
		s.LogFile = *file.Log.File
	}
	if file.Server.Addr != nil {
		s.Addr = *file.Server.Addr
	}
	if file.Estimator.Workers != nil {
		s.Workers = *file.Estimator.Workers
	}
	if file.Estimator.Seed != nil {
		seed := *file.Estimator.Seed
		s.Seed = &seed
	}

	if env.DBPath != "" {
		s.DBPath = env.DBPath
	}
	if env.LogLevel != "" {
		s.LogLevel = env.LogLevel
	}
	if env.LogFile != "" {
		s.LogFile = env.LogFile
	}
	if env.Addr != "" {
		s.Addr = env.Addr
	}
	if env.Seed != nil {
		seed := *env.Seed
		s.Seed = &seed
	}
	return s
}
