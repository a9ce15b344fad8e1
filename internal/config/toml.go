// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Training  TrainingConfig  `toml:"training"`
	Estimator EstimatorConfig `toml:"estimator"`
	Log       LogConfig       `toml:"log"`
	Server    ServerConfig    `toml:"server"`
	Storage   StorageConfig   `toml:"storage"`
}

// TrainingConfig maps live training settings.
type TrainingConfig struct {
	User        *string `toml:"user"`
	TargetState *string `toml:"target-state"`
	Duration    *string `toml:"duration"`
	Tick        *string `toml:"tick"`
}

// EstimatorConfig maps estimator settings.
type EstimatorConfig struct {
	Seed    *int64 `toml:"seed"`
	Workers *int   `toml:"workers"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
	File  *string `toml:"file"`
}

// ServerConfig maps HTTP server settings.
type ServerConfig struct {
	Addr *string `toml:"addr"`
}

// StorageConfig maps database settings.
type StorageConfig struct {
	DBPath *string `toml:"db"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
