package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// PathEnvVar points to an optional YAML config file.
	PathEnvVar = "RISKSCORE_CONFIG"

	DatasetEnvVar  = "RISKSCORE_DATASET"
	ArtifactEnvVar = "RISKSCORE_ARTIFACT"
	AddressEnvVar  = "RISKSCORE_ADDRESS"
	LogLevelEnvVar = "RISKSCORE_LOG_LEVEL"
	FoldsEnvVar    = "RISKSCORE_FOLDS"

	DefaultDatasetPath  = "backend/data/diabetes.csv"
	DefaultArtifactPath = "backend/models/diabetes_model.json"
	DefaultAddress      = "0.0.0.0:5000"

	dirMode  = 0700
	fileMode = 0600
)

// Config represents app config object.
type Config struct {
	Dataset  string         `yaml:"dataset" json:"dataset"`
	Artifact string         `yaml:"artifact" json:"artifact"`
	LogLevel string         `yaml:"logLevel" json:"log_level"`
	Server   ServerConfig   `yaml:"server" json:"server"`
	Training TrainingConfig `yaml:"training" json:"training"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Address        string        `yaml:"address" json:"address"`
	ReadTimeout    time.Duration `yaml:"readTimeout" json:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"writeTimeout" json:"write_timeout"`
	ShutdownWait   time.Duration `yaml:"shutdownWait" json:"shutdown_wait"`
	MaxHeaderBytes int           `yaml:"maxHeaderBytes" json:"max_header_bytes"`
}

// TrainingConfig tunes the calibrated classifier fit.
type TrainingConfig struct {
	Folds   int     `yaml:"folds" json:"folds"`
	Workers int     `yaml:"workers" json:"workers"`
	C       float64 `yaml:"c" json:"c"`
	MaxIter int     `yaml:"maxIter" json:"max_iter"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Dataset:  DefaultDatasetPath,
		Artifact: DefaultArtifactPath,
		LogLevel: "info",
		Server: ServerConfig{
			Address:        DefaultAddress,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			ShutdownWait:   5 * time.Second,
			MaxHeaderBytes: 1 << 20,
		},
		Training: TrainingConfig{
			Folds:   5,
			C:       1.0,
			MaxIter: 500,
		},
	}
}

// Load starts from Default, merges the YAML file at path (when path is not
// empty) and applies environment overrides.
func Load(path string) (*Config, error) {
	c := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %s: %w", path, err)
		}
		var fc Config
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return nil, fmt.Errorf("error unmarshalling config file: %s: %w", path, err)
		}
		c.merge(&fc)
		slog.Debug("config file loaded", "path", path)
	}

	if err := c.applyEnv(); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Save writes c as YAML to path.
func Save(path string, c *Config) error {
	if path == "" {
		return errors.New("config path required")
	}
	if c == nil {
		return errors.New("config required")
	}

	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, dirMode); err != nil {
			return fmt.Errorf("failed to create dir: %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(path, b, fileMode); err != nil {
		return fmt.Errorf("failed to write config file: %s: %w", path, err)
	}
	return nil
}

// Validate rejects values the trainer or server cannot use.
func (c *Config) Validate() error {
	if c.Dataset == "" {
		return errors.New("dataset path required")
	}
	if c.Artifact == "" {
		return errors.New("artifact path required")
	}
	if c.Server.Address == "" {
		return errors.New("server address required")
	}
	if c.Training.Folds < 2 {
		return fmt.Errorf("training folds must be at least 2, got %d", c.Training.Folds)
	}
	if c.Training.C <= 0 {
		return fmt.Errorf("training C must be positive, got %v", c.Training.C)
	}
	if c.Training.MaxIter <= 0 {
		return fmt.Errorf("training maxIter must be positive, got %d", c.Training.MaxIter)
	}
	return nil
}

func (c *Config) merge(o *Config) {
	if o.Dataset != "" {
		c.Dataset = o.Dataset
	}
	if o.Artifact != "" {
		c.Artifact = o.Artifact
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}

	if o.Server.Address != "" {
		c.Server.Address = o.Server.Address
	}
	if o.Server.ReadTimeout > 0 {
		c.Server.ReadTimeout = o.Server.ReadTimeout
	}
	if o.Server.WriteTimeout > 0 {
		c.Server.WriteTimeout = o.Server.WriteTimeout
	}
	if o.Server.ShutdownWait > 0 {
		c.Server.ShutdownWait = o.Server.ShutdownWait
	}
	if o.Server.MaxHeaderBytes > 0 {
		c.Server.MaxHeaderBytes = o.Server.MaxHeaderBytes
	}

	if o.Training.Folds != 0 {
		c.Training.Folds = o.Training.Folds
	}
	if o.Training.Workers != 0 {
		c.Training.Workers = o.Training.Workers
	}
	if o.Training.C != 0 {
		c.Training.C = o.Training.C
	}
	if o.Training.MaxIter != 0 {
		c.Training.MaxIter = o.Training.MaxIter
	}
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(DatasetEnvVar); v != "" {
		c.Dataset = v
	}
	if v := os.Getenv(ArtifactEnvVar); v != "" {
		c.Artifact = v
	}
	if v := os.Getenv(AddressEnvVar); v != "" {
		c.Server.Address = v
	}
	if v := os.Getenv(LogLevelEnvVar); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(FoldsEnvVar); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", FoldsEnvVar, v, err)
		}
		c.Training.Folds = n
	}
	return nil
}
