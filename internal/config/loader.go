package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr      string `json:"addr" yaml:"addr" toml:"addr"`
	ModelsDir string `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	ServerBin string `json:"server_bin" yaml:"server_bin" toml:"server_bin"`

	// Role bindings applied at startup. Empty means no model is
	// activated until a client asks for one.
	ChatModel       string `json:"chat_model" yaml:"chat_model" toml:"chat_model"`
	EvaluationModel string `json:"evaluation_model" yaml:"evaluation_model" toml:"evaluation_model"`

	// RuntimeVersion gates in-process models that need a minimum
	// library version, e.g. "4.49.0".
	RuntimeVersion string `json:"runtime_version" yaml:"runtime_version" toml:"runtime_version"`

	LessonsDir  string `json:"lessons_dir" yaml:"lessons_dir" toml:"lessons_dir"`
	ProgressDir string `json:"progress_dir" yaml:"progress_dir" toml:"progress_dir"`

	HealthPollIntervalMS int `json:"health_poll_interval_ms" yaml:"health_poll_interval_ms" toml:"health_poll_interval_ms"`
	StartTimeoutMS       int `json:"start_timeout_ms" yaml:"start_timeout_ms" toml:"start_timeout_ms"`
	GenerateTimeoutMS    int `json:"generate_timeout_ms" yaml:"generate_timeout_ms" toml:"generate_timeout_ms"`
	DrainTimeoutMS       int `json:"drain_timeout_ms" yaml:"drain_timeout_ms" toml:"drain_timeout_ms"`
	Threads              int `json:"threads" yaml:"threads" toml:"threads"`

	LogLevel    string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	CORSEnable  bool     `json:"cors_enable" yaml:"cors_enable" toml:"cors_enable"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
