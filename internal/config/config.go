// Package config handles loading and parsing application configuration.
// Both binaries read the same file; each one uses its own section.
//
// Sources, in priority order:
//  1. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//  2. A command-line flag:      --config=/path/to/config.yaml
//  3. Neither: environment variables and the env-default values only.
//
// A .env file in the working directory, when present, is loaded into the
// environment first.
package config

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config is the root configuration structure.
// Every field maps to a key in the YAML file AND can be overridden
// by the corresponding environment variable (env:"...").
type Config struct {
	// Env controls log format and verbosity: "dev", "staging", "prod".
	Env string `yaml:"env" env:"ENV" env-default:"dev"`

	Inference Inference `yaml:"inference"`
	Form      Form      `yaml:"form"`
}

// Inference holds the settings of the inference service.
type Inference struct {
	// Addr is the TCP address the inference service listens on.
	Addr string `yaml:"address" env:"INFERENCE_ADDR" env-default:"0.0.0.0:8180"`

	// ModelPath is the pipeline artifact loaded at startup. A .db, .sqlite
	// or .sqlite3 extension selects the SQLite artifact format, anything
	// else is read as a JSON document.
	ModelPath string `yaml:"model_path" env:"MODEL_PATH" env-default:"/app/app/models/xgb_pipeline.json"`

	WarnLog WarnLog `yaml:"warn_log"`
}

// WarnLog configures the rotating file that receives prediction warnings.
type WarnLog struct {
	Path string `yaml:"path" env:"WARN_LOG_PATH" env-default:"app.log"`
	// MaxSizeMB is the size in megabytes at which the file is rotated.
	// Rotation works in whole megabytes, so the smallest limit is 1MB
	// rather than the ~100KB a byte-sized limit would allow.
	MaxSizeMB  int `yaml:"max_size_mb" env:"WARN_LOG_MAX_SIZE_MB" env-default:"1"`
	MaxBackups int `yaml:"max_backups" env:"WARN_LOG_MAX_BACKUPS" env-default:"10"`
}

// Form holds the settings of the form service.
type Form struct {
	Addr string `yaml:"address" env:"FORM_ADDR" env-default:"0.0.0.0:8181"`

	// InferenceURL is the full URL of the inference service's predict endpoint.
	InferenceURL string `yaml:"inference_url" env:"INFERENCE_URL" env-default:"http://localhost:8180/predict"`

	// RequestTimeout bounds every call to the inference service.
	RequestTimeout time.Duration `yaml:"request_timeout" env:"INFERENCE_TIMEOUT" env-default:"10s"`
}

// MustLoad reads and returns the application config. It exits the process
// on any failure, so callers never see a partially populated Config.
func MustLoad() *Config {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to the configuration YAML file")
		flag.Parse()
		configPath = *flags
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err.Error())
	}

	return cfg
}

// Load reads the config from path, or from the environment alone when path
// is empty.
func Load(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	}

	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
