// Package config loads the harness settings from defaults, an optional YAML file, and
// PETSTORE_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultConfigName = "harness"
	EnvPrefix         = "PETSTORE"
)

type Config struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIPrefix      string        `mapstructure:"api_prefix"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Parallelism    int           `mapstructure:"parallelism"`
	LogLevel       string        `mapstructure:"log_level"`
	LogFormat      string        `mapstructure:"log_format"`

	DeleteNotFoundStatuses []int  `mapstructure:"delete_not_found_statuses"`
	UploadMissingStatuses  []int  `mapstructure:"upload_missing_statuses"`
	UploadFile             string `mapstructure:"upload_file"`

	Load LoadConfig `mapstructure:"load"`
	Mock MockConfig `mapstructure:"mock"`
}

type LoadConfig struct {
	PlansFile   string        `mapstructure:"plans_file"`
	MetricsAddr string        `mapstructure:"metrics_addr"`
	Pace        time.Duration `mapstructure:"pace"`
}

type MockConfig struct {
	Port       int           `mapstructure:"port"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("base_url", "http://localhost:8080")
	v.SetDefault("api_prefix", "/api/v3")
	v.SetDefault("request_timeout", "10s")
	v.SetDefault("parallelism", 1)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetDefault("delete_not_found_statuses", []int{404, 400, 204, 200})
	v.SetDefault("upload_missing_statuses", []int{404, 400, 415})
	v.SetDefault("upload_file", "")

	v.SetDefault("load.plans_file", "")
	v.SetDefault("load.metrics_addr", "")
	v.SetDefault("load.pace", "0s")

	v.SetDefault("mock.port", 8080)
	v.SetDefault("mock.session_ttl", "1h")
}

// Load reads the configuration. If configFile is empty, harness.yaml is looked for in the
// working directory and ./config, and its absence is not an error.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks values that cannot be caught by decoding alone.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base_url must not be empty")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request_timeout must be positive")
	}
	if c.Parallelism < 1 {
		return errors.New("parallelism must be at least 1")
	}
	for _, list := range [][]int{c.DeleteNotFoundStatuses, c.UploadMissingStatuses} {
		for _, status := range list {
			if status < 100 || status > 599 {
				return fmt.Errorf("%d is not an HTTP status", status)
			}
		}
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, not %q", c.LogFormat)
	}
	return nil
}
