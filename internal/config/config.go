package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Backend BackendConfig
	Auth    AuthConfig
	Log     LogConfig
}

// BackendConfig holds backend connection settings.
type BackendConfig struct {
	BaseURL        string
	AppID          string
	RequestTimeout time.Duration
	ProbeTimeout   time.Duration
}

// AuthConfig holds login prefill settings. Demo credentials only; nothing
// secret lives here.
type AuthConfig struct {
	DefaultEmail    string
	DefaultPassword string
}

// LogConfig holds log output settings.
type LogConfig struct {
	Path  string
	Level string
}

// Load reads configuration from file and env. Env var overrides use prefix FOODAPP_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("backend.base_url", "http://localhost:1111")
	v.SetDefault("backend.app_id", "")
	v.SetDefault("backend.request_timeout", "10s")
	v.SetDefault("backend.probe_timeout", "3s")
	v.SetDefault("auth.default_email", "user@manifest.build")
	v.SetDefault("auth.default_password", "")
	v.SetDefault("log.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "foodapp", "foodapp.log"))
	v.SetDefault("log.level", "info")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("FOODAPP_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "foodapp"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("FOODAPP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
