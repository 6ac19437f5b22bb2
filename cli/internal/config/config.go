// Package config loads CLI configuration from files and the environment.
package config

import (
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// AppFs is the filesystem the CLI reads through; swapped for a memory fs in
// tests.
var AppFs = afero.NewOsFs()

// Config holds the CLI configuration.
type Config struct {
	Endpoint         string
	WSEndpoint       string
	MinServerVersion string
	TimeoutSeconds   int
}

// Load reads configuration from .streamq.yaml (working directory, home
// directory, or ~/.config/streamq), STREAMQ_* environment variables, and an
// optional .env file.
func Load() (*Config, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, err
	}

	viper.SetConfigName(".streamq")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath(home)
	viper.AddConfigPath(filepath.Join(home, ".config", "streamq"))

	viper.SetEnvPrefix("STREAMQ")
	viper.AutomaticEnv()

	viper.SetDefault("endpoint", "http://localhost:8088")
	viper.SetDefault("timeout_seconds", 30)

	// Missing config file is fine; defaults and env cover it.
	_ = viper.ReadInConfig()

	if exists, _ := afero.Exists(AppFs, ".env"); exists {
		_ = godotenv.Load()
	}
	if exists, _ := afero.Exists(AppFs, ".env.local"); exists {
		_ = godotenv.Overload(".env.local")
	}

	return &Config{
		Endpoint:         viper.GetString("endpoint"),
		WSEndpoint:       viper.GetString("ws_endpoint"),
		MinServerVersion: viper.GetString("min_server_version"),
		TimeoutSeconds:   viper.GetInt("timeout_seconds"),
	}, nil
}
