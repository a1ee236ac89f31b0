package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/metalagman/openainodes/internal/config"
	"github.com/spf13/viper"
)

var defaultConfigPath = filepath.Join(config.DefaultDir, "config.yaml")

func resolveConfigPath(root, path string) string {
	if path == "" {
		path = defaultConfigPath
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	return path
}

// loadConfig reads the config file under root. A missing default file yields
// an empty config; a missing explicit file is an error.
func loadConfig(root string) (config.Config, error) {
	requested := viper.GetString("config")
	path := resolveConfigPath(root, requested)

	viper.SetEnvPrefix("OPENAINODES")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range []string{"database", "http.addr"} {
		if err := viper.BindEnv(key); err != nil {
			return config.Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if _, err := os.Stat(path); err == nil {
		viper.SetConfigFile(path)
		if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext == "" {
			viper.SetConfigType("yaml")
		}
		if err := viper.ReadInConfig(); err != nil {
			return config.Config{}, fmt.Errorf("read config: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) || (requested != "" && requested != defaultConfigPath) {
		return config.Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := config.ValidateSettings(viper.AllSettings()); err != nil {
		return config.Config{}, err
	}
	var cfg config.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return config.Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
