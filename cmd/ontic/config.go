// Config loading for the ontic CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/ontic/internal/paths"
	"github.com/mesh-intelligence/ontic/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyDataDir = "data_dir"
)

// defaultConfigYAML is written to config.yaml on first run. The single
// default route covers everything until more backends are added.
const defaultConfigYAML = `# ontic configuration

# Backend used when no routes are configured: sqlite or memory.
backend: sqlite

# Data directory (optional; overridable by --data-dir flag)
# data_dir:

# Identifier prefix stamped on generated ids.
id_prefix: ""

# Route table for multi-backend dispatch. Exactly one route must be
# marked default. Example:
# routes:
#   - name: wordpress
#     backend: sqlite
#     data_dir: ./wp-data
#     id_prefix: "wp-"
#     type_tags: [blog_post, page]
#   - name: main
#     backend: sqlite
#     default: true
`

// loadConfig reads config.yaml from the resolved config directory using
// viper and unmarshals it into the typed config. It creates the config
// directory and a default config.yaml on first run; a missing file is not
// an error.
func loadConfig(configDir string) (types.Config, error) {
	var cfg types.Config

	if err := ensureConfigDir(configDir); err != nil {
		return cfg, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return cfg, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault("backend", types.BackendSQLite)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// ensureConfigDir creates the config directory if it does not exist.
func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile creates a default config.yaml if the file does
// not exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// resolveConfigDir returns the configuration directory following the
// precedence chain: --config-dir flag > ONTIC_CONFIG_DIR env > platform default.
func resolveConfigDir() (string, error) {
	return paths.ResolveConfigDir(flagConfigDir)
}

// resolveDataDir returns the data directory following the precedence chain:
// --data-dir flag > config.yaml data_dir > ONTIC_DATA_DIR env > default.
func resolveDataDir(configValue string) (string, error) {
	return paths.ResolveDataDir(flagDataDir, configValue)
}
