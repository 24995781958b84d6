// Package paths picks the configuration and data directories for the CLI.
// Each resolver walks an override chain and falls back to a platform
// default: XDG conventions on Linux, os.UserConfigDir everywhere else.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// Directory names rooted in the working directory when nothing else is
// configured. Keeping data next to the checkout makes a workspace
// self-contained.
const (
	DefaultConfigDirName = ".ontic"
	DefaultDataDirName   = ".ontic-db"
)

// Override environment variables.
const (
	EnvConfigDir = "ONTIC_CONFIG_DIR"
	EnvDataDir   = "ONTIC_DATA_DIR"
)

// ResolveConfigDir picks the configuration directory. Precedence: the
// --config-dir flag, then ONTIC_CONFIG_DIR, then the platform default.
// Relative overrides are made absolute.
func ResolveConfigDir(flag string) (string, error) {
	for _, candidate := range []string{flag, os.Getenv(EnvConfigDir)} {
		if candidate != "" {
			return filepath.Abs(candidate)
		}
	}
	return DefaultConfigDir()
}

// ResolveDataDir picks the data directory. Precedence: the --data-dir
// flag, then the config file value, then ONTIC_DATA_DIR, then
// $(CWD)/.ontic-db.
func ResolveDataDir(flag, configValue string) (string, error) {
	for _, candidate := range []string{flag, configValue, os.Getenv(EnvDataDir)} {
		if candidate != "" {
			return filepath.Abs(candidate)
		}
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

// DefaultConfigDir is $XDG_CONFIG_HOME/ontic on Linux (~/.config/ontic when
// the variable is unset) and os.UserConfigDir()/ontic elsewhere.
func DefaultConfigDir() (string, error) {
	return platformDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir is $XDG_DATA_HOME/ontic on Linux (~/.local/share/ontic
// when the variable is unset) and os.UserConfigDir()/ontic elsewhere, which
// puts config and data side by side on macOS and Windows.
func DefaultDataDir() (string, error) {
	return platformDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// platformDir resolves the per-user base directory and appends the app
// name. Only Linux distinguishes config from data roots; macOS and Windows
// keep both under the user config root.
func platformDir(xdgVar, homeRel string) (string, error) {
	if runtime.GOOS != "linux" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(base, "ontic"), nil
	}
	if xdg := os.Getenv(xdgVar); xdg != "" {
		return filepath.Join(xdg, "ontic"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, homeRel, "ontic"), nil
}
