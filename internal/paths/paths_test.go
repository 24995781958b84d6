package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlatformDefaults(t *testing.T) {
	switch runtime.GOOS {
	case "linux":
		t.Run("config honors XDG_CONFIG_HOME", func(t *testing.T) {
			t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
			got, err := DefaultConfigDir()
			require.NoError(t, err)
			assert.Equal(t, "/tmp/xdg-config/ontic", got)
		})
		t.Run("config falls back to ~/.config", func(t *testing.T) {
			t.Setenv("XDG_CONFIG_HOME", "")
			home, err := os.UserHomeDir()
			require.NoError(t, err)
			got, err := DefaultConfigDir()
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(home, ".config", "ontic"), got)
		})
		t.Run("data honors XDG_DATA_HOME", func(t *testing.T) {
			t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")
			got, err := DefaultDataDir()
			require.NoError(t, err)
			assert.Equal(t, "/tmp/xdg-data/ontic", got)
		})
		t.Run("data falls back to ~/.local/share", func(t *testing.T) {
			t.Setenv("XDG_DATA_HOME", "")
			home, err := os.UserHomeDir()
			require.NoError(t, err)
			got, err := DefaultDataDir()
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(home, ".local", "share", "ontic"), got)
		})
	case "darwin":
		home, err := os.UserHomeDir()
		require.NoError(t, err)
		want := filepath.Join(home, "Library", "Application Support", "ontic")

		got, err := DefaultConfigDir()
		require.NoError(t, err)
		assert.Equal(t, want, got)

		got, err = DefaultDataDir()
		require.NoError(t, err)
		assert.Equal(t, want, got, "config and data share a root on darwin")
	default:
		t.Skipf("no platform expectations for %s", runtime.GOOS)
	}
}

func TestResolveConfigDirPrecedence(t *testing.T) {
	tests := []struct {
		name string
		flag string
		env  string
		want string // substring of the resolved path
	}{
		{"flag beats env", "/explicit/config", "/env/config", "/explicit/config"},
		{"env beats default", "", "/env/config", "/env/config"},
		{"platform default last", "", "", "ontic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvConfigDir, tt.env)
			got, err := ResolveConfigDir(tt.flag)
			require.NoError(t, err)
			assert.Contains(t, got, tt.want)
			assert.True(t, filepath.IsAbs(got), "resolved path must be absolute, got %s", got)
		})
	}
}

func TestResolveDataDirPrecedence(t *testing.T) {
	cwd, err := os.Getwd()
	require.NoError(t, err)

	tests := []struct {
		name      string
		flag      string
		configVal string
		env       string
		want      string
	}{
		{"flag beats everything", "/flag/data", "/config/data", "/env/data", "/flag/data"},
		{"config value beats env", "", "/config/data", "/env/data", "/config/data"},
		{"env beats cwd default", "", "", "/env/data", "/env/data"},
		{"cwd default last", "", "", "", filepath.Join(cwd, DefaultDataDirName)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDataDir, tt.env)
			got, err := ResolveDataDir(tt.flag, tt.configVal)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveMakesRelativePathsAbsolute(t *testing.T) {
	t.Setenv(EnvConfigDir, "")
	t.Setenv(EnvDataDir, "")

	for _, resolve := range []func() (string, error){
		func() (string, error) { return ResolveConfigDir("relative/config") },
		func() (string, error) { return ResolveDataDir("relative/data", "") },
		func() (string, error) { return ResolveDataDir("", "relative/config-value") },
	} {
		got, err := resolve()
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)
	}
}
