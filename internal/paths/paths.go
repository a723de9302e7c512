// Package paths resolves where guineapal keeps config.yaml and its data.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// AppName names the per-user config directory.
const AppName = "guineapal"

// DefaultDataDirName is created in the working directory when no data
// directory is configured.
const DefaultDataDirName = ".guineapal"

const (
	EnvConfigDir = "GUINEAPAL_CONFIG_DIR"
	EnvDataDir   = "GUINEAPAL_DATA_DIR"
)

// Swapped out in tests.
var (
	homeDir       = os.UserHomeDir
	userConfigDir = os.UserConfigDir
)

// DefaultConfigDir is $XDG_CONFIG_HOME/guineapal on Linux (~/.config when
// unset) and os.UserConfigDir()/guineapal elsewhere.
func DefaultConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, AppName), nil
		}
		home, err := homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", AppName), nil
	}
	dir, err := userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// ResolveConfigDir picks the --config-dir flag, then GUINEAPAL_CONFIG_DIR,
// then DefaultConfigDir.
func ResolveConfigDir(flag string) (string, error) {
	for _, p := range []string{flag, os.Getenv(EnvConfigDir)} {
		if p != "" {
			return absPath(p)
		}
	}
	return DefaultConfigDir()
}

// ResolveDataDir picks the --data-dir flag, then data_dir from config.yaml,
// then GUINEAPAL_DATA_DIR, then ./.guineapal. A leading ~ expands to the
// home directory so config.yaml can say "data_dir: ~/pets".
func ResolveDataDir(flag, configValue string) (string, error) {
	for _, p := range []string{flag, configValue, os.Getenv(EnvDataDir)} {
		if p != "" {
			return absPath(p)
		}
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

func absPath(p string) (string, error) {
	if p == "~" || strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		home, err := homeDir()
		if err != nil {
			return "", err
		}
		p = filepath.Join(home, p[1:])
	}
	return filepath.Abs(p)
}
