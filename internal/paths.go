package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const appDirName = "hypnojourney"

// AppPaths holds the per-user directories the app reads and writes
type AppPaths struct {
	ConfigDir string // config.yaml lives here
	DataDir   string // store database and audio archive
}

// DetectAppPaths resolves the per-user directories for the current OS
func DetectAppPaths() (AppPaths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return AppPaths{}, fmt.Errorf("failed to get home directory: %w", err)
	}

	var configDir, dataDir string
	switch runtime.GOOS {
	case "darwin":
		base := filepath.Join(home, "Library/Application Support", appDirName)
		configDir, dataDir = base, base
	case "linux", "freebsd", "openbsd", "netbsd":
		configDir = filepath.Join(xdgDir("XDG_CONFIG_HOME", filepath.Join(home, ".config")), appDirName)
		dataDir = filepath.Join(xdgDir("XDG_DATA_HOME", filepath.Join(home, ".local/share")), appDirName)
	case "windows":
		base := os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(home, "AppData", "Roaming")
		}
		configDir = filepath.Join(base, appDirName)
		dataDir = configDir
	default:
		return AppPaths{}, fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}

	return AppPaths{ConfigDir: configDir, DataDir: dataDir}, nil
}

func xdgDir(env, fallback string) string {
	if v := os.Getenv(env); v != "" && filepath.IsAbs(v) {
		return v
	}
	return fallback
}

// ConfigFile returns the default config file path
func (p AppPaths) ConfigFile() string {
	return filepath.Join(p.ConfigDir, "config.yaml")
}

// StorePath returns the default session store path
func (p AppPaths) StorePath() string {
	return filepath.Join(p.DataDir, "hypnojourney.db")
}

// StoreExists checks if the session store database exists
func (p AppPaths) StoreExists() bool {
	_, err := os.Stat(p.StorePath())
	return err == nil
}
