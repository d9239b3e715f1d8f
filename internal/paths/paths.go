// Package paths centralizes filesystem locations for settings, caches and
// the installer helper script.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const appDirName = "heat-sheet-pdf-highlighter"

// DataDirEnv overrides the per-user data directory. Used by tests and
// portable installs.
const DataDirEnv = "HEAT_SHEET_DATA_DIR"

const (
	settingsFileName      = "settings.json"
	updateCacheFileName   = "update_check_cache.json"
	releasesCacheFileName = "releases_cache.json"
	updateScriptName      = "update_app.bat"
)

// DataDir resolves the per-user application data directory and creates it
// if needed.
func DataDir() (string, error) {
	if value := strings.TrimSpace(os.Getenv(DataDirEnv)); value != "" {
		if err := os.MkdirAll(value, 0o755); err != nil {
			return "", fmt.Errorf("create data directory: %w", err)
		}
		return value, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil || strings.TrimSpace(configDir) == "" {
		configDir = ".config"
	}

	targetDir := filepath.Join(configDir, appDirName)
	if mkErr := os.MkdirAll(targetDir, 0o755); mkErr != nil {
		return "", fmt.Errorf("create data directory: %w", mkErr)
	}

	return targetDir, nil
}

// SettingsFile returns the JSON settings file path inside dir.
func SettingsFile(dir string) string {
	return filepath.Join(dir, settingsFileName)
}

// UpdateCacheFile returns the update-check cache path inside dir.
func UpdateCacheFile(dir string) string {
	return filepath.Join(dir, updateCacheFileName)
}

// ReleasesCacheFile returns the release-list cache path inside dir.
func ReleasesCacheFile(dir string) string {
	return filepath.Join(dir, releasesCacheFileName)
}

// UpdateScript returns the path of the installer helper script, which ships
// next to the application executable. The script waits for the given host
// process to exit before replacing its files.
func UpdateScript() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	return filepath.Join(filepath.Dir(exe), updateScriptName), nil
}
