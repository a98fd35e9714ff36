// Package platform covers the OS-specific glue: login-item registration
// and the single-instance lock.
package platform

import (
	"fmt"
	"os"
)

// SetAutostart registers or removes the widget as a login item for the
// current user. The currently running executable is what gets registered.
func SetAutostart(appName string, enabled bool) error {
	if appName == "" {
		return fmt.Errorf("autostart: app name is empty")
	}

	if !enabled {
		return disableAutostart(appName)
	}

	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("autostart: resolve executable: %w", err)
	}
	return enableAutostart(appName, execPath)
}

func userConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err == nil && configDir != "" {
		return configDir, nil
	}

	homeDir, homeErr := os.UserHomeDir()
	if homeErr != nil {
		if err != nil {
			return "", fmt.Errorf("resolve config dir: %w", err)
		}
		return "", fmt.Errorf("resolve config dir: %w", homeErr)
	}

	return fallbackConfigDir(homeDir), nil
}
