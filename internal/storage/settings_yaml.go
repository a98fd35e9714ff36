package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"cubetimer/internal/ui/preferences"
)

const settingsFileName = "settings.yaml"

// Environment variables override file values, so the widget can be pointed
// at a database without editing settings.yaml.
const (
	envInfluxURL         = "INFLUX_URL"
	envInfluxToken       = "INFLUX_TOKEN"
	envInfluxOrg         = "INFLUX_ORG"
	envInfluxBucket      = "INFLUX_BUCKET"
	envInfluxMeasurement = "INFLUX_MEASUREMENT"
)

type yamlSettings struct {
	InfluxURL         string `yaml:"influx_url"`
	InfluxToken       string `yaml:"influx_token"`
	InfluxOrg         string `yaml:"influx_org"`
	InfluxBucket      string `yaml:"influx_bucket"`
	InfluxMeasurement string `yaml:"influx_measurement"`
	Cube              string `yaml:"cube"`
	CubeOptions       string `yaml:"cube_options"`
	TickIntervalMS    int    `yaml:"tick_interval_ms"`
	ToggleDebounceMS  int    `yaml:"toggle_debounce_ms"`
	SoundEnabled      bool   `yaml:"sound_enabled"`
	AutostartEnabled  bool   `yaml:"autostart_enabled"`
}

// LoadSettings reads user preferences from YAML, then lets INFLUX_*
// environment variables override the connection values. If the config
// file does not exist, default settings are returned.
func LoadSettings(appName string) (preferences.Settings, error) {
	configPath, err := resolveConfigPath(appName)
	if err != nil {
		return preferences.DefaultSettings(), err
	}
	return loadSettings(configPath)
}

// SaveSettings writes user preferences to YAML. A token that came from the
// environment is kept out of the file; whatever token the file already held
// survives the save.
func SaveSettings(appName string, settings preferences.Settings) error {
	configPath, err := resolveConfigPath(appName)
	if err != nil {
		return err
	}
	return saveSettings(configPath, settings)
}

func loadSettings(configPath string) (preferences.Settings, error) {
	settings := preferences.DefaultSettings()

	fileData, err := readSettingsFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// First launch: defaults plus whatever the environment provides.
	case err != nil:
		return settings, err
	default:
		applyYamlSettings(&settings, fileData)
	}

	applyEnvOverrides(&settings)
	return settings, nil
}

func saveSettings(configPath string, settings preferences.Settings) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	fileData := yamlSettings{
		InfluxURL:         settings.InfluxURL,
		InfluxToken:       settings.InfluxToken,
		InfluxOrg:         settings.InfluxOrg,
		InfluxBucket:      settings.InfluxBucket,
		InfluxMeasurement: settings.InfluxMeasurement,
		Cube:              settings.Cube,
		CubeOptions:       settings.CubeOptions,
		TickIntervalMS:    int(settings.TickInterval / time.Millisecond),
		ToggleDebounceMS:  int(settings.ToggleDebounce / time.Millisecond),
		SoundEnabled:      settings.SoundEnabled,
		AutostartEnabled:  settings.AutostartEnabled,
	}
	if settings.TokenFromEnv {
		fileData.InfluxToken = ""
		if previous, err := readSettingsFile(configPath); err == nil {
			fileData.InfluxToken = previous.InfluxToken
		}
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	if err := os.WriteFile(configPath, serialized, 0o600); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}

	return nil
}

func readSettingsFile(configPath string) (yamlSettings, error) {
	var fileData yamlSettings

	rawData, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileData, err
		}
		return fileData, fmt.Errorf("read settings file: %w", err)
	}
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return fileData, fmt.Errorf("parse settings yaml: %w", err)
	}
	return fileData, nil
}

func resolveConfigPath(appName string) (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName, settingsFileName), nil
}

func applyYamlSettings(settings *preferences.Settings, fileData yamlSettings) {
	settings.InfluxURL = fileData.InfluxURL
	settings.InfluxToken = fileData.InfluxToken
	settings.InfluxOrg = fileData.InfluxOrg
	settings.InfluxBucket = fileData.InfluxBucket
	if fileData.InfluxMeasurement != "" {
		settings.InfluxMeasurement = fileData.InfluxMeasurement
	}
	if fileData.CubeOptions != "" {
		settings.CubeOptions = fileData.CubeOptions
	}
	if settings.HasCube(fileData.Cube) {
		settings.Cube = fileData.Cube
	} else if !settings.HasCube(settings.Cube) {
		settings.Cube = settings.Cubes()[0]
	}
	if fileData.TickIntervalMS > 0 {
		settings.TickInterval = time.Duration(fileData.TickIntervalMS) * time.Millisecond
	}
	if fileData.ToggleDebounceMS > 0 {
		settings.ToggleDebounce = time.Duration(fileData.ToggleDebounceMS) * time.Millisecond
	}
	settings.SoundEnabled = fileData.SoundEnabled
	settings.AutostartEnabled = fileData.AutostartEnabled
}

func applyEnvOverrides(settings *preferences.Settings) {
	if value := os.Getenv(envInfluxURL); value != "" {
		settings.InfluxURL = value
	}
	if value := os.Getenv(envInfluxToken); value != "" {
		settings.InfluxToken = value
		settings.TokenFromEnv = true
	}
	if value := os.Getenv(envInfluxOrg); value != "" {
		settings.InfluxOrg = value
	}
	if value := os.Getenv(envInfluxBucket); value != "" {
		settings.InfluxBucket = value
	}
	if value := os.Getenv(envInfluxMeasurement); value != "" {
		settings.InfluxMeasurement = value
	}
}
