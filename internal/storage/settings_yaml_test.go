package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cubetimer/internal/ui/preferences"
)

func clearInfluxEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{envInfluxURL, envInfluxToken, envInfluxOrg, envInfluxBucket, envInfluxMeasurement} {
		t.Setenv(key, "")
	}
}

func TestLoadSettingsMissingFile(t *testing.T) {
	clearInfluxEnv(t)

	configPath := filepath.Join(t.TempDir(), "CubeTimer", settingsFileName)
	settings, err := loadSettings(configPath)
	if err != nil {
		t.Fatalf("load on missing file returned %v", err)
	}
	if settings != preferences.DefaultSettings() {
		t.Fatalf("missing file settings = %+v, want defaults", settings)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	clearInfluxEnv(t)

	configPath := filepath.Join(t.TempDir(), "CubeTimer", settingsFileName)
	saved := preferences.Settings{
		InfluxURL:         "http://localhost:8086",
		InfluxToken:       "secret",
		InfluxOrg:         "home",
		InfluxBucket:      "cube",
		InfluxMeasurement: "solving_time",
		Cube:              "classic",
		CubeOptions:       "speed, classic",
		TickInterval:      20 * time.Millisecond,
		ToggleDebounce:    300 * time.Millisecond,
		SoundEnabled:      true,
		AutostartEnabled:  true,
	}

	if err := saveSettings(configPath, saved); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	loaded, err := loadSettings(configPath)
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	if loaded != saved {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", loaded, saved)
	}
}

func TestLoadSettingsEnvOverrides(t *testing.T) {
	clearInfluxEnv(t)

	configPath := filepath.Join(t.TempDir(), "CubeTimer", settingsFileName)
	saved := preferences.DefaultSettings()
	saved.InfluxURL = "http://stale:8086"
	saved.InfluxBucket = "old-bucket"
	if err := saveSettings(configPath, saved); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	t.Setenv(envInfluxURL, "http://influx.lan:8086")
	t.Setenv(envInfluxToken, "env-token")
	t.Setenv(envInfluxMeasurement, "practice")

	loaded, err := loadSettings(configPath)
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	if loaded.InfluxURL != "http://influx.lan:8086" {
		t.Fatalf("url = %q, want env override", loaded.InfluxURL)
	}
	if loaded.InfluxToken != "env-token" {
		t.Fatalf("token = %q, want env override", loaded.InfluxToken)
	}
	if !loaded.TokenFromEnv {
		t.Fatalf("token from environment not flagged")
	}
	if loaded.InfluxMeasurement != "practice" {
		t.Fatalf("measurement = %q, want env override", loaded.InfluxMeasurement)
	}
	if loaded.InfluxBucket != "old-bucket" {
		t.Fatalf("bucket = %q, want file value kept", loaded.InfluxBucket)
	}
}

func TestSaveKeepsEnvTokenOutOfFile(t *testing.T) {
	clearInfluxEnv(t)

	configPath := filepath.Join(t.TempDir(), "CubeTimer", settingsFileName)
	original := preferences.DefaultSettings()
	original.InfluxToken = "file-token"
	if err := saveSettings(configPath, original); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	t.Setenv(envInfluxToken, "env-token")
	loaded, err := loadSettings(configPath)
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	if loaded.InfluxToken != "env-token" || !loaded.TokenFromEnv {
		t.Fatalf("env token not applied: %+v", loaded)
	}

	if err := saveSettings(configPath, loaded); err != nil {
		t.Fatalf("save settings again: %v", err)
	}

	raw, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("read settings file: %v", err)
	}
	if strings.Contains(string(raw), "env-token") {
		t.Fatalf("environment token leaked into the settings file:\n%s", raw)
	}
	if !strings.Contains(string(raw), "file-token") {
		t.Fatalf("file token lost on save:\n%s", raw)
	}
}

func TestLoadSettingsRejectsUnknownCube(t *testing.T) {
	clearInfluxEnv(t)

	configPath := filepath.Join(t.TempDir(), settingsFileName)
	raw := []byte("cube: megaminx\ninflux_measurement: \"\"\nsound_enabled: true\n")
	if err := os.WriteFile(configPath, raw, 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	loaded, err := loadSettings(configPath)
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	defaults := preferences.DefaultSettings()
	if loaded.Cube != defaults.Cube {
		t.Fatalf("cube = %q, want default %q", loaded.Cube, defaults.Cube)
	}
	if loaded.InfluxMeasurement != defaults.InfluxMeasurement {
		t.Fatalf("measurement = %q, want default %q", loaded.InfluxMeasurement, defaults.InfluxMeasurement)
	}
}

func TestLoadSettingsCustomCubeOptions(t *testing.T) {
	clearInfluxEnv(t)

	configPath := filepath.Join(t.TempDir(), settingsFileName)
	raw := []byte("cube_options: 3x3, 4x4\ncube: 4x4\nsound_enabled: true\n")
	if err := os.WriteFile(configPath, raw, 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	loaded, err := loadSettings(configPath)
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	if loaded.Cube != "4x4" {
		t.Fatalf("cube = %q, want 4x4", loaded.Cube)
	}
	if !loaded.HasCube("3x3") || loaded.HasCube("speed") {
		t.Fatalf("cube options not applied: %q", loaded.CubeOptions)
	}
}

func TestLoadSettingsCubeOutsideCustomOptions(t *testing.T) {
	clearInfluxEnv(t)

	configPath := filepath.Join(t.TempDir(), settingsFileName)
	raw := []byte("cube_options: 3x3, 4x4\ncube: speed\n")
	if err := os.WriteFile(configPath, raw, 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	loaded, err := loadSettings(configPath)
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	if loaded.Cube != "3x3" {
		t.Fatalf("cube = %q, want first configured option", loaded.Cube)
	}
}

func TestLoadSettingsIntervalValidation(t *testing.T) {
	clearInfluxEnv(t)

	cases := []struct {
		name         string
		raw          string
		wantTick     time.Duration
		wantDebounce time.Duration
	}{
		{
			name:         "explicit values",
			raw:          "tick_interval_ms: 20\ntoggle_debounce_ms: 500\n",
			wantTick:     20 * time.Millisecond,
			wantDebounce: 500 * time.Millisecond,
		},
		{
			name:         "missing keys use defaults",
			raw:          "sound_enabled: true\n",
			wantTick:     preferences.DefaultSettings().TickInterval,
			wantDebounce: preferences.DefaultSettings().ToggleDebounce,
		},
		{
			name:         "non-positive values use defaults",
			raw:          "tick_interval_ms: 0\ntoggle_debounce_ms: -10\n",
			wantTick:     preferences.DefaultSettings().TickInterval,
			wantDebounce: preferences.DefaultSettings().ToggleDebounce,
		},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), settingsFileName)
			if err := os.WriteFile(configPath, []byte(testCase.raw), 0o600); err != nil {
				t.Fatalf("write fixture: %v", err)
			}

			loaded, err := loadSettings(configPath)
			if err != nil {
				t.Fatalf("load settings: %v", err)
			}
			if loaded.TickInterval != testCase.wantTick {
				t.Fatalf("tick interval = %v, want %v", loaded.TickInterval, testCase.wantTick)
			}
			if loaded.ToggleDebounce != testCase.wantDebounce {
				t.Fatalf("toggle debounce = %v, want %v", loaded.ToggleDebounce, testCase.wantDebounce)
			}
		})
	}
}

func TestLoadSettingsMalformedYaml(t *testing.T) {
	clearInfluxEnv(t)

	configPath := filepath.Join(t.TempDir(), settingsFileName)
	if err := os.WriteFile(configPath, []byte("cube: [unterminated"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := loadSettings(configPath); err == nil {
		t.Fatalf("expected parse error for malformed yaml")
	}
}
