package preferences

import (
	"strings"
	"time"

	"cubetimer/internal/core/model"
	"cubetimer/internal/recorder"
)

// Settings defines editable user preferences.
type Settings struct {
	InfluxURL         string
	InfluxToken       string
	InfluxOrg         string
	InfluxBucket      string
	InfluxMeasurement string
	// TokenFromEnv marks InfluxToken as supplied by INFLUX_TOKEN. An
	// environment token is never written back to the settings file.
	TokenFromEnv bool

	// Cube is the kind new sessions are tagged with; CubeOptions is the
	// comma-separated list the widget offers.
	Cube        string
	CubeOptions string

	TickInterval   time.Duration
	ToggleDebounce time.Duration

	SoundEnabled     bool
	AutostartEnabled bool
}

// DefaultSettings returns the out-of-the-box configuration: no database
// endpoint, speed cube selected, audio cues on.
func DefaultSettings() Settings {
	return Settings{
		InfluxMeasurement: recorder.DefaultMeasurement,
		Cube:              model.DefaultCube,
		CubeOptions:       strings.Join(model.Cubes, ", "),
		TickInterval:      model.DefaultTickInterval,
		ToggleDebounce:    model.DefaultToggleDebounce,
		SoundEnabled:      true,
		AutostartEnabled:  false,
	}
}

// Cubes returns the configured cube kinds, falling back to the built-in
// list when the option string parses to nothing.
func (settings Settings) Cubes() []string {
	if options := model.ParseCubeOptions(settings.CubeOptions); len(options) > 0 {
		return options
	}
	return model.Cubes
}

// HasCube reports whether name is one of the configured cube kinds.
func (settings Settings) HasCube(name string) bool {
	for _, cube := range settings.Cubes() {
		if cube == name {
			return true
		}
	}
	return false
}

// RecorderConfig converts settings to the recorder connection config.
func (settings Settings) RecorderConfig() recorder.Config {
	return recorder.Config{
		URL:         settings.InfluxURL,
		Token:       settings.InfluxToken,
		Org:         settings.InfluxOrg,
		Bucket:      settings.InfluxBucket,
		Measurement: settings.InfluxMeasurement,
	}
}
