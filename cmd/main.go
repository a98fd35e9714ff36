package main

import (
	"context"
	"log"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"go.opentelemetry.io/otel"

	core "cubetimer/internal/core/stopwatch"
	"cubetimer/internal/platform"
	"cubetimer/internal/recorder"
	"cubetimer/internal/storage"
	"cubetimer/internal/telemetry"
	"cubetimer/internal/ui/preferences"
	"cubetimer/internal/ui/sound"
	stopwatchui "cubetimer/internal/ui/stopwatch"
	"cubetimer/internal/ui/tray"
	"cubetimer/resources"
)

const appName = "CubeTimer"

func main() {
	guard, err := platform.AcquireSingleInstance(appName)
	if err != nil {
		log.Printf("single instance: %v", err)
		return
	}
	defer func() {
		_ = guard.Close()
	}()

	logger, err := telemetry.InitLogger(appName)
	if err != nil {
		log.Printf("logging setup: %v", err)
		logger = slog.Default()
	}
	logger.Info("starting", "lock", guard.Address())

	tracer, meter, cleanup, err := telemetry.InitTelemetry(context.Background(), appName)
	if err != nil {
		logger.Warn("telemetry setup", "error", err)
		tracer = otel.Tracer("cubetimer")
		meter = otel.Meter("cubetimer")
	} else {
		defer cleanup()
	}

	instruments, err := telemetry.NewInstruments(meter)
	if err != nil {
		logger.Warn("metric instruments", "error", err)
	}

	settings, err := storage.LoadSettings(appName)
	if err != nil {
		logger.Warn("load settings", "error", err)
	}

	fyneApp := app.NewWithID("com.cubetimer.app")
	fyneApp.SetIcon(resources.MustImage("logo.png"))

	sink := recorder.NewSwitch(buildRecorder(settings))
	defer sink.Close()

	player, err := sound.New(resources.MustSound("start.wav"), resources.MustSound("stop.wav"))
	if err != nil {
		logger.Warn("audio cues", "error", err)
	}
	player.SetEnabled(settings.SoundEnabled)

	watch := core.New(settings.Cube, core.Config{TickInterval: settings.TickInterval})
	defer watch.Close()

	mainWindow := stopwatchui.New(fyneApp, stopwatchui.Deps{
		Watch:       watch,
		Recorder:    sink,
		Sound:       player,
		Logger:      logger,
		Tracer:      tracer,
		Instruments: instruments,
	}, settings)

	prefsWindow := preferences.New(fyneApp, settings, func(updated preferences.Settings) {
		if err := storage.SaveSettings(appName, updated); err != nil {
			logger.Error("save settings", "error", err)
		}
		sink.Set(buildRecorder(updated))
		player.SetEnabled(updated.SoundEnabled)
		if updated.AutostartEnabled != settings.AutostartEnabled {
			if err := platform.SetAutostart(appName, updated.AutostartEnabled); err != nil {
				logger.Error("autostart", "error", err)
			}
		}
		mainWindow.ApplySettings(updated)
		settings = updated
		logger.Info("settings saved", "cube", updated.Cube, "database", updated.RecorderConfig().Complete())
	})

	if desktopApp, ok := fyneApp.(desktop.App); ok {
		trayManager := tray.New(desktopApp, tray.Callbacks{
			OnShowTimer:   mainWindow.Show,
			OnPreferences: prefsWindow.Show,
			OnQuit:        fyneApp.Quit,
		})
		desktopApp.SetSystemTrayIcon(resources.MustImage("logo.png"))

		events := watch.Subscribe(8)
		go func() {
			for event := range events {
				event := event
				switch event.Type {
				case core.EventStart:
					fyne.Do(func() {
						trayManager.SetStatus("solving " + event.Session.Cube)
					})
				case core.EventStop:
					fyne.Do(func() {
						trayManager.SetStatus("last solve " + stopwatchui.FormatElapsed(event.Elapsed))
					})
				}
			}
		}()
	} else {
		logger.Info("system tray unsupported on this platform")
	}

	if settings.RecorderConfig().Complete() {
		endpoint := settings.InfluxURL
		go func() {
			if err := sink.Ping(context.Background()); err != nil {
				logger.Warn("influxdb unreachable", "error", err)
				return
			}
			logger.Info("influxdb reachable", "url", endpoint)
		}()
	} else {
		logger.Info("no database configured; solves stay on screen only")
	}

	mainWindow.ShowAndRun()
	logger.Info("shutting down")
}

// buildRecorder returns an InfluxDB recorder when the connection settings
// are complete, nil otherwise.
func buildRecorder(settings preferences.Settings) recorder.Recorder {
	config := settings.RecorderConfig()
	if !config.Complete() {
		return nil
	}
	return recorder.NewInflux(config)
}
