package stopwatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"

	"cubetimer/internal/core/model"
	core "cubetimer/internal/core/stopwatch"
	"cubetimer/internal/recorder"
	"cubetimer/internal/ui/preferences"
)

type fakeRecorder struct {
	mu       sync.Mutex
	recorded []model.Measurement
	err      error
}

func (fake *fakeRecorder) Record(_ context.Context, measurement model.Measurement) error {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if fake.err != nil {
		return fake.err
	}
	fake.recorded = append(fake.recorded, measurement)
	return nil
}

func (fake *fakeRecorder) Ping(context.Context) error { return nil }

func (fake *fakeRecorder) Close() {}

func (fake *fakeRecorder) count() int {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	return len(fake.recorded)
}

func (fake *fakeRecorder) first() model.Measurement {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	return fake.recorded[0]
}

func newTestWindow(t *testing.T, sink recorder.Recorder, settings preferences.Settings) (*Window, *core.Stopwatch) {
	t.Helper()
	app := test.NewApp()
	watch := core.New(settings.Cube, core.Config{TickInterval: 10 * time.Millisecond})
	t.Cleanup(watch.Close)

	timer := New(app, Deps{
		Watch:    watch,
		Recorder: sink,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, settings)
	return timer, watch
}

func waitFor(t *testing.T, timeout time.Duration, check func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if check() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func press(timer *Window, key fyne.KeyName) {
	timer.typedKey(&fyne.KeyEvent{Name: key})
}

func TestSpaceTogglesAndRecords(t *testing.T) {
	fake := &fakeRecorder{}
	settings := preferences.DefaultSettings()
	settings.ToggleDebounce = 0
	timer, watch := newTestWindow(t, fake, settings)

	press(timer, fyne.KeySpace)
	if state := watch.State(); state != core.StateRunning {
		t.Fatalf("after first press state = %q, want %q", state, core.StateRunning)
	}

	time.Sleep(30 * time.Millisecond)
	press(timer, fyne.KeySpace)
	if state := watch.State(); state != core.StateIdle {
		t.Fatalf("after second press state = %q, want %q", state, core.StateIdle)
	}

	waitFor(t, 2*time.Second, func() bool { return fake.count() == 1 })

	measurement := fake.first()
	if measurement.Cube != settings.Cube {
		t.Errorf("recorded cube = %q, want %q", measurement.Cube, settings.Cube)
	}
	if measurement.Elapsed <= 0 {
		t.Errorf("recorded elapsed = %v, want > 0", measurement.Elapsed)
	}
	if measurement.At.IsZero() {
		t.Error("recorded timestamp is zero")
	}
}

func TestOtherKeysAreIgnored(t *testing.T) {
	fake := &fakeRecorder{}
	settings := preferences.DefaultSettings()
	settings.ToggleDebounce = 0
	timer, watch := newTestWindow(t, fake, settings)

	for _, key := range []fyne.KeyName{fyne.KeyA, fyne.KeyReturn, fyne.KeyEscape} {
		press(timer, key)
	}

	if state := watch.State(); state != core.StateIdle {
		t.Fatalf("state = %q, want %q", state, core.StateIdle)
	}
	if fake.count() != 0 {
		t.Fatalf("recorded %d measurements, want 0", fake.count())
	}
}

func TestFailingRecorderKeepsTiming(t *testing.T) {
	fake := &fakeRecorder{err: errors.New("connect: refused")}
	settings := preferences.DefaultSettings()
	settings.ToggleDebounce = 0
	timer, watch := newTestWindow(t, fake, settings)

	press(timer, fyne.KeySpace)
	press(timer, fyne.KeySpace)

	// The failed write must not wedge the machine.
	press(timer, fyne.KeySpace)
	if state := watch.State(); state != core.StateRunning {
		t.Fatalf("after failed write state = %q, want %q", state, core.StateRunning)
	}
	press(timer, fyne.KeySpace)

	if fake.count() != 0 {
		t.Fatalf("recorded %d measurements, want 0", fake.count())
	}
}

func TestDebounceSwallowsRapidRepeat(t *testing.T) {
	fake := &fakeRecorder{}
	settings := preferences.DefaultSettings()
	settings.ToggleDebounce = time.Minute
	timer, watch := newTestWindow(t, fake, settings)

	press(timer, fyne.KeySpace)
	press(timer, fyne.KeySpace)

	// The echo press falls inside the window, so the run is still going.
	if state := watch.State(); state != core.StateRunning {
		t.Fatalf("state = %q, want %q", state, core.StateRunning)
	}
}

func TestApplySettingsRebuildsCubeChoices(t *testing.T) {
	fake := &fakeRecorder{}
	settings := preferences.DefaultSettings()
	settings.ToggleDebounce = 0
	timer, watch := newTestWindow(t, fake, settings)

	changed := settings
	changed.CubeOptions = "3x3, 4x4, pyraminx"
	changed.Cube = "4x4"
	timer.ApplySettings(changed)

	options := timer.cubeSelect.Options
	if len(options) != 3 || options[0] != "3x3" || options[2] != "pyraminx" {
		t.Fatalf("select options = %v, want [3x3 4x4 pyraminx]", options)
	}
	if timer.cubeSelect.Selected != "4x4" {
		t.Fatalf("selected cube = %q, want %q", timer.cubeSelect.Selected, "4x4")
	}
	if cube := watch.Cube(); cube != "4x4" {
		t.Fatalf("stopwatch cube = %q, want %q", cube, "4x4")
	}
}

func TestUnconfiguredRecorderAnnouncesItself(t *testing.T) {
	settings := preferences.DefaultSettings()
	settings.ToggleDebounce = 0
	timer, _ := newTestWindow(t, recorder.NewSwitch(nil), settings)

	if timer.status.Text != "timing only: no database configured" {
		t.Fatalf("status = %q, want the unconfigured notice", timer.status.Text)
	}
}

func TestToggleGate(t *testing.T) {
	base := time.Now()

	gate := toggleGate{window: 250 * time.Millisecond}
	if !gate.allow(base) {
		t.Fatal("first press should pass")
	}
	if gate.allow(base.Add(10 * time.Millisecond)) {
		t.Fatal("press inside the window should be dropped")
	}
	if !gate.allow(base.Add(300 * time.Millisecond)) {
		t.Fatal("press outside the window should pass")
	}

	open := toggleGate{}
	for i := 0; i < 3; i++ {
		if !open.allow(base.Add(time.Duration(i) * time.Millisecond)) {
			t.Fatalf("press %d through a disabled gate should pass", i)
		}
	}
}
