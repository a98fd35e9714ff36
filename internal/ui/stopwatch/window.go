// Package stopwatch implements the main widget window: a fixed 300x300
// face with the live readout, the cube selector and a status line. The
// space key toggles the core machine; every completed session is handed to
// the recorder off the UI thread.
package stopwatch

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	core "cubetimer/internal/core/stopwatch"
	"cubetimer/internal/recorder"
	"cubetimer/internal/telemetry"
	"cubetimer/internal/ui/preferences"
	"cubetimer/internal/ui/sound"
	"cubetimer/resources"
)

// Palette from the classic cube-timer face.
var (
	colorRed       = color.NRGBA{R: 0xd5, G: 0x5f, B: 0x5e, A: 0xff}
	colorBlue      = color.NRGBA{R: 0x15, G: 0x24, B: 0x37, A: 0xff}
	colorYellowish = color.NRGBA{R: 0xf9, G: 0xea, B: 0xcf, A: 0xff}
	colorPanel     = color.NRGBA{R: 0xf9, G: 0xea, B: 0xcf, A: 0xe6}
)

// Deps collects what the widget needs to time, report and persist solves.
type Deps struct {
	Watch       *core.Stopwatch
	Recorder    recorder.Recorder
	Sound       *sound.Player
	Logger      *slog.Logger
	Tracer      trace.Tracer
	Instruments telemetry.Instruments
}

// Window is the main stopwatch widget.
type Window struct {
	window     fyne.Window
	deps       Deps
	readout    *canvas.Text
	status     *canvas.Text
	cubeSelect *widget.Select
	gate       toggleGate
}

// New builds the widget window and starts consuming stopwatch events.
// Closing this window quits the application.
func New(app fyne.App, deps Deps, settings preferences.Settings) *Window {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Tracer == nil {
		deps.Tracer = otel.Tracer("cubetimer")
	}
	if deps.Recorder == nil {
		deps.Recorder = recorder.Nop{}
	}

	window := app.NewWindow("CubeTimer")
	if app.Icon() != nil {
		window.SetIcon(app.Icon())
	}
	window.SetPadded(false)

	background := canvas.NewImageFromResource(resources.MustImage("cube.png"))
	background.FillMode = canvas.ImageFillStretch

	panel := canvas.NewRectangle(colorPanel)
	panel.CornerRadius = 12

	readout := canvas.NewText(FormatElapsed(0), colorBlue)
	readout.TextSize = 36
	readout.TextStyle = fyne.TextStyle{Bold: true, Monospace: true}
	readout.Alignment = fyne.TextAlignCenter

	status := canvas.NewText("ready", colorBlue)
	status.TextSize = 12
	status.Alignment = fyne.TextAlignCenter

	hint := canvas.NewText("press space to start and stop", colorYellowish)
	hint.TextSize = 12
	hint.Alignment = fyne.TextAlignCenter

	cubeSelect := widget.NewSelect(settings.Cubes(), nil)

	content := container.New(&faceLayout{}, panel, readout, status, cubeSelect, hint)
	window.SetContent(container.NewMax(background, content))
	window.Resize(fyne.NewSize(300, 300))
	window.SetFixedSize(true)
	window.CenterOnScreen()
	window.SetMaster()

	timer := &Window{
		window:     window,
		deps:       deps,
		readout:    readout,
		status:     status,
		cubeSelect: cubeSelect,
		gate:       toggleGate{window: settings.ToggleDebounce},
	}

	if sink, ok := deps.Recorder.(interface{ Configured() bool }); ok && !sink.Configured() {
		timer.setStatus("timing only: no database configured", colorRed)
	}

	cubeSelect.OnChanged = timer.cubeChanged
	selected := settings.Cube
	if !settings.HasCube(selected) {
		selected = settings.Cubes()[0]
	}
	cubeSelect.SetSelected(selected)

	window.Canvas().SetOnTypedKey(timer.typedKey)
	go timer.consume(deps.Watch.Subscribe(16))

	return timer
}

// ShowAndRun displays the widget and enters the event loop. It returns
// when the window is closed.
func (timer *Window) ShowAndRun() {
	timer.window.ShowAndRun()
}

// Show brings the widget window to the front.
func (timer *Window) Show() {
	timer.window.Show()
	timer.window.RequestFocus()
}

// ApplySettings picks up preference changes that affect the widget: the
// debounce window and the cube list. The display tick interval is fixed at
// machine construction and applies on the next launch.
func (timer *Window) ApplySettings(settings preferences.Settings) {
	timer.gate.window = settings.ToggleDebounce

	options := settings.Cubes()
	timer.cubeSelect.Options = options
	selected := timer.cubeSelect.Selected
	if !settings.HasCube(selected) {
		selected = settings.Cube
		if !settings.HasCube(selected) {
			selected = options[0]
		}
	}
	timer.cubeSelect.SetSelected(selected)
	timer.cubeSelect.Refresh()
	timer.deps.Watch.SetCube(selected)
}

func (timer *Window) typedKey(event *fyne.KeyEvent) {
	if event.Name != fyne.KeySpace {
		return
	}
	if !timer.gate.allow(time.Now()) {
		return
	}

	done, stopped := timer.deps.Watch.Toggle()
	if stopped {
		go timer.recordSession(done)
	}
}

func (timer *Window) cubeChanged(cube string) {
	timer.deps.Watch.SetCube(cube)
	// Give the key focus back so the next space press reaches the widget.
	timer.window.Canvas().Unfocus()
}

func (timer *Window) consume(events <-chan core.Event) {
	for event := range events {
		event := event
		fyne.Do(func() {
			timer.apply(event)
		})
	}
}

func (timer *Window) apply(event core.Event) {
	switch event.Type {
	case core.EventStart:
		timer.readout.Text = FormatElapsed(0)
		timer.readout.Refresh()
		timer.setStatus("solving "+event.Session.Cube, colorBlue)
		timer.cubeSelect.Disable()
		timer.deps.Sound.PlayStart()
		timer.deps.Logger.Info("solve started", "session", event.Session.ID, "cube", event.Session.Cube)
	case core.EventTick:
		timer.readout.Text = FormatElapsed(event.Elapsed)
		timer.readout.Refresh()
	case core.EventStop:
		timer.readout.Text = FormatElapsed(event.Elapsed)
		timer.readout.Refresh()
		timer.cubeSelect.Enable()
		timer.deps.Sound.PlayStop()
		timer.deps.Logger.Info("solve stopped", "session", event.Session.ID, "elapsed", event.Elapsed)
	}
}

// recordSession hands one completed session to the recorder. It runs off
// the UI thread; a failed write only changes the status line, the next
// session is unaffected.
func (timer *Window) recordSession(done core.Session) {
	measurement := done.Measurement()
	ctx, span := timer.deps.Tracer.Start(context.Background(), "influx_write")
	defer span.End()

	err := timer.deps.Recorder.Record(ctx, measurement)
	timer.deps.Instruments.RecordSolve(ctx, measurement.Elapsed)

	switch {
	case errors.Is(err, recorder.ErrNotConfigured):
		timer.deps.Logger.Info("solve not persisted", "session", done.ID, "elapsed_s", measurement.Elapsed)
		timer.showStatus("not recorded: no database configured", colorRed)
	case err != nil:
		span.RecordError(err)
		timer.deps.Instruments.RecordWriteFailure(ctx)
		timer.deps.Logger.Error("record solve", "session", done.ID, "error", err)
		timer.showStatus("recording failed, see log", colorRed)
	default:
		timer.deps.Logger.Info("solve recorded", "session", done.ID, "cube", measurement.Cube, "elapsed_s", measurement.Elapsed)
		timer.showStatus(fmt.Sprintf("recorded %.2f s (%s)", measurement.Elapsed, measurement.Cube), colorBlue)
	}
}

// showStatus updates the status line from outside the UI thread.
func (timer *Window) showStatus(text string, textColor color.Color) {
	fyne.Do(func() {
		timer.setStatus(text, textColor)
	})
}

func (timer *Window) setStatus(text string, textColor color.Color) {
	timer.status.Text = text
	timer.status.Color = textColor
	timer.status.Refresh()
}

// toggleGate drops key-repeat echoes: while a key is held, the desktop
// driver redelivers the press well inside a human double-tap interval.
type toggleGate struct {
	// window is the suppression interval; zero or negative disables the
	// gate entirely.
	window time.Duration
	last   time.Time
}

func (gate *toggleGate) allow(at time.Time) bool {
	if gate.window <= 0 {
		gate.last = at
		return true
	}
	if !gate.last.IsZero() && at.Sub(gate.last) < gate.window {
		return false
	}
	gate.last = at
	return true
}

// faceLayout places the five face elements on the cube background: the
// selector top left, the readout and status on the central panel, the hint
// along the bottom edge. Objects arrive as panel, readout, status, select,
// hint.
type faceLayout struct{}

func (layout *faceLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	if len(objects) < 5 {
		return
	}
	panel := objects[0]
	readout := objects[1]
	status := objects[2]
	selectBox := objects[3]
	hint := objects[4]

	selectSize := selectBox.MinSize()
	selectBox.Move(fyne.NewPos(8, 8))
	selectBox.Resize(selectSize)

	readoutSize := readout.MinSize()
	readoutY := size.Height * 0.34
	readout.Move(fyne.NewPos(0, readoutY))
	readout.Resize(fyne.NewSize(size.Width, readoutSize.Height))

	statusSize := status.MinSize()
	statusY := readoutY + readoutSize.Height + 8
	status.Move(fyne.NewPos(0, statusY))
	status.Resize(fyne.NewSize(size.Width, statusSize.Height))

	margin := size.Width * 0.06
	panel.Move(fyne.NewPos(margin, readoutY-10))
	panel.Resize(fyne.NewSize(size.Width-margin*2, statusY+statusSize.Height+10-(readoutY-10)))

	hintSize := hint.MinSize()
	hint.Move(fyne.NewPos(0, size.Height-hintSize.Height-10))
	hint.Resize(fyne.NewSize(size.Width, hintSize.Height))
}

func (layout *faceLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	if len(objects) < 5 {
		return fyne.NewSize(0, 0)
	}

	width := float32(0)
	for _, object := range objects {
		if objectWidth := object.MinSize().Width; objectWidth > width {
			width = objectWidth
		}
	}
	height := objects[1].MinSize().Height + objects[2].MinSize().Height +
		objects[3].MinSize().Height + objects[4].MinSize().Height + 64
	return fyne.NewSize(width+24, height)
}
