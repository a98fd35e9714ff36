package preferences

import (
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"cubetimer/internal/core/model"
	"cubetimer/internal/recorder"
)

// Window handles the preferences UI.
type Window struct {
	window         fyne.Window
	settings       Settings
	onSave         func(Settings)
	onCancel       func()
	urlEntry       *widget.Entry
	tokenEntry     *widget.Entry
	orgEntry       *widget.Entry
	bucketEntry    *widget.Entry
	measureEntry   *widget.Entry
	cubesEntry     *widget.Entry
	cubeSelect     *widget.Select
	soundCheck     *widget.Check
	autostartCheck *widget.Check
}

// New creates a preferences window.
func New(app fyne.App, settings Settings, onSave func(Settings)) *Window {
	window := app.NewWindow("CubeTimer Preferences")

	urlEntry := widget.NewEntry()
	urlEntry.SetPlaceHolder("http://localhost:8086")
	tokenEntry := widget.NewPasswordEntry()
	orgEntry := widget.NewEntry()
	bucketEntry := widget.NewEntry()
	measureEntry := widget.NewEntry()
	measureEntry.SetPlaceHolder(recorder.DefaultMeasurement)

	cubesEntry := widget.NewEntry()
	cubesEntry.SetPlaceHolder("speed, classic")
	cubeSelect := widget.NewSelect(settings.Cubes(), nil)

	soundCheck := widget.NewCheck("Play start and stop sounds", nil)
	autostartCheck := widget.NewCheck("Start with the system", nil)

	influxForm := widget.NewForm(
		widget.NewFormItem("URL", urlEntry),
		widget.NewFormItem("Token", tokenEntry),
		widget.NewFormItem("Organization", orgEntry),
		widget.NewFormItem("Bucket", bucketEntry),
		widget.NewFormItem("Measurement", measureEntry),
	)
	cubeForm := widget.NewForm(
		widget.NewFormItem("Cube types", cubesEntry),
		widget.NewFormItem("Default cube", cubeSelect),
	)

	form := container.NewVBox(
		widget.NewLabelWithStyle("InfluxDB", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		influxForm,
		widget.NewLabelWithStyle("Stopwatch", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		cubeForm,
		soundCheck,
		autostartCheck,
	)

	saveButton := widget.NewButton("Save", nil)
	cancelButton := widget.NewButton("Cancel", nil)
	buttons := container.NewHBox(saveButton, layout.NewSpacer(), cancelButton)

	content := container.NewBorder(nil, buttons, nil, nil, form)
	window.SetContent(content)
	window.Resize(fyne.NewSize(420, 460))

	prefs := &Window{
		window:         window,
		settings:       settings,
		onSave:         onSave,
		urlEntry:       urlEntry,
		tokenEntry:     tokenEntry,
		orgEntry:       orgEntry,
		bucketEntry:    bucketEntry,
		measureEntry:   measureEntry,
		cubesEntry:     cubesEntry,
		cubeSelect:     cubeSelect,
		soundCheck:     soundCheck,
		autostartCheck: autostartCheck,
	}
	prefs.fill(settings)

	cubesEntry.OnChanged = prefs.cubesChanged
	saveButton.OnTapped = prefs.handleSave
	cancelButton.OnTapped = func() {
		prefs.fill(prefs.settings)
		window.Hide()
		if prefs.onCancel != nil {
			prefs.onCancel()
		}
	}

	return prefs
}

// Show displays the preferences window.
func (prefs *Window) Show() {
	prefs.window.Show()
	prefs.window.RequestFocus()
}

// UpdateSettings replaces window values.
func (prefs *Window) UpdateSettings(settings Settings) {
	prefs.settings = settings
	prefs.fill(settings)
}

func (prefs *Window) fill(settings Settings) {
	prefs.urlEntry.SetText(settings.InfluxURL)
	prefs.tokenEntry.SetText(settings.InfluxToken)
	prefs.orgEntry.SetText(settings.InfluxOrg)
	prefs.bucketEntry.SetText(settings.InfluxBucket)
	prefs.measureEntry.SetText(settings.InfluxMeasurement)
	prefs.cubesEntry.SetText(settings.CubeOptions)
	prefs.cubeSelect.Options = settings.Cubes()
	selected := settings.Cube
	if !settings.HasCube(selected) {
		selected = settings.Cubes()[0]
	}
	prefs.cubeSelect.SetSelected(selected)
	prefs.soundCheck.SetChecked(settings.SoundEnabled)
	prefs.autostartCheck.SetChecked(settings.AutostartEnabled)
}

// cubesChanged rebuilds the default-cube choices while the list is edited.
func (prefs *Window) cubesChanged(text string) {
	options := model.ParseCubeOptions(text)
	if options == nil {
		options = model.Cubes
	}
	prefs.cubeSelect.Options = options
	repaired := prefs.cubeSelect.Selected
	if !containsCube(options, repaired) {
		repaired = options[0]
	}
	prefs.cubeSelect.SetSelected(repaired)
	prefs.cubeSelect.Refresh()
}

func (prefs *Window) handleSave() {
	settings := prefs.settings

	settings.InfluxURL = strings.TrimSpace(prefs.urlEntry.Text)
	token := strings.TrimSpace(prefs.tokenEntry.Text)
	if token != settings.InfluxToken {
		// An edited token belongs to the settings file again; only an
		// untouched environment token stays out of it.
		settings.InfluxToken = token
		settings.TokenFromEnv = false
	}
	settings.InfluxOrg = strings.TrimSpace(prefs.orgEntry.Text)
	settings.InfluxBucket = strings.TrimSpace(prefs.bucketEntry.Text)
	settings.InfluxMeasurement = strings.TrimSpace(prefs.measureEntry.Text)

	settings.CubeOptions = strings.TrimSpace(prefs.cubesEntry.Text)
	settings.Cube = prefs.cubeSelect.Selected
	if !settings.HasCube(settings.Cube) {
		settings.Cube = settings.Cubes()[0]
	}

	settings.SoundEnabled = prefs.soundCheck.Checked
	settings.AutostartEnabled = prefs.autostartCheck.Checked

	prefs.settings = settings
	if prefs.onSave != nil {
		prefs.onSave(settings)
	}
	prefs.window.Hide()
}

func containsCube(options []string, cube string) bool {
	for _, option := range options {
		if option == cube {
			return true
		}
	}
	return false
}
