// Package sound plays the start and stop cues through the system speaker.
package sound

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

// cueGain feeds effects.Volume; zero keeps the cue at its recorded level.
const cueGain = 0.0

var speakerOnce sync.Once

// Player holds the decoded cues. Playback is asynchronous and never blocks
// the UI thread. A nil Player is silent.
type Player struct {
	mu       sync.Mutex
	enabled  bool
	startCue *beep.Buffer
	stopCue  *beep.Buffer
}

// New decodes the two WAV cues and initializes the speaker with the start
// cue's sample rate. It fails when no audio device is available; the widget
// then simply runs without cues.
func New(startWAV, stopWAV []byte) (*Player, error) {
	startCue, format, err := decodeCue(startWAV)
	if err != nil {
		return nil, fmt.Errorf("decode start cue: %w", err)
	}
	stopCue, _, err := decodeCue(stopWAV)
	if err != nil {
		return nil, fmt.Errorf("decode stop cue: %w", err)
	}

	var initErr error
	speakerOnce.Do(func() {
		initErr = speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10))
	})
	if initErr != nil {
		return nil, fmt.Errorf("init speaker: %w", initErr)
	}

	return &Player{
		enabled:  true,
		startCue: startCue,
		stopCue:  stopCue,
	}, nil
}

// SetEnabled switches the cues on or off.
func (player *Player) SetEnabled(enabled bool) {
	if player == nil {
		return
	}
	player.mu.Lock()
	defer player.mu.Unlock()
	player.enabled = enabled
}

// Enabled reports whether cues are audible.
func (player *Player) Enabled() bool {
	if player == nil {
		return false
	}
	player.mu.Lock()
	defer player.mu.Unlock()
	return player.enabled
}

// PlayStart plays the cue for a session start.
func (player *Player) PlayStart() {
	if player == nil {
		return
	}
	player.play(player.startCue)
}

// PlayStop plays the cue for a completed session.
func (player *Player) PlayStop() {
	if player == nil {
		return
	}
	player.play(player.stopCue)
}

func (player *Player) play(cue *beep.Buffer) {
	player.mu.Lock()
	enabled := player.enabled
	player.mu.Unlock()
	if !enabled || cue == nil {
		return
	}

	speaker.Play(&effects.Volume{
		Streamer: cue.Streamer(0, cue.Len()),
		Base:     2,
		Volume:   cueGain,
		Silent:   false,
	})
}

func decodeCue(data []byte) (*beep.Buffer, beep.Format, error) {
	streamer, format, err := wav.Decode(io.NopCloser(bytes.NewReader(data)))
	if err != nil {
		return nil, beep.Format{}, err
	}
	defer streamer.Close()

	cue := beep.NewBuffer(format)
	cue.Append(streamer)
	return cue, format, nil
}
