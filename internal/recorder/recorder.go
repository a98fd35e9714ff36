// Package recorder persists solve measurements to a time-series backend.
package recorder

import (
	"context"
	"errors"
	"sync"

	"cubetimer/internal/core/model"
)

// ErrNotConfigured reports that no time-series endpoint has been set up.
var ErrNotConfigured = errors.New("recorder: endpoint not configured")

// Recorder receives one measurement per completed solve.
type Recorder interface {
	Record(ctx context.Context, measurement model.Measurement) error
	Ping(ctx context.Context) error
	Close()
}

// Nop stands in when no endpoint is configured. Record and Ping report
// ErrNotConfigured so the caller can tell the user; the stopwatch itself
// keeps working offline.
type Nop struct{}

func (Nop) Record(context.Context, model.Measurement) error { return ErrNotConfigured }

func (Nop) Ping(context.Context) error { return ErrNotConfigured }

func (Nop) Close() {}

// Switch is a Recorder whose backend can be swapped at runtime, so saving
// preferences reconfigures persistence without restarting the widget.
// Safe for concurrent use.
type Switch struct {
	mu      sync.RWMutex
	backend Recorder
}

// NewSwitch wraps the given backend. A nil backend means unconfigured.
func NewSwitch(backend Recorder) *Switch {
	if backend == nil {
		backend = Nop{}
	}
	return &Switch{backend: backend}
}

// Set replaces the backend and closes the previous one.
func (sink *Switch) Set(backend Recorder) {
	if backend == nil {
		backend = Nop{}
	}
	sink.mu.Lock()
	previous := sink.backend
	sink.backend = backend
	sink.mu.Unlock()

	if previous != nil {
		previous.Close()
	}
}

// Configured reports whether a real backend is attached.
func (sink *Switch) Configured() bool {
	sink.mu.RLock()
	defer sink.mu.RUnlock()
	_, nop := sink.backend.(Nop)
	return !nop
}

func (sink *Switch) Record(ctx context.Context, measurement model.Measurement) error {
	sink.mu.RLock()
	backend := sink.backend
	sink.mu.RUnlock()
	return backend.Record(ctx, measurement)
}

func (sink *Switch) Ping(ctx context.Context) error {
	sink.mu.RLock()
	backend := sink.backend
	sink.mu.RUnlock()
	return backend.Ping(ctx)
}

func (sink *Switch) Close() {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	sink.backend.Close()
	sink.backend = Nop{}
}
