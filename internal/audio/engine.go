// Package audio wraps the malgo backend: capture for tone keying and
// playback for the sidetone.
package audio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
)

var (
	ErrNotInitialized = errors.New("audio engine not initialized")
	ErrAlreadyRunning = errors.New("audio device already running")
	ErrNotRunning     = errors.New("audio device not running")
	// ErrDeviceIndex indicates the configured device index does not exist
	ErrDeviceIndex = errors.New("audio device index out of range")
)

// Device describes one audio endpoint.
type Device struct {
	Index     int
	Name      string
	IsDefault bool
}

// Engine owns the backend context shared by capture and playback devices.
type Engine struct {
	mu  sync.RWMutex
	ctx *malgo.AllocatedContext
}

// NewEngine initializes the audio backend.
func NewEngine() (*Engine, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}
	return &Engine{ctx: ctx}, nil
}

// CaptureDevices lists input devices in backend order.
func (e *Engine) CaptureDevices() ([]Device, error) {
	return e.devices(malgo.Capture)
}

// PlaybackDevices lists output devices in backend order.
func (e *Engine) PlaybackDevices() ([]Device, error) {
	return e.devices(malgo.Playback)
}

func (e *Engine) devices(kind malgo.DeviceType) ([]Device, error) {
	infos, err := e.infos(kind)
	if err != nil {
		return nil, err
	}
	out := make([]Device, len(infos))
	for i, info := range infos {
		out[i] = Device{Index: i, Name: info.Name(), IsDefault: info.IsDefault != 0}
	}
	return out, nil
}

func (e *Engine) infos(kind malgo.DeviceType) ([]malgo.DeviceInfo, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.ctx == nil {
		return nil, ErrNotInitialized
	}
	infos, err := e.ctx.Devices(kind)
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}
	return infos, nil
}

// deviceID resolves index to a backend ID; a negative index selects the default.
func (e *Engine) deviceID(kind malgo.DeviceType, index int) (*malgo.DeviceID, error) {
	if index < 0 {
		return nil, nil
	}
	infos, err := e.infos(kind)
	if err != nil {
		return nil, err
	}
	if index >= len(infos) {
		return nil, fmt.Errorf("%w: %d (have %d)", ErrDeviceIndex, index, len(infos))
	}
	return &infos[index].ID, nil
}

func (e *Engine) initDevice(cfg malgo.DeviceConfig, cb malgo.DeviceCallbacks) (*malgo.Device, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.ctx == nil {
		return nil, ErrNotInitialized
	}
	dev, err := malgo.InitDevice(e.ctx.Context, cfg, cb)
	if err != nil {
		return nil, fmt.Errorf("init device: %w", err)
	}
	return dev, nil
}

// Close releases the backend. Devices must be closed first.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ctx == nil {
		return nil
	}
	if err := e.ctx.Uninit(); err != nil {
		return fmt.Errorf("uninit context: %w", err)
	}
	e.ctx.Free()
	e.ctx = nil
	return nil
}
