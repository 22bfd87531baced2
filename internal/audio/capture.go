package audio

import (
	"context"
	"encoding/binary"
	"math"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/ColonelBlimp/cwkeyer/internal/recovery"
)

// CaptureConfig holds input device configuration.
type CaptureConfig struct {
	DeviceIndex int    // -1 for default device
	SampleRate  uint32 // e.g., 48000
	BufferSize  uint32 // frames per callback
}

// DefaultCaptureConfig returns mono 48 kHz capture on the default device.
func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{
		DeviceIndex: -1,
		SampleRate:  48000,
		BufferSize:  512,
	}
}

// SampleSink receives mono samples normalized to -1.0..1.0 on the audio thread.
// It must be non-blocking and fast.
type SampleSink func(samples []float32)

// Capture streams an input device into a SampleSink.
type Capture struct {
	engine *Engine
	config CaptureConfig
	sink   SampleSink

	mu      sync.Mutex
	device  *malgo.Device
	running bool
}

// NewCapture prepares capture on engine; nothing is opened until Start.
func NewCapture(engine *Engine, cfg CaptureConfig, sink SampleSink) *Capture {
	return &Capture{engine: engine, config: cfg, sink: sink}
}

// Start opens the device and begins delivering samples. The device stops
// when ctx is done.
func (c *Capture) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return ErrAlreadyRunning
	}
	if c.engine == nil {
		return ErrNotInitialized
	}

	id, err := c.engine.deviceID(malgo.Capture, c.config.DeviceIndex)
	if err != nil {
		return err
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.SampleRate = c.config.SampleRate
	cfg.PeriodSizeInFrames = c.config.BufferSize
	cfg.Capture.Format = malgo.FormatF32
	cfg.Capture.Channels = 1
	if id != nil {
		cfg.Capture.DeviceID = id.Pointer()
	}

	onFrames := func(_, input []byte, _ uint32) {
		if len(input) == 0 || c.sink == nil {
			return
		}
		c.sink(bytesToFloat32(input))
	}

	dev, err := c.engine.initDevice(cfg, malgo.DeviceCallbacks{Data: onFrames})
	if err != nil {
		return err
	}
	if err := dev.Start(); err != nil {
		dev.Uninit()
		return err
	}
	c.device = dev
	c.running = true

	go func() {
		defer recovery.HandlePanic()
		<-ctx.Done()
		_ = c.Stop()
	}()
	return nil
}

// Stop halts the device.
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return ErrNotRunning
	}
	_ = c.device.Stop()
	c.device.Uninit()
	c.device = nil
	c.running = false
	return nil
}

// IsRunning reports whether the device is streaming.
func (c *Capture) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// bytesToFloat32 decodes little-endian float32 frames; trailing partial
// samples are dropped.
func bytesToFloat32(data []byte) []float32 {
	samples := make([]float32, len(data)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return samples
}
