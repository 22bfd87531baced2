package audio

import (
	"encoding/binary"
	"errors"
	"math"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
)

var (
	// ErrInvalidFrequency indicates the sidetone pitch is out of range
	ErrInvalidFrequency = errors.New("sidetone frequency must be positive and below the Nyquist frequency")
	// ErrInvalidVolume indicates the sidetone volume must be within 0..1
	ErrInvalidVolume = errors.New("sidetone volume must be between 0.0 and 1.0")
)

// rampSeconds shapes each keying edge to avoid clicks.
const rampSeconds = 0.005

// SidetoneConfig holds output device configuration.
type SidetoneConfig struct {
	DeviceIndex int // -1 for default device
	SampleRate  uint32
	Frequency   float64
	Volume      float64
}

// DefaultSidetoneConfig returns an 800 Hz tone at half volume.
func DefaultSidetoneConfig() SidetoneConfig {
	return SidetoneConfig{
		DeviceIndex: -1,
		SampleRate:  48000,
		Frequency:   800,
		Volume:      0.5,
	}
}

// oscillator is a keyed sine generator with a linear attack and release.
type oscillator struct {
	keyed atomic.Bool

	phase  float64
	step   float64
	volume float64
	level  float64
	ramp   float64
}

func newOscillator(cfg SidetoneConfig) (*oscillator, error) {
	rate := float64(cfg.SampleRate)
	if cfg.Frequency <= 0 || rate <= 0 || cfg.Frequency >= rate/2 {
		return nil, ErrInvalidFrequency
	}
	if cfg.Volume < 0 || cfg.Volume > 1 {
		return nil, ErrInvalidVolume
	}
	return &oscillator{
		step:   2 * math.Pi * cfg.Frequency / rate,
		volume: cfg.Volume,
		ramp:   1 / (rampSeconds * rate),
	}, nil
}

// fill writes one mono float32 sample per 4 bytes of out.
func (o *oscillator) fill(out []byte) {
	target := 0.0
	if o.keyed.Load() {
		target = 1
	}

	for i := 0; i+4 <= len(out); i += 4 {
		switch {
		case o.level < target:
			o.level = min(o.level+o.ramp, target)
		case o.level > target:
			o.level = max(o.level-o.ramp, target)
		}

		var v float32
		if o.level > 0 {
			v = float32(math.Sin(o.phase) * o.level * o.volume)
		}
		binary.LittleEndian.PutUint32(out[i:], math.Float32bits(v))

		o.phase += o.step
		if o.phase >= 2*math.Pi {
			o.phase -= 2 * math.Pi
		}
	}
}

// Sidetone plays a keyed tone on an output device.
type Sidetone struct {
	osc *oscillator

	mu     sync.Mutex
	device *malgo.Device
}

// NewSidetone opens and starts the output device. The tone is silent until On.
func NewSidetone(engine *Engine, cfg SidetoneConfig) (*Sidetone, error) {
	if engine == nil {
		return nil, ErrNotInitialized
	}
	osc, err := newOscillator(cfg)
	if err != nil {
		return nil, err
	}

	id, err := engine.deviceID(malgo.Playback, cfg.DeviceIndex)
	if err != nil {
		return nil, err
	}

	dc := malgo.DefaultDeviceConfig(malgo.Playback)
	dc.SampleRate = cfg.SampleRate
	dc.Playback.Format = malgo.FormatF32
	dc.Playback.Channels = 1
	if id != nil {
		dc.Playback.DeviceID = id.Pointer()
	}

	onFrames := func(output, _ []byte, _ uint32) {
		osc.fill(output)
	}

	dev, err := engine.initDevice(dc, malgo.DeviceCallbacks{Data: onFrames})
	if err != nil {
		return nil, err
	}
	if err := dev.Start(); err != nil {
		dev.Uninit()
		return nil, err
	}
	return &Sidetone{osc: osc, device: dev}, nil
}

// On keys the tone.
func (s *Sidetone) On() { s.osc.keyed.Store(true) }

// Off releases the tone.
func (s *Sidetone) Off() { s.osc.keyed.Store(false) }

// Close stops the output device.
func (s *Sidetone) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.device == nil {
		return ErrNotRunning
	}
	s.osc.keyed.Store(false)
	_ = s.device.Stop()
	s.device.Uninit()
	s.device = nil
	return nil
}
