package dsp

import (
	"errors"
	"sync"
	"sync/atomic"
)

var (
	// ErrInvalidThreshold indicates threshold must be between 0 and 1
	ErrInvalidThreshold = errors.New("threshold must be between 0.0 and 1.0")
	// ErrInvalidHysteresis indicates hysteresis must be non-negative
	ErrInvalidHysteresis = errors.New("hysteresis must be non-negative")
	// ErrFilterRequired indicates a tuned filter is required
	ErrFilterRequired = errors.New("tone filter is required")
)

// AGC tuning.
const (
	agcAttack = 0.1
	agcDecay  = 0.9995
	agcFloor  = 0.001
	// warmupBlocks lets the AGC settle on the input level before keying.
	warmupBlocks = 8
)

// DetectorConfig holds tone detector configuration.
type DetectorConfig struct {
	// Threshold is the normalized level above which the tone counts as keyed.
	Threshold float64
	// Hysteresis is how many consecutive blocks confirm a key change.
	Hysteresis int
	// AGC normalizes the level against a decaying peak.
	AGC bool
}

// ToneKey reports a key as pressed while the tuned tone is present. Samples
// arrive on the audio thread; Pressed is read from the poll loop.
type ToneKey struct {
	cfg    DetectorConfig
	filter *Filter

	mu      sync.Mutex
	pending []float32
	peak    float64
	warmup  int
	state   bool
	streak  int

	pressed atomic.Bool
}

// NewToneKey creates a detector that keys on the frequency filter is tuned to.
func NewToneKey(cfg DetectorConfig, filter *Filter) (*ToneKey, error) {
	if filter == nil {
		return nil, ErrFilterRequired
	}
	if cfg.Threshold < 0 || cfg.Threshold > 1 {
		return nil, ErrInvalidThreshold
	}
	if cfg.Hysteresis < 0 {
		return nil, ErrInvalidHysteresis
	}
	return &ToneKey{
		cfg:     cfg,
		filter:  filter,
		pending: make([]float32, 0, filter.BlockSize()*2),
		peak:    1,
	}, nil
}

// Pressed reports the debounced key state.
func (k *ToneKey) Pressed() bool {
	return k.pressed.Load()
}

// Process feeds normalized samples; it must stay fast enough for the audio callback.
func (k *ToneKey) Process(samples []float32) {
	k.mu.Lock()
	defer k.mu.Unlock()

	n := k.filter.BlockSize()
	k.pending = append(k.pending, samples...)
	for len(k.pending) >= n {
		k.block(k.filter.Magnitude(k.pending))
		k.pending = append(k.pending[:0], k.pending[n:]...)
	}
}

func (k *ToneKey) block(mag float64) {
	if k.cfg.AGC && k.warmup < warmupBlocks {
		if k.warmup == 0 || mag > k.peak {
			k.peak = mag
		}
		k.warmup++
		return
	}

	level := mag
	if k.cfg.AGC {
		level = k.normalize(mag)
	}
	k.debounce(level > k.cfg.Threshold)
}

func (k *ToneKey) normalize(mag float64) float64 {
	if mag > k.peak {
		k.peak += agcAttack * (mag - k.peak)
	} else {
		k.peak *= agcDecay
	}
	if k.peak < agcFloor {
		k.peak = agcFloor
	}
	return min(mag/k.peak, 1)
}

func (k *ToneKey) debounce(present bool) {
	if present == k.state {
		k.streak = 0
		return
	}
	k.streak++
	if k.streak >= k.cfg.Hysteresis {
		k.state = present
		k.streak = 0
		k.pressed.Store(present)
	}
}

// Reset drops buffered samples and releases the key.
func (k *ToneKey) Reset() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pending = k.pending[:0]
	k.peak = 1
	k.warmup = 0
	k.state = false
	k.streak = 0
	k.pressed.Store(false)
}
