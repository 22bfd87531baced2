// Package dsp turns a keyed audio tone into key up/down state.
package dsp

import (
	"errors"
	"math"
)

var (
	// ErrInvalidBlockSize indicates block size must be positive
	ErrInvalidBlockSize = errors.New("block size must be positive")
	// ErrInvalidSampleRate indicates sample rate must be positive
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	// ErrInvalidFrequency indicates frequency must be positive and below Nyquist
	ErrInvalidFrequency = errors.New("tone frequency must be positive and below the Nyquist frequency")
)

// Filter measures the energy of one frequency over fixed-size sample blocks.
type Filter struct {
	blockSize int
	coeff     float64
	scale     float64
}

// NewFilter tunes a single-bin Goertzel filter to freq.
func NewFilter(freq, sampleRate float64, blockSize int) (*Filter, error) {
	if blockSize <= 0 {
		return nil, ErrInvalidBlockSize
	}
	if sampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	if freq <= 0 || freq >= sampleRate/2 {
		return nil, ErrInvalidFrequency
	}

	omega := 2 * math.Pi * freq / sampleRate
	return &Filter{
		blockSize: blockSize,
		coeff:     2 * math.Cos(omega),
		scale:     2 / float64(blockSize),
	}, nil
}

// BlockSize returns the number of samples consumed per measurement.
func (f *Filter) BlockSize() int {
	return f.blockSize
}

// Magnitude returns the normalized tone amplitude in block, which must hold
// at least BlockSize samples. A full-scale sine at the tuned frequency reads ~1.0.
func (f *Filter) Magnitude(block []float32) float64 {
	var s1, s2 float64
	for _, x := range block[:f.blockSize] {
		s0 := float64(x) + f.coeff*s1 - s2
		s2, s1 = s1, s0
	}

	power := s1*s1 + s2*s2 - f.coeff*s1*s2
	if power < 0 {
		power = 0
	}
	return math.Sqrt(power) * f.scale
}
