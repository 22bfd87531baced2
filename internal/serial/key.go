package serial

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"go.bug.st/serial"
)

var (
	// ErrUnknownLine indicates an unrecognized modem status line name
	ErrUnknownLine = errors.New("unknown modem status line")
	// ErrStatusRequired indicates a modem status source is required
	ErrStatusRequired = errors.New("modem status source is required")
)

// Line is a modem status input a straight key can be wired to.
type Line uint8

const (
	CTS Line = iota
	DSR
	DCD
	RI
)

// ParseLine maps a config value such as "cts" onto a Line.
func ParseLine(name string) (Line, error) {
	switch strings.ToLower(name) {
	case "cts":
		return CTS, nil
	case "dsr":
		return DSR, nil
	case "dcd":
		return DCD, nil
	case "ri":
		return RI, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLine, name)
}

func (l Line) String() string {
	switch l {
	case CTS:
		return "cts"
	case DSR:
		return "dsr"
	case DCD:
		return "dcd"
	case RI:
		return "ri"
	}
	return "unknown"
}

// StatusReader reads the modem status bits; serial.Port satisfies it.
type StatusReader interface {
	GetModemStatusBits() (*serial.ModemStatusBits, error)
}

// ModemKey reports the key as pressed while a status line is asserted.
type ModemKey struct {
	status StatusReader
	line   Line
	invert bool
	log    zerolog.Logger

	failing bool
}

// NewModemKey creates a key sensor on line. invert flips the sense for
// keys wired to pull the line low.
func NewModemKey(status StatusReader, line Line, invert bool, log zerolog.Logger) (*ModemKey, error) {
	if status == nil {
		return nil, ErrStatusRequired
	}
	return &ModemKey{status: status, line: line, invert: invert, log: log}, nil
}

// Pressed samples the status line. A read failure counts as released and is
// logged once until reads succeed again.
func (k *ModemKey) Pressed() bool {
	bits, err := k.status.GetModemStatusBits()
	if err != nil {
		if !k.failing {
			k.log.Warn().Err(err).Stringer("line", k.line).Msg("read modem status")
			k.failing = true
		}
		return false
	}
	k.failing = false
	return lineAsserted(bits, k.line) != k.invert
}

func lineAsserted(bits *serial.ModemStatusBits, line Line) bool {
	switch line {
	case CTS:
		return bits.CTS
	case DSR:
		return bits.DSR
	case DCD:
		return bits.DCD
	case RI:
		return bits.RI
	}
	return false
}
