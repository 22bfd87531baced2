// Package serial connects the keyer to a UART: a non-blocking line transport
// and a key sensor read from a modem status line.
package serial

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.bug.st/serial"

	"github.com/ColonelBlimp/cwkeyer/internal/recovery"
)

var (
	// ErrNoDevice indicates a serial device path is required
	ErrNoDevice = errors.New("serial device is required")
	// ErrInvalidBaud indicates the baud rate must be positive
	ErrInvalidBaud = errors.New("baud rate must be positive")
	// ErrAlreadyRunning indicates the reader was already started
	ErrAlreadyRunning = errors.New("serial reader already running")
)

// Reader tuning.
const (
	// DefaultReadTimeout bounds each blocking read so the reader can observe cancellation.
	DefaultReadTimeout = 50 * time.Millisecond
	// chunkQueue is how many received chunks may wait for the poll loop.
	chunkQueue = 64
	chunkSize  = 128
)

// Config holds serial port configuration.
type Config struct {
	Device      string
	Baud        int
	ReadTimeout time.Duration
}

// DefaultConfig returns 9600 8N1 settings for device.
func DefaultConfig(device string) Config {
	return Config{
		Device:      device,
		Baud:        9600,
		ReadTimeout: DefaultReadTimeout,
	}
}

// Port is a serial transport whose reads never block the caller: a background
// goroutine moves received bytes into a queue that TryRead drains.
type Port struct {
	conn io.ReadWriteCloser
	raw  serial.Port // nil when wrapping a plain stream
	log  zerolog.Logger

	chunks  chan []byte
	pending []byte

	mu      sync.Mutex
	running bool
}

// Open opens the device described by cfg.
func Open(cfg Config, log zerolog.Logger) (*Port, error) {
	if cfg.Device == "" {
		return nil, ErrNoDevice
	}
	if cfg.Baud <= 0 {
		return nil, ErrInvalidBaud
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}

	mode := &serial.Mode{
		BaudRate: cfg.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	raw, err := serial.Open(cfg.Device, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", cfg.Device, err)
	}
	if err := raw.SetReadTimeout(cfg.ReadTimeout); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("set read timeout: %w", err)
	}

	p := newPort(raw, log)
	p.raw = raw
	return p, nil
}

func newPort(conn io.ReadWriteCloser, log zerolog.Logger) *Port {
	return &Port{
		conn:   conn,
		log:    log,
		chunks: make(chan []byte, chunkQueue),
	}
}

// Start launches the reader goroutine; it exits when ctx is done or the port fails.
func (p *Port) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return ErrAlreadyRunning
	}
	p.running = true

	go func() {
		defer recovery.HandlePanicFunc(func() { _ = p.conn.Close() })
		p.readLoop(ctx)
	}()
	return nil
}

func (p *Port) readLoop(ctx context.Context) {
	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		buf := make([]byte, chunkSize)
		n, err := p.conn.Read(buf)
		if err != nil {
			if ctx.Err() == nil {
				p.log.Error().Err(err).Msg("serial read")
			}
			return
		}
		if n == 0 {
			// read timeout
			continue
		}

		select {
		case p.chunks <- buf[:n]:
		default:
			p.log.Warn().Int("bytes", n).Msg("serial input dropped, poll loop too slow")
		}
	}
}

// TryRead copies already-received bytes into b without blocking.
func (p *Port) TryRead(b []byte) int {
	if len(p.pending) == 0 {
		select {
		case chunk := <-p.chunks:
			p.pending = chunk
		default:
			return 0
		}
	}
	n := copy(b, p.pending)
	p.pending = p.pending[n:]
	return n
}

// Write sends b to the device.
func (p *Port) Write(b []byte) (int, error) {
	return p.conn.Write(b)
}

// Modem returns the underlying serial port for status-line keying, or nil.
func (p *Port) Modem() serial.Port {
	return p.raw
}

// Close closes the device; the reader exits on its next read.
func (p *Port) Close() error {
	return p.conn.Close()
}

// ListPorts returns the serial devices present on this host.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("enumerate serial ports: %w", err)
	}
	return ports, nil
}
