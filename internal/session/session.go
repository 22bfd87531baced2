// Package session runs the keyer poll loop: it owns the symbol buffer, the
// classifier and the remote-mode flag, and bridges them to a serial line.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ColonelBlimp/cwkeyer/internal/morse"
	"github.com/ColonelBlimp/cwkeyer/internal/protocol"
)

var (
	// ErrClockRequired indicates a Clock must be supplied
	ErrClockRequired = errors.New("clock is required")
	// ErrKeyRequired indicates a Key must be supplied
	ErrKeyRequired = errors.New("key sensor is required")
	// ErrPortRequired indicates a Port must be supplied
	ErrPortRequired = errors.New("port is required")
	// ErrInvalidInterval indicates the poll interval must be positive
	ErrInvalidInterval = errors.New("poll interval must be positive")
)

// readChunk is the size of each non-blocking read from the port.
const readChunk = 256

// Clock is a monotonic time source; Now never decreases during a session.
type Clock interface {
	Now() time.Duration
}

// Key samples the key state.
type Key interface {
	Pressed() bool
}

// Port is the serial channel. TryRead must not block: it copies whatever
// inbound bytes are already available into p and returns how many.
type Port interface {
	io.Writer
	TryRead(p []byte) int
}

// Feedback renders live key state and plays back remote characters.
// Play may block for the duration of the item; nothing else may.
type Feedback interface {
	ShowMark(class morse.MarkClass)
	ClearDisplay()
	ToneOn()
	ToneOff()
	Play(item protocol.Item, t morse.Timing)
}

// Recorder receives every transcript line the session emits, without its
// terminator, along with the decoded text. Record must not block.
type Recorder interface {
	Record(line, text string, wpm int)
}

// Config wires a Session.
type Config struct {
	WPM      int
	Policy   morse.CapacityPolicy
	Capacity int
	// Interval is the pause between polls in Run.
	Interval time.Duration

	Clock    Clock
	Key      Key
	Port     Port
	Feedback Feedback // optional
	Recorder Recorder // optional
	Logger   zerolog.Logger
}

// Session is the decoder context. All state is owned by the goroutine calling
// Step or Run; it is not safe for concurrent use.
type Session struct {
	cfg Config
	log zerolog.Logger

	buf   *morse.Buffer
	cls   *morse.Classifier
	lines protocol.LineAssembler
	chunk []byte

	remote       bool
	lastRevision uint64
}

// New validates cfg and creates a session with an empty buffer.
func New(cfg Config) (*Session, error) {
	if cfg.Clock == nil {
		return nil, ErrClockRequired
	}
	if cfg.Key == nil {
		return nil, ErrKeyRequired
	}
	if cfg.Port == nil {
		return nil, ErrPortRequired
	}
	if cfg.Feedback == nil {
		cfg.Feedback = nopFeedback{}
	}

	timing, err := morse.NewTiming(cfg.WPM)
	if err != nil {
		return nil, err
	}
	buf, err := morse.NewBuffer(cfg.Policy, cfg.Capacity)
	if err != nil {
		return nil, err
	}
	cls, err := morse.NewClassifier(timing, buf)
	if err != nil {
		return nil, err
	}

	return &Session{
		cfg:          cfg,
		log:          cfg.Logger,
		buf:          buf,
		cls:          cls,
		chunk:        make([]byte, readChunk),
		lastRevision: buf.Revision(),
	}, nil
}

// Start primes listeners with the blank startup line.
func (s *Session) Start() error {
	if _, err := io.WriteString(s.cfg.Port, protocol.StartupLine()); err != nil {
		return fmt.Errorf("write startup line: %w", err)
	}
	s.log.Info().
		Int("wpm", s.cls.Timing().WPM).
		Str("policy", s.buf.Policy().String()).
		Int("capacity", s.buf.Limit()).
		Msg("session started")
	return nil
}

// Run calls Start and then Step every Interval until ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	if s.cfg.Interval <= 0 {
		return ErrInvalidInterval
	}
	if err := s.Start(); err != nil {
		return err
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	defer s.cfg.Feedback.ToneOff()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("session stopped")
			return nil
		case <-ticker.C:
			s.Step()
		}
	}
}

// Step runs one poll iteration: local keying (unless remote), then inbound
// commands, then the outbound transcript.
func (s *Session) Step() {
	now := s.cfg.Clock.Now()
	if !s.remote {
		s.keyStep(now)
	}
	s.inbound()
	s.outbound()
}

func (s *Session) keyStep(now time.Duration) {
	obs := s.cls.Step(s.cfg.Key.Pressed(), now)
	fb := s.cfg.Feedback

	switch obs.Edge {
	case morse.EdgePressed:
		fb.ToneOn()
	case morse.EdgeReleased:
		fb.ToneOff()
		fb.ClearDisplay()
		if obs.Overtime {
			s.log.Debug().Dur("held", obs.Held).Msg("key held too long")
		}
	}
	if obs.Marking {
		fb.ShowMark(obs.Class)
	}
	for _, sym := range obs.Stored {
		s.log.Debug().Stringer("symbol", sym).Int("len", s.buf.Len()).Msg("symbol stored")
	}
}

func (s *Session) inbound() {
	for {
		n := s.cfg.Port.TryRead(s.chunk)
		if n <= 0 {
			break
		}
		_, _ = s.lines.Write(s.chunk[:n])
	}
	for {
		line, ok := s.lines.Next()
		if !ok {
			return
		}
		s.handle(line)
	}
}

func (s *Session) handle(line string) {
	cmd, err := protocol.ParseCommand(line)
	if err != nil {
		s.log.Debug().Str("line", line).Msg("discarded command")
		return
	}

	if cmd.Remote != s.remote {
		if cmd.Remote && s.cls.CancelMark() {
			s.cfg.Feedback.ToneOff()
			s.cfg.Feedback.ClearDisplay()
		}
		s.remote = cmd.Remote
		s.log.Info().Bool("remote", s.remote).Msg("remote mode changed")
	}

	if cmd.Clear {
		s.buf.Clear()
		s.log.Info().Msg("buffer cleared")
	}

	if cmd.HasMessage && s.remote {
		timing := s.cls.Timing()
		for _, item := range cmd.Playback() {
			s.cfg.Feedback.Play(item, timing)
		}
	}
}

func (s *Session) outbound() {
	rev := s.buf.Revision()
	if rev == s.lastRevision {
		return
	}
	s.lastRevision = rev

	symbols := s.buf.Symbols()
	line := protocol.EncodeTranscript(symbols)
	if _, err := io.WriteString(s.cfg.Port, line); err != nil {
		s.log.Warn().Err(err).Msg("write transcript")
	}
	if s.cfg.Recorder != nil {
		s.cfg.Recorder.Record(strings.TrimSuffix(line, string(protocol.EOL)), morse.Text(symbols), s.cls.Timing().WPM)
	}
}

// SetWPM re-derives every timing threshold.
func (s *Session) SetWPM(wpm int) error {
	t, err := morse.NewTiming(wpm)
	if err != nil {
		return err
	}
	s.cls.SetTiming(t)
	return nil
}

// Remote reports whether remote mode is active.
func (s *Session) Remote() bool {
	return s.remote
}

// Symbols returns a copy of the buffer contents.
func (s *Session) Symbols() []morse.Symbol {
	return s.buf.Symbols()
}

// Marking reports whether a local press is in progress.
func (s *Session) Marking() bool {
	return s.cls.Marking()
}

type nopFeedback struct{}

func (nopFeedback) ShowMark(morse.MarkClass)         {}
func (nopFeedback) ClearDisplay()                    {}
func (nopFeedback) ToneOn()                          {}
func (nopFeedback) ToneOff()                         {}
func (nopFeedback) Play(protocol.Item, morse.Timing) {}
