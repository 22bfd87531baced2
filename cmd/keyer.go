package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/cwkeyer/internal/audio"
	"github.com/ColonelBlimp/cwkeyer/internal/config"
	"github.com/ColonelBlimp/cwkeyer/internal/dsp"
	"github.com/ColonelBlimp/cwkeyer/internal/feedback"
	"github.com/ColonelBlimp/cwkeyer/internal/history"
	"github.com/ColonelBlimp/cwkeyer/internal/logging"
	"github.com/ColonelBlimp/cwkeyer/internal/morse"
	"github.com/ColonelBlimp/cwkeyer/internal/recovery"
	"github.com/ColonelBlimp/cwkeyer/internal/serial"
	"github.com/ColonelBlimp/cwkeyer/internal/session"
)

// captureBufferFrames is the audio callback period for tone keying.
const captureBufferFrames = 256

func runKeyer(cmd *cobra.Command, _ []string) error {
	settings, err := config.Get()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log := logging.New(cmd.ErrOrStderr(), settings.Debug, false)
	recovery.SetLogger(log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	k, err := buildKeyer(ctx, settings, log, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer k.close()

	log.Info().
		Str("port", settings.SerialPort).
		Str("key", settings.KeySource).
		Bool("tone", k.tone != nil).
		Bool("history", k.recorder != nil).
		Msg("keyer ready")

	return k.session.Run(ctx)
}

// keyer holds everything a running session owns.
type keyer struct {
	port     *serial.Port
	engine   *audio.Engine
	capture  *audio.Capture
	tone     *audio.Sidetone
	store    *history.Store
	recorder *history.Recorder
	session  *session.Session
	log      zerolog.Logger
}

func buildKeyer(ctx context.Context, s *config.Settings, log zerolog.Logger, out io.Writer) (*keyer, error) {
	k := &keyer{log: log}
	ok := false
	defer func() {
		if !ok {
			k.close()
		}
	}()

	policy, err := morse.ParsePolicy(s.CapacityPolicy)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	k.port, err = serial.Open(serial.Config{
		Device:      s.SerialPort,
		Baud:        s.BaudRate,
		ReadTimeout: serial.DefaultReadTimeout,
	}, log)
	if err != nil {
		return nil, err
	}
	if err = k.port.Start(ctx); err != nil {
		return nil, err
	}

	toneEnabled := s.ToneEnabled
	if s.KeySource == config.KeySourceAudio || toneEnabled {
		k.engine, err = audio.NewEngine()
		switch {
		case err == nil:
		case s.KeySource == config.KeySourceAudio:
			return nil, err
		default:
			log.Warn().Err(err).Msg("audio unavailable, sidetone disabled")
			toneEnabled = false
		}
	}

	key, err := k.buildKey(ctx, s)
	if err != nil {
		return nil, err
	}

	var tone feedback.Tone
	if toneEnabled {
		k.tone, err = audio.NewSidetone(k.engine, audio.SidetoneConfig{
			DeviceIndex: -1,
			SampleRate:  uint32(s.SampleRate),
			Frequency:   s.ToneFrequency,
			Volume:      s.ToneVolume,
		})
		if err != nil {
			// Keying works without a sidetone.
			log.Warn().Err(err).Msg("sidetone unavailable")
			k.tone = nil
		} else {
			tone = k.tone
		}
	}

	var recorder session.Recorder
	if s.HistoryEnabled {
		k.store, err = history.Open(s.HistoryDB)
		if err != nil {
			return nil, err
		}
		k.recorder = history.NewRecorder(k.store, log)
		recorder = k.recorder
	}

	k.session, err = session.New(session.Config{
		WPM:      s.WPM,
		Policy:   policy,
		Capacity: s.Capacity,
		Interval: time.Duration(s.PollIntervalMS) * time.Millisecond,
		Clock:    session.NewSystemClock(),
		Key:      key,
		Port:     k.port,
		Feedback: feedback.NewPanel(feedback.NewConsole(out), tone),
		Recorder: recorder,
		Logger:   log,
	})
	if err != nil {
		return nil, err
	}
	ok = true
	return k, nil
}

func (k *keyer) buildKey(ctx context.Context, s *config.Settings) (session.Key, error) {
	if s.KeySource != config.KeySourceAudio {
		line, err := serial.ParseLine(s.KeyLine)
		if err != nil {
			return nil, err
		}
		return serial.NewModemKey(k.port.Modem(), line, s.KeyInvert, k.log)
	}

	filter, err := dsp.NewFilter(s.ToneFrequency, s.SampleRate, s.BlockSize)
	if err != nil {
		return nil, err
	}
	toneKey, err := dsp.NewToneKey(dsp.DetectorConfig{
		Threshold:  s.Threshold,
		Hysteresis: s.Hysteresis,
		AGC:        true,
	}, filter)
	if err != nil {
		return nil, err
	}

	k.capture = audio.NewCapture(k.engine, audio.CaptureConfig{
		DeviceIndex: s.DeviceIndex,
		SampleRate:  uint32(s.SampleRate),
		BufferSize:  captureBufferFrames,
	}, toneKey.Process)
	if err := k.capture.Start(ctx); err != nil {
		return nil, fmt.Errorf("start audio key: %w", err)
	}
	return toneKey, nil
}

// close releases resources in reverse order of acquisition.
func (k *keyer) close() {
	if k.recorder != nil {
		k.recorder.Close()
	}
	if k.store != nil {
		if err := k.store.Close(); err != nil {
			k.log.Warn().Err(err).Msg("close history")
		}
	}
	if k.tone != nil {
		_ = k.tone.Close()
	}
	if k.capture != nil && k.capture.IsRunning() {
		_ = k.capture.Stop()
	}
	if k.engine != nil {
		if err := k.engine.Close(); err != nil {
			k.log.Warn().Err(err).Msg("close audio")
		}
	}
	if k.port != nil {
		if err := k.port.Close(); err != nil {
			k.log.Warn().Err(err).Msg("close serial port")
		}
	}
}
