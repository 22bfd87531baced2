package serial

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

type fakeStatus struct {
	bits *serial.ModemStatusBits
	err  error
}

func (f *fakeStatus) GetModemStatusBits() (*serial.ModemStatusBits, error) {
	return f.bits, f.err
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		name    string
		want    Line
		wantErr bool
	}{
		{"cts", CTS, false},
		{"DSR", DSR, false},
		{"dcd", DCD, false},
		{"Ri", RI, false},
		{"rts", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLine(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownLine)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, strings.ToLower(tt.name), got.String())
		})
	}
}

func TestModemKey_Pressed(t *testing.T) {
	bits := &serial.ModemStatusBits{CTS: true, DSR: false, DCD: true, RI: false}

	tests := []struct {
		line   Line
		invert bool
		want   bool
	}{
		{CTS, false, true},
		{CTS, true, false},
		{DSR, false, false},
		{DSR, true, true},
		{DCD, false, true},
		{RI, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.line.String(), func(t *testing.T) {
			k, err := NewModemKey(&fakeStatus{bits: bits}, tt.line, tt.invert, zerolog.Nop())
			require.NoError(t, err)
			assert.Equal(t, tt.want, k.Pressed())
		})
	}
}

func TestModemKey_ReadErrorIsReleased(t *testing.T) {
	status := &fakeStatus{err: errors.New("device gone")}
	k, err := NewModemKey(status, CTS, true, zerolog.Nop())
	require.NoError(t, err)

	assert.False(t, k.Pressed())
	assert.True(t, k.failing)

	status.err = nil
	status.bits = &serial.ModemStatusBits{}
	assert.True(t, k.Pressed(), "inverted idle line reads as pressed")
	assert.False(t, k.failing)
}

func TestNewModemKey_RequiresStatus(t *testing.T) {
	_, err := NewModemKey(nil, CTS, false, zerolog.Nop())
	assert.ErrorIs(t, err, ErrStatusRequired)
}

func TestOpen_Validation(t *testing.T) {
	_, err := Open(Config{Baud: 9600}, zerolog.Nop())
	assert.ErrorIs(t, err, ErrNoDevice)

	_, err = Open(Config{Device: "/dev/null-serial"}, zerolog.Nop())
	assert.ErrorIs(t, err, ErrInvalidBaud)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/dev/ttyUSB0")
	assert.Equal(t, "/dev/ttyUSB0", cfg.Device)
	assert.Equal(t, 9600, cfg.Baud)
	assert.Equal(t, DefaultReadTimeout, cfg.ReadTimeout)
}

// pipeConn joins the two halves of an io.Pipe into a ReadWriteCloser.
type pipeConn struct {
	r *io.PipeReader
	w io.Writer
}

func (c *pipeConn) Read(p []byte) (int, error)  { return c.r.Read(p) }
func (c *pipeConn) Write(p []byte) (int, error) { return c.w.Write(p) }
func (c *pipeConn) Close() error                { return c.r.Close() }

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestPort_TryReadNeverBlocks(t *testing.T) {
	pr, pw := io.Pipe()
	p := newPort(&pipeConn{r: pr, w: discard{}}, zerolog.Nop())

	buf := make([]byte, 8)
	assert.Zero(t, p.TryRead(buf), "no data before start")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, p.Start(ctx))
	assert.ErrorIs(t, p.Start(ctx), ErrAlreadyRunning)

	go func() { _, _ = pw.Write([]byte("1,1,A\n")) }()

	var got []byte
	deadline := time.Now().Add(2 * time.Second)
	for len(got) < 6 && time.Now().Before(deadline) {
		n := p.TryRead(buf[:4])
		got = append(got, buf[:n]...)
		if n == 0 {
			time.Sleep(time.Millisecond)
		}
	}
	assert.Equal(t, "1,1,A\n", string(got))
	assert.Zero(t, p.TryRead(buf))

	require.NoError(t, p.Close())
}

func TestPort_Write(t *testing.T) {
	pr, _ := io.Pipe()
	var out recordingWriter
	p := newPort(&pipeConn{r: pr, w: &out}, zerolog.Nop())

	n, err := p.Write([]byte(".,\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, ".,\n", string(out.data))
	assert.Nil(t, p.Modem())
}

type recordingWriter struct {
	data []byte
}

func (w *recordingWriter) Write(p []byte) (int, error) {
	w.data = append(w.data, p...)
	return len(p), nil
}
