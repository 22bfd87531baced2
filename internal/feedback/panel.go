// Package feedback drives the operator-facing outputs: a mark display and a sidetone.
package feedback

import (
	"time"

	"github.com/ColonelBlimp/cwkeyer/internal/morse"
	"github.com/ColonelBlimp/cwkeyer/internal/protocol"
)

// Display shows the live mark classification.
type Display interface {
	ShowMark(class morse.MarkClass)
	Clear()
}

// Tone is a keyed audio oscillator.
type Tone interface {
	On()
	Off()
}

// Panel combines a display and a tone into the session's feedback sink.
type Panel struct {
	display Display
	tone    Tone
	sleep   func(time.Duration)
}

// NewPanel creates a panel; nil parts are replaced with no-ops.
func NewPanel(d Display, t Tone) *Panel {
	if d == nil {
		d = nopDisplay{}
	}
	if t == nil {
		t = nopTone{}
	}
	return &Panel{display: d, tone: t, sleep: time.Sleep}
}

// ShowMark forwards the live classification to the display.
func (p *Panel) ShowMark(class morse.MarkClass) { p.display.ShowMark(class) }

// ClearDisplay blanks the display.
func (p *Panel) ClearDisplay() { p.display.Clear() }

// ToneOn starts the sidetone.
func (p *Panel) ToneOn() { p.tone.On() }

// ToneOff stops the sidetone.
func (p *Panel) ToneOff() { p.tone.Off() }

// Play sounds one playback item and blocks for its nominal length.
// Marks are followed by a one-unit gap; unrecognized characters are skipped.
func (p *Panel) Play(item protocol.Item, t morse.Timing) {
	switch item.Kind {
	case protocol.ItemBoundary:
		p.display.Clear()
		p.sleep(t.Nominal(morse.WordSpace))
	case protocol.ItemSymbol:
		sym := item.Symbol
		if !sym.IsMark() {
			p.display.Clear()
			p.sleep(t.Nominal(sym))
			return
		}
		class := morse.MarkShort
		if sym == morse.Dash {
			class = morse.MarkLong
		}
		p.display.ShowMark(class)
		p.tone.On()
		p.sleep(t.Nominal(sym))
		p.tone.Off()
		p.display.Clear()
		p.sleep(t.MarkGap())
	}
}

type nopDisplay struct{}

func (nopDisplay) ShowMark(morse.MarkClass) {}
func (nopDisplay) Clear()                   {}

type nopTone struct{}

func (nopTone) On()  {}
func (nopTone) Off() {}
