package feedback

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ColonelBlimp/cwkeyer/internal/morse"
)

// Glyphs rendered for each mark class.
const (
	ShortGlyph    = "·"
	LongGlyph     = "—"
	OvertimeGlyph = "✗"
)

// Console renders the mark state on a single terminal line.
// It only writes when the shown state changes.
type Console struct {
	w     io.Writer
	shown string
	width int

	short    lipgloss.Style
	long     lipgloss.Style
	overtime lipgloss.Style
}

// NewConsole creates a display writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{
		w:        w,
		short:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		long:     lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		overtime: lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	}
}

// ShowMark draws the glyph for class.
func (c *Console) ShowMark(class morse.MarkClass) {
	switch class {
	case morse.MarkShort:
		c.render(c.short.Render(ShortGlyph))
	case morse.MarkLong:
		c.render(c.long.Render(LongGlyph))
	default:
		c.render(c.overtime.Render(OvertimeGlyph))
	}
}

// Clear blanks the line.
func (c *Console) Clear() {
	c.render("")
}

func (c *Console) render(s string) {
	if s == c.shown {
		return
	}
	pad := strings.Repeat(" ", c.width)
	_, _ = fmt.Fprintf(c.w, "\r%s\r%s", pad, s)
	c.shown = s
	c.width = lipgloss.Width(s)
}
