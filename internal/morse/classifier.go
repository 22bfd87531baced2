package morse

import (
	"errors"
	"time"
)

var (
	// ErrBufferRequired indicates the classifier needs a buffer to write to
	ErrBufferRequired = errors.New("symbol buffer is required")
)

// Edge describes a key transition observed during a Step.
type Edge uint8

const (
	// EdgeNone means the key kept its previous state.
	EdgeNone Edge = iota
	// EdgePressed means a press episode started.
	EdgePressed
	// EdgeReleased means a press episode ended.
	EdgeReleased
)

// Observation is what a Step saw, for driving feedback.
type Observation struct {
	Edge Edge
	// Marking is true while the key is held; Class is valid only then.
	Marking bool
	Class   MarkClass
	// Held is the length of the press that ended on EdgeReleased.
	Held time.Duration
	// Overtime is set on EdgeReleased when the press exceeded DashMax.
	Overtime bool
	// Stored lists symbols accepted by the buffer during this Step.
	Stored []Symbol
}

// Classifier is the two-axis mark/space state machine fed one key sample per poll.
// It is not safe for concurrent use; the poll loop owns it.
type Classifier struct {
	timing Timing
	buf    *Buffer

	marking   bool
	markStart time.Duration

	spacing    bool
	spaceStart time.Duration
}

// NewClassifier creates a classifier appending into buf.
func NewClassifier(t Timing, buf *Buffer) (*Classifier, error) {
	if t.Unit <= 0 {
		return nil, ErrInvalidWPM
	}
	if buf == nil {
		return nil, ErrBufferRequired
	}
	return &Classifier{timing: t, buf: buf}, nil
}

// Step advances the state machine with the key sample taken at now.
func (c *Classifier) Step(pressed bool, now time.Duration) Observation {
	var obs Observation

	if pressed {
		if !c.marking {
			c.marking = true
			c.markStart = now
			c.spacing = false
			obs.Edge = EdgePressed
		}
		obs.Marking = true
		obs.Class = c.timing.Bucket(now - c.markStart)
		return obs
	}

	if c.marking {
		c.marking = false
		obs.Edge = EdgeReleased
		obs.Held = now - c.markStart
		obs.Overtime = obs.Held >= c.timing.DashMax
		if s, ok := c.timing.ClassifyMark(obs.Held); ok && c.buf.Append(s) {
			obs.Stored = append(obs.Stored, s)
		}
		if c.buf.HasMark() {
			c.spacing = true
			c.spaceStart = now
		}
		return obs
	}

	if c.spacing {
		elapsed := now - c.spaceStart
		if c.timing.IsLetterSpace(elapsed) && c.buf.Append(LetterSpace) {
			obs.Stored = append(obs.Stored, LetterSpace)
		}
		if c.timing.IsWordSpace(elapsed) && c.buf.Append(WordSpace) {
			obs.Stored = append(obs.Stored, WordSpace)
		}
	}
	return obs
}

// CancelMark discards a press in progress without committing a symbol.
// It reports whether an episode was cancelled.
func (c *Classifier) CancelMark() bool {
	was := c.marking
	c.marking = false
	return was
}

// Marking reports whether a press episode is in progress.
func (c *Classifier) Marking() bool {
	return c.marking
}

// Spacing reports whether a release episode is being timed.
func (c *Classifier) Spacing() bool {
	return c.spacing
}

// SetTiming replaces every threshold, e.g. after a WPM change.
func (c *Classifier) SetTiming(t Timing) {
	c.timing = t
}

// Timing returns the thresholds in use.
func (c *Classifier) Timing() Timing {
	return c.timing
}
