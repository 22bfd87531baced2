package morse

import (
	"errors"
	"time"
)

// Timing ratios, in units of one dot.
const (
	// UnitAtOneWPM is the dot length at 1 WPM using the "PARIS" standard word.
	UnitAtOneWPM = 1200 * time.Millisecond
	// DashUnits is the nominal dash length.
	DashUnits = 3
	// MarkGapUnits is the silence between marks of one character.
	MarkGapUnits = 1
	// LetterGapUnits is the nominal silence between characters.
	LetterGapUnits = 3
	// WordGapUnits is the nominal silence between words.
	WordGapUnits = 7

	// LetterSpaceMinUnits and LetterSpaceMaxUnits bound a keyed letter space.
	LetterSpaceMinUnits = 2 * LetterGapUnits
	LetterSpaceMaxUnits = 2 * WordGapUnits
	// WordSpaceMinUnits is where a keyed pause becomes a word space.
	WordSpaceMinUnits = LetterSpaceMaxUnits
)

var (
	// ErrInvalidWPM indicates WPM must be positive
	ErrInvalidWPM = errors.New("WPM must be positive")
)

// MarkClass buckets the running duration of a press for live feedback.
type MarkClass uint8

const (
	// MarkShort is a press still inside the dot window.
	MarkShort MarkClass = iota
	// MarkLong is a press inside the dash window.
	MarkLong
	// MarkOvertime is a press held past the longest valid dash.
	MarkOvertime
)

func (c MarkClass) String() string {
	switch c {
	case MarkShort:
		return "short"
	case MarkLong:
		return "long"
	case MarkOvertime:
		return "overtime"
	}
	return "unknown"
}

// Timing holds every duration threshold derived from a words-per-minute value.
// All bounds are exclusive unless noted.
type Timing struct {
	WPM  int
	Unit time.Duration
	Dash time.Duration

	DotMin  time.Duration
	DotMax  time.Duration
	DashMin time.Duration
	DashMax time.Duration

	LetterSpaceMin time.Duration
	LetterSpaceMax time.Duration
	// WordSpaceMin is inclusive.
	WordSpaceMin time.Duration
}

// NewTiming derives the thresholds for wpm.
func NewTiming(wpm int) (Timing, error) {
	if wpm <= 0 {
		return Timing{}, ErrInvalidWPM
	}

	unit := UnitAtOneWPM / time.Duration(wpm)
	dash := DashUnits * unit

	return Timing{
		WPM:            wpm,
		Unit:           unit,
		Dash:           dash,
		DotMin:         unit / 4,
		DotMax:         dash / 2,
		DashMin:        dash / 2,
		DashMax:        dash + 2*unit,
		LetterSpaceMin: LetterSpaceMinUnits * unit,
		LetterSpaceMax: LetterSpaceMaxUnits * unit,
		WordSpaceMin:   WordSpaceMinUnits * unit,
	}, nil
}

// ClassifyMark turns a completed press into a mark.
// ok is false when the press was too short to register or ran overtime.
func (t Timing) ClassifyMark(elapsed time.Duration) (s Symbol, ok bool) {
	switch {
	case elapsed > t.DotMin && elapsed < t.DotMax:
		return Dot, true
	case elapsed > t.DashMin && elapsed < t.DashMax:
		return Dash, true
	}
	return 0, false
}

// Bucket classifies a press that is still held.
func (t Timing) Bucket(elapsed time.Duration) MarkClass {
	switch {
	case elapsed < t.DotMax:
		return MarkShort
	case elapsed < t.DashMax:
		return MarkLong
	}
	return MarkOvertime
}

// IsLetterSpace reports whether a pause of elapsed qualifies as a letter space.
func (t Timing) IsLetterSpace(elapsed time.Duration) bool {
	return elapsed > t.LetterSpaceMin && elapsed < t.LetterSpaceMax
}

// IsWordSpace reports whether a pause of elapsed qualifies as a word space.
func (t Timing) IsWordSpace(elapsed time.Duration) bool {
	return elapsed >= t.WordSpaceMin
}

// Nominal returns the ideal sounding (marks) or silent (separators) length of s.
func (t Timing) Nominal(s Symbol) time.Duration {
	switch s {
	case Dot:
		return t.Unit
	case Dash:
		return t.Dash
	case LetterSpace:
		return LetterGapUnits * t.Unit
	case WordSpace:
		return WordGapUnits * t.Unit
	}
	return 0
}

// MarkGap is the silence that follows each played mark.
func (t Timing) MarkGap() time.Duration {
	return MarkGapUnits * t.Unit
}
