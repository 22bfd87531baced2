package morse

import (
	"testing"
	"time"
)

func mustTiming(t *testing.T, wpm int) Timing {
	t.Helper()
	tm, err := NewTiming(wpm)
	if err != nil {
		t.Fatalf("NewTiming(%d) error = %v", wpm, err)
	}
	return tm
}

func TestNewTiming_InvalidWPM(t *testing.T) {
	for _, wpm := range []int{0, -1, -20} {
		if _, err := NewTiming(wpm); err != ErrInvalidWPM {
			t.Errorf("NewTiming(%d) error = %v, want %v", wpm, err, ErrInvalidWPM)
		}
	}
}

func TestNewTiming_Thresholds(t *testing.T) {
	tm := mustTiming(t, 10)

	tests := []struct {
		name string
		got  time.Duration
		want time.Duration
	}{
		{"unit", tm.Unit, 120 * time.Millisecond},
		{"dash", tm.Dash, 360 * time.Millisecond},
		{"dot min", tm.DotMin, 30 * time.Millisecond},
		{"dot max", tm.DotMax, 180 * time.Millisecond},
		{"dash min", tm.DashMin, 180 * time.Millisecond},
		{"dash max", tm.DashMax, 600 * time.Millisecond},
		{"letter space min", tm.LetterSpaceMin, 720 * time.Millisecond},
		{"letter space max", tm.LetterSpaceMax, 1680 * time.Millisecond},
		{"word space min", tm.WordSpaceMin, 1680 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestNewTiming_RederivesFromUnit(t *testing.T) {
	tm := mustTiming(t, 20)
	if tm.Unit != 60*time.Millisecond {
		t.Fatalf("Unit = %v, want 60ms", tm.Unit)
	}
	if tm.DashMax != tm.Dash+2*tm.Unit {
		t.Errorf("DashMax = %v, want %v", tm.DashMax, tm.Dash+2*tm.Unit)
	}
	if tm.WordSpaceMin != 14*tm.Unit {
		t.Errorf("WordSpaceMin = %v, want %v", tm.WordSpaceMin, 14*tm.Unit)
	}
}

func TestTiming_ClassifyMark(t *testing.T) {
	tm := mustTiming(t, 10)

	tests := []struct {
		elapsed time.Duration
		want    Symbol
		ok      bool
	}{
		{0, 0, false},
		{30 * time.Millisecond, 0, false},
		{31 * time.Millisecond, Dot, true},
		{90 * time.Millisecond, Dot, true},
		{179 * time.Millisecond, Dot, true},
		{180 * time.Millisecond, 0, false},
		{181 * time.Millisecond, Dash, true},
		{360 * time.Millisecond, Dash, true},
		{599 * time.Millisecond, Dash, true},
		{600 * time.Millisecond, 0, false},
		{5 * time.Second, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.elapsed.String(), func(t *testing.T) {
			got, ok := tm.ClassifyMark(tt.elapsed)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ClassifyMark(%v) = (%v, %v), want (%v, %v)", tt.elapsed, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestTiming_Bucket(t *testing.T) {
	tm := mustTiming(t, 10)

	tests := []struct {
		elapsed time.Duration
		want    MarkClass
	}{
		{0, MarkShort},
		{179 * time.Millisecond, MarkShort},
		{180 * time.Millisecond, MarkLong},
		{599 * time.Millisecond, MarkLong},
		{600 * time.Millisecond, MarkOvertime},
		{time.Minute, MarkOvertime},
	}

	for _, tt := range tests {
		if got := tm.Bucket(tt.elapsed); got != tt.want {
			t.Errorf("Bucket(%v) = %v, want %v", tt.elapsed, got, tt.want)
		}
	}
}

func TestTiming_Spaces(t *testing.T) {
	tm := mustTiming(t, 10)

	if tm.IsLetterSpace(720 * time.Millisecond) {
		t.Error("IsLetterSpace(720ms) = true, bounds are exclusive")
	}
	if !tm.IsLetterSpace(900 * time.Millisecond) {
		t.Error("IsLetterSpace(900ms) = false, want true")
	}
	if tm.IsLetterSpace(1680 * time.Millisecond) {
		t.Error("IsLetterSpace(1680ms) = true, want false")
	}
	if tm.IsWordSpace(1679 * time.Millisecond) {
		t.Error("IsWordSpace(1679ms) = true, want false")
	}
	if !tm.IsWordSpace(1680 * time.Millisecond) {
		t.Error("IsWordSpace(1680ms) = false, word space minimum is inclusive")
	}
}

func TestTiming_Nominal(t *testing.T) {
	tm := mustTiming(t, 10)

	tests := []struct {
		sym  Symbol
		want time.Duration
	}{
		{Dot, 120 * time.Millisecond},
		{Dash, 360 * time.Millisecond},
		{LetterSpace, 360 * time.Millisecond},
		{WordSpace, 840 * time.Millisecond},
		{0, 0},
	}
	for _, tt := range tests {
		if got := tm.Nominal(tt.sym); got != tt.want {
			t.Errorf("Nominal(%v) = %v, want %v", tt.sym, got, tt.want)
		}
	}
	if tm.MarkGap() != tm.Unit {
		t.Errorf("MarkGap() = %v, want %v", tm.MarkGap(), tm.Unit)
	}
}

func TestParseGlyph(t *testing.T) {
	tests := []struct {
		r    rune
		want Symbol
		ok   bool
	}{
		{'.', Dot, true},
		{'-', Dash, true},
		{' ', LetterSpace, true},
		{'|', WordSpace, true},
		{'A', 0, false},
		{',', 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseGlyph(tt.r)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseGlyph(%q) = (%v, %v), want (%v, %v)", tt.r, got, ok, tt.want, tt.ok)
		}
	}
}
