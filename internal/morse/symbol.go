// Package morse implements straight-key Morse decoding: duration classification,
// the bounded symbol buffer and text decoding of buffered symbols.
package morse

// Symbol is one element of a keyed message.
type Symbol uint8

const (
	// Dot is a short mark.
	Dot Symbol = iota + 1
	// Dash is a long mark.
	Dash
	// LetterSpace separates two characters.
	LetterSpace
	// WordSpace separates two words.
	WordSpace
)

// IsMark reports whether s was produced by a press.
func (s Symbol) IsMark() bool {
	return s == Dot || s == Dash
}

// IsSeparator reports whether s is a LetterSpace or WordSpace.
func (s Symbol) IsSeparator() bool {
	return s == LetterSpace || s == WordSpace
}

func (s Symbol) String() string {
	switch s {
	case Dot:
		return "dot"
	case Dash:
		return "dash"
	case LetterSpace:
		return "letter-space"
	case WordSpace:
		return "word-space"
	}
	return "unknown"
}

// Glyph characters used for marks on the wire and in playback.
const (
	DotGlyph  = '.'
	DashGlyph = '-'
	// SpaceGlyph requests a letter space during playback.
	SpaceGlyph = ' '
	// WordGlyph requests a word space during playback.
	WordGlyph = '|'
)

// ParseGlyph maps a playback character onto a Symbol.
// ok is false for any character outside the four recognized glyphs.
func ParseGlyph(r rune) (s Symbol, ok bool) {
	switch r {
	case DotGlyph:
		return Dot, true
	case DashGlyph:
		return Dash, true
	case SpaceGlyph:
		return LetterSpace, true
	case WordGlyph:
		return WordSpace, true
	}
	return 0, false
}
