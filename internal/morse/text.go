package morse

import "strings"

// morseTree is a heap-ordered binary tree of characters: the root is index 1,
// a dot moves from i to 2i and a dash to 2i+1. Blanks mark unassigned codes.
const morseTree = "  ETIANMSURWDKGOHVF L PJBXCYZQ  54 3   2       16=/     7   8 90"

// Unknown replaces a mark pattern that does not spell a character.
const Unknown = '?'

// Lookup decodes one character from its marks.
func Lookup(marks []Symbol) (rune, bool) {
	idx := 1
	for _, m := range marks {
		switch m {
		case Dot:
			idx *= 2
		case Dash:
			idx = idx*2 + 1
		default:
			return 0, false
		}
		if idx >= len(morseTree) {
			return 0, false
		}
	}
	if idx == 1 || morseTree[idx] == ' ' {
		return 0, false
	}
	return rune(morseTree[idx]), true
}

// Text decodes a symbol sequence: LetterSpace ends a character and WordSpace
// also ends a word. A trailing partial character is decoded as well.
func Text(symbols []Symbol) string {
	var sb strings.Builder
	var char []Symbol

	flush := func() {
		if len(char) == 0 {
			return
		}
		if r, ok := Lookup(char); ok {
			sb.WriteRune(r)
		} else {
			sb.WriteRune(Unknown)
		}
		char = char[:0]
	}

	for _, s := range symbols {
		switch s {
		case Dot, Dash:
			char = append(char, s)
		case LetterSpace:
			flush()
		case WordSpace:
			flush()
			sb.WriteByte(' ')
		}
	}
	flush()
	return sb.String()
}
