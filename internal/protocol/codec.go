// Package protocol implements the line-oriented serial protocol: the outbound
// transcript of the symbol buffer and the inbound remote command lines.
package protocol

import (
	"errors"
	"strings"

	"github.com/ColonelBlimp/cwkeyer/internal/morse"
)

// Wire tokens.
const (
	EOL = '\n'
	// LetterToken encodes a LetterSpace.
	LetterToken = ","
	// WordToken encodes a WordSpace.
	WordToken = ", ,"
	// FieldSep separates inbound command fields.
	FieldSep = ","
	// StartupWidth is the number of separator tokens in the startup line.
	StartupWidth = 41
)

// Minimum number of fields in a command line.
const minFields = 3

var (
	// ErrMalformedCommand indicates a command line with fewer than three fields
	ErrMalformedCommand = errors.New("malformed command line")
)

// EncodeTranscript renders symbols as one newline-terminated transcript line.
func EncodeTranscript(symbols []morse.Symbol) string {
	var sb strings.Builder
	for _, s := range symbols {
		switch s {
		case morse.Dot:
			sb.WriteRune(morse.DotGlyph)
		case morse.Dash:
			sb.WriteRune(morse.DashGlyph)
		case morse.LetterSpace:
			sb.WriteString(LetterToken)
		case morse.WordSpace:
			sb.WriteString(WordToken)
		}
	}
	sb.WriteByte(EOL)
	return sb.String()
}

// StartupLine is the blank transcript sent once when a session opens.
func StartupLine() string {
	return strings.Repeat(LetterToken, StartupWidth) + string(EOL)
}

// Command is a decoded inbound line.
type Command struct {
	Remote     bool
	HasMessage bool
	Clear      bool
	// Fields holds the raw playback fields after the three flags.
	Fields []string
}

// ParseCommand decodes one line, with or without its terminator.
func ParseCommand(line string) (Command, error) {
	line = strings.TrimRight(line, "\r\n")
	fields := strings.Split(line, FieldSep)
	if len(fields) < minFields {
		return Command{}, ErrMalformedCommand
	}
	return Command{
		Remote:     fields[0] == "1",
		HasMessage: truthy(fields[1]),
		Clear:      truthy(fields[2]),
		Fields:     fields[minFields:],
	}, nil
}

func truthy(field string) bool {
	f := strings.TrimSpace(field)
	return f != "" && f != "0"
}

// ItemKind tags a playback item.
type ItemKind uint8

const (
	// ItemSymbol is a recognized glyph; Item.Symbol holds it.
	ItemSymbol ItemKind = iota
	// ItemBoundary is a word boundary from an empty field.
	ItemBoundary
	// ItemUnrecognized is a character with no Morse meaning.
	ItemUnrecognized
)

// Item is one playback step.
type Item struct {
	Kind   ItemKind
	Char   rune
	Symbol morse.Symbol
}

// Playback expands the command's fields into playback items. Each character is
// classified on its own; an empty field inserts a word boundary unless the
// previous item already was one.
func (c Command) Playback() []Item {
	var items []Item
	for _, field := range c.Fields {
		if field == "" {
			if n := len(items); n > 0 && items[n-1].Kind == ItemBoundary {
				continue
			}
			items = append(items, Item{Kind: ItemBoundary, Symbol: morse.WordSpace})
			continue
		}
		for _, r := range field {
			if s, ok := morse.ParseGlyph(r); ok {
				items = append(items, Item{Kind: ItemSymbol, Char: r, Symbol: s})
			} else {
				items = append(items, Item{Kind: ItemUnrecognized, Char: r})
			}
		}
	}
	return items
}
