package protocol

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ColonelBlimp/cwkeyer/internal/morse"
)

func TestEncodeTranscript(t *testing.T) {
	tests := []struct {
		name    string
		symbols []morse.Symbol
		want    string
	}{
		{"empty", nil, "\n"},
		{"marks only", []morse.Symbol{morse.Dot, morse.Dash, morse.Dot}, ".-.\n"},
		{"letter space", []morse.Symbol{morse.Dot, morse.LetterSpace, morse.Dot}, ".,.\n"},
		{"word space", []morse.Symbol{morse.Dash, morse.WordSpace, morse.Dot}, "-, ,.\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, EncodeTranscript(tt.symbols))
		})
	}
}

func TestStartupLine(t *testing.T) {
	line := StartupLine()
	require.True(t, strings.HasSuffix(line, "\n"))
	require.Equal(t, StartupWidth, strings.Count(line, LetterToken))
	require.Len(t, line, StartupWidth+1)
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"1,1,0,AB,,CD\n", Command{Remote: true, HasMessage: true, Fields: []string{"AB", "", "CD"}}},
		{"0,0,1\n", Command{Clear: true, Fields: []string{}}},
		{"0,0,1", Command{Clear: true, Fields: []string{}}},
		{"1,,,\r\n", Command{Remote: true, Fields: []string{""}}},
		{"2,yes,x", Command{HasMessage: true, Clear: true, Fields: []string{}}},
		{"1,0,0,...", Command{Remote: true, Fields: []string{"..."}}},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.line), func(t *testing.T) {
			got, err := ParseCommand(tt.line)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseCommand_Malformed(t *testing.T) {
	for _, line := range []string{"", "\n", "1", "1,1", "1,1\n", "garbage"} {
		_, err := ParseCommand(line)
		require.ErrorIs(t, err, ErrMalformedCommand, "line %q", line)
	}
}

func TestCommand_Playback(t *testing.T) {
	cmd, err := ParseCommand("1,1,0,AB,,CD\n")
	require.NoError(t, err)

	want := []Item{
		{Kind: ItemUnrecognized, Char: 'A'},
		{Kind: ItemUnrecognized, Char: 'B'},
		{Kind: ItemBoundary, Symbol: morse.WordSpace},
		{Kind: ItemUnrecognized, Char: 'C'},
		{Kind: ItemUnrecognized, Char: 'D'},
	}
	require.Equal(t, want, cmd.Playback())
}

func TestCommand_PlaybackGlyphs(t *testing.T) {
	cmd := Command{Fields: []string{".- |x"}}

	want := []Item{
		{Kind: ItemSymbol, Char: '.', Symbol: morse.Dot},
		{Kind: ItemSymbol, Char: '-', Symbol: morse.Dash},
		{Kind: ItemSymbol, Char: ' ', Symbol: morse.LetterSpace},
		{Kind: ItemSymbol, Char: '|', Symbol: morse.WordSpace},
		{Kind: ItemUnrecognized, Char: 'x'},
	}
	require.Equal(t, want, cmd.Playback())
}

func TestCommand_PlaybackCollapsesBoundaries(t *testing.T) {
	cmd := Command{Fields: []string{"..", "", "", "", "-", ""}}

	items := cmd.Playback()
	require.Len(t, items, 5)
	require.Equal(t, ItemBoundary, items[2].Kind)
	require.Equal(t, morse.Dash, items[3].Symbol)
	require.Equal(t, ItemBoundary, items[4].Kind)

	for i := 1; i < len(items); i++ {
		require.False(t, items[i-1].Kind == ItemBoundary && items[i].Kind == ItemBoundary,
			"consecutive boundaries at %d", i)
	}
}
