package morse

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCapacity indicates the buffer limit must be positive
	ErrInvalidCapacity = errors.New("buffer capacity must be positive")
	// ErrUnknownPolicy indicates an unrecognized capacity policy name
	ErrUnknownPolicy = errors.New("unknown capacity policy")
)

// CapacityPolicy selects what the buffer limit counts.
type CapacityPolicy uint8

const (
	// LimitSeparators bounds the number of LetterSpace and WordSpace symbols.
	LimitSeparators CapacityPolicy = iota
	// LimitLength bounds the total number of symbols.
	LimitLength
)

// ParsePolicy maps a config value onto a CapacityPolicy.
func ParsePolicy(name string) (CapacityPolicy, error) {
	switch name {
	case "separators":
		return LimitSeparators, nil
	case "length":
		return LimitLength, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
}

func (p CapacityPolicy) String() string {
	if p == LimitLength {
		return "length"
	}
	return "separators"
}

// Buffer is an ordered, capacity-bounded message of symbols.
//
// It never holds two adjacent separators and never begins with one. Once full,
// appends are dropped without touching existing content.
type Buffer struct {
	policy   CapacityPolicy
	limit    int
	symbols  []Symbol
	seps     int
	revision uint64
}

// NewBuffer creates an empty buffer holding at most limit units under policy.
func NewBuffer(policy CapacityPolicy, limit int) (*Buffer, error) {
	if limit <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &Buffer{
		policy:  policy,
		limit:   limit,
		symbols: make([]Symbol, 0, limit),
	}, nil
}

// Full reports whether the capacity limit has been reached.
func (b *Buffer) Full() bool {
	if b.policy == LimitLength {
		return len(b.symbols) >= b.limit
	}
	return b.seps >= b.limit
}

// Append stores s and reports whether the buffer changed.
//
// Marks first prune a lone leading separator. Separators are refused on an empty
// buffer or after another separator, except that a WordSpace promotes a trailing
// LetterSpace in place.
func (b *Buffer) Append(s Symbol) bool {
	if b.Full() {
		return false
	}

	switch {
	case s.IsMark():
		b.prune()
	case s.IsSeparator():
		last, ok := b.Last()
		if !ok {
			return false
		}
		if last == LetterSpace && s == WordSpace {
			b.symbols[len(b.symbols)-1] = WordSpace
			b.revision++
			return true
		}
		if last.IsSeparator() {
			return false
		}
		b.seps++
	default:
		return false
	}

	b.symbols = append(b.symbols, s)
	b.revision++
	return true
}

// prune drops a buffer consisting of a single separator.
func (b *Buffer) prune() {
	if len(b.symbols) == 1 && b.symbols[0].IsSeparator() {
		b.symbols = b.symbols[:0]
		b.seps = 0
		b.revision++
	}
}

// Clear empties the buffer.
func (b *Buffer) Clear() {
	b.symbols = b.symbols[:0]
	b.seps = 0
	b.revision++
}

// Last returns the final symbol, if any.
func (b *Buffer) Last() (Symbol, bool) {
	if len(b.symbols) == 0 {
		return 0, false
	}
	return b.symbols[len(b.symbols)-1], true
}

// Len returns the number of stored symbols.
func (b *Buffer) Len() int {
	return len(b.symbols)
}

// HasMark reports whether the buffer starts with a mark.
func (b *Buffer) HasMark() bool {
	return len(b.symbols) > 0 && b.symbols[0].IsMark()
}

// Symbols returns a copy of the stored sequence.
func (b *Buffer) Symbols() []Symbol {
	out := make([]Symbol, len(b.symbols))
	copy(out, b.symbols)
	return out
}

// Revision increments on every change, including in-place promotions.
func (b *Buffer) Revision() uint64 {
	return b.revision
}

// Policy returns the configured capacity policy.
func (b *Buffer) Policy() CapacityPolicy {
	return b.policy
}

// Limit returns the configured capacity limit.
func (b *Buffer) Limit() int {
	return b.limit
}
