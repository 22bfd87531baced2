package protocol

import "bytes"

// MaxLineLength bounds a pending inbound line; longer input is dropped up to the next terminator.
const MaxLineLength = 4096

// LineAssembler collects inbound bytes across polls and yields complete lines.
// An incomplete line persists until its terminator arrives.
type LineAssembler struct {
	pending  []byte
	overflow bool
}

// Write appends received bytes. It never fails.
func (a *LineAssembler) Write(p []byte) (int, error) {
	for _, b := range p {
		if a.overflow {
			if b == EOL {
				a.overflow = false
			}
			continue
		}
		a.pending = append(a.pending, b)
		if len(a.pending) > MaxLineLength && bytes.IndexByte(a.pending, EOL) < 0 {
			a.pending = a.pending[:0]
			a.overflow = true
		}
	}
	return len(p), nil
}

// Next returns the oldest complete line without its terminator.
func (a *LineAssembler) Next() (string, bool) {
	i := bytes.IndexByte(a.pending, EOL)
	if i < 0 {
		return "", false
	}
	line := string(a.pending[:i])
	a.pending = append(a.pending[:0], a.pending[i+1:]...)
	return line, true
}

// Pending returns the number of buffered bytes not yet forming a line.
func (a *LineAssembler) Pending() int {
	return len(a.pending)
}
