// Package position provides source code position tracking for the koberic
// translator. Positions are attached to analyzed nodes by the front-end and
// carried into error messages.
package position

import (
	"fmt"
	"path/filepath"
)

// Position represents a single point in source code
type Position struct {
	Filename string `json:"file,omitempty"` // Source file name
	Line     int    `json:"line,omitempty"` // 1-based line number
	Column   int    `json:"col,omitempty"`  // 1-based column number
}

// IsValid returns true if the position is valid
func (p Position) IsValid() bool {
	return p.Line > 0 && p.Column > 0
}

// String returns a string representation of the position
func (p Position) String() string {
	if !p.IsValid() {
		if p.Filename != "" {
			return filepath.Base(p.Filename)
		}
		return "<unknown>"
	}
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", filepath.Base(p.Filename), p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Before returns true if this position comes before other
func (p Position) Before(other Position) bool {
	if p.Filename != other.Filename {
		return p.Filename < other.Filename
	}
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Column < other.Column
}

// WithFilename returns a copy of the position attributed to filename.
func (p Position) WithFilename(filename string) Position {
	p.Filename = filename
	return p
}
