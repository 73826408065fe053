package position

import (
	"testing"
)

func TestPosition(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		pos      Position
		isValid  bool
	}{
		{
			name: "Valid position with filename",
			pos: Position{
				Filename: "examples/point.kc",
				Line:     10,
				Column:   5,
			},
			isValid:  true,
			expected: "point.kc:10:5",
		},
		{
			name: "Valid position without filename",
			pos: Position{
				Line:   1,
				Column: 1,
			},
			isValid:  true,
			expected: "1:1",
		},
		{
			name: "Invalid position - zero line",
			pos: Position{
				Line:   0,
				Column: 1,
			},
			isValid:  false,
			expected: "<unknown>",
		},
		{
			name: "Invalid position - filename only",
			pos: Position{
				Filename: "main.kc",
			},
			isValid:  false,
			expected: "main.kc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pos.IsValid(); got != tt.isValid {
				t.Errorf("Position.IsValid() = %v, want %v", got, tt.isValid)
			}

			if got := tt.pos.String(); got != tt.expected {
				t.Errorf("Position.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestPositionComparison(t *testing.T) {
	pos1 := Position{Filename: "a.kc", Line: 1, Column: 5}
	pos2 := Position{Filename: "a.kc", Line: 1, Column: 9}
	pos3 := Position{Filename: "a.kc", Line: 2, Column: 1}
	pos4 := Position{Filename: "b.kc", Line: 1, Column: 1}

	if !pos1.Before(pos2) {
		t.Error("pos1 should be before pos2")
	}
	if !pos2.Before(pos3) {
		t.Error("pos2 should be before pos3")
	}
	if pos3.Before(pos1) {
		t.Error("pos3 should not be before pos1")
	}
	if !pos3.Before(pos4) {
		t.Error("positions order by filename first")
	}
}

func TestWithFilename(t *testing.T) {
	pos := Position{Line: 3, Column: 7}.WithFilename("x.kc")
	if pos.String() != "x.kc:3:7" {
		t.Errorf("WithFilename: got %s", pos.String())
	}
}
