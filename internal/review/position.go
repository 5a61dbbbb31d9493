package review

import (
	"fmt"
	"unicode/utf16"
)

// Position is a 0-based line and character offset. Characters are counted in
// UTF-16 code units, the unit LSP clients use.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Before reports whether p sorts strictly before o.
func (p Position) Before(o Position) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Character < o.Character
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line+1, p.Character+1)
}

// Range is a half-open span of positions.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// LineRange returns the span [start, end) on a single line.
func LineRange(line, start, end int) Range {
	return Range{
		Start: Position{Line: line, Character: start},
		End:   Position{Line: line, Character: end},
	}
}

// Empty reports whether r covers no characters.
func (r Range) Empty() bool {
	return r.Start == r.End
}

// Intersects reports whether r and o overlap or touch. Two ranges sharing
// only a boundary position intersect, matching editor semantics.
func (r Range) Intersects(o Range) bool {
	start := r.Start
	if start.Before(o.Start) {
		start = o.Start
	}
	end := r.End
	if o.End.Before(end) {
		end = o.End
	}
	return !end.Before(start)
}

func (r Range) String() string {
	return fmt.Sprintf("%s-%s", r.Start, r.End)
}

// utf16Len returns the length of s in UTF-16 code units.
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// byteOffset converts a UTF-16 character offset within s to a byte offset.
// Offsets past the end of s clamp to len(s).
func byteOffset(s string, character int) int {
	units := 0
	for i, r := range s {
		if units >= character {
			return i
		}
		units += utf16.RuneLen(r)
	}
	return len(s)
}
