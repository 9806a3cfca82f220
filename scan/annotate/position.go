package annotate

import "unicode/utf8"

// Position is a location in the annotated text.
// Lines are 1-based; characters are 0-based rune offsets within the line.
type Position struct {
	Line      int `json:"line" yaml:"line"`
	Character int `json:"character" yaml:"character"`
	Offset    int `json:"offset" yaml:"offset"` // 0-based byte offset in the whole text
}

// Range is a region of the annotated text
type Range struct {
	Start Position `json:"start" yaml:"start"`
	End   Position `json:"end" yaml:"end"`
}

// PositionTracker walks text forward, converting byte offsets to positions
type PositionTracker struct {
	source    string
	line      int
	character int
	offset    int
}

// NewPositionTracker creates a tracker at the beginning of source
func NewPositionTracker(source string) *PositionTracker {
	return &PositionTracker{source: source, line: 1}
}

// AdvanceTo moves the tracker forward to the byte offset. Offsets behind
// the tracker or past the end of the source are clamped.
func (pt *PositionTracker) AdvanceTo(offset int) Position {
	if offset > len(pt.source) {
		offset = len(pt.source)
	}
	for pt.offset < offset {
		r, size := utf8.DecodeRuneInString(pt.source[pt.offset:])
		if r == '\n' {
			pt.line++
			pt.character = 0
		} else {
			pt.character++
		}
		pt.offset += size
	}
	return pt.Mark()
}

// Mark returns the current position
func (pt *PositionTracker) Mark() Position {
	return Position{Line: pt.line, Character: pt.character, Offset: pt.offset}
}
