package app

import (
	"github.com/mattn/go-runewidth"

	"github.com/kobzarvs/formulaedit/internal/formula"
	"github.com/kobzarvs/formulaedit/internal/surface"
)

// box is one formula field: a document, the editor guarding it and the
// formula text the host owns.
type box struct {
	name    string
	doc     *surface.Document
	ed      *formula.Editor
	formula string

	label  int // screen row of the title
	top    int
	height int
	width  int
}

type lineSpan struct {
	start, end int
}

// splitLines returns the cell ranges of each line, newline excluded. There is
// always at least one line.
func splitLines(cells []surface.Cell) []lineSpan {
	lines := make([]lineSpan, 0, 1)
	start := 0
	for i, c := range cells {
		if c.R == '\n' {
			lines = append(lines, lineSpan{start, i})
			start = i + 1
		}
	}
	return append(lines, lineSpan{start, len(cells)})
}

func cellWidth(r rune) int {
	if w := runewidth.RuneWidth(r); w > 0 {
		return w
	}
	return 1
}

func (b *box) contains(y int) bool {
	return y >= b.label && y < b.top+b.height
}

// posAt maps a screen cell to a caret offset.
func (b *box) posAt(x, y int) int {
	cells := b.doc.Cells()
	lines := splitLines(cells)
	row := clamp(y-b.top, 0, len(lines)-1)
	ln := lines[row]
	col := 0
	for i := ln.start; i < ln.end; i++ {
		w := cellWidth(cells[i].R)
		if x < col+(w+1)/2 {
			return i
		}
		col += w
		if x < col {
			return i + 1
		}
	}
	return ln.end
}

// cursorAt is the inverse of posAt, relative to the box origin.
func (b *box) cursorAt(pos int) (int, int) {
	cells := b.doc.Cells()
	for row, ln := range splitLines(cells) {
		if pos < ln.start || pos > ln.end {
			continue
		}
		x := 0
		for i := ln.start; i < pos; i++ {
			x += cellWidth(cells[i].R)
		}
		return x, row
	}
	return 0, 0
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
