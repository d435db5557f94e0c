// Package surface provides an in-memory host text surface: colored cells, a
// selection, focus and a pending typing color. It models what a rich-text
// host does natively so that editing rules can be exercised without a UI.
package surface

import (
	"strings"

	"github.com/kobzarvs/formulaedit/internal/markup"
	"github.com/kobzarvs/formulaedit/internal/selection"
)

// Cell is one rune of content with its foreground color.
type Cell struct {
	R     rune
	Color string
}

type Document struct {
	cells        []Cell
	anchor       int
	head         int
	focused      bool
	defaultColor string
	typingColor  string
	renders      int

	onInput func()
	onFocus func()
}

// New returns an empty, unfocused document whose uncolored text uses
// defaultColor.
func New(defaultColor string) *Document {
	if defaultColor == "" {
		defaultColor = markup.DefaultNonVariableColor
	}
	return &Document{defaultColor: defaultColor}
}

// SetOnInput registers the callback fired after every content mutation made
// through an edit command or native typing.
func (d *Document) SetOnInput(fn func()) {
	d.onInput = fn
}

// SetOnFocus registers the callback fired when the document gains focus.
func (d *Document) SetOnFocus(fn func()) {
	d.onFocus = fn
}

func (d *Document) SetDefaultColor(color string) {
	if color != "" {
		d.defaultColor = color
	}
}

func (d *Document) Focused() bool {
	return d.focused
}

func (d *Document) Focus() {
	if d.focused {
		return
	}
	d.focused = true
	if d.onFocus != nil {
		d.onFocus()
	}
}

func (d *Document) Blur() {
	d.focused = false
}

func (d *Document) Len() int {
	return len(d.cells)
}

// Cells returns a copy of the content.
func (d *Document) Cells() []Cell {
	out := make([]Cell, len(d.cells))
	copy(out, d.cells)
	return out
}

// Renders counts SetMarkup calls.
func (d *Document) Renders() int {
	return d.renders
}

// Head returns the moving end of the selection.
func (d *Document) Head() int {
	return d.head
}

func (d *Document) Selection() (selection.Range, bool) {
	if !d.focused {
		return selection.Range{}, false
	}
	return selection.Range{Start: d.anchor, End: d.head}.Normalize(), true
}

func (d *Document) SetSelection(r selection.Range) {
	if !d.focused {
		return
	}
	r = r.Clamp(len(d.cells))
	d.anchor, d.head = r.Start, r.End
	d.typingColor = ""
}

// Select sets anchor and head directly, keeping their direction.
func (d *Document) Select(anchor, head int) {
	if !d.focused {
		return
	}
	d.anchor = clamp(anchor, 0, len(d.cells))
	d.head = clamp(head, 0, len(d.cells))
	d.typingColor = ""
}

func (d *Document) SelectedText() string {
	sel, ok := d.Selection()
	if !ok {
		return ""
	}
	return cellsText(d.cells[sel.Start:sel.End])
}

func (d *Document) PlainText() string {
	return cellsText(d.cells)
}

func (d *Document) SetTypingColor(color string) {
	if !d.focused {
		return
	}
	d.typingColor = color
}

// TypingColor returns the color the next typed rune would get.
func (d *Document) TypingColor() string {
	if d.typingColor != "" {
		return d.typingColor
	}
	sel, _ := d.Selection()
	switch {
	case sel.Start > 0:
		return d.cells[sel.Start-1].Color
	case len(d.cells) > 0:
		return d.cells[0].Color
	}
	return d.defaultColor
}

// SetMarkup replaces the whole content. The selection is clamped to the new
// content; no input notification is sent.
func (d *Document) SetMarkup(m string) {
	d.cells = d.parse(m)
	d.anchor = clamp(d.anchor, 0, len(d.cells))
	d.head = clamp(d.head, 0, len(d.cells))
	d.typingColor = ""
	d.renders++
}

func (d *Document) DeleteSelection() {
	sel, ok := d.Selection()
	if !ok || sel.Collapsed() {
		return
	}
	d.replace(sel, nil)
	d.changed()
}

func (d *Document) InsertMarkupAtSelection(m string) {
	sel, ok := d.Selection()
	if !ok {
		return
	}
	d.replace(sel, d.parse(m))
	d.typingColor = ""
	d.changed()
}

// InsertText is native typing: it replaces the selection with text in the
// current typing color.
func (d *Document) InsertText(text string) {
	sel, ok := d.Selection()
	if !ok || text == "" {
		return
	}
	color := d.TypingColor()
	cells := make([]Cell, 0, len(text))
	for _, r := range text {
		cells = append(cells, Cell{R: r, Color: color})
	}
	d.replace(sel, cells)
	d.typingColor = ""
	d.changed()
}

// Move moves the head by delta runes. Without extend a selection collapses
// to its edge in the direction of travel first.
func (d *Document) Move(delta int, extend bool) {
	if !d.focused {
		return
	}
	sel, _ := d.Selection()
	if !extend && !sel.Collapsed() {
		pos := sel.Start
		if delta > 0 {
			pos = sel.End
		}
		d.MoveTo(pos, false)
		return
	}
	d.MoveTo(d.head+delta, extend)
}

// MoveTo places the head at pos; without extend the anchor follows.
func (d *Document) MoveTo(pos int, extend bool) {
	if !d.focused {
		return
	}
	d.head = clamp(pos, 0, len(d.cells))
	if !extend {
		d.anchor = d.head
	}
	d.typingColor = ""
}

// MoveVertical moves the head dir lines up (negative) or down, keeping the
// column where possible.
func (d *Document) MoveVertical(dir int, extend bool) {
	if !d.focused || dir == 0 {
		return
	}
	start := d.lineStart(d.head)
	col := d.head - start
	target := start
	if dir < 0 {
		if start == 0 {
			d.MoveTo(0, extend)
			return
		}
		target = d.lineStart(start - 1)
	} else {
		end := d.lineEnd(d.head)
		if end == len(d.cells) {
			d.MoveTo(end, extend)
			return
		}
		target = end + 1
	}
	d.MoveTo(min(target+col, d.lineEnd(target)), extend)
}

// LineStart and LineEnd move the head to the edges of its line.
func (d *Document) LineStart(extend bool) {
	d.MoveTo(d.lineStart(d.head), extend)
}

func (d *Document) LineEnd(extend bool) {
	d.MoveTo(d.lineEnd(d.head), extend)
}

func (d *Document) lineStart(pos int) int {
	for pos > 0 && d.cells[pos-1].R != '\n' {
		pos--
	}
	return pos
}

func (d *Document) lineEnd(pos int) int {
	for pos < len(d.cells) && d.cells[pos].R != '\n' {
		pos++
	}
	return pos
}

func (d *Document) replace(sel selection.Range, cells []Cell) {
	out := make([]Cell, 0, len(d.cells)-sel.Len()+len(cells))
	out = append(out, d.cells[:sel.Start]...)
	out = append(out, cells...)
	out = append(out, d.cells[sel.End:]...)
	d.cells = out
	d.anchor = sel.Start + len(cells)
	d.head = d.anchor
}

func (d *Document) parse(m string) []Cell {
	var cells []Cell
	for _, seg := range markup.Parse(m) {
		color := seg.Color
		if color == "" {
			color = d.defaultColor
		}
		for _, r := range seg.Text {
			cells = append(cells, Cell{R: r, Color: color})
		}
	}
	return cells
}

func (d *Document) changed() {
	if d.onInput != nil {
		d.onInput()
	}
}

func cellsText(cells []Cell) string {
	var b strings.Builder
	b.Grow(len(cells))
	for _, c := range cells {
		b.WriteRune(c.R)
	}
	return b.String()
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
