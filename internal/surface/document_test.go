package surface

import (
	"testing"

	"github.com/kobzarvs/formulaedit/internal/markup"
	"github.com/kobzarvs/formulaedit/internal/selection"
)

const (
	black = "#000000"
	blue  = "#0000ff"
)

func newFocused(text string) *Document {
	d := New(black)
	d.SetMarkup(markup.Encode(text, blue))
	d.Focus()
	return d
}

func TestSetMarkupProjectsPlainText(t *testing.T) {
	d := newFocused("a + [x]\n  b")
	if got := d.PlainText(); got != "a + [x]\n  b" {
		t.Fatalf("PlainText = %q", got)
	}
	cells := d.Cells()
	if cells[0].Color != black || cells[4].Color != blue || cells[6].Color != blue {
		t.Fatalf("unexpected colors: %#v", cells[:7])
	}
	if d.Renders() != 1 {
		t.Fatalf("Renders = %d, want 1", d.Renders())
	}
}

func TestUnfocusedDocumentIgnoresCommands(t *testing.T) {
	d := New(black)
	d.SetMarkup("abc")
	if _, ok := d.Selection(); ok {
		t.Fatalf("unfocused document reported a selection")
	}
	d.SetSelection(selection.Range{Start: 0, End: 3})
	d.DeleteSelection()
	d.InsertMarkupAtSelection("x")
	d.InsertText("y")
	if got := d.PlainText(); got != "abc" {
		t.Fatalf("PlainText = %q, want unchanged", got)
	}
}

func TestFocusFiresOnce(t *testing.T) {
	d := New(black)
	calls := 0
	d.SetOnFocus(func() { calls++ })
	d.Focus()
	d.Focus()
	d.Blur()
	d.Focus()
	if calls != 2 {
		t.Fatalf("focus callbacks = %d, want 2", calls)
	}
}

func TestInsertTextInheritsLeftColor(t *testing.T) {
	d := newFocused("[x]")
	d.MoveTo(3, false)
	d.InsertText("y")
	if got := d.Cells()[3].Color; got != blue {
		t.Fatalf("typed color = %q, want inherited %q", got, blue)
	}
	d.SetTypingColor(black)
	d.InsertText("z")
	if got := d.Cells()[4].Color; got != black {
		t.Fatalf("typed color = %q, want %q", got, black)
	}
}

func TestTypingColorAtStartFollowsFirstCell(t *testing.T) {
	d := newFocused("[x] + 1")
	d.MoveTo(0, false)
	if got := d.TypingColor(); got != blue {
		t.Fatalf("TypingColor = %q, want %q", got, blue)
	}
	d.SetTypingColor(black)
	d.MoveTo(0, false)
	if got := d.TypingColor(); got != blue {
		t.Fatalf("moving the caret must drop the pending color, got %q", got)
	}
}

func TestDeleteAndInsertMarkup(t *testing.T) {
	d := newFocused("1 + 2")
	inputs := 0
	d.SetOnInput(func() { inputs++ })
	d.SetSelection(selection.Range{Start: 4, End: 5})
	d.DeleteSelection()
	d.InsertMarkupAtSelection(markup.VariableSpan("v", blue))
	if got := d.PlainText(); got != "1 + [v]" {
		t.Fatalf("PlainText = %q", got)
	}
	if sel, _ := d.Selection(); sel != selection.Caret(7) {
		t.Fatalf("selection = %v, want caret at 7", sel)
	}
	if inputs != 2 {
		t.Fatalf("input notifications = %d, want 2", inputs)
	}
}

func TestMoveCollapsesSelection(t *testing.T) {
	d := newFocused("abcdef")
	d.Select(1, 4)
	d.Move(-1, false)
	if sel, _ := d.Selection(); sel != selection.Caret(1) {
		t.Fatalf("left collapse = %v", sel)
	}
	d.Select(1, 4)
	d.Move(1, false)
	if sel, _ := d.Selection(); sel != selection.Caret(4) {
		t.Fatalf("right collapse = %v", sel)
	}
	d.Move(1, true)
	d.Move(1, true)
	if sel, _ := d.Selection(); sel != (selection.Range{Start: 4, End: 6}) {
		t.Fatalf("extend = %v", sel)
	}
	if got := d.SelectedText(); got != "ef" {
		t.Fatalf("SelectedText = %q", got)
	}
}

func TestMoveVertical(t *testing.T) {
	d := newFocused("abcd\nx\nlonger")
	d.MoveTo(3, false)
	d.MoveVertical(1, false)
	if d.Head() != 6 {
		t.Fatalf("down to short line: head = %d, want 6", d.Head())
	}
	d.MoveVertical(1, false)
	if d.Head() != 8 {
		t.Fatalf("down again: head = %d, want 8", d.Head())
	}
	d.MoveVertical(-1, false)
	d.MoveVertical(-1, false)
	if d.Head() != 1 {
		t.Fatalf("up twice: head = %d, want 1", d.Head())
	}
	d.LineEnd(false)
	if d.Head() != 4 {
		t.Fatalf("LineEnd: head = %d, want 4", d.Head())
	}
	d.LineStart(true)
	if sel, _ := d.Selection(); sel != (selection.Range{Start: 0, End: 4}) {
		t.Fatalf("LineStart extend = %v", sel)
	}
}
