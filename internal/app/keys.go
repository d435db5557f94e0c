package app

import (
	"unicode"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"

	"github.com/kobzarvs/formulaedit/internal/formula"
	"github.com/kobzarvs/formulaedit/internal/surface"
)

// toKeyEvent translates a terminal key into the editor's key model.
func toKeyEvent(ev *tcell.EventKey) (formula.KeyEvent, bool) {
	mods := ev.Modifiers()
	out := formula.KeyEvent{
		Ctrl:  mods&tcell.ModCtrl != 0,
		Alt:   mods&tcell.ModAlt != 0,
		Meta:  mods&tcell.ModMeta != 0,
		Shift: mods&tcell.ModShift != 0,
	}
	if ev.Key() == tcell.KeyRune {
		r := ev.Rune()
		if out.Ctrl || out.Meta {
			r = unicode.ToLower(r)
		}
		out.Key = string(r)
		return out, true
	}
	// Check Tab, Enter and Backspace before the ctrl range: they share codes
	// with ctrl+i, ctrl+m and ctrl+h.
	switch ev.Key() {
	case tcell.KeyTab:
		out.Key = formula.KeyTab
	case tcell.KeyBacktab:
		out.Key = formula.KeyTab
		out.Shift = true
	case tcell.KeyEnter:
		out.Key = formula.KeyEnter
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		out.Key = formula.KeyBackspace
	case tcell.KeyDelete:
		out.Key = formula.KeyDelete
	case tcell.KeyEscape:
		out.Key = formula.KeyEscape
	case tcell.KeyHome:
		out.Key = formula.KeyHome
	case tcell.KeyEnd:
		out.Key = formula.KeyEnd
	case tcell.KeyPgUp:
		out.Key = formula.KeyPageUp
	case tcell.KeyPgDn:
		out.Key = formula.KeyPageDown
	case tcell.KeyLeft:
		out.Key = formula.KeyArrowLeft
	case tcell.KeyRight:
		out.Key = formula.KeyArrowRight
	case tcell.KeyUp:
		out.Key = formula.KeyArrowUp
	case tcell.KeyDown:
		out.Key = formula.KeyArrowDown
	default:
		k := ev.Key()
		if k < tcell.KeyCtrlA || k > tcell.KeyCtrlZ {
			return formula.KeyEvent{}, false
		}
		out.Key = string(rune('a' + int(k-tcell.KeyCtrlA)))
		out.Ctrl = true
	}
	return out, true
}

// native is what the terminal surface does with a key the editor let through.
func (a *App) native(b *box, ev formula.KeyEvent) {
	doc := b.doc
	if ev.Ctrl || ev.Meta {
		switch ev.Key {
		case "c":
			a.copySelection(b, false)
		case "x":
			a.copySelection(b, true)
		case "a":
			doc.Select(0, doc.Len())
		case formula.KeyHome:
			doc.MoveTo(0, ev.Shift)
		case formula.KeyEnd:
			doc.MoveTo(doc.Len(), ev.Shift)
		}
		return
	}
	switch ev.Key {
	case formula.KeyArrowLeft:
		doc.Move(-1, ev.Shift)
	case formula.KeyArrowRight:
		doc.Move(1, ev.Shift)
	case formula.KeyArrowUp:
		doc.MoveVertical(-1, ev.Shift)
	case formula.KeyArrowDown:
		doc.MoveVertical(1, ev.Shift)
	case formula.KeyHome:
		doc.LineStart(ev.Shift)
	case formula.KeyEnd:
		doc.LineEnd(ev.Shift)
	case formula.KeyPageUp:
		doc.MoveTo(0, ev.Shift)
	case formula.KeyPageDown:
		doc.MoveTo(doc.Len(), ev.Shift)
	case formula.KeyEnter:
		doc.InsertText("\n")
	default:
		if !ev.Alt && utf8.RuneCountInString(ev.Key) == 1 {
			doc.InsertText(ev.Key)
		}
	}
}

var _ formula.Surface = (*surface.Document)(nil)
