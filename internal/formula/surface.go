package formula

import "github.com/kobzarvs/formulaedit/internal/selection"

// Surface is the host text surface an Editor drives. Offsets are runes of
// PlainText. Every method must be safe to call when the surface has no
// selection or focus; such calls are no-ops.
type Surface interface {
	// Selection returns the current selection, or false when the surface is
	// not focused.
	Selection() (selection.Range, bool)
	SetSelection(r selection.Range)

	DeleteSelection()
	InsertMarkupAtSelection(markup string)
	// SetTypingColor sets the color of the next natively typed character.
	SetTypingColor(color string)

	PlainText() string
	SetMarkup(markup string)

	Focus()
}
