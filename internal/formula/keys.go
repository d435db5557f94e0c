package formula

import (
	"strings"
	"unicode/utf8"

	"github.com/kobzarvs/formulaedit/internal/markup"
	"github.com/kobzarvs/formulaedit/internal/selection"
)

// Key names for non-character keys.
const (
	KeyBackspace  = "Backspace"
	KeyDelete     = "Delete"
	KeyEnter      = "Enter"
	KeyTab        = "Tab"
	KeyEscape     = "Escape"
	KeyHome       = "Home"
	KeyEnd        = "End"
	KeyPageUp     = "PageUp"
	KeyPageDown   = "PageDown"
	KeyArrowLeft  = "ArrowLeft"
	KeyArrowRight = "ArrowRight"
	KeyArrowUp    = "ArrowUp"
	KeyArrowDown  = "ArrowDown"
)

// KeyEvent is a key press. Key is either a single character or one of the
// Key* names above.
type KeyEvent struct {
	Key   string
	Ctrl  bool
	Alt   bool
	Meta  bool
	Shift bool
}

// Char returns an unmodified key event for a typed character.
func Char(r rune) KeyEvent {
	return KeyEvent{Key: string(r)}
}

func (ev KeyEvent) chord() bool {
	return ev.Ctrl || ev.Alt || ev.Meta
}

func (ev KeyEvent) isArrow() bool {
	return strings.HasPrefix(ev.Key, "Arrow")
}

func (ev KeyEvent) isBracket() bool {
	return ev.Key == "[" || ev.Key == "]"
}

func (ev KeyEvent) isNavigation() bool {
	switch ev.Key {
	case KeyHome, KeyEnd, KeyPageUp, KeyPageDown, KeyTab, KeyEscape:
		return true
	}
	return ev.isArrow()
}

// producesText reports whether the host would insert text for ev, replacing
// any selection.
func (ev KeyEvent) producesText() bool {
	if ev.Ctrl || ev.Meta {
		return false
	}
	return ev.Key == KeyEnter || utf8.RuneCountInString(ev.Key) == 1
}

// Rule identifies the classifier rule that matched a key event.
type Rule int

const (
	RuleDefault Rule = iota
	RuleSave
	RuleFormat
	RuleNoSelection
	RuleReadOnly
	RuleClipboard
	RuleDestructive
	RuleAfterVariable
	RuleLeadingVariable
	RuleManualVariable
)

var ruleNames = [...]string{
	RuleDefault:         "default",
	RuleSave:            "save",
	RuleFormat:          "format",
	RuleNoSelection:     "no-selection",
	RuleReadOnly:        "read-only",
	RuleClipboard:       "clipboard",
	RuleDestructive:     "destructive",
	RuleAfterVariable:   "after-variable",
	RuleLeadingVariable: "leading-variable",
	RuleManualVariable:  "manual-variable",
}

func (r Rule) String() string {
	if r >= 0 && int(r) < len(ruleNames) {
		return ruleNames[r]
	}
	return "unknown"
}

// Context is what the classifier sees of the surface.
type Context struct {
	Text         string
	Selection    selection.Range
	HasSelection bool
	ReadOnly     bool
}

// Decision is the outcome of classifying a key event. The editor applies it
// in field order: expand the selection, delete it, reset the typing color.
// Suppress tells the host to drop its native handling of the key.
type Decision struct {
	Rule            Rule
	Expand          bool
	Bias            selection.Bias
	DeleteSelection bool
	ResetColor      bool
	Suppress        bool
}

// Classify maps a key event to a Decision. Rules are checked in priority
// order and the first match wins.
func Classify(ev KeyEvent, ctx Context) Decision {
	key := ev.Key

	if (ev.Ctrl || ev.Meta) && key == "s" {
		return Decision{Rule: RuleSave, Suppress: true}
	}
	if ev.chord() && (key == "b" || key == "i" || key == "u") {
		return Decision{Rule: RuleFormat, Suppress: true}
	}
	if !ctx.HasSelection {
		return Decision{Rule: RuleNoSelection}
	}

	sel := ctx.Selection.Normalize()
	clipboard := ev.chord() && (key == "c" || key == "x")

	if ctx.ReadOnly {
		if clipboard && key == "c" {
			return Decision{Rule: RuleClipboard, Expand: true}
		}
		if ev.isNavigation() {
			return Decision{Rule: RuleReadOnly}
		}
		return Decision{Rule: RuleReadOnly, Suppress: true}
	}

	if clipboard {
		return Decision{Rule: RuleClipboard, Expand: true, ResetColor: key == "x"}
	}

	// A bracket typed over a selection still clears it but is never inserted.
	if key == KeyBackspace || key == KeyDelete || (!sel.Collapsed() && ev.producesText()) {
		bias := selection.BiasBackward
		if key == KeyDelete {
			bias = selection.BiasForward
		}
		return Decision{
			Rule:            RuleDestructive,
			Expand:          true,
			Bias:            bias,
			DeleteSelection: true,
			ResetColor:      true,
			Suppress:        key == KeyBackspace || key == KeyDelete || ev.isBracket(),
		}
	}

	if !sel.Collapsed() {
		return Decision{}
	}

	tokens := markup.Tokens(ctx.Text)
	caret := sel.Start

	if !ev.isBracket() {
		if _, ok := markup.TokenEndingAt(tokens, caret); ok {
			return Decision{Rule: RuleAfterVariable, ResetColor: true}
		}
		if caret == 0 && !ev.isArrow() {
			if _, ok := markup.TokenStartingAt(tokens, 0); ok {
				return Decision{Rule: RuleLeadingVariable, ResetColor: true}
			}
		}
	}

	if ev.isBracket() || (insideVariable(tokens, caret) && !ev.isArrow()) {
		return Decision{Rule: RuleManualVariable, Suppress: true}
	}

	return Decision{}
}

// insideVariable reports whether typing at pos would land inside a token.
// The end of an unterminated token still counts as inside.
func insideVariable(tokens []markup.Token, pos int) bool {
	if _, ok := markup.TokenAt(tokens, pos); ok {
		return true
	}
	if n := len(tokens); n > 0 {
		last := tokens[n-1]
		return !last.Closed && last.End == pos
	}
	return false
}
