// Package formula keeps variable tokens atomic while a host surface edits a
// formula. The Editor classifies key events, drives the surface through a
// handful of commands and decides when formula text must be re-rendered.
package formula

import (
	"time"

	"github.com/kobzarvs/formulaedit/internal/logger"
	"github.com/kobzarvs/formulaedit/internal/markup"
	"github.com/kobzarvs/formulaedit/internal/selection"
)

const DefaultInsertThrottle = 500 * time.Millisecond

type Config struct {
	VariableColor    string
	NonVariableColor string
	ReadOnly         bool
	// InsertThrottle is the minimum gap between two accepted programmatic
	// variable insertions.
	InsertThrottle time.Duration
}

func DefaultConfig() Config {
	return Config{
		VariableColor:    markup.DefaultVariableColor,
		NonVariableColor: markup.DefaultNonVariableColor,
		InsertThrottle:   DefaultInsertThrottle,
	}
}

// Activation wraps the active flag so that a new value re-triggers focus even
// when Active did not change. Compare by pointer, never by value.
type Activation struct {
	Active bool
}

func Activate(active bool) *Activation {
	return &Activation{Active: active}
}

type Editor struct {
	surface    Surface
	cfg        Config
	state      *State
	formula    string
	activation *Activation

	onContentChanged func(string)
	onActivated      func()
}

func New(surface Surface, cfg Config) *Editor {
	def := DefaultConfig()
	if cfg.VariableColor == "" {
		cfg.VariableColor = def.VariableColor
	}
	if cfg.NonVariableColor == "" {
		cfg.NonVariableColor = def.NonVariableColor
	}
	if cfg.InsertThrottle <= 0 {
		cfg.InsertThrottle = def.InsertThrottle
	}
	return &Editor{
		surface: surface,
		cfg:     cfg,
		state:   NewState(),
	}
}

// SetState replaces the editor's insertion state. Editors sharing a State
// share one throttle clock and one selection snapshot.
func (e *Editor) SetState(st *State) {
	if st != nil {
		e.state = st
	}
}

func (e *Editor) State() *State {
	return e.state
}

func (e *Editor) Config() Config {
	return e.cfg
}

func (e *Editor) SetReadOnly(readOnly bool) {
	e.cfg.ReadOnly = readOnly
}

func (e *Editor) SetNonVariableColor(color string) {
	if color != "" {
		e.cfg.NonVariableColor = color
	}
}

// SetContentChangedFunc registers the callback receiving the surface's plain
// text after every edit.
func (e *Editor) SetContentChangedFunc(fn func(text string)) {
	e.onContentChanged = fn
}

// SetActivatedFunc registers the callback fired when the surface gains focus.
func (e *Editor) SetActivatedFunc(fn func()) {
	e.onActivated = fn
}

// Formula returns the formula text the editor last rendered or observed.
func (e *Editor) Formula() string {
	return e.formula
}

// Mount renders the current formula unconditionally.
func (e *Editor) Mount() {
	e.surface.SetMarkup(markup.Encode(e.formula, e.cfg.VariableColor))
}

// SetFormula updates the externally owned formula text. The surface is only
// re-rendered when its plain text differs, so a formula that merely echoes
// what the user just typed keeps the caret where it is.
func (e *Editor) SetFormula(text string) bool {
	e.formula = text
	return e.sync()
}

// SetVariableColor changes the color used for tokens rendered from now on.
// Like SetFormula it re-renders only on a plain-text mismatch.
func (e *Editor) SetVariableColor(color string) bool {
	if color != "" {
		e.cfg.VariableColor = color
	}
	return e.sync()
}

func (e *Editor) sync() bool {
	if e.formula == e.surface.PlainText() {
		return false
	}
	e.surface.SetMarkup(markup.Encode(e.formula, e.cfg.VariableColor))
	logger.Debug("formula re-rendered", "len", len(e.formula))
	return true
}

// SetActive applies an activation. A new Activation with Active set focuses
// the surface; re-applying the same pointer does nothing.
func (e *Editor) SetActive(a *Activation) bool {
	if a == e.activation {
		return false
	}
	e.activation = a
	if a == nil || !a.Active {
		return false
	}
	e.surface.Focus()
	return true
}

// Active reports the state of the last applied activation.
func (e *Editor) Active() bool {
	return e.activation != nil && e.activation.Active
}

// HandleKey classifies a key press and applies the resulting surface
// commands. The caller must skip native handling when Suppress is set.
func (e *Editor) HandleKey(ev KeyEvent) Decision {
	text := e.surface.PlainText()
	sel, ok := e.surface.Selection()
	d := Classify(ev, Context{
		Text:         text,
		Selection:    sel,
		HasSelection: ok,
		ReadOnly:     e.cfg.ReadOnly,
	})

	if d.Expand {
		if expanded := selection.Expand(text, sel, d.Bias); expanded != sel {
			e.surface.SetSelection(expanded)
		}
	}
	if d.DeleteSelection {
		e.surface.DeleteSelection()
	}
	if d.ResetColor {
		e.surface.SetTypingColor(e.cfg.NonVariableColor)
	}
	if d.Rule != RuleDefault {
		logger.Debug("key classified", "key", ev.Key, "rule", d.Rule.String(), "suppress", d.Suppress)
	}
	return d
}

// KeyUp remembers the selection so it can be restored after focus loss.
func (e *Editor) KeyUp() {
	e.StoreSelection()
}

// MouseUp grows a mouse selection to whole variables and remembers it.
func (e *Editor) MouseUp() {
	sel, ok := e.surface.Selection()
	if !ok {
		return
	}
	if expanded := selection.Expand(e.surface.PlainText(), sel, selection.BiasNone); expanded != sel {
		e.surface.SetSelection(expanded)
	}
	e.StoreSelection()
}

// Paste inserts clipboard text after sanitizing it through the codec. A
// selection is grown to whole variables and replaced; a caret inside a
// variable moves past it first.
func (e *Editor) Paste(text string) bool {
	if e.cfg.ReadOnly {
		return false
	}
	sel, ok := e.surface.Selection()
	if !ok {
		return false
	}
	plain := e.surface.PlainText()
	sel = sel.Normalize()
	if sel.Collapsed() {
		tokens := markup.Tokens(plain)
		if insideVariable(tokens, sel.Start) {
			for _, t := range tokens {
				if t.Start < sel.Start && sel.Start <= t.End {
					e.surface.SetSelection(selection.Caret(t.End))
					break
				}
			}
		}
	} else {
		e.surface.SetSelection(selection.Expand(plain, sel, selection.BiasBackward))
		e.surface.DeleteSelection()
	}
	e.surface.InsertMarkupAtSelection(markup.Encode(text, e.cfg.VariableColor))
	return true
}

// Input reports the surface's current plain text to the content owner.
func (e *Editor) Input() {
	text := e.surface.PlainText()
	e.formula = text
	if e.onContentChanged != nil {
		e.onContentChanged(text)
	}
}

// Focus is called by the host when the surface gains focus.
func (e *Editor) Focus() {
	if e.onActivated != nil {
		e.onActivated()
	}
}
