package app

import (
	"fmt"
	"runtime"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"

	"github.com/kobzarvs/formulaedit/internal/config"
	"github.com/kobzarvs/formulaedit/internal/formula"
	"github.com/kobzarvs/formulaedit/internal/logger"
	"github.com/kobzarvs/formulaedit/internal/session"
	"github.com/kobzarvs/formulaedit/internal/surface"
	"github.com/kobzarvs/formulaedit/internal/watcher"
)

const (
	paletteRow          = 0
	maxPalette          = 9
	boxCount            = 2
	boxPrefix           = "formula-"
	statusInsertIgnored = "insert ignored"
)

// commitInsert is delivered through the event loop once the palette has
// given focus back to the box.
type commitInsert struct {
	box    *box
	insert *formula.PendingInsert
}

type configReload struct {
	cfg config.Config
	err error
}

type paletteItem struct {
	name   string
	x0, x1 int
}

// App is the terminal host for the formula boxes.
type App struct {
	cfg        config.Config
	configPath string
	// forceReadOnly survives config reloads.
	forceReadOnly bool
	clip       Clipboard
	sess       *session.Manager

	screen  tcell.Screen
	boxes   []*box
	active  int
	palette []paletteItem
	// pressed is the palette item holding focus, -1 when none.
	pressed    int
	buttonDown bool
	dragging   *box
	lastRule   formula.Rule
	status     string
	colors     map[string]tcell.Color
}

func New(cfg config.Config) *App {
	return &App{
		cfg:     cfg,
		clip:    systemClipboard{},
		pressed: -1,
		colors:  make(map[string]tcell.Color),
	}
}

func (a *App) SetClipboard(c Clipboard) {
	if c != nil {
		a.clip = c
	}
}

func (a *App) SetSession(m *session.Manager) {
	a.sess = m
}

// SetForceReadOnly keeps every box read-only regardless of what the config
// file says, including after a reload.
func (a *App) SetForceReadOnly(readOnly bool) {
	a.forceReadOnly = readOnly
	if readOnly {
		a.cfg.Editor.ReadOnly = true
		for _, b := range a.boxes {
			b.ed.SetReadOnly(true)
		}
	}
}

// SetConfigPath enables live reload of the given config file.
func (a *App) SetConfigPath(path string) {
	a.configPath = path
}

func (a *App) Run() error {
	runtime.LockOSThread()
	s, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := s.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	s.EnableMouse()
	defer s.Fini()

	a.Attach(s)
	defer a.saveSession()

	if a.configPath != "" {
		stop, err := a.watchConfig()
		if err != nil {
			logger.Warn("config reload disabled", "path", a.configPath, "error", err)
		} else {
			defer stop()
		}
	}

	a.Draw()
	for {
		ev := s.PollEvent()
		if ev == nil {
			return nil
		}
		if a.HandleEvent(ev) {
			return nil
		}
		a.Draw()
	}
}

// Attach builds the boxes on s. Formulas come from the session when present,
// otherwise from the config.
func (a *App) Attach(s tcell.Screen) {
	a.screen = s
	a.layoutPalette()

	throttle, err := a.cfg.Throttle()
	if err != nil {
		logger.Warn("using default insert throttle", "error", err)
		throttle = formula.DefaultInsertThrottle
	}

	active := 0
	a.boxes = a.boxes[:0]
	for i := 0; i < boxCount; i++ {
		name := fmt.Sprintf("%s%d", boxPrefix, i+1)
		text := ""
		if i < len(a.cfg.Palette.Formulas) {
			text = a.cfg.Palette.Formulas[i]
		}
		caret := -1
		if a.sess != nil {
			if st, ok := a.sess.Box(name); ok {
				text, caret = st.Formula, st.Caret
			}
			if a.sess.ActiveBox() == name {
				active = i
			}
		}
		b := a.newBox(name, text, throttle)
		if caret >= 0 {
			b.doc.Focus()
			b.doc.MoveTo(caret, false)
			b.ed.KeyUp()
			b.doc.Blur()
		}
		a.boxes = append(a.boxes, b)
	}
	for i, b := range a.boxes {
		idx := i
		b.ed.SetActivatedFunc(func() { a.onActivated(idx) })
	}
	a.layout()
	a.activate(active)
}

func (a *App) newBox(name, text string, throttle time.Duration) *box {
	doc := surface.New(a.cfg.Editor.NonVariableColor)
	ed := formula.New(doc, formula.Config{
		VariableColor:    a.cfg.Editor.VariableColor,
		NonVariableColor: a.cfg.Editor.NonVariableColor,
		ReadOnly:         a.cfg.Editor.ReadOnly,
		InsertThrottle:   throttle,
	})
	b := &box{name: name, doc: doc, ed: ed, formula: text}
	doc.SetOnInput(ed.Input)
	doc.SetOnFocus(ed.Focus)
	ed.SetContentChangedFunc(func(text string) {
		b.formula = text
		if a.sess != nil {
			a.sess.SetBox(b.name, a.boxState(b))
		}
		// Echo the owner's value back the way a bound field would.
		ed.SetFormula(b.formula)
	})
	ed.SetFormula(text)
	return b
}

func (a *App) boxState(b *box) session.BoxState {
	return session.BoxState{Formula: b.formula, Caret: b.doc.Head()}
}

func (a *App) onActivated(i int) {
	a.active = i
	if a.sess != nil {
		a.sess.SetActiveBox(a.boxes[i].name)
	}
}

// activate focuses box i through a fresh activation and blurs the others.
func (a *App) activate(i int) {
	for j, b := range a.boxes {
		if j == i {
			continue
		}
		b.doc.Blur()
		b.ed.SetActive(formula.Activate(false))
	}
	a.active = i
	a.boxes[i].ed.SetActive(formula.Activate(true))
}

func (a *App) current() *box {
	return a.boxes[a.active]
}

// HandleEvent processes one event and reports whether the app should quit.
func (a *App) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return a.handleKey(ev)
	case *tcell.EventMouse:
		a.handleMouse(ev)
	case *tcell.EventResize:
		a.layout()
		a.screen.Sync()
	case *tcell.EventInterrupt:
		a.handleInterrupt(ev.Data())
	}
	return false
}

func (a *App) handleKey(ev *tcell.EventKey) bool {
	if k := ev.Key(); k >= tcell.KeyF1 && k <= tcell.KeyF9 {
		a.requestInsert(int(k - tcell.KeyF1))
		return false
	}
	kev, ok := toKeyEvent(ev)
	if !ok {
		return false
	}
	switch {
	case kev.Key == formula.KeyEscape, kev.Ctrl && kev.Key == "q":
		return true
	case kev.Key == formula.KeyTab:
		dir := 1
		if kev.Shift {
			dir = len(a.boxes) - 1
		}
		a.activate((a.active + dir) % len(a.boxes))
		return false
	}

	a.status = ""
	b := a.current()
	if kev.Ctrl && kev.Key == "v" {
		a.paste(b)
		b.ed.KeyUp()
		return false
	}
	d := b.ed.HandleKey(kev)
	a.lastRule = d.Rule
	if !d.Suppress {
		a.native(b, kev)
	}
	if d.Rule == formula.RuleSave {
		a.saveSession()
	}
	b.ed.KeyUp()
	return false
}

func (a *App) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	if ev.Buttons()&tcell.Button1 == 0 {
		if a.buttonDown && a.dragging != nil {
			b := a.dragging
			b.doc.MoveTo(b.posAt(x, y), true)
			b.ed.MouseUp()
		}
		a.buttonDown = false
		a.dragging = nil
		return
	}
	if a.buttonDown {
		if a.dragging != nil {
			a.dragging.doc.MoveTo(a.dragging.posAt(x, y), true)
		}
		return
	}
	a.buttonDown = true
	if y == paletteRow {
		if i := a.paletteAt(x); i >= 0 {
			a.requestInsert(i)
		}
		return
	}
	for i, b := range a.boxes {
		if !b.contains(y) {
			continue
		}
		if i != a.active || !b.doc.Focused() {
			a.activate(i)
		}
		b.doc.MoveTo(b.posAt(x, y), false)
		a.dragging = b
		return
	}
}

// requestInsert models a toolbar button: the palette takes focus, the
// insertion is accepted, and the commit runs once focus is back.
func (a *App) requestInsert(i int) {
	if i < 0 || i >= len(a.palette) {
		return
	}
	b := a.current()
	name := a.palette[i].name
	b.doc.Blur()
	a.pressed = i

	p, ok := b.ed.BeginInsert(name, "")
	if !ok {
		a.status = statusInsertIgnored
		a.refocus(b)
		return
	}
	if err := a.screen.PostEvent(tcell.NewEventInterrupt(commitInsert{box: b, insert: p})); err != nil {
		logger.Warn("dropping variable insert", "name", name, "error", err)
		a.status = statusInsertIgnored
		a.refocus(b)
	}
}

func (a *App) refocus(b *box) {
	a.pressed = -1
	b.doc.Focus()
}

func (a *App) handleInterrupt(data interface{}) {
	switch data := data.(type) {
	case commitInsert:
		a.pressed = -1
		a.activate(a.indexOf(data.box))
		if !data.box.ed.CommitInsert(data.insert) {
			a.status = statusInsertIgnored
		}
	case configReload:
		a.applyConfig(data.cfg, data.err)
	}
}

func (a *App) indexOf(b *box) int {
	for i, bb := range a.boxes {
		if bb == b {
			return i
		}
	}
	return a.active
}

func (a *App) copySelection(b *box, cut bool) {
	text := b.doc.SelectedText()
	if text == "" {
		return
	}
	if err := a.clip.WriteAll(text); err != nil {
		logger.Warn("clipboard write failed", "error", err)
		a.status = "clipboard: " + err.Error()
		return
	}
	if cut {
		b.doc.DeleteSelection()
	}
}

func (a *App) paste(b *box) {
	text, err := a.clip.ReadAll()
	if err != nil {
		logger.Warn("clipboard read failed", "error", err)
		a.status = "clipboard: " + err.Error()
		return
	}
	if !b.ed.Paste(text) {
		a.status = "read-only"
	}
}

func (a *App) saveSession() {
	if a.sess == nil {
		return
	}
	for _, b := range a.boxes {
		a.sess.SetBox(b.name, a.boxState(b))
	}
	if err := a.sess.ForceSave(); err != nil {
		logger.Warn("session save failed", "error", err)
		a.status = "session: " + err.Error()
		return
	}
	a.status = "saved"
}

func (a *App) watchConfig() (func(), error) {
	w, err := watcher.New(watcher.DefaultConfig(a.configPath))
	if err != nil {
		return nil, err
	}
	changes, err := w.Start()
	if err != nil {
		_ = w.Stop()
		return nil, err
	}
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-changes:
				cfg, err := config.LoadFile(a.configPath)
				if err == nil {
					err = cfg.Validate()
				}
				_ = a.screen.PostEvent(tcell.NewEventInterrupt(configReload{cfg: cfg, err: err}))
			case <-done:
				return
			}
		}
	}()
	return func() {
		close(done)
		_ = w.Stop()
	}, nil
}

// applyConfig switches colors and the read-only flag, then re-mounts every
// box so existing variables pick up the new color.
func (a *App) applyConfig(cfg config.Config, err error) {
	if err != nil {
		logger.Warn("config reload failed", "error", err)
		a.status = "config: " + err.Error()
		return
	}
	if a.forceReadOnly {
		cfg.Editor.ReadOnly = true
	}
	a.cfg = cfg
	for _, b := range a.boxes {
		b.doc.SetDefaultColor(cfg.Editor.NonVariableColor)
		b.ed.SetNonVariableColor(cfg.Editor.NonVariableColor)
		b.ed.SetReadOnly(cfg.Editor.ReadOnly)
		b.ed.SetVariableColor(cfg.Editor.VariableColor)
		b.ed.Mount()
	}
	a.layoutPalette()
	a.status = "config reloaded"
	logger.Info("config reloaded", "path", a.configPath)
}

func (a *App) layoutPalette() {
	a.palette = a.palette[:0]
	x := 1
	for i, name := range a.cfg.Palette.Variables {
		if i == maxPalette {
			break
		}
		w := runewidth.StringWidth(paletteLabel(i, name))
		a.palette = append(a.palette, paletteItem{name: name, x0: x, x1: x + w})
		x += w + 1
	}
}

func paletteLabel(i int, name string) string {
	return fmt.Sprintf(" F%d %s ", i+1, name)
}

func (a *App) paletteAt(x int) int {
	for i, it := range a.palette {
		if x >= it.x0 && x < it.x1 {
			return i
		}
	}
	return -1
}

func (a *App) layout() {
	if a.screen == nil || len(a.boxes) == 0 {
		return
	}
	w, h := a.screen.Size()
	each := (h - 2) / len(a.boxes)
	if each < 2 {
		each = 2
	}
	y := paletteRow + 1
	for _, b := range a.boxes {
		b.label = y
		b.top = y + 1
		b.height = each - 1
		b.width = w
		y += each
	}
}

func (a *App) color(hex string, fallback tcell.Color) tcell.Color {
	if c, ok := a.colors[hex]; ok {
		return c
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return fallback
	}
	r, g, bl := c.RGB255()
	tc := tcell.NewRGBColor(int32(r), int32(g), int32(bl))
	a.colors[hex] = tc
	return tc
}

func (a *App) Draw() {
	s := a.screen
	w, h := s.Size()
	if w <= 0 || h <= 0 {
		return
	}
	theme := a.cfg.Theme
	fg := a.color(theme.Foreground, tcell.ColorBlack)
	base := tcell.StyleDefault.Foreground(fg).Background(a.color(theme.Background, tcell.ColorWhite))
	s.SetStyle(base)
	s.Clear()

	a.drawPalette(w)
	s.HideCursor()
	for i, b := range a.boxes {
		a.drawBox(b, i == a.active)
	}
	a.drawStatus(w, h-1, base)
	s.Show()
}

func (a *App) drawPalette(w int) {
	theme := a.cfg.Theme
	st := tcell.StyleDefault.
		Foreground(a.color(theme.PaletteForeground, tcell.ColorBlack)).
		Background(a.color(theme.PaletteBackground, tcell.ColorSilver))
	fill(a.screen, paletteRow, 0, w, st)
	for i, it := range a.palette {
		itemStyle := st
		if i == a.pressed {
			itemStyle = st.Reverse(true)
		}
		x := it.x0
		for j, r := range paletteLabel(i, it.name) {
			cs := itemStyle
			if j >= 1 && j <= 2 {
				cs = cs.Foreground(a.color(theme.PaletteHotkey, tcell.ColorBlue))
			}
			a.screen.SetContent(x, paletteRow, r, nil, cs)
			x += runewidth.RuneWidth(r)
		}
	}
}

func (a *App) drawBox(b *box, active bool) {
	s := a.screen
	theme := a.cfg.Theme
	fg := a.color(theme.Foreground, tcell.ColorBlack)
	bg := a.color(theme.InactiveBackground, tcell.ColorWhite)
	if active {
		bg = a.color(theme.ActiveBackground, tcell.ColorSilver)
	}
	st := tcell.StyleDefault.Foreground(fg).Background(bg)

	title := " " + b.name
	if a.cfg.Editor.ReadOnly {
		title += " (read-only)"
	}
	x := 0
	for _, r := range title {
		s.SetContent(x, b.label, r, nil, st.Bold(active))
		x += cellWidth(r)
	}
	for row := 0; row < b.height; row++ {
		fill(s, b.top+row, 0, b.width, st)
	}

	cells := b.doc.Cells()
	sel, hasSel := b.doc.Selection()
	selBg := a.color(theme.SelectionBackground, tcell.ColorLightBlue)
	for row, ln := range splitLines(cells) {
		if row >= b.height {
			break
		}
		x := 0
		for i := ln.start; i < ln.end; i++ {
			c := cells[i]
			cw := cellWidth(c.R)
			if x+cw > b.width {
				break
			}
			cs := st.Foreground(a.color(c.Color, fg))
			if hasSel && i >= sel.Start && i < sel.End {
				cs = cs.Background(selBg)
			}
			s.SetContent(x, b.top+row, c.R, nil, cs)
			x += cw
		}
	}

	if active && b.doc.Focused() {
		cx, cy := b.cursorAt(b.doc.Head())
		if cy < b.height && cx < b.width {
			s.ShowCursor(cx, b.top+cy)
		}
	}
}

func (a *App) drawStatus(w, y int, st tcell.Style) {
	if y <= paletteRow {
		return
	}
	st = st.Reverse(true)
	fill(a.screen, y, 0, w, st)
	b := a.current()
	text := fmt.Sprintf(" %s  %s", b.name, a.lastRule)
	if a.status != "" {
		text += "  " + a.status
	}
	x := 0
	for _, r := range text {
		if x >= w {
			break
		}
		a.screen.SetContent(x, y, r, nil, st)
		x += runewidth.RuneWidth(r)
	}
}

func fill(s tcell.Screen, y, x0, x1 int, st tcell.Style) {
	for x := x0; x < x1; x++ {
		s.SetContent(x, y, ' ', nil, st)
	}
}
