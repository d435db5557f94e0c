package formula

import (
	"time"

	"github.com/google/uuid"

	"github.com/kobzarvs/formulaedit/internal/logger"
	"github.com/kobzarvs/formulaedit/internal/markup"
	"github.com/kobzarvs/formulaedit/internal/selection"
)

// State is the mutable insertion context of an editor: the selection snapshot
// taken before focus loss and the time of the last accepted insertion. It is
// not safe for concurrent use.
type State struct {
	now         func() time.Time
	lastInsert  time.Time
	snapshot    selection.Range
	hasSnapshot bool
	// pending is the ID of the latest accepted insertion not yet committed.
	pending string
}

func NewState() *State {
	return &State{now: time.Now}
}

// SetClock replaces the time source used by the insertion throttle.
func (s *State) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Snapshot returns the persisted selection, if any.
func (s *State) Snapshot() (selection.Range, bool) {
	return s.snapshot, s.hasSnapshot
}

// PendingInsert describes a variable insertion accepted by BeginInsert and
// waiting for focus to return to the surface.
type PendingInsert struct {
	ID       string
	Name     string
	Color    string
	Markup   string
	Accepted time.Time
}

// StoreSelection snapshots the current selection. Without a selection the
// previous snapshot is kept.
func (e *Editor) StoreSelection() {
	sel, ok := e.surface.Selection()
	if !ok {
		return
	}
	e.state.snapshot = sel
	e.state.hasSnapshot = true
}

// RestoreSelection re-applies and consumes the snapshot. It is a no-op when
// either the snapshot or a current selection is missing.
func (e *Editor) RestoreSelection() bool {
	if !e.state.hasSnapshot {
		return false
	}
	snap := e.state.snapshot
	e.state.hasSnapshot = false
	if _, ok := e.surface.Selection(); !ok {
		return false
	}
	e.surface.SetSelection(snap)
	return true
}

// BeginInsert accepts a variable insertion unless another one was accepted
// within the throttle window; rejected calls are dropped, not queued. The
// current selection, if any, is grown to whole variables. An empty color
// means the configured variable color.
func (e *Editor) BeginInsert(name, color string) (*PendingInsert, bool) {
	if e.cfg.ReadOnly {
		return nil, false
	}
	now := e.state.now()
	if !e.state.lastInsert.IsZero() && now.Sub(e.state.lastInsert) < e.cfg.InsertThrottle {
		logger.Debug("variable insert throttled", "name", name, "since", now.Sub(e.state.lastInsert))
		return nil, false
	}
	e.state.lastInsert = now

	if color == "" {
		color = e.cfg.VariableColor
	}
	if sel, ok := e.surface.Selection(); ok {
		if expanded := selection.Expand(e.surface.PlainText(), sel, selection.BiasNone); expanded != sel {
			e.surface.SetSelection(expanded)
		}
	}
	id := uuid.NewString()
	e.state.pending = id
	return &PendingInsert{
		ID:       id,
		Name:     name,
		Color:    color,
		Markup:   markup.VariableSpan(name, color),
		Accepted: now,
	}, true
}

// CommitInsert performs a pending insertion once focus is back on the
// surface: restore the snapshot, insert the token and snapshot the result.
// If the surface still has no selection nothing is inserted, and the
// snapshot is gone all the same. Only the latest accepted insertion can be
// committed, and only once.
func (e *Editor) CommitInsert(p *PendingInsert) bool {
	if p == nil {
		return false
	}
	if p.ID != e.state.pending {
		logger.Debug("stale variable insert dropped", "id", p.ID, "name", p.Name)
		return false
	}
	e.state.pending = ""
	e.RestoreSelection()
	sel, ok := e.surface.Selection()
	if !ok {
		logger.Debug("variable insert lost its target", "id", p.ID, "name", p.Name)
		return false
	}
	if expanded := selection.Expand(e.surface.PlainText(), sel, selection.BiasNone); expanded != sel {
		e.surface.SetSelection(expanded)
	}
	e.surface.InsertMarkupAtSelection(p.Markup)
	e.StoreSelection()
	logger.Debug("variable inserted", "id", p.ID, "name", p.Name)
	return true
}

// InsertVariable begins and immediately commits an insertion. Use it when
// focus is known to be on the surface; otherwise call BeginInsert and commit
// after focus has returned.
func (e *Editor) InsertVariable(name, color string) bool {
	p, ok := e.BeginInsert(name, color)
	if !ok {
		return false
	}
	return e.CommitInsert(p)
}
