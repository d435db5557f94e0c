package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kobzarvs/formulaedit/internal/logger"
)

const autosaveInterval = 15 * time.Second

// BoxState stores the state of a single formula box
type BoxState struct {
	Formula string `json:"formula"`
	Caret   int    `json:"caret"`
}

// Session stores the formula boxes between runs
type Session struct {
	Boxes     map[string]BoxState `json:"boxes"`
	ActiveBox string              `json:"active_box,omitempty"`
	LastSaved time.Time           `json:"last_saved"`
}

// Manager handles session persistence
type Manager struct {
	mu       sync.RWMutex
	session  Session
	path     string
	dirty    bool
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewManager creates a session manager backed by the XDG state directory
// and starts autosaving.
func NewManager() (*Manager, error) {
	path, err := sessionPath()
	if err != nil {
		return nil, err
	}
	m := Open(path)
	go m.autosaveLoop(autosaveInterval)
	return m, nil
}

// Open loads the session stored at path without autosaving.
func Open(path string) *Manager {
	m := &Manager{
		session: Session{
			Boxes: make(map[string]BoxState),
		},
		path:     path,
		stopChan: make(chan struct{}),
	}
	m.load()
	return m
}

func sessionPath() (string, error) {
	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		stateDir = filepath.Join(home, ".local", "state")
	}
	dir := filepath.Join(stateDir, "formulaedit")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create state dir: %w", err)
	}
	return filepath.Join(dir, "session.json"), nil
}

func (m *Manager) load() {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return // No existing session, start fresh
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		logger.Warn("ignoring corrupt session", "path", m.path, "error", err)
		return
	}
	if session.Boxes == nil {
		session.Boxes = make(map[string]BoxState)
	}
	m.session = session
}

// Path returns the session file location.
func (m *Manager) Path() string {
	return m.path
}

// Save persists the session to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.dirty {
		return nil
	}

	m.session.LastSaved = time.Now()
	data, err := json.MarshalIndent(m.session, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return fmt.Errorf("write session: %w", err)
	}

	m.dirty = false
	return nil
}

// ForceSave saves even if not dirty
func (m *Manager) ForceSave() error {
	m.mu.Lock()
	m.dirty = true
	m.mu.Unlock()
	return m.Save()
}

// Box returns the saved state for a formula box
func (m *Manager) Box(name string) (BoxState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.session.Boxes[name]
	return state, ok
}

// SetBox updates the state for a formula box
func (m *Manager) SetBox(name string, state BoxState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.session.Boxes[name]; ok && prev == state {
		return
	}
	m.session.Boxes[name] = state
	m.dirty = true
}

func (m *Manager) SetActiveBox(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session.ActiveBox == name {
		return
	}
	m.session.ActiveBox = name
	m.dirty = true
}

func (m *Manager) ActiveBox() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.ActiveBox
}

func (m *Manager) Dirty() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dirty
}

func (m *Manager) autosaveLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := m.Save(); err != nil {
				logger.Warn("session autosave failed", "error", err)
			}
		case <-m.stopChan:
			return
		}
	}
}

// Stop stops the autosave loop and saves final state
func (m *Manager) Stop() error {
	m.stopOnce.Do(func() { close(m.stopChan) })
	return m.ForceSave()
}
