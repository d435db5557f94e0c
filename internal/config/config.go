package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/lucasb-eyer/go-colorful"
)

type EditorOptions struct {
	VariableColor    string `toml:"variable-color"`
	NonVariableColor string `toml:"non-variable-color"`
	ReadOnly         bool   `toml:"read-only"`
	InsertThrottle   string `toml:"insert-throttle"`
}

type Theme struct {
	Theme               string `toml:"theme"`
	Foreground          string `toml:"foreground"`
	Background          string `toml:"background"`
	ActiveBackground    string `toml:"active-background"`
	InactiveBackground  string `toml:"inactive-background"`
	SelectionBackground string `toml:"selection-background"`
	PaletteForeground   string `toml:"palette-foreground"`
	PaletteBackground   string `toml:"palette-background"`
	PaletteHotkey       string `toml:"palette-hotkey"`
}

type Palette struct {
	Variables []string `toml:"variables"`
	Formulas  []string `toml:"formulas"`
}

type Config struct {
	Editor  EditorOptions `toml:"editor"`
	Theme   Theme         `toml:"theme"`
	Palette Palette       `toml:"palette"`
}

func Default() Config {
	return Config{
		Editor: EditorOptions{
			VariableColor:    "#0000ff",
			NonVariableColor: "#000000",
			ReadOnly:         false,
			InsertThrottle:   "500ms",
		},
		Theme: Theme{
			Theme:               "",
			Foreground:          "#000000",
			Background:          "#ffffff",
			ActiveBackground:    "#dddddd",
			InactiveBackground:  "#eeeeee",
			SelectionBackground: "#b4d5fe",
			PaletteForeground:   "#000000",
			PaletteBackground:   "#cccccc",
			PaletteHotkey:       "#0000ff",
		},
		Palette: Palette{
			Variables: []string{"Var A", "Var B", "Var C"},
			Formulas: []string{
				"12 + [Var A] +\nIF([Var B] > 5, 3, 0)",
				"[Var C] * 2",
			},
		},
	}
}

func Load() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Default(), err
	}
	return LoadFile(path)
}

// LoadFile reads path over the defaults. A missing file is not an error.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	var userCfg Config
	if _, err := toml.Decode(string(data), &userCfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	if userCfg.Editor.VariableColor != "" {
		cfg.Editor.VariableColor = userCfg.Editor.VariableColor
	}
	if userCfg.Editor.NonVariableColor != "" {
		cfg.Editor.NonVariableColor = userCfg.Editor.NonVariableColor
	}
	if userCfg.Editor.ReadOnly {
		cfg.Editor.ReadOnly = userCfg.Editor.ReadOnly
	}
	if userCfg.Editor.InsertThrottle != "" {
		cfg.Editor.InsertThrottle = userCfg.Editor.InsertThrottle
	}
	if userCfg.Theme.Theme != "" {
		cfg.Theme.Theme = userCfg.Theme.Theme
	}
	if cfg.Theme.Theme != "" {
		theme, err := LoadTheme(cfg.Theme.Theme)
		if err != nil {
			return cfg, err
		}
		mergeTheme(&cfg.Theme, theme)
	}
	mergeTheme(&cfg.Theme, userCfg.Theme)
	if userCfg.Palette.Variables != nil {
		cfg.Palette.Variables = userCfg.Palette.Variables
	}
	if userCfg.Palette.Formulas != nil {
		cfg.Palette.Formulas = userCfg.Palette.Formulas
	}

	return cfg, nil
}

func mergeTheme(dst *Theme, src Theme) {
	if src.Foreground != "" {
		dst.Foreground = src.Foreground
	}
	if src.Background != "" {
		dst.Background = src.Background
	}
	if src.ActiveBackground != "" {
		dst.ActiveBackground = src.ActiveBackground
	}
	if src.InactiveBackground != "" {
		dst.InactiveBackground = src.InactiveBackground
	}
	if src.SelectionBackground != "" {
		dst.SelectionBackground = src.SelectionBackground
	}
	if src.PaletteForeground != "" {
		dst.PaletteForeground = src.PaletteForeground
	}
	if src.PaletteBackground != "" {
		dst.PaletteBackground = src.PaletteBackground
	}
	if src.PaletteHotkey != "" {
		dst.PaletteHotkey = src.PaletteHotkey
	}
}

// Validate reports the first malformed color or duration.
func (c Config) Validate() error {
	colors := []struct {
		key, value string
	}{
		{"editor.variable-color", c.Editor.VariableColor},
		{"editor.non-variable-color", c.Editor.NonVariableColor},
		{"theme.foreground", c.Theme.Foreground},
		{"theme.background", c.Theme.Background},
		{"theme.active-background", c.Theme.ActiveBackground},
		{"theme.inactive-background", c.Theme.InactiveBackground},
		{"theme.selection-background", c.Theme.SelectionBackground},
		{"theme.palette-foreground", c.Theme.PaletteForeground},
		{"theme.palette-background", c.Theme.PaletteBackground},
		{"theme.palette-hotkey", c.Theme.PaletteHotkey},
	}
	for _, col := range colors {
		if _, err := colorful.Hex(col.value); err != nil {
			return fmt.Errorf("%s: invalid color %q: %w", col.key, col.value, err)
		}
	}
	if _, err := c.Throttle(); err != nil {
		return err
	}
	return nil
}

// Throttle parses editor.insert-throttle.
func (c Config) Throttle() (time.Duration, error) {
	d, err := time.ParseDuration(c.Editor.InsertThrottle)
	if err != nil {
		return 0, fmt.Errorf("editor.insert-throttle: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("editor.insert-throttle: must be positive, got %s", d)
	}
	return d, nil
}

func ThemePath(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "theme", name+".toml"), nil
}

func LoadTheme(name string) (Theme, error) {
	path, err := ThemePath(name)
	if err != nil {
		return Theme{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Theme{}, err
	}
	var t Theme
	if _, err := toml.Decode(string(data), &t); err == nil {
		return t, nil
	}
	var wrap struct {
		Theme Theme `toml:"theme"`
	}
	if _, err := toml.Decode(string(data), &wrap); err != nil {
		return Theme{}, err
	}
	return wrap.Theme, nil
}

func ConfigDir() (string, error) {
	if v := os.Getenv("FORMULAEDIT_CONFIG_HOME"); v != "" {
		return filepath.Clean(v), nil
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "formulaedit"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "formulaedit"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}
