// Package prefs persists gallery UI preferences in ~/.config/portal/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds user preferences for the gallery
type Prefs struct {
	DefaultTab       string `toml:"default_tab"`       // latestVideos, popularVideos or playlists
	ShowDescriptions bool   `toml:"show_descriptions"` // show the description line under each title
}

const (
	defaultPrefsPath = "~/.config/portal/prefs.toml"
	defaultTab       = "latestVideos"
)

var validTabs = map[string]bool{
	"latestVideos":  true,
	"popularVideos": true,
	"playlists":     true,
}

// Default returns the preferences used when no file exists
func Default() Prefs {
	return Prefs{DefaultTab: defaultTab, ShowDescriptions: true}
}

// DefaultPath returns the default preferences file path
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from path, falling back to defaults when the file
// is missing. A file that exists but does not parse is an error.
func Load(path string) (Prefs, error) {
	prefs := Default()

	resolved, err := resolvePath(path)
	if err != nil {
		return prefs, nil
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return prefs, nil
		}
		return prefs, fmt.Errorf("read prefs: %w", err)
	}

	if err := toml.Unmarshal(data, &prefs); err != nil {
		return Default(), fmt.Errorf("parse prefs %s: %w", resolved, err)
	}

	if !validTabs[strings.TrimSpace(prefs.DefaultTab)] {
		prefs.DefaultTab = defaultTab
	}
	return prefs, nil
}

// Save writes preferences to path, creating directories as needed
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultPrefsPath
	}
	trimmed := strings.TrimSpace(path)
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
