package adapter

import (
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Launcher opens catalog URLs in an external player or the browser
type Launcher struct {
	command string   // configured player command, empty for detection
	args    []string // additional arguments for the player
	logger  *slog.Logger

	// hooks for tests
	lookPath func(string) (string, error)
	start    func(name string, args ...string) error
}

// players that accept a YouTube URL directly (via yt-dlp)
var urlPlayers = map[string][]string{
	"darwin":  {"mpv", "iina-cli"},
	"linux":   {"mpv", "celluloid", "haruna"},
	"windows": {"mpv"},
}

// NewLauncher creates a new Launcher
func NewLauncher(command string, args []string, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{
		command:  command,
		args:     args,
		logger:   logger,
		lookPath: exec.LookPath,
		start: func(name string, args ...string) error {
			return exec.Command(name, args...).Start()
		},
	}
}

// Launch opens url in the configured player, a detected player, or the
// system default handler, in that order.
func (l *Launcher) Launch(url string) error {
	if !strings.HasPrefix(url, "https://") && !strings.HasPrefix(url, "http://") {
		return fmt.Errorf("refusing to open non-http URL %q", url)
	}

	// Tier 1: User configured a specific player
	if l.command != "" {
		args := append(append([]string{}, l.args...), url)
		l.logger.Info("launching player", "command", l.command, "args", args)
		return l.start(l.command, args...)
	}

	// Tier 2: a player on PATH that can stream the URL
	if name, err := l.detectAndLaunch(url); err == nil {
		l.logger.Info("launched with detected player", "player", name)
		return nil
	}

	// Tier 3: Fall back to system default (open/xdg-open/start)
	return l.launchDefault(url)
}

// Open always uses the system default handler
func (l *Launcher) Open(url string) error {
	return l.launchDefault(url)
}

func (l *Launcher) detectAndLaunch(url string) (string, error) {
	candidates, ok := urlPlayers[runtime.GOOS]
	if !ok {
		candidates = urlPlayers["linux"]
	}

	for _, name := range candidates {
		path, err := l.lookPath(name)
		if err != nil {
			continue
		}
		if err := l.start(path, url); err != nil {
			l.logger.Debug("player failed to start", "player", name, "error", err)
			continue
		}
		return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), nil
	}
	return "", fmt.Errorf("no candidate players found")
}

// launchDefault opens the URL using the system default handler
func (l *Launcher) launchDefault(url string) error {
	l.logger.Info("launching with system default", "os", runtime.GOOS, "url", url)

	switch runtime.GOOS {
	case "darwin":
		return l.start("open", url)
	case "windows":
		return l.start("cmd", "/c", "start", "", url)
	default:
		return l.start("xdg-open", url)
	}
}
