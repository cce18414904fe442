package tui

import (
	"github.com/nepalihub/portal/internal/collection"
	"github.com/nepalihub/portal/internal/session"
)

// Message types for the TUI

// FetchDoneMsg signals that a collection fetch finished
type FetchDoneMsg struct {
	Kind collection.Kind
	Err  error
}

// CollectionChangedMsg signals a collection state transition
type CollectionChangedMsg struct {
	Kind   collection.Kind
	Status collection.Status
}

// SessionChangedMsg carries a new session snapshot
type SessionChangedMsg struct {
	State session.State
}

// BootstrapDoneMsg signals that the restored session was validated
type BootstrapDoneMsg struct {
	Err error
}

// LaunchedMsg signals that a URL was handed to the player
type LaunchedMsg struct {
	URL string
	Err error
}

// CopiedMsg signals that a URL was copied to the clipboard
type CopiedMsg struct {
	URL string
	Err error
}
