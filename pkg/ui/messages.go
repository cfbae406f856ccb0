package ui

import (
	"github.com/fd1az/token-deployer/business/token/domain"
)

// Message types for TUI updates

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}

// LogMsg is sent to display a log message in the UI.
type LogMsg struct {
	Level   string // "DEBUG", "INFO", "SUCCESS", "WARN", "ERROR"
	Message string
}

// StartupMsg is sent during application startup to show progress.
type StartupMsg struct {
	Step    string // config, network, wallet, token
	Status  string // "connecting", "connected", "failed"
	Message string // Optional message
}

// ReadyMsg signals that modules started and the menu can be used.
type ReadyMsg struct{}

// ErrorMsg is sent when an error occurs outside an action.
type ErrorMsg struct {
	Error error
}

// ActionDoneMsg is sent when a menu action finishes.
type ActionDoneMsg struct {
	Action  Action
	Summary []string
	Err     error
}

// StatusMsg carries a fresh wallet and network snapshot.
type StatusMsg struct {
	Status *domain.Status
	Err    error
}
