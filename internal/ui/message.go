package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/curate/internal/models"
	"github.com/desertthunder/curate/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgQueueLoaded MsgKind = iota
	MsgLabelAdded
	MsgRunEvent
	MsgRunComplete
)

type queueLoaded struct {
	queue   []models.Label
	missing int
	err     error
}

type labelAdded struct {
	label models.Label
	err   error
}

type runComplete struct {
	result *tasks.RunResult
	err    error
}

// queueLoadedMsg is the constructor for [MsgQueueLoaded]
func queueLoadedMsg(queue []models.Label, missing int, err error) Msg {
	return Msg{kind: MsgQueueLoaded, data: queueLoaded{queue, missing, err}}
}

// labelAddedMsg is the constructor for [MsgLabelAdded]
func labelAddedMsg(label models.Label, err error) Msg {
	return Msg{kind: MsgLabelAdded, data: labelAdded{label, err}}
}

// runEventMsg is the constructor for [MsgRunEvent]
func runEventMsg(e tasks.Event) Msg {
	return Msg{kind: MsgRunEvent, data: e}
}

// runCompleteMsg is the constructor for [MsgRunComplete]
func runCompleteMsg(result *tasks.RunResult, err error) Msg {
	return Msg{kind: MsgRunComplete, data: runComplete{result, err}}
}
