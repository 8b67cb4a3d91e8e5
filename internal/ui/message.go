package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/singsync/internal/models"
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
	MsgTick MsgKind = iota
	MsgPublished
	MsgSaved
)

type publishResult struct {
	song *models.Song
	err  error
}

type saveResult struct {
	path string
	err  error
}

// tickMsg is the constructor for [MsgTick]
func tickMsg(t time.Time) Msg {
	return Msg{kind: MsgTick, data: t}
}

// publishedMsg is the constructor for [MsgPublished]
func publishedMsg(song *models.Song, err error) Msg {
	return Msg{kind: MsgPublished, data: publishResult{song, err}}
}

// savedMsg is the constructor for [MsgSaved]
func savedMsg(path string, err error) Msg {
	return Msg{kind: MsgSaved, data: saveResult{path, err}}
}
