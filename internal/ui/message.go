package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/playback"
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
	MsgSearchDone MsgKind = iota
	MsgPlayDone
	MsgPlayback
)

type searchResult struct {
	kind models.ProviderKind
	err  error
}

type playResult struct {
	track models.Track
	err   error
}

// searchDoneMsg is the constructor for [MsgSearchDone]
func searchDoneMsg(kind models.ProviderKind, err error) Msg {
	return Msg{kind: MsgSearchDone, data: searchResult{kind, err}}
}

// playDoneMsg is the constructor for [MsgPlayDone]
func playDoneMsg(t models.Track, err error) Msg {
	return Msg{kind: MsgPlayDone, data: playResult{t, err}}
}

// playbackMsg is the constructor for [MsgPlayback]
func playbackMsg(s playback.Snapshot) Msg {
	return Msg{kind: MsgPlayback, data: s}
}
