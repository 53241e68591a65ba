package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/dreamsprout/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
	err  error
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgDreamsLoaded MsgKind = iota
	MsgFavoriteToggled
	MsgDreamDeleted
)

// dreamsLoadedMsg is the constructor for [MsgDreamsLoaded]
func dreamsLoadedMsg(err error) Msg {
	return Msg{kind: MsgDreamsLoaded, err: err}
}

// favoriteToggledMsg is the constructor for [MsgFavoriteToggled]. A nil dream means nothing changed.
func favoriteToggledMsg(dream *models.Dream, err error) Msg {
	return Msg{kind: MsgFavoriteToggled, data: dream, err: err}
}

// dreamDeletedMsg is the constructor for [MsgDreamDeleted]
func dreamDeletedMsg(id string, err error) Msg {
	return Msg{kind: MsgDreamDeleted, data: id, err: err}
}
