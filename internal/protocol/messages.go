// Package protocol defines the JSON messages exchanged between room clients
// and the server. Every frame is an Envelope whose data depends on its type.
package protocol

import (
	"github.com/lox/nomercy/internal/deck"
	"github.com/lox/nomercy/internal/game"
)

// MessageType identifies the type of message
type MessageType string

const (
	// Client -> Server
	TypeSetProfile   MessageType = "set-profile"
	TypeCreateRoom   MessageType = "create-room"
	TypeJoinRoom     MessageType = "join-room"
	TypeStartRoom    MessageType = "start-room"
	TypeRequestState MessageType = "request-state"
	TypePlay         MessageType = "play"
	TypeDraw         MessageType = "draw"
	TypeSwapHands    MessageType = "swap-hands"
	TypeLeaveRoom    MessageType = "leave-room"

	// Server -> Client
	TypeProfileAck MessageType = "profile-ack"
	TypeRoomState  MessageType = "room-state"
	TypeRoomJoined MessageType = "room-joined"
	TypeRoomLeft   MessageType = "room-left"
	TypeRoomError  MessageType = "room-error"
	TypeGameState  MessageType = "game-state"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}

// Client -> Server Messages

// SetProfile sets the display name used for later rooms
type SetProfile struct {
	Name string `json:"name"`
}

// CreateRoom creates a room with the sender as host
type CreateRoom struct {
	Name string `json:"name,omitempty"`
}

// JoinRoom joins an existing room by code
type JoinRoom struct {
	Code string `json:"code"`
	Name string `json:"name,omitempty"`
}

// StartRoom starts the game; only the host may send it
type StartRoom struct {
	Mode deck.Mode `json:"mode"`
}

// Play plays a card. ChosenColor is only read for wilds.
type Play struct {
	CardID      string     `json:"cardId"`
	ChosenColor deck.Color `json:"chosenColor,omitempty"`
}

// SwapHands completes a 7-swap. TargetID is an alias from the sender's view.
type SwapHands struct {
	TargetID string `json:"targetId"`
}

// Server -> Client Messages

// ProfileAck confirms the stored display name
type ProfileAck struct {
	Name string `json:"name"`
}

// RoomStatus is the lifecycle of a room
type RoomStatus string

const (
	RoomWaiting RoomStatus = "waiting"
	RoomPlaying RoomStatus = "playing"
)

// RoomPlayer is one member of a room
type RoomPlayer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	IsBot bool   `json:"isBot,omitempty"`
}

// RoomState describes a room and its members
type RoomState struct {
	Code    string       `json:"code"`
	HostID  string       `json:"hostId"`
	Status  RoomStatus   `json:"status"`
	Mode    deck.Mode    `json:"mode,omitempty"`
	Players []RoomPlayer `json:"players"`
}

// RoomJoined tells a client which room it is now in and its canonical id
type RoomJoined struct {
	Code     string `json:"code"`
	PlayerID string `json:"playerId"`
}

// RoomLeft confirms a client left its room
type RoomLeft struct {
	Code string `json:"code"`
}

// RoomError reports a rejected room intent
type RoomError struct {
	Message string `json:"message"`
}

// GameState is one viewer's perspective of the game. Ids are aliases:
// "user" is the viewer and "bot1".."bot3" are the others clockwise.
type GameState struct {
	Mode              deck.Mode          `json:"mode"`
	Players           []game.PlayerState `json:"players"`
	DiscardPile       []deck.Card        `json:"discardPile"`
	DeckCount         int                `json:"deckCount"`
	CurrentPlayerID   string             `json:"currentPlayerId"`
	Direction         game.Direction     `json:"direction"`
	StackAccumulation int                `json:"stackAccumulation"`
	ActiveColor       deck.Color         `json:"activeColor"`
	Winner            string             `json:"winner,omitempty"`
	LastEvent         *game.Event        `json:"lastEvent,omitempty"`
	LastAction        string             `json:"lastAction"`
	IsChoosingColor   bool               `json:"isChoosingColor"`
	IsSwapping        bool               `json:"isSwapping"`
	IsStackingChoice  bool               `json:"isStackingChoice"`
	Error             string             `json:"error,omitempty"`
}
