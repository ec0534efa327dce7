package game

import (
	"slices"

	"github.com/lox/nomercy/internal/deck"
)

// PlayerState is a copy of one seat as seen in a Snapshot
type PlayerState struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Avatar    string      `json:"avatar"`
	CardCount int         `json:"cardCount"`
	IsBot     bool        `json:"isBot"`
	Position  Position    `json:"position"`
	Hand      []deck.Card `json:"hand"`
}

// Snapshot is a detached copy of the whole session. Nothing in it aliases
// the game's own slices.
type Snapshot struct {
	Mode              deck.Mode     `json:"mode"`
	Players           []PlayerState `json:"players"`
	DiscardPile       []deck.Card   `json:"discardPile"`
	DeckCount         int           `json:"deckCount"`
	CurrentPlayerID   string        `json:"currentPlayerId"`
	Direction         Direction     `json:"direction"`
	StackAccumulation int           `json:"stackAccumulation"`
	ActiveColor       deck.Color    `json:"activeColor"`
	Winner            string        `json:"winner,omitempty"`
	LastEvent         *Event        `json:"lastEvent,omitempty"`
	LastAction        string        `json:"lastAction"`
	PendingCardPlayed *deck.Card    `json:"pendingCardPlayed,omitempty"`
	IsChoosingColor   bool          `json:"isChoosingColor"`
	IsSwapping        bool          `json:"isSwapping"`
	IsStackingChoice  bool          `json:"isStackingChoice"`
	AutoHitPending    bool          `json:"autoHitPending"`
	Turn              int           `json:"turn"`
	Error             string        `json:"error,omitempty"`
}

// Snapshot copies the current state
func (g *Game) Snapshot() Snapshot {
	s := Snapshot{
		Mode:              g.mode,
		DiscardPile:       slices.Clone(g.discard),
		DeckCount:         g.deck.CardsRemaining(),
		CurrentPlayerID:   g.current,
		Direction:         g.direction,
		StackAccumulation: g.stack,
		ActiveColor:       g.activeColor,
		Winner:            g.winner,
		LastAction:        g.lastAction,
		IsChoosingColor:   g.choosingColor,
		IsSwapping:        g.swapping,
		IsStackingChoice:  g.stackingChoice,
		Turn:              g.turn,
		Error:             g.ErrorMessage(),
	}
	_, s.AutoHitPending = g.AutoHitPending()

	if g.lastEvent != nil {
		ev := *g.lastEvent
		s.LastEvent = &ev
	}
	if g.pendingCard != nil {
		card := *g.pendingCard
		s.PendingCardPlayed = &card
	}

	s.Players = make([]PlayerState, len(g.players))
	for i, p := range g.players {
		s.Players[i] = PlayerState{
			ID:        p.ID,
			Name:      p.Name,
			Avatar:    p.Avatar,
			CardCount: len(p.Hand),
			IsBot:     p.IsBot,
			Position:  p.Position,
			Hand:      slices.Clone(p.Hand),
		}
	}
	return s
}

// Player returns the state of a seat by id
func (s Snapshot) Player(id string) (PlayerState, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return PlayerState{}, false
}

// TopCard returns the active top of the discard pile
func (s Snapshot) TopCard() deck.Card {
	return s.DiscardPile[len(s.DiscardPile)-1]
}

// Finished reports whether the session had ended
func (s Snapshot) Finished() bool {
	return s.Winner != ""
}
