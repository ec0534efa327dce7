package server

import (
	"fmt"
	"slices"

	"github.com/lox/nomercy/internal/deck"
	"github.com/lox/nomercy/internal/game"
	"github.com/lox/nomercy/internal/protocol"
)

// seatPositions spreads n seats around the table starting at the bottom
func seatPositions(n int) []game.Position {
	switch n {
	case 2:
		return []game.Position{game.Bottom, game.Top}
	case 3:
		return []game.Position{game.Bottom, game.Right, game.Top}
	default:
		return slices.Clone(game.TableOrder[:min(n, len(game.TableOrder))])
	}
}

// viewOrder returns the players clockwise from the viewer. If the viewer
// is not seated the order starts at the bottom seat.
func viewOrder(players []game.PlayerState, viewerID string) []game.PlayerState {
	ordered := slices.Clone(players)
	slices.SortStableFunc(ordered, func(a, b game.PlayerState) int {
		return slices.Index(game.TableOrder, a.Position) - slices.Index(game.TableOrder, b.Position)
	})

	idx := slices.IndexFunc(ordered, func(p game.PlayerState) bool { return p.ID == viewerID })
	if idx > 0 {
		ordered = slices.Concat(ordered[idx:], ordered[:idx])
	}
	return ordered
}

// aliases maps canonical ids to the viewer-relative ids: "user" for the
// viewer and "bot1", "bot2", ... for everyone else clockwise.
func aliases(snap game.Snapshot, viewerID string) map[string]string {
	table := make(map[string]string, len(snap.Players))
	n := 0
	for _, p := range viewOrder(snap.Players, viewerID) {
		if p.ID == viewerID {
			table[p.ID] = game.UserID
			continue
		}
		n++
		table[p.ID] = fmt.Sprintf("bot%d", n)
	}
	return table
}

// canonicalID resolves an alias from viewerID's perspective
func canonicalID(snap game.Snapshot, viewerID, alias string) (string, bool) {
	for id, a := range aliases(snap, viewerID) {
		if a == alias {
			return id, true
		}
	}
	return "", false
}

// Perspective projects snap for one viewer. Ids are aliased, positions
// are rotated so the viewer sits at the bottom, and every hand except the
// viewer's is emptied. Choice flags are left for the client to derive,
// except IsSwapping which only the swapping player sees.
func Perspective(snap game.Snapshot, viewerID string) protocol.GameState {
	table := aliases(snap, viewerID)

	ordered := viewOrder(snap.Players, viewerID)
	positions := seatPositions(len(ordered))
	players := make([]game.PlayerState, len(ordered))
	for i, p := range ordered {
		p.ID = table[p.ID]
		p.Position = positions[i]
		if p.ID != game.UserID {
			p.Hand = []deck.Card{}
		}
		players[i] = p
	}

	discard := slices.Clone(snap.DiscardPile)
	for i := range discard {
		discard[i].PlayedBy = table[discard[i].PlayedBy]
	}

	state := protocol.GameState{
		Mode:              snap.Mode,
		Players:           players,
		DiscardPile:       discard,
		DeckCount:         snap.DeckCount,
		CurrentPlayerID:   table[snap.CurrentPlayerID],
		Direction:         snap.Direction,
		StackAccumulation: snap.StackAccumulation,
		ActiveColor:       snap.ActiveColor,
		LastAction:        snap.LastAction,
		IsSwapping:        snap.IsSwapping && snap.CurrentPlayerID == viewerID,
	}

	switch snap.Winner {
	case "":
	case game.MercyEliminated:
		state.Winner = game.MercyEliminated
	default:
		state.Winner = table[snap.Winner]
	}

	if snap.LastEvent != nil {
		ev := *snap.LastEvent
		ev.PlayerID = table[ev.PlayerID]
		state.LastEvent = &ev
	}

	return state
}
