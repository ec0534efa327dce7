// Package rules holds the pure play-validity predicates shared by move
// validation, the bots, and any client-side hand highlighting.
package rules

import "github.com/lox/nomercy/internal/deck"

// Context is the slice of game state a play is validated against
type Context struct {
	TopCard           deck.Card
	ActiveColor       deck.Color
	StackAccumulation int
	Mode              deck.Mode
}

// DrawPower returns how many cards a draw card forces, or 0
func DrawPower(c deck.Card) int {
	switch c.Kind {
	case deck.Draw2:
		return 2
	case deck.Draw4:
		return 4
	case deck.Draw6:
		return 6
	case deck.Draw10:
		return 10
	default:
		return 0
	}
}

// CanStack reports whether card may be played onto top while a draw stack is pending
func CanStack(card, top deck.Card, mode deck.Mode) bool {
	power := DrawPower(card)
	topPower := DrawPower(top)

	// The multiplier chains onto any draw card, and any draw card onto it.
	if mode == deck.NoMercy && (card.Kind == deck.Multiplier || top.Kind == deck.Multiplier) {
		return card.Kind == deck.Multiplier || power > 0
	}

	if power == 0 || topPower == 0 {
		return false
	}

	if mode == deck.NoMercy {
		return power >= topPower
	}

	return true
}

// CanPlay reports whether card is a legal play in ctx
func CanPlay(card deck.Card, ctx Context) bool {
	if ctx.StackAccumulation > 0 {
		return CanStack(card, ctx.TopCard, ctx.Mode)
	}

	// The multiplier only extends an active stack.
	if card.Kind == deck.Multiplier {
		return false
	}

	if card.Color == ctx.ActiveColor || card.Color.IsWild() {
		return true
	}

	if n, ok := card.Number(); ok {
		return ctx.TopCard.IsNumber(n)
	}

	return card.Kind == ctx.TopCard.Kind
}

// PlayableCards filters hand down to the cards CanPlay accepts, preserving order
func PlayableCards(hand []deck.Card, ctx Context) []deck.Card {
	var playable []deck.Card
	for _, c := range hand {
		if CanPlay(c, ctx) {
			playable = append(playable, c)
		}
	}
	return playable
}

// HasCounter reports whether any card in hand can be stacked onto top
func HasCounter(hand []deck.Card, top deck.Card, mode deck.Mode) bool {
	for _, c := range hand {
		if CanStack(c, top, mode) {
			return true
		}
	}
	return false
}
