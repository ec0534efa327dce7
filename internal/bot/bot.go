// Package bot chooses moves for computer-controlled seats. Everything here
// is a pure function of a hand and the rule context.
package bot

import (
	"fmt"

	"github.com/lox/nomercy/internal/deck"
	"github.com/lox/nomercy/internal/rules"
)

// Move is a bot's chosen play. Color is set only for wild-class cards.
type Move struct {
	Card      deck.Card
	Color     deck.Color
	Reasoning string
}

// Category weights. Only the relative order matters.
var weights = map[deck.Kind]int{
	deck.Draw10:     100,
	deck.SkipAll:    90,
	deck.Draw6:      80,
	deck.Draw4:      60,
	deck.DiscardAll: 50,
	deck.Draw2:      40,
	deck.Skip:       20,
	deck.Reverse:    20,
	deck.Wild:       -10,
}

const (
	multiplierStacking = 140
	multiplierIdle     = -50
)

// ChooseMove picks the best legal card from hand, or returns false when
// nothing is playable and the caller must draw.
func ChooseMove(hand []deck.Card, top deck.Card, stack int, mode deck.Mode, active deck.Color) (Move, bool) {
	ctx := rules.Context{TopCard: top, ActiveColor: active, StackAccumulation: stack, Mode: mode}
	playable := rules.PlayableCards(hand, ctx)
	if len(playable) == 0 {
		return Move{}, false
	}

	best := playable[0]
	bestScore := score(best, stack > 0)
	for _, card := range playable[1:] {
		if s := score(card, stack > 0); s > bestScore {
			best, bestScore = card, s
		}
	}

	move := Move{
		Card:      best,
		Reasoning: fmt.Sprintf("%s scored %d of %d playable", best, bestScore, len(playable)),
	}
	if best.IsWild() {
		move.Color = ChooseColor(without(hand, best.ID))
	}
	return move, true
}

func score(card deck.Card, stacking bool) int {
	if card.Kind == deck.Multiplier {
		if stacking {
			return multiplierStacking
		}
		return multiplierIdle
	}
	if n, ok := card.Number(); ok {
		return n
	}
	return weights[card.Kind]
}

// colorPreference breaks ties when counting colors
var colorPreference = []deck.Color{deck.Red, deck.Blue, deck.Green, deck.Yellow}

// ChooseColor returns the real color the hand holds most of, red when the
// hand holds no colored cards
func ChooseColor(hand []deck.Card) deck.Color {
	counts := make(map[deck.Color]int, len(colorPreference))
	for _, c := range hand {
		if c.Color.IsReal() {
			counts[c.Color]++
		}
	}

	best := colorPreference[0]
	for _, color := range colorPreference[1:] {
		if counts[color] > counts[best] {
			best = color
		}
	}
	return best
}

// Opponent is a swap candidate
type Opponent struct {
	ID        string
	CardCount int
}

// ChooseSwapTarget picks the opponent with the fewest cards. Opponents are
// given in ring order, which breaks ties.
func ChooseSwapTarget(opponents []Opponent) (string, bool) {
	if len(opponents) == 0 {
		return "", false
	}

	best := opponents[0]
	for _, o := range opponents[1:] {
		if o.CardCount < best.CardCount {
			best = o
		}
	}
	return best.ID, true
}

func without(hand []deck.Card, id string) []deck.Card {
	out := make([]deck.Card, 0, len(hand))
	for _, c := range hand {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}
