package bot

import (
	"math/rand/v2"

	"github.com/lox/nomercy/internal/deck"
	"github.com/lox/nomercy/internal/rules"
)

// Strategy decides a move for one seat. Implementations must not hold on to
// hand.
type Strategy interface {
	Name() string
	Move(hand []deck.Card, ctx rules.Context) (Move, bool)
}

// Heuristic plays the weighted-category strategy of ChooseMove
type Heuristic struct{}

func (Heuristic) Name() string { return "heuristic" }

func (Heuristic) Move(hand []deck.Card, ctx rules.Context) (Move, bool) {
	return ChooseMove(hand, ctx.TopCard, ctx.StackAccumulation, ctx.Mode, ctx.ActiveColor)
}

// Random plays a uniformly random legal card with a random color
type Random struct {
	rng *rand.Rand
}

// NewRandom creates a Random strategy drawing from rng
func NewRandom(rng *rand.Rand) *Random {
	return &Random{rng: rng}
}

func (r *Random) Name() string { return "random" }

func (r *Random) Move(hand []deck.Card, ctx rules.Context) (Move, bool) {
	playable := rules.PlayableCards(hand, ctx)
	if len(playable) == 0 {
		return Move{}, false
	}

	card := playable[r.rng.IntN(len(playable))]
	move := Move{Card: card, Reasoning: "random legal card"}
	if card.IsWild() {
		move.Color = deck.Colors[r.rng.IntN(len(deck.Colors))]
	}
	return move, true
}

// ByName returns a strategy by name, falling back to Heuristic
func ByName(name string, rng *rand.Rand) Strategy {
	if name == "random" {
		return NewRandom(rng)
	}
	return Heuristic{}
}
