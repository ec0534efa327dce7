package deck

import (
	"fmt"
	"math/rand/v2"
)

// Mode selects the rule set and deck manifest
type Mode string

const (
	Classic Mode = "classic"
	NoMercy Mode = "no-mercy"
)

// String returns the string representation of a mode
func (m Mode) String() string {
	return string(m)
}

// ParseMode maps anything other than "no-mercy" to Classic
func ParseMode(s string) Mode {
	if Mode(s) == NoMercy {
		return NoMercy
	}
	return Classic
}

// Size returns the number of cards in the mode's manifest
func (m Mode) Size() int {
	if m == NoMercy {
		return 168
	}
	return 108
}

// Deck is an ordered stack of cards; cards are drawn from the front
type Deck struct {
	cards []Card
	rng   *rand.Rand
}

// New builds the full manifest for mode and shuffles it with rng
func New(mode Mode, rng *rand.Rand) *Deck {
	d := &Deck{cards: Build(mode), rng: rng}
	d.Shuffle()
	return d
}

// FromCards wraps an existing sequence of cards without shuffling
func FromCards(cards []Card, rng *rand.Rand) *Deck {
	return &Deck{cards: cards, rng: rng}
}

// Build returns the unshuffled manifest for mode with ids card-0..card-N
func Build(mode Mode) []Card {
	b := &builder{cards: make([]Card, 0, mode.Size())}

	if mode == NoMercy {
		for _, color := range Colors {
			for v := 0; v <= 9; v++ {
				b.number(color, v, 2)
			}
		}
		for _, color := range Colors {
			b.action(color, Skip, 3)
			b.action(color, Reverse, 3)
			b.action(color, Draw2, 2)
			b.action(color, Draw4, 2)
			b.action(color, SkipAll, 2)
			b.action(color, DiscardAll, 3)
		}
		b.action(Black, Wild, 14)
		b.action(Black, Draw6, 8)
		b.action(Black, Draw10, 4)
		b.action(Black, Multiplier, 2)
		return b.cards
	}

	for _, color := range Colors {
		b.number(color, 0, 1)
		for v := 1; v <= 9; v++ {
			b.number(color, v, 2)
		}
		b.action(color, Skip, 2)
		b.action(color, Reverse, 2)
		b.action(color, Draw2, 2)
	}
	b.action(Black, Wild, 4)
	b.action(Black, Draw4, 4)
	return b.cards
}

type builder struct {
	cards []Card
	next  int
}

func (b *builder) id() string {
	id := fmt.Sprintf("card-%d", b.next)
	b.next++
	return id
}

func (b *builder) number(color Color, value, count int) {
	for i := 0; i < count; i++ {
		b.cards = append(b.cards, NewNumberCard(b.id(), color, value))
	}
}

func (b *builder) action(color Color, kind Kind, count int) {
	for i := 0; i < count; i++ {
		b.cards = append(b.cards, NewActionCard(b.id(), color, kind))
	}
}

// Shuffle randomizes the order of cards in the deck
func (d *Deck) Shuffle() {
	Shuffle(d.rng, d.cards)
}

// Shuffle applies a Fisher-Yates permutation to cards in place
func Shuffle(rng *rand.Rand, cards []Card) {
	for i := len(cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}

// Deal removes and returns the top card from the deck
func (d *Deck) Deal() (Card, bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}

	card := d.cards[0]
	d.cards = d.cards[1:]
	return card, true
}

// DealN deals up to n cards from the deck
func (d *Deck) DealN(n int) []Card {
	if n > len(d.cards) {
		n = len(d.cards)
	}

	cards := make([]Card, n)
	copy(cards, d.cards[:n])
	d.cards = d.cards[n:]
	return cards
}

// Return puts cards back into the deck and reshuffles it
func (d *Deck) Return(cards ...Card) {
	d.cards = append(d.cards, cards...)
	d.Shuffle()
}

// Refill replaces an exhausted deck with cards, shuffled
func (d *Deck) Refill(cards []Card) {
	d.cards = append(d.cards[:0:0], cards...)
	d.Shuffle()
}

// CardsRemaining returns the number of cards left in the deck
func (d *Deck) CardsRemaining() int {
	return len(d.cards)
}

// IsEmpty returns true if the deck has no cards left
func (d *Deck) IsEmpty() bool {
	return len(d.cards) == 0
}

// Cards returns a copy of the remaining cards in draw order
func (d *Deck) Cards() []Card {
	out := make([]Card, len(d.cards))
	copy(out, d.cards)
	return out
}
