package game

import (
	"fmt"

	"github.com/lox/nomercy/internal/deck"
)

// Seat describes a player at game creation. A primary seat breaking the
// mercy limit ends the game; any other seat is eliminated.
type Seat struct {
	ID       string
	Name     string
	Avatar   string
	IsBot    bool
	Primary  bool
	Position Position
}

// Player represents a seated player and the hand they own
type Player struct {
	ID       string
	Name     string
	Avatar   string
	IsBot    bool
	Primary  bool
	Position Position
	Hand     []deck.Card
}

// CardCount returns the number of cards in the player's hand
func (p *Player) CardCount() int {
	return len(p.Hand)
}

func (p *Player) cardIndex(cardID string) int {
	for i, c := range p.Hand {
		if c.ID == cardID {
			return i
		}
	}
	return -1
}

// take removes the card at idx and returns it; the hand is rebuilt so no
// other slice aliases the new hand
func (p *Player) take(idx int) deck.Card {
	card := p.Hand[idx]
	hand := make([]deck.Card, 0, len(p.Hand)-1)
	hand = append(hand, p.Hand[:idx]...)
	hand = append(hand, p.Hand[idx+1:]...)
	p.Hand = hand
	return card
}

// Avatar returns the picture for the seat at index i
func Avatar(i int) string {
	return fmt.Sprintf("https://picsum.photos/%d/%d", 101+i%4, 101+i%4)
}

// DefaultSeats are the four seats of a local game: the human at the bottom
// and three bots clockwise from them.
func DefaultSeats() []Seat {
	return []Seat{
		{ID: UserID, Name: "You", Avatar: Avatar(3), Primary: true, Position: Bottom},
		{ID: "bot1", Name: "Bot 1", Avatar: Avatar(0), IsBot: true, Position: Right},
		{ID: "bot2", Name: "Bot 2", Avatar: Avatar(1), IsBot: true, Position: Top},
		{ID: "bot3", Name: "Bot 3", Avatar: Avatar(2), IsBot: true, Position: Left},
	}
}
