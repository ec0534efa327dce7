package game

import (
	"fmt"
	"slices"

	"github.com/lox/nomercy/internal/bot"
	"github.com/lox/nomercy/internal/deck"
	"github.com/lox/nomercy/internal/rules"
)

// StackChoice answers the stacking prompt raised for a human seat
type StackChoice string

const (
	// TakeStack draws the whole pending accumulation and ends the turn
	TakeStack StackChoice = "take"
	// PlayStack closes the prompt; the player then plays a counter card
	PlayStack StackChoice = "stack"
)

// PlayCard plays cardID from playerID's hand. A wild played by a human seat
// is held until ConfirmColorSelection; bots pick their color immediately.
func (g *Game) PlayCard(playerID, cardID string) error {
	p, idx, err := g.prepare(playerID, cardID)
	if err != nil {
		return err
	}

	card := p.Hand[idx]
	if !card.IsWild() {
		g.apply(p, idx, "")
		return nil
	}

	if p.IsBot {
		rest := slices.Delete(slices.Clone(p.Hand), idx, idx+1)
		g.apply(p, idx, bot.ChooseColor(rest))
		return nil
	}

	g.pendingCard = &card
	g.choosingColor = true
	g.stackingChoice = false
	return nil
}

// PlayCardWithColor plays cardID in one step. For wilds an unusable color is
// replaced by a random real color; for other cards color is ignored.
func (g *Game) PlayCardWithColor(playerID, cardID string, color deck.Color) error {
	p, idx, err := g.prepare(playerID, cardID)
	if err != nil {
		return err
	}

	if p.Hand[idx].IsWild() && !color.IsReal() {
		color = deck.Colors[g.rng.IntN(len(deck.Colors))]
	}
	g.apply(p, idx, color)
	return nil
}

// ConfirmColorSelection completes a pending wild play
func (g *Game) ConfirmColorSelection(playerID string, color deck.Color) error {
	if g.Finished() {
		return ErrGameOver
	}
	if !g.choosingColor || g.pendingCard == nil {
		return ErrNoPendingChoice
	}
	if playerID != g.current {
		return ErrNotYourTurn
	}
	if !color.IsReal() {
		return ErrInvalidColor
	}

	p := g.CurrentPlayer()
	idx := p.cardIndex(g.pendingCard.ID)
	if idx < 0 {
		g.pendingCard = nil
		g.choosingColor = false
		return ErrCardNotInHand
	}
	g.apply(p, idx, color)
	return nil
}

func (g *Game) checkTurn(playerID string) error {
	if g.Finished() {
		return ErrGameOver
	}
	if playerID != g.current {
		return ErrNotYourTurn
	}
	return nil
}

// prepare validates a play without mutating anything except the transient
// error message
func (g *Game) prepare(playerID, cardID string) (*Player, int, error) {
	if err := g.checkTurn(playerID); err != nil {
		return nil, 0, err
	}
	if g.choosingColor || g.swapping {
		return nil, 0, ErrChoicePending
	}

	p := g.CurrentPlayer()
	idx := p.cardIndex(cardID)
	if idx < 0 {
		return nil, 0, ErrCardNotInHand
	}
	if !rules.CanPlay(p.Hand[idx], g.Context()) {
		g.setError(IllegalPlayMessage)
		return nil, 0, ErrIllegalPlay
	}
	return p, idx, nil
}

// apply moves a validated card to the discard pile and resolves its effect
func (g *Game) apply(p *Player, idx int, color deck.Color) {
	card := p.take(idx)
	stacking := g.stack > 0

	g.discard = append(g.discard, card.Played(p.ID))
	switch {
	case card.Kind == deck.Multiplier:
	case card.IsWild():
		g.activeColor = color
	default:
		g.activeColor = card.Color
	}

	adds := card.Kind == deck.Multiplier || rules.DrawPower(card) > 0
	if card.Kind == deck.Multiplier {
		g.stack *= 2
	} else {
		g.stack += rules.DrawPower(card)
	}

	eventType := EventTypePlay
	if stacking && adds {
		eventType = EventTypeStack
	}
	g.lastEvent = &Event{Type: eventType, PlayerID: p.ID, CardID: card.ID}
	g.lastAction = fmt.Sprintf("%s played %s", p.Name, card)
	if card.IsWild() {
		g.lastAction = fmt.Sprintf("%s played %s (%s)", p.Name, card, color)
	}

	g.pendingCard = nil
	g.choosingColor = false
	g.stackingChoice = false
	g.autoHitPending = false

	if len(p.Hand) == 0 {
		g.winner = p.ID
		return
	}

	if card.Kind == deck.Reverse {
		g.direction = g.direction.Flip()
	}

	if card.IsNumber(7) {
		g.swapping = true
	}

	if card.IsNumber(0) {
		g.rotateHands()
	}

	if card.Kind == deck.DiscardAll && g.mode == deck.NoMercy {
		g.discardAll(p, card.Color)
		if len(p.Hand) == 0 {
			g.winner = p.ID
			return
		}
	}

	if card.Kind == deck.SkipAll || g.swapping {
		return
	}

	steps := 1
	if card.Kind == deck.Skip || (card.Kind == deck.Reverse && len(g.players) == 2) {
		steps = 2
	}
	g.advance(steps)
}

// rotateHands passes every hand one seat along the direction of play
func (g *Game) rotateHands() {
	ring := g.Ring()
	n := len(ring)
	hands := make([][]deck.Card, n)
	for i, id := range ring {
		hands[i] = g.player(id).Hand
	}

	for i, id := range ring {
		from := (i - 1 + n) % n
		if g.direction == CounterClockwise {
			from = (i + 1) % n
		}
		g.player(id).Hand = hands[from]
	}
}

// discardAll purges cards of color, and other discard-all cards, from the
// actor's hand. They go under the top card so the top stays the one played.
func (g *Game) discardAll(p *Player, color deck.Color) {
	var kept, purged []deck.Card
	for _, c := range p.Hand {
		if c.Color == color || c.Kind == deck.DiscardAll {
			purged = append(purged, c.Played(p.ID))
			continue
		}
		kept = append(kept, c)
	}
	if len(purged) == 0 {
		return
	}

	p.Hand = kept
	top := g.discard[len(g.discard)-1]
	pile := make([]deck.Card, 0, len(g.discard)+len(purged))
	pile = append(pile, g.discard[:len(g.discard)-1]...)
	pile = append(pile, purged...)
	g.discard = append(pile, top)
}

// DrawCard draws forced cards, or the pending stack, or one card, into
// playerID's hand. Every draw ends the turn.
func (g *Game) DrawCard(playerID string, forced int) error {
	if err := g.checkTurn(playerID); err != nil {
		return err
	}
	if g.choosingColor || g.swapping {
		return ErrChoicePending
	}

	p := g.CurrentPlayer()
	count := forced
	if count <= 0 {
		count = g.stack
	}
	if count <= 0 {
		count = 1
	}

	drawn := g.draw(count)
	p.Hand = append(p.Hand, drawn...)
	g.lastEvent = &Event{Type: EventTypeDraw, PlayerID: p.ID, Count: len(drawn)}
	g.lastAction = fmt.Sprintf("%s drew %d", p.Name, len(drawn))
	g.stack = 0
	g.stackingChoice = false
	g.autoHitPending = false

	if g.mode == deck.NoMercy && len(p.Hand) > g.mercyLimit {
		if p.Primary {
			g.winner = MercyEliminated
			g.lastAction = fmt.Sprintf("%s hit the mercy limit", p.Name)
			return nil
		}
		g.eliminate(p)
		return nil
	}

	g.advance(1)
	return nil
}

// draw deals up to n cards, recycling the discard pile when the deck runs
// out. Fewer than n cards are returned if both run dry.
func (g *Game) draw(n int) []deck.Card {
	drawn := make([]deck.Card, 0, n)
	for len(drawn) < n {
		if g.deck.IsEmpty() && !g.recycle() {
			break
		}
		card, _ := g.deck.Deal()
		drawn = append(drawn, card)
	}
	return drawn
}

// recycle shuffles all but the top discard back into the deck
func (g *Game) recycle() bool {
	if len(g.discard) <= 1 {
		return false
	}

	top := g.discard[len(g.discard)-1]
	rest := make([]deck.Card, 0, len(g.discard)-1)
	for _, c := range g.discard[:len(g.discard)-1] {
		c.PlayedBy = ""
		rest = append(rest, c)
	}
	g.deck.Refill(rest)
	g.discard = []deck.Card{top}
	return true
}

// eliminate removes a seat that broke the mercy limit. Its hand leaves
// circulation.
func (g *Game) eliminate(p *Player) {
	next := Advance(g.Ring(), p.ID, g.direction, 1)
	g.removeSeat(p)
	g.eliminated = append(g.eliminated, p.ID)
	g.lastAction = fmt.Sprintf("%s was eliminated by the mercy rule", p.Name)
	g.stack = 0

	if len(g.players) == 1 {
		g.winner = g.players[0].ID
		return
	}
	g.setCurrent(next)
}

func (g *Game) removeSeat(p *Player) {
	g.abandoned += len(p.Hand)
	p.Hand = nil
	g.players = slices.DeleteFunc(g.players, func(q *Player) bool {
		return q.ID == p.ID
	})
}

// PassTurn advances the turn by one seat with no other effect
func (g *Game) PassTurn() error {
	if g.Finished() {
		return ErrGameOver
	}
	g.advance(1)
	return nil
}

// ResolveStackChoice answers the stacking prompt for the human seat
func (g *Game) ResolveStackChoice(playerID string, choice StackChoice) error {
	if err := g.checkTurn(playerID); err != nil {
		return err
	}
	if !g.stackingChoice {
		return ErrNoPendingChoice
	}

	switch choice {
	case TakeStack:
		g.stackingChoice = false
		return g.DrawCard(playerID, g.stack)
	case PlayStack:
		g.stackingChoice = false
		return nil
	default:
		return ErrInvalidStackMove
	}
}

// SwapHands completes a 7-swap by exchanging hands with targetID
func (g *Game) SwapHands(playerID, targetID string) error {
	if err := g.checkTurn(playerID); err != nil {
		return err
	}
	if !g.swapping {
		return ErrNoPendingChoice
	}

	target := g.player(targetID)
	if target == nil || targetID == playerID {
		return ErrInvalidTarget
	}

	p := g.CurrentPlayer()
	p.Hand, target.Hand = target.Hand, p.Hand
	g.swapping = false
	g.lastAction = fmt.Sprintf("%s swapped hands with %s", p.Name, target.Name)
	g.advance(1)
	return nil
}

// ResolveAutoHit forces the pending stack onto the current player. turn must
// be the value reported by AutoHitPending; anything else is stale.
func (g *Game) ResolveAutoHit(turn int) error {
	if g.Finished() {
		return ErrGameOver
	}
	pendingTurn, ok := g.AutoHitPending()
	if !ok || pendingTurn != turn {
		return ErrStaleAutoHit
	}
	return g.DrawCard(g.current, g.stack)
}

// RemovePlayer takes a seat out of a running game. If it was their turn, any
// pending choice or stack they owed is dropped and play moves on.
func (g *Game) RemovePlayer(playerID string) error {
	if g.Finished() {
		return ErrGameOver
	}
	p := g.player(playerID)
	if p == nil {
		return ErrUnknownPlayer
	}

	wasCurrent := playerID == g.current
	next := Advance(g.Ring(), g.current, g.direction, 1)
	g.removeSeat(p)
	g.lastAction = fmt.Sprintf("%s left the game", p.Name)

	if len(g.players) == 1 {
		g.winner = g.players[0].ID
		return nil
	}
	if !wasCurrent {
		return nil
	}

	g.pendingCard = nil
	g.choosingColor = false
	g.swapping = false
	g.stack = 0
	g.setCurrent(next)
	return nil
}

func (g *Game) advance(steps int) {
	g.setCurrent(Advance(g.Ring(), g.current, g.direction, steps))
}

// setCurrent hands the turn to id and evaluates a pending stack against
// their hand
func (g *Game) setCurrent(id string) {
	g.current = id
	g.turn++
	g.stackingChoice = false
	g.autoHitPending = false

	if g.stack == 0 {
		return
	}

	p := g.player(id)
	switch {
	case !rules.HasCounter(p.Hand, g.TopCard(), g.mode):
		g.autoHitPending = true
	case !p.IsBot:
		g.stackingChoice = true
	}
}
