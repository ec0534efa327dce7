package game

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/coder/quartz"

	"github.com/lox/nomercy/internal/deck"
	"github.com/lox/nomercy/internal/randutil"
	"github.com/lox/nomercy/internal/rules"
)

const (
	// UserID is the id of the primary human seat in a local game
	UserID = "user"
	// MercyEliminated is the winner sentinel for a human seat knocked out by the mercy rule
	MercyEliminated = "mercy_eliminated"

	DefaultHandSize   = 7
	DefaultMercyLimit = 25
	DefaultErrorTTL   = 2 * time.Second
)

// Config configures a new game session
type Config struct {
	Mode deck.Mode

	// Seats defaults to DefaultSeats(); the first seat acts first
	Seats []Seat

	// Cards, when set, is used as the deck in deal order instead of a
	// shuffled manifest
	Cards []deck.Card

	Rand       *rand.Rand
	Clock      quartz.Clock
	HandSize   int
	MercyLimit int
	ErrorTTL   time.Duration
}

// Game is one session of play. See the package documentation for the
// ownership rules.
type Game struct {
	mode       deck.Mode
	rng        *rand.Rand
	clock      quartz.Clock
	mercyLimit int
	errorTTL   time.Duration

	deck        *deck.Deck
	discard     []deck.Card
	players     []*Player
	current     string
	direction   Direction
	stack       int
	activeColor deck.Color
	winner      string

	// Pending choices
	pendingCard    *deck.Card
	choosingColor  bool
	swapping       bool
	stackingChoice bool
	autoHitPending bool

	// Transient UI signals
	lastEvent  *Event
	lastAction string
	errMsg     string
	errAt      time.Time

	turn       int
	eliminated []string
	abandoned  int
}

// New builds the deck, deals the hands, and exposes an opener that is
// never wild-class.
func New(cfg Config) *Game {
	if cfg.Mode == "" {
		cfg.Mode = deck.Classic
	}
	if len(cfg.Seats) == 0 {
		cfg.Seats = DefaultSeats()
	}
	if cfg.Rand == nil {
		cfg.Rand = randutil.New(time.Now().UnixNano())
	}
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	if cfg.HandSize <= 0 {
		cfg.HandSize = DefaultHandSize
	}
	if cfg.MercyLimit <= 0 {
		cfg.MercyLimit = DefaultMercyLimit
	}
	if cfg.ErrorTTL <= 0 {
		cfg.ErrorTTL = DefaultErrorTTL
	}

	g := &Game{
		mode:       cfg.Mode,
		rng:        cfg.Rand,
		clock:      cfg.Clock,
		mercyLimit: cfg.MercyLimit,
		errorTTL:   cfg.ErrorTTL,
		direction:  Clockwise,
	}
	if len(cfg.Cards) > 0 {
		g.deck = deck.FromCards(slices.Clone(cfg.Cards), cfg.Rand)
	} else {
		g.deck = deck.New(cfg.Mode, cfg.Rand)
	}

	for _, seat := range cfg.Seats {
		g.players = append(g.players, &Player{
			ID:       seat.ID,
			Name:     seat.Name,
			Avatar:   seat.Avatar,
			IsBot:    seat.IsBot,
			Primary:  seat.Primary,
			Position: seat.Position,
			Hand:     g.deck.DealN(cfg.HandSize),
		})
	}

	opener := g.drawOpener()
	g.discard = []deck.Card{opener}
	g.activeColor = opener.Color
	g.current = cfg.Seats[0].ID
	g.lastAction = fmt.Sprintf("%s starts", cfg.Seats[0].Name)

	return g
}

// drawOpener deals until it finds a card that is neither wild-class nor the
// multiplier, returning rejected cards to the deck
func (g *Game) drawOpener() deck.Card {
	for {
		card, ok := g.deck.Deal()
		if !ok {
			// Unreachable with a full manifest: most cards are colored.
			panic("deck exhausted while drawing opener")
		}
		if !card.Color.IsWild() {
			return card
		}
		g.deck.Return(card)
	}
}

// Mode returns the rule set in play
func (g *Game) Mode() deck.Mode { return g.mode }

// CurrentPlayerID returns the id of the player to act
func (g *Game) CurrentPlayerID() string { return g.current }

// CurrentPlayer returns the player to act
func (g *Game) CurrentPlayer() *Player { return g.player(g.current) }

// Direction returns the rotation of play
func (g *Game) Direction() Direction { return g.direction }

// StackAccumulation returns the pending forced-draw total
func (g *Game) StackAccumulation() int { return g.stack }

// ActiveColor returns the color plays must match; never black
func (g *Game) ActiveColor() deck.Color { return g.activeColor }

// Winner returns the winning player id, MercyEliminated, or ""
func (g *Game) Winner() string { return g.winner }

// Finished reports whether the session has ended
func (g *Game) Finished() bool { return g.winner != "" }

// TopCard returns the active top of the discard pile
func (g *Game) TopCard() deck.Card { return g.discard[len(g.discard)-1] }

// IsChoosingColor reports whether a wild play is waiting for its color
func (g *Game) IsChoosingColor() bool { return g.choosingColor }

// IsSwapping reports whether a 7-swap is waiting for its target
func (g *Game) IsSwapping() bool { return g.swapping }

// IsStackingChoice reports whether the human seat must choose to stack or take
func (g *Game) IsStackingChoice() bool { return g.stackingChoice }

// AutoHitPending returns the turn the pending auto-hit belongs to
func (g *Game) AutoHitPending() (int, bool) {
	return g.turn, g.autoHitPending && g.stack > 0 && !g.Finished()
}

// Turn returns a sequence number that increases every time the turn moves
func (g *Game) Turn() int { return g.turn }

// Eliminated returns the ids removed from the roster, in order
func (g *Game) Eliminated() []string {
	return append([]string(nil), g.eliminated...)
}

// Abandoned returns how many cards left circulation with removed players
func (g *Game) Abandoned() int { return g.abandoned }

// DeckCount returns the number of cards left to draw
func (g *Game) DeckCount() int { return g.deck.CardsRemaining() }

// ErrorMessage returns the transient error message until it expires
func (g *Game) ErrorMessage() string {
	if g.errMsg == "" || g.clock.Since(g.errAt) >= g.errorTTL {
		return ""
	}
	return g.errMsg
}

// ErrorExpiry returns when the current error message stops showing
func (g *Game) ErrorExpiry() (time.Time, bool) {
	if g.ErrorMessage() == "" {
		return time.Time{}, false
	}
	return g.errAt.Add(g.errorTTL), true
}

// Players returns the living players in seating order
func (g *Game) Players() []*Player {
	return slices.Clone(g.players)
}

// Ring returns the living players' ids in clockwise seating order
func (g *Game) Ring() []string {
	return Ring(g.players)
}

// Player returns a living player by id
func (g *Game) Player(id string) (*Player, bool) {
	p := g.player(id)
	return p, p != nil
}

func (g *Game) player(id string) *Player {
	for _, p := range g.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Context returns the rule context for the current position
func (g *Game) Context() rules.Context {
	return rules.Context{
		TopCard:           g.TopCard(),
		ActiveColor:       g.activeColor,
		StackAccumulation: g.stack,
		Mode:              g.mode,
	}
}

// CardsInPlay counts every card still in circulation
func (g *Game) CardsInPlay() int {
	total := g.deck.CardsRemaining() + len(g.discard)
	for _, p := range g.players {
		total += len(p.Hand)
	}
	return total
}

func (g *Game) setError(msg string) {
	g.errMsg = msg
	g.errAt = g.clock.Now()
}

// ClearError drops the transient error message
func (g *Game) ClearError() {
	g.errMsg = ""
}
