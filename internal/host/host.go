// Package host owns one game session and serializes everything that touches
// it: seat input, bot turns, and timer callbacks all run on a single actor
// goroutine.
package host

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/nomercy/internal/bot"
	"github.com/lox/nomercy/internal/deck"
	"github.com/lox/nomercy/internal/game"
)

// ErrStopped is returned for requests made after the host stopped
var ErrStopped = errors.New("host stopped")

var errSuperseded = errors.New("timer superseded")

const (
	DefaultThinkDelay   = 1500 * time.Millisecond
	DefaultSafetyDelay  = 4 * time.Second
	DefaultAutoHitDelay = time.Second
)

// Config configures a Host. Zero delays are kept as zero when Immediate is
// set, otherwise they take the defaults.
type Config struct {
	ThinkDelay   time.Duration
	SafetyDelay  time.Duration
	AutoHitDelay time.Duration
	Immediate    bool

	Clock  quartz.Clock
	Logger *log.Logger

	// OnChange receives a snapshot after every mutation, on the actor goroutine
	OnChange func(game.Snapshot)

	// Autoplay drives human seats with the bot as well
	Autoplay bool

	// Strategies overrides the heuristic for individual seats
	Strategies map[string]bot.Strategy
}

type request struct {
	fn      func(*game.Game) error
	mutates bool
	reply   chan error
}

// Host runs one session. Create with New, then call Run.
type Host struct {
	cfg      Config
	logger   *log.Logger
	game     *game.Game
	requests chan request
	done     chan struct{}

	// Actor-owned
	gen    int
	timers []*quartz.Timer
}

// New creates a host for g
func New(cfg Config, g *game.Game) *Host {
	if !cfg.Immediate {
		if cfg.ThinkDelay <= 0 {
			cfg.ThinkDelay = DefaultThinkDelay
		}
		if cfg.SafetyDelay <= 0 {
			cfg.SafetyDelay = DefaultSafetyDelay
		}
		if cfg.AutoHitDelay <= 0 {
			cfg.AutoHitDelay = DefaultAutoHitDelay
		}
	}
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	return &Host{
		cfg:      cfg,
		logger:   cfg.Logger.WithPrefix("host"),
		game:     g,
		requests: make(chan request),
		done:     make(chan struct{}),
	}
}

// Run processes requests until ctx is cancelled
func (h *Host) Run(ctx context.Context) error {
	defer close(h.done)
	defer h.stopTimers()

	h.changed()

	for {
		select {
		case <-ctx.Done():
			return nil

		case req := <-h.requests:
			err := req.fn(h.game)
			if err == nil && req.mutates {
				h.changed()
			}
			req.reply <- err
		}
	}
}

// Done is closed once Run has returned
func (h *Host) Done() <-chan struct{} {
	return h.done
}

// Do runs fn on the actor goroutine and waits for it. A nil error means fn
// mutated the game; timers are rescheduled and OnChange fires.
func (h *Host) Do(ctx context.Context, fn func(*game.Game) error) error {
	return h.submit(ctx, request{fn: fn, mutates: true})
}

// View runs a read-only fn on the actor goroutine
func (h *Host) View(ctx context.Context, fn func(*game.Game)) error {
	return h.submit(ctx, request{fn: func(g *game.Game) error {
		fn(g)
		return nil
	}})
}

func (h *Host) submit(ctx context.Context, req request) error {
	req.reply = make(chan error, 1)

	select {
	case h.requests <- req:
	case <-h.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns a copy of the current state
func (h *Host) Snapshot(ctx context.Context) (game.Snapshot, error) {
	var snap game.Snapshot
	err := h.View(ctx, func(g *game.Game) {
		snap = g.Snapshot()
	})
	return snap, err
}

// Replace swaps in a new session. Timers belonging to the old one are
// cancelled.
func (h *Host) Replace(ctx context.Context, g *game.Game) error {
	return h.Do(ctx, func(*game.Game) error {
		h.game = g
		return nil
	})
}

// Play plays a card; a wild from a human seat then waits for ConfirmColor
func (h *Host) Play(ctx context.Context, playerID, cardID string) error {
	return h.Do(ctx, func(g *game.Game) error {
		return g.PlayCard(playerID, cardID)
	})
}

// PlayWithColor plays a card and resolves a wild in one step
func (h *Host) PlayWithColor(ctx context.Context, playerID, cardID string, color deck.Color) error {
	return h.Do(ctx, func(g *game.Game) error {
		return g.PlayCardWithColor(playerID, cardID, color)
	})
}

// ConfirmColor completes a pending wild play
func (h *Host) ConfirmColor(ctx context.Context, playerID string, color deck.Color) error {
	return h.Do(ctx, func(g *game.Game) error {
		return g.ConfirmColorSelection(playerID, color)
	})
}

// Draw draws for playerID and ends their turn
func (h *Host) Draw(ctx context.Context, playerID string) error {
	return h.Do(ctx, func(g *game.Game) error {
		return g.DrawCard(playerID, 0)
	})
}

// Swap completes a 7-swap
func (h *Host) Swap(ctx context.Context, playerID, targetID string) error {
	return h.Do(ctx, func(g *game.Game) error {
		return g.SwapHands(playerID, targetID)
	})
}

// ResolveStack answers the stacking prompt
func (h *Host) ResolveStack(ctx context.Context, playerID string, choice game.StackChoice) error {
	return h.Do(ctx, func(g *game.Game) error {
		return g.ResolveStackChoice(playerID, choice)
	})
}

// Remove takes a seat out of the running session
func (h *Host) Remove(ctx context.Context, playerID string) error {
	return h.Do(ctx, func(g *game.Game) error {
		return g.RemovePlayer(playerID)
	})
}

// changed reschedules timers for the new state and notifies the listener
func (h *Host) changed() {
	h.reschedule()
	if h.cfg.OnChange != nil {
		h.cfg.OnChange(h.game.Snapshot())
	}
}

func (h *Host) stopTimers() {
	for _, t := range h.timers {
		t.Stop()
	}
	h.timers = nil
}

// reschedule cancels every outstanding timer and arms the ones the current
// state needs. Callbacks carry the generation they were armed in and do
// nothing once it has moved on.
func (h *Host) reschedule() {
	h.gen++
	h.stopTimers()

	g := h.game
	if g.Finished() {
		return
	}

	if turn, ok := g.AutoHitPending(); ok {
		h.after(h.cfg.AutoHitDelay, "auto-hit", func(g *game.Game) error {
			return g.ResolveAutoHit(turn)
		})
		return
	}

	if !h.botControlled(g.CurrentPlayer()) {
		return
	}
	h.after(h.cfg.ThinkDelay, "think", func(g *game.Game) error {
		return h.botTurn(g, false)
	})
	h.after(h.cfg.SafetyDelay, "safety", func(g *game.Game) error {
		return h.botTurn(g, true)
	})
}

func (h *Host) after(d time.Duration, name string, fn func(*game.Game) error) {
	gen := h.gen
	timer := h.cfg.Clock.AfterFunc(d, func() {
		err := h.Do(context.Background(), func(g *game.Game) error {
			if h.gen != gen {
				return errSuperseded
			}
			return fn(g)
		})
		switch {
		case err == nil, errors.Is(err, errSuperseded), errors.Is(err, ErrStopped):
		default:
			h.logger.Debug("Timer action failed", "timer", name, "error", err)
		}
	})
	h.timers = append(h.timers, timer)
}

func (h *Host) botControlled(p *game.Player) bool {
	return p != nil && (p.IsBot || h.cfg.Autoplay)
}

func (h *Host) strategy(id string) bot.Strategy {
	if s, ok := h.cfg.Strategies[id]; ok {
		return s
	}
	return bot.Heuristic{}
}

// botTurn takes one decision for the current seat. On the safety retry a
// failed play falls back to drawing so the turn always resolves.
func (h *Host) botTurn(g *game.Game, safety bool) error {
	p := g.CurrentPlayer()
	id := p.ID

	switch {
	case g.IsSwapping():
		return h.swap(g, id)
	case g.IsChoosingColor():
		return g.ConfirmColorSelection(id, bot.ChooseColor(p.Hand))
	case g.IsStackingChoice():
		if err := g.ResolveStackChoice(id, game.PlayStack); err != nil {
			return err
		}
	}

	move, ok := h.strategy(id).Move(slices.Clone(p.Hand), g.Context())
	if ok {
		err := g.PlayCardWithColor(id, move.Card.ID, move.Color)
		if err == nil {
			h.logger.Debug("Bot played", "player", id, "card", move.Card.String(), "reasoning", move.Reasoning)
			if g.IsSwapping() && g.CurrentPlayerID() == id {
				return h.swap(g, id)
			}
			return nil
		}
		if !safety {
			return err
		}
		h.logger.Warn("Bot move rejected, drawing instead", "player", id, "card", move.Card.String(), "error", err)
	}

	h.logger.Debug("Bot drew", "player", id, "stack", g.StackAccumulation())
	return g.DrawCard(id, 0)
}

// swap resolves a pending 7-swap for a bot seat
func (h *Host) swap(g *game.Game, id string) error {
	target, ok := bot.ChooseSwapTarget(Opponents(g, id))
	if !ok {
		return game.ErrInvalidTarget
	}
	return g.SwapHands(id, target)
}

// Opponents lists the other living seats in ring order starting after id
func Opponents(g *game.Game, id string) []bot.Opponent {
	ring := g.Ring()
	idx := slices.Index(ring, id)

	opponents := make([]bot.Opponent, 0, len(ring))
	for i := 1; i < len(ring); i++ {
		other := ring[(idx+i)%len(ring)]
		p, _ := g.Player(other)
		opponents = append(opponents, bot.Opponent{ID: other, CardCount: p.CardCount()})
	}
	return opponents
}
