// Package simulator plays batches of bot-only games through the session host
// and aggregates the outcomes.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/lox/nomercy/internal/bot"
	"github.com/lox/nomercy/internal/deck"
	"github.com/lox/nomercy/internal/game"
	"github.com/lox/nomercy/internal/host"
	"github.com/lox/nomercy/internal/randutil"
	"github.com/lox/nomercy/internal/statistics"
)

// DefaultTimeout bounds a single game
const DefaultTimeout = 30 * time.Second

// Config holds configuration for running simulations
type Config struct {
	Games int
	Mode  deck.Mode
	Seed  int64
	// Workers is the number of games played concurrently; defaults to GOMAXPROCS
	Workers int
	// Opponent names the strategy for the three bot seats; the user seat
	// always plays the heuristic
	Opponent string
	Timeout  time.Duration
	Logger   *log.Logger
	// Progress is called after every finished game with the running total
	Progress func(done int)
}

// Simulator runs game simulations
type Simulator struct {
	config Config
}

// New creates a new simulator with the given configuration
func New(config Config) *Simulator {
	if config.Workers <= 0 {
		config.Workers = runtime.GOMAXPROCS(0)
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Mode == "" {
		config.Mode = deck.NoMercy
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}
	return &Simulator{config: config}
}

// Run plays every game and returns the merged statistics. Game i is dealt
// from a seed derived from (Seed, i), so results do not depend on Workers.
func (s *Simulator) Run(ctx context.Context) (*statistics.Statistics, error) {
	if s.config.Games <= 0 {
		return nil, fmt.Errorf("invalid games count: %d", s.config.Games)
	}

	workers := min(s.config.Workers, s.config.Games)
	g, ctx := errgroup.WithContext(ctx)
	results := make(chan *statistics.Statistics, workers)
	finished := make(chan struct{}, s.config.Games)

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			stats := statistics.New()
			for i := w; i < s.config.Games; i += workers {
				seed := randutil.Derive(s.config.Seed, i)
				result, err := s.PlayGame(ctx, seed)
				if err != nil {
					return fmt.Errorf("game %d: %w", i+1, err)
				}
				stats.Add(result)
				finished <- struct{}{}
			}

			select {
			case results <- stats:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}

	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		for done := 1; done <= s.config.Games; done++ {
			select {
			case <-finished:
			case <-ctx.Done():
				return
			}
			if s.config.Progress != nil {
				s.config.Progress(done)
			}
		}
	}()

	go func() {
		defer close(results)
		_ = g.Wait()
	}()

	total := statistics.New()
	for stats := range results {
		total.Merge(stats)
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	<-progressDone

	if err := total.Validate(); err != nil {
		return nil, fmt.Errorf("statistics validation failed: %w", err)
	}
	return total, nil
}

// PlayGame plays one game to the end with every seat bot-driven
func (s *Simulator) PlayGame(ctx context.Context, seed int64) (statistics.GameResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	seats := game.DefaultSeats()
	strategies := make(map[string]bot.Strategy, len(seats))
	for i, seat := range seats {
		if !seat.IsBot {
			continue
		}
		strategies[seat.ID] = bot.ByName(s.config.Opponent, randutil.New(randutil.Derive(seed, i)))
	}

	g := game.New(game.Config{
		Mode:  s.config.Mode,
		Seats: seats,
		Rand:  randutil.New(seed),
	})

	over := make(chan game.Snapshot, 1)
	h := host.New(host.Config{
		Immediate:  true,
		Autoplay:   true,
		Logger:     s.config.Logger,
		Strategies: strategies,
		OnChange: func(snap game.Snapshot) {
			if !snap.Finished() {
				return
			}
			select {
			case over <- snap:
			default:
			}
		},
	}, g)

	runCtx, stop := context.WithCancel(ctx)
	defer func() {
		stop()
		<-h.Done()
	}()
	go func() {
		if err := h.Run(runCtx); err != nil {
			s.config.Logger.Error("Session host stopped", "error", err, "seed", seed)
		}
	}()

	select {
	case snap := <-over:
		result := statistics.GameResult{
			Seed:   seed,
			Mode:   s.config.Mode,
			Winner: snap.Winner,
			Turns:  snap.Turn,
		}
		err := h.View(ctx, func(g *game.Game) {
			result.Eliminated = g.Eliminated()
			result.Abandoned = g.Abandoned()
		})
		if err != nil {
			return statistics.GameResult{}, err
		}
		s.config.Logger.Debug("Game finished", "seed", seed, "winner", result.Winner, "turns", result.Turns)
		return result, nil

	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return statistics.GameResult{}, fmt.Errorf("game timed out after %v (seed: %d)", s.config.Timeout, seed)
		}
		return statistics.GameResult{}, ctx.Err()
	}
}
