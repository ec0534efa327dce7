package main

import (
	"fmt"
	"os"
	"time"

	"github.com/lox/nomercy/cmd/nomercy/shared"
	"github.com/lox/nomercy/internal/deck"
	"github.com/lox/nomercy/internal/fileutil"
	"github.com/lox/nomercy/internal/randutil"
	"github.com/lox/nomercy/internal/simulator"
)

// SimulateCmd plays bot-only games and prints aggregate results
type SimulateCmd struct {
	Games    int           `kong:"default='1000',help='Number of games to simulate'"`
	Mode     string        `kong:"default='no-mercy',enum='classic,no-mercy',help='Rule set: classic or no-mercy'"`
	Opponent string        `kong:"default='heuristic',enum='heuristic,random',help='Strategy for the three bot seats'"`
	Seed     int64         `kong:"help='RNG seed (0 for random)'"`
	Workers  int           `kong:"help='Games played concurrently (default GOMAXPROCS)'"`
	Timeout  time.Duration `kong:"default='30s',help='Per-game timeout'"`
	Out      string        `kong:"help='Write a JSON summary to this file'"`
	Verbose  bool          `kong:"short='V',help='Verbose logging'"`
}

func (c *SimulateCmd) Run() error {
	level := "warn"
	if c.Verbose {
		level = "debug"
	}
	logger, err := shared.SetupLogger(level)
	if err != nil {
		return err
	}

	_, seed := randutil.Resolve(c.Seed)
	mode := deck.ParseMode(c.Mode)

	fmt.Printf("Starting simulation: %d %s games vs %s bots (seed: %d)\n", c.Games, mode, c.Opponent, seed)

	ctx, cancel := shared.SetupSignalHandler()
	defer cancel()

	interval := max(c.Games/10, 1)
	start := time.Now()
	sim := simulator.New(simulator.Config{
		Games:    c.Games,
		Mode:     mode,
		Seed:     seed,
		Workers:  c.Workers,
		Opponent: c.Opponent,
		Timeout:  c.Timeout,
		Logger:   logger,
		Progress: func(done int) {
			if done%interval == 0 || done == c.Games {
				elapsed := time.Since(start)
				fmt.Printf("Game %d/%d (%.0f games/sec)\n", done, c.Games, float64(done)/elapsed.Seconds())
			}
		},
	})

	stats, err := sim.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Println()
	simulator.PrintSummary(os.Stdout, stats, mode, c.Opponent)
	fmt.Printf("\nCompleted in %v\n", time.Since(start).Round(time.Millisecond))

	if c.Out != "" {
		if err := fileutil.WriteJSONAtomic(c.Out, stats.Summary(), 0o644); err != nil {
			return err
		}
		logger.Info("Wrote summary", "file", c.Out)
	}
	return nil
}
