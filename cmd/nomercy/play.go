package main

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/lox/nomercy/cmd/nomercy/shared"
	"github.com/lox/nomercy/internal/deck"
	"github.com/lox/nomercy/internal/game"
	"github.com/lox/nomercy/internal/host"
	"github.com/lox/nomercy/internal/randutil"
	"github.com/lox/nomercy/internal/tui"
)

// PlayCmd runs a local game in the terminal
type PlayCmd struct {
	Mode     string `kong:"default='no-mercy',enum='classic,no-mercy',help='Rule set: classic or no-mercy'"`
	Seed     int64  `kong:"help='RNG seed for the first deal (0 for random)'"`
	ThinkMs  int    `kong:"default='1500',help='Bot think delay in milliseconds'"`
	NoColor  bool   `kong:"help='Disable colors'"`
	LogFile  string `kong:"help='Write debug logs to this file'"`
	LogLevel string `kong:"default='debug',help='Log level for --log-file'"`
}

func (c *PlayCmd) Run() error {
	if c.NoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	var out io.Writer = io.Discard
	if c.LogFile != "" {
		f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return fmt.Errorf("failed to create log file: %w", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}
	logger, err := shared.NewLogger(out, c.LogLevel)
	if err != nil {
		return err
	}

	// Deal n is seeded from (seed, n) so a session can be replayed
	_, seed := shared.ResolveSeed(logger, c.Seed)
	logger.Info("Starting local game", "mode", c.Mode)

	mode := deck.ParseMode(c.Mode)
	var deals atomic.Int64
	newGame := func() *game.Game {
		n := int(deals.Add(1) - 1)
		return game.New(game.Config{Mode: mode, Rand: randutil.New(randutil.Derive(seed, n))})
	}

	ctx, cancel := shared.SetupSignalHandler()
	defer cancel()

	return tui.Run(ctx, tui.Config{
		NewGame: newGame,
		Host: host.Config{
			ThinkDelay: time.Duration(c.ThinkMs) * time.Millisecond,
		},
		Logger: logger,
	})
}
