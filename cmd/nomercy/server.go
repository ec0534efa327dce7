package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/lox/nomercy/cmd/nomercy/shared"
	"github.com/lox/nomercy/internal/server"
)

// ServerCmd runs the room server
type ServerCmd struct {
	Config   string `kong:"default='nomercy.hcl',help='HCL config file (optional)'"`
	EnvFile  string `kong:"default='.env',help='Dotenv file loaded before the environment is read'"`
	Address  string `kong:"help='Listen address, overrides the config file'"`
	Port     int    `kong:"help='Listen port, overrides the config file and PORT'"`
	LogLevel string `kong:"help='Log level: debug, info, warn, error'"`
	Bots     bool   `kong:"help='Fill empty seats with bots when a room starts'"`
	Seed     int64  `kong:"help='RNG seed for room codes and deals (0 for random)'"`
}

func (c *ServerCmd) Run() error {
	if err := godotenv.Load(c.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return err
	}
	c.override(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := shared.SetupLogger(cfg.Server.LogLevel)
	if err != nil {
		return err
	}

	rng, _ := shared.ResolveSeed(logger, c.Seed)
	s := server.NewServer(cfg, logger, server.WithRand(rng))

	logger.Info("Starting nomercy server",
		"address", cfg.Addr(),
		"code_length", cfg.Room.CodeLength,
		"min_players", cfg.Room.MinPlayers,
		"max_players", cfg.Room.MaxPlayers,
		"fill_with_bots", cfg.Room.FillWithBots,
		"bot_think", cfg.Room.ThinkDelay(),
	)

	// Setup graceful shutdown
	ctx := shared.SetupSignalHandlerWithLogger(logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(s.Start)
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// override applies command line flags on top of the file and environment
func (c *ServerCmd) override(cfg *server.Config) {
	if c.Address != "" {
		cfg.Server.Address = c.Address
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if c.LogLevel != "" {
		cfg.Server.LogLevel = c.LogLevel
	}
	if c.Bots {
		cfg.Room.FillWithBots = true
	}
}
