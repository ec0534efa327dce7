package server

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config represents the complete server configuration
type Config struct {
	Server ServerSettings
	Room   RoomSettings
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// RoomSettings configures every room the server creates
type RoomSettings struct {
	CodeLength   int  `hcl:"code_length,optional"`
	MaxPlayers   int  `hcl:"max_players,optional"`
	MinPlayers   int  `hcl:"min_players,optional"`
	FillWithBots bool `hcl:"fill_with_bots,optional"`
	BotThinkMS   int  `hcl:"bot_think_ms,optional"`
	BotSafetyMS  int  `hcl:"bot_safety_ms,optional"`
	AutoHitMS    int  `hcl:"auto_hit_ms,optional"`
}

// configFile is the HCL layout; both blocks are optional
type configFile struct {
	Server *ServerSettings `hcl:"server,block"`
	Room   *RoomSettings   `hcl:"room,block"`
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Address:  "0.0.0.0",
			Port:     3001,
			LogLevel: "info",
		},
		Room: RoomSettings{
			CodeLength:  6,
			MaxPlayers:  4,
			MinPlayers:  2,
			BotThinkMS:  1500,
			BotSafetyMS: 4000,
			AutoHitMS:   1000,
		},
	}
}

// LoadConfig loads configuration from an HCL file. A missing file yields
// the defaults.
func LoadConfig(filename string) (*Config, error) {
	config := DefaultConfig()

	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return config, nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var raw configFile
	diags = gohcl.DecodeBody(file.Body, nil, &raw)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply file values over the defaults
	if s := raw.Server; s != nil {
		if s.Address != "" {
			config.Server.Address = s.Address
		}
		if s.Port != 0 {
			config.Server.Port = s.Port
		}
		if s.LogLevel != "" {
			config.Server.LogLevel = s.LogLevel
		}
	}
	if r := raw.Room; r != nil {
		if r.CodeLength != 0 {
			config.Room.CodeLength = r.CodeLength
		}
		if r.MaxPlayers != 0 {
			config.Room.MaxPlayers = r.MaxPlayers
		}
		if r.MinPlayers != 0 {
			config.Room.MinPlayers = r.MinPlayers
		}
		if r.BotThinkMS != 0 {
			config.Room.BotThinkMS = r.BotThinkMS
		}
		if r.BotSafetyMS != 0 {
			config.Room.BotSafetyMS = r.BotSafetyMS
		}
		if r.AutoHitMS != 0 {
			config.Room.AutoHitMS = r.AutoHitMS
		}
		config.Room.FillWithBots = r.FillWithBots
	}

	return config, nil
}

// ApplyEnv overrides settings from PORT, NOMERCY_ADDRESS and
// NOMERCY_LOG_LEVEL. lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v, ok := lookup("NOMERCY_ADDRESS"); ok && v != "" {
		c.Server.Address = v
	}
	if v, ok := lookup("NOMERCY_LOG_LEVEL"); ok && v != "" {
		c.Server.LogLevel = v
	}
	return nil
}

// Validate validates the server configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	switch c.Server.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Server.LogLevel)
	}

	r := c.Room
	if r.CodeLength < 4 || r.CodeLength > 12 {
		return fmt.Errorf("room code length must be between 4 and 12, got %d", r.CodeLength)
	}
	if r.MaxPlayers < 2 || r.MaxPlayers > 4 {
		return fmt.Errorf("max players must be between 2 and 4, got %d", r.MaxPlayers)
	}
	if r.MinPlayers < 2 || r.MinPlayers > r.MaxPlayers {
		return fmt.Errorf("min players must be between 2 and %d, got %d", r.MaxPlayers, r.MinPlayers)
	}
	if r.BotThinkMS < 0 || r.AutoHitMS < 0 {
		return fmt.Errorf("delays must not be negative")
	}
	if r.BotSafetyMS <= r.BotThinkMS {
		return fmt.Errorf("bot safety delay (%dms) must exceed think delay (%dms)", r.BotSafetyMS, r.BotThinkMS)
	}

	return nil
}

// Addr returns the full listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// ThinkDelay is how long a bot seat waits before moving
func (r RoomSettings) ThinkDelay() time.Duration {
	return time.Duration(r.BotThinkMS) * time.Millisecond
}

// SafetyDelay is when a stalled bot turn is forced
func (r RoomSettings) SafetyDelay() time.Duration {
	return time.Duration(r.BotSafetyMS) * time.Millisecond
}

// AutoHitDelay is how long an uncounterable stack waits before being drawn
func (r RoomSettings) AutoHitDelay() time.Duration {
	return time.Duration(r.AutoHitMS) * time.Millisecond
}
