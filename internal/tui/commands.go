package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lox/nomercy/internal/deck"
)

// Action is a command verb typed at the prompt
type Action string

const (
	ActionPlay  Action = "play"
	ActionDraw  Action = "draw"
	ActionColor Action = "color"
	ActionSwap  Action = "swap"
	ActionTake  Action = "take"
	ActionStack Action = "stack"
	ActionNew   Action = "new"
	ActionQuit  Action = "quit"
)

var aliases = map[string]Action{
	"p":    ActionPlay,
	"d":    ActionDraw,
	"c":    ActionColor,
	"s":    ActionSwap,
	"q":    ActionQuit,
	"exit": ActionQuit,
}

var colorShorthand = map[string]deck.Color{
	"r": deck.Red,
	"y": deck.Yellow,
	"g": deck.Green,
	"b": deck.Blue,
}

// ErrEmptyCommand is returned for a blank prompt
var ErrEmptyCommand = errors.New("empty command")

// Command is a parsed prompt line
type Command struct {
	Action Action
	// Index is the 1-based position of the card in the hand for play
	Index int
	// Color is the wild color for play and color
	Color deck.Color
	// Target is the seat to swap with
	Target string
}

// ParseCommand parses one line typed at the prompt
func ParseCommand(input string) (Command, error) {
	fields := strings.Fields(strings.ToLower(input))
	if len(fields) == 0 {
		return Command{}, ErrEmptyCommand
	}

	action := Action(fields[0])
	if a, ok := aliases[fields[0]]; ok {
		action = a
	}
	args := fields[1:]
	cmd := Command{Action: action}

	switch action {
	case ActionPlay:
		if len(args) < 1 || len(args) > 2 {
			return Command{}, fmt.Errorf("usage: play <n> [color]")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return Command{}, fmt.Errorf("invalid card number %q", args[0])
		}
		cmd.Index = n
		if len(args) == 2 {
			c, err := parseColor(args[1])
			if err != nil {
				return Command{}, err
			}
			cmd.Color = c
		}

	case ActionColor:
		if len(args) != 1 {
			return Command{}, fmt.Errorf("usage: color <red|yellow|green|blue>")
		}
		c, err := parseColor(args[0])
		if err != nil {
			return Command{}, err
		}
		cmd.Color = c

	case ActionSwap:
		if len(args) != 1 {
			return Command{}, fmt.Errorf("usage: swap <player>")
		}
		cmd.Target = args[0]

	case ActionDraw, ActionTake, ActionStack, ActionNew, ActionQuit:
		if len(args) != 0 {
			return Command{}, fmt.Errorf("%s takes no arguments", action)
		}

	default:
		return Command{}, fmt.Errorf("unknown command %q", fields[0])
	}

	return cmd, nil
}

func parseColor(s string) (deck.Color, error) {
	if c, ok := colorShorthand[s]; ok {
		return c, nil
	}
	return deck.ParseColor(s)
}
