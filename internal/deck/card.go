package deck

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Color represents a card color
type Color string

const (
	Red    Color = "red"
	Yellow Color = "yellow"
	Green  Color = "green"
	Blue   Color = "blue"
	Black  Color = "black"
	// Purple is a legacy wild-class color kept for compatibility with older clients
	Purple Color = "purple"
)

// Colors are the four real colors, in deck construction order
var Colors = []Color{Red, Yellow, Green, Blue}

// String returns the string representation of a color
func (c Color) String() string {
	return string(c)
}

// IsReal returns true for the four colors a wild can resolve to
func (c Color) IsReal() bool {
	switch c {
	case Red, Yellow, Green, Blue:
		return true
	default:
		return false
	}
}

// IsWild returns true for colors whose effective color is chosen at play time
func (c Color) IsWild() bool {
	return c == Black || c == Purple
}

// ParseColor parses a real color name
func ParseColor(s string) (Color, error) {
	c := Color(s)
	if !c.IsReal() {
		return "", fmt.Errorf("invalid color %q", s)
	}
	return c, nil
}

// Kind identifies what a card does
type Kind string

const (
	Number     Kind = "number"
	Skip       Kind = "skip"
	Reverse    Kind = "reverse"
	Draw2      Kind = "draw2"
	Wild       Kind = "wild"
	Draw4      Kind = "draw4"
	Draw6      Kind = "draw6"
	Draw10     Kind = "draw10"
	SkipAll    Kind = "skipAll"
	DiscardAll Kind = "discardAll"
	// Multiplier doubles a pending draw stack and has no color semantics
	Multiplier Kind = "x2"
)

// String returns the string representation of a kind
func (k Kind) String() string {
	return string(k)
}

// Card is an immutable card value. Only number cards carry a face value.
type Card struct {
	ID    string
	Color Color
	Kind  Kind
	value int
	// PlayedBy is stamped when the card is moved to the discard pile
	PlayedBy string
}

// NewNumberCard creates a number card with the given face value
func NewNumberCard(id string, color Color, value int) Card {
	return Card{ID: id, Color: color, Kind: Number, value: value}
}

// NewActionCard creates a non-number card
func NewActionCard(id string, color Color, kind Kind) Card {
	return Card{ID: id, Color: color, Kind: kind}
}

// Number returns the face value and true for number cards
func (c Card) Number() (int, bool) {
	if c.Kind != Number {
		return 0, false
	}
	return c.value, true
}

// IsNumber reports whether the card is a number card with face value v
func (c Card) IsNumber(v int) bool {
	n, ok := c.Number()
	return ok && n == v
}

// IsWild returns true for wild-class cards: black cards other than the multiplier
func (c Card) IsWild() bool {
	return c.Color.IsWild() && c.Kind != Multiplier
}

// Played returns a copy of the card stamped with the player who played it
func (c Card) Played(by string) Card {
	c.PlayedBy = by
	return c
}

// Face returns the face of the card without its color, e.g. "7" or "draw4"
func (c Card) Face() string {
	if n, ok := c.Number(); ok {
		return strconv.Itoa(n)
	}
	return c.Kind.String()
}

// String returns the string representation of a card (e.g., "red 7")
func (c Card) String() string {
	return fmt.Sprintf("%s %s", c.Color, c.Face())
}

type cardJSON struct {
	ID       string `json:"id"`
	Color    Color  `json:"color"`
	Type     Kind   `json:"type"`
	Value    *int   `json:"value,omitempty"`
	PlayedBy string `json:"playedBy,omitempty"`
}

// MarshalJSON emits value only for number cards, so a zero is never confused
// with an absent value
func (c Card) MarshalJSON() ([]byte, error) {
	out := cardJSON{ID: c.ID, Color: c.Color, Type: c.Kind, PlayedBy: c.PlayedBy}
	if n, ok := c.Number(); ok {
		out.Value = &n
	}
	return json.Marshal(out)
}

// UnmarshalJSON parses the wire form produced by MarshalJSON
func (c *Card) UnmarshalJSON(data []byte) error {
	var in cardJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*c = Card{ID: in.ID, Color: in.Color, Kind: in.Type, PlayedBy: in.PlayedBy}
	if in.Type == Number {
		if in.Value == nil {
			return fmt.Errorf("number card %s has no value", in.ID)
		}
		c.value = *in.Value
	}
	return nil
}
