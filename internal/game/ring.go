package game

import "slices"

// Position fixes a seat at the table
type Position string

const (
	Bottom Position = "bottom"
	Right  Position = "right"
	Top    Position = "top"
	Left   Position = "left"
)

// TableOrder is the clockwise seating order
var TableOrder = []Position{Bottom, Right, Top, Left}

func (p Position) order() int {
	return slices.Index(TableOrder, p)
}

// Direction is the rotation of play
type Direction string

const (
	Clockwise        Direction = "cw"
	CounterClockwise Direction = "ccw"
)

// Flip returns the opposite direction
func (d Direction) Flip() Direction {
	if d == Clockwise {
		return CounterClockwise
	}
	return Clockwise
}

// Ring returns the ids of the given players ordered by seat position,
// clockwise from the bottom seat. Insertion order does not matter, so the
// ring closes around eliminated seats.
func Ring(players []*Player) []string {
	seated := slices.Clone(players)
	slices.SortStableFunc(seated, func(a, b *Player) int {
		return a.Position.order() - b.Position.order()
	})

	ring := make([]string, len(seated))
	for i, p := range seated {
		ring[i] = p.ID
	}
	return ring
}

// Advance returns the id steps seats away from current in direction.
// If current is not in the ring it is returned unchanged.
func Advance(ring []string, current string, direction Direction, steps int) string {
	idx := slices.Index(ring, current)
	if idx < 0 || len(ring) == 0 {
		return current
	}

	move := steps
	if direction == CounterClockwise {
		move = -steps
	}

	n := len(ring)
	next := ((idx+move)%n + n) % n
	return ring[next]
}
