package game

// EventType identifies the last visible thing that happened
type EventType string

const (
	EventTypePlay  EventType = "play"
	EventTypeDraw  EventType = "draw"
	EventTypeStack EventType = "stack"
)

// String returns the string representation of the event type
func (et EventType) String() string {
	return string(et)
}

// Event is the UI-facing signal for the most recent play or draw. It is not
// authoritative game state.
type Event struct {
	Type     EventType `json:"type"`
	PlayerID string    `json:"playerId"`
	CardID   string    `json:"cardId,omitempty"`
	Count    int       `json:"count,omitempty"`
}
