package server

// RoomError is a rejected room intent. Its message is shown to the player
// as-is.
type RoomError struct {
	Message string
}

func (e *RoomError) Error() string {
	return e.Message
}

var (
	ErrInvalidCode      = &RoomError{Message: "Invalid room code"}
	ErrRoomNotFound     = &RoomError{Message: "Room not found"}
	ErrRoomFull         = &RoomError{Message: "Room is full"}
	ErrRoomStarted      = &RoomError{Message: "Game already started"}
	ErrNotHost          = &RoomError{Message: "Only the host can start the game"}
	ErrNotEnoughPlayers = &RoomError{Message: "Not enough players to start"}
	ErrNotInRoom        = &RoomError{Message: "You are not in a room"}
	ErrNoGame           = &RoomError{Message: "No game in progress"}
	ErrInvalidMessage   = &RoomError{Message: "Invalid message"}
)
