package game

import "errors"

var (
	ErrGameOver         = errors.New("game is over")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrCardNotInHand    = errors.New("card not in hand")
	ErrIllegalPlay      = errors.New("illegal play")
	ErrChoicePending    = errors.New("a choice is pending")
	ErrNoPendingChoice  = errors.New("nothing pending")
	ErrInvalidColor     = errors.New("invalid color")
	ErrInvalidTarget    = errors.New("invalid swap target")
	ErrUnknownPlayer    = errors.New("unknown player")
	ErrStaleAutoHit     = errors.New("auto-hit no longer applies")
	ErrInvalidStackMove = errors.New("invalid stack choice")
)

// IllegalPlayMessage is the transient message shown for an illegal play
const IllegalPlayMessage = "Invalid move! Check color or value."
