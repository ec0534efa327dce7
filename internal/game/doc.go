// Package game implements the authoritative UNO-family rules engine.
//
// The main type is Game, which owns one session: the deck, the discard pile,
// the seated players and their hands, whose turn it is, the play direction,
// the active color, and the pending draw stack. All mutation goes through the
// action methods (PlayCard, ConfirmColorSelection, DrawCard, PassTurn,
// ResolveStackChoice, SwapHands, ResolveAutoHit, RemovePlayer).
//
// # Basic Usage
//
//	g := game.New(game.Config{Mode: deck.NoMercy, Rand: randutil.New(42)})
//	snap := g.Snapshot()
//	if err := g.PlayCard(game.UserID, snap.Players[0].Hand[0].ID); err != nil {
//	    // illegal plays leave the session untouched
//	}
//
// # Concurrency
//
// A Game is not safe for concurrent use. Exactly one owner mutates it at a
// time; internal/host provides an actor loop that serializes human input,
// bot turns, and timer callbacks for one session.
//
// # Timers
//
// The engine never schedules anything itself. When a pending draw stack
// lands on a player with no counter, the game enters the auto-hit state
// (AutoHitPending) and the owner is expected to call ResolveAutoHit after
// its UI delay. ResolveAutoHit re-checks the state, so a superseded timer
// is harmless.
package game
