package server

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/lox/nomercy/internal/deck"
	"github.com/lox/nomercy/internal/game"
	"github.com/lox/nomercy/internal/host"
	"github.com/lox/nomercy/internal/protocol"
)

// roomMember is a connected player seated in a room
type roomMember struct {
	id     string
	name   string
	client Client
}

// Room groups up to four players around one session. Membership is
// guarded by the lobby lock; the session itself is owned by its host and
// only touched through it.
type Room struct {
	code   string
	logger *log.Logger

	hostID  string
	status  protocol.RoomStatus
	mode    deck.Mode
	members []roomMember

	session *host.Host
	stop    context.CancelFunc

	// audience is the member list the host goroutine broadcasts to
	mu       sync.RWMutex
	audience []roomMember
}

func newRoom(code string, logger *log.Logger) *Room {
	return &Room{
		code:   code,
		logger: logger.WithPrefix("room").With("code", code),
		status: protocol.RoomWaiting,
	}
}

func (r *Room) add(m roomMember) {
	r.members = append(r.members, m)
	if r.hostID == "" {
		r.hostID = m.id
	}
	r.publish()
}

// remove drops a member and hands the host role to the next one in join
// order
func (r *Room) remove(id string) {
	r.members = slices.DeleteFunc(r.members, func(m roomMember) bool { return m.id == id })
	if r.hostID == id {
		r.hostID = ""
		if len(r.members) > 0 {
			r.hostID = r.members[0].id
		}
	}
	r.publish()
}

func (r *Room) has(id string) bool {
	return slices.ContainsFunc(r.members, func(m roomMember) bool { return m.id == id })
}

func (r *Room) publish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.audience = slices.Clone(r.members)
}

func (r *Room) recipients() []roomMember {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.audience
}

func (r *Room) state() protocol.RoomState {
	state := protocol.RoomState{
		Code:    r.code,
		HostID:  r.hostID,
		Status:  r.status,
		Mode:    r.mode,
		Players: make([]protocol.RoomPlayer, 0, len(r.members)),
	}
	for _, m := range r.members {
		state.Players = append(state.Players, protocol.RoomPlayer{ID: m.id, Name: m.name})
	}
	return state
}

// broadcastState sends room-state to every member
func (r *Room) broadcastState() {
	state := r.state()
	for _, m := range r.members {
		if err := m.client.Send(protocol.TypeRoomState, state); err != nil {
			r.logger.Debug("Failed to send room state", "player", m.id, "error", err)
		}
	}
}

// broadcastGame sends every member their own perspective of snap. It runs
// on the session's host goroutine.
func (r *Room) broadcastGame(snap game.Snapshot) {
	for _, m := range r.recipients() {
		if err := m.client.Send(protocol.TypeGameState, Perspective(snap, m.id)); err != nil {
			r.logger.Debug("Failed to send game state", "player", m.id, "error", err)
		}
	}
}

// start seats the members, fills the remaining seats with bots when asked,
// and runs a fresh session. Any previous session is stopped first. No seat
// is primary: a member breaking the mercy limit is eliminated and the rest
// play on.
func (r *Room) start(ctx context.Context, mode deck.Mode, settings RoomSettings, gameCfg game.Config, hostCfg host.Config) error {
	seats := make([]game.Seat, 0, settings.MaxPlayers)
	for _, m := range r.members {
		seats = append(seats, game.Seat{ID: m.id, Name: m.name})
	}
	if settings.FillWithBots {
		for n := 1; len(seats) < settings.MaxPlayers; n++ {
			seats = append(seats, game.Seat{
				ID:    fmt.Sprintf("%s-bot%d", r.code, n),
				Name:  fmt.Sprintf("Bot %d", n),
				IsBot: true,
			})
		}
	}
	if len(seats) < settings.MinPlayers {
		return ErrNotEnoughPlayers
	}

	for i, pos := range seatPositions(len(seats)) {
		seats[i].Position = pos
		seats[i].Avatar = game.Avatar(i)
	}

	r.shutdown()

	gameCfg.Mode = mode
	gameCfg.Seats = seats
	hostCfg.Logger = r.logger
	hostCfg.OnChange = r.broadcastGame

	runCtx, cancel := context.WithCancel(ctx)
	session := host.New(hostCfg, game.New(gameCfg))
	r.session = session
	r.stop = cancel
	r.status = protocol.RoomPlaying
	r.mode = mode

	r.logger.Info("Game started", "mode", mode, "seats", len(seats))
	r.broadcastState()

	go func() {
		if err := session.Run(runCtx); err != nil {
			r.logger.Error("Session stopped", "error", err)
		}
	}()
	return nil
}

// shutdown stops the running session, if any
func (r *Room) shutdown() {
	if r.stop != nil {
		r.stop()
		r.stop = nil
	}
}
