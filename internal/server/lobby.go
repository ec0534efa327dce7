package server

import (
	"context"
	"errors"
	rand "math/rand/v2"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/nomercy/internal/deck"
	"github.com/lox/nomercy/internal/game"
	"github.com/lox/nomercy/internal/host"
	"github.com/lox/nomercy/internal/protocol"
	"github.com/lox/nomercy/internal/randutil"
	"github.com/lox/nomercy/internal/roomcode"
)

const (
	defaultName   = "Player"
	maxNameLength = 24
)

// Client is the lobby's view of a connection
type Client interface {
	ID() string
	Send(messageType protocol.MessageType, data any) error
}

type clientInfo struct {
	name string
	room string
}

// Lobby tracks connected clients and their rooms and turns intents into
// room and session operations. Membership changes are serialized by the
// lobby lock; game intents are serialized by each room's host.
type Lobby struct {
	settings RoomSettings
	clock    quartz.Clock
	logger   *log.Logger
	ctx      context.Context
	cancel   context.CancelFunc

	mu      sync.Mutex
	rng     *rand.Rand
	codes   *roomcode.Generator
	rooms   map[string]*Room
	clients map[string]*clientInfo
}

// LobbyOptions carries the lobby's collaborators. Zero values get real
// implementations.
type LobbyOptions struct {
	Rand   *rand.Rand
	Clock  quartz.Clock
	Logger *log.Logger
}

// NewLobby creates an empty lobby. Sessions stop when ctx is cancelled or
// Close is called.
func NewLobby(ctx context.Context, settings RoomSettings, opts LobbyOptions) *Lobby {
	if opts.Rand == nil {
		opts.Rand, _ = randutil.Resolve(0)
	}
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	ctx, cancel := context.WithCancel(ctx)
	return &Lobby{
		settings: settings,
		clock:    opts.Clock,
		logger:   opts.Logger.WithPrefix("lobby"),
		ctx:      ctx,
		cancel:   cancel,
		rng:      opts.Rand,
		codes:    roomcode.NewGenerator(opts.Rand, settings.CodeLength),
		rooms:    make(map[string]*Room),
		clients:  make(map[string]*clientInfo),
	}
}

// Close stops every running session
func (l *Lobby) Close() {
	l.cancel()
}

// RoomCount returns the number of open rooms
func (l *Lobby) RoomCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.rooms)
}

// Handle decodes one intent from c and applies it. Failures are reported
// back to c as room-error events.
func (l *Lobby) Handle(c Client, env *protocol.Envelope) {
	l.reply(c, l.dispatch(c, env))
}

func (l *Lobby) dispatch(c Client, env *protocol.Envelope) error {
	switch env.Type {
	case protocol.TypeSetProfile:
		var data protocol.SetProfile
		if err := env.Unmarshal(&data); err != nil {
			return ErrInvalidMessage
		}
		return l.SetProfile(c, data.Name)

	case protocol.TypeCreateRoom:
		var data protocol.CreateRoom
		if err := env.Unmarshal(&data); err != nil {
			return ErrInvalidMessage
		}
		return l.CreateRoom(c, data.Name)

	case protocol.TypeJoinRoom:
		var data protocol.JoinRoom
		if err := env.Unmarshal(&data); err != nil {
			return ErrInvalidMessage
		}
		return l.JoinRoom(c, data.Code, data.Name)

	case protocol.TypeStartRoom:
		var data protocol.StartRoom
		if err := env.Unmarshal(&data); err != nil {
			return ErrInvalidMessage
		}
		return l.StartRoom(c, data.Mode)

	case protocol.TypeRequestState:
		return l.RequestState(c)

	case protocol.TypePlay:
		var data protocol.Play
		if err := env.Unmarshal(&data); err != nil {
			return ErrInvalidMessage
		}
		return l.Play(c, data.CardID, data.ChosenColor)

	case protocol.TypeDraw:
		return l.Draw(c)

	case protocol.TypeSwapHands:
		var data protocol.SwapHands
		if err := env.Unmarshal(&data); err != nil {
			return ErrInvalidMessage
		}
		return l.SwapHands(c, data.TargetID)

	case protocol.TypeLeaveRoom:
		return l.LeaveRoom(c)

	default:
		return &RoomError{Message: "Unknown message type: " + env.Type.String()}
	}
}

// reply reports err to c. Room errors and illegal plays are shown to the
// player; other game errors are intents that arrived out of turn and are
// dropped.
func (l *Lobby) reply(c Client, err error) {
	var roomErr *RoomError
	switch {
	case err == nil:
		return
	case errors.As(err, &roomErr):
		l.send(c, protocol.TypeRoomError, protocol.RoomError{Message: roomErr.Message})
	case errors.Is(err, game.ErrIllegalPlay):
		l.send(c, protocol.TypeRoomError, protocol.RoomError{Message: game.IllegalPlayMessage})
	case errors.Is(err, host.ErrStopped), errors.Is(err, context.Canceled):
		l.logger.Debug("Intent arrived after session stopped", "client", c.ID(), "error", err)
	default:
		l.logger.Debug("Dropped intent", "client", c.ID(), "error", err)
	}
}

func (l *Lobby) send(c Client, messageType protocol.MessageType, data any) {
	if err := c.Send(messageType, data); err != nil {
		l.logger.Debug("Failed to send", "client", c.ID(), "type", messageType, "error", err)
	}
}

// client returns the record for c, creating it on first contact. Callers
// hold l.mu.
func (l *Lobby) client(c Client) *clientInfo {
	info, ok := l.clients[c.ID()]
	if !ok {
		info = &clientInfo{name: defaultName}
		l.clients[c.ID()] = info
	}
	return info
}

// SetProfile stores the display name used for rooms joined afterwards
func (l *Lobby) SetProfile(c Client, name string) error {
	name = cleanName(name)

	l.mu.Lock()
	l.client(c).name = name
	l.mu.Unlock()

	l.send(c, protocol.TypeProfileAck, protocol.ProfileAck{Name: name})
	return nil
}

// CreateRoom leaves any current room and opens a new one with c as host
func (l *Lobby) CreateRoom(c Client, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	info := l.client(c)
	if name != "" {
		info.name = cleanName(name)
	}
	l.leave(c, info)

	code, err := l.codes.Unique(func(code string) bool {
		_, taken := l.rooms[code]
		return taken
	})
	if err != nil {
		return err
	}

	room := newRoom(code, l.logger)
	room.add(roomMember{id: c.ID(), name: info.name, client: c})
	l.rooms[code] = room
	info.room = code

	room.logger.Info("Room created", "host", c.ID(), "name", info.name)
	l.send(c, protocol.TypeRoomJoined, protocol.RoomJoined{Code: code, PlayerID: c.ID()})
	room.broadcastState()
	return nil
}

// JoinRoom seats c in the waiting room with the given code
func (l *Lobby) JoinRoom(c Client, code, name string) error {
	code = roomcode.Normalize(code)
	if roomcode.Validate(code, l.codes.Length()) != nil {
		return ErrInvalidCode
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	info := l.client(c)
	if name != "" {
		info.name = cleanName(name)
	}

	room, ok := l.rooms[code]
	if !ok {
		return ErrRoomNotFound
	}
	if !room.has(c.ID()) {
		if room.status != protocol.RoomWaiting {
			return ErrRoomStarted
		}
		if len(room.members) >= l.settings.MaxPlayers {
			return ErrRoomFull
		}

		l.leave(c, info)
		room.add(roomMember{id: c.ID(), name: info.name, client: c})
		info.room = code
		room.logger.Info("Player joined", "player", c.ID(), "name", info.name, "players", len(room.members))
	}

	l.send(c, protocol.TypeRoomJoined, protocol.RoomJoined{Code: code, PlayerID: c.ID()})
	room.broadcastState()
	return nil
}

// StartRoom starts a game in c's room. Only the room host may start it;
// a finished game may be restarted.
func (l *Lobby) StartRoom(c Client, mode deck.Mode) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	room, err := l.roomOf(c)
	if err != nil {
		return err
	}
	if room.hostID != c.ID() {
		return ErrNotHost
	}
	if room.session != nil {
		snap, err := room.session.Snapshot(l.ctx)
		if err == nil && !snap.Finished() {
			return ErrRoomStarted
		}
	}

	gameCfg := game.Config{
		Rand:  randutil.New(l.rng.Int64()),
		Clock: l.clock,
	}
	hostCfg := host.Config{
		ThinkDelay:   l.settings.ThinkDelay(),
		SafetyDelay:  l.settings.SafetyDelay(),
		AutoHitDelay: l.settings.AutoHitDelay(),
		Clock:        l.clock,
	}
	return room.start(l.ctx, deck.ParseMode(string(mode)), l.settings, gameCfg, hostCfg)
}

// RequestState sends c its current perspective
func (l *Lobby) RequestState(c Client) error {
	session, err := l.sessionOf(c)
	if err != nil {
		return err
	}

	snap, err := session.Snapshot(l.ctx)
	if err != nil {
		return err
	}
	l.send(c, protocol.TypeGameState, Perspective(snap, c.ID()))
	return nil
}

// Play plays a card for c. A wild without a valid color gets a random one.
func (l *Lobby) Play(c Client, cardID string, color deck.Color) error {
	session, err := l.sessionOf(c)
	if err != nil {
		return err
	}
	return session.PlayWithColor(l.ctx, c.ID(), cardID, color)
}

// Draw draws for c
func (l *Lobby) Draw(c Client) error {
	session, err := l.sessionOf(c)
	if err != nil {
		return err
	}
	return session.Draw(l.ctx, c.ID())
}

// SwapHands completes c's pending 7-swap. targetID is an alias from c's
// perspective.
func (l *Lobby) SwapHands(c Client, targetID string) error {
	session, err := l.sessionOf(c)
	if err != nil {
		return err
	}
	return session.Do(l.ctx, func(g *game.Game) error {
		target, ok := canonicalID(g.Snapshot(), c.ID(), targetID)
		if !ok {
			return game.ErrInvalidTarget
		}
		return g.SwapHands(c.ID(), target)
	})
}

// LeaveRoom takes c out of its room
func (l *Lobby) LeaveRoom(c Client) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	info := l.client(c)
	code := info.room
	if code == "" {
		return ErrNotInRoom
	}
	l.leave(c, info)
	l.send(c, protocol.TypeRoomLeft, protocol.RoomLeft{Code: code})
	return nil
}

// Disconnect forgets c and removes it from its room
func (l *Lobby) Disconnect(c Client) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if info, ok := l.clients[c.ID()]; ok {
		l.leave(c, info)
		delete(l.clients, c.ID())
	}
}

// leave removes c from its current room, if any. A running game loses the
// seat; an empty room is closed. Callers hold l.mu.
func (l *Lobby) leave(c Client, info *clientInfo) {
	room, ok := l.rooms[info.room]
	info.room = ""
	if !ok {
		return
	}

	room.remove(c.ID())
	room.logger.Info("Player left", "player", c.ID(), "players", len(room.members))

	if len(room.members) == 0 {
		room.shutdown()
		delete(l.rooms, room.code)
		room.logger.Info("Room closed")
		return
	}

	if room.session != nil {
		err := room.session.Remove(l.ctx, c.ID())
		if err != nil && !errors.Is(err, game.ErrGameOver) {
			room.logger.Debug("Failed to remove seat", "player", c.ID(), "error", err)
		}
	}
	room.broadcastState()
}

// roomOf returns the room c is in. Callers hold l.mu.
func (l *Lobby) roomOf(c Client) (*Room, error) {
	info, ok := l.clients[c.ID()]
	if !ok || info.room == "" {
		return nil, ErrNotInRoom
	}
	room, ok := l.rooms[info.room]
	if !ok {
		return nil, ErrNotInRoom
	}
	return room, nil
}

// sessionOf returns the host of c's running game. The lobby lock is not
// held while the caller talks to it.
func (l *Lobby) sessionOf(c Client) (*host.Host, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	room, err := l.roomOf(c)
	if err != nil {
		return nil, err
	}
	if room.session == nil {
		return nil, ErrNoGame
	}
	return room.session, nil
}

// cleanName trims a display name to at most maxNameLength runes
func cleanName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return defaultName
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		name = string([]rune(name)[:maxNameLength])
	}
	return name
}
