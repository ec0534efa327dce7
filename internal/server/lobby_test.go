package server

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/nomercy/internal/deck"
	"github.com/lox/nomercy/internal/game"
	"github.com/lox/nomercy/internal/protocol"
	"github.com/lox/nomercy/internal/randutil"
	"github.com/lox/nomercy/internal/roomcode"
)

type fakeClient struct {
	id   string
	msgs chan *protocol.Envelope
}

func newFakeClient(id string) *fakeClient {
	return &fakeClient{id: id, msgs: make(chan *protocol.Envelope, 512)}
}

func (f *fakeClient) ID() string { return f.id }

func (f *fakeClient) Send(messageType protocol.MessageType, data any) error {
	env, err := protocol.NewEnvelope(messageType, data)
	if err != nil {
		return err
	}
	f.msgs <- env
	return nil
}

// drain returns everything delivered so far
func (f *fakeClient) drain() []*protocol.Envelope {
	var out []*protocol.Envelope
	for {
		select {
		case env := <-f.msgs:
			out = append(out, env)
		default:
			return out
		}
	}
}

// last drains the client and decodes the most recent message of type typ
func last[T any](t *testing.T, f *fakeClient, typ protocol.MessageType) T {
	t.Helper()

	var found *protocol.Envelope
	for _, env := range f.drain() {
		if env.Type == typ {
			found = env
		}
	}
	require.NotNil(t, found, "%s received no %s", f.id, typ)

	var v T
	require.NoError(t, found.Unmarshal(&v))
	return v
}

func received(f *fakeClient, typ protocol.MessageType) bool {
	for _, env := range f.drain() {
		if env.Type == typ {
			return true
		}
	}
	return false
}

func testSettings() RoomSettings {
	return DefaultConfig().Room
}

func newTestLobby(t *testing.T, settings RoomSettings) (*Lobby, *quartz.Mock) {
	t.Helper()
	mClock := quartz.NewMock(t)
	l := NewLobby(context.Background(), settings, LobbyOptions{
		Rand:   randutil.New(1),
		Clock:  mClock,
		Logger: log.NewWithOptions(io.Discard, log.Options{}),
	})
	t.Cleanup(l.Close)
	return l, mClock
}

func handle(t *testing.T, l *Lobby, c *fakeClient, typ protocol.MessageType, data any) {
	t.Helper()
	env, err := protocol.NewEnvelope(typ, data)
	require.NoError(t, err)
	l.Handle(c, env)
}

// twoPlayerRoom creates a room hosted by alice with bob seated
func twoPlayerRoom(t *testing.T, l *Lobby) (alice, bob *fakeClient, code string) {
	t.Helper()
	alice, bob = newFakeClient("alice"), newFakeClient("bob")

	handle(t, l, alice, protocol.TypeCreateRoom, protocol.CreateRoom{Name: "Alice"})
	code = last[protocol.RoomJoined](t, alice, protocol.TypeRoomJoined).Code

	handle(t, l, bob, protocol.TypeJoinRoom, protocol.JoinRoom{Code: code, Name: "Bob"})
	require.Equal(t, code, last[protocol.RoomJoined](t, bob, protocol.TypeRoomJoined).Code)
	return alice, bob, code
}

// rig replaces the room's game with one dealt from known cards: alice
// holds aliceHand, bob holds bobHand, and a red 5 is on the table
func rig(t *testing.T, l *Lobby, mClock quartz.Clock, code string, aliceHand, bobHand []deck.Card) {
	t.Helper()

	dealt := append(append([]deck.Card{}, aliceHand...), bobHand...)
	dealt = append(dealt, deck.NewNumberCard("opener", deck.Red, 5))
	for i := 0; i < 30; i++ {
		dealt = append(dealt, deck.NewNumberCard(fmt.Sprintf("fill%d", i), deck.Yellow, i%10))
	}

	g := game.New(game.Config{
		Mode: deck.NoMercy,
		Seats: []game.Seat{
			{ID: "alice", Name: "Alice", Position: game.Bottom},
			{ID: "bob", Name: "Bob", Position: game.Top},
		},
		Cards:    dealt,
		Rand:     randutil.New(1),
		Clock:    mClock,
		HandSize: len(aliceHand),
	})

	l.mu.Lock()
	session := l.rooms[code].session
	l.mu.Unlock()
	require.NotNil(t, session)
	require.NoError(t, session.Replace(context.Background(), g))
}

func startRigged(t *testing.T, aliceHand, bobHand []deck.Card) (*Lobby, *fakeClient, *fakeClient, string) {
	t.Helper()
	l, mClock := newTestLobby(t, testSettings())
	alice, bob, code := twoPlayerRoom(t, l)

	handle(t, l, alice, protocol.TypeStartRoom, protocol.StartRoom{Mode: deck.NoMercy})
	rig(t, l, mClock, code, aliceHand, bobHand)
	alice.drain()
	bob.drain()
	return l, alice, bob, code
}

func playerByID(t *testing.T, state protocol.GameState, id string) game.PlayerState {
	t.Helper()
	for _, p := range state.Players {
		if p.ID == id {
			return p
		}
	}
	t.Fatalf("no player %s in perspective", id)
	return game.PlayerState{}
}

func cards(prefix string, color deck.Color, values ...int) []deck.Card {
	out := make([]deck.Card, len(values))
	for i, v := range values {
		out[i] = deck.NewNumberCard(fmt.Sprintf("%s%d", prefix, v), color, v)
	}
	return out
}

func TestCleanName(t *testing.T) {
	assert.Equal(t, "Player", cleanName("   "))
	assert.Equal(t, "Zoë", cleanName("  Zoë "))
	assert.Equal(t, strings.Repeat("Å", maxNameLength), cleanName(strings.Repeat("Å", 30)))
}

func TestSetProfile(t *testing.T) {
	l, _ := newTestLobby(t, testSettings())
	c := newFakeClient("c1")

	handle(t, l, c, protocol.TypeSetProfile, protocol.SetProfile{Name: "  Robin  "})
	assert.Equal(t, "Robin", last[protocol.ProfileAck](t, c, protocol.TypeProfileAck).Name)

	handle(t, l, c, protocol.TypeCreateRoom, protocol.CreateRoom{})
	state := last[protocol.RoomState](t, c, protocol.TypeRoomState)
	require.Len(t, state.Players, 1)
	assert.Equal(t, "Robin", state.Players[0].Name)
}

func TestCreateAndJoinRoom(t *testing.T) {
	l, _ := newTestLobby(t, testSettings())
	alice, bob := newFakeClient("alice"), newFakeClient("bob")

	handle(t, l, alice, protocol.TypeCreateRoom, protocol.CreateRoom{Name: "Alice"})
	joined := last[protocol.RoomJoined](t, alice, protocol.TypeRoomJoined)
	assert.Equal(t, "alice", joined.PlayerID)
	assert.NoError(t, roomcode.Validate(joined.Code, roomcode.DefaultLength))
	assert.Equal(t, 1, l.RoomCount())

	// Codes are matched case-insensitively
	handle(t, l, bob, protocol.TypeJoinRoom, protocol.JoinRoom{Code: " " + strings.ToLower(joined.Code) + " ", Name: "Bob"})
	assert.Equal(t, joined.Code, last[protocol.RoomJoined](t, bob, protocol.TypeRoomJoined).Code)

	for _, c := range []*fakeClient{alice, bob} {
		state := last[protocol.RoomState](t, c, protocol.TypeRoomState)
		assert.Equal(t, "alice", state.HostID)
		assert.Equal(t, protocol.RoomWaiting, state.Status)
		assert.Equal(t, []protocol.RoomPlayer{{ID: "alice", Name: "Alice"}, {ID: "bob", Name: "Bob"}}, state.Players)
	}
}

func TestCreateRoomLeavesPreviousRoom(t *testing.T) {
	l, _ := newTestLobby(t, testSettings())
	alice, bob, code := twoPlayerRoom(t, l)

	handle(t, l, bob, protocol.TypeCreateRoom, protocol.CreateRoom{})
	assert.NotEqual(t, code, last[protocol.RoomJoined](t, bob, protocol.TypeRoomJoined).Code)
	assert.Equal(t, 2, l.RoomCount())

	state := last[protocol.RoomState](t, alice, protocol.TypeRoomState)
	assert.Len(t, state.Players, 1)
}

func TestJoinRoomErrors(t *testing.T) {
	settings := testSettings()
	settings.MaxPlayers = 2
	l, _ := newTestLobby(t, settings)
	alice, _, code := twoPlayerRoom(t, l)

	carol := newFakeClient("carol")
	handle(t, l, carol, protocol.TypeJoinRoom, protocol.JoinRoom{Code: "ZZZZZZ"})
	assert.Equal(t, ErrRoomNotFound.Message, last[protocol.RoomError](t, carol, protocol.TypeRoomError).Message)

	// Malformed codes never reach the room table
	for _, bad := range []string{"", "ZZZ", "ZZZZZZZ", "ZZZZZ0", "ZZ-ZZZ"} {
		handle(t, l, carol, protocol.TypeJoinRoom, protocol.JoinRoom{Code: bad})
		assert.Equal(t, ErrInvalidCode.Message, last[protocol.RoomError](t, carol, protocol.TypeRoomError).Message, "code %q", bad)
	}
	assert.Equal(t, 1, l.RoomCount())

	handle(t, l, carol, protocol.TypeJoinRoom, protocol.JoinRoom{Code: code})
	assert.Equal(t, ErrRoomFull.Message, last[protocol.RoomError](t, carol, protocol.TypeRoomError).Message)

	handle(t, l, alice, protocol.TypeStartRoom, protocol.StartRoom{Mode: deck.Classic})
	dave := newFakeClient("dave")
	handle(t, l, dave, protocol.TypeJoinRoom, protocol.JoinRoom{Code: code})
	assert.Equal(t, ErrRoomStarted.Message, last[protocol.RoomError](t, dave, protocol.TypeRoomError).Message)
}

func TestStartRoomErrors(t *testing.T) {
	l, _ := newTestLobby(t, testSettings())
	alice, bob := newFakeClient("alice"), newFakeClient("bob")

	handle(t, l, alice, protocol.TypeStartRoom, protocol.StartRoom{})
	assert.Equal(t, ErrNotInRoom.Message, last[protocol.RoomError](t, alice, protocol.TypeRoomError).Message)

	handle(t, l, alice, protocol.TypeCreateRoom, protocol.CreateRoom{})
	code := last[protocol.RoomJoined](t, alice, protocol.TypeRoomJoined).Code

	handle(t, l, alice, protocol.TypeStartRoom, protocol.StartRoom{})
	assert.Equal(t, ErrNotEnoughPlayers.Message, last[protocol.RoomError](t, alice, protocol.TypeRoomError).Message)

	handle(t, l, bob, protocol.TypeJoinRoom, protocol.JoinRoom{Code: code})
	handle(t, l, bob, protocol.TypeStartRoom, protocol.StartRoom{})
	assert.Equal(t, ErrNotHost.Message, last[protocol.RoomError](t, bob, protocol.TypeRoomError).Message)

	handle(t, l, alice, protocol.TypeStartRoom, protocol.StartRoom{Mode: deck.NoMercy})
	handle(t, l, alice, protocol.TypeStartRoom, protocol.StartRoom{Mode: deck.NoMercy})
	assert.Equal(t, ErrRoomStarted.Message, last[protocol.RoomError](t, alice, protocol.TypeRoomError).Message)
}

func TestStartRoomBroadcastsPerspectives(t *testing.T) {
	l, _ := newTestLobby(t, testSettings())
	alice, bob, _ := twoPlayerRoom(t, l)

	handle(t, l, alice, protocol.TypeStartRoom, protocol.StartRoom{Mode: "anything"})

	room := last[protocol.RoomState](t, bob, protocol.TypeRoomState)
	assert.Equal(t, protocol.RoomPlaying, room.Status)
	assert.Equal(t, deck.Classic, room.Mode, "unknown modes fall back to classic")

	handle(t, l, bob, protocol.TypeRequestState, nil)
	state := last[protocol.GameState](t, bob, protocol.TypeGameState)
	require.Len(t, state.Players, 2)
	assert.Equal(t, deck.Classic, state.Mode)
	assert.Equal(t, "bot1", state.CurrentPlayerID, "the host acts first")

	me := playerByID(t, state, game.UserID)
	assert.Equal(t, "Bob", me.Name)
	assert.Len(t, me.Hand, game.DefaultHandSize)
	assert.Empty(t, playerByID(t, state, "bot1").Hand)
	assert.Equal(t, game.DefaultHandSize, playerByID(t, state, "bot1").CardCount)

	assert.NotEmpty(t, me.Avatar)
	assert.NotEmpty(t, playerByID(t, state, "bot1").Avatar)
	assert.NotEqual(t, me.Avatar, playerByID(t, state, "bot1").Avatar)
}

func TestRoomSeatsAreNotPrimary(t *testing.T) {
	l, _ := newTestLobby(t, testSettings())
	alice, _, code := twoPlayerRoom(t, l)
	handle(t, l, alice, protocol.TypeStartRoom, protocol.StartRoom{Mode: deck.NoMercy})

	l.mu.Lock()
	session := l.rooms[code].session
	l.mu.Unlock()
	require.NotNil(t, session)

	var seated int
	require.NoError(t, session.View(context.Background(), func(g *game.Game) {
		for _, p := range g.Players() {
			seated++
			assert.False(t, p.Primary, p.ID)
			assert.NotEmpty(t, p.Avatar, p.ID)
		}
	}))
	assert.Equal(t, 2, seated)
}

func TestMercyLimitEliminatesRoomMember(t *testing.T) {
	aliceHand := make([]deck.Card, game.DefaultMercyLimit)
	bobHand := make([]deck.Card, game.DefaultMercyLimit)
	for i := range aliceHand {
		aliceHand[i] = deck.NewNumberCard(fmt.Sprintf("a%d", i), deck.Blue, i%10)
		bobHand[i] = deck.NewNumberCard(fmt.Sprintf("b%d", i), deck.Green, i%10)
	}
	l, alice, bob, _ := startRigged(t, aliceHand, bobHand)

	handle(t, l, alice, protocol.TypeDraw, nil)

	state := last[protocol.GameState](t, bob, protocol.TypeGameState)
	assert.Equal(t, game.UserID, state.Winner, "the other member plays on and is the last seat standing")
	assert.NotEqual(t, game.MercyEliminated, state.Winner)
	require.Len(t, state.Players, 1)

	state = last[protocol.GameState](t, alice, protocol.TypeGameState)
	assert.Equal(t, "bot1", state.Winner)
	assert.Contains(t, state.LastAction, "eliminated by the mercy rule")
}

func TestRequestStateWithoutGame(t *testing.T) {
	l, _ := newTestLobby(t, testSettings())
	alice, _, _ := twoPlayerRoom(t, l)

	handle(t, l, alice, protocol.TypeRequestState, nil)
	assert.Equal(t, ErrNoGame.Message, last[protocol.RoomError](t, alice, protocol.TypeRoomError).Message)
}

func TestPlayAndDraw(t *testing.T) {
	l, alice, bob, _ := startRigged(t,
		cards("a", deck.Red, 1, 2, 3),
		cards("b", deck.Green, 1, 2, 3),
	)

	// Out of turn intents are dropped silently
	handle(t, l, bob, protocol.TypeDraw, nil)
	assert.False(t, received(bob, protocol.TypeRoomError))
	assert.False(t, received(alice, protocol.TypeGameState))

	handle(t, l, alice, protocol.TypePlay, protocol.Play{CardID: "a1"})
	state := last[protocol.GameState](t, bob, protocol.TypeGameState)
	assert.Equal(t, "user", state.CurrentPlayerID)
	assert.Equal(t, "a1", state.DiscardPile[len(state.DiscardPile)-1].ID)
	assert.Equal(t, "bot1", state.DiscardPile[len(state.DiscardPile)-1].PlayedBy)
	assert.Equal(t, 2, playerByID(t, state, "bot1").CardCount)
	assert.Len(t, playerByID(t, state, "user").Hand, 3)

	handle(t, l, bob, protocol.TypeDraw, nil)
	state = last[protocol.GameState](t, alice, protocol.TypeGameState)
	assert.Equal(t, "user", state.CurrentPlayerID)
	assert.Equal(t, 4, playerByID(t, state, "bot1").CardCount)
	require.NotNil(t, state.LastEvent)
	assert.Equal(t, game.EventTypeDraw, state.LastEvent.Type)
	assert.Equal(t, "bot1", state.LastEvent.PlayerID)
}

func TestIllegalPlayReportsError(t *testing.T) {
	l, alice, bob, _ := startRigged(t,
		cards("a", deck.Blue, 1, 2, 3),
		cards("b", deck.Green, 1, 2, 3),
	)

	handle(t, l, alice, protocol.TypePlay, protocol.Play{CardID: "a1"})
	assert.Equal(t, game.IllegalPlayMessage, last[protocol.RoomError](t, alice, protocol.TypeRoomError).Message)
	assert.False(t, received(bob, protocol.TypeGameState))

	// Cards that are not in the hand are ignored
	handle(t, l, alice, protocol.TypePlay, protocol.Play{CardID: "b1"})
	assert.False(t, received(alice, protocol.TypeRoomError))
}

func TestPlayWildWithoutColor(t *testing.T) {
	wild := deck.NewActionCard("wild", deck.Black, deck.Wild)
	l, alice, _, _ := startRigged(t,
		append([]deck.Card{wild}, cards("a", deck.Blue, 1, 2)...),
		cards("b", deck.Green, 1, 2, 3),
	)

	handle(t, l, alice, protocol.TypePlay, protocol.Play{CardID: "wild", ChosenColor: "pink"})
	state := last[protocol.GameState](t, alice, protocol.TypeGameState)
	assert.True(t, state.ActiveColor.IsReal(), "got %q", state.ActiveColor)
	assert.Equal(t, "bot1", state.CurrentPlayerID)
	assert.False(t, state.IsChoosingColor)
}

func TestSwapHandsByAlias(t *testing.T) {
	l, alice, bob, _ := startRigged(t,
		cards("a", deck.Red, 7, 8, 9),
		cards("b", deck.Green, 1, 2, 3),
	)

	handle(t, l, alice, protocol.TypePlay, protocol.Play{CardID: "a7"})
	mine := last[protocol.GameState](t, alice, protocol.TypeGameState)
	assert.True(t, mine.IsSwapping)
	assert.False(t, last[protocol.GameState](t, bob, protocol.TypeGameState).IsSwapping)

	handle(t, l, alice, protocol.TypeSwapHands, protocol.SwapHands{TargetID: "bot7"})
	assert.False(t, received(alice, protocol.TypeGameState))

	handle(t, l, alice, protocol.TypeSwapHands, protocol.SwapHands{TargetID: "bot1"})
	state := last[protocol.GameState](t, alice, protocol.TypeGameState)
	assert.Equal(t, "bot1", state.CurrentPlayerID)

	var hand []string
	for _, c := range playerByID(t, state, game.UserID).Hand {
		hand = append(hand, c.ID)
	}
	assert.Equal(t, []string{"b1", "b2", "b3"}, hand)
	assert.Equal(t, 2, playerByID(t, state, "bot1").CardCount)
}

func TestLeaveRunningGame(t *testing.T) {
	l, alice, bob, code := startRigged(t,
		cards("a", deck.Red, 1, 2, 3),
		cards("b", deck.Green, 1, 2, 3),
	)

	handle(t, l, alice, protocol.TypeLeaveRoom, nil)
	assert.Equal(t, code, last[protocol.RoomLeft](t, alice, protocol.TypeRoomLeft).Code)

	room := last[protocol.RoomState](t, bob, protocol.TypeRoomState)
	assert.Equal(t, "bob", room.HostID, "host passes to the next member")
	assert.Len(t, room.Players, 1)

	handle(t, l, bob, protocol.TypeRequestState, nil)
	state := last[protocol.GameState](t, bob, protocol.TypeGameState)
	assert.Equal(t, game.UserID, state.Winner, "the last seat standing wins")
	assert.Len(t, state.Players, 1)

	handle(t, l, alice, protocol.TypeLeaveRoom, nil)
	assert.Equal(t, ErrNotInRoom.Message, last[protocol.RoomError](t, alice, protocol.TypeRoomError).Message)

	// Finished rooms stay closed to newcomers and a restart still needs two seats
	handle(t, l, alice, protocol.TypeJoinRoom, protocol.JoinRoom{Code: code})
	assert.Equal(t, ErrRoomStarted.Message, last[protocol.RoomError](t, alice, protocol.TypeRoomError).Message)
	handle(t, l, bob, protocol.TypeStartRoom, protocol.StartRoom{})
	assert.Equal(t, ErrNotEnoughPlayers.Message, last[protocol.RoomError](t, bob, protocol.TypeRoomError).Message)

	l.Disconnect(bob)
	assert.Zero(t, l.RoomCount())
}

func TestFillWithBots(t *testing.T) {
	settings := testSettings()
	settings.FillWithBots = true
	l, mClock := newTestLobby(t, settings)
	alice := newFakeClient("alice")
	ctx := context.Background()

	handle(t, l, alice, protocol.TypeCreateRoom, protocol.CreateRoom{Name: "Alice"})
	handle(t, l, alice, protocol.TypeStartRoom, protocol.StartRoom{Mode: deck.NoMercy})
	handle(t, l, alice, protocol.TypeRequestState, nil)

	state := last[protocol.GameState](t, alice, protocol.TypeGameState)
	require.Len(t, state.Players, 4)
	assert.Equal(t, deck.NoMercy, state.Mode)
	for i, p := range state.Players[1:] {
		assert.True(t, p.IsBot)
		assert.Equal(t, fmt.Sprintf("bot%d", i+1), p.ID)
	}

	// Once alice draws, the server bots take their turns on the clock
	handle(t, l, alice, protocol.TypeDraw, nil)
	state = last[protocol.GameState](t, alice, protocol.TypeGameState)
	require.Equal(t, "bot1", state.CurrentPlayerID)

	_, w := mClock.AdvanceNext()
	w.MustWait(ctx)

	state = last[protocol.GameState](t, alice, protocol.TypeGameState)
	assert.NotEqual(t, "bot1", state.CurrentPlayerID)
}

func TestUnknownAndMalformedIntents(t *testing.T) {
	l, _ := newTestLobby(t, testSettings())
	c := newFakeClient("c")

	l.Handle(c, &protocol.Envelope{Type: "teleport"})
	assert.Equal(t, "Unknown message type: teleport", last[protocol.RoomError](t, c, protocol.TypeRoomError).Message)

	l.Handle(c, &protocol.Envelope{Type: protocol.TypeJoinRoom, Data: []byte(`{"code": 7}`)})
	assert.Equal(t, ErrInvalidMessage.Message, last[protocol.RoomError](t, c, protocol.TypeRoomError).Message)
}

func TestDisconnectClosesEmptyRoom(t *testing.T) {
	l, _ := newTestLobby(t, testSettings())
	alice, bob, _ := twoPlayerRoom(t, l)

	l.Disconnect(alice)
	assert.Equal(t, 1, l.RoomCount())
	assert.Equal(t, "bob", last[protocol.RoomState](t, bob, protocol.TypeRoomState).HostID)

	l.Disconnect(bob)
	assert.Zero(t, l.RoomCount())
}
