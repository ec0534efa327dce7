package host

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/nomercy/internal/bot"
	"github.com/lox/nomercy/internal/deck"
	"github.com/lox/nomercy/internal/game"
	"github.com/lox/nomercy/internal/randutil"
	"github.com/lox/nomercy/internal/rules"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func num(id string, color deck.Color, v int) deck.Card {
	return deck.NewNumberCard(id, color, v)
}

func hand(prefix string, color deck.Color, values ...int) []deck.Card {
	cards := make([]deck.Card, len(values))
	for i, v := range values {
		cards[i] = num(fmt.Sprintf("%s%d", prefix, i), color, v)
	}
	return cards
}

// stacked lays out a deck that deals hands to the default seats in order,
// then the red 5 opener, then green filler for draws
func stacked(user, bot1, bot2, bot3 []deck.Card) []deck.Card {
	var cards []deck.Card
	for _, h := range [][]deck.Card{user, bot1, bot2, bot3} {
		cards = append(cards, h...)
	}
	cards = append(cards, num("opener", deck.Red, 5))
	for i := 0; i < 60; i++ {
		cards = append(cards, num(fmt.Sprintf("fill%d", i), deck.Green, 1+i%4))
	}
	return cards
}

func stackedGame(t *testing.T, mode deck.Mode, cards []deck.Card) *game.Game {
	t.Helper()
	return game.New(game.Config{Mode: mode, Cards: cards, Rand: randutil.New(1), Clock: quartz.NewMock(t)})
}

func startHost(t *testing.T, cfg Config, g *game.Game) *Host {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = testLogger()
	}
	h := New(cfg, g)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = h.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-h.Done()
	})
	return h
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func cardCount(t *testing.T, snap game.Snapshot, id string) int {
	t.Helper()
	p, ok := snap.Player(id)
	require.True(t, ok, "no player %s", id)
	return p.CardCount
}

func noCounterCards() []deck.Card {
	return stacked(
		append([]deck.Card{deck.NewActionCard("ud4", deck.Red, deck.Draw4)}, hand("u", deck.Red, 1, 2, 3, 4, 6, 7)...),
		hand("b1-", deck.Blue, 1, 2, 3, 4, 6, 7, 8),
		hand("b2-", deck.Yellow, 1, 2, 3, 4, 6, 7, 8),
		hand("b3-", deck.Yellow, 1, 2, 3, 4, 6, 7, 8),
	)
}

func TestAutoHitAfterDelay(t *testing.T) {
	ctx := testContext(t)
	mClock := quartz.NewMock(t)
	h := startHost(t, Config{Clock: mClock}, stackedGame(t, deck.NoMercy, noCounterCards()))

	require.NoError(t, h.Play(ctx, game.UserID, "ud4"))

	snap, err := h.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, snap.StackAccumulation)
	assert.Equal(t, "bot1", snap.CurrentPlayerID)
	assert.True(t, snap.AutoHitPending)

	d, w := mClock.AdvanceNext()
	assert.Equal(t, DefaultAutoHitDelay, d)
	w.MustWait(ctx)

	snap, err = h.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 11, cardCount(t, snap, "bot1"))
	assert.Equal(t, "bot2", snap.CurrentPlayerID)
	assert.Zero(t, snap.StackAccumulation)

	// bot2 holds nothing playable on the draw4 and draws after thinking
	d, w = mClock.AdvanceNext()
	assert.Equal(t, DefaultThinkDelay, d)
	w.MustWait(ctx)

	snap, err = h.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, cardCount(t, snap, "bot2"))
	assert.Equal(t, "bot3", snap.CurrentPlayerID)
}

func TestReplaceCancelsTimers(t *testing.T) {
	ctx := testContext(t)
	mClock := quartz.NewMock(t)
	old := stackedGame(t, deck.NoMercy, noCounterCards())
	h := startHost(t, Config{Clock: mClock}, old)

	require.NoError(t, h.Play(ctx, game.UserID, "ud4"))

	fresh := game.New(game.Config{Mode: deck.Classic, Rand: randutil.New(9), Clock: mClock})
	require.NoError(t, h.Replace(ctx, fresh))

	mClock.Advance(DefaultAutoHitDelay).MustWait(ctx)

	snap, err := h.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, game.UserID, snap.CurrentPlayerID)
	assert.Zero(t, snap.Turn)

	p, ok := old.Player("bot1")
	require.True(t, ok)
	assert.Equal(t, 7, p.CardCount(), "the replaced session is never touched")
}

type bogus struct{}

func (bogus) Name() string { return "bogus" }

func (bogus) Move([]deck.Card, rules.Context) (bot.Move, bool) {
	return bot.Move{Card: num("bogus", deck.Red, 1)}, true
}

func TestSafetyTimerForcesDraw(t *testing.T) {
	ctx := testContext(t)
	mClock := quartz.NewMock(t)
	cfg := Config{Clock: mClock, Strategies: map[string]bot.Strategy{"bot1": bogus{}}}
	h := startHost(t, cfg, stackedGame(t, deck.Classic, noCounterCards()))

	require.NoError(t, h.Draw(ctx, game.UserID))

	d, w := mClock.AdvanceNext()
	assert.Equal(t, DefaultThinkDelay, d)
	w.MustWait(ctx)

	snap, err := h.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bot1", snap.CurrentPlayerID, "the first attempt was rejected")
	assert.Equal(t, 7, cardCount(t, snap, "bot1"))

	d, w = mClock.AdvanceNext()
	assert.Equal(t, DefaultSafetyDelay-DefaultThinkDelay, d)
	w.MustWait(ctx)

	snap, err = h.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, cardCount(t, snap, "bot1"))
	assert.Equal(t, "bot2", snap.CurrentPlayerID)
}

func TestBotSevenSwapsImmediately(t *testing.T) {
	ctx := testContext(t)
	mClock := quartz.NewMock(t)
	cards := stacked(
		hand("u", deck.Blue, 1, 2, 3, 4, 6, 7, 8),
		append([]deck.Card{num("b7", deck.Red, 7)}, hand("b1-", deck.Blue, 1, 2, 3, 4, 6, 8)...),
		hand("b2-", deck.Yellow, 1, 2, 3, 4, 6, 7, 8),
		hand("b3-", deck.Yellow, 1, 2, 3, 4, 6, 7, 8),
	)
	h := startHost(t, Config{Clock: mClock}, stackedGame(t, deck.Classic, cards))

	require.NoError(t, h.Draw(ctx, game.UserID))

	_, w := mClock.AdvanceNext()
	w.MustWait(ctx)

	snap, err := h.Snapshot(ctx)
	require.NoError(t, err)
	assert.False(t, snap.IsSwapping)
	assert.Equal(t, "b7", snap.TopCard().ID)
	assert.Equal(t, 7, cardCount(t, snap, "bot1"), "bot1 took bot2's hand")
	assert.Equal(t, 6, cardCount(t, snap, "bot2"))
	assert.Equal(t, "bot2", snap.CurrentPlayerID)
}

func TestHumanActionsReachTheGame(t *testing.T) {
	ctx := testContext(t)
	mClock := quartz.NewMock(t)

	var mu sync.Mutex
	var changes int
	cfg := Config{Clock: mClock, OnChange: func(game.Snapshot) {
		mu.Lock()
		changes++
		mu.Unlock()
	}}
	h := startHost(t, cfg, stackedGame(t, deck.Classic, noCounterCards()))

	assert.ErrorIs(t, h.Draw(ctx, "bot1"), game.ErrNotYourTurn)
	require.NoError(t, h.Play(ctx, game.UserID, "u0"))

	snap, err := h.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u0", snap.TopCard().ID)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, changes, "initial state plus one accepted action")
}

func TestStoppedHost(t *testing.T) {
	h := New(Config{Logger: testLogger(), Clock: quartz.NewMock(t)}, stackedGame(t, deck.Classic, noCounterCards()))

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = h.Run(ctx) }()
	cancel()
	<-h.Done()

	assert.ErrorIs(t, h.Draw(context.Background(), game.UserID), ErrStopped)
}

func TestOpponentsRingOrder(t *testing.T) {
	g := stackedGame(t, deck.Classic, noCounterCards())
	opponents := Opponents(g, "bot2")

	ids := make([]string, len(opponents))
	for i, o := range opponents {
		ids[i] = o.ID
	}
	assert.Equal(t, []string{"bot3", game.UserID, "bot1"}, ids)
}

func TestAutoplayFinishes(t *testing.T) {
	ctx := testContext(t)
	finished := make(chan game.Snapshot, 1)
	var once sync.Once

	cfg := Config{
		Immediate: true,
		Autoplay:  true,
		Clock:     quartz.NewReal(),
		OnChange: func(s game.Snapshot) {
			if s.Finished() {
				once.Do(func() { finished <- s })
			}
		},
	}
	g := game.New(game.Config{Mode: deck.NoMercy, Rand: randutil.New(11)})
	startHost(t, cfg, g)

	select {
	case snap := <-finished:
		assert.NotEmpty(t, snap.Winner)
	case <-ctx.Done():
		t.Fatal("autoplay game did not finish")
	}
}
