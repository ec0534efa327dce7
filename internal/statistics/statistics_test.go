package statistics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/nomercy/internal/deck"
	"github.com/lox/nomercy/internal/game"
)

func sample() []GameResult {
	return []GameResult{
		{Seed: 1, Mode: deck.NoMercy, Winner: "bot1", Turns: 10},
		{Seed: 2, Mode: deck.NoMercy, Winner: "bot1", Turns: 20, Eliminated: []string{"bot2"}, Abandoned: 26},
		{Seed: 3, Mode: deck.NoMercy, Winner: game.MercyEliminated, Turns: 40},
		{Seed: 4, Mode: deck.NoMercy, Winner: game.UserID, Turns: 30},
	}
}

func TestAdd(t *testing.T) {
	s := New()
	for _, r := range sample() {
		s.Add(r)
	}

	assert.Equal(t, 4, s.Games)
	assert.Equal(t, 2, s.Wins["bot1"])
	assert.Equal(t, 1, s.Wins[game.UserID])
	assert.Equal(t, 1, s.MercyEndings)
	assert.Equal(t, 1, s.Eliminations["bot2"])
	assert.Equal(t, 26, s.Abandoned)
	assert.Equal(t, 40, s.MaxTurns)
	assert.Equal(t, int64(3), s.MaxTurnsSeed)
	require.NoError(t, s.Validate())
}

func TestZeroValueAdd(t *testing.T) {
	var s Statistics
	s.Add(GameResult{Winner: "bot3", Turns: 5})

	assert.Equal(t, 1, s.Wins["bot3"])
	assert.NoError(t, s.Validate())
}

func TestMoments(t *testing.T) {
	s := New()
	for _, r := range sample() {
		s.Add(r)
	}

	assert.InDelta(t, 25.0, s.Mean(), 1e-9)
	// Turns 10,20,30,40: sum of squared deviations is 500
	assert.InDelta(t, 500.0/3, s.Variance(), 1e-9)
	assert.InDelta(t, 25.0, s.Median(), 1e-9)
	assert.InDelta(t, 10.0, s.Percentile(0), 1e-9)
	assert.InDelta(t, 40.0, s.Percentile(1), 1e-9)
	assert.InDelta(t, 25.0, s.Percentile(0.5), 1e-9)

	low, high := s.ConfidenceInterval95()
	assert.Less(t, low, s.Mean())
	assert.Greater(t, high, s.Mean())
	assert.InDelta(t, 0.5, s.WinRate("bot1"), 1e-9)
}

func TestEmpty(t *testing.T) {
	s := New()

	assert.Zero(t, s.Mean())
	assert.Zero(t, s.Variance())
	assert.Zero(t, s.StdError())
	assert.Zero(t, s.Median())
	assert.Zero(t, s.Percentile(0.9))
	assert.Zero(t, s.WinRate("bot1"))
	assert.Error(t, s.Validate())
}

func TestMerge(t *testing.T) {
	results := sample()
	a, b, all := New(), New(), New()
	for i, r := range results {
		if i%2 == 0 {
			a.Add(r)
		} else {
			b.Add(r)
		}
		all.Add(r)
	}

	a.Merge(b)
	assert.Equal(t, all.Games, a.Games)
	assert.Equal(t, all.Wins, a.Wins)
	assert.Equal(t, all.Eliminations, a.Eliminations)
	assert.Equal(t, all.MercyEndings, a.MercyEndings)
	assert.Equal(t, all.MaxTurns, a.MaxTurns)
	assert.InDelta(t, all.Mean(), a.Mean(), 1e-9)
	assert.ElementsMatch(t, all.Values, a.Values)
	require.NoError(t, a.Validate())
}

func TestSeats(t *testing.T) {
	s := New()
	for _, r := range sample() {
		s.Add(r)
	}
	assert.Equal(t, []string{"bot1", "bot2", game.UserID}, s.Seats())
}

func TestValidateMismatch(t *testing.T) {
	s := New()
	s.Add(GameResult{Winner: "bot1", Turns: 3})
	s.Wins["bot2"]++

	assert.ErrorContains(t, s.Validate(), "outcomes")
}

func TestSummary(t *testing.T) {
	s := New()
	for _, r := range sample() {
		s.Add(r)
	}

	sum := s.Summary()
	assert.Equal(t, 4, sum.Games)
	assert.InDelta(t, 25.0, sum.MeanTurns, 1e-9)
	assert.Equal(t, 2, sum.Wins["bot1"])
	assert.Equal(t, 1, sum.MercyEndings)

	// The digest does not alias the live tallies
	sum.Wins["bot1"] = 99
	assert.Equal(t, 2, s.Wins["bot1"])
}
