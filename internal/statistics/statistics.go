package statistics

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"sort"

	"github.com/lox/nomercy/internal/deck"
	"github.com/lox/nomercy/internal/game"
)

// GameResult represents the outcome of a single simulated game
type GameResult struct {
	Seed       int64     // RNG seed for this game (for replay)
	Mode       deck.Mode // Rule set the game was played under
	Winner     string    // Winning seat id, or game.MercyEliminated
	Turns      int       // Turn counter when the game ended
	Eliminated []string  // Seats removed by the mercy rule, in order
	Abandoned  int       // Cards that left circulation with removed seats
}

// Statistics aggregates simulated games
type Statistics struct {
	Games  int
	SumT   float64
	SumT2  float64 // Sum of squares for variance calculation
	Values []int   // Store all turn counts for median/percentile calculation

	// Outcomes
	Wins         map[string]int // Wins per seat id
	MercyEndings int            // Games ended by the human seat hitting the mercy limit
	Eliminations map[string]int // Mercy eliminations per seat id
	Abandoned    int            // Cards abandoned across all games

	// Longest game observed
	MaxTurns     int
	MaxTurnsSeed int64
}

// New returns empty statistics
func New() *Statistics {
	return &Statistics{
		Wins:         make(map[string]int),
		Eliminations: make(map[string]int),
	}
}

// Add incorporates a new game result into the statistics
func (s *Statistics) Add(result GameResult) {
	if s.Wins == nil {
		s.Wins = make(map[string]int)
	}
	if s.Eliminations == nil {
		s.Eliminations = make(map[string]int)
	}

	turns := float64(result.Turns)
	s.Games++
	s.SumT += turns
	s.SumT2 += turns * turns
	s.Values = append(s.Values, result.Turns)

	if result.Winner == game.MercyEliminated {
		s.MercyEndings++
	} else {
		s.Wins[result.Winner]++
	}
	for _, id := range result.Eliminated {
		s.Eliminations[id]++
	}
	s.Abandoned += result.Abandoned

	if result.Turns > s.MaxTurns {
		s.MaxTurns = result.Turns
		s.MaxTurnsSeed = result.Seed
	}
}

// Merge folds other into s
func (s *Statistics) Merge(other *Statistics) {
	if s.Wins == nil {
		s.Wins = make(map[string]int)
	}
	if s.Eliminations == nil {
		s.Eliminations = make(map[string]int)
	}

	s.Games += other.Games
	s.SumT += other.SumT
	s.SumT2 += other.SumT2
	s.Values = append(s.Values, other.Values...)
	s.MercyEndings += other.MercyEndings
	s.Abandoned += other.Abandoned
	for id, n := range other.Wins {
		s.Wins[id] += n
	}
	for id, n := range other.Eliminations {
		s.Eliminations[id] += n
	}
	if other.MaxTurns > s.MaxTurns {
		s.MaxTurns = other.MaxTurns
		s.MaxTurnsSeed = other.MaxTurnsSeed
	}
}

// Mean returns the mean game length in turns
func (s *Statistics) Mean() float64 {
	if s.Games == 0 {
		return 0
	}
	return s.SumT / float64(s.Games)
}

// Variance returns the sample variance of game length
func (s *Statistics) Variance() float64 {
	if s.Games < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.SumT2 - float64(s.Games)*mean*mean) / float64(s.Games-1)
}

// StdDev returns the sample standard deviation of game length
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean
func (s *Statistics) StdError() float64 {
	if s.Games == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Games))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// Median returns the median game length
func (s *Statistics) Median() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := slices.Clone(s.Values)
	sort.Ints(sorted)

	n := len(sorted)
	if n%2 == 0 {
		return float64(sorted[n/2-1]+sorted[n/2]) / 2
	}
	return float64(sorted[n/2])
}

// Percentile returns the game length at the given percentile (0.0 to 1.0)
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := slices.Clone(s.Values)
	sort.Ints(sorted)

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1

	if upper >= len(sorted) {
		return float64(sorted[len(sorted)-1])
	}

	weight := index - float64(lower)
	return float64(sorted[lower])*(1-weight) + float64(sorted[upper])*weight
}

// WinRate returns the share of games seat id won
func (s *Statistics) WinRate(id string) float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.Wins[id]) / float64(s.Games)
}

// Seats returns every seat id that won or was eliminated, sorted
func (s *Statistics) Seats() []string {
	ids := slices.Concat(slices.Collect(maps.Keys(s.Wins)), slices.Collect(maps.Keys(s.Eliminations)))
	slices.Sort(ids)
	return slices.Compact(ids)
}

// Validate checks the tallies are consistent
func (s *Statistics) Validate() error {
	if s.Games <= 0 {
		return fmt.Errorf("invalid games count: %d", s.Games)
	}

	if len(s.Values) != s.Games {
		return fmt.Errorf("values array length (%d) does not match games count (%d)",
			len(s.Values), s.Games)
	}

	outcomes := s.MercyEndings
	for _, n := range s.Wins {
		outcomes += n
	}
	if outcomes != s.Games {
		return fmt.Errorf("outcomes (%d) do not match games count (%d)", outcomes, s.Games)
	}

	return nil
}

// Summary is the machine-readable digest written by simulate --out
type Summary struct {
	Games        int            `json:"games"`
	MeanTurns    float64        `json:"meanTurns"`
	MedianTurns  float64        `json:"medianTurns"`
	StdDevTurns  float64        `json:"stdDevTurns"`
	MaxTurns     int            `json:"maxTurns"`
	MaxTurnsSeed int64          `json:"maxTurnsSeed"`
	Wins         map[string]int `json:"wins"`
	MercyEndings int            `json:"mercyEndings"`
	Eliminations map[string]int `json:"eliminations"`
	Abandoned    int            `json:"abandoned"`
}

// Summary returns a digest of the statistics
func (s *Statistics) Summary() Summary {
	return Summary{
		Games:        s.Games,
		MeanTurns:    s.Mean(),
		MedianTurns:  s.Median(),
		StdDevTurns:  s.StdDev(),
		MaxTurns:     s.MaxTurns,
		MaxTurnsSeed: s.MaxTurnsSeed,
		Wins:         maps.Clone(s.Wins),
		MercyEndings: s.MercyEndings,
		Eliminations: maps.Clone(s.Eliminations),
		Abandoned:    s.Abandoned,
	}
}
