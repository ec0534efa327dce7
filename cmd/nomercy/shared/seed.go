package shared

import (
	rand "math/rand/v2"

	"github.com/charmbracelet/log"

	"github.com/lox/nomercy/internal/randutil"
)

// ResolveSeed returns a source for seed and logs the seed actually used so
// the run can be replayed. Zero picks a time-based seed.
func ResolveSeed(logger *log.Logger, seed int64) (*rand.Rand, int64) {
	rng, resolved := randutil.Resolve(seed)
	if seed == 0 {
		logger.Info("Using random seed", "seed", resolved)
	} else {
		logger.Info("Using deterministic seed", "seed", resolved)
	}
	return rng, resolved
}
