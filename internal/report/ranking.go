package report

import (
	"math"
	"sort"

	"github.com/rodriguezariascarlos/tccm-homeworks/internal/domain"
)

// DefaultTopPairs is used when a non-positive count is requested.
const DefaultTopPairs = 5

// TopPairs ranks pair energies by magnitude and returns at most n of them.
// Ties keep their loop order. The input slice is not modified.
func TopPairs(pairs []domain.PairEnergy, n int) []domain.PairEnergy {
	if n <= 0 {
		n = DefaultTopPairs
	}
	ranked := make([]domain.PairEnergy, len(pairs))
	copy(ranked, pairs)
	sort.SliceStable(ranked, func(i, j int) bool {
		return math.Abs(ranked[i].Energy) > math.Abs(ranked[j].Energy)
	})
	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}

// Share is the fraction of total carried by e, or 0 when total is 0.
func Share(e, total float64) float64 {
	if total == 0 {
		return 0
	}
	return e / total
}
