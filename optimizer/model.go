package optimizer

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
)

const (
	// MaxCombinations bounds the space Partition accepts.
	MaxCombinations = math.MaxInt32
	// MaxParts bounds the number of requests Partition produces.
	MaxParts = 1 << 20
)

// ErrSpaceTooLarge is returned for searches beyond MaxCombinations or MaxParts.
var ErrSpaceTooLarge = errors.New("combination space too large")

// Relic is one equippable item.
type Relic struct {
	ID    string             `json:"id" yaml:"id"`
	Slot  string             `json:"slot,omitempty" yaml:"slot,omitempty"`
	Stats map[string]float64 `json:"stats,omitempty" yaml:"stats,omitempty"`
}

// Request asks for combinations [Offset, Offset+Limit) of Slots to be scored.
// Combination i picks relic (i / stride(s)) % len(Slots[s]) from every slot s,
// where the last slot varies fastest.
type Request struct {
	Weights map[string]float64 `json:"weights" yaml:"weights"`
	Slots   [][]Relic          `json:"slots" yaml:"slots"`
	Offset  int                `json:"offset" yaml:"offset"`
	Limit   int                `json:"limit" yaml:"limit"`
}

// Response is the best build found in a scored range.
type Response struct {
	Offset    int      `json:"offset" yaml:"offset"`
	Evaluated int      `json:"evaluated" yaml:"evaluated"`
	Best      []string `json:"best,omitempty" yaml:"best,omitempty"`
	Score     float64  `json:"score" yaml:"score"`
	Truncated bool     `json:"truncated,omitempty" yaml:"truncated,omitempty"`
}

// Combinations returns the size of the combination space, 0 when a slot is
// empty. The count saturates at math.MaxInt.
func Combinations(slots [][]Relic) int {
	return product(slotSizes(slots))
}

// Space returns the combination count of slots holding sizes relics each and
// fails with ErrSpaceTooLarge beyond MaxCombinations.
func Space(sizes ...int) (int, error) {
	total := product(sizes)
	if total > MaxCombinations {
		return 0, fmt.Errorf("%w: %v relics per slot exceed %d combinations", ErrSpaceTooLarge, sizes, MaxCombinations)
	}
	return total, nil
}

func slotSizes(slots [][]Relic) []int {
	sizes := make([]int, len(slots))
	for i, slot := range slots {
		sizes[i] = len(slot)
	}
	return sizes
}

func product(sizes []int) int {
	if len(sizes) == 0 {
		return 0
	}
	total, saturated := uint64(1), false
	for _, n := range sizes {
		if n <= 0 {
			return 0
		}
		if saturated {
			continue
		}
		hi, lo := bits.Mul64(total, uint64(n))
		if hi != 0 || lo > math.MaxInt {
			saturated = true
			continue
		}
		total = lo
	}
	if saturated {
		return math.MaxInt
	}
	return int(total)
}

// Score returns the weighted stat sum of relic.
func Score(relic Relic, weights map[string]float64) float64 {
	var score float64
	for stat, value := range relic.Stats {
		score += weights[stat] * value
	}
	return score
}
