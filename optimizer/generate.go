package optimizer

import (
	"fmt"
	"math/rand/v2"
)

// SlotNames lists the relic slots of a character build.
var SlotNames = []string{"Head", "Hands", "Body", "Feet", "PlanarSphere", "LinkRope"}

// StatNames lists the stats produced by Generate.
var StatNames = []string{"HP%", "ATK%", "DEF%", "SPD", "CRIT Rate", "CRIT DMG", "Effect Hit Rate", "Break Effect"}

// Generate builds a deterministic inventory with perSlot relics in each of
// slots slots. Every relic rolls four distinct stats.
func Generate(seed uint64, slots, perSlot int) [][]Relic {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	inventory := make([][]Relic, slots)
	for s := range inventory {
		name := SlotNames[s%len(SlotNames)]
		inventory[s] = make([]Relic, perSlot)
		for j := range inventory[s] {
			stats := make(map[string]float64, 4)
			for _, k := range rng.Perm(len(StatNames))[:4] {
				stats[StatNames[k]] = float64(rng.IntN(1000)) / 100
			}
			inventory[s][j] = Relic{ID: fmt.Sprintf("%s-%03d", name, j), Slot: name, Stats: stats}
		}
	}
	return inventory
}
