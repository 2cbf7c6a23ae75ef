package planner

import (
	"math"
	"time"

	"github.com/rsned/fusion-planner/pkg/fusion"
)

// Config tunes the planner.
type Config struct {
	// CraftDuration is the time one craft takes. In hours it is also the
	// per-craft penalty added to every recipe's cost.
	CraftDuration time.Duration

	// MaxPasses bounds solver relaxation passes. Zero runs to the fixed point.
	MaxPasses int

	// AlwaysDetectCycles runs cycle detection even when no bonus level can
	// amplify output.
	AlwaysDetectCycles bool
}

// DefaultConfig returns the configuration used by the engine.
func DefaultConfig() Config {
	return Config{
		CraftDuration: 800 * time.Millisecond,
		MaxPasses:     100000,
	}
}

func (c Config) craftPenalty() float64 {
	return c.CraftDuration.Hours()
}

// Solution holds the minimum cost and chosen recipe for every commodity.
type Solution struct {
	// Cost is hours per unit; +Inf when unreachable.
	Cost map[string]float64

	// Choice maps a commodity to its cheapest recipe. Absent means gathering
	// directly is cheapest or the only option.
	Choice map[string]*fusion.Recipe

	Passes    int
	Converged bool
}

// Solve relaxes recipe costs to a fixed point. A pass visits commodities in
// id order and each commodity's recipes in definition order; a recipe
// replaces the current choice only when strictly cheaper. Costs never
// increase, so the loop ends once a full pass makes no update.
func Solve(g *Graph, levels fusion.BonusLevels, cfg Config) *Solution {
	amp := levels.AmpMultiplier()
	penalty := cfg.craftPenalty()

	sol := &Solution{
		Cost:   make(map[string]float64, len(g.ids)),
		Choice: make(map[string]*fusion.Recipe),
	}
	for _, id := range g.ids {
		if rate := g.commodities[id].Rate; rate > 0 {
			sol.Cost[id] = 1 / rate
		} else {
			sol.Cost[id] = math.Inf(1)
		}
	}

	for {
		sol.Passes++
		updated := false

		for _, out := range g.ids {
			candidates := g.recipes[out]
			for i := range candidates {
				r := &candidates[i]
				cost := recipeCost(g, sol.Cost, r, amp, penalty)
				if cost < sol.Cost[out] {
					sol.Cost[out] = cost
					sol.Choice[out] = r
					updated = true
				}
			}
		}

		if !updated {
			sol.Converged = true
			return sol
		}
		if cfg.MaxPasses > 0 && sol.Passes >= cfg.MaxPasses {
			return sol
		}
	}
}

// recipeCost is the cost of one output unit made with r given current costs.
func recipeCost(g *Graph, cost map[string]float64, r *fusion.Recipe, amp, penalty float64) float64 {
	in1, in2 := r.Inputs[0], r.Inputs[1]
	return (cost[in1]*g.fuse(in1) + cost[in2]*g.fuse(in2) + penalty) / r.EffectiveOutput(amp)
}
