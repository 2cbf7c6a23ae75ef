package planner

import (
	"time"

	"github.com/rsned/fusion-planner/pkg/fusion"
)

// Planner plans production over a fixed graph. It is safe for concurrent
// use; every call owns its cost tables and tree.
type Planner struct {
	graph *Graph
	cfg   Config
}

// New creates a Planner.
func New(g *Graph, cfg Config) *Planner {
	return &Planner{graph: g, cfg: cfg}
}

// Graph returns the planner's graph.
func (p *Planner) Graph() *Graph {
	return p.graph
}

// Config returns the planner's configuration.
func (p *Planner) Config() Config {
	return p.cfg
}

// Solve computes the cost and choice tables for the given levels.
func (p *Planner) Solve(levels fusion.BonusLevels) *Solution {
	return Solve(p.graph, levels, p.cfg)
}

// Cycles solves for the given levels and returns every detected cycle,
// regardless of whether the levels can amplify output.
func (p *Planner) Cycles(levels fusion.BonusLevels) []fusion.Cycle {
	return FindCycles(p.graph, p.Solve(levels).Choice)
}

// Plan computes how to produce quantity units of target. An unknown target
// yields a zero-valued plan with Found false.
func (p *Planner) Plan(target string, quantity int, levels fusion.BonusLevels) *fusion.Plan {
	if _, ok := p.graph.Commodity(target); !ok {
		return &fusion.Plan{Target: target}
	}

	sol := p.Solve(levels)
	r := newRun(p.graph, p.cfg, levels, sol)
	if p.cfg.AlwaysDetectCycles || levels.MayAmplify() {
		r.setCycles(FindCycles(p.graph, sol.Choice))
	}

	tree := r.build(target, make(map[string]bool))
	crafts := 0
	r.propagate(tree, float64(quantity), &crafts)

	plan := &fusion.Plan{
		Target:          target,
		Found:           true,
		Quantity:        quantity,
		CostPerUnit:     sol.Cost[target],
		TotalQuantities: Aggregate(tree),
		TotalCrafts:     crafts,
		CraftTime:       time.Duration(crafts) * p.cfg.CraftDuration,
		Converged:       sol.Converged,
		Tree:            tree,
	}

	switch top := tree.(type) {
	case *fusion.DirectNode:
		plan.TotalProduced = float64(quantity)
	case *fusion.RecipeNode:
		plan.CraftsNeeded = top.CraftsNeeded
		plan.TotalProduced = float64(top.CraftsNeeded) * top.Recipe.EffectiveOutput(r.amp)
	case *fusion.CycleMemberNode:
		plan.CraftsNeeded = top.CraftsNeeded
		plan.TotalProduced = float64(top.CraftsNeeded) * top.Recipe.EffectiveOutput(r.amp)
	case *fusion.CycleGroupNode:
		st := top.Stats[0]
		yield := st.ExpectedOutput
		if st.NetOutputPerIteration > 0 {
			yield = st.NetOutputPerIteration
		}
		plan.CraftsNeeded = st.ExpectedCrafts
		plan.TotalProduced = float64(st.ExpectedCrafts) * yield
	}

	if plan.TotalProduced > 0 {
		plan.TotalTime = plan.CostPerUnit * plan.TotalProduced
	}
	return plan
}
