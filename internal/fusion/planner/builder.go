package planner

import (
	"github.com/rsned/fusion-planner/pkg/fusion"
)

// run is the state of a single Plan call. Nothing in it is shared between
// calls.
type run struct {
	g      *Graph
	cfg    Config
	amp    float64
	sol    *Solution
	cycles []fusion.Cycle

	// memberOf maps a commodity to the index of the cycle containing it.
	memberOf map[string]int

	// baseline is the solution with every bonus level at zero. Solved on
	// first use.
	baseline *Solution
}

func newRun(g *Graph, cfg Config, levels fusion.BonusLevels, sol *Solution) *run {
	return &run{
		g:        g,
		cfg:      cfg,
		amp:      levels.AmpMultiplier(),
		sol:      sol,
		memberOf: make(map[string]int),
	}
}

func (r *run) setCycles(cycles []fusion.Cycle) {
	r.cycles = cycles
	for i, c := range cycles {
		for _, s := range c.Steps {
			r.memberOf[s.Commodity] = i
		}
	}
}

func (r *run) baselineSolution() *Solution {
	if r.baseline == nil {
		r.baseline = Solve(r.g, fusion.BonusLevels{}, r.cfg)
	}
	return r.baseline
}

func (r *run) direct(id string) *fusion.DirectNode {
	return &fusion.DirectNode{ID: id, Rate: r.g.commodities[id].Rate}
}

// build turns the chosen recipes into a tree rooted at id. Members of a
// detected cycle become a single cycle group. A commodity already on the
// current path is cut off as a direct leaf.
func (r *run) build(id string, path map[string]bool) fusion.Node {
	if ci, ok := r.memberOf[id]; ok {
		return r.buildGroup(id, r.cycles[ci])
	}

	rec := r.sol.Choice[id]
	if rec == nil || path[id] {
		return r.direct(id)
	}

	path[id] = true
	defer delete(path, id)

	n := &fusion.RecipeNode{ID: id, Recipe: *rec}
	n.Inputs[0] = r.build(rec.Inputs[0], path)
	n.Inputs[1] = r.build(rec.Inputs[1], path)
	return n
}

// buildGroup wraps the cycle containing id. The member with the lowest
// baseline cost is the representative; its baseline tree seeds the cycle.
func (r *run) buildGroup(id string, cycle fusion.Cycle) *fusion.CycleGroupNode {
	base := r.baselineSolution()

	rep := ""
	for _, m := range cycle.Members() {
		if rep == "" || base.Cost[m] < base.Cost[rep] || (base.Cost[m] == base.Cost[rep] && m < rep) {
			rep = m
		}
	}

	return &fusion.CycleGroupNode{
		ID:             id,
		Representative: rep,
		InputRecipe:    r.buildBaseline(rep, make(map[string]bool)),
		Cycles:         []fusion.Cycle{cycle},
	}
}

// buildBaseline builds an acyclic tree from the zero-bonus choices. Cycle
// members reached this way are tagged as cycle member nodes.
func (r *run) buildBaseline(id string, path map[string]bool) fusion.Node {
	rec := r.baselineSolution().Choice[id]
	if rec == nil || path[id] {
		return r.direct(id)
	}

	path[id] = true
	defer delete(path, id)

	in1 := r.buildBaseline(rec.Inputs[0], path)
	in2 := r.buildBaseline(rec.Inputs[1], path)

	if _, member := r.memberOf[id]; member {
		return &fusion.CycleMemberNode{ID: id, Recipe: *rec, Inputs: [2]fusion.Node{in1, in2}}
	}
	return &fusion.RecipeNode{ID: id, Recipe: *rec, Inputs: [2]fusion.Node{in1, in2}}
}
