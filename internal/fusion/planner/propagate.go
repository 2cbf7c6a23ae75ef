package planner

import (
	"math"

	"github.com/rsned/fusion-planner/pkg/fusion"
)

// ceilTolerance is relative to quantity. It absorbs float error from
// amplified outputs so that an exact multiple does not round up to an
// extra craft, at any magnitude.
const ceilTolerance = 1e-12

// craftsFor returns the whole crafts needed to cover quantity.
func craftsFor(quantity, perCraft float64) int {
	if quantity <= 0 || perCraft <= 0 {
		return 0
	}
	n := int(math.Ceil(quantity / perCraft))
	// One craft fewer already covers quantity within tolerance.
	if n > 1 && float64(n-1)*perCraft >= quantity*(1-ceilTolerance) {
		n--
	}
	if n < 1 {
		n = 1
	}
	return n
}

// propagate annotates n with the quantity it must supply and adds every
// craft it schedules to crafts.
func (r *run) propagate(n fusion.Node, quantity float64, crafts *int) {
	switch v := n.(type) {
	case *fusion.DirectNode:
		v.Quantity = quantity
	case *fusion.RecipeNode:
		v.Quantity = quantity
		v.CraftsNeeded = r.propagateRecipe(v.Recipe, v.Inputs, quantity, crafts)
	case *fusion.CycleMemberNode:
		v.Quantity = quantity
		v.CraftsNeeded = r.propagateRecipe(v.Recipe, v.Inputs, quantity, crafts)
	case *fusion.CycleGroupNode:
		r.propagateGroup(v, quantity, crafts)
	default:
		panic("planner: unknown node type")
	}
}

func (r *run) propagateRecipe(rec fusion.Recipe, inputs [2]fusion.Node, quantity float64, crafts *int) int {
	n := craftsFor(quantity, rec.EffectiveOutput(r.amp))
	*crafts += n
	for i, in := range inputs {
		r.propagate(in, float64(n)*r.g.fuse(rec.Inputs[i]), crafts)
	}
	return n
}

// propagateGroup runs the cycle enough iterations to net quantity units of
// the group's commodity, then sizes the trees feeding it from outside.
func (r *run) propagateGroup(v *fusion.CycleGroupNode, quantity float64, crafts *int) {
	v.Quantity = quantity
	v.Stats = v.Stats[:0]

	totals := make(map[string]float64)
	var order []string

	for _, cycle := range v.Cycles {
		step, _ := cycle.Step(v.ID)

		st := fusion.CycleStats{
			BaseOutput: step.Recipe.OutputQuantity,
			Multiplier: 1,
		}
		if step.Recipe.Amplified {
			st.Multiplier = r.amp
		}
		st.ExpectedOutput = float64(st.BaseOutput) * st.Multiplier

		for _, s := range cycle.Steps {
			for _, in := range s.Recipe.Inputs {
				if in == v.ID {
					st.ConsumedPerIteration += r.g.fuse(in)
				}
			}
		}

		// Both co-dependent commodities complete one loop per iteration.
		st.NetOutputPerIteration = 2 * (st.ExpectedOutput - st.ConsumedPerIteration)
		if st.NetOutputPerIteration > 0 {
			st.ExpectedCrafts = craftsFor(quantity, st.NetOutputPerIteration)
		} else {
			st.ExpectedCrafts = craftsFor(quantity, st.ExpectedOutput)
		}
		*crafts += st.ExpectedCrafts * len(cycle.Steps)
		v.Stats = append(v.Stats, st)

		for _, s := range cycle.Steps {
			for _, in := range s.Recipe.Inputs {
				if cycle.Contains(in) {
					continue
				}
				if _, seen := totals[in]; !seen {
					order = append(order, in)
				}
				totals[in] += float64(st.ExpectedCrafts) * r.g.fuse(in)
			}
		}
	}

	v.SeedQuantity = 0
	if quantity > 0 {
		v.SeedQuantity = r.seedQuantity(v)
	}
	r.propagate(v.InputRecipe, v.SeedQuantity, crafts)

	v.Externals = v.Externals[:0]
	for _, id := range order {
		tree := r.buildBaseline(id, make(map[string]bool))
		r.propagate(tree, totals[id], crafts)
		v.Externals = append(v.Externals, fusion.ExternalInput{ID: id, Quantity: totals[id], Tree: tree})
	}
}

// seedQuantity is one iteration's consumption of the representative, and
// at least one fuse amount of it.
func (r *run) seedQuantity(v *fusion.CycleGroupNode) float64 {
	fuse := r.g.fuse(v.Representative)
	seed := 0.0
	for _, cycle := range v.Cycles {
		for _, s := range cycle.Steps {
			for _, in := range s.Recipe.Inputs {
				if in == v.Representative {
					seed += fuse
				}
			}
		}
	}
	if seed == 0 {
		seed = fuse
	}
	return seed
}
