package planner

import "github.com/rsned/fusion-planner/pkg/fusion"

// Aggregate sums the quantity of every direct leaf under n. Cycle groups
// contribute their input recipe and external input trees; the outputs a
// cycle makes and consumes internally never appear.
func Aggregate(n fusion.Node) map[string]float64 {
	totals := make(map[string]float64)
	fusion.Walk(n, func(n fusion.Node) bool {
		if d, ok := n.(*fusion.DirectNode); ok && d.Quantity > 0 {
			totals[d.ID] += d.Quantity
		}
		return true
	})
	return totals
}
