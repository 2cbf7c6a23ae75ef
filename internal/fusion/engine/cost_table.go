package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/rsned/fusion-planner/pkg/fusion"
)

// CostTable executes the cost_table tool logic.
func (e *Engine) CostTable(ctx context.Context, req fusion.CostTableRequest) (*fusion.CostTableResponse, error) {
	if err := req.Levels.Validate(); err != nil {
		return nil, err
	}
	p, err := e.loadPlanner(ctx)
	if err != nil {
		return nil, err
	}
	g := p.Graph()

	ids := req.IDs
	if len(ids) == 0 {
		ids = g.IDs()
	}

	sol := p.Solve(req.Levels)
	if !sol.Converged {
		e.logger.Warn("cost relaxation hit pass limit", "passes", sol.Passes)
	}

	entries := make([]fusion.CostEntry, 0, len(ids))
	for _, id := range ids {
		c, ok := g.Commodity(id)
		if !ok {
			return nil, fmt.Errorf("%q: %w", id, fusion.ErrUnknownCommodity)
		}

		cost := sol.Cost[id]
		entry := fusion.CostEntry{
			ID:           id,
			Name:         c.Name,
			Reachable:    fusion.IsReachable(cost),
			HoursPerUnit: cost,
			Method:       fusion.MethodNone,
		}
		switch {
		case sol.Choice[id] != nil:
			r := *sol.Choice[id]
			entry.Method = fusion.MethodRecipe
			entry.Recipe = &r
		case entry.Reachable:
			entry.Method = fusion.MethodDirect
		}
		entries = append(entries, entry)
	}

	// Cheapest first, unreachable last.
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Reachable != b.Reachable {
			return a.Reachable
		}
		if a.HoursPerUnit != b.HoursPerUnit {
			return a.HoursPerUnit < b.HoursPerUnit
		}
		return a.ID < b.ID
	})

	if req.Limit > 0 && len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	return &fusion.CostTableResponse{
		Entries:       entries,
		AmpMultiplier: req.Levels.AmpMultiplier(),
		Passes:        sol.Passes,
		Converged:     sol.Converged,
	}, nil
}
