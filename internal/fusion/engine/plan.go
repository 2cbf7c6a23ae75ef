package engine

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/rsned/fusion-planner/internal/fusion/planner"
	"github.com/rsned/fusion-planner/pkg/fusion"
)

// Plan executes the fusion_plan tool logic. Identical requests are served
// from the cache and share a PlanID.
func (e *Engine) Plan(ctx context.Context, req fusion.PlanRequest) (*fusion.PlanResponse, error) {
	if err := req.Levels.Validate(); err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	p, err := e.loadPlanner(ctx)
	if err != nil {
		return nil, err
	}

	key := planKey{target: req.Target, quantity: req.Quantity, levels: req.Levels}
	if e.cache != nil {
		if resp, ok := e.cache.Get(key); ok {
			e.logger.Debug("plan cache hit", "target", req.Target, "quantity", req.Quantity)
			return resp, nil
		}
	}

	plan := p.Plan(req.Target, req.Quantity, req.Levels)
	resp := &fusion.PlanResponse{
		PlanID: uuid.NewString(),
		Found:  plan.Found,
		Plan:   plan,
	}

	if plan.Found {
		g := p.Graph()
		if c, ok := g.Commodity(req.Target); ok {
			resp.TargetName = c.Name
		}
		resp.Reachable = fusion.IsReachable(plan.CostPerUnit)
		resp.ShoppingList = shoppingList(g, plan.TotalQuantities)

		if !plan.Converged {
			e.logger.Warn("cost relaxation hit pass limit", "target", req.Target, "max_passes", e.cfg.MaxPasses)
		}
	}

	e.storePlan(p, key, resp)
	return resp, nil
}

// storePlan caches resp only if p is still the current planner. A Reload
// between planning and storing would otherwise leave a stale entry.
func (e *Engine) storePlan(p *planner.Planner, key planKey, resp *fusion.PlanResponse) {
	if e.cache == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.planner == p {
		e.cache.Add(key, resp)
	}
}

// shoppingList turns aggregated totals into items sorted by id.
func shoppingList(g *planner.Graph, totals map[string]float64) []fusion.ShoppingItem {
	items := make([]fusion.ShoppingItem, 0, len(totals))
	for id, qty := range totals {
		item := fusion.ShoppingItem{ID: id, Name: id, Quantity: qty}
		if c, ok := g.Commodity(id); ok {
			item.Name = c.Name
			item.Rate = c.Rate
			if c.Rate > 0 {
				item.Hours = qty / c.Rate
			}
		}
		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].ID < items[j].ID
	})
	return items
}
