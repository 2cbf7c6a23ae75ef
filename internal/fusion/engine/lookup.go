package engine

import (
	"context"
	"fmt"

	"github.com/rsned/fusion-planner/pkg/fusion"
)

// CommodityLookup executes the commodity_lookup tool logic.
func (e *Engine) CommodityLookup(ctx context.Context, req fusion.CommodityLookupRequest) (*fusion.CommodityLookupResponse, error) {
	c, err := e.commodities.GetCommodity(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%q: %w", req.ID, fusion.ErrUnknownCommodity)
	}

	producedBy, err := e.recipes.FindRecipesByOutput(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	usedIn, err := e.recipes.FindRecipesUsing(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	return &fusion.CommodityLookupResponse{
		Commodity:  *c,
		ProducedBy: producedBy,
		UsedIn:     usedIn,
	}, nil
}

// Cycles executes the find_cycles tool logic. Cycles are reported even
// when the levels cannot amplify, where plans would not use them.
func (e *Engine) Cycles(ctx context.Context, req fusion.CyclesRequest) (*fusion.CyclesResponse, error) {
	if err := req.Levels.Validate(); err != nil {
		return nil, err
	}
	p, err := e.loadPlanner(ctx)
	if err != nil {
		return nil, err
	}

	cycles := p.Cycles(req.Levels)
	if cycles == nil {
		cycles = []fusion.Cycle{}
	}
	return &fusion.CyclesResponse{
		Cycles:        cycles,
		AmpMultiplier: req.Levels.AmpMultiplier(),
	}, nil
}
