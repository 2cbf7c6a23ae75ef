// Package planner computes minimum-cost production plans over a two-input
// recipe graph.
package planner

import (
	"fmt"
	"sort"

	"github.com/rsned/fusion-planner/pkg/fusion"
)

// Graph is a validated, immutable commodity table and recipe index.
type Graph struct {
	ids         []string // sorted
	commodities map[string]fusion.Commodity
	recipes     map[string][]fusion.Recipe // output id -> candidate recipes
}

// NewGraph validates the definitions and builds a Graph. Every id a recipe
// references must exist in commodities.
func NewGraph(commodities []fusion.Commodity, recipes []fusion.Recipe) (*Graph, error) {
	g := &Graph{
		ids:         make([]string, 0, len(commodities)),
		commodities: make(map[string]fusion.Commodity, len(commodities)),
		recipes:     make(map[string][]fusion.Recipe),
	}

	for _, c := range commodities {
		if _, dup := g.commodities[c.ID]; dup {
			return nil, fmt.Errorf("duplicate commodity %q: %w", c.ID, fusion.ErrInvalidData)
		}
		if c.FuseAmount <= 0 {
			return nil, fmt.Errorf("commodity %q has fuse amount %d: %w", c.ID, c.FuseAmount, fusion.ErrInvalidData)
		}
		if c.Rate < 0 {
			return nil, fmt.Errorf("commodity %q has negative rate: %w", c.ID, fusion.ErrInvalidData)
		}
		g.commodities[c.ID] = c
		g.ids = append(g.ids, c.ID)
	}
	sort.Strings(g.ids)

	for _, r := range recipes {
		for _, id := range []string{r.Output, r.Inputs[0], r.Inputs[1]} {
			if _, ok := g.commodities[id]; !ok {
				return nil, fmt.Errorf("recipe %s references %q: %w", recipeLabel(r), id, fusion.ErrUnknownCommodity)
			}
		}
		if r.OutputQuantity <= 0 {
			return nil, fmt.Errorf("recipe %s has output quantity %d: %w", recipeLabel(r), r.OutputQuantity, fusion.ErrInvalidData)
		}
		g.recipes[r.Output] = append(g.recipes[r.Output], r)
	}

	return g, nil
}

// IDs returns all commodity ids in sorted order.
func (g *Graph) IDs() []string {
	out := make([]string, len(g.ids))
	copy(out, g.ids)
	return out
}

// Commodity returns the commodity with the given id.
func (g *Graph) Commodity(id string) (fusion.Commodity, bool) {
	c, ok := g.commodities[id]
	return c, ok
}

// Recipes returns the candidate recipes producing id.
func (g *Graph) Recipes(id string) []fusion.Recipe {
	return g.recipes[id]
}

// Len returns the number of commodities.
func (g *Graph) Len() int {
	return len(g.ids)
}

// RecipeCount returns the number of recipes.
func (g *Graph) RecipeCount() int {
	n := 0
	for _, rs := range g.recipes {
		n += len(rs)
	}
	return n
}

func (g *Graph) fuse(id string) float64 {
	return float64(g.commodities[id].FuseAmount)
}

func recipeLabel(r fusion.Recipe) string {
	return fmt.Sprintf("%s+%s->%s", r.Inputs[0], r.Inputs[1], r.Output)
}
