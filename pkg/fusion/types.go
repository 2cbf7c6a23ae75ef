// Package fusion contains the core types for the fusion planner.
package fusion

import (
	"fmt"
	"math"
	"time"
)

// ============================================
// COMMODITY TYPES
// ============================================

// Rarity is the rarity tier of a commodity.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// ValidRarities returns all rarity tiers from lowest to highest.
func ValidRarities() []Rarity {
	return []Rarity{
		RarityCommon,
		RarityUncommon,
		RarityRare,
		RarityEpic,
		RarityLegendary,
	}
}

// IsValid checks if the rarity is a known tier.
func (r Rarity) IsValid() bool {
	for _, valid := range ValidRarities() {
		if r == valid {
			return true
		}
	}
	return false
}

// Commodity is a gatherable or craftable resource.
type Commodity struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Type     string   `json:"type,omitempty"`
	Families []string `json:"families,omitempty"`
	Rarity   Rarity   `json:"rarity,omitempty"`

	// FuseAmount is how many units one recipe use consumes when this
	// commodity appears as an input.
	FuseAmount int `json:"fuse_amount"`

	// Rate is units gathered per hour. Zero means not directly obtainable.
	Rate float64 `json:"rate,omitempty"`
}

// Gatherable reports whether the commodity can be gathered directly.
func (c Commodity) Gatherable() bool {
	return c.Rate > 0
}

// ============================================
// RECIPE TYPES
// ============================================

// Recipe combines exactly two input commodities into an output.
type Recipe struct {
	Output         string    `json:"output"`
	Inputs         [2]string `json:"inputs"`
	OutputQuantity int       `json:"output_quantity"`

	// Amplified recipes have their output multiplied by the bonus chain.
	Amplified bool `json:"amplified,omitempty"`
}

// EffectiveOutput returns the units one craft yields under the given
// amplification multiplier.
func (r Recipe) EffectiveOutput(amp float64) float64 {
	if r.Amplified {
		return float64(r.OutputQuantity) * amp
	}
	return float64(r.OutputQuantity)
}

// Consumes reports whether id is one of the recipe's inputs.
func (r Recipe) Consumes(id string) bool {
	return r.Inputs[0] == id || r.Inputs[1] == id
}

// BonusLevels are the three chained bonus levels that compound into the
// amplified-output multiplier.
type BonusLevels struct {
	Primary   int `json:"primary"`
	Secondary int `json:"secondary"`
	Tertiary  int `json:"tertiary"`
}

// AmpMultiplier returns the output multiplier applied to amplified recipes.
func (b BonusLevels) AmpMultiplier() float64 {
	mult1 := 1 + 5*float64(b.Primary)/100
	mult2 := 1 + (2*float64(b.Secondary)/100)*mult1
	return 1 + (2*float64(b.Tertiary)/100)*mult2
}

// Zero reports whether every level is zero.
func (b BonusLevels) Zero() bool {
	return b == BonusLevels{}
}

// MayAmplify reports whether the levels can push AmpMultiplier above one.
// The chain is exactly one whenever Tertiary is zero.
func (b BonusLevels) MayAmplify() bool {
	return b.Tertiary != 0
}

// Validate rejects negative levels. They drive the multiplier below zero,
// which makes recipe costs negative.
func (b BonusLevels) Validate() error {
	levels := []struct {
		name  string
		value int
	}{
		{"primary", b.Primary},
		{"secondary", b.Secondary},
		{"tertiary", b.Tertiary},
	}
	for _, l := range levels {
		if l.value < 0 {
			return fmt.Errorf("%s level %d is negative: %w", l.name, l.value, ErrInvalidData)
		}
	}
	return nil
}

// ============================================
// CYCLE TYPES
// ============================================

// CycleStep is one commodity in a cycle and the recipe chosen for it.
type CycleStep struct {
	Commodity string `json:"commodity"`
	Recipe    Recipe `json:"recipe"`
}

// Cycle is a strongly connected set of commodities whose chosen recipes
// depend on each other, stored as a flat list of steps.
type Cycle struct {
	Steps []CycleStep `json:"steps"`
}

// Members returns the commodity ids in step order.
func (c Cycle) Members() []string {
	ids := make([]string, len(c.Steps))
	for i, s := range c.Steps {
		ids[i] = s.Commodity
	}
	return ids
}

// Contains reports whether id is one of the cycle's members.
func (c Cycle) Contains(id string) bool {
	for _, s := range c.Steps {
		if s.Commodity == id {
			return true
		}
	}
	return false
}

// Step returns the step that produces id.
func (c Cycle) Step(id string) (CycleStep, bool) {
	for _, s := range c.Steps {
		if s.Commodity == id {
			return s, true
		}
	}
	return CycleStep{}, false
}

// ============================================
// PLAN TYPES
// ============================================

// Plan is the result of planning the production of a target commodity.
type Plan struct {
	Target string `json:"target"`

	// Found is false when the target is not in the commodity table.
	// Every other field is then zero.
	Found bool `json:"found"`

	Quantity int `json:"quantity"`

	// CostPerUnit is the minimal hours to obtain one unit. +Inf when unreachable.
	CostPerUnit float64 `json:"cost_per_unit"`

	// TotalTime is CostPerUnit times TotalProduced, in hours.
	TotalTime float64 `json:"total_time"`

	// TotalProduced can exceed Quantity because crafts are whole.
	TotalProduced float64 `json:"total_produced"`

	CraftsNeeded    int                `json:"crafts_needed"`
	TotalQuantities map[string]float64 `json:"total_quantities"`
	TotalCrafts     int                `json:"total_crafts"`
	CraftTime       time.Duration      `json:"craft_time"`
	Converged       bool               `json:"converged"`
	Tree            Node               `json:"tree,omitempty"`
}

// IsReachable reports whether a cost denotes an obtainable commodity.
func IsReachable(cost float64) bool {
	return !math.IsInf(cost, 1) && !math.IsNaN(cost)
}

// ============================================
// TOOL REQUEST/RESPONSE TYPES
// ============================================

// PlanRequest is the input for the fusion_plan tool.
type PlanRequest struct {
	Target   string      `json:"target"`
	Quantity int         `json:"quantity"`
	Levels   BonusLevels `json:"levels"`
}

// PlanResponse is the output for the fusion_plan tool.
type PlanResponse struct {
	PlanID       string         `json:"plan_id"`
	TargetName   string         `json:"target_name,omitempty"`
	Found        bool           `json:"found"`
	Reachable    bool           `json:"reachable"`
	ShoppingList []ShoppingItem `json:"shopping_list"`
	Plan         *Plan          `json:"plan"`
}

// ShoppingItem is one raw commodity the plan consumes.
type ShoppingItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Rate     float64 `json:"rate,omitempty"`

	// Hours is Quantity divided by Rate; zero when the commodity has no rate.
	Hours float64 `json:"hours,omitempty"`
}

// CostTableRequest is the input for the cost_table tool.
type CostTableRequest struct {
	IDs    []string    `json:"ids,omitempty"`
	Levels BonusLevels `json:"levels"`
	Limit  int         `json:"limit"`
}

// CostTableResponse is the output for the cost_table tool.
type CostTableResponse struct {
	Entries       []CostEntry `json:"entries"`
	AmpMultiplier float64     `json:"amp_multiplier"`
	Passes        int         `json:"passes"`
	Converged     bool        `json:"converged"`
}

// CostEntry is the cheapest known way to obtain one unit of a commodity.
type CostEntry struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Reachable bool   `json:"reachable"`

	// HoursPerUnit encodes as null when unreachable.
	HoursPerUnit float64 `json:"hours_per_unit"`
	Method       string  `json:"method"` // "direct", "recipe" or "none"
	Recipe       *Recipe `json:"recipe,omitempty"`
}

// Cost entry methods.
const (
	MethodDirect = "direct"
	MethodRecipe = "recipe"
	MethodNone   = "none"
)

// CommodityLookupRequest is the input for the commodity_lookup tool.
type CommodityLookupRequest struct {
	ID string `json:"id"`
}

// CommodityLookupResponse is the output for the commodity_lookup tool.
type CommodityLookupResponse struct {
	Commodity  Commodity `json:"commodity"`
	ProducedBy []Recipe  `json:"produced_by,omitempty"`
	UsedIn     []Recipe  `json:"used_in,omitempty"`
}

// CyclesRequest is the input for the find_cycles tool.
type CyclesRequest struct {
	Levels BonusLevels `json:"levels"`
}

// CyclesResponse is the output for the find_cycles tool.
type CyclesResponse struct {
	Cycles        []Cycle `json:"cycles"`
	AmpMultiplier float64 `json:"amp_multiplier"`
}
