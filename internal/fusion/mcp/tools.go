package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rsned/fusion-planner/internal/fusion/engine"
	"github.com/rsned/fusion-planner/pkg/fusion"
)

// ToolDefinition describes an MCP tool.
type ToolDefinition struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	InputSchema JSONSchema `json:"inputSchema"`
}

// JSONSchema is a simplified JSON Schema representation.
type JSONSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes a schema property.
type Property struct {
	Type        string              `json:"type,omitempty"`
	Description string              `json:"description,omitempty"`
	Default     any                 `json:"default,omitempty"`
	Minimum     *float64            `json:"minimum,omitempty"`
	Items       *Property           `json:"items,omitempty"`
	Properties  map[string]Property `json:"properties,omitempty"`
}

// GetToolDefinitions returns all tool definitions.
func GetToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		fusionPlanTool(),
		costTableTool(),
		commodityLookupTool(),
		findCyclesTool(),
	}
}

func levelsProperty() Property {
	zero := 0.0
	level := func(desc string) Property {
		return Property{Type: "integer", Description: desc, Default: 0, Minimum: &zero}
	}
	return Property{
		Type:        "object",
		Description: "Bonus levels that compound into the amplified-output multiplier",
		Properties: map[string]Property{
			"primary":   level("Primary bonus level"),
			"secondary": level("Secondary bonus level"),
			"tertiary":  level("Tertiary bonus level; zero disables amplification"),
		},
	}
}

func fusionPlanTool() ToolDefinition {
	minQty := 1.0

	return ToolDefinition{
		Name:        "fusion_plan",
		Description: "Plan the cheapest way to obtain a commodity. Returns cost per unit, total gathering time, the production tree and a shopping list of raw commodities.",
		InputSchema: JSONSchema{
			Type: "object",
			Properties: map[string]Property{
				"target": {
					Type:        "string",
					Description: "Commodity ID to produce",
				},
				"quantity": {
					Type:        "integer",
					Description: "Units required",
					Default:     1,
					Minimum:     &minQty,
				},
				"levels": levelsProperty(),
			},
			Required: []string{"target"},
		},
	}
}

func costTableTool() ToolDefinition {
	minLimit := 0.0

	return ToolDefinition{
		Name:        "cost_table",
		Description: "List the minimal hours per unit and the chosen method for commodities, cheapest first.",
		InputSchema: JSONSchema{
			Type: "object",
			Properties: map[string]Property{
				"ids": {
					Type:        "array",
					Description: "Commodity IDs to include; all when empty",
					Items:       &Property{Type: "string"},
				},
				"levels": levelsProperty(),
				"limit": {
					Type:        "integer",
					Description: "Max entries; zero for no limit",
					Default:     0,
					Minimum:     &minLimit,
				},
			},
		},
	}
}

func commodityLookupTool() ToolDefinition {
	return ToolDefinition{
		Name:        "commodity_lookup",
		Description: "Get a commodity with the recipes that produce it and the recipes that consume it.",
		InputSchema: JSONSchema{
			Type: "object",
			Properties: map[string]Property{
				"id": {
					Type:        "string",
					Description: "Commodity ID",
				},
			},
			Required: []string{"id"},
		},
	}
}

func findCyclesTool() ToolDefinition {
	return ToolDefinition{
		Name:        "find_cycles",
		Description: "Find groups of commodities whose cheapest recipes depend on each other at the given bonus levels.",
		InputSchema: JSONSchema{
			Type: "object",
			Properties: map[string]Property{
				"levels": levelsProperty(),
			},
		},
	}
}

func decodeArgs(args json.RawMessage, v any) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	return nil
}

func validateLevels(levels fusion.BonusLevels) error {
	if err := levels.Validate(); err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	return nil
}

func (s *Server) toolFusionPlan(ctx context.Context, args json.RawMessage) (any, []string, error) {
	var req fusion.PlanRequest
	if err := decodeArgs(args, &req); err != nil {
		return nil, nil, err
	}
	if req.Target == "" {
		return nil, nil, fmt.Errorf("%w: target is required", errInvalidParams)
	}
	if err := validateLevels(req.Levels); err != nil {
		return nil, nil, err
	}

	resp, err := s.engine.Plan(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	return resp, []string{engine.FormatPlanSummary(resp)}, nil
}

func (s *Server) toolCostTable(ctx context.Context, args json.RawMessage) (any, error) {
	var req fusion.CostTableRequest
	if err := decodeArgs(args, &req); err != nil {
		return nil, err
	}
	if err := validateLevels(req.Levels); err != nil {
		return nil, err
	}
	return s.engine.CostTable(ctx, req)
}

func (s *Server) toolCommodityLookup(ctx context.Context, args json.RawMessage) (any, error) {
	var req fusion.CommodityLookupRequest
	if err := decodeArgs(args, &req); err != nil {
		return nil, err
	}
	if req.ID == "" {
		return nil, fmt.Errorf("%w: id is required", errInvalidParams)
	}
	return s.engine.CommodityLookup(ctx, req)
}

func (s *Server) toolFindCycles(ctx context.Context, args json.RawMessage) (any, error) {
	var req fusion.CyclesRequest
	if err := decodeArgs(args, &req); err != nil {
		return nil, err
	}
	if err := validateLevels(req.Levels); err != nil {
		return nil, err
	}
	return s.engine.Cycles(ctx, req)
}
