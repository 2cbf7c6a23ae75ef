// Package sync imports commodity and recipe data from JSON files.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rsned/fusion-planner/internal/fusion/db"
	"github.com/rsned/fusion-planner/pkg/fusion"
)

// Syncer loads exported game data into the database.
type Syncer struct {
	db *db.DB
}

// NewSyncer creates a new Syncer.
func NewSyncer(database *db.DB) *Syncer {
	return &Syncer{db: database}
}

// ImportResult describes one completed import.
type ImportResult struct {
	ImportID string
	Count    int
}

// CommodityImport is the accepted shape of one commodity record.
// Several exporters disagree on field names, so alternates are read too.
type CommodityImport struct {
	ID       string   `json:"id"`
	Name     string   `json:"name,omitempty"`
	Type     string   `json:"type,omitempty"`
	Category string   `json:"category,omitempty"`
	Families []string `json:"families,omitempty"`
	Family   string   `json:"family,omitempty"`
	Rarity   string   `json:"rarity,omitempty"`

	FuseAmount int `json:"fuse_amount,omitempty"`
	Fuse       int `json:"fuse,omitempty"`

	Rate        float64 `json:"rate,omitempty"`
	RatePerHour float64 `json:"rate_per_hour,omitempty"`
}

// RecipeImport is the accepted shape of one recipe record.
type RecipeImport struct {
	Output   string `json:"output,omitempty"`
	OutputID string `json:"output_id,omitempty"`

	Inputs []string `json:"inputs,omitempty"`
	Input1 string   `json:"input1,omitempty"`
	Input2 string   `json:"input2,omitempty"`

	OutputQuantity int `json:"output_quantity,omitempty"`
	Quantity       int `json:"quantity,omitempty"`

	Amplified bool `json:"amplified,omitempty"`
}

// ImportCommoditiesFromFile imports commodities from a JSON array file.
func (s *Syncer) ImportCommoditiesFromFile(ctx context.Context, path string) (*ImportResult, error) {
	var imports []CommodityImport
	if err := readJSON(path, &imports); err != nil {
		return nil, err
	}

	commodities := make([]fusion.Commodity, 0, len(imports))
	for i, imp := range imports {
		c, err := transformCommodity(imp)
		if err != nil {
			return nil, fmt.Errorf("commodity %d: %w", i, err)
		}
		commodities = append(commodities, c)
	}

	if err := db.NewCommodityStore(s.db).BulkInsertCommodities(ctx, commodities); err != nil {
		return nil, fmt.Errorf("inserting commodities: %w", err)
	}

	return s.recordSync(ctx, "commodities", len(commodities))
}

// ImportRecipesFromFile imports recipes from a JSON array file. Every
// referenced commodity must already be stored.
func (s *Syncer) ImportRecipesFromFile(ctx context.Context, path string) (*ImportResult, error) {
	var imports []RecipeImport
	if err := readJSON(path, &imports); err != nil {
		return nil, err
	}

	ids, err := db.NewCommodityStore(s.db).ListIDs(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}

	recipes := make([]fusion.Recipe, 0, len(imports))
	for i, imp := range imports {
		r, err := transformRecipe(imp)
		if err != nil {
			return nil, fmt.Errorf("recipe %d: %w", i, err)
		}
		for _, ref := range []string{r.Output, r.Inputs[0], r.Inputs[1]} {
			if !known[ref] {
				return nil, fmt.Errorf("recipe %d references %q: %w", i, ref, fusion.ErrUnknownCommodity)
			}
		}
		recipes = append(recipes, r)
	}

	if err := db.NewRecipeStore(s.db).BulkInsertRecipes(ctx, recipes); err != nil {
		return nil, fmt.Errorf("inserting recipes: %w", err)
	}

	return s.recordSync(ctx, "recipes", len(recipes))
}

// ClearAll removes every recipe and commodity.
func (s *Syncer) ClearAll(ctx context.Context) error {
	if err := db.NewRecipeStore(s.db).ClearRecipes(ctx); err != nil {
		return err
	}
	return db.NewCommodityStore(s.db).ClearCommodities(ctx)
}

func (s *Syncer) recordSync(ctx context.Context, kind string, count int) (*ImportResult, error) {
	res := &ImportResult{ImportID: uuid.NewString(), Count: count}

	meta := []struct{ key, value string }{
		{kind + "_last_sync", time.Now().Format(time.RFC3339)},
		{kind + "_count", strconv.Itoa(count)},
		{kind + "_import_id", res.ImportID},
	}
	for _, m := range meta {
		if err := s.db.SetSyncMetadata(ctx, m.key, m.value); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing JSON: %w", err)
	}
	return nil
}

func transformCommodity(imp CommodityImport) (fusion.Commodity, error) {
	c := fusion.Commodity{
		ID:         strings.TrimSpace(imp.ID),
		Name:       imp.Name,
		Type:       imp.Type,
		Families:   imp.Families,
		FuseAmount: imp.FuseAmount,
		Rate:       imp.Rate,
	}
	if c.ID == "" {
		return c, fmt.Errorf("missing id: %w", fusion.ErrInvalidData)
	}
	if c.Name == "" {
		c.Name = c.ID
	}
	if c.Type == "" {
		c.Type = imp.Category
	}
	if len(c.Families) == 0 && imp.Family != "" {
		c.Families = []string{imp.Family}
	}
	if c.FuseAmount == 0 {
		c.FuseAmount = imp.Fuse
	}
	if c.FuseAmount == 0 {
		c.FuseAmount = 1
	}
	if c.FuseAmount < 0 {
		return c, fmt.Errorf("%s: fuse amount %d: %w", c.ID, c.FuseAmount, fusion.ErrInvalidData)
	}
	if c.Rate == 0 {
		c.Rate = imp.RatePerHour
	}
	if c.Rate < 0 {
		return c, fmt.Errorf("%s: negative rate: %w", c.ID, fusion.ErrInvalidData)
	}

	c.Rarity = fusion.Rarity(strings.ToLower(strings.TrimSpace(imp.Rarity)))
	if c.Rarity == "" {
		c.Rarity = fusion.RarityCommon
	}
	if !c.Rarity.IsValid() {
		return c, fmt.Errorf("%s: rarity %q: %w", c.ID, imp.Rarity, fusion.ErrInvalidData)
	}

	return c, nil
}

func transformRecipe(imp RecipeImport) (fusion.Recipe, error) {
	r := fusion.Recipe{
		Output:         imp.Output,
		OutputQuantity: imp.OutputQuantity,
		Amplified:      imp.Amplified,
	}
	if r.Output == "" {
		r.Output = imp.OutputID
	}
	if r.Output == "" {
		return r, fmt.Errorf("missing output: %w", fusion.ErrInvalidData)
	}

	inputs := imp.Inputs
	if len(inputs) == 0 && (imp.Input1 != "" || imp.Input2 != "") {
		inputs = []string{imp.Input1, imp.Input2}
	}
	if len(inputs) != 2 || inputs[0] == "" || inputs[1] == "" {
		return r, fmt.Errorf("%s: recipes take exactly two inputs, got %v: %w", r.Output, inputs, fusion.ErrInvalidData)
	}
	r.Inputs = [2]string{inputs[0], inputs[1]}

	if r.OutputQuantity == 0 {
		r.OutputQuantity = imp.Quantity
	}
	if r.OutputQuantity == 0 {
		r.OutputQuantity = 1
	}
	if r.OutputQuantity < 0 {
		return r, fmt.Errorf("%s: output quantity %d: %w", r.Output, r.OutputQuantity, fusion.ErrInvalidData)
	}

	return r, nil
}
