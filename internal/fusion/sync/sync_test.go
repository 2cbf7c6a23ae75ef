package sync

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/rsned/fusion-planner/internal/fusion/db"
	"github.com/rsned/fusion-planner/pkg/fusion"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func newSyncer(t *testing.T) (*Syncer, *db.DB) {
	t.Helper()
	database, err := db.OpenAndInit(context.Background(), filepath.Join(t.TempDir(), "fusion.db"))
	if err != nil {
		t.Fatalf("OpenAndInit: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return NewSyncer(database), database
}

const commoditiesJSON = `[
	{"id": "ore", "name": "Ore", "rarity": "Common", "fuse_amount": 2, "rate": 4, "families": ["metal"]},
	{"id": "wood", "category": "organic", "fuse": 0, "rate_per_hour": 2, "family": "timber"},
	{"id": "plank", "rarity": "UNCOMMON"},
	{"id": "tool", "name": "Tool", "rarity": "rare"}
]`

const recipesJSON = `[
	{"output": "plank", "inputs": ["wood", "wood"]},
	{"output_id": "tool", "input1": "ore", "input2": "plank", "quantity": 2, "amplified": true}
]`

func TestImportCommodities(t *testing.T) {
	s, database := newSyncer(t)
	ctx := context.Background()

	res, err := s.ImportCommoditiesFromFile(ctx, writeFile(t, "c.json", commoditiesJSON))
	if err != nil {
		t.Fatalf("ImportCommoditiesFromFile: %v", err)
	}
	if res.Count != 4 {
		t.Errorf("Count = %d, want 4", res.Count)
	}
	if _, err := uuid.Parse(res.ImportID); err != nil {
		t.Errorf("ImportID %q is not a uuid: %v", res.ImportID, err)
	}

	wood, err := db.NewCommodityStore(database).GetCommodity(ctx, "wood")
	if err != nil {
		t.Fatalf("GetCommodity: %v", err)
	}
	if wood.Name != "wood" || wood.Type != "organic" || wood.FuseAmount != 1 || wood.Rate != 2 ||
		wood.Rarity != fusion.RarityCommon || len(wood.Families) != 1 || wood.Families[0] != "timber" {
		t.Errorf("wood = %+v", wood)
	}

	plank, err := db.NewCommodityStore(database).GetCommodity(ctx, "plank")
	if err != nil {
		t.Fatalf("GetCommodity: %v", err)
	}
	if plank.Rarity != fusion.RarityUncommon {
		t.Errorf("plank rarity = %q, want uncommon", plank.Rarity)
	}

	tests := map[string]string{
		"commodities_count":     "4",
		"commodities_import_id": res.ImportID,
	}
	for key, want := range tests {
		got, err := database.GetSyncMetadata(ctx, key)
		if err != nil {
			t.Fatalf("GetSyncMetadata(%s): %v", key, err)
		}
		if got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
	if v, _ := database.GetSyncMetadata(ctx, "commodities_last_sync"); v == "" {
		t.Error("commodities_last_sync not recorded")
	}
}

func TestImportRecipes(t *testing.T) {
	s, database := newSyncer(t)
	ctx := context.Background()

	if _, err := s.ImportCommoditiesFromFile(ctx, writeFile(t, "c.json", commoditiesJSON)); err != nil {
		t.Fatalf("ImportCommoditiesFromFile: %v", err)
	}
	res, err := s.ImportRecipesFromFile(ctx, writeFile(t, "r.json", recipesJSON))
	if err != nil {
		t.Fatalf("ImportRecipesFromFile: %v", err)
	}
	if res.Count != 2 {
		t.Errorf("Count = %d, want 2", res.Count)
	}

	recipes, err := db.NewRecipeStore(database).GetAllRecipes(ctx)
	if err != nil {
		t.Fatalf("GetAllRecipes: %v", err)
	}
	want := []fusion.Recipe{
		{Output: "plank", Inputs: [2]string{"wood", "wood"}, OutputQuantity: 1},
		{Output: "tool", Inputs: [2]string{"ore", "plank"}, OutputQuantity: 2, Amplified: true},
	}
	if len(recipes) != len(want) {
		t.Fatalf("recipes = %+v, want %+v", recipes, want)
	}
	for i := range want {
		if recipes[i] != want[i] {
			t.Errorf("recipe %d = %+v, want %+v", i, recipes[i], want[i])
		}
	}
}

func TestImportRecipesUnknownCommodity(t *testing.T) {
	s, _ := newSyncer(t)
	ctx := context.Background()

	if _, err := s.ImportCommoditiesFromFile(ctx, writeFile(t, "c.json", commoditiesJSON)); err != nil {
		t.Fatalf("ImportCommoditiesFromFile: %v", err)
	}
	_, err := s.ImportRecipesFromFile(ctx, writeFile(t, "r.json", `[{"output": "tool", "inputs": ["ore", "ghost"]}]`))
	if !errors.Is(err, fusion.ErrUnknownCommodity) {
		t.Fatalf("err = %v, want ErrUnknownCommodity", err)
	}
}

func TestImportRejectsInvalidData(t *testing.T) {
	tests := []struct {
		name string
		kind string
		body string
	}{
		{"bad rarity", "commodities", `[{"id": "x", "rarity": "mythic"}]`},
		{"negative rate", "commodities", `[{"id": "x", "rate": -1}]`},
		{"missing id", "commodities", `[{"name": "nameless"}]`},
		{"three inputs", "recipes", `[{"output": "ore", "inputs": ["ore", "ore", "ore"]}]`},
		{"no output", "recipes", `[{"inputs": ["ore", "ore"]}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newSyncer(t)
			ctx := context.Background()
			if _, err := s.ImportCommoditiesFromFile(ctx, writeFile(t, "c.json", commoditiesJSON)); err != nil {
				t.Fatalf("seed: %v", err)
			}

			path := writeFile(t, "in.json", tt.body)
			var err error
			if tt.kind == "commodities" {
				_, err = s.ImportCommoditiesFromFile(ctx, path)
			} else {
				_, err = s.ImportRecipesFromFile(ctx, path)
			}
			if !errors.Is(err, fusion.ErrInvalidData) {
				t.Fatalf("err = %v, want ErrInvalidData", err)
			}
		})
	}
}

func TestImportMissingFile(t *testing.T) {
	s, _ := newSyncer(t)
	if _, err := s.ImportCommoditiesFromFile(context.Background(), filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestClearAll(t *testing.T) {
	s, database := newSyncer(t)
	ctx := context.Background()
	if _, err := s.ImportCommoditiesFromFile(ctx, writeFile(t, "c.json", commoditiesJSON)); err != nil {
		t.Fatalf("ImportCommoditiesFromFile: %v", err)
	}
	if _, err := s.ImportRecipesFromFile(ctx, writeFile(t, "r.json", recipesJSON)); err != nil {
		t.Fatalf("ImportRecipesFromFile: %v", err)
	}
	if err := s.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	n, err := db.NewCommodityStore(database).CountCommodities(ctx)
	if err != nil {
		t.Fatalf("CountCommodities: %v", err)
	}
	if n != 0 {
		t.Errorf("commodities = %d after clear", n)
	}
}
