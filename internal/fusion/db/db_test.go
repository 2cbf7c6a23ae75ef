package db

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rsned/fusion-planner/pkg/fusion"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenAndInit(context.Background(), filepath.Join(t.TempDir(), "fusion.db"))
	if err != nil {
		t.Fatalf("OpenAndInit: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seed(t *testing.T, db *DB) {
	t.Helper()
	ctx := context.Background()
	commodities := []fusion.Commodity{
		{ID: "ore", Name: "Ore", Type: "mineral", Rarity: fusion.RarityCommon, FuseAmount: 2, Rate: 4, Families: []string{"metal", "raw"}},
		{ID: "plank", Name: "Plank", Rarity: fusion.RarityUncommon, FuseAmount: 1},
		{ID: "tool", Name: "Tool", Rarity: fusion.RarityRare, FuseAmount: 1},
		{ID: "wood", Name: "Wood", Rarity: fusion.RarityCommon, FuseAmount: 1, Rate: 2},
	}
	if err := NewCommodityStore(db).BulkInsertCommodities(ctx, commodities); err != nil {
		t.Fatalf("BulkInsertCommodities: %v", err)
	}
	recipes := []fusion.Recipe{
		{Output: "plank", Inputs: [2]string{"wood", "wood"}, OutputQuantity: 1},
		{Output: "tool", Inputs: [2]string{"ore", "plank"}, OutputQuantity: 1, Amplified: true},
	}
	if err := NewRecipeStore(db).BulkInsertRecipes(ctx, recipes); err != nil {
		t.Fatalf("BulkInsertRecipes: %v", err)
	}
}

func TestInitSchemaIdempotent(t *testing.T) {
	db := openTestDB(t)
	if err := InitSchema(context.Background(), db.DB); err != nil {
		t.Fatalf("second InitSchema: %v", err)
	}
}

func TestOpenMemory(t *testing.T) {
	db, err := OpenAndInit(context.Background(), MemoryPath)
	if err != nil {
		t.Fatalf("OpenAndInit(memory): %v", err)
	}
	defer func() { _ = db.Close() }()
	seed(t, db)

	n, err := NewCommodityStore(db).CountCommodities(context.Background())
	if err != nil {
		t.Fatalf("CountCommodities: %v", err)
	}
	if n != 4 {
		t.Errorf("count = %d, want 4", n)
	}
}

func TestCommodityStore(t *testing.T) {
	db := openTestDB(t)
	seed(t, db)
	ctx := context.Background()
	store := NewCommodityStore(db)

	ore, err := store.GetCommodity(ctx, "ore")
	if err != nil {
		t.Fatalf("GetCommodity: %v", err)
	}
	want := &fusion.Commodity{
		ID: "ore", Name: "Ore", Type: "mineral", Rarity: fusion.RarityCommon,
		FuseAmount: 2, Rate: 4, Families: []string{"metal", "raw"},
	}
	if !reflect.DeepEqual(ore, want) {
		t.Errorf("GetCommodity = %+v, want %+v", ore, want)
	}

	missing, err := store.GetCommodity(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("GetCommodity(nope) = %+v, %v; want nil, nil", missing, err)
	}

	ids, err := store.ListIDs(ctx)
	if err != nil {
		t.Fatalf("ListIDs: %v", err)
	}
	if want := []string{"ore", "plank", "tool", "wood"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("ListIDs = %v, want %v", ids, want)
	}

	all, err := store.ListCommodities(ctx)
	if err != nil {
		t.Fatalf("ListCommodities: %v", err)
	}
	if len(all) != 4 || all[0].ID != "ore" || len(all[0].Families) != 2 || all[3].Families != nil {
		t.Errorf("ListCommodities = %+v", all)
	}
}

func TestCommodityUpsertKeepsRecipes(t *testing.T) {
	db := openTestDB(t)
	seed(t, db)
	ctx := context.Background()

	err := NewCommodityStore(db).BulkInsertCommodities(ctx, []fusion.Commodity{
		{ID: "ore", Name: "Iron Ore", Rarity: fusion.RarityCommon, FuseAmount: 3, Rate: 5, Families: []string{"metal"}},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	ore, err := NewCommodityStore(db).GetCommodity(ctx, "ore")
	if err != nil {
		t.Fatalf("GetCommodity: %v", err)
	}
	if ore.Name != "Iron Ore" || ore.FuseAmount != 3 || !reflect.DeepEqual(ore.Families, []string{"metal"}) {
		t.Errorf("after upsert = %+v", ore)
	}

	n, err := NewRecipeStore(db).CountRecipes(ctx)
	if err != nil {
		t.Fatalf("CountRecipes: %v", err)
	}
	if n != 2 {
		t.Errorf("recipes = %d after commodity upsert, want 2", n)
	}
}

func TestRecipeStore(t *testing.T) {
	db := openTestDB(t)
	seed(t, db)
	ctx := context.Background()
	store := NewRecipeStore(db)

	all, err := store.GetAllRecipes(ctx)
	if err != nil {
		t.Fatalf("GetAllRecipes: %v", err)
	}
	if len(all) != 2 || all[0].Output != "plank" || !all[1].Amplified {
		t.Errorf("GetAllRecipes = %+v", all)
	}

	byOutput, err := store.FindRecipesByOutput(ctx, "tool")
	if err != nil {
		t.Fatalf("FindRecipesByOutput: %v", err)
	}
	if len(byOutput) != 1 || byOutput[0].Inputs != [2]string{"ore", "plank"} {
		t.Errorf("FindRecipesByOutput(tool) = %+v", byOutput)
	}

	using, err := store.FindRecipesUsing(ctx, "wood")
	if err != nil {
		t.Fatalf("FindRecipesUsing: %v", err)
	}
	if len(using) != 1 || using[0].Output != "plank" {
		t.Errorf("FindRecipesUsing(wood) = %+v", using)
	}

	// Re-inserting the same pair updates in place.
	if err := store.BulkInsertRecipes(ctx, []fusion.Recipe{
		{Output: "plank", Inputs: [2]string{"wood", "wood"}, OutputQuantity: 4},
	}); err != nil {
		t.Fatalf("upsert recipe: %v", err)
	}
	byOutput, err = store.FindRecipesByOutput(ctx, "plank")
	if err != nil {
		t.Fatalf("FindRecipesByOutput: %v", err)
	}
	if len(byOutput) != 1 || byOutput[0].OutputQuantity != 4 {
		t.Errorf("after upsert = %+v", byOutput)
	}
}

func TestRecipeRequiresKnownCommodity(t *testing.T) {
	db := openTestDB(t)
	seed(t, db)

	err := NewRecipeStore(db).BulkInsertRecipes(context.Background(), []fusion.Recipe{
		{Output: "tool", Inputs: [2]string{"ore", "ghost"}, OutputQuantity: 1},
	})
	if err == nil {
		t.Fatal("expected foreign key violation")
	}
}

func TestClearCommoditiesCascades(t *testing.T) {
	db := openTestDB(t)
	seed(t, db)
	ctx := context.Background()

	if err := NewCommodityStore(db).ClearCommodities(ctx); err != nil {
		t.Fatalf("ClearCommodities: %v", err)
	}
	n, err := NewRecipeStore(db).CountRecipes(ctx)
	if err != nil {
		t.Fatalf("CountRecipes: %v", err)
	}
	if n != 0 {
		t.Errorf("recipes = %d after clear, want 0", n)
	}
}

func TestSyncMetadata(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	v, err := db.GetSyncMetadata(ctx, "recipes_count")
	if err != nil || v != "" {
		t.Fatalf("missing key = %q, %v", v, err)
	}
	for _, want := range []string{"3", "7"} {
		if err := db.SetSyncMetadata(ctx, "recipes_count", want); err != nil {
			t.Fatalf("SetSyncMetadata: %v", err)
		}
		got, err := db.GetSyncMetadata(ctx, "recipes_count")
		if err != nil {
			t.Fatalf("GetSyncMetadata: %v", err)
		}
		if got != want {
			t.Errorf("value = %q, want %q", got, want)
		}
	}
}
