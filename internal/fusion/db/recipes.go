package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/rsned/fusion-planner/pkg/fusion"
)

type recipeRow struct {
	OutputID       string `db:"output_id"`
	Input1ID       string `db:"input1_id"`
	Input2ID       string `db:"input2_id"`
	OutputQuantity int    `db:"output_quantity"`
	Amplified      bool   `db:"amplified"`
}

func (r recipeRow) recipe() fusion.Recipe {
	return fusion.Recipe{
		Output:         r.OutputID,
		Inputs:         [2]string{r.Input1ID, r.Input2ID},
		OutputQuantity: r.OutputQuantity,
		Amplified:      r.Amplified,
	}
}

const recipeColumns = `output_id, input1_id, input2_id, output_quantity, amplified`

// RecipeStore handles recipe data access.
type RecipeStore struct {
	db *DB
}

// NewRecipeStore creates a new RecipeStore.
func NewRecipeStore(db *DB) *RecipeStore {
	return &RecipeStore{db: db}
}

func (s *RecipeStore) selectRecipes(ctx context.Context, query string, args ...any) ([]fusion.Recipe, error) {
	var rows []recipeRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	recipes := make([]fusion.Recipe, 0, len(rows))
	for _, r := range rows {
		recipes = append(recipes, r.recipe())
	}
	return recipes, nil
}

// GetAllRecipes returns every recipe in insertion order.
func (s *RecipeStore) GetAllRecipes(ctx context.Context) ([]fusion.Recipe, error) {
	recipes, err := s.selectRecipes(ctx, `SELECT `+recipeColumns+` FROM recipes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying recipes: %w", err)
	}
	return recipes, nil
}

// FindRecipesByOutput returns the recipes producing the given commodity.
func (s *RecipeStore) FindRecipesByOutput(ctx context.Context, id string) ([]fusion.Recipe, error) {
	recipes, err := s.selectRecipes(ctx, `
		SELECT `+recipeColumns+`
		FROM recipes
		WHERE output_id = ?
		ORDER BY id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("querying recipes by output: %w", err)
	}
	return recipes, nil
}

// FindRecipesUsing returns the recipes that consume the given commodity.
func (s *RecipeStore) FindRecipesUsing(ctx context.Context, id string) ([]fusion.Recipe, error) {
	recipes, err := s.selectRecipes(ctx, `
		SELECT `+recipeColumns+`
		FROM recipes
		WHERE input1_id = ? OR input2_id = ?
		ORDER BY id
	`, id, id)
	if err != nil {
		return nil, fmt.Errorf("querying recipes by input: %w", err)
	}
	return recipes, nil
}

// CountRecipes returns the number of stored recipes.
func (s *RecipeStore) CountRecipes(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM recipes`); err != nil {
		return 0, fmt.Errorf("counting recipes: %w", err)
	}
	return n, nil
}

// BulkInsertRecipes upserts recipes keyed by output and input pair.
func (s *RecipeStore) BulkInsertRecipes(ctx context.Context, recipes []fusion.Recipe) error {
	return s.db.InTransaction(ctx, func(tx *sqlx.Tx) error {
		stmt, err := tx.PrepareNamedContext(ctx, `
			INSERT INTO recipes (`+recipeColumns+`)
			VALUES (:output_id, :input1_id, :input2_id, :output_quantity, :amplified)
			ON CONFLICT(output_id, input1_id, input2_id) DO UPDATE SET
				output_quantity = excluded.output_quantity,
				amplified = excluded.amplified
		`)
		if err != nil {
			return fmt.Errorf("preparing recipe insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, r := range recipes {
			row := recipeRow{
				OutputID:       r.Output,
				Input1ID:       r.Inputs[0],
				Input2ID:       r.Inputs[1],
				OutputQuantity: r.OutputQuantity,
				Amplified:      r.Amplified,
			}
			if _, err := stmt.ExecContext(ctx, row); err != nil {
				return fmt.Errorf("inserting recipe for %s: %w", r.Output, err)
			}
		}
		return nil
	})
}

// ClearRecipes removes all recipes.
func (s *RecipeStore) ClearRecipes(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM recipes`); err != nil {
		return fmt.Errorf("clearing recipes: %w", err)
	}
	return nil
}
