// Package engine contains the fusion planning business logic behind the
// MCP tools and the CLI.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/rsned/fusion-planner/internal/fusion/db"
	"github.com/rsned/fusion-planner/internal/fusion/planner"
	"github.com/rsned/fusion-planner/pkg/fusion"
)

// Options configures an Engine.
type Options struct {
	Planner planner.Config

	// CacheSize is the number of plans kept in memory. Zero disables caching.
	CacheSize int

	Logger *slog.Logger
}

// DefaultOptions returns the options used by the server binary.
func DefaultOptions() Options {
	return Options{
		Planner:   planner.DefaultConfig(),
		CacheSize: 256,
	}
}

type planKey struct {
	target   string
	quantity int
	levels   fusion.BonusLevels
}

// Engine is the main query engine for fusion operations.
type Engine struct {
	commodities *db.CommodityStore
	recipes     *db.RecipeStore
	cfg         planner.Config
	logger      *slog.Logger

	mu      sync.Mutex
	planner *planner.Planner
	cache   *lru.Cache[planKey, *fusion.PlanResponse]
}

// New creates a new Engine over the given database. The graph is read
// lazily on first use.
func New(database *db.DB, opts Options) (*Engine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		commodities: db.NewCommodityStore(database),
		recipes:     db.NewRecipeStore(database),
		cfg:         opts.Planner,
		logger:      logger,
	}

	if opts.CacheSize > 0 {
		cache, err := lru.New[planKey, *fusion.PlanResponse](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("creating plan cache: %w", err)
		}
		e.cache = cache
	}

	return e, nil
}

// Reload re-reads the graph from the database and drops cached plans.
func (e *Engine) Reload(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.planner = nil
	if e.cache != nil {
		e.cache.Purge()
	}
	_, err := e.loadLocked(ctx)
	return err
}

func (e *Engine) loadPlanner(ctx context.Context) (*planner.Planner, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadLocked(ctx)
}

func (e *Engine) loadLocked(ctx context.Context) (*planner.Planner, error) {
	if e.planner != nil {
		return e.planner, nil
	}

	commodities, err := e.commodities.ListCommodities(ctx)
	if err != nil {
		return nil, err
	}
	recipes, err := e.recipes.GetAllRecipes(ctx)
	if err != nil {
		return nil, err
	}

	g, err := planner.NewGraph(commodities, recipes)
	if err != nil {
		return nil, fmt.Errorf("building graph: %w", err)
	}

	e.planner = planner.New(g, e.cfg)
	e.logger.Info("graph loaded", "commodities", g.Len(), "recipes", g.RecipeCount())
	return e.planner, nil
}
