// Fusion Planner MCP Server
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/rsned/fusion-planner/internal/fusion/db"
	"github.com/rsned/fusion-planner/internal/fusion/engine"
	"github.com/rsned/fusion-planner/internal/fusion/mcp"
	"github.com/rsned/fusion-planner/internal/fusion/sync"
	"github.com/rsned/fusion-planner/pkg/fusion"
)

func main() {
	// An optional .env supplies defaults; real environment variables win.
	_ = godotenv.Load()

	defaults := engine.DefaultOptions()

	dbPath := flag.String("db", envOr("FUSION_DB", "data/fusion/fusion.db"), "Path to SQLite database")
	importCommodities := flag.String("import-commodities", "", "Import commodities from JSON file")
	importRecipes := flag.String("import-recipes", "", "Import recipes from JSON file")
	verbose := flag.Bool("verbose", false, "Enable verbose logging")
	cacheSize := flag.Int("cache-size", envIntOr("FUSION_CACHE_SIZE", defaults.CacheSize), "Plans kept in memory (0 disables)")
	craftDuration := flag.Duration("craft-duration", defaults.Planner.CraftDuration, "Time cost of one craft")
	maxPasses := flag.Int("max-passes", defaults.Planner.MaxPasses, "Relaxation pass limit (0 for none)")
	planTarget := flag.String("plan", "", "Print a plan for this commodity and exit")
	quantity := flag.Int("quantity", 1, "Units to plan for with -plan")
	levelsFlag := flag.String("levels", "0,0,0", "Bonus levels as primary,secondary,tertiary")
	flag.Parse()

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	levels, err := parseLevels(*levelsFlag)
	if err != nil {
		logger.Error("invalid -levels", "error", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down...")
		cancel()
	}()

	if dir := filepath.Dir(*dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("failed to create database directory", "error", err)
			os.Exit(1)
		}
	}

	database, err := db.OpenAndInit(ctx, *dbPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = database.Close() }()

	if *importCommodities != "" || *importRecipes != "" {
		syncer := sync.NewSyncer(database)

		// Commodities first so recipe references resolve.
		if *importCommodities != "" {
			logger.Info("importing commodities", "file", *importCommodities)
			res, err := syncer.ImportCommoditiesFromFile(ctx, *importCommodities)
			if err != nil {
				logger.Error("failed to import commodities", "error", err)
				os.Exit(1)
			}
			logger.Info("commodities imported", "count", res.Count, "import_id", res.ImportID)
		}

		if *importRecipes != "" {
			logger.Info("importing recipes", "file", *importRecipes)
			res, err := syncer.ImportRecipesFromFile(ctx, *importRecipes)
			if err != nil {
				logger.Error("failed to import recipes", "error", err)
				os.Exit(1)
			}
			logger.Info("recipes imported", "count", res.Count, "import_id", res.ImportID)
		}

		if *planTarget == "" && flag.NArg() == 0 {
			return
		}
	}

	opts := defaults
	opts.CacheSize = *cacheSize
	opts.Planner.CraftDuration = *craftDuration
	opts.Planner.MaxPasses = *maxPasses
	opts.Logger = logger

	eng, err := engine.New(database, opts)
	if err != nil {
		logger.Error("failed to create engine", "error", err)
		os.Exit(1)
	}

	if *planTarget != "" {
		resp, err := eng.Plan(ctx, fusion.PlanRequest{Target: *planTarget, Quantity: *quantity, Levels: levels})
		if err != nil {
			logger.Error("planning failed", "error", err)
			os.Exit(1)
		}
		fmt.Print(engine.FormatPlanSummary(resp))
		if !resp.Found {
			os.Exit(1)
		}
		return
	}

	server := mcp.NewServer(eng, logger)

	logger.Info("starting MCP server", "db", *dbPath)
	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	fmt.Fprintln(os.Stderr, "server stopped")
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("ignoring malformed environment value", "key", key, "value", v)
		return fallback
	}
	return n
}
