package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/shelfmatch/backend/config"
	httpDelivery "github.com/shelfmatch/backend/internal/delivery/http"
	"github.com/shelfmatch/backend/internal/infrastructure/embedding"
	"github.com/shelfmatch/backend/internal/infrastructure/store"
	"github.com/shelfmatch/backend/internal/matching"
	"github.com/shelfmatch/backend/internal/rules"
	"github.com/shelfmatch/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting ShelfMatch Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Embedding provider: %s", cfg.Embedding.Provider)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Load matching rules from disk
	ruleStore, err := rules.Load(cfg.Rules.Dir)
	if err != nil {
		log.Fatalf("Failed to load rules from %s: %v", cfg.Rules.Dir, err)
	}
	log.Printf("Rules loaded: %d categories, %d brands", len(ruleStore.Categories()), len(ruleStore.Brands()))

	// Initialize embedding infrastructure
	provider, err := embedding.NewProvider(embedding.Config{
		Provider:      cfg.Embedding.Provider,
		BaseURL:       cfg.Embedding.BaseURL,
		Model:         cfg.Embedding.Model,
		APIKey:        cfg.Embedding.APIKey,
		RatePerSecond: cfg.Embedding.RatePerSecond,
	})
	if err != nil {
		log.Fatalf("Failed to initialize embedding provider: %v", err)
	}

	vectorCache := embedding.NewMemoryVectorCache(cfg.Embedding.CacheTTL)
	embedder := embedding.NewCachedEmbedder(provider, vectorCache)
	log.Printf("Embedding cache TTL: %s", cfg.Embedding.CacheTTL)

	// Matching engine
	engine := matching.NewEngine(ruleStore, embedder)

	// Persistence
	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database at %s: %v", cfg.Database.Path, err)
	}
	defer db.Close()
	log.Printf("Database: %s", cfg.Database.Path)

	// Usecase layer
	comparisonService := usecase.NewComparisonService(engine, db, db)

	log.Printf("Matching: confidence=%.2f, maxMatches=%d, debug=%v",
		cfg.Matching.MinConfidence,
		cfg.Matching.MaxMatches,
		cfg.Matching.EnableDebugLogging)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(engine, comparisonService)

	// Setup router
	router := httpDelivery.SetupRouter(handler, cfg.Server.AllowedOrigins)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
