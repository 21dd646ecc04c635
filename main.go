package main

import (
	"context"
	"log"
	"os"
	"time"

	"raggate/internal/api"
	"raggate/internal/cache"
	"raggate/internal/config"
	"raggate/internal/engine"
	"raggate/internal/engine/rag"
	"raggate/internal/llm"
	"raggate/internal/scratch"
	"raggate/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfgPath := os.Getenv("RAGGATE_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirs(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	ctx := context.Background()

	// The engine is constructed exactly once; handlers share the handle.
	chatFunc, err := llm.NewChatFunc(ctx, cfg)
	if err != nil {
		log.Fatalf("init chat model: %v", err)
	}
	embedFunc, err := llm.NewEmbedFunc(cfg)
	if err != nil {
		log.Fatalf("init embedder: %v", err)
	}
	ragEngine, err := rag.New(ctx, rag.Config{
		WorkingDir:      cfg.Paths.WorkingDir,
		Parser:          cfg.Engine.Parser,
		ParseMethod:     cfg.Engine.ParseMethod,
		EnableImages:    cfg.Engine.EnableImages,
		EnableTables:    cfg.Engine.EnableTables,
		EnableEquations: cfg.Engine.EnableEquations,
		DisplayStats:    cfg.Engine.DisplayStats,
		TopK:            cfg.Engine.TopK,
		ChunkSize:       cfg.Engine.ChunkSize,
	}, chatFunc, embedFunc)
	if err != nil {
		log.Fatalf("init engine: %v", err)
	}
	adapter := engine.NewAdapter(ragEngine)

	store, err := scratch.NewStore(cfg.Paths.InputDir)
	if err != nil {
		log.Fatalf("init scratch storage: %v", err)
	}

	var answers *cache.AnswerCache
	if cfg.Redis.Host != "" {
		ttl := time.Duration(cfg.Engine.AnswerCacheTTLMin) * time.Minute
		answers, err = cache.New(cfg.Redis, ttl)
		if err != nil {
			log.Fatalf("init answer cache: %v", err)
		}
		defer answers.Close()
	}

	var ledger *storage.Ledger
	if dbType := os.Getenv("RAGGATE_DB"); dbType != "" {
		db, err := storage.Open(dbType, cfg)
		if err != nil {
			log.Fatalf("open database: %v", err)
		}
		defer db.Close()
		if err := storage.Migrate(db, dbType); err != nil {
			log.Fatalf("migrate database: %v", err)
		}
		ledger = storage.NewLedger(db)
	}

	handlers := api.NewHandler(adapter, store, answers, ledger,
		cfg.Engine.ParseMethod, cfg.Engine.DisplayStats, cfg.Batch.MaxWorkers)

	router := gin.Default()
	corsCfg := cors.DefaultConfig()
	if len(cfg.Server.CORSOrigins) == 1 && cfg.Server.CORSOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.Server.CORSOrigins
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	router.Use(cors.New(corsCfg))
	handlers.RegisterRoutes(router)

	log.Printf("starting raggate on %s (provider=%s, parser=%s)",
		cfg.Server.Address, cfg.Engine.Provider, cfg.Engine.Parser)
	log.Println("available endpoints:")
	log.Println("  GET  /health           - health check")
	log.Println("  POST /upload           - single document upload and processing")
	log.Println("  POST /query            - text query against documents")
	log.Println("  POST /content          - direct content list insertion")
	log.Println("  POST /multimodal-query - multimodal query with content")
	log.Println("  POST /batch            - batch processing of multiple files")
	log.Println("  GET  /documents        - processing history")

	if err := router.Run(cfg.Server.Address); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
