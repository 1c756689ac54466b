package main

import (
	"time"

	"github.com/wisesobriety/wisesober/ai"
	"github.com/wisesobriety/wisesober/articles"
	"github.com/wisesobriety/wisesober/config"
	"github.com/wisesobriety/wisesober/routes"
	"github.com/wisesobriety/wisesober/storage"
	"github.com/wisesobriety/wisesober/utils"
)

func main() {
	cfg := config.Load()

	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	utils.InitMetrics()

	blob := buildBlobStore(cfg)

	summarizer := ai.NewSummarizer(ai.Options{
		APIKey:      cfg.OpenAIAPIKey,
		BaseURL:     cfg.OpenAIBaseURL,
		Model:       cfg.OpenAIModel,
		MaxTokens:   cfg.OpenAIMaxTokens,
		Temperature: cfg.OpenAITemperature,
		Timeout:     time.Duration(cfg.OpenAITimeoutSec) * time.Second,
	})

	store := storage.NewCheckInStore(blob, summarizer)

	var queue *storage.EnrichmentQueue
	if cfg.SummaryAsync {
		queue = storage.NewEnrichmentQueue(store, cfg.SummaryQueueDepth)
		queue.Start()
		defer queue.Stop()
	}

	articleSvc := articles.NewService(cfg.ArticlesBaseURL, cfg.ArticlesAPIKey, cfg.ArticlesRefreshDays)

	r := routes.SetupRouter(store, queue, articleSvc)

	utils.Sugar.Infof("Starting server on port %s (storage backend %s, graceful)", cfg.AppPort, cfg.StorageBackend)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}

// buildBlobStore selects the check-in persistence backend. Every backend
// stores the whole collection as one blob; the choice only changes where
// that blob lives.
func buildBlobStore(cfg config.AppConfig) storage.BlobStore {
	switch cfg.StorageBackend {
	case "memory":
		return storage.NewMemoryBlobStore()
	case "redis":
		return storage.NewRedisBlobStore(utils.GetRedis(), cfg.StorageKey)
	case "mysql":
		db := config.InitDatabase(&storage.CheckInBlob{})
		return storage.NewGormBlobStore(db, cfg.StorageKey)
	default:
		return storage.NewFileBlobStore(cfg.StorageFile)
	}
}
