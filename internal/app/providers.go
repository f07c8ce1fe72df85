package app

import (
	"context"
	"log"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"podforge/internal/app/api"
	"podforge/internal/app/api/provider"
	"podforge/internal/app/common"
	appconfig "podforge/internal/app/config"
	"podforge/internal/app/content"
	"podforge/internal/app/credits"
	"podforge/internal/app/episode"
	"podforge/internal/app/generation"
	"podforge/internal/app/image"
	"podforge/internal/app/pipeline"
	"podforge/internal/app/repository"
	"podforge/internal/app/repository/pg"
	"podforge/internal/app/repository/sqlite"
	"podforge/internal/app/storage"
	"podforge/internal/app/transcript"
	"podforge/internal/config"
)

// databases carries the two DAO views of the single relational connection
type databases struct {
	episodes repository.EpisodeDAO
	credits  repository.CreditDAO
}

func provideLogger() *zap.Logger {
	return common.MustNewLogger(os.Getenv("PODFORGE_ENV") != "production")
}

func providePipelineConfig() *appconfig.PipelineConfig {
	configPath := os.Getenv("PODFORGE_CONFIG")
	if configPath == "" {
		configPath = "config/pipeline.yaml"
	}
	if _, err := os.Stat(configPath); err != nil {
		return appconfig.DefaultPipelineConfig()
	}

	cfg, err := appconfig.LoadPipelineConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load pipeline config %s: %v\n", configPath, err)
	}
	return cfg
}

func provideDatabases() databases {
	driver, dsn := config.DatabaseDSN()
	if driver == "postgres" {
		db, err := pg.NewPostgresDB(dsn)
		if err != nil {
			log.Fatalf("Failed to connect to postgres: %v\n", err)
		}
		return databases{episodes: db, credits: db}
	}

	db := sqlite.NewSQLiteDB(dsn)
	return databases{episodes: db, credits: db}
}

func provideEpisodeDAO(d databases) repository.EpisodeDAO {
	return d.episodes
}

func provideCreditDAO(d databases) repository.CreditDAO {
	return d.credits
}

func provideObjectStore(cfg *appconfig.PipelineConfig) storage.ObjectStore {
	store, err := storage.NewMinioObjectStore(cfg.Storage.Bucket)
	if err != nil {
		log.Fatalf("Failed to initialize object store: %v\n", err)
	}
	return store
}

func provideAIProvider(cfg *appconfig.PipelineConfig) provider.Provider {
	apiKeys, err := config.InitializeConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v\n", err)
	}
	if err := config.RequireAPIKeys(apiKeys); err != nil {
		log.Fatalf("%v\n", err)
	}

	kind, err := provider.KindFromString(cfg.Provider)
	if err != nil {
		log.Fatalf("Invalid provider %q: %v\n", cfg.Provider, err)
	}

	p, err := api.NewProvider(context.Background(), kind, apiKeys)
	if err != nil {
		log.Fatalf("Failed to initialize AI provider: %v\n", err)
	}
	return p
}

func provideGenerator(p provider.Provider, logger *zap.Logger, cfg *appconfig.PipelineConfig) *generation.Generator {
	return generation.NewGenerator(p, logger, cfg.Models.Text, cfg.Models.Image, cfg.Prompts.ImageDescription)
}

func provideFetcher(store storage.ObjectStore, logger *zap.Logger, cfg *appconfig.PipelineConfig, metrics *pipeline.Metrics) *content.Fetcher {
	return content.NewFetcher(store, logger, cfg.Content, metrics)
}

func provideRetriever(store storage.ObjectStore, logger *zap.Logger, cfg *appconfig.PipelineConfig) *transcript.Retriever {
	return transcript.NewRetriever(store, logger, cfg.Transcript.MaxRetries)
}

func provideLedger(dao repository.CreditDAO, logger *zap.Logger) *credits.Ledger {
	return credits.NewLedger(dao, logger)
}

func provideUpdater(dao repository.EpisodeDAO, ledger *credits.Ledger, logger *zap.Logger, metrics *pipeline.Metrics) *episode.StateUpdater {
	return episode.NewStateUpdater(dao, ledger, logger, metrics)
}

func provideImagePipeline(g *generation.Generator, store storage.ObjectStore, dao repository.EpisodeDAO, updater *episode.StateUpdater, logger *zap.Logger) *image.Pipeline {
	return image.NewPipeline(g, store, dao, updater, logger)
}

func provideMetrics() *pipeline.Metrics {
	return pipeline.NewMetrics(prometheus.DefaultRegisterer)
}

func provideLocker() pipeline.Locker {
	client := redis.NewClient(&redis.Options{Addr: config.RedisAddr()})
	return pipeline.NewRedisLocker(client, pipeline.DefaultLockTTL)
}

func provideOrchestrator(
	dao repository.EpisodeDAO,
	retriever *transcript.Retriever,
	generator *generation.Generator,
	updater *episode.StateUpdater,
	images *image.Pipeline,
	logger *zap.Logger,
	metrics *pipeline.Metrics,
	cfg *appconfig.PipelineConfig,
) *pipeline.Orchestrator {
	return pipeline.NewOrchestrator(dao, retriever, generator, updater, images,
		logger, metrics, cfg.Transcript.MaxLength)
}

func newApplication(
	logger *zap.Logger,
	d databases,
	store storage.ObjectStore,
	ledger *credits.Ledger,
	updater *episode.StateUpdater,
	fetcher *content.Fetcher,
	retriever *transcript.Retriever,
	generator *generation.Generator,
	images *image.Pipeline,
	orchestrator *pipeline.Orchestrator,
	locker pipeline.Locker,
	metrics *pipeline.Metrics,
) *Application {
	return &Application{
		Logger:       logger,
		Episodes:     d.episodes,
		Credits:      d.credits,
		Store:        store,
		Ledger:       ledger,
		Updater:      updater,
		Fetcher:      fetcher,
		Retriever:    retriever,
		Generator:    generator,
		Images:       images,
		Orchestrator: orchestrator,
		Locker:       locker,
		Metrics:      metrics,
	}
}
