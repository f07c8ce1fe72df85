package app

import (
	"go.uber.org/zap"

	"podforge/internal/app/content"
	"podforge/internal/app/credits"
	"podforge/internal/app/episode"
	"podforge/internal/app/generation"
	"podforge/internal/app/image"
	"podforge/internal/app/pipeline"
	"podforge/internal/app/repository"
	"podforge/internal/app/storage"
	"podforge/internal/app/transcript"
)

// Application bundles the wired pipeline components for the CLI and worker
// entry points.
type Application struct {
	Logger       *zap.Logger
	Episodes     repository.EpisodeDAO
	Credits      repository.CreditDAO
	Store        storage.ObjectStore
	Ledger       *credits.Ledger
	Updater      *episode.StateUpdater
	Fetcher      *content.Fetcher
	Retriever    *transcript.Retriever
	Generator    *generation.Generator
	Images       *image.Pipeline
	Orchestrator *pipeline.Orchestrator
	Locker       pipeline.Locker
	Metrics      *pipeline.Metrics
}

// Close releases the application's persistent connections
func (a *Application) Close() {
	if err := a.Episodes.Close(); err != nil {
		a.Logger.Warn("failed to close episode store", zap.Error(err))
	}
	_ = a.Logger.Sync()
}
