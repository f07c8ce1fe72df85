//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
)

// InitializeApplication wires the full pipeline stack: relational DAOs,
// object store, AI provider, ledger, lifecycle updater, image stage and the
// orchestrator on top.
func InitializeApplication() *Application {
	wire.Build(
		newApplication,
		provideLogger,
		providePipelineConfig,
		provideDatabases,
		provideEpisodeDAO,
		provideCreditDAO,
		provideObjectStore,
		provideAIProvider,
		provideGenerator,
		provideFetcher,
		provideRetriever,
		provideLedger,
		provideUpdater,
		provideImagePipeline,
		provideMetrics,
		provideLocker,
		provideOrchestrator,
	)
	return &Application{}
}
