package process

import (
	"context"
	"fmt"
	"log"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"podforge/internal/app"
	"podforge/internal/app/pipeline"
	"podforge/internal/config"
	"podforge/internal/worker"
	"podforge/pkg/tasks"
)

var podcastID string
var episodeID string
var skipTitle bool
var skipSummary bool
var skipImage bool
var skipCharge bool
var enqueue bool

func init() {
	Cmd.Flags().StringVarP(&podcastID, "podcast", "p", "", "podcast id owning the episode")
	Cmd.Flags().StringVarP(&episodeID, "episode", "e", "", "episode id to process")
	Cmd.Flags().BoolVar(&skipTitle, "skip-title", false, "do not generate a title (written as empty)")
	Cmd.Flags().BoolVar(&skipSummary, "skip-summary", false, "do not generate a summary (written as empty)")
	Cmd.Flags().BoolVar(&skipImage, "skip-image", false, "do not run the cover image stage")
	Cmd.Flags().BoolVar(&skipCharge, "skip-charge", false, "run the pipeline directly without credit deduction or failure marking")
	Cmd.Flags().BoolVar(&enqueue, "enqueue", false, "enqueue the episode for a running worker instead of processing in-process")

	Cmd.MarkFlagRequired("podcast")
	Cmd.MarkFlagRequired("episode")
}

// enqueueTask hands the episode to the redis queue consumed by the worker
func enqueueTask(client tasks.TaskEnqueuer) error {
	task, err := tasks.NewEpisodePostProcessTask(podcastID, episodeID, skipTitle, skipSummary, skipImage)
	if err != nil {
		return err
	}
	info, err := client.Enqueue(task)
	if err != nil {
		return err
	}
	fmt.Printf("episode enqueued, task id: %s\n", info.ID)
	return nil
}

// Cmd represents the process command
var Cmd = &cobra.Command{
	Use:   "process",
	Short: "Run the post-processing pipeline for one episode",
	Long: `Run the post-processing pipeline for one episode

- Waits for the ingested content bundle, then assembles the transcript
- Generates title, summary and cover image and advances the episode status
- By default runs with full task semantics: credit deduction, run lock and
  failure marking with a compensating refund`,
	Run: func(cmd *cobra.Command, args []string) {
		if enqueue {
			client := asynq.NewClient(asynq.RedisClientOpt{Addr: config.RedisAddr()})
			defer client.Close()
			if err := enqueueTask(client); err != nil {
				log.Fatalf("failed to enqueue episode: %v\n", err)
			}
			return
		}

		application := app.InitializeApplication()
		defer application.Close()

		ctx := context.Background()

		if skipCharge {
			result := application.Orchestrator.ProcessCompletedEpisode(ctx, podcastID, episodeID,
				pipeline.Options{SkipTitle: skipTitle, SkipSummary: skipSummary, SkipImage: skipImage})
			if !result.Success {
				log.Fatalf("processing failed: %s\n", result.Message)
			}
			fmt.Printf("episode processed, status: %s\n", result.Episode.Status)
			return
		}

		handler := worker.NewTaskHandler(
			application.Episodes,
			application.Fetcher,
			application.Ledger,
			application.Updater,
			application.Orchestrator,
			application.Locker,
			application.Logger,
		)

		task, err := tasks.NewEpisodePostProcessTask(podcastID, episodeID, skipTitle, skipSummary, skipImage)
		if err != nil {
			log.Fatalf("failed to build task: %v\n", err)
		}
		if err := handler.HandleEpisodePostProcessTask(ctx, task); err != nil {
			log.Fatalf("processing failed: %v\n", err)
		}
		fmt.Println("episode processed")
	},
}
