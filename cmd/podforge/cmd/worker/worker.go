package worker

import (
	"log"
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"podforge/internal/app"
	"podforge/internal/config"
	podworker "podforge/internal/worker"
	"podforge/pkg/tasks"
)

var concurrency int
var metricsAddr string

func init() {
	Cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 5, "number of episodes processed in parallel")
	Cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":2112", "listen address for the prometheus /metrics endpoint")
}

// Cmd represents the worker command
var Cmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the task queue consumer for episode post-processing",
	Long: `Run the task queue consumer for episode post-processing

- Consumes episode:postprocess tasks from redis
- Each task charges the owner, runs the pipeline under a per-episode lock,
  and compensates the charge if the run fails
- Serves prometheus metrics for pipeline outcomes`,
	Run: func(cmd *cobra.Command, args []string) {
		application := app.InitializeApplication()
		defer application.Close()

		handler := podworker.NewTaskHandler(
			application.Episodes,
			application.Fetcher,
			application.Ledger,
			application.Updater,
			application.Orchestrator,
			application.Locker,
			application.Logger,
		)

		go func() {
			http.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(metricsAddr, nil); err != nil {
				log.Printf("metrics listener stopped: %v\n", err)
			}
		}()

		srv := asynq.NewServer(
			asynq.RedisClientOpt{Addr: config.RedisAddr()},
			asynq.Config{Concurrency: concurrency},
		)

		mux := asynq.NewServeMux()
		mux.HandleFunc(tasks.TypeEpisodePostProcess, handler.HandleEpisodePostProcessTask)

		if err := srv.Run(mux); err != nil {
			log.Fatalf("could not run worker server: %v\n", err)
		}
	},
}
