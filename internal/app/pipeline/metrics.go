package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts pipeline outcomes for the worker's /metrics endpoint. A nil
// *Metrics is valid and counts nothing, so library callers without a
// registry can pass nil.
type Metrics struct {
	episodesProcessed prometheus.Counter
	episodesFailed    prometheus.Counter
	contentRetries    prometheus.Counter
	creditRefunds     prometheus.Counter
	imagesGenerated   prometheus.Counter
	imagesSkipped     prometheus.Counter
}

// NewMetrics registers the pipeline counters with the given registerer
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		episodesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "podforge_episodes_processed_total",
			Help: "Episodes that completed post-processing successfully.",
		}),
		episodesFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "podforge_episodes_failed_total",
			Help: "Episodes whose post-processing run failed.",
		}),
		contentRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "podforge_content_fetch_retries_total",
			Help: "Retries performed while waiting for ingested content.",
		}),
		creditRefunds: factory.NewCounter(prometheus.CounterOpts{
			Name: "podforge_credit_refunds_total",
			Help: "Compensating refunds issued for failed paid episodes.",
		}),
		imagesGenerated: factory.NewCounter(prometheus.CounterOpts{
			Name: "podforge_images_generated_total",
			Help: "Cover images generated and stored.",
		}),
		imagesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "podforge_images_skipped_total",
			Help: "Episodes published without a cover image.",
		}),
	}
}

func (m *Metrics) EpisodeProcessed() {
	if m != nil {
		m.episodesProcessed.Inc()
	}
}

func (m *Metrics) EpisodeFailed() {
	if m != nil {
		m.episodesFailed.Inc()
	}
}

func (m *Metrics) ContentRetry() {
	if m != nil {
		m.contentRetries.Inc()
	}
}

func (m *Metrics) CreditRefunded() {
	if m != nil {
		m.creditRefunds.Inc()
	}
}

func (m *Metrics) ImageGenerated() {
	if m != nil {
		m.imagesGenerated.Inc()
	}
}

func (m *Metrics) ImageSkipped() {
	if m != nil {
		m.imagesSkipped.Inc()
	}
}
