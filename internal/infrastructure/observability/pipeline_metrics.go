package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names exposed on /metrics.
const (
	MetricStageDuration   = "ranking_stage_duration_seconds"
	MetricRankingRequests = "ranking_requests_total"
	MetricCandidates      = "ranking_candidates"
	MetricDetailFailures  = "ranking_detail_failures_total"
	MetricScoreAnomalies  = "ranking_score_anomalies_total"
)

// Pipeline stage labels.
const (
	StageSearch  = "search"
	StageRank    = "rank"
	StageDetails = "details"
	StagePrompt  = "prompt"
	StageScoring = "scoring"
	StageMerge   = "merge"
)

// PipelineMetrics holds Prometheus collectors for the ranking pipeline.
type PipelineMetrics struct {
	stageDuration  *prometheus.HistogramVec
	requests       *prometheus.CounterVec
	candidates     prometheus.Histogram
	detailFailures prometheus.Counter
	scoreAnomalies *prometheus.CounterVec
}

// NewPipelineMetrics creates the collectors without registering them.
func NewPipelineMetrics() *PipelineMetrics {
	return &PipelineMetrics{
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricStageDuration,
				Help:    "Duration of each ranking pipeline stage in seconds",
				Buckets: []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"stage"},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRankingRequests,
				Help: "Total ranking requests by outcome",
			},
			[]string{"outcome"},
		),
		candidates: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricCandidates,
				Help:    "Number of candidates returned by nearby search",
				Buckets: []float64{0, 1, 5, 7, 10, 15, 20},
			},
		),
		detailFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricDetailFailures,
				Help: "Total detail lookups that failed after retries",
			},
		),
		scoreAnomalies: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricScoreAnomalies,
				Help: "Total score records that were rejected, orphaned or missing, by kind",
			},
			[]string{"kind"},
		),
	}
}

// Register registers all collectors with reg.
func (m *PipelineMetrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns all Prometheus collectors.
func (m *PipelineMetrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.stageDuration,
		m.requests,
		m.candidates,
		m.detailFailures,
		m.scoreAnomalies,
	}
}

// ObserveStage records a stage duration sample.
func (m *PipelineMetrics) ObserveStage(stage string, seconds float64) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(seconds)
}

// IncRequests counts a finished ranking request; outcome is "ok" or an error stage.
func (m *PipelineMetrics) IncRequests(outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcome).Inc()
}

// ObserveCandidates records the size of a search batch.
func (m *PipelineMetrics) ObserveCandidates(n int) {
	if m == nil {
		return
	}
	m.candidates.Observe(float64(n))
}

// AddDetailFailures counts failed detail lookups.
func (m *PipelineMetrics) AddDetailFailures(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.detailFailures.Add(float64(n))
}

// IncScoreAnomaly counts one warning of the given kind.
func (m *PipelineMetrics) IncScoreAnomaly(kind string) {
	if m == nil {
		return
	}
	m.scoreAnomalies.WithLabelValues(kind).Inc()
}
