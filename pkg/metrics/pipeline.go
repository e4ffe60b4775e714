package metrics

import "github.com/prometheus/client_golang/prometheus"

// PipelineMetrics counts rows moving through ingestion and feature
// builds, labeled by trade type or table.
type PipelineMetrics struct {
	rowsFetched      *prometheus.CounterVec
	rowsAppended     *prometheus.CounterVec
	rowsWritten      *prometheus.CounterVec
	districtsSkipped *prometheus.CounterVec
}

// NewPipelineMetrics registers the pipeline counters on the provided registerer.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	if reg == nil {
		return &PipelineMetrics{}
	}
	fetched := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_rows_fetched_total",
		Help: "Raw rows returned by the transaction-price API.",
	}, []string{"trade_type"})
	appended := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_rows_appended_total",
		Help: "Pure-new raw rows appended to storage.",
	}, []string{"trade_type"})
	written := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_feature_rows_written_total",
		Help: "Rows written to feature and analytics tables.",
	}, []string{"table"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_districts_skipped_total",
		Help: "District fetches skipped after an API failure.",
	}, []string{"trade_type"})
	reg.MustRegister(fetched, appended, written, skipped)
	return &PipelineMetrics{
		rowsFetched:      fetched,
		rowsAppended:     appended,
		rowsWritten:      written,
		districtsSkipped: skipped,
	}
}

// AddFetched adds to the fetched-rows counter for a trade type.
func (p *PipelineMetrics) AddFetched(tradeType string, n int) {
	if p == nil || p.rowsFetched == nil || n <= 0 {
		return
	}
	p.rowsFetched.WithLabelValues(normalizeLabel(tradeType)).Add(float64(n))
}

// AddAppended adds to the appended-rows counter for a trade type.
func (p *PipelineMetrics) AddAppended(tradeType string, n int) {
	if p == nil || p.rowsAppended == nil || n <= 0 {
		return
	}
	p.rowsAppended.WithLabelValues(normalizeLabel(tradeType)).Add(float64(n))
}

// AddWritten adds to the feature-rows counter for a destination table.
func (p *PipelineMetrics) AddWritten(table string, n int) {
	if p == nil || p.rowsWritten == nil || n <= 0 {
		return
	}
	p.rowsWritten.WithLabelValues(normalizeLabel(table)).Add(float64(n))
}

// IncDistrictSkipped counts one skipped district fetch.
func (p *PipelineMetrics) IncDistrictSkipped(tradeType string) {
	if p == nil || p.districtsSkipped == nil {
		return
	}
	p.districtsSkipped.WithLabelValues(normalizeLabel(tradeType)).Inc()
}
