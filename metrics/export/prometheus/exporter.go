package prometheus

import (
	"net/http"

	"github.com/MustafaxCmrt/Social-Network-sub000/auth"
	"github.com/MustafaxCmrt/Social-Network-sub000/internal/metrics"
	"github.com/MustafaxCmrt/Social-Network-sub000/metrics/export/internaldefs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metricsSource interface {
	MetricsSnapshot() auth.MetricsSnapshot
	AuditDropped() uint64
}

// Collector implements prometheus.Collector over an engine snapshot.
type Collector struct {
	source       metricsSource
	counters     []*prometheus.Desc
	histograms   []*prometheus.Desc
	auditDropped *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector reads from engine.
func NewCollector(engine *auth.Engine) *Collector {
	return NewCollectorFromSource(engine)
}

func NewCollectorFromSource(source metricsSource) *Collector {
	c := &Collector{
		source:       source,
		counters:     make([]*prometheus.Desc, len(internaldefs.CounterDefs)),
		histograms:   make([]*prometheus.Desc, len(internaldefs.HistogramDefs)),
		auditDropped: prometheus.NewDesc(internaldefs.AuditDroppedName, internaldefs.AuditDroppedHelp, nil, nil),
	}
	for i, def := range internaldefs.CounterDefs {
		c.counters[i] = prometheus.NewDesc(def.Name, def.Help, nil, nil)
	}
	for i, def := range internaldefs.HistogramDefs {
		c.histograms[i] = prometheus.NewDesc(def.Name, def.Help, nil, nil)
	}
	return c
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range c.counters {
		ch <- d
	}
	for _, d := range c.histograms {
		ch <- d
	}
	ch <- c.auditDropped
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c == nil || c.source == nil {
		return
	}

	snapshot := c.source.MetricsSnapshot()
	for i, def := range internaldefs.CounterDefs {
		value, ok := snapshot.Counters[def.ID]
		if !ok {
			continue
		}
		ch <- prometheus.MustNewConstMetric(c.counters[i], prometheus.CounterValue, float64(value))
	}

	for i, def := range internaldefs.HistogramDefs {
		h, ok := snapshot.Histograms[def.ID]
		if !ok {
			continue
		}
		ch <- prometheus.MustNewConstHistogram(c.histograms[i], h.Count(), h.Sum.Seconds(), bucketMap(h))
	}

	ch <- prometheus.MustNewConstMetric(c.auditDropped, prometheus.CounterValue, float64(c.source.AuditDropped()))
}

// bucketMap drops the +Inf bucket, which client_golang derives from count.
func bucketMap(h metrics.HistogramSnapshot) map[float64]uint64 {
	cumulative := h.Cumulative()
	out := make(map[float64]uint64, len(metrics.BucketBounds))
	for i, bound := range metrics.BucketBounds {
		out[bound] = cumulative[i]
	}
	return out
}

// Handler serves the collector from a dedicated registry.
func (c *Collector) Handler() http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(c)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
