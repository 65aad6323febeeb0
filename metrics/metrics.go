package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sagarc03/duplo"
)

const namespace = "duplo"

// Config controls which collectors are registered.
type Config struct {
	DisableGoCollector bool
	DisableProcess     bool
}

// Collector exports pool activity to Prometheus. It implements duplo.Observer
// and is safe for concurrent use.
type Collector struct {
	reg *prometheus.Registry

	uploads       *prometheus.CounterVec
	bytesIn       *prometheus.CounterVec
	quotaExceeded *prometheus.CounterVec
	removals      *prometheus.CounterVec
	bytesFreed    *prometheus.CounterVec
	sweeps        *prometheus.CounterVec
	sweepFailures *prometheus.CounterVec
}

var _ duplo.Observer = (*Collector)(nil)

// New creates a Collector backed by its own registry.
func New(cfg Config) *Collector {
	reg := prometheus.NewRegistry()
	if !cfg.DisableGoCollector {
		reg.MustRegister(collectors.NewGoCollector())
	}
	if !cfg.DisableProcess {
		reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	c := &Collector{
		reg: reg,
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "uploads_total",
			Help: "Upload and share-text requests by outcome.",
		}, []string{"pool", "action", "result"}),
		bytesIn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "bytes_in_total",
			Help: "Bytes stored by uploads, including truncated ones.",
		}, []string{"pool"}),
		quotaExceeded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "quota_exceeded_total",
			Help: "Requests refused or truncated by a quota.",
		}, []string{"pool", "type"}),
		removals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "removals_total",
			Help: "Explicit removals by outcome.",
		}, []string{"pool", "result"}),
		bytesFreed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "bytes_freed_total",
			Help: "Bytes released by removals and sweeps.",
		}, []string{"pool", "source"}),
		sweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "swept_files_total",
			Help: "Files removed by the expiry sweep.",
		}, []string{"pool"}),
		sweepFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "sweep_failures_total",
			Help: "Expired files the sweep could not remove.",
		}, []string{"pool"}),
	}

	reg.MustRegister(c.uploads, c.bytesIn, c.quotaExceeded, c.removals, c.bytesFreed, c.sweeps, c.sweepFailures)
	return c
}

// WatchPool registers gauges that read the pool's quota counters on scrape.
// Each pool may be watched once.
func (c *Collector) WatchPool(pool *duplo.Pool) error {
	labels := prometheus.Labels{"pool": pool.Name()}
	quotas := pool.Quotas()

	gauges := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace, Name: "stored_bytes", ConstLabels: labels,
			Help: "Bytes currently counted against the pool.",
		}, func() float64 { return float64(quotas.Bytes.Current()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace, Name: "max_bytes", ConstLabels: labels,
			Help: "Byte ceiling of the pool.",
		}, func() float64 { return float64(quotas.Bytes.Ceiling()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace, Name: "stored_files", ConstLabels: labels,
			Help: "Files currently counted against the pool.",
		}, func() float64 { return float64(quotas.Files.Current()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace, Name: "max_files", ConstLabels: labels,
			Help: "File ceiling of the pool.",
		}, func() float64 { return float64(quotas.Files.Ceiling()) }),
	}

	for _, g := range gauges {
		if err := c.reg.Register(g); err != nil {
			return err
		}
	}
	return nil
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{Registry: c.reg})
}

// Registry exposes the underlying registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.reg
}

func (c *Collector) ObserveUpload(pool, action, result string, bytes int64) {
	c.uploads.WithLabelValues(pool, action, result).Inc()
	if bytes > 0 {
		c.bytesIn.WithLabelValues(pool).Add(float64(bytes))
	}
}

func (c *Collector) ObserveQuotaExceeded(pool, quota string) {
	c.quotaExceeded.WithLabelValues(pool, quota).Inc()
}

func (c *Collector) ObserveRemove(pool, result string, bytes int64) {
	c.removals.WithLabelValues(pool, result).Inc()
	if bytes > 0 {
		c.bytesFreed.WithLabelValues(pool, "remove").Add(float64(bytes))
	}
}

func (c *Collector) ObserveSweep(pool string, res duplo.SweepResult) {
	if res.Removed > 0 {
		c.sweeps.WithLabelValues(pool).Add(float64(res.Removed))
	}
	if res.Failed > 0 {
		c.sweepFailures.WithLabelValues(pool).Add(float64(res.Failed))
	}
	if res.FreedBytes > 0 {
		c.bytesFreed.WithLabelValues(pool, "sweep").Add(float64(res.FreedBytes))
	}
}
