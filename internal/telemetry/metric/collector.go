package metric

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CountFunc returns the number of stored documents per kind.
type CountFunc func(ctx context.Context) (map[string]int, error)

// DocumentCollector reports the number of locally stored documents per kind
// at scrape time.
type DocumentCollector struct {
	count   CountFunc
	timeout time.Duration
	logger  *slog.Logger
	desc    *prometheus.Desc
}

// NewDocumentCollector creates a collector backed by count.
func NewDocumentCollector(count CountFunc, logger *slog.Logger) *DocumentCollector {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentCollector{
		count:   count,
		timeout: 5 * time.Second,
		logger:  logger,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "store", "documents"),
			"Documents held in the local store, by kind",
			[]string{"kind"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *DocumentCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect implements prometheus.Collector.
func (c *DocumentCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	counts, err := c.count(ctx)
	if err != nil {
		c.logger.Warn("document count failed", "error", err)
		return
	}
	for kind, n := range counts {
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(n), kind)
	}
}

// MustRegisterCollector registers c with r.
func (r *Registry) MustRegisterCollector(c prometheus.Collector) {
	r.reg.MustRegister(c)
}
