package sql

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StatsCollector exports a QueryStats as Prometheus metrics. Values are read
// at scrape time, so the collector never falls behind the counters.
type StatsCollector struct {
	stats    *QueryStats
	queries  *prometheus.Desc
	execs    *prometheus.Desc
	duration *prometheus.Desc
	slow     *prometheus.Desc
	errors   *prometheus.Desc
	txs      *prometheus.Desc
}

// NewStatsCollector returns a collector for stats. Metric names are prefixed
// with namespace.
//
//	reg.MustRegister(sql.NewStatsCollector("erm", drv.QueryStats()))
func NewStatsCollector(namespace string, stats *QueryStats) *StatsCollector {
	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "sql", name), help, labels, nil)
	}
	return &StatsCollector{
		stats:    stats,
		queries:  desc("queries_total", "Number of row-returning statements executed."),
		execs:    desc("execs_total", "Number of write and DDL statements executed."),
		duration: desc("duration_seconds_total", "Time spent executing statements."),
		slow:     desc("slow_queries_total", "Number of statements exceeding the slow threshold."),
		errors:   desc("errors_total", "Number of failed statements."),
		txs:      desc("transactions_total", "Number of finished transactions.", "outcome"),
	}
}

// Describe implements prometheus.Collector.
func (c *StatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.queries
	ch <- c.execs
	ch <- c.duration
	ch <- c.slow
	ch <- c.errors
	ch <- c.txs
}

// Collect implements prometheus.Collector.
func (c *StatsCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats.Stats()
	ch <- prometheus.MustNewConstMetric(c.queries, prometheus.CounterValue, float64(s.TotalQueries))
	ch <- prometheus.MustNewConstMetric(c.execs, prometheus.CounterValue, float64(s.TotalExecs))
	ch <- prometheus.MustNewConstMetric(c.duration, prometheus.CounterValue, s.TotalDuration.Seconds())
	ch <- prometheus.MustNewConstMetric(c.slow, prometheus.CounterValue, float64(s.SlowQueries))
	ch <- prometheus.MustNewConstMetric(c.errors, prometheus.CounterValue, float64(s.Errors))
	ch <- prometheus.MustNewConstMetric(c.txs, prometheus.CounterValue, float64(s.Commits), "commit")
	ch <- prometheus.MustNewConstMetric(c.txs, prometheus.CounterValue, float64(s.Rollbacks), "rollback")
}

var _ prometheus.Collector = (*StatsCollector)(nil)
