package deq

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements prometheus.Collector for queue stats.
// It exposes cumulative counters labelled by queue:
//
//	deq_commands_total{queue="<name>"}
//	deq_events_total{queue="<name>"}
//	deq_errors_total{queue="<name>"}
//	deq_deliveries_total{queue="<name>"}
//	deq_listener_failures_total{queue="<name>"}
//	deq_suppressed_total{queue="<name>"}
//
// The collector is pull based: every scrape reads Registry.PerQueueStats, so
// the dispatch path carries no extra instrumentation. Totals across queues
// are left to the query, e.g. sum(deq_events_total).
//
// Usage:
//
//	collector := deq.NewPrometheusCollector(registry, "deq")
//	prometheus.MustRegister(collector)
type PrometheusCollector struct {
	registry *Registry

	commandsDesc   *prometheus.Desc
	eventsDesc     *prometheus.Desc
	errorsDesc     *prometheus.Desc
	deliveriesDesc *prometheus.Desc
	failuresDesc   *prometheus.Desc
	suppressedDesc *prometheus.Desc
}

// NewPrometheusCollector creates a collector over every queue in registry.
// namespace is the metric prefix (default "deq").
func NewPrometheusCollector(registry *Registry, namespace string) *PrometheusCollector {
	if namespace == "" {
		namespace = "deq"
	}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(fmt.Sprintf("%s_%s", namespace, name), help, []string{"queue"}, nil)
	}
	return &PrometheusCollector{
		registry:       registry,
		commandsDesc:   desc("commands_total", "Total submitted commands (cumulative)"),
		eventsDesc:     desc("events_total", "Total recorded events, error events included (cumulative)"),
		errorsDesc:     desc("errors_total", "Total deq error events emitted (cumulative)"),
		deliveriesDesc: desc("deliveries_total", "Total listener invocations (cumulative)"),
		failuresDesc:   desc("listener_failures_total", "Total failed listener invocations (cumulative)"),
		suppressedDesc: desc("suppressed_total", "Total faults dropped while dispatching error events (cumulative)"),
	}
}

// Describe sends metric descriptors.
func (c *PrometheusCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.commandsDesc
	ch <- c.eventsDesc
	ch <- c.errorsDesc
	ch <- c.deliveriesDesc
	ch <- c.failuresDesc
	ch <- c.suppressedDesc
}

// Collect gathers current stats and emits ConstMetrics.
func (c *PrometheusCollector) Collect(ch chan<- prometheus.Metric) {
	for queue, s := range c.registry.PerQueueStats() {
		c.collectStats(ch, queue, s)
	}
}

func (c *PrometheusCollector) collectStats(ch chan<- prometheus.Metric, queue string, s Stats) {
	ch <- prometheus.MustNewConstMetric(c.commandsDesc, prometheus.CounterValue, float64(s.Commands), queue)
	ch <- prometheus.MustNewConstMetric(c.eventsDesc, prometheus.CounterValue, float64(s.Events), queue)
	ch <- prometheus.MustNewConstMetric(c.errorsDesc, prometheus.CounterValue, float64(s.Errors), queue)
	ch <- prometheus.MustNewConstMetric(c.deliveriesDesc, prometheus.CounterValue, float64(s.Deliveries), queue)
	ch <- prometheus.MustNewConstMetric(c.failuresDesc, prometheus.CounterValue, float64(s.ListenerFailures), queue)
	ch <- prometheus.MustNewConstMetric(c.suppressedDesc, prometheus.CounterValue, float64(s.Suppressed), queue)
}
