// Package metrics exposes per-SSRC transport feedback engine state as
// Prometheus gauges.
package metrics

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/alphacc/receiver/internal/transportcc"
)

// proxyInfo pairs a metric description with the function that reads its
// current value off a Proxy, mirroring the teacher's
// description+supplier pairing in pkg/exporter/exporter.go, re-keyed by
// SSRC instead of net.Conn.
type proxyInfo struct {
	description *prometheus.Desc
	supplier    func(p *transportcc.Proxy) float64
}

// Collector implements prometheus.Collector over a dynamically changing set
// of per-SSRC Proxys.
type Collector struct {
	mu     sync.Mutex
	proxys map[uint32]*transportcc.Proxy
	infos  []proxyInfo
}

// NewCollector constructs a Collector with the fixed set of transportcc
// gauges wired in.
func NewCollector(constLabels prometheus.Labels) *Collector {
	c := &Collector{
		proxys: make(map[uint32]*transportcc.Proxy),
	}
	c.addMetrics(constLabels)
	return c
}

func (c *Collector) addMetrics(constLabels prometheus.Labels) {
	labelNames := []string{"ssrc"}

	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(name, help, labelNames, constLabels)
	}

	c.infos = []proxyInfo{
		{
			description: desc("transportcc_arrival_map_size", "Number of entries currently held in the arrival map."),
			supplier:    func(p *transportcc.Proxy) float64 { return float64(p.ArrivalMapLen()) },
		},
		{
			description: desc("transportcc_send_interval_ms", "Current adaptive feedback send interval, in milliseconds."),
			supplier:    func(p *transportcc.Proxy) float64 { return float64(p.SendIntervalMS()) },
		},
		{
			description: desc("transportcc_last_feedback_entries", "Number of entries carried by the most recently emitted feedback packet."),
			supplier:    func(p *transportcc.Proxy) float64 { return float64(p.LastFeedbackEntryCount()) },
		},
		{
			description: desc("transportcc_latest_bwe_estimate", "Most recent bandwidth estimate reported by the predictor."),
			supplier:    func(p *transportcc.Proxy) float64 { return float64(p.LatestEstimate()) },
		},
		{
			description: desc("transportcc_telemetry_failures_total", "Number of telemetry flushes whose save did not succeed."),
			supplier:    func(p *transportcc.Proxy) float64 { return float64(p.TelemetryFailureCount()) },
		},
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(descs chan<- *prometheus.Desc) {
	for _, info := range c.infos {
		descs <- info.description
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(metrics chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for ssrc, p := range c.proxys {
		label := fmt.Sprintf("%08x", ssrc)
		for _, info := range c.infos {
			metrics <- prometheus.MustNewConstMetric(info.description, prometheus.GaugeValue, info.supplier(p), label)
		}
	}
}

// Add registers a Proxy under the collector with the given SSRC.
func (c *Collector) Add(ssrc uint32, p *transportcc.Proxy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.proxys[ssrc] = p
}

// Remove unregisters the Proxy for ssrc, if any.
func (c *Collector) Remove(ssrc uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.proxys, ssrc)
}
