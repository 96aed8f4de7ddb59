// collector.go: Prometheus exposition of tiercache statistics
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

// Package prom exposes tiercache statistics to Prometheus.
//
// Collector reads Stats on every scrape, so counters survive without any
// per-operation hook:
//
//	reg := prometheus.NewRegistry()
//	reg.MustRegister(prom.NewCollector("booking", svc))
//	http.Handle("/metrics", prom.Handler(reg))
package prom

import (
	"net/http"

	"github.com/agilira/tiercache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatsSource is satisfied by *tiercache.Service.
type StatsSource interface {
	Stats() tiercache.Stats
}

// Collector is a prometheus.Collector over a StatsSource.
type Collector struct {
	source StatsSource

	requests    *prometheus.Desc
	hits        *prometheus.Desc
	misses      *prometheus.Desc
	sets        *prometheus.Desc
	removes     *prometheus.Desc
	evictions   *prometheus.Desc
	expirations *prometheus.Desc
	hydrated    *prometheus.Desc
	errors      *prometheus.Desc
	items       *prometheus.Desc
	bytes       *prometheus.Desc
	budget      *prometheus.Desc
}

// NewCollector returns a Collector whose metric names start with
// namespace_tiercache_. An empty namespace drops the first segment.
func NewCollector(namespace string, source StatsSource) *Collector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "tiercache", name), help, nil, nil)
	}
	return &Collector{
		source:      source,
		requests:    desc("requests_total", "Total number of Get lookups"),
		hits:        desc("hits_total", "Total number of lookups answered by either tier"),
		misses:      desc("misses_total", "Total number of lookups that found nothing"),
		sets:        desc("sets_total", "Total number of successful Set calls"),
		removes:     desc("removes_total", "Total number of successful Remove calls"),
		evictions:   desc("evictions_total", "Total number of hot tier evictions"),
		expirations: desc("expirations_total", "Total number of TTL-based expirations"),
		hydrated:    desc("hydrated_total", "Total number of durable records admitted into the hot tier"),
		errors:      desc("errors_total", "Total number of caught serialization and durable I/O failures"),
		items:       desc("items", "Current number of hot tier items"),
		bytes:       desc("memory_bytes", "Current hot tier byte usage"),
		budget:      desc("memory_budget_bytes", "Hot tier byte budget"),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.requests, c.hits, c.misses, c.sets, c.removes, c.evictions,
		c.expirations, c.hydrated, c.errors, c.items, c.bytes, c.budget,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Stats()

	counter := func(d *prometheus.Desc, v uint64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v))
	}
	gauge := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v)
	}

	counter(c.requests, s.Requests)
	counter(c.hits, s.Hits)
	counter(c.misses, s.Misses)
	counter(c.sets, s.Sets)
	counter(c.removes, s.Removes)
	counter(c.evictions, s.Evictions)
	counter(c.expirations, s.Expirations)
	counter(c.hydrated, s.Hydrated)
	counter(c.errors, s.Errors)
	gauge(c.items, float64(s.ItemCount))
	gauge(c.bytes, float64(s.MemoryBytes))
	gauge(c.budget, float64(s.MemoryBudget))
}

// Handler returns an HTTP handler exposing the metrics of g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

var _ prometheus.Collector = (*Collector)(nil)
