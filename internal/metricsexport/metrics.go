// Package metricsexport exposes live simulation counters as Prometheus
// gauges, adapted from the metrics server the teacher used to publish
// hardware telemetry (cmd/metrics/metrics_server.go in the original
// collection engine).
package metricsexport

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricPrefix = "cachesim_"

// Exporter publishes running hit/miss counters for a single simulation.
type Exporter struct {
	l1Hits   prometheus.Counter
	l1Misses prometheus.Counter
	l2Hits   prometheus.Counter
	l2Misses prometheus.Counter
	l3Hits   prometheus.Counter
	l3Misses prometheus.Counter
	registry *prometheus.Registry
}

// New constructs an Exporter with its own registry, so repeated runs in the
// same process (as in tests) never collide with prometheus' global one.
func New() *Exporter {
	e := &Exporter{
		l1Hits:   prometheus.NewCounter(prometheus.CounterOpts{Name: metricPrefix + "l1_hits_total", Help: "L1 demand hits observed so far"}),
		l1Misses: prometheus.NewCounter(prometheus.CounterOpts{Name: metricPrefix + "l1_misses_total", Help: "L1 demand misses observed so far"}),
		l2Hits:   prometheus.NewCounter(prometheus.CounterOpts{Name: metricPrefix + "l2_hits_total", Help: "L2 demand hits observed so far"}),
		l2Misses: prometheus.NewCounter(prometheus.CounterOpts{Name: metricPrefix + "l2_misses_total", Help: "L2 demand misses observed so far"}),
		l3Hits:   prometheus.NewCounter(prometheus.CounterOpts{Name: metricPrefix + "l3_hits_total", Help: "L3 demand hits observed so far"}),
		l3Misses: prometheus.NewCounter(prometheus.CounterOpts{Name: metricPrefix + "l3_misses_total", Help: "L3 demand misses observed so far"}),
		registry: prometheus.NewRegistry(),
	}
	e.registry.MustRegister(e.l1Hits, e.l1Misses, e.l2Hits, e.l2Misses, e.l3Hits, e.l3Misses)
	return e
}

// ObserveEvent updates the running counters from one processed event's
// per-level hit/miss outcome.
func (e *Exporter) ObserveEvent(l1Hit, l2Hit, l3Hit bool) {
	bump(e.l1Hits, e.l1Misses, l1Hit)
	if !l1Hit {
		bump(e.l2Hits, e.l2Misses, l2Hit)
		if !l2Hit {
			bump(e.l3Hits, e.l3Misses, l3Hit)
		}
	}
}

func bump(hits, misses prometheus.Counter, hit bool) {
	if hit {
		hits.Inc()
	} else {
		misses.Inc()
	}
}

// Serve starts an HTTP server exposing /metrics at addr and returns a
// function that shuts it down.
func (e *Exporter) Serve(addr string) (stop func(), err error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 3 * time.Second}
	ln, err := newListener(addr)
	if err != nil {
		return nil, err
	}
	slog.Info("starting metrics listener", slog.String("address", addr))
	go func() {
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", slog.String("error", err.Error()))
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}, nil
}
