// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// MetricsManager owns the registry and the counters the client and list
// engine report into.
type MetricsManager struct {
	registry *prometheus.Registry

	listFetches   *prometheus.CounterVec
	fetchErrors   *prometheus.CounterVec
	bulkActions   *prometheus.CounterVec
	rowsLoaded    *prometheus.GaugeVec
	fetchDuration *prometheus.HistogramVec
}

func NewMetricsManager() *MetricsManager {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &MetricsManager{
		registry: registry,
		listFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quitui_list_fetches_total",
			Help: "Torrent list fetches by instance and kind (initial, grow, poll)",
		}, []string{"instance_id", "kind"}),
		fetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quitui_fetch_errors_total",
			Help: "Failed torrent list fetches by instance",
		}, []string{"instance_id"}),
		bulkActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quitui_bulk_actions_total",
			Help: "Bulk torrent actions by instance, action and outcome",
		}, []string{"instance_id", "action", "outcome"}),
		rowsLoaded: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "quitui_rows_loaded",
			Help: "Rows currently held client-side per instance",
		}, []string{"instance_id"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "quitui_fetch_duration_seconds",
			Help:    "Torrent list fetch latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"instance_id"}),
	}

	registry.MustRegister(m.listFetches, m.fetchErrors, m.bulkActions, m.rowsLoaded, m.fetchDuration)

	return m
}

func (m *MetricsManager) GetRegistry() *prometheus.Registry {
	return m.registry
}

func (m *MetricsManager) RecordListFetch(instanceID int, kind string) {
	m.listFetches.WithLabelValues(strconv.Itoa(instanceID), kind).Inc()
}

func (m *MetricsManager) RecordFetchError(instanceID int) {
	m.fetchErrors.WithLabelValues(strconv.Itoa(instanceID)).Inc()
}

func (m *MetricsManager) RecordBulkAction(instanceID int, action string, success bool) {
	outcome := "success"
	if !success {
		outcome = "error"
	}
	m.bulkActions.WithLabelValues(strconv.Itoa(instanceID), action, outcome).Inc()
}

func (m *MetricsManager) SetRowsLoaded(instanceID, rows int) {
	m.rowsLoaded.WithLabelValues(strconv.Itoa(instanceID)).Set(float64(rows))
}

func (m *MetricsManager) ObserveFetchDuration(instanceID int, seconds float64) {
	m.fetchDuration.WithLabelValues(strconv.Itoa(instanceID)).Observe(seconds)
}
