// metrics.go: Pluggable metrics for registry activity
//
// The registry reports class scans, instantiations and selections to a
// MetricsCollector. The default collector keeps everything in memory; hosts
// plug in their own to export to a metrics backend.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goextensions

import (
	"fmt"
	"sort"
	"sync"
)

// Metric names recorded by the registry.
const (
	MetricClassScans            = "extension_class_scans_total"
	MetricClassScanSeconds      = "extension_class_scan_seconds"
	MetricClassesLoaded         = "extension_classes_loaded"
	MetricInstancesCreated      = "extension_instances_created_total"
	MetricInstantiationFailures = "extension_instantiation_failures_total"
	MetricSelections            = "extension_selections_total"
	MetricSelectedExtensions    = "extension_selected_count"
	MetricDuplicateNamesIgnored = "extension_duplicate_names_total"
	MetricRegistryFilesRejected = "extension_registry_files_rejected_total"
)

const maxHistogramObservationCount = 1000

// MetricsCollector receives registry metrics.
//
// Example usage:
//
//	collector.IncrementCounter(MetricInstancesCreated,
//	    map[string]string{"point": "filter", "extension": "log"}, 1)
type MetricsCollector interface {
	IncrementCounter(name string, labels map[string]string, value int64)
	SetGauge(name string, labels map[string]string, value float64)
	RecordHistogram(name string, labels map[string]string, value float64)

	// GetMetrics returns a snapshot keyed by name and sorted labels.
	GetMetrics() map[string]interface{}
}

// NoOpMetricsCollector discards every metric.
type NoOpMetricsCollector struct{}

// IncrementCounter implements MetricsCollector
func (NoOpMetricsCollector) IncrementCounter(string, map[string]string, int64) {}

// SetGauge implements MetricsCollector
func (NoOpMetricsCollector) SetGauge(string, map[string]string, float64) {}

// RecordHistogram implements MetricsCollector
func (NoOpMetricsCollector) RecordHistogram(string, map[string]string, float64) {}

// GetMetrics implements MetricsCollector
func (NoOpMetricsCollector) GetMetrics() map[string]interface{} { return map[string]interface{}{} }

// DefaultMetricsCollector provides a basic in-memory metrics collector
type DefaultMetricsCollector struct {
	mu         sync.RWMutex
	counters   map[string]int64
	gauges     map[string]float64
	histograms map[string][]float64
}

// NewDefaultMetricsCollector creates a new default metrics collector
func NewDefaultMetricsCollector() *DefaultMetricsCollector {
	return &DefaultMetricsCollector{
		counters:   make(map[string]int64),
		gauges:     make(map[string]float64),
		histograms: make(map[string][]float64),
	}
}

// IncrementCounter implements MetricsCollector
func (dmc *DefaultMetricsCollector) IncrementCounter(name string, labels map[string]string, value int64) {
	dmc.mu.Lock()
	defer dmc.mu.Unlock()
	dmc.counters[metricKey(name, labels)] += value
}

// SetGauge implements MetricsCollector
func (dmc *DefaultMetricsCollector) SetGauge(name string, labels map[string]string, value float64) {
	dmc.mu.Lock()
	defer dmc.mu.Unlock()
	dmc.gauges[metricKey(name, labels)] = value
}

// RecordHistogram implements MetricsCollector
func (dmc *DefaultMetricsCollector) RecordHistogram(name string, labels map[string]string, value float64) {
	dmc.mu.Lock()
	defer dmc.mu.Unlock()

	key := metricKey(name, labels)
	dmc.histograms[key] = append(dmc.histograms[key], value)

	// Keep only the most recent observations
	if len(dmc.histograms[key]) > maxHistogramObservationCount {
		dmc.histograms[key] = dmc.histograms[key][len(dmc.histograms[key])-maxHistogramObservationCount:]
	}
}

// Counter returns the current value of a counter.
func (dmc *DefaultMetricsCollector) Counter(name string, labels map[string]string) int64 {
	dmc.mu.RLock()
	defer dmc.mu.RUnlock()
	return dmc.counters[metricKey(name, labels)]
}

// Gauge returns the current value of a gauge.
func (dmc *DefaultMetricsCollector) Gauge(name string, labels map[string]string) float64 {
	dmc.mu.RLock()
	defer dmc.mu.RUnlock()
	return dmc.gauges[metricKey(name, labels)]
}

// GetMetrics implements MetricsCollector
func (dmc *DefaultMetricsCollector) GetMetrics() map[string]interface{} {
	dmc.mu.RLock()
	defer dmc.mu.RUnlock()

	metrics := make(map[string]interface{})
	for k, v := range dmc.counters {
		metrics[k] = v
	}
	for k, v := range dmc.gauges {
		metrics[k] = v
	}
	for k, v := range dmc.histograms {
		if len(v) == 0 {
			continue
		}
		sum, minVal, maxVal := 0.0, v[0], v[0]
		for _, val := range v {
			sum += val
			minVal = min(minVal, val)
			maxVal = max(maxVal, val)
		}
		metrics[k+"_count"] = len(v)
		metrics[k+"_sum"] = sum
		metrics[k+"_min"] = minVal
		metrics[k+"_max"] = maxVal
		metrics[k+"_avg"] = sum / float64(len(v))
	}
	return metrics
}

// metricKey builds a metric key from name and labels sorted by label name.
func metricKey(name string, labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	key := name
	for _, k := range keys {
		key += fmt.Sprintf("_%s_%s", k, labels[k])
	}
	return key
}
