// metrics_test.go: Metrics collector tests
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package goextensions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultMetricsCollector(t *testing.T) {
	c := NewDefaultMetricsCollector()
	labels := map[string]string{"point": "filter", "extension": "log"}

	c.IncrementCounter(MetricInstancesCreated, labels, 1)
	c.IncrementCounter(MetricInstancesCreated, labels, 2)
	c.SetGauge(MetricClassesLoaded, map[string]string{"point": "filter"}, 4)
	c.RecordHistogram(MetricClassScanSeconds, nil, 1)
	c.RecordHistogram(MetricClassScanSeconds, nil, 3)

	assert.Equal(t, int64(3), c.Counter(MetricInstancesCreated, labels))
	assert.Equal(t, 4.0, c.Gauge(MetricClassesLoaded, map[string]string{"point": "filter"}))

	metrics := c.GetMetrics()
	assert.Equal(t, int64(3), metrics["extension_instances_created_total_extension_log_point_filter"])
	assert.Equal(t, 2, metrics[MetricClassScanSeconds+"_count"])
	assert.Equal(t, 4.0, metrics[MetricClassScanSeconds+"_sum"])
	assert.Equal(t, 1.0, metrics[MetricClassScanSeconds+"_min"])
	assert.Equal(t, 3.0, metrics[MetricClassScanSeconds+"_max"])
	assert.Equal(t, 2.0, metrics[MetricClassScanSeconds+"_avg"])
}

func TestDefaultMetricsCollector_HistogramBounded(t *testing.T) {
	c := NewDefaultMetricsCollector()
	for i := 0; i < maxHistogramObservationCount+50; i++ {
		c.RecordHistogram("h", nil, float64(i))
	}

	metrics := c.GetMetrics()
	assert.Equal(t, maxHistogramObservationCount, metrics["h_count"])
	assert.Equal(t, 50.0, metrics["h_min"])
}

func TestMetricKey_SortsLabels(t *testing.T) {
	a := metricKey("m", map[string]string{"b": "2", "a": "1"})
	b := metricKey("m", map[string]string{"a": "1", "b": "2"})
	assert.Equal(t, "m_a_1_b_2", a)
	assert.Equal(t, a, b)
}

func TestNoOpMetricsCollector(t *testing.T) {
	var c MetricsCollector = NoOpMetricsCollector{}
	c.IncrementCounter("x", nil, 1)
	c.SetGauge("x", nil, 1)
	c.RecordHistogram("x", nil, 1)
	assert.Empty(t, c.GetMetrics())
}

func TestRegistryMetrics_ScanAndInstances(t *testing.T) {
	fx := NewTestRegistryFixture(t, nil)
	loader := fx.Filters()
	registerPlain(t, loader, "log")
	a := assert.New(t)

	_, err := loader.Extension("log")
	a.NoError(err)
	_, err = loader.Extension("log")
	a.NoError(err)

	point := map[string]string{"point": "filter"}
	a.Equal(int64(1), fx.Metrics.Counter(MetricClassScans, point))
	a.Equal(1.0, fx.Metrics.Gauge(MetricClassesLoaded, point))
	a.Equal(int64(1), fx.Metrics.Counter(MetricInstancesCreated,
		map[string]string{"point": "filter", "extension": "log"}))
}
