// Package metrics exposes controller counters and gauges to Prometheus.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "heating_"

	ResultSuccess = "success"
	ResultError   = "error"
	ResultDropped = "dropped"
)

var (
	registerOnce sync.Once

	jobRuns     *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec

	sensorReads *prometheus.CounterVec
	temperature *prometheus.GaugeVec

	relayWrites *prometheus.CounterVec
	relayState  *prometheus.GaugeVec

	openArea prometheus.Gauge
)

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		jobRuns = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "job_runs_total",
				Help: "Scheduled job invocations by job and result",
			},
			[]string{"job", "result"},
		)
		jobDuration = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "job_duration_seconds",
				Help:    "Scheduled job duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"job"},
		)
		sensorReads = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "sensor_reads_total",
				Help: "Temperature sensor reads by entity and result",
			},
			[]string{"key", "result"},
		)
		temperature = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "temperature_celsius",
				Help: "Last sampled temperature by entity",
			},
			[]string{"key"},
		)
		relayWrites = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "relay_writes_total",
				Help: "Relay state changes by entity and result",
			},
			[]string{"key", "result"},
		)
		relayState = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "relay_on",
				Help: "Last known relay level by entity (1 = on)",
			},
			[]string{"key"},
		)
		openArea = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "open_area_square_meters",
				Help: "Floor area with valves open long enough to count toward the stove decision",
			},
		)

		prometheus.MustRegister(
			jobRuns,
			jobDuration,
			sensorReads,
			temperature,
			relayWrites,
			relayState,
			openArea,
		)
	})
}

// ObserveJob records a finished job invocation.
func ObserveJob(job, result string, duration time.Duration) {
	if jobRuns != nil {
		jobRuns.WithLabelValues(job, result).Inc()
	}
	if jobDuration != nil && result != ResultDropped {
		jobDuration.WithLabelValues(job).Observe(duration.Seconds())
	}
}

// IncJobDropped counts a tick skipped because the previous run was still active.
func IncJobDropped(job string) {
	if jobRuns != nil {
		jobRuns.WithLabelValues(job, ResultDropped).Inc()
	}
}

// ObserveReading records a sensor read; value is ignored on error.
func ObserveReading(key string, value float64, err error) {
	if err != nil {
		if sensorReads != nil {
			sensorReads.WithLabelValues(key, ResultError).Inc()
		}
		return
	}
	if sensorReads != nil {
		sensorReads.WithLabelValues(key, ResultSuccess).Inc()
	}
	if temperature != nil {
		temperature.WithLabelValues(key).Set(value)
	}
}

// ObserveRelayWrite records a relay write attempt.
func ObserveRelayWrite(key string, on bool, err error) {
	if err != nil {
		if relayWrites != nil {
			relayWrites.WithLabelValues(key, ResultError).Inc()
		}
		return
	}
	if relayWrites != nil {
		relayWrites.WithLabelValues(key, ResultSuccess).Inc()
	}
	SetRelayState(key, on)
}

// SetRelayState records the last known relay level.
func SetRelayState(key string, on bool) {
	if relayState == nil {
		return
	}
	v := 0.0
	if on {
		v = 1
	}
	relayState.WithLabelValues(key).Set(v)
}

// SetOpenArea records the area counted by the last stove decision.
func SetOpenArea(m2 float64) {
	if openArea != nil {
		openArea.Set(m2)
	}
}
