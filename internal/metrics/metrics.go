// Package metrics records the outcome of one run in the Prometheus text
// format so node_exporter's textfile collector can pick it up.
package metrics

import (
	"fmt"
	"time"

	"github.com/sadd15/water-data-scraper/internal/fault"

	"github.com/prometheus/client_golang/prometheus"
)

type Recorder struct {
	registry    *prometheus.Registry
	stepSuccess *prometheus.GaugeVec
	stepSeconds *prometheus.GaugeVec
	duration    prometheus.Gauge
	lastSuccess prometheus.Gauge
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		stepSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "water_scraper_step_success",
			Help: "1 if the step succeeded on the last run, 0 otherwise.",
		}, []string{"step"}),
		stepSeconds: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "water_scraper_step_duration_seconds",
			Help: "Wall-clock time spent in each step on the last run.",
		}, []string{"step"}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "water_scraper_run_duration_seconds",
			Help: "Wall-clock time of the last run.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "water_scraper_last_success_timestamp_seconds",
			Help: "Unix time of the last run in which every step succeeded.",
		}),
	}
	r.registry.MustRegister(r.stepSuccess, r.stepSeconds, r.duration, r.lastSuccess)
	return r
}

// Observe records step results and the total run time. The success
// timestamp is only set when every step succeeded.
func (r *Recorder) Observe(results []fault.Result, total time.Duration, finished time.Time) {
	ok := len(results) > 0
	for _, res := range results {
		value := 0.0
		if res.OK() {
			value = 1
		} else {
			ok = false
		}
		r.stepSuccess.WithLabelValues(res.Step).Set(value)
		r.stepSeconds.WithLabelValues(res.Step).Set(res.Duration.Seconds())
	}

	r.duration.Set(total.Seconds())
	if ok {
		r.lastSuccess.Set(float64(finished.Unix()))
	}
}

// WriteTextfile writes the registry to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

// Gatherer exposes the registry for callers that want to inspect it.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}
