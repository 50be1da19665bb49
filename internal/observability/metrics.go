package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineCollector bundles Prometheus metrics for the analysis pipeline and
// provides a ready-to-serve /metrics handler.
type PipelineCollector struct {
	gatherer prometheus.Gatherer

	SatellitesAnalyzed prometheus.Counter
	SatellitesFailed   prometheus.Counter

	ManeuversDetected *prometheus.CounterVec

	DOPSamples *prometheus.CounterVec

	AnalysisDuration prometheus.Histogram

	HealthScore *prometheus.GaugeVec
}

// NewPipelineCollector registers pipeline Prometheus metrics against the
// provided registerer, defaulting to the global Prometheus registry when nil.
func NewPipelineCollector(reg prometheus.Registerer) (*PipelineCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	analyzed, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "satellites_analyzed_total",
		Help: "Total number of satellites that completed analysis.",
	}), "satellites_analyzed_total")
	if err != nil {
		return nil, err
	}
	failed, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "satellites_failed_total",
		Help: "Total number of satellites whose analysis returned an error.",
	}), "satellites_failed_total")
	if err != nil {
		return nil, err
	}

	maneuvers := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "maneuvers_detected_total",
		Help: "Total number of confirmed maneuver events, labeled by axis.",
	}, []string{"axis"})
	maneuvers, err = registerCounterVec(reg, maneuvers, "maneuvers_detected_total")
	if err != nil {
		return nil, err
	}

	dopSamples := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dop_samples_total",
		Help: "Total number of evaluated DOP samples, labeled by outcome (defined or undefined).",
	}, []string{"outcome"})
	dopSamples, err = registerCounterVec(reg, dopSamples, "dop_samples_total")
	if err != nil {
		return nil, err
	}

	duration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "analysis_duration_seconds",
		Help:    "Per-satellite analysis latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}), "analysis_duration_seconds")
	if err != nil {
		return nil, err
	}

	score := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "satellite_health_score",
		Help: "Latest composite health score per satellite, 0 to 100.",
	}, []string{"satellite_id"})
	score, err = registerGaugeVec(reg, score, "satellite_health_score")
	if err != nil {
		return nil, err
	}

	return &PipelineCollector{
		gatherer:           gatherer,
		SatellitesAnalyzed: analyzed,
		SatellitesFailed:   failed,
		ManeuversDetected:  maneuvers,
		DOPSamples:         dopSamples,
		AnalysisDuration:   duration,
		HealthScore:        score,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *PipelineCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveAnalysis records one completed satellite analysis.
func (c *PipelineCollector) ObserveAnalysis(d time.Duration, failed bool) {
	if c == nil {
		return
	}
	if failed {
		if c.SatellitesFailed != nil {
			c.SatellitesFailed.Inc()
		}
		return
	}
	if c.SatellitesAnalyzed != nil {
		c.SatellitesAnalyzed.Inc()
	}
	if c.AnalysisDuration != nil {
		c.AnalysisDuration.Observe(d.Seconds())
	}
}

// RecordManeuvers bumps the maneuver counter for the given axis label.
func (c *PipelineCollector) RecordManeuvers(axis string, n int) {
	if c == nil || c.ManeuversDetected == nil || n <= 0 {
		return
	}
	c.ManeuversDetected.WithLabelValues(axis).Add(float64(n))
}

// RecordDOPSamples bumps the DOP sample counters.
func (c *PipelineCollector) RecordDOPSamples(defined, undefined int) {
	if c == nil || c.DOPSamples == nil {
		return
	}
	if defined > 0 {
		c.DOPSamples.WithLabelValues("defined").Add(float64(defined))
	}
	if undefined > 0 {
		c.DOPSamples.WithLabelValues("undefined").Add(float64(undefined))
	}
}

// SetHealthScore publishes the latest composite score for a satellite.
func (c *PipelineCollector) SetHealthScore(satelliteID string, score float64) {
	if c == nil || c.HealthScore == nil {
		return
	}
	c.HealthScore.WithLabelValues(satelliteID).Set(score)
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
