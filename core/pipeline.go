package core

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ElectricPlant19/GNSS-Health-Monitor/internal/config"
	"github.com/ElectricPlant19/GNSS-Health-Monitor/internal/logging"
	"github.com/ElectricPlant19/GNSS-Health-Monitor/internal/observability"
	"github.com/ElectricPlant19/GNSS-Health-Monitor/model"
)

// geoInclinationCutoffDeg separates geostationary from inclined
// geosynchronous satellites when no orbit class is configured.
const geoInclinationCutoffDeg = 10.0

// SatelliteResult is the complete per-satellite output of one analysis run.
// Err is set when the satellite could not be analyzed at all; Rejected lists
// individually dropped records for satellites that still produced a series.
type SatelliteResult struct {
	SatelliteID string
	Series      *model.ElementSeries
	Drift       model.DriftSummary
	Maneuvers   []model.ManeuverEvent
	Health      model.HealthAssessment
	Rejected    []error
	Err         error
}

// BatchResult is one whole analysis run over a constellation snapshot.
type BatchResult struct {
	RunID        string
	Satellites   []SatelliteResult
	DOP          []ObserverDOPSeries
	GroundTracks []model.GroundTrackBox
	ReferenceAt  time.Time
	Started      time.Time
	Finished     time.Time
}

// Analyzer runs the full pipeline: series construction, drift analysis,
// maneuver detection, health scoring, and constellation DOP sampling.
// Satellites are analyzed in parallel; a failure in one never aborts the
// batch.
type Analyzer struct {
	cfg      config.Config
	builder  *SeriesBuilder
	drift    *DriftAnalyzer
	detector *ManeuverDetector
	scorer   *HealthScorer
	dop      *DOPEngine
	log      logging.Logger
	metrics  *observability.PipelineCollector
	tracer   trace.Tracer
}

// NewAnalyzer wires the pipeline from a validated configuration. metrics may
// be nil when the caller does not export Prometheus metrics.
func NewAnalyzer(cfg config.Config, log logging.Logger, metrics *observability.PipelineCollector) *Analyzer {
	if log == nil {
		log = logging.Noop()
	}
	return &Analyzer{
		cfg:      cfg,
		builder:  NewSeriesBuilder(cfg.MinSeriesLen),
		drift:    NewDriftAnalyzer(cfg.Drift),
		detector: NewManeuverDetector(cfg.Detector),
		scorer:   NewHealthScorer(cfg.Health, cfg.Drift),
		dop:      NewDOPEngine(cfg.DOP, cfg.Workers, log),
		log:      log,
		metrics:  metrics,
		tracer:   otel.Tracer("gnssmon/pipeline"),
	}
}

// Analyze runs the whole pipeline over a constellation snapshot: raw element
// records keyed by satellite identifier, as handed over by ingestion. The DOP
// window starts at the freshest epoch across all series that built
// successfully.
func (a *Analyzer) Analyze(ctx context.Context, raw map[string][]model.RawElementRecord) BatchResult {
	runID := logging.NewRunID()
	log := logging.WithRun(a.log, runID)
	started := time.Now()

	ctx, span := a.tracer.Start(ctx, "analyze_batch",
		trace.WithAttributes(attribute.Int("satellite_count", len(raw))))
	defer span.End()

	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	results := make([]SatelliteResult, len(ids))
	workers := a.cfg.Workers
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = a.analyzeSatellite(ctx, log, ids[i], raw[ids[i]])
			}
		}()
	}
	for i := range ids {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	series := make(map[string]*model.ElementSeries)
	ref := time.Time{}
	for _, res := range results {
		if res.Err != nil || res.Series == nil {
			continue
		}
		series[res.SatelliteID] = res.Series
		if _, last := res.Series.Span(); last.After(ref) {
			ref = last
		}
	}

	var dopSeries []ObserverDOPSeries
	var tracks []model.GroundTrackBox
	if len(series) > 0 && len(a.cfg.DOP.Observers) > 0 {
		dopCtx, dopSpan := a.tracer.Start(ctx, "evaluate_dop",
			trace.WithAttributes(attribute.Int("observer_count", len(a.cfg.DOP.Observers))))
		dopSeries, tracks = a.dop.Evaluate(dopCtx, series, ref)
		dopSpan.End()
		a.recordDOPMetrics(dopSeries)
	}

	finished := time.Now()
	log.Info(ctx, "batch complete",
		logging.Int("satellites", len(ids)),
		logging.Int("with_series", len(series)),
		logging.String("elapsed", finished.Sub(started).String()))

	return BatchResult{
		RunID:        runID,
		Satellites:   results,
		DOP:          dopSeries,
		GroundTracks: tracks,
		ReferenceAt:  ref,
		Started:      started,
		Finished:     finished,
	}
}

// analyzeSatellite runs one satellite end to end. All failures are captured
// in the result, never propagated to the batch.
func (a *Analyzer) analyzeSatellite(ctx context.Context, baseLog logging.Logger, id string, raws []model.RawElementRecord) SatelliteResult {
	log := logging.WithSatellite(baseLog, id)
	start := time.Now()

	ctx, span := a.tracer.Start(ctx, "analyze_satellite",
		trace.WithAttributes(attribute.String("satellite_id", id)))
	defer span.End()

	result := SatelliteResult{SatelliteID: id}

	series, rejected, err := a.builder.Build(id, raws)
	result.Rejected = rejected
	for _, rej := range rejected {
		log.Warn(ctx, "element record rejected", logging.String("error", rej.Error()))
	}
	if err != nil {
		result.Err = err
		log.Warn(ctx, "series construction failed", logging.String("error", err.Error()))
		a.metrics.ObserveAnalysis(time.Since(start), true)
		return result
	}
	result.Series = series

	class := a.classify(id, series)

	summary, err := a.drift.Analyze(series, class)
	if err != nil {
		result.Err = err
		log.Warn(ctx, "drift analysis failed", logging.String("error", err.Error()))
		a.metrics.ObserveAnalysis(time.Since(start), true)
		return result
	}
	result.Drift = summary

	result.Maneuvers = a.detector.Detect(series)

	req, hasReq := a.cfg.RequirementFor(id)
	result.Health = a.scorer.Score(series, class, req, hasReq, summary, result.Maneuvers)

	a.recordSatelliteMetrics(result, time.Since(start))
	log.Info(ctx, "satellite analyzed",
		logging.Int("records", series.Len()),
		logging.Int("maneuvers", len(result.Maneuvers)),
		logging.Float("score", result.Health.Score),
		logging.String("status", result.Health.Status.String()))
	return result
}

// classify resolves the orbit class from configuration when present, falling
// back to the mean-inclination rule for unknown satellites.
func (a *Analyzer) classify(id string, series *model.ElementSeries) model.OrbitClass {
	if req, ok := a.cfg.RequirementFor(id); ok {
		if class := req.OrbitClass(); class != model.OrbitUnclassified {
			return class
		}
	}
	var sum float64
	for _, rec := range series.Records {
		sum += rec.Inclination
	}
	if sum/float64(series.Len()) < geoInclinationCutoffDeg {
		return model.OrbitGEO
	}
	return model.OrbitIGSO
}

func (a *Analyzer) recordSatelliteMetrics(res SatelliteResult, elapsed time.Duration) {
	if a.metrics == nil {
		return
	}
	a.metrics.ObserveAnalysis(elapsed, false)
	var ew, ns int
	for _, ev := range res.Maneuvers {
		if ev.Axis == model.AxisNorthSouth {
			ns++
		} else {
			ew++
		}
	}
	a.metrics.RecordManeuvers(model.AxisEastWest.String(), ew)
	a.metrics.RecordManeuvers(model.AxisNorthSouth.String(), ns)
	a.metrics.SetHealthScore(res.SatelliteID, res.Health.Score)
}

func (a *Analyzer) recordDOPMetrics(series []ObserverDOPSeries) {
	if a.metrics == nil {
		return
	}
	var defined, undefined int
	for _, obs := range series {
		for _, s := range obs.Samples {
			if s.Defined {
				defined++
			} else {
				undefined++
			}
		}
	}
	a.metrics.RecordDOPSamples(defined, undefined)
}
