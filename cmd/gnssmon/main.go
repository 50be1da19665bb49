package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/ElectricPlant19/GNSS-Health-Monitor/core"
	"github.com/ElectricPlant19/GNSS-Health-Monitor/internal/catalog"
	"github.com/ElectricPlant19/GNSS-Health-Monitor/internal/config"
	"github.com/ElectricPlant19/GNSS-Health-Monitor/internal/ingest"
	"github.com/ElectricPlant19/GNSS-Health-Monitor/internal/logging"
	"github.com/ElectricPlant19/GNSS-Health-Monitor/internal/observability"
	"github.com/ElectricPlant19/GNSS-Health-Monitor/model"
)

func main() {
	configPath := flag.String("config", "", "Path to the YAML run configuration (defaults apply when empty)")
	recordsPath := flag.String("records", "", "Path to a GP/OMM JSON element-set file, or - for stdin (required)")
	metricsAddr := flag.String("metrics-addr", "", "HTTP address for Prometheus /metrics (disabled when empty)")
	workers := flag.Int("workers", 0, "Parallel satellite analyses (overrides configuration when positive)")
	outputPath := flag.String("output", "", "Report destination file (stdout when empty)")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	if *recordsPath == "" {
		log.Error(ctx, "missing required -records flag")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error(ctx, "invalid configuration", logging.String("error", err.Error()))
		os.Exit(1)
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(ctx, shutdownTracing, log)

	var collector *observability.PipelineCollector
	var metricsSrv *http.Server
	if *metricsAddr != "" {
		collector, err = observability.NewPipelineCollector(nil)
		if err != nil {
			log.Error(ctx, "failed to initialise metrics collector", logging.String("error", err.Error()))
			os.Exit(1)
		}
		metricsSrv = serveMetrics(*metricsAddr, collector, log)
	}

	records, rejected, err := loadRecords(*recordsPath)
	if err != nil {
		log.Error(ctx, "failed to load element records", logging.String("path", *recordsPath), logging.String("error", err.Error()))
		os.Exit(1)
	}
	for _, rej := range rejected {
		log.Warn(ctx, "skipping malformed element row", logging.String("error", rej.Error()))
	}
	log.Info(ctx, "loaded element records",
		logging.String("path", *recordsPath),
		logging.Int("satellites", len(records)),
		logging.Int("rejected_rows", len(rejected)),
	)

	analyzer := core.NewAnalyzer(cfg, log, collector)
	batch := analyzer.Analyze(ctx, records)

	store := catalog.New()
	analyzed := 0
	for _, res := range batch.Satellites {
		if res.Err != nil || res.Series == nil {
			continue
		}
		if err := store.PutSeries(res.Series); err != nil {
			log.Warn(ctx, "failed to store series", logging.String("satellite_id", res.SatelliteID), logging.String("error", err.Error()))
			continue
		}
		if err := store.PutAssessment(res.Health); err != nil {
			log.Warn(ctx, "failed to store assessment", logging.String("satellite_id", res.SatelliteID), logging.String("error", err.Error()))
			continue
		}
		analyzed++
	}

	if err := writeReport(*outputPath, buildReport(cfg, batch)); err != nil {
		log.Error(ctx, "failed to write report", logging.String("error", err.Error()))
		os.Exit(1)
	}

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}

	if analyzed == 0 {
		log.Error(ctx, "no satellite could be analyzed")
		os.Exit(1)
	}
	log.Info(ctx, "run complete",
		logging.Int("analyzed", analyzed),
		logging.Int("failed", len(batch.Satellites)-analyzed),
	)
}

func loadRecords(path string) (map[string][]model.RawElementRecord, []error, error) {
	if path == "-" {
		return ingest.Decode(os.Stdin)
	}
	return ingest.LoadFile(path)
}

func serveMetrics(addr string, collector *observability.PipelineCollector, log logging.Logger) *http.Server {
	if collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.String("error", err.Error()))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}

// Report shapes. The JSON report is the presentation contract; analyzers stay
// tag-free.

type report struct {
	Constellation string             `json:"constellation"`
	RunID         string             `json:"run_id"`
	ReferenceAt   time.Time          `json:"reference_at"`
	Started       time.Time          `json:"started"`
	Finished      time.Time          `json:"finished"`
	Satellites    []satelliteReport  `json:"satellites"`
	DOP           []observerReport   `json:"dop,omitempty"`
	GroundTracks  []groundTrackEntry `json:"ground_tracks,omitempty"`
}

type satelliteReport struct {
	SatelliteID string   `json:"satellite_id"`
	Error       string   `json:"error,omitempty"`
	Records     int      `json:"records,omitempty"`
	Rejected    []string `json:"rejected_records,omitempty"`

	Class  string  `json:"orbit_class,omitempty"`
	Score  float64 `json:"score"`
	Status string  `json:"status,omitempty"`

	SubScores map[string]subScoreEntry `json:"sub_scores,omitempty"`

	Drift     *driftReport    `json:"drift,omitempty"`
	Maneuvers []maneuverEntry `json:"maneuvers,omitempty"`

	EastWestPattern   *patternEntry `json:"east_west_pattern,omitempty"`
	NorthSouthPattern *patternEntry `json:"north_south_pattern,omitempty"`

	Violations []violationEntry `json:"violations,omitempty"`
}

type violationEntry struct {
	Kind      string  `json:"kind"`
	Observed  float64 `json:"observed"`
	Limit     float64 `json:"limit"`
	Deviation float64 `json:"deviation"`
}

type subScoreEntry struct {
	Value   float64 `json:"value"`
	Defined bool    `json:"defined"`
}

type driftReport struct {
	MeanRateDegPerDay    float64 `json:"mean_rate_deg_per_day"`
	StdRateDegPerDay     float64 `json:"std_rate_deg_per_day"`
	CurrentRateDegPerDay float64 `json:"current_rate_deg_per_day"`
	TrendSlope           float64 `json:"trend_slope"`
	Band                 string  `json:"band"`
	CurrentDirection     string  `json:"current_direction"`
}

type maneuverEntry struct {
	Epoch     time.Time `json:"epoch"`
	EpochEnd  time.Time `json:"epoch_end"`
	Axis      string    `json:"axis"`
	Magnitude float64   `json:"magnitude"`
	ZScore    float64   `json:"z_score"`
}

type patternEntry struct {
	Count                int     `json:"count"`
	ExpectedIntervalDays float64 `json:"expected_interval_days"`
	DaysSinceLast        float64 `json:"days_since_last"`
	Overdue              bool    `json:"overdue"`
	Confidence           string  `json:"confidence"`
}

type observerReport struct {
	Observer string           `json:"observer"`
	LatDeg   float64          `json:"lat_deg"`
	LonDeg   float64          `json:"lon_deg"`
	Samples  []dopSampleEntry `json:"samples"`
}

type dopSampleEntry struct {
	Epoch   time.Time `json:"epoch"`
	Visible int       `json:"visible"`
	Defined bool      `json:"defined"`
	GDOP    float64   `json:"gdop,omitempty"`
	PDOP    float64   `json:"pdop,omitempty"`
	HDOP    float64   `json:"hdop,omitempty"`
	VDOP    float64   `json:"vdop,omitempty"`
	TDOP    float64   `json:"tdop,omitempty"`
	Quality string    `json:"quality,omitempty"`
}

type groundTrackEntry struct {
	SatelliteID string  `json:"satellite_id"`
	MinLatDeg   float64 `json:"min_lat_deg"`
	MaxLatDeg   float64 `json:"max_lat_deg"`
	MinLonDeg   float64 `json:"min_lon_deg"`
	MaxLonDeg   float64 `json:"max_lon_deg"`
	MeanLatDeg  float64 `json:"mean_lat_deg"`
	MeanLonDeg  float64 `json:"mean_lon_deg"`
	Samples     int     `json:"samples"`
}

func buildReport(cfg config.Config, batch core.BatchResult) report {
	rep := report{
		Constellation: cfg.Constellation,
		RunID:         batch.RunID,
		ReferenceAt:   batch.ReferenceAt,
		Started:       batch.Started,
		Finished:      batch.Finished,
	}

	for _, res := range batch.Satellites {
		sat := satelliteReport{SatelliteID: res.SatelliteID}
		for _, rej := range res.Rejected {
			sat.Rejected = append(sat.Rejected, rej.Error())
		}
		if res.Err != nil {
			sat.Error = res.Err.Error()
			rep.Satellites = append(rep.Satellites, sat)
			continue
		}

		sat.Records = res.Series.Len()
		sat.Class = res.Health.Class.String()
		sat.Score = res.Health.Score
		sat.Status = res.Health.Status.String()
		sat.SubScores = map[string]subScoreEntry{
			"inclination": {Value: res.Health.Inclination.Value, Defined: res.Health.Inclination.Defined},
			"maintenance": {Value: res.Health.Maintenance.Value, Defined: res.Health.Maintenance.Defined},
			"uniformity":  {Value: res.Health.Uniformity.Value, Defined: res.Health.Uniformity.Defined},
			"drift":       {Value: res.Health.Drift.Value, Defined: res.Health.Drift.Defined},
		}

		direction := model.DriftStable
		if n := len(res.Drift.Samples); n > 0 {
			direction = res.Drift.Samples[n-1].Direction
		}
		sat.Drift = &driftReport{
			MeanRateDegPerDay:    res.Drift.MeanRate,
			StdRateDegPerDay:     res.Drift.StdRate,
			CurrentRateDegPerDay: res.Drift.CurrentRate,
			TrendSlope:           res.Drift.TrendSlope,
			Band:                 res.Drift.Band.String(),
			CurrentDirection:     direction.String(),
		}

		for _, ev := range res.Maneuvers {
			sat.Maneuvers = append(sat.Maneuvers, maneuverEntry{
				Epoch:     ev.Epoch,
				EpochEnd:  ev.EpochEnd,
				Axis:      ev.Axis.String(),
				Magnitude: ev.Magnitude,
				ZScore:    ev.ZScore,
			})
		}

		sat.EastWestPattern = toPatternEntry(res.Health.EastWestPattern)
		sat.NorthSouthPattern = toPatternEntry(res.Health.NorthSouthPattern)
		for _, v := range res.Health.Violations {
			sat.Violations = append(sat.Violations, violationEntry{
				Kind:      v.Kind.String(),
				Observed:  v.Observed,
				Limit:     v.Limit,
				Deviation: v.Deviation,
			})
		}
		rep.Satellites = append(rep.Satellites, sat)
	}

	for _, obs := range batch.DOP {
		entry := observerReport{
			Observer: obs.Observer.Name,
			LatDeg:   obs.Observer.LatDeg,
			LonDeg:   obs.Observer.LonDeg,
		}
		for _, s := range obs.Samples {
			se := dopSampleEntry{
				Epoch:   s.Epoch,
				Visible: s.VisibleCount,
				Defined: s.Defined,
			}
			if s.Defined {
				se.GDOP = s.GDOP
				se.PDOP = s.PDOP
				se.HDOP = s.HDOP
				se.VDOP = s.VDOP
				se.TDOP = s.TDOP
				se.Quality = s.Quality.String()
			}
			entry.Samples = append(entry.Samples, se)
		}
		rep.DOP = append(rep.DOP, entry)
	}

	for _, box := range batch.GroundTracks {
		rep.GroundTracks = append(rep.GroundTracks, groundTrackEntry{
			SatelliteID: box.SatelliteID,
			MinLatDeg:   box.MinLatDeg,
			MaxLatDeg:   box.MaxLatDeg,
			MinLonDeg:   box.MinLonDeg,
			MaxLonDeg:   box.MaxLonDeg,
			MeanLatDeg:  box.MeanLatDeg,
			MeanLonDeg:  box.MeanLonDeg,
			Samples:     box.SampleCount,
		})
	}

	return rep
}

func toPatternEntry(p model.ManeuverPattern) *patternEntry {
	if p.Count == 0 {
		return nil
	}
	return &patternEntry{
		Count:                p.Count,
		ExpectedIntervalDays: p.ExpectedIntervalDays,
		DaysSinceLast:        p.DaysSinceLast,
		Overdue:              p.Overdue,
		Confidence:           p.Confidence.String(),
	}
}

func writeReport(path string, rep report) error {
	out := os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
