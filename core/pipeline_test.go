package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ElectricPlant19/GNSS-Health-Monitor/internal/config"
	"github.com/ElectricPlant19/GNSS-Health-Monitor/internal/logging"
	"github.com/ElectricPlant19/GNSS-Health-Monitor/model"
)

func batchConfig() config.Config {
	cfg := config.Default()
	cfg.Workers = 2
	// No observers: DOP evaluation is exercised separately.
	cfg.DOP.Observers = nil
	return cfg
}

func rawSeries(id string, n int) []model.RawElementRecord {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.RawElementRecord, n)
	for i := range out {
		raw := validRaw(base.Add(time.Duration(i) * 24 * time.Hour))
		raw.SatelliteID = id
		out[i] = raw
	}
	return out
}

func TestAnalyzeBatchIsolation(t *testing.T) {
	analyzer := NewAnalyzer(batchConfig(), logging.Noop(), nil)

	batch := analyzer.Analyze(context.Background(), map[string][]model.RawElementRecord{
		"GOOD-1": rawSeries("GOOD-1", 10),
		"GOOD-2": rawSeries("GOOD-2", 10),
		"BAD-1":  rawSeries("BAD-1", 1), // too short to analyze
	})

	if len(batch.Satellites) != 3 {
		t.Fatalf("got %d results, want one per satellite", len(batch.Satellites))
	}

	byID := make(map[string]SatelliteResult)
	for _, res := range batch.Satellites {
		byID[res.SatelliteID] = res
	}

	var insufficient *InsufficientDataError
	if !errors.As(byID["BAD-1"].Err, &insufficient) {
		t.Errorf("BAD-1 error = %v, want *InsufficientDataError", byID["BAD-1"].Err)
	}
	for _, id := range []string{"GOOD-1", "GOOD-2"} {
		res := byID[id]
		if res.Err != nil {
			t.Errorf("%s: unexpected error %v (one bad satellite must not fail the batch)", id, res.Err)
		}
		if res.Series == nil || res.Series.Len() != 10 {
			t.Errorf("%s: missing or truncated series", id)
		}
		if res.Health.SatelliteID != id {
			t.Errorf("%s: assessment carries ID %q", id, res.Health.SatelliteID)
		}
	}
}

func TestAnalyzeBatchResultsStaySorted(t *testing.T) {
	analyzer := NewAnalyzer(batchConfig(), logging.Noop(), nil)
	batch := analyzer.Analyze(context.Background(), map[string][]model.RawElementRecord{
		"C": rawSeries("C", 5),
		"A": rawSeries("A", 5),
		"B": rawSeries("B", 5),
	})

	want := []string{"A", "B", "C"}
	for i, res := range batch.Satellites {
		if res.SatelliteID != want[i] {
			t.Fatalf("result %d is %q, want %q (deterministic ordering)", i, res.SatelliteID, want[i])
		}
	}
}

func TestAnalyzeBatchReferenceEpoch(t *testing.T) {
	cfg := batchConfig()
	analyzer := NewAnalyzer(cfg, logging.Noop(), nil)

	records := map[string][]model.RawElementRecord{
		"A": rawSeries("A", 5),
		"B": rawSeries("B", 9), // extends 4 days further
	}
	batch := analyzer.Analyze(context.Background(), records)

	wantRef := records["B"][8].Epoch
	if !batch.ReferenceAt.Equal(wantRef) {
		t.Errorf("reference epoch = %v, want the freshest series end %v", batch.ReferenceAt, wantRef)
	}
}

func TestClassifyFallsBackToMeanInclination(t *testing.T) {
	cfg := batchConfig()
	cfg.Satellites = map[string]config.Requirement{
		"CONFIGURED": {Class: "MEO"},
	}
	analyzer := NewAnalyzer(cfg, logging.Noop(), nil)

	lowInc := syntheticSeries(repeat(42164, 4), repeat(0, 4), repeat(0.3, 4))
	if got := analyzer.classify("UNKNOWN", lowInc); got != model.OrbitGEO {
		t.Errorf("mean inclination 0.3: class = %v, want GEO", got)
	}

	highInc := syntheticSeries(repeat(42164, 4), repeat(0, 4), repeat(29, 4))
	if got := analyzer.classify("UNKNOWN", highInc); got != model.OrbitIGSO {
		t.Errorf("mean inclination 29: class = %v, want IGSO", got)
	}

	if got := analyzer.classify("CONFIGURED", lowInc); got != model.OrbitMEO {
		t.Errorf("configured class must win, got %v", got)
	}
}

func TestAnalyzeBatchRunsDOPWhenObserversConfigured(t *testing.T) {
	cfg := batchConfig()
	cfg.DOP.Observers = []config.ObserverSpec{{Name: "site", LatDeg: 12.9, LonDeg: 77.6}}
	cfg.DOP.HorizonDays = 0.1 // keep the sampled window small
	analyzer := NewAnalyzer(cfg, logging.Noop(), nil)

	batch := analyzer.Analyze(context.Background(), map[string][]model.RawElementRecord{
		"A": rawSeries("A", 5),
	})

	if len(batch.DOP) != 1 {
		t.Fatalf("got %d observer series, want 1", len(batch.DOP))
	}
	if len(batch.DOP[0].Samples) == 0 {
		t.Fatalf("observer series has no samples")
	}
	if len(batch.GroundTracks) != 1 {
		t.Fatalf("got %d ground tracks, want 1", len(batch.GroundTracks))
	}
}
