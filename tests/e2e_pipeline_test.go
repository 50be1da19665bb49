package tests

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/ElectricPlant19/GNSS-Health-Monitor/core"
	"github.com/ElectricPlant19/GNSS-Health-Monitor/internal/config"
	"github.com/ElectricPlant19/GNSS-Health-Monitor/internal/logging"
	"github.com/ElectricPlant19/GNSS-Health-Monitor/model"
)

// meanMotionForSMA inverts Kepler's third law: rev/day for a given
// semi-major axis in km.
func meanMotionForSMA(aKm float64) float64 {
	nRadS := math.Sqrt(core.MuEarth / (aKm * aKm * aKm))
	return nRadS * 86400.0 / (2 * math.Pi)
}

// geoScenario builds a 9-month daily element history for one GEO satellite:
// mean motion oscillating around the geosynchronous rate, with three
// sustained station-keeping burns raising the semi-major axis by 2 km each,
// evenly spaced 70 days apart.
func geoScenario() []model.RawElementRecord {
	const (
		days          = 270
		oscAmplitude  = 0.0002 // rev/day
		oscPeriodDays = 120.0
	)
	burnDays := map[int]bool{60: true, 130: true, 200: true}

	nGeoRad := core.GeosyncMeanMotion * 2 * math.Pi / 86400.0
	a0 := math.Cbrt(core.MuEarth / (nGeoRad * nGeoRad))

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	records := make([]model.RawElementRecord, 0, days)
	burns := 0
	for d := 0; d < days; d++ {
		if burnDays[d] {
			burns++
		}
		sma := a0 + 2.0*float64(burns)
		osc := oscAmplitude * math.Sin(2*math.Pi*float64(d)/oscPeriodDays)
		records = append(records, model.RawElementRecord{
			SatelliteID:  "NVS-01",
			Epoch:        base.Add(time.Duration(d) * 24 * time.Hour),
			MeanMotion:   meanMotionForSMA(sma) + osc,
			Eccentricity: 0.0004,
			Inclination:  0.12,
			RAAN:         88.5,
			ArgPerigee:   190.2,
			MeanAnomaly:  81.3,
		})
	}
	return records
}

func TestNineMonthGEOScenario(t *testing.T) {
	cfg := config.Default()
	cfg.Workers = 2
	cfg.DOP.Observers = []config.ObserverSpec{
		{Name: "bangalore", LatDeg: 12.97, LonDeg: 77.59},
	}
	cfg.DOP.HorizonDays = 0.25

	analyzer := core.NewAnalyzer(cfg, logging.Noop(), nil)
	batch := analyzer.Analyze(context.Background(), map[string][]model.RawElementRecord{
		"NVS-01": geoScenario(),
	})

	if len(batch.Satellites) != 1 {
		t.Fatalf("got %d results, want 1", len(batch.Satellites))
	}
	res := batch.Satellites[0]
	if res.Err != nil {
		t.Fatalf("analysis failed: %v", res.Err)
	}
	if res.Series.Len() != 270 {
		t.Fatalf("series length %d, want 270", res.Series.Len())
	}

	if len(res.Maneuvers) != 3 {
		t.Fatalf("detected %d maneuvers, want exactly 3: %+v", len(res.Maneuvers), res.Maneuvers)
	}
	wantDays := []int{60, 130, 200}
	base := res.Series.Records[0].Epoch
	for i, ev := range res.Maneuvers {
		if ev.Axis != model.AxisEastWest {
			t.Errorf("maneuver %d axis = %v, want EAST_WEST", i, ev.Axis)
		}
		gotDay := int(ev.Epoch.Sub(base).Hours() / 24)
		if gotDay != wantDays[i] {
			t.Errorf("maneuver %d at day %d, want day %d", i, gotDay, wantDays[i])
		}
		if math.Abs(math.Abs(ev.Magnitude)-2) > 0.5 {
			t.Errorf("maneuver %d magnitude = %g km, want roughly 2", i, ev.Magnitude)
		}
	}

	if !res.Health.Uniformity.Defined {
		t.Fatalf("three events must define the uniformity score")
	}
	if res.Health.UniformityIndex <= 0.9 {
		t.Errorf("uniformity index = %g, want above 0.9 for evenly spaced burns", res.Health.UniformityIndex)
	}

	// 3 burns over ~9 months is below the configured [1,8]/month band.
	if !res.Health.Maintenance.Defined {
		t.Fatalf("maintenance score must be defined over a 9-month span")
	}
	if res.Health.Maintenance.Value >= 100 {
		t.Errorf("maintenance score = %g, want a penalty for under-frequency", res.Health.Maintenance.Value)
	}
	if res.Health.ManeuversPerMonth >= 1 {
		t.Errorf("maneuvers per month = %g, want below 1", res.Health.ManeuversPerMonth)
	}

	if res.Health.Class != model.OrbitGEO {
		t.Errorf("class = %v, want GEO for a 0.12 degree inclination", res.Health.Class)
	}
	if res.Health.Score <= 0 || res.Health.Score > 100 {
		t.Errorf("score %g outside (0,100]", res.Health.Score)
	}
	if res.Health.Status != core.ClassifyHealth(res.Health.Score) {
		t.Errorf("status %v inconsistent with score %g", res.Health.Status, res.Health.Score)
	}

	if len(batch.DOP) != 1 {
		t.Fatalf("got %d observer DOP series, want 1", len(batch.DOP))
	}
	obs := batch.DOP[0]
	if len(obs.Samples) == 0 {
		t.Fatalf("observer has no DOP samples")
	}
	for _, s := range obs.Samples {
		if s.Defined {
			t.Errorf("sample at %v defined with a single-satellite constellation", s.Epoch)
		}
	}
	if len(batch.GroundTracks) != 1 {
		t.Fatalf("got %d ground tracks, want 1", len(batch.GroundTracks))
	}
	track := batch.GroundTracks[0]
	if track.SatelliteID != "NVS-01" || track.SampleCount == 0 {
		t.Fatalf("ground track missing samples: %+v", track)
	}
}
