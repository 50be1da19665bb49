package core

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ElectricPlant19/GNSS-Health-Monitor/model"
)

func validRaw(epoch time.Time) model.RawElementRecord {
	return model.RawElementRecord{
		SatelliteID:  "NAV-1",
		Epoch:        epoch,
		MeanMotion:   GeosyncMeanMotion,
		Eccentricity: 0.0004,
		Inclination:  0.12,
		RAAN:         88.5,
		ArgPerigee:   190.2,
		MeanAnomaly:  81.3,
	}
}

func TestNewElementRecordDerivations(t *testing.T) {
	rec, err := NewElementRecord(validRaw(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("NewElementRecord error: %v", err)
	}

	// Geosynchronous mean motion puts the semi-major axis near 42164 km.
	if math.Abs(rec.SemiMajorAxisKm-42164) > 5 {
		t.Errorf("semi-major axis = %g km, want ~42164", rec.SemiMajorAxisKm)
	}
	if rec.DriftRate != 0 {
		t.Errorf("drift rate = %g, want exactly 0 at geosynchronous mean motion", rec.DriftRate)
	}
	if rec.SubsatLonDeg < -180 || rec.SubsatLonDeg >= 180 {
		t.Errorf("subsatellite longitude %g outside [-180, 180)", rec.SubsatLonDeg)
	}
}

func TestNewElementRecordDriftSign(t *testing.T) {
	raw := validRaw(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	raw.MeanMotion = GeosyncMeanMotion + 0.001
	rec, err := NewElementRecord(raw)
	if err != nil {
		t.Fatalf("NewElementRecord error: %v", err)
	}
	if rec.DriftRate <= 0 {
		t.Errorf("mean motion above geosynchronous should drift eastward, got %g", rec.DriftRate)
	}
	if math.Abs(rec.DriftRate-0.36) > 1e-9 {
		t.Errorf("drift rate = %g, want 0.36 deg/day", rec.DriftRate)
	}
}

func TestNewElementRecordRejections(t *testing.T) {
	epoch := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name   string
		mutate func(*model.RawElementRecord)
	}{
		{"zero epoch", func(r *model.RawElementRecord) { r.Epoch = time.Time{} }},
		{"negative mean motion", func(r *model.RawElementRecord) { r.MeanMotion = -1 }},
		{"zero mean motion", func(r *model.RawElementRecord) { r.MeanMotion = 0 }},
		{"hyperbolic eccentricity", func(r *model.RawElementRecord) { r.Eccentricity = 1.2 }},
		{"negative eccentricity", func(r *model.RawElementRecord) { r.Eccentricity = -0.1 }},
		{"inclination out of range", func(r *model.RawElementRecord) { r.Inclination = 200 }},
		{"NaN field", func(r *model.RawElementRecord) { r.RAAN = math.NaN() }},
		{"infinite field", func(r *model.RawElementRecord) { r.MeanAnomaly = math.Inf(1) }},
	}
	for _, tc := range cases {
		raw := validRaw(epoch)
		tc.mutate(&raw)
		_, err := NewElementRecord(raw)
		if err == nil {
			t.Errorf("%s: expected rejection", tc.name)
			continue
		}
		var invalid *InvalidElementError
		if !errors.As(err, &invalid) {
			t.Errorf("%s: error %v is not *InvalidElementError", tc.name, err)
		}
	}
}

func TestBuildOrdersAndDeduplicates(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	raws := []model.RawElementRecord{
		validRaw(base.Add(48 * time.Hour)),
		validRaw(base),
		validRaw(base.Add(24 * time.Hour)),
	}
	// Duplicate epoch with a distinguishable field: last one wins.
	dup := validRaw(base.Add(24 * time.Hour))
	dup.Eccentricity = 0.0009
	raws = append(raws, dup)

	series, rejected, err := NewSeriesBuilder(2).Build("NAV-1", raws)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if len(rejected) != 0 {
		t.Fatalf("rejected %d records, want 0", len(rejected))
	}
	if series.Len() != 3 {
		t.Fatalf("series length %d, want 3 after deduplication", series.Len())
	}
	for i := 1; i < series.Len(); i++ {
		if !series.Records[i-1].Epoch.Before(series.Records[i].Epoch) {
			t.Fatalf("epochs not strictly increasing at index %d", i)
		}
	}
	if series.Records[1].Eccentricity != 0.0009 {
		t.Errorf("duplicate epoch: eccentricity = %g, want the last record to win", series.Records[1].Eccentricity)
	}
}

func TestBuildRejectsInvalidRecordsIndividually(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	bad := validRaw(base.Add(24 * time.Hour))
	bad.Eccentricity = 2

	series, rejected, err := NewSeriesBuilder(2).Build("NAV-1", []model.RawElementRecord{
		validRaw(base),
		bad,
		validRaw(base.Add(48 * time.Hour)),
	})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if len(rejected) != 1 {
		t.Fatalf("rejected %d records, want 1", len(rejected))
	}
	if series.Len() != 2 {
		t.Fatalf("series length %d, want 2", series.Len())
	}
}

func TestBuildInsufficientData(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	_, _, err := NewSeriesBuilder(2).Build("NAV-1", []model.RawElementRecord{validRaw(base)})
	if err == nil {
		t.Fatalf("expected InsufficientDataError for a single record")
	}
	var insufficient *InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("error %v is not *InsufficientDataError", err)
	}
	if insufficient.Have != 1 || insufficient.Need != 2 {
		t.Errorf("got have=%d need=%d, want 1 and 2", insufficient.Have, insufficient.Need)
	}
}

func TestSeriesAt(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	series, _, err := NewSeriesBuilder(2).Build("NAV-1", []model.RawElementRecord{
		validRaw(base),
		validRaw(base.Add(24 * time.Hour)),
		validRaw(base.Add(48 * time.Hour)),
	})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	rec, ok := series.At(base.Add(30 * time.Hour))
	if !ok || !rec.Epoch.Equal(base.Add(24*time.Hour)) {
		t.Errorf("At(base+30h) = %v, want the base+24h record", rec.Epoch)
	}
	rec, ok = series.At(base.Add(-time.Hour))
	if !ok || !rec.Epoch.Equal(base) {
		t.Errorf("At before series = %v, want the first record", rec.Epoch)
	}
}
