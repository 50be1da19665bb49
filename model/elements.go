package model

import "time"

// RawElementRecord is one epoch's orbital-element snapshot exactly as handed
// over by the ingestion collaborator. Fields are unvalidated; the series
// builder is the boundary that accepts or rejects them.
type RawElementRecord struct {
	SatelliteID   string
	CatalogNumber uint32 // NORAD catalog number, 0 when unknown
	Epoch         time.Time
	MeanMotion    float64 // rev/day
	Eccentricity  float64
	Inclination   float64 // deg
	RAAN          float64 // deg, right ascension of ascending node
	ArgPerigee    float64 // deg
	MeanAnomaly   float64 // deg

	// Optional TLE lines. When present the DOP engine propagates with SGP4;
	// otherwise it falls back to the simplified Keplerian model.
	TLELine1 string
	TLELine2 string
}

// OrbitalElementRecord is a validated, immutable element snapshot with the
// derived quantities the analyzers need. Construct only via
// core.NewElementRecord; invalid source rows never become records.
type OrbitalElementRecord struct {
	SatelliteID   string
	CatalogNumber uint32
	Epoch         time.Time

	MeanMotion   float64 // rev/day
	Eccentricity float64
	Inclination  float64 // deg
	RAAN         float64 // deg
	ArgPerigee   float64 // deg
	MeanAnomaly  float64 // deg

	SemiMajorAxisKm float64 // derived via Kepler's third law
	SubsatLonDeg    float64 // derived, valid for near-circular near-equatorial orbits
	DriftRate       float64 // deg/day, positive = eastward

	TLELine1 string
	TLELine2 string
}

// ElementSeries is the ordered-by-epoch element history for one satellite.
// Epochs are strictly increasing (duplicates are last-wins deduplicated at
// construction). The series is read-only after construction and owned by the
// analysis run that builds on it.
type ElementSeries struct {
	SatelliteID string
	Records     []OrbitalElementRecord
}

// Len returns the number of records in the series.
func (s *ElementSeries) Len() int { return len(s.Records) }

// Span returns the first and last epoch of the series.
func (s *ElementSeries) Span() (time.Time, time.Time) {
	if len(s.Records) == 0 {
		return time.Time{}, time.Time{}
	}
	return s.Records[0].Epoch, s.Records[len(s.Records)-1].Epoch
}

// SpanDays returns the observation window length in days.
func (s *ElementSeries) SpanDays() float64 {
	start, end := s.Span()
	return end.Sub(start).Hours() / 24.0
}

// At returns the latest record with epoch at or before t, or the first record
// when t precedes the series. The boolean is false for an empty series.
func (s *ElementSeries) At(t time.Time) (OrbitalElementRecord, bool) {
	if len(s.Records) == 0 {
		return OrbitalElementRecord{}, false
	}
	best := s.Records[0]
	for _, rec := range s.Records[1:] {
		if rec.Epoch.After(t) {
			break
		}
		best = rec
	}
	return best, true
}
