package core

import (
	"math"
	"sort"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/ElectricPlant19/GNSS-Health-Monitor/model"
)

// Physical constants used across the analytics.
const (
	// MuEarth is Earth's standard gravitational parameter in km^3/s^2.
	MuEarth = 398600.4418

	// EarthRadiusKm is the mean Earth radius used for simple geometry.
	EarthRadiusKm = 6371.0

	// GeosyncMeanMotion is the sidereal Earth rotation rate in rev/day. A
	// satellite at exactly this mean motion has zero longitudinal drift.
	GeosyncMeanMotion = 1.00273790935
)

// DefaultMinSeriesLen is the minimum record count a series needs before any
// rate can be computed from it.
const DefaultMinSeriesLen = 2

// SeriesBuilder normalizes raw element records into validated, ordered
// element series. It is stateless and safe for concurrent use.
type SeriesBuilder struct {
	minLen int
}

// NewSeriesBuilder constructs a builder requiring at least minLen records per
// series; values below DefaultMinSeriesLen fall back to the default.
func NewSeriesBuilder(minLen int) *SeriesBuilder {
	if minLen < DefaultMinSeriesLen {
		minLen = DefaultMinSeriesLen
	}
	return &SeriesBuilder{minLen: minLen}
}

// NewElementRecord validates one raw record and derives semi-major axis,
// subsatellite longitude, and the drift-rate baseline. Returns
// *InvalidElementError when a field is out of physically plausible range.
func NewElementRecord(raw model.RawElementRecord) (model.OrbitalElementRecord, error) {
	reject := func(field string, value float64, reason string) (model.OrbitalElementRecord, error) {
		return model.OrbitalElementRecord{}, &InvalidElementError{
			SatelliteID: raw.SatelliteID,
			Field:       field,
			Value:       value,
			Reason:      reason,
		}
	}

	for _, f := range []struct {
		name  string
		value float64
	}{
		{"mean_motion", raw.MeanMotion},
		{"eccentricity", raw.Eccentricity},
		{"inclination", raw.Inclination},
		{"raan", raw.RAAN},
		{"arg_perigee", raw.ArgPerigee},
		{"mean_anomaly", raw.MeanAnomaly},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return reject(f.name, f.value, "not finite")
		}
	}
	if raw.Epoch.IsZero() {
		return reject("epoch", 0, "missing epoch")
	}
	if raw.MeanMotion <= 0 || raw.MeanMotion > 20 {
		return reject("mean_motion", raw.MeanMotion, "outside (0, 20] rev/day")
	}
	if raw.Eccentricity < 0 || raw.Eccentricity >= 1 {
		return reject("eccentricity", raw.Eccentricity, "outside [0, 1)")
	}
	if raw.Inclination < 0 || raw.Inclination > 180 {
		return reject("inclination", raw.Inclination, "outside [0, 180] deg")
	}

	// Kepler's third law: a = (mu / n^2)^(1/3), n in rad/s.
	nRadS := raw.MeanMotion * 2 * math.Pi / 86400.0
	sma := math.Cbrt(MuEarth / (nRadS * nRadS))

	rec := model.OrbitalElementRecord{
		SatelliteID:     raw.SatelliteID,
		CatalogNumber:   raw.CatalogNumber,
		Epoch:           raw.Epoch.UTC(),
		MeanMotion:      raw.MeanMotion,
		Eccentricity:    raw.Eccentricity,
		Inclination:     raw.Inclination,
		RAAN:            wrap360(raw.RAAN),
		ArgPerigee:      wrap360(raw.ArgPerigee),
		MeanAnomaly:     wrap360(raw.MeanAnomaly),
		SemiMajorAxisKm: sma,
		DriftRate:       (raw.MeanMotion - GeosyncMeanMotion) * 360.0,
		TLELine1:        raw.TLELine1,
		TLELine2:        raw.TLELine2,
	}
	rec.SubsatLonDeg = subsatelliteLongitude(rec)
	return rec, nil
}

// Build validates, orders, and deduplicates raw records into an ElementSeries.
// Individually invalid records are dropped and returned in rejected; the
// whole series fails with *InsufficientDataError when fewer than the minimum
// count survive. Duplicate epochs keep the last record seen in input order.
func (b *SeriesBuilder) Build(satelliteID string, raws []model.RawElementRecord) (*model.ElementSeries, []error, error) {
	var rejected []error

	byEpoch := make(map[time.Time]model.OrbitalElementRecord, len(raws))
	for _, raw := range raws {
		raw.SatelliteID = satelliteID
		rec, err := NewElementRecord(raw)
		if err != nil {
			rejected = append(rejected, err)
			continue
		}
		byEpoch[rec.Epoch] = rec
	}

	if len(byEpoch) < b.minLen {
		return nil, rejected, &InsufficientDataError{
			SatelliteID: satelliteID,
			Have:        len(byEpoch),
			Need:        b.minLen,
		}
	}

	records := make([]model.OrbitalElementRecord, 0, len(byEpoch))
	for _, rec := range byEpoch {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Epoch.Before(records[j].Epoch) })

	return &model.ElementSeries{SatelliteID: satelliteID, Records: records}, rejected, nil
}

// subsatelliteLongitude approximates the geographic longitude under the
// satellite for near-circular, near-equatorial orbits: the sum of RAAN,
// argument of perigee, and mean anomaly gives the inertial longitude of the
// satellite, and subtracting GMST rotates it into the Earth-fixed frame.
func subsatelliteLongitude(rec model.OrbitalElementRecord) float64 {
	t := rec.Epoch
	jd := satellite.JDay(t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
	gmstDeg := satellite.ThetaG_JD(jd) * 180.0 / math.Pi
	return wrap180(rec.RAAN + rec.ArgPerigee + rec.MeanAnomaly - gmstDeg)
}

// wrap360 normalizes an angle into [0, 360).
func wrap360(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// wrap180 normalizes an angle into [-180, 180).
func wrap180(deg float64) float64 {
	deg = wrap360(deg)
	if deg >= 180 {
		deg -= 360
	}
	return deg
}
