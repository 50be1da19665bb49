package core

import (
	"fmt"
	"math"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/ElectricPlant19/GNSS-Health-Monitor/model"
)

// Propagator turns an element snapshot into an Earth-fixed position at a
// requested time. When the record carries TLE lines an SGP4 model is used;
// otherwise a simplified Keplerian two-body model, which is sufficient for
// the coarse visibility geometry DOP needs (not precision navigation).
type Propagator struct {
	// sgp4 caches initialized SGP4 models keyed by satellite ID; models are
	// expensive to build and immutable once constructed.
	sgp4 map[string]satellite.Satellite
}

// NewPropagator constructs an empty propagator. Safe for use by a single
// analysis run; SGP4 models are cached on first use per satellite.
func NewPropagator() *Propagator {
	return &Propagator{sgp4: make(map[string]satellite.Satellite)}
}

// ECEF returns the satellite's Earth-fixed position in kilometres at time t,
// propagated from the given element record.
func (p *Propagator) ECEF(rec model.OrbitalElementRecord, t time.Time) (Vec3, error) {
	var eci satellite.Vector3
	if rec.TLELine1 != "" && rec.TLELine2 != "" {
		pos, err := p.sgp4ECI(rec, t)
		if err != nil {
			return Vec3{}, err
		}
		eci = pos
	} else {
		eci = keplerianECI(rec, t)
	}

	jd := julianDay(t)
	gmst := satellite.ThetaG_JD(jd)
	ecef := satellite.ECIToECEF(eci, gmst)

	out := Vec3{X: ecef.X, Y: ecef.Y, Z: ecef.Z}
	if err := checkPosition(rec.SatelliteID, out); err != nil {
		return Vec3{}, err
	}
	return out, nil
}

// sgp4ECI propagates with the SGP4 model built from the record's TLE lines.
func (p *Propagator) sgp4ECI(rec model.OrbitalElementRecord, t time.Time) (satellite.Vector3, error) {
	sat, ok := p.sgp4[rec.SatelliteID]
	if !ok {
		// go-satellite terminates the process on malformed TLE input, so
		// validate the line shape before handing it over.
		if err := validateTLELines(rec.TLELine1, rec.TLELine2); err != nil {
			return satellite.Vector3{}, fmt.Errorf("satellite %s: %w", rec.SatelliteID, err)
		}
		sat = satellite.TLEToSat(rec.TLELine1, rec.TLELine2, satellite.GravityWGS72)
		p.sgp4[rec.SatelliteID] = sat
	}

	tt := t.UTC()
	pos, _ := satellite.Propagate(sat, tt.Year(), int(tt.Month()), tt.Day(), tt.Hour(), tt.Minute(), tt.Second())
	return pos, nil
}

func validateTLELines(line1, line2 string) error {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)
	if len(line1) != 69 || len(line2) != 69 {
		return fmt.Errorf("malformed TLE: line lengths %d/%d, expected 69", len(line1), len(line2))
	}
	if line1[0] != '1' || line2[0] != '2' {
		return fmt.Errorf("malformed TLE: bad line markers")
	}
	return nil
}

// keplerianECI propagates the classical elements as an unperturbed two-body
// orbit: advance the mean anomaly, solve Kepler's equation, and rotate the
// perifocal position into the inertial frame.
func keplerianECI(rec model.OrbitalElementRecord, t time.Time) satellite.Vector3 {
	const degToRad = math.Pi / 180.0

	nRadS := rec.MeanMotion * 2 * math.Pi / 86400.0
	dt := t.Sub(rec.Epoch).Seconds()
	meanAnom := rec.MeanAnomaly*degToRad + nRadS*dt

	ecc := rec.Eccentricity
	eccAnom := solveKepler(meanAnom, ecc)

	// True anomaly and orbit radius.
	sinE := math.Sin(eccAnom)
	cosE := math.Cos(eccAnom)
	trueAnom := math.Atan2(math.Sqrt(1-ecc*ecc)*sinE, cosE-ecc)
	r := rec.SemiMajorAxisKm * (1 - ecc*cosE)

	// Perifocal position.
	xp := r * math.Cos(trueAnom)
	yp := r * math.Sin(trueAnom)

	// Rotate perifocal -> ECI via argument of perigee, inclination, RAAN.
	argp := rec.ArgPerigee * degToRad
	inc := rec.Inclination * degToRad
	raan := rec.RAAN * degToRad

	cosO, sinO := math.Cos(raan), math.Sin(raan)
	cosI, sinI := math.Cos(inc), math.Sin(inc)
	cosW, sinW := math.Cos(argp), math.Sin(argp)

	return satellite.Vector3{
		X: (cosO*cosW-sinO*sinW*cosI)*xp + (-cosO*sinW-sinO*cosW*cosI)*yp,
		Y: (sinO*cosW+cosO*sinW*cosI)*xp + (-sinO*sinW+cosO*cosW*cosI)*yp,
		Z: (sinW*sinI)*xp + (cosW*sinI)*yp,
	}
}

// solveKepler solves E - e*sin(E) = M for the eccentric anomaly by Newton
// iteration. Converges rapidly for the near-circular orbits handled here.
func solveKepler(meanAnom, ecc float64) float64 {
	e := meanAnom
	for i := 0; i < 10; i++ {
		delta := (e - ecc*math.Sin(e) - meanAnom) / (1 - ecc*math.Cos(e))
		e -= delta
		if math.Abs(delta) < 1e-12 {
			break
		}
	}
	return e
}

func julianDay(t time.Time) float64 {
	tt := t.UTC()
	return satellite.JDay(tt.Year(), int(tt.Month()), tt.Day(), tt.Hour(), tt.Minute(), tt.Second())
}

// checkPosition rejects NaN/Inf output and magnitudes outside Earth orbit
// altitudes, which indicate a propagation failure rather than a usable point.
func checkPosition(satelliteID string, p Vec3) error {
	if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsNaN(p.Z) ||
		math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) || math.IsInf(p.Z, 0) {
		return fmt.Errorf("satellite %s: propagation produced non-finite position", satelliteID)
	}
	mag := p.Norm()
	if mag < 6200 || mag > 60000 {
		return fmt.Errorf("satellite %s: implausible position magnitude %.0f km", satelliteID, mag)
	}
	return nil
}
