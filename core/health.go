package core

import (
	"math"

	"github.com/ElectricPlant19/GNSS-Health-Monitor/internal/config"
	"github.com/ElectricPlant19/GNSS-Health-Monitor/model"
)

// daysPerMonth normalizes observation spans into calendar months for the
// maintenance-frequency band.
const daysPerMonth = 30.44

// HealthScorer combines the analyzers' outputs into the composite score.
// Pure: identical inputs always produce identical assessments. Stateless and
// safe for concurrent use across satellites.
type HealthScorer struct {
	cfg   config.Health
	drift config.Drift
}

// NewHealthScorer constructs a scorer with fixed weights and tolerances.
func NewHealthScorer(h config.Health, d config.Drift) *HealthScorer {
	return &HealthScorer{cfg: h, drift: d}
}

// Score produces the health assessment for one satellite from its element
// series, drift summary, and confirmed maneuver history. req carries the
// configured service requirement; hasReq is false for satellites the
// configuration does not know, which fall back to class-level defaults.
func (s *HealthScorer) Score(
	series *model.ElementSeries,
	class model.OrbitClass,
	req config.Requirement,
	hasReq bool,
	drift model.DriftSummary,
	events []model.ManeuverEvent,
) model.HealthAssessment {
	from, to := series.Span()
	spanDays := series.SpanDays()

	incs := make([]float64, series.Len())
	for i, rec := range series.Records {
		incs[i] = rec.Inclination
	}
	meanInc, stdInc := meanStd(incs)
	currentInc := incs[len(incs)-1]

	inclination, incDev := s.inclinationScore(currentInc, meanInc, stdInc, class, req, hasReq)
	maintenance, perMonth := s.maintenanceScore(len(events), spanDays)
	uniformity, cv, index := s.uniformityScore(events)
	driftScore := s.driftScore(drift, class)

	score := s.composite(inclination, maintenance, uniformity, driftScore)

	var ew, ns []model.ManeuverEvent
	for _, ev := range events {
		if ev.Axis == model.AxisNorthSouth {
			ns = append(ns, ev)
		} else {
			ew = append(ew, ev)
		}
	}

	return model.HealthAssessment{
		SatelliteID: series.SatelliteID,
		Class:       class,
		Score:       score,
		Status:      ClassifyHealth(score),

		Inclination: inclination,
		Maintenance: maintenance,
		Uniformity:  uniformity,
		Drift:       driftScore,

		MeanInclinationDeg: meanInc,
		InclinationDevDeg:  incDev,
		ManeuversPerMonth:  perMonth,
		UniformityCV:       cv,
		UniformityIndex:    index,

		EastWestPattern:   AnalyzeManeuverPattern(ew, from, to),
		NorthSouthPattern: AnalyzeManeuverPattern(ns, from, to),

		Violations: s.checkRequirements(series.Records[series.Len()-1], req, hasReq, uniformity, index),

		ObservedFrom: from,
		ObservedTo:   to,
	}
}

// checkRequirements compares the latest record against the configured
// service requirement. A tolerance or ceiling left at zero is treated as not
// configured and skipped, so partial requirements check only what they state.
func (s *HealthScorer) checkRequirements(
	latest model.OrbitalElementRecord,
	req config.Requirement,
	hasReq bool,
	uniformity model.SubScore,
	uniformityIndex float64,
) []model.RequirementViolation {
	var out []model.RequirementViolation

	if hasReq {
		if req.LongitudeTolDeg > 0 {
			if dev := math.Abs(wrap180(latest.SubsatLonDeg - req.TargetLongitudeDeg)); dev > req.LongitudeTolDeg {
				out = append(out, model.RequirementViolation{
					Kind:      model.ViolationLongitude,
					Observed:  latest.SubsatLonDeg,
					Limit:     req.LongitudeTolDeg,
					Deviation: dev - req.LongitudeTolDeg,
				})
			}
		}
		if req.SMATolKm > 0 {
			if dev := math.Abs(latest.SemiMajorAxisKm - req.SMATargetKm); dev > req.SMATolKm {
				out = append(out, model.RequirementViolation{
					Kind:      model.ViolationSemiMajorAxis,
					Observed:  latest.SemiMajorAxisKm,
					Limit:     req.SMATolKm,
					Deviation: dev - req.SMATolKm,
				})
			}
		}
		if req.EccentricityMax > 0 && latest.Eccentricity > req.EccentricityMax {
			out = append(out, model.RequirementViolation{
				Kind:      model.ViolationEccentricity,
				Observed:  latest.Eccentricity,
				Limit:     req.EccentricityMax,
				Deviation: latest.Eccentricity - req.EccentricityMax,
			})
		}
	}

	if uniformity.Defined && s.cfg.UniformityThreshold > 0 && uniformityIndex < s.cfg.UniformityThreshold {
		out = append(out, model.RequirementViolation{
			Kind:      model.ViolationUniformity,
			Observed:  uniformityIndex,
			Limit:     s.cfg.UniformityThreshold,
			Deviation: s.cfg.UniformityThreshold - uniformityIndex,
		})
	}

	return out
}

// ClassifyHealth maps a composite score onto the four-tier status. Band
// edges are closed on the lower bound: a score of exactly 80 is HEALTHY.
func ClassifyHealth(score float64) model.HealthStatus {
	switch {
	case score >= 80:
		return model.StatusHealthy
	case score >= 60:
		return model.StatusMarginal
	case score >= 40:
		return model.StatusDegraded
	default:
		return model.StatusCritical
	}
}

// inclinationScore grades distance from the target inclination against the
// tolerance, then subtracts a stability penalty of min(20, 10*sigma) so a
// satellite oscillating around its target still loses points.
func (s *HealthScorer) inclinationScore(
	current, mean, std float64,
	class model.OrbitClass,
	req config.Requirement,
	hasReq bool,
) (model.SubScore, float64) {
	target := mean
	tol := s.cfg.InclinationToleranceDeg
	switch {
	case hasReq && req.HasInclinationTarget:
		target = req.TargetInclinationDeg
		if req.InclinationTolDeg > 0 {
			tol = req.InclinationTolDeg
		}
	case class == model.OrbitGEO:
		// Geostationary boxes are kept near the equator.
		target = 0
	}

	dev := math.Abs(current - target)
	value := 100 - (dev/tol)*100
	value -= math.Min(20, 10*std)
	return model.SubScore{Value: clampScore(value), Defined: true}, dev
}

// maintenanceScore grades maneuver frequency against the expected monthly
// band. Inside the band scores full marks; under-maintenance scales down
// proportionally (a dead satellite maneuvers zero times); over-maintenance
// penalizes excess relative to the ceiling. Undefined when the observation
// span is too short to normalize into a monthly rate.
func (s *HealthScorer) maintenanceScore(count int, spanDays float64) (model.SubScore, float64) {
	if spanDays < 1 {
		return model.SubScore{Value: 50, Defined: false}, 0
	}
	rate := float64(count) / (spanDays / daysPerMonth)

	min, max := s.cfg.MinManeuversPerMonth, s.cfg.MaxManeuversPerMonth
	var value float64
	switch {
	case rate >= min && rate <= max:
		value = 100
	case rate < min:
		if min <= 0 {
			value = 100
		} else {
			value = 100 * rate / min
		}
	default:
		if max <= 0 {
			value = 0
		} else {
			value = 100 - ((rate-max)/max)*100
		}
	}
	return model.SubScore{Value: clampScore(value), Defined: true}, rate
}

// uniformityScore scales the bounded uniformity index to [0,100]. With fewer
// than two events the metric says nothing, so it reports a neutral 50 marked
// undefined and its weight is redistributed.
func (s *HealthScorer) uniformityScore(events []model.ManeuverEvent) (model.SubScore, float64, float64) {
	cv, index, defined := ManeuverUniformity(events)
	if !defined {
		return model.SubScore{Value: 50, Defined: false}, 0, 0
	}
	return model.SubScore{Value: clampScore(index * 100), Defined: true}, cv, index
}

// driftScore grades mean drift magnitude on a piecewise scale anchored to
// the tolerance band edges (tolerance -> 80, twice tolerance -> 60), with a
// stability penalty for noisy drift and a trend adjustment. Orbit classes
// exempt from drift control score full marks.
func (s *HealthScorer) driftScore(drift model.DriftSummary, class model.OrbitClass) model.SubScore {
	if !class.DriftControlled() {
		return model.SubScore{Value: 100, Defined: true}
	}

	tol := s.drift.GEOToleranceDegPerDay
	mag := math.Abs(drift.MeanRate)
	var value float64
	switch {
	case mag <= tol:
		value = 100 - (mag/tol)*20
	case mag <= 2*tol:
		value = 80 - ((mag-tol)/tol)*20
	default:
		value = 60 - ((mag-2*tol)/tol)*30
	}

	if ratio := drift.StdRate / tol; ratio > 2 {
		value -= math.Min(30, (ratio-2)*10)
	}

	// A slope carrying the drift rate further from zero is worsening; a
	// slope pulling it back is an active correction in progress.
	if math.Abs(drift.TrendSlope) > s.drift.TrendEpsilon && drift.MeanRate != 0 {
		if drift.TrendSlope*drift.MeanRate > 0 {
			value -= 10
		} else {
			value += 5
		}
	}

	return model.SubScore{Value: clampScore(value), Defined: true}
}

// composite computes the weighted sum over the defined sub-scores,
// redistributing the weight of undefined ones.
func (s *HealthScorer) composite(subs ...model.SubScore) float64 {
	weights := []float64{
		s.cfg.WeightInclination,
		s.cfg.WeightMaintenance,
		s.cfg.WeightUniformity,
		s.cfg.WeightDrift,
	}
	var sum, wsum float64
	for i, sub := range subs {
		if !sub.Defined {
			continue
		}
		sum += weights[i] * sub.Value
		wsum += weights[i]
	}
	if wsum == 0 {
		return 0
	}
	return clampScore(sum / wsum)
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
