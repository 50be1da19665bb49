package core

import (
	"math"
	"sort"
	"time"

	"github.com/ElectricPlant19/GNSS-Health-Monitor/internal/config"
	"github.com/ElectricPlant19/GNSS-Health-Monitor/model"
)

// ManeuverDetector finds discrete station-keeping events in an element
// series using robust median/MAD change-point detection over locally
// detrended trailing windows. The detector
// runs independently over the drift-rate, semi-major-axis, and inclination
// series; drift and semi-major-axis detections are east-west candidates
// (merged when their index ranges overlap, it is one burn seen in two
// projections), inclination detections are north-south events. Near-
// simultaneous flags on both axes stay two distinct events.
type ManeuverDetector struct {
	cfg config.Detector
}

// NewManeuverDetector constructs a detector with the given thresholds.
func NewManeuverDetector(cfg config.Detector) *ManeuverDetector {
	return &ManeuverDetector{cfg: cfg}
}

// candidate is a confirmed run of anomalous samples in one scalar series.
type candidate struct {
	start, end int // inclusive sample indexes
	magnitude  float64
	zScore     float64
	fromSMA    bool
}

// Detect returns the confirmed maneuver events for the series, ordered by
// epoch. A series shorter than the rolling window yields no events: absence
// of history is not a fault, it is "no detection possible".
func (d *ManeuverDetector) Detect(series *model.ElementSeries) []model.ManeuverEvent {
	n := series.Len()
	if n < d.cfg.RollingWindow {
		return nil
	}

	drift := make([]float64, n)
	sma := make([]float64, n)
	inc := make([]float64, n)
	for i, rec := range series.Records {
		drift[i] = rec.DriftRate
		sma[i] = rec.SemiMajorAxisKm
		inc[i] = rec.Inclination
	}

	smaCands := d.confirm(d.flag(sma, d.cfg.SMAFloorKm))
	for i := range smaCands {
		smaCands[i].fromSMA = true
	}
	driftCands := d.confirm(d.flag(drift, d.cfg.DriftFloorDegPerDay))
	eastWest := mergeOverlapping(append(smaCands, driftCands...))

	northSouth := d.confirm(d.flag(inc, d.cfg.InclinationFloorDeg))

	events := make([]model.ManeuverEvent, 0, len(eastWest)+len(northSouth))
	for _, c := range eastWest {
		events = append(events, toEvent(series, c, model.AxisEastWest))
	}
	for _, c := range northSouth {
		events = append(events, toEvent(series, c, model.AxisNorthSouth))
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Epoch.Before(events[j].Epoch) })
	return events
}

// flagged is one anomalous sample with its deviation from the local trend.
type flagged struct {
	index    int
	residual float64
	zScore   float64
}

// flag scores every sample against a robust local-trend prediction from its
// trailing window: the window is detrended by the median of its consecutive
// differences before the median/MAD, so a burn stands at its full height even
// when it fights a smooth drift or oscillation in the element. A sample is a
// maneuver candidate when its robust z-score passes the threshold AND the raw
// deviation exceeds the absolute floor; the floor suppresses z-only false
// positives on near-constant low-noise series.
//
// When the scaled MAD collapses (trend-free window) the scale falls back to
// floor/zThreshold, so detection degenerates to the pure magnitude test: a
// deviation at the floor scores exactly the threshold, and a flat or smoothly
// trending series scores zero everywhere.
func (d *ManeuverDetector) flag(xs []float64, floor float64) []flagged {
	var out []flagged
	fallback := floor / d.cfg.ZThreshold
	for i := range xs {
		pred, scale := trailingTrendScale(xs, i, d.cfg.RollingWindow)
		residual := xs[i] - pred
		if scale < 1e-12 {
			if fallback <= 0 {
				continue
			}
			scale = fallback
		}
		z := residual / scale
		if math.Abs(z) >= d.cfg.ZThreshold && math.Abs(residual) >= floor {
			out = append(out, flagged{index: i, residual: residual, zScore: z})
		}
	}
	return out
}

// confirm applies the persistence filter: flagged samples group into runs
// (gaps of at most one sample stay in the same run), and only runs of at
// least the persistence window survive. Each run collapses into a single
// candidate spanning it, with the peak deviation as magnitude.
func (d *ManeuverDetector) confirm(flags []flagged) []candidate {
	var out []candidate
	for i := 0; i < len(flags); {
		j := i
		for j+1 < len(flags) && flags[j+1].index-flags[j].index <= 2 {
			j++
		}
		run := flags[i : j+1]
		if len(run) >= d.cfg.PersistenceWindow {
			c := candidate{start: run[0].index, end: run[len(run)-1].index}
			for _, f := range run {
				if math.Abs(f.residual) > math.Abs(c.magnitude) {
					c.magnitude = f.residual
				}
				if math.Abs(f.zScore) > math.Abs(c.zScore) {
					c.zScore = f.zScore
				}
			}
			out = append(out, c)
		}
		i = j + 1
	}
	return out
}

// mergeOverlapping collapses candidates whose index ranges overlap into one,
// so the confirmed event set never contains two events covering the same
// samples. Semi-major-axis magnitudes win over drift magnitudes in a merge:
// kilometres are the canonical east-west units.
func mergeOverlapping(cands []candidate) []candidate {
	if len(cands) < 2 {
		return cands
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].start < cands[j].start })
	out := []candidate{cands[0]}
	for _, c := range cands[1:] {
		last := &out[len(out)-1]
		if c.start > last.end {
			out = append(out, c)
			continue
		}
		if c.end > last.end {
			last.end = c.end
		}
		if math.Abs(c.zScore) > math.Abs(last.zScore) {
			last.zScore = c.zScore
		}
		if c.fromSMA && !last.fromSMA {
			last.magnitude = c.magnitude
			last.fromSMA = true
		} else if c.fromSMA == last.fromSMA && math.Abs(c.magnitude) > math.Abs(last.magnitude) {
			last.magnitude = c.magnitude
		}
	}
	return out
}

func toEvent(series *model.ElementSeries, c candidate, axis model.ManeuverAxis) model.ManeuverEvent {
	return model.ManeuverEvent{
		SatelliteID: series.SatelliteID,
		Epoch:       series.Records[c.start].Epoch,
		EpochEnd:    series.Records[c.end].Epoch,
		Axis:        axis,
		Magnitude:   c.magnitude,
		ZScore:      c.zScore,
		StartIndex:  c.start,
		EndIndex:    c.end,
	}
}

// ManeuverUniformity returns the coefficient of variation of inter-event
// gaps and the bounded uniformity index 1 - min(CV, 1). Undefined for fewer
// than two events: a degenerate sample says nothing about regularity.
func ManeuverUniformity(events []model.ManeuverEvent) (cv, index float64, defined bool) {
	if len(events) < 2 {
		return 0, 0, false
	}
	gaps := make([]float64, 0, len(events)-1)
	for i := 1; i < len(events); i++ {
		gaps = append(gaps, events[i].Epoch.Sub(events[i-1].Epoch).Hours()/24.0)
	}
	mean, std := meanStd(gaps)
	if mean <= 0 {
		return 0, 0, false
	}
	cv = std / mean
	return cv, 1 - math.Min(cv, 1), true
}

// AnalyzeManeuverPattern summarizes the cadence of the given events over an
// observation window: median inter-event interval, recency, an overdue flag
// at 1.5x the expected interval, and a confidence grade from the interval
// coefficient of variation.
func AnalyzeManeuverPattern(events []model.ManeuverEvent, obsStart, obsEnd time.Time) model.ManeuverPattern {
	if len(events) == 0 {
		return model.ManeuverPattern{Confidence: model.ConfidenceNone}
	}

	intervals := make([]float64, 0, len(events)-1)
	for i := 1; i < len(events); i++ {
		intervals = append(intervals, events[i].Epoch.Sub(events[i-1].Epoch).Hours()/24.0)
	}

	var expected float64
	var confidence model.PatternConfidence
	switch {
	case len(intervals) >= 2:
		expected = median(intervals)
		cv, ok := coefficientOfVariation(intervals)
		switch {
		case ok && cv < 0.3:
			confidence = model.ConfidenceHigh
		case ok && cv < 0.6:
			confidence = model.ConfidenceMedium
		default:
			confidence = model.ConfidenceLow
		}
	case len(intervals) == 1:
		expected = intervals[0]
		confidence = model.ConfidenceLow
	default:
		// Single event: the whole observation window is the only bound we
		// have on the cadence.
		expected = obsEnd.Sub(obsStart).Hours() / 24.0
		confidence = model.ConfidenceVeryLow
	}

	sinceLast := obsEnd.Sub(events[len(events)-1].Epoch).Hours() / 24.0
	return model.ManeuverPattern{
		Count:                len(events),
		ExpectedIntervalDays: expected,
		DaysSinceLast:        sinceLast,
		Overdue:              expected > 0 && sinceLast > expected*1.5,
		Confidence:           confidence,
	}
}
