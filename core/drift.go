package core

import (
	"math"

	"github.com/ElectricPlant19/GNSS-Health-Monitor/internal/config"
	"github.com/ElectricPlant19/GNSS-Health-Monitor/model"
)

// directionEpsilon is the drift-rate magnitude below which a satellite is
// considered on station rather than drifting (deg/day).
const directionEpsilon = 1e-6

// DriftAnalyzer derives longitudinal drift behaviour from an element series.
// Stateless; safe for concurrent use across satellites.
type DriftAnalyzer struct {
	cfg config.Drift
}

// NewDriftAnalyzer constructs an analyzer with the given tolerances.
func NewDriftAnalyzer(cfg config.Drift) *DriftAnalyzer {
	return &DriftAnalyzer{cfg: cfg}
}

// Analyze produces per-epoch drift samples and the run summary for one
// satellite. Returns *InsufficientDataError when the series cannot support a
// rate computation.
func (a *DriftAnalyzer) Analyze(series *model.ElementSeries, class model.OrbitClass) (model.DriftSummary, error) {
	n := series.Len()
	if n < DefaultMinSeriesLen {
		return model.DriftSummary{}, &InsufficientDataError{
			SatelliteID: series.SatelliteID,
			Have:        n,
			Need:        DefaultMinSeriesLen,
		}
	}

	start, _ := series.Span()
	rates := make([]float64, n)
	days := make([]float64, n)
	for i, rec := range series.Records {
		rates[i] = rec.DriftRate
		days[i] = rec.Epoch.Sub(start).Hours() / 24.0
	}

	samples := make([]model.DriftSample, n)
	for i, rec := range series.Records {
		samples[i] = model.DriftSample{
			Epoch:     rec.Epoch,
			RateDeg:   rates[i],
			Direction: driftDirection(rates[i]),
			Trend:     a.trendAt(days, rates, i),
		}
	}

	mean, std := meanStd(rates)
	return model.DriftSummary{
		Samples:     samples,
		MeanRate:    mean,
		StdRate:     std,
		CurrentRate: rates[n-1],
		TrendSlope:  linearSlope(days, rates),
		Band:        ClassifyDrift(mean, a.cfg.GEOToleranceDegPerDay, class),
	}, nil
}

// trendAt classifies the least-squares slope of drift rate over the trailing
// window ending at index i. A zero trend window means the full series up to i.
func (a *DriftAnalyzer) trendAt(days, rates []float64, i int) model.Trend {
	lo := 0
	if a.cfg.TrendWindow > 0 && i+1 > a.cfg.TrendWindow {
		lo = i + 1 - a.cfg.TrendWindow
	}
	slope := linearSlope(days[lo:i+1], rates[lo:i+1])
	switch {
	case slope > a.cfg.TrendEpsilon:
		return model.TrendIncreasing
	case slope < -a.cfg.TrendEpsilon:
		return model.TrendDecreasing
	default:
		return model.TrendStable
	}
}

// ClassifyDrift grades mean drift magnitude against the constellation
// tolerance band. It is a pure function of (magnitude, tolerance, class):
// within tolerance is good, within twice the tolerance acceptable, beyond
// poor. Orbit classes that are not held to a longitude box are exempt:
// their drift is a designed characteristic, not a fault.
func ClassifyDrift(meanRate, toleranceDegPerDay float64, class model.OrbitClass) model.DriftBand {
	if !class.DriftControlled() {
		return model.DriftBandExempt
	}
	mag := math.Abs(meanRate)
	switch {
	case mag <= toleranceDegPerDay:
		return model.DriftBandGood
	case mag <= 2*toleranceDegPerDay:
		return model.DriftBandAcceptable
	default:
		return model.DriftBandPoor
	}
}

func driftDirection(rate float64) model.DriftDirection {
	switch {
	case rate > directionEpsilon:
		return model.DriftEastward
	case rate < -directionEpsilon:
		return model.DriftWestward
	default:
		return model.DriftStable
	}
}
