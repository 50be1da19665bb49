package model

import "time"

// DriftDirection indicates which way a satellite's subsatellite longitude
// is moving. Presentation layers map these to any decorative rendering.
type DriftDirection int

const (
	DriftStable DriftDirection = iota
	DriftEastward
	DriftWestward
)

func (d DriftDirection) String() string {
	switch d {
	case DriftEastward:
		return "EASTWARD"
	case DriftWestward:
		return "WESTWARD"
	default:
		return "STABLE"
	}
}

// Trend classifies the slope of drift rate over a trailing window.
type Trend int

const (
	TrendStable Trend = iota
	TrendIncreasing
	TrendDecreasing
)

func (t Trend) String() string {
	switch t {
	case TrendIncreasing:
		return "INCREASING"
	case TrendDecreasing:
		return "DECREASING"
	default:
		return "STABLE"
	}
}

// DriftSample is the instantaneous longitudinal drift at one epoch, with the
// rolling trend classification over the configured trailing window.
type DriftSample struct {
	Epoch     time.Time
	RateDeg   float64 // deg/day, positive = eastward
	Direction DriftDirection
	Trend     Trend
}

// DriftBand grades mean drift magnitude against the constellation tolerance.
type DriftBand int

const (
	DriftBandGood DriftBand = iota
	DriftBandAcceptable
	DriftBandPoor
	DriftBandExempt // inclined orbit classes where longitude drift is by design
)

func (b DriftBand) String() string {
	switch b {
	case DriftBandGood:
		return "GOOD"
	case DriftBandAcceptable:
		return "ACCEPTABLE"
	case DriftBandPoor:
		return "POOR"
	default:
		return "EXEMPT"
	}
}

// DriftSummary aggregates a satellite's drift behaviour over one analysis run.
type DriftSummary struct {
	Samples []DriftSample

	MeanRate    float64 // deg/day
	StdRate     float64
	CurrentRate float64
	TrendSlope  float64 // deg/day per day, least-squares fit over the series
	Band        DriftBand
}
