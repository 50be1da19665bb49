package model

import "time"

// ManeuverAxis classifies what a station-keeping burn corrected.
type ManeuverAxis int

const (
	// AxisEastWest marks longitude (drift/semi-major-axis) corrections.
	AxisEastWest ManeuverAxis = iota
	// AxisNorthSouth marks inclination corrections.
	AxisNorthSouth
)

func (a ManeuverAxis) String() string {
	if a == AxisNorthSouth {
		return "NORTH_SOUTH"
	}
	return "EAST_WEST"
}

// ManeuverEvent is one confirmed station-keeping maneuver. When the
// persistence window spans several samples the event covers the whole run:
// Epoch is the first flagged sample and EpochEnd the last. Magnitude is the
// run's peak deviation in the triggering element's units (km for
// semi-major-axis detections, deg/day for drift, deg for inclination).
type ManeuverEvent struct {
	SatelliteID string
	Epoch       time.Time
	EpochEnd    time.Time
	Axis        ManeuverAxis
	Magnitude   float64
	ZScore      float64 // peak robust z-score within the run

	// StartIndex/EndIndex are the triggering sample indexes in the source
	// series. Events for one satellite never have overlapping index ranges.
	StartIndex int
	EndIndex   int
}

// ManeuverPattern summarizes inter-maneuver cadence for one axis or for all
// maneuvers combined. Confidence grades how regular the observed intervals
// are; ExpectedIntervalDays is the median observed interval.
type ManeuverPattern struct {
	Count                int
	ExpectedIntervalDays float64
	DaysSinceLast        float64
	Overdue              bool
	Confidence           PatternConfidence
}

// PatternConfidence grades the regularity of a maneuver cadence.
type PatternConfidence int

const (
	ConfidenceNone PatternConfidence = iota
	ConfidenceVeryLow
	ConfidenceLow
	ConfidenceMedium
	ConfidenceHigh
)

func (c PatternConfidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "HIGH"
	case ConfidenceMedium:
		return "MEDIUM"
	case ConfidenceLow:
		return "LOW"
	case ConfidenceVeryLow:
		return "VERY_LOW"
	default:
		return "NONE"
	}
}
