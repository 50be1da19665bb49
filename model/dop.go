package model

import "time"

// Observer is a ground location for DOP evaluation.
type Observer struct {
	Name   string
	LatDeg float64
	LonDeg float64
	AltM   float64
}

// DOPQuality is the standard lookup on GDOP: <2 excellent, 2-4 good,
// 4-6 moderate, 6-8 fair, beyond poor.
type DOPQuality int

const (
	DOPExcellent DOPQuality = iota
	DOPGood
	DOPModerate
	DOPFair
	DOPPoor
)

func (q DOPQuality) String() string {
	switch q {
	case DOPExcellent:
		return "EXCELLENT"
	case DOPGood:
		return "GOOD"
	case DOPModerate:
		return "MODERATE"
	case DOPFair:
		return "FAIR"
	default:
		return "POOR"
	}
}

// SatelliteView is one satellite's look angles from an observer at an epoch.
type SatelliteView struct {
	SatelliteID  string
	AzimuthDeg   float64
	ElevationDeg float64
	RangeKm      float64
	Visible      bool // above the elevation mask
}

// DOPSample is the dilution-of-precision geometry at one epoch for one
// observer. Defined is false when fewer than four satellites are visible or
// the geometry matrix is near-singular; the DOP fields are then meaningless
// and must not be read. A Defined=false sample is the explicit
// "insufficient geometry" marker, never NaN or silent zeros.
type DOPSample struct {
	Epoch    time.Time
	Observer Observer

	VisibleCount int
	Views        []SatelliteView

	Defined bool
	GDOP    float64
	PDOP    float64
	HDOP    float64
	VDOP    float64
	TDOP    float64
	Quality DOPQuality
}

// GroundTrackBox is the lat-lon envelope of a satellite's subsatellite points
// over the DOP sampling window.
type GroundTrackBox struct {
	SatelliteID string
	MinLatDeg   float64
	MaxLatDeg   float64
	MeanLatDeg  float64
	MinLonDeg   float64
	MaxLonDeg   float64
	MeanLonDeg  float64
	SampleCount int
}
