package model

import "time"

// OrbitClass identifies the broad orbit regime a satellite is controlled to.
// It decides whether longitudinal drift tolerance applies at all: inclined
// geosynchronous orbits drift by design.
type OrbitClass int

const (
	OrbitUnclassified OrbitClass = iota
	OrbitGEO
	OrbitIGSO
	OrbitMEO
)

func (c OrbitClass) String() string {
	switch c {
	case OrbitGEO:
		return "GEO"
	case OrbitIGSO:
		return "IGSO"
	case OrbitMEO:
		return "MEO"
	default:
		return "UNCLASSIFIED"
	}
}

// DriftControlled reports whether the class is held to a longitude box.
func (c OrbitClass) DriftControlled() bool { return c == OrbitGEO }

// HealthStatus is the fixed four-tier classification of the composite score.
// Band edges are closed on the lower bound: 80-100 HEALTHY, 60-79 MARGINAL,
// 40-59 DEGRADED, 0-39 CRITICAL.
type HealthStatus int

const (
	StatusCritical HealthStatus = iota
	StatusDegraded
	StatusMarginal
	StatusHealthy
)

func (s HealthStatus) String() string {
	switch s {
	case StatusHealthy:
		return "HEALTHY"
	case StatusMarginal:
		return "MARGINAL"
	case StatusDegraded:
		return "DEGRADED"
	default:
		return "CRITICAL"
	}
}

// ViolationKind identifies which configured service requirement a satellite
// breached.
type ViolationKind int

const (
	ViolationLongitude ViolationKind = iota
	ViolationSemiMajorAxis
	ViolationEccentricity
	ViolationUniformity
)

func (k ViolationKind) String() string {
	switch k {
	case ViolationLongitude:
		return "LONGITUDE"
	case ViolationSemiMajorAxis:
		return "SEMI_MAJOR_AXIS"
	case ViolationEccentricity:
		return "ECCENTRICITY"
	default:
		return "UNIFORMITY"
	}
}

// RequirementViolation records one service-requirement breach observed at
// the latest epoch of the analysis window. Deviation is in the requirement's
// own units (degrees, kilometres, or dimensionless), measured past the limit.
type RequirementViolation struct {
	Kind      ViolationKind
	Observed  float64
	Limit     float64
	Deviation float64
}

// SubScore is one contributing factor of the composite health score.
// Defined distinguishes "not computable for this satellite" from a computed
// zero; undefined sub-scores are excluded from the weighted sum and their
// weight is redistributed over the defined ones.
type SubScore struct {
	Value   float64 // [0,100]
	Defined bool
}

// HealthAssessment is the composite health picture for one satellite,
// recomputed wholesale per analysis run.
type HealthAssessment struct {
	SatelliteID string
	Class       OrbitClass
	Score       float64 // [0,100]
	Status      HealthStatus

	Inclination SubScore
	Maintenance SubScore
	Uniformity  SubScore
	Drift       SubScore

	MeanInclinationDeg float64
	InclinationDevDeg  float64
	ManeuversPerMonth  float64
	UniformityCV       float64 // coefficient of variation of inter-event gaps
	UniformityIndex    float64 // 1 - min(CV, 1)

	// Cadence analysis per maneuver axis, from the confirmed event history.
	EastWestPattern   ManeuverPattern
	NorthSouthPattern ManeuverPattern

	// Service-requirement breaches at the latest epoch. Empty means every
	// configured bound held; bounds left at zero in the configuration are
	// not checked.
	Violations []RequirementViolation

	ObservedFrom time.Time
	ObservedTo   time.Time
}
