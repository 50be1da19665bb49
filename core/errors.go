package core

import "fmt"

// InsufficientDataError reports a series too short for a computation. It is
// recoverable: callers skip the satellite and report "no data" instead of
// aborting the batch.
type InsufficientDataError struct {
	SatelliteID string
	Have        int
	Need        int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("satellite %s: %d element records, need at least %d", e.SatelliteID, e.Have, e.Need)
}

// InvalidElementError reports a single raw record with physically implausible
// fields. The record is rejected at the ingestion boundary and never becomes
// an OrbitalElementRecord.
type InvalidElementError struct {
	SatelliteID string
	Field       string
	Value       float64
	Reason      string
}

func (e *InvalidElementError) Error() string {
	return fmt.Sprintf("satellite %s: invalid %s %g: %s", e.SatelliteID, e.Field, e.Value, e.Reason)
}

// SingularGeometryError reports that the DOP geometry matrix could not be
// inverted. Recovered locally: the epoch's sample is marked undefined and the
// run continues.
type SingularGeometryError struct {
	Observer string
	Reason   string
}

func (e *SingularGeometryError) Error() string {
	return fmt.Sprintf("observer %s: singular DOP geometry: %s", e.Observer, e.Reason)
}
