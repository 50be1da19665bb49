// Package config holds the immutable run configuration for the monitor.
// A single Config value is built at startup from defaults, an optional YAML
// file, and environment overrides, validated once, and passed explicitly into
// every component constructor. Nothing mutates it mid-run.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ElectricPlant19/GNSS-Health-Monitor/model"
)

// Requirement is the per-satellite service requirement: where the satellite
// is supposed to sit and how tightly it must be controlled.
type Requirement struct {
	Class                string  `yaml:"class"` // GEO | IGSO | MEO
	TargetLongitudeDeg   float64 `yaml:"target_longitude_deg"`
	LongitudeTolDeg      float64 `yaml:"longitude_tol_deg"`
	TargetInclinationDeg float64 `yaml:"target_inclination_deg"`
	InclinationTolDeg    float64 `yaml:"inclination_tol_deg"`
	HasInclinationTarget bool    `yaml:"has_inclination_target"`
	SMATargetKm          float64 `yaml:"sma_target_km"`
	SMATolKm             float64 `yaml:"sma_tol_km"`
	EccentricityMax      float64 `yaml:"eccentricity_max"`
}

// OrbitClass maps the configured class string onto the model enum.
func (r Requirement) OrbitClass() model.OrbitClass {
	switch r.Class {
	case "GEO", "GSO":
		return model.OrbitGEO
	case "IGSO":
		return model.OrbitIGSO
	case "MEO":
		return model.OrbitMEO
	default:
		return model.OrbitUnclassified
	}
}

// Detector holds the maneuver-detector thresholds.
type Detector struct {
	ZThreshold          float64 `yaml:"z_threshold"`
	SMAFloorKm          float64 `yaml:"sma_floor_km"`
	DriftFloorDegPerDay float64 `yaml:"drift_floor_deg_per_day"`
	InclinationFloorDeg float64 `yaml:"inclination_floor_deg"`
	PersistenceWindow   int     `yaml:"persistence_window"`
	RollingWindow       int     `yaml:"rolling_window"`
}

// Drift holds the drift-analyzer tolerances.
type Drift struct {
	GEOToleranceDegPerDay float64 `yaml:"geo_tolerance_deg_per_day"`
	TrendEpsilon          float64 `yaml:"trend_epsilon"` // deg/day per day
	TrendWindow           int     `yaml:"trend_window"`  // samples; 0 = full series
}

// Health holds the scorer weights and maintenance-frequency band.
type Health struct {
	WeightInclination       float64 `yaml:"weight_inclination"`
	WeightMaintenance       float64 `yaml:"weight_maintenance"`
	WeightUniformity        float64 `yaml:"weight_uniformity"`
	WeightDrift             float64 `yaml:"weight_drift"`
	MinManeuversPerMonth    float64 `yaml:"min_maneuvers_per_month"`
	MaxManeuversPerMonth    float64 `yaml:"max_maneuvers_per_month"`
	UniformityThreshold     float64 `yaml:"uniformity_threshold"`
	InclinationToleranceDeg float64 `yaml:"inclination_tolerance_deg"` // fallback when the requirement has none
}

// ObserverSpec is a YAML-facing observer location.
type ObserverSpec struct {
	Name   string  `yaml:"name"`
	LatDeg float64 `yaml:"lat_deg"`
	LonDeg float64 `yaml:"lon_deg"`
	AltM   float64 `yaml:"alt_m"`
}

// DOP holds the DOP-engine sampling parameters.
type DOP struct {
	ElevationMaskDeg float64        `yaml:"elevation_mask_deg"`
	TimestepMinutes  int            `yaml:"timestep_minutes"`
	HorizonDays      float64        `yaml:"horizon_days"`
	Observers        []ObserverSpec `yaml:"observers"`
	// Inactive satellites are excluded from DOP visibility (dead clocks
	// contribute no ranging signal) but still receive a health assessment.
	Inactive []string `yaml:"inactive"`
}

// Step returns the sampling cadence as a duration.
func (d DOP) Step() time.Duration { return time.Duration(d.TimestepMinutes) * time.Minute }

// Horizon returns the sampling window length as a duration.
func (d DOP) Horizon() time.Duration {
	return time.Duration(d.HorizonDays * 24 * float64(time.Hour))
}

// ObserverList converts the YAML specs into model observers.
func (d DOP) ObserverList() []model.Observer {
	out := make([]model.Observer, 0, len(d.Observers))
	for _, o := range d.Observers {
		out = append(out, model.Observer{Name: o.Name, LatDeg: o.LatDeg, LonDeg: o.LonDeg, AltM: o.AltM})
	}
	return out
}

// IsInactive reports whether the satellite is on the inactive list.
func (d DOP) IsInactive(satelliteID string) bool {
	for _, id := range d.Inactive {
		if id == satelliteID {
			return true
		}
	}
	return false
}

// Config is the whole run configuration.
type Config struct {
	Constellation string                 `yaml:"constellation"`
	Satellites    map[string]Requirement `yaml:"satellites"`
	MinSeriesLen  int                    `yaml:"min_series_len"`
	Workers       int                    `yaml:"workers"`

	Detector Detector `yaml:"detector"`
	Drift    Drift    `yaml:"drift"`
	Health   Health   `yaml:"health"`
	DOP      DOP      `yaml:"dop"`
}

// RequirementFor returns the configured requirement for a satellite and
// whether one exists.
func (c Config) RequirementFor(satelliteID string) (Requirement, bool) {
	req, ok := c.Satellites[satelliteID]
	return req, ok
}

// Default returns the baseline configuration for a regional GEO/IGSO
// navigation constellation.
func Default() Config {
	return Config{
		Constellation: "GNSS",
		MinSeriesLen:  2,
		Workers:       4,
		Detector: Detector{
			ZThreshold:          3.0,
			SMAFloorKm:          0.5,
			DriftFloorDegPerDay: 0.05,
			InclinationFloorDeg: 0.01,
			PersistenceWindow:   2,
			RollingWindow:       5,
		},
		Drift: Drift{
			GEOToleranceDegPerDay: 0.05,
			TrendEpsilon:          0.001,
			TrendWindow:           0,
		},
		Health: Health{
			WeightInclination:       0.35,
			WeightMaintenance:       0.25,
			WeightUniformity:        0.15,
			WeightDrift:             0.25,
			MinManeuversPerMonth:    1,
			MaxManeuversPerMonth:    8,
			UniformityThreshold:     0.8,
			InclinationToleranceDeg: 1.0,
		},
		DOP: DOP{
			ElevationMaskDeg: 5,
			TimestepMinutes:  15,
			HorizonDays:      1.5,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path, and GNSSMON_WORKERS from the environment. Configuration errors are
// fatal at run start: Load validates before returning.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if raw := os.Getenv("GNSSMON_WORKERS"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return cfg, fmt.Errorf("GNSSMON_WORKERS: %w", err)
		}
		cfg.Workers = n
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks every threshold the pipeline depends on. It returns the
// first problem found; a Config that fails validation must not be used.
func (c Config) Validate() error {
	if c.MinSeriesLen < 2 {
		return fmt.Errorf("min_series_len %d: need at least 2 records to compute a rate", c.MinSeriesLen)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers %d: must be positive", c.Workers)
	}
	if c.Detector.ZThreshold <= 0 {
		return fmt.Errorf("detector.z_threshold %g: must be positive", c.Detector.ZThreshold)
	}
	if c.Detector.SMAFloorKm < 0 || c.Detector.DriftFloorDegPerDay < 0 || c.Detector.InclinationFloorDeg < 0 {
		return fmt.Errorf("detector floors must be non-negative")
	}
	if c.Detector.PersistenceWindow < 1 {
		return fmt.Errorf("detector.persistence_window %d: must be at least 1", c.Detector.PersistenceWindow)
	}
	if c.Detector.RollingWindow < 2 {
		return fmt.Errorf("detector.rolling_window %d: must be at least 2", c.Detector.RollingWindow)
	}
	if c.Drift.GEOToleranceDegPerDay <= 0 {
		return fmt.Errorf("drift.geo_tolerance_deg_per_day %g: must be positive", c.Drift.GEOToleranceDegPerDay)
	}
	if c.Drift.TrendEpsilon < 0 {
		return fmt.Errorf("drift.trend_epsilon %g: must be non-negative", c.Drift.TrendEpsilon)
	}
	h := c.Health
	for _, w := range []struct {
		name  string
		value float64
	}{
		{"weight_inclination", h.WeightInclination},
		{"weight_maintenance", h.WeightMaintenance},
		{"weight_uniformity", h.WeightUniformity},
		{"weight_drift", h.WeightDrift},
	} {
		if w.value < 0 {
			return fmt.Errorf("health.%s %g: must be non-negative", w.name, w.value)
		}
	}
	if h.WeightInclination+h.WeightMaintenance+h.WeightUniformity+h.WeightDrift <= 0 {
		return fmt.Errorf("health weights sum to zero")
	}
	if h.MinManeuversPerMonth < 0 || h.MaxManeuversPerMonth < h.MinManeuversPerMonth {
		return fmt.Errorf("health maneuver band [%g, %g]: invalid", h.MinManeuversPerMonth, h.MaxManeuversPerMonth)
	}
	if h.InclinationToleranceDeg <= 0 {
		return fmt.Errorf("health.inclination_tolerance_deg %g: must be positive", h.InclinationToleranceDeg)
	}
	if c.DOP.ElevationMaskDeg < 0 || c.DOP.ElevationMaskDeg >= 90 {
		return fmt.Errorf("dop.elevation_mask_deg %g: outside [0, 90)", c.DOP.ElevationMaskDeg)
	}
	if c.DOP.TimestepMinutes <= 0 {
		return fmt.Errorf("dop.timestep_minutes %d: must be positive", c.DOP.TimestepMinutes)
	}
	if c.DOP.HorizonDays <= 0 {
		return fmt.Errorf("dop.horizon_days %g: must be positive", c.DOP.HorizonDays)
	}
	for _, o := range c.DOP.Observers {
		if o.LatDeg < -90 || o.LatDeg > 90 {
			return fmt.Errorf("observer %q: latitude %g outside [-90, 90]", o.Name, o.LatDeg)
		}
		if o.LonDeg < -180 || o.LonDeg > 360 {
			return fmt.Errorf("observer %q: longitude %g outside [-180, 360]", o.Name, o.LonDeg)
		}
	}
	for id, req := range c.Satellites {
		if req.OrbitClass() == model.OrbitUnclassified && req.Class != "" {
			return fmt.Errorf("satellite %q: unknown orbit class %q", id, req.Class)
		}
		if req.HasInclinationTarget && req.InclinationTolDeg <= 0 {
			return fmt.Errorf("satellite %q: inclination target without positive tolerance", id)
		}
	}
	return nil
}
